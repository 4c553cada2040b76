package conversation

import (
	"github.com/xaenox/time-bot/internal/models"
	"go.uber.org/zap"
)

// ReminderTimes are the recurring reminder slots offered to the user.
var ReminderTimes = func() []models.ClockTime {
	var out []models.ClockTime
	for m := 6 * 60; m <= 9*60; m += 30 {
		out = append(out, models.ClockTime{Hour: m / 60, Minute: m % 60})
	}
	return out
}()

// ReminderPrompt is sent by the scheduler.
func ReminderPrompt() Reply {
	return Reply{Text: "Был ли запах изо рта?", Keyboard: KeyboardBreathPrompt}
}

func (m *Machine) other(in Input, action string) Outcome {
	switch action {
	case OtherMenu:
		return reply("Выберите дополнительную опцию:", KeyboardOther)
	case OtherBack:
		return reply("Главное меню:", KeyboardStart)
	case OtherBreath:
		return reply("Какой запах изо рта утром?", KeyboardBreathSeverity)
	case OtherReminder:
		return reply("Выберите время напоминания:", KeyboardBreathReminder)
	case OtherBackTime:
		m.sessions.Delete(in.ChatID)
		return reply("Вернулся к отслеживанию времени. Просто напишите, чем занимались.", KeyboardMain)
	case OtherDevTest:
		if in.UserID == 0 {
			return alert("Не удалось определить пользователя.")
		}
		at := m.clock.Now().Add(DevTestDelay)
		err := m.reminders.Upsert(models.BreathReminder{
			UserID:  in.UserID,
			ChatID:  in.ChatID,
			Time:    at.Format(models.OneShotLayout),
			OneShot: true,
		})
		if err != nil {
			m.logger.Error("Failed to save test reminder", zap.Int64("user_id", in.UserID), zap.Error(err))
			return reply("Не удалось сохранить напоминание. Попробуйте позже.", KeyboardStart)
		}
		return reply("Тестовое напоминание придёт через 20 секунд.", KeyboardStart)
	}
	return alert("Неизвестное действие.")
}

func (m *Machine) breath(level models.BreathSeverity) Outcome {
	if _, err := m.conditions.PersistBreath(m.clock.Now(), level); err != nil {
		m.logger.Error("Failed to persist breath", zap.String("level", string(level)), zap.Error(err))
		return reply("Не удалось записать запах изо рта. Попробуйте ещё раз.", KeyboardBreathSeverity)
	}
	return reply("Записал запах изо рта.", KeyboardStart)
}

func (m *Machine) setReminder(in Input, at models.ClockTime) Outcome {
	if in.UserID == 0 {
		return alert("Не удалось определить пользователя.")
	}
	err := m.reminders.Upsert(models.BreathReminder{UserID: in.UserID, ChatID: in.ChatID, Time: at.String()})
	if err != nil {
		m.logger.Error("Failed to save reminder", zap.Int64("user_id", in.UserID), zap.Error(err))
		return reply("Не удалось сохранить напоминание. Попробуйте позже.", KeyboardStart)
	}
	return reply("Напоминание установлено на "+at.String()+".", KeyboardStart)
}
