package bot

import (
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xaenox/time-bot/internal/conversation"
	"github.com/xaenox/time-bot/internal/models"
)

// Labels of the time-tracking reply keyboard.
const (
	ButtonStats   = "Статистика за сегодня"
	ButtonTasks   = "Задачи"
	ButtonAddFood = "Добавить еду"
)

var severityLabels = map[models.BreathSeverity]string{
	models.BreathStrong: "Сильный",
	models.BreathMedium: "Средний",
	models.BreathWeak:   "Слабый",
	models.BreathNone:   "Нет",
}

func button(text, data string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, data)
}

func row(buttons ...tgbotapi.InlineKeyboardButton) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(buttons...)
}

// chunkRows lays buttons out size per row.
func chunkRows(buttons []tgbotapi.InlineKeyboardButton, size int) [][]tgbotapi.InlineKeyboardButton {
	var rows [][]tgbotapi.InlineKeyboardButton
	for len(buttons) > 0 {
		n := min(size, len(buttons))
		rows = append(rows, row(buttons[:n]...))
		buttons = buttons[n:]
	}
	return rows
}

func mainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(ButtonStats), tgbotapi.NewKeyboardButton(ButtonTasks)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(ButtonAddFood)),
	)
	kb.ResizeKeyboard = true
	return kb
}

func boolKeyboard(s conversation.Symptom) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		row(
			button("Да", conversation.ConditionBoolData(s, conversation.AnswerYes)),
			button("Нет", conversation.ConditionBoolData(s, conversation.AnswerNo)),
		),
		row(button("Отменить", conversation.ConditionBoolData(s, conversation.AnswerCancel))),
	)
}

func severityKeyboard(withSkip bool) tgbotapi.InlineKeyboardMarkup {
	var buttons []tgbotapi.InlineKeyboardButton
	for _, level := range models.BreathSeverities {
		buttons = append(buttons, button(severityLabels[level], conversation.BreathData(level)))
	}
	if withSkip {
		buttons = append(buttons, button("Пропустить", conversation.BreathSkipData()))
	}
	return tgbotapi.NewInlineKeyboardMarkup(chunkRows(buttons, 2)...)
}

// markup renders kb for a message; nil leaves the current keyboard in place.
func markup(kb conversation.Keyboard) any {
	switch kb {
	case conversation.KeyboardMain:
		return mainKeyboard()

	case conversation.KeyboardStart:
		return tgbotapi.NewInlineKeyboardMarkup(
			row(button("Добавить еду", conversation.AddFlowData(conversation.ActionStart))),
			row(button("Самочувствие", conversation.AddFlowData(conversation.ActionCondition))),
			row(button("Другое", conversation.OtherData(conversation.OtherMenu))),
			row(button("Вернуться к трекингу времени", conversation.OtherData(conversation.OtherBackTime))),
		)

	case conversation.KeyboardAddingFoods:
		return tgbotapi.NewInlineKeyboardMarkup(
			row(
				button("Продолжить ввод", conversation.AddFlowData(conversation.ActionContinue)),
				button("Завершить", conversation.AddFlowData(conversation.ActionFinish)),
			),
			row(button("Распознать состав по фото", conversation.AddFlowData(conversation.ActionPhotoStart))),
			row(button("Предположить состав", conversation.AddFlowData(conversation.ActionGuessStart))),
			row(button("Отменить", conversation.AddFlowData(conversation.ActionCancel))),
		)

	case conversation.KeyboardConfirmFinish:
		return tgbotapi.NewInlineKeyboardMarkup(
			row(button("Сохранить и продолжить", conversation.AddFlowData(conversation.ActionConfirm))),
			row(button("Вернуться к вводу", conversation.AddFlowData(conversation.ActionBack))),
			row(button("Отменить", conversation.AddFlowData(conversation.ActionCancel))),
		)

	case conversation.KeyboardBloating:
		return boolKeyboard(conversation.SymptomBloating)

	case conversation.KeyboardDiarrhea:
		return boolKeyboard(conversation.SymptomDiarrhea)

	case conversation.KeyboardWellBeing:
		var scores []tgbotapi.InlineKeyboardButton
		for i := 1; i <= 10; i++ {
			scores = append(scores, button(strconv.Itoa(i), conversation.WellBeingData(i)))
		}
		rows := chunkRows(scores, 5)
		rows = append(rows, row(button("Отменить",
			conversation.ConditionBoolData(conversation.SymptomBloating, conversation.AnswerCancel))))
		return tgbotapi.NewInlineKeyboardMarkup(rows...)

	case conversation.KeyboardOther:
		return tgbotapi.NewInlineKeyboardMarkup(
			row(button("Запах изо рта", conversation.OtherData(conversation.OtherBreath))),
			row(button("Напоминание о запахе", conversation.OtherData(conversation.OtherReminder))),
			row(button("Тест напоминания (20 секунд)", conversation.OtherData(conversation.OtherDevTest))),
			row(button("Назад", conversation.OtherData(conversation.OtherBack))),
		)

	case conversation.KeyboardBreathSeverity:
		return severityKeyboard(false)

	case conversation.KeyboardBreathPrompt:
		return severityKeyboard(true)

	case conversation.KeyboardBreathReminder:
		var times []tgbotapi.InlineKeyboardButton
		for _, t := range conversation.ReminderTimes {
			times = append(times, button(t.String(), conversation.BreathReminderData(t)))
		}
		rows := chunkRows(times, 3)
		rows = append(rows, row(button("Отмена", conversation.OtherData(conversation.OtherBack))))
		return tgbotapi.NewInlineKeyboardMarkup(rows...)

	case conversation.KeyboardComposition:
		return tgbotapi.NewInlineKeyboardMarkup(
			row(button("Добавить как есть", conversation.AddFlowData(conversation.ActionCompositionAccept))),
			row(button("Распознать заново", conversation.AddFlowData(conversation.ActionCompositionRetry))),
			row(button("Отменить", conversation.AddFlowData(conversation.ActionCancel))),
		)
	}
	return nil
}
