package conversation

import (
	"fmt"

	"github.com/xaenox/time-bot/internal/models"
	"go.uber.org/zap"
)

const wellBeingPrompt = "Оцените самочувствие от 1 (плохо) до 10 (отлично)."

// expectedSymptom maps a yes/no survey state to the question it asks.
func expectedSymptom(s State) (Symptom, bool) {
	switch s {
	case StateAskBloating:
		return SymptomBloating, true
	case StateAskDiarrhea:
		return SymptomDiarrhea, true
	}
	return "", false
}

func surveyKeyboard(s State) Keyboard {
	switch s {
	case StateAskBloating:
		return KeyboardBloating
	case StateAskDiarrhea:
		return KeyboardDiarrhea
	case StateAskWellBeing:
		return KeyboardWellBeing
	}
	return KeyboardNone
}

func (m *Machine) answerBool(in Input, symptom Symptom, answer Answer) Outcome {
	sess, ok := m.sessions.Get(in.ChatID)
	if !ok {
		return alert("Опрос не запущен.")
	}
	if answer == AnswerCancel {
		return m.cancelSurvey(in.ChatID, sess)
	}
	want, ok := expectedSymptom(sess.State)
	if !ok || want != symptom {
		return alert("Сейчас задаю другой вопрос.")
	}

	value := answer == AnswerYes
	switch symptom {
	case SymptomBloating:
		sess.Condition.Bloating = &value
		sess.State = StateAskDiarrhea
		m.sessions.Save(in.ChatID, sess)
		return reply("Есть ли диарея?", KeyboardDiarrhea)
	default:
		sess.Condition.Diarrhea = &value
		sess.State = StateAskWellBeing
		m.sessions.Save(in.ChatID, sess)
		return reply(wellBeingPrompt, KeyboardWellBeing)
	}
}

func (m *Machine) answerWellBeing(in Input, score int) Outcome {
	sess, ok := m.sessions.Get(in.ChatID)
	if !ok {
		return alert("Опрос не запущен.")
	}
	if sess.State != StateAskWellBeing {
		return alert("Сейчас задаю другой вопрос.")
	}
	if score < models.MinWellBeing || score > models.MaxWellBeing {
		return alert(fmt.Sprintf("Оценка должна быть от %d до %d.", models.MinWellBeing, models.MaxWellBeing))
	}

	draft := sess.Condition
	draft.WellBeing = &score
	condition, err := draft.Condition()
	if err != nil {
		return alert("Пожалуйста, ответьте на все вопросы.")
	}

	if sess.Flow == FlowCondition {
		return m.persistCondition(in.ChatID, condition)
	}
	return m.persistEvent(in.ChatID, sess, condition)
}

func (m *Machine) persistEvent(chatID int64, sess Session, condition models.Condition) Outcome {
	ev, err := m.events.PersistEvent(sess.Draft, condition)
	if err != nil {
		m.logger.Error("Failed to persist food event", zap.Int64("chat_id", chatID), zap.Error(err))
		return reply("Не удалось сохранить событие. Попробуйте ещё раз.", KeyboardWellBeing)
	}
	m.sessions.Delete(chatID)
	return reply(fmt.Sprintf("Записал событие. Продукты сохранены в FoodLog и симптомы — в ConditionLog.\n"+
		"Всего ингредиентов: %d.", len(ev.Foods)), KeyboardStart)
}

func (m *Machine) persistCondition(chatID int64, condition models.Condition) Outcome {
	if _, err := m.conditions.Persist(m.clock.Now(), m.newID(), condition); err != nil {
		m.logger.Error("Failed to persist condition", zap.Int64("chat_id", chatID), zap.Error(err))
		return reply("Не удалось сохранить самочувствие. Попробуйте ещё раз.", KeyboardWellBeing)
	}
	m.sessions.Delete(chatID)
	return reply("Самочувствие сохранено в ConditionLog. Спасибо!", KeyboardStart)
}

func (m *Machine) cancelSurvey(chatID int64, sess Session) Outcome {
	m.sessions.Delete(chatID)
	if sess.Flow == FlowCondition {
		return reply("Запись самочувствия отменена.", KeyboardStart)
	}
	return reply("Фиксация отменена. Ничего не сохранено. Нажмите «Добавить еду», чтобы начать заново.", KeyboardStart)
}
