// Package conversation implements the food-event flow, the standalone
// condition survey and the food tracker menus as a transport-free state
// machine. The bot feeds it inputs and renders the returned outcomes.
package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xaenox/time-bot/internal/clock"
	"github.com/xaenox/time-bot/internal/food"
	"github.com/xaenox/time-bot/internal/models"
	"github.com/xaenox/time-bot/internal/storage"
	"go.uber.org/zap"
)

// DevTestDelay is how far ahead the test reminder is scheduled.
const DevTestDelay = 20 * time.Second

const previewTail = 5

type EventPersister interface {
	PersistEvent(draft *models.FoodEventDraft, condition models.Condition) (models.PersistedEvent, error)
}

type ConditionPersister interface {
	Persist(ts time.Time, shortID string, c models.Condition) (string, error)
	PersistBreath(ts time.Time, severity models.BreathSeverity) (string, error)
}

type ReminderStore interface {
	Upsert(r models.BreathReminder) error
}

type Deps struct {
	Sessions   storage.SessionStore[Session]
	Events     EventPersister
	Conditions ConditionPersister
	Reminders  ReminderStore
	// Composition and Photos are optional; nil disables the sub-flows using them.
	Composition food.CompositionExtractor
	Photos      food.PhotoIntake
	Clock       clock.Clock
	Logger      *zap.Logger
}

// Machine is safe for concurrent use across chats; the caller serializes
// inputs within one chat.
type Machine struct {
	sessions    storage.SessionStore[Session]
	events      EventPersister
	conditions  ConditionPersister
	reminders   ReminderStore
	composition food.CompositionExtractor
	photos      food.PhotoIntake
	clock       clock.Clock
	newID       func() string
	logger      *zap.Logger
}

func NewMachine(d Deps) *Machine {
	return &Machine{
		sessions:    d.Sessions,
		events:      d.Events,
		conditions:  d.Conditions,
		reminders:   d.Reminders,
		composition: d.Composition,
		photos:      d.Photos,
		clock:       d.Clock,
		newID:       clock.ShortID,
		logger:      d.Logger,
	}
}

// Active reports whether chatID is inside a flow.
func (m *Machine) Active(chatID int64) bool {
	_, ok := m.sessions.Get(chatID)
	return ok
}

// Menu shows the food tracker start menu.
func (m *Machine) Menu() Outcome {
	return reply("Привет! Я помогу зафиксировать приём пищи. Нажмите «Добавить еду», чтобы начать.", KeyboardStart)
}

// StartFood begins a new food event, discarding any running flow.
func (m *Machine) StartFood(chatID int64) Outcome {
	m.sessions.Save(chatID, Session{
		Flow:  FlowFood,
		State: StateAddingFoods,
		Draft: models.NewFoodEventDraft(m.clock.Now()),
	})
	return reply("Введите ингредиенты, каждый с новой строки. "+
		"После этого используйте кнопки ниже, чтобы завершить или продолжить.", KeyboardAddingFoods)
}

// Cancel drops the running flow without persisting anything.
func (m *Machine) Cancel(chatID int64) Outcome {
	if !m.Active(chatID) {
		return reply("Сейчас ничего не записывается.", KeyboardNone)
	}
	m.sessions.Delete(chatID)
	return reply("Диалог отменён. Введите /add, чтобы начать заново.", KeyboardNone)
}

// HandleMessage routes a text or photo message. It reports false when the
// message does not belong to a flow and should go to the note pipeline.
func (m *Machine) HandleMessage(ctx context.Context, in Input) (Outcome, bool) {
	sess, ok := m.sessions.Get(in.ChatID)
	if !ok {
		if in.Photo == nil {
			return Outcome{}, false
		}
		return m.photoIntake(ctx, in), true
	}

	switch sess.State {
	case StateAddingFoods:
		return m.addFoods(in, sess), true
	case StateWaitingPhoto:
		return m.recognizePhoto(ctx, in, sess), true
	case StateGuessInput:
		return m.guess(ctx, in, sess), true
	case StateConfirmFinish:
		return reply("Подтвердите список кнопками ниже.", KeyboardConfirmFinish), true
	default:
		return reply("Ответьте, пожалуйста, кнопками ниже.", surveyKeyboard(sess.State)), true
	}
}

// HandleCallback applies one button press.
func (m *Machine) HandleCallback(ctx context.Context, in Input) Outcome {
	cb, err := ParseCallback(in.Callback)
	if err != nil {
		m.logger.Warn("Unknown callback", zap.Int64("chat_id", in.ChatID), zap.String("data", in.Callback))
		return alert("Неизвестное действие.")
	}

	switch cb.Kind {
	case KindAddFlow:
		return m.addFlow(in, cb.Action)
	case KindConditionBool:
		return m.answerBool(in, cb.Symptom, cb.Answer)
	case KindWellBeing:
		return m.answerWellBeing(in, cb.Score)
	case KindOther:
		return m.other(in, cb.Action)
	case KindBreath:
		return m.breath(cb.Level)
	case KindBreathReminder:
		return m.setReminder(in, cb.Time)
	case KindBreathSkip:
		out := reply("Напоминание пропущено. Запись не изменена.", KeyboardStart)
		out.Notice = "Напоминание пропущено."
		return out
	}
	return alert("Неизвестное действие.")
}

func (m *Machine) addFlow(in Input, action string) Outcome {
	switch action {
	case ActionStart:
		return m.StartFood(in.ChatID)
	case ActionCondition:
		m.sessions.Save(in.ChatID, Session{Flow: FlowCondition, State: StateAskBloating})
		return reply("Отдельная запись самочувствия. Есть ли вздутие?", KeyboardBloating)
	}

	sess, ok := m.sessions.Get(in.ChatID)
	if !ok || sess.Flow != FlowFood {
		return alert("Это действие сейчас недоступно.")
	}

	switch action {
	case ActionCancel:
		m.sessions.Delete(in.ChatID)
		return reply("Запись отменена. Нажмите «Добавить еду», чтобы начать заново.", KeyboardStart)

	case ActionContinue:
		if sess.State != StateAddingFoods {
			break
		}
		return Outcome{Notice: "Продолжайте вводить ингредиенты."}

	case ActionFinish:
		if sess.State != StateAddingFoods {
			break
		}
		if sess.Draft.Len() == 0 {
			return alert("Сначала добавьте ингредиенты.")
		}
		sess.State = StateConfirmFinish
		m.sessions.Save(in.ChatID, sess)
		return reply("Проверьте список ингредиентов. Готовы перейти к оценке состояния?\n"+
			bullets(sess.Draft.FoodsRaw), KeyboardConfirmFinish)

	case ActionBack:
		if sess.State != StateConfirmFinish {
			break
		}
		sess.State = StateAddingFoods
		m.sessions.Save(in.ChatID, sess)
		return reply("Введите дополнительные ингредиенты или завершите ввод.", KeyboardAddingFoods)

	case ActionConfirm:
		if sess.State != StateConfirmFinish {
			break
		}
		if sess.Draft.Len() == 0 {
			return alert("Добавьте хотя бы один ингредиент.")
		}
		sess.State = StateAskBloating
		sess.Condition = models.ConditionDraft{}
		m.sessions.Save(in.ChatID, sess)
		return reply("Есть ли вздутие?", KeyboardBloating)

	case ActionPhotoStart:
		if sess.State != StateAddingFoods {
			break
		}
		if m.composition == nil {
			return alert("Распознавание фото недоступно.")
		}
		sess.State = StateWaitingPhoto
		m.sessions.Save(in.ChatID, sess)
		return reply("Отправьте фото состава продукта. После распознавания вы сможете отредактировать текст.", KeyboardAddingFoods)

	case ActionGuessStart:
		if sess.State != StateAddingFoods {
			break
		}
		if m.composition == nil {
			return alert("Предположение состава недоступно.")
		}
		sess.State = StateGuessInput
		m.sessions.Save(in.ChatID, sess)
		return reply("Введите название блюда или отправьте фото блюда, чтобы я предположил состав.", KeyboardAddingFoods)

	case ActionCompositionAccept:
		if sess.State != StateAddingFoods {
			break
		}
		if len(sess.Pending) == 0 {
			return alert("Нет распознанного текста. Попробуйте снова.")
		}
		lines, source := sess.Pending, sess.PendingSource
		sess.Draft.Append(lines...)
		sess.Pending, sess.PendingSource = nil, ""
		m.sessions.Save(in.ChatID, sess)
		label := "предположения состава"
		if source == SourcePhoto {
			label = "распознавания состава по фото"
		}
		return reply(fmt.Sprintf("Добавил %d строк из %s. Продолжайте ввод.", len(lines), label), KeyboardAddingFoods)

	case ActionCompositionRetry:
		if sess.State != StateAddingFoods || sess.PendingSource == "" {
			break
		}
		text := "Введите другое название блюда или отправьте фото блюда для предположения состава."
		sess.State = StateGuessInput
		if sess.PendingSource == SourcePhoto {
			text = "Отправьте другое фото состава. Текущее распознавание будет перезаписано."
			sess.State = StateWaitingPhoto
		}
		sess.Pending, sess.PendingSource = nil, ""
		m.sessions.Save(in.ChatID, sess)
		return reply(text, KeyboardAddingFoods)
	}
	return alert("Это действие сейчас недоступно.")
}

func (m *Machine) addFoods(in Input, sess Session) Outcome {
	foods := food.SplitLines(in.Text)
	if len(foods) == 0 {
		return reply("Не нашёл текста с ингредиентами. Напишите список строками.", KeyboardAddingFoods)
	}
	sess.Draft.Append(foods...)
	m.sessions.Save(in.ChatID, sess)

	all := sess.Draft.FoodsRaw
	tail := all[max(0, len(all)-previewTail):]
	return reply(fmt.Sprintf("Добавил %d позиций. Всего: %d.\n%s", len(foods), len(all), bullets(tail)), KeyboardAddingFoods)
}

func (m *Machine) recognizePhoto(ctx context.Context, in Input, sess Session) Outcome {
	if in.Photo == nil {
		return reply("Пришлите изображение состава. Если передумали, нажмите кнопку «Отменить».", KeyboardAddingFoods)
	}
	image, err := in.Photo(ctx)
	if err != nil {
		m.logger.Warn("Failed to download photo", zap.Int64("chat_id", in.ChatID), zap.Error(err))
		return reply("Не удалось загрузить фото. Попробуйте отправить его ещё раз.", KeyboardAddingFoods)
	}
	if m.composition == nil {
		return reply("Распознавание фото недоступно.", KeyboardAddingFoods)
	}
	text, err := m.composition.RecognizeFromImage(ctx, image)
	if err != nil {
		m.logger.Warn("Failed to recognize composition", zap.Int64("chat_id", in.ChatID), zap.Error(err))
		return reply("Не получилось распознать состав. Попробуйте снова или введите ингредиенты вручную.", KeyboardAddingFoods)
	}
	return m.stagePending(in.ChatID, sess, food.SplitLines(text), SourcePhoto)
}

func (m *Machine) guess(ctx context.Context, in Input, sess Session) Outcome {
	if m.composition == nil {
		return reply("Предположение состава недоступно. Попробуйте позже.", KeyboardAddingFoods)
	}

	var (
		text string
		err  error
	)
	if in.Photo != nil {
		image, loadErr := in.Photo(ctx)
		if loadErr != nil {
			m.logger.Warn("Failed to download photo", zap.Int64("chat_id", in.ChatID), zap.Error(loadErr))
			return reply("Не удалось загрузить фото. Попробуйте отправить его ещё раз.", KeyboardAddingFoods)
		}
		if text, err = m.composition.GuessFromImage(ctx, image); err != nil {
			m.logger.Warn("Failed to guess composition from photo", zap.Int64("chat_id", in.ChatID), zap.Error(err))
			return reply("Не получилось предположить состав по фото. Попробуйте снова.", KeyboardAddingFoods)
		}
	} else {
		dish := strings.TrimSpace(in.Text)
		if dish == "" {
			return reply("Отправьте название блюда текстом или пришлите фото.", KeyboardAddingFoods)
		}
		if text, err = m.composition.GuessFromText(ctx, dish); err != nil {
			m.logger.Warn("Failed to guess composition", zap.Int64("chat_id", in.ChatID), zap.Error(err))
			return reply("Не получилось предположить состав по названию. Попробуйте ещё раз.", KeyboardAddingFoods)
		}
	}
	return m.stagePending(in.ChatID, sess, food.SplitLines(text), SourceGuess)
}

func (m *Machine) stagePending(chatID int64, sess Session, lines []string, source PendingSource) Outcome {
	if len(lines) == 0 {
		return reply("Не удалось получить список ингредиентов. Попробуйте снова.", KeyboardAddingFoods)
	}
	sess.State = StateAddingFoods
	sess.Pending, sess.PendingSource = lines, source
	m.sessions.Save(chatID, sess)

	header := "Предположенный состав (проверьте и при необходимости исправьте):\n"
	if source == SourcePhoto {
		header = "Распознанный состав (проверьте и при необходимости исправьте):\n"
	}
	return reply(header+strings.Join(lines, "\n"), KeyboardComposition)
}

// photoIntake seeds a new food draft from a photo sent outside any flow.
func (m *Machine) photoIntake(ctx context.Context, in Input) Outcome {
	if m.photos == nil {
		return reply("Распознавание фото не настроено. Используйте /add, чтобы ввести ингредиенты вручную.", KeyboardNone)
	}
	image, err := in.Photo(ctx)
	if err != nil {
		m.logger.Warn("Failed to download photo", zap.Int64("chat_id", in.ChatID), zap.Error(err))
		return reply("Не смог загрузить фото. Попробуйте отправить ещё раз или используйте /add.", KeyboardNone)
	}
	kind, ingredients, err := m.photos.Analyze(ctx, image)
	if err != nil {
		m.logger.Warn("Photo intake failed", zap.Int64("chat_id", in.ChatID), zap.Error(err))
		return reply("Сервис распознавания недоступен. Попробуйте позже или используйте /add.", KeyboardNone)
	}
	if len(ingredients) == 0 {
		return reply("Не удалось извлечь ингредиенты. Попробуйте другое фото или используйте /add.", KeyboardNone)
	}

	draft := models.NewFoodEventDraft(m.clock.Now())
	draft.Append(ingredients...)
	m.sessions.Save(in.ChatID, Session{Flow: FlowFood, State: StateAddingFoods, Draft: draft})
	m.logger.Info("Photo intake seeded a draft",
		zap.Int64("chat_id", in.ChatID),
		zap.String("kind", string(kind)),
		zap.Int("ingredients", len(ingredients)))

	return reply("Распознал ингредиенты. Проверьте список и продолжайте:\n"+bullets(ingredients), KeyboardAddingFoods)
}

func bullets(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "• " + item
	}
	return strings.Join(lines, "\n")
}
