package conversation

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/xaenox/time-bot/internal/clock"
	"github.com/xaenox/time-bot/internal/food"
	"github.com/xaenox/time-bot/internal/models"
	"github.com/xaenox/time-bot/internal/storage"
	"go.uber.org/zap"
)

const chatID = 42

type MockEvents struct {
	Draft     *models.FoodEventDraft
	Condition models.Condition
	Calls     int
	Err       error
}

func (m *MockEvents) PersistEvent(d *models.FoodEventDraft, c models.Condition) (models.PersistedEvent, error) {
	m.Calls++
	if m.Err != nil {
		return models.PersistedEvent{}, m.Err
	}
	m.Draft, m.Condition = d, c
	return models.PersistedEvent{Foods: food.NormalizeList(d.FoodsRaw)}, nil
}

type MockConditions struct {
	Conditions []models.Condition
	Breaths    []models.BreathSeverity
}

func (m *MockConditions) Persist(_ time.Time, _ string, c models.Condition) (string, error) {
	m.Conditions = append(m.Conditions, c)
	return "ConditionLog/x.md", nil
}

func (m *MockConditions) PersistBreath(_ time.Time, s models.BreathSeverity) (string, error) {
	m.Breaths = append(m.Breaths, s)
	return "ConditionLog/breath.md", nil
}

type MockReminders struct {
	Saved []models.BreathReminder
}

func (m *MockReminders) Upsert(r models.BreathReminder) error {
	m.Saved = append(m.Saved, r)
	return nil
}

type MockComposition struct {
	Text string
	Err  error
	Got  string
}

func (m *MockComposition) RecognizeFromImage(_ context.Context, image []byte) (string, error) {
	m.Got = "image:" + string(image)
	return m.Text, m.Err
}

func (m *MockComposition) GuessFromText(_ context.Context, dish string) (string, error) {
	m.Got = "text:" + dish
	return m.Text, m.Err
}

func (m *MockComposition) GuessFromImage(_ context.Context, image []byte) (string, error) {
	m.Got = "dish-image:" + string(image)
	return m.Text, m.Err
}

type MockPhotos struct {
	Ingredients []string
}

func (m *MockPhotos) Analyze(context.Context, []byte) (food.PhotoKind, []string, error) {
	return food.PhotoDish, m.Ingredients, nil
}

type fixture struct {
	m          *Machine
	sessions   *storage.MemoryStorage[Session]
	events     *MockEvents
	conditions *MockConditions
	reminders  *MockReminders
	now        time.Time
}

func newFixture(t *testing.T, composition food.CompositionExtractor, photos food.PhotoIntake) *fixture {
	t.Helper()
	f := &fixture{
		sessions:   storage.NewMemoryStorage[Session](),
		events:     &MockEvents{},
		conditions: &MockConditions{},
		reminders:  &MockReminders{},
		now:        time.Date(2024, 5, 1, 7, 30, 0, 0, time.UTC),
	}
	f.m = NewMachine(Deps{
		Sessions:    f.sessions,
		Events:      f.events,
		Conditions:  f.conditions,
		Reminders:   f.reminders,
		Composition: composition,
		Photos:      photos,
		Clock:       clock.Func(func() time.Time { return f.now }),
		Logger:      zap.NewNop(),
	})
	return f
}

func (f *fixture) press(t *testing.T, data string) Outcome {
	t.Helper()
	return f.m.HandleCallback(context.Background(), Input{ChatID: chatID, UserID: 7, Callback: data})
}

func (f *fixture) send(t *testing.T, text string) Outcome {
	t.Helper()
	out, handled := f.m.HandleMessage(context.Background(), Input{ChatID: chatID, UserID: 7, Text: text})
	if !handled {
		t.Fatalf("message %q not handled", text)
	}
	return out
}

func (f *fixture) session(t *testing.T) Session {
	t.Helper()
	s, ok := f.sessions.Get(chatID)
	if !ok {
		t.Fatal("no session")
	}
	return s
}

func photo(data string) PhotoLoader {
	return func(context.Context) ([]byte, error) { return []byte(data), nil }
}

func TestFoodFlowHappyPath(t *testing.T) {
	f := newFixture(t, nil, nil)

	f.press(t, AddFlowData(ActionStart))
	out := f.send(t, "Овсянка\n\n  банан  \n")
	if !strings.Contains(out.Replies[0].Text, "Добавил 2 позиций. Всего: 2.") {
		t.Errorf("reply = %q", out.Replies[0].Text)
	}

	steps := []struct {
		data  string
		state State
		kb    Keyboard
	}{
		{AddFlowData(ActionFinish), StateConfirmFinish, KeyboardConfirmFinish},
		{AddFlowData(ActionConfirm), StateAskBloating, KeyboardBloating},
		{ConditionBoolData(SymptomBloating, AnswerYes), StateAskDiarrhea, KeyboardDiarrhea},
		{ConditionBoolData(SymptomDiarrhea, AnswerNo), StateAskWellBeing, KeyboardWellBeing},
	}
	for _, st := range steps {
		out := f.press(t, st.data)
		if out.Alert != "" {
			t.Fatalf("%s rejected: %s", st.data, out.Alert)
		}
		if got := f.session(t).State; got != st.state {
			t.Fatalf("after %s state = %s, want %s", st.data, got, st.state)
		}
		if out.Replies[0].Keyboard != st.kb {
			t.Errorf("after %s keyboard = %d, want %d", st.data, out.Replies[0].Keyboard, st.kb)
		}
	}

	out = f.press(t, WellBeingData(8))
	if out.Alert != "" || !strings.Contains(out.Replies[0].Text, "Всего ингредиентов: 2.") {
		t.Fatalf("final outcome = %+v", out)
	}
	if f.m.Active(chatID) {
		t.Error("session not cleared after persisting")
	}
	if f.events.Calls != 1 || !slices.Equal(f.events.Draft.FoodsRaw, []string{"Овсянка", "банан"}) {
		t.Errorf("persisted draft = %+v", f.events.Draft)
	}
	if f.events.Condition != (models.Condition{Bloating: true, Diarrhea: false, WellBeing: 8}) {
		t.Errorf("persisted condition = %+v", f.events.Condition)
	}
}

func TestFinishRequiresIngredients(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.press(t, AddFlowData(ActionStart))

	out := f.press(t, AddFlowData(ActionFinish))
	if out.Alert == "" {
		t.Fatal("finish with no ingredients accepted")
	}
	if f.session(t).State != StateAddingFoods {
		t.Errorf("state = %s", f.session(t).State)
	}

	out = f.send(t, "  \n ")
	if !strings.Contains(out.Replies[0].Text, "Не нашёл текста") || f.session(t).Draft.Len() != 0 {
		t.Errorf("blank input outcome = %+v", out)
	}
}

func TestOutOfOrderSurveyAnswerIsRejected(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.press(t, AddFlowData(ActionCondition))

	out := f.press(t, ConditionBoolData(SymptomDiarrhea, AnswerYes))
	if out.Alert == "" {
		t.Fatal("diarrhea answer accepted while asking about bloating")
	}
	s := f.session(t)
	if s.State != StateAskBloating || s.Condition.Diarrhea != nil {
		t.Errorf("session changed: %+v", s)
	}

	if out := f.press(t, WellBeingData(5)); out.Alert == "" {
		t.Error("well-being accepted while asking about bloating")
	}
}

func TestWellBeingOutOfRangeIsRejected(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.press(t, AddFlowData(ActionCondition))
	f.press(t, ConditionBoolData(SymptomBloating, AnswerNo))
	f.press(t, ConditionBoolData(SymptomDiarrhea, AnswerNo))

	for _, score := range []int{0, 11, -3} {
		if out := f.press(t, WellBeingData(score)); out.Alert == "" {
			t.Errorf("score %d accepted", score)
		}
	}
	s := f.session(t)
	if s.State != StateAskWellBeing || s.Condition.WellBeing != nil {
		t.Errorf("session changed: %+v", s)
	}
	if len(f.conditions.Conditions) != 0 {
		t.Error("condition persisted after rejection")
	}
}

func TestStandaloneSurveyPersistsCondition(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.press(t, AddFlowData(ActionCondition))
	f.press(t, ConditionBoolData(SymptomBloating, AnswerNo))
	f.press(t, ConditionBoolData(SymptomDiarrhea, AnswerYes))
	out := f.press(t, WellBeingData(3))

	if out.Replies[0].Text != "Самочувствие сохранено в ConditionLog. Спасибо!" {
		t.Errorf("reply = %q", out.Replies[0].Text)
	}
	want := []models.Condition{{Bloating: false, Diarrhea: true, WellBeing: 3}}
	if !slices.Equal(f.conditions.Conditions, want) {
		t.Errorf("conditions = %+v", f.conditions.Conditions)
	}
	if f.events.Calls != 0 {
		t.Error("standalone survey persisted a food event")
	}
	if f.m.Active(chatID) {
		t.Error("session not cleared")
	}
}

func TestCancelFromEveryState(t *testing.T) {
	tests := []struct {
		name  string
		setup []string
		state State
	}{
		{name: "adding", setup: nil, state: StateAddingFoods},
		{name: "confirm", setup: []string{AddFlowData(ActionFinish)}, state: StateConfirmFinish},
		{name: "waiting photo", setup: []string{AddFlowData(ActionPhotoStart)}, state: StateWaitingPhoto},
		{name: "guess", setup: []string{AddFlowData(ActionGuessStart)}, state: StateGuessInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, &MockComposition{}, nil)
			f.press(t, AddFlowData(ActionStart))
			f.send(t, "хлеб")
			for _, data := range tt.setup {
				f.press(t, data)
			}
			if got := f.session(t).State; got != tt.state {
				t.Fatalf("state = %s, want %s", got, tt.state)
			}
			f.press(t, AddFlowData(ActionCancel))
			if f.m.Active(chatID) {
				t.Error("session survived cancel")
			}
			if f.events.Calls != 0 {
				t.Error("cancel persisted an event")
			}
		})
	}

	t.Run("survey", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		f.press(t, AddFlowData(ActionCondition))
		f.press(t, ConditionBoolData(SymptomBloating, AnswerCancel))
		if f.m.Active(chatID) {
			t.Error("session survived cancel")
		}
	})
}

func TestCompositionSubflowsNeedExtractor(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.press(t, AddFlowData(ActionStart))

	for _, action := range []string{ActionPhotoStart, ActionGuessStart} {
		if out := f.press(t, AddFlowData(action)); out.Alert == "" {
			t.Errorf("%s accepted without extractor", action)
		}
	}
	if f.session(t).State != StateAddingFoods {
		t.Errorf("state = %s", f.session(t).State)
	}
}

func TestGuessAcceptAndRetry(t *testing.T) {
	comp := &MockComposition{Text: "мука\n\nмолоко\nяйца\n"}
	f := newFixture(t, comp, nil)
	f.press(t, AddFlowData(ActionStart))
	f.press(t, AddFlowData(ActionGuessStart))

	out := f.send(t, "Блины")
	if comp.Got != "text:Блины" || out.Replies[0].Keyboard != KeyboardComposition {
		t.Fatalf("guess outcome = %+v, extractor got %q", out, comp.Got)
	}
	s := f.session(t)
	if s.State != StateAddingFoods || !slices.Equal(s.Pending, []string{"мука", "молоко", "яйца"}) || s.Draft.Len() != 0 {
		t.Fatalf("session after guess = %+v", s)
	}

	f.press(t, AddFlowData(ActionCompositionRetry))
	s = f.session(t)
	if s.State != StateGuessInput || s.Pending != nil {
		t.Fatalf("session after retry = %+v", s)
	}

	_, _ = f.m.HandleMessage(context.Background(), Input{ChatID: chatID, Photo: photo("img")})
	if comp.Got != "dish-image:img" {
		t.Errorf("extractor got %q", comp.Got)
	}
	out = f.press(t, AddFlowData(ActionCompositionAccept))
	if !strings.Contains(out.Replies[0].Text, "Добавил 3 строк из предположения состава") {
		t.Errorf("accept reply = %q", out.Replies[0].Text)
	}
	s = f.session(t)
	if s.Draft.Len() != 3 || s.Pending != nil {
		t.Errorf("session after accept = %+v", s)
	}

	if out := f.press(t, AddFlowData(ActionCompositionAccept)); out.Alert == "" {
		t.Error("accept without pending lines accepted")
	}
}

func TestPhotoRecognitionFailureKeepsState(t *testing.T) {
	comp := &MockComposition{Err: errors.New("vision down")}
	f := newFixture(t, comp, nil)
	f.press(t, AddFlowData(ActionStart))
	f.press(t, AddFlowData(ActionPhotoStart))

	out, _ := f.m.HandleMessage(context.Background(), Input{ChatID: chatID, Text: "не фото"})
	if !strings.Contains(out.Replies[0].Text, "Пришлите изображение") {
		t.Errorf("reply = %q", out.Replies[0].Text)
	}
	out, _ = f.m.HandleMessage(context.Background(), Input{ChatID: chatID, Photo: photo("label")})
	if !strings.Contains(out.Replies[0].Text, "Не получилось распознать состав") {
		t.Errorf("reply = %q", out.Replies[0].Text)
	}
	if f.session(t).State != StateWaitingPhoto {
		t.Errorf("state = %s", f.session(t).State)
	}
}

func TestStandalonePhotoIntakeSeedsDraft(t *testing.T) {
	f := newFixture(t, nil, &MockPhotos{Ingredients: []string{"рис", "курица"}})

	out, handled := f.m.HandleMessage(context.Background(), Input{ChatID: chatID, Photo: photo("dish")})
	if !handled || out.Replies[0].Keyboard != KeyboardAddingFoods {
		t.Fatalf("outcome = %+v, handled = %v", out, handled)
	}
	s := f.session(t)
	if s.State != StateAddingFoods || !slices.Equal(s.Draft.FoodsRaw, []string{"рис", "курица"}) {
		t.Errorf("session = %+v", s)
	}
}

func TestTextOutsideFlowIsNotHandled(t *testing.T) {
	f := newFixture(t, nil, nil)
	if _, handled := f.m.HandleMessage(context.Background(), Input{ChatID: chatID, Text: "30 минут чтения"}); handled {
		t.Error("plain text claimed by conversation")
	}
}

func TestBreathAndReminders(t *testing.T) {
	f := newFixture(t, nil, nil)

	f.press(t, BreathData(models.BreathMedium))
	if !slices.Equal(f.conditions.Breaths, []models.BreathSeverity{models.BreathMedium}) {
		t.Errorf("breaths = %v", f.conditions.Breaths)
	}

	out := f.press(t, BreathReminderData(models.ClockTime{Hour: 7, Minute: 30}))
	if out.Replies[0].Text != "Напоминание установлено на 07:30." {
		t.Errorf("reply = %q", out.Replies[0].Text)
	}
	f.press(t, OtherData(OtherDevTest))

	want := []models.BreathReminder{
		{UserID: 7, ChatID: chatID, Time: "07:30"},
		{UserID: 7, ChatID: chatID, Time: "2024-05-01_07:30:20", OneShot: true},
	}
	if !slices.Equal(f.reminders.Saved, want) {
		t.Errorf("reminders = %+v", f.reminders.Saved)
	}

	if out := f.press(t, BreathSkipData()); out.Notice == "" {
		t.Error("skip has no notice")
	}
}

func TestReminderTimes(t *testing.T) {
	var got []string
	for _, rt := range ReminderTimes {
		got = append(got, rt.String())
	}
	want := []string{"06:00", "06:30", "07:00", "07:30", "08:00", "08:30", "09:00"}
	if !slices.Equal(got, want) {
		t.Errorf("ReminderTimes = %v", got)
	}
}

func TestParseCallback(t *testing.T) {
	tests := []struct {
		data    string
		want    Callback
		wantErr bool
	}{
		{data: "addflow:finish", want: Callback{Kind: KindAddFlow, Action: ActionFinish}},
		{data: "condbool:bloating:yes", want: Callback{Kind: KindConditionBool, Symptom: SymptomBloating, Answer: AnswerYes}},
		{data: "condwb:7", want: Callback{Kind: KindWellBeing, Score: 7}},
		{data: "breath:none", want: Callback{Kind: KindBreath, Level: models.BreathNone}},
		{data: "breathrem:0630", want: Callback{Kind: KindBreathReminder, Time: models.ClockTime{Hour: 6, Minute: 30}}},
		{data: "breathskip", want: Callback{Kind: KindBreathSkip}},
		{data: "other:back_time", want: Callback{Kind: KindOther, Action: OtherBackTime}},
		{data: "addflow:explode", wantErr: true},
		{data: "condbool:headache:yes", wantErr: true},
		{data: "condwb:many", wantErr: true},
		{data: "breath:awful", wantErr: true},
		{data: "breathrem:2561", wantErr: true},
		{data: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			got, err := ParseCallback(tt.data)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownCallback) {
					t.Errorf("error = %v, want ErrUnknownCallback", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseCallback(%q) = %+v, %v", tt.data, got, err)
			}
		})
	}
}

func TestCallbackDataFitsTelegramLimit(t *testing.T) {
	var all []string
	for _, a := range addFlowActions {
		all = append(all, AddFlowData(a))
	}
	for _, a := range otherActions {
		all = append(all, OtherData(a))
	}
	for _, rt := range ReminderTimes {
		all = append(all, BreathReminderData(rt))
	}
	all = append(all, ConditionBoolData(SymptomDiarrhea, AnswerCancel), WellBeingData(10), BreathSkipData())

	for _, data := range all {
		if len(data) > 64 {
			t.Errorf("%q is %d bytes", data, len(data))
		}
		if _, err := ParseCallback(data); err != nil {
			t.Errorf("round trip %q: %v", data, err)
		}
	}
}
