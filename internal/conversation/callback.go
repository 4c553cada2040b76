package conversation

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/xaenox/time-bot/internal/models"
)

type CallbackKind string

const (
	KindAddFlow        CallbackKind = "addflow"
	KindConditionBool  CallbackKind = "condbool"
	KindWellBeing      CallbackKind = "condwb"
	KindOther          CallbackKind = "other"
	KindBreath         CallbackKind = "breath"
	KindBreathReminder CallbackKind = "breathrem"
	KindBreathSkip     CallbackKind = "breathskip"
)

// Food flow actions carried by addflow callbacks.
const (
	ActionStart             = "start"
	ActionContinue          = "continue"
	ActionFinish            = "finish"
	ActionCancel            = "cancel"
	ActionConfirm           = "confirm"
	ActionBack              = "back"
	ActionCondition         = "condition"
	ActionPhotoStart        = "photo_start"
	ActionGuessStart        = "guess_start"
	ActionCompositionAccept = "composition_accept"
	ActionCompositionRetry  = "composition_retry"
)

// Menu actions carried by other callbacks.
const (
	OtherMenu     = "menu"
	OtherBreath   = "breath"
	OtherReminder = "reminder"
	OtherBack     = "back"
	OtherDevTest  = "devtest"
	OtherBackTime = "back_time"
)

type Symptom string

const (
	SymptomBloating Symptom = "bloating"
	SymptomDiarrhea Symptom = "diarrhea"
)

type Answer string

const (
	AnswerYes    Answer = "yes"
	AnswerNo     Answer = "no"
	AnswerCancel Answer = "cancel"
)

var (
	addFlowActions = []string{
		ActionStart, ActionContinue, ActionFinish, ActionCancel, ActionConfirm, ActionBack,
		ActionCondition, ActionPhotoStart, ActionGuessStart, ActionCompositionAccept, ActionCompositionRetry,
	}
	otherActions = []string{OtherMenu, OtherBreath, OtherReminder, OtherBack, OtherDevTest, OtherBackTime}
)

// Callback is a decoded inline-button payload.
type Callback struct {
	Kind    CallbackKind
	Action  string
	Symptom Symptom
	Answer  Answer
	Score   int
	Level   models.BreathSeverity
	Time    models.ClockTime
}

var ErrUnknownCallback = errors.New("unknown callback")

// ParseCallback decodes "kind:arg[:arg]" button data.
func ParseCallback(data string) (Callback, error) {
	parts := strings.Split(data, ":")
	cb := Callback{Kind: CallbackKind(parts[0])}
	args := parts[1:]

	bad := func() (Callback, error) {
		return Callback{}, fmt.Errorf("%w: %q", ErrUnknownCallback, data)
	}

	switch cb.Kind {
	case KindAddFlow, KindOther:
		known := addFlowActions
		if cb.Kind == KindOther {
			known = otherActions
		}
		if len(args) != 1 || !slices.Contains(known, args[0]) {
			return bad()
		}
		cb.Action = args[0]

	case KindConditionBool:
		if len(args) != 2 {
			return bad()
		}
		cb.Symptom, cb.Answer = Symptom(args[0]), Answer(args[1])
		if cb.Symptom != SymptomBloating && cb.Symptom != SymptomDiarrhea {
			return bad()
		}
		if cb.Answer != AnswerYes && cb.Answer != AnswerNo && cb.Answer != AnswerCancel {
			return bad()
		}

	case KindWellBeing:
		if len(args) != 1 {
			return bad()
		}
		score, err := strconv.Atoi(args[0])
		if err != nil {
			return bad()
		}
		cb.Score = score

	case KindBreath:
		if len(args) != 1 || !slices.Contains(models.BreathSeverities, models.BreathSeverity(args[0])) {
			return bad()
		}
		cb.Level = models.BreathSeverity(args[0])

	case KindBreathReminder:
		if len(args) != 1 || len(args[0]) != 4 {
			return bad()
		}
		t, err := models.ParseClockTime(args[0][:2] + ":" + args[0][2:])
		if err != nil {
			return bad()
		}
		cb.Time = t

	case KindBreathSkip:
		if len(args) != 0 {
			return bad()
		}

	default:
		return bad()
	}
	return cb, nil
}

func AddFlowData(action string) string {
	return string(KindAddFlow) + ":" + action
}

func ConditionBoolData(s Symptom, a Answer) string {
	return fmt.Sprintf("%s:%s:%s", KindConditionBool, s, a)
}

func WellBeingData(score int) string {
	return fmt.Sprintf("%s:%d", KindWellBeing, score)
}

func OtherData(action string) string {
	return string(KindOther) + ":" + action
}

func BreathData(level models.BreathSeverity) string {
	return string(KindBreath) + ":" + string(level)
}

// BreathReminderData encodes t as "breathrem:HHMM".
func BreathReminderData(t models.ClockTime) string {
	return fmt.Sprintf("%s:%02d%02d", KindBreathReminder, t.Hour, t.Minute)
}

func BreathSkipData() string {
	return string(KindBreathSkip)
}
