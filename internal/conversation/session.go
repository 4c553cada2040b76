package conversation

import (
	"context"

	"github.com/xaenox/time-bot/internal/models"
)

type Flow string

const (
	FlowFood      Flow = "food"
	FlowCondition Flow = "condition"
)

type State string

const (
	StateAddingFoods   State = "adding_foods"
	StateConfirmFinish State = "confirm_finish"
	StateWaitingPhoto  State = "waiting_photo"
	StateGuessInput    State = "guess_input"
	StateAskBloating   State = "ask_bloating"
	StateAskDiarrhea   State = "ask_diarrhea"
	StateAskWellBeing  State = "ask_well_being"
)

type PendingSource string

const (
	SourcePhoto PendingSource = "photo"
	SourceGuess PendingSource = "guess"
)

// Session is the whole conversation record of one chat. It is replaced as a
// unit on every accepted transition and deleted when the flow ends.
type Session struct {
	Flow      Flow
	State     State
	Draft     *models.FoodEventDraft
	Condition models.ConditionDraft
	// Pending holds composition lines awaiting accept or retry.
	Pending       []string
	PendingSource PendingSource
}

// PhotoLoader downloads the photo attached to a message.
type PhotoLoader func(ctx context.Context) ([]byte, error)

type Input struct {
	ChatID int64
	UserID int64
	Text   string
	// Photo is nil when the message carries no photo.
	Photo PhotoLoader
	// Callback is the raw button data for callback inputs.
	Callback string
}

type Keyboard int

const (
	KeyboardNone Keyboard = iota
	// KeyboardMain is the time-tracking reply keyboard.
	KeyboardMain
	KeyboardStart
	KeyboardAddingFoods
	KeyboardConfirmFinish
	KeyboardBloating
	KeyboardDiarrhea
	KeyboardWellBeing
	KeyboardOther
	KeyboardBreathSeverity
	// KeyboardBreathPrompt adds a skip button to the severity choices.
	KeyboardBreathPrompt
	KeyboardBreathReminder
	KeyboardComposition
)

type Reply struct {
	Text     string
	Keyboard Keyboard
}

// Outcome is what the transport should do after a step. A non-empty Alert
// means the input was rejected and the session is unchanged.
type Outcome struct {
	Alert   string
	Notice  string
	Replies []Reply
}

func reply(text string, kb Keyboard) Outcome {
	return Outcome{Replies: []Reply{{Text: text, Keyboard: kb}}}
}

func alert(text string) Outcome {
	return Outcome{Alert: text}
}
