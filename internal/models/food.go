package models

import (
	"fmt"
	"time"
)

const (
	MinWellBeing = 1
	MaxWellBeing = 10
)

// FoodEventDraft collects raw ingredient lines while a food conversation runs.
type FoodEventDraft struct {
	StartedAt time.Time `json:"started_at"`
	FoodsRaw  []string  `json:"foods_raw"`
}

func NewFoodEventDraft(startedAt time.Time) *FoodEventDraft {
	return &FoodEventDraft{StartedAt: startedAt}
}

func (d *FoodEventDraft) Append(foods ...string) {
	d.FoodsRaw = append(d.FoodsRaw, foods...)
}

func (d *FoodEventDraft) Len() int {
	if d == nil {
		return 0
	}
	return len(d.FoodsRaw)
}

// Condition is a completed symptom survey.
type Condition struct {
	Bloating  bool `json:"bloating" yaml:"bloating"`
	Diarrhea  bool `json:"diarrhea" yaml:"diarrhea"`
	WellBeing int  `json:"well_being" yaml:"well_being"`
}

func (c Condition) Validate() error {
	if c.WellBeing < MinWellBeing || c.WellBeing > MaxWellBeing {
		return fmt.Errorf("well_being: %d is outside [%d, %d]", c.WellBeing, MinWellBeing, MaxWellBeing)
	}
	return nil
}

// ConditionDraft is filled one answer at a time.
type ConditionDraft struct {
	Bloating  *bool `json:"bloating,omitempty"`
	Diarrhea  *bool `json:"diarrhea,omitempty"`
	WellBeing *int  `json:"well_being,omitempty"`
}

func (d ConditionDraft) IsComplete() bool {
	return d.Bloating != nil && d.Diarrhea != nil && d.WellBeing != nil
}

// Condition converts a complete draft; it fails on missing or out-of-range answers.
func (d ConditionDraft) Condition() (Condition, error) {
	if !d.IsComplete() {
		return Condition{}, fmt.Errorf("condition survey is incomplete")
	}
	c := Condition{Bloating: *d.Bloating, Diarrhea: *d.Diarrhea, WellBeing: *d.WellBeing}
	if err := c.Validate(); err != nil {
		return Condition{}, err
	}
	return c, nil
}

// PersistedEvent is the outcome of a saved food event.
type PersistedEvent struct {
	FoodLogPath      string   `json:"food_log_path"`
	ConditionLogPath string   `json:"condition_log_path"`
	Foods            []string `json:"foods"`
}

type BreathSeverity string

const (
	BreathStrong BreathSeverity = "strong"
	BreathMedium BreathSeverity = "medium"
	BreathWeak   BreathSeverity = "weak"
	BreathNone   BreathSeverity = "none"
)

var BreathSeverities = []BreathSeverity{BreathStrong, BreathMedium, BreathWeak, BreathNone}
