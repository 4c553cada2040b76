package food

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/xaenox/time-bot/internal/clock"
	"github.com/xaenox/time-bot/internal/models"
	"github.com/xaenox/time-bot/internal/storage"
	"go.uber.org/zap"
)

const FoodLogDir = "FoodLog"

var ErrNoFoods = errors.New("cannot persist an event without foods")

type foodLogRecord struct {
	stamp `yaml:",inline"`
	Foods []string `yaml:"foods"`
}

// EventService persists a finished food event: Foods notes, one food log
// entry and one condition entry sharing a timestamp and short id.
type EventService struct {
	files      storage.Files
	foods      *FoodsService
	conditions *ConditionService
	clock      clock.Clock
	newID      func() string
	logger     *zap.Logger
}

func NewEventService(files storage.Files, foods *FoodsService, conditions *ConditionService, clk clock.Clock, logger *zap.Logger) *EventService {
	return &EventService{
		files:      files,
		foods:      foods,
		conditions: conditions,
		clock:      clk,
		newID:      clock.ShortID,
		logger:     logger,
	}
}

func (s *EventService) Conditions() *ConditionService {
	return s.conditions
}

func (s *EventService) PersistEvent(draft *models.FoodEventDraft, condition models.Condition) (models.PersistedEvent, error) {
	if draft == nil {
		return models.PersistedEvent{}, ErrNoFoods
	}
	foods := NormalizeList(draft.FoodsRaw)
	if len(foods) == 0 {
		return models.PersistedEvent{}, ErrNoFoods
	}
	if err := condition.Validate(); err != nil {
		return models.PersistedEvent{}, err
	}

	if _, err := s.foods.EnsureNotes(foods); err != nil {
		return models.PersistedEvent{}, err
	}

	ts := s.clock.Now()
	shortID := s.newID()

	links := make([]string, len(foods))
	for i, f := range foods {
		links[i] = "[[" + f + "]]"
	}
	content, err := renderFrontmatter(foodLogRecord{stamp: stampOf(ts), Foods: links}, bodyTag+"\n")
	if err != nil {
		return models.PersistedEvent{}, err
	}
	foodLogPath, err := s.files.WriteText(filepath.Join(FoodLogDir, logFileName(ts, shortID)), content)
	if err != nil {
		return models.PersistedEvent{}, fmt.Errorf("write food log: %w", err)
	}

	conditionPath, err := s.conditions.Persist(ts, shortID, condition)
	if err != nil {
		return models.PersistedEvent{}, err
	}

	s.logger.Info("Food event persisted",
		zap.String("food_log", foodLogPath),
		zap.String("condition_log", conditionPath),
		zap.Int("foods", len(foods)))

	return models.PersistedEvent{
		FoodLogPath:      foodLogPath,
		ConditionLogPath: conditionPath,
		Foods:            foods,
	}, nil
}
