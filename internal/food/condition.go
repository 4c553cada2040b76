package food

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/xaenox/time-bot/internal/models"
	"github.com/xaenox/time-bot/internal/storage"
)

const ConditionLogDir = "ConditionLog"

type conditionRecord struct {
	stamp     `yaml:",inline"`
	Bloating  bool `yaml:"bloating"`
	Diarrhea  bool `yaml:"diarrhea"`
	WellBeing int  `yaml:"well_being"`
}

type breathRecord struct {
	stamp       `yaml:",inline"`
	BreathSmell models.BreathSeverity `yaml:"breath_smell"`
}

// ConditionService writes condition and breath entries to the condition log.
type ConditionService struct {
	files storage.Files
	dir   string
}

func NewConditionService(files storage.Files) *ConditionService {
	return &ConditionService{files: files, dir: ConditionLogDir}
}

// Persist writes one condition entry named after ts and shortID.
func (s *ConditionService) Persist(ts time.Time, shortID string, c models.Condition) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	content, err := renderFrontmatter(conditionRecord{
		stamp:     stampOf(ts),
		Bloating:  c.Bloating,
		Diarrhea:  c.Diarrhea,
		WellBeing: c.WellBeing,
	}, bodyTag+"\n")
	if err != nil {
		return "", err
	}
	path, err := s.files.WriteText(filepath.Join(s.dir, logFileName(ts, shortID)), content)
	if err != nil {
		return "", fmt.Errorf("write condition log: %w", err)
	}
	return path, nil
}

// PersistBreath writes the day's breath entry; a later answer on the same day replaces it.
func (s *ConditionService) PersistBreath(ts time.Time, severity models.BreathSeverity) (string, error) {
	content, err := renderFrontmatter(breathRecord{stamp: stampOf(ts), BreathSmell: severity}, bodyTag+"\n")
	if err != nil {
		return "", err
	}
	name := ts.Format(time.DateOnly) + "_breath.md"
	path, err := s.files.WriteText(filepath.Join(s.dir, name), content)
	if err != nil {
		return "", fmt.Errorf("write breath log: %w", err)
	}
	return path, nil
}
