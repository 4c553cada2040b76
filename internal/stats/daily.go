// Package stats reads persisted notes back for daily summaries and task listings.
package stats

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/xaenox/time-bot/internal/models"
	"github.com/xaenox/time-bot/internal/notes"
)

type DailyStats struct {
	Date             civil.Date
	MinutesByMaintag map[models.Maintag]int
}

func (s DailyStats) Total() int {
	total := 0
	for _, m := range s.MinutesByMaintag {
		total += m
	}
	return total
}

// ReadDailyStats sums the minutes of every time note directly in dir dated
// day, grouped by maintag. Notes with missing or malformed fields are skipped.
func ReadDailyStats(dir string, day civil.Date) (DailyStats, error) {
	stats := DailyStats{Date: day, MinutesByMaintag: map[models.Maintag]int{}}

	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return stats, nil
	}
	if err != nil {
		return stats, fmt.Errorf("list notes: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".md" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		fm, _, err := notes.Split(string(data))
		if err != nil {
			continue
		}
		if d, ok := fm.Date("date"); !ok || d != day {
			continue
		}
		maintag := models.Maintag(fm.String("maintag"))
		if maintag == "" {
			continue
		}
		minutes, err := fm.Int("time")
		if err != nil {
			continue
		}
		stats.MinutesByMaintag[maintag] += minutes
	}
	return stats, nil
}

func (s DailyStats) Format() string {
	if len(s.MinutesByMaintag) == 0 {
		return "Нет записей за сегодня."
	}
	tags := make([]models.Maintag, 0, len(s.MinutesByMaintag))
	for tag := range s.MinutesByMaintag {
		tags = append(tags, tag)
	}
	slices.Sort(tags)

	var b strings.Builder
	fmt.Fprintf(&b, "Статистика за %s:\n", s.Date)
	for _, tag := range tags {
		fmt.Fprintf(&b, "- %s: %d мин\n", tag, s.MinutesByMaintag[tag])
	}
	fmt.Fprintf(&b, "Итого: %d мин", s.Total())
	return b.String()
}
