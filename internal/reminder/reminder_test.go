package reminder

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xaenox/time-bot/internal/clock"
	"github.com/xaenox/time-bot/internal/models"
	"github.com/xaenox/time-bot/internal/storage"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type MockSender struct {
	Sent []int64
	Fail map[int64]bool
}

func (m *MockSender) SendReminder(_ context.Context, chatID int64) error {
	if m.Fail[chatID] {
		return errors.New("chat blocked")
	}
	m.Sent = append(m.Sent, chatID)
	return nil
}

func newRegistry(t *testing.T) (*Registry, *storage.FileStore) {
	t.Helper()
	files, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewRegistry(files, "", time.UTC), files
}

func at(hour, min, sec int) time.Time {
	return time.Date(2024, 6, 10, hour, min, sec, 0, time.UTC)
}

func TestRecurringFiresOncePerDay(t *testing.T) {
	reg, _ := newRegistry(t)
	if err := reg.Upsert(models.BreathReminder{UserID: 1, ChatID: 100, Time: "07:00"}); err != nil {
		t.Fatal(err)
	}
	sender := &MockSender{}
	s := NewScheduler(reg, sender, clock.NewZone(time.UTC), time.Minute, zap.NewNop())

	for _, now := range []time.Time{at(6, 59, 59), at(7, 0, 0), at(7, 0, 20), at(7, 0, 40), at(7, 1, 30)} {
		if _, err := s.Tick(context.Background(), now); err != nil {
			t.Fatalf("Tick(%s): %v", now, err)
		}
	}
	if len(sender.Sent) != 1 || sender.Sent[0] != 100 {
		t.Fatalf("sent = %v, want one message to 100", sender.Sent)
	}

	next := at(7, 0, 10).AddDate(0, 0, 1)
	if n, _ := s.Tick(context.Background(), next); n != 1 {
		t.Errorf("next day sent %d", n)
	}

	all, _ := reg.List()
	if len(all) != 1 || all[0].LastSentDate != "2024-06-11" {
		t.Errorf("registry = %+v", all)
	}
}

func TestSkippedMinuteStillFires(t *testing.T) {
	reg, _ := newRegistry(t)
	reg.Upsert(models.BreathReminder{UserID: 1, ChatID: 100, Time: "07:00"})
	sender := &MockSender{}
	s := NewScheduler(reg, sender, clock.NewZone(time.UTC), time.Minute, zap.NewNop())

	s.Tick(context.Background(), at(6, 59, 59))
	s.Tick(context.Background(), at(7, 1, 0))
	if len(sender.Sent) != 1 {
		t.Errorf("sent = %v", sender.Sent)
	}
	s.Tick(context.Background(), at(9, 0, 0))
	if len(sender.Sent) != 1 {
		t.Errorf("late tick fired again: %v", sender.Sent)
	}
}

func TestLateTickAfterMidnightFires(t *testing.T) {
	reg, _ := newRegistry(t)
	reg.Upsert(models.BreathReminder{UserID: 1, ChatID: 100, Time: "23:59"})
	sender := &MockSender{}
	s := NewScheduler(reg, sender, clock.NewZone(time.UTC), time.Minute, zap.NewNop())

	s.Tick(context.Background(), at(23, 58, 50))
	s.Tick(context.Background(), at(0, 0, 30).AddDate(0, 0, 1))
	if len(sender.Sent) != 1 {
		t.Fatalf("sent = %v, want the 23:59 reminder once", sender.Sent)
	}
	all, _ := reg.List()
	if all[0].LastSentDate != "2024-06-10" {
		t.Errorf("LastSentDate = %q", all[0].LastSentDate)
	}

	s.Tick(context.Background(), at(0, 1, 0).AddDate(0, 0, 1))
	s.Tick(context.Background(), at(23, 58, 0).AddDate(0, 0, 1))
	if len(sender.Sent) != 1 {
		t.Fatalf("fired again before the next occurrence: %v", sender.Sent)
	}
	s.Tick(context.Background(), at(23, 59, 5).AddDate(0, 0, 1))
	if len(sender.Sent) != 2 {
		t.Errorf("next day's occurrence missed: %v", sender.Sent)
	}
}

func TestRescheduleFiresSameDay(t *testing.T) {
	reg, _ := newRegistry(t)
	reg.Upsert(models.BreathReminder{UserID: 1, ChatID: 100, Time: "06:00"})
	sender := &MockSender{}
	s := NewScheduler(reg, sender, clock.NewZone(time.UTC), time.Minute, zap.NewNop())

	s.Tick(context.Background(), at(6, 0, 10))
	if err := reg.Upsert(models.BreathReminder{UserID: 1, ChatID: 100, Time: "08:00"}); err != nil {
		t.Fatal(err)
	}
	s.Tick(context.Background(), at(8, 0, 10))
	if len(sender.Sent) != 2 {
		t.Errorf("sent = %v, want both the 06:00 and the moved 08:00 reminder", sender.Sent)
	}

	reg.Upsert(models.BreathReminder{UserID: 1, ChatID: 101, Time: "08:00"})
	s.Tick(context.Background(), at(8, 0, 40))
	if len(sender.Sent) != 2 {
		t.Errorf("chat change alone re-fired: %v", sender.Sent)
	}
}

func TestOneShotFiresOnceAndIsRemoved(t *testing.T) {
	reg, _ := newRegistry(t)
	reg.Upsert(models.BreathReminder{UserID: 2, ChatID: 200, Time: at(7, 0, 20).Format(models.OneShotLayout), OneShot: true})
	sender := &MockSender{}
	s := NewScheduler(reg, sender, clock.NewZone(time.UTC), time.Minute, zap.NewNop())

	s.Tick(context.Background(), at(7, 0, 0))
	if len(sender.Sent) != 0 {
		t.Fatalf("fired early: %v", sender.Sent)
	}
	s.Tick(context.Background(), at(7, 0, 30))
	s.Tick(context.Background(), at(7, 1, 30))
	if len(sender.Sent) != 1 {
		t.Fatalf("sent = %v, want exactly one", sender.Sent)
	}
	if all, _ := reg.List(); len(all) != 0 {
		t.Errorf("one-shot kept: %+v", all)
	}
}

func TestUpsertReplaces(t *testing.T) {
	reg, files := newRegistry(t)
	reg.Upsert(models.BreathReminder{UserID: 3, ChatID: 300, Time: "06:00"})
	reg.Upsert(models.BreathReminder{UserID: 4, ChatID: 400, Time: "08:30"})
	reg.Upsert(models.BreathReminder{UserID: 3, ChatID: 301, Time: "07:30"})

	all, err := reg.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("registry = %+v", all)
	}
	if all[0] != (models.BreathReminder{UserID: 3, ChatID: 301, Time: "07:30"}) {
		t.Errorf("replaced entry = %+v", all[0])
	}

	data, err := os.ReadFile(files.Resolve(DefaultFileName))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "[\n  {") || !strings.Contains(string(data), `"one_shot": false`) {
		t.Errorf("file = %s", data)
	}
}

func TestSendFailureDoesNotBlockOthers(t *testing.T) {
	reg, _ := newRegistry(t)
	reg.Upsert(models.BreathReminder{UserID: 1, ChatID: 100, Time: "07:00"})
	reg.Upsert(models.BreathReminder{UserID: 2, ChatID: 200, Time: "07:00"})
	reg.Upsert(models.BreathReminder{UserID: 3, ChatID: 300, Time: "07:00"})
	sender := &MockSender{Fail: map[int64]bool{200: true}}
	s := NewScheduler(reg, sender, clock.NewZone(time.UTC), time.Minute, zap.NewNop())

	n, err := s.Tick(context.Background(), at(7, 0, 5))
	if n != 2 || len(multierr.Errors(err)) != 1 {
		t.Fatalf("sent %d, err = %v", n, err)
	}

	all, _ := reg.List()
	for _, r := range all {
		sentToday := r.LastSentDate == "2024-06-10"
		if sentToday == (r.UserID == 2) {
			t.Errorf("user %d last_sent_date = %q", r.UserID, r.LastSentDate)
		}
	}
}

func TestMarkSentIgnoresChangedReminder(t *testing.T) {
	reg, _ := newRegistry(t)
	reg.Upsert(models.BreathReminder{UserID: 1, ChatID: 100, Time: "2024-06-10_07:00:00", OneShot: true})
	due, _ := reg.Due(at(7, 0, 1), time.Minute)
	reg.Upsert(models.BreathReminder{UserID: 1, ChatID: 100, Time: "08:00"})

	if err := reg.MarkSent(due[0], at(7, 0, 1)); err != nil {
		t.Fatal(err)
	}
	all, _ := reg.List()
	if len(all) != 1 || all[0].Time != "08:00" || all[0].LastSentDate != "" {
		t.Errorf("registry = %+v", all)
	}
}

type countingClock struct{ ticks atomic.Int32 }

func (c *countingClock) Now() time.Time {
	c.ticks.Add(1)
	return at(12, 0, 0)
}

func TestRunStopsOnCancel(t *testing.T) {
	reg, _ := newRegistry(t)
	clk := &countingClock{}
	s := NewScheduler(reg, &MockSender{}, clk, 10*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
	if clk.ticks.Load() < 2 {
		t.Errorf("ticks = %d", clk.ticks.Load())
	}
}
