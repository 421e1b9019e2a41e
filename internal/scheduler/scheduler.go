// Package scheduler runs the periodic overdue-report reminder sweep.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/MrJamesThe3rd/granttrack/internal/cycle"
	"github.com/MrJamesThe3rd/granttrack/internal/metrics"
	"github.com/MrJamesThe3rd/granttrack/internal/reminder"
)

type Cycles interface {
	ListCycles(ctx context.Context) ([]*cycle.GrantCycle, error)
}

type Builder interface {
	Build(ctx context.Context, cycleID uuid.UUID) ([]reminder.Notice, error)
}

// Notifier delivers a reminder notice.
type Notifier interface {
	Notify(ctx context.Context, n reminder.Notice) error
}

// LogNotifier writes notices to the structured log instead of sending them.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n reminder.Notice) error {
	recipients := make([]string, 0, len(n.Contacts))
	for _, c := range n.Contacts {
		recipients = append(recipients, c.Email)
	}

	slog.Info("reminder notice",
		"cycle_id", n.GrantCycleID,
		"org", n.Org.Name,
		"recipients", recipients,
		"reports", len(n.Reports),
		"critical", n.Critical,
		"subject", n.Subject,
	)

	return nil
}

type Scheduler struct {
	cron     *cron.Cron
	cycles   Cycles
	builder  Builder
	notifier Notifier
	ctx      context.Context
}

func New(ctx context.Context, cycles Cycles, builder Builder, notifier Notifier) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		cycles:   cycles,
		builder:  builder,
		notifier: notifier,
		ctx:      ctx,
	}
}

// Register schedules the reminder sweep on a six-field cron spec.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return fmt.Errorf("register reminder sweep: %w", err)
	}

	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("scheduler started")
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("scheduler stopped")
}

func (s *Scheduler) run() {
	if _, err := s.Sweep(s.ctx); err != nil {
		slog.Error("reminder sweep failed", "error", err)
	}
}

// Sweep builds and dispatches notices for every cycle and returns how many
// were sent. A failure on one cycle or notice does not stop the rest.
func (s *Scheduler) Sweep(ctx context.Context) (int, error) {
	slog.Info("running reminder sweep")

	cycles, err := s.cycles.ListCycles(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing cycles: %w", err)
	}

	sent := 0

	for _, c := range cycles {
		notices, err := s.builder.Build(ctx, c.ID)
		if err != nil {
			slog.Error("failed to build reminders", "cycle", c.Name, "error", err)
			continue
		}

		for _, n := range notices {
			if err := s.notifier.Notify(ctx, n); err != nil {
				slog.Error("failed to send reminder", "cycle", c.Name, "org", n.Org.Name, "error", err)
				continue
			}

			sent++
		}
	}

	metrics.RecordReminders(sent)
	slog.Info("reminder sweep finished", "cycles", len(cycles), "sent", sent)

	return sent, nil
}
