// Package app assembles the workflow services from configuration. The API
// server and the TUI both start from here.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/MrJamesThe3rd/granttrack/internal/candidate"
	"github.com/MrJamesThe3rd/granttrack/internal/compliance"
	"github.com/MrJamesThe3rd/granttrack/internal/config"
	"github.com/MrJamesThe3rd/granttrack/internal/cycle"
	"github.com/MrJamesThe3rd/granttrack/internal/database"
	"github.com/MrJamesThe3rd/granttrack/internal/grant"
	"github.com/MrJamesThe3rd/granttrack/internal/ledger"
	"github.com/MrJamesThe3rd/granttrack/internal/org"
	"github.com/MrJamesThe3rd/granttrack/internal/policy"
	"github.com/MrJamesThe3rd/granttrack/internal/reminder"
	"github.com/MrJamesThe3rd/granttrack/internal/report"
	"github.com/MrJamesThe3rd/granttrack/internal/store"
	"github.com/MrJamesThe3rd/granttrack/internal/store/memory"
)

// repository is everything the services read and write outside a workflow
// transaction. Both store drivers satisfy it.
type repository interface {
	cycle.Repository
	ledger.Repository
	compliance.Repository
	org.Repository

	Candidates() candidate.Repository
	Reports() report.Repository
}

type App struct {
	Policy    *policy.Policy
	Grant     *grant.Service
	Directory *org.Directory
	Reminders *reminder.Service

	closer io.Closer
}

// New opens the configured store, loads the policy and wires the services.
func New(cfg *config.Config) (*App, error) {
	pol, err := policy.Load(cfg.Policy.Path)
	if err != nil {
		return nil, err
	}

	if err := pol.Validate(); err != nil {
		return nil, fmt.Errorf("invalid policy %s: %w", cfg.Policy.Path, err)
	}

	repo, closer, err := open(cfg)
	if err != nil {
		return nil, err
	}

	grantSvc := grant.NewService(
		cycle.NewService(repo),
		candidate.NewService(repo.Candidates(), candidate.WithReviewSkip(pol.Review.AllowSkip)),
		report.NewService(repo.Reports()),
		ledger.NewService(repo),
		compliance.NewService(repo, pol.CriticalAfter(), time.Now),
	)

	directory := org.NewDirectory(repo)

	return &App{
		Policy:    pol,
		Grant:     grantSvc,
		Directory: directory,
		Reminders: reminder.NewService(grantSvc, directory),
		closer:    closer,
	}, nil
}

func open(cfg *config.Config) (repository, io.Closer, error) {
	if cfg.Store.Driver == config.DriverMemory {
		slog.Warn("using in-memory store; data is lost on exit")
		return memory.New(), io.NopCloser(nil), nil
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.DB.Migrate {
		if err := database.Migrate(db); err != nil {
			db.Close()
			return nil, nil, err
		}
	}

	return store.New(db), db, nil
}

// SeedCycles creates the policy's cycles that do not exist yet.
func (a *App) SeedCycles(ctx context.Context) error {
	params, err := a.Policy.CycleParams()
	if err != nil {
		return err
	}

	for _, p := range params {
		c, created, err := a.Grant.EnsureCycle(ctx, p)
		if err != nil {
			return fmt.Errorf("failed to seed cycle %q: %w", p.Name, err)
		}

		if created {
			slog.Info("grant cycle seeded", "cycle_id", c.ID, "name", c.Name)
		}
	}

	return nil
}

func (a *App) Close() error {
	return a.closer.Close()
}
