package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/granttrack/internal/app"
	"github.com/MrJamesThe3rd/granttrack/internal/config"
	granttrackHttp "github.com/MrJamesThe3rd/granttrack/internal/http"
	applicationHandler "github.com/MrJamesThe3rd/granttrack/internal/http/application"
	candidateHandler "github.com/MrJamesThe3rd/granttrack/internal/http/candidate"
	cycleHandler "github.com/MrJamesThe3rd/granttrack/internal/http/cycle"
	orgHandler "github.com/MrJamesThe3rd/granttrack/internal/http/org"
	reportHandler "github.com/MrJamesThe3rd/granttrack/internal/http/report"
	"github.com/MrJamesThe3rd/granttrack/internal/roster"
	"github.com/MrJamesThe3rd/granttrack/internal/scheduler"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	a, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.SeedCycles(ctx); err != nil {
		slog.Error("failed to seed grant cycles", "error", err)
		os.Exit(1)
	}

	if cfg.Scheduler.Enabled {
		sched := scheduler.New(ctx, a.Grant, a.Reminders, scheduler.LogNotifier{})
		if err := sched.Register(cfg.Scheduler.ReminderCron); err != nil {
			slog.Error("invalid reminder schedule", "spec", cfg.Scheduler.ReminderCron, "error", err)
			os.Exit(1)
		}

		sched.Start()
		defer sched.Stop()
	}

	var (
		cyclesH       = cycleHandler.NewHandler(a.Grant, a.Reminders)
		applicationsH = applicationHandler.NewHandler(a.Grant, roster.NewParser())
		candidatesH   = candidateHandler.NewHandler(a.Grant)
		reportsH      = reportHandler.NewHandler(a.Grant)
		orgsH         = orgHandler.NewHandler(a.Directory)
	)

	router := granttrackHttp.New(cfg.Server.CORSOrigins, cyclesH, applicationsH, candidatesH, reportsH, orgsH)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
	}()

	slog.Info("starting server", "app", cfg.App.Name, "port", server.Addr, "store", cfg.Store.Driver)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
