package main

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"

	adapthttp "stepquest/internal/adapter/http"
	"stepquest/internal/adapter/memory"
	"stepquest/internal/adapter/postgres"
	"stepquest/internal/adapter/sqlite"
	"stepquest/internal/app"
	"stepquest/internal/config"
	"stepquest/internal/identity"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	remote, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("remote store open: %v", err)
	}
	defer func() { _ = remote.Close() }()

	local, err := sqlite.Open(cfg.StatePath)
	if err != nil {
		log.Fatalf("local store open: %v", err)
	}
	defer func() { _ = local.Close() }()

	sessions := identity.NewManager(local, verifierFor(ctx, cfg))
	session, err := sessions.Current(ctx)
	if err != nil {
		if errors.Is(err, identity.ErrNotSignedIn) {
			log.Fatal("no signed-in user; sign in before starting the tracker")
		}
		log.Fatalf("load session: %v", err)
	}

	if cfg.CatalogPath != "" {
		if err := app.SeedAchievements(ctx, remote, cfg.CatalogPath); err != nil {
			log.Fatalf("seed achievements: %v", err)
		}
	}

	profiles := app.NewProfileService(remote, remote, remote)
	if err := profiles.EnsureDocuments(ctx, session.UserID); err != nil {
		log.Fatalf("ensure documents: %v", err)
	}

	limits := app.DefaultLimits()
	logger := log.New(os.Stderr, "", log.LstdFlags)

	gateway := app.NewSyncGateway(session.UserID, remote, remote, remote, remote, local,
		app.Throttle{MinInterval: limits.SyncMinInterval, MinSteps: limits.SyncMinSteps},
		app.ThrottleKeyForeground)
	gateway.SetLogger(logger)
	gateway.OnGoalReached = func(day string, steps int) {
		log.Printf("daily goal reached on %s at %d steps", day, steps)
	}
	gateway.OnUnlock = func(achievementIDs, _ []string) {
		log.Printf("achievements unlocked: %v", achievementIDs)
	}

	tracker := app.NewDeltaTracker(limits.MaxDelta)
	acceptor := app.NewHistoryAcceptor(limits.StaleWindow)
	reconciler, err := app.NewReconciler(ctx, local, gateway, tracker, acceptor)
	if err != nil {
		log.Fatalf("reconciler init: %v", err)
	}
	reconciler.SetLogger(logger)

	// Platform deployments provide their own SensorStream, HistorySource and
	// AggregatorSource bindings; the in-memory ones stand in here and are
	// driven only in demo mode.
	sensor := memory.NewSensor()
	history := memory.NewHistory()
	history.SetUnavailable(true)
	aggregator := memory.NewAggregator()
	aggregator.SetUnavailable(true)
	lifecycle := memory.NewLifecycle()

	supervisor := app.NewSupervisor(sensor, history, aggregator, lifecycle, reconciler, tracker, limits)
	supervisor.SetLogger(logger)
	if err := supervisor.Start(ctx); err != nil {
		log.Fatalf("supervisor start: %v", err)
	}
	defer supervisor.Stop()

	if cfg.DemoMode {
		go demoWalk(sensor)
	}

	if cfg.SchedulerInterval > 0 {
		pass := app.NewBackgroundPass(sessions, local, history, aggregator,
			app.NewSyncGateway(session.UserID, remote, remote, remote, remote, local,
				app.Throttle{MinInterval: limits.BackgroundMinInterval, MinSteps: limits.BackgroundMinSteps},
				app.ThrottleKeyBackground))
		pass.SetLogger(logger)
		scheduler := app.NewScheduler(pass, cfg.SchedulerInterval)
		scheduler.SetLogger(logger)
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	stats := app.NewStatsService(remote, remote)
	h := adapthttp.New(session.UserID, reconciler, stats, profiles).Handler()

	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		log.Println("shutting down")
		supervisor.Stop()
		os.Exit(0)
	}()

	log.Printf("listening on %s (user=%s)", cfg.Addr, session.UserID)
	if err := http.ListenAndServe(cfg.Addr, h); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

func verifierFor(ctx context.Context, cfg config.Config) *oidc.IDTokenVerifier {
	if cfg.OIDCIssuer == "" {
		return nil
	}
	v, err := identity.NewVerifier(ctx, cfg.OIDCIssuer, cfg.OIDCClientID)
	if err != nil {
		log.Fatalf("oidc setup: %v", err)
	}
	return v
}

// demoWalk feeds the in-memory sensor a plausible cumulative count.
func demoWalk(sensor *memory.Sensor) {
	total := 0
	for {
		time.Sleep(2 * time.Second)
		total += rand.Intn(40)
		sensor.Emit(total, time.Now())
	}
}
