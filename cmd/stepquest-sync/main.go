// stepquest-sync runs one background reconciliation+sync pass and exits.
// The host scheduler (cron, systemd timer, platform task manager) decides
// the actual cadence and may skip runs entirely; the pass applies its own
// throttle on top.
package main

import (
	"context"
	"errors"
	"log"
	"time"

	"stepquest/internal/adapter/postgres"
	"stepquest/internal/adapter/sqlite"
	"stepquest/internal/app"
	"stepquest/internal/config"
	"stepquest/internal/identity"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	local, err := sqlite.Open(cfg.StatePath)
	if err != nil {
		log.Fatalf("local store open: %v", err)
	}
	defer func() { _ = local.Close() }()

	// A signed-out device is a successful no-op; check before dialing the
	// remote store at all.
	sessions := identity.NewManager(local, nil)
	session, err := sessions.Current(ctx)
	if errors.Is(err, identity.ErrNotSignedIn) {
		log.Println("no signed-in user, nothing to sync")
		return
	}
	if err != nil {
		log.Fatalf("load session: %v", err)
	}

	remote, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("remote store open: %v", err)
	}
	defer func() { _ = remote.Close() }()

	limits := app.DefaultLimits()
	gateway := app.NewSyncGateway(session.UserID, remote, remote, remote, remote, local,
		app.Throttle{MinInterval: limits.BackgroundMinInterval, MinSteps: limits.BackgroundMinSteps},
		app.ThrottleKeyBackground)
	gateway.SetLogger(log.Default())

	// Platform deployments bind their own history/aggregator sources; absent
	// ones fall back to the persisted counter.
	pass := app.NewBackgroundPass(sessions, local, nil, nil, gateway)
	pass.SetLogger(log.Default())

	if err := pass.Run(ctx); err != nil {
		log.Fatalf("background pass: %v", err)
	}
}
