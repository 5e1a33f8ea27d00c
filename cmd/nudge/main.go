package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nudge/internal/auth"
	"nudge/internal/config"
	"nudge/internal/db"
	httpx "nudge/internal/http"
	"nudge/internal/notify"
	"nudge/internal/reminder"
	"nudge/internal/worker"
)

func main() {
	cfg, _ := config.Load()

	// The store is the sole source of truth for reminders. If Postgres is
	// unreachable we stay up on the in-memory store: reminders keep firing
	// for this session but will not survive a restart.
	var store reminder.Store
	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Printf("WARNING: storage unavailable, reminders will not survive restart: %v\n", err)
		gdb = nil
		store = reminder.NewMemStore()
	} else {
		if err := db.AutoMigrateAndIndexes(gdb); err != nil {
			log.Fatal(err)
		}
		store = reminder.NewGormStore(gdb)
	}

	var notifier notify.Notifier
	enabled := false
	switch cfg.NotifyPrimary {
	case "webhook":
		notifier = &notify.WebhookNotifier{URL: cfg.NotifyWebhookURL}
		enabled = cfg.NotifyWebhookURL != ""
	case "off":
		notifier = notify.LogNotifier{}
	default:
		notifier = notify.LogNotifier{}
		enabled = true
	}
	gate := notify.NewGate(notify.ConfigPlatform{Enabled: enabled}, notifier)

	sched := reminder.NewScheduler(store, gate, notifier, cfg.ReconcileInterval, cfg.GraceWindow)

	clients := &worker.MemClients{}
	coord := worker.NewCoordinator(clients)

	jwtSvc := auth.NewJWT(cfg.JWTSecret)
	r := httpx.NewRouter(cfg, httpx.Deps{
		DB:          gdb,
		JWT:         jwtSvc,
		Scheduler:   sched,
		Reminders:   store,
		Gate:        gate,
		Coordinator: coord,
		Clients:     clients,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go sched.Run(ctx)
	go coord.Run(ctx)
	go func() {
		// the delivery worker's effect stream; in a deployment the client
		// runtime consumes these, here they land in the log
		for {
			select {
			case <-ctx.Done():
				return
			case eff := <-coord.Effects():
				log.Printf("worker effect: %s target=%s\n", eff.Type, eff.Target)
			}
		}
	}()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("listening on %s\n", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
