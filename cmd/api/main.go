package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paddock.events/internal/audit"
	"paddock.events/internal/auth"
	"paddock.events/internal/gatepass"
	"paddock.events/internal/httpapi"
	"paddock.events/internal/notify"
	"paddock.events/internal/obs"
	"paddock.events/internal/registration"
	"paddock.events/internal/store/pg"
	"paddock.events/internal/stream"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	var (
		authStore  auth.Store
		regStore   registration.Store
		auditStore audit.Store
		probe      httpapi.ReadyProbe
		closeStore func() error
	)

	if dsn := os.Getenv("PADDOCK_PG_DSN"); dsn != "" {
		store, err := pg.Open(dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		authStore = store
		regStore = store.Registrations()
		auditStore = store.Audit()
		probe = httpapi.ReadyProbe{Ping: store.Ping}
		closeStore = store.Close
	} else {
		// Dev mode: everything in memory, lost on restart.
		log.Println("PADDOCK_PG_DSN is empty, running with in-memory stores")
		authStore = auth.NewInMemory()
		regStore = registration.NewInMemory()
		auditStore = audit.NewMemStore()
	}

	recorder := audit.NewRecorder(auditStore)

	authSvc, err := auth.NewService(authStore, auth.WithAudit(recorder))
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}

	var notifier registration.Notifier = notify.LogNotifier{}
	if url := os.Getenv("PADDOCK_NOTIFY_WEBHOOK"); url != "" {
		notifier = notify.NewWebhook(url)
	}

	feed := stream.New()

	engine, err := registration.NewEngine(authSvc, regStore, recorder,
		registration.WithNotifier(notifier),
		registration.WithFeed(feed),
	)
	if err != nil {
		log.Fatalf("registration engine: %v", err)
	}

	var passes *gatepass.Issuer
	if secret := os.Getenv("PADDOCK_GATEPASS_SECRET"); secret != "" {
		passes, err = gatepass.NewIssuer(secret)
		if err != nil {
			log.Fatalf("gate pass issuer: %v", err)
		}
	} else {
		log.Println("PADDOCK_GATEPASS_SECRET is empty, gate pass scanning disabled")
	}

	api := httpapi.New(probe, version, authSvc, engine, passes, feed)

	addr := os.Getenv("PADDOCK_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting paddock-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if closeStore != nil {
		_ = closeStore()
	}
	log.Println("Stopped")
}
