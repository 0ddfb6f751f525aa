package bootstrap

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/analyticsPapy/trainlytics-app/internal/config"
	"github.com/analyticsPapy/trainlytics-app/internal/metrics"
	"github.com/analyticsPapy/trainlytics-app/internal/services"
	"github.com/analyticsPapy/trainlytics-app/internal/store"

	"github.com/appleboy/graceful"
)

// createHTTPServer creates the HTTP server instance
func createHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// addServerRunningJob adds the HTTP server running job
func addServerRunningJob(m *graceful.Manager, srv *http.Server) {
	m.AddRunningJob(func(ctx context.Context) error {
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Failed to start server: %v", err)
			}
		}()
		<-ctx.Done()
		return nil
	})
}

// addServerShutdownJob adds HTTP server shutdown handler
func addServerShutdownJob(m *graceful.Manager, srv *http.Server) {
	m.AddShutdownJob(func() error {
		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server forced to shutdown: %v", err)
			return err
		}

		log.Println("Server exited")
		return nil
	})
}

// addJanitorJob adds the periodic housekeeping job: purge expired OAuth
// states, fail abandoned syncs, and refresh the connection gauges.
func addJanitorJob(
	m *graceful.Manager,
	cfg *config.Config,
	db *store.Store,
	syncService *services.SyncService,
	recorder metrics.Recorder,
) {
	if cfg.JanitorInterval <= 0 {
		return
	}

	m.AddRunningJob(func(ctx context.Context) error {
		ticker := time.NewTicker(cfg.JanitorInterval)
		defer ticker.Stop()

		// Run once on startup so a restarted replica cleans up after
		// its predecessor right away.
		runJanitor(db, syncService, recorder)

		for {
			select {
			case <-ticker.C:
				runJanitor(db, syncService, recorder)
			case <-ctx.Done():
				return nil
			}
		}
	})
}

func runJanitor(
	db *store.Store,
	syncService *services.SyncService,
	recorder metrics.Recorder,
) {
	if purged, err := db.PurgeExpiredOAuthStates(); err != nil {
		log.Printf("Failed to purge expired OAuth states: %v", err)
	} else if purged > 0 {
		log.Printf("Purged %d expired OAuth state(s)", purged)
	}

	if reconciled, err := syncService.ReconcileAbandoned(); err != nil {
		log.Printf("Failed to reconcile abandoned syncs: %v", err)
	} else if reconciled > 0 {
		log.Printf("Reconciled %d abandoned sync(s)", reconciled)
	}

	counts, err := db.CountActiveConnectionsByProvider()
	if err != nil {
		log.Printf("Failed to count active connections: %v", err)
		return
	}
	for provider, count := range counts {
		recorder.SetActiveConnectionsCount(provider, int(count))
	}
}
