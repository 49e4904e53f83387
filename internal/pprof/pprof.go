package pprof

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" //nolint:gosec
	"time"

	"github.com/zeronorth-oss/znctl/internal/metrics"
)

// StartDebugServer starts a debug server on the given address serving the
// pprof endpoints and, when a collector is supplied, /metrics. Intended for
// long-running export and poll invocations; the server shuts down when the
// context is cancelled.
func StartDebugServer(ctx context.Context, addr string, collector metrics.Collector) error {
	if addr == "" {
		return errors.New("address cannot be empty")
	}

	mux := http.DefaultServeMux
	if collector != nil {
		mux.Handle("/metrics", collector.MetricsHandler())
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting debug server on %s\n", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("could not listen on %s: %v\n", addr, err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutting down debug server on %s\n", addr)
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
