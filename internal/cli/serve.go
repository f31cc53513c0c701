package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/nightwalk/server/internal/api"
)

const shutdownTimeout = 10 * time.Second

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the world in real time behind the inspector API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	w, err := openWorld(ctx, cfg)
	if err != nil {
		return err
	}
	defer w.Close()

	hub := api.NewWebSocketHub()
	go hub.Run(ctx)
	w.loop.AddPublisher(hub)

	inspector := api.NewInspector(api.InspectorConfig{
		AllowedOrigins: cfg.Inspector.AllowedOrigins,
		RateLimit:      cfg.Inspector.RateLimit,
		TileSize:       cfg.World.TileSize,
		HSTS:           cfg.Server.IsProduction(),
	}, w.loop, w.profiler, hub)
	if w.store != nil {
		inspector.SetTelemetry(w.store, w.sessionID())
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      inspector.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("Nightwalk server starting on %s (%s)", server.Addr, cfg.Server.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	loopDone := make(chan error, 1)
	go func() { loopDone <- w.loop.Run(ctx) }()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			cancel()
			<-loopDone
			return fmt.Errorf("server failed: %w", err)
		}
	}

	log.Printf("Shutting down server...")
	cancel()
	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if err := <-loopDone; err != nil {
		return err
	}
	w.profiler.LogReport()
	return nil
}
