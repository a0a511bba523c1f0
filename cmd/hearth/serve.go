package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/magefree/hearth-server-go/internal/repository"
	"github.com/magefree/hearth-server-go/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve hot-seat matches over websockets",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "websocket listen address (overrides server.websocket.address)")
	serveCmd.Flags().Uint64("seed", 0, "seed for every match (0 = time based)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, map[string]string{
		"match.seed": "seed",
	})
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.WebSocket.Address = addr
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("starting hearth server",
		zap.String("version", version),
		zap.String("address", cfg.Server.WebSocket.Address),
		zap.String("database", cfg.Database.Driver),
	)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	store, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	engine, _, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}
	engine.SetResultStore(store)

	hub := server.NewHub(engine, cfg.Server.WebSocket, logger)
	go hub.Run(ctx)

	srv := server.NewHTTPServer(cfg.Server.WebSocket, hub)
	errCh := make(chan error, 1)
	go func() {
		logger.Info("websocket server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err := <-errCh:
		logger.Error("websocket server failed", zap.Error(err))
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}

	if pg, ok := store.(*repository.PostgresStore); ok {
		st := pg.Stats()
		logger.Info("database pool",
			zap.Int32("total_conns", st.TotalConns()),
			zap.Int32("idle_conns", st.IdleConns()),
			zap.Int64("acquire_count", st.AcquireCount()),
		)
	}
	logger.Info("server stopped",
		zap.Int("matches", len(engine.ListMatches())),
		zap.Int("clients", hub.ClientCount()),
	)
	return nil
}
