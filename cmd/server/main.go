package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/openboard/darts-server/internal/auth"
	"github.com/openboard/darts-server/internal/config"
	"github.com/openboard/darts-server/internal/httpapi"
	"github.com/openboard/darts-server/internal/hub"
	"github.com/openboard/darts-server/internal/rtc"
	"github.com/openboard/darts-server/internal/store"
	"github.com/openboard/darts-server/internal/ws"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var st store.Store
	if cfg.DatabaseURL != "" {
		pg, err := store.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		st = pg
		logger.Info("using postgres store")
	} else {
		st = store.NewMemory()
		logger.Warn("DATABASE_URL not set, profiles and recovery rows will not survive restarts")
	}

	var verifier auth.Verifier
	if cfg.AuthSecret != "" {
		verifier = auth.NewJWTVerifier(cfg.AuthSecret)
	} else {
		verifier = auth.DevVerifier{}
		logger.Warn("AUTH_SECRET not set, accepting unverified credentials")
	}

	issuer := rtc.NewIssuer(cfg.RTCAppID, cfg.RTCCertificate, cfg.RTCTokenTTL)
	if !issuer.Configured() {
		logger.Warn("voice tokens not configured")
	}

	h := hub.New(ctx, logger, st)
	gateway := ws.NewGateway(h, verifier, st, issuer, logger, cfg.SendBuffer, cfg.Origins)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: httpapi.SetupRoutes(gateway, issuer),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
