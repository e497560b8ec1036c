// Command careerbox-devserver runs the auth API locally so the client can be
// exercised without the hosted service. Point the client at it with
// CAREERBOX_API_URL=http://localhost:5002.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/naveenspark/careerbox/internal/config"
	"github.com/naveenspark/careerbox/internal/devserver"
	"github.com/naveenspark/careerbox/internal/logger"
)

func main() {
	logger.SetPrefix("devserver")

	cfg, err := config.LoadDevServer()
	if err != nil {
		logger.Error(err)
		os.Exit(1)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))
	if cfg.FixedOTP != "" {
		logger.Infof("every registration gets otp %s", cfg.FixedOTP)
	}

	srv, err := devserver.New(devserver.Options{
		FixedOTP: cfg.FixedOTP,
		Secret:   []byte(cfg.JWTSecret),
		TokenTTL: cfg.TokenTTL,
	})
	if err != nil {
		logger.Error(err)
		os.Exit(1)
	}

	httpSrv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Infof("listening on %s", cfg.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("server: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
	wg.Wait()
	logger.Info("stopped")
}
