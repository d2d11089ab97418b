package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diewo77/feedback-app/internal/config"
	"github.com/diewo77/feedback-app/internal/db"
	"github.com/diewo77/feedback-app/internal/server"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

var migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")

func main() {
	flag.Parse()
	_ = godotenv.Load()
	cfg := config.Load()

	if cfg.Env == "development" {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	dbConn, err := db.ConnectAndMigrate(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("database connection failed")
	}
	if migrateOnlyFlag != nil && *migrateOnlyFlag {
		logrus.Info("migrations completed; exiting as requested")
		return
	}

	logrus.Infof("starting server env=%s port=%s driver=%s", cfg.Env, cfg.Port, cfg.Driver)
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: server.New(dbConn)}

	go func() {
		logrus.Infof("server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("error during shutdown")
	}
	logrus.Info("server gracefully stopped")
}
