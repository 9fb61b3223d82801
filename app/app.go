package app

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/togocar/fleet-service/config"
	"github.com/togocar/fleet-service/internal/events"
	"github.com/togocar/fleet-service/internal/handler"
	"github.com/togocar/fleet-service/internal/repository"
	"github.com/togocar/fleet-service/internal/server"
	"github.com/togocar/fleet-service/internal/service"
	"github.com/togocar/fleet-service/migrations"
	"github.com/togocar/fleet-service/pkg/kafka"
	"github.com/togocar/fleet-service/pkg/logger"
	"github.com/togocar/fleet-service/pkg/postgres"
)

func Run(cfg *config.Config) {
	log := logger.NewLogger(cfg.Log, "fleet")
	db, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		log.Fatal("db init", zap.Error(err))
	}
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		log.Fatal("repo", zap.Error(err))
	}

	var publisher service.EventPublisher = events.NopPublisher{}
	if len(cfg.Kafka.Addrs) > 0 {
		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			log.Fatal("kafka.NewProducer", zap.Error(err))
		}
		defer producer.Close() //nolint:errcheck
		publisher = events.NewPublisher(producer, log)
	}

	svc := service.NewService(repo, publisher, log)
	h := handler.New(svc, log)

	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))

	g, _ := errgroup.WithContext(context.Background())
	g.Go(srv.Run)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.Error("srv.Stop", zap.Error(err))
	}
	if err = g.Wait(); err != nil {
		log.Debug("server stopped", zap.Error(err))
	}
	db.Close()
	log.Info("Graceful shutdown finished")
}
