// Package mintworker поднимает фоновый воркер минтинга NFT: читает задания
// из очереди RabbitMQ и отправляет их в шлюз блокчейна Cardano.
package mintworker

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/car-dano/inspection-backend/internal/cardano"
	"github.com/car-dano/inspection-backend/internal/config"
	"github.com/car-dano/inspection-backend/internal/lib/rabbitmq"
	mintingservice "github.com/car-dano/inspection-backend/internal/services/minting"
	"github.com/car-dano/inspection-backend/internal/storage/repository"
)

type App struct {
	conn           *amqp.Connection
	ch             *amqp.Channel
	db             *repository.Storage
	mintingService *mintingservice.MintingService
	logger         *slog.Logger
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	conn, err := rabbitmq.Connect(cfg.RabbitMQConnection, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}

	queues := rabbitmq.GetMintQueues()
	ch, err := rabbitmq.SetupChannel(conn, queues)
	if err != nil {
		conn.Close()
		return nil, err
	}

	chainClient := cardano.NewClient(cfg.Cardano)
	mintingService := mintingservice.NewMintingService(db, chainClient, logger)

	return &App{
		conn:           conn,
		ch:             ch,
		db:             db,
		mintingService: mintingService,
		logger:         logger,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumeMessages(ctx, a.ch, "minting.jobs", a.mintingService.HandleDelivery)
	if err != nil {
		a.logger.Error("failed to start minting.jobs consumer", slog.Any("err", err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("mint worker shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}

	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}

	a.db.DB.Close()

	return nil
}
