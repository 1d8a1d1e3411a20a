package inspectionbackend

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/car-dano/inspection-backend/internal/cache"
	"github.com/car-dano/inspection-backend/internal/cardano"
	"github.com/car-dano/inspection-backend/internal/config"
	"github.com/car-dano/inspection-backend/internal/lib/jwt"
	"github.com/car-dano/inspection-backend/internal/lib/rabbitmq"
	"github.com/car-dano/inspection-backend/internal/migrations"
	"github.com/car-dano/inspection-backend/internal/objectstorage"
	"github.com/car-dano/inspection-backend/internal/paymentgateway"
	authservice "github.com/car-dano/inspection-backend/internal/services/auth"
	creditservice "github.com/car-dano/inspection-backend/internal/services/credit"
	dashboardservice "github.com/car-dano/inspection-backend/internal/services/dashboard"
	inspectionservice "github.com/car-dano/inspection-backend/internal/services/inspection"
	photoservice "github.com/car-dano/inspection-backend/internal/services/photo"
	purchaseservice "github.com/car-dano/inspection-backend/internal/services/purchase"
	userservice "github.com/car-dano/inspection-backend/internal/services/user"
	"github.com/car-dano/inspection-backend/internal/storage/repository"
)

type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
	mqConn *amqp.Connection
	mqCh   *amqp.Channel
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmq.Connect(cfg.RabbitMQConnection, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	mqCh, err := rabbitmq.SetupChannel(mqConn, rabbitmq.GetMintQueues())
	if err != nil {
		mqConn.Close()
		return nil, err
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	objectStorage := objectstorage.New(cfg.Backblaze, logger)
	chainClient := cardano.NewClient(cfg.Cardano)
	gatewayClient := paymentgateway.NewClient(cfg.Xendit.APIKey)
	mintPublisher := rabbitmq.NewMintJobPublisher(mqCh)

	authService := authservice.NewAuthService(db, jwtMaker, cfg.GoogleOAuth)
	userService := userservice.NewUserService(db)
	inspectionService := inspectionservice.NewInspectionService(db, mintPublisher, logger)
	photoService := photoservice.NewPhotoService(db, objectStorage, logger)
	creditService := creditservice.NewCreditService(db, cacheRedis, logger)
	purchaseService := purchaseservice.NewPurchaseService(db, gatewayClient, cfg.Xendit.SuccessURL, cfg.Xendit.FailureURL, logger)
	dashboardService := dashboardservice.NewDashboardService(db, cacheRedis, cfg.DashboardTimezone, logger)

	router := chi.NewRouter()

	RegisterRoutes(router, logger, cfg, jwtMaker, db, cacheRedis, chainClient,
		authService, userService, inspectionService, photoService,
		creditService, purchaseService, dashboardService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
		mqConn: mqConn,
		mqCh:   mqCh,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.mqCh.Close()
		a.mqConn.Close()
		a.db.DB.Close()
		return err
	}
}
