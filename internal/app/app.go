package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"
	"github.com/storefront-labs/order-svc/internal/dal/interfaces/ioutboxrepo"
	"github.com/storefront-labs/order-svc/internal/dal/postgres"
	"github.com/storefront-labs/order-svc/internal/dal/rabbitmq"
	orderinmem "github.com/storefront-labs/order-svc/internal/dal/repositories/order/inmem"
	outboxinmem "github.com/storefront-labs/order-svc/internal/dal/repositories/outbox/inmem"
	outboxrepo "github.com/storefront-labs/order-svc/internal/dal/repositories/outbox/postgres"
	productinmem "github.com/storefront-labs/order-svc/internal/dal/repositories/product/inmem"
	productrepo "github.com/storefront-labs/order-svc/internal/dal/repositories/product/postgres"
	"github.com/storefront-labs/order-svc/internal/dal/uow"
	"github.com/storefront-labs/order-svc/internal/otel"
	"github.com/storefront-labs/order-svc/internal/service/models/outbox"
	"github.com/storefront-labs/order-svc/internal/service/services/ordersvc"
	httptransport "github.com/storefront-labs/order-svc/internal/transport/http"
	outboxworker "github.com/storefront-labs/order-svc/internal/worker/outbox"
)

// App represents the application.
type App struct {
	orderSvc       *ordersvc.OrderService
	transport      *httptransport.HTTPTransport
	postgresClient *postgres.Client
	rabbitClient   *rabbitmq.Client
	outboxWorker   *outboxworker.Worker
	otelController *otel.OtelController
	workerCancel   context.CancelFunc
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	app := &App{}

	var outboxRepo ioutboxrepo.IOutboxRepository

	switch viper.GetString("storage.driver") {
	case "memory":
		products := productinmem.NewProductRepository()
		orders := orderinmem.NewOrderRepository()
		outboxRepo = outboxinmem.NewOutboxRepository()

		memUOW := uow.NewMemoryUnitOfWork(orders, outboxRepo)
		app.orderSvc = ordersvc.MustNewOrderService(
			ordersvc.WithProductRepository(products),
			ordersvc.WithUnitOfWorkFactory(func() ordersvc.UnitOfWork { return memUOW }),
		)
	default:
		postgresClient := postgres.MustNewClient()
		app.postgresClient = postgresClient
		outboxRepo = outboxrepo.NewOutboxRepository(postgresClient.Pool())

		app.orderSvc = ordersvc.MustNewOrderService(
			ordersvc.WithProductRepository(productrepo.NewPostgresProductRepository(postgresClient.Pool())),
			ordersvc.WithUnitOfWorkFactory(func() ordersvc.UnitOfWork {
				return uow.NewPostgresUnitOfWork(postgresClient)
			}),
		)
	}

	app.otelController = otel.MustInitOtel()

	if viper.GetBool("rabbitmq.enabled") {
		app.rabbitClient = rabbitmq.MustNewClient()
		if _, err := app.rabbitClient.DeclareQueue(rabbitmq.DeclareQueueConfig{
			Name:    outbox.OrdersQueue,
			Durable: true,
		}); err != nil {
			panic(err)
		}
		app.outboxWorker = outboxworker.NewWorker(outboxRepo, app.rabbitClient)
	}

	app.transport = httptransport.NewHTTPTransport(app.orderSvc)
	app.transport.RegisterRoutes()

	return app
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	// Create a channel to receive OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	if a.outboxWorker != nil {
		workerCtx, cancel := context.WithCancel(context.Background())
		a.workerCancel = cancel
		go a.outboxWorker.Start(workerCtx)
	}

	go func() {
		slog.Info("Starting HTTP server")
		if err := a.transport.Run(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	<-stop
	slog.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.transport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	if a.workerCancel != nil {
		a.workerCancel()
	}

	if a.rabbitClient != nil {
		if err := a.rabbitClient.Close(); err != nil {
			slog.Error("RabbitMQ connection close error", "error", err)
		}
	}

	if a.postgresClient != nil {
		a.postgresClient.Close()
		slog.Info("Database connection closed gracefully")
	}

	if err := a.otelController.Shutdown(); err != nil {
		slog.Error("Trace provider shutdown error", "error", err)
	}

	slog.Info("Application shutdown complete")
}
