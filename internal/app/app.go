package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"shop/internal/config"
	"shop/internal/database"
	"shop/internal/handlers"
	"shop/internal/messaging"
	"shop/internal/models"
	"shop/internal/repositories"
	"shop/internal/services"
	"shop/internal/telemetry"
	"shop/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"
)

const (
	ServiceName    = "shop"
	ServiceVersion = "1.0.0"
)

// App is the wired HTTP service and the resources it owns.
type App struct {
	Fiber *fiber.App
	Auth  *services.AuthService

	// Rabbit is set when EVENTS_DRIVER is rabbitmq.
	Rabbit *rabbitmq.Client

	db      *gorm.DB
	logger  *slog.Logger
	closers []func(context.Context) error
}

type stores struct {
	products repositories.ProductRepository
	users    repositories.UserRepository
	carts    repositories.CartRepository
	orders   repositories.OrderRepository
	tx       repositories.Transactor
}

// New builds the repositories, services and routes described by cfg.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}
	a := &App{logger: log}

	st, err := a.openStores(cfg)
	if err != nil {
		return nil, err
	}

	publisher, err := a.openPublisher(cfg)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	var (
		metricsHandler http.Handler
		shopMetrics    *telemetry.ShopMetrics
	)
	if cfg.MetricsEnabled {
		handler, shutdown, err := telemetry.InitMeterProvider(ServiceName, ServiceVersion)
		if err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("failed to init metrics: %w", err)
		}
		a.closers = append(a.closers, shutdown)
		metricsHandler = handler
		if shopMetrics, err = telemetry.NewShopMetrics(otel.Meter(ServiceName)); err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("failed to create metrics: %w", err)
		}
	}

	authService := services.NewAuthService(st.users, cfg.JWTSecret, cfg.JWTTTL, log)
	productService := services.NewProductService(st.products)
	cartService := services.NewCartService(st.carts, st.products)
	orderService := services.NewOrderService(st.orders, st.carts, st.products, st.tx, publisher, shopMetrics, log)
	a.Auth = authService

	opts := database.SeedOptions{
		Catalog: cfg.SeedData,
		Admin:   &models.User{Username: cfg.AdminUsername, Email: cfg.AdminEmail, Password: cfg.AdminPassword},
	}
	if err := database.Seed(ctx, st.products, authService, opts, log); err != nil {
		a.Close(ctx)
		return nil, err
	}

	app := fiber.New(fiber.Config{
		AppName:      ServiceName,
		ErrorHandler: handlers.ErrorHandler(log),
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
			"events": cfg.EventsDriver,
		})
	})
	if metricsHandler != nil {
		app.Get("/metrics", adaptor.HTTPHandler(metricsHandler))
	}

	api := app.Group("/api")
	handlers.NewAuthHandler(authService, log).RegisterRoutes(api)
	handlers.NewProductHandler(productService, authService, log).RegisterRoutes(api)
	handlers.NewCartHandler(cartService, authService, log).RegisterRoutes(api)
	handlers.NewOrderHandler(orderService, authService, log).RegisterRoutes(api)

	a.Fiber = app
	return a, nil
}

func (a *App) openStores(cfg *config.Config) (stores, error) {
	if cfg.DatabaseDriver == config.DriverMemory {
		products := repositories.NewMockProductRepository()
		users := repositories.NewMockUserRepository()
		return stores{
			products: products,
			users:    users,
			carts:    repositories.NewMockCartRepository(products),
			orders:   repositories.NewMockOrderRepository(products, users),
			tx:       repositories.NewMockTransactor(),
		}, nil
	}

	db, err := database.Open(cfg, a.logger)
	if err != nil {
		return stores{}, err
	}
	a.db = db
	a.closers = append(a.closers, func(context.Context) error { return database.Close(db) })
	return stores{
		products: repositories.NewGORMProductRepository(db),
		users:    repositories.NewGORMUserRepository(db),
		carts:    repositories.NewGORMCartRepository(db),
		orders:   repositories.NewGORMOrderRepository(db),
		tx:       repositories.NewGORMTransactor(db),
	}, nil
}

func (a *App) openPublisher(cfg *config.Config) (services.EventPublisher, error) {
	switch cfg.EventsDriver {
	case config.EventsRabbitMQ:
		client, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, a.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize RabbitMQ client: %w", err)
		}
		a.Rabbit = client
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		return messaging.NewRabbitPublisher(client), nil
	case config.EventsKafka:
		publisher := messaging.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		a.closers = append(a.closers, func(context.Context) error { return publisher.Close() })
		return publisher, nil
	default:
		return services.NopPublisher{}, nil
	}
}

// DB returns the GORM connection, or nil for the memory driver.
func (a *App) DB() *gorm.DB {
	return a.db
}

// Close releases everything New opened, newest first.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
