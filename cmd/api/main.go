package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jhoicas/materiales-api/internal/application/fleet"
	"github.com/jhoicas/materiales-api/internal/application/inventory"
	"github.com/jhoicas/materiales-api/internal/application/ports"
	"github.com/jhoicas/materiales-api/internal/application/requests"
	"github.com/jhoicas/materiales-api/internal/application/usecase"
	"github.com/jhoicas/materiales-api/internal/infrastructure/blob"
	"github.com/jhoicas/materiales-api/internal/infrastructure/events"
	"github.com/jhoicas/materiales-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/materiales-api/internal/infrastructure/pdf"
	"github.com/jhoicas/materiales-api/internal/infrastructure/postgres"
	"github.com/jhoicas/materiales-api/internal/infrastructure/xlsx"
	httpRouter "github.com/jhoicas/materiales-api/internal/interfaces/http"
	"github.com/jhoicas/materiales-api/pkg/config"
	"github.com/jhoicas/materiales-api/pkg/logger"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, log)
	stop()
	if err != nil {
		log.Error().Err(err).Msg("aplicación finalizada con error")
		os.Exit(1)
	}
	log.Info().Msg("aplicación detenida")
}

// run arma las dependencias y sirve hasta que ctx termina. Los clientes externos se cierran
// con defer antes de volver, también cuando el arranque falla a mitad de camino.
func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	var (
		store ports.Store
		feed  *postgres.Listener
	)
	switch cfg.Store.Driver {
	case "memory":
		store = memory.New(
			memory.WithMaxAttempts(cfg.Store.TxMaxAttempts),
			memory.WithMaxWrites(cfg.Store.TxMaxWrites),
		)
	default:
		if cfg.Store.RunMigrations {
			if err := postgres.RunMigrations(cfg.DB.ConnectionString(), log); err != nil {
				return fmt.Errorf("migraciones: %w", err)
			}
		}
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		defer pool.Close()

		feed = postgres.NewListener(pool, log)
		store = postgres.NewStore(pool, feed, postgres.StoreOptions{
			MaxAttempts: cfg.Store.TxMaxAttempts,
			MaxWrites:   cfg.Store.TxMaxWrites,
		}, log)
	}

	// Notificaciones push: RabbitMQ si está configurado, si no sólo log.
	var notifier ports.Notifier = events.NewLogNotifier(log)
	if cfg.MQ.Host != "" {
		rabbit, err := events.NewRabbitNotifier(cfg.MQ)
		if err != nil {
			return fmt.Errorf("conexión a RabbitMQ: %w", err)
		}
		defer rabbit.Close()
		notifier = rabbit
	}

	var blobs ports.BlobStore
	if cfg.S3.Bucket != "" {
		s3Store, err := blob.NewS3Store(ctx, cfg.S3)
		if err != nil {
			return fmt.Errorf("cliente S3: %w", err)
		}
		blobs = s3Store
	} else {
		log.Warn().Msg("S3_BUCKET vacío: adjuntos deshabilitados")
	}

	loc, err := time.LoadLocation("America/Bogota")
	if err != nil {
		loc = time.UTC
	}

	ledger := inventory.NewStockLedgerUseCase(store, xlsx.NewStockReport(), log)
	requestUC := requests.NewRequestUseCase(store, ledger, requests.Config{
		Notifier:           notifier,
		Blobs:              blobs,
		Receipts:           infrapdf.NewMarotoReceiptGenerator(loc),
		CentralWarehouseID: cfg.App.CentralWarehouseID,
	}, log)

	app := fiber.New(fiber.Config{
		AppName:     cfg.App.Name,
		ReadTimeout: time.Second * 10,
		IdleTimeout: time.Second * 60,
		// Sin WriteTimeout: los flujos SSE permanecen abiertos.
		BodyLimit: (cfg.HTTP.MaxUploadMB + 1) << 20,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Materiales API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		MaterialUC:  usecase.NewMaterialUseCase(store),
		WarehouseUC: usecase.NewWarehouseUseCase(store),
		UserUC:      usecase.NewUserUseCase(store),
		Ledger:      ledger,
		VehicleUC:   fleet.NewVehicleUseCase(store, log),
		RequestUC:   requestUC,
		JWTSecret:   cfg.JWT.Secret,
		MaxUploadMB: cfg.HTTP.MaxUploadMB,
	})

	// El listener toma una conexión del pool: arranca sólo cuando ya no hay salidas tempranas,
	// y Wait lo espera antes de que corra pool.Close.
	g, gctx := errgroup.WithContext(ctx)
	if feed != nil {
		g.Go(func() error { return feed.Run(gctx) })
	}
	g.Go(func() error {
		return app.Listen(cfg.HTTP.Addr())
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("señal de apagado recibida, cerrando servidor...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
