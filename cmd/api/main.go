package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/corte-caja-api/internal/application/auth"
	"github.com/jhoicas/corte-caja-api/internal/application/session"
	"github.com/jhoicas/corte-caja-api/internal/domain/corte"
	infrapdf "github.com/jhoicas/corte-caja-api/internal/infrastructure/pdf"
	"github.com/jhoicas/corte-caja-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/corte-caja-api/internal/interfaces/http"
	"github.com/jhoicas/corte-caja-api/pkg/config"
	"github.com/jhoicas/corte-caja-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	userRepo := postgres.NewUserRepository(pool)
	corteRepo := postgres.NewCorteRepository(pool)
	cierreRepo := postgres.NewCierreRepository(pool, corteRepo)

	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	// Sesión de corte por empresa: arranca en el día actual con tipo resumen.
	notif := httpRouter.NewAvisoLogger(log.Zerolog())
	almacen := session.NuevoAlmacen(func(empresaID string) *session.Sesion {
		hoy := time.Now().Format(corte.FormatoFecha)
		return session.Nueva(empresaID, hoy, corteRepo, cierreRepo, notif, log.Zerolog())
	})

	pdfGenerator := infrapdf.NewMarotoCorteGenerator()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:    authUC,
		Almacen:   almacen,
		Cortes:    corteRepo,
		Cierres:   cierreRepo,
		PDF:       pdfGenerator,
		JWTSecret: cfg.JWT.Secret,
		Log:       log.Zerolog(),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
