package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/corte-caja-api/internal/application/auth"
	"github.com/jhoicas/corte-caja-api/internal/application/session"
	"github.com/jhoicas/corte-caja-api/internal/domain/repository"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC    *auth.AuthUseCase
	Almacen   *session.Almacen
	Cortes    repository.CorteRepository
	Cierres   repository.CierreRepository
	PDF       CortePDFGenerator
	JWTSecret string
	Log       zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Corte de caja (protegido)
	cortes := protected.Group("/cortes")
	corteHandler := NewCorteHandler(deps.Almacen, deps.Cortes, deps.Cierres, deps.PDF, deps.Log)
	cortes.Get("/", corteHandler.Obtener)
	cortes.Get("/estado-cierre", corteHandler.EstadoCierre)
	cortes.Post("/cierres", RequireRole("admin", "cajero"), corteHandler.CerrarDia)
	cortes.Get("/cierres/:fecha", corteHandler.VerCierre)
	cortes.Get("/export.csv", corteHandler.ExportCSV)
	cortes.Get("/export.pdf", corteHandler.ExportPDF)
}
