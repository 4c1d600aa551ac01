package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/corte-caja-api/internal/application/dto"
	"github.com/jhoicas/corte-caja-api/internal/application/export"
	"github.com/jhoicas/corte-caja-api/internal/application/session"
	"github.com/jhoicas/corte-caja-api/internal/domain/corte"
	"github.com/jhoicas/corte-caja-api/internal/domain/repository"
)

// CortePDFGenerator puerto de generación de la versión PDF del corte.
type CortePDFGenerator interface {
	GenerateCortePDF(c *corte.CorteDetallado, rango corte.RangoFechas) ([]byte, error)
}

// CorteHandler maneja la consulta del corte de caja, el cierre del día y las
// descargas. Cada empresa tiene su propia sesión viva en el almacén.
type CorteHandler struct {
	almacen *session.Almacen
	cortes  repository.CorteRepository
	cierres repository.CierreRepository
	pdf     CortePDFGenerator
	log     zerolog.Logger
}

// NewCorteHandler construye el handler del corte.
func NewCorteHandler(
	almacen *session.Almacen,
	cortes repository.CorteRepository,
	cierres repository.CierreRepository,
	pdf CortePDFGenerator,
	log zerolog.Logger,
) *CorteHandler {
	return &CorteHandler{almacen: almacen, cortes: cortes, cierres: cierres, pdf: pdf, log: log}
}

// rangoDeQuery arma el rango a partir de inicio/fin; sin parámetros usa hoy.
func rangoDeQuery(c *fiber.Ctx) (corte.RangoFechas, error) {
	hoy := time.Now().Format(corte.FormatoFecha)
	inicio := c.Query("inicio", hoy)
	fin := c.Query("fin", inicio)
	return corte.NuevoRango(inicio, fin)
}

// Obtener genera el reporte para el rango y tipo solicitados y devuelve el
// estado completo de la sesión: reporte vigente, banderas y estado de cierre.
func (h *CorteHandler) Obtener(c *fiber.Ctx) error {
	rango, err := rangoDeQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_RANGE", Message: err.Error()})
	}
	tipo := corte.TipoReporte(c.Query("tipo", string(corte.TipoResumen)))
	if !tipo.EsValido() {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_TYPE", Message: "tipo debe ser resumen o detallado"})
	}

	s := h.almacen.Obtener(GetEmpresaID(c))
	s.CambiarRango(c.Context(), rango.Inicio, rango.Fin)
	s.CambiarTipo(tipo)
	s.GenerarReporte(c.Context())
	return c.JSON(s.Estado())
}

// EstadoCierre verifica si la fecha consultada ya tiene cierre persistido.
func (h *CorteHandler) EstadoCierre(c *fiber.Ctx) error {
	fecha := c.Query("fecha", time.Now().Format(corte.FormatoFecha))
	if _, err := corte.NuevoRango(fecha, fecha); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_DATE", Message: err.Error()})
	}

	s := h.almacen.Obtener(GetEmpresaID(c))
	s.CambiarRango(c.Context(), fecha, fecha)
	s.VerificarEstadoCierre(c.Context())
	return c.JSON(fiber.Map{
		"fecha":         fecha,
		"estado_cierre": s.Estado().EstadoCierre,
	})
}

// CerrarDia persiste el cierre del día indicado. El desenlace viaja en el
// estado de la sesión: MensajeCierre con el resultado y el corte recargado
// desde el snapshot cuando el cierre prospera.
func (h *CorteHandler) CerrarDia(c *fiber.Ctx) error {
	var in dto.CierreRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if _, err := corte.NuevoRango(in.Fecha, in.Fecha); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_DATE", Message: err.Error()})
	}

	s := h.almacen.Obtener(GetEmpresaID(c))
	s.CambiarRango(c.Context(), in.Fecha, in.Fecha)
	s.CerrarDia(c.Context())

	est := s.Estado()
	switch est.MensajeCierre {
	case session.MsgCierreExitoso:
		return c.Status(fiber.StatusCreated).JSON(est)
	case session.MsgErrorCierre:
		// Mensaje genérico: el backend falló, no hubo rechazo de negocio.
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: est.MensajeCierre})
	default:
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CIERRE_RECHAZADO", Message: est.MensajeCierre})
	}
}

// VerCierre devuelve el snapshot persistido de una fecha concreta.
func (h *CorteHandler) VerCierre(c *fiber.Ctx) error {
	fecha := c.Params("fecha")
	if _, err := corte.NuevoRango(fecha, fecha); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_DATE", Message: err.Error()})
	}
	cierre, err := h.cierres.Obtener(c.Context(), GetEmpresaID(c), fecha)
	if err != nil {
		if errors.Is(err, repository.ErrCierreNoEncontrado) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "CIERRE_NOT_FOUND", Message: session.MsgSinCierrePara + fecha})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(cierre)
}

// ExportCSV descarga el corte detallado del rango como CSV.
func (h *CorteHandler) ExportCSV(c *fiber.Ctx) error {
	rango, err := rangoDeQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_RANGE", Message: err.Error()})
	}
	det, err := h.resolverDetallado(c, rango)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: session.MsgErrorReporte})
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+export.Filename(rango)+`"`)
	return c.Send(export.CSV(det, rango))
}

// ExportPDF descarga el corte detallado del rango como PDF.
func (h *CorteHandler) ExportPDF(c *fiber.Ctx) error {
	rango, err := rangoDeQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_RANGE", Message: err.Error()})
	}
	det, err := h.resolverDetallado(c, rango)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: session.MsgErrorReporte})
	}
	doc, err := h.pdf.GenerateCortePDF(det, rango)
	if err != nil {
		h.log.Error().Err(err).Msg("export pdf")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "no se pudo generar el PDF"})
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="corte_caja_`+rango.Inicio+`_`+rango.Fin+`.pdf"`)
	return c.Send(doc)
}

// resolverDetallado aplica la misma estrategia de resolución que la sesión:
// para un solo día preferir el cierre persistido; en otro caso calcular en vivo.
func (h *CorteHandler) resolverDetallado(c *fiber.Ctx, rango corte.RangoFechas) (*corte.CorteDetallado, error) {
	empresaID := GetEmpresaID(c)
	if rango.EsUnDia() {
		cierre, err := h.cierres.Obtener(c.Context(), empresaID, rango.Inicio)
		if err == nil {
			return cierre, nil
		}
		if !errors.Is(err, repository.ErrCierreNoEncontrado) {
			h.log.Warn().Err(err).Str("fecha", rango.Inicio).Msg("consulta de cierre falló, se calcula en vivo")
		}
	}
	return h.cortes.ObtenerDetallado(c.Context(), empresaID, rango)
}
