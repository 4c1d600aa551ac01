package repository

import (
	"context"
	"errors"

	"github.com/jhoicas/corte-caja-api/internal/domain/corte"
)

// ErrCierreNoEncontrado no existe cierre persistido para esa fecha. No es una
// condición de error para la sesión: dispara el cálculo en vivo.
var ErrCierreNoEncontrado = errors.New("no existe un cierre para esa fecha")

// ErrorBackend error de negocio con mensaje legible proveniente del backend de
// cortes (por ejemplo un cierre duplicado). El mensaje se muestra al usuario
// tal cual.
type ErrorBackend struct {
	Mensaje string
}

func (e *ErrorBackend) Error() string { return e.Mensaje }

// CorteRepository consultas de cálculo en vivo del corte de caja.
// Las implementaciones son read-only.
type CorteRepository interface {
	// ObtenerResumen calcula el agregado plano del período.
	ObtenerResumen(ctx context.Context, empresaID string, rango corte.RangoFechas) (*corte.ResumenCorte, error)

	// ObtenerDetallado calcula el corte completo del período, con tablero,
	// historiales y desglose por vendedor.
	ObtenerDetallado(ctx context.Context, empresaID string, rango corte.RangoFechas) (*corte.CorteDetallado, error)
}

// CierreRepository acceso a los cierres de día persistidos (snapshots
// inmutables de un CorteDetallado para exactamente un día calendario).
type CierreRepository interface {
	// Obtener devuelve el cierre del día indicado (YYYY-MM-DD).
	// Retorna ErrCierreNoEncontrado si el día no está cerrado.
	Obtener(ctx context.Context, empresaID, fecha string) (*corte.CorteDetallado, error)

	// Existe verifica si hay un cierre persistido para la fecha.
	Existe(ctx context.Context, empresaID, fecha string) (bool, error)

	// Crear calcula el corte del día y lo persiste como cierre.
	// Si ya existe un cierre para esa fecha retorna *ErrorBackend con el
	// mensaje de negocio correspondiente.
	Crear(ctx context.Context, empresaID, fecha string) error
}
