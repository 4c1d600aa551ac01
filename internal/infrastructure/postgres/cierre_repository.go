package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/corte-caja-api/internal/domain/corte"
	"github.com/jhoicas/corte-caja-api/internal/domain/repository"
)

var _ repository.CierreRepository = (*CierreRepo)(nil)

// CierreRepo cierres de día persistidos. Cada cierre es el CorteDetallado de
// exactamente un día calendario, guardado como JSONB e inmutable una vez
// creado; la constraint UNIQUE (empresa_id, fecha) garantiza a lo más un
// cierre por día.
type CierreRepo struct {
	pool   *pgxpool.Pool
	cortes repository.CorteRepository
}

// NewCierreRepository construye el adaptador de cierres. Necesita el
// repositorio de cortes para calcular el corte del día al momento de cerrar.
func NewCierreRepository(pool *pgxpool.Pool, cortes repository.CorteRepository) *CierreRepo {
	return &CierreRepo{pool: pool, cortes: cortes}
}

// Obtener devuelve el cierre del día o ErrCierreNoEncontrado si no existe.
func (r *CierreRepo) Obtener(ctx context.Context, empresaID, fecha string) (*corte.CorteDetallado, error) {
	const query = `
	SELECT datos
	FROM cierres_caja
	WHERE empresa_id = $1 AND fecha = $2`

	var datos []byte
	err := r.pool.QueryRow(ctx, query, empresaID, fecha).Scan(&datos)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrCierreNoEncontrado
	}
	if err != nil {
		return nil, fmt.Errorf("cierre.Obtener: %w", err)
	}

	var det corte.CorteDetallado
	if err := json.Unmarshal(datos, &det); err != nil {
		return nil, fmt.Errorf("cierre.Obtener decodificar: %w", err)
	}
	return &det, nil
}

// Existe verifica si hay cierre para la fecha.
func (r *CierreRepo) Existe(ctx context.Context, empresaID, fecha string) (bool, error) {
	const query = `
	SELECT EXISTS (
	    SELECT 1 FROM cierres_caja WHERE empresa_id = $1 AND fecha = $2
	)`

	var existe bool
	if err := r.pool.QueryRow(ctx, query, empresaID, fecha).Scan(&existe); err != nil {
		return false, fmt.Errorf("cierre.Existe: %w", err)
	}
	return existe, nil
}

// Crear calcula el corte del día y lo persiste como cierre. Un cierre
// duplicado se reporta como *ErrorBackend con mensaje de negocio.
func (r *CierreRepo) Crear(ctx context.Context, empresaID, fecha string) error {
	rango, err := corte.NuevoRango(fecha, fecha)
	if err != nil {
		return err
	}

	det, err := r.cortes.ObtenerDetallado(ctx, empresaID, rango)
	if err != nil {
		return fmt.Errorf("cierre.Crear calcular corte: %w", err)
	}

	datos, err := json.Marshal(det)
	if err != nil {
		return fmt.Errorf("cierre.Crear codificar: %w", err)
	}

	const query = `
	INSERT INTO cierres_caja (id, empresa_id, fecha, datos, creado_en)
	VALUES ($1, $2, $3, $4, $5)`

	_, err = r.pool.Exec(ctx, query, uuid.New().String(), empresaID, fecha, datos, time.Now())
	if err != nil {
		if isUniqueViolation(err) {
			return &repository.ErrorBackend{Mensaje: "Ya existe un cierre para esta fecha"}
		}
		return fmt.Errorf("cierre.Crear: %w", err)
	}
	return nil
}
