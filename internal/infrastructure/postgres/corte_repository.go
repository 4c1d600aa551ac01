package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/corte-caja-api/internal/domain/corte"
	"github.com/jhoicas/corte-caja-api/internal/domain/repository"
)

var _ repository.CorteRepository = (*CorteRepo)(nil)

// comisionTarjetaPct comisión bancaria aplicada a cobros con tarjeta. El neto
// del tablero descuenta este porcentaje del bruto.
var comisionTarjetaPct = decimal.NewFromFloat(3.6)

var cien = decimal.NewFromInt(100)

// CorteRepo cálculo en vivo del corte de caja. Consultas de solo lectura sobre
// ventas, apartados, pedidos y abonos.
type CorteRepo struct {
	pool *pgxpool.Pool
}

// NewCorteRepository construye el adaptador de cortes.
func NewCorteRepository(pool *pgxpool.Pool) *CorteRepo {
	return &CorteRepo{pool: pool}
}

// ── Resumen ───────────────────────────────────────────────────────────────────

// ObtenerResumen calcula el agregado plano del período: conteos por categoría,
// montos por método de pago y desglose ligero por vendedor.
func (r *CorteRepo) ObtenerResumen(
	ctx context.Context,
	empresaID string,
	rango corte.RangoFechas,
) (*corte.ResumenCorte, error) {
	inicio, fin, err := rango.Fechas()
	if err != nil {
		return nil, err
	}

	res := &corte.ResumenCorte{Rango: rango}

	ventas, err := r.ventasActivas(ctx, empresaID, inicio, fin)
	if err != nil {
		return nil, err
	}
	res.Ventas = ventas.ops
	res.VentasActivas = ventas.metodos

	abonos, err := r.pagosPorMetodo(ctx, empresaID, inicio, fin)
	if err != nil {
		return nil, err
	}
	res.Abonos = abonos.ops
	res.Pagos = abonos.metodos

	if res.Apartados, err = r.contarCreados(ctx, "apartados", empresaID, inicio, fin); err != nil {
		return nil, err
	}
	if res.Pedidos, err = r.contarCreados(ctx, "pedidos", empresaID, inicio, fin); err != nil {
		return nil, err
	}

	cancelados, vencidos, _, err := r.bajas(ctx, empresaID, inicio, fin)
	if err != nil {
		return nil, err
	}
	res.Cancelaciones = cancelados
	res.Vencidos = vencidos

	res.TotalIngresos = res.VentasActivas.Total.Add(res.Pagos.Total).Round(2)

	if res.Vendedores, err = r.vendedoresResumen(ctx, empresaID, inicio, fin); err != nil {
		return nil, err
	}
	return res, nil
}

// metodosResult montos por método más el conteo de operaciones de la categoría.
type metodosResult struct {
	ops        int
	tarjetaOps int
	costo      decimal.Decimal
	piezas     int
	metodos    corte.TotalesPorMetodo
}

// ventasActivas agrega las ventas de contado no canceladas del período.
func (r *CorteRepo) ventasActivas(
	ctx context.Context,
	empresaID string,
	inicio, fin time.Time,
) (metodosResult, error) {
	const query = `
	SELECT
	    COUNT(*)                                                                  AS ops,
	    COUNT(*)             FILTER (WHERE metodo_pago = 'tarjeta')               AS tarjeta_ops,
	    COALESCE(SUM(total)  FILTER (WHERE metodo_pago = 'efectivo'),      0)     AS efectivo,
	    COALESCE(SUM(total)  FILTER (WHERE metodo_pago = 'tarjeta'),       0)     AS tarjeta,
	    COALESCE(SUM(total)  FILTER (WHERE metodo_pago = 'transferencia'), 0)     AS transferencia,
	    COALESCE(SUM(total),  0)                                                  AS total,
	    COALESCE(SUM(costo),  0)                                                  AS costo,
	    COALESCE(SUM(piezas), 0)                                                  AS piezas
	FROM ventas
	WHERE empresa_id = $1
	  AND fecha BETWEEN $2 AND $3
	  AND estado = 'activa'`

	var m metodosResult
	err := r.pool.QueryRow(ctx, query, empresaID, inicio, fin).Scan(
		&m.ops, &m.tarjetaOps,
		&m.metodos.Efectivo, &m.metodos.Tarjeta, &m.metodos.Transferencia,
		&m.metodos.Total, &m.costo, &m.piezas,
	)
	if err != nil {
		return metodosResult{}, fmt.Errorf("corte.ventasActivas: %w", err)
	}
	return m, nil
}

// pagosPorMetodo agrega anticipos, abonos y liquidaciones del período.
func (r *CorteRepo) pagosPorMetodo(
	ctx context.Context,
	empresaID string,
	inicio, fin time.Time,
) (metodosResult, error) {
	const query = `
	SELECT
	    COUNT(*)                                                                  AS ops,
	    COUNT(*)             FILTER (WHERE metodo_pago = 'tarjeta')               AS tarjeta_ops,
	    COALESCE(SUM(monto)  FILTER (WHERE metodo_pago = 'efectivo'),      0)     AS efectivo,
	    COALESCE(SUM(monto)  FILTER (WHERE metodo_pago = 'tarjeta'),       0)     AS tarjeta,
	    COALESCE(SUM(monto)  FILTER (WHERE metodo_pago = 'transferencia'), 0)     AS transferencia,
	    COALESCE(SUM(monto),  0)                                                  AS total
	FROM abonos
	WHERE empresa_id = $1
	  AND fecha BETWEEN $2 AND $3`

	var m metodosResult
	err := r.pool.QueryRow(ctx, query, empresaID, inicio, fin).Scan(
		&m.ops, &m.tarjetaOps,
		&m.metodos.Efectivo, &m.metodos.Tarjeta, &m.metodos.Transferencia,
		&m.metodos.Total,
	)
	if err != nil {
		return metodosResult{}, fmt.Errorf("corte.pagosPorMetodo: %w", err)
	}
	return m, nil
}

// contarCreados cuenta los registros creados en el período. tabla es uno de
// los nombres fijos "apartados" o "pedidos", nunca entrada del usuario.
func (r *CorteRepo) contarCreados(
	ctx context.Context,
	tabla, empresaID string,
	inicio, fin time.Time,
) (int, error) {
	query := fmt.Sprintf(
		`SELECT COUNT(*) FROM %s WHERE empresa_id = $1 AND fecha BETWEEN $2 AND $3`, tabla)

	var n int
	if err := r.pool.QueryRow(ctx, query, empresaID, inicio, fin).Scan(&n); err != nil {
		return 0, fmt.Errorf("corte.contarCreados %s: %w", tabla, err)
	}
	return n, nil
}

// bajas cuenta cancelaciones y vencimientos de apartados y pedidos del
// período, y suma los saldos que quedaron vencidos.
func (r *CorteRepo) bajas(
	ctx context.Context,
	empresaID string,
	inicio, fin time.Time,
) (cancelados, vencidos int, saldosVencidos decimal.Decimal, err error) {
	const query = `
	SELECT
	    COUNT(*)            FILTER (WHERE estado = 'cancelado')      AS cancelados,
	    COUNT(*)            FILTER (WHERE estado = 'vencido')        AS vencidos,
	    COALESCE(SUM(saldo) FILTER (WHERE estado = 'vencido'), 0)    AS saldos_vencidos
	FROM (
	    SELECT estado, saldo, actualizado_en, empresa_id FROM apartados
	    UNION ALL
	    SELECT estado, saldo, actualizado_en, empresa_id FROM pedidos
	) t
	WHERE t.empresa_id = $1
	  AND t.actualizado_en BETWEEN $2 AND $3
	  AND t.estado IN ('cancelado', 'vencido')`

	err = r.pool.QueryRow(ctx, query, empresaID, inicio, fin).
		Scan(&cancelados, &vencidos, &saldosVencidos)
	if err != nil {
		return 0, 0, decimal.Zero, fmt.Errorf("corte.bajas: %w", err)
	}
	return cancelados, vencidos, saldosVencidos, nil
}

// movimientosPorVendedor consolida ventas, anticipos y abonos en una sola
// subconsulta para agrupar por vendedor.
const movimientosPorVendedor = `
	SELECT vendedor, 'venta' AS origen, metodo_pago AS metodo, total AS monto, piezas
	FROM ventas
	WHERE empresa_id = $1 AND fecha BETWEEN $2 AND $3 AND estado = 'activa'
	UNION ALL
	SELECT vendedor, 'apartado', metodo_anticipo, anticipo, piezas
	FROM apartados
	WHERE empresa_id = $1 AND fecha BETWEEN $2 AND $3
	UNION ALL
	SELECT vendedor, 'pedido', metodo_anticipo, anticipo, piezas
	FROM pedidos
	WHERE empresa_id = $1 AND fecha BETWEEN $2 AND $3
	UNION ALL
	SELECT vendedor, 'abono', metodo_pago, monto, 0
	FROM abonos
	WHERE empresa_id = $1 AND fecha BETWEEN $2 AND $3`

func (r *CorteRepo) vendedoresResumen(
	ctx context.Context,
	empresaID string,
	inicio, fin time.Time,
) ([]corte.VendedorResumen, error) {
	query := `
	SELECT
	    vendedor,
	    COUNT(*) FILTER (WHERE origen = 'venta')    AS ventas,
	    COUNT(*) FILTER (WHERE origen = 'apartado') AS apartados,
	    COUNT(*) FILTER (WHERE origen = 'pedido')   AS pedidos,
	    COUNT(*) FILTER (WHERE origen = 'abono')    AS abonos,
	    COALESCE(SUM(monto), 0)                     AS total
	FROM (` + movimientosPorVendedor + `) t
	GROUP BY vendedor
	ORDER BY total DESC, vendedor`

	rows, err := r.pool.Query(ctx, query, empresaID, inicio, fin)
	if err != nil {
		return nil, fmt.Errorf("corte.vendedoresResumen: %w", err)
	}
	defer rows.Close()

	results := []corte.VendedorResumen{}
	for rows.Next() {
		var v corte.VendedorResumen
		if err := rows.Scan(&v.Nombre, &v.Ventas, &v.Apartados, &v.Pedidos, &v.Abonos, &v.Total); err != nil {
			return nil, fmt.Errorf("corte.vendedoresResumen scan: %w", err)
		}
		results = append(results, v)
	}
	return results, rows.Err()
}

// ── Corte detallado ───────────────────────────────────────────────────────────

// ObtenerDetallado calcula el corte completo del período.
func (r *CorteRepo) ObtenerDetallado(
	ctx context.Context,
	empresaID string,
	rango corte.RangoFechas,
) (*corte.CorteDetallado, error) {
	inicio, fin, err := rango.Fechas()
	if err != nil {
		return nil, err
	}

	resumen, err := r.ObtenerResumen(ctx, empresaID, rango)
	if err != nil {
		return nil, err
	}

	det := &corte.CorteDetallado{
		ResumenCorte: *resumen,
		GeneradoEn:   time.Now(),
	}

	ventas, err := r.ventasActivas(ctx, empresaID, inicio, fin)
	if err != nil {
		return nil, err
	}
	abonos, err := r.pagosPorMetodo(ctx, empresaID, inicio, fin)
	if err != nil {
		return nil, err
	}

	det.CostoMercancia = ventas.costo.Round(2)
	det.Ganancia = ventas.metodos.Total.Sub(ventas.costo).Round(2)
	det.PiezasVendidas = ventas.piezas

	if det.PiezasApartadas, err = r.piezasApartadas(ctx, empresaID, inicio, fin); err != nil {
		return nil, err
	}
	if det.PiezasEntregadas, err = r.piezasEntregadas(ctx, empresaID, inicio, fin); err != nil {
		return nil, err
	}

	anticipos, metodosApartados, metodosPedidos, err := r.anticipos(ctx, empresaID, inicio, fin)
	if err != nil {
		return nil, err
	}
	det.AnticiposRecibidos = anticipos.Round(2)

	_, _, saldosVencidos, err := r.bajas(ctx, empresaID, inicio, fin)
	if err != nil {
		return nil, err
	}
	det.SaldosVencidos = saldosVencidos.Round(2)

	if det.Devoluciones, err = r.devoluciones(ctx, empresaID, inicio, fin); err != nil {
		return nil, err
	}

	det.Tablero = corte.MetricasTablero{
		Ventas:    metrica(ventas),
		Apartados: metodosApartados,
		Pedidos:   metodosPedidos,
		Abonos:    metrica(abonos),
	}

	if det.HistApartados, err = r.historialConAbonos(ctx, "apartados", "apartado", empresaID, inicio, fin); err != nil {
		return nil, err
	}
	if det.HistPedidos, err = r.historialConAbonos(ctx, "pedidos", "pedido", empresaID, inicio, fin); err != nil {
		return nil, err
	}
	if det.HistAbonos, err = r.historialAbonos(ctx, empresaID, inicio, fin); err != nil {
		return nil, err
	}
	if det.HistCancelaciones, err = r.historialBajas(ctx, empresaID, inicio, fin); err != nil {
		return nil, err
	}
	if det.HistVentas, err = r.historialVentas(ctx, empresaID, inicio, fin); err != nil {
		return nil, err
	}
	if det.Piezas, err = r.resumenPiezas(ctx, empresaID, inicio, fin); err != nil {
		return nil, err
	}
	if det.VendedoresDetalle, err = r.vendedoresDetalle(ctx, empresaID, inicio, fin); err != nil {
		return nil, err
	}
	return det, nil
}

// metrica traduce un agregado por método a la métrica del tablero, con el
// neto de tarjeta descontando la comisión bancaria.
func metrica(m metodosResult) corte.MetricaCategoria {
	neto := m.metodos.Tarjeta.
		Mul(cien.Sub(comisionTarjetaPct)).
		Div(cien).
		Round(2)
	return corte.MetricaCategoria{
		Efectivo:     m.metodos.Efectivo.Round(2),
		TarjetaBruto: m.metodos.Tarjeta.Round(2),
		TarjetaNeto:  neto,
		TarjetaOps:   m.tarjetaOps,
		Total:        m.metodos.Total.Round(2),
	}
}

// anticipos suma los anticipos del período y arma la métrica por método de
// apartados y pedidos para el tablero.
func (r *CorteRepo) anticipos(
	ctx context.Context,
	empresaID string,
	inicio, fin time.Time,
) (total decimal.Decimal, apartados, pedidos corte.MetricaCategoria, err error) {
	const query = `
	SELECT
	    t.origen,
	    COUNT(*)              FILTER (WHERE t.metodo = 'tarjeta')           AS tarjeta_ops,
	    COALESCE(SUM(t.anticipo) FILTER (WHERE t.metodo = 'efectivo'), 0)   AS efectivo,
	    COALESCE(SUM(t.anticipo) FILTER (WHERE t.metodo = 'tarjeta'),  0)   AS tarjeta,
	    COALESCE(SUM(t.anticipo), 0)                                        AS total
	FROM (
	    SELECT 'apartado' AS origen, metodo_anticipo AS metodo, anticipo, empresa_id, fecha FROM apartados
	    UNION ALL
	    SELECT 'pedido', metodo_anticipo, anticipo, empresa_id, fecha FROM pedidos
	) t
	WHERE t.empresa_id = $1 AND t.fecha BETWEEN $2 AND $3
	GROUP BY t.origen`

	rows, err := r.pool.Query(ctx, query, empresaID, inicio, fin)
	if err != nil {
		return decimal.Zero, apartados, pedidos, fmt.Errorf("corte.anticipos: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var origen string
		var m corte.MetricaCategoria
		if err := rows.Scan(&origen, &m.TarjetaOps, &m.Efectivo, &m.TarjetaBruto, &m.Total); err != nil {
			return decimal.Zero, apartados, pedidos, fmt.Errorf("corte.anticipos scan: %w", err)
		}
		m.TarjetaNeto = m.TarjetaBruto.Mul(cien.Sub(comisionTarjetaPct)).Div(cien).Round(2)
		total = total.Add(m.Total)
		if origen == "apartado" {
			apartados = m
		} else {
			pedidos = m
		}
	}
	return total, apartados, pedidos, rows.Err()
}

func (r *CorteRepo) piezasApartadas(ctx context.Context, empresaID string, inicio, fin time.Time) (int, error) {
	const query = `
	SELECT COALESCE(SUM(piezas), 0)
	FROM (
	    SELECT piezas, empresa_id, fecha FROM apartados
	    UNION ALL
	    SELECT piezas, empresa_id, fecha FROM pedidos
	) t
	WHERE t.empresa_id = $1 AND t.fecha BETWEEN $2 AND $3`

	var n int
	if err := r.pool.QueryRow(ctx, query, empresaID, inicio, fin).Scan(&n); err != nil {
		return 0, fmt.Errorf("corte.piezasApartadas: %w", err)
	}
	return n, nil
}

// piezasEntregadas piezas de apartados y pedidos liquidados en el período.
func (r *CorteRepo) piezasEntregadas(ctx context.Context, empresaID string, inicio, fin time.Time) (int, error) {
	const query = `
	SELECT COALESCE(SUM(piezas), 0)
	FROM (
	    SELECT piezas, empresa_id, estado, actualizado_en FROM apartados
	    UNION ALL
	    SELECT piezas, empresa_id, estado, actualizado_en FROM pedidos
	) t
	WHERE t.empresa_id = $1
	  AND t.actualizado_en BETWEEN $2 AND $3
	  AND t.estado = 'liquidado'`

	var n int
	if err := r.pool.QueryRow(ctx, query, empresaID, inicio, fin).Scan(&n); err != nil {
		return 0, fmt.Errorf("corte.piezasEntregadas: %w", err)
	}
	return n, nil
}

func (r *CorteRepo) devoluciones(ctx context.Context, empresaID string, inicio, fin time.Time) (decimal.Decimal, error) {
	const query = `
	SELECT COALESCE(SUM(total), 0)
	FROM ventas
	WHERE empresa_id = $1
	  AND actualizado_en BETWEEN $2 AND $3
	  AND estado = 'devuelta'`

	var total decimal.Decimal
	if err := r.pool.QueryRow(ctx, query, empresaID, inicio, fin).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("corte.devoluciones: %w", err)
	}
	return total.Round(2), nil
}
