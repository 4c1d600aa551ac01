package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/corte-caja-api/internal/domain/corte"
)

// Historiales del corte detallado: listas a nivel transacción en orden
// cronológico. Las filas agrupadoras llevan anticipo y saldo; sus abonos o
// partidas cuelgan anidados.

// historialConAbonos lista los registros de tabla ("apartados" o "pedidos",
// nombres fijos) creados en el período, con los abonos de cada uno anidados.
func (r *CorteRepo) historialConAbonos(
	ctx context.Context,
	tabla, origenTipo, empresaID string,
	inicio, fin time.Time,
) ([]corte.FilaGrupo, error) {
	queryGrupos := fmt.Sprintf(`
	SELECT id, folio, cliente, vendedor, COALESCE(metodo_anticipo, ''),
	       to_char(fecha, 'YYYY-MM-DD'), total, anticipo, saldo
	FROM %s
	WHERE empresa_id = $1 AND fecha BETWEEN $2 AND $3
	ORDER BY fecha, folio`, tabla)

	rows, err := r.pool.Query(ctx, queryGrupos, empresaID, inicio, fin)
	if err != nil {
		return nil, fmt.Errorf("corte.historial %s: %w", tabla, err)
	}
	defer rows.Close()

	grupos := []corte.FilaGrupo{}
	indice := map[string]int{} // id del origen -> posición en grupos
	ids := []string{}
	for rows.Next() {
		var id string
		var g corte.FilaGrupo
		if err := rows.Scan(&id, &g.Folio, &g.Cliente, &g.Vendedor, &g.Metodo,
			&g.Fecha, &g.Monto, &g.Anticipo, &g.Saldo); err != nil {
			return nil, fmt.Errorf("corte.historial %s scan: %w", tabla, err)
		}
		indice[id] = len(grupos)
		ids = append(ids, id)
		grupos = append(grupos, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("corte.historial %s rows: %w", tabla, err)
	}
	if len(grupos) == 0 {
		return grupos, nil
	}

	const queryAbonos = `
	SELECT origen_id, folio, vendedor, metodo_pago, to_char(fecha, 'YYYY-MM-DD'), monto
	FROM abonos
	WHERE empresa_id = $1 AND origen_tipo = $2 AND origen_id = ANY($3)
	ORDER BY fecha, folio`

	hijos, err := r.pool.Query(ctx, queryAbonos, empresaID, origenTipo, ids)
	if err != nil {
		return nil, fmt.Errorf("corte.historial %s abonos: %w", tabla, err)
	}
	defer hijos.Close()

	for hijos.Next() {
		var origenID string
		var d corte.FilaDetalle
		if err := hijos.Scan(&origenID, &d.Folio, &d.Vendedor, &d.Metodo, &d.Fecha, &d.Monto); err != nil {
			return nil, fmt.Errorf("corte.historial %s abonos scan: %w", tabla, err)
		}
		if i, ok := indice[origenID]; ok {
			d.Cliente = grupos[i].Cliente
			grupos[i].Detalles = append(grupos[i].Detalles, d)
		}
	}
	return grupos, hijos.Err()
}

// historialAbonos lista los apartados y pedidos que recibieron abonos dentro
// del período, aunque se hayan creado antes, con los abonos del período
// anidados.
func (r *CorteRepo) historialAbonos(
	ctx context.Context,
	empresaID string,
	inicio, fin time.Time,
) ([]corte.FilaGrupo, error) {
	const queryGrupos = `
	SELECT t.id, t.folio, t.cliente, t.vendedor, t.origen,
	       to_char(t.fecha, 'YYYY-MM-DD'), t.total, t.anticipo, t.saldo
	FROM (
	    SELECT id, folio, cliente, vendedor, 'apartado' AS origen, fecha, total, anticipo, saldo, empresa_id
	    FROM apartados
	    UNION ALL
	    SELECT id, folio, cliente, vendedor, 'pedido', fecha, total, anticipo, saldo, empresa_id
	    FROM pedidos
	) t
	WHERE t.empresa_id = $1
	  AND EXISTS (
	      SELECT 1 FROM abonos b
	      WHERE b.origen_id = t.id AND b.origen_tipo = t.origen
	        AND b.fecha BETWEEN $2 AND $3
	  )
	ORDER BY t.fecha, t.folio`

	rows, err := r.pool.Query(ctx, queryGrupos, empresaID, inicio, fin)
	if err != nil {
		return nil, fmt.Errorf("corte.historialAbonos: %w", err)
	}
	defer rows.Close()

	grupos := []corte.FilaGrupo{}
	indice := map[string]int{}
	ids := []string{}
	for rows.Next() {
		var id string
		var g corte.FilaGrupo
		if err := rows.Scan(&id, &g.Folio, &g.Cliente, &g.Vendedor, &g.Metodo,
			&g.Fecha, &g.Monto, &g.Anticipo, &g.Saldo); err != nil {
			return nil, fmt.Errorf("corte.historialAbonos scan: %w", err)
		}
		indice[id] = len(grupos)
		ids = append(ids, id)
		grupos = append(grupos, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("corte.historialAbonos rows: %w", err)
	}
	if len(grupos) == 0 {
		return grupos, nil
	}

	const queryAbonos = `
	SELECT origen_id, folio, vendedor, metodo_pago, to_char(fecha, 'YYYY-MM-DD'), monto
	FROM abonos
	WHERE empresa_id = $1 AND origen_id = ANY($2) AND fecha BETWEEN $3 AND $4
	ORDER BY fecha, folio`

	hijos, err := r.pool.Query(ctx, queryAbonos, empresaID, ids, inicio, fin)
	if err != nil {
		return nil, fmt.Errorf("corte.historialAbonos hijos: %w", err)
	}
	defer hijos.Close()

	for hijos.Next() {
		var origenID string
		var d corte.FilaDetalle
		if err := hijos.Scan(&origenID, &d.Folio, &d.Vendedor, &d.Metodo, &d.Fecha, &d.Monto); err != nil {
			return nil, fmt.Errorf("corte.historialAbonos hijos scan: %w", err)
		}
		if i, ok := indice[origenID]; ok {
			d.Cliente = grupos[i].Cliente
			grupos[i].Detalles = append(grupos[i].Detalles, d)
		}
	}
	return grupos, hijos.Err()
}

// historialBajas apartados y pedidos cancelados o vencidos en el período.
// Son filas agrupadoras sin hojas: la baja no tiene transacciones hijas.
func (r *CorteRepo) historialBajas(
	ctx context.Context,
	empresaID string,
	inicio, fin time.Time,
) ([]corte.FilaGrupo, error) {
	const query = `
	SELECT t.folio, t.cliente, t.vendedor, t.estado,
	       to_char(t.actualizado_en, 'YYYY-MM-DD'), t.total, t.anticipo, t.saldo
	FROM (
	    SELECT folio, cliente, vendedor, estado, actualizado_en, total, anticipo, saldo, empresa_id
	    FROM apartados
	    UNION ALL
	    SELECT folio, cliente, vendedor, estado, actualizado_en, total, anticipo, saldo, empresa_id
	    FROM pedidos
	) t
	WHERE t.empresa_id = $1
	  AND t.actualizado_en BETWEEN $2 AND $3
	  AND t.estado IN ('cancelado', 'vencido')
	ORDER BY t.actualizado_en, t.folio`

	rows, err := r.pool.Query(ctx, query, empresaID, inicio, fin)
	if err != nil {
		return nil, fmt.Errorf("corte.historialBajas: %w", err)
	}
	defer rows.Close()

	grupos := []corte.FilaGrupo{}
	for rows.Next() {
		var g corte.FilaGrupo
		if err := rows.Scan(&g.Folio, &g.Cliente, &g.Vendedor, &g.Metodo,
			&g.Fecha, &g.Monto, &g.Anticipo, &g.Saldo); err != nil {
			return nil, fmt.Errorf("corte.historialBajas scan: %w", err)
		}
		grupos = append(grupos, g)
	}
	return grupos, rows.Err()
}

// historialVentas ventas activas del período con sus partidas anidadas.
func (r *CorteRepo) historialVentas(
	ctx context.Context,
	empresaID string,
	inicio, fin time.Time,
) ([]corte.FilaGrupo, error) {
	const queryVentas = `
	SELECT id, folio, cliente, vendedor, metodo_pago, to_char(fecha, 'YYYY-MM-DD'), total
	FROM ventas
	WHERE empresa_id = $1 AND fecha BETWEEN $2 AND $3 AND estado = 'activa'
	ORDER BY fecha, folio`

	rows, err := r.pool.Query(ctx, queryVentas, empresaID, inicio, fin)
	if err != nil {
		return nil, fmt.Errorf("corte.historialVentas: %w", err)
	}
	defer rows.Close()

	grupos := []corte.FilaGrupo{}
	indice := map[string]int{}
	ids := []string{}
	for rows.Next() {
		var id string
		var g corte.FilaGrupo
		if err := rows.Scan(&id, &g.Folio, &g.Cliente, &g.Vendedor, &g.Metodo, &g.Fecha, &g.Monto); err != nil {
			return nil, fmt.Errorf("corte.historialVentas scan: %w", err)
		}
		indice[id] = len(grupos)
		ids = append(ids, id)
		grupos = append(grupos, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("corte.historialVentas rows: %w", err)
	}
	if len(grupos) == 0 {
		return grupos, nil
	}

	const queryPartidas = `
	SELECT d.venta_id, v.folio, d.descripcion, v.metodo_pago, to_char(v.fecha, 'YYYY-MM-DD'), d.importe
	FROM ventas_detalle d
	JOIN ventas v ON v.id = d.venta_id
	WHERE d.venta_id = ANY($1)
	ORDER BY v.fecha, v.folio, d.descripcion`

	partidas, err := r.pool.Query(ctx, queryPartidas, ids)
	if err != nil {
		return nil, fmt.Errorf("corte.historialVentas partidas: %w", err)
	}
	defer partidas.Close()

	for partidas.Next() {
		var ventaID string
		var d corte.FilaDetalle
		if err := partidas.Scan(&ventaID, &d.Folio, &d.Cliente, &d.Metodo, &d.Fecha, &d.Monto); err != nil {
			return nil, fmt.Errorf("corte.historialVentas partidas scan: %w", err)
		}
		if i, ok := indice[ventaID]; ok {
			d.Vendedor = grupos[i].Vendedor
			grupos[i].Detalles = append(grupos[i].Detalles, d)
		}
	}
	return grupos, partidas.Err()
}

// resumenPiezas conteo y monto por tipo de pieza: vendidas desde las partidas
// de venta, apartadas desde las partidas de apartado.
func (r *CorteRepo) resumenPiezas(
	ctx context.Context,
	empresaID string,
	inicio, fin time.Time,
) ([]corte.PiezaResumen, error) {
	const query = `
	SELECT
	    t.tipo_pieza,
	    COALESCE(SUM(t.cantidad) FILTER (WHERE t.origen = 'venta'),    0) AS vendidas,
	    COALESCE(SUM(t.cantidad) FILTER (WHERE t.origen = 'apartado'), 0) AS apartadas,
	    COALESCE(SUM(t.importe), 0)                                       AS total
	FROM (
	    SELECT d.tipo_pieza, d.cantidad, d.importe, 'venta' AS origen, v.empresa_id, v.fecha
	    FROM ventas_detalle d
	    JOIN ventas v ON v.id = d.venta_id AND v.estado = 'activa'
	    UNION ALL
	    SELECT d.tipo_pieza, d.cantidad, d.importe, 'apartado', a.empresa_id, a.fecha
	    FROM apartados_detalle d
	    JOIN apartados a ON a.id = d.apartado_id
	) t
	WHERE t.empresa_id = $1 AND t.fecha BETWEEN $2 AND $3
	GROUP BY t.tipo_pieza
	ORDER BY t.tipo_pieza`

	rows, err := r.pool.Query(ctx, query, empresaID, inicio, fin)
	if err != nil {
		return nil, fmt.Errorf("corte.resumenPiezas: %w", err)
	}
	defer rows.Close()

	results := []corte.PiezaResumen{}
	for rows.Next() {
		var p corte.PiezaResumen
		if err := rows.Scan(&p.Tipo, &p.Vendidas, &p.Apartadas, &p.Total); err != nil {
			return nil, fmt.Errorf("corte.resumenPiezas scan: %w", err)
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

// vendedoresDetalle métricas extendidas por vendedor para el corte detallado.
func (r *CorteRepo) vendedoresDetalle(
	ctx context.Context,
	empresaID string,
	inicio, fin time.Time,
) ([]corte.VendedorDetalle, error) {
	query := `
	SELECT
	    vendedor,
	    COUNT(*) FILTER (WHERE origen = 'venta')                    AS ventas,
	    COUNT(*) FILTER (WHERE origen = 'apartado')                 AS apartados,
	    COUNT(*) FILTER (WHERE origen = 'pedido')                   AS pedidos,
	    COUNT(*) FILTER (WHERE origen = 'abono')                    AS abonos,
	    COALESCE(SUM(piezas), 0)                                    AS piezas,
	    COALESCE(SUM(monto) FILTER (WHERE metodo = 'efectivo'), 0)  AS efectivo,
	    COALESCE(SUM(monto) FILTER (WHERE metodo = 'tarjeta'),  0)  AS tarjeta,
	    COALESCE(SUM(monto), 0)                                     AS total
	FROM (` + movimientosPorVendedor + `) t
	GROUP BY vendedor
	ORDER BY total DESC, vendedor`

	rows, err := r.pool.Query(ctx, query, empresaID, inicio, fin)
	if err != nil {
		return nil, fmt.Errorf("corte.vendedoresDetalle: %w", err)
	}
	defer rows.Close()

	results := []corte.VendedorDetalle{}
	for rows.Next() {
		var v corte.VendedorDetalle
		if err := rows.Scan(&v.Nombre, &v.Ventas, &v.Apartados, &v.Pedidos, &v.Abonos,
			&v.Piezas, &v.Efectivo, &v.Tarjeta, &v.Total); err != nil {
			return nil, fmt.Errorf("corte.vendedoresDetalle scan: %w", err)
		}
		results = append(results, v)
	}
	return results, rows.Err()
}
