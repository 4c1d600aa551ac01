// Package pdf implementa la representación gráfica del corte de caja.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: CORTE DE CAJA  │  Rango de fechas + Generado        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN GENERAL: conteos + total de ingresos                │
//	│  COSTOS Y GANANCIAS: costo mercancía / ganancia              │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Concepto | Efectivo | Tarjeta | Transferencia | Total│
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN POR VENDEDORES                                      │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/corte-caja-api/internal/domain/corte"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoCorteGenerator genera el PDF del corte de caja usando Maroto v2.
type MarotoCorteGenerator struct{}

// NewMarotoCorteGenerator construye el generador.
func NewMarotoCorteGenerator() *MarotoCorteGenerator { return &MarotoCorteGenerator{} }

// GenerateCortePDF genera el PDF y devuelve sus bytes.
func (g *MarotoCorteGenerator) GenerateCortePDF(c *corte.CorteDetallado, rango corte.RangoFechas) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Corte de Caja", true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(c, rango))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(sectionTitle("RESUMEN GENERAL"))
	m.AddRows(resumenRows(c)...)

	m.AddRows(sectionTitle("COSTOS Y GANANCIAS"))
	m.AddRows(costosRows(c)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(sectionTitle("VENTAS ACTIVAS POR MÉTODO"))
	m.AddRows(metodosRows(c.VentasActivas)...)
	m.AddRows(sectionTitle("PAGOS POR MÉTODO"))
	m.AddRows(metodosRows(c.Pagos)...)

	if len(c.VendedoresDetalle) > 0 {
		m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
		m.AddRows(sectionTitle("RESUMEN POR VENDEDORES"))
		m.AddRows(vendedoresHeaderRow())
		for _, v := range c.VendedoresDetalle {
			m.AddRows(vendedorRow(v))
		}
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: título (izq) y rango + timestamp de generación (der).
func headerRow(c *corte.CorteDetallado, rango corte.RangoFechas) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New("CORTE DE CAJA", props.Text{
				Style: fontstyle.Bold, Size: 14, Color: colorPrimary, Top: 1,
			}),
		),
		col.New(5).Add(
			text.New(fmt.Sprintf("Del %s al %s", rango.Inicio, rango.Fin), props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 2,
			}),
			text.New("Generado: "+c.GeneradoEn.Format("2006-01-02 15:04:05"), props.Text{
				Size: 8, Align: align.Right, Top: 9, Color: colorGray,
			}),
		),
	)
}

// sectionTitle: encabezado de sección en azul.
func sectionTitle(title string) core.Row {
	return row.New(8).Add(col.New(12).Add(
		text.New(title, props.Text{
			Style: fontstyle.Bold, Size: 9, Color: colorPrimary, Top: 2,
		}),
	))
}

// resumenRows: pares etiqueta/valor del resumen general.
func resumenRows(c *corte.CorteDetallado) []core.Row {
	pares := []struct {
		label string
		value string
	}{
		{"Ventas realizadas", fmt.Sprintf("%d", c.Ventas)},
		{"Apartados creados", fmt.Sprintf("%d", c.Apartados)},
		{"Pedidos creados", fmt.Sprintf("%d", c.Pedidos)},
		{"Abonos recibidos", fmt.Sprintf("%d", c.Abonos)},
		{"Cancelaciones", fmt.Sprintf("%d", c.Cancelaciones)},
		{"Vencidos", fmt.Sprintf("%d", c.Vencidos)},
		{"Total de ingresos", moneda(c.TotalIngresos)},
	}
	rows := make([]core.Row, 0, len(pares))
	for _, p := range pares {
		rows = append(rows, labelValueRow(p.label, p.value))
	}
	return rows
}

// costosRows: costo de mercancía y ganancia.
func costosRows(c *corte.CorteDetallado) []core.Row {
	return []core.Row{
		labelValueRow("Costo de mercancía vendida", moneda(c.CostoMercancia)),
		labelValueRow("Ganancia", moneda(c.Ganancia)),
	}
}

func labelValueRow(label, value string) core.Row {
	return row.New(6).Add(
		col.New(6).Add(text.New(label, props.Text{Size: 8, Top: 1, Left: 2})),
		col.New(6).Add(text.New(value, props.Text{
			Size: 8, Align: align.Right, Top: 1, Right: 2,
		})),
	)
}

// metodosRows: fila única Efectivo | Tarjeta | Transferencia | Total.
func metodosRows(t corte.TotalesPorMetodo) []core.Row {
	h := func(label string) core.Col {
		return col.New(3).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: align.Center, Top: 1,
		}))
	}
	v := func(d decimal.Decimal) core.Col {
		return col.New(3).Add(text.New(moneda(d), props.Text{
			Size: 8, Align: align.Center, Top: 1,
		}))
	}
	return []core.Row{
		row.New(6).Add(h("Efectivo"), h("Tarjeta"), h("Transferencia"), h("Total")),
		row.New(6).Add(v(t.Efectivo), v(t.Tarjeta), v(t.Transferencia), v(t.Total)),
	}
}

// vendedoresHeaderRow: cabecera de la tabla de vendedores.
func vendedoresHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Top: 1,
		}))
	}
	return row.New(7).Add(
		h("Vendedor", 4, align.Left),
		h("Operaciones", 2, align.Center),
		h("Piezas", 2, align.Center),
		h("Efectivo", 2, align.Right),
		h("Total", 2, align.Right),
	)
}

// vendedorRow: una fila por vendedor. Las operaciones son la suma de sus
// movimientos en el período, igual que en la exportación CSV.
func vendedorRow(v corte.VendedorDetalle) core.Row {
	operaciones := v.Ventas + v.Apartados + v.Pedidos + v.Abonos
	return row.New(6).Add(
		col.New(4).Add(text.New(v.Nombre, props.Text{Size: 8, Align: align.Left, Top: 1})),
		col.New(2).Add(text.New(fmt.Sprintf("%d", operaciones), props.Text{Size: 8, Align: align.Center, Top: 1})),
		col.New(2).Add(text.New(fmt.Sprintf("%d", v.Piezas), props.Text{Size: 8, Align: align.Center, Top: 1})),
		col.New(2).Add(text.New(moneda(v.Efectivo), props.Text{Size: 8, Align: align.Right, Top: 1})),
		col.New(2).Add(text.New(moneda(v.Total), props.Text{Size: 8, Align: align.Right, Top: 1})),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func moneda(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
