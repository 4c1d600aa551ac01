// Package export serializa el corte de caja a un blob de texto descargable.
// La serialización es una función pura: mismo corte, mismos bytes.
package export

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/corte-caja-api/internal/domain/corte"
)

// bom marca de orden de bytes UTF-8; Excel la necesita para detectar la
// codificación del archivo.
const bom = "\uFEFF"

var saltosDeLinea = regexp.MustCompile(`\r\n|\r|\n`)

// Filename nombre de archivo sugerido para la descarga del corte.
func Filename(rango corte.RangoFechas) string {
	return fmt.Sprintf("corte_caja_%s_%s.csv", rango.Inicio, rango.Fin)
}

// CSV serializa el corte detallado en secciones etiquetadas de orden fijo.
//
// Contrato de celda: toda celda va entre comillas dobles; las comillas
// internas se duplican y cualquier salto de línea (CR, LF o CRLF) se colapsa
// a un espacio. Las celdas se unen con comas y las filas con saltos de línea.
// La salida lleva BOM al inicio. No muta el corte ni toca red o disco.
func CSV(c *corte.CorteDetallado, rango corte.RangoFechas) []byte {
	var filas [][]string

	agregar := func(celdas ...string) {
		filas = append(filas, celdas)
	}
	seccion := func(titulo string) {
		agregar()
		agregar(titulo)
	}

	// Encabezado
	agregar("CORTE DE CAJA")
	agregar("Del", rango.Inicio, "Al", rango.Fin)
	agregar("Generado", c.GeneradoEn.Format("2006-01-02 15:04:05"))

	// Resumen general
	seccion("RESUMEN GENERAL")
	agregar("Ventas", entero(c.Ventas))
	agregar("Apartados", entero(c.Apartados))
	agregar("Pedidos", entero(c.Pedidos))
	agregar("Abonos", entero(c.Abonos))
	agregar("Cancelaciones", entero(c.Cancelaciones))
	agregar("Vencidos", entero(c.Vencidos))
	agregar("Total de ingresos", moneda(c.TotalIngresos))

	// Costos y ganancias
	seccion("COSTOS Y GANANCIAS")
	agregar("Ingresos", moneda(c.TotalIngresos))
	agregar("Costo de mercancía", moneda(c.CostoMercancia))
	agregar("Ganancia", moneda(c.Ganancia))

	// Desglose detallado
	seccion("DESGLOSE DETALLADO")
	agregar("Anticipos recibidos", moneda(c.AnticiposRecibidos))
	agregar("Ventas activas", moneda(c.VentasActivas.Total))
	agregar("Piezas vendidas", entero(c.PiezasVendidas))
	agregar("Piezas apartadas", entero(c.PiezasApartadas))
	agregar("Piezas entregadas", entero(c.PiezasEntregadas))
	agregar("Operaciones del período", entero(c.Ventas+c.Apartados+c.Pedidos+c.Abonos))
	agregar("Devoluciones", moneda(c.Devoluciones))
	agregar("Saldos vencidos", moneda(c.SaldosVencidos))

	// Tablas por método de pago
	seccion("VENTAS ACTIVAS POR MÉTODO")
	tablaMetodos(&filas, c.VentasActivas)
	seccion("PAGOS POR MÉTODO")
	tablaMetodos(&filas, c.Pagos)

	// Resumen de piezas: la sección completa se omite si no hay filas.
	if len(c.Piezas) > 0 {
		seccion("RESUMEN DE PIEZAS")
		agregar("Tipo", "Vendidas", "Apartadas", "Total")
		for _, p := range c.Piezas {
			agregar(p.Tipo, entero(p.Vendidas), entero(p.Apartadas), moneda(p.Total))
		}
	}

	// Resumen por vendedores: igual, se omite entera si está vacía.
	if len(c.VendedoresDetalle) > 0 {
		seccion("RESUMEN POR VENDEDORES")
		agregar("Vendedor", "Ventas", "Apartados", "Pedidos", "Abonos", "Piezas", "Efectivo", "Tarjeta", "Total")
		for _, v := range c.VendedoresDetalle {
			agregar(v.Nombre, entero(v.Ventas), entero(v.Apartados), entero(v.Pedidos),
				entero(v.Abonos), entero(v.Piezas), moneda(v.Efectivo), moneda(v.Tarjeta), moneda(v.Total))
		}
	}

	var b strings.Builder
	b.WriteString(bom)
	for i, fila := range filas {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j, celda := range fila {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(escapar(celda))
		}
	}
	return []byte(b.String())
}

// escapar aplica la regla de celda: saltos de línea a un espacio, comillas
// duplicadas, todo entre comillas dobles.
func escapar(celda string) string {
	celda = saltosDeLinea.ReplaceAllString(celda, " ")
	celda = strings.ReplaceAll(celda, `"`, `""`)
	return `"` + celda + `"`
}

// moneda monto con prefijo de moneda y dos decimales fijos. El valor cero de
// decimal.Decimal formatea como $0.00, así que los opcionales ausentes salen
// en cero sin caso especial.
func moneda(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func entero(n int) string {
	return strconv.Itoa(n)
}

func tablaMetodos(filas *[][]string, t corte.TotalesPorMetodo) {
	*filas = append(*filas,
		[]string{"Método", "Monto"},
		[]string{"Efectivo", moneda(t.Efectivo)},
		[]string{"Tarjeta", moneda(t.Tarjeta)},
		[]string{"Transferencia", moneda(t.Transferencia)},
		[]string{"Total", moneda(t.Total)},
	)
}
