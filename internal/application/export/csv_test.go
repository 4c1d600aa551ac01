package export_test

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/corte-caja-api/internal/application/export"
	"github.com/jhoicas/corte-caja-api/internal/domain/corte"
)

const bom = "\uFEFF"

func dinero(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func rangoDePrueba(t *testing.T) corte.RangoFechas {
	t.Helper()
	r, err := corte.NuevoRango("2024-03-01", "2024-03-01")
	require.NoError(t, err)
	return r
}

func corteDePrueba() *corte.CorteDetallado {
	c := &corte.CorteDetallado{
		GeneradoEn: time.Date(2024, 3, 1, 21, 30, 0, 0, time.UTC),
	}
	c.Ventas = 3
	c.Apartados = 1
	c.Abonos = 2
	c.TotalIngresos = dinero("1250.50")
	c.CostoMercancia = dinero("400")
	c.Ganancia = dinero("850.50")
	c.VentasActivas = corte.TotalesPorMetodo{
		Efectivo: dinero("1000"),
		Tarjeta:  dinero("250.50"),
		Total:    dinero("1250.50"),
	}
	return c
}

func lineas(salida []byte) []string {
	return strings.Split(string(salida), "\n")
}

func TestCSV_EmpiezaConBOM(t *testing.T) {
	salida := export.CSV(corteDePrueba(), rangoDePrueba(t))
	assert.True(t, strings.HasPrefix(string(salida), bom),
		"la salida debe llevar BOM UTF-8 al inicio")
}

func TestCSV_EncabezadoYOrdenDeSecciones(t *testing.T) {
	salida := lineas(export.CSV(corteDePrueba(), rangoDePrueba(t)))

	assert.Equal(t, bom+`"CORTE DE CAJA"`, salida[0])
	assert.Equal(t, `"Del","2024-03-01","Al","2024-03-01"`, salida[1])
	assert.Equal(t, `"Generado","2024-03-01 21:30:00"`, salida[2])

	// Las secciones aparecen en orden fijo.
	texto := strings.Join(salida, "\n")
	iResumen := strings.Index(texto, `"RESUMEN GENERAL"`)
	iCostos := strings.Index(texto, `"COSTOS Y GANANCIAS"`)
	iDesglose := strings.Index(texto, `"DESGLOSE DETALLADO"`)
	iVentas := strings.Index(texto, `"VENTAS ACTIVAS POR MÉTODO"`)
	iPagos := strings.Index(texto, `"PAGOS POR MÉTODO"`)
	require.True(t, iResumen > 0 && iCostos > iResumen && iDesglose > iCostos &&
		iVentas > iDesglose && iPagos > iVentas,
		"orden de secciones: %s", texto)
}

// Regla de celda: comillas internas duplicadas, saltos de línea colapsados a
// un espacio, todo entre comillas dobles.
func TestCSV_EscapaCeldas(t *testing.T) {
	c := corteDePrueba()
	c.VendedoresDetalle = []corte.VendedorDetalle{
		{Nombre: "He said \"hi\"\nBye", Ventas: 1},
	}
	salida := string(export.CSV(c, rangoDePrueba(t)))
	assert.Contains(t, salida, `"He said ""hi"" Bye"`)

	c.VendedoresDetalle[0].Nombre = "línea\r\notra\rmás"
	salida = string(export.CSV(c, rangoDePrueba(t)))
	assert.Contains(t, salida, `"línea otra más"`,
		"CR, LF y CRLF colapsan cada uno a un solo espacio")
}

func TestCSV_TodaCeldaVaEntreComillas(t *testing.T) {
	salida := lineas(export.CSV(corteDePrueba(), rangoDePrueba(t)))
	for i, fila := range salida {
		fila = strings.TrimPrefix(fila, bom)
		if fila == "" {
			continue // separador de sección
		}
		for _, celda := range strings.Split(fila, `",`) {
			celda = strings.TrimSuffix(celda, `"`)
			assert.True(t, strings.HasPrefix(celda, `"`) || celda == "",
				"fila %d: celda sin comillas: %q", i, fila)
		}
	}
}

func TestCSV_MontosConFormatoFijo(t *testing.T) {
	salida := string(export.CSV(corteDePrueba(), rangoDePrueba(t)))
	assert.Contains(t, salida, `"Total de ingresos","$1250.50"`)
	assert.Contains(t, salida, `"Ganancia","$850.50"`)
	// Los decimales ausentes salen en cero, no en blanco.
	assert.Contains(t, salida, `"Devoluciones","$0.00"`)
}

func TestCSV_SeccionesOpcionalesSeOmiten(t *testing.T) {
	c := corteDePrueba()
	salida := string(export.CSV(c, rangoDePrueba(t)))
	assert.NotContains(t, salida, "RESUMEN DE PIEZAS")
	assert.NotContains(t, salida, "RESUMEN POR VENDEDORES")

	c.Piezas = []corte.PiezaResumen{{Tipo: "anillo", Vendidas: 2, Total: dinero("500")}}
	c.VendedoresDetalle = []corte.VendedorDetalle{{Nombre: "Ana", Ventas: 2, Total: dinero("500")}}
	salida = string(export.CSV(c, rangoDePrueba(t)))
	assert.Contains(t, salida, `"RESUMEN DE PIEZAS"`)
	assert.Contains(t, salida, `"anillo","2","0","$500.00"`)
	assert.Contains(t, salida, `"RESUMEN POR VENDEDORES"`)
}

// Misma entrada, mismos bytes: la serialización no depende de estado externo.
func TestCSV_Determinista(t *testing.T) {
	c := corteDePrueba()
	c.VendedoresDetalle = []corte.VendedorDetalle{{Nombre: "Ana"}, {Nombre: "Luis"}}
	r := rangoDePrueba(t)

	primera := export.CSV(c, r)
	segunda := export.CSV(c, r)
	assert.Equal(t, primera, segunda)
}

func TestFilename(t *testing.T) {
	r, err := corte.NuevoRango("2024-03-01", "2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, "corte_caja_2024-03-01_2024-03-15.csv", export.Filename(r))
}
