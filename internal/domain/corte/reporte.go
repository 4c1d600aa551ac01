package corte

import (
	"time"

	"github.com/shopspring/decimal"
)

// ── Montos por método de pago ─────────────────────────────────────────────────

// TotalesPorMetodo montos desglosados por método de pago.
type TotalesPorMetodo struct {
	Efectivo      decimal.Decimal `json:"efectivo"`
	Tarjeta       decimal.Decimal `json:"tarjeta"`
	Transferencia decimal.Decimal `json:"transferencia"`
	Total         decimal.Decimal `json:"total"`
}

// ── Reporte resumido ──────────────────────────────────────────────────────────

// VendedorResumen conteos y total vendido por vendedor (versión ligera).
type VendedorResumen struct {
	Nombre    string          `json:"nombre"`
	Ventas    int             `json:"ventas"`
	Apartados int             `json:"apartados"`
	Pedidos   int             `json:"pedidos"`
	Abonos    int             `json:"abonos"`
	Total     decimal.Decimal `json:"total"`
}

// ResumenCorte agregado plano del período: conteos por categoría de operación
// y montos por método de pago. Inmutable una vez recibido; la sesión lo
// reemplaza completo en cada consulta exitosa.
type ResumenCorte struct {
	Rango RangoFechas `json:"rango"`

	// Conteos por categoría
	Ventas        int `json:"ventas"`
	Apartados     int `json:"apartados"`
	Pedidos       int `json:"pedidos"`
	Abonos        int `json:"abonos"`
	Cancelaciones int `json:"cancelaciones"`
	Vencidos      int `json:"vencidos"`

	// Montos
	VentasActivas TotalesPorMetodo `json:"ventas_activas"` // ventas de contado del período
	Pagos         TotalesPorMetodo `json:"pagos"`          // anticipos + abonos + liquidaciones
	TotalIngresos decimal.Decimal  `json:"total_ingresos"`

	Vendedores []VendedorResumen `json:"vendedores"`
}

// ── Corte detallado ───────────────────────────────────────────────────────────

// MetricaCategoria desglose de una categoría en el tablero: efectivo, tarjeta
// (bruto/neto/operaciones) y total.
type MetricaCategoria struct {
	Efectivo     decimal.Decimal `json:"efectivo"`
	TarjetaBruto decimal.Decimal `json:"tarjeta_bruto"`
	TarjetaNeto  decimal.Decimal `json:"tarjeta_neto"` // bruto menos comisión bancaria
	TarjetaOps   int             `json:"tarjeta_ops"`
	Total        decimal.Decimal `json:"total"`
}

// MetricasTablero desglose por categoría de operación.
type MetricasTablero struct {
	Ventas    MetricaCategoria `json:"ventas"`
	Apartados MetricaCategoria `json:"apartados"`
	Pedidos   MetricaCategoria `json:"pedidos"`
	Abonos    MetricaCategoria `json:"abonos"`
}

// FilaDetalle transacción hoja dentro de un grupo del historial. No lleva
// anticipo ni saldo: esas cifras solo existen en la fila agrupadora, de modo
// que una combinación inválida no es representable.
type FilaDetalle struct {
	Folio    string          `json:"folio"`
	Cliente  string          `json:"cliente"`
	Vendedor string          `json:"vendedor"`
	Metodo   string          `json:"metodo"`
	Fecha    string          `json:"fecha"` // YYYY-MM-DD
	Monto    decimal.Decimal `json:"monto"`
}

// FilaGrupo fila agregadora del historial (un apartado, un pedido, una venta).
// Sus transacciones hoja cuelgan de Detalles en orden cronológico.
type FilaGrupo struct {
	Folio    string          `json:"folio"`
	Cliente  string          `json:"cliente"`
	Vendedor string          `json:"vendedor"`
	Metodo   string          `json:"metodo"`
	Fecha    string          `json:"fecha"`
	Monto    decimal.Decimal `json:"monto"`
	Anticipo decimal.Decimal `json:"anticipo"`
	Saldo    decimal.Decimal `json:"saldo"`
	Detalles []FilaDetalle   `json:"detalles,omitempty"`
}

// VendedorDetalle métricas extendidas por vendedor.
type VendedorDetalle struct {
	Nombre    string          `json:"nombre"`
	Ventas    int             `json:"ventas"`
	Apartados int             `json:"apartados"`
	Pedidos   int             `json:"pedidos"`
	Abonos    int             `json:"abonos"`
	Piezas    int             `json:"piezas"`
	Efectivo  decimal.Decimal `json:"efectivo"`
	Tarjeta   decimal.Decimal `json:"tarjeta"`
	Total     decimal.Decimal `json:"total"`
}

// PiezaResumen conteo y monto por tipo de pieza.
type PiezaResumen struct {
	Tipo      string          `json:"tipo"`
	Vendidas  int             `json:"vendidas"`
	Apartadas int             `json:"apartadas"`
	Total     decimal.Decimal `json:"total"`
}

// CorteDetallado superconjunto del resumen: contadores de piezas, tablero por
// categoría, métricas extendidas por vendedor e historiales a nivel
// transacción. Es también la forma que se persiste como cierre del día.
type CorteDetallado struct {
	ResumenCorte

	GeneradoEn time.Time `json:"generado_en"`

	// Costos y ganancias
	CostoMercancia decimal.Decimal `json:"costo_mercancia"`
	Ganancia       decimal.Decimal `json:"ganancia"`

	// Desglose
	AnticiposRecibidos decimal.Decimal `json:"anticipos_recibidos"`
	SaldosVencidos     decimal.Decimal `json:"saldos_vencidos"`
	Devoluciones       decimal.Decimal `json:"devoluciones"`

	// Contadores de piezas
	PiezasVendidas   int `json:"piezas_vendidas"`
	PiezasApartadas  int `json:"piezas_apartadas"`
	PiezasEntregadas int `json:"piezas_entregadas"`

	Tablero MetricasTablero `json:"tablero"`

	// Historiales en orden cronológico; cada grupo lleva sus hojas anidadas.
	HistApartados     []FilaGrupo `json:"hist_apartados"`
	HistPedidos       []FilaGrupo `json:"hist_pedidos"`
	HistAbonos        []FilaGrupo `json:"hist_abonos"`
	HistCancelaciones []FilaGrupo `json:"hist_cancelaciones"`
	HistVentas        []FilaGrupo `json:"hist_ventas"`

	Piezas            []PiezaResumen    `json:"piezas"`
	VendedoresDetalle []VendedorDetalle `json:"vendedores_detalle"`
}
