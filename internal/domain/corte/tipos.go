package corte

// TipoReporte selecciona la forma del reporte a consultar.
type TipoReporte string

// Tipos de reporte válidos.
const (
	TipoResumen   TipoReporte = "resumen"
	TipoDetallado TipoReporte = "detallado"
)

// EsValido true si el tipo es uno de los conocidos.
func (t TipoReporte) EsValido() bool {
	return t == TipoResumen || t == TipoDetallado
}

// EstadoCierre tri-estado del cierre del día consultado.
//
// CierreDesconocido es el estado inicial y también el resultado de una
// verificación fallida: un error de consulta no se confunde con un día
// confirmado como abierto.
type EstadoCierre string

const (
	CierreDesconocido EstadoCierre = "desconocido"
	CierreAbierto     EstadoCierre = "abierto"
	CierreCerrado     EstadoCierre = "cerrado"
)
