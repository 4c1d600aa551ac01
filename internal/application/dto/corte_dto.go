package dto

// CorteRequest parámetros para GET /api/cortes.
type CorteRequest struct {
	Inicio string `query:"inicio"` // YYYY-MM-DD
	Fin    string `query:"fin"`    // YYYY-MM-DD
	Tipo   string `query:"tipo"`   // resumen | detallado (default resumen)
}

// CierreRequest cuerpo de POST /api/cortes/cierres.
type CierreRequest struct {
	Fecha string `json:"fecha"` // YYYY-MM-DD, día a cerrar
}

// ExportRequest parámetros para las descargas del corte.
type ExportRequest struct {
	Inicio string `query:"inicio"`
	Fin    string `query:"fin"`
}
