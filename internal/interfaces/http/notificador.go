package http

import "github.com/rs/zerolog"

// AvisoLogger implementación de session.Notificador que registra los avisos
// one-shot en el log estructurado. En la API los desenlaces viajan en el
// estado de la sesión; el log queda como rastro operativo.
type AvisoLogger struct {
	log zerolog.Logger
}

// NewAvisoLogger construye el notificador sobre el logger dado.
func NewAvisoLogger(log zerolog.Logger) *AvisoLogger {
	return &AvisoLogger{log: log}
}

// Exito registra un aviso de operación exitosa.
func (n *AvisoLogger) Exito(mensaje string) {
	n.log.Info().Str("aviso", mensaje).Msg("sesión: éxito")
}

// Error registra un aviso de operación fallida.
func (n *AvisoLogger) Error(mensaje string) {
	n.log.Warn().Str("aviso", mensaje).Msg("sesión: error")
}
