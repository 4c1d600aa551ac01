// Package session implementa la sesión de consulta del Corte de Caja: el
// estado de selección (rango, tipo de reporte), la resolución del reporte a
// mostrar (cálculo en vivo o cierre persistido) y el flujo de cierre del día.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jhoicas/corte-caja-api/internal/domain/corte"
	"github.com/jhoicas/corte-caja-api/internal/domain/repository"
)

// Mensajes mostrados al usuario.
const (
	MsgCierreExitoso = "Día cerrado correctamente"
	MsgErrorCierre   = "No se pudo cerrar el día"
	MsgErrorReporte  = "No se pudo generar el reporte"
	MsgCierreSoloDia = "El cierre de caja aplica solo a rangos de un día"
	MsgSinCierrePara = "No existe un cierre para " // + fecha
)

// Notificador colaborador de presentación para avisos one-shot. Los errores
// del backend nunca escapan de la sesión: se traducen a estado o a un aviso.
type Notificador interface {
	Exito(mensaje string)
	Error(mensaje string)
}

// Estado instantánea del estado observable de la sesión. Resumen y Detallado
// son mutuamente excluyentes; UsandoCierre solo tiene significado cuando hay
// un Detallado presente.
type Estado struct {
	Rango         corte.RangoFechas     `json:"rango"`
	Tipo          corte.TipoReporte     `json:"tipo"`
	Cargando      bool                  `json:"cargando"`
	Cerrando      bool                  `json:"cerrando"`
	Resumen       *corte.ResumenCorte   `json:"resumen,omitempty"`
	Detallado     *corte.CorteDetallado `json:"detallado,omitempty"`
	EstadoCierre  corte.EstadoCierre    `json:"estado_cierre"`
	UsandoCierre  bool                  `json:"usando_cierre"`
	MensajeCierre string                `json:"mensaje_cierre,omitempty"`
}

// Sesion controla qué reporte corresponde mostrar para la selección actual.
//
// Todo cambio de estado pasa por un único punto de aplicación protegido por
// mutex. Cada cambio de selección incrementa una generación; las
// completaciones que llegan con una generación vieja se descartan, de modo que
// una respuesta tardía de un rango ya reemplazado no pisa el estado vigente.
type Sesion struct {
	mu  sync.Mutex
	gen uint64
	est Estado

	empresaID string
	cortes    repository.CorteRepository
	cierres   repository.CierreRepository
	notif     Notificador
	log       zerolog.Logger
}

// Nueva construye una sesión con la fecha inicial dada (normalmente hoy) y
// tipo resumen. El estado de cierre arranca en Desconocido hasta que la
// primera verificación resuelva.
func Nueva(
	empresaID string,
	hoy string,
	cortes repository.CorteRepository,
	cierres repository.CierreRepository,
	notif Notificador,
	log zerolog.Logger,
) *Sesion {
	return &Sesion{
		est: Estado{
			Rango:        corte.RangoFechas{Inicio: hoy, Fin: hoy},
			Tipo:         corte.TipoResumen,
			EstadoCierre: corte.CierreDesconocido,
		},
		empresaID: empresaID,
		cortes:    cortes,
		cierres:   cierres,
		notif:     notif,
		log:       log,
	}
}

// Estado devuelve una copia del estado observable. Los reportes referenciados
// son inmutables por contrato: se reemplazan completos, nunca se parchan.
func (s *Sesion) Estado() Estado {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.est
}

// aplicar ejecuta fn sobre el estado solo si la generación sigue vigente.
// Devuelve false si la completación era de una selección ya reemplazada.
func (s *Sesion) aplicar(gen uint64, fn func(e *Estado)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	fn(&s.est)
	return true
}

// ── Operaciones ───────────────────────────────────────────────────────────────

// GenerarReporte resuelve el reporte para la selección actual.
//
// Tipo resumen: consulta el agregado del período. Tipo detallado sobre un solo
// día: intenta primero el cierre persistido y solo si no existe calcula en
// vivo. Rangos multi-día siempre calculan en vivo. La bandera Cargando se
// limpia en todos los desenlaces.
func (s *Sesion) GenerarReporte(ctx context.Context) {
	s.mu.Lock()
	s.est.MensajeCierre = ""
	rango, tipo, gen := s.est.Rango, s.est.Tipo, s.gen
	if err := rango.Validar(); err != nil {
		s.mu.Unlock()
		s.notif.Error(err.Error())
		return
	}
	s.est.Cargando = true
	if tipo == corte.TipoDetallado {
		s.est.Resumen = nil
	}
	s.mu.Unlock()

	if tipo == corte.TipoResumen {
		s.generarResumen(ctx, gen, rango)
		return
	}
	s.generarDetallado(ctx, gen, rango)
}

func (s *Sesion) generarResumen(ctx context.Context, gen uint64, rango corte.RangoFechas) {
	res, err := s.cortes.ObtenerResumen(ctx, s.empresaID, rango)
	if err != nil {
		s.fallaConsulta(gen, err)
		return
	}
	s.aplicar(gen, func(e *Estado) {
		e.Cargando = false
		e.Resumen = res
		e.Detallado = nil
		e.UsandoCierre = false
	})
}

func (s *Sesion) generarDetallado(ctx context.Context, gen uint64, rango corte.RangoFechas) {
	if rango.EsUnDia() {
		cierre, err := s.cierres.Obtener(ctx, s.empresaID, rango.Inicio)
		if err == nil {
			// Día ya cerrado: se adopta el snapshot y no se calcula en vivo.
			s.aplicar(gen, func(e *Estado) {
				e.Cargando = false
				e.Detallado = cierre
				e.Resumen = nil
				e.UsandoCierre = true
			})
			return
		}
		if !errors.Is(err, repository.ErrCierreNoEncontrado) {
			s.log.Warn().Err(err).Str("fecha", rango.Inicio).
				Msg("consulta de cierre falló, se calcula en vivo")
		}
	}

	det, err := s.cortes.ObtenerDetallado(ctx, s.empresaID, rango)
	if err != nil {
		s.fallaConsulta(gen, err)
		return
	}
	s.aplicar(gen, func(e *Estado) {
		e.Cargando = false
		e.Detallado = det
		e.Resumen = nil
		e.UsandoCierre = false
	})
}

// fallaConsulta limpia Cargando y avisa; el reporte previo se conserva.
func (s *Sesion) fallaConsulta(gen uint64, err error) {
	s.log.Error().Err(err).Msg("generar reporte")
	if s.aplicar(gen, func(e *Estado) { e.Cargando = false }) {
		s.notif.Error(MsgErrorReporte)
	}
}

// VerificarEstadoCierre consulta si existe un cierre para la fecha de inicio.
// Corre independiente de GenerarReporte y no lo bloquea. Si la verificación
// falla, el estado queda en Desconocido: un error de consulta no se confunde
// con un día confirmado abierto.
func (s *Sesion) VerificarEstadoCierre(ctx context.Context) {
	s.mu.Lock()
	fecha, gen := s.est.Rango.Inicio, s.gen
	s.mu.Unlock()

	existe, err := s.cierres.Existe(ctx, s.empresaID, fecha)
	if err != nil {
		s.log.Warn().Err(err).Str("fecha", fecha).Msg("verificar estado de cierre")
	}
	s.aplicar(gen, func(e *Estado) {
		switch {
		case err != nil:
			e.EstadoCierre = corte.CierreDesconocido
		case existe:
			e.EstadoCierre = corte.CierreCerrado
		default:
			e.EstadoCierre = corte.CierreAbierto
		}
	})
}

// CerrarDia persiste el cierre del día seleccionado. Solo aplica a rangos de
// un día. La sesión no rechaza un cierre redundante: la respuesta del backend
// gobierna el desenlace. La bandera Cerrando se limpia en todos los casos.
func (s *Sesion) CerrarDia(ctx context.Context) {
	s.mu.Lock()
	rango := s.est.Rango
	if !rango.EsUnDia() {
		s.mu.Unlock()
		s.notif.Error(MsgCierreSoloDia)
		return
	}
	s.est.Cerrando = true
	s.est.MensajeCierre = ""
	gen := s.gen
	s.mu.Unlock()

	fecha := rango.Inicio
	if err := s.cierres.Crear(ctx, s.empresaID, fecha); err != nil {
		msg := MsgErrorCierre
		var be *repository.ErrorBackend
		if errors.As(err, &be) {
			msg = be.Mensaje
		}
		s.log.Error().Err(err).Str("fecha", fecha).Msg("cerrar día")
		if s.aplicar(gen, func(e *Estado) {
			e.Cerrando = false
			e.MensajeCierre = msg
		}) {
			s.notif.Error(msg)
		}
		return
	}

	if s.aplicar(gen, func(e *Estado) {
		e.MensajeCierre = MsgCierreExitoso
		e.EstadoCierre = corte.CierreCerrado
		e.UsandoCierre = true
	}) {
		s.notif.Exito(MsgCierreExitoso)
	}

	// Releer el cierre recién creado. Si la relectura falla el corte previo se
	// conserva; el cierre ya quedó persistido y sigue siendo exitoso.
	cierre, err := s.cierres.Obtener(ctx, s.empresaID, fecha)
	if err != nil {
		s.log.Warn().Err(err).Str("fecha", fecha).Msg("releer cierre recién creado")
	}
	s.aplicar(gen, func(e *Estado) {
		e.Cerrando = false
		if err == nil {
			e.Detallado = cierre
			e.Resumen = nil
		}
	})
}

// VerCierre consulta el cierre de la fecha de inicio bajo demanda, al margen
// de la lógica automática de GenerarReporte. Si no hay cierre se avisa y el
// estado actual queda intacto.
func (s *Sesion) VerCierre(ctx context.Context) {
	s.mu.Lock()
	fecha, gen := s.est.Rango.Inicio, s.gen
	s.mu.Unlock()

	cierre, err := s.cierres.Obtener(ctx, s.empresaID, fecha)
	if err != nil {
		s.notif.Error(MsgSinCierrePara + fecha)
		return
	}
	s.aplicar(gen, func(e *Estado) {
		e.Detallado = cierre
		e.Resumen = nil
		e.UsandoCierre = true
	})
}

// CambiarRango fija el rango seleccionado. Invalida cualquier narrativa de
// cierre previa y, si cambió la fecha de inicio, dispara la verificación del
// estado de cierre.
func (s *Sesion) CambiarRango(ctx context.Context, inicio, fin string) {
	s.mu.Lock()
	cambioInicio := inicio != s.est.Rango.Inicio
	s.gen++
	// Las operaciones en vuelo quedaron huérfanas: sus completaciones se van a
	// descartar, así que las banderas se limpian aquí.
	s.est.Cargando = false
	s.est.Cerrando = false
	s.est.Rango = corte.RangoFechas{Inicio: inicio, Fin: fin}
	s.est.MensajeCierre = ""
	if cambioInicio {
		s.est.EstadoCierre = corte.CierreDesconocido
	}
	s.mu.Unlock()

	if cambioInicio {
		s.VerificarEstadoCierre(ctx)
	}
}

// CambiarTipo fija el tipo de reporte. Al cambiar de tipo se descartan ambos
// reportes; el siguiente GenerarReporte repuebla el que corresponda.
func (s *Sesion) CambiarTipo(tipo corte.TipoReporte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.est.MensajeCierre = ""
	if tipo == s.est.Tipo {
		return
	}
	s.gen++
	s.est.Cargando = false
	s.est.Cerrando = false
	s.est.Tipo = tipo
	s.est.Resumen = nil
	s.est.Detallado = nil
	s.est.UsandoCierre = false
}
