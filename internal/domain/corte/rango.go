// Package corte define los objetos de valor del Corte de Caja: rangos de
// fecha, el reporte resumido, el corte detallado y el estado de cierre del día.
package corte

import (
	"errors"
	"fmt"
	"time"
)

// FormatoFecha formato calendario de todos los campos de fecha (YYYY-MM-DD).
const FormatoFecha = "2006-01-02"

// ErrRangoInvalido rango con fechas mal formadas o con inicio posterior al fin.
var ErrRangoInvalido = errors.New("rango de fechas inválido")

// RangoFechas período consultado. Inicio == Fin representa un solo día.
type RangoFechas struct {
	Inicio string `json:"inicio"` // YYYY-MM-DD
	Fin    string `json:"fin"`    // YYYY-MM-DD
}

// NuevoRango construye y valida un rango.
func NuevoRango(inicio, fin string) (RangoFechas, error) {
	r := RangoFechas{Inicio: inicio, Fin: fin}
	if err := r.Validar(); err != nil {
		return RangoFechas{}, err
	}
	return r, nil
}

// Validar verifica que ambas fechas sean calendario válido y que Inicio <= Fin.
// Un rango invertido se rechaza aquí, antes de tocar el backend.
func (r RangoFechas) Validar() error {
	ini, err := time.Parse(FormatoFecha, r.Inicio)
	if err != nil {
		return fmt.Errorf("%w: fecha de inicio %q", ErrRangoInvalido, r.Inicio)
	}
	fin, err := time.Parse(FormatoFecha, r.Fin)
	if err != nil {
		return fmt.Errorf("%w: fecha de fin %q", ErrRangoInvalido, r.Fin)
	}
	if ini.After(fin) {
		return fmt.Errorf("%w: inicio %s posterior a fin %s", ErrRangoInvalido, r.Inicio, r.Fin)
	}
	return nil
}

// EsUnDia true si el rango cubre exactamente un día calendario.
func (r RangoFechas) EsUnDia() bool {
	return r.Inicio == r.Fin
}

// Fechas devuelve los límites del rango como time.Time: inicio a las 00:00:00
// y fin a las 23:59:59.999999999 (rango inclusivo para BETWEEN en SQL).
func (r RangoFechas) Fechas() (inicio, fin time.Time, err error) {
	inicio, err = time.Parse(FormatoFecha, r.Inicio)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %v", ErrRangoInvalido, err)
	}
	fin, err = time.Parse(FormatoFecha, r.Fin)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %v", ErrRangoInvalido, err)
	}
	fin = fin.Add(24*time.Hour - time.Nanosecond)
	return inicio, fin, nil
}
