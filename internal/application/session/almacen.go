package session

import "sync"

// Almacen mantiene una sesión viva por empresa. Las sesiones se crean bajo
// demanda con la fábrica inyectada y sobreviven entre peticiones HTTP.
type Almacen struct {
	mu       sync.Mutex
	sesiones map[string]*Sesion
	fabrica  func(empresaID string) *Sesion
}

// NuevoAlmacen construye el almacén con la fábrica de sesiones dada.
func NuevoAlmacen(fabrica func(empresaID string) *Sesion) *Almacen {
	return &Almacen{
		sesiones: make(map[string]*Sesion),
		fabrica:  fabrica,
	}
}

// Obtener devuelve la sesión de la empresa, creándola si no existe.
func (a *Almacen) Obtener(empresaID string) *Sesion {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.sesiones[empresaID]
	if !ok {
		s = a.fabrica(empresaID)
		a.sesiones[empresaID] = s
	}
	return s
}
