package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/corte-caja-api/internal/application/auth"
	"github.com/jhoicas/corte-caja-api/internal/application/session"
	"github.com/jhoicas/corte-caja-api/internal/domain/corte"
	"github.com/jhoicas/corte-caja-api/internal/domain/entity"
	"github.com/jhoicas/corte-caja-api/internal/domain/repository"
	apphttp "github.com/jhoicas/corte-caja-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/corte-caja-api/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dobles de prueba
// ──────────────────────────────────────────────────────────────────────────────

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testEmpresaID = "00000000-0000-0000-0000-000000000002"
	testIssuer    = "corte-caja-test"
	testExpMin    = 60
)

type cortesFalso struct{}

func (f *cortesFalso) ObtenerResumen(_ context.Context, _ string, rango corte.RangoFechas) (*corte.ResumenCorte, error) {
	return &corte.ResumenCorte{
		Rango:         rango,
		Ventas:        4,
		TotalIngresos: decimal.NewFromInt(2000),
	}, nil
}

func (f *cortesFalso) ObtenerDetallado(_ context.Context, _ string, rango corte.RangoFechas) (*corte.CorteDetallado, error) {
	det := &corte.CorteDetallado{
		ResumenCorte: corte.ResumenCorte{Rango: rango, Ventas: 4},
		GeneradoEn:   time.Date(2024, 3, 15, 20, 0, 0, 0, time.UTC),
	}
	return det, nil
}

type cierresFalso struct {
	cierres  map[string]*corte.CorteDetallado
	errCrear error
}

func (f *cierresFalso) Obtener(_ context.Context, _ string, fecha string) (*corte.CorteDetallado, error) {
	c, ok := f.cierres[fecha]
	if !ok {
		return nil, repository.ErrCierreNoEncontrado
	}
	return c, nil
}

func (f *cierresFalso) Existe(_ context.Context, _ string, fecha string) (bool, error) {
	_, ok := f.cierres[fecha]
	return ok, nil
}

func (f *cierresFalso) Crear(_ context.Context, _ string, fecha string) error {
	if f.errCrear != nil {
		return f.errCrear
	}
	if _, ok := f.cierres[fecha]; ok {
		return &repository.ErrorBackend{Mensaje: "Ya existe un cierre para esta fecha"}
	}
	f.cierres[fecha] = &corte.CorteDetallado{GeneradoEn: time.Now()}
	return nil
}

type usersFalso struct {
	porEmail map[string]*entity.User
}

func (f *usersFalso) Create(u *entity.User) error {
	f.porEmail[u.Email] = u
	return nil
}

func (f *usersFalso) FindByID(id string) (*entity.User, error) {
	for _, u := range f.porEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (f *usersFalso) FindByEmail(email string) (*entity.User, error) {
	return f.porEmail[email], nil
}

type pdfFalso struct{}

func (f *pdfFalso) GenerateCortePDF(_ *corte.CorteDetallado, _ corte.RangoFechas) ([]byte, error) {
	return []byte("%PDF-1.4 fake"), nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Armado
// ──────────────────────────────────────────────────────────────────────────────

func armarApp(t *testing.T) (*fiber.App, *cierresFalso) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("secreto123"), bcrypt.MinCost)
	require.NoError(t, err)
	users := &usersFalso{porEmail: map[string]*entity.User{
		"cajero@test.mx": {
			ID:           testUserID,
			EmpresaID:    testEmpresaID,
			Email:        "cajero@test.mx",
			PasswordHash: string(hash),
			Name:         "Cajero Test",
			Role:         entity.RoleCajero,
			Status:       "active",
		},
	}}

	cortes := &cortesFalso{}
	cierres := &cierresFalso{cierres: make(map[string]*corte.CorteDetallado)}
	log := zerolog.Nop()

	almacen := session.NuevoAlmacen(func(empresaID string) *session.Sesion {
		hoy := time.Now().Format(corte.FormatoFecha)
		return session.Nueva(empresaID, hoy, cortes, cierres, apphttp.NewAvisoLogger(log), log)
	})

	authUC := auth.NewAuthUseCase(users, auth.JWTConfig{
		Secret:     testJWTSecret,
		ExpMinutes: testExpMin,
		Issuer:     testIssuer,
	})

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:    authUC,
		Almacen:   almacen,
		Cortes:    cortes,
		Cierres:   cierres,
		PDF:       &pdfFalso{},
		JWTSecret: testJWTSecret,
		Log:       log,
	})
	return app, cierres
}

func tokenConRol(t *testing.T, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, testEmpresaID, role, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

func hacer(t *testing.T, app *fiber.App, method, target, authHeader, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// ──────────────────────────────────────────────────────────────────────────────
// Auth
// ──────────────────────────────────────────────────────────────────────────────

func TestLogin_CredencialesValidas(t *testing.T) {
	app, _ := armarApp(t)
	resp := hacer(t, app, http.MethodPost, "/api/auth/login", "",
		`{"email":"cajero@test.mx","password":"secreto123"}`)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Token string `json:"token"`
		User  struct {
			EmpresaID string `json:"empresa_id"`
		} `json:"user"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body.Token)
	assert.Equal(t, testEmpresaID, body.User.EmpresaID)
}

func TestLogin_PasswordIncorrecto(t *testing.T) {
	app, _ := armarApp(t)
	resp := hacer(t, app, http.MethodPost, "/api/auth/login", "",
		`{"email":"cajero@test.mx","password":"equivocado"}`)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCortes_SinToken_Retorna401(t *testing.T) {
	app, _ := armarApp(t)
	resp := hacer(t, app, http.MethodGet, "/api/cortes", "", "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Consulta del corte
// ──────────────────────────────────────────────────────────────────────────────

func TestObtenerCorte_Resumen(t *testing.T) {
	app, _ := armarApp(t)
	resp := hacer(t, app, http.MethodGet,
		"/api/cortes?inicio=2024-03-01&fin=2024-03-15", tokenConRol(t, "cajero"), "")
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var est session.Estado
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&est))
	assert.Equal(t, corte.TipoResumen, est.Tipo)
	require.NotNil(t, est.Resumen)
	assert.Equal(t, 4, est.Resumen.Ventas)
	assert.Nil(t, est.Detallado)
	assert.False(t, est.Cargando)
}

func TestObtenerCorte_DetalladoUnDia_UsaCierre(t *testing.T) {
	app, cierres := armarApp(t)
	cierres.cierres["2024-03-10"] = &corte.CorteDetallado{
		ResumenCorte: corte.ResumenCorte{Ventas: 99},
	}

	resp := hacer(t, app, http.MethodGet,
		"/api/cortes?inicio=2024-03-10&fin=2024-03-10&tipo=detallado", tokenConRol(t, "cajero"), "")
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var est session.Estado
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&est))
	require.NotNil(t, est.Detallado)
	assert.Equal(t, 99, est.Detallado.Ventas)
	assert.True(t, est.UsandoCierre)
	assert.Equal(t, corte.CierreCerrado, est.EstadoCierre)
}

func TestObtenerCorte_RangoInvalido_Retorna400(t *testing.T) {
	app, _ := armarApp(t)
	for _, target := range []string{
		"/api/cortes?inicio=2024-03-15&fin=2024-03-01", // invertido
		"/api/cortes?inicio=15-03-2024&fin=16-03-2024", // formato incorrecto
	} {
		resp := hacer(t, app, http.MethodGet, target, tokenConRol(t, "cajero"), "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, target)
		resp.Body.Close()
	}
}

func TestObtenerCorte_TipoInvalido_Retorna400(t *testing.T) {
	app, _ := armarApp(t)
	resp := hacer(t, app, http.MethodGet,
		"/api/cortes?inicio=2024-03-01&fin=2024-03-01&tipo=grafico", tokenConRol(t, "cajero"), "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEstadoCierre(t *testing.T) {
	app, cierres := armarApp(t)

	resp := hacer(t, app, http.MethodGet,
		"/api/cortes/estado-cierre?fecha=2024-03-10", tokenConRol(t, "cajero"), "")
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	assert.Equal(t, "abierto", body["estado_cierre"])

	cierres.cierres["2024-03-10"] = &corte.CorteDetallado{}
	resp = hacer(t, app, http.MethodGet,
		"/api/cortes/estado-cierre?fecha=2024-03-10", tokenConRol(t, "cajero"), "")
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	assert.Equal(t, "cerrado", body["estado_cierre"])
}

// ──────────────────────────────────────────────────────────────────────────────
// Cierre del día
// ──────────────────────────────────────────────────────────────────────────────

func TestCerrarDia_Creado(t *testing.T) {
	app, cierres := armarApp(t)
	resp := hacer(t, app, http.MethodPost, "/api/cortes/cierres",
		tokenConRol(t, "cajero"), `{"fecha":"2024-03-10"}`)
	defer resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var est session.Estado
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&est))
	assert.Equal(t, session.MsgCierreExitoso, est.MensajeCierre)
	assert.Equal(t, corte.CierreCerrado, est.EstadoCierre)
	_, ok := cierres.cierres["2024-03-10"]
	assert.True(t, ok)
}

func TestCerrarDia_Duplicado_Retorna409(t *testing.T) {
	app, cierres := armarApp(t)
	cierres.cierres["2024-03-10"] = &corte.CorteDetallado{}

	resp := hacer(t, app, http.MethodPost, "/api/cortes/cierres",
		tokenConRol(t, "cajero"), `{"fecha":"2024-03-10"}`)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "Ya existe un cierre para esta fecha")
}

// Una falla de infraestructura no es un rechazo de negocio: responde 500,
// no 409.
func TestCerrarDia_FallaBackend_Retorna500(t *testing.T) {
	app, cierres := armarApp(t)
	cierres.errCrear = errors.New("deadline exceeded")

	resp := hacer(t, app, http.MethodPost, "/api/cortes/cierres",
		tokenConRol(t, "cajero"), `{"fecha":"2024-03-10"}`)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "INTERNAL")
	assert.Contains(t, string(body), session.MsgErrorCierre)
}

func TestCerrarDia_RolVendedor_Retorna403(t *testing.T) {
	app, _ := armarApp(t)
	resp := hacer(t, app, http.MethodPost, "/api/cortes/cierres",
		tokenConRol(t, "vendedor"), `{"fecha":"2024-03-10"}`)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestVerCierre(t *testing.T) {
	app, cierres := armarApp(t)

	resp := hacer(t, app, http.MethodGet,
		"/api/cortes/cierres/2024-03-10", tokenConRol(t, "cajero"), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	cierres.cierres["2024-03-10"] = &corte.CorteDetallado{
		ResumenCorte: corte.ResumenCorte{Ventas: 7},
	}
	resp = hacer(t, app, http.MethodGet,
		"/api/cortes/cierres/2024-03-10", tokenConRol(t, "cajero"), "")
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var det corte.CorteDetallado
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&det))
	assert.Equal(t, 7, det.Ventas)
}

// ──────────────────────────────────────────────────────────────────────────────
// Descargas
// ──────────────────────────────────────────────────────────────────────────────

func TestExportCSV_HeadersYContenido(t *testing.T) {
	app, _ := armarApp(t)
	resp := hacer(t, app, http.MethodGet,
		"/api/cortes/export.csv?inicio=2024-03-01&fin=2024-03-15", tokenConRol(t, "cajero"), "")
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "corte_caja_2024-03-01_2024-03-15.csv")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "\uFEFF"), "el CSV debe llevar BOM")
	assert.Contains(t, string(body), `"CORTE DE CAJA"`)
}

func TestExportPDF(t *testing.T) {
	app, _ := armarApp(t)
	resp := hacer(t, app, http.MethodGet,
		"/api/cortes/export.pdf?inicio=2024-03-01&fin=2024-03-01", tokenConRol(t, "cajero"), "")
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, strings.HasPrefix(string(body), "%PDF"))
}
