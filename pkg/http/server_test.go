package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	applogger "PulseForge/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type itemRequest struct {
	Name string `param:"name" validate:"required,oneof=pulse macro"`
	Days int    `query:"days" default:"30" validate:"gte=1,lte=365"`
}

type testHandler struct{}

func (testHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/items/:name", func(c echo.Context) error {
		var req itemRequest
		if errs := ReadAndValidateRequest(c, &req); errs != nil {
			return BadRequestResponse(c, errs)
		}
		if req.Name == "macro" {
			return AppErrorResponse(c, NotFoundErrorf("%s not published", req.Name))
		}
		return SuccessResponse(c, req)
	})
	e.GET("/panic", func(c echo.Context) error { panic("boom") })
}

func newTestServer() *Server {
	return NewServer(applogger.Nop(), []Handler{testHandler{}}, WithRegistry(prometheus.NewRegistry()))
}

func serve(s *Server, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestServer_ValidatesAndDefaults(t *testing.T) {
	s := newTestServer()

	rec := serve(s, "/items/pulse")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":200,"message":"OK","data":{"Name":"pulse","Days":30}}`, rec.Body.String())

	rec = serve(s, "/items/other?days=900")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"name"`)
	assert.Contains(t, rec.Body.String(), `"code":"ERR_LTE"`)
	assert.Contains(t, rec.Body.String(), `"field":"days"`)
}

func TestServer_ExplicitZeroIsNotDefaulted(t *testing.T) {
	s := newTestServer()

	rec := serve(s, "/items/pulse?days=0")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"ERR_GTE"`)

	rec = serve(s, "/items/pulse?days=7")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":200,"message":"OK","data":{"Name":"pulse","Days":7}}`, rec.Body.String())
}

func TestServer_AppErrorStatus(t *testing.T) {
	rec := serve(newTestServer(), "/items/macro")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERR_NOT_FOUND")
}

func TestServer_RecoversPanics(t *testing.T) {
	rec := serve(newTestServer(), "/panic")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServer_ExposesMetrics(t *testing.T) {
	s := newTestServer()
	serve(s, "/items/pulse")

	rec := serve(s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `pulseforge_http_requests_total{class="2xx",method="GET",route="/items/:name"} 1`)
}
