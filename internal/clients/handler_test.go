package clients

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newTestRouter(repo Repository) http.Handler {
	r := chi.NewRouter()
	NewHandler(nil, NewService(repo)).MountRoutes(r)
	return r
}

func TestHandlerCreateAndShow(t *testing.T) {
	router := newTestRouter(newMemoryClientRepo())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/clients",
		strings.NewReader(`{"first_name":"James","last_name":"Wilson","email":"james@example.com","client_type":"employee"}`)))
	require.Equal(t, http.StatusCreated, rr.Code)

	var created Client
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
	require.Equal(t, ClientEmployee, created.ClientType)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/clients/1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"email":"james@example.com"`)
}

func TestHandlerCreateValidation(t *testing.T) {
	router := newTestRouter(newMemoryClientRepo())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/clients",
		strings.NewReader(`{"first_name":"James","last_name":"Wilson","email":"not-an-email"}`)))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "Email")
}

func TestHandlerToggleRequiresActive(t *testing.T) {
	repo := newMemoryClientRepo()
	repo.clients[1] = Client{ID: 1, Active: true}
	router := newTestRouter(repo)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPatch, "/clients/1/toggle-active", strings.NewReader(`{}`)))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPatch, "/clients/1/toggle-active", strings.NewReader(`{"active":false}`)))
	require.Equal(t, http.StatusOK, rr.Code)
	require.False(t, repo.clients[1].Active)
}

func TestHandlerNotFound(t *testing.T) {
	router := newTestRouter(newMemoryClientRepo())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/clients/5", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/clients/abc", nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerListEmptyIsArray(t *testing.T) {
	router := newTestRouter(newMemoryClientRepo())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/clients", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `[]`, rr.Body.String())
}
