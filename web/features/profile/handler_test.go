package profile

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tgwallet/apiclient"
	"tgwallet/models"
	"tgwallet/service"
	"tgwallet/web/session"
)

func serveMe(t *testing.T, users *service.MockUserService) map[string]any {
	t.Helper()
	router := mux.NewRouter()
	New(users).Register(router)
	sess := session.NewRegistry(session.RegistryConfig{}).Get("token")

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req = req.WithContext(session.WithSession(req.Context(), sess))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestMe(t *testing.T) {
	users := new(service.MockUserService)
	users.On("GetUser", mock.Anything).Return(&models.User{TelegramID: 1, FirstName: "Anna", LastName: "K"}, nil)

	resp := serveMe(t, users)

	data := resp["data"].(map[string]any)
	assert.Equal(t, "Anna K", data["display_name"])
	assert.EqualValues(t, 1, data["telegram_id"])
}

func TestMe_BackendDetail(t *testing.T) {
	users := new(service.MockUserService)
	users.On("GetUser", mock.Anything).Return(nil, &apiclient.HTTPStatusError{StatusCode: 401, Detail: "Invalid token"})

	resp := serveMe(t, users)

	assert.Equal(t, "error", resp["status"])
	assert.Equal(t, "Invalid token", resp["error"])
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Anna", displayName(&models.User{FirstName: "Anna"}))
	assert.Equal(t, "@anna", displayName(&models.User{Username: "anna"}))
	assert.Equal(t, "", displayName(&models.User{}))
}
