package admin

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tgwallet/models"
	"tgwallet/service"
	"tgwallet/web/common"
	"tgwallet/web/session"
)

func setup(t *testing.T) (*mux.Router, *service.MockUserService, *session.Session) {
	t.Helper()
	users := new(service.MockUserService)
	router := mux.NewRouter()
	New(users).Register(router)
	return router, users, session.NewRegistry(session.RegistryConfig{}).Get("admin-token")
}

func get(router *mux.Router, sess *session.Session, path string) common.ViewResponse {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req = req.WithContext(session.WithSession(req.Context(), sess))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp common.ViewResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return resp
}

func TestFindByID_Found(t *testing.T) {
	router, users, sess := setup(t)
	users.On("FindUserByID", mock.Anything, int64(42)).Return(&models.User{TelegramID: 42, Username: "bob"}, nil).Once()

	resp := get(router, sess, "/api/admin/users?q=42")

	assert.Equal(t, "success", string(resp.Status))
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "bob", data["username"])

	// Same input is cached
	get(router, sess, "/api/admin/users?q=42")
	users.AssertNumberOfCalls(t, "FindUserByID", 1)
}

func TestFindByID_InvalidInputMakesNoRequest(t *testing.T) {
	router, users, sess := setup(t)

	for _, q := range []string{"abc", "1.5", "-3", "NaN"} {
		resp := get(router, sess, "/api/admin/users?q="+q)
		assert.Equal(t, "idle", string(resp.Status), q)
		assert.Equal(t, MessageUserNotFound, resp.Error, q)
	}

	resp := get(router, sess, "/api/admin/users")
	assert.Equal(t, "idle", string(resp.Status))
	assert.Empty(t, resp.Error)

	users.AssertNotCalled(t, "FindUserByID", mock.Anything, mock.Anything)
}

func TestFindByID_ErrorShowsNotFound(t *testing.T) {
	router, users, sess := setup(t)
	users.On("FindUserByID", mock.Anything, int64(7)).Return(nil, errors.New("request failed with status 404"))

	resp := get(router, sess, "/api/admin/users?q=7")

	assert.Equal(t, "error", string(resp.Status))
	assert.Equal(t, MessageUserNotFound, resp.Error)
	assert.Nil(t, resp.Data)
}

func TestFindByUsername(t *testing.T) {
	router, users, sess := setup(t)
	users.On("FindUserByUsername", mock.Anything, "alice").Return(&models.User{TelegramID: 5, Username: "alice"}, nil)

	resp := get(router, sess, "/api/admin/users/by-username/@alice")

	assert.Equal(t, "success", string(resp.Status))
	users.AssertExpectations(t)
}

func TestFindByID_LookupsAreCapped(t *testing.T) {
	router, users, sess := setup(t)
	users.On("FindUserByID", mock.Anything, mock.AnythingOfType("int64")).Return(&models.User{TelegramID: 1}, nil)

	for i := 1; i <= maxLookups+10; i++ {
		get(router, sess, fmt.Sprintf("/api/admin/users?q=%d", i))
	}

	assert.Equal(t, maxLookups, sess.Store.Len())
}
