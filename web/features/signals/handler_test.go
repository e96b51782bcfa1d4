package signals

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tgwallet/events"
	"tgwallet/models"
	"tgwallet/service"
	"tgwallet/web/common"
	"tgwallet/web/session"
)

type fixture struct {
	router  *mux.Router
	signals *service.MockSignalService
	users   *service.MockUserService
	session *session.Session
}

func setup(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		router:  mux.NewRouter(),
		signals: new(service.MockSignalService),
		users:   new(service.MockUserService),
		session: session.NewRegistry(session.RegistryConfig{}).Get("token"),
	}
	New(f.signals, f.users).Register(f.router)
	return f
}

func (f *fixture) serve(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req = req.WithContext(session.WithSession(req.Context(), f.session))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestActiveSignals_WithGreeting(t *testing.T) {
	f := setup(t)
	f.users.On("GetUser", mock.Anything).Return(&models.User{TelegramID: 7, FirstName: "Ivan"}, nil)
	f.signals.On("ActiveSignals", mock.Anything).Return(&models.ActiveSignals{
		ActiveSignals: []models.ActiveSignal{{SignalID: 3, Name: "BTC"}},
	}, nil)

	rec := f.serve(http.MethodGet, "/api/signals", "")

	var resp struct {
		Status string      `json:"status"`
		Data   signalsView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "Ivan", resp.Data.FirstName)
	require.Len(t, resp.Data.Signals, 1)
	assert.Equal(t, int64(3), resp.Data.Signals[0].SignalID)
}

func TestActiveSignals_UserFailureStillListsSignals(t *testing.T) {
	f := setup(t)
	f.users.On("GetUser", mock.Anything).Return(nil, errors.New("unauthorized"))
	f.signals.On("ActiveSignals", mock.Anything).Return(&models.ActiveSignals{Message: "Нет активных сигналов"}, nil)

	rec := f.serve(http.MethodGet, "/api/signals", "")

	var resp struct {
		Status string      `json:"status"`
		Data   signalsView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Empty(t, resp.Data.FirstName)
	assert.NotNil(t, resp.Data.Signals)
	assert.Empty(t, resp.Data.Signals)
	assert.Equal(t, "Нет активных сигналов", resp.Data.Message)
}

func TestJoin_InvalidatesDependents(t *testing.T) {
	f := setup(t)
	f.signals.On("ActiveSignals", mock.Anything).Return(&models.ActiveSignals{}, nil)
	f.users.On("GetUser", mock.Anything).Return(&models.User{TelegramID: 7}, nil)
	f.signals.On("JoinSignal", mock.Anything, int64(3), mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.NewFromInt(25))
	})).Return(service.Result[*models.JoinSignalResult]{
		Value:        &models.JoinSignalResult{SignalID: 3},
		Notification: &service.Notification{Level: events.NotificationSuccess, Message: service.MessageSignalJoined},
	})

	f.serve(http.MethodGet, "/api/signals", "")
	rec := f.serve(http.MethodPost, "/api/signals/join", `{"signal_id":3,"amount":"25"}`)

	var resp common.MutationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, service.MessageSignalJoined, resp.Notifications[0].Message)

	f.serve(http.MethodGet, "/api/signals", "")
	f.signals.AssertNumberOfCalls(t, "ActiveSignals", 2)
	// The user is not a dependent of joining
	f.users.AssertNumberOfCalls(t, "GetUser", 1)
}

func TestCreateRandom(t *testing.T) {
	f := setup(t)
	f.signals.On("CreateRandomSignal", mock.Anything, "Moon").Return(service.Result[*models.CreatedSignal]{
		Value:        &models.CreatedSignal{SignalID: 9, Name: "Moon"},
		Notification: &service.Notification{Level: events.NotificationSuccess, Message: service.MessageSignalCreated},
	})

	rec := f.serve(http.MethodPost, "/api/signals/random", `{"name":"Moon"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp common.MutationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
}

func TestCreateCustom_FailureNotifies(t *testing.T) {
	f := setup(t)
	f.signals.On("CreateCustomSignal", mock.Anything, models.CustomSignal{Name: "X", JoinTime: 60, ActiveTime: 120, BurnChance: 10}).
		Return(service.Result[*models.CreatedSignal]{
			Err:          errors.New("Forbidden"),
			Notification: &service.Notification{Level: events.NotificationError, Message: "Forbidden"},
		})

	rec := f.serve(http.MethodPost, "/api/signals/custom", `{"name":"X","join_time":60,"active_time":120,"burn_chance":10}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp common.MutationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.OK)
	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, "Forbidden", resp.Notifications[0].Message)
}

func TestJoin_BadBody(t *testing.T) {
	f := setup(t)

	rec := f.serve(http.MethodPost, "/api/signals/join", `nope`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	f.signals.AssertNotCalled(t, "JoinSignal", mock.Anything, mock.Anything, mock.Anything)
}
