package common

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tgwallet/events"
	"tgwallet/query"
	"tgwallet/service"
)

func TestFormatMoney(t *testing.T) {
	tests := map[string]string{
		"0":           "0.00",
		"5.5":         "5.50",
		"1234":        "1 234.00",
		"1234567.891": "1 234 567.89",
		"-1000":       "-1 000.00",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatMoney(decimal.RequireFromString(in)), in)
	}
}

func TestFormatSignedMoney(t *testing.T) {
	assert.Equal(t, "+10.00", FormatSignedMoney(decimal.NewFromInt(10)))
	assert.Equal(t, "-10.00", FormatSignedMoney(decimal.NewFromInt(-10)))
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "", FormatTime(time.Time{}))
	assert.Equal(t, "01.05.2024 10:30", FormatTime(time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)))
}

func TestRespondView(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondView(rec, query.State[int]{Status: query.StatusSuccess, Data: 5, HasData: true}, "", func(v int) any {
		return map[string]int{"value": v}
	})

	var resp struct {
		Status string         `json:"status"`
		Data   map[string]int `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, 5, resp.Data["value"])
}

func TestRespondView_Fallback(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondView[int](rec, query.State[int]{Status: query.StatusError, Err: errors.New("404")}, "Пользователь не найден", nil)

	var resp ViewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, query.StatusError, resp.Status)
	assert.Equal(t, "Пользователь не найден", resp.Error)
	assert.Nil(t, resp.Data)
}

func TestRespondMutation(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondMutation(rec, service.Result[string]{Err: errors.New("x")}, []service.Notification{
		{Level: events.NotificationError, Message: "x"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp MutationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.OK)
	assert.Nil(t, resp.Data)
	require.Len(t, resp.Notifications, 1)
}

func TestRespondWithError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/balance/deposit", nil)

	RespondWithError(rec, req, BadRequest("Неверная сумма", errors.New("bad json")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Неверная сумма")
}
