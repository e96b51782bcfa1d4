package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tgwallet/auth"
	"tgwallet/metrics"
	"tgwallet/middleware"
	"tgwallet/models"
	"tgwallet/service"
)

type testServer struct {
	*Server
	users     *service.MockUserService
	balances  *service.MockBalanceService
	signals   *service.MockSignalService
	referrals *service.MockReferralService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		users:     new(service.MockUserService),
		balances:  new(service.MockBalanceService),
		signals:   new(service.MockSignalService),
		referrals: new(service.MockReferralService),
	}
	ts.Server = New(Config{
		BotURL:           "https://t.me/wallet_bot",
		ReferralLinkBase: "https://app.com",
	}, Services{
		Users:     ts.users,
		Balances:  ts.balances,
		Signals:   ts.signals,
		Referrals: ts.referrals,
	}, metrics.New(), nil)
	return ts
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	return rec
}

func withCookie(req *http.Request, token string) *http.Request {
	req.AddCookie(&http.Cookie{Name: middleware.AuthCookie, Value: token})
	return req
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestAPIRequiresCookie(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/balance", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var prompt middleware.AuthPrompt
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prompt))
	assert.Equal(t, "https://t.me/wallet_bot", prompt.BotURL)
	ts.balances.AssertNotCalled(t, "GetUserBalance", mock.Anything)
}

func TestAuthHandoffThenAuthenticatedRead(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/auth?token=tok-1", nil))
	require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "tok-1", cookies[0].Value)

	ts.balances.On("GetUserBalance", mock.MatchedBy(func(ctx context.Context) bool {
		token, ok := auth.TokenFromContext(ctx)
		return ok && token == "tok-1"
	})).Return(&models.Balance{Balance: decimal.NewFromInt(3)}, nil)

	rec = ts.do(withCookie(httptest.NewRequest(http.MethodGet, "/api/balance", nil), "tok-1"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"balance_text":"3.00"`)
	assert.Equal(t, 1, ts.Registry().Len())
}

func TestAuthWithoutToken(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/auth", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestReferralLink(t *testing.T) {
	paths := []string{"/ref/10-20", "/ref/10-20/", "/ref/10-20/start", "/app/ref/10-20"}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			ts := newTestServer(t)
			ts.users.On("GetUser", mock.Anything).Return(&models.User{TelegramID: 555}, nil)
			ts.referrals.On("CheckReferral", mock.Anything, int64(555), "https://app.com/ref/10-20").
				Return(&models.CheckReferral{Exists: true, Message: models.ReferralBoundMessage}, nil).Once()

			rec := ts.do(withCookie(httptest.NewRequest(http.MethodGet, path, nil), "tok"))

			assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
			assert.Equal(t, "/", rec.Header().Get("Location"))
			ts.referrals.AssertExpectations(t)
		})
	}
}

func TestReferralLink_NoUserGoesToErrorPage(t *testing.T) {
	ts := newTestServer(t)
	ts.users.On("GetUser", mock.Anything).Return(nil, auth.ErrAuthUnavailable)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/app/ref/1-2", nil))

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/error", rec.Header().Get("Location"))
	ts.referrals.AssertNotCalled(t, "CheckReferral", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthHandoff_AnyMethod(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodPost} {
		t.Run(method, func(t *testing.T) {
			ts := newTestServer(t)

			rec := ts.do(httptest.NewRequest(method, "/auth?token=XYZ", nil))

			assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
			cookies := rec.Result().Cookies()
			require.Len(t, cookies, 1)
			assert.Equal(t, "XYZ", cookies[0].Value)
		})
	}
}

func TestAuthHandoff_EmptyTokenKeepsCookie(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(withCookie(httptest.NewRequest(http.MethodGet, "/auth?token=", nil), "existing"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestErrorPage(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/error", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), MessageReferralFailed)
}

func TestSessionsAreSeparatedByToken(t *testing.T) {
	ts := newTestServer(t)
	ts.users.On("GetUser", mock.Anything).Return(&models.User{TelegramID: 1, FirstName: "A"}, nil)

	ts.do(withCookie(httptest.NewRequest(http.MethodGet, "/api/me", nil), "a"))
	ts.do(withCookie(httptest.NewRequest(http.MethodGet, "/api/me", nil), "b"))
	ts.do(withCookie(httptest.NewRequest(http.MethodGet, "/api/me", nil), "a"))

	assert.Equal(t, 2, ts.Registry().Len())
	ts.users.AssertNumberOfCalls(t, "GetUser", 2)
}
