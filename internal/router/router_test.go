package router

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"drink-ledger/internal/blacklist"
	"drink-ledger/internal/config"
	"drink-ledger/internal/database/databasetest"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"
)

type envelope struct {
	Code    int             `json:"code"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type testServer struct {
	t      *testing.T
	engine *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		Server:   config.ServerConfig{Mode: gin.TestMode},
		JWT:      config.JWTConfig{Secret: "secret", Issuer: "drink-ledger", AccessExpireMinutes: 10, RefreshExpireHours: 1},
		Security: config.SecurityConfig{BcryptCost: bcrypt.MinCost},
		App:      config.AppSubConfig{MaxAttendeesPerDate: 2, RankingLimit: 10},
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	db := databasetest.New(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := SetupRouter(cfg, NewServices(cfg, db, blacklist.NewRedisStore(client)), logger)
	return &testServer{t: t, engine: engine}
}

func (s *testServer) do(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

type tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (s *testServer) signupLogin(username string) tokens {
	s.t.Helper()
	creds := map[string]string{"username": username, "password": "pw1234"}

	w, _ := s.do(http.MethodPost, "/api/users/signup", "", creds)
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	w, env := s.do(http.MethodPost, "/api/users/login", "", creds)
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())

	var tk tokens
	require.NoError(s.t, json.Unmarshal(env.Data, &tk))
	return tk
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	w, env := s.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, string(env.Data))
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(http.MethodGet, "/api/records/2024", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(http.MethodGet, "/api/records/2024", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserFlow(t *testing.T) {
	s := newTestServer(t)
	tk := s.signupLogin("kim")

	w, _ := s.do(http.MethodPost, "/api/users/signup", "", map[string]string{"username": "kim", "password": "pw1234"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.do(http.MethodPost, "/api/users/login", "", map[string]string{"username": "kim", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := s.do(http.MethodGet, "/api/users/me", tk.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"username":"kim"`)

	w, env = s.do(http.MethodPost, "/api/users/refresh", "", map[string]string{"refresh_token": tk.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code)
	var refreshed tokens
	require.NoError(t, json.Unmarshal(env.Data, &refreshed))
	assert.NotEmpty(t, refreshed.AccessToken)

	w, _ = s.do(http.MethodPatch, "/api/users/password", tk.AccessToken,
		map[string]string{"old_password": "pw1234", "new_password": "pw5678"})
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(http.MethodPost, "/api/users/logout", "", tk)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(http.MethodGet, "/api/users/me", tk.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = s.do(http.MethodPost, "/api/users/refresh", "", map[string]string{"refresh_token": tk.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDeleteAccount(t *testing.T) {
	s := newTestServer(t)
	tk := s.signupLogin("kim")
	s.signupLogin("lee")

	w, _ := s.do(http.MethodDelete, "/api/users/me", tk.AccessToken, map[string]string{"refresh_token": tk.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = s.do(http.MethodGet, "/api/users/me", tk.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRecordAndAttendeeFlow(t *testing.T) {
	s := newTestServer(t)
	tk := s.signupLogin("kim").AccessToken

	w, _ := s.do(http.MethodPost, "/api/records", tk,
		map[string]any{"date": "2024-01-01", "recordType": "soju", "amount": 3.5})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, _ = s.do(http.MethodPost, "/api/records", tk,
		map[string]any{"date": "2024-01-01", "recordType": "soju", "amount": 1})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.do(http.MethodPost, "/api/records", tk,
		map[string]any{"date": "2024-01-02", "recordType": "beer", "amount": 0.7})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := s.do(http.MethodGet, "/api/records/2024/1", tk, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"records":{"2024-01-01":[{"recordType":"soju","amount":3.5}]}}`, string(env.Data))

	w, env = s.do(http.MethodGet, "/api/records/2024", tk, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"records":{"2024-01":[{"recordType":"soju","amount":3.5}]}}`, string(env.Data))

	// 当天没有记录，不能添加同伴
	w, _ = s.do(http.MethodPost, "/api/attendees/2024-01-02/Kim", tk, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, env = s.do(http.MethodGet, "/api/attendees/2024-01-02", tk, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"attendees":[]}`, string(env.Data))

	w, _ = s.do(http.MethodPost, "/api/attendees/2024-01-01/park", tk, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w, _ = s.do(http.MethodPost, "/api/attendees/2024-01-01/park", tk, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	w, _ = s.do(http.MethodPost, "/api/attendees/2024-01-01/choi", tk, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	w, _ = s.do(http.MethodPost, "/api/attendees/2024-01-01/jung", tk, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = s.do(http.MethodGet, "/api/attendees/stats/soju/count", tk, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ranking":[{"name":"park","count":1},{"name":"choi","count":1}]}`, string(env.Data))

	w, _ = s.do(http.MethodDelete, "/api/attendees/2024-01-01/nobody", tk, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = s.do(http.MethodDelete, "/api/attendees/2024-01-01/park", tk, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = s.do(http.MethodGet, "/api/attendees", tk, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, string(env.Data), "park")
	assert.Contains(t, string(env.Data), "choi")

	w, _ = s.do(http.MethodDelete, "/api/records/2024-01-01/soju", tk, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(http.MethodDelete, "/api/records/2024-01-01/soju", tk, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = s.do(http.MethodDelete, "/api/records/2024-01-01/wine", tk, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOtherUserRecords(t *testing.T) {
	s := newTestServer(t)
	kim := s.signupLogin("kim").AccessToken
	lee := s.signupLogin("lee").AccessToken

	w, _ := s.do(http.MethodPost, "/api/records", lee,
		map[string]any{"date": "2024-03-01", "recordType": "beer", "amount": 2})
	require.Equal(t, http.StatusCreated, w.Code)

	w, env := s.do(http.MethodGet, "/api/users/all", kim, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var all struct {
		Users []struct {
			ID       uint   `json:"id"`
			Username string `json:"username"`
		} `json:"users"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &all))
	require.Len(t, all.Users, 2)
	leeID := all.Users[1].ID

	w, env = s.do(http.MethodGet, "/api/records/2024/3/user/"+itoa(leeID), kim, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"records":{"2024-03-01":[{"recordType":"beer","amount":2}]}}`, string(env.Data))

	w, _ = s.do(http.MethodGet, "/api/records/2024/3/user/999", kim, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = s.do(http.MethodGet, "/api/records/2024/13", kim, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExport(t *testing.T) {
	s := newTestServer(t)
	tk := s.signupLogin("kim").AccessToken

	for _, body := range []map[string]any{
		{"date": "2024-02-01", "recordType": "beer", "amount": 2},
		{"date": "2024-01-01", "recordType": "soju", "amount": 3.5},
		{"date": "2023-12-31", "recordType": "soju", "amount": 1},
	} {
		w, _ := s.do(http.MethodPost, "/api/records", tk, body)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w, _ := s.do(http.MethodGet, "/api/export/csv?year=2024", tk, nil)
	require.Equal(t, http.StatusOK, w.Code)
	csvBody := w.Body.String()
	assert.Contains(t, csvBody, "2024-01-01,烧酒,3.5\n2024-02-01,啤酒,2.0\n")
	assert.NotContains(t, csvBody, "2023-12-31")

	w, _ = s.do(http.MethodGet, "/api/export/xlsx?year=2024", tk, nil)
	require.Equal(t, http.StatusOK, w.Code)
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("饮酒记录")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"2024-01-01", "烧酒", "3.5"}, rows[1])

	w, _ = s.do(http.MethodGet, "/api/export/csv?year=abc", tk, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func itoa(n uint) string {
	return strconv.FormatUint(uint64(n), 10)
}
