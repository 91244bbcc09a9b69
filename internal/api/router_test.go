package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"guardian/internal/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "test-key"

// memStorage is an in-memory policy.Storage for router tests
type memStorage struct {
	mu             sync.Mutex
	parentPassword *string
	timeLimit      *policy.TimeLimitSettings
	bedtime        *policy.BedtimeSchedule
	contentFilter  *policy.ContentFilterSettings
	blockedUsers   []policy.BlockedUser
	usage          map[string]int
}

func newMemStorage() *memStorage {
	return &memStorage{usage: make(map[string]int)}
}

func (m *memStorage) GetParentPassword(ctx context.Context) (*string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.parentPassword, nil
}

func (m *memStorage) SaveParentPassword(ctx context.Context, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parentPassword = &value
	return nil
}

func (m *memStorage) GetTimeLimit(ctx context.Context) (*policy.TimeLimitSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timeLimit, nil
}

func (m *memStorage) SaveTimeLimit(ctx context.Context, settings policy.TimeLimitSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeLimit = &settings
	return nil
}

func (m *memStorage) GetBedtime(ctx context.Context) (*policy.BedtimeSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bedtime, nil
}

func (m *memStorage) SaveBedtime(ctx context.Context, schedule policy.BedtimeSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bedtime = &schedule
	return nil
}

func (m *memStorage) GetContentFilter(ctx context.Context) (*policy.ContentFilterSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.contentFilter, nil
}

func (m *memStorage) SaveContentFilter(ctx context.Context, settings policy.ContentFilterSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contentFilter = &settings
	return nil
}

func (m *memStorage) GetBlockedUsers(ctx context.Context) ([]policy.BlockedUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.blockedUsers, nil
}

func (m *memStorage) SaveBlockedUsers(ctx context.Context, users []policy.BlockedUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blockedUsers = users
	return nil
}

func (m *memStorage) GetDailyUsage(ctx context.Context, day string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.usage[day], nil
}

func (m *memStorage) IncrementDailyUsage(ctx context.Context, day string, minutes int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usage[day] += minutes
	return nil
}

func testRouter(t *testing.T) (http.Handler, *memStorage) {
	t.Helper()
	storage := newMemStorage()
	engine := policy.NewEngine(storage, policy.RealClock{}, nil)
	router := NewRouter(RouterConfig{
		Engine: engine,
		APIKey: testAPIKey,
		Logger: nil,
	})
	return router, storage
}

func doRequest(t *testing.T, router http.Handler, method, path string, body interface{}, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("X-Guardian-Key", testAPIKey)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestRouter_Auth(t *testing.T) {
	router, _ := testRouter(t)

	t.Run("health needs no key", func(t *testing.T) {
		w := doRequest(t, router, http.MethodGet, "/health", nil, false)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "UP", decode(t, w)["status"])
	})

	t.Run("v1 without key rejected", func(t *testing.T) {
		w := doRequest(t, router, http.MethodGet, "/v1/policy/verdict", nil, false)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "UNAUTHORIZED", decode(t, w)["code"])
	})

	t.Run("v1 with key accepted", func(t *testing.T) {
		w := doRequest(t, router, http.MethodGet, "/v1/policy/verdict", nil, true)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRouter_Verdict(t *testing.T) {
	router, _ := testRouter(t)

	w := doRequest(t, router, http.MethodGet, "/v1/policy/verdict", nil, true)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	verdict := body["verdict"].(map[string]interface{})
	assert.Equal(t, "allowed", verdict["kind"])
	assert.Equal(t, false, body["override_active"])
}

func TestRouter_ContentCheck(t *testing.T) {
	router, _ := testRouter(t)

	w := doRequest(t, router, http.MethodPut, "/v1/settings/content-filter",
		map[string]interface{}{"keywords": []string{"spam"}}, true)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, router, http.MethodPost, "/v1/policy/content-check",
		map[string]string{"text": "This is SPAM content"}, true)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, false, body["allowed"])
}

func TestRouter_OverrideFlow(t *testing.T) {
	router, _ := testRouter(t)

	t.Run("not configured", func(t *testing.T) {
		w := doRequest(t, router, http.MethodPost, "/v1/override",
			map[string]string{"password": "x"}, true)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "PASSWORD_NOT_CONFIGURED", decode(t, w)["code"])
	})

	w := doRequest(t, router, http.MethodPut, "/v1/settings/parent-password",
		map[string]string{"password": "secret123"}, true)
	require.Equal(t, http.StatusNoContent, w.Code)

	t.Run("wrong password", func(t *testing.T) {
		w := doRequest(t, router, http.MethodPost, "/v1/override",
			map[string]string{"password": "wrong"}, true)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "PASSWORD_MISMATCH", decode(t, w)["code"])
	})

	t.Run("correct password grants override", func(t *testing.T) {
		w := doRequest(t, router, http.MethodPost, "/v1/override",
			map[string]string{"password": "secret123"}, true)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = doRequest(t, router, http.MethodGet, "/v1/policy/verdict", nil, true)
		assert.Equal(t, true, decode(t, w)["override_active"])
	})
}

func TestRouter_Settings(t *testing.T) {
	router, storage := testRouter(t)
	ctx := context.Background()

	t.Run("update time limit", func(t *testing.T) {
		w := doRequest(t, router, http.MethodPut, "/v1/settings/time-limit",
			map[string]interface{}{"enabled": true, "daily_limit": 120}, true)
		require.Equal(t, http.StatusOK, w.Code)

		saved, err := storage.GetTimeLimit(ctx)
		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.Equal(t, 120, saved.DailyLimitMinutes)
	})

	t.Run("invalid bedtime rejected", func(t *testing.T) {
		w := doRequest(t, router, http.MethodPut, "/v1/settings/bedtime",
			map[string]interface{}{"enabled": true, "start_time": "9pm", "end_time": "07:00"}, true)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_FAILED", decode(t, w)["code"])
	})

	t.Run("settings view masks password", func(t *testing.T) {
		w := doRequest(t, router, http.MethodPut, "/v1/settings/parent-password",
			map[string]string{"password": "secret123"}, true)
		require.Equal(t, http.StatusNoContent, w.Code)

		w = doRequest(t, router, http.MethodGet, "/v1/settings", nil, true)
		require.Equal(t, http.StatusOK, w.Code)

		body := decode(t, w)
		assert.Equal(t, true, body["parent_password_set"])
		assert.NotContains(t, body, "parent_password")
	})
}

func TestRouter_BlockedUsers(t *testing.T) {
	router, _ := testRouter(t)

	w := doRequest(t, router, http.MethodPost, "/v1/blocked-users",
		map[string]string{"username": "Alice"}, true)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode(t, w)["id"].(string)
	require.NotEmpty(t, id)

	w = doRequest(t, router, http.MethodGet, "/v1/policy/blocked/alice", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["blocked"])

	w = doRequest(t, router, http.MethodGet, "/v1/blocked-users", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])

	w = doRequest(t, router, http.MethodDelete, "/v1/blocked-users/"+id, nil, true)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(t, router, http.MethodDelete, "/v1/blocked-users/"+id, nil, true)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_Tracking(t *testing.T) {
	router, _ := testRouter(t)

	w := doRequest(t, router, http.MethodPost, "/v1/tracking", nil, true)
	require.Equal(t, http.StatusCreated, w.Code)

	created := decode(t, w)
	id, ok := created["tracking_id"].(string)
	require.True(t, ok, "tracking_id must be a string, got %T", created["tracking_id"])
	require.NotEmpty(t, id)
	startedAt, ok := created["started_at"].(string)
	require.True(t, ok, "started_at must be a timestamp string, got %T", created["started_at"])
	_, err := time.Parse(time.RFC3339Nano, startedAt)
	require.NoError(t, err)

	w = doRequest(t, router, http.MethodGet, "/v1/tracking", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])

	w = doRequest(t, router, http.MethodDelete, "/v1/tracking/"+id, nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, id, body["tracking_id"])
	assert.Contains(t, body, "minutes_recorded")

	w = doRequest(t, router, http.MethodDelete, "/v1/tracking/"+id, nil, true)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_UsageToday(t *testing.T) {
	router, storage := testRouter(t)
	storage.usage[time.Now().Format("2006-01-02")] = 45

	w := doRequest(t, router, http.MethodGet, "/v1/usage/today", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(45), decode(t, w)["today_minutes"])
}
