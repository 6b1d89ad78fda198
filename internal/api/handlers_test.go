package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eion/usersvc/internal/health"
	"github.com/eion/usersvc/internal/orders"
	"github.com/eion/usersvc/internal/users"
)

// memoryStore is an upserting in-memory UserStore
type memoryStore struct {
	mu      sync.Mutex
	records map[string]users.User
	err     error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: make(map[string]users.User)}
}

func (m *memoryStore) CreateUser(ctx context.Context, user *users.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records[user.UserID] = *user
	return nil
}

func (m *memoryStore) GetUser(ctx context.Context, userID string) (*users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.records[userID]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	return &u, nil
}

func (m *memoryStore) UpdateUser(ctx context.Context, userID, name, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if u, ok := m.records[userID]; ok {
		u.Name, u.Email = name, email
		m.records[userID] = u
	}
	return nil
}

func (m *memoryStore) DeleteUser(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.records, userID)
	return nil
}

func (m *memoryStore) ListUsers(ctx context.Context) ([]*users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	list := make([]*users.User, 0, len(m.records))
	for _, u := range m.records {
		u := u
		list = append(list, &u)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].UserID < list[j].UserID })
	return list, nil
}

func (m *memoryStore) EnsureSchema(ctx context.Context) error { return nil }
func (m *memoryStore) HealthCheck(ctx context.Context) error  { return m.err }
func (m *memoryStore) Close() error                           { return nil }

type stubLookup struct {
	orders []json.RawMessage
	calls  int
}

func (s *stubLookup) LookupOrders(ctx context.Context, userID string) []json.RawMessage {
	s.calls++
	if s.orders == nil {
		return []json.RawMessage{}
	}
	return s.orders
}

func newTestRouter(store users.UserStore, lookup orders.Lookup) *gin.Engine {
	logger := zap.NewNop()
	handlers := NewUserHandlers(users.NewUserService(store), lookup, logger)

	healthManager := health.NewManager(logger)
	healthManager.AddChecker(health.NewFuncChecker("database", true, store.HealthCheck))

	return NewRouter(handlers, healthManager, logger)
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestUserLifecycle(t *testing.T) {
	lookup := &stubLookup{orders: []json.RawMessage{json.RawMessage(`{"orderId":"o1"}`)}}
	router := newTestRouter(newMemoryStore(), lookup)

	w := doRequest(t, router, http.MethodPost, "/users", `{"userId":"u1","name":"Ann","email":"ann@x.com"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "User created!", decode(t, w)["message"])

	w = doRequest(t, router, http.MethodGet, "/users/u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":{"userId":"u1","name":"Ann","email":"ann@x.com"},"orders":[{"orderId":"o1"}]}`, w.Body.String())

	w = doRequest(t, router, http.MethodPut, "/users/u1", `{"name":"Annie","email":"a@x.com"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "User updated!", decode(t, w)["message"])

	w = doRequest(t, router, http.MethodGet, "/users/u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	user := decode(t, w)["user"].(map[string]any)
	assert.Equal(t, "Annie", user["name"])
	assert.Equal(t, "a@x.com", user["email"])
	assert.Equal(t, "u1", user["userId"])

	w = doRequest(t, router, http.MethodDelete, "/users/u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "User deleted!", decode(t, w)["message"])

	w = doRequest(t, router, http.MethodGet, "/users/u1", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found", decode(t, w)["error"])
}

func TestCreateUserMissingFields(t *testing.T) {
	router := newTestRouter(newMemoryStore(), &stubLookup{})

	bodies := []string{
		`{"name":"Ann","email":"ann@x.com"}`,
		`{"userId":"u1","email":"ann@x.com"}`,
		`{"userId":"u1","name":"Ann"}`,
		`{"userId":"","name":"Ann","email":"ann@x.com"}`,
		`{"userId":"u1","name":"","email":"ann@x.com"}`,
		`{"userId":"u1","name":"Ann","email":""}`,
		`{}`,
		`not json`,
		``,
	}

	for _, body := range bodies {
		w := doRequest(t, router, http.MethodPost, "/users", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
		assert.JSONEq(t, `{"error":"Missing fields"}`, w.Body.String(), "body %q", body)
	}
}

func TestUpdateUserMissingFields(t *testing.T) {
	router := newTestRouter(newMemoryStore(), &stubLookup{})

	for _, body := range []string{`{"name":"Ann"}`, `{"email":"a@x.com"}`, `{"name":"","email":""}`, `[`} {
		w := doRequest(t, router, http.MethodPut, "/users/u1", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
		assert.JSONEq(t, `{"error":"Missing fields"}`, w.Body.String())
	}
}

func TestGetUnknownUserSkipsOrderLookup(t *testing.T) {
	lookup := &stubLookup{}
	router := newTestRouter(newMemoryStore(), lookup)

	w := doRequest(t, router, http.MethodGet, "/users/never-created", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"User not found"}`, w.Body.String())
	assert.Equal(t, 0, lookup.calls)
}

func TestUpdateAndDeleteUnknownUserSucceed(t *testing.T) {
	router := newTestRouter(newMemoryStore(), &stubLookup{})

	w := doRequest(t, router, http.MethodPut, "/users/ghost", `{"name":"Casper","email":"boo@x.com"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, router, http.MethodDelete, "/users/ghost", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"User deleted!"}`, w.Body.String())
}

func TestListUsers(t *testing.T) {
	router := newTestRouter(newMemoryStore(), &stubLookup{})

	w := doRequest(t, router, http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	for _, id := range []string{"a", "b", "c"} {
		w = doRequest(t, router, http.MethodPost, "/users", `{"userId":"`+id+`","name":"N`+id+`","email":"`+id+`@x.com"}`)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w = doRequest(t, router, http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, w.Code)

	var list []users.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 3)
	for _, u := range list {
		assert.NotEmpty(t, u.UserID)
		assert.NotEmpty(t, u.Name)
		assert.NotEmpty(t, u.Email)
	}
}

func TestStorageErrorsBecomeGeneric500(t *testing.T) {
	store := newMemoryStore()
	store.err = users.NewStorageConnectionError("op", "users", errors.New("dial tcp 10.0.0.1:5432: connection refused"))
	router := newTestRouter(store, &stubLookup{})

	requests := []struct{ method, path, body string }{
		{http.MethodPost, "/users", `{"userId":"u1","name":"Ann","email":"ann@x.com"}`},
		{http.MethodGet, "/users/u1", ""},
		{http.MethodPut, "/users/u1", `{"name":"Ann","email":"ann@x.com"}`},
		{http.MethodDelete, "/users/u1", ""},
		{http.MethodGet, "/users", ""},
	}

	for _, r := range requests {
		w := doRequest(t, router, r.method, r.path, r.body)
		assert.Equal(t, http.StatusInternalServerError, w.Code, "%s %s", r.method, r.path)
		assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
		assert.False(t, strings.Contains(w.Body.String(), "10.0.0.1"))
	}
}

func TestGetUserWithOrderServiceDown(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	downURL := server.URL
	server.Close()

	lookup := orders.NewClient(downURL, time.Second, zap.NewNop())
	router := newTestRouter(newMemoryStore(), lookup)

	w := doRequest(t, router, http.MethodPost, "/users", `{"userId":"u1","name":"Ann","email":"ann@x.com"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(t, router, http.MethodGet, "/users/u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":{"userId":"u1","name":"Ann","email":"ann@x.com"},"orders":[]}`, w.Body.String())
}

func TestGetUserWithLiveOrderService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "u1", r.URL.Query().Get("user"))
		_, _ = w.Write([]byte(`[{"id":1},{"id":2}]`))
	}))
	defer server.Close()

	router := newTestRouter(newMemoryStore(), orders.NewClient(server.URL, time.Second, zap.NewNop()))

	doRequest(t, router, http.MethodPost, "/users", `{"userId":"u1","name":"Ann","email":"ann@x.com"}`)
	w := doRequest(t, router, http.MethodGet, "/users/u1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		User   users.User        `json:"user"`
		Orders []json.RawMessage `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "u1", body.User.UserID)
	assert.Len(t, body.Orders, 2)
}

func TestHealthEndpoint(t *testing.T) {
	store := newMemoryStore()
	router := newTestRouter(store, &stubLookup{})

	w := doRequest(t, router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])

	store.err = errors.New("down")
	w = doRequest(t, router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unhealthy", decode(t, w)["status"])
}

func TestRequestIDHeader(t *testing.T) {
	router := newTestRouter(newMemoryStore(), &stubLookup{})

	w := doRequest(t, router, http.MethodGet, "/users", "")
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set(requestIDHeader, "fixed-id")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "fixed-id", rec.Header().Get(requestIDHeader))
}
