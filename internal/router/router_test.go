package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"signmeup/internal/auth"
	"signmeup/internal/config"
	"signmeup/internal/handler"
	"signmeup/internal/model"
	"signmeup/internal/notify"
	"signmeup/internal/repository"
	"signmeup/internal/service"
	"signmeup/internal/testutil"
)

type memTokenStore struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func (s *memTokenStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[tokenID] = true
	return nil
}

func (s *memTokenStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revoked[tokenID], nil
}

type testServer struct {
	e     *echo.Echo
	users repository.UserRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	database := testutil.NewDB(t)
	logger := testutil.Logger()
	cfg := &config.Config{JWTSecret: "test-secret"}

	userRepo := repository.NewUserRepository(database)
	eventRepo := repository.NewEventRepository(database)
	signupRepo := repository.NewSignupRepository(database)

	dispatcher := notify.NewDispatcher(notify.NewLogMailer(logger), logger)
	t.Cleanup(func() { _ = dispatcher.Close(context.Background()) })

	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := &memTokenStore{revoked: map[string]bool{}}

	userService := service.NewUserService(userRepo, logger)
	authService := service.NewAuthService(userRepo, auth.NewPasswordHasherWithCost(bcrypt.MinCost), jwtService, tokenStore, dispatcher, logger)
	eventService := service.NewEventService(eventRepo, signupRepo, nil, dispatcher, false, logger)
	signupService := service.NewSignupService(eventRepo, signupRepo, dispatcher, logger)

	e := echo.New()
	Register(e, cfg, logger,
		auth.NewGate(jwtService, tokenStore, userService, logger),
		handler.NewAuthHandler(authService),
		handler.NewUserHandler(userService),
		handler.NewEventHandler(eventService),
		handler.NewSignupHandler(signupService),
	)
	return &testServer{e: e, users: userRepo}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, json.RawMessage) {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec.Code, rec.Body.Bytes()
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

// registerAndLogin returns the new user's id and token.
func (s *testServer) registerAndLogin(t *testing.T, name, email, password string) (string, string) {
	t.Helper()
	status, raw := s.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"name": name, "email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, status, string(raw))

	status, raw = s.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, status, string(raw))
	login := decode[handler.LoginResponse](t, raw)
	return login.User.ID.String(), login.Token
}

func (s *testServer) admin(t *testing.T) (string, string) {
	t.Helper()
	id, _ := s.registerAndLogin(t, "Root", "root@x.com", "rootpass1")
	user, err := s.users.FindByEmail(context.Background(), "root@x.com")
	require.NoError(t, err)
	require.NoError(t, s.users.UpdateRole(context.Background(), user.ID, model.RoleAdmin))
	// Login again so the token reflects the role, although the gate reads the stored role anyway.
	status, raw := s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "root@x.com", "password": "rootpass1"})
	require.Equal(t, http.StatusOK, status)
	return id, decode[handler.LoginResponse](t, raw).Token
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func TestAdaMeetupScenario(t *testing.T) {
	s := newTestServer(t)

	_, token := s.registerAndLogin(t, "Ada", "ada@x.com", "pw123456")
	claims, err := auth.NewJWTService("test-secret").Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "ada@x.com", claims.Email)

	status, raw := s.do(t, http.MethodGet, "/events", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(raw))

	event := map[string]string{"title": "Meetup", "date": "2025-01-01T10:00", "location": "HQ"}
	status, _ = s.do(t, http.MethodPost, "/events", token, event)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = s.do(t, http.MethodPost, "/events", "", event)
	assert.Equal(t, http.StatusUnauthorized, status)

	_, adminToken := s.admin(t)
	status, raw = s.do(t, http.MethodPost, "/events", adminToken, event)
	require.Equal(t, http.StatusOK, status, string(raw))
	created := decode[model.Event](t, raw)
	assert.Equal(t, "Meetup", created.Title)
	assert.True(t, time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC).Equal(created.Date))
	eventPath := "/events/" + created.ID.String()

	status, raw = s.do(t, http.MethodPost, eventPath+"/signup", token, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	signup := decode[handler.SignupResponse](t, raw)
	assert.Equal(t, "Signup successful", signup.Message)
	assert.Equal(t, created.ID, signup.Signup.EventID)

	status, raw = s.do(t, http.MethodGet, eventPath, token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, decode[model.EventDetail](t, raw).UserSignedUp)

	status, raw = s.do(t, http.MethodGet, eventPath, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, decode[model.EventDetail](t, raw).UserSignedUp)

	status, raw = s.do(t, http.MethodDelete, eventPath+"/signup", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Signup canceled", decode[handler.MessageResponse](t, raw).Message)

	status, raw = s.do(t, http.MethodGet, eventPath, token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, decode[model.EventDetail](t, raw).UserSignedUp)
}

func TestAuthEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.registerAndLogin(t, "Ada", "ada@x.com", "pw123456")

	tests := []struct {
		name   string
		path   string
		body   map[string]string
		status int
		code   string
	}{
		{"duplicate email", "/auth/register", map[string]string{"name": "Ada", "email": "ADA@x.com", "password": "pw123456"}, http.StatusBadRequest, "EMAIL_TAKEN"},
		{"missing name", "/auth/register", map[string]string{"email": "b@x.com", "password": "pw123456"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad email", "/auth/register", map[string]string{"name": "B", "email": "nope", "password": "pw123456"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"wrong password", "/auth/login", map[string]string{"email": "ada@x.com", "password": "wrong-pass"}, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"unknown user", "/auth/login", map[string]string{"email": "ghost@x.com", "password": "pw123456"}, http.StatusNotFound, "USER_NOT_FOUND"},
		{"missing password", "/auth/login", map[string]string{"email": "ada@x.com"}, http.StatusBadRequest, "VALIDATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, raw := s.do(t, http.MethodPost, tt.path, "", tt.body)
			assert.Equal(t, tt.status, status)
			body := decode[errorBody](t, raw)
			assert.Equal(t, tt.code, body.Code)
			assert.NotContains(t, string(raw), "token\":\"ey")
		})
	}
}

func TestNonAdminIsForbiddenOnAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	userID, token := s.registerAndLogin(t, "Ada", "ada@x.com", "pw123456")
	_, adminToken := s.admin(t)

	status, raw := s.do(t, http.MethodPost, "/events", adminToken, map[string]string{"title": "Meetup", "date": "2025-01-01"})
	require.Equal(t, http.StatusOK, status)
	eventPath := "/events/" + decode[model.Event](t, raw).ID.String()

	routes := []struct{ method, path string }{
		{http.MethodGet, "/auth/users"},
		{http.MethodPut, "/auth/users/" + userID},
		{http.MethodPost, "/events"},
		{http.MethodPut, eventPath},
		{http.MethodDelete, eventPath},
		{http.MethodGet, eventPath + "/signups"},
	}
	for _, r := range routes {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			status, raw := s.do(t, r.method, r.path, token, map[string]string{"role": "ADMIN", "title": "x"})
			assert.Equal(t, http.StatusForbidden, status)
			assert.Equal(t, "FORBIDDEN", decode[errorBody](t, raw).Code)

			status, _ = s.do(t, r.method, r.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, status)
		})
	}
}

func TestRoleManagement(t *testing.T) {
	s := newTestServer(t)
	adaID, adaToken := s.registerAndLogin(t, "Ada", "ada@x.com", "pw123456")
	adminID, adminToken := s.admin(t)

	status, raw := s.do(t, http.MethodGet, "/auth/users", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	users := decode[[]model.User](t, raw)
	require.Len(t, users, 2)
	assert.Equal(t, "Ada", users[0].Name)
	assert.NotContains(t, string(raw), "passwordHash")
	assert.NotContains(t, string(raw), "$2a$")

	t.Run("own role", func(t *testing.T) {
		status, raw := s.do(t, http.MethodPut, "/auth/users/"+adminID, adminToken, map[string]string{"role": "USER"})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "SELF_ROLE_CHANGE", decode[errorBody](t, raw).Code)

		status, _ = s.do(t, http.MethodGet, "/auth/users", adminToken, nil)
		assert.Equal(t, http.StatusOK, status, "admin keeps the role")
	})

	t.Run("invalid role", func(t *testing.T) {
		status, raw := s.do(t, http.MethodPut, "/auth/users/"+adaID, adminToken, map[string]string{"role": "OWNER"})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "INVALID_ROLE", decode[errorBody](t, raw).Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		status, _ := s.do(t, http.MethodPut, "/auth/users/00000000-0000-0000-0000-000000000001", adminToken, map[string]string{"role": "ADMIN"})
		assert.Equal(t, http.StatusNotFound, status)
		status, _ = s.do(t, http.MethodPut, "/auth/users/not-a-uuid", adminToken, map[string]string{"role": "ADMIN"})
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("promotion applies to an existing token", func(t *testing.T) {
		status, _ := s.do(t, http.MethodGet, "/auth/users", adaToken, nil)
		require.Equal(t, http.StatusForbidden, status)

		status, raw := s.do(t, http.MethodPut, "/auth/users/"+adaID, adminToken, map[string]string{"role": "ADMIN"})
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, model.RoleAdmin, decode[handler.UpdateRoleResponse](t, raw).User.Role)

		status, _ = s.do(t, http.MethodGet, "/auth/users", adaToken, nil)
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("demotion applies to an existing token", func(t *testing.T) {
		status, _ := s.do(t, http.MethodPut, "/auth/users/"+adminID, adaToken, map[string]string{"role": "USER"})
		require.Equal(t, http.StatusOK, status)

		status, _ = s.do(t, http.MethodGet, "/auth/users", adminToken, nil)
		assert.Equal(t, http.StatusForbidden, status)

		status, raw := s.do(t, http.MethodGet, "/profile", adminToken, nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, model.RoleUser, decode[model.User](t, raw).Role)
	})
}

func TestSignupEndpoints(t *testing.T) {
	s := newTestServer(t)
	_, token := s.registerAndLogin(t, "Ada", "ada@x.com", "pw123456")
	_, bobToken := s.registerAndLogin(t, "Bob", "bob@x.com", "pw123456")
	_, adminToken := s.admin(t)

	status, raw := s.do(t, http.MethodPost, "/events", adminToken, map[string]string{"title": "Meetup", "date": "2025-01-01T10:00"})
	require.Equal(t, http.StatusOK, status)
	eventPath := "/events/" + decode[model.Event](t, raw).ID.String()

	status, _ = s.do(t, http.MethodPost, eventPath+"/signup", token, nil)
	require.Equal(t, http.StatusOK, status)
	status, raw = s.do(t, http.MethodPost, eventPath+"/signup", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Already signed up", decode[errorBody](t, raw).Error)
	status, _ = s.do(t, http.MethodPost, eventPath+"/signup", bobToken, nil)
	require.Equal(t, http.StatusOK, status)

	status, raw = s.do(t, http.MethodGet, eventPath+"/signups", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	signups := decode[[]model.Signup](t, raw)
	require.Len(t, signups, 2)
	assert.Equal(t, "Ada", signups[0].User.Name)
	assert.Equal(t, "bob@x.com", signups[1].User.Email)

	status, raw = s.do(t, http.MethodGet, "/events/my-signups", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]model.Event](t, raw), 1)
	status, _ = s.do(t, http.MethodGet, "/events/my-signups", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(t, http.MethodDelete, eventPath+"/signup", token, nil)
	require.Equal(t, http.StatusOK, status)
	status, raw = s.do(t, http.MethodDelete, eventPath+"/signup", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Not signed up for this event", decode[errorBody](t, raw).Error)

	status, _ = s.do(t, http.MethodPost, "/events/00000000-0000-0000-0000-000000000001/signup", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = s.do(t, http.MethodGet, "/events/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	t.Run("deleting the event removes its signups", func(t *testing.T) {
		status, raw := s.do(t, http.MethodDelete, eventPath, adminToken, nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "Event deleted", decode[handler.MessageResponse](t, raw).Message)

		status, raw = s.do(t, http.MethodGet, "/events/my-signups", bobToken, nil)
		require.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `[]`, string(raw))

		status, _ = s.do(t, http.MethodDelete, eventPath, adminToken, nil)
		assert.Equal(t, http.StatusNotFound, status)
	})
}

func TestEventUpdateIsPartial(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.admin(t)

	status, raw := s.do(t, http.MethodPost, "/events", adminToken, map[string]string{
		"title": "Meetup", "description": "Monthly", "date": "2025-01-01T10:00", "location": "HQ",
	})
	require.Equal(t, http.StatusOK, status)
	created := decode[model.Event](t, raw)

	status, raw = s.do(t, http.MethodPut, "/events/"+created.ID.String(), adminToken, map[string]string{"location": "Annex"})
	require.Equal(t, http.StatusOK, status, string(raw))
	updated := decode[handler.UpdateEventResponse](t, raw)
	assert.Equal(t, "Event updated", updated.Message)
	assert.Equal(t, "Annex", updated.Event.Location)
	assert.Equal(t, "Meetup", updated.Event.Title)
	assert.Equal(t, "Monthly", updated.Event.Description)
	assert.True(t, created.Date.Equal(updated.Event.Date))

	status, raw = s.do(t, http.MethodPut, "/events/"+created.ID.String(), adminToken, map[string]string{"date": "next week"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", decode[errorBody](t, raw).Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	s := newTestServer(t)
	_, token := s.registerAndLogin(t, "Ada", "ada@x.com", "pw123456")

	status, _ := s.do(t, http.MethodGet, "/profile", token, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, http.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, status)

	status, raw := s.do(t, http.MethodGet, "/profile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid token", decode[errorBody](t, raw).Error)
}

func TestInfrastructureRoutes(t *testing.T) {
	s := newTestServer(t)

	status, raw := s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", string(raw))

	status, raw = s.do(t, http.MethodGet, "/swagger/doc.json", "", nil)
	require.Equal(t, http.StatusOK, status)
	doc := decode[map[string]any](t, raw)
	assert.Equal(t, "SignMeUp API", doc["info"].(map[string]any)["title"])
	assert.Contains(t, doc["paths"], "/events/{id}/signup")

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}
