// Package client is a Go client for the SignMeUp HTTP API. It keeps the
// token returned by Login and derives the local session from its claims.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"signmeup/internal/model"
)

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("signmeup: %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("signmeup: %d: %s", e.StatusCode, e.Message)
}

// Session is what the client knows about the logged in user.
type Session struct {
	UserID    uuid.UUID
	Role      model.Role
	Email     string
	ExpiresAt time.Time
}

// IsAdmin reports whether the token was issued to an admin. The server
// re-checks the stored role on every request.
func (s Session) IsAdmin() bool {
	return s.Role == model.RoleAdmin
}

// Client talks to one SignMeUp server.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken starts the client with an existing token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a client for baseURL, for example "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the stored token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Session decodes the stored token without verifying its signature. It returns
// false when there is no token, it cannot be decoded, or it has expired.
func (c *Client) Session() (Session, bool) {
	token := c.Token()
	if token == "" {
		return Session{}, false
	}

	var claims struct {
		UserID uuid.UUID  `json:"userId"`
		Role   model.Role `json:"role"`
		Email  string     `json:"email"`
		jwt.RegisteredClaims
	}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Session{}, false
	}
	s := Session{UserID: claims.UserID, Role: claims.Role, Email: claims.Email}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
		if time.Now().After(s.ExpiresAt) {
			return Session{}, false
		}
	}
	return s, true
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	var out struct {
		User *model.User `json:"user"`
	}
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/register", body, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Login stores the returned token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*model.User, error) {
	var out struct {
		Token string      `json:"token"`
		User  *model.User `json:"user"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &out); err != nil {
		return nil, err
	}
	c.setToken(out.Token)
	return out.User, nil
}

// Logout revokes the token on the server and forgets it locally.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	c.setToken("")
	return err
}

func (c *Client) Profile(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, http.MethodGet, "/profile", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Users(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := c.do(ctx, http.MethodGet, "/auth/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) UpdateRole(ctx context.Context, userID uuid.UUID, role model.Role) (*model.User, error) {
	var out struct {
		User *model.User `json:"user"`
	}
	body := map[string]string{"role": string(role)}
	if err := c.do(ctx, http.MethodPut, "/auth/users/"+userID.String(), body, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *Client) Events(ctx context.Context) ([]model.Event, error) {
	var events []model.Event
	if err := c.do(ctx, http.MethodGet, "/events", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Event fetches one event; UserSignedUp reflects the stored token's user.
func (c *Client) Event(ctx context.Context, id uuid.UUID) (*model.EventDetail, error) {
	var event model.EventDetail
	if err := c.do(ctx, http.MethodGet, "/events/"+id.String(), nil, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// EventFields are the editable fields of an event. Date uses RFC 3339 or
// the "2006-01-02T15:04" form. Nil fields are omitted from updates.
type EventFields struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Date        *string `json:"date,omitempty"`
	Location    *string `json:"location,omitempty"`
}

func (c *Client) CreateEvent(ctx context.Context, fields EventFields) (*model.Event, error) {
	var event model.Event
	if err := c.do(ctx, http.MethodPost, "/events", fields, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (c *Client) UpdateEvent(ctx context.Context, id uuid.UUID, fields EventFields) (*model.Event, error) {
	var out struct {
		Event *model.Event `json:"event"`
	}
	if err := c.do(ctx, http.MethodPut, "/events/"+id.String(), fields, &out); err != nil {
		return nil, err
	}
	return out.Event, nil
}

func (c *Client) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/events/"+id.String(), nil, nil)
}

func (c *Client) SignUp(ctx context.Context, eventID uuid.UUID) (*model.Signup, error) {
	var out struct {
		Signup *model.Signup `json:"signup"`
	}
	if err := c.do(ctx, http.MethodPost, "/events/"+eventID.String()+"/signup", nil, &out); err != nil {
		return nil, err
	}
	return out.Signup, nil
}

func (c *Client) Cancel(ctx context.Context, eventID uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/events/"+eventID.String()+"/signup", nil, nil)
}

// MySignups lists the caller's events, most recent signup first.
func (c *Client) MySignups(ctx context.Context) ([]model.Event, error) {
	var events []model.Event
	if err := c.do(ctx, http.MethodGet, "/events/my-signups", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *Client) EventSignups(ctx context.Context, eventID uuid.UUID) ([]model.Signup, error) {
	var signups []model.Signup
	if err := c.do(ctx, http.MethodGet, "/events/"+eventID.String()+"/signups", nil, &signups); err != nil {
		return nil, err
	}
	return signups, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var errBody struct {
			Error   string `json:"error"`
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &errBody) == nil {
			switch {
			case errBody.Error != "":
				apiErr.Message = errBody.Error
			case errBody.Message != "":
				apiErr.Message = errBody.Message
			}
			apiErr.Code = errBody.Code
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
