package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	apperrors "signmeup/internal/errors"
	"signmeup/internal/model"
)

const (
	claimsContextKey = "claims"
	userContextKey   = "currentUser"
)

// UserFinder loads the current state of a user.
// Implementations must read from storage, not from a cache, so role changes apply at once.
type UserFinder interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// Gate holds the authentication and authorization middleware.
type Gate struct {
	tokens *JWTService
	store  TokenStoreInterface
	users  UserFinder
	logger *slog.Logger
}

// NewGate creates a Gate.
func NewGate(tokens *JWTService, store TokenStoreInterface, users UserFinder, logger *slog.Logger) *Gate {
	return &Gate{tokens: tokens, store: store, users: users, logger: logger}
}

// Authenticate rejects requests without a valid bearer token for an existing user,
// and attaches that user, with the role currently stored, to the context.
func (g *Gate) Authenticate() echo.MiddlewareFunc {
	return g.middleware(false)
}

// Optional attaches the user when a valid token is presented and otherwise lets
// the request through anonymously.
func (g *Gate) Optional() echo.MiddlewareFunc {
	return g.middleware(true)
}

// RequireAdmin rejects callers whose stored role is not ADMIN. It must run after Authenticate.
func (g *Gate) RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := CurrentUser(c)
			if !ok {
				return unauthorized(apperrors.ErrMissingToken.Error())
			}
			if !user.IsAdmin() {
				httpErr := apperrors.MapErrorToHTTP(apperrors.ErrForbidden)
				return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
			}
			return next(c)
		}
	}
}

func (g *Gate) middleware(optional bool) echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		ContextKey:  claimsContextKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return g.parse(c.Request().Context(), token)
		},
		ContinueOnIgnoredError: optional,
		ErrorHandler: func(c echo.Context, err error) error {
			if optional {
				return nil
			}
			g.logger.Debug("authentication failed",
				slog.String("path", c.Path()),
				slog.String("error", err.Error()),
			)
			if errors.Is(err, apperrors.ErrInvalidToken) {
				return unauthorized(apperrors.ErrInvalidToken.Error())
			}
			return unauthorized(apperrors.ErrMissingToken.Error())
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return verify(g.loadUser(optional, next))
	}
}

func (g *Gate) parse(ctx context.Context, token string) (*Claims, error) {
	claims, err := g.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	revoked, err := g.store.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, fmt.Errorf("%w: token revoked", apperrors.ErrInvalidToken)
	}
	return claims, nil
}

func (g *Gate) loadUser(optional bool, next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, ok := CurrentClaims(c)
		if !ok {
			if optional {
				return next(c)
			}
			return unauthorized(apperrors.ErrMissingToken.Error())
		}

		user, err := g.users.GetUser(c.Request().Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, apperrors.ErrUserNotFound) {
				if optional {
					return next(c)
				}
				return unauthorized(apperrors.ErrUserNotFound.Error())
			}
			httpErr := apperrors.MapErrorToHTTP(err)
			return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
		}

		c.Set(userContextKey, user)
		return next(c)
	}
}

// CurrentUser returns the user attached by the gate.
func CurrentUser(c echo.Context) (*model.User, bool) {
	user, ok := c.Get(userContextKey).(*model.User)
	return user, ok && user != nil
}

// CurrentClaims returns the verified token claims attached by the gate.
func CurrentClaims(c echo.Context) (*Claims, bool) {
	claims, ok := c.Get(claimsContextKey).(*Claims)
	return claims, ok && claims != nil
}

func unauthorized(message string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
		Error: message,
		Code:  "UNAUTHORIZED",
	})
}
