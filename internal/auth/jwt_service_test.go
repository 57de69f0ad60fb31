package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "signmeup/internal/errors"
	"signmeup/internal/model"
)

func testUser(role model.Role) *model.User {
	return &model.User{ID: uuid.New(), Name: "Ada", Email: "ada@x.com", Role: role}
}

func TestJWTService_IssueAndVerify(t *testing.T) {
	svc := NewJWTService("test-secret")
	user := testUser(model.RoleAdmin)

	token, err := svc.Issue(user)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(token, "."))

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, model.RoleAdmin, claims.Role)
	assert.Equal(t, "ada@x.com", claims.Email)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(AccessTokenExpiry), claims.ExpiresAt.Time, 5*time.Second)
	assert.InDelta(t, AccessTokenExpiry.Seconds(), svc.Remaining(claims).Seconds(), 5)
}

func TestJWTService_UniqueTokenIDs(t *testing.T) {
	svc := NewJWTService("test-secret")
	user := testUser(model.RoleUser)

	a, err := svc.Issue(user)
	require.NoError(t, err)
	b, err := svc.Issue(user)
	require.NoError(t, err)

	ca, _ := svc.Verify(a)
	cb, _ := svc.Verify(b)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestJWTService_Verify_Rejects(t *testing.T) {
	svc := NewJWTService("test-secret")
	user := testUser(model.RoleUser)

	expired, err := svc.WithTTL(-time.Minute).Issue(user)
	require.NoError(t, err)

	otherKey, err := NewJWTService("other-secret").Issue(user)
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{UserID: user.ID}).
		SignedString([]byte("test-secret"))
	require.NoError(t, err)

	first, err := svc.Issue(user)
	require.NoError(t, err)
	second, err := svc.Issue(user)
	require.NoError(t, err)
	a, b := strings.Split(first, "."), strings.Split(second, ".")
	swappedPayload := a[0] + "." + b[1] + "." + a[2]

	tests := map[string]string{
		"expired":       expired,
		"wrong secret":  otherKey,
		"none alg":      noneAlg,
		"no expiry":     noExpiry,
		"garbage":       "not-a-token",
		"empty":         "",
		"tampered body": swappedPayload,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			claims, err := svc.Verify(token)
			assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}
