package ws

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/core/model"
)

const testSecret = "test-secret"

type companiesStub struct {
	byAdmin map[string]*model.Company
}

func (s *companiesStub) Get(_ context.Context, id string) (*model.Company, error) {
	return nil, model.ErrNotFound
}

func (s *companiesStub) GetByAdmin(_ context.Context, userID string) (*model.Company, error) {
	c, ok := s.byAdmin[userID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return c, nil
}

func signToken(t *testing.T, claims Claims) string {
	t.Helper()
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func TestAuthenticateSuperAdmin(t *testing.T) {
	a := NewAuthenticator(testSecret, &companiesStub{})

	p, err := a.Authenticate(context.Background(), signToken(t, Claims{
		Name: "Root", Email: "root@example.com", Role: RoleSuperAdmin, UserID: "u1",
	}))
	require.NoError(t, err)
	assert.Equal(t, RoleSuperAdmin, p.Role)
	assert.Empty(t, p.CompanyID)
}

func TestAuthenticateAdminBindsCompany(t *testing.T) {
	a := NewAuthenticator(testSecret, &companiesStub{byAdmin: map[string]*model.Company{
		"u2": {ID: "C1", Name: "Company One"},
	}})

	p, err := a.Authenticate(context.Background(), signToken(t, Claims{
		Name: "Admin", Role: RoleAdmin, UserID: "u2",
	}))
	require.NoError(t, err)
	assert.Equal(t, "C1", p.CompanyID)
}

func TestAuthenticateAdminWithoutCompanyIsUnauthorized(t *testing.T) {
	a := NewAuthenticator(testSecret, &companiesStub{})

	_, err := a.Authenticate(context.Background(), signToken(t, Claims{
		Role: RoleAdmin, UserID: "u2",
	}))
	assert.ErrorIs(t, err, model.ErrUnauthorized)
}

func TestAuthenticateUserCollectsAssignments(t *testing.T) {
	a := NewAuthenticator(testSecret, &companiesStub{})

	p, err := a.Authenticate(context.Background(), signToken(t, Claims{
		Role: RoleUser, UserID: "u3",
		AllowedVehicleIDs: []string{"V1", "V2"},
	}))
	require.NoError(t, err)
	assert.Contains(t, p.AllowedVehicleIDs, "V1")
	assert.Contains(t, p.AllowedVehicleIDs, "V2")
	assert.NotContains(t, p.AllowedVehicleIDs, "V3")
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	a := NewAuthenticator(testSecret, &companiesStub{})
	ctx := context.Background()

	_, err := a.Authenticate(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, signErr := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: RoleSuperAdmin, UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("wrong-secret"))
	require.NoError(t, signErr)
	_, err = a.Authenticate(ctx, other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := signToken(t, Claims{
		Role: RoleSuperAdmin, UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))},
	})
	_, err = a.Authenticate(ctx, expired)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestAuthenticateRejectsUnknownRole(t *testing.T) {
	a := NewAuthenticator(testSecret, &companiesStub{})

	_, err := a.Authenticate(context.Background(), signToken(t, Claims{
		Role: "AUDITOR", UserID: "u9",
	}))
	assert.ErrorIs(t, err, model.ErrUnauthorized)
}
