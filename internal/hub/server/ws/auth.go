package ws

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/core"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/core/model"
)

// Dashboard roles.
const (
	RoleSuperAdmin = "SUPER_ADMIN"
	RoleAdmin      = "ADMIN"
	RoleUser       = "USER"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims is the handshake context carried by the dashboard token. The
// authentication surface that issues these tokens lives outside the hub;
// for USER tokens it also resolves the delivery assignments into
// allowedVehicleIds.
type Claims struct {
	Name              string   `json:"name"`
	Email             string   `json:"email"`
	Role              string   `json:"role"`
	UserID            string   `json:"userId"`
	AllowedVehicleIDs []string `json:"allowedVehicleIds,omitempty"`
	jwt.RegisteredClaims
}

// Principal is the immutable authorization context bound to a connection
// for its whole lifetime.
type Principal struct {
	UserID string
	Name   string
	Email  string
	Role   string

	// CompanyID is resolved once at connect time for ADMIN; empty otherwise.
	CompanyID string

	// AllowedVehicleIDs is populated for USER; nil otherwise.
	AllowedVehicleIDs map[string]struct{}
}

// CanSeeVehicle evaluates the broadcast filter for one event.
func (p *Principal) CanSeeVehicle(vehicleID, companyID string) bool {
	switch p.Role {
	case RoleSuperAdmin:
		return true
	case RoleAdmin:
		return p.CompanyID != "" && p.CompanyID == companyID
	case RoleUser:
		_, ok := p.AllowedVehicleIDs[vehicleID]
		return ok
	default:
		return false
	}
}

// Authenticator verifies dashboard tokens and binds ADMIN connections to
// their company.
type Authenticator struct {
	secret    []byte
	companies core.CompanyDirectory
}

func NewAuthenticator(secret string, companies core.CompanyDirectory) *Authenticator {
	return &Authenticator{
		secret:    []byte(secret),
		companies: companies,
	}
}

// Authenticate parses the token and builds the connection principal. An
// ADMIN with no company on record is rejected as unauthorized.
func (a *Authenticator) Authenticate(ctx context.Context, tokenString string) (*Principal, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	p := &Principal{
		UserID: claims.UserID,
		Name:   claims.Name,
		Email:  claims.Email,
		Role:   claims.Role,
	}

	switch claims.Role {
	case RoleSuperAdmin:
	case RoleAdmin:
		company, err := a.companies.GetByAdmin(ctx, claims.UserID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return nil, fmt.Errorf("admin %s has no company: %w", claims.UserID, model.ErrUnauthorized)
			}
			return nil, err
		}
		p.CompanyID = company.ID
	case RoleUser:
		p.AllowedVehicleIDs = make(map[string]struct{}, len(claims.AllowedVehicleIDs))
		for _, id := range claims.AllowedVehicleIDs {
			p.AllowedVehicleIDs[id] = struct{}{}
		}
	default:
		return nil, fmt.Errorf("unknown role %q: %w", claims.Role, model.ErrUnauthorized)
	}

	return p, nil
}
