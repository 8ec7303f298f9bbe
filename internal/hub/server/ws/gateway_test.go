package ws

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/core/model"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/pkg/options"
)

type vehiclesStub struct {
	vehicles map[string]*model.Vehicle
}

func (s *vehiclesStub) Get(_ context.Context, id string) (*model.Vehicle, error) {
	v, ok := s.vehicles[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return v, nil
}

func newTestGateway(registry *Registry) *Gateway {
	return NewGateway(
		&options.WebsocketOptions{Path: "/ws", JWTSecret: testSecret, SendBuffer: 16},
		NewAuthenticator(testSecret, &companiesStub{}),
		registry,
		&vehiclesStub{vehicles: map[string]*model.Vehicle{
			"V1": {ID: "V1", CompanyID: "C1"},
			"V2": {ID: "V2", CompanyID: "C2"},
		}},
	)
}

func TestAuthorizeJoin(t *testing.T) {
	g := newTestGateway(NewRegistry())
	ctx := context.Background()

	admin := &Principal{Role: RoleAdmin, CompanyID: "C1"}
	assert.NoError(t, g.authorizeJoin(ctx, admin, "V1"))
	assert.Error(t, g.authorizeJoin(ctx, admin, "V2"))
	assert.Error(t, g.authorizeJoin(ctx, admin, "ghost"))

	super := &Principal{Role: RoleSuperAdmin}
	assert.NoError(t, g.authorizeJoin(ctx, super, "V2"))
	assert.NoError(t, g.authorizeJoin(ctx, super, "ghost"))

	user := &Principal{Role: RoleUser, AllowedVehicleIDs: map[string]struct{}{"V1": {}}}
	assert.NoError(t, g.authorizeJoin(ctx, user, "V1"))
	assert.Error(t, g.authorizeJoin(ctx, user, "V2"))
}

// A denied join must leave no room membership behind: the admin keeps
// receiving the broadcast feed for their own company but never the denied
// vehicle's room events.
func TestDeniedJoinLeavesNoMembership(t *testing.T) {
	registry := NewRegistry()
	g := newTestGateway(registry)
	router := NewRouter(registry)

	admin := addTestConn(registry, "admin", &Principal{UserID: "u1", Role: RoleAdmin, CompanyID: "C2"})

	// Same flow handleJoin runs after a denial: reply only, no joinRoom.
	err := g.authorizeJoin(context.Background(), admin.principal, "V1")
	require.Error(t, err)

	router.Publish(model.Event{
		Type: model.EventStarted,
		Session: model.VehicleSession{
			VehicleID: "V1",
			CompanyID: "C1",
		},
		Status:    model.StatusOn,
		Timestamp: time.Now(),
	})

	assert.Empty(t, registry.roomSnapshot("V1"))
	assert.Empty(t, drain(admin))
}
