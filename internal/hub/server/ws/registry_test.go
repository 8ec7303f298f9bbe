package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemoveDropsAllRoomMemberships(t *testing.T) {
	r := NewRegistry()
	addTestConn(r, "c1", &Principal{UserID: "u1", Role: RoleSuperAdmin})
	addTestConn(r, "c2", &Principal{UserID: "u2", Role: RoleSuperAdmin})

	r.joinRoom("c1", "V1")
	r.joinRoom("c1", "V2")
	r.joinRoom("c2", "V1")

	r.remove("c1")

	assert.Equal(t, 1, r.Len())
	members := r.roomSnapshot("V1")
	assert.Len(t, members, 1)
	assert.Equal(t, "c2", members[0].id)
	assert.Empty(t, r.roomSnapshot("V2"))
}

func TestLeaveRoomIsIdempotent(t *testing.T) {
	r := NewRegistry()
	addTestConn(r, "c1", &Principal{UserID: "u1", Role: RoleSuperAdmin})

	r.leaveRoom("c1", "V1")
	r.joinRoom("c1", "V1")
	r.leaveRoom("c1", "V1")
	r.leaveRoom("c1", "V1")

	assert.Empty(t, r.roomSnapshot("V1"))
}

func TestJoinRoomForUnknownConnectionIsIgnored(t *testing.T) {
	r := NewRegistry()
	r.joinRoom("ghost", "V1")
	assert.Empty(t, r.roomSnapshot("V1"))
}

func TestCanSeeVehicle(t *testing.T) {
	tests := []struct {
		name      string
		principal Principal
		vehicleID string
		companyID string
		want      bool
	}{
		{"super admin sees all", Principal{Role: RoleSuperAdmin}, "V9", "C9", true},
		{"admin same company", Principal{Role: RoleAdmin, CompanyID: "C1"}, "V1", "C1", true},
		{"admin other company", Principal{Role: RoleAdmin, CompanyID: "C1"}, "V1", "C2", false},
		{"admin without binding", Principal{Role: RoleAdmin}, "V1", "", false},
		{"user assigned", Principal{Role: RoleUser, AllowedVehicleIDs: map[string]struct{}{"V1": {}}}, "V1", "C1", true},
		{"user unassigned", Principal{Role: RoleUser, AllowedVehicleIDs: map[string]struct{}{"V1": {}}}, "V2", "C1", false},
		{"unknown role", Principal{Role: "AUDITOR"}, "V1", "C1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.principal.CanSeeVehicle(tt.vehicleID, tt.companyID))
		})
	}
}
