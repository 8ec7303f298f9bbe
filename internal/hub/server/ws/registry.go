package ws

import (
	"sync"

	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/pkg/metrics"
)

// Registry tracks live connections and their per-vehicle room memberships.
// Delivery snapshots the relevant connection set under the read lock and
// writes frames outside it, so connects and disconnects never race a
// fan-out iteration.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*connection
	// rooms maps vehicleID -> connectionID -> connection.
	rooms map[string]map[string]*connection
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*connection),
		rooms: make(map[string]map[string]*connection),
	}
}

func (r *Registry) add(c *connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c.id] = c
	metrics.ConnectedClients.Set(float64(len(r.conns)))
}

// remove drops the connection and every room membership it held.
func (r *Registry) remove(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.conns, connectionID)
	for vehicleID, members := range r.rooms {
		delete(members, connectionID)
		if len(members) == 0 {
			delete(r.rooms, vehicleID)
		}
	}
	metrics.ConnectedClients.Set(float64(len(r.conns)))
}

func (r *Registry) joinRoom(connectionID, vehicleID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conns[connectionID]
	if !ok {
		return
	}
	members, ok := r.rooms[vehicleID]
	if !ok {
		members = make(map[string]*connection)
		r.rooms[vehicleID] = members
	}
	members[connectionID] = c
}

func (r *Registry) leaveRoom(connectionID, vehicleID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[vehicleID]
	if !ok {
		return
	}
	delete(members, connectionID)
	if len(members) == 0 {
		delete(r.rooms, vehicleID)
	}
}

// snapshot returns all live connections.
func (r *Registry) snapshot() []*connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*connection, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}

// roomSnapshot returns the current members of one vehicle room.
func (r *Registry) roomSnapshot(vehicleID string) []*connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[vehicleID]
	out := make([]*connection, 0, len(members))
	for _, c := range members {
		out = append(out, c)
	}
	return out
}

// Len returns the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
