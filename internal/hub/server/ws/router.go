package ws

import (
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/core/model"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/pkg/metrics"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/pkg/log"
)

// Router turns domain events into wire frames and delivers them. Each state
// change fans out twice: a filtered broadcast for the dashboard-wide feed,
// and a room delivery for detail views that joined the vehicle. Delivery
// only enqueues onto per-connection buffers, so Publish is safe to call
// from the session registry's mutation path.
type Router struct {
	registry *Registry
}

func NewRouter(registry *Registry) *Router {
	return &Router{registry: registry}
}

// Publish implements the event sink.
func (r *Router) Publish(event model.Event) {
	switch event.Type {
	case model.EventStarted:
		r.broadcastFiltered(EventVehicleStatus, newStatusPayload(event), event)
		r.deliverRoom(EventVehicleStarted, newStatusPayload(event), event.Session.VehicleID)
	case model.EventStopped, model.EventTimedOut:
		r.broadcastFiltered(EventVehicleStatus, newStatusPayload(event), event)
		r.deliverRoom(EventVehicleStopped, newStatusPayload(event), event.Session.VehicleID)
	case model.EventLocation:
		r.broadcastFiltered(EventVehicleGPS, newGPSPayload(event), event)
		r.deliverRoom(EventGPSUpdate, newGPSRoomPayload(event), event.Session.VehicleID)
	case model.EventBrokerError:
		r.broadcastSuperAdmin(event)
	}
}

// broadcastFiltered delivers to every connection that passes the
// role/company/assignment filter.
func (r *Router) broadcastFiltered(name string, payload any, event model.Event) {
	frame, err := encodeFrame(name, payload)
	if err != nil {
		log.Error(err, "Failed to encode event frame", "event", name)
		return
	}

	vehicleID := event.Session.VehicleID
	companyID := event.Session.CompanyID
	for _, c := range r.registry.snapshot() {
		if !c.principal.CanSeeVehicle(vehicleID, companyID) {
			continue
		}
		if c.trySend(frame) {
			metrics.EventsDelivered.WithLabelValues(name).Inc()
		}
	}
}

// deliverRoom delivers to the vehicle's room members. Membership already
// enforced authorization at join time.
func (r *Router) deliverRoom(name string, payload any, vehicleID string) {
	members := r.registry.roomSnapshot(vehicleID)
	if len(members) == 0 {
		return
	}

	frame, err := encodeFrame(name, payload)
	if err != nil {
		log.Error(err, "Failed to encode event frame", "event", name)
		return
	}
	for _, c := range members {
		if c.trySend(frame) {
			metrics.EventsDelivered.WithLabelValues(name).Inc()
		}
	}
}

func (r *Router) broadcastSuperAdmin(event model.Event) {
	frame, err := encodeFrame(EventMQTTError, errorPayload{
		Message:   event.Reason,
		Timestamp: event.Timestamp,
	})
	if err != nil {
		log.Error(err, "Failed to encode event frame", "event", EventMQTTError)
		return
	}

	for _, c := range r.registry.snapshot() {
		if c.principal.Role != RoleSuperAdmin {
			continue
		}
		if c.trySend(frame) {
			metrics.EventsDelivered.WithLabelValues(EventMQTTError).Inc()
		}
	}
}
