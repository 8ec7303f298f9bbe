package core

import (
	"context"
	"time"

	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/core/model"
)

// VehicleDirectory resolves vehicle ids to their directory records.
// Implemented by the MongoDB adapter; the CRUD surface that maintains the
// records lives outside this service.
type VehicleDirectory interface {
	// Get returns the vehicle record, or model.ErrNotFound.
	Get(ctx context.Context, vehicleID string) (*model.Vehicle, error)
}

// CompanyDirectory resolves company ids and admin users to companies.
type CompanyDirectory interface {
	// Get returns the company record, or model.ErrNotFound.
	Get(ctx context.Context, companyID string) (*model.Company, error)

	// GetByAdmin returns the company an admin user belongs to, or
	// model.ErrNotFound if the user administers no company.
	GetByAdmin(ctx context.Context, userID string) (*model.Company, error)
}

// TrajectoryStore is the append-only persistence for location points.
type TrajectoryStore interface {
	// Insert appends one point.
	Insert(ctx context.Context, point *model.TrajectoryPoint) error

	// FindBySession returns every point of one session in insertion order.
	// Used by the trace archiver when a session ends.
	FindBySession(ctx context.Context, vehicleID, sessionID string) ([]model.TrajectoryPoint, error)
}

// EventSink receives domain events from the session registry.
//
// Publish is called on the registry's per-vehicle mutation path and MUST NOT
// block: implementations queue and return. Per-vehicle event order must be
// preserved by the implementation.
type EventSink interface {
	Publish(event model.Event)
}

// TraceArchive stores the full trajectory of a completed session.
type TraceArchive interface {
	// ArchiveTrace writes the trace object for the given session.
	ArchiveTrace(ctx context.Context, vehicleID, sessionID string, points []model.TrajectoryPoint, endedAt time.Time) error
}
