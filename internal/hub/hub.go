package hub

import (
	"context"
	"time"

	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/core/archive"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/core/session"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/mongodb"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/server"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/pkg/log"
)

// HubServer owns the running hub and its shutdown order.
type HubServer struct {
	serverManager *server.Manager
	store         *mongodb.Store
	registry      *session.Registry
	archiveSink   *archive.Sink
}

// Run serves until ctx is cancelled, then tears down: ingress servers
// first, then heartbeat timers, then the archive queue, then the database
// connection.
func (s *HubServer) Run(ctx context.Context) error {
	err := s.serverManager.Start(ctx)

	log.Info("Shutting down, cancelling heartbeat timers...")
	s.registry.Close()

	if s.archiveSink != nil {
		log.Info("Draining trace archive queue...")
		s.archiveSink.Close()
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if closeErr := s.store.Close(closeCtx); closeErr != nil {
		log.Error(closeErr, "Failed to close mongodb connection")
	}

	return err
}
