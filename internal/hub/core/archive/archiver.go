package archive

import (
	"context"
	"sync"
	"time"

	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/core"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/core/model"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/pkg/log"
)

// Sink decorates another event sink with trace archival: when a session
// ends, its persisted trajectory is read back and uploaded to object
// storage. Uploads run on a single background worker so Publish stays
// non-blocking; a full queue drops the archival job, never the event.
type Sink struct {
	next         core.EventSink
	trajectories core.TrajectoryStore
	archive      core.TraceArchive

	jobs chan archiveJob
	wg   sync.WaitGroup
	once sync.Once
}

type archiveJob struct {
	vehicleID string
	sessionID string
	endedAt   time.Time
}

func NewSink(next core.EventSink, trajectories core.TrajectoryStore, archive core.TraceArchive) *Sink {
	s := &Sink{
		next:         next,
		trajectories: trajectories,
		archive:      archive,
		jobs:         make(chan archiveJob, 64),
	}
	s.wg.Add(1)
	go s.worker()
	return s
}

// Publish forwards the event and, for session-ending events, enqueues an
// archival job.
func (s *Sink) Publish(event model.Event) {
	s.next.Publish(event)

	if event.Type != model.EventStopped && event.Type != model.EventTimedOut {
		return
	}

	job := archiveJob{
		vehicleID: event.Session.VehicleID,
		sessionID: event.Session.SessionID,
		endedAt:   event.Timestamp,
	}
	select {
	case s.jobs <- job:
	default:
		log.Warn("Archive queue full, skipping trace", "vehicleID", job.vehicleID, "sessionID", job.sessionID)
	}
}

// Close drains pending jobs and stops the worker.
func (s *Sink) Close() {
	s.once.Do(func() {
		close(s.jobs)
	})
	s.wg.Wait()
}

func (s *Sink) worker() {
	defer s.wg.Done()
	for job := range s.jobs {
		s.run(job)
	}
}

func (s *Sink) run(job archiveJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	points, err := s.trajectories.FindBySession(ctx, job.vehicleID, job.sessionID)
	if err != nil {
		log.Error(err, "Failed to load trajectory for archival", "vehicleID", job.vehicleID, "sessionID", job.sessionID)
		return
	}
	if len(points) == 0 {
		// Sessions with no location reports leave nothing worth archiving.
		return
	}

	if err := s.archive.ArchiveTrace(ctx, job.vehicleID, job.sessionID, points, job.endedAt); err != nil {
		log.Error(err, "Failed to archive session trace", "vehicleID", job.vehicleID, "sessionID", job.sessionID)
	}
}
