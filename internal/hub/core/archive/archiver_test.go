package archive

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/core/model"
)

type sinkSpy struct {
	mu     sync.Mutex
	events []model.Event
}

func (s *sinkSpy) Publish(e model.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

type storeStub struct {
	points []model.TrajectoryPoint
}

func (s *storeStub) Insert(context.Context, *model.TrajectoryPoint) error { return nil }

func (s *storeStub) FindBySession(_ context.Context, vehicleID, sessionID string) ([]model.TrajectoryPoint, error) {
	return s.points, nil
}

type archiveSpy struct {
	mu    sync.Mutex
	calls []string
}

func (a *archiveSpy) ArchiveTrace(_ context.Context, vehicleID, sessionID string, points []model.TrajectoryPoint, _ time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, vehicleID+"/"+sessionID)
	return nil
}

func (a *archiveSpy) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.calls)
}

func terminalEvent(t model.EventType) model.Event {
	return model.Event{
		Type: t,
		Session: model.VehicleSession{
			VehicleID: "truck-9",
			SessionID: "sess-1",
		},
		Timestamp: time.Now(),
	}
}

func TestSinkForwardsEveryEvent(t *testing.T) {
	next := &sinkSpy{}
	s := NewSink(next, &storeStub{}, &archiveSpy{})
	defer s.Close()

	s.Publish(terminalEvent(model.EventStarted))
	s.Publish(terminalEvent(model.EventLocation))
	s.Publish(terminalEvent(model.EventStopped))

	assert.Len(t, next.events, 3)
}

func TestSinkArchivesOnSessionEnd(t *testing.T) {
	archive := &archiveSpy{}
	store := &storeStub{points: []model.TrajectoryPoint{{VehicleID: "truck-9", SessionID: "sess-1"}}}
	s := NewSink(&sinkSpy{}, store, archive)

	s.Publish(terminalEvent(model.EventStopped))
	s.Publish(terminalEvent(model.EventTimedOut))
	s.Close()

	require.Equal(t, 2, archive.count())
}

func TestSinkSkipsEmptyTraces(t *testing.T) {
	archive := &archiveSpy{}
	s := NewSink(&sinkSpy{}, &storeStub{}, archive)

	s.Publish(terminalEvent(model.EventStopped))
	s.Close()

	assert.Equal(t, 0, archive.count())
}

func TestSinkIgnoresNonTerminalEvents(t *testing.T) {
	archive := &archiveSpy{}
	store := &storeStub{points: []model.TrajectoryPoint{{}}}
	s := NewSink(&sinkSpy{}, store, archive)

	s.Publish(terminalEvent(model.EventStarted))
	s.Publish(terminalEvent(model.EventLocation))
	s.Close()

	assert.Equal(t, 0, archive.count())
}
