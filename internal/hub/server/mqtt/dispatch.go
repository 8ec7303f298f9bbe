package mqtt

import (
	"context"
	"hash/fnv"
	"sync"
)

// dispatcher serializes report processing per vehicle while letting
// different vehicles proceed in parallel. Reports are hashed by vehicle id
// onto a fixed set of worker goroutines, each draining its own queue in
// arrival order, so two reports for one vehicle can never race.
type dispatcher struct {
	ctx    context.Context
	shards []chan job
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

type job struct {
	vehicleID string
	run       func(ctx context.Context)
}

func newDispatcher(ctx context.Context, shardCount, queueDepth int) *dispatcher {
	d := &dispatcher{
		ctx:    ctx,
		shards: make([]chan job, shardCount),
	}
	for i := range d.shards {
		d.shards[i] = make(chan job, queueDepth)
		d.wg.Add(1)
		go d.worker(d.shards[i])
	}
	return d
}

// submit blocks when the vehicle's shard queue is full; backpressure
// propagates to the broker receive loop instead of dropping reports.
// After close, reports are dropped.
func (d *dispatcher) submit(vehicleID string, run func(ctx context.Context)) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	h := fnv.New32a()
	h.Write([]byte(vehicleID))
	shard := d.shards[h.Sum32()%uint32(len(d.shards))]
	shard <- job{vehicleID: vehicleID, run: run}
}

func (d *dispatcher) worker(queue chan job) {
	defer d.wg.Done()
	for j := range queue {
		j.run(d.ctx)
	}
}

// close stops the workers after their queues drain. Safe to call more
// than once.
func (d *dispatcher) close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	for _, shard := range d.shards {
		close(shard)
	}
	d.wg.Wait()
}
