package aura

import (
	"context"
	"sync"
	"sync/atomic"
)

// auditEventTypes are the lifecycle events the Engine emits. Drops are counted
// per type; anything else lands in the trailing "other" slot.
var auditEventTypes = [...]string{
	auditEventSessionRestore,
	auditEventLoginSuccess,
	auditEventLoginFailure,
	auditEventLogout,
}

const auditEventOther = "other"

// auditDispatcher hands events to the sink from a single worker so sinks never
// run on the login or logout path.
type auditDispatcher struct {
	sink       AuditSink
	dropIfFull bool
	queue      chan AuditEvent
	drained    chan struct{}

	// mu orders sends against close(queue).
	mu     sync.RWMutex
	closed bool

	drops [len(auditEventTypes) + 1]atomic.Uint64
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	size := cfg.BufferSize
	if size <= 0 {
		size = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &auditDispatcher{
		sink:       sink,
		dropIfFull: cfg.DropIfFull,
		queue:      make(chan AuditEvent, size),
		drained:    make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *auditDispatcher) run() {
	defer close(d.drained)
	for event := range d.queue {
		d.sink.Emit(context.Background(), event)
	}
}

// Emit queues event. With dropIfFull a full queue drops the event; otherwise
// Emit waits for room or for ctx to end. Either kind of loss is counted under
// the event's type. Events emitted after Close are ignored.
func (d *auditDispatcher) Emit(ctx context.Context, event AuditEvent) {
	if d == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	if d.dropIfFull {
		select {
		case d.queue <- event:
		default:
			d.countDrop(event.EventType)
		}
		return
	}

	select {
	case d.queue <- event:
	case <-ctx.Done():
		d.countDrop(event.EventType)
	}
}

func (d *auditDispatcher) countDrop(eventType string) {
	for i, t := range auditEventTypes {
		if t == eventType {
			d.drops[i].Add(1)
			return
		}
	}
	d.drops[len(auditEventTypes)].Add(1)
}

// Close stops intake, lets the worker deliver what is queued and waits for it.
// Safe to call more than once.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	<-d.drained
}

// Dropped returns the total number of lost events.
func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	var total uint64
	for i := range d.drops {
		total += d.drops[i].Load()
	}
	return total
}

// DroppedByEvent returns lost events keyed by event type. Every lifecycle type
// is present; "other" only when non-zero.
func (d *auditDispatcher) DroppedByEvent() map[string]uint64 {
	if d == nil {
		return nil
	}
	out := make(map[string]uint64, len(d.drops))
	for i, t := range auditEventTypes {
		out[t] = d.drops[i].Load()
	}
	if n := d.drops[len(auditEventTypes)].Load(); n > 0 {
		out[auditEventOther] = n
	}
	return out
}
