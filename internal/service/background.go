package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"codeclive/internal/model"
)

type job struct {
	op     string
	roomID string
	run    func(ctx context.Context) error
}

// worker runs best-effort jobs in submission order on one goroutine.
// Submitting never blocks: a full queue drops the job.
type worker struct {
	name    string
	jobs    chan job
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func newWorker(name string, size int, timeout time.Duration) *worker {
	if size <= 0 {
		size = 256
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	w := &worker{
		name:    name,
		jobs:    make(chan job, size),
		timeout: timeout,
	}
	w.wg.Add(1)
	go w.loop()
	return w
}

func (w *worker) submit(j job) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return false
	}
	select {
	case w.jobs <- j:
		return true
	default:
		log.Warn().Str("module", w.name).Str("room", j.roomID).Str("op", j.op).Msg("queue full, dropping job")
		return false
	}
}

func (w *worker) loop() {
	defer w.wg.Done()
	for j := range w.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		if err := j.run(ctx); err != nil {
			log.Warn().Err(err).Str("module", w.name).Str("room", j.roomID).Str("op", j.op).Msg("background write failed")
		}
		cancel()
	}
}

// close stops accepting jobs and waits for the queue to drain
func (w *worker) close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.jobs)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

// Mirror copies session changes to the gateway without blocking the relay
type Mirror struct {
	gateway SessionGateway
	w       *worker
}

// NewMirror starts a mirror writing to gateway
func NewMirror(gateway SessionGateway, queueSize int, timeout time.Duration) *Mirror {
	return &Mirror{
		gateway: gateway,
		w:       newWorker("mirror", queueSize, timeout),
	}
}

func (m *Mirror) Created(rec *model.LiveRoomRecord) {
	if m == nil {
		return
	}
	m.w.submit(job{op: "create", roomID: rec.ID, run: func(ctx context.Context) error {
		_, err := m.gateway.Create(ctx, rec)
		return err
	}})
}

func (m *Mirror) Updated(roomID string, patch *model.LiveRoomPatch) {
	if m == nil || patch == nil || patch.IsEmpty() {
		return
	}
	m.w.submit(job{op: "update", roomID: roomID, run: func(ctx context.Context) error {
		_, err := m.gateway.Update(ctx, roomID, patch)
		return err
	}})
}

// Delete removes the record after every write queued before it and waits
// for the result. The wait is bounded by ctx; the delete itself stays queued.
func (m *Mirror) Delete(ctx context.Context, roomID string) error {
	done := make(chan error, 1)
	queued := m.w.submit(job{op: "delete", roomID: roomID, run: func(jctx context.Context) error {
		err := m.gateway.Delete(jctx, roomID)
		done <- err
		return err
	}})
	if !queued {
		return m.gateway.Delete(ctx, roomID)
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("delete %s: %w", roomID, ctx.Err())
	}
}

// Close flushes pending writes
func (m *Mirror) Close() {
	if m == nil {
		return
	}
	m.w.close()
}

// AuditLog appends "<actor> did <action>" entries to a sink in the background
type AuditLog struct {
	sink AuditSink
	w    *worker
}

// NewAuditLog starts an audit log writing to sink
func NewAuditLog(sink AuditSink, queueSize int, timeout time.Duration) *AuditLog {
	return &AuditLog{
		sink: sink,
		w:    newWorker("audit", queueSize, timeout),
	}
}

func (a *AuditLog) Record(roomID, actor, action string) {
	if a == nil {
		return
	}
	entry := &model.AuditEntry{
		ID:      uuid.New().String(),
		RoomID:  roomID,
		Actor:   actor,
		Message: fmt.Sprintf("%s did %s", actor, action),
		At:      time.Now().UTC(),
	}
	a.w.submit(job{op: "append", roomID: roomID, run: func(ctx context.Context) error {
		return a.sink.Append(ctx, entry)
	}})
}

// Close flushes pending entries
func (a *AuditLog) Close() {
	if a == nil {
		return
	}
	a.w.close()
}
