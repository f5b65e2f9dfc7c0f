// Package cleanup deletes stored attachments in the background. Deletion
// is best-effort: failures are logged and counted, never returned.
package cleanup

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/justsurfingit/Job-Application-Portal/internal/metrics"
)

type Deleter interface {
	Delete(ref string) error
}

type Queue struct {
	deleter  Deleter
	log      logrus.FieldLogger
	refs     chan string
	done     chan struct{}
	mu       sync.RWMutex
	closed   bool
	failures atomic.Int64
}

// NewQueue starts the worker. size bounds how many references may wait.
func NewQueue(deleter Deleter, log logrus.FieldLogger, size int) *Queue {
	if size <= 0 {
		size = 64
	}
	q := &Queue{
		deleter: deleter,
		log:     log.WithField("component", "cleanup"),
		refs:    make(chan string, size),
		done:    make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *Queue) run() {
	defer close(q.done)
	for ref := range q.refs {
		q.delete(ref)
	}
}

func (q *Queue) delete(ref string) {
	if err := q.deleter.Delete(ref); err != nil {
		q.failures.Add(1)
		metrics.RecordCleanupFailure()
		q.log.WithError(err).WithField("ref", ref).Warn("failed to delete attachment")
		return
	}
	q.log.WithField("ref", ref).Debug("attachment deleted")
}

// Enqueue schedules refs for deletion. Empty refs are skipped. When the
// buffer is full or the queue is closed the deletion runs inline.
func (q *Queue) Enqueue(refs ...string) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if q.closed {
			q.delete(ref)
			continue
		}
		select {
		case q.refs <- ref:
		default:
			q.delete(ref)
		}
	}
}

// Close stops intake and waits until every queued deletion has run.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.refs)
	}
	q.mu.Unlock()
	<-q.done
}

func (q *Queue) Failures() int64 {
	return q.failures.Load()
}
