package events

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

// ErrQueueFull is returned by AsyncPublisher.Publish when the backlog is at
// capacity. The event is dropped.
var ErrQueueFull = errors.New("event queue full")

type queued struct {
	eventType string
	payload   []byte
	key       string
}

// AsyncPublisher moves delivery off the request path. Publish only enqueues;
// a single worker forwards events to the wrapped publisher, giving each one
// publishTimeout.
type AsyncPublisher struct {
	next  Publisher
	log   logrus.FieldLogger
	queue chan queued

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewAsyncPublisher(next Publisher, buffer int, log logrus.FieldLogger) *AsyncPublisher {
	p := &AsyncPublisher{
		next:  next,
		log:   log,
		queue: make(chan queued, buffer),
		done:  make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *AsyncPublisher) run() {
	defer close(p.done)
	for ev := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if err := p.next.Publish(ctx, ev.eventType, ev.payload, ev.key); err != nil {
			p.log.WithError(err).WithField("event", ev.eventType).Warn("deliver event")
		}
		cancel()
	}
}

func (p *AsyncPublisher) Publish(_ context.Context, eventType string, payload []byte, key string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return errors.New("publisher closed")
	}
	select {
	case p.queue <- queued{eventType: eventType, payload: payload, key: key}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting events, delivers the backlog and closes the wrapped
// publisher.
func (p *AsyncPublisher) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()
	<-p.done
	return p.next.Close()
}
