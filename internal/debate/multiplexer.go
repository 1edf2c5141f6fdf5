package debate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kaylum54/promptpit-sub001/internal/gateway"
	"github.com/kaylum54/promptpit-sub001/internal/models"
)

const defaultIdleTimeout = 60 * time.Second

// StreamGateway is the streaming surface of the model gateway the multiplexer
// fans out to.
type StreamGateway interface {
	CompleteStream(ctx context.Context, modelID string, messages []models.Message) (<-chan gateway.StreamDelta, error)
}

// Multiplexer runs one streaming call per participant concurrently and merges
// the token streams into a single event sequence tagged by model key. One
// participant's failure never affects its siblings.
type Multiplexer struct {
	gateway     StreamGateway
	idleTimeout time.Duration
	logger      *logrus.Logger
}

// NewMultiplexer creates a multiplexer. idleTimeout bounds how long a single
// stream may go without producing output before it is treated as stalled;
// zero selects the default.
func NewMultiplexer(gw StreamGateway, idleTimeout time.Duration, logger *logrus.Logger) *Multiplexer {
	if idleTimeout <= 0 {
		idleTimeout = defaultIdleTimeout
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Multiplexer{gateway: gw, idleTimeout: idleTimeout, logger: logger}
}

// Run starts every participant's stream without waiting for the others and
// returns the merged event channel. The channel carries chunk events in
// per-model provider order, exactly one terminal event (model_complete or
// error) per participant, and closes once every participant has terminated.
// Cancelling ctx cancels all in-flight streams.
func (m *Multiplexer) Run(ctx context.Context, participants []models.ModelDescriptor, messages []models.Message) <-chan Event {
	out := make(chan Event, 64)

	var wg sync.WaitGroup
	for _, p := range participants {
		wg.Add(1)
		go func(d models.ModelDescriptor) {
			defer wg.Done()
			m.runStream(ctx, d, messages, out)
		}(p)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}

// runStream consumes one participant's token stream. Every return path has
// emitted exactly one terminal event, except caller cancellation where nobody
// is left to read it.
func (m *Multiplexer) runStream(ctx context.Context, d models.ModelDescriptor, messages []models.Message, out chan<- Event) {
	start := time.Now()

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	deltas, err := m.gateway.CompleteStream(streamCtx, d.ProviderModelID, messages)
	if err != nil {
		m.logger.WithFields(logrus.Fields{"model": d.Key, "error": err}).Warn("model stream failed to start")
		send(ctx, out, Event{Type: EventError, Model: d.Key, Error: err.Error()})
		return
	}

	var firstToken time.Duration
	idle := time.NewTimer(m.idleTimeout)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-idle.C:
			cancel()
			m.logger.WithField("model", d.Key).Warn("model stream stalled")
			send(ctx, out, Event{
				Type:  EventError,
				Model: d.Key,
				Error: fmt.Sprintf("model produced no output for %s", m.idleTimeout),
			})
			return
		case delta, ok := <-deltas:
			if !ok {
				total := time.Since(start)
				ttft := firstToken
				if ttft == 0 {
					ttft = total
				}
				send(ctx, out, Event{
					Type:    EventModelComplete,
					Model:   d.Key,
					Latency: &Latency{TTFT: ttft.Milliseconds(), Total: total.Milliseconds()},
				})
				return
			}
			if delta.Err != nil {
				m.logger.WithFields(logrus.Fields{"model": d.Key, "error": delta.Err}).Warn("model stream failed")
				send(ctx, out, Event{Type: EventError, Model: d.Key, Error: delta.Err.Error()})
				return
			}

			if firstToken == 0 {
				firstToken = time.Since(start)
			}
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(m.idleTimeout)

			if !send(ctx, out, Event{Type: EventChunk, Model: d.Key, Content: delta.Content}) {
				return
			}
		}
	}
}

func send(ctx context.Context, out chan<- Event, ev Event) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
