package debate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kaylum54/promptpit-sub001/internal/models"
	"github.com/kaylum54/promptpit-sub001/internal/observability"
	"github.com/kaylum54/promptpit-sub001/internal/store"
	"github.com/kaylum54/promptpit-sub001/internal/usage"
)

// ValidationError marks a request the client can fix.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Request is one debate round as submitted by a client.
type Request struct {
	Prompt         string               `json:"prompt"`
	Models         []string             `json:"models,omitempty"`
	Mode           string               `json:"mode,omitempty"`
	PreviousRounds []models.DebateRound `json:"previousRounds,omitempty"`
	RoundNumber    *int                 `json:"roundNumber,omitempty"`
}

// Controller validates debate requests, gates them on usage limits, fans them
// out through the multiplexer and emits the merged event stream.
type Controller struct {
	registry *models.Registry
	mux      *Multiplexer
	gate     *usage.Gate
	store    store.DebateStore
	metrics  *observability.Metrics
	logger   *logrus.Logger
}

// NewController wires a session controller. store may be nil when persistence
// is not configured.
func NewController(registry *models.Registry, mux *Multiplexer, gate *usage.Gate, debateStore store.DebateStore, metrics *observability.Metrics, logger *logrus.Logger) *Controller {
	if logger == nil {
		logger = logrus.New()
	}
	return &Controller{
		registry: registry,
		mux:      mux,
		gate:     gate,
		store:    debateStore,
		metrics:  metrics,
		logger:   logger,
	}
}

// Validate rejects malformed requests before any model is invoked. The first
// problem found is reported; nothing downstream runs on a rejected request.
func (c *Controller) Validate(req *Request) error {
	if strings.TrimSpace(req.Prompt) == "" {
		return &ValidationError{Message: "prompt is required"}
	}
	if req.Models != nil && len(req.Models) == 0 {
		return &ValidationError{Message: "models must name at least one participant"}
	}
	for _, k := range req.Models {
		if !c.registry.Has(k) {
			return &ValidationError{Message: fmt.Sprintf("unknown model key %q", k)}
		}
	}
	if req.Mode == "" {
		req.Mode = ModeDebate
	}
	if !ValidMode(req.Mode) {
		return &ValidationError{Message: fmt.Sprintf("unknown mode %q", req.Mode)}
	}
	for i, round := range req.PreviousRounds {
		if strings.TrimSpace(round.Prompt) == "" {
			return &ValidationError{Message: fmt.Sprintf("previousRounds[%d] is missing a prompt", i)}
		}
		if round.Responses == nil {
			return &ValidationError{Message: fmt.Sprintf("previousRounds[%d] is missing responses", i)}
		}
	}
	if req.RoundNumber != nil && *req.RoundNumber < 1 {
		return &ValidationError{Message: "roundNumber must be at least 1"}
	}
	return nil
}

// Authorize checks the user's monthly allowance. Guests pass with a nil
// profile; a *usage.LimitError means the caller must refuse before streaming.
func (c *Controller) Authorize(ctx context.Context, userID string) (*usage.Profile, error) {
	return c.gate.Check(ctx, userID)
}

// Run executes one validated, authorized debate round, forwarding each stream
// event to emit. emit returning false means the client is gone; the round is
// cancelled and no further events are produced. The returned error is only for
// failures before fan-out; per-model failures travel inside the stream.
func (c *Controller) Run(ctx context.Context, userID string, req *Request, emit func(Event) bool) error {
	participants, err := c.registry.Resolve(req.Models)
	if err != nil {
		return &ValidationError{Message: err.Error()}
	}

	messages := buildMessages(req.Mode, req.Prompt, req.PreviousRounds)

	roundNumber := 1
	if req.RoundNumber != nil {
		roundNumber = *req.RoundNumber
	}
	c.logger.WithFields(logrus.Fields{
		"user_id":      userID,
		"mode":         req.Mode,
		"participants": len(participants),
		"round":        roundNumber,
	}).Info("debate round started")
	if c.metrics != nil {
		c.metrics.DebatesStarted.Inc()
	}
	start := time.Now()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	responses := make(map[string]string, len(participants))
	errored := make(map[string]bool)
	terminals := 0

	events := c.mux.Run(runCtx, participants, messages)
	for ev := range events {
		switch ev.Type {
		case EventChunk:
			responses[ev.Model] += ev.Content
		case EventModelComplete:
			terminals++
		case EventError:
			terminals++
			errored[ev.Model] = true
			if c.metrics != nil {
				c.metrics.ModelErrors.WithLabelValues(ev.Model).Inc()
			}
		}
		if !emit(ev) {
			cancel()
			// Drain so the producer goroutines can finish.
			for range events {
			}
			return nil
		}
	}

	if terminals < len(participants) {
		// Cancelled mid-round; the aggregate would be a lie.
		return nil
	}

	final := make(map[string]string, len(participants))
	for _, p := range participants {
		if errored[p.Key] {
			final[p.Key] = ""
		} else {
			final[p.Key] = responses[p.Key]
		}
	}
	emit(Event{Type: EventAllComplete, Responses: final})

	if c.metrics != nil {
		c.metrics.DebatesCompleted.Inc()
		c.metrics.StreamDuration.Observe(time.Since(start).Seconds())
	}

	if userID != "" {
		c.gate.Record(ctx, userID)
		c.persist(userID, req, final, roundNumber)
	}
	return nil
}

// persist saves the finished round without blocking or failing the response.
func (c *Controller) persist(userID string, req *Request, responses map[string]string, roundNumber int) {
	if c.store == nil {
		return
	}
	rec := store.DebateRecord{
		ID:          uuid.NewString(),
		UserID:      userID,
		Prompt:      req.Prompt,
		Mode:        req.Mode,
		Responses:   responses,
		RoundNumber: roundNumber,
		CreatedAt:   time.Now().UTC(),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.store.SaveDebate(ctx, rec); err != nil {
		c.logger.WithFields(logrus.Fields{"user_id": userID, "error": err}).Warn("debate persistence failed")
	}
}
