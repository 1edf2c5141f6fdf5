package debate

// EventType enumerates the client-visible stream events.
type EventType string

const (
	EventChunk         EventType = "chunk"
	EventModelComplete EventType = "model_complete"
	EventError         EventType = "error"
	EventAllComplete   EventType = "all_complete"
)

// Latency carries per-model timing in milliseconds. TTFT falls back to Total
// when a model never produced content.
type Latency struct {
	TTFT  int64 `json:"ttft"`
	Total int64 `json:"total"`
}

// Event is one self-describing item of the multiplexed debate stream. Model
// tags the originating participant; it is empty only on whole-request errors
// and on the aggregate event.
type Event struct {
	Type      EventType         `json:"type"`
	Model     string            `json:"model,omitempty"`
	Content   string            `json:"content,omitempty"`
	Error     string            `json:"error,omitempty"`
	Latency   *Latency          `json:"latency,omitempty"`
	Responses map[string]string `json:"responses,omitempty"`
}
