package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kaylum54/promptpit-sub001/internal/gateway"
	"github.com/kaylum54/promptpit-sub001/internal/models"
)

const (
	defaultJudgeModel = "anthropic/claude-sonnet-4"
	defaultMaxTurns   = 12
)

// Invoker is the non-streaming gateway surface the judge drives its tool loop
// through.
type Invoker interface {
	Complete(ctx context.Context, modelID string, messages []models.Message, tools []models.Tool) (*gateway.Completion, error)
}

// Score is one recorded category score.
type Score struct {
	Score     int    `json:"score"`
	Rationale string `json:"rationale"`
}

// Verdict is the judge's final ruling.
type Verdict struct {
	Winner    string `json:"winner"`
	Verdict   string `json:"verdict"`
	Highlight string `json:"highlight,omitempty"`
}

// ToolCallEvent announces a tool invocation before its effect is applied.
type ToolCallEvent struct {
	Type  string          `json:"type"`
	Tool  string          `json:"tool"`
	Input json.RawMessage `json:"input"`
}

// ScoringEvent is one accepted score.
type ScoringEvent struct {
	Type      string   `json:"type"`
	Model     string   `json:"model"`
	Category  Category `json:"category"`
	Score     int      `json:"score"`
	Rationale string   `json:"rationale,omitempty"`
}

// VerdictEvent carries the ruling, whether declared or synthesized.
type VerdictEvent struct {
	Type      string `json:"type"`
	Winner    string `json:"winner"`
	Verdict   string `json:"verdict"`
	Highlight string `json:"highlight,omitempty"`
}

// CompleteEvent is the terminal event of every judge session, emitted on
// success, truncation and error alike.
type CompleteEvent struct {
	Type      string                        `json:"type"`
	Scores    map[string]map[Category]Score `json:"scores"`
	Verdict   *Verdict                      `json:"verdict"`
	Truncated bool                          `json:"truncated,omitempty"`
}

// Controller runs the judging tool loop against a single judge model.
type Controller struct {
	invoker  Invoker
	model    string
	maxTurns int
	logger   *logrus.Logger
}

// NewController creates a judge controller. Empty model and non-positive
// maxTurns select defaults.
func NewController(invoker Invoker, model string, maxTurns int, logger *logrus.Logger) *Controller {
	if model == "" {
		model = defaultJudgeModel
	}
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Controller{invoker: invoker, model: model, maxTurns: maxTurns, logger: logger}
}

type scoreArgs struct {
	Model     string `json:"model"`
	Score     int    `json:"score"`
	Rationale string `json:"rationale"`
}

// Run judges the given responses to prompt, forwarding each event to emit.
// emit returning false abandons the session without a complete event, since
// nobody is listening. Every other path ends with exactly one CompleteEvent,
// which is also returned.
func (c *Controller) Run(ctx context.Context, prompt string, responses map[string]string, emit func(any) bool) *CompleteEvent {
	scores := make(map[string]map[Category]Score)
	var order []string
	var verdict *Verdict
	truncated := false
	var loopErr error

	history := []models.Message{
		{Role: models.RoleSystem, Content: judgeSystemPrompt()},
		{Role: models.RoleUser, Content: renderResponses(prompt, responses)},
	}
	tools := toolDefinitions()

	finish := func() *CompleteEvent {
		if verdict == nil && len(order) > 0 {
			verdict = synthesizeVerdict(scores, order)
			c.logger.WithField("winner", verdict.Winner).Info("verdict synthesized from scores")
			if !emit(VerdictEvent{Type: "verdict", Winner: verdict.Winner, Verdict: verdict.Verdict}) {
				return nil
			}
		}
		if verdict == nil {
			if loopErr != nil {
				verdict = &Verdict{Winner: "unknown", Verdict: "Judging ended early due to an error: " + loopErr.Error()}
			} else {
				verdict = &Verdict{Winner: "unknown", Verdict: "Unable to determine a winner."}
			}
		}
		complete := &CompleteEvent{Type: "complete", Scores: scores, Verdict: verdict, Truncated: truncated}
		emit(*complete)
		return complete
	}

	for turn := 0; ; turn++ {
		if turn >= c.maxTurns {
			truncated = true
			c.logger.WithField("max_turns", c.maxTurns).Warn("judge loop exceeded turn limit")
			break
		}

		completion, err := c.invoker.Complete(ctx, c.model, history, tools)
		if err != nil {
			c.logger.WithError(err).Warn("judge invocation failed")
			loopErr = err
			break
		}
		if len(completion.ToolCalls) == 0 {
			break
		}

		for _, tc := range completion.ToolCalls {
			id, category := parseToolName(tc.Function.Name)
			args := []byte(tc.Function.Arguments)

			switch id {
			case toolVerdict:
				var v Verdict
				if err := json.Unmarshal(args, &v); err != nil || v.Winner == "" {
					c.logger.WithField("tool", tc.Function.Name).Warn("judge sent malformed verdict arguments")
					continue
				}
				if !emit(ToolCallEvent{Type: "tool_call", Tool: tc.Function.Name, Input: args}) {
					return nil
				}
				if verdict == nil {
					verdict = &v
					if !emit(VerdictEvent{Type: "verdict", Winner: v.Winner, Verdict: v.Verdict, Highlight: v.Highlight}) {
						return nil
					}
				}
			case toolUnknown:
				c.logger.WithField("tool", tc.Function.Name).Warn("judge called unknown tool")
				continue
			default:
				var sa scoreArgs
				if err := json.Unmarshal(args, &sa); err != nil || sa.Model == "" {
					c.logger.WithField("tool", tc.Function.Name).Warn("judge sent malformed score arguments")
					continue
				}
				if !emit(ToolCallEvent{Type: "tool_call", Tool: tc.Function.Name, Input: args}) {
					return nil
				}
				if scores[sa.Model] == nil {
					scores[sa.Model] = make(map[Category]Score)
					order = append(order, sa.Model)
				}
				scores[sa.Model][category] = Score{Score: sa.Score, Rationale: sa.Rationale}
				if !emit(ScoringEvent{Type: "scoring", Model: sa.Model, Category: category, Score: sa.Score, Rationale: sa.Rationale}) {
					return nil
				}
			}

			history = append(history,
				models.Message{Role: models.RoleAssistant, ToolCalls: []models.ToolCall{tc}},
				models.Message{Role: models.RoleTool, ToolCallID: tc.ID, Content: "recorded"},
			)
		}

		if verdict != nil {
			break
		}
	}

	return finish()
}

// synthesizeVerdict picks the highest total score. Ties go to the model the
// judge scored first, which keeps the result deterministic.
func synthesizeVerdict(scores map[string]map[Category]Score, order []string) *Verdict {
	winner := ""
	best := -1
	for _, model := range order {
		total := 0
		for _, s := range scores[model] {
			total += s.Score
		}
		if total > best {
			best = total
			winner = model
		}
	}
	return &Verdict{
		Winner:  winner,
		Verdict: fmt.Sprintf("%s scored highest overall (%d points across judged categories).", winner, best),
	}
}

func judgeSystemPrompt() string {
	cats := make([]string, len(Categories))
	for i, c := range Categories {
		cats[i] = string(c)
	}
	return "You are an impartial judge in a debate between AI models. " +
		"Score every response on " + strings.Join(cats, ", ") + " using the " +
		"scoring tools, one tool call per model per category, then declare a " +
		"winner with " + verdictToolName + ". Use only the tools provided."
}

// renderResponses formats the debate transcript for the judge. Keys are sorted
// so the judge sees a stable ordering.
func renderResponses(prompt string, responses map[string]string) string {
	keys := make([]string, 0, len(responses))
	for k := range responses {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("Debate prompt: " + prompt + "\n")
	for _, k := range keys {
		fmt.Fprintf(&sb, "\n--- %s ---\n%s\n", k, responses[k])
	}
	return sb.String()
}
