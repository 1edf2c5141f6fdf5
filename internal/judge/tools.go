package judge

import "github.com/kaylum54/promptpit-sub001/internal/models"

// Category is a judged scoring dimension.
type Category string

const (
	CategoryAccuracy   Category = "accuracy"
	CategoryClarity    Category = "clarity"
	CategoryDepth      Category = "depth"
	CategoryCreativity Category = "creativity"
)

// Categories lists every scoring dimension in presentation order.
var Categories = []Category{CategoryAccuracy, CategoryClarity, CategoryDepth, CategoryCreativity}

const verdictToolName = "declare_winner"

type toolID int

const (
	toolUnknown toolID = iota
	toolScoreAccuracy
	toolScoreClarity
	toolScoreDepth
	toolScoreCreativity
	toolVerdict
)

// parseToolName maps a tool-call name onto the closed tool set. Anything
// outside the set is toolUnknown, never dispatched.
func parseToolName(name string) (toolID, Category) {
	switch name {
	case "score_accuracy":
		return toolScoreAccuracy, CategoryAccuracy
	case "score_clarity":
		return toolScoreClarity, CategoryClarity
	case "score_depth":
		return toolScoreDepth, CategoryDepth
	case "score_creativity":
		return toolScoreCreativity, CategoryCreativity
	case verdictToolName:
		return toolVerdict, ""
	default:
		return toolUnknown, ""
	}
}

// toolDefinitions builds the tool schemas advertised to the judge model: one
// scoring tool per category plus the verdict tool.
func toolDefinitions() []models.Tool {
	tools := make([]models.Tool, 0, len(Categories)+1)
	for _, cat := range Categories {
		tools = append(tools, models.Tool{
			Type: "function",
			Function: models.ToolFunction{
				Name:        "score_" + string(cat),
				Description: "Record a 1-10 " + string(cat) + " score for one model's response.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"model": map[string]any{
							"type":        "string",
							"description": "Key of the model being scored.",
						},
						"score": map[string]any{
							"type":        "integer",
							"minimum":     1,
							"maximum":     10,
							"description": "Score from 1 (worst) to 10 (best).",
						},
						"rationale": map[string]any{
							"type":        "string",
							"description": "One or two sentences justifying the score.",
						},
					},
					"required": []string{"model", "score", "rationale"},
				},
			},
		})
	}
	tools = append(tools, models.Tool{
		Type: "function",
		Function: models.ToolFunction{
			Name:        verdictToolName,
			Description: "Declare the winning model once every response has been scored.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"winner": map[string]any{
						"type":        "string",
						"description": "Key of the winning model.",
					},
					"verdict": map[string]any{
						"type":        "string",
						"description": "Short explanation of why this model won.",
					},
					"highlight": map[string]any{
						"type":        "string",
						"description": "The single best line from the winning response.",
					},
				},
				"required": []string{"winner", "verdict"},
			},
		},
	})
	return tools
}
