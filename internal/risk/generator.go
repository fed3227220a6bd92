package risk

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/warranty-cli/pkg/anthropic"
)

// ClaudeGenerator adapts the Anthropic client to the TextGenerator
// capability. One message per Generate call, no conversation state, no
// retries: callers degrade to the fallback estimate on failure.
type ClaudeGenerator struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewClaudeGenerator creates a generator backed by the given client and model.
func NewClaudeGenerator(client anthropic.Client, modelID string, maxTokens int64) *ClaudeGenerator {
	return &ClaudeGenerator{client: client, model: modelID, maxTokens: maxTokens}
}

func (g *ClaudeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     g.model,
		MaxTokens: g.maxTokens,
		Messages: []anthropic.Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "risk: create message")
	}

	resp.Usage.LogCost(g.model, "risk_estimate")

	var parts []string
	for _, block := range resp.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	text := strings.Join(parts, "\n")
	if strings.TrimSpace(text) == "" {
		return "", eris.New("risk: empty response from model")
	}
	return text, nil
}
