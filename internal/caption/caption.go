// Package caption produces a one-line description of a finished
// aggregation using the OpenAI API. Captions are decoration: callers log
// failures and move on.
package caption

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/mhutcheson/raingrid/internal/accum"
)

type Generator struct {
	client openai.Client
	model  openai.ChatModel
}

// NewGenerator reads the OPENAI_API_KEY environment variable for
// authentication.
func NewGenerator() (*Generator, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &Generator{
		client: client,
		model:  openai.ChatModelGPT4oMini,
	}, nil
}

// Describe returns a single-sentence caption for a day's aggregate.
func (g *Generator) Describe(ctx context.Context, category, date string, s accum.Summary, units string) (string, error) {
	prompt := fmt.Sprintf(
		"Write one short caption (no more than 20 words) for a map of accumulated %s on %s. "+
			"Peak cell accumulation was %.1f %s across %d wet grid cells. "+
			"Plain descriptive tone, no exclamation marks.",
		strings.ReplaceAll(category, "_", " "), date, s.Max, units, s.WetCells,
	)

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("caption generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no caption returned")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
