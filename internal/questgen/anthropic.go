package questgen

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"gopkg.in/yaml.v3"

	"github.com/sidequest-dev/sidequest/internal/model"
)

// AnthropicGenerator asks a model for fresh quest ideas, seeded so two
// devices on the same day ask the same question. Any failure falls back
// to the static pool; quest generation must work on a plane.
type AnthropicGenerator struct {
	client   anthropic.Client
	fallback Generator
	model    anthropic.Model
	logger   *log.Logger
}

// NewAnthropic creates an AnthropicGenerator. fallback is required and
// is used whenever the API call or response parsing fails.
func NewAnthropic(apiKey string, fallback Generator, logger *log.Logger) (*AnthropicGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key cannot be empty")
	}
	if fallback == nil {
		return nil, fmt.Errorf("fallback generator cannot be nil")
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[questgen] ", log.LstdFlags)
	}

	return &AnthropicGenerator{
		client:   anthropic.NewClient(option.WithAPIKey(apiKey)),
		fallback: fallback,
		model:    anthropic.ModelClaudeSonnet4_5,
		logger:   logger,
	}, nil
}

// Generate asks the model for count quests. The daily seed is embedded
// in the prompt so repeated calls for the same day converge on the same
// framing even though sampling is not strictly deterministic.
func (g *AnthropicGenerator) Generate(ctx context.Context, rec model.SeedRecord, count int) ([]Quest, error) {
	if count <= 0 {
		return nil, fmt.Errorf("quest count must be positive, got %d", count)
	}

	prompt := fmt.Sprintf(
		"Suggest %d small personal quests for day %d (variation %d). "+
			"Respond with only a YAML document of the form:\n"+
			"quests:\n  - title: ...\n    points: <5-20>\n    category: <one word>\n",
		count, rec.Day, rec.Seed%1000)

	msg, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     g.model,
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		g.logger.Printf("Quest generation request failed, using static pool: %v", err)
		return g.fallback.Generate(ctx, rec, count)
	}

	quests, err := parseQuestYAML(msg, count)
	if err != nil {
		g.logger.Printf("Quest generation response unusable, using static pool: %v", err)
		return g.fallback.Generate(ctx, rec, count)
	}
	return quests, nil
}

// parseQuestYAML extracts the quest list from a model response.
func parseQuestYAML(msg *anthropic.Message, count int) ([]Quest, error) {
	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	body := text.String()
	// Models like to wrap structured output in code fences.
	body = strings.TrimSpace(body)
	body = strings.TrimPrefix(body, "```yaml")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(body, "```")

	var f poolFile
	if err := yaml.Unmarshal([]byte(body), &f); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(f.Quests) == 0 {
		return nil, fmt.Errorf("response contained no quests")
	}
	for i, q := range f.Quests {
		if q.Title == "" {
			return nil, fmt.Errorf("quest %d has no title", i)
		}
	}
	if len(f.Quests) > count {
		f.Quests = f.Quests[:count]
	}
	return f.Quests, nil
}
