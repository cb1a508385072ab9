package sketcher

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/jurisagi/core/internal/dsl"
	"github.com/jurisagi/core/pkg/types"
)

// sketchRubric instructs the model to propose DSL primitive names rather
// than full programs: the backend only trusts it for coarse "what kind
// of transformation is this" guesses, which are then turned into actual
// AST nodes locally. The model never produces a verdict or a score used
// for certification.
const sketchRubric = `You are proposing candidate transformations for an ARC-style grid puzzle.
Given a set of input/output grid pairs, suggest up to 5 primitive operation names
that might explain the transformation, most likely first. Choose only from:
identity, rotate90, reflect_h, reflect_v, transpose, crop_to_content, scale, tile_h, tile_v, tile_repeat, fill_background, invert_mask.
Respond with JSON only: {"suggestions": ["name1", "name2", ...]}`

// AnthropicBackend asks an Anthropic model to name plausible primitive
// operations for a task, then maps each name to a concrete zero/default-arg
// program. It shares the teacher's retry-with-backoff and prompt-caching
// idiom for the rubric text.
type AnthropicBackend struct {
	client *anthropic.Client
	model  anthropic.Model
}

// NewAnthropicBackend creates a backend using apiKey. Returns an error if
// apiKey is empty, matching the teacher's llm.NewClient guard.
func NewAnthropicBackend(apiKey string) (*AnthropicBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
	}
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicBackend{
		client: &c,
		model:  anthropic.ModelClaudeHaiku4_5,
	}, nil
}

func (b *AnthropicBackend) Name() string { return "anthropic" }

func (b *AnthropicBackend) Suggest(ctx context.Context, task types.ARCTask, maxSuggestions int) ([]Suggestion, error) {
	prompt := describeTask(task)

	var lastErr error
	maxRetries := 3
	backoff := time.Second
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
			}
		}

		names, err := b.doSuggest(ctx, prompt)
		if err == nil {
			return namesToSuggestions(names, maxSuggestions, b.Name()), nil
		}
		lastErr = err
		if !isRetryableError(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (b *AnthropicBackend) doSuggest(ctx context.Context, prompt string) ([]string, error) {
	message, err := b.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     b.model,
		MaxTokens: 256,
		System: []anthropic.TextBlockParam{
			{
				Text:         sketchRubric,
				CacheControl: anthropic.NewCacheControlEphemeralParam(),
			},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("API call failed: %w", err)
	}
	if len(message.Content) == 0 {
		return nil, fmt.Errorf("empty response from API")
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}
	if responseText == "" {
		return nil, fmt.Errorf("no text content in response")
	}

	var result struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(responseText), &result); err != nil {
		return nil, fmt.Errorf("invalid JSON response: %w", err)
	}
	return result.Suggestions, nil
}

func describeTask(task types.ARCTask) string {
	var b strings.Builder
	for i, pair := range task.Train {
		fmt.Fprintf(&b, "pair %d: input %dx%d, output %dx%d\n", i, pair.Input.Height, pair.Input.Width, pair.Output.Height, pair.Output.Width)
	}
	return b.String()
}

func namesToSuggestions(names []string, maxSuggestions int, source string) []Suggestion {
	var out []Suggestion
	for i, name := range names {
		prog, ok := primitiveByName(name)
		if !ok {
			continue
		}
		out = append(out, Suggestion{Program: prog, Confidence: 1.0 - float64(i)*0.1, Source: source})
		if len(out) >= maxSuggestions {
			break
		}
	}
	return out
}

func primitiveByName(name string) (dsl.Node, bool) {
	switch name {
	case "identity", "crop_to_content", "reflect_h", "reflect_v", "transpose", "invert_mask":
		return &dsl.PrimitiveNode{Name: name}, true
	case "rotate90":
		return &dsl.PrimitiveNode{Name: name, Args: []dsl.Node{&dsl.LiteralNode{Value: 1, Type: dsl.Int}}}, true
	case "scale":
		return &dsl.PrimitiveNode{Name: name, Args: []dsl.Node{&dsl.LiteralNode{Value: 2, Type: dsl.Int}}}, true
	case "tile_h", "tile_v":
		return &dsl.PrimitiveNode{Name: name, Args: []dsl.Node{&dsl.LiteralNode{Value: 2, Type: dsl.Int}}}, true
	case "tile_repeat":
		return &dsl.PrimitiveNode{Name: name, Args: []dsl.Node{
			&dsl.LiteralNode{Value: 2, Type: dsl.Int}, &dsl.LiteralNode{Value: 2, Type: dsl.Int}}}, true
	case "fill_background":
		return &dsl.PrimitiveNode{Name: name, Args: []dsl.Node{&dsl.LiteralNode{Value: 1, Type: dsl.Color}}}, true
	default:
		return nil, false
	}
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate") ||
		strings.Contains(errStr, "overloaded") ||
		strings.Contains(errStr, "503")
}
