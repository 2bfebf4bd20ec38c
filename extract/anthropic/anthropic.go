// Package anthropic provides a season parameter extractor backed by the
// Anthropic Claude Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"
	"github.com/hupe1980/seasonflow/core"
	"github.com/hupe1980/seasonflow/extract"
)

// Options configures the Anthropic extractor (model id, max tokens, API key).
type Options struct {
	Model     anthropic.Model
	MaxTokens int64
	APIKey    string
}

// Extractor wraps the Anthropic Messages API behind extract.Extractor.
type Extractor struct {
	client *anthropic.Client
	opts   Options
}

var _ extract.Extractor = (*Extractor)(nil)

// New creates an Extractor using the official client.
func New(optFns ...func(o *Options)) *Extractor {
	opts := Options{
		Model:     anthropic.ModelClaude3_5Sonnet20241022,
		MaxTokens: 1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Extractor{client: &client, opts: opts}
}

// NewFromClient creates an Extractor from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Extractor {
	opts := Options{
		Model:     anthropic.ModelClaude3_5Sonnet20241022,
		MaxTokens: 1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Extractor{client: client, opts: opts}
}

// ExtractParameters implements extract.Extractor. Temperature is pinned to
// zero; extraction wants the most literal reading of the text, not variety.
func (e *Extractor) ExtractParameters(ctx context.Context, description string) (core.SeasonParameters, error) {
	schema := extract.Schema()
	inputSchema := anthropic.ToolInputSchemaParam{
		Type:       constant.Object("object"),
		Properties: schema["properties"],
	}
	if required, ok := schema["required"].([]string); ok {
		inputSchema.Required = required
	}

	params := anthropic.MessageNewParams{
		Model:       e.opts.Model,
		MaxTokens:   e.opts.MaxTokens,
		Temperature: anthropic.Float(0),
		System:      []anthropic.TextBlockParam{{Text: extract.SystemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(description)),
		},
		Tools: []anthropic.ToolUnionParam{
			anthropic.ToolUnionParamOfTool(inputSchema, extract.ToolName),
		},
	}

	resp, err := e.client.Messages.New(ctx, params)
	if err != nil {
		return core.SeasonParameters{}, fmt.Errorf("anthropic api error: %w", err)
	}

	for _, block := range resp.Content {
		if block.Type != "tool_use" {
			continue
		}
		toolBlock := block.AsToolUse()
		if toolBlock.Name != extract.ToolName {
			continue
		}
		raw, err := json.Marshal(toolBlock.Input)
		if err != nil {
			return core.SeasonParameters{}, fmt.Errorf("encode %s tool input: %w", extract.ToolName, err)
		}
		var ex extract.Extraction
		if err := json.Unmarshal(raw, &ex); err != nil {
			return core.SeasonParameters{}, fmt.Errorf("decode %s tool input: %w", extract.ToolName, err)
		}
		return extract.Resolve(ex)
	}
	return core.SeasonParameters{}, fmt.Errorf("model response contains no %s tool call", extract.ToolName)
}
