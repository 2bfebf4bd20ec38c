// Package openai provides a season parameter extractor backed by the OpenAI
// Chat Completions API with function calling.
package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hupe1980/seasonflow/core"
	"github.com/hupe1980/seasonflow/extract"
	"github.com/openai/openai-go"
)

// Options configures the OpenAI extractor.
type Options struct {
	Model               string
	MaxCompletionTokens int64
}

// Extractor wraps the OpenAI Chat Completions API behind extract.Extractor.
type Extractor struct {
	client *openai.Client
	opts   Options
}

var _ extract.Extractor = (*Extractor)(nil)

// New creates an Extractor using the official client.
func New(optFns ...func(o *Options)) *Extractor {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates an Extractor from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Extractor {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		MaxCompletionTokens: 1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Extractor{client: client, opts: opts}
}

// ExtractParameters implements extract.Extractor.
func (e *Extractor) ExtractParameters(ctx context.Context, description string) (core.SeasonParameters, error) {
	params := openai.ChatCompletionNewParams{
		Model:               e.opts.Model,
		Temperature:         openai.Float(0),
		MaxCompletionTokens: openai.Int(e.opts.MaxCompletionTokens),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(extract.SystemPrompt),
			openai.UserMessage(description),
		},
		Tools: []openai.ChatCompletionToolParam{
			{
				Type: "function",
				Function: openai.FunctionDefinitionParam{
					Name:        extract.ToolName,
					Description: openai.String("Record the season parameters stated in the strategy description."),
					Parameters:  extract.Schema(),
				},
			},
		},
	}

	resp, err := e.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return core.SeasonParameters{}, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return core.SeasonParameters{}, fmt.Errorf("no choices returned")
	}

	for _, tc := range resp.Choices[0].Message.ToolCalls {
		if tc.Function.Name != extract.ToolName {
			continue
		}
		var ex extract.Extraction
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &ex); err != nil {
			return core.SeasonParameters{}, fmt.Errorf("decode %s tool arguments: %w", extract.ToolName, err)
		}
		return extract.Resolve(ex)
	}
	return core.SeasonParameters{}, fmt.Errorf("model response contains no %s tool call", extract.ToolName)
}
