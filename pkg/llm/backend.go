package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog/log"

	contractx "github.com/ordino-ai/ordino/agent/contract"
)

// Config drives the chat-completions backend. The default base URL is the
// Gemini OpenAI-compatible endpoint the original deployment targets; any
// OpenAI-compatible server works.
type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://generativelanguage.googleapis.com/v1beta/openai"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true"`
	APIKeys            []string      `envconfig:"API_KEYS" split_words:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" default:"gemini-2.5-flash"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float64       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"60s"`
}

// Backend implements contract.ModelBackend on the OpenAI chat-completions
// API. Each Complete call takes the next credential from the rotator; tool
// invocations elsewhere never touch the rotator.
type Backend struct {
	client       openaisdk.Client
	rotator      *Rotator
	model        string
	maxTokens    int
	temperature  float64
	systemPrompt string
}

var _ contractx.ModelBackend = (*Backend)(nil)

func NewBackend(cfg Config, rotator *Rotator, systemPrompt string) (*Backend, error) {
	if rotator == nil {
		return nil, fmt.Errorf("%w: rotator is required", contractx.ErrBackend)
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, fmt.Errorf("%w: model name is required", contractx.ErrBackend)
	}

	opts := []option.RequestOption{
		option.WithRequestTimeout(cfg.Timeout),
	}
	if trimmed := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed))
	}

	return &Backend{
		client:       openaisdk.NewClient(opts...),
		rotator:      rotator,
		model:        model,
		maxTokens:    cfg.MaxCompletionToken,
		temperature:  cfg.Temperature,
		systemPrompt: systemPrompt,
	}, nil
}

func (b *Backend) Complete(ctx context.Context, history []contractx.Turn, catalog []contractx.ToolSchema) (contractx.ModelResponse, error) {
	params := openaisdk.ChatCompletionNewParams{
		Model:    openaisdk.ChatModel(b.model),
		Messages: b.toMessages(history),
		Tools:    toToolParams(catalog),
	}
	if b.maxTokens > 0 {
		params.MaxCompletionTokens = openaisdk.Int(int64(b.maxTokens))
	}
	if b.temperature >= 0 {
		params.Temperature = openaisdk.Float(b.temperature)
	}

	key := b.rotator.Next()
	completion, err := b.client.Chat.Completions.New(ctx, params, option.WithAPIKey(key))
	if err != nil {
		return contractx.ModelResponse{}, fmt.Errorf("%w: %v", contractx.ErrBackend, err)
	}
	if len(completion.Choices) == 0 {
		return contractx.ModelResponse{}, fmt.Errorf("%w: empty completion", contractx.ErrBackend)
	}

	msg := completion.Choices[0].Message
	if len(msg.ToolCalls) == 0 {
		return contractx.ModelResponse{FinalText: strings.TrimSpace(msg.Content)}, nil
	}

	calls := make([]contractx.ToolCall, 0, len(msg.ToolCalls))
	for _, tc := range msg.ToolCalls {
		name := strings.TrimSpace(tc.Function.Name)
		if name == "" {
			continue
		}
		args := map[string]any{}
		if raw := strings.TrimSpace(tc.Function.Arguments); raw != "" {
			if err := json.Unmarshal([]byte(raw), &args); err != nil {
				log.Warn().Err(err).Str("tool", name).Msg("undecodable tool arguments")
				args = map[string]any{}
			}
		}
		id := tc.ID
		if id == "" {
			id = uuid.NewString()
		}
		calls = append(calls, contractx.ToolCall{ID: id, Name: name, Args: args})
	}
	if len(calls) == 0 {
		return contractx.ModelResponse{FinalText: strings.TrimSpace(msg.Content)}, nil
	}
	return contractx.ModelResponse{ToolCalls: calls}, nil
}

func (b *Backend) toMessages(history []contractx.Turn) []openaisdk.ChatCompletionMessageParamUnion {
	msgs := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(history)+1)
	if b.systemPrompt != "" {
		msgs = append(msgs, openaisdk.SystemMessage(b.systemPrompt))
	}
	for _, turn := range history {
		switch turn.Role {
		case contractx.RoleUser:
			msgs = append(msgs, openaisdk.UserMessage(turn.Text))
		case contractx.RoleAssistant:
			if len(turn.ToolCalls) > 0 {
				msgs = append(msgs, assistantToolCallMessage(turn.ToolCalls))
				continue
			}
			msgs = append(msgs, openaisdk.AssistantMessage(turn.Text))
		case contractx.RoleToolResult:
			for _, res := range turn.ToolResults {
				content := res.Content
				if res.Error != "" {
					content = "error: " + res.Error
				}
				msgs = append(msgs, openaisdk.ToolMessage(content, res.CallID))
			}
		}
	}
	return msgs
}

func assistantToolCallMessage(calls []contractx.ToolCall) openaisdk.ChatCompletionMessageParamUnion {
	params := make([]openaisdk.ChatCompletionMessageToolCallParam, 0, len(calls))
	for _, call := range calls {
		raw, err := json.Marshal(call.Args)
		if err != nil {
			raw = []byte("{}")
		}
		params = append(params, openaisdk.ChatCompletionMessageToolCallParam{
			ID: call.ID,
			Function: openaisdk.ChatCompletionMessageToolCallFunctionParam{
				Name:      call.Name,
				Arguments: string(raw),
			},
		})
	}
	return openaisdk.ChatCompletionMessageParamUnion{
		OfAssistant: &openaisdk.ChatCompletionAssistantMessageParam{
			ToolCalls: params,
		},
	}
}

func toToolParams(catalog []contractx.ToolSchema) []openaisdk.ChatCompletionToolParam {
	tools := make([]openaisdk.ChatCompletionToolParam, 0, len(catalog))
	for _, schema := range catalog {
		tools = append(tools, openaisdk.ChatCompletionToolParam{
			Function: openaisdk.FunctionDefinitionParam{
				Name:        schema.Name,
				Description: openaisdk.String(schema.Description),
				Parameters: openaisdk.FunctionParameters{
					"type":       "object",
					"properties": schema.Parameters,
					"required":   schema.Required,
				},
			},
		})
	}
	return tools
}
