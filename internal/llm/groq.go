package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/sony/gobreaker"
)

const (
	groqBaseURL  = "https://api.groq.com/openai/v1"
	DefaultModel = "llama-3.3-70b-versatile"

	// defaultCompleteTimeout applies when the caller supplied no deadline.
	defaultCompleteTimeout = 60 * time.Second
)

// GroqClient talks to Groq's OpenAI-compatible chat completion endpoint.
// A circuit breaker fails fast when the provider is having a bad day so
// chat turns degrade quickly instead of piling up.
type GroqClient struct {
	api   openai.Client
	model string
	log   *slog.Logger
	cb    *gobreaker.CircuitBreaker
}

// NewGroqClient builds a client for the given API key. model falls back to
// DefaultModel when empty.
func NewGroqClient(apiKey, model string, log *slog.Logger) *GroqClient {
	if model == "" {
		model = DefaultModel
	}
	if log == nil {
		log = slog.Default()
	}
	c := &GroqClient{
		api:   openai.NewClient(option.WithAPIKey(apiKey), option.WithBaseURL(groqBaseURL)),
		model: model,
		log:   log,
	}
	c.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     "groq-api",
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return c
}

// Complete implements Client.
func (c *GroqClient) Complete(ctx context.Context, msgs []Message, temperature float64, maxTokens int) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultCompleteTimeout)
		defer cancel()
	}

	params := openai.ChatCompletionNewParams{
		Messages:    make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs)),
		Model:       shared.ChatModel(c.model),
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(int64(maxTokens)),
	}
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			params.Messages = append(params.Messages, openai.SystemMessage(m.Content))
		case RoleAssistant:
			params.Messages = append(params.Messages, openai.AssistantMessage(m.Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(m.Content))
		}
	}

	out, err := c.cb.Execute(func() (any, error) {
		completion, err := c.api.Chat.Completions.New(ctx, params)
		if err != nil {
			// Caller mistakes and cancellations must not trip the breaker.
			var apiErr *openai.Error
			if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 && apiErr.StatusCode != 429 {
				return nil, &nonCircuitError{err: err}
			}
			if errors.Is(err, context.Canceled) {
				return nil, &nonCircuitError{err: err}
			}
			return nil, err
		}
		if len(completion.Choices) == 0 {
			return nil, errors.New("empty completion")
		}
		return completion.Choices[0].Message.Content, nil
	})
	if err != nil {
		var nce *nonCircuitError
		if errors.As(err, &nce) {
			err = nce.err
		}
		return "", fmt.Errorf("chat completion: %w", err)
	}
	text, _ := out.(string)
	return text, nil
}

// nonCircuitError shields client-side failures from the breaker's counters.
type nonCircuitError struct{ err error }

func (e *nonCircuitError) Error() string { return e.err.Error() }
func (e *nonCircuitError) Unwrap() error { return e.err }

var _ Client = (*GroqClient)(nil)
