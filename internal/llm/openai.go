package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"
)

// clientConfig holds optional configuration for the SDK client.
type clientConfig struct {
	baseURL      string
	organization string
	timeout      time.Duration
}

// Option is a functional option for NewClient.
type Option func(*clientConfig)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// WithOrganization sets the OpenAI organization ID on all requests.
func WithOrganization(org string) Option {
	return func(c *clientConfig) {
		c.organization = org
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = d
	}
}

// NewClient builds the SDK client shared by the chat, embedding and
// transcription backends.
func NewClient(apiKey string, opts ...Option) (oai.Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return oai.Client{}, fmt.Errorf("openai: apiKey must not be empty")
	}
	cfg := &clientConfig{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// Failed calls degrade to neutral results; no retries.
		option.WithMaxRetries(0),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.organization != "" {
		reqOpts = append(reqOpts, option.WithOrganization(cfg.organization))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}
	return oai.NewClient(reqOpts...), nil
}

// OpenAI implements Completer with chat completions.
type OpenAI struct {
	client       oai.Client
	defaultModel string
}

// NewOpenAI wraps client. defaultModel is used when a request names none.
func NewOpenAI(client oai.Client, defaultModel string) *OpenAI {
	return &OpenAI{client: client, defaultModel: defaultModel}
}

// Complete implements Completer.
func (p *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	params, err := p.buildParams(req)
	if err != nil {
		return "", fmt.Errorf("openai: build params: %w", err)
	}
	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// buildParams converts a Request into OpenAI SDK params.
func (p *OpenAI) buildParams(req Request) (oai.ChatCompletionNewParams, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = p.defaultModel
	}
	if model == "" {
		return oai.ChatCompletionNewParams{}, fmt.Errorf("model must not be empty")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return oai.ChatCompletionNewParams{}, fmt.Errorf("prompt must not be empty")
	}

	var messages []oai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, oai.SystemMessage(req.System))
	}
	messages = append(messages, oai.UserMessage(req.Prompt))

	params := oai.ChatCompletionNewParams{
		Model:       shared.ChatModel(model),
		Messages:    messages,
		Temperature: param.NewOpt(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(req.MaxTokens))
	}
	if req.JSON {
		params.ResponseFormat = oai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}
	return params, nil
}
