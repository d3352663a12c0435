package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"halomind/internal/metrics"
	"halomind/pkg/errors"
	"halomind/pkg/logger"
)

const maxErrorBodyBytes = 4096

// OpenRouterConfig configures the fallback provider
type OpenRouterConfig struct {
	APIKey     string
	BaseURL    string
	Referer    string
	Title      string
	HTTPClient *http.Client
}

// OpenRouterClient is the fallback provider. Completions, images and speech
// go through the OpenAI-compatible SDK; streaming reads the event stream
// directly so undecodable frames can be skipped instead of failing the stream.
type OpenRouterClient struct {
	client     openai.Client
	httpClient *http.Client
	cfg        OpenRouterConfig
	log        *logger.Logger
}

var _ FallbackClient = (*OpenRouterClient)(nil)

// NewOpenRouterClient creates the fallback client
func NewOpenRouterClient(cfg OpenRouterConfig, log *logger.Logger) (*OpenRouterClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "openrouter API key is required")
	}
	if cfg.BaseURL == "" {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "openrouter base URL is required")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL+"/"),
		option.WithHTTPClient(cfg.HTTPClient),
		option.WithHeader("HTTP-Referer", cfg.Referer),
		option.WithHeader("X-Title", cfg.Title),
		option.WithMaxRetries(0), // exactly one fallback attempt
	)

	return &OpenRouterClient{
		client:     client,
		httpClient: cfg.HTTPClient,
		cfg:        cfg,
		log:        log.With("component", "openrouter"),
	}, nil
}

// Complete implements FallbackClient
func (c *OpenRouterClient) Complete(ctx context.Context, req FallbackRequest) (*Response, error) {
	params := openai.ChatCompletionNewParams{
		Model:    req.Model,
		Messages: toSDKMessages(req.Messages),
	}
	if req.JSONMode() {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, &ProviderError{Provider: ProviderOpenRouter, Kind: KindServer, Message: "completion returned no choices"}
	}

	c.log.Debugw("fallback completion",
		"model", req.Model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)

	return &Response{
		Provider: ProviderOpenRouter,
		Model:    req.Model,
		Text:     resp.Choices[0].Message.Content,
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}

// Stream implements FallbackClient. The returned stream is connected: the
// HTTP status has been checked but no frame has been read.
func (c *OpenRouterClient) Stream(ctx context.Context, req FallbackRequest) (*Stream, error) {
	req.Stream = true
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "marshal openrouter request")
	}

	ctx, cancel := context.WithCancel(ctx)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, errors.Wrap(err, "create HTTP request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("HTTP-Referer", c.cfg.Referer)
	httpReq.Header.Set("X-Title", c.cfg.Title)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		cancel()
		return nil, errors.Wrap(err, "send openrouter request")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		_ = resp.Body.Close()
		cancel()
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	decoder := NewSSEDecoder(resp.Body)
	decoder.OnMalformed = func(payload string) {
		metrics.RecordMalformedFrame()
		c.log.Debugw("skipping malformed stream frame", "bytes", len(payload))
	}

	return OpenPullStream(ctx, cancel, ProviderOpenRouter, decoder.Next, func() { _ = resp.Body.Close() }), nil
}

// GenerateImage implements FallbackClient
func (c *OpenRouterClient) GenerateImage(ctx context.Context, model, prompt string) (*Media, error) {
	resp, err := c.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         prompt,
		Model:          model,
		N:              openai.Int(1),
		ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, nil
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, &ProviderError{Provider: ProviderOpenRouter, Kind: KindServer, Message: "image payload is not base64", Err: err}
	}
	return &Media{Provider: ProviderOpenRouter, Data: data, MIMEType: fallbackImageMIMEType}, nil
}

// Speak implements FallbackClient
func (c *OpenRouterClient) Speak(ctx context.Context, model, text string) (*Media, error) {
	resp, err := c.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Input:          text,
		Model:          model,
		Voice:          openai.AudioSpeechNewParamsVoice(defaultFallbackVoice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read speech response")
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &Media{Provider: ProviderOpenRouter, Data: data, MIMEType: fallbackSpeechMIMEType}, nil
}

func toSDKMessages(msgs []FallbackMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Text))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Text))
		default:
			if m.Parts == nil {
				out = append(out, openai.UserMessage(m.Text))
				continue
			}
			parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(m.Parts))
			for _, p := range m.Parts {
				if p.ImageURL != nil {
					parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: p.ImageURL.URL}))
					continue
				}
				parts = append(parts, openai.TextContentPart(p.Text))
			}
			out = append(out, openai.UserMessage(parts))
		}
	}
	return out
}
