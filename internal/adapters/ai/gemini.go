package ai

import (
	"context"
	"iter"
	"net/http"

	"google.golang.org/genai"

	"halomind/pkg/errors"
)

// GeminiClient is the primary provider backed by the Gemini API
type GeminiClient struct {
	client     *genai.Client
	translator *Translator
}

var _ PrimaryClient = (*GeminiClient)(nil)

// GeminiOptions configures the Gemini transport
type GeminiOptions struct {
	HTTPClient *http.Client
	BaseURL    string // empty means the public endpoint
}

// NewGeminiFactory returns a PrimaryFactory building Gemini clients
func NewGeminiFactory(opts GeminiOptions) PrimaryFactory {
	return func(ctx context.Context, credential string) (PrimaryClient, error) {
		return NewGeminiClient(ctx, credential, opts)
	}
}

// NewGeminiClient creates a Gemini client for apiKey
func NewGeminiClient(ctx context.Context, apiKey string, opts GeminiOptions) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, ErrNoCredential
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  opts.HTTPClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: opts.BaseURL},
	})
	if err != nil {
		return nil, errors.Wrap(err, "create gemini client")
	}

	return &GeminiClient{client: client, translator: NewTranslator(DefaultMapping())}, nil
}

// Generate implements PrimaryClient
func (c *GeminiClient) Generate(ctx context.Context, req *Request) (*Response, error) {
	contents, cfg := c.translator.Primary(req)

	resp, err := c.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return nil, err
	}
	return geminiResponse(req.Model, resp), nil
}

// GenerateStream implements PrimaryClient
func (c *GeminiClient) GenerateStream(ctx context.Context, req *Request) iter.Seq2[string, error] {
	contents, cfg := c.translator.Primary(req)

	return func(yield func(string, error) bool) {
		for resp, err := range c.client.Models.GenerateContentStream(ctx, req.Model, contents, cfg) {
			if err != nil {
				yield("", err)
				return
			}
			if !yield(resp.Text(), nil) {
				return
			}
		}
	}
}

// GenerateImage implements PrimaryClient
func (c *GeminiClient) GenerateImage(ctx context.Context, model, prompt string) (*Media, error) {
	resp, err := c.client.Models.GenerateImages(ctx, model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    diagramAspectRatio,
		OutputMIMEType: primaryImageMIMEType,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil || len(resp.GeneratedImages[0].Image.ImageBytes) == 0 {
		return nil, nil
	}
	return &Media{
		Provider: ProviderGemini,
		Data:     resp.GeneratedImages[0].Image.ImageBytes,
		MIMEType: primaryImageMIMEType,
	}, nil
}

// Speak implements PrimaryClient
func (c *GeminiClient) Speak(ctx context.Context, model, text, voice string) (*Media, error) {
	resp, err := c.client.Models.GenerateContent(ctx, model, genai.Text(text), &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityAudio)},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return &Media{Provider: ProviderGemini, Data: part.InlineData.Data, MIMEType: primarySpeechMIMEType}, nil
			}
		}
	}
	return nil, nil
}

// NewChat implements PrimaryClient
func (c *GeminiClient) NewChat(ctx context.Context, model, systemInstruction string, history []ChatMessage) (PrimaryChat, error) {
	var cfg *genai.GenerateContentConfig
	if systemInstruction != "" {
		cfg = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		}
	}

	seeded := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		role := genai.Role(genai.RoleUser)
		if m.Role == ChatRoleModel {
			role = genai.RoleModel
		}
		seeded = append(seeded, genai.NewContentFromText(m.Content, role))
	}

	chat, err := c.client.Chats.Create(ctx, model, cfg, seeded)
	if err != nil {
		return nil, err
	}
	return &geminiChat{chat: chat, model: model}, nil
}

type geminiChat struct {
	chat  *genai.Chat
	model string
}

func (g *geminiChat) Send(ctx context.Context, text string) (*Response, error) {
	resp, err := g.chat.SendMessage(ctx, genai.Part{Text: text})
	if err != nil {
		return nil, err
	}
	return geminiResponse(g.model, resp), nil
}

func geminiResponse(model string, resp *genai.GenerateContentResponse) *Response {
	out := &Response{Provider: ProviderGemini, Model: model, Text: resp.Text()}

	if resp.UsageMetadata != nil {
		out.Usage = Usage{
			InputTokens:  int64(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int64(resp.UsageMetadata.CandidatesTokenCount),
		}
	}

	if len(resp.Candidates) > 0 && resp.Candidates[0].GroundingMetadata != nil {
		for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
			if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" {
				continue
			}
			out.Grounding = append(out.Grounding, GroundingSource{Title: chunk.Web.Title, URI: chunk.Web.URI})
		}
	}
	return out
}
