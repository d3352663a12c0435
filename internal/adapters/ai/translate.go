package ai

import (
	"encoding/base64"
	"encoding/json"
	"maps"
	"strings"

	"google.golang.org/genai"
)

// ProviderMapping maps canonical model ids onto fallback-provider ids.
// Resolve is total: unmapped ids resolve to the default entry.
type ProviderMapping struct {
	table    map[string]string
	fallback string
}

// DefaultMapping returns the built-in model table
func DefaultMapping() ProviderMapping {
	return NewProviderMapping(map[string]string{
		ModelFlashLite: FallbackModelFlash,
		ModelFlash:     FallbackModelFlash,
		ModelPro:       FallbackModelPro,
		ModelImagen:    FallbackModelImage,
		ModelTTS:       FallbackModelSpeech,
	}, DefaultFallbackModel)
}

// NewProviderMapping builds a mapping; an empty def falls back to DefaultFallbackModel
func NewProviderMapping(table map[string]string, def string) ProviderMapping {
	if def == "" {
		def = DefaultFallbackModel
	}
	return ProviderMapping{table: maps.Clone(table), fallback: def}
}

// Resolve returns the fallback model for a canonical id
func (m ProviderMapping) Resolve(model string) string {
	if mapped, ok := m.table[model]; ok {
		return mapped
	}
	return m.fallback
}

// Fallback chat roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// FallbackRequest is the fallback provider's chat completion body
type FallbackRequest struct {
	Model          string            `json:"model"`
	Messages       []FallbackMessage `json:"messages"`
	ResponseFormat *ResponseFormat   `json:"response_format,omitempty"`
	Stream         bool              `json:"stream,omitempty"`
}

// ResponseFormat selects the fallback's native JSON mode
type ResponseFormat struct {
	Type string `json:"type"`
}

// JSONMode reports whether the request asks for a JSON object
func (r FallbackRequest) JSONMode() bool {
	return r.ResponseFormat != nil && r.ResponseFormat.Type == "json_object"
}

// FallbackMessage carries either plain text or a list of content parts
type FallbackMessage struct {
	Role  string
	Text  string
	Parts []ContentPart
}

// ContentPart is a text or image_url item of a multi-part message
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL references inline or remote image data
type ImageURL struct {
	URL string `json:"url"`
}

// MarshalJSON emits {"role", "content"} where content is a string or a part list
func (m FallbackMessage) MarshalJSON() ([]byte, error) {
	if m.Parts != nil {
		return json.Marshal(struct {
			Role    string        `json:"role"`
			Content []ContentPart `json:"content"`
		}{m.Role, m.Parts})
	}
	return json.Marshal(struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}{m.Role, m.Text})
}

// Translator derives provider-specific request shapes. It performs no I/O.
type Translator struct {
	mapping ProviderMapping
}

// NewTranslator creates a translator over mapping
func NewTranslator(mapping ProviderMapping) *Translator {
	return &Translator{mapping: mapping}
}

// Mapping returns the model table in use
func (t *Translator) Mapping() ProviderMapping {
	return t.mapping
}

// Fallback builds the fallback chat request for req
func (t *Translator) Fallback(req *Request) FallbackRequest {
	out := FallbackRequest{Model: t.mapping.Resolve(req.Model)}

	if req.Config.SystemInstruction != "" {
		out.Messages = append(out.Messages, FallbackMessage{Role: RoleSystem, Text: req.Config.SystemInstruction})
	}
	out.Messages = append(out.Messages, flattenParts(RoleUser, req.Parts))

	if req.JSONMode() {
		out.ResponseFormat = &ResponseFormat{Type: "json_object"}
	}
	return out
}

// FallbackChat builds the fallback request for a chat turn, replaying history
func (t *Translator) FallbackChat(model, systemInstruction string, history []ChatMessage, text string) FallbackRequest {
	out := FallbackRequest{Model: t.mapping.Resolve(model)}
	if systemInstruction != "" {
		out.Messages = append(out.Messages, FallbackMessage{Role: RoleSystem, Text: systemInstruction})
	}
	for _, m := range history {
		role := RoleUser
		if m.Role == ChatRoleModel {
			role = RoleAssistant
		}
		out.Messages = append(out.Messages, FallbackMessage{Role: role, Text: m.Content})
	}
	out.Messages = append(out.Messages, FallbackMessage{Role: RoleUser, Text: text})
	return out
}

// flattenParts merges parts into one message. Pure text becomes a string
// content; otherwise adjacent texts are joined and binaries become data URIs.
func flattenParts(role string, parts []Part) FallbackMessage {
	hasBinary := false
	for _, p := range parts {
		if p.IsBinary() {
			hasBinary = true
			break
		}
	}

	if !hasBinary {
		texts := make([]string, len(parts))
		for i, p := range parts {
			texts[i] = p.Text
		}
		return FallbackMessage{Role: role, Text: strings.Join(texts, "\n\n")}
	}

	msg := FallbackMessage{Role: role, Parts: make([]ContentPart, 0, len(parts))}
	for _, p := range parts {
		if p.IsBinary() {
			msg.Parts = append(msg.Parts, ContentPart{
				Type:     "image_url",
				ImageURL: &ImageURL{URL: dataURI(p.MIMEType, p.Data)},
			})
			continue
		}
		if n := len(msg.Parts); n > 0 && msg.Parts[n-1].Type == "text" {
			msg.Parts[n-1].Text += "\n\n" + p.Text
			continue
		}
		msg.Parts = append(msg.Parts, ContentPart{Type: "text", Text: p.Text})
	}
	return msg
}

func dataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Primary builds the primary provider's contents and config for req
func (t *Translator) Primary(req *Request) ([]*genai.Content, *genai.GenerateContentConfig) {
	parts := make([]*genai.Part, 0, len(req.Parts))
	for _, p := range req.Parts {
		if p.IsBinary() {
			parts = append(parts, genai.NewPartFromBytes(p.Data, p.MIMEType))
		} else {
			parts = append(parts, genai.NewPartFromText(p.Text))
		}
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	return contents, primaryConfig(req.Config)
}

func primaryConfig(c GenerationConfig) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: c.ResponseMIMEType,
		ResponseSchema:   c.ResponseSchema,
	}
	if c.SystemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(c.SystemInstruction, genai.RoleUser)
	}
	if c.GoogleSearch {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	if c.ThinkingBudget != nil {
		budget := *c.ThinkingBudget
		cfg.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: &budget}
	}
	return cfg
}
