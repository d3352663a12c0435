package ai

import (
	"encoding/base64"
)

// GroundingSource is a web citation returned by grounded generation
type GroundingSource struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Response is the provider-agnostic result of a text generation.
// Provider records which side produced it.
type Response struct {
	Provider  ProviderName
	Model     string
	Text      string
	Grounding []GroundingSource
	Usage     Usage
}

// Media is a generated binary payload (image or audio)
type Media struct {
	Provider ProviderName
	Data     []byte
	MIMEType string
}

// DataURI renders the payload as a data: URI
func (m *Media) DataURI() string {
	if m == nil || len(m.Data) == 0 {
		return ""
	}
	return "data:" + m.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(m.Data)
}
