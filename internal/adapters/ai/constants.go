package ai

// ProviderName identifies one of the two cooperating providers
type ProviderName string

const (
	ProviderGemini     ProviderName = "gemini"
	ProviderOpenRouter ProviderName = "openrouter"
)

// String returns the string representation of the provider name
func (p ProviderName) String() string {
	return string(p)
}

// Canonical (primary-provider) model identifiers
const (
	ModelFlash     = "gemini-2.5-flash"
	ModelFlashLite = "gemini-2.5-flash-lite"
	ModelPro       = "gemini-2.5-pro"
	ModelImagen    = "imagen-3.0-generate"
	ModelTTS       = "gemini-2.5-flash-preview-tts"

	// DefaultModel is used when nothing is persisted and as the migration target
	DefaultModel = ModelFlash
)

// Fallback-provider model identifiers
const (
	FallbackModelFlash     = "google/gemini-flash-2.5"
	FallbackModelPro       = "google/gemini-pro-2.5"
	FallbackModelImage     = "stabilityai/stable-diffusion-3"
	FallbackModelSpeech    = "elevenlabs/eleven-mono"
	DefaultFallbackModel   = FallbackModelFlash
	defaultFallbackVoice   = "alloy"
	fallbackImageMIMEType  = "image/png"
	fallbackSpeechMIMEType = "audio/mpeg"
)

const (
	// SpeechVoice is the prebuilt primary voice used for narration
	SpeechVoice = "Kore"

	// MIMETypeJSON selects structured output
	MIMETypeJSON = "application/json"

	primaryImageMIMEType  = "image/jpeg"
	primarySpeechMIMEType = "audio/webm"
	diagramAspectRatio    = "16:9"
)
