package study

import (
	"context"
	"strings"

	"github.com/dustin/go-humanize"

	"halomind/internal/adapters/ai"
	domain "halomind/internal/domain/study"
)

// GenerateSimpleExplainer builds a short explainer for a section. The
// primary provider grounds it with web search and the sources are attached;
// the fallback gets the prompt without the search instruction in JSON mode.
func (s *Service) GenerateSimpleExplainer(ctx context.Context, sectionTitle, source string) (*domain.SimpleExplainer, error) {
	if err := ValidateStruct(SectionInput{SectionTitle: sectionTitle, Context: source}); err != nil {
		return nil, err
	}

	model := s.gen.Model(ctx)
	prompt := explainerPrompt(sectionTitle, source)

	grounded, err := ai.TextRequest(ai.OpExplainer, model, prompt, ai.GenerationConfig{GoogleSearch: true})
	if err != nil {
		return nil, err
	}
	degraded, err := ai.TextRequest(ai.OpExplainer, model, strings.Replace(prompt, searchSentence, "", 1), ai.GenerationConfig{
		ResponseMIMEType: ai.MIMETypeJSON,
	})
	if err != nil {
		return nil, err
	}

	resp, err := s.gen.GenerateDegraded(ctx, grounded, degraded)
	if err != nil {
		return nil, err
	}

	explainer := decode[domain.SimpleExplainer](s, ai.OpExplainer, explainerDocumentSchema, resp)
	if explainer == nil {
		return nil, nil
	}

	explainer.DiagramURL = ""
	explainer.GroundingSources = nil
	for _, g := range resp.Grounding {
		explainer.GroundingSources = append(explainer.GroundingSources, domain.GroundingSource{Title: g.Title, URI: g.URI})
	}
	return explainer, nil
}

// GenerateDiagram renders an educational diagram and returns it as a data
// URI, empty when no image was produced
func (s *Service) GenerateDiagram(ctx context.Context, prompt string) (string, error) {
	if err := requireText("prompt", prompt); err != nil {
		return "", err
	}

	media, err := s.gen.GenerateImage(ctx, diagramPrefix+prompt)
	if err != nil {
		return "", err
	}
	if media == nil {
		s.log.Warnw("image generation returned no image")
		return "", nil
	}

	s.log.Debugw("diagram generated", "provider", media.Provider, "size", humanize.Bytes(uint64(len(media.Data))))
	return media.DataURI(), nil
}

// GenerateSpeech narrates text and returns the audio as a data URI, empty
// when no audio was produced
func (s *Service) GenerateSpeech(ctx context.Context, text string) (string, error) {
	if err := requireText("text", text); err != nil {
		return "", err
	}

	media, err := s.gen.Speak(ctx, text)
	if err != nil {
		return "", err
	}
	if media == nil {
		s.log.Warnw("speech synthesis returned no audio")
		return "", nil
	}

	s.log.Debugw("speech generated", "provider", media.Provider, "size", humanize.Bytes(uint64(len(media.Data))))
	return media.DataURI(), nil
}
