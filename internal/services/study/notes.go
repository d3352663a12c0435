package study

import (
	"context"

	"github.com/dustin/go-humanize"

	"halomind/internal/adapters/ai"
	"halomind/pkg/errors"
)

// GenerateNotesStream streams Markdown notes for a section
func (s *Service) GenerateNotesStream(ctx context.Context, sectionTitle, source string) (*ai.Stream, error) {
	if err := ValidateStruct(SectionInput{SectionTitle: sectionTitle, Context: source}); err != nil {
		return nil, err
	}

	req, err := ai.TextRequest(ai.OpNotes, s.gen.Model(ctx), notesPrompt(sectionTitle, source), ai.GenerationConfig{})
	if err != nil {
		return nil, err
	}
	return s.gen.GenerateStream(ctx, req)
}

// RephraseStream streams a beginner-friendly rewrite of text
func (s *Service) RephraseStream(ctx context.Context, text string) (*ai.Stream, error) {
	if err := requireText("text", text); err != nil {
		return nil, err
	}

	req, err := ai.TextRequest(ai.OpRephrase, s.gen.Model(ctx), rephrasePrompt(text), ai.GenerationConfig{})
	if err != nil {
		return nil, err
	}
	return s.gen.GenerateStream(ctx, req)
}

// GenerateNarrationScript writes a short video narration script. The pro
// model gets an extended thinking budget.
func (s *Service) GenerateNarrationScript(ctx context.Context, sectionTitle, source string) (string, error) {
	if err := ValidateStruct(SectionInput{SectionTitle: sectionTitle, Context: source}); err != nil {
		return "", err
	}

	model := s.gen.Model(ctx)
	var cfg ai.GenerationConfig
	if model == ai.ModelPro {
		budget := proThinkingBudget
		cfg.ThinkingBudget = &budget
	}

	req, err := ai.TextRequest(ai.OpScript, model, scriptPrompt(sectionTitle, source), cfg)
	if err != nil {
		return "", err
	}

	resp, err := s.gen.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// ExtractTextFromHTML returns the article text of an HTML page. The page is
// stripped of chrome locally before the model extracts the content.
func (s *Service) ExtractTextFromHTML(ctx context.Context, html string) (string, error) {
	if err := requireText("html", html); err != nil {
		return "", err
	}

	content := html
	cleaned, err := CleanHTML(html)
	switch {
	case err != nil:
		s.log.Warnw("HTML pre-clean failed, sending raw document", "error", err)
	case cleaned == "":
		s.log.Debugw("HTML pre-clean left nothing, sending raw document")
	default:
		content = cleaned
	}
	s.log.Debugw("extracting article text",
		"input_size", humanize.Bytes(uint64(len(html))),
		"sent_size", humanize.Bytes(uint64(len(content))),
	)

	req, err := ai.TextRequest(ai.OpHTMLExtraction, s.gen.Model(ctx), htmlExtractionPrompt(content), ai.GenerationConfig{})
	if err != nil {
		return "", err
	}

	resp, err := s.gen.Generate(ctx, req)
	if err != nil {
		return "", errors.Wrap(err, "extract article text")
	}
	return resp.Text, nil
}
