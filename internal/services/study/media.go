package study

import (
	"context"

	"github.com/dustin/go-humanize"

	"halomind/internal/adapters/ai"
	domain "halomind/internal/domain/study"
)

func (s *Service) mediaRequest(ctx context.Context, op ai.OperationKind, data []byte, mimeType, prompt string, cfg ai.GenerationConfig) (*ai.Request, error) {
	if err := ValidateStruct(MediaInput{Data: data, MIMEType: mimeType, Prompt: prompt}); err != nil {
		return nil, err
	}
	s.log.Debugw("media request", "operation", op, "mime_type", mimeType, "size", humanize.Bytes(uint64(len(data))))

	return ai.NewRequest(op, s.gen.Model(ctx), []ai.Part{
		ai.BinaryPart(data, mimeType),
		ai.TextPart(prompt),
	}, cfg)
}

// AnalyzeImage answers prompt about an image
func (s *Service) AnalyzeImage(ctx context.Context, data []byte, mimeType, prompt string) (string, error) {
	req, err := s.mediaRequest(ctx, ai.OpImageAnalysis, data, mimeType, prompt, ai.GenerationConfig{})
	if err != nil {
		return "", err
	}

	resp, err := s.gen.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// AnalyzeVideo answers prompt about a video. Only the primary provider
// accepts video, so failures never fall back.
func (s *Service) AnalyzeVideo(ctx context.Context, data []byte, mimeType, prompt string) (string, error) {
	req, err := s.mediaRequest(ctx, ai.OpVideoAnalysis, data, mimeType, prompt, ai.GenerationConfig{})
	if err != nil {
		return "", err
	}

	resp, err := s.gen.GeneratePrimaryOnly(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// GenerateCourseFromImage turns a photographed document into a course
// section draft. A nil draft means the response could not be interpreted.
func (s *Service) GenerateCourseFromImage(ctx context.Context, data []byte, mimeType string) (*domain.CourseDraft, error) {
	req, err := s.mediaRequest(ctx, ai.OpCourseFromImage, data, mimeType, courseFromImagePrompt, jsonConfig(courseResponseSchema))
	if err != nil {
		return nil, err
	}

	resp, err := s.gen.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	return decode[domain.CourseDraft](s, ai.OpCourseFromImage, courseDocumentSchema, resp), nil
}
