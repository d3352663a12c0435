package study

import (
	"context"

	"github.com/google/uuid"

	"halomind/internal/adapters/ai"
	domain "halomind/internal/domain/study"
)

// Wire shapes carry no id: models sometimes invent their own ("id": 1),
// and ids are assigned here.
type questionPayload struct {
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Explanation  string   `json:"explanation"`
}

type quizPayload struct {
	Questions []questionPayload `json:"questions"`
}

type flashcardPayload struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type flashcardsPayload struct {
	Flashcards []flashcardPayload `json:"flashcards"`
}

// GenerateQuiz creates a five-question quiz for a section. A nil quiz
// means the response could not be interpreted.
func (s *Service) GenerateQuiz(ctx context.Context, sectionTitle, source string) (*domain.Quiz, error) {
	if err := ValidateStruct(SectionInput{SectionTitle: sectionTitle, Context: source}); err != nil {
		return nil, err
	}
	return s.quiz(ctx, ai.OpQuiz, quizPrompt(sectionTitle, source))
}

// GenerateAdaptiveQuiz creates a quiz targeting topics the learner missed
func (s *Service) GenerateAdaptiveQuiz(ctx context.Context, weakTopics []string, source string) (*domain.Quiz, error) {
	if err := ValidateStruct(AdaptiveQuizInput{WeakTopics: weakTopics, Context: source}); err != nil {
		return nil, err
	}
	return s.quiz(ctx, ai.OpAdaptiveQuiz, adaptiveQuizPrompt(weakTopics, source))
}

func (s *Service) quiz(ctx context.Context, op ai.OperationKind, prompt string) (*domain.Quiz, error) {
	req, err := ai.TextRequest(op, s.gen.Model(ctx), prompt, jsonConfig(quizResponseSchema))
	if err != nil {
		return nil, err
	}

	resp, err := s.gen.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	payload := decode[quizPayload](s, op, quizDocumentSchema, resp)
	if payload == nil {
		return nil, nil
	}

	quiz := &domain.Quiz{ID: uuid.New(), Questions: make([]domain.Question, 0, len(payload.Questions))}
	for _, q := range payload.Questions {
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			s.log.Debugw("dropping question with out-of-range answer", "operation", op, "correct_index", q.CorrectIndex, "options", len(q.Options))
			continue
		}
		quiz.Questions = append(quiz.Questions, domain.Question{
			ID:           uuid.New(),
			Prompt:       q.Prompt,
			Options:      q.Options,
			CorrectIndex: q.CorrectIndex,
			Explanation:  q.Explanation,
		})
	}
	return quiz, nil
}

// GenerateFlashcards creates question-answer cards for a section. A nil
// slice means the response could not be interpreted.
func (s *Service) GenerateFlashcards(ctx context.Context, sectionTitle, source string) ([]domain.Flashcard, error) {
	if err := ValidateStruct(SectionInput{SectionTitle: sectionTitle, Context: source}); err != nil {
		return nil, err
	}

	req, err := ai.TextRequest(ai.OpFlashcards, s.gen.Model(ctx), flashcardsPrompt(sectionTitle, source), jsonConfig(flashcardsResponseSchema))
	if err != nil {
		return nil, err
	}

	resp, err := s.gen.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	payload := decode[flashcardsPayload](s, ai.OpFlashcards, flashcardsDocumentSchema, resp)
	if payload == nil {
		return nil, nil
	}

	cards := make([]domain.Flashcard, 0, len(payload.Flashcards))
	for _, c := range payload.Flashcards {
		cards = append(cards, domain.Flashcard{ID: uuid.New(), Question: c.Question, Answer: c.Answer})
	}
	return cards, nil
}
