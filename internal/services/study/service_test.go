package study

import (
	"context"
	"iter"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"halomind/internal/adapters/ai"
	"halomind/internal/adapters/ai/aitest"
	"halomind/pkg/errors"
	"halomind/pkg/logger"
)

func newTestService(t *testing.T, opts ...Option) (*Service, *aitest.Harness) {
	t.Helper()
	h := aitest.NewHarness(t)
	return NewService(h.Orchestrator, logger.Nop(), opts...), h
}

func replyWith(text string) func(context.Context, *ai.Request) (*ai.Response, error) {
	return func(context.Context, *ai.Request) (*ai.Response, error) {
		return aitest.Text(ai.ProviderGemini, text), nil
	}
}

const twoQuestions = `{"questions": [
  {"prompt": "2+2?", "options": ["3", "4", "5", "6"], "correctIndex": 1, "explanation": "basic sum"},
  {"prompt": "Out of range", "options": ["a", "b"], "correctIndex": 7, "explanation": "broken"}
]}`

func TestGenerateQuiz_FencedJSON(t *testing.T) {
	svc, h := newTestService(t)
	h.Primary.GenerateFunc = replyWith("```json\n" + twoQuestions + "\n```")

	quiz, err := svc.GenerateQuiz(context.Background(), "Arithmetic", "Numbers add up.")
	require.NoError(t, err)
	require.NotNil(t, quiz)

	require.Len(t, quiz.Questions, 1)
	assert.Equal(t, "2+2?", quiz.Questions[0].Prompt)
	assert.Equal(t, 1, quiz.Questions[0].CorrectIndex)
	assert.NotEqual(t, quiz.ID, quiz.Questions[0].ID)

	req := h.Primary.LastRequest()
	require.NotNil(t, req)
	assert.Equal(t, ai.OpQuiz, req.Kind)
	assert.True(t, req.JSONMode())
	assert.NotNil(t, req.Config.ResponseSchema)
}

func TestGenerateQuiz_UninterpretableResponsesYieldNil(t *testing.T) {
	cases := map[string]string{
		"truncated":       `{"questions": [{"prompt": "2+2?", "options": ["3", "4"`,
		"schema mismatch": `{"questions": [{"options": ["3", "4"], "correctIndex": 1}]}`,
		"prose":           "Sorry, I cannot help with that.",
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			svc, h := newTestService(t)
			h.Primary.GenerateFunc = replyWith(text)

			quiz, err := svc.GenerateQuiz(context.Background(), "Arithmetic", "Numbers add up.")
			require.NoError(t, err)
			assert.Nil(t, quiz)
		})
	}
}

func TestGenerateQuiz_InvalidInputMakesNoCall(t *testing.T) {
	svc, h := newTestService(t)

	_, err := svc.GenerateQuiz(context.Background(), "", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))

	var verr *errors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "sectionTitle", verr.Field)
	assert.Zero(t, h.Primary.Calls())
}

func TestGenerateAdaptiveQuiz_ListsWeakTopics(t *testing.T) {
	svc, h := newTestService(t)
	h.Primary.GenerateFunc = replyWith(twoQuestions)

	quiz, err := svc.GenerateAdaptiveQuiz(context.Background(), []string{"fractions", "ratios"}, "Maths chapter.")
	require.NoError(t, err)
	require.NotNil(t, quiz)

	prompt := h.Primary.LastRequest().Parts[0].Text
	assert.Contains(t, prompt, "- fractions\n- ratios")
	assert.Equal(t, ai.OpAdaptiveQuiz, h.Primary.LastRequest().Kind)
}

func TestGenerateFlashcards(t *testing.T) {
	svc, h := newTestService(t)
	h.Primary.GenerateFunc = replyWith(`{"flashcards": [{"question": "Q1", "answer": "A1"}, {"question": "Q2", "answer": "A2"}]}`)

	cards, err := svc.GenerateFlashcards(context.Background(), "Cells", "Cells are units of life.")
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "A2", cards[1].Answer)
	assert.NotEqual(t, cards[0].ID, cards[1].ID)
}

func TestGenerateSimpleExplainer_PrimaryAttachesGrounding(t *testing.T) {
	svc, h := newTestService(t)
	h.Primary.GenerateFunc = func(_ context.Context, req *ai.Request) (*ai.Response, error) {
		resp := aitest.Text(ai.ProviderGemini, `{"title": "Photosynthesis", "points": ["light", "sugar"], "diagramPrompt": "a leaf"}`)
		resp.Grounding = []ai.GroundingSource{{Title: "Wiki", URI: "https://example.org/wiki"}}
		return resp, nil
	}

	explainer, err := svc.GenerateSimpleExplainer(context.Background(), "Plants", "Plants make food.")
	require.NoError(t, err)
	require.NotNil(t, explainer)

	assert.Equal(t, "Photosynthesis", explainer.Title)
	assert.Equal(t, []string{"light", "sugar"}, explainer.Points)
	require.Len(t, explainer.GroundingSources, 1)
	assert.Equal(t, "https://example.org/wiki", explainer.GroundingSources[0].URI)

	req := h.Primary.LastRequest()
	assert.True(t, req.Config.GoogleSearch)
	assert.False(t, req.JSONMode())
	assert.Contains(t, req.Parts[0].Text, searchSentence)
}

func TestGenerateSimpleExplainer_FallbackDropsSearch(t *testing.T) {
	svc, h := newTestService(t)
	h.Fallback.CompleteFunc = func(context.Context, ai.FallbackRequest) (*ai.Response, error) {
		return aitest.Text(ai.ProviderOpenRouter, `{"title": "Photosynthesis", "points": ["light"], "diagramPrompt": "a leaf"}`), nil
	}

	explainer, err := svc.GenerateSimpleExplainer(context.Background(), "Plants", "Plants make food.")
	require.NoError(t, err)
	require.NotNil(t, explainer)
	assert.Empty(t, explainer.GroundingSources)

	assert.Equal(t, 3, h.Primary.Calls())
	reqs := h.Fallback.Requests()
	require.Len(t, reqs, 1)
	assert.True(t, reqs[0].JSONMode())
	user := reqs[0].Messages[len(reqs[0].Messages)-1]
	assert.NotContains(t, user.Text, "Google Search")
	assert.Contains(t, user.Text, "Simple Explainer")
}

func TestGenerateNarrationScript_ThinkingBudgetOnlyForPro(t *testing.T) {
	svc, h := newTestService(t)
	h.Primary.GenerateFunc = replyWith("Scene one.")

	script, err := svc.GenerateNarrationScript(context.Background(), "Gravity", "Things fall.")
	require.NoError(t, err)
	assert.Equal(t, "Scene one.", script)
	assert.Nil(t, h.Primary.LastRequest().Config.ThinkingBudget)

	_, err = h.Orchestrator.Resolver().Set(context.Background(), ai.ModelPro)
	require.NoError(t, err)

	_, err = svc.GenerateNarrationScript(context.Background(), "Gravity", "Things fall.")
	require.NoError(t, err)
	req := h.Primary.LastRequest()
	assert.Equal(t, ai.ModelPro, req.Model)
	require.NotNil(t, req.Config.ThinkingBudget)
	assert.Equal(t, int32(32768), *req.Config.ThinkingBudget)
}

func TestGenerateStudySchedule_UsesClockAndDropsInvalidDates(t *testing.T) {
	today := time.Date(2025, time.March, 14, 9, 30, 0, 0, time.UTC)
	svc, h := newTestService(t, WithClock(func() time.Time { return today }))
	h.Primary.GenerateFunc = replyWith(`{"schedule": [
	  {"sectionTitle": "Intro", "date": "2025-03-15"},
	  {"sectionTitle": "Middle", "date": "2025-02-30"},
	  {"sectionTitle": "End", "date": "next week"}
	]}`)

	schedule, err := svc.GenerateStudySchedule(context.Background(), "Pass the exam", []string{"Intro", "Middle", "End"})
	require.NoError(t, err)
	require.NotNil(t, schedule)
	require.Len(t, schedule.Entries, 1)
	assert.Equal(t, "Intro", schedule.Entries[0].SectionTitle)

	req := h.Primary.LastRequest()
	assert.Contains(t, req.Config.SystemInstruction, "Today's date is 2025-03-14.")
	assert.Equal(t, "User goal: \"Pass the exam\"\n\nCourse sections to schedule:\n- Intro\n- Middle\n- End", req.Parts[0].Text)
}

func TestStructuredResults_IgnoreModelSuppliedIDs(t *testing.T) {
	svc, h := newTestService(t)
	ctx := context.Background()

	h.Primary.GenerateFunc = replyWith(`{"questions":[{"id":1,"prompt":"2+2?","options":["3","4"],"correctIndex":1,"explanation":"sum"}]}`)
	quiz, err := svc.GenerateQuiz(ctx, "Arithmetic", "Numbers add up.")
	require.NoError(t, err)
	require.NotNil(t, quiz)
	require.Len(t, quiz.Questions, 1)
	assert.NotEqual(t, uuid.Nil, quiz.Questions[0].ID)

	h.Primary.GenerateFunc = replyWith(`{"flashcards":[{"id":"card-1","question":"Q","answer":"A"}]}`)
	cards, err := svc.GenerateFlashcards(ctx, "Arithmetic", "Numbers add up.")
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.NotEqual(t, uuid.Nil, cards[0].ID)

	h.Primary.GenerateFunc = replyWith(`{"schedule":[{"id":"day-1","sectionTitle":"Intro","date":"2025-03-15"}]}`)
	schedule, err := svc.GenerateStudySchedule(ctx, "Goal", []string{"Intro"})
	require.NoError(t, err)
	require.NotNil(t, schedule)
	require.Len(t, schedule.Entries, 1)
	assert.NotEqual(t, uuid.Nil, schedule.Entries[0].ID)
}

func TestGenerateStudySchedule_UnparseableYieldsNil(t *testing.T) {
	svc, h := newTestService(t)
	h.Primary.GenerateFunc = replyWith(`{"plan": []}`)

	schedule, err := svc.GenerateStudySchedule(context.Background(), "Goal", []string{"A"})
	require.NoError(t, err)
	assert.Nil(t, schedule)
}

func TestGenerateDiagram(t *testing.T) {
	svc, h := newTestService(t)
	var gotPrompt string
	h.Primary.ImageFunc = func(_ context.Context, model, prompt string) (*ai.Media, error) {
		gotPrompt = prompt
		return &ai.Media{Provider: ai.ProviderGemini, Data: []byte{0xff, 0xd8}, MIMEType: "image/jpeg"}, nil
	}

	uri, err := svc.GenerateDiagram(context.Background(), "a water cycle")
	require.NoError(t, err)
	assert.Equal(t, "data:image/jpeg;base64,/9g=", uri)
	assert.Equal(t, "Technical diagram, educational illustration: a water cycle", gotPrompt)
}

func TestGenerateDiagram_NoImageIsEmpty(t *testing.T) {
	svc, h := newTestService(t)
	h.Primary.ImageFunc = func(context.Context, string, string) (*ai.Media, error) { return nil, nil }

	uri, err := svc.GenerateDiagram(context.Background(), "a water cycle")
	require.NoError(t, err)
	assert.Empty(t, uri)
}

func TestGenerateSpeech_FallsBack(t *testing.T) {
	svc, h := newTestService(t)
	h.Fallback.SpeakFunc = func(context.Context, string, string) (*ai.Media, error) {
		return &ai.Media{Provider: ai.ProviderOpenRouter, Data: []byte("mp3"), MIMEType: "audio/mpeg"}, nil
	}

	uri, err := svc.GenerateSpeech(context.Background(), "Hello learner")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:audio/mpeg;base64,"))
	assert.Equal(t, 1, h.Fallback.Calls())
}

func TestAnalyzeImage_SendsImageBeforePrompt(t *testing.T) {
	svc, h := newTestService(t)
	h.Primary.GenerateFunc = replyWith("A cat.")

	text, err := svc.AnalyzeImage(context.Background(), []byte{1, 2, 3}, "image/png", "What is this?")
	require.NoError(t, err)
	assert.Equal(t, "A cat.", text)

	req := h.Primary.LastRequest()
	require.Len(t, req.Parts, 2)
	assert.True(t, req.Parts[0].IsBinary())
	assert.Equal(t, "What is this?", req.Parts[1].Text)
}

func TestAnalyzeImage_RejectsMissingData(t *testing.T) {
	svc, h := newTestService(t)

	_, err := svc.AnalyzeImage(context.Background(), nil, "image/png", "What is this?")
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
	assert.Zero(t, h.Primary.Calls())
}

func TestAnalyzeVideo_NeverFallsBack(t *testing.T) {
	svc, h := newTestService(t)
	h.Primary.GenerateFunc = func(context.Context, *ai.Request) (*ai.Response, error) {
		return nil, aitest.StatusError(ai.ProviderGemini, 503)
	}

	_, err := svc.AnalyzeVideo(context.Background(), []byte{0, 0, 1}, "video/mp4", "Summarize")
	require.Error(t, err)
	assert.Equal(t, 3, h.Primary.Calls())
	assert.Zero(t, h.Fallback.Calls())
}

func TestGenerateCourseFromImage(t *testing.T) {
	svc, h := newTestService(t)
	h.Primary.GenerateFunc = replyWith(`{"courseTitle": "Biology", "sectionTitle": "Cells", "notes": "# Cells"}`)

	draft, err := svc.GenerateCourseFromImage(context.Background(), []byte{1}, "image/jpeg")
	require.NoError(t, err)
	require.NotNil(t, draft)
	assert.Equal(t, "Biology", draft.CourseTitle)
	assert.Equal(t, "# Cells", draft.Notes)
	assert.Equal(t, courseFromImagePrompt, h.Primary.LastRequest().Parts[1].Text)
}

func TestGenerateNotesStream(t *testing.T) {
	svc, h := newTestService(t)
	h.Primary.StreamFunc = func(context.Context, *ai.Request) iter.Seq2[string, error] {
		return aitest.Chunks("# Notes", "\n- point")
	}

	stream, err := svc.GenerateNotesStream(context.Background(), "Topic", "Body")
	require.NoError(t, err)
	text, err := stream.Collect()
	require.NoError(t, err)
	assert.Equal(t, "# Notes\n- point", text)
}

func TestExtractTextFromHTML_SendsCleanedMarkdown(t *testing.T) {
	svc, h := newTestService(t)
	h.Primary.GenerateFunc = replyWith("Article body.")

	html := `<html><body><nav>Menu</nav><h1>Title</h1><p>Body text.</p><script>track()</script></body></html>`
	text, err := svc.ExtractTextFromHTML(context.Background(), html)
	require.NoError(t, err)
	assert.Equal(t, "Article body.", text)

	prompt := h.Primary.LastRequest().Parts[0].Text
	assert.Contains(t, prompt, "# Title")
	assert.NotContains(t, prompt, "Menu")
	assert.NotContains(t, prompt, "track()")
}

func TestStartChat(t *testing.T) {
	svc, h := newTestService(t)
	h.Primary.ChatFunc = func(_ context.Context, _ []ai.ChatMessage, text string) (*ai.Response, error) {
		return aitest.Text(ai.ProviderGemini, "echo: "+text), nil
	}

	session, err := svc.StartChat(context.Background(), "You are a tutor.")
	require.NoError(t, err)

	resp, err := session.Send(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", resp.Text)
	assert.Len(t, session.History(), 2)
}
