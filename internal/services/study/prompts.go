package study

import (
	"fmt"
	"strings"
)

const (
	contextLimit      = 30000
	largeContextLimit = 100000

	// searchSentence is removed from the explainer prompt when the
	// fallback provider, which has no search grounding, serves it
	searchSentence = "Use Google Search to ensure accuracy and include up-to-date information if relevant. "

	diagramPrefix = "Technical diagram, educational illustration: "

	proThinkingBudget int32 = 32768
)

// truncate keeps at most limit runes of s
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func contextBlock(label, body string, limit int) string {
	return fmt.Sprintf("%s:\n---\n%s\n---", label, truncate(body, limit))
}

func notesPrompt(sectionTitle, context string) string {
	return fmt.Sprintf("Generate structured, easy-to-read notes in Markdown format for the section titled \"%s\". "+
		"The notes should be based on the provided context. Use headings, bullet points, and bold text to organize the information clearly.\n\n%s",
		sectionTitle, contextBlock("Context", context, contextLimit))
}

func quizPrompt(sectionTitle, context string) string {
	return fmt.Sprintf("Create a quiz with 5 multiple-choice questions for the section \"%s\", based on the provided context. "+
		"For each question, provide 4 options, indicate the correct answer's index, and give a brief explanation. "+
		"Respond ONLY with a JSON object.\n\n%s",
		sectionTitle, contextBlock("Context", context, contextLimit))
}

func flashcardsPrompt(sectionTitle, context string) string {
	return fmt.Sprintf("Generate a set of 10-15 flashcards for the section \"%s\" based on the provided context. "+
		"Each flashcard should be a concise question-answer pair. Respond ONLY with a JSON object.\n\n%s",
		sectionTitle, contextBlock("Context", context, contextLimit))
}

func adaptiveQuizPrompt(weakTopics []string, context string) string {
	return fmt.Sprintf("Based on the provided context, generate a new quiz with 5 multiple-choice questions. "+
		"These questions should specifically test the user's understanding of topics they previously struggled with. "+
		"Topics the user answered incorrectly on previous questions about:\n- %s\n\n"+
		"For each new question, provide 4 options, indicate the correct answer's index, and give a brief explanation. "+
		"Respond ONLY with a JSON object.\n\n%s",
		strings.Join(weakTopics, "\n- "), contextBlock("Context", context, contextLimit))
}

func explainerPrompt(sectionTitle, context string) string {
	return fmt.Sprintf("Create a \"Simple Explainer\" for the section \"%s\" using the provided context. "+
		"The explainer should have a title, 4-6 key bullet points, and a descriptive prompt for generating a relevant diagram. "+
		searchSentence+
		"Respond ONLY with a valid JSON object of the format: {\"title\": string, \"points\": string[], \"diagramPrompt\": string}. "+
		"Do not include any other text or markdown formatting.\n\n%s",
		sectionTitle, contextBlock("Context", context, contextLimit))
}

func scriptPrompt(sectionTitle, context string) string {
	return fmt.Sprintf("You are an expert educator. Write a detailed, engaging, and comprehensive script for a 60-90 second educational video about \"%s\". "+
		"The script should be based on the provided context, breaking down complex topics into simple, understandable parts. "+
		"Use your advanced reasoning capabilities to structure the narrative logically.\n\n%s",
		sectionTitle, contextBlock("Context", context, largeContextLimit))
}

func htmlExtractionPrompt(html string) string {
	return "Extract the main article text from the following HTML content. " +
		"Ignore all scripts, styles, navigation bars, sidebars, ads, and footers. " +
		"Focus solely on the core content (paragraphs, headings) of the article. " +
		"Respond ONLY with the clean, extracted text.\n\n" +
		contextBlock("HTML", html, largeContextLimit)
}

const courseFromImagePrompt = "You are an AI assistant that processes images of documents. Extract all text from the provided image. " +
	"Based on the extracted text, generate a concise and relevant course title, a title for this specific section of the course, " +
	"and the section notes in Markdown format. Respond ONLY with a single, valid JSON object.\n" +
	"Example Response:\n" +
	`{"courseTitle": "Introduction to Photosynthesis","sectionTitle": "The Calvin Cycle","notes": "# The Calvin Cycle\n\n- The Calvin Cycle is a set of light-independent reactions..."}`

func scheduleSystemInstruction(today string) string {
	return fmt.Sprintf("You are a study planning assistant. Today's date is %s. "+
		"Given a user's goal and a list of course sections, create a study schedule. The dates must be in YYYY-MM-DD format. "+
		"Respond ONLY with a valid JSON object of the format: {\"schedule\": [{\"sectionTitle\": string, \"date\": string}]}.", today)
}

func schedulePrompt(goal string, sectionTitles []string) string {
	return fmt.Sprintf("User goal: \"%s\"\n\nCourse sections to schedule:\n- %s", goal, strings.Join(sectionTitles, "\n- "))
}

func rephrasePrompt(text string) string {
	return "Rephrase the following text to make it simpler, clearer, and easier to understand for a beginner. " +
		"Maintain the core meaning and accuracy, but use everyday language and analogies where helpful.\n\n" +
		contextBlock("Original Text", text, contextLimit) +
		"\n\nSimplified Version (in Markdown format):"
}
