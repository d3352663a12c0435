package study

import (
	"github.com/xeipuuv/gojsonschema"
	"google.golang.org/genai"
)

func stringSchema() *genai.Schema { return &genai.Schema{Type: genai.TypeString} }

func objectSchema(props map[string]*genai.Schema, required ...string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeObject, Properties: props, Required: required}
}

func arraySchema(items *genai.Schema) *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: items}
}

// Response schemas sent to the primary provider for structured output
var (
	quizResponseSchema = objectSchema(map[string]*genai.Schema{
		"questions": arraySchema(objectSchema(map[string]*genai.Schema{
			"prompt":       stringSchema(),
			"options":      arraySchema(stringSchema()),
			"correctIndex": {Type: genai.TypeInteger},
			"explanation":  stringSchema(),
		}, "prompt", "options", "correctIndex", "explanation")),
	}, "questions")

	flashcardsResponseSchema = objectSchema(map[string]*genai.Schema{
		"flashcards": arraySchema(objectSchema(map[string]*genai.Schema{
			"question": stringSchema(),
			"answer":   stringSchema(),
		}, "question", "answer")),
	}, "flashcards")

	scheduleResponseSchema = objectSchema(map[string]*genai.Schema{
		"schedule": arraySchema(objectSchema(map[string]*genai.Schema{
			"sectionTitle": stringSchema(),
			"date":         {Type: genai.TypeString, Description: "Date in YYYY-MM-DD format"},
		}, "sectionTitle", "date")),
	}, "schedule")

	courseResponseSchema = objectSchema(map[string]*genai.Schema{
		"courseTitle":  stringSchema(),
		"sectionTitle": stringSchema(),
		"notes":        stringSchema(),
	}, "courseTitle", "sectionTitle", "notes")
)

// JSON Schemas the parsed payloads are checked against. The fallback
// provider only honors a generic JSON mode, so its output is not guaranteed
// to follow the response schema.
const (
	quizDocumentSchema = `{
  "type": "object",
  "required": ["questions"],
  "properties": {
    "questions": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["prompt", "options", "correctIndex", "explanation"],
        "properties": {
          "prompt": {"type": "string"},
          "options": {"type": "array", "items": {"type": "string"}, "minItems": 2},
          "correctIndex": {"type": "integer", "minimum": 0},
          "explanation": {"type": "string"}
        }
      }
    }
  }
}`

	flashcardsDocumentSchema = `{
  "type": "object",
  "required": ["flashcards"],
  "properties": {
    "flashcards": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["question", "answer"],
        "properties": {
          "question": {"type": "string"},
          "answer": {"type": "string"}
        }
      }
    }
  }
}`

	explainerDocumentSchema = `{
  "type": "object",
  "required": ["title", "points"],
  "properties": {
    "title": {"type": "string"},
    "points": {"type": "array", "items": {"type": "string"}},
    "diagramPrompt": {"type": "string"}
  }
}`

	scheduleDocumentSchema = `{
  "type": "object",
  "required": ["schedule"],
  "properties": {
    "schedule": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["sectionTitle", "date"],
        "properties": {
          "sectionTitle": {"type": "string"},
          "date": {"type": "string"}
        }
      }
    }
  }
}`

	courseDocumentSchema = `{
  "type": "object",
  "required": ["courseTitle", "sectionTitle", "notes"],
  "properties": {
    "courseTitle": {"type": "string"},
    "sectionTitle": {"type": "string"},
    "notes": {"type": "string"}
  }
}`
)

// conformsTo reports whether the JSON document satisfies schema. Documents
// that cannot be loaded do not conform.
func conformsTo(schema, document string) bool {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewStringLoader(document),
	)
	if err != nil {
		return false
	}
	return result.Valid()
}
