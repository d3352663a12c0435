package study

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"halomind/pkg/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// SectionInput is the input of section-scoped generators
type SectionInput struct {
	SectionTitle string `json:"sectionTitle" validate:"required,max=500"`
	Context      string `json:"context" validate:"required"`
}

// AdaptiveQuizInput lists the topics the learner missed
type AdaptiveQuizInput struct {
	WeakTopics []string `json:"weakTopics" validate:"required,min=1,dive,required"`
	Context    string   `json:"context" validate:"required"`
}

// MediaInput carries inline binary content to analyze
type MediaInput struct {
	Data     []byte `json:"data" validate:"required,min=1"`
	MIMEType string `json:"mimeType" validate:"required,contains=/"`
	Prompt   string `json:"prompt" validate:"required"`
}

// ScheduleInput is the goal and the sections to plan
type ScheduleInput struct {
	Goal          string   `json:"goal" validate:"required"`
	SectionTitles []string `json:"sectionTitles" validate:"required,min=1,dive,required"`
}

// ValidateStruct validates s and converts failures into pkg/errors
// validation errors
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(errors.ErrInvalidInput, err.Error())
	}

	var multi errors.MultiError
	for _, fe := range verrs {
		multi.Add(errors.NewValidationError(lowerFirst(fe.Field()), fieldMessage(fe)))
	}
	return multi.ToError()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must have at least " + fe.Param() + " item(s)"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "contains":
		return "must contain " + fe.Param()
	default:
		return "failed on '" + fe.Tag() + "' rule"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// requireText rejects blank single-value inputs
func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.NewValidationError(field, "is required")
	}
	return nil
}
