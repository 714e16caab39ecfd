package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"medmonics/internal/domain"
	"medmonics/internal/dto"
	"medmonics/internal/prompt"
)

const (
	maxTopicLength = 4000
	maxFacts       = 30
	maxFactLength  = 500
	maxInputs      = 50
	maxNameLength  = 120
)

var (
	languages    = []string{"en", "es"}
	visualStyles = []string{prompt.StyleCartoon, prompt.StylePhotorealistic, prompt.StyleProfessional}

	jobNamePattern     = regexp.MustCompile(`^batches/[A-Za-z0-9_-]+$`)
	pathSegmentPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// Validator provides request validation functionality
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateCreateMnemonicRequest validates the body of a pipeline run.
func (v *Validator) ValidateCreateMnemonicRequest(req *dto.CreateMnemonicRequest) domain.ValidationErrors {
	var errors domain.ValidationErrors

	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		errors = append(errors, domain.NewMissingFieldError("topic"))
	} else if n := utf8.RuneCountInString(topic); n > maxTopicLength {
		errors = append(errors, domain.NewOutOfRangeError("topic", n, 1, maxTopicLength))
	}

	if len(req.Facts) > maxFacts {
		errors = append(errors, domain.NewOutOfRangeError("facts", len(req.Facts), 0, maxFacts))
	}
	for _, f := range req.Facts {
		if utf8.RuneCountInString(f) > maxFactLength {
			errors = append(errors, domain.NewOutOfRangeError("facts", utf8.RuneCountInString(f), 1, maxFactLength))
			break
		}
	}

	errors = append(errors, v.validateOptions(req.Language, req.VisualStyle, req.Specialty)...)
	return errors
}

// ValidateStageRequest validates a staging request: a topic or explicit inputs.
func (v *Validator) ValidateStageRequest(req *dto.StageRequest) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(req.Topic) == "" && len(req.Inputs) == 0 {
		errors = append(errors, domain.NewMissingFieldError("topic"))
	}
	if len(req.Inputs) > maxInputs {
		errors = append(errors, domain.NewOutOfRangeError("inputs", len(req.Inputs), 1, maxInputs))
	}
	for _, in := range req.Inputs {
		if strings.TrimSpace(in.Content) == "" {
			errors = append(errors, domain.NewMissingFieldError("inputs.topic"))
			break
		}
	}

	errors = append(errors, v.validateOptions(req.Language, req.VisualStyle, req.Specialty)...)
	return errors
}

// ValidateJobName validates an optional provider job name.
func (v *Validator) ValidateJobName(name string) domain.ValidationErrors {
	if name == "" || jobNamePattern.MatchString(name) {
		return nil
	}
	return domain.ValidationErrors{domain.NewInvalidFormatError("job_name", name)}
}

// ValidateGenerationID validates the two path segments of a saved generation id.
func (v *Validator) ValidateGenerationID(specialty, name string) domain.ValidationErrors {
	var errors domain.ValidationErrors
	if !isValidSegment(specialty) {
		errors = append(errors, domain.NewInvalidFormatError("specialty", specialty))
	}
	if !isValidSegment(name) {
		errors = append(errors, domain.NewInvalidFormatError("name", name))
	}
	return errors
}

func (v *Validator) validateOptions(language, style, specialty string) domain.ValidationErrors {
	var errors domain.ValidationErrors
	if language != "" && !contains(languages, strings.ToLower(language)) {
		errors = append(errors, domain.NewUnsupportedValueError("language", language, languages))
	}
	if style != "" && !contains(visualStyles, strings.ToLower(style)) {
		errors = append(errors, domain.NewUnsupportedValueError("visual_style", style, visualStyles))
	}
	if utf8.RuneCountInString(specialty) > maxNameLength {
		errors = append(errors, domain.NewOutOfRangeError("specialty", utf8.RuneCountInString(specialty), 0, maxNameLength))
	}
	return errors
}

// isValidSegment checks a slug produced by the bundle store.
func isValidSegment(s string) bool {
	if len(s) == 0 || len(s) > 200 {
		return false
	}
	return pathSegmentPattern.MatchString(s)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
