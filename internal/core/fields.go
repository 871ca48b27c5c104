package core

import "fmt"

// Field identifies one of the ten record fields
type Field int

const (
	FieldProjectTitle Field = iota
	FieldClientName
	FieldUseCase
	FieldCompletionDate
	FieldProjectObjectives
	FieldBusinessChallenges
	FieldOurApproach
	FieldValueCreated
	FieldMeasuresOfSuccess
	FieldIndustry
)

var fieldNames = [...]string{
	FieldProjectTitle:       "Project Title",
	FieldClientName:         "Client Name",
	FieldUseCase:            "Use Case",
	FieldCompletionDate:     "Completion Date",
	FieldProjectObjectives:  "Project Objectives",
	FieldBusinessChallenges: "Business Challenges",
	FieldOurApproach:        "Our Approach",
	FieldValueCreated:       "Value Created",
	FieldMeasuresOfSuccess:  "Measures of Success",
	FieldIndustry:           "Industry",
}

// AllFields lists every field in record (and table column) order
var AllFields = []Field{
	FieldProjectTitle,
	FieldClientName,
	FieldUseCase,
	FieldCompletionDate,
	FieldProjectObjectives,
	FieldBusinessChallenges,
	FieldOurApproach,
	FieldValueCreated,
	FieldMeasuresOfSuccess,
	FieldIndustry,
}

// NarrativeFields are the free-text fields condensed by the summarizer
var NarrativeFields = []Field{
	FieldProjectObjectives,
	FieldBusinessChallenges,
	FieldOurApproach,
	FieldValueCreated,
	FieldMeasuresOfSuccess,
}

// String returns the display name of the field
func (f Field) String() string {
	if f < 0 || int(f) >= len(fieldNames) {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldNames[f]
}

// Get returns the value of field f
func (r *Record) Get(f Field) string {
	if p := r.field(f); p != nil {
		return *p
	}
	return ""
}

// Set assigns the value of field f
func (r *Record) Set(f Field, value string) {
	if p := r.field(f); p != nil {
		*p = value
	}
}

func (r *Record) field(f Field) *string {
	switch f {
	case FieldProjectTitle:
		return &r.ProjectTitle
	case FieldClientName:
		return &r.ClientName
	case FieldUseCase:
		return &r.UseCase
	case FieldCompletionDate:
		return &r.CompletionDate
	case FieldProjectObjectives:
		return &r.ProjectObjectives
	case FieldBusinessChallenges:
		return &r.BusinessChallenges
	case FieldOurApproach:
		return &r.OurApproach
	case FieldValueCreated:
		return &r.ValueCreated
	case FieldMeasuresOfSuccess:
		return &r.MeasuresOfSuccess
	case FieldIndustry:
		return &r.Industry
	}
	return nil
}

// extractionPrompts returns the per-field instructions. firm, when set,
// is excluded from the client name answer.
func extractionPrompts(firm string) map[Field]string {
	client := "Extract the client name:"
	if firm != "" {
		client = fmt.Sprintf("Extract the client name (not %s):", firm)
	}
	return map[Field]string{
		FieldProjectTitle:       "Extract the project title:",
		FieldClientName:         client,
		FieldUseCase:            "Extract the specific use case or objective of the project:",
		FieldCompletionDate:     "Extract the completion date (Month and Year):",
		FieldProjectObjectives:  "Extract the main objectives of the project:",
		FieldBusinessChallenges: "Extract the key business challenges faced by the client:",
		FieldOurApproach:        "Extract the approach taken during the project:",
		FieldValueCreated:       "Extract the value created or outcomes achieved from the project:",
		FieldMeasuresOfSuccess:  "Extract the measures of success for the project:",
		FieldIndustry:           "Extract the industry related to the project:",
	}
}

var summaryPrompts = map[Field]string{
	FieldProjectObjectives:  "Summarize the project objectives briefly:",
	FieldBusinessChallenges: "Summarize the business challenges faced briefly:",
	FieldOurApproach:        "Summarize our approach briefly:",
	FieldValueCreated:       "Summarize the value created briefly:",
	FieldMeasuresOfSuccess:  "Summarize the measures of success briefly:",
}

func buildPrompt(instruction, content string) string {
	return instruction + "\n\n" + content
}
