package model

// StepBinding associates one numbered answer step with at most one
// illustrating image. A MediaRef is never bound to two steps within the
// same answer.
type StepBinding struct {
	StepNumber int       `json:"step_number"`
	StepText   string    `json:"step_text"`
	Media      *MediaRef `json:"media,omitempty"`
}
