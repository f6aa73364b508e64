package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// AnnotationKind is the closed set of overlay element types.
type AnnotationKind string

const (
	KindSignature AnnotationKind = "signature"
	KindText      AnnotationKind = "text"
	KindDate      AnnotationKind = "date"
)

// Annotation is one positioned overlay element on a Document. Coordinates
// are document-relative and round-trip exactly; the core does no bounds
// checking on them.
type Annotation struct {
	ID     string         `json:"id"`
	X      float64        `json:"x"`
	Y      float64        `json:"y"`
	Width  float64        `json:"width"`
	Height float64        `json:"height"`
	Kind   AnnotationKind `json:"kind"`
	Text   string         `json:"text"`
}

// Validate rejects annotations whose kind is outside the closed set.
func (a Annotation) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Kind, validation.Required, validation.In(KindSignature, KindText, KindDate)),
	)
}
