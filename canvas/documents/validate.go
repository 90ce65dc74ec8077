package documents

import (
	"fmt"
	"slices"
	"strings"
)

var requiredStrokeFields = []string{"x", "y", "color"}

var allowedColors = []string{"black", "white", "red", "blue", "green", "yellow", "orange"}

// a stroke payload missing required fields
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// returns the required stroke fields absent from payload, in declaration order
func MissingFields(payload map[string]any) []string {
	var missing []string
	for _, field := range requiredStrokeFields {
		if _, ok := payload[field]; !ok {
			missing = append(missing, field)
		}
	}

	return missing
}

// checks the color constraint of a payload that already has its required fields
func ValidateColor(payload map[string]any) error {
	color, ok := payload["color"].(string)
	if !ok || !slices.Contains(allowedColors, color) {
		return fmt.Errorf("%w: color must be one of %s", ErrInvalidStroke, strings.Join(allowedColors, ", "))
	}

	return nil
}

// runs both checks; the missing-field error comes first
func ValidateStroke(payload map[string]any) error {
	if missing := MissingFields(payload); len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}

	return ValidateColor(payload)
}

// returns the allowed stroke colors
func AllowedColors() []string {
	return slices.Clone(allowedColors)
}
