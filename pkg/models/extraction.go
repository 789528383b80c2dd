package models

// ExtractedAttributes is the structured output of the AI attribute extractor.
// Empty fields mean the extractor found nothing for that dimension.
type ExtractedAttributes struct {
	Category string `json:"category,omitempty"`
	Color    string `json:"color,omitempty"`
	Brand    string `json:"brand,omitempty"`
	Location string `json:"location,omitempty"`
}

// IsEmpty returns true when no attribute was extracted
func (a *ExtractedAttributes) IsEmpty() bool {
	if a == nil {
		return true
	}
	return a.Category == "" && a.Color == "" && a.Brand == "" && a.Location == ""
}
