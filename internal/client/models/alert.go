package models

import (
	"strings"
	"time"
)

// Category classifies an emergency alert. Stored records carry several
// generations of labels (Spanish service names, then a broader taxonomy);
// decoding normalizes known aliases and preserves unknown labels verbatim
// under CategoryOther.
type Category string

const (
	CategoryPolice    Category = "police"
	CategoryAmbulance Category = "ambulance"
	CategoryFire      Category = "fire"

	// Later taxonomy generation, kept as first-class values so historical
	// and new records coexist.
	CategoryEmergency      Category = "emergency"
	CategoryEvent          Category = "event"
	CategoryRecommendation Category = "recommendation"

	CategoryOther Category = "other"
)

var categoryAliases = map[string]Category{
	"policía":        CategoryPolice,
	"policia":        CategoryPolice,
	"police":         CategoryPolice,
	"ambulancia":     CategoryAmbulance,
	"ambulance":      CategoryAmbulance,
	"bomberos":       CategoryFire,
	"fire":           CategoryFire,
	"emergency":      CategoryEmergency,
	"emergencia":     CategoryEmergency,
	"events":         CategoryEvent,
	"event":          CategoryEvent,
	"evento":         CategoryEvent,
	"recommendation": CategoryRecommendation,
	"recomendacion":  CategoryRecommendation,
	"recomendación":  CategoryRecommendation,
}

// wireLabels are what dispatch writes, matching the labels historical
// records already use so readers need a single alias table.
var wireLabels = map[Category]string{
	CategoryPolice:         "Policía",
	CategoryAmbulance:      "Ambulancia",
	CategoryFire:           "Bomberos",
	CategoryEmergency:      "Emergency",
	CategoryEvent:          "Events",
	CategoryRecommendation: "Recommendation",
}

// CategoryFromLabel normalizes a stored label. Unknown labels map to
// CategoryOther; callers that need the original text keep the raw label.
func CategoryFromLabel(label string) Category {
	if c, ok := categoryAliases[strings.ToLower(strings.TrimSpace(label))]; ok {
		return c
	}
	return CategoryOther
}

// WireLabel is the label written to the backend for this category.
func (c Category) WireLabel() string {
	if label, ok := wireLabels[c]; ok {
		return label
	}
	return string(c)
}

// EmergencyAlert is a time-critical broadcast, immutable once created.
// Coordinates are optional: an alert sent without a location fix is valid.
type EmergencyAlert struct {
	ID          string
	Category    Category
	RawLabel    string
	CreatedAt   time.Time
	Coordinates *Coordinates
	RegionLabel string
	Title       string
	Description string
}

// Locatable reports whether the alert can appear on the map.
func (a EmergencyAlert) Locatable() bool { return a.Coordinates != nil }

// DecodeAlert builds an EmergencyAlert from raw record fields. The fast-path
// store keeps timestamps as epoch millis while the durable store serializes
// them; decodeTimestamp absorbs both, falling back to the sentinel.
func DecodeAlert(id string, fields map[string]any, sentinel time.Time) EmergencyAlert {
	raw := stringField(fields, "tipo")
	return EmergencyAlert{
		ID:          id,
		Category:    CategoryFromLabel(raw),
		RawLabel:    raw,
		CreatedAt:   decodeTimestamp(fields["timestamp"], sentinel),
		Coordinates: coordinatesField(fields),
		RegionLabel: stringField(fields, "state", "city", "neighborhood"),
		Title:       stringField(fields, "title"),
		Description: stringField(fields, "description"),
	}
}

// Fields renders the alert as wire fields shared by both stores. Nil
// coordinates and empty region are omitted, not written as nulls.
func (a EmergencyAlert) Fields() map[string]any {
	fields := map[string]any{
		"tipo":      a.Category.WireLabel(),
		"timestamp": a.CreatedAt.UnixMilli(),
	}
	if a.Coordinates != nil {
		fields["latitude"] = a.Coordinates.Lat
		fields["longitude"] = a.Coordinates.Lon
	}
	if a.RegionLabel != "" {
		fields["state"] = a.RegionLabel
	}
	return fields
}
