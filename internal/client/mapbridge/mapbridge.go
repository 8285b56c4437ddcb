// Package mapbridge speaks the one-way protocol between the client and the
// embedded map surface: alerts are projected to plottable points and shipped
// as a single message that fully replaces whatever the map was showing.
package mapbridge

import (
	"encoding/json"
	"fmt"

	"github.com/centinela-app/centinela/internal/client/models"
)

// MessageTypeSetPoints is the only message the map understands; every send
// replaces the previous point set.
const MessageTypeSetPoints = "SET_POINTS"

// LatLng is a map coordinate in the surface's field naming.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Point is one plottable alert.
type Point struct {
	ID              string  `json:"id"`
	Lat             float64 `json:"lat"`
	Lng             float64 `json:"lng"`
	Category        string  `json:"tipo"`
	TimestampMillis int64   `json:"timestamp"`
}

// Message is the full-replace payload sent to the map surface.
type Message struct {
	Type            string  `json:"type"`
	Points          []Point `json:"points"`
	CurrentLocation *LatLng `json:"currentLocation,omitempty"`
}

// Project renders alerts as a map message. Alerts without coordinates are
// skipped; input order is preserved. A nil current location is omitted from
// the payload.
func Project(alerts []models.EmergencyAlert, current *models.Coordinates) Message {
	msg := Message{Type: MessageTypeSetPoints, Points: make([]Point, 0, len(alerts))}
	for _, a := range alerts {
		if !a.Locatable() {
			continue
		}
		msg.Points = append(msg.Points, Point{
			ID:              a.ID,
			Lat:             a.Coordinates.Lat,
			Lng:             a.Coordinates.Lon,
			Category:        a.Category.WireLabel(),
			TimestampMillis: a.CreatedAt.UnixMilli(),
		})
	}
	if current != nil {
		msg.CurrentLocation = &LatLng{Lat: current.Lat, Lng: current.Lon}
	}
	return msg
}

// Encode serializes a message for the surface.
func Encode(msg Message) ([]byte, error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode map message: %w", err)
	}
	return b, nil
}

// Decode parses a raw payload. Malformed payloads and unknown message types
// return an error; the receiving side drops them and keeps its last state.
func Decode(raw []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Message{}, fmt.Errorf("decode map message: %w", err)
	}
	if msg.Type != MessageTypeSetPoints {
		return Message{}, fmt.Errorf("unknown map message type %q", msg.Type)
	}
	return msg, nil
}

// Surface is the drawable side of the bridge.
type Surface interface {
	// Clear removes all plotted points.
	Clear()
	// Draw plots the points.
	Draw(points []Point)
	// FitBounds frames the viewport around the points.
	FitBounds(points []Point)
	// Center moves the viewport to a single coordinate at default zoom.
	Center(at LatLng)
}

// Apply replays a message onto a surface: points win over the device
// position. With neither, the viewport is left where it is.
func Apply(msg Message, s Surface) {
	s.Clear()
	if len(msg.Points) > 0 {
		s.Draw(msg.Points)
		s.FitBounds(msg.Points)
		return
	}
	if msg.CurrentLocation != nil {
		s.Center(*msg.CurrentLocation)
	}
}
