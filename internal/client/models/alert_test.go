package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryFromLabel_AliasGenerations(t *testing.T) {
	tests := []struct {
		label string
		want  Category
	}{
		{"Policía", CategoryPolice},
		{"policia", CategoryPolice},
		{"Ambulancia", CategoryAmbulance},
		{"Bomberos", CategoryFire},
		{"fire", CategoryFire},
		{"Emergency", CategoryEmergency},
		{"Events", CategoryEvent},
		{"Recommendation", CategoryRecommendation},
		{"  Policía  ", CategoryPolice},
		{"granizo", CategoryOther},
		{"", CategoryOther},
	}

	for _, tc := range tests {
		t.Run(tc.label, func(t *testing.T) {
			assert.Equal(t, tc.want, CategoryFromLabel(tc.label))
		})
	}
}

func TestCategory_WireLabelRoundTrip(t *testing.T) {
	for _, c := range []Category{CategoryPolice, CategoryAmbulance, CategoryFire, CategoryEmergency} {
		assert.Equal(t, c, CategoryFromLabel(c.WireLabel()), "wire label must decode back to itself")
	}
}

func TestDecodeAlert_FastPathShape(t *testing.T) {
	at := time.Date(2025, 4, 10, 22, 15, 0, 0, time.UTC)
	fields := map[string]any{
		"tipo":      "Bomberos",
		"timestamp": float64(at.UnixMilli()),
		"latitude":  19.43,
		"longitude": -99.13,
		"state":     "CDMX",
	}

	a := DecodeAlert("a1", fields, sentinel)

	assert.Equal(t, CategoryFire, a.Category)
	assert.Equal(t, "Bomberos", a.RawLabel)
	assert.True(t, at.Equal(a.CreatedAt))
	require.True(t, a.Locatable())
	assert.InDelta(t, 19.43, a.Coordinates.Lat, 1e-9)
	assert.Equal(t, "CDMX", a.RegionLabel)
}

func TestDecodeAlert_MissingOneCoordinateMeansNotLocatable(t *testing.T) {
	a := DecodeAlert("a2", map[string]any{"tipo": "Policía", "latitude": 10.0}, sentinel)
	assert.False(t, a.Locatable())
	assert.Nil(t, a.Coordinates)
}

func TestEmergencyAlert_FieldsOmitsAbsentValues(t *testing.T) {
	at := time.Date(2025, 4, 10, 22, 15, 0, 0, time.UTC)
	a := EmergencyAlert{Category: CategoryPolice, CreatedAt: at}

	fields := a.Fields()

	assert.Equal(t, "Policía", fields["tipo"])
	assert.Equal(t, at.UnixMilli(), fields["timestamp"])
	_, hasLat := fields["latitude"]
	assert.False(t, hasLat)
	_, hasState := fields["state"]
	assert.False(t, hasState)

	a.Coordinates = &Coordinates{Lat: 1, Lon: 2}
	a.RegionLabel = "Jalisco"
	fields = a.Fields()
	assert.Equal(t, 1.0, fields["latitude"])
	assert.Equal(t, "Jalisco", fields["state"])
}

func TestCoordinates_DistanceKm(t *testing.T) {
	cdmx := Coordinates{Lat: 19.4326, Lon: -99.1332}
	gdl := Coordinates{Lat: 20.6597, Lon: -103.3496}

	d := cdmx.DistanceKm(gdl)
	assert.InDelta(t, 461, d, 10, "CDMX→GDL is about 460 km")
	assert.InDelta(t, 0, cdmx.DistanceKm(cdmx), 1e-9)
}

func TestUserProfile_Handle(t *testing.T) {
	assert.Equal(t, "@lu", UserProfile{Username: "lu", DisplayName: "Lucía"}.Handle())
	assert.Equal(t, "Lucía", UserProfile{DisplayName: "Lucía"}.Handle())
	assert.Equal(t, "Anónimo", UserProfile{}.Handle())
}
