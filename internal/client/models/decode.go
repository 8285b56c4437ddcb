package models

import "time"

// Remote records arrive as loosely typed field maps. The backend schema has
// evolved in place, so decoding follows documented fallback chains instead of
// strict unmarshalling: a missing or legacy field degrades to the older name,
// and a malformed timestamp degrades to the provided sentinel instant rather
// than failing the record.

// stringField returns the first present, non-empty string among keys.
func stringField(fields map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := fields[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// intField reads a counter that may arrive as float64 (JSON) or int64,
// clamped at zero.
func intField(fields map[string]any, key string) int {
	var n int
	switch v := fields[key].(type) {
	case float64:
		n = int(v)
	case int64:
		n = int(v)
	case int:
		n = v
	}
	if n < 0 {
		return 0
	}
	return n
}

// floatField returns the value and whether it was present and numeric.
func floatField(fields map[string]any, key string) (float64, bool) {
	switch v := fields[key].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}

// decodeTimestamp resolves the timestamp shapes observed in stored records:
// native time.Time, epoch milliseconds (number), RFC3339 string, or the
// serialized {_seconds,_nanoseconds} form. Anything else yields the sentinel.
func decodeTimestamp(v any, sentinel time.Time) time.Time {
	switch ts := v.(type) {
	case time.Time:
		return ts
	case float64:
		return time.UnixMilli(int64(ts))
	case int64:
		return time.UnixMilli(ts)
	case string:
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			return parsed
		}
	case map[string]any:
		if secs, ok := floatField(ts, "_seconds"); ok {
			nanos, _ := floatField(ts, "_nanoseconds")
			return time.Unix(int64(secs), int64(nanos))
		}
	}
	return sentinel
}

// coordinatesField extracts an optional latitude/longitude pair. Both must be
// present for the result to be non-nil.
func coordinatesField(fields map[string]any) *Coordinates {
	lat, okLat := floatField(fields, "latitude")
	lon, okLon := floatField(fields, "longitude")
	if !okLat || !okLon {
		return nil
	}
	return &Coordinates{Lat: lat, Lon: lon}
}
