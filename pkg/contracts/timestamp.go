package contracts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Unspecified marks times that arrived without any zone designator.
var Unspecified = time.FixedZone("unspecified", 0)

var zonelessLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// Timestamp keeps the zone a time was submitted with so that the ingestion checks can
// tell a Z suffix apart from an offset or a missing designator.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}

	parsed, err := ParseTimestamp(raw)
	if err != nil {
		return err
	}

	t.Time = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}

	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// ParseTimestamp reads an RFC 3339 time. A trailing Z yields time.UTC, an explicit offset
// (including +00:00) yields a fixed zone and a missing designator yields Unspecified.
func ParseTimestamp(raw string) (time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		if len(raw) > 0 && (raw[len(raw)-1] == 'Z' || raw[len(raw)-1] == 'z') {
			return parsed.UTC(), nil
		}

		_, offset := parsed.Zone()
		return parsed.In(time.FixedZone("", offset)), nil
	}

	for _, layout := range zonelessLayouts {
		if parsed, err := time.ParseInLocation(layout, raw, Unspecified); err == nil {
			return parsed, nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid timestamp %q", raw)
}

// UTC wraps a time for responses.
func UTC(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}
