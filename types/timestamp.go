package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Timestamp is a Unix epoch time in seconds with sub-second precision.
//
// On the wire it is a JSON number; integers and numeric strings are also
// accepted when decoding.
type Timestamp float64

// FromTime converts t to a Timestamp.
func FromTime(t time.Time) Timestamp {
	return Timestamp(float64(t.Unix()) + float64(t.Nanosecond())/1e9)
}

// Time returns ts as a UTC time.Time, rounded to the nearest nanosecond.
func (ts Timestamp) Time() time.Time {
	f := float64(ts)
	secs := math.Floor(f)
	nsec := math.Round((f - secs) * 1e9)
	if nsec > 999_999_999 {
		nsec = 999_999_999
	}
	return time.Unix(int64(secs), int64(nsec)).UTC()
}

// String renders ts as RFC 3339 with fractional seconds.
func (ts Timestamp) String() string {
	return ts.Time().Format(time.RFC3339Nano)
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	f := float64(ts)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("types: timestamp %v is not finite", f)
	}
	return []byte(strconv.FormatFloat(f, 'f', -1, 64)), nil
}

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(s)
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("types: invalid timestamp %s", b)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("types: timestamp %s is not finite", b)
	}
	*ts = Timestamp(f)
	return nil
}
