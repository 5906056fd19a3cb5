package cta

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // America/Chicago must resolve on hosts without zoneinfo
)

// IDKind selects how arrivals are addressed upstream.
type IDKind string

const (
	// StopID addresses a single platform (stpid, 3xxxx).
	StopID IDKind = "stpid"
	// StationID addresses a parent station (mapid, 4xxxx).
	StationID IDKind = "mapid"
)

// TimestampLayout is the zone-less layout Train Tracker uses for all timestamps.
const TimestampLayout = "2006-01-02T15:04:05"

// Location is the zone Train Tracker timestamps are expressed in.
var Location = mustLoadLocation("America/Chicago")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("cta: loading %s: %v", name, err))
	}
	return loc
}

// RawArrival is one prediction as returned by ttarrivals/ttfollow.
type RawArrival struct {
	StationID       string    `json:"staId"`
	StopID          string    `json:"stpId"`
	StationName     string    `json:"staNm"`
	StopDescription string    `json:"stpDe"`
	RunNumber       RunNumber `json:"rn"`
	Route           string    `json:"rt"`
	DestinationStop string    `json:"destSt"`
	DestinationName string    `json:"destNm"`
	Direction       string    `json:"trDr"`
	PredictedAt     Timestamp `json:"prdt"`
	ArrivalAt       Timestamp `json:"arrT"`
	IsApproaching   Flag      `json:"isApp"`
	IsScheduled     Flag      `json:"isSch"`
	IsDelayed       Flag      `json:"isDly"`
	IsFault         Flag      `json:"isFlt"`
	Flags           string    `json:"flags"`
}

// SourceID returns the identifier of kind that produced this prediction.
func (a RawArrival) SourceID(kind IDKind) string {
	if kind == StationID {
		return a.StationID
	}
	return a.StopID
}

// Timestamp is a Train Tracker local timestamp. The zero value means absent.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON accepts the zone-less upstream layout, RFC 3339, "" and null.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}

	parsed, err := time.ParseInLocation(TimestampLayout, s, Location)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("timestamp %q: %w", s, err)
		}
	}
	t.Time = parsed
	return nil
}

// MarshalJSON writes the upstream layout so fixtures round-trip.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.In(Location).Format(TimestampLayout))
}

// Flag is a Train Tracker boolean, sent as "0"/"1".
type Flag bool

// UnmarshalJSON accepts "0", "1", 0, 1, true, false and null.
func (f *Flag) UnmarshalJSON(b []byte) error {
	switch strings.Trim(string(b), `"`) {
	case "1", "true":
		*f = true
	case "0", "false", "", "null":
		*f = false
	default:
		return fmt.Errorf("flag: unexpected value %s", b)
	}
	return nil
}

// MarshalJSON writes the upstream "0"/"1" form.
func (f Flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte(`"1"`), nil
	}
	return []byte(`"0"`), nil
}

// RunNumber is a train run number. Upstream sends it as a string, some
// fixtures as a bare number; both decode.
type RunNumber string

// UnmarshalJSON accepts quoted and bare numbers.
func (r *RunNumber) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*r = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("run number: %w", err)
		}
		*r = RunNumber(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("run number: %w", err)
	}
	*r = RunNumber(n.String())
	return nil
}

// Int returns the numeric run number, or false when it is not numeric.
func (r RunNumber) Int() (int, bool) {
	n, err := strconv.Atoi(string(r))
	if err != nil {
		return 0, false
	}
	return n, true
}

// envelope is the outer shape shared by ttarrivals and ttfollow.
type envelope struct {
	Body struct {
		Timestamp string       `json:"tmst"`
		ErrCode   string       `json:"errCd"`
		ErrName   *string      `json:"errNm"`
		ETA       []RawArrival `json:"eta"`
	} `json:"ctatt"`
}
