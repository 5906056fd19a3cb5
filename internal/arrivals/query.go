package arrivals

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"ctaboard.trainboard.dev/internal/cta"
	"ctaboard.trainboard.dev/internal/utils"
)

// NoFilter disables the arrival offset filter.
var NoFilter = math.Inf(-1)

// InputError is a problem with the caller's query. It maps to a 400.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return e.Message
}

// ErrMissingIdentifier is returned when neither stpid nor mapid is supplied.
var ErrMissingIdentifier = &InputError{
	Field:   "stpid",
	Message: "Either stpid or mapid query parameter is required",
}

// Query is a normalized arrivals request.
type Query struct {
	Kind cta.IDKind
	IDs  []string
	// MinMinutes drops arrivals whose offset is below it. NoFilter keeps all.
	MinMinutes float64
}

// ParseQuery reads stpid/mapid and walkTime from values. stpid wins when both
// are present. Each identifier parameter may be repeated, comma separated, or
// both. When neither is present, fallback is used if it carries identifiers.
func ParseQuery(values url.Values, fallback Query) (Query, error) {
	q := Query{MinMinutes: NoFilter}
	stops := utils.SplitList(values[string(cta.StopID)])
	stations := utils.SplitList(values[string(cta.StationID)])

	switch {
	case len(stops) > 0:
		q.Kind = cta.StopID
		q.IDs = stops
	case len(stations) > 0:
		q.Kind = cta.StationID
		q.IDs = stations
	case fallback.Kind != "" && len(fallback.IDs) > 0:
		q.Kind = fallback.Kind
		q.IDs = fallback.IDs
	default:
		return Query{}, ErrMissingIdentifier
	}
	q.IDs = utils.Unique(q.IDs)

	for _, id := range q.IDs {
		if err := utils.ValidateID(id); err != nil {
			return Query{}, &InputError{
				Field:   string(q.Kind),
				Message: fmt.Sprintf("invalid %s %q: %v", q.Kind, id, err),
			}
		}
	}

	if raw := strings.TrimSpace(values.Get("walkTime")); raw != "" {
		minutes, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(minutes) {
			return Query{}, &InputError{Field: "walkTime", Message: "walkTime must be a number"}
		}
		q.MinMinutes = minutes
	}

	return q, nil
}
