package arrivals

import (
	"math"
	"slices"
	"strings"
	"time"

	"ctaboard.trainboard.dev/internal/cta"
	"ctaboard.trainboard.dev/internal/models"
)

var routeNames = map[string]string{
	"G":   "Green",
	"Brn": "Brown",
	"Org": "Orange",
	"P":   "Purple",
	"Y":   "Yellow",
}

// Run numbers reserved for the holiday train.
var holidayRuns = []int{1224, 1225}

// prideMarker in a run's service flags marks a special-event train.
const prideMarker = "H"

// RouteName resolves a Train Tracker route code. Unknown codes ("Red",
// "Blue", "Pink") are already display names and pass through.
func RouteName(code string) string {
	if name, ok := routeNames[code]; ok {
		return name
	}
	return code
}

// OffsetMinutes is floor((arrival-reference)/1m).
func OffsetMinutes(arrival, reference time.Time) int {
	return int(math.Floor(arrival.Sub(reference).Minutes()))
}

// IsHolidayRun reports whether rn is a reserved holiday run.
func IsHolidayRun(rn cta.RunNumber) bool {
	n, ok := rn.Int()
	return ok && slices.Contains(holidayRuns, n)
}

// IsPrideRun reports a special-event train. Holiday runs never qualify.
func IsPrideRun(rn cta.RunNumber, flags string) bool {
	return !IsHolidayRun(rn) && strings.Contains(flags, prideMarker)
}

// reference is the prediction time when upstream sent one, otherwise now.
func reference(raw cta.RawArrival, now time.Time) time.Time {
	if raw.PredictedAt.IsZero() {
		return now
	}
	return raw.PredictedAt.Time
}

// Transform converts one upstream prediction into a display record.
func Transform(raw cta.RawArrival, now time.Time) models.DisplayArrival {
	route := RouteName(raw.Route)

	return models.DisplayArrival{
		Route:           route,
		RouteNameFull:   route + " Line",
		StationName:     raw.StationName,
		StopDescription: raw.StopDescription,
		ArrivalTime:     OffsetMinutes(raw.ArrivalAt.Time, reference(raw, now)),
		RouteNumber:     string(raw.RunNumber),
		Destination:     raw.DestinationName,
		IsScheduled:     bool(raw.IsScheduled),
		IsArriving:      bool(raw.IsApproaching),
		IsDelayed:       bool(raw.IsDelayed),
		IsHoliday:       IsHolidayRun(raw.RunNumber),
		IsPride:         IsPrideRun(raw.RunNumber, raw.Flags),
	}
}

// Filter keeps arrivals whose offset is at least minMinutes.
func Filter(list []models.DisplayArrival, minMinutes float64) []models.DisplayArrival {
	out := make([]models.DisplayArrival, 0, len(list))
	for _, a := range list {
		if float64(a.ArrivalTime) >= minMinutes {
			out = append(out, a)
		}
	}
	return out
}

// HolidayEntry builds the synthetic record shown ahead of regular arrivals
// while the holiday train is running.
func HolidayEntry(raw cta.RawArrival, now time.Time) models.DisplayArrival {
	label := "Holiday Train on " + RouteName(raw.Route)

	return models.DisplayArrival{
		Route:           label,
		RouteNameFull:   label,
		StationName:     raw.StationName,
		StopDescription: raw.StopDescription,
		ArrivalTime:     OffsetMinutes(raw.ArrivalAt.Time, reference(raw, now)),
		RouteNumber:     string(raw.RunNumber),
		Destination:     "To " + raw.DestinationName,
		IsScheduled:     bool(raw.IsScheduled),
		IsArriving:      bool(raw.IsApproaching),
		IsDelayed:       bool(raw.IsDelayed),
		IsHoliday:       true,
	}
}
