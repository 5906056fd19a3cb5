package models

// DisplayArrival is one display-ready train arrival. It is derived from exactly
// one upstream prediction and never modified afterwards.
type DisplayArrival struct {
	Route           string `json:"route"`
	RouteNameFull   string `json:"routeNameFull"`
	StationName     string `json:"stationName"`
	StopDescription string `json:"stopDescription"`
	// ArrivalTime is the arrival offset in whole minutes. Negative means overdue.
	ArrivalTime int    `json:"arrivalTime"`
	RouteNumber string `json:"routeNumber"`
	Destination string `json:"destination"`
	IsScheduled bool   `json:"isScheduled"`
	IsArriving  bool   `json:"isArriving"`
	IsDelayed   bool   `json:"isDelayed"`
	IsHoliday   bool   `json:"isHoliday"`
	IsPride     bool   `json:"isPride"`
}
