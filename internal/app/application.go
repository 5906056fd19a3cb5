package app

import (
	"log/slog"

	"ctaboard.trainboard.dev/internal/appconf"
	"ctaboard.trainboard.dev/internal/arrivals"
	"ctaboard.trainboard.dev/internal/cta"
)

// Application holds the dependencies shared by HTTP handlers and middleware.
type Application struct {
	Config   appconf.Config
	Logger   *slog.Logger
	Arrivals *arrivals.Service
}

// DefaultQuery is the query served when a request names no identifier.
// It is empty unless both default_kind and default_ids are configured.
func (app *Application) DefaultQuery() arrivals.Query {
	if app.Config.DefaultKind == "" || len(app.Config.DefaultIDs) == 0 {
		return arrivals.Query{}
	}
	return arrivals.Query{
		Kind: cta.IDKind(app.Config.DefaultKind),
		IDs:  app.Config.DefaultIDs,
	}
}
