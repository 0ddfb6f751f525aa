package bootstrap

import (
	"github.com/analyticsPapy/trainlytics-app/internal/handlers"
)

// handlerSet bundles the HTTP handlers the router wires up
type handlerSet struct {
	health     *handlers.HealthHandler
	providers  *handlers.ProvidersHandler
	oauth      *handlers.OAuthHandler
	activities *handlers.ActivitiesHandler
	workouts   *handlers.WorkoutsHandler
	users      *handlers.UsersHandler
}

// buildHandlers constructs all HTTP handlers from the service layer
func buildHandlers(app *Application) handlerSet {
	return handlerSet{
		health:     handlers.NewHealthHandler(app.DB),
		providers:  handlers.NewProvidersHandler(app.ConnectionService, app.SyncService),
		oauth:      handlers.NewOAuthHandler(app.OAuthService),
		activities: handlers.NewActivitiesHandler(app.ActivityService),
		workouts:   handlers.NewWorkoutsHandler(app.WorkoutService),
		users:      handlers.NewUsersHandler(app.UserService),
	}
}
