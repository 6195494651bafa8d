package v1

import (
	"lockedin/internal/delivery/http/handler"
	"lockedin/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type Handlers struct {
	Recommendations *handler.RecommendationHandler
	SavedSearches   *handler.SavedSearchHandler
	Notifications   *handler.NotificationHandler
	WS              *ws.Handler
}

// Register mounts every /api/v1 route behind auth.
func Register(r fiber.Router, auth fiber.Handler, h Handlers) {
	if r == nil {
		return
	}

	protected := r.Group("", auth)

	if h.Recommendations != nil {
		h.Recommendations.RegisterRoutes(protected)
	}
	if h.SavedSearches != nil {
		h.SavedSearches.RegisterRoutes(protected)
	}
	if h.Notifications != nil {
		h.Notifications.RegisterRoutes(protected)
	}
	if h.WS != nil {
		h.WS.RegisterRoutes(protected)
	}
}
