package handler

import (
	"context"
	"time"

	"lockedin/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db    Pinger
	cache Pinger
}

// NewHealthHandler takes the database and the cache. A failing database makes
// the service unhealthy; a failing cache only degrades it.
func NewHealthHandler(db, cache Pinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

type healthResponse struct {
	Database string `json:"database"`
	Cache    string `json:"cache"`
}

func (h *HealthHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/health", h.Health)
}

func (h *HealthHandler) Health(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	out := healthResponse{Database: "ok", Cache: "ok"}
	status := fiber.StatusOK

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			out.Database = "down"
			status = fiber.StatusServiceUnavailable
		}
	}
	if h.cache == nil {
		out.Cache = "disabled"
	} else if err := h.cache.Ping(ctx); err != nil {
		out.Cache = "degraded"
	}

	return response.Success(c, status, "", out)
}
