package handler

import (
	"lockedin/internal/delivery/http/dto"
	"lockedin/internal/delivery/http/middleware"
	"lockedin/internal/pkg/response"
	"lockedin/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type NotificationHandler struct {
	uc usecase.NotificationHistoryUsecase
}

func NewNotificationHandler(uc usecase.NotificationHistoryUsecase) *NotificationHandler {
	return &NotificationHandler{uc: uc}
}

func (h *NotificationHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	grp := r.Group("/notifications")
	grp.Get("/", h.History)
	grp.Get("/unread-count", h.UnreadCount)
	grp.Get("/stats", h.Stats)
	grp.Post("/:id/read", h.MarkRead)
}

func (h *NotificationHandler) History(c fiber.Ctx) error {
	actor, err := middleware.ActorFrom(c)
	if err != nil {
		return err
	}

	page, err := h.uc.History(c.Context(), actor, parseQueryInt(c, "page", 1))
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Paged(c, dto.NewNotificationResponses(page.Items), response.Pagination{
		Page:       page.Page,
		PageSize:   usecase.HistoryPageSize,
		TotalPages: page.TotalPages,
		Total:      page.Total,
	})
}

func (h *NotificationHandler) UnreadCount(c fiber.Ctx) error {
	actor, err := middleware.ActorFrom(c)
	if err != nil {
		return err
	}

	n, err := h.uc.UnreadCount(c.Context(), actor)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.UnreadCountResponse{Unread: n})
}

func (h *NotificationHandler) Stats(c fiber.Ctx) error {
	actor, err := middleware.ActorFrom(c)
	if err != nil {
		return err
	}

	s, err := h.uc.Stats(c.Context(), actor)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NotificationStatsResponse{
		TotalLast30Days: s.TotalLast30Days,
		Unread:          s.Unread,
		ActiveSearches:  s.ActiveSearches,
	})
}

func (h *NotificationHandler) MarkRead(c fiber.Ctx) error {
	actor, err := middleware.ActorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	if err := h.uc.MarkRead(c.Context(), actor, id); err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, nil)
}
