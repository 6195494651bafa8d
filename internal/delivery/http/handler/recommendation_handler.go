package handler

import (
	"lockedin/internal/delivery/http/middleware"
	"lockedin/internal/domain/user"
	"lockedin/internal/pkg/response"
	"lockedin/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type RecommendationHandler struct {
	uc usecase.RecommendationUsecase
}

func NewRecommendationHandler(uc usecase.RecommendationUsecase) *RecommendationHandler {
	return &RecommendationHandler{uc: uc}
}

func (h *RecommendationHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/jobs/recommendations", h.ForJobSeeker)
	r.Get("/recruiters/recommendations", h.ForRecruiter)
}

func (h *RecommendationHandler) ForJobSeeker(c fiber.Ctx) error {
	actor, err := middleware.ActorFrom(c)
	if err != nil {
		return err
	}
	seeker, ok := actor.Role.(user.JobSeeker)
	if !ok {
		return middleware.NewAppError(fiber.StatusForbidden, "Job seekers only", nil, nil)
	}

	out, err := h.uc.ForJobSeeker(c.Context(), seeker.ProfileID)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, out)
}

func (h *RecommendationHandler) ForRecruiter(c fiber.Ctx) error {
	actor, err := middleware.ActorFrom(c)
	if err != nil {
		return err
	}
	recruiterID, err := usecase.RecruiterOf(actor)
	if err != nil {
		return mapUsecaseError(err)
	}

	out, err := h.uc.ForRecruiter(c.Context(), recruiterID)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, out)
}
