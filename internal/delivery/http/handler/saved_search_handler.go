package handler

import (
	"lockedin/internal/delivery/http/dto"
	"lockedin/internal/delivery/http/middleware"
	"lockedin/internal/pkg/response"
	"lockedin/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type SavedSearchHandler struct {
	uc usecase.SavedSearchUsecase
}

type setActiveRequest struct {
	IsActive *bool `json:"is_active"`
}

func NewSavedSearchHandler(uc usecase.SavedSearchUsecase) *SavedSearchHandler {
	return &SavedSearchHandler{uc: uc}
}

func (h *SavedSearchHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	grp := r.Group("/saved-searches")
	grp.Get("/", h.List)
	grp.Post("/", h.Create)
	grp.Put("/:id", h.Update)
	grp.Patch("/:id/active", h.SetActive)
	grp.Delete("/:id", h.Delete)
	grp.Get("/:id/results", h.Results)
}

func (h *SavedSearchHandler) List(c fiber.Ctx) error {
	actor, err := middleware.ActorFrom(c)
	if err != nil {
		return err
	}

	items, err := h.uc.List(c.Context(), actor)
	if err != nil {
		return mapUsecaseError(err)
	}

	res := make([]dto.SavedSearchResponse, 0, len(items))
	for _, it := range items {
		r := dto.NewSavedSearchResponse(it.Search)
		pending := it.Pending
		r.PendingMatches = &pending
		r.State = it.State.String()
		res = append(res, r)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, res)
}

func (h *SavedSearchHandler) Create(c fiber.Ctx) error {
	actor, err := middleware.ActorFrom(c)
	if err != nil {
		return err
	}

	var req usecase.CreateSavedSearchInput
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	created, err := h.uc.Create(c.Context(), actor, req)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusCreated, "created", dto.NewSavedSearchResponse(created))
}

func (h *SavedSearchHandler) Update(c fiber.Ctx) error {
	actor, err := middleware.ActorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	var req usecase.UpdateSavedSearchInput
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	updated, err := h.uc.Update(c.Context(), actor, id, req)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewSavedSearchResponse(updated))
}

func (h *SavedSearchHandler) SetActive(c fiber.Ctx) error {
	actor, err := middleware.ActorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	var req setActiveRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}
	if req.IsActive == nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "is_active is required", nil, nil)
	}

	updated, err := h.uc.SetActive(c.Context(), actor, id, *req.IsActive)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewSavedSearchResponse(updated))
}

func (h *SavedSearchHandler) Delete(c fiber.Ctx) error {
	actor, err := middleware.ActorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	if err := h.uc.Delete(c.Context(), actor, id); err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, nil)
}

func (h *SavedSearchHandler) Results(c fiber.Ctx) error {
	actor, err := middleware.ActorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	page, err := h.uc.Results(c.Context(), actor, id, parseQueryInt(c, "page", 1))
	if err != nil {
		return mapUsecaseError(err)
	}

	items := dto.SavedSearchResultsResponse{
		SavedSearch: dto.NewSavedSearchResponse(page.Search),
		Candidates:  dto.NewCandidateResponses(page.Candidates),
	}
	return response.Paged(c, items, response.Pagination{
		Page:       page.Page,
		PageSize:   usecase.ResultsPageSize,
		TotalPages: page.TotalPages,
		Total:      page.Total,
	})
}
