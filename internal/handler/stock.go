package handler

import (
	"net/http"
	"time"

	"gestock/internal/apierror"
	"gestock/internal/dto"
	"gestock/internal/repository"
	"gestock/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type StockHandler struct{ svc service.StockService }

func NewStockHandler(svc service.StockService) *StockHandler {
	return &StockHandler{svc: svc}
}

// CreateMovement godoc
// @Summary      Enregistrer un mouvement de stock
// @Description  Toute variation de stock passe par ici : entrée (ENTRY) ou
// @Description  sortie (EXIT). Une sortie supérieure au stock disponible est
// @Description  refusée avec un 409.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateMovementRequest true "Mouvement"
// @Success      201 {object} dto.MovementResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/stock/movements [post]
func (h *StockHandler) CreateMovement(c *gin.Context) {
	var req dto.CreateMovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateMovement(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GetMovement godoc
// @Summary      Consulter un mouvement
// @Tags         stock
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID du mouvement"
// @Success      200 {object} dto.MovementResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/stock/movements/{id} [get]
func (h *StockHandler) GetMovement(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetMovement(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListMovements godoc
// @Summary      Lister le journal des mouvements
// @Tags         stock
// @Produce      json
// @Security     BearerAuth
// @Param        product_id      query string false "UUID du produit"
// @Param        movement_type   query string false "ENTRY ou EXIT"
// @Param        date_from       query string false "Date de début (AAAA-MM-JJ)"
// @Param        date_to         query string false "Date de fin (AAAA-MM-JJ)"
// @Param        include_deleted query bool   false "Inclure les mouvements annulés"
// @Param        page            query int    false "Page (défaut 1)"
// @Param        limit           query int    false "Taille de page (défaut 50)"
// @Success      200 {object} dto.MovementListResponse
// @Router       /v1/stock/movements [get]
func (h *StockHandler) ListMovements(c *gin.Context) {
	var q dto.StockMovementFilter
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Paramètres de requête invalides"))
		return
	}

	filter, err := movementFilter(q)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}

	resp, err := h.svc.ListMovements(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SoftDeleteMovement godoc
// @Summary      Annuler un mouvement
// @Description  Annulation réversible : la quantité du produit est recalculée
// @Description  comme si le mouvement n'avait jamais eu lieu.
// @Tags         stock
// @Security     BearerAuth
// @Param        id path string true "UUID du mouvement"
// @Success      204
// @Failure      409 {object} apierror.APIError
// @Router       /v1/stock/movements/{id} [delete]
func (h *StockHandler) SoftDeleteMovement(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.SoftDeleteMovement(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RestoreMovement godoc
// @Summary      Rétablir un mouvement annulé
// @Tags         stock
// @Security     BearerAuth
// @Param        id path string true "UUID du mouvement"
// @Success      204
// @Failure      409 {object} apierror.APIError
// @Router       /v1/stock/movements/{id}/restore [post]
func (h *StockHandler) RestoreMovement(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.RestoreMovement(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// movementFilter converts query-string values into the repository filter.
func movementFilter(q dto.StockMovementFilter) (repository.StockMovementFilter, error) {
	filter := repository.StockMovementFilter{
		MovementType:   q.MovementType,
		IncludeDeleted: q.IncludeDeleted,
		Page:           q.Page,
		Limit:          q.Limit,
	}

	if q.ProductID != "" {
		id, err := uuid.Parse(q.ProductID)
		if err != nil {
			return filter, errParam("product_id invalide")
		}
		filter.ProductID = &id
	}
	if q.DateFrom != "" {
		t, err := time.Parse("2006-01-02", q.DateFrom)
		if err != nil {
			return filter, errParam("date_from invalide (AAAA-MM-JJ attendu)")
		}
		filter.DateFrom = &t
	}
	if q.DateTo != "" {
		t, err := time.Parse("2006-01-02", q.DateTo)
		if err != nil {
			return filter, errParam("date_to invalide (AAAA-MM-JJ attendu)")
		}
		// Inclusive upper bound: cover the whole day.
		end := t.Add(24*time.Hour - time.Nanosecond)
		filter.DateTo = &end
	}
	return filter, nil
}

type errParam string

func (e errParam) Error() string { return string(e) }
