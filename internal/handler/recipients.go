package handler

import (
	"net/http"

	"gestock/internal/apierror"
	"gestock/internal/dto"
	"gestock/internal/service"

	"github.com/gin-gonic/gin"
)

type RecipientHandler struct{ svc service.RecipientService }

func NewRecipientHandler(svc service.RecipientService) *RecipientHandler {
	return &RecipientHandler{svc: svc}
}

// Create godoc
// @Summary      Ajouter un destinataire d'alertes
// @Description  Destinataire des notifications de mouvement (SMS) et des alertes
// @Description  de stock bas (email). Au moins un canal est requis.
// @Tags         recipients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateRecipientRequest true "Destinataire"
// @Success      201 {object} dto.RecipientResponse
// @Failure      400 {object} apierror.APIError
// @Router       /v1/recipients [post]
func (h *RecipientHandler) Create(c *gin.Context) {
	var req dto.CreateRecipientRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary      Lister les destinataires d'alertes
// @Tags         recipients
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.RecipientResponse
// @Router       /v1/recipients [get]
func (h *RecipientHandler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SetActive godoc
// @Summary      Activer ou désactiver un destinataire
// @Tags         recipients
// @Accept       json
// @Security     BearerAuth
// @Param        id   path string true "UUID du destinataire"
// @Param        body body object{active=bool} true "État"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Router       /v1/recipients/{id}/active [put]
func (h *RecipientHandler) SetActive(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var body struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Champ 'active' requis"))
		return
	}
	if err := h.svc.SetActive(c.Request.Context(), id, *body.Active); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Delete godoc
// @Summary      Supprimer un destinataire
// @Tags         recipients
// @Security     BearerAuth
// @Param        id path string true "UUID du destinataire"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Router       /v1/recipients/{id} [delete]
func (h *RecipientHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
