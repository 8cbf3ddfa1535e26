package handler

import (
	"net/http"

	"gestock/internal/apierror"
	"gestock/internal/config"
	"gestock/internal/dto"
	"gestock/internal/infra"
	"gestock/internal/repository"
	"gestock/internal/service"

	"github.com/gin-gonic/gin"
)

type QuoteHandler struct {
	svc  service.QuoteService
	repo repository.QuoteRepository
	cfg  *config.Config
}

func NewQuoteHandler(svc service.QuoteService, repo repository.QuoteRepository, cfg *config.Config) *QuoteHandler {
	return &QuoteHandler{svc: svc, repo: repo, cfg: cfg}
}

// Create godoc
// @Summary      Créer un devis
// @Description  Un devis ne touche jamais au stock : aucune réservation, aucun
// @Description  mouvement.
// @Tags         quotes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateQuoteRequest true "Devis"
// @Success      201 {object} dto.QuoteResponse
// @Failure      400 {object} apierror.APIError
// @Router       /v1/quotes [post]
func (h *QuoteHandler) Create(c *gin.Context) {
	var req dto.CreateQuoteRequest
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

// Get godoc
// @Summary      Consulter un devis
// @Tags         quotes
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID du devis"
// @Success      200 {object} dto.QuoteResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/quotes/{id} [get]
func (h *QuoteHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary      Lister les devis
// @Tags         quotes
// @Produce      json
// @Security     BearerAuth
// @Param        converted query string false "true, false ou all"
// @Param        company   query string false "NETSYSTEME ou SSE"
// @Param        search    query string false "Numéro ou nom de client (partiel)"
// @Param        page      query int    false "Page (défaut 1)"
// @Param        limit     query int    false "Taille de page (défaut 50)"
// @Success      200 {object} dto.QuoteListResponse
// @Router       /v1/quotes [get]
func (h *QuoteHandler) List(c *gin.Context) {
	var filter dto.QuoteFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Paramètres de requête invalides"))
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AddItem godoc
// @Summary      Ajouter une ligne à un devis
// @Tags         quotes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "UUID du devis"
// @Param        body body dto.DocumentItemRequest true "Ligne"
// @Success      200 {object} dto.QuoteResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/quotes/{id}/items [post]
func (h *QuoteHandler) AddItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.DocumentItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddItem(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RemoveItem godoc
// @Summary      Retirer une ligne d'un devis
// @Tags         quotes
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string true "UUID du devis"
// @Param        item_id path string true "UUID de la ligne"
// @Success      200 {object} dto.QuoteResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/quotes/{id}/items/{item_id} [delete]
func (h *QuoteHandler) RemoveItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseID(c, "item_id")
	if !ok {
		return
	}
	resp, err := h.svc.RemoveItem(c.Request.Context(), id, itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SoftDelete godoc
// @Summary      Supprimer un devis
// @Tags         quotes
// @Security     BearerAuth
// @Param        id path string true "UUID du devis"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Router       /v1/quotes/{id} [delete]
func (h *QuoteHandler) SoftDelete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.SoftDelete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Convert godoc
// @Summary      Convertir un devis en facture
// @Description  Crée la facture, décrémente le stock ligne par ligne et marque
// @Description  le devis converti, le tout dans une seule transaction. Un devis
// @Description  déjà converti est refusé avec un 409.
// @Tags         quotes
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID du devis"
// @Success      201 {object} dto.InvoiceResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/quotes/{id}/convert [post]
func (h *QuoteHandler) Convert(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ConvertToInvoice(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// DownloadPDF godoc
// @Summary      Télécharger le devis en PDF
// @Tags         quotes
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id path string true "UUID du devis"
// @Success      200 {file} binary
// @Failure      404 {object} apierror.APIError
// @Router       /v1/quotes/{id}/pdf [get]
func (h *QuoteHandler) DownloadPDF(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	q, err := h.repo.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	path, err := infra.GenerateQuotePDF(q, h.cfg.PDFStoragePath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Échec de la génération du PDF"))
		return
	}
	c.FileAttachment(path, q.QuoteNumber+".pdf")
}
