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

type InvoiceHandler struct {
	svc  service.InvoiceService
	repo repository.InvoiceRepository
	cfg  *config.Config
}

func NewInvoiceHandler(svc service.InvoiceService, repo repository.InvoiceRepository, cfg *config.Config) *InvoiceHandler {
	return &InvoiceHandler{svc: svc, repo: repo, cfg: cfg}
}

// Create godoc
// @Summary      Créer une facture
// @Description  Crée une facture (ou pro forma) avec ses lignes. Chaque ligne
// @Description  d'une facture définitive décrémente le stock via un mouvement
// @Description  EXIT apparié. Stock insuffisant : 409, rien n'est créé.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateInvoiceRequest true "Facture"
// @Success      201 {object} dto.InvoiceResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req dto.CreateInvoiceRequest
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
// @Summary      Consulter une facture
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID de la facture"
// @Success      200 {object} dto.InvoiceResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/invoices/{id} [get]
func (h *InvoiceHandler) Get(c *gin.Context) {
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
// @Summary      Lister les factures
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        cancelled query string false "true, false ou all"
// @Param        proforma  query string false "true, false ou all"
// @Param        company   query string false "NETSYSTEME ou SSE"
// @Param        search    query string false "Numéro ou nom de client (partiel)"
// @Param        page      query int    false "Page (défaut 1)"
// @Param        limit     query int    false "Taille de page (défaut 50)"
// @Success      200 {object} dto.InvoiceListResponse
// @Router       /v1/invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	var filter dto.InvoiceFilter
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
// @Summary      Ajouter une ligne à une facture
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "UUID de la facture"
// @Param        body body dto.DocumentItemRequest true "Ligne"
// @Success      200 {object} dto.InvoiceResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/invoices/{id}/items [post]
func (h *InvoiceHandler) AddItem(c *gin.Context) {
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
// @Summary      Retirer une ligne d'une facture
// @Description  La ligne est marquée supprimée et le mouvement EXIT apparié est
// @Description  contre-passé : le stock revient à son niveau d'avant la ligne.
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string true "UUID de la facture"
// @Param        item_id path string true "UUID de la ligne"
// @Success      200 {object} dto.InvoiceResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/invoices/{id}/items/{item_id} [delete]
func (h *InvoiceHandler) RemoveItem(c *gin.Context) {
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

// Cancel godoc
// @Summary      Annuler une facture
// @Description  Contre-passe tous les mouvements de stock de la facture en une
// @Description  transaction. Idempotent.
// @Tags         invoices
// @Security     BearerAuth
// @Param        id path string true "UUID de la facture"
// @Success      204
// @Failure      409 {object} apierror.APIError
// @Router       /v1/invoices/{id}/cancel [post]
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Cancel(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Restore godoc
// @Summary      Rétablir une facture annulée
// @Description  Réapplique les mouvements contre-passés. Tout ou rien : si un
// @Description  seul produit n'a plus le stock nécessaire, rien n'est rétabli.
// @Tags         invoices
// @Security     BearerAuth
// @Param        id path string true "UUID de la facture"
// @Success      204
// @Failure      409 {object} apierror.APIError
// @Router       /v1/invoices/{id}/restore [post]
func (h *InvoiceHandler) Restore(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Restore(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SoftDelete godoc
// @Summary      Supprimer une facture
// @Description  Annule d'abord la facture (restitution du stock) puis la masque
// @Description  des listes.
// @Tags         invoices
// @Security     BearerAuth
// @Param        id path string true "UUID de la facture"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Router       /v1/invoices/{id} [delete]
func (h *InvoiceHandler) SoftDelete(c *gin.Context) {
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

// RecordPayment godoc
// @Summary      Enregistrer un paiement
// @Description  Ajoute un encaissement au cumul payé, plafonné au TTC.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "UUID de la facture"
// @Param        body body dto.RecordPaymentRequest true "Montant"
// @Success      200 {object} dto.InvoiceResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/invoices/{id}/payments [post]
func (h *InvoiceHandler) RecordPayment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.RecordPaymentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RecordPayment(c.Request.Context(), id, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConvertProforma godoc
// @Summary      Convertir une pro forma en facture définitive
// @Description  Crée une nouvelle facture avec les mêmes lignes en décrémentant
// @Description  le stock. La pro forma d'origine est conservée telle quelle.
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID de la pro forma"
// @Success      201 {object} dto.InvoiceResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/invoices/{id}/convert [post]
func (h *InvoiceHandler) ConvertProforma(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ConvertProforma(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// DownloadPDF godoc
// @Summary      Télécharger la facture en PDF
// @Tags         invoices
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id path string true "UUID de la facture"
// @Success      200 {file} binary
// @Failure      404 {object} apierror.APIError
// @Router       /v1/invoices/{id}/pdf [get]
func (h *InvoiceHandler) DownloadPDF(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	inv, err := h.repo.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	path, err := infra.GenerateInvoicePDF(inv, h.cfg.PDFStoragePath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Échec de la génération du PDF"))
		return
	}
	c.FileAttachment(path, inv.InvoiceNumber+".pdf")
}
