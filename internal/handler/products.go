package handler

import (
	"net/http"

	"gestock/internal/apierror"
	"gestock/internal/dto"
	"gestock/internal/service"

	"github.com/gin-gonic/gin"
)

type ProductHandler struct{ svc service.ProductService }

func NewProductHandler(svc service.ProductService) *ProductHandler {
	return &ProductHandler{svc: svc}
}

// Create godoc
// @Summary      Créer un produit
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateProductRequest true "Produit"
// @Success      201 {object} dto.ProductResponse
// @Failure      400 {object} apierror.APIError
// @Router       /v1/products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
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
// @Summary      Consulter un produit
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID du produit"
// @Success      200 {object} dto.ProductResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/products/{id} [get]
func (h *ProductHandler) Get(c *gin.Context) {
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
// @Summary      Lister les produits
// @Description  Filtres : nom (partiel), catégorie, actifs/inactifs, stock bas.
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        name      query string false "Filtre sur le nom"
// @Param        category  query string false "Catégorie exacte"
// @Param        active    query string false "true (défaut), false ou all"
// @Param        low_stock query bool   false "Uniquement les produits sous le seuil"
// @Param        page      query int    false "Page (défaut 1)"
// @Param        limit     query int    false "Taille de page (défaut 50)"
// @Success      200 {object} dto.ProductListResponse
// @Router       /v1/products [get]
func (h *ProductHandler) List(c *gin.Context) {
	var filter dto.ProductFilter
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

// Update godoc
// @Summary      Modifier un produit
// @Description  Mise à jour partielle. La quantité en stock n'est jamais modifiable
// @Description  par cette route : seul le journal des mouvements fait foi.
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "UUID du produit"
// @Param        body body dto.UpdateProductRequest true "Champs à modifier"
// @Success      200 {object} dto.ProductResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/products/{id} [put]
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SoftDelete godoc
// @Summary      Désactiver un produit
// @Tags         products
// @Security     BearerAuth
// @Param        id path string true "UUID du produit"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Router       /v1/products/{id} [delete]
func (h *ProductHandler) SoftDelete(c *gin.Context) {
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

// Restore godoc
// @Summary      Réactiver un produit désactivé
// @Tags         products
// @Security     BearerAuth
// @Param        id path string true "UUID du produit"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Router       /v1/products/{id}/restore [post]
func (h *ProductHandler) Restore(c *gin.Context) {
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

// HardDelete godoc
// @Summary      Supprimer définitivement un produit
// @Description  Réservé aux administrateurs. Refusé si des mouvements ou des
// @Description  lignes de document référencent encore le produit.
// @Tags         products
// @Security     BearerAuth
// @Param        id path string true "UUID du produit"
// @Success      204
// @Failure      409 {object} apierror.APIError
// @Router       /v1/products/{id}/hard [delete]
func (h *ProductHandler) HardDelete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.HardDelete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// LowStock godoc
// @Summary      Produits sous le seuil d'alerte
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.ProductResponse
// @Router       /v1/products/low-stock [get]
func (h *ProductHandler) LowStock(c *gin.Context) {
	resp, err := h.svc.ListLowStock(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
