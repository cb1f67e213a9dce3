package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/statboard/internal/dto"
	"github.com/prperemyshlev/statboard/internal/service"
)

// ProductHandler serves products
type ProductHandler struct {
	productService service.ProductService
}

func NewProductHandler(productService service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// Create adds a product
// @Summary Create product
// @Tags products
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateProductRequest true "Product"
// @Success 201 {object} domain.Product
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.productService.Create(c.Request.Context(), &req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// List returns all products
// @Summary Get all products
// @Tags products
// @Security BearerAuth
// @Produce json
// @Success 200 {array} domain.Product
// @Router /products [get]
func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.productService.List(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// Get returns one product
// @Summary Get product by id
// @Tags products
// @Security BearerAuth
// @Produce json
// @Param productId path string true "Product ID"
// @Success 200 {object} domain.Product
// @Failure 404 {object} dto.ErrorResponse
// @Router /products/{productId} [get]
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "productId")
	if !ok {
		return
	}

	product, err := h.productService.Get(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// Update changes a product
// @Summary Update product
// @Tags products
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param productId path string true "Product ID"
// @Param request body dto.UpdateProductRequest true "Changes"
// @Success 200 {object} domain.Product
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /products/{productId} [put]
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "productId")
	if !ok {
		return
	}

	var req dto.UpdateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.productService.Update(c.Request.Context(), id, &req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// Delete removes a product and its statistics
// @Summary Delete product
// @Tags products
// @Security BearerAuth
// @Param productId path string true "Product ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /products/{productId} [delete]
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "productId")
	if !ok {
		return
	}

	if err := h.productService.Delete(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
