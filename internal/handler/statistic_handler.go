package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/statboard/internal/apperror"
	"github.com/prperemyshlev/statboard/internal/domain"
	"github.com/prperemyshlev/statboard/internal/dto"
	"github.com/prperemyshlev/statboard/internal/service"
)

// StatisticHandler serves statistics records and sorted listings
type StatisticHandler struct {
	statService service.StatisticService
}

func NewStatisticHandler(statService service.StatisticService) *StatisticHandler {
	return &StatisticHandler{statService: statService}
}

// StatsQuery parses a sorted listing query into sort keys and a limit
type StatsQuery func(c *gin.Context) ([]domain.SortKey, int, bool)

// SortByField reads field, sortOrder and limit
func SortByField(c *gin.Context) ([]domain.SortKey, int, bool) {
	var q dto.StatsQueryOne
	if !bindQuery(c, &q) {
		return nil, 0, false
	}
	return []domain.SortKey{
		{Field: domain.StatField(q.Field), Order: domain.SortOrder(q.SortOrder)},
	}, q.Limit, true
}

// SortByFields reads a primary and a secondary sort field with a limit
func SortByFields(c *gin.Context) ([]domain.SortKey, int, bool) {
	var q dto.StatsQueryTwo
	if !bindQuery(c, &q) {
		return nil, 0, false
	}
	return []domain.SortKey{
		{Field: domain.StatField(q.MainField), Order: domain.SortOrder(q.MainSortOrder)},
		{Field: domain.StatField(q.SecondField), Order: domain.SortOrder(q.SecondSortOrder)},
	}, q.Limit, true
}

// Unsorted lists in storage order without a limit
func Unsorted(*gin.Context) ([]domain.SortKey, int, bool) {
	return nil, 0, true
}

// Create records a result of the caller for a product
// @Summary Create statistics
// @Tags stats
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param productId path string true "Product ID"
// @Param request body dto.CreateStatisticRequest true "Result"
// @Success 201 {object} domain.Statistic
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /stats/products/{productId} [post]
func (h *StatisticHandler) Create(c *gin.Context) {
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}

	var req dto.CreateStatisticRequest
	if !bindJSON(c, &req) {
		return
	}

	user := CurrentUser(c)
	if user == nil {
		abortWithError(c, apperror.Unauthorized(apperror.MsgUnauthorized))
		return
	}

	stat, err := h.statService.Create(c.Request.Context(), user.ID, productID, &req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, stat)
}

// List returns every statistics record
// @Summary Get all statistics
// @Tags stats
// @Security BearerAuth
// @Produce json
// @Success 200 {array} domain.Statistic
// @Router /stats [get]
func (h *StatisticHandler) List(c *gin.Context) {
	stats, err := h.statService.List(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Get returns one statistics record
// @Summary Get statistics by id
// @Tags stats
// @Security BearerAuth
// @Produce json
// @Param statsId path string true "Statistics ID"
// @Success 200 {object} domain.Statistic
// @Failure 404 {object} dto.ErrorResponse
// @Router /stats/{statsId} [get]
func (h *StatisticHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "statsId")
	if !ok {
		return
	}

	stat, err := h.statService.Get(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stat)
}

// ByProduct lists the statistics of a product, skipping blocked users
// @Summary Product statistics
// @Tags stats
// @Security BearerAuth
// @Produce json
// @Param productId path string true "Product ID"
// @Success 200 {array} domain.Statistic
// @Failure 400 {object} dto.ErrorResponse
// @Router /stats/products/{productId} [get]
// @Router /stats/products/{productId}/sortByField [get]
// @Router /stats/products/{productId}/sortByFields [get]
func (h *StatisticHandler) ByProduct(parse StatsQuery) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, ok := pathID(c, "productId")
		if !ok {
			return
		}

		sort, limit, ok := parse(c)
		if !ok {
			return
		}

		stats, err := h.statService.ListByProduct(c.Request.Context(), productID, sort, limit)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

// ByUserAndProduct lists the statistics of one user for one product
// @Summary User statistics for a product
// @Tags stats
// @Security BearerAuth
// @Produce json
// @Param productId path string true "Product ID"
// @Param userId path string true "User ID"
// @Success 200 {array} domain.Statistic
// @Router /stats/products/{productId}/users/{userId} [get]
func (h *StatisticHandler) ByUserAndProduct(c *gin.Context) {
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	stats, err := h.statService.ListByUser(c.Request.Context(), userID, productID, nil, 0)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ByUser lists the statistics of a user. Sorted variants are scoped to the
// productId query parameter.
// @Summary User statistics
// @Tags stats
// @Security BearerAuth
// @Produce json
// @Param userId path string true "User ID"
// @Param productId query string false "Product ID, required when sorting"
// @Success 200 {array} domain.Statistic
// @Failure 400 {object} dto.ErrorResponse
// @Router /stats/users/{userId} [get]
// @Router /stats/users/{userId}/sortByField [get]
// @Router /stats/users/{userId}/sortByFields [get]
func (h *StatisticHandler) ByUser(parse StatsQuery, scoped bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := pathID(c, "userId")
		if !ok {
			return
		}

		var scope dto.ProductScope
		if scoped && !bindQuery(c, &scope) {
			return
		}

		sort, limit, ok := parse(c)
		if !ok {
			return
		}

		stats, err := h.statService.ListByUser(c.Request.Context(), userID, scope.ProductID, sort, limit)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

// Delete removes a statistics record owned by the user
// @Summary Delete statistics
// @Tags stats
// @Security BearerAuth
// @Param statsId path string true "Statistics ID"
// @Param userId path string true "User ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /stats/{statsId}/users/{userId} [delete]
func (h *StatisticHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "statsId")
	if !ok {
		return
	}
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	if err := h.statService.Delete(c.Request.Context(), id, userID); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
