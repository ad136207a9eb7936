package handlers

import (
	"net/http"

	"designhub_backend/internal/services"
	"designhub_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type PortfolioHandler struct {
	*BaseHandler
	portfolioService services.PortfolioService
}

func NewPortfolioHandler(base *BaseHandler, portfolioService services.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{
		BaseHandler:      base,
		portfolioService: portfolioService,
	}
}

func (h *PortfolioHandler) RegisterRoutes(rg *gin.RouterGroup, guards RouteGuards) {
	// Витрина публичная
	portfolios := rg.Group("/portfolios")
	{
		portfolios.GET("", h.ListPortfolios)
		portfolios.GET("/:portfolioId", h.GetPortfolio)
		portfolios.POST("/:portfolioId/ratings", guards.Auth, h.RatePortfolio)
	}
}

func (h *PortfolioHandler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	admin.PUT("/portfolios/:portfolioId/featured", h.SetFeatured)
	admin.POST("/portfolios/sync", h.TriggerSync)
}

// ListPortfolios godoc
// @Summary Витрина работ
// @Tags portfolios
// @Produce json
// @Param sort query string false "newest | oldest | rating | popular | featured"
// @Param categoryId query string false "Категория"
// @Param designerId query string false "Дизайнер"
// @Param search query string false "Поиск по названию, описанию и тегам"
// @Param page query int false "Страница"
// @Param limit query int false "Размер страницы"
// @Success 200 {object} dto.PortfolioListResponse
// @Router /api/v1/portfolios [get]
func (h *PortfolioHandler) ListPortfolios(c *gin.Context) {
	var query dto.PortfolioListQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	resp, err := h.portfolioService.ListPortfolios(c.Request.Context(), h.GetDB(c), &query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PortfolioHandler) GetPortfolio(c *gin.Context) {
	portfolio, err := h.portfolioService.GetPortfolio(c.Request.Context(), h.GetDB(c), c.Param("portfolioId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, portfolio)
}

// RatePortfolio godoc
// @Summary Оценить работу
// @Description Повторная оценка того же пользователя заменяет прежнюю
// @Tags portfolios
// @Accept json
// @Produce json
// @Param portfolioId path string true "ID работы"
// @Param request body dto.RatePortfolioRequest true "Оценка"
// @Success 201 {object} dto.RatingResponse "Оценка создана"
// @Success 200 {object} dto.RatingResponse "Оценка обновлена"
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 403 {object} apperrors.ErrorResponse "Нельзя оценивать свою работу"
// @Router /api/v1/portfolios/{portfolioId}/ratings [post]
func (h *PortfolioHandler) RatePortfolio(c *gin.Context) {
	var req dto.RatePortfolioRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.portfolioService.RatePortfolio(c.Request.Context(), h.GetDB(c), h.GetPrincipal(c), c.Param("portfolioId"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	status := http.StatusOK
	if resp.Created {
		status = http.StatusCreated
	}
	c.JSON(status, resp)
}

func (h *PortfolioHandler) SetFeatured(c *gin.Context) {
	var req dto.FeaturePortfolioRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	portfolio, err := h.portfolioService.SetFeatured(c.Request.Context(), h.GetDB(c), h.GetPrincipal(c), c.Param("portfolioId"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, portfolio)
}

func (h *PortfolioHandler) TriggerSync(c *gin.Context) {
	resp, err := h.portfolioService.TriggerSync(c.Request.Context(), h.GetDB(c), h.GetPrincipal(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
