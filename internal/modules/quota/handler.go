package quota

import (
	"net/http"

	"conveycrm/internal/middleware"
	"conveycrm/internal/pkg/response"
	"conveycrm/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	quotas := protected.Group("/quotas")
	{
		quotas.GET("", middleware.RequirePermission(middleware.PermQuotasRead), h.List)
		quotas.GET("/:agent", middleware.RequirePermission(middleware.PermQuotasRead), h.Get)
		quotas.PUT("/:agent", middleware.RequirePermission(middleware.PermQuotasManage), h.Update)
	}
}

// List
// @Summary		List agent quotas
// @Tags		Quotas
// @Security	BearerAuth
// @Success		200	{array}	View
// @Router		/quotas [GET]
func (h *Handler) List(c *gin.Context) {
	rows, err := h.service.List(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, rows)
}

// Get
// @Summary		Get an agent's quota and utilisation
// @Tags		Quotas
// @Security	BearerAuth
// @Param		agent	path	string	true	"Agent key"
// @Success		200	{object}	View
// @Router		/quotas/{agent} [GET]
func (h *Handler) Get(c *gin.Context) {
	v, err := h.service.Get(c.Request.Context(), c.Param("agent"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, v)
}

// Update
// @Summary		Change an agent's quota ceilings
// @Tags		Quotas
// @Security	BearerAuth
// @Accept		json
// @Param		agent	path	string			true	"Agent key"
// @Param		request	body	UpdateRequest	true	"Ceilings; zero means unlimited"
// @Success		200	{object}	View
// @Router		/quotas/{agent} [PUT]
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := validator.Bind(c, &req); err != nil {
		response.FromError(c, err)
		return
	}
	v, err := h.service.Update(c.Request.Context(), middleware.Actor(c), c.Param("agent"), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, v)
}
