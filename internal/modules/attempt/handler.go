package attempt

import (
	"net/http"

	"conveycrm/internal/domain"
	"conveycrm/internal/middleware"
	"conveycrm/internal/pkg/apperr"
	"conveycrm/internal/pkg/dates"
	"conveycrm/internal/pkg/pagination"
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
	attempts := protected.Group("/attempts")
	{
		attempts.GET("", middleware.RequirePermission(middleware.PermLeadsRead), h.List)
		attempts.POST("/:id/status", middleware.RequirePermission(middleware.PermAttemptsWrite), h.UpdateStatus)
	}
}

// List
// @Summary		List contact attempts
// @Tags		Attempts
// @Security	BearerAuth
// @Param		leadId	query	string	false	"Lead id"
// @Param		status	query	string	false	"Attempt status"
// @Param		from	query	string	false	"Scheduled on or after"
// @Param		to		query	string	false	"Scheduled on or before"
// @Param		page	query	int		false	"Page"
// @Param		limit	query	int		false	"Page size"
// @Success		200	{object}	map[string]interface{}
// @Router		/attempts [GET]
func (h *Handler) List(c *gin.Context) {
	from, err := dates.Parse(c.Query("from"))
	if err != nil {
		response.FromError(c, apperr.Validation("from: "+err.Error()))
		return
	}
	to, err := dates.Parse(c.Query("to"))
	if err != nil {
		response.FromError(c, apperr.Validation("to: "+err.Error()))
		return
	}
	to = dates.EndOfDay(c.Query("to"), to)

	result, err := h.service.List(c.Request.Context(), ListParams{
		LeadID: c.Query("leadId"),
		Status: domain.AttemptStatus(c.Query("status")),
		From:   from,
		To:     to,
		Page:   pagination.FromQuery(c),
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// UpdateStatus
// @Summary		Move a contact attempt to another status
// @Description	Completed and Failed consume one of the lead's attempts.
// @Tags		Attempts
// @Security	BearerAuth
// @Accept		json
// @Produce		json
// @Param		id		path	string			true	"Attempt id"
// @Param		request	body	StatusRequest	true	"Target status"
// @Success		200	{object}	TransitionResult
// @Failure		409	{object}	map[string]interface{}
// @Router		/attempts/{id}/status [POST]
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req StatusRequest
	if err := validator.Bind(c, &req); err != nil {
		response.FromError(c, err)
		return
	}

	result, err := h.service.Transition(c.Request.Context(), middleware.Actor(c), c.Param("id"), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}
