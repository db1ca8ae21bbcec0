package outcome

import (
	"net/http"

	"conveycrm/internal/domain"
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
	read := middleware.RequirePermission(middleware.PermOutcomesRead)
	manage := middleware.RequirePermission(middleware.PermOutcomesManage)

	outcomes := protected.Group("/outcomes")
	{
		outcomes.GET("", read, h.List)
		outcomes.GET("/:id", read, h.Get)
		outcomes.GET("/:id/next-action", read, h.NextAction)
		outcomes.POST("", manage, h.Create)
		outcomes.PUT("/:id", manage, h.Update)
		outcomes.POST("/:id/active", manage, h.SetActive)
	}
}

// List
// @Summary		List outcome codes
// @Tags		Outcomes
// @Security	BearerAuth
// @Param		active		query	bool	false	"Only active codes"
// @Param		category	query	string	false	"Contact, Interest, Follow-up, Close or Archive"
// @Success		200	{array}	domain.OutcomeCode
// @Router		/outcomes [GET]
func (h *Handler) List(c *gin.Context) {
	rows, err := h.service.List(c.Request.Context(), ListFilter{
		ActiveOnly: c.Query("active") == "true",
		Category:   domain.OutcomeCategory(c.Query("category")),
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, rows)
}

// Get
// @Summary		Get an outcome code
// @Tags		Outcomes
// @Security	BearerAuth
// @Param		id	path	string	true	"Outcome id, e.g. OC-001"
// @Success		200	{object}	domain.OutcomeCode
// @Failure		404	{object}	map[string]interface{}
// @Router		/outcomes/{id} [GET]
func (h *Handler) Get(c *gin.Context) {
	o, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, o)
}

// NextAction
// @Summary		Recommended follow-up for an outcome
// @Description	Unknown or inactive outcomes answer "No action defined".
// @Tags		Outcomes
// @Security	BearerAuth
// @Param		id	path	string	true	"Outcome id"
// @Success		200	{object}	workflow.NextAction
// @Router		/outcomes/{id}/next-action [GET]
func (h *Handler) NextAction(c *gin.Context) {
	next, err := h.service.NextAction(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, next)
}

// Create
// @Summary		Create an outcome code
// @Tags		Outcomes
// @Security	BearerAuth
// @Accept		json
// @Param		request	body	SaveRequest	true	"Outcome definition"
// @Success		201	{object}	domain.OutcomeCode
// @Failure		400	{object}	map[string]interface{}
// @Router		/outcomes [POST]
func (h *Handler) Create(c *gin.Context) {
	var req SaveRequest
	if err := validator.Bind(c, &req); err != nil {
		response.FromError(c, err)
		return
	}
	o, err := h.service.Create(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, o)
}

// Update
// @Summary		Replace an outcome code definition
// @Tags		Outcomes
// @Security	BearerAuth
// @Accept		json
// @Param		id		path	string		true	"Outcome id"
// @Param		request	body	SaveRequest	true	"Outcome definition"
// @Success		200	{object}	domain.OutcomeCode
// @Router		/outcomes/{id} [PUT]
func (h *Handler) Update(c *gin.Context) {
	var req SaveRequest
	id := c.Param("id")
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ID == "" {
		req.ID = id
	}
	if err := validator.Check(req); err != nil {
		response.FromError(c, err)
		return
	}
	o, err := h.service.Update(c.Request.Context(), middleware.Actor(c), id, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, o)
}

// SetActive
// @Summary		Activate or deactivate an outcome code
// @Tags		Outcomes
// @Security	BearerAuth
// @Accept		json
// @Param		id		path	string			true	"Outcome id"
// @Param		request	body	ActiveRequest	true	"Active flag"
// @Success		200	{object}	domain.OutcomeCode
// @Router		/outcomes/{id}/active [POST]
func (h *Handler) SetActive(c *gin.Context) {
	var req ActiveRequest
	if err := validator.Bind(c, &req); err != nil {
		response.FromError(c, err)
		return
	}
	o, err := h.service.SetActive(c.Request.Context(), middleware.Actor(c), c.Param("id"), *req.IsActive)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, o)
}
