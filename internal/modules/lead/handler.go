package lead

import (
	"net/http"
	"strings"

	"conveycrm/internal/domain"
	"conveycrm/internal/middleware"
	"conveycrm/internal/pkg/apperr"
	"conveycrm/internal/pkg/dates"
	"conveycrm/internal/pkg/pagination"
	"conveycrm/internal/pkg/response"
	"conveycrm/internal/pkg/validator"
	"conveycrm/internal/workflow"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	read := middleware.RequirePermission(middleware.PermLeadsRead)
	write := middleware.RequirePermission(middleware.PermLeadsWrite)
	attempts := middleware.RequirePermission(middleware.PermAttemptsWrite)

	leads := protected.Group("/leads")
	{
		leads.GET("", read, h.List)
		leads.GET("/:id", read, h.Get)
		leads.POST("", write, h.Create)
		leads.PUT("/:id", write, h.Update)
		leads.POST("/:id/assign", middleware.RequirePermission(middleware.PermLeadsAssign), h.Assign)
		leads.POST("/:id/outcome", write, h.LogOutcome)
		leads.GET("/:id/attempts", read, h.ListAttempts)
		leads.POST("/:id/attempts", attempts, h.LogAttempt)
		leads.GET("/:id/timeline", read, h.Timeline)
	}
}

// List
// @Summary		List leads
// @Description	Filters on stored and derived fields, then paginates. Order is creation order unless sortBy is given.
// @Tags		Leads
// @Security	BearerAuth
// @Param		search		query	string	false	"Name, email or phone"
// @Param		status		query	string	false	"Lead status"
// @Param		source		query	string	false	"Lead source"
// @Param		stage		query	string	false	"Pipeline stage"
// @Param		priority	query	string	false	"High, Medium or Low"
// @Param		assignedTo	query	string	false	"Agent, or 'unassigned'"
// @Param		outcomeCode	query	string	false	"Outcome code id"
// @Param		ageBucket	query	string	false	"New, Old or Overdue"
// @Param		createdFrom	query	string	false	"YYYY-MM-DD or RFC 3339"
// @Param		createdTo	query	string	false	"YYYY-MM-DD or RFC 3339"
// @Param		sortBy		query	string	false	"age, createdAt, lastActionAt, priority or name"
// @Param		order		query	string	false	"asc or desc"
// @Param		page		query	int		false	"Page, default 1"
// @Param		limit		query	int		false	"Page size, default 10, max 100"
// @Success		200	{object}	map[string]interface{}
// @Router		/leads [GET]
func (h *Handler) List(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		response.FromError(c, err)
		return
	}

	result, err := h.service.List(c.Request.Context(), ListParams{
		Filter: filter,
		Page:   pagination.FromQuery(c),
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// Get
// @Summary		Get lead
// @Tags		Leads
// @Security	BearerAuth
// @Param		id	path	string	true	"Lead ID"
// @Success		200	{object}	map[string]interface{}
// @Failure		404	{object}	map[string]interface{}
// @Router		/leads/{id} [GET]
func (h *Handler) Get(c *gin.Context) {
	lead, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, lead)
}

// Create
// @Summary		Create lead
// @Tags		Leads
// @Security	BearerAuth
// @Param		request	body	CreateLeadRequest	true	"name, email and phone are required"
// @Success		201	{object}	map[string]interface{}
// @Failure		400	{object}	map[string]interface{}
// @Router		/leads [POST]
func (h *Handler) Create(c *gin.Context) {
	var req CreateLeadRequest
	if err := validator.Bind(c, &req); err != nil {
		response.FromError(c, err)
		return
	}

	lead, err := h.service.Create(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, lead)
}

// Update
// @Summary		Update lead
// @Description	Partial update guarded by the lead revision; a stale revision answers 409.
// @Tags		Leads
// @Security	BearerAuth
// @Param		id		path	string				true	"Lead ID"
// @Param		request	body	UpdateLeadRequest	true	"Fields to change and the current revision"
// @Success		200	{object}	map[string]interface{}
// @Failure		409	{object}	map[string]interface{}
// @Router		/leads/{id} [PUT]
func (h *Handler) Update(c *gin.Context) {
	var req UpdateLeadRequest
	if err := validator.Bind(c, &req); err != nil {
		response.FromError(c, err)
		return
	}

	lead, err := h.service.Update(c.Request.Context(), middleware.Actor(c), c.Param("id"), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, lead)
}

// Assign
// @Summary		Assign lead
// @Description	Sets assignedTo and moves the lead to Assigned. Rejected with 409 when the agent's quota is full unless override is set by a Manager or Admin.
// @Tags		Leads
// @Security	BearerAuth
// @Param		id		path	string			true	"Lead ID"
// @Param		request	body	AssignRequest	true	"Agent"
// @Success		200	{object}	map[string]interface{}
// @Failure		404	{object}	map[string]interface{}
// @Failure		409	{object}	map[string]interface{}
// @Router		/leads/{id}/assign [POST]
func (h *Handler) Assign(c *gin.Context) {
	var req AssignRequest
	if err := validator.Bind(c, &req); err != nil {
		response.FromError(c, err)
		return
	}

	canOverride := middleware.Can(middleware.Role(c), middleware.PermQuotasOverride)
	lead, err := h.service.Assign(c.Request.Context(), middleware.Actor(c), canOverride, c.Param("id"), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, lead)
}

// LogOutcome
// @Summary		Log outcome
// @Description	Records the outcome code and applies its follow-up: schedules the next attempt or archives the lead at its attempt ceiling.
// @Tags		Leads
// @Security	BearerAuth
// @Param		id		path	string			true	"Lead ID"
// @Param		request	body	OutcomeRequest	true	"Outcome"
// @Success		200	{object}	map[string]interface{}
// @Failure		400	{object}	map[string]interface{}
// @Failure		404	{object}	map[string]interface{}
// @Router		/leads/{id}/outcome [POST]
func (h *Handler) LogOutcome(c *gin.Context) {
	var req OutcomeRequest
	if err := validator.Bind(c, &req); err != nil {
		response.FromError(c, err)
		return
	}

	result, err := h.service.LogOutcome(c.Request.Context(), middleware.Actor(c), c.Param("id"), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// ListAttempts
// @Summary		Lead contact attempts
// @Tags		Leads
// @Security	BearerAuth
// @Param		id	path	string	true	"Lead ID"
// @Success		200	{object}	map[string]interface{}
// @Router		/leads/{id}/attempts [GET]
func (h *Handler) ListAttempts(c *gin.Context) {
	attempts, err := h.service.ListAttempts(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, attempts)
}

// LogAttempt
// @Summary		Log contact attempt
// @Description	Records a completed or failed attempt. Answers 409 once the lead has used all its attempts.
// @Tags		Leads
// @Security	BearerAuth
// @Param		id		path	string				true	"Lead ID"
// @Param		request	body	LogAttemptRequest	true	"Attempt"
// @Success		201	{object}	map[string]interface{}
// @Failure		409	{object}	map[string]interface{}
// @Router		/leads/{id}/attempts [POST]
func (h *Handler) LogAttempt(c *gin.Context) {
	var req LogAttemptRequest
	if err := validator.Bind(c, &req); err != nil {
		response.FromError(c, err)
		return
	}

	result, err := h.service.LogAttempt(c.Request.Context(), middleware.Actor(c), c.Param("id"), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, result)
}

// Timeline
// @Summary		Lead timeline
// @Tags		Leads
// @Security	BearerAuth
// @Param		id	path	string	true	"Lead ID"
// @Success		200	{object}	map[string]interface{}
// @Router		/leads/{id}/timeline [GET]
func (h *Handler) Timeline(c *gin.Context) {
	entries, err := h.service.Timeline(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, entries)
}

func parseFilter(c *gin.Context) (workflow.LeadFilter, error) {
	f := workflow.LeadFilter{
		Search:      strings.TrimSpace(c.Query("search")),
		Status:      domain.LeadStatus(c.Query("status")),
		Source:      domain.LeadSource(c.Query("source")),
		Stage:       domain.LeadStage(c.Query("stage")),
		Priority:    domain.Priority(c.Query("priority")),
		AssignedTo:  c.Query("assignedTo"),
		OutcomeCode: c.Query("outcomeCode"),
		AgeBucket:   workflow.AgeBucket(c.Query("ageBucket")),
		SortBy:      workflow.SortKey(c.Query("sortBy")),
		Descending:  strings.EqualFold(c.Query("order"), "desc"),
	}
	if f.AgeBucket != "" && !f.AgeBucket.Valid() {
		return f, apperr.Validation("ageBucket must be New, Old or Overdue")
	}
	if !f.SortBy.Valid() {
		return f, apperr.Validation("sortBy must be one of age, createdAt, lastActionAt, priority, name")
	}

	from, err := dates.Parse(c.Query("createdFrom"))
	if err != nil {
		return f, apperr.Validation("createdFrom: " + err.Error())
	}
	to, err := dates.Parse(c.Query("createdTo"))
	if err != nil {
		return f, apperr.Validation("createdTo: " + err.Error())
	}
	f.CreatedFrom = from
	f.CreatedTo = dates.EndOfDay(c.Query("createdTo"), to)
	return f, nil
}
