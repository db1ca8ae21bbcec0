package quote

import (
	"fmt"
	"net/http"
	"strconv"

	"conveycrm/internal/domain"
	"conveycrm/internal/middleware"
	"conveycrm/internal/pkg/apperr"
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
	read := middleware.RequirePermission(middleware.PermQuotesRead)
	write := middleware.RequirePermission(middleware.PermQuotesWrite)

	quotes := protected.Group("/quotes")
	{
		quotes.GET("", read, h.List)
		quotes.GET("/:id", read, h.Get)
		quotes.POST("", write, h.Create)
		quotes.PUT("/:id", write, h.Update)
		quotes.POST("/:id/status", write, h.UpdateStatus)
		quotes.GET("/:id/history", read, h.History)
		quotes.GET("/:id/pdf", read, h.PDF)
	}
}

// List
// @Summary		List quotes (current versions)
// @Tags		Quotes
// @Security	BearerAuth
// @Param		leadId	query	string	false	"Lead id"
// @Param		status	query	string	false	"Quote status"
// @Param		page	query	int		false	"Page"
// @Param		limit	query	int		false	"Page size"
// @Success		200	{object}	ListResult
// @Router		/quotes [GET]
func (h *Handler) List(c *gin.Context) {
	result, err := h.service.List(c.Request.Context(), ListParams{
		LeadID: c.Query("leadId"),
		Status: domain.QuoteStatus(c.Query("status")),
		Page:   pagination.FromQuery(c),
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// Get
// @Summary		Get a quote
// @Tags		Quotes
// @Security	BearerAuth
// @Param		id		path	string	true	"Quote id"
// @Param		version	query	int		false	"Specific version; current when omitted"
// @Success		200	{object}	domain.Quote
// @Failure		404	{object}	map[string]interface{}
// @Router		/quotes/{id} [GET]
func (h *Handler) Get(c *gin.Context) {
	version, err := versionParam(c)
	if err != nil {
		response.FromError(c, err)
		return
	}
	q, err := h.service.Get(c.Request.Context(), c.Param("id"), version)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, q)
}

// Create
// @Summary		Create a quote for a lead
// @Description	Line totals, net, VAT and total are computed server side.
// @Tags		Quotes
// @Security	BearerAuth
// @Accept		json
// @Param		request	body	CreateRequest	true	"Quote"
// @Success		201	{object}	domain.Quote
// @Failure		400	{object}	map[string]interface{}
// @Router		/quotes [POST]
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := validator.Bind(c, &req); err != nil {
		response.FromError(c, err)
		return
	}
	q, err := h.service.Create(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, q)
}

// Update
// @Summary		Edit a quote
// @Description	Drafts change in place; a Sent quote gets a new Draft version; decided quotes are locked.
// @Tags		Quotes
// @Security	BearerAuth
// @Accept		json
// @Param		id		path	string			true	"Quote id"
// @Param		request	body	UpdateRequest	true	"Changes"
// @Success		200	{object}	domain.Quote
// @Failure		409	{object}	map[string]interface{}
// @Router		/quotes/{id} [PUT]
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := validator.Bind(c, &req); err != nil {
		response.FromError(c, err)
		return
	}
	q, err := h.service.Update(c.Request.Context(), middleware.Actor(c), c.Param("id"), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, q)
}

// UpdateStatus
// @Summary		Move a quote to another status
// @Description	Moving to Sent emails the client the quote PDF; the status only changes once the email is handed over.
// @Tags		Quotes
// @Security	BearerAuth
// @Accept		json
// @Param		id		path	string			true	"Quote id"
// @Param		request	body	StatusRequest	true	"Target status"
// @Success		200	{object}	domain.Quote
// @Failure		409	{object}	map[string]interface{}
// @Router		/quotes/{id}/status [POST]
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req StatusRequest
	if err := validator.Bind(c, &req); err != nil {
		response.FromError(c, err)
		return
	}
	q, err := h.service.Transition(c.Request.Context(), middleware.Actor(c), c.Param("id"), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, q)
}

// History
// @Summary		Versions and audit entries of a quote
// @Tags		Quotes
// @Security	BearerAuth
// @Param		id	path	string	true	"Quote id"
// @Success		200	{object}	History
// @Router		/quotes/{id}/history [GET]
func (h *Handler) History(c *gin.Context) {
	hist, err := h.service.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, hist)
}

// PDF
// @Summary		Download a quote as PDF
// @Tags		Quotes
// @Security	BearerAuth
// @Produce		application/pdf
// @Param		id		path	string	true	"Quote id"
// @Param		version	query	int		false	"Specific version"
// @Success		200	{file}	binary
// @Router		/quotes/{id}/pdf [GET]
func (h *Handler) PDF(c *gin.Context) {
	version, err := versionParam(c)
	if err != nil {
		response.FromError(c, err)
		return
	}
	doc, name, err := h.service.PDF(c.Request.Context(), c.Param("id"), version)
	if err != nil {
		response.FromError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "application/pdf", doc)
}

func versionParam(c *gin.Context) (int, error) {
	raw := c.Query("version")
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, apperr.Validation("version must be a positive integer")
	}
	return v, nil
}
