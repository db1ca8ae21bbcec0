package payment

import (
	"net/http"

	"conveycrm/internal/domain"
	"conveycrm/internal/middleware"
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
	read := middleware.RequirePermission(middleware.PermPaymentsRead)
	write := middleware.RequirePermission(middleware.PermPaymentsWrite)

	payments := protected.Group("/payments")
	{
		payments.GET("", read, h.List)
		payments.GET("/stats/overview", read, h.Stats)
		payments.GET("/:id", read, h.Get)
		payments.POST("", write, h.Create)
		payments.PUT("/:id", write, h.Update)
		payments.POST("/:id/status", write, h.UpdateStatus)
		payments.POST("/:id/send", write, h.Send)
	}
}

// List
// @Summary		List payments
// @Description	Sent payments past their due date are reported as Overdue.
// @Tags		Payments
// @Security	BearerAuth
// @Param		leadId	query	string	false	"Lead id"
// @Param		status	query	string	false	"Draft, Sent, Paid, Overdue or Cancelled"
// @Param		page	query	int		false	"Page"
// @Param		limit	query	int		false	"Page size"
// @Success		200	{object}	ListResult
// @Router		/payments [GET]
func (h *Handler) List(c *gin.Context) {
	result, err := h.service.List(c.Request.Context(), ListParams{
		LeadID: c.Query("leadId"),
		Status: domain.InvoiceStatus(c.Query("status")),
		Page:   pagination.FromQuery(c),
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// Stats
// @Summary		Payment totals
// @Tags		Payments
// @Security	BearerAuth
// @Success		200	{object}	Stats
// @Router		/payments/stats/overview [GET]
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

// Get
// @Summary		Get a payment
// @Tags		Payments
// @Security	BearerAuth
// @Param		id	path	string	true	"Payment id"
// @Success		200	{object}	domain.Invoice
// @Failure		404	{object}	map[string]interface{}
// @Router		/payments/{id} [GET]
func (h *Handler) Get(c *gin.Context) {
	inv, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, inv)
}

// Create
// @Summary		Raise a payment request
// @Description	Amount defaults to the quote total when quoteId is given.
// @Tags		Payments
// @Security	BearerAuth
// @Accept		json
// @Param		request	body	CreateRequest	true	"Payment"
// @Success		201	{object}	domain.Invoice
// @Failure		400	{object}	map[string]interface{}
// @Router		/payments [POST]
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := validator.Bind(c, &req); err != nil {
		response.FromError(c, err)
		return
	}
	inv, err := h.service.Create(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, inv)
}

// Update
// @Summary		Edit a draft payment
// @Tags		Payments
// @Security	BearerAuth
// @Accept		json
// @Param		id		path	string			true	"Payment id"
// @Param		request	body	UpdateRequest	true	"Changes"
// @Success		200	{object}	domain.Invoice
// @Failure		409	{object}	map[string]interface{}
// @Router		/payments/{id} [PUT]
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := validator.Bind(c, &req); err != nil {
		response.FromError(c, err)
		return
	}
	inv, err := h.service.Update(c.Request.Context(), middleware.Actor(c), c.Param("id"), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, inv)
}

// UpdateStatus
// @Summary		Change payment status
// @Tags		Payments
// @Security	BearerAuth
// @Accept		json
// @Param		id		path	string			true	"Payment id"
// @Param		request	body	StatusRequest	true	"Target status"
// @Success		200	{object}	domain.Invoice
// @Failure		409	{object}	map[string]interface{}
// @Router		/payments/{id}/status [POST]
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req StatusRequest
	if err := validator.Bind(c, &req); err != nil {
		response.FromError(c, err)
		return
	}
	inv, err := h.service.Transition(c.Request.Context(), middleware.Actor(c), c.Param("id"), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, inv)
}

// Send
// @Summary		Email the payment link
// @Description	Sends the checkout link to the lead (or the given address) and marks a draft as Sent.
// @Tags		Payments
// @Security	BearerAuth
// @Accept		json
// @Param		id		path	string		true	"Payment id"
// @Param		request	body	SendRequest	false	"Recipient override"
// @Success		200	{object}	SendResponse
// @Failure		409	{object}	map[string]interface{}
// @Router		/payments/{id}/send [POST]
func (h *Handler) Send(c *gin.Context) {
	var req SendRequest
	if c.Request.ContentLength > 0 {
		if err := validator.Bind(c, &req); err != nil {
			response.FromError(c, err)
			return
		}
	}
	result, err := h.service.Send(c.Request.Context(), middleware.Actor(c), c.Param("id"), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}
