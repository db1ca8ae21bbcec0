package report

import (
	"net/http"

	"conveycrm/internal/domain"
	"conveycrm/internal/middleware"
	"conveycrm/internal/pkg/apperr"
	"conveycrm/internal/pkg/dates"
	"conveycrm/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	reports := protected.Group("/reports", middleware.RequirePermission(middleware.PermReportsRead))
	{
		reports.GET("/overview", h.Overview)
		reports.GET("/performance", h.Performance)
		reports.GET("/leads", h.Leads)
		reports.GET("/revenue", h.Revenue)
		reports.GET("/dashboard", h.Dashboard)
		reports.GET("/export/csv", h.ExportCSV)
		reports.GET("/export/excel", h.ExportExcel)
	}
}

// Overview
// @Summary		Lead and revenue overview
// @Tags		Reports
// @Security	BearerAuth
// @Param		startDate	query	string	false	"YYYY-MM-DD"
// @Param		endDate		query	string	false	"YYYY-MM-DD, inclusive"
// @Success		200	{object}	Overview
// @Router		/reports/overview [GET]
func (h *Handler) Overview(c *gin.Context) {
	rng, err := rangeFromQuery(c)
	if err != nil {
		response.FromError(c, err)
		return
	}
	out, err := h.service.Overview(c.Request.Context(), rng)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

// Performance
// @Summary		Agent performance and monthly trends
// @Tags		Reports
// @Security	BearerAuth
// @Param		startDate	query	string	false	"YYYY-MM-DD"
// @Param		endDate		query	string	false	"YYYY-MM-DD, inclusive"
// @Success		200	{object}	Performance
// @Router		/reports/performance [GET]
func (h *Handler) Performance(c *gin.Context) {
	rng, err := rangeFromQuery(c)
	if err != nil {
		response.FromError(c, err)
		return
	}
	out, err := h.service.Performance(c.Request.Context(), rng)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

// Leads
// @Summary		Lead analysis
// @Tags		Reports
// @Security	BearerAuth
// @Param		startDate	query	string	false	"YYYY-MM-DD"
// @Param		endDate		query	string	false	"YYYY-MM-DD, inclusive"
// @Param		source		query	string	false	"Lead source"
// @Param		status		query	string	false	"Lead status"
// @Success		200	{object}	LeadAnalysis
// @Router		/reports/leads [GET]
func (h *Handler) Leads(c *gin.Context) {
	rng, err := rangeFromQuery(c)
	if err != nil {
		response.FromError(c, err)
		return
	}
	out, err := h.service.Leads(c.Request.Context(), LeadFilter{
		Range:  rng,
		Source: domain.LeadSource(c.Query("source")),
		Status: domain.LeadStatus(c.Query("status")),
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

// Revenue
// @Summary		Revenue report
// @Tags		Reports
// @Security	BearerAuth
// @Param		startDate	query	string	false	"YYYY-MM-DD"
// @Param		endDate		query	string	false	"YYYY-MM-DD, inclusive"
// @Success		200	{object}	Revenue
// @Router		/reports/revenue [GET]
func (h *Handler) Revenue(c *gin.Context) {
	rng, err := rangeFromQuery(c)
	if err != nil {
		response.FromError(c, err)
		return
	}
	out, err := h.service.Revenue(c.Request.Context(), rng)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

// Dashboard
// @Summary		Dashboard counters and recent activity
// @Tags		Reports
// @Security	BearerAuth
// @Success		200	{object}	Dashboard
// @Router		/reports/dashboard [GET]
func (h *Handler) Dashboard(c *gin.Context) {
	out, err := h.service.Dashboard(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

// ExportCSV
// @Summary		Export a report as CSV
// @Tags		Reports
// @Security	BearerAuth
// @Produce		text/csv
// @Param		reportType	query	string	false	"overview, performance, leads or revenue"
// @Param		startDate	query	string	false	"YYYY-MM-DD"
// @Param		endDate		query	string	false	"YYYY-MM-DD, inclusive"
// @Success		200	{file}	file
// @Router		/reports/export/csv [GET]
func (h *Handler) ExportCSV(c *gin.Context) {
	rng, err := rangeFromQuery(c)
	if err != nil {
		response.FromError(c, err)
		return
	}
	out, err := h.service.ExportCSV(c.Request.Context(), c.Query("reportType"), rng, rawRange(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+out.Filename)
	c.Data(http.StatusOK, "text/csv", out.Body)
}

// ExportExcel
// @Summary		Excel export (not available)
// @Tags		Reports
// @Security	BearerAuth
// @Param		reportType	query	string	false	"Report type"
// @Success		200	{object}	ExcelNotice
// @Router		/reports/export/excel [GET]
func (h *Handler) ExportExcel(c *gin.Context) {
	response.Success(c, http.StatusOK, h.service.ExportExcel(c.Query("reportType"), rawRange(c)))
}

func rangeFromQuery(c *gin.Context) (Range, error) {
	from, err := dates.Parse(c.Query("startDate"))
	if err != nil {
		return Range{}, apperr.Validation("startDate: " + err.Error())
	}
	to, err := dates.Parse(c.Query("endDate"))
	if err != nil {
		return Range{}, apperr.Validation("endDate: " + err.Error())
	}
	return Range{From: from, To: dates.EndOfDay(c.Query("endDate"), to)}, nil
}

func rawRange(c *gin.Context) string {
	return c.Query("startDate") + " to " + c.Query("endDate")
}
