package user

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
	users := protected.Group("/users", middleware.RequirePermission(middleware.PermUsersManage))
	{
		users.GET("", h.List)
		users.GET("/stats/overview", h.Stats)
		users.GET("/:id", h.Get)
		users.POST("", h.Create)
		users.PUT("/:id", h.Update)
		users.DELETE("/:id", h.Delete)
		users.POST("/:id/change-password", h.ChangePassword)
	}
}

// List
// @Summary		List users
// @Tags		Users
// @Security	BearerAuth
// @Param		search	query	string	false	"Name or email contains"
// @Param		role	query	string	false	"Admin, Manager or Agent"
// @Param		status	query	string	false	"Active or Inactive"
// @Param		page	query	int		false	"Page"
// @Param		limit	query	int		false	"Page size"
// @Success		200	{object}	ListResult
// @Router		/users [GET]
func (h *Handler) List(c *gin.Context) {
	result, err := h.service.List(c.Request.Context(), ListParams{
		Search: c.Query("search"),
		Role:   domain.UserRole(c.Query("role")),
		Status: domain.UserStatus(c.Query("status")),
		Page:   pagination.FromQuery(c),
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// Stats
// @Summary		User counts by status and role
// @Tags		Users
// @Security	BearerAuth
// @Success		200	{object}	Stats
// @Router		/users/stats/overview [GET]
func (h *Handler) Stats(c *gin.Context) {
	st, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, st)
}

// Get
// @Summary		Get a user
// @Tags		Users
// @Security	BearerAuth
// @Param		id	path	string	true	"User id"
// @Success		200	{object}	domain.User
// @Failure		404	{object}	map[string]interface{}
// @Router		/users/{id} [GET]
func (h *Handler) Get(c *gin.Context) {
	u, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, u)
}

// Create
// @Summary		Create a user
// @Tags		Users
// @Security	BearerAuth
// @Accept		json
// @Param		request	body	CreateRequest	true	"User"
// @Success		201	{object}	domain.User
// @Failure		400	{object}	map[string]interface{}
// @Router		/users [POST]
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := validator.Bind(c, &req); err != nil {
		response.FromError(c, err)
		return
	}
	u, err := h.service.Create(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, u)
}

// Update
// @Summary		Update a user
// @Tags		Users
// @Security	BearerAuth
// @Accept		json
// @Param		id		path	string			true	"User id"
// @Param		request	body	UpdateRequest	true	"Changes"
// @Success		200	{object}	domain.User
// @Failure		404	{object}	map[string]interface{}
// @Router		/users/{id} [PUT]
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := validator.Bind(c, &req); err != nil {
		response.FromError(c, err)
		return
	}
	u, err := h.service.Update(c.Request.Context(), middleware.Actor(c), c.Param("id"), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, u)
}

// Delete
// @Summary		Delete a user
// @Tags		Users
// @Security	BearerAuth
// @Param		id	path	string	true	"User id"
// @Success		200	{object}	map[string]interface{}
// @Failure		400	{object}	map[string]interface{}
// @Router		/users/{id} [DELETE]
func (h *Handler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), middleware.Actor(c), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// ChangePassword
// @Summary		Set a new password
// @Tags		Users
// @Security	BearerAuth
// @Accept		json
// @Param		id		path	string					true	"User id"
// @Param		request	body	ChangePasswordRequest	true	"New password"
// @Success		200	{object}	map[string]interface{}
// @Failure		400	{object}	map[string]interface{}
// @Router		/users/{id}/change-password [POST]
func (h *Handler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := validator.Bind(c, &req); err != nil {
		response.FromError(c, err)
		return
	}
	if err := h.service.ChangePassword(c.Request.Context(), middleware.Actor(c), c.Param("id"), req); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Password changed successfully"})
}
