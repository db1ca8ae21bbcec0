package auth

import (
	"net/http"
	"time"

	"conveycrm/internal/middleware"
	"conveycrm/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Handler manages all HTTP interactions for authentication
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(api *gin.RouterGroup) {
	api.POST("/auth/login", h.Login)
}

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	protected.POST("/auth/logout", h.Logout)
	protected.GET("/auth/verify", h.Verify)
}

// Login
// @Summary		Sign in
// @Description	Checks email and password and returns the user with a signed JWT.
// @Tags		Auth
// @Param		request	body	LoginRequest	true	"Credentials"
// @Success		200	{object}	map[string]interface{}
// @Failure		400	{object}	map[string]interface{} "Email and password are required"
// @Failure		401	{object}	map[string]interface{} "Invalid credentials"
// @Router		/auth/login [POST]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, ErrMissingCredentials)
		return
	}

	result, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// Logout
// @Summary		Sign out
// @Description	Revokes the bearer token used for this request.
// @Tags		Auth
// @Security	BearerAuth
// @Success		200	{object}	map[string]interface{}
// @Failure		401	{object}	map[string]interface{}
// @Router		/auth/logout [POST]
func (h *Handler) Logout(c *gin.Context) {
	req := LogoutRequest{
		TokenID: c.GetString(middleware.CtxTokenID),
		UserID:  middleware.UserID(c),
	}
	if exp, ok := c.Get(middleware.CtxTokenExp); ok {
		req.ExpiresAt, _ = exp.(time.Time)
	}

	if err := h.service.Logout(c.Request.Context(), req); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Logged out"})
}

// Verify
// @Summary		Verify token
// @Description	Returns the user behind a valid bearer token.
// @Tags		Auth
// @Security	BearerAuth
// @Success		200	{object}	map[string]interface{}
// @Failure		401	{object}	map[string]interface{}
// @Router		/auth/verify [GET]
func (h *Handler) Verify(c *gin.Context) {
	user, err := h.service.Verify(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}
