package realtime

import (
	"context"
	"net/http"

	"conveycrm/internal/pkg/jwt"
	"conveycrm/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type Handler struct {
	hub     *Hub
	tokens  TokenValidator
	revoked RevocationChecker
	up      websocket.Upgrader
	log     *zap.Logger
}

// NewHandler builds the websocket endpoint. allowOrigin may be nil to accept any origin.
func NewHandler(hub *Hub, tokens TokenValidator, revoked RevocationChecker, allowOrigin func(string) bool, log *zap.Logger) *Handler {
	return &Handler{
		hub:     hub,
		tokens:  tokens,
		revoked: revoked,
		log:     log,
		up: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowOrigin == nil || allowOrigin(origin)
			},
		},
	}
}

func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/ws/leads", h.Connect)
}

// Connect upgrades to a websocket. Browsers cannot set headers on the handshake,
// so the token travels in ?token=.
// @Summary		Subscribe to CRM events
// @Tags		Realtime
// @Param		token	query	string	true	"JWT"
// @Success		101
// @Failure		401	{object}	map[string]interface{}
// @Router		/ws/leads [GET]
func (h *Handler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "No token provided")
		return
	}
	claims, err := h.tokens.ValidateToken(token)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "Invalid token")
		return
	}
	if h.revoked != nil {
		revoked, err := h.revoked.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil || revoked {
			response.Error(c, http.StatusUnauthorized, "Invalid token")
			return
		}
	}

	conn, err := h.up.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	h.hub.Serve(conn, claims.UserID, claims.Role)
}
