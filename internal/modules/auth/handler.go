package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/auth-space/core/internal/middleware"
	"github.com/auth-space/core/internal/modules/user"
	"github.com/auth-space/core/internal/pkg/response"
	"github.com/auth-space/core/internal/pkg/session"
	"github.com/auth-space/core/internal/pkg/tokenstore"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc      *Service
	sessions *session.Manager
}

func NewHandler(svc *Service, sessions *session.Manager) *Handler {
	return &Handler{svc: svc, sessions: sessions}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/users")

	g.POST("/register", h.register)
	g.POST("/token", h.login)
	g.POST("/logout", h.logout)
	g.GET("/protected", authMW, h.protected)
}

func (h *Handler) register(c *gin.Context) {
	var dto RegisterDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "invalid_body", err.Error())
		return
	}
	u, err := h.svc.Register(c.Request.Context(), dto.Email, dto.Password)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			response.Conflict(c, "duplicate_email", "email already registered")
			return
		}
		response.Error(c, http.StatusInternalServerError, "persistence_failure", "could not create user")
		return
	}
	response.Created(c, userResponse{ID: u.ID, Email: u.Email, Created: u.CreatedAt})
}

func (h *Handler) login(c *gin.Context) {
	var dto LoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "invalid_body", err.Error())
		return
	}
	token, err := h.sessions.Login(c.Request.Context(), dto.Email, dto.Password, c.ClientIP())
	if err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			response.BadRequest(c, "invalid_credentials", "invalid email or password")
			return
		}
		if errors.Is(err, tokenstore.ErrUnavailable) || errors.Is(err, tokenstore.ErrTimeout) {
			code, message := middleware.RejectionCode(err)
			response.ServiceUnavailable(c, code, message)
			return
		}
		response.InternalError(c, "login failed")
		return
	}
	response.OK(c, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (h *Handler) logout(c *gin.Context) {
	var dto LogoutDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "invalid_body", err.Error())
		return
	}
	if _, err := h.sessions.Logout(c.Request.Context(), dto.Email); err != nil {
		code, message := middleware.RejectionCode(err)
		response.ServiceUnavailable(c, code, message)
		return
	}
	// Idempotent: logging out an absent session is still a success.
	response.OK(c, gin.H{"message": "logged out"})
}

func (h *Handler) protected(c *gin.Context) {
	identity := middleware.CurrentIdentity(c)
	response.OK(c, gin.H{
		"identity": identity,
		"message":  fmt.Sprintf("hello %s, your token is valid", identity),
	})
}
