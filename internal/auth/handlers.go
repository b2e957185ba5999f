package auth

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/audioshelf/internal/domainerr"
	"github.com/mrlokans/audioshelf/internal/entities"
)

// AuthAuditor records login outcomes.
type AuthAuditor interface {
	LogAuth(userID uint, action string, ipAddr, userAgent string, success bool)
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthController serves the signup, login and logout endpoints.
type AuthController struct {
	service        *Service
	sessionManager *SessionManager
	limiter        *KeyedRateLimiter
	auditor        AuthAuditor
}

// NewAuthController creates a new authentication controller. limiter and
// auditor may be nil.
func NewAuthController(service *Service, sessionManager *SessionManager, limiter *KeyedRateLimiter, auditor AuthAuditor) *AuthController {
	return &AuthController{
		service:        service,
		sessionManager: sessionManager,
		limiter:        limiter,
		auditor:        auditor,
	}
}

// RegisterRoutes registers authentication routes on the api group.
func (ac *AuthController) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/signup", RateLimit(ac.limiter), ac.Signup)
	api.POST("/login", RateLimit(ac.limiter), ac.Login)
	api.POST("/logout", ac.Logout)
	api.GET("/me", RequireAuth(), ac.Me)
	api.GET("/csrf", ac.CSRFToken)
}

// Signup creates an account and logs it in.
func (ac *AuthController) Signup(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := ac.service.Signup(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	ac.audit(c, user.ID, "signup", true)

	if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
		log.Printf("[auth] failed to create session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}
	c.JSON(http.StatusCreated, userResponse(user))
}

// Login checks credentials and starts a session.
func (ac *AuthController) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := ac.service.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domainerr.ErrUnauthorized) {
			ac.audit(c, 0, "login", false)
		}
		writeError(c, err)
		return
	}
	if ac.limiter != nil {
		ac.limiter.Reset(c.ClientIP())
	}
	ac.audit(c, user.ID, "login", true)

	if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
		log.Printf("[auth] failed to create session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}
	c.JSON(http.StatusOK, userResponse(user))
}

// Logout destroys the session. It succeeds for anonymous requests too.
func (ac *AuthController) Logout(c *gin.Context) {
	if userID := ac.sessionManager.GetUserID(c.Request); userID != 0 {
		ac.audit(c, userID, "logout", true)
	}
	if err := ac.sessionManager.DestroySession(c.Request); err != nil {
		log.Printf("[auth] failed to destroy session: %v", err)
	}
	c.Status(http.StatusNoContent)
}

// Me returns the logged-in user.
func (ac *AuthController) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"id":       GetUserID(c),
		"username": GetUsername(c),
		"is_admin": IsAdmin(c),
	})
}

// CSRFToken hands the current CSRF token to API clients.
func (ac *AuthController) CSRFToken(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"token": GetCSRFToken(c)})
}

func (ac *AuthController) audit(c *gin.Context, userID uint, action string, success bool) {
	if ac.auditor == nil {
		return
	}
	ac.auditor.LogAuth(userID, action, c.ClientIP(), c.Request.UserAgent(), success)
}

func userResponse(user *entities.User) gin.H {
	return gin.H{
		"id":       user.ID,
		"username": user.Username,
		"is_admin": user.IsAdmin,
	}
}

func writeError(c *gin.Context, err error) {
	var de *domainerr.Error
	if errors.As(err, &de) && de.Kind != domainerr.KindInternal {
		c.JSON(de.Kind.HTTPStatus(), gin.H{"error": de.Message, "code": de.Kind, "details": de.Details})
		return
	}
	log.Printf("[auth] internal error: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": domainerr.KindInternal})
}
