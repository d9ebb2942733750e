package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"artemis/internal/config"
	"artemis/internal/domain/models"
	"artemis/internal/lib/logger/sl"
	"artemis/internal/lib/ratelimiter"
	"artemis/internal/services/auth"
	"artemis/internal/services/authz"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

type SignUpRequest struct {
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r SignUpRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserName, validation.Required, validation.Length(4, 100)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
	)
}

type SignInRequest struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
	EndType  string `json:"endType"`
}

func (r SignInRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserName, validation.Required, validation.Length(4, 100)),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&r.EndType, validation.Required, validation.In(
			string(models.EndTypeWeb),
			string(models.EndTypeApp),
			string(models.EndTypeWeChat),
			string(models.EndTypeMiniProgram),
		)),
	)
}

type Handlers struct {
	log     *slog.Logger
	cfg     *config.Config
	auth    *auth.Auth
	limiter *ratelimiter.RateLimiter
}

func NewHandlers(log *slog.Logger, cfg *config.Config, authService *auth.Auth, limiter *ratelimiter.RateLimiter) *Handlers {
	return &Handlers{log: log, cfg: cfg, auth: authService, limiter: limiter}
}

func (h *Handlers) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, authz.Denied("malformed request body"))
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusOK, authz.Denied(err.Error()))
		return
	}

	token, err := h.auth.SignUp(c.Request.Context(), req.UserName, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			c.JSON(http.StatusOK, authz.Denied("user already exists"))
			return
		}
		h.log.Error("sign-up failed", sl.Err(err))
		c.JSON(http.StatusOK, authz.Denied("internal error"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "token": token})
}

func (h *Handlers) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, authz.Denied("malformed request body"))
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusOK, authz.Denied(err.Error()))
		return
	}

	if h.limiter != nil {
		clientKey := c.ClientIP()
		if h.limiter.IsBlocked(c.Request.Context(), clientKey) {
			c.JSON(http.StatusOK, authz.Denied("too many failed attempts"))
			return
		}
	}

	token, err := h.auth.SignIn(c.Request.Context(), req.UserName, req.Password, models.EndType(req.EndType))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrUserNotFound) {
			if h.limiter != nil {
				if lerr := h.limiter.CheckAndIncrementAttempts(c.Request.Context(), c.ClientIP()); lerr != nil {
					h.log.Warn("sign-in attempt limit", sl.Err(lerr))
				}
			}
			c.JSON(http.StatusOK, authz.Denied("invalid credentials"))
			return
		}
		h.log.Error("sign-in failed", sl.Err(err))
		c.JSON(http.StatusOK, authz.Denied("internal error"))
		return
	}

	if h.limiter != nil {
		if err := h.limiter.ResetAttempts(c.Request.Context(), c.ClientIP()); err != nil {
			h.log.Warn("failed to reset attempts", sl.Err(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "token": token})
}

// SignOut invalidates the presented token. Runs behind the Token policy, so
// the header has already authenticated; the service call re-resolves it to
// remove the record and disown the user-map entry.
func (h *Handlers) SignOut(c *gin.Context) {
	principal := PrincipalOf(c)

	done, err := h.auth.SignOut(c.Request.Context(), principal.Token)
	if err != nil {
		c.JSON(http.StatusOK, authz.Denied(err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": done})
}

// Me echoes the authenticated principal, mainly for client debugging.
func (h *Handlers) Me(c *gin.Context) {
	principal := PrincipalOf(c)

	claims := make([]gin.H, 0, len(principal.Claims))
	for _, claim := range principal.Claims {
		claims = append(claims, gin.H{"type": claim.Type, "value": claim.Value})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"userId":   principal.UserID.String(),
		"userName": principal.UserName,
		"endType":  principal.EndType,
		"claims":   claims,
	})
}
