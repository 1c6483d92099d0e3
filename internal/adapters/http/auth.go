package http

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/shlomilevushh/mini-discord/internal/domain"
	"github.com/shlomilevushh/mini-discord/internal/store"
)

const sessionCookie = "session"

var (
	emailRe    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	hasLetter  = regexp.MustCompile(`[a-zA-Z]`)
	hasDigit   = regexp.MustCompile(`\d`)
	validAvatars = map[string]bool{
		"avatar1": true, "avatar2": true, "avatar3": true,
		"avatar4": true, "avatar5": true, "avatar6": true,
	}
)

func validatePassword(password string) string {
	if len(password) < 8 || len(password) > 16 {
		return "Password must be 8-16 characters long"
	}
	if !hasLetter.MatchString(password) {
		return "Password must contain at least 1 letter"
	}
	if !hasDigit.MatchString(password) {
		return "Password must contain at least 1 number"
	}
	return ""
}

func fail(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, gin.H{"success": false, "message": msg})
}

type registerRequest struct {
	Email    string `json:"email" form:"email" binding:"required"`
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
	Avatar   string `json:"avatar" form:"avatar" binding:"required"`
}

func (a *API) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		fail(c, "Missing registration fields!")
		return
	}
	if !emailRe.MatchString(req.Email) {
		fail(c, "Invalid email format!")
		return
	}
	if msg := validatePassword(req.Password); msg != "" {
		fail(c, msg)
		return
	}
	if !validAvatars[req.Avatar] {
		fail(c, "Invalid avatar selection!")
		return
	}
	if err := domain.ValidateUsername(req.Username); err != nil {
		fail(c, "Invalid username!")
		return
	}

	user, err := a.store.CreateUser(req.Email, req.Username, req.Password, req.Avatar)
	switch {
	case errors.Is(err, store.ErrEmailTaken):
		fail(c, "Email already exists!")
		return
	case errors.Is(err, store.ErrUsernameTaken):
		fail(c, "Username already taken!")
		return
	case err != nil:
		log.Error().Err(err).Str("module", "adapters.http").Msg("create user")
		fail(c, "Error creating account")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Account created successfully! Welcome, " + user.Username + "!",
	})
}

type loginRequest struct {
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

func (a *API) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		fail(c, "Missing credentials!")
		return
	}

	user, err := a.store.VerifyUser(req.Email, req.Password)
	if errors.Is(err, store.ErrInvalidCredentials) {
		fail(c, "Invalid email or password!")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("verify user")
		fail(c, "Error verifying user")
		return
	}

	token, err := a.tokens.Issue(user.ID)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("issue token")
		fail(c, "Error creating session")
		return
	}
	c.SetCookie(sessionCookie, token, int(a.cfg.SessionTTL.Seconds()), "/", "", false, true)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Welcome back, " + user.Username + "!",
		"user":    user,
		"session": token,
	})
}

func (a *API) handleLogout(c *gin.Context) {
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
	c.Redirect(http.StatusFound, "/")
}

// authRequired resolves the session token (cookie first, bearer header as a
// fallback) to a user and aborts with 401 otherwise.
func (a *API) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, _ := c.Cookie(sessionCookie)
		if raw == "" {
			if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
				raw = strings.TrimPrefix(h, "Bearer ")
			}
		}

		userID, err := a.tokens.Verify(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid or expired session"})
			return
		}
		user, err := a.store.UserByID(userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "User not found"})
			return
		}
		c.Set("user", user)
		c.Next()
	}
}

func currentUser(c *gin.Context) *domain.User {
	return c.MustGet("user").(*domain.User)
}

func (a *API) handleMe(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "user": currentUser(c)})
}
