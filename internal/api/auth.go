package api

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/medinfo/backend/internal/middleware"
	"github.com/medinfo/backend/internal/service"
)

// AuthHandler serves signup, login, logout and password reset.
type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type signupRequest struct {
	Name            string `json:"name" form:"name"`
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

// validate returns every problem with the submission, not just the first.
func (r *signupRequest) validate() []string {
	var problems []string

	name := strings.TrimSpace(r.Name)
	if len(name) < 2 || len(name) > 100 {
		problems = append(problems, "Name must be between 2 and 100 characters")
	}
	if !strings.Contains(r.Email, "@") {
		problems = append(problems, "Please enter a valid email address")
	}
	if len(r.Password) < 8 {
		problems = append(problems, "Password must be at least 8 characters")
	}
	if r.Password != r.ConfirmPassword {
		problems = append(problems, "Passwords do not match")
	}
	return problems
}

// Signup handles POST /signup.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"Invalid request"}})
		return
	}

	if problems := req.validate(); len(problems) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": problems})
		return
	}

	user, err := h.auth.Register(strings.TrimSpace(req.Name), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"errors": []string{"Email is already registered"}})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"errors": []string{"Failed to create account"}})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created successfully",
		"user": gin.H{
			"id":    user.ID,
			"name":  user.FullName,
			"email": user.Email,
		},
	})
}

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Login handles POST /login. Failures are reported identically whether the
// email is unknown or the password is wrong.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user, err := h.auth.Login(req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := h.auth.GenerateToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	// HTTP-only session cookie for browser clients; the token is also
	// returned for API clients that prefer a Bearer header.
	c.SetCookie(middleware.SessionCookieName, token, 24*60*60, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"message": "Logged in successfully",
		"token":   token,
		"user": gin.H{
			"id":    user.ID,
			"name":  user.FullName,
			"email": user.Email,
		},
	})
}

// Logout handles POST /logout by expiring the session cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Status handles GET /api/auth/status: a cheap logged-in probe for the
// frontend.
func (h *AuthHandler) Status(c *gin.Context) {
	email := middleware.UserEmail(c)
	if email == "" {
		c.JSON(http.StatusOK, gin.H{"logged_in": false})
		return
	}
	name, _ := c.Get(middleware.ContextUserName)
	c.JSON(http.StatusOK, gin.H{
		"logged_in": true,
		"email":     email,
		"name":      name,
	})
}

// CheckEmail handles GET/POST /api/auth/check-email for live availability
// checks on the signup form.
func (h *AuthHandler) CheckEmail(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		var body struct {
			Email string `json:"email" form:"email"`
		}
		if err := c.ShouldBind(&body); err == nil {
			email = body.Email
		}
	}
	if !strings.Contains(email, "@") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please enter a valid email address"})
		return
	}

	taken, err := h.auth.EmailTaken(email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check email"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": !taken})
}

// ForgotPassword handles POST /forgot_password. The response does not reveal
// whether the email has an account.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" form:"email"`
	}
	if err := c.ShouldBind(&req); err != nil || req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email is required"})
		return
	}

	token, err := h.auth.CreateResetToken(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process request"})
		return
	}

	if token != "" {
		// Mail delivery is not wired up; the link is logged so an operator
		// can hand it to the user. The HTTP response must not reveal whether
		// the account exists.
		log.Printf("[auth] password reset link issued: /set_new_password/%s", token)
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "If an account exists for that email, a reset link has been sent",
	})
}

// ResetPasswordPage handles GET /set_new_password/:token. It validates the
// token without consuming it so the form can render an early error.
func (h *AuthHandler) ResetPasswordPage(c *gin.Context) {
	token := c.Param("token")

	if _, err := h.auth.ValidateResetToken(c.Request.Context(), token); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invalid or expired reset link"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

// ResetPassword handles POST /set_new_password/:token. The token is consumed
// on success; replaying it fails.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	token := c.Param("token")

	var req struct {
		Password        string `json:"password" form:"password"`
		ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
	}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if len(req.Password) < 8 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 8 characters"})
		return
	}
	if req.Password != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Passwords do not match"})
		return
	}

	if err := h.auth.ResetPassword(c.Request.Context(), token, req.Password); err != nil {
		if errors.Is(err, service.ErrInvalidResetToken) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Invalid or expired reset link"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated, please log in"})
}
