package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Tharoon321/worldpeace-api/events"
	"github.com/Tharoon321/worldpeace-api/metrics"
	"github.com/Tharoon321/worldpeace-api/middleware"
	"github.com/Tharoon321/worldpeace-api/models"
	"github.com/Tharoon321/worldpeace-api/store"
	"github.com/Tharoon321/worldpeace-api/utils"
)

// RegisterInput request body for registration
type RegisterInput struct {
	Name      string   `json:"name" binding:"required,min=2,max=50"`
	Email     string   `json:"email" binding:"required,email"`
	Password  string   `json:"password" binding:"required,min=6"`
	Country   string   `json:"country" binding:"required"`
	Interests []string `json:"interests" binding:"omitempty,dive,oneof=education dialogue environment humanitarian cultural justice"`
}

// LoginInput request body for login
type LoginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ForgotPasswordInput
type ForgotPasswordInput struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordInput
type ResetPasswordInput struct {
	Email       string `json:"email" binding:"required,email"`
	OTP         string `json:"otp" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user account and signs the user in.
func (h *Handler) Register(c *gin.Context) {
	var input RegisterInput
	if !bindJSON(c, &input) {
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	email := normalizeEmail(input.Email)
	_, err := h.store.UserByEmail(ctx, email)
	if err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User already exists"})
		return
	}
	if !errors.Is(err, store.ErrNotFound) {
		h.internalError(c, err, "register: lookup email")
		return
	}

	hash, err := utils.HashPassword(input.Password, h.opts.BcryptCost)
	if err != nil {
		h.internalError(c, err, "register: hash password")
		return
	}

	interests := input.Interests
	if interests == nil {
		interests = []string{}
	}
	user := models.User{
		Name:      strings.TrimSpace(input.Name),
		Email:     email,
		Password:  hash,
		Role:      models.RoleUser,
		Country:   strings.TrimSpace(input.Country),
		Interests: interests,
		IsActive:  true,
		JoinedAt:  h.now().UTC(),
	}
	if err := h.store.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "User already exists"})
			return
		}
		h.internalError(c, err, "register: insert user")
		return
	}

	token, err := h.tokens.GenerateJWT(user.ID.Hex(), user.Role)
	if err != nil {
		h.internalError(c, err, "register: generate token")
		return
	}

	metrics.RecordRegistration()
	h.emit(ctx, events.UserRegistered, user.ID.Hex(), gin.H{
		"userId":    user.ID.Hex(),
		"country":   user.Country,
		"interests": user.Interests,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"token":   token,
		"user":    user.Profile(false),
	})
}

// Login authenticates by email and password and returns a fresh token.
func (h *Handler) Login(c *gin.Context) {
	var input LoginInput
	if !bindJSON(c, &input) {
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	user, err := h.store.UserByEmail(ctx, normalizeEmail(input.Email))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.internalError(c, err, "login: lookup email")
		return
	}
	if err != nil || !user.IsActive {
		h.log.WithField("email", input.Email).Debug("login: unknown or inactive user")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if err := utils.CheckPassword(user.Password, input.Password); err != nil {
		h.log.WithField("user_id", user.ID.Hex()).Debug("login: password mismatch")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if err := h.store.TouchLastLogin(ctx, user.ID, h.now().UTC()); err != nil {
		h.internalError(c, err, "login: update last login")
		return
	}

	token, err := h.tokens.GenerateJWT(user.ID.Hex(), user.Role)
	if err != nil {
		h.internalError(c, err, "login: generate token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    user.Profile(false),
	})
}

// Me returns the authenticated user.
func (h *Handler) Me(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, gin.H{"user": user.Profile(true)})
}

const otpDigits = 6

// ForgotPassword stores a hashed one-time code and mails it. The response
// never reveals whether the email is registered.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var input ForgotPasswordInput
	if !bindJSON(c, &input) {
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	generic := gin.H{"message": "If that email exists, an OTP has been sent"}

	user, err := h.store.UserByEmail(ctx, normalizeEmail(input.Email))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusOK, generic)
		return
	}
	if err != nil {
		h.internalError(c, err, "forgot password: lookup email")
		return
	}

	otp, err := utils.GenerateOTP(otpDigits)
	if err != nil {
		h.internalError(c, err, "forgot password: generate otp")
		return
	}
	hashedOTP, err := utils.HashPassword(otp, h.opts.BcryptCost)
	if err != nil {
		h.internalError(c, err, "forgot password: hash otp")
		return
	}

	if err := h.store.SetResetOTP(ctx, user.ID, hashedOTP, h.now().Add(h.opts.OTPTTL)); err != nil {
		h.internalError(c, err, "forgot password: store otp")
		return
	}

	minutes := strconv.Itoa(int(h.opts.OTPTTL.Minutes()))
	subject := "Your password reset OTP"
	body := "Your OTP is: " + otp + "\nThis code expires in " + minutes + " minutes."

	entry := h.log.WithField("user_id", user.ID.Hex())
	if h.mailer == nil {
		entry.WithField("otp", otp).Debug("forgot password: no mailer configured")
	} else if err := h.mailer.SendMail(user.Email, subject, body); err != nil {
		entry.WithError(err).Warn("forgot password: send mail")
	} else {
		entry.Info("sent OTP email")
	}

	c.JSON(http.StatusOK, generic)
}

// ResetPassword verifies the one-time code and sets a new password.
func (h *Handler) ResetPassword(c *gin.Context) {
	var input ResetPasswordInput
	if !bindJSON(c, &input) {
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	user, err := h.store.UserByEmail(ctx, normalizeEmail(input.Email))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid OTP or email"})
		return
	}
	if err != nil {
		h.internalError(c, err, "reset password: lookup email")
		return
	}

	if user.ResetOTP == "" || user.ResetOTPExp.Before(h.now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired OTP"})
		return
	}
	if err := utils.CheckPassword(user.ResetOTP, input.OTP); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid OTP"})
		return
	}

	newHash, err := utils.HashPassword(input.NewPassword, h.opts.BcryptCost)
	if err != nil {
		h.internalError(c, err, "reset password: hash password")
		return
	}
	if err := h.store.ResetPassword(ctx, user.ID, newHash); err != nil {
		h.internalError(c, err, "reset password: update user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset successful"})
}
