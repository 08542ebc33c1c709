package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode"

	"finly/internal/models"
	"finly/internal/util"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	maxFailedLogins = 5
	lockDuration    = 10 * time.Minute
)

// AuthHandler serves registration and login.
type AuthHandler struct {
	DB         *gorm.DB
	JWTSecret  string
	Issuer     string
	TokenTTL   time.Duration
	BcryptCost int
}

func NewAuthHandler(db *gorm.DB, jwtSecret, issuer string, ttlHours, bcryptCost int) *AuthHandler {
	if ttlHours <= 0 {
		ttlHours = 24
	}
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthHandler{
		DB:         db,
		JWTSecret:  jwtSecret,
		Issuer:     issuer,
		TokenTTL:   time.Duration(ttlHours) * time.Hour,
		BcryptCost: bcryptCost,
	}
}

// ---------- register ----------

type registerReq struct {
	Email     string `json:"email" binding:"required,email"`
	Username  string `json:"username" binding:"required"`
	FirstName string `json:"first_name" binding:"max=150"`
	LastName  string `json:"last_name" binding:"max=150"`
	Password  string `json:"password" binding:"required"`
	Password2 string `json:"password2" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, "invalid parameters: email, username, password and password2 are required")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if n := len([]rune(req.Username)); n < 4 || n > 150 {
		util.BadRequest(c, "username must be 4 to 150 characters")
		return
	}
	if req.Password != req.Password2 {
		util.BadRequest(c, "password fields didn't match")
		return
	}
	if err := checkPasswordStrength(req.Password, req.Username); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	var count int64
	if err := h.DB.Model(&models.User{}).
		Where("LOWER(username) = LOWER(?)", req.Username).
		Count(&count).Error; err != nil {
		serverError(c, "check username", err)
		return
	}
	if count > 0 {
		util.BadRequest(c, "a user with that username already exists")
		return
	}
	if err := h.DB.Model(&models.User{}).
		Where("LOWER(email) = LOWER(?)", req.Email).
		Count(&count).Error; err != nil {
		serverError(c, "check email", err)
		return
	}
	if count > 0 {
		util.BadRequest(c, "a user with that email already exists")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.BcryptCost)
	if err != nil {
		serverError(c, "hash password", err)
		return
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		PasswordHash: string(hash),
	}
	if err := h.DB.Create(&user).Error; err != nil {
		serverError(c, "create user", err)
		return
	}

	util.Created(c, util.Response{
		"user": userResp(&user),
	})
}

// checkPasswordStrength requires 8-64 characters with upper case, lower case and a
// digit, and rejects passwords equal to the username.
func checkPasswordStrength(pwd, username string) error {
	if len(pwd) < 8 || len(pwd) > 64 {
		return errors.New("password must be 8 to 64 characters")
	}
	if strings.EqualFold(pwd, username) {
		return errors.New("password is too similar to the username")
	}
	var hasUpper, hasLower, hasDigit bool
	for _, ch := range pwd {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return errors.New("password needs upper case, lower case and a digit")
	}
	return nil
}

// ---------- login ----------

type loginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, "username and password are required")
		return
	}

	req.Username = strings.TrimSpace(req.Username)

	var user models.User
	if err := h.DB.Where("LOWER(username) = LOWER(?)", req.Username).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "invalid username or password")
		} else {
			serverError(c, "load user", err)
		}
		return
	}

	now := time.Now().UTC()

	if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "account locked, try again later")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		user.FailedLoginAttempts++
		if user.FailedLoginAttempts >= maxFailedLogins {
			lockUntil := now.Add(lockDuration)
			user.LockedUntil = &lockUntil
			user.FailedLoginAttempts = 0
		}
		if err := h.DB.Save(&user).Error; err != nil {
			serverError(c, "record failed login", err)
			return
		}
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "invalid username or password")
		return
	}

	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.LastLoginIP = c.ClientIP()
	user.LastLoginAt = &now
	if err := h.DB.Save(&user).Error; err != nil {
		serverError(c, "record login", err)
		return
	}

	token, err := util.GenerateToken(h.JWTSecret, h.Issuer, user.ID, h.TokenTTL)
	if err != nil {
		serverError(c, "sign token", err)
		return
	}

	util.Success(c, util.Response{
		"token":      token,
		"token_type": "Bearer",
		"expires_in": int(h.TokenTTL.Seconds()),
		"user":       userResp(&user),
	})
}
