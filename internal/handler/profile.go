package handler

import (
	"net/mail"
	"strings"

	"finly/internal/models"
	"finly/internal/util"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UpdateProfileReq updates the caller's names and email. Omitted fields are kept.
type UpdateProfileReq struct {
	FirstName *string `json:"first_name" binding:"omitempty,max=150"`
	LastName  *string `json:"last_name" binding:"omitempty,max=150"`
	Email     *string `json:"email" binding:"omitempty,max=254"`
}

// ChangePasswordReq changes the caller's password.
type ChangePasswordReq struct {
	OldPassword  string `json:"old_password" binding:"required"`
	NewPassword  string `json:"new_password" binding:"required"`
	NewPassword2 string `json:"new_password2" binding:"required"`
}

// UpdateProfile handles PUT /me/.
func UpdateProfile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		var req UpdateProfileReq
		if err := c.ShouldBindJSON(&req); err != nil {
			util.BadRequest(c, "invalid parameters")
			return
		}

		updates := map[string]interface{}{}
		if req.FirstName != nil {
			updates["first_name"] = strings.TrimSpace(*req.FirstName)
		}
		if req.LastName != nil {
			updates["last_name"] = strings.TrimSpace(*req.LastName)
		}
		if req.Email != nil {
			email := strings.TrimSpace(*req.Email)
			if _, err := mail.ParseAddress(email); err != nil {
				util.BadRequest(c, "enter a valid email address")
				return
			}
			var count int64
			if err := db.Model(&models.User{}).
				Where("LOWER(email) = LOWER(?) AND id <> ?", email, user.ID).
				Count(&count).Error; err != nil {
				serverError(c, "check email", err)
				return
			}
			if count > 0 {
				util.BadRequest(c, "a user with that email already exists")
				return
			}
			updates["email"] = email
		}

		if len(updates) > 0 {
			if err := db.Model(user).Updates(updates).Error; err != nil {
				serverError(c, "update profile", err)
				return
			}
		}

		util.Success(c, util.Response{
			"user": userResp(user),
		})
	}
}

// ChangePassword handles POST /me/password/.
func ChangePassword(db *gorm.DB, bcryptCost int) gin.HandlerFunc {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		var req ChangePasswordReq
		if err := c.ShouldBindJSON(&req); err != nil {
			util.BadRequest(c, "old_password, new_password and new_password2 are required")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
			util.BadRequest(c, "old password is wrong")
			return
		}
		if req.NewPassword != req.NewPassword2 {
			util.BadRequest(c, "password fields didn't match")
			return
		}
		if err := checkPasswordStrength(req.NewPassword, user.Username); err != nil {
			util.BadRequest(c, err.Error())
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcryptCost)
		if err != nil {
			serverError(c, "hash password", err)
			return
		}
		if err := db.Model(user).Update("password_hash", string(hash)).Error; err != nil {
			serverError(c, "update password", err)
			return
		}

		util.Success(c, util.Response{
			"message": "password changed, sign in again with the new password",
		})
	}
}
