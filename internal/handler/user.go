package handler

import (
	"finly/internal/models"
	"finly/internal/util"

	"github.com/gin-gonic/gin"
)

func userResp(u *models.User) gin.H {
	return gin.H{
		"id":         u.ID,
		"username":   u.Username,
		"email":      u.Email,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
	}
}

// GetMe returns the authenticated user.
func GetMe(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	resp := userResp(user)
	resp["created_at"] = user.CreatedAt
	resp["last_login_at"] = user.LastLoginAt
	util.Success(c, util.Response{
		"user": resp,
	})
}

// ListUsers only ever lists the caller; other accounts are not visible.
func ListUsers(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	util.Success(c, util.Response{
		"items": []gin.H{userResp(user)},
		"count": 1,
	})
}

// GetUser answers for the caller's own id and 404 for everyone else.
func GetUser(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if id != user.ID {
		util.NotFound(c, "user not found")
		return
	}
	util.Success(c, util.Response{
		"user": userResp(user),
	})
}
