package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/cogload-backend/services"
)

type AuthController struct {
	auth       *services.AuthService
	writeError func(c *gin.Context, err error)
}

func NewAuthController(auth *services.AuthService, writeError func(c *gin.Context, err error)) *AuthController {
	return &AuthController{auth: auth, writeError: writeError}
}

func (ac *AuthController) Register(c *gin.Context) {
	var input services.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		ac.writeError(c, bindError(err))
		return
	}
	user, err := ac.auth.Register(c.Request.Context(), input)
	if err != nil {
		ac.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "registration successful", "user": user})
}

type loginInput struct {
	// Username or email.
	Username string `json:"username"`
	Password string `json:"password"`
}

func (ac *AuthController) Login(c *gin.Context) {
	var input loginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		ac.writeError(c, bindError(err))
		return
	}
	res, err := ac.auth.Login(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		ac.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
