package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/fashioncraft/app/models"
	"github.com/shashiranjanraj/fashioncraft/app/services"
	"github.com/shashiranjanraj/fashioncraft/pkg/ctx"
)

type AuthController struct {
	service *services.AuthService
}

func NewAuthController(service *services.AuthService) *AuthController {
	return &AuthController{service: service}
}

// Register creates a workshop account.
func (c *AuthController) Register(x *ctx.Context) {
	var body models.RegisterInput
	if !x.BindJSON(&body) {
		return
	}

	if _, err := c.service.Register(x.Context(), body); err != nil {
		x.Fail(err, "Error en servidor")
		return
	}
	x.Msg(http.StatusOK, "Usuario registrado con éxito")
}

// Login exchanges credentials for a token and the user's display block.
func (c *AuthController) Login(x *ctx.Context) {
	var body models.LoginInput
	if !x.BindJSON(&body) {
		return
	}

	result, err := c.service.Login(x.Context(), body)
	if err != nil {
		x.Fail(err, "Error en servidor")
		return
	}
	x.OK(result)
}

func (c *AuthController) Me(x *ctx.Context) {
	view, err := c.service.Me(x.Context(), x.AccountID())
	if err != nil {
		x.Fail(err, "Error en servidor")
		return
	}
	x.OK(view)
}
