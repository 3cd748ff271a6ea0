package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/roadboard/internal/services"
	appErrors "github.com/charlesng35/roadboard/pkg/errors"
	"github.com/charlesng35/roadboard/pkg/response"
)

type UserHandler struct {
	service *services.UserService
}

type createUserRequest struct {
	Name      string  `json:"name" validate:"required,max=100"`
	Username  string  `json:"username" validate:"required,min=3,max=30,username"`
	Email     string  `json:"email" validate:"required,email"`
	Phone     *string `json:"phone" validate:"omitempty,max=32"`
	AvatarURL *string `json:"avatarUrl" validate:"omitempty,url"`
}

type updateUserRequest struct {
	ID        string  `json:"id"`
	Name      *string `json:"name" validate:"omitempty,min=1,max=100"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Phone     *string `json:"phone" validate:"omitempty,max=32"`
	AvatarURL *string `json:"avatarUrl" validate:"omitempty,url"`
}

func NewUserHandler(service *services.UserService) (*UserHandler, error) {
	if service == nil {
		return nil, errors.New("user handler: service is required")
	}
	return &UserHandler{service: service}, nil
}

// GET /api/user
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.service.List(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, users)
}

// GET /api/user/:id
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.service.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// POST /api/user
func (h *UserHandler) Create(c *gin.Context) {
	var body createUserRequest
	if !bindAndValidate(c, &body) {
		return
	}

	user, err := h.service.Create(requestContext(c), services.CreateUserInput{
		Name:      strings.TrimSpace(body.Name),
		Username:  strings.TrimSpace(body.Username),
		Email:     strings.ToLower(strings.TrimSpace(body.Email)),
		Phone:     body.Phone,
		AvatarURL: body.AvatarURL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, user)
}

// PATCH /api/user/:id
func (h *UserHandler) Update(c *gin.Context) {
	var body updateUserRequest
	if !bindAndValidate(c, &body) {
		return
	}

	id := c.Param("id")
	if body.ID != "" && !strings.EqualFold(body.ID, id) {
		response.Error(c, appErrors.NewBadRequest("id in body does not match the URL"))
		return
	}

	user, err := h.service.Update(requestContext(c), id, services.UpdateUserInput{
		Name:      body.Name,
		Email:     body.Email,
		Phone:     body.Phone,
		AvatarURL: body.AvatarURL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// DELETE /api/user/:id
func (h *UserHandler) Delete(c *gin.Context) {
	user, err := h.service.Delete(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}
