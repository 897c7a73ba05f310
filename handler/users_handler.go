package handler

import (
	"log/slog"

	"skilltracker/dto"
	"skilltracker/usecase"
	"skilltracker/utils"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users  *usecase.UserService
	logger *slog.Logger
}

func NewUserHandler(users *usecase.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

func (h *UserHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, utils.BindingErrorMessage(err))
		return
	}

	user, err := h.users.Signup(c.Request.Context(), usecase.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.Created(c, "User registered successfully", dto.ToUserResponse(user, utils.GetBaseURL(c)))
}

// Login verifies credentials only; it does not start a session.
func (h *UserHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, utils.BindingErrorMessage(err))
		return
	}

	user, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessWithMessage(c, "Login successful", dto.ToUserResponse(user, utils.GetBaseURL(c)))
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, dto.ToUserResponses(users, utils.GetBaseURL(c)))
}

func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, dto.ToUserResponse(user, utils.GetBaseURL(c)))
}

func (h *UserHandler) Update(c *gin.Context) {
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, utils.BindingErrorMessage(err))
		return
	}

	user, err := h.users.Update(c.Request.Context(), c.Param("id"), usecase.UpdateInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessWithMessage(c, "User updated successfully", dto.ToUserResponse(user, utils.GetBaseURL(c)))
}

func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessWithMessage(c, "User deleted successfully", nil)
}
