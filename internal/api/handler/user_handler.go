package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/usermgmt/user-service/internal/api/metrics"
	"github.com/usermgmt/user-service/internal/core/domain"
	"github.com/usermgmt/user-service/internal/core/ports"
)

// UserHandler serves /api/users.
type UserHandler struct {
	users ports.UserService
	log   zerolog.Logger
}

func NewUserHandler(users ports.UserService, log zerolog.Logger) *UserHandler {
	return &UserHandler{users: users, log: log}
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=3,max=100"`
	Email    string `json:"email" validate:"required,email,max=100"`
	RoleName string `json:"roleName" validate:"required"`
}

type updateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email,max=100"`
}

// Register creates a new user account.
//
// @Summary      Register a new user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  envelope{data=userResponse}
// @Failure      400   {object}  envelope
// @Failure      500   {object}  envelope
// @Router       /api/users/register [post]
func (h *UserHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return h.fail(c, echo.NewHTTPError(http.StatusBadRequest, "invalid payload"), "")
	}
	if err := c.Validate(&req); err != nil {
		return h.fail(c, err, "")
	}

	user, err := h.users.RegisterUser(c.Request().Context(), ports.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Role:     req.RoleName,
	})
	if err != nil {
		return h.fail(c, err, "User registration failed")
	}

	metrics.UsersRegisteredTotal.Inc()
	return c.JSON(http.StatusCreated, envelope{
		Status:  statusSuccess,
		Message: "User registered successfully",
		Data:    toUserResponse(user),
	})
}

// GetAll lists users. Without page or limit the whole collection is returned;
// with either one, a single page plus pagination metadata.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "1-based page number"
// @Param        limit  query     int  false  "Page size (default 20, max 100)"
// @Success      200    {object}  envelope
// @Failure      400    {object}  envelope
// @Failure      401    {object}  envelope
// @Failure      500    {object}  envelope
// @Router       /api/users [get]
func (h *UserHandler) GetAll(c echo.Context) error {
	ctx := c.Request().Context()

	if c.QueryParam("page") == "" && c.QueryParam("limit") == "" {
		users, err := h.users.GetAllUsers(ctx)
		if err != nil {
			return h.fail(c, err, "Failed to fetch users")
		}
		return c.JSON(http.StatusOK, envelope{
			Status:  statusSuccess,
			Message: "Users retrieved successfully",
			Data:    toUserResponses(users),
		})
	}

	var page, limit int
	if err := echo.QueryParamsBinder(c).
		Int("page", &page).
		Int("limit", &limit).
		BindError(); err != nil {
		return h.fail(c, echo.NewHTTPError(http.StatusBadRequest, "page and limit must be integers"), "")
	}
	if page < 0 || limit < 0 {
		return h.fail(c, echo.NewHTTPError(http.StatusBadRequest, "page and limit must not be negative"), "")
	}

	result, err := h.users.ListUsers(ctx, ports.ListInput{Page: page, Limit: limit})
	if err != nil {
		return h.fail(c, err, "Failed to fetch users")
	}
	return c.JSON(http.StatusOK, envelope{
		Status:  statusSuccess,
		Message: "Users retrieved successfully",
		Data:    toUserPageResponse(result),
	})
}

// Get returns one user.
//
// @Summary      Get a user by id
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  envelope{data=userResponse}
// @Failure      401  {object}  envelope
// @Failure      404  {object}  envelope
// @Failure      500  {object}  envelope
// @Router       /api/users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	user, err := h.users.FindUserByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err, "Failed to fetch user")
	}
	return c.JSON(http.StatusOK, envelope{
		Status:  statusSuccess,
		Message: "User retrieved successfully",
		Data:    toUserResponse(user),
	})
}

// Update changes a user's username and email.
//
// @Summary      Update a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User id"
// @Param        body  body      updateUserRequest  true  "New username and email"
// @Success      200   {object}  envelope{data=userResponse}
// @Failure      400   {object}  envelope
// @Failure      401   {object}  envelope
// @Failure      404   {object}  envelope
// @Failure      500   {object}  envelope
// @Router       /api/users/{id} [put]
func (h *UserHandler) Update(c echo.Context) error {
	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return h.fail(c, echo.NewHTTPError(http.StatusBadRequest, "invalid payload"), "")
	}
	if err := c.Validate(&req); err != nil {
		return h.fail(c, err, "")
	}

	user, err := h.users.UpdateUser(c.Request().Context(), c.Param("id"), ports.UpdateInput{
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		return h.fail(c, err, "User update failed")
	}
	return c.JSON(http.StatusOK, envelope{
		Status:  statusSuccess,
		Message: "User updated successfully",
		Data:    toUserResponse(user),
	})
}

// Delete removes a user permanently.
//
// @Summary      Delete a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  envelope{data=string}
// @Failure      401  {object}  envelope
// @Failure      404  {object}  envelope{data=string}
// @Failure      500  {object}  envelope
// @Router       /api/users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	id := c.Param("id")

	if err := h.users.DeleteUserByID(c.Request().Context(), id); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, envelope{
				Status:  statusError,
				Message: "User not found",
				Data:    "User with ID: " + id + " not found.",
			})
		}
		return h.fail(c, err, "Failed to delete user")
	}

	metrics.UsersDeletedTotal.Inc()
	return c.JSON(http.StatusOK, envelope{
		Status:  statusSuccess,
		Message: "User deleted successfully",
		Data:    "User with ID: " + id + " has been deleted.",
	})
}

// fail renders err inside the envelope. Unexpected errors are logged and
// replaced by fallback.
func (h *UserHandler) fail(c echo.Context, err error, fallback string) error {
	code, msg, known := Classify(err)
	if !known {
		h.log.Error().
			Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("request failed")
		if fallback != "" {
			msg = fallback
		}
	}
	return c.JSON(code, envelope{Status: statusError, Message: msg})
}
