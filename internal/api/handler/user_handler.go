package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eparriel/pfe-backend/internal/api/metrics"
	"github.com/eparriel/pfe-backend/internal/core/ports"
)

// UserHandler serves account self-service and admin operations.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// Get handles GET /users/:id.
//
// @Summary      Get a user profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  domain.Profile
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	profile, err := h.service.Get(c.Request().Context(), id, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

// Update handles PUT /users/:id. Only the owner of the account may update it.
//
// @Summary      Update a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                true  "User ID"
// @Param        body  body      updateUserRequest  true  "Fields to change"
// @Success      200   {object}  domain.Profile
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /users/{id} [put]
func (h *UserHandler) Update(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	return h.update(c, id, p.ID)
}

// UpdateProfile handles PUT /users/profile.
//
// @Summary      Update own profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateUserRequest  true  "Fields to change"
// @Success      200   {object}  domain.Profile
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /users/profile [put]
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	return h.update(c, p.ID, p.ID)
}

// Remove handles DELETE /users/:id. Mounted behind the admin guard.
//
// @Summary      Delete a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /users/{id} [delete]
func (h *UserHandler) Remove(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	return h.remove(c, id, id, true)
}

// RemoveProfile handles DELETE /users/profile.
//
// @Summary      Delete own account
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /users/profile [delete]
func (h *UserHandler) RemoveProfile(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	return h.remove(c, p.ID, p.ID, false)
}

func (h *UserHandler) update(c echo.Context, targetID, callerID int64) error {
	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	profile, err := h.service.Update(c.Request().Context(), targetID, toUpdateInput(req), callerID)
	if err != nil {
		return err
	}

	metrics.AccountChangesTotal.WithLabelValues("update").Inc()
	return c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) remove(c echo.Context, targetID, callerID int64, isAdmin bool) error {
	msg, err := h.service.Remove(c.Request().Context(), targetID, callerID, isAdmin)
	if err != nil {
		return err
	}

	metrics.AccountChangesTotal.WithLabelValues("delete").Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: msg})
}

// toUpdateInput maps the HTTP request to the service DTO.
func toUpdateInput(r updateUserRequest) ports.UpdateUserInput {
	return ports.UpdateUserInput{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Password:  r.Password,
	}
}
