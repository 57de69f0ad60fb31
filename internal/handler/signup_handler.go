package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"signmeup/internal/model"
	"signmeup/internal/service"
)

// SignupHandler handles signup endpoints.
type SignupHandler struct {
	signupService service.SignupService
}

// NewSignupHandler creates a new signup handler.
func NewSignupHandler(signupService service.SignupService) *SignupHandler {
	return &SignupHandler{signupService: signupService}
}

// SignupResponse represents a signup response.
type SignupResponse struct {
	Message string        `json:"message"`
	Signup  *model.Signup `json:"signup"`
}

// SignUp godoc
// @Summary Sign up for an event
// @Tags signups
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} SignupResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /events/{id}/signup [post]
func (h *SignupHandler) SignUp(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	eventID, err := pathID(c)
	if err != nil {
		return err
	}

	signup, err := h.signupService.SignUp(c.Request().Context(), user, eventID)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, SignupResponse{Message: "Signup successful", Signup: signup})
}

// Cancel godoc
// @Summary Cancel a signup
// @Tags signups
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /events/{id}/signup [delete]
func (h *SignupHandler) Cancel(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	eventID, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.signupService.Cancel(c.Request().Context(), user, eventID); err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Signup canceled"})
}

// MySignups godoc
// @Summary Events the caller signed up for
// @Description Most recent signup first.
// @Tags signups
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Event
// @Failure 401 {object} errors.ErrorResponse
// @Router /events/my-signups [get]
func (h *SignupHandler) MySignups(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	events, err := h.signupService.ListForUser(c.Request().Context(), user.ID)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, events)
}

// EventSignups godoc
// @Summary Signups for an event
// @Description Oldest signup first, each with the user's id, name and email.
// @Tags signups
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {array} model.Signup
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /events/{id}/signups [get]
func (h *SignupHandler) EventSignups(c echo.Context) error {
	eventID, err := pathID(c)
	if err != nil {
		return err
	}

	signups, err := h.signupService.ListForEvent(c.Request().Context(), eventID)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, signups)
}
