package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"signmeup/internal/auth"
	"signmeup/internal/model"
	"signmeup/internal/service"
)

// EventHandler handles event endpoints.
type EventHandler struct {
	eventService service.EventService
}

// NewEventHandler creates a new event handler.
func NewEventHandler(eventService service.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

// CreateEventRequest represents an event creation request.
// Date accepts RFC 3339, "2006-01-02T15:04" or "2006-01-02".
type CreateEventRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Date        string `json:"date" validate:"required"`
	Location    string `json:"location"`
}

// UpdateEventRequest represents a partial event update. Omitted fields keep their value.
type UpdateEventRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Date        *string `json:"date"`
	Location    *string `json:"location"`
}

// UpdateEventResponse represents an event update response.
type UpdateEventResponse struct {
	Message string       `json:"message"`
	Event   *model.Event `json:"event"`
}

// ListEvents godoc
// @Summary List events
// @Description All events, soonest first.
// @Tags events
// @Produce json
// @Success 200 {array} model.Event
// @Failure 500 {object} errors.ErrorResponse
// @Router /events [get]
func (h *EventHandler) ListEvents(c echo.Context) error {
	events, err := h.eventService.ListEvents(c.Request().Context())
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, events)
}

// GetEvent godoc
// @Summary Get event by id
// @Description userSignedUp is true when the bearer of the optional token holds a signup.
// @Tags events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} model.EventDetail
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /events/{id} [get]
func (h *EventHandler) GetEvent(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	viewer, _ := auth.CurrentUser(c)
	event, err := h.eventService.GetEvent(c.Request().Context(), id, viewer)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, event)
}

// CreateEvent godoc
// @Summary Create event
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateEventRequest true "Event data"
// @Success 200 {object} model.Event
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /events [post]
func (h *EventHandler) CreateEvent(c echo.Context) error {
	var req CreateEventRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	event, err := h.eventService.CreateEvent(c.Request().Context(), service.EventInput{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Location:    req.Location,
	})
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, event)
}

// UpdateEvent godoc
// @Summary Update event
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param request body UpdateEventRequest true "Fields to change"
// @Success 200 {object} UpdateEventResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /events/{id} [put]
func (h *EventHandler) UpdateEvent(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req UpdateEventRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	event, err := h.eventService.UpdateEvent(c.Request().Context(), id, service.EventChanges{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Location:    req.Location,
	})
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, UpdateEventResponse{Message: "Event updated", Event: event})
}

// DeleteEvent godoc
// @Summary Delete event
// @Description Removes the event together with its signups.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /events/{id} [delete]
func (h *EventHandler) DeleteEvent(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.eventService.DeleteEvent(c.Request().Context(), id); err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Event deleted"})
}
