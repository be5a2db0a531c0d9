package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sefazor/events-backend/internal/middleware"
	"github.com/sefazor/events-backend/internal/models"
	"github.com/sefazor/events-backend/internal/service"
	"github.com/sefazor/events-backend/pkg/qrcode"
)

type EventHandler struct {
	eventService        *service.EventService
	registrationService *service.RegistrationService
	qr                  *qrcode.QRService
	logger              *zap.Logger
}

func NewEventHandler(
	eventService *service.EventService,
	registrationService *service.RegistrationService,
	qr *qrcode.QRService,
	logger *zap.Logger,
) *EventHandler {
	return &EventHandler{
		eventService:        eventService,
		registrationService: registrationService,
		qr:                  qr,
		logger:              logger,
	}
}

func (h *EventHandler) CreateEvent(c *fiber.Ctx) error {
	var req models.EventRequest
	if err := parseBody(c, &req); err != nil {
		return invalidBody(c)
	}

	event, err := h.eventService.CreateEvent(c.UserContext(), middleware.Caller(c), req)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(models.SuccessResponse(models.NewEventResponse(event), "Event created successfully"))
}

func (h *EventHandler) ListEvents(c *fiber.Ctx) error {
	page, err := h.eventService.ListEvents(c.UserContext(), pageRequest(c))
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(page, ""))
}

// GetEvent includes the participants field only for the owning moderator.
func (h *EventHandler) GetEvent(c *fiber.Ctx) error {
	id, ok, err := paramID(c, "id")
	if !ok {
		return err
	}

	detail, err := h.eventService.GetEvent(c.UserContext(), middleware.Caller(c), id)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(detail.Response(), ""))
}

func (h *EventHandler) UpdateEvent(c *fiber.Ctx) error {
	id, ok, err := paramID(c, "id")
	if !ok {
		return err
	}

	var req models.UpdateEventRequest
	if err := parseBody(c, &req); err != nil {
		return invalidBody(c)
	}

	event, err := h.eventService.UpdateEvent(c.UserContext(), middleware.Caller(c), id, req)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(models.NewEventResponse(event), "Event updated successfully"))
}

func (h *EventHandler) DeleteEvent(c *fiber.Ctx) error {
	id, ok, err := paramID(c, "id")
	if !ok {
		return err
	}

	if err := h.eventService.DeleteEvent(c.UserContext(), middleware.Caller(c), id); err != nil {
		return writeError(c, h.logger, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ToggleRegistration registers the caller, or withdraws them if already registered.
func (h *EventHandler) ToggleRegistration(c *fiber.Ctx) error {
	id, ok, err := paramID(c, "id")
	if !ok {
		return err
	}

	status, err := h.registrationService.Toggle(c.UserContext(), middleware.Caller(c), id)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(models.RegistrationResponse{Status: status}, string(status)))
}

func (h *EventHandler) MyEvents(c *fiber.Ctx) error {
	events, err := h.eventService.MyEvents(c.UserContext(), middleware.Caller(c))
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(events, ""))
}

// QRCode returns a PNG share code for the event page. ?size= sets the edge in pixels.
func (h *EventHandler) QRCode(c *fiber.Ctx) error {
	id, ok, err := paramID(c, "id")
	if !ok {
		return err
	}

	detail, err := h.eventService.GetEvent(c.UserContext(), middleware.Caller(c), id)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	png, err := h.qr.GenerateEventQRCode(detail.Event.ID, c.QueryInt("size", qrcode.DefaultSize))
	if err != nil {
		return writeError(c, h.logger, err)
	}

	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
	return c.Send(png)
}
