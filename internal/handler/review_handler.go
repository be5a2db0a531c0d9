package handler

import (
	"io"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sefazor/events-backend/internal/middleware"
	"github.com/sefazor/events-backend/internal/models"
	"github.com/sefazor/events-backend/internal/service"
)

type ReviewHandler struct {
	reviewService *service.ReviewService
	logger        *zap.Logger
}

func NewReviewHandler(reviewService *service.ReviewService, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		logger:        logger,
	}
}

// CreateReview accepts JSON, or multipart with a text field and an optional
// file field.
func (h *ReviewHandler) CreateReview(c *fiber.Ctx) error {
	eventID, ok, err := paramID(c, "id")
	if !ok {
		return err
	}

	var req models.ReviewRequest
	attachment, err := h.parseReviewBody(c, func(text *string) { req.Text = *text }, &req)
	if err != nil {
		return invalidBody(c)
	}

	review, err := h.reviewService.CreateReview(c.UserContext(), middleware.Caller(c), eventID, req, attachment)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.SuccessResponse(h.reviewService.Response(review), "Review created successfully"))
}

func (h *ReviewHandler) ListReviews(c *fiber.Ctx) error {
	eventID, ok, err := paramID(c, "id")
	if !ok {
		return err
	}

	page, err := h.reviewService.ListReviews(c.UserContext(), eventID, pageRequest(c))
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(page, ""))
}

func (h *ReviewHandler) GetReview(c *fiber.Ctx) error {
	eventID, reviewID, ok, err := reviewParams(c)
	if !ok {
		return err
	}

	review, err := h.reviewService.GetReview(c.UserContext(), eventID, reviewID)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(h.reviewService.Response(review), ""))
}

func (h *ReviewHandler) UpdateReview(c *fiber.Ctx) error {
	eventID, reviewID, ok, err := reviewParams(c)
	if !ok {
		return err
	}

	var req models.UpdateReviewRequest
	attachment, err := h.parseReviewBody(c, func(text *string) { req.Text = text }, &req)
	if err != nil {
		return invalidBody(c)
	}

	review, err := h.reviewService.UpdateReview(c.UserContext(), middleware.Caller(c), eventID, reviewID, req, attachment)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(h.reviewService.Response(review), "Review updated successfully"))
}

func (h *ReviewHandler) DeleteReview(c *fiber.Ctx) error {
	eventID, reviewID, ok, err := reviewParams(c)
	if !ok {
		return err
	}

	if err := h.reviewService.DeleteReview(c.UserContext(), middleware.Caller(c), eventID, reviewID); err != nil {
		return writeError(c, h.logger, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// parseReviewBody reads a multipart form or falls back to parsing jsonDst.
// setText receives the text field when the form carries one.
func (h *ReviewHandler) parseReviewBody(c *fiber.Ctx, setText func(*string), jsonDst interface{}) (*models.Attachment, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil, parseBody(c, jsonDst)
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	if values, ok := form.Value["text"]; ok && len(values) > 0 {
		text := values[0]
		setText(&text)
	}
	if files := form.File["file"]; len(files) > 0 {
		return newAttachment(files[0]), nil
	}
	return nil, nil
}

func newAttachment(fh *multipart.FileHeader) *models.Attachment {
	return &models.Attachment{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Open: func() (io.ReadSeekCloser, error) {
			f, err := fh.Open()
			if err != nil {
				return nil, err
			}
			return f, nil
		},
	}
}

func reviewParams(c *fiber.Ctx) (uint, uint, bool, error) {
	eventID, ok, err := paramID(c, "id")
	if !ok {
		return 0, 0, false, err
	}
	reviewID, ok, err := paramID(c, "review_id")
	if !ok {
		return 0, 0, false, err
	}
	return eventID, reviewID, true, nil
}
