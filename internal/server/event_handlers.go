package server

import (
	"io"
	"strconv"
	"strings"
	"time"

	"knowhere/internal/describe"
	"knowhere/internal/middleware"
	"knowhere/internal/models"
	"knowhere/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetEvents returns the filtered, status-sorted event listing.
//
//	GET /api/events?q=&category=&location=&status=&price_min=&price_max=
func (s *Server) GetEvents(c *fiber.Ctx) error {
	filter := parseEventFilter(c)
	views := s.eventService.ListEvents(c.UserContext(), filter, time.Now())
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"events": views,
		"count":  len(views),
	})
}

// GetEvent returns a single event with its derived status.
//
//	GET /api/events/:id
func (s *Server) GetEvent(c *fiber.Ctx) error {
	id, err := parseEventID(c)
	if err != nil {
		return nil
	}

	view, err := s.eventService.GetEvent(c.UserContext(), id, time.Now())
	if err != nil {
		return respondAppError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(view)
}

// GetEventStatus returns only the derived lifecycle status of an event.
//
//	GET /api/events/:id/status
func (s *Server) GetEventStatus(c *fiber.Ctx) error {
	id, err := parseEventID(c)
	if err != nil {
		return nil
	}

	view, err := s.eventService.GetEvent(c.UserContext(), id, time.Now())
	if err != nil {
		return respondAppError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"id":     view.ID,
		"status": view.Status,
	})
}

// GetEventCategories returns the fixed category list for form selects.
//
//	GET /api/events/categories
func (s *Server) GetEventCategories(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"categories": models.EventCategories,
	})
}

// CreateEvent creates a new event from a multipart form. The optional image
// part is validated, stored on disk, and inlined as a data URL.
//
//	POST /api/events  (admin)
func (s *Server) CreateEvent(c *fiber.Ctx) error {
	in := service.CreateEventInput{
		Title:       c.FormValue("title"),
		Category:    c.FormValue("category"),
		Location:    c.FormValue("location"),
		Organizer:   c.FormValue("organizer"),
		Date:        c.FormValue("date"),
		Time:        c.FormValue("time"),
		Description: c.FormValue("description"),
	}

	var err error
	if in.Hours, err = parseFormFloat(c, "hours"); err != nil {
		return respondAppError(c, err)
	}
	if in.Price, err = parseFormFloat(c, "price"); err != nil {
		return respondAppError(c, err)
	}
	if raw := c.FormValue("capacity"); raw != "" {
		capacity, convErr := strconv.Atoi(strings.TrimSpace(raw))
		if convErr != nil {
			return respondAppError(c,
				models.NewValidationError("Invalid capacity: "+raw))
		}
		in.Capacity = capacity
	} else {
		in.Capacity = 1
	}

	imageData, err := readImagePart(c)
	if err != nil {
		return respondAppError(c, err)
	}
	if len(imageData) > 0 {
		dataURL, encErr := s.imageService.EncodeDataURL(imageData)
		if encErr != nil {
			return respondAppError(c, encErr)
		}
		in.Image = dataURL

		if _, saveErr := s.imageService.SaveOriginal(imageData); saveErr != nil {
			// The inline copy is authoritative, so a failed disk write is
			// logged but does not fail the request.
			middleware.Logger.WarnContext(c.UserContext(), "event image disk write failed",
				"error", saveErr)
		}
	}

	if strings.TrimSpace(in.Description) == "" {
		in.Description = s.generateDescription(c, in)
	}

	event, err := s.eventService.CreateEvent(c.UserContext(), in)
	if err != nil {
		return respondAppError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(event)
}

// generateDescription fills a missing description from the tone form field.
// Generation trouble leaves the description empty; it is an optional field.
func (s *Server) generateDescription(c *fiber.Ctx, in service.CreateEventInput) string {
	tone, err := describe.ParseTone(c.FormValue("tone"))
	if err != nil {
		return ""
	}
	text, err := s.descGen.Describe(c.UserContext(), describe.Request{
		Title:    in.Title,
		Category: in.Category,
		Location: in.Location,
		Tone:     tone,
	})
	if err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "description generation failed",
			"error", err)
		return ""
	}
	return text
}

// DescribeEventRequest asks for a generated description before the event
// itself is submitted, mirroring the admin form's generate button.
type DescribeEventRequest struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Location string `json:"location"`
	Tone     string `json:"tone"`
	Context  string `json:"context"`
}

// DescribeEvent returns a generated event description in the requested tone.
//
//	POST /api/events/describe  (admin)
func (s *Server) DescribeEvent(c *fiber.Ctx) error {
	var req DescribeEventRequest
	if err := c.BodyParser(&req); err != nil {
		return respondAppError(c, models.NewValidationError("Invalid request body"))
	}

	tone, err := describe.ParseTone(req.Tone)
	if err != nil {
		return respondAppError(c, models.NewValidationError(err.Error()))
	}

	text, err := s.descGen.Describe(c.UserContext(), describe.Request{
		Title:    req.Title,
		Category: req.Category,
		Location: req.Location,
		Context:  req.Context,
		Tone:     tone,
	})
	if err != nil {
		return respondAppError(c, models.NewValidationError(err.Error()))
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"description": text,
		"tone":        string(tone),
	})
}

// DeleteEvent removes an event and clears its chat history.
//
//	DELETE /api/events/:id  (admin)
func (s *Server) DeleteEvent(c *fiber.Ctx) error {
	id, err := parseEventID(c)
	if err != nil {
		return nil
	}

	if err := s.eventService.DeleteEvent(c.UserContext(), id); err != nil {
		return respondAppError(c, err)
	}

	middleware.Logger.InfoContext(c.UserContext(), "event deleted", "event_id", id)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Event deleted",
		"id":      id,
	})
}

// ClearEvents removes every event.
//
//	DELETE /api/events  (admin)
func (s *Server) ClearEvents(c *fiber.Ctx) error {
	if err := s.eventService.ClearAll(c.UserContext()); err != nil {
		return respondAppError(c, err)
	}

	middleware.Logger.InfoContext(c.UserContext(), "all events cleared")

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "All events deleted",
	})
}

// parseFormFloat reads a numeric form field, defaulting to zero when absent.
func parseFormFloat(c *fiber.Ctx, field string) (float64, error) {
	raw := strings.TrimSpace(c.FormValue(field))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, models.NewValidationError("Invalid " + field + ": " + raw)
	}
	return v, nil
}

// readImagePart reads the optional "image" multipart file, enforcing the
// size cap before buffering the whole payload.
func readImagePart(c *fiber.Ctx) ([]byte, error) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		// Absent image part is fine
		return nil, nil
	}
	if fileHeader.Size > service.MaxImageBytes {
		return nil, models.NewValidationError("Image exceeds the 5 MiB limit")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return nil, models.NewValidationError("Unreadable image upload")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, service.MaxImageBytes+1))
	if err != nil {
		return nil, models.NewValidationError("Unreadable image upload")
	}
	if int64(len(data)) > service.MaxImageBytes {
		return nil, models.NewValidationError("Image exceeds the 5 MiB limit")
	}
	return data, nil
}
