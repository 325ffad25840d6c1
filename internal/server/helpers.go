package server

import (
	"strconv"
	"strings"

	"knowhere/internal/models"
	"knowhere/internal/observability"
	"knowhere/internal/service"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten signals that the handler already wrote an error response
// and the caller should just return nil up the chain.
var errResponseWritten = fiber.NewError(fiber.StatusTeapot, "response already written")

// parseEventID reads and validates the :id route parameter. On failure it
// writes the error response itself and returns errResponseWritten.
func parseEventID(c *fiber.Ctx) (int64, error) {
	raw := c.Params("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid event id: "+raw))
		return 0, errResponseWritten
	}
	return id, nil
}

// parseEventFilter builds the listing filter from query parameters.
// Unknown status values are ignored rather than rejected so stale clients
// keep working.
func parseEventFilter(c *fiber.Ctx) service.EventFilter {
	filter := service.EventFilter{
		Query:    c.Query("q"),
		Category: c.Query("category"),
		Location: c.Query("location"),
	}

	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status := models.EventStatus(strings.TrimSpace(part))
			switch status {
			case models.StatusLive, models.StatusSoon, models.StatusUpcoming, models.StatusPast:
				filter.Statuses = append(filter.Statuses, status)
			}
		}
	}

	if raw := c.Query("price_min"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filter.PriceMin = &v
		}
	}
	if raw := c.Query("price_max"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filter.PriceMax = &v
		}
	}

	return filter
}

// respondAppError maps a service error onto the right HTTP status and
// records it on the request's trace span.
func respondAppError(c *fiber.Ctx, err error) error {
	observability.RecordErrorInContext(c.UserContext(), err)
	return models.RespondWithError(c, models.StatusForError(err), err)
}
