package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/crm-service/internal/api/dto"
	"github.com/spec-kit/crm-service/internal/service"
)

// RoutingHandler exposes the manual routing trigger.
type RoutingHandler struct {
	service *service.RoutingService
}

// NewRoutingHandler constructs handler.
func NewRoutingHandler(routingService *service.RoutingService) *RoutingHandler {
	return &RoutingHandler{service: routingService}
}

// RunRouting POST /api/routing/run. Synchronous: the caller waits for
// the pass and receives the routed count. Skipped leads are not
// reported.
func (h *RoutingHandler) RunRouting(c *fiber.Ctx) error {
	result, err := h.service.RunRouting(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.RoutingRunResponse{Routed: result.Routed}})
}
