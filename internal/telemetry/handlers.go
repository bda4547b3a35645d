package telemetry

import (
	"errors"

	"github.com/robertterquin/RIdeTrack/internal/ride"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, mgr *Manager, authMiddleware fiber.Handler) {
	r.Post("/sessions", authMiddleware, func(c *fiber.Ctx) error {
		var req struct {
			Name           string         `json:"name"`
			ActivityType   string         `json:"activity_type"`
			PlannedRouteID string         `json:"planned_route_id"`
			Initial        *ride.Position `json:"initial"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		userID, _ := c.Locals("user_id").(string)
		session, err := mgr.Start(userID, req.Name, req.ActivityType, req.PlannedRouteID, req.Initial)
		if errors.Is(err, ErrAlreadyActive) {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(session)
	})

	r.Post("/sessions/samples", authMiddleware, func(c *fiber.Ctx) error {
		var req ride.Position
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		userID, _ := c.Locals("user_id").(string)
		if err := mgr.Accept(userID, req); err != nil {
			if errors.Is(err, ErrNotActive) {
				return fiber.NewError(fiber.StatusConflict, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusAccepted)
	})

	r.Post("/sessions/pause", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		if err := mgr.Pause(userID); err != nil {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/sessions/resume", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		if err := mgr.Resume(userID); err != nil {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/sessions/finalize", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		record, err := mgr.Finalize(c.Context(), userID)
		if errors.Is(err, ErrNotActive) {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(record)
	})

	r.Get("/sessions", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		session, err := mgr.Current(userID)
		if errors.Is(err, ErrNotActive) {
			return fiber.NewError(fiber.StatusNotFound, "no active session")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(session)
	})
}
