package goal

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

func RegisterRoutes(r fiber.Router, store *PgStore, engine *Engine, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req struct {
			Name        string  `json:"name"`
			Metric      Metric  `json:"metric"`
			TargetValue float64 `json:"target_value"`
			Period      Period  `json:"period"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		userID, _ := c.Locals("user_id").(string)
		created, err := engine.Create(c.Context(), Goal{
			UserID:      userID,
			Name:        req.Name,
			Metric:      req.Metric,
			TargetValue: req.TargetValue,
			Period:      req.Period,
		})
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	})

	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		activeOnly := c.QueryBool("active", false)

		goals, err := store.ListByUser(c.Context(), userID, activeOnly)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(goals)
	})

	r.Post("/recalculate", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		res, err := engine.Recalculate(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(res)
	})

	r.Post("/:id/renew", authMiddleware, func(c *fiber.Ctx) error {
		g, err := store.Get(c.Context(), c.Params("id"))
		if errors.Is(err, pgx.ErrNoRows) {
			return fiber.NewError(fiber.StatusNotFound, "goal not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if userID, _ := c.Locals("user_id").(string); g.UserID != userID {
			return fiber.NewError(fiber.StatusForbidden, "goal belongs to another user")
		}

		renewed, err := engine.Renew(c.Context(), g)
		if errors.Is(err, ErrPeriodNotElapsed) {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(renewed)
	})
}
