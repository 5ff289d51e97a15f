package handler

import (
	"github.com/gofiber/fiber/v2"

	"invoiceflow/internal/service"
)

type registerRequest struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Register creates an account.
// @Summary  Register a user
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body body registerRequest true "Account"
// @Success  201 {object} map[string]string
// @Failure  400 {object} errorPayload
// @Router   /register [post]
func Register(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body registerRequest
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		_, err := svc.Register(c.UserContext(), service.RegisterInput{
			Name:     body.Name,
			Email:    body.Email,
			Password: body.Password,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "User registered successfully"})
	}
}

// Login exchanges credentials for a bearer token.
// @Summary  Log in
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body body loginRequest true "Credentials"
// @Success  200 {object} map[string]string
// @Failure  400 {object} errorPayload
// @Failure  401 {object} errorPayload
// @Router   /login [post]
func Login(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body loginRequest
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		token, err := svc.Login(c.UserContext(), service.LoginInput{
			Email:    body.Email,
			Password: body.Password,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Login successful", "token": token})
	}
}
