package server

import (
	"log/slog"

	"photoshare/internal/middleware"
	"photoshare/internal/models"
	"photoshare/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Register handles POST /user
// @Summary Register
// @Tags users
// @Accept json
// @Produce json
// @Param request body service.RegisterInput true "New account"
// @Success 200 {object} object{message=string,login_name=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /user [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var in service.RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}

	user, err := s.users.Register(c.UserContext(), in)
	if err != nil {
		if models.IsCode(err, models.CodeInternal) {
			return respondInternal(c, "Error checking user existence or creating user", err)
		}
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":    "User created successfully!",
		"login_name": user.LoginName,
	})
}

// ListUsers handles GET /user/list
// @Summary List users
// @Tags users
// @Produce json
// @Success 200 {array} models.UserSummary
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /user/list [get]
func (s *Server) ListUsers(c *fiber.Ctx) error {
	users, err := s.users.ListUsers(c.UserContext())
	if err != nil {
		return respondInternal(c, "An error occurred while retrieving users.", err)
	}
	return c.JSON(users)
}

// GetUser handles GET /user/:id
// @Summary Get a user profile
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.UserProfile
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /user/{id} [get]
func (s *Server) GetUser(c *fiber.Ctx) error {
	id := c.Params("id")
	profile, err := s.users.GetUser(c.UserContext(), id)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return respondMessage(c, fiber.StatusNotFound, "User with _id: "+id+" not found")
		}
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// GetUserDetail handles GET /user/details/:id
// @Summary Most recent and most commented photo of a user
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.UserDetail
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /user/details/{id} [get]
func (s *Server) GetUserDetail(c *fiber.Ctx) error {
	userID, err := models.ParseID(c.Params("id"), "user ID")
	if err != nil {
		return respondError(c, err)
	}
	detail, err := s.aggregation.UserDetail(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(detail)
}

// GetUserMentions handles GET /userMentions/:id
// @Summary Photos that mention a user
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {array} models.MentionView
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /userMentions/{id} [get]
func (s *Server) GetUserMentions(c *fiber.Ctx) error {
	userID, err := models.ParseID(c.Params("id"), "user ID")
	if err != nil {
		return respondError(c, err)
	}
	mentions, err := s.aggregation.MentionsOf(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(mentions)
}

// DeleteMe handles DELETE /user/me. Every session of the caller is revoked.
// @Summary Delete the caller's account
// @Tags users
// @Success 200
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /user/me [delete]
func (s *Server) DeleteMe(c *fiber.Ctx) error {
	userID := currentUserID(c)
	if err := s.mutations.DeleteAccount(c.UserContext(), userID); err != nil {
		return respondError(c, err)
	}

	if err := s.sessions.RevokeUser(c.UserContext(), userID); err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "failed to revoke sessions of deleted user",
			slog.String("error", err.Error()))
	}
	s.clearSessionCookie(c)
	return respondEmpty(c)
}
