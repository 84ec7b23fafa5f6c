package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"photoshare/internal/middleware"
	"photoshare/internal/models"
	"photoshare/internal/session"

	"github.com/gofiber/fiber/v2"
)

// AuthRequired rejects requests without a live session. The caller is stored
// in Locals("userID") and as a session.Principal in the user context.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := session.ExtractToken(c.Get(fiber.HeaderAuthorization), c.Cookies(session.CookieName))
		if token == "" {
			return respondMessage(c, fiber.StatusUnauthorized, "Unauthorized")
		}

		principal, err := s.sessions.Authenticate(c.UserContext(), token)
		if err != nil {
			if !errors.Is(err, session.ErrInvalidToken) && !errors.Is(err, session.ErrNoSession) {
				middleware.Logger.WarnContext(c.UserContext(), "session lookup failed",
					slog.String("error", err.Error()))
			}
			return respondMessage(c, fiber.StatusUnauthorized, "Unauthorized")
		}

		c.Locals("userID", principal.UserID)
		c.Locals("sessionID", principal.SessionID)
		ctx := session.WithPrincipal(c.UserContext(), principal)
		ctx = context.WithValue(ctx, middleware.UserIDKey, principal.UserID)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// Login handles POST /admin/login
// @Summary Log in
// @Description Start a session. The token is returned and also set as the session cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{login_name=string,password=string} true "Login credentials"
// @Success 200 {object} object{_id=string,first_name=string,token=string}
// @Failure 400 {object} models.ErrorResponse
// @Router /admin/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		LoginName string `json:"login_name"`
		Password  string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}

	user, err := s.users.Authenticate(c.UserContext(), req.LoginName, req.Password)
	if err != nil {
		if models.IsCode(err, models.CodeInternal) {
			return respondInternal(c, "An error occurred. Please try again later.", err)
		}
		return respondError(c, err)
	}

	issued, err := s.sessions.Issue(c.UserContext(), user.ID)
	if err != nil {
		return respondInternal(c, "An error occurred. Please try again later.", err)
	}
	s.setSessionCookie(c, issued.Token, issued.ExpiresAt)

	return c.JSON(fiber.Map{
		"_id":        user.ID,
		"first_name": user.FirstName,
		"token":      issued.Token,
	})
}

// Logout handles POST /admin/logout
// @Summary Log out
// @Tags auth
// @Success 200
// @Failure 400 {object} models.ErrorResponse
// @Router /admin/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	token := session.ExtractToken(c.Get(fiber.HeaderAuthorization), c.Cookies(session.CookieName))
	principal, err := s.sessions.Authenticate(c.UserContext(), token)
	if err != nil {
		return respondMessage(c, fiber.StatusBadRequest, "User is not logged in")
	}

	if err := s.sessions.Revoke(c.UserContext(), principal.SessionID); err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return respondMessage(c, fiber.StatusBadRequest, "User is not logged in")
		}
		return respondInternal(c, "Failed to end session", err)
	}
	s.clearSessionCookie(c)
	return respondEmpty(c)
}

func (s *Server) setSessionCookie(c *fiber.Ctx, token string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
