package server

import (
	"errors"
	"io"
	"path/filepath"

	"photoshare/internal/models"
	"photoshare/internal/service"
	"photoshare/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// GetPhotosOfUser handles GET /photosOfUser/:id
// @Summary Photos of a user with comments and likes
// @Tags photos
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {array} models.PhotoView
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /photosOfUser/{id} [get]
func (s *Server) GetPhotosOfUser(c *fiber.Ctx) error {
	userID, err := models.ParseID(c.Params("id"), "user ID")
	if err != nil {
		return respondError(c, err)
	}
	photos, err := s.aggregation.ListPhotosForUser(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(photos)
}

// RegisterMentions handles POST /photosOfUser/mentions
// @Summary Register mentions on a photo
// @Tags photos
// @Accept json
// @Produce json
// @Param request body object{photoId=string,user_id_arr=[]string} true "Mentioned users"
// @Success 200 {object} object{message=string,mentions=[]string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /photosOfUser/mentions [post]
func (s *Server) RegisterMentions(c *fiber.Ctx) error {
	var req struct {
		PhotoID   string   `json:"photoId"`
		UserIDArr []string `json:"user_id_arr"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}

	mentions, err := s.mutations.RegisterMentions(c.UserContext(), req.PhotoID, currentUserID(c), req.UserIDArr)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":  "Mentions updated successfully",
		"mentions": mentions,
	})
}

// AddComment handles POST /commentsOfPhoto/:photoId. A missing photo is a 400
// here, as the web client expects.
// @Summary Comment on a photo
// @Tags photos
// @Accept json
// @Param photoId path string true "Photo ID"
// @Param request body object{comment=string,mentions=[]string} true "Comment"
// @Success 200
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /commentsOfPhoto/{photoId} [post]
func (s *Server) AddComment(c *fiber.Ctx) error {
	var req struct {
		Comment  string   `json:"comment"`
		Mentions []string `json:"mentions"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}

	_, err := s.mutations.AddComment(c.UserContext(), service.AddCommentInput{
		PhotoID:  c.Params("photoId"),
		AuthorID: currentUserID(c),
		Text:     req.Comment,
		Mentions: req.Mentions,
	})
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return respondMessage(c, fiber.StatusBadRequest, "Photo not found")
		}
		return respondError(c, err)
	}
	return respondEmpty(c)
}

// DeleteComment handles DELETE /comments/:id
// @Summary Delete own comment
// @Tags photos
// @Param id path string true "Comment ID"
// @Success 200
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /comments/{id} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	if err := s.mutations.DeleteComment(c.UserContext(), c.Params("id"), currentUserID(c)); err != nil {
		return respondError(c, err)
	}
	return respondEmpty(c)
}

// UploadPhoto handles POST /photos/new
// @Summary Upload a photo
// @Tags photos
// @Accept multipart/form-data
// @Param uploadedphoto formData file true "Image file"
// @Success 200
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /photos/new [post]
func (s *Server) UploadPhoto(c *fiber.Ctx) error {
	file, err := c.FormFile("uploadedphoto")
	if err != nil {
		return respondMessage(c, fiber.StatusBadRequest, "Error processing photo")
	}

	src, err := file.Open()
	if err != nil {
		return respondMessage(c, fiber.StatusBadRequest, "Error processing photo")
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return respondMessage(c, fiber.StatusBadRequest, "Error processing photo")
	}

	if _, err := s.uploads.Upload(c.UserContext(), service.UploadInput{
		UserID:   currentUserID(c),
		FileName: file.Filename,
		Content:  content,
	}); err != nil {
		return respondError(c, err)
	}
	return respondEmpty(c)
}

// DeletePhoto handles DELETE /photos/:id
// @Summary Delete own photo
// @Tags photos
// @Param id path string true "Photo ID"
// @Success 200
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /photos/{id} [delete]
func (s *Server) DeletePhoto(c *fiber.Ctx) error {
	if err := s.mutations.DeletePhoto(c.UserContext(), c.Params("id"), currentUserID(c)); err != nil {
		return respondError(c, err)
	}
	return respondEmpty(c)
}

// ToggleLike handles POST /photos/:id/like
// @Summary Toggle the caller's like
// @Tags likes
// @Param id path string true "Photo ID"
// @Success 200
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /photos/{id}/like [post]
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	if _, err := s.mutations.ToggleLike(c.UserContext(), c.Params("id"), currentUserID(c)); err != nil {
		return respondError(c, err)
	}
	return respondEmpty(c)
}

// GetLikes handles GET /photos/:id/likes
// @Summary Like state of a photo
// @Tags likes
// @Produce json
// @Param id path string true "Photo ID"
// @Success 200 {object} models.LikeState
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /photos/{id}/likes [get]
func (s *Server) GetLikes(c *fiber.Ctx) error {
	state, err := s.mutations.LikeState(c.UserContext(), c.Params("id"), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(state)
}

// ServeImage handles GET /images/:name. Local files are sent directly; bucket
// objects are served through a short-lived presigned redirect.
func (s *Server) ServeImage(c *fiber.Ctx) error {
	name := c.Params("name")
	url, err := s.files.URL(c.UserContext(), name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return respondError(c, models.NewNotFoundError("Image", name))
		}
		return respondError(c, models.NewInternalError(err))
	}

	if local, ok := s.files.(*storage.LocalStore); ok {
		return c.SendFile(filepath.Join(local.Dir(), name))
	}
	return c.Redirect(url, fiber.StatusFound)
}
