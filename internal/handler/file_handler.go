package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/statboard/internal/apperror"
	"github.com/prperemyshlev/statboard/internal/service"
)

const (
	uploadField     = "file"
	msgFileRequired = "File is required"
)

// FileHandler uploads and serves avatars
type FileHandler struct {
	fileService service.FileService
	publicURL   string
}

// NewFileHandler builds avatar links from publicURL, never from request headers
func NewFileHandler(fileService service.FileService, publicURL string) *FileHandler {
	return &FileHandler{fileService: fileService, publicURL: publicURL}
}

// Upload stores a new avatar and points the user at it
// @Summary Upload user image
// @Tags files
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param userId path string true "User ID"
// @Param file formData file true "jpg, jpeg, png or gif"
// @Success 201 {object} domain.User
// @Failure 404 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /files/upload/{userId} [post]
func (h *FileHandler) Upload(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	header, err := c.FormFile(uploadField)
	if err != nil {
		abortWithError(c, apperror.Wrap(err, apperror.CodeUnprocessable, msgFileRequired))
		return
	}

	name, err := h.fileService.Store(c.Request.Context(), header)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Set(UploadedFileKey, name)

	user, err := h.fileService.Attach(c.Request.Context(), userID, name, h.publicURL)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Fetch streams the avatar of a user
// @Summary Get user image
// @Tags files
// @Security BearerAuth
// @Produce image/jpeg,image/png,image/gif
// @Param userId path string true "User ID"
// @Success 200
// @Failure 404 {object} dto.ErrorResponse
// @Router /files/{userId} [get]
func (h *FileHandler) Fetch(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	avatar, err := h.fileService.Fetch(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	streamAvatar(c, avatar)
}

// Delete removes the avatar of a user
// @Summary Delete user image
// @Tags files
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /files/{userId} [delete]
func (h *FileHandler) Delete(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	if err := h.fileService.Delete(c.Request.Context(), userID); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Serve streams a stored avatar by file name
// @Summary Stored image
// @Tags files
// @Produce image/jpeg,image/png,image/gif
// @Param name path string true "File name"
// @Success 200
// @Failure 404 {object} dto.ErrorResponse
// @Router /uploads/{name} [get]
func (h *FileHandler) Serve(c *gin.Context) {
	avatar, err := h.fileService.Open(c.Request.Context(), c.Param("name"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	streamAvatar(c, avatar)
}

func streamAvatar(c *gin.Context, avatar *service.Avatar) {
	defer avatar.Body.Close()
	c.DataFromReader(http.StatusOK, -1, avatar.ContentType, avatar.Body, nil)
}
