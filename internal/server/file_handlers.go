package server

import (
	"errors"
	"io"
	"mime/multipart"
	"os"

	"vaultbox/internal/media"
	"vaultbox/internal/models"
	"vaultbox/internal/service"

	"github.com/gofiber/fiber/v2"
)

// uploadFailureResponse reports a failed batch together with the files that
// were committed before the failure.
type uploadFailureResponse struct {
	Error string              `json:"error"`
	Code  string              `json:"code"`
	Files []*models.MediaFile `json:"files"`
}

// GetFiles handles GET /api/posts/:id/files
// @Summary List a post's files
// @Tags files
// @Produce json
// @Param id path int true "Post ID"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} models.MediaFile
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/files [get]
func (s *Server) GetFiles(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}
	page := parsePagination(c, defaultPageSize)

	files, err := s.mediaService.ListFiles(c.UserContext(), postID, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(files)
}

// UploadFiles handles POST /api/posts/:id/files
// @Summary Upload files
// @Description Multipart upload of one or more images or videos. The whole batch is validated first; files are then stored in order.
// @Tags files
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param files formData file true "Files (repeatable)"
// @Success 201 {array} models.MediaFile
// @Failure 400 {object} uploadFailureResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 413 {object} uploadFailureResponse
// @Failure 415 {object} uploadFailureResponse
// @Router /posts/{id}/files [post]
func (s *Server) UploadFiles(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}

	form, err := c.MultipartForm()
	if err != nil {
		return models.RespondWithError(c, models.NewValidationError("Expected a multipart form"))
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		return models.RespondWithError(c, models.NewValidationError("No files uploaded"))
	}

	uploads := make([]service.Upload, len(headers))
	for i, fh := range headers {
		uploads[i] = uploadFromHeader(fh)
	}

	files, err := s.mediaService.AttachFiles(c.UserContext(), identity(c), postID, uploads)
	if err != nil {
		var appErr *models.AppError
		if !errors.As(err, &appErr) {
			appErr = models.NewInternalError(err)
		}
		if files == nil {
			files = []*models.MediaFile{}
		}
		return c.Status(appErr.Status()).JSON(uploadFailureResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
			Files: files,
		})
	}
	return c.Status(fiber.StatusCreated).JSON(files)
}

func uploadFromHeader(fh *multipart.FileHeader) service.Upload {
	return service.Upload{
		FileDescriptor: media.FileDescriptor{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get(fiber.HeaderContentType),
			Size:        fh.Size,
		},
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// ServeFile handles GET /api/posts/:id/files/:filename
// @Summary Download a file
// @Description Streams the stored original, or its thumbnail with ?thumbnail=true
// @Tags files
// @Produce octet-stream
// @Param id path int true "Post ID"
// @Param filename path string true "Stored filename"
// @Param thumbnail query bool false "Serve the thumbnail"
// @Success 200 {file} binary
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/files/{filename} [get]
func (s *Server) ServeFile(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}

	path, contentType, err := s.mediaService.ResolveFile(c.UserContext(), postID, c.Params("filename"), c.QueryBool("thumbnail"))
	if err != nil {
		return models.RespondWithError(c, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return models.RespondWithError(c, models.NewNotFoundError("File", c.Params("filename")))
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return models.RespondWithError(c, models.NewInternalError(err))
	}

	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
	// fasthttp closes the stream once the body is written.
	return c.SendStream(f, int(info.Size()))
}

// DeleteFile handles DELETE /api/posts/:id/files/:fileID
// @Summary Delete a file
// @Tags files
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param fileID path int true "File ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/files/{fileID} [delete]
func (s *Server) DeleteFile(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}
	fileID, err := parseID(c, "fileID")
	if err != nil {
		return models.RespondWithError(c, err)
	}

	if err := s.mediaService.DeleteFile(c.UserContext(), identity(c), postID, fileID); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
