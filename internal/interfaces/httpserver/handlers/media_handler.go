package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"media-server/internal/config"
	domain "media-server/internal/domain/media"
	"media-server/internal/interfaces/httpserver/responses"
)

// MediaHandler exposes media endpoints.
type MediaHandler struct {
	cfg     *config.Config
	service *domain.Service
	log     zerolog.Logger
}

func NewMediaHandler(cfg *config.Config, service *domain.Service, log zerolog.Logger) *MediaHandler {
	return &MediaHandler{
		cfg:     cfg,
		service: service,
		log:     log.With().Str("component", "media-handler").Logger(),
	}
}

// Create godoc
// @Summary      Upload an image
// @Description  Accepts a multipart request with exactly one image file, stores the original and a thumbnail, and returns the stored record.
// @Tags         media
// @Accept       multipart/form-data
// @Produce      json
// @Success      201  {object}  domain.MediaRecord
// @Failure      400  {object}  responses.ErrorResponse
// @Failure      500  {object}  responses.ErrorResponse
// @Router       /media [post]
func (h *MediaHandler) Create(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		responses.HandleValidationError(c, "File upload error.")
		return
	}

	var files []*multipart.FileHeader
	for _, headers := range form.File {
		files = append(files, headers...)
	}

	if len(files) == 0 {
		responses.HandleValidationError(c, "No image file was uploaded.")
		return
	}
	if len(files) > 1 {
		responses.HandleValidationError(c, "Only one image is allowed. Please upload a single image.")
		return
	}

	header := files[0]
	if header.Size > h.cfg.MaxMediaBytes {
		responses.HandleValidationError(c, fmt.Sprintf("File exceeds maximum size of %d bytes.", h.cfg.MaxMediaBytes))
		return
	}

	file, err := header.Open()
	if err != nil {
		h.log.Error().Err(err).Msg("open multipart file")
		responses.HandleError(c, err, "Server error while processing image.")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.cfg.MaxMediaBytes+1))
	if err != nil {
		h.log.Error().Err(err).Msg("read multipart file")
		responses.HandleError(c, err, "Server error while processing image.")
		return
	}
	if int64(len(data)) > h.cfg.MaxMediaBytes {
		responses.HandleValidationError(c, fmt.Sprintf("File exceeds maximum size of %d bytes.", h.cfg.MaxMediaBytes))
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mimetype.Detect(data).String()
	}
	if !strings.HasPrefix(contentType, "image/") {
		responses.HandleValidationError(c, "Invalid file type. Only images are allowed.")
		return
	}

	record, err := h.service.CreateMedia(c.Request.Context(), domain.Upload{
		Filename: header.Filename,
		MimeType: contentType,
		Data:     data,
	})
	if err != nil {
		h.log.Error().Err(err).Str("filename", header.Filename).Msg("create media failed")
		responses.HandleError(c, err, "Server error while processing image.")
		return
	}

	c.JSON(http.StatusCreated, record)
}

// List godoc
// @Summary      List media records
// @Tags         media
// @Produce      json
// @Success      200  {array}   domain.MediaRecord
// @Failure      500  {object}  responses.ErrorResponse
// @Router       /media [get]
func (h *MediaHandler) List(c *gin.Context) {
	records, err := h.service.ListMedia(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list media failed")
		responses.HandleError(c, err, "Error retrieving media.")
		return
	}
	c.JSON(http.StatusOK, records)
}

// Get godoc
// @Summary      Get one media record
// @Tags         media
// @Produce      json
// @Param        id   path      string  true  "Media ID"
// @Success      200  {object}  domain.MediaRecord
// @Failure      404  {object}  responses.ErrorResponse
// @Failure      500  {object}  responses.ErrorResponse
// @Router       /media/{id} [get]
func (h *MediaHandler) Get(c *gin.Context) {
	record, err := h.service.GetMediaByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "Error retrieving media.")
		return
	}
	c.JSON(http.StatusOK, record)
}

// File godoc
// @Summary      Redirect to the original image
// @Tags         media
// @Param        id   path  string  true  "Media ID"
// @Success      302
// @Failure      404  {object}  responses.ErrorResponse
// @Router       /media/{id}/file [get]
func (h *MediaHandler) File(c *gin.Context) {
	url, err := h.service.GetOriginalURL(c.Request.Context(), c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "Error serving original file.")
		return
	}
	c.Redirect(http.StatusFound, url)
}

// Thumbnail godoc
// @Summary      Redirect to the derived thumbnail
// @Tags         media
// @Param        id   path  string  true  "Media ID"
// @Success      302
// @Failure      404  {object}  responses.ErrorResponse
// @Router       /media/{id}/thumbnail [get]
func (h *MediaHandler) Thumbnail(c *gin.Context) {
	url, err := h.service.GetThumbnailURL(c.Request.Context(), c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "Error serving thumbnail.")
		return
	}
	c.Redirect(http.StatusFound, url)
}
