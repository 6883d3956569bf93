package files

import (
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	"zyboard/internal/pkg/response"
)

// multipartOverhead is allowed on top of the file size for the multipart
// envelope.
const multipartOverhead = 1 << 20

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	files := r.Group("/files")
	{
		files.POST("/upload", h.Upload)
		files.GET("", h.List)
		files.GET("/stats", h.TypeStats)
		files.GET("/download/:filename", h.Download)
		files.DELETE("/:id", h.Delete)
	}
	r.GET("/storage/info", h.StorageInfo)
}

// Upload godoc
// @Summary Upload a file
// @Description Stores the file in the user's directory and charges it against the quota.
// @Tags Files
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "File to upload"
// @Success 201 {object} map[string]interface{}
// @Failure 400,401,500 {object} map[string]interface{}
// @Router /files/upload [post]
func (h *Handler) Upload(c *gin.Context) {
	userID := c.GetInt64("user_id")
	maxSize := h.service.cfg.MaxUploadSize
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize+multipartOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(c, ErrFileTooLarge)
			return
		}
		response.Error(c, http.StatusBadRequest, "NO_FILE", "No file uploaded")
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		response.ServerError(c, "UPLOAD_FAILED", "Failed to read uploaded file", err)
		return
	}
	defer src.Close()

	file, err := h.service.Upload(c.Request.Context(), userID, UploadInput{
		OriginalName: fileHeader.Filename,
		Size:         fileHeader.Size,
		Body:         src,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"message": "File uploaded successfully",
		"file":    file,
	})
}

// List godoc
// @Summary List my files
// @Tags Files
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /files [get]
func (h *Handler) List(c *gin.Context) {
	list, err := h.service.List(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, list)
}

// TypeStats godoc
// @Summary File counts and sizes per MIME type
// @Tags Files
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /files/stats [get]
func (h *Handler) TypeStats(c *gin.Context) {
	stats, err := h.service.TypeStats(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

// Download godoc
// @Summary Download a file
// @Tags Files
// @Produce octet-stream
// @Security BearerAuth
// @Param filename path string true "Stored filename"
// @Success 200 {file} binary
// @Failure 404 {object} map[string]interface{}
// @Router /files/download/{filename} [get]
func (h *Handler) Download(c *gin.Context) {
	dl, err := h.service.Download(c.Request.Context(), c.GetInt64("user_id"), c.Param("filename"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	defer dl.Body.Close()

	contentType := dl.File.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": dl.File.OriginalName})
	if disposition == "" {
		disposition = "attachment"
	}
	c.DataFromReader(http.StatusOK, dl.File.Size, contentType, dl.Body, map[string]string{
		"Content-Disposition": disposition,
	})
}

// Delete godoc
// @Summary Delete a file
// @Tags Files
// @Produce json
// @Security BearerAuth
// @Param id path int true "File ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400,404,500 {object} map[string]interface{}
// @Router /files/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid file ID")
		return
	}

	file, err := h.service.Delete(c.Request.Context(), c.GetInt64("user_id"), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"message": "File deleted successfully",
		"id":      file.ID,
	})
}

// StorageInfo godoc
// @Summary My storage usage
// @Tags Storage
// @Produce json
// @Security BearerAuth
// @Success 200 {object} StorageInfo
// @Router /storage/info [get]
func (h *Handler) StorageInfo(c *gin.Context) {
	info, err := h.service.StorageInfo(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, info)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var quota *QuotaError
	switch {
	case errors.As(err, &quota):
		response.ErrorWithDetails(c, http.StatusBadRequest, "QUOTA_EXCEEDED", "Storage quota exceeded", gin.H{
			"requested": quota.Requested,
			"available": quota.Available,
		})
	case errors.Is(err, ErrEmptyFile):
		response.Error(c, http.StatusBadRequest, "EMPTY_FILE", "File is empty")
	case errors.Is(err, ErrFileTooLarge):
		response.Error(c, http.StatusBadRequest, "FILE_TOO_LARGE",
			"File exceeds the maximum size of "+humanize.IBytes(uint64(h.service.cfg.MaxUploadSize)))
	case errors.Is(err, ErrFileTypeNotAllowed):
		response.Error(c, http.StatusBadRequest, "FILE_TYPE_NOT_ALLOWED", "File type is not allowed")
	case errors.Is(err, ErrFileNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "File not found")
	case errors.Is(err, ErrStorageWrite), errors.Is(err, ErrMetadataWrite):
		response.ServerError(c, "UPLOAD_FAILED", "Failed to upload file", err)
	case errors.Is(err, ErrStorageDelete), errors.Is(err, ErrMetadataDelete):
		response.ServerError(c, "DELETE_FAILED", "Failed to delete file", err)
	case errors.Is(err, ErrStorageRead):
		response.ServerError(c, "DOWNLOAD_FAILED", "Failed to download file", err)
	default:
		response.ServerError(c, "FILES_FAILED", "Error processing files", err)
	}
}
