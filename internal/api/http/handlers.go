// Package http contains the gin handlers for the FileShelf API. The
// handlers are thin glue: they convert raw request strings into vault
// calls and render the vault's outcome, nothing more.
package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fileshelf/backend/internal/infrastructure/monitoring"
	"github.com/fileshelf/backend/internal/logging"
	"github.com/fileshelf/backend/internal/vault"
)

// Handlers serves the FileShelf HTTP API.
type Handlers struct {
	vault   *vault.Vault
	metrics *monitoring.Metrics
	log     *logging.Logger
}

// NewHandlers creates the API handlers.
func NewHandlers(v *vault.Vault, metrics *monitoring.Metrics, log *logging.Logger) *Handlers {
	return &Handlers{vault: v, metrics: metrics, log: log}
}

// Result is the outcome envelope for mutating operations: a single
// human-readable message with a severity tag.
type Result struct {
	Status  string `json:"status"` // "success" or "danger"
	Message string `json:"message"`
}

func success(msg string) Result { return Result{Status: "success", Message: msg} }
func danger(err error) Result   { return Result{Status: "danger", Message: err.Error()} }

// Root returns service information.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "fileshelf-backend",
		"status":  "running",
	})
}

// Health returns service health.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// ListEntries serves the listing view: immediate children of the
// requested path, directories first, plus breadcrumb segments. A stale
// path yields an empty listing, not an error.
func (h *Handlers) ListEntries(c *gin.Context) {
	base := c.Query("path")

	entries, err := h.vault.List(base)
	if err != nil {
		if !errors.Is(err, vault.ErrDirectoryNotFound) {
			h.log.Warn("Listing failed", zap.String("path", base), zap.Error(err))
		}
		entries = []vault.Entry{}
	}

	c.JSON(http.StatusOK, gin.H{
		"path":        base,
		"breadcrumbs": h.vault.Breadcrumbs(base),
		"entries":     entries,
		"count":       len(entries),
	})
}

// DownloadEntry streams a file, or a directory bundled as an archive.
func (h *Handlers) DownloadEntry(c *gin.Context) {
	base := c.Query("path")
	name := c.Query("name")

	format, err := vault.ParseFormat(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, danger(err))
		return
	}

	timer := monitoring.NewTimer(h.metrics, "download")
	dl, err := h.vault.Download(c.Request.Context(), base, name, format)
	if err != nil {
		timer.Stop("failure")
		c.JSON(downloadStatus(err), danger(err))
		return
	}
	defer dl.Close()
	timer.Stop("success")

	if dl.Archived {
		h.metrics.RecordArchive(dl.Size)
	}

	extra := map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", dl.Name),
	}
	c.DataFromReader(http.StatusOK, dl.Size, dl.ContentType, dl.Body, extra)
}

func downloadStatus(err error) int {
	switch {
	case errors.Is(err, vault.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, vault.ErrInvalidName), errors.Is(err, vault.ErrPathEscape):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// createRequest is the body for file and folder creation.
type createRequest struct {
	Path    string `json:"path"`
	Name    string `json:"name" binding:"required"`
	Content string `json:"content"`
}

// CreateFile creates a new text file.
func (h *Handlers) CreateFile(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, danger(fmt.Errorf("name required")))
		return
	}

	timer := monitoring.NewTimer(h.metrics, "create")
	err := h.vault.Create(c.Request.Context(), req.Path, req.Name, []byte(req.Content))
	if err != nil {
		timer.Stop("failure")
		c.JSON(http.StatusOK, danger(err))
		return
	}
	timer.Stop("success")
	c.JSON(http.StatusOK, success(fmt.Sprintf("File %q created", req.Name)))
}

// CreateFolder creates a new directory.
func (h *Handlers) CreateFolder(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, danger(fmt.Errorf("name required")))
		return
	}

	timer := monitoring.NewTimer(h.metrics, "create_folder")
	err := h.vault.CreateFolder(c.Request.Context(), req.Path, req.Name)
	if err != nil {
		timer.Stop("failure")
		c.JSON(http.StatusOK, danger(err))
		return
	}
	timer.Stop("success")
	c.JSON(http.StatusOK, success(fmt.Sprintf("Folder %q created", req.Name)))
}

// deleteRequest is the body for entry deletion.
type deleteRequest struct {
	Path string `json:"path"`
	Name string `json:"name" binding:"required"`
}

// DeleteEntry removes a file or an empty directory.
func (h *Handlers) DeleteEntry(c *gin.Context) {
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, danger(fmt.Errorf("name required")))
		return
	}

	timer := monitoring.NewTimer(h.metrics, "delete")
	err := h.vault.Delete(c.Request.Context(), req.Path, req.Name)
	if err != nil {
		timer.Stop("failure")
		c.JSON(http.StatusOK, danger(err))
		return
	}
	timer.Stop("success")
	c.JSON(http.StatusOK, success(fmt.Sprintf("%q deleted", req.Name)))
}

// Upload stores a multipart batch. Items are processed independently;
// the response carries only the accepted count, never per-item errors.
func (h *Handlers) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, danger(fmt.Errorf("multipart form required")))
		return
	}

	base := ""
	if v := form.Value["path"]; len(v) > 0 {
		base = v[0]
	}

	headers := form.File["files"]
	items := make([]vault.UploadItem, 0, len(headers))
	for _, fh := range headers {
		items = append(items, vault.UploadItem{
			Name: fh.Filename,
			Size: fh.Size,
			Open: func() (io.ReadCloser, error) { return fh.Open() },
		})
	}

	timer := monitoring.NewTimer(h.metrics, "upload")
	accepted := h.vault.Upload(c.Request.Context(), base, items)
	timer.Stop("success")
	h.metrics.RecordUploadBatch(accepted, len(items))

	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"message":  strconv.Itoa(accepted) + " file(s) uploaded",
		"accepted": accepted,
	})
}

// SearchEntries serves glob search over the vault.
func (h *Handlers) SearchEntries(c *gin.Context) {
	base := c.Query("path")
	pattern := c.Query("pattern")

	matches, err := h.vault.Search(c.Request.Context(), base, pattern)
	if err != nil {
		c.JSON(http.StatusBadRequest, danger(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"matches": matches,
		"count":   len(matches),
	})
}

// Quota reports the configured limit and current usage.
func (h *Handlers) Quota(c *gin.Context) {
	used, err := h.vault.Usage(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, danger(err))
		return
	}
	h.metrics.RecordQuota(h.vault.Quota(), used)

	c.JSON(http.StatusOK, gin.H{
		"limit_bytes": h.vault.Quota(),
		"used_bytes":  used,
	})
}
