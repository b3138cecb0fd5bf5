package upload

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"syncchat/tools/errs"
)

// Handler stores message attachments and avatars on local disk and
// hands back a URL the client embeds in sendMessage or profile updates.
type Handler struct {
	dir     string
	baseURL string
	maxSize int64
}

func NewHandler(dir, baseURL string, maxSize int64) (*Handler, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create upload dir")
	}
	return &Handler{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), maxSize: maxSize}, nil
}

func (h *Handler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail("file field required"))
		return
	}
	if h.maxSize > 0 && file.Size > h.maxSize {
		c.JSON(http.StatusRequestEntityTooLarge, errs.ErrPayloadTooLarge)
		return
	}

	ext := sanitizeExt(filepath.Ext(file.Filename))
	name := uuid.NewString() + ext
	if err := c.SaveUploadedFile(file, filepath.Join(h.dir, name)); err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrPersistenceFailure)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": h.baseURL + "/" + name})
}

// ServeDir exposes the upload directory read-only under the base path.
func (h *Handler) ServeDir(r *gin.Engine, basePath string) {
	r.StaticFS(basePath, http.Dir(h.dir))
}

func sanitizeExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".pdf", ".txt":
		return strings.ToLower(ext)
	default:
		return ".bin"
	}
}
