package stampcard

import (
	"errors"
	"net/http"
	"strconv"

	"smallbiznis-stampcard/pkg/errutil"

	"github.com/gin-gonic/gin"
)

const CacheControl = "public, max-age=300, s-maxage=300"

type Handler struct {
	renderer *Renderer
	sprites  SpriteTable
}

func NewHandler(renderer *Renderer, sprites SpriteTable) *Handler {
	return &Handler{renderer: renderer, sprites: sprites}
}

func RegisterRoutes(r *gin.Engine, h *Handler) {
	g := r.Group("/api/stamp-card")
	g.GET("", h.GetStampCard)
	g.GET("/sprite", h.GetSprite)
}

// GetStampCard renders ?stamps=N as PNG. Missing or non-integer N renders an empty card.
func (h *Handler) GetStampCard(c *gin.Context) {
	img, err := h.renderer.Render(c.Request.Context(), stampsParam(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.Header("Cache-Control", CacheControl)
	c.Data(http.StatusOK, "image/png", img)
}

// GetSprite redirects to the pre-rendered image for ?stamps=N.
func (h *Handler) GetSprite(c *gin.Context) {
	url := h.sprites.URL(stampsParam(c))
	if url == "" {
		_ = c.Error(errutil.NotFound("stamp card sprites are not configured", nil))
		return
	}

	c.Header("Cache-Control", CacheControl)
	c.Redirect(http.StatusFound, url)
}

// stampsParam saturates out-of-range integers so the renderer clamps them.
func stampsParam(c *gin.Context) int {
	n, err := strconv.ParseInt(c.Query("stamps"), 10, 0)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0
	}
	return int(n)
}
