package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/ds124wfegd/pixelcanvas/internal/entity"
	"github.com/ds124wfegd/pixelcanvas/internal/pkg/renderer"
	"github.com/gin-gonic/gin"
)

const maxRequestBody = 1 << 20

func (h *CanvasHandler) UpdatePixel(c *gin.Context) {
	var req entity.UpdatePixelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.canvas.UpdatePixel(c.Request.Context(), req.Slot, req.Position, req.Color)
	if err != nil {
		if errors.Is(err, entity.ErrOutOfRange) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *CanvasHandler) GetPixel(c *gin.Context) {
	x, errX := strconv.ParseUint(c.Query("x"), 10, 32)
	y, errY := strconv.ParseUint(c.Query("y"), 10, 32)
	if errX != nil || errY != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "x and y must be non-negative integers"})
		return
	}

	pos := entity.Position{X: uint32(x), Y: uint32(y)}
	color, err := h.canvas.GetPixel(pos)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, entity.PixelResponse{
		X:     pos.X,
		Y:     pos.Y,
		Color: color,
		Hex:   color.Hex(),
	})
}

func (h *CanvasHandler) CanvasInfo(c *gin.Context) {
	c.JSON(http.StatusOK, h.canvas.Info())
}

func (h *CanvasHandler) ListSnapshots(c *gin.Context) {
	records, err := h.snapshots.ListSnapshots()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"snapshots": records})
}

func (h *CanvasHandler) GetSnapshot(c *gin.Context) {
	record, image, err := h.snapshots.OpenSnapshot(c.Param("id"))
	if err != nil {
		if errors.Is(err, entity.ErrSnapshotNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Snapshot not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer image.Close()

	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.DataFromReader(http.StatusOK, -1, renderer.ContentType(record.Format), image, nil)
}

// HTTPRequest adapts any request not matched by the API routes into an
// entity.Request and writes back whatever the renderer answers.
func (h *CanvasHandler) HTTPRequest(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRequestBody))
	if err != nil {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	resp := h.render.HandleRequest(entity.Request{
		Method:  c.Request.Method,
		URL:     c.Request.URL.RequestURI(),
		Body:    body,
		Headers: toHeaders(c.Request.Header),
	})

	for _, hd := range resp.Headers {
		c.Writer.Header().Add(hd.Key, hd.Value)
	}
	c.Writer.WriteHeader(int(resp.StatusCode))
	// flush now so gin does not append its default 404 body
	c.Writer.WriteHeaderNow()
	if len(resp.Body) > 0 {
		c.Writer.Write(resp.Body)
	}
}

func (h *CanvasHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := gin.H{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "connected"
	}

	c.JSON(status, gin.H{
		"status":       http.StatusText(status),
		"service":      "pixel-canvas",
		"dependencies": deps,
	})
}

// toHeaders flattens the header map. http.Header does not remember the order
// in which different keys arrived, so keys come out sorted; the values of one
// key keep their order.
func toHeaders(h http.Header) []entity.Header {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var headers []entity.Header
	for _, k := range keys {
		for _, v := range h[k] {
			headers = append(headers, entity.Header{Key: k, Value: v})
		}
	}
	return headers
}
