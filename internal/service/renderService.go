package service

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ds124wfegd/pixelcanvas/internal/entity"
	"github.com/ds124wfegd/pixelcanvas/internal/pkg/pixelstore"
	"github.com/ds124wfegd/pixelcanvas/internal/pkg/renderer"
	"github.com/sirupsen/logrus"
)

type renderService struct {
	store        *pixelstore.Store
	renderer     renderer.CanvasRenderer
	tileSize     int
	overviewSize int
}

func NewRenderService(store *pixelstore.Store, r renderer.CanvasRenderer, tileSize, overviewSize int) RenderService {
	return &renderService{
		store:        store,
		renderer:     r,
		tileSize:     tileSize,
		overviewSize: overviewSize,
	}
}

// HandleRequest routes on method and path only; the body and headers are
// ignored. Anything it does not recognise is a 404 with an empty body.
func (s *renderService) HandleRequest(req entity.Request) entity.Response {
	if req.Method != http.MethodGet {
		return notFound()
	}

	path, ok := requestPath(req.URL)
	if !ok {
		return notFound()
	}

	switch path {
	case "/", "/canvas", "/canvas.png":
		return s.render(renderer.FormatPNG, func(snap entity.Snapshot) ([]byte, error) {
			return s.renderer.Encode(snap, renderer.FormatPNG)
		})
	case "/canvas.bmp":
		return s.render(renderer.FormatBMP, func(snap entity.Snapshot) ([]byte, error) {
			return s.renderer.Encode(snap, renderer.FormatBMP)
		})
	case "/overview.png":
		return s.render(renderer.FormatPNG, func(snap entity.Snapshot) ([]byte, error) {
			return s.renderer.Overview(snap, s.overviewSize)
		})
	}

	if idx, ok := tileIndex(path); ok {
		return s.render(renderer.FormatPNG, func(snap entity.Snapshot) ([]byte, error) {
			return s.renderer.Tile(snap, idx, s.tileSize)
		})
	}

	return notFound()
}

func (s *renderService) render(format string, encode func(entity.Snapshot) ([]byte, error)) entity.Response {
	body, err := encode(s.store.Snapshot())
	if errors.Is(err, entity.ErrTileNotFound) {
		return notFound()
	}
	if err != nil {
		// a fully populated grid always encodes; failing here is a bug
		logrus.WithError(err).Panic("canvas renderer failed")
	}

	return entity.Response{
		StatusCode: http.StatusOK,
		Headers: []entity.Header{
			{Key: "Content-Type", Value: renderer.ContentType(format)},
			{Key: "Content-Length", Value: strconv.Itoa(len(body))},
			{Key: "Cache-Control", Value: "no-store"},
		},
		Body: body,
	}
}

func notFound() entity.Response {
	return entity.Response{
		StatusCode: http.StatusNotFound,
		Headers:    []entity.Header{},
		Body:       []byte{},
	}
}

// requestPath accepts both request URIs and absolute URLs. A target starting
// with "/" is always a path, so "//host/x" does not lose its first segment to
// an authority.
func requestPath(raw string) (string, bool) {
	if strings.HasPrefix(raw, "/") {
		u, err := url.ParseRequestURI(raw)
		if err != nil {
			return "", false
		}
		return u.Path, true
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	if u.Path == "" {
		return "/", true
	}
	return u.Path, true
}

// tileIndex parses /tiles/{idx}.png.
func tileIndex(path string) (int, bool) {
	name, ok := strings.CutPrefix(path, "/tiles/")
	if !ok {
		return 0, false
	}
	name, ok = strings.CutSuffix(name, ".png")
	if !ok || name == "" {
		return 0, false
	}
	for _, r := range name {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	idx, err := strconv.Atoi(name)
	if err != nil {
		return 0, false
	}
	return idx, true
}
