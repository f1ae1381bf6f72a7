package document

import (
	"image"
	"image/color"
	"strings"

	"go.uber.org/zap"

	"github.com/mcanthony/webvfx/internal/content"
	"github.com/mcanthony/webvfx/internal/render"
)

// installHostObject exposes the "webvfx" object to the script. Every
// function closes over c and runs on the owner loop, except the
// registry-backed lookups which are safe anywhere.
func (c *Content) installHostObject() error {
	api := map[string]any{
		// Load protocol.
		"deferLoad": func() {
			c.deferLoad = true
		},
		"readyRender": func(ok bool) {
			c.readyCalled = true
			c.readyOK = ok
			if c.deferLoad {
				c.finishLoad(ok)
			}
		},

		// Parameters, passed through unmodified from the host.
		"getNumberParameter": func(name string) float64 {
			if c.params == nil {
				return 0
			}
			return c.params.GetNumberParameter(name)
		},
		"getStringParameter": func(name string) string {
			if c.params == nil {
				return ""
			}
			return c.params.GetStringParameter(name)
		},

		// Named-image registry.
		"declareImage": func(name, typ string) {
			t, ok := imageTypeFromString(typ)
			if !ok {
				c.log.Warn("unknown image type in declareImage",
					zap.String("name", name), zap.String("type", typ))
				return
			}
			c.registry.Declare(name, t)
		},
		"getImage": func(name string) map[string]any {
			im := c.registry.Get(name)
			if im == nil {
				return nil
			}
			return map[string]any{"width": im.Width, "height": im.Height}
		},

		// Content geometry.
		"getWidth":  func() int { return c.width },
		"getHeight": func() int { return c.height },

		// Raster API over the frame being rendered. No-ops outside a
		// RenderContent call.
		"fill": func(r, g, b, a int) {
			if c.target == nil {
				return
			}
			c.target.Fill(clampColor(r, g, b, a))
		},
		"fillRect": func(x, y, w, h, r, g, b, a int) {
			if c.target == nil {
				return
			}
			c.target.FillRect(image.Rect(x, y, x+w, y+h), clampColor(r, g, b, a))
		},
		"drawImage": func(name string, x, y, w, h int) {
			if c.target == nil {
				return
			}
			render.DrawScaled(c.target, image.Rect(x, y, x+w, y+h), c.registry.Get(name))
		},
	}
	return c.vm.Set("webvfx", api)
}

func imageTypeFromString(s string) (content.ImageType, bool) {
	switch strings.ToLower(s) {
	case "source":
		return content.SourceImageType, true
	case "target":
		return content.TargetImageType, true
	case "extra":
		return content.ExtraImageType, true
	default:
		return 0, false
	}
}

func clampColor(r, g, b, a int) color.RGBA {
	return color.RGBA{R: clampByte(r), G: clampByte(g), B: clampByte(b), A: clampByte(a)}
}

func clampByte(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 0xff {
		return 0xff
	}
	return byte(v)
}

func backgroundColor(transparent bool) color.RGBA {
	if transparent {
		return color.RGBA{}
	}
	return color.RGBA{A: 0xff}
}
