package declarative

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"go.uber.org/zap"

	"github.com/mcanthony/webvfx/internal/content"
	"github.com/mcanthony/webvfx/internal/locator"
	"github.com/mcanthony/webvfx/internal/logging"
	"github.com/mcanthony/webvfx/internal/render"
)

// Content is the declarative handler. All methods except SetImage and
// ImageTypeMap are owner-thread only.
type Content struct {
	params   content.Parameters
	listener content.LoadListener
	registry *content.ImageRegistry
	log      *zap.Logger

	loc         locator.Locator
	width       int
	height      int
	transparent bool

	scene    *scene
	disposed bool
}

// New constructs a declarative handler. The listener receives load
// events for every load cycle, including reloads.
func New(width, height int, params content.Parameters, transparent bool, listener content.LoadListener) *Content {
	return &Content{
		params:      params,
		listener:    listener,
		registry:    content.NewImageRegistry(nil),
		log:         logging.L().Named("declarative"),
		width:       width,
		height:      height,
		transparent: transparent,
	}
}

// LoadContent reads, parses, and compiles the scene. Loading is
// synchronous, so the pre-load and full-load events fire back to back;
// the bridge listens to whichever matches its mode.
func (c *Content) LoadContent(loc locator.Locator) {
	c.loc = loc
	c.scene = nil

	data, err := os.ReadFile(loc.Path)
	if err != nil {
		c.log.Error("failed to read scene", zap.String("path", loc.Path), zap.Error(err))
		c.listener.ContentPreLoadFinished(false)
		c.listener.ContentLoadFinished(false)
		return
	}

	s, err := parseScene(bytes.NewReader(data))
	if err != nil {
		c.log.Error("failed to parse scene", zap.String("path", loc.Path), zap.Error(err))
		c.listener.ContentPreLoadFinished(false)
		c.listener.ContentLoadFinished(false)
		return
	}
	for _, w := range s.warnings {
		c.log.Warn("scene warning", zap.String("path", loc.Path), zap.String("warning", w))
	}

	c.scene = s
	for _, it := range s.items {
		if it.kind == imageItem {
			if src := it.props["source"]; src != nil && src.literal != "" {
				c.registry.Declare(src.literal, imageRole(src.literal))
			}
		}
	}

	c.listener.ContentPreLoadFinished(true)
	c.listener.ContentLoadFinished(true)
}

// imageRole maps conventional source/target names to their roles.
func imageRole(name string) content.ImageType {
	switch strings.ToLower(name) {
	case "source", "sourceimage":
		return content.SourceImageType
	case "target", "targetimage":
		return content.TargetImageType
	default:
		return content.ExtraImageType
	}
}

// SetContentSize resizes the scene's coordinate space.
func (c *Content) SetContentSize(width, height int) {
	c.width = width
	c.height = height
}

// RenderContent evaluates every item's bindings at the given time and
// composites the scene into out, in file order.
func (c *Content) RenderContent(time float64, out *render.Image) bool {
	if c.disposed || c.scene == nil || out == nil {
		return false
	}
	out.Fill(backgroundColor(c.transparent))
	env := c.bindingEnv(time)

	for _, it := range c.scene.items {
		if ok, err := c.itemVisible(it, env); err != nil {
			c.log.Error("binding failed", zap.String("item", it.name), zap.Error(err))
			return false
		} else if !ok {
			continue
		}
		if err := c.renderItem(it, env, out); err != nil {
			c.log.Error("render failed", zap.String("item", it.name), zap.Error(err))
			return false
		}
	}
	return true
}

// Reload re-reads and re-compiles the scene. The load listener fires
// again, exactly as for the first load.
func (c *Content) Reload() {
	c.LoadContent(c.loc)
}

// ImageTypeMap returns the roles of the images the scene references.
func (c *Content) ImageTypeMap() map[string]content.ImageType {
	return c.registry.Types()
}

// SetImage publishes a named input image. Safe off the owner thread;
// the registry carries its own lock.
func (c *Content) SetImage(name string, image *render.Image) {
	c.registry.Set(name, image)
}

// Dispose releases the compiled scene.
func (c *Content) Dispose() {
	c.disposed = true
	c.scene = nil
}

// bindingEnv builds the expr evaluation environment for one frame.
func (c *Content) bindingEnv(time float64) map[string]any {
	return map[string]any{
		"time":   time,
		"width":  float64(c.width),
		"height": float64(c.height),
		"param": func(name string) float64 {
			if c.params == nil {
				return 0
			}
			return c.params.GetNumberParameter(name)
		},
		"sin": math.Sin,
		"cos": math.Cos,
		"pi":  math.Pi,
	}
}

func (c *Content) itemVisible(it *item, env map[string]any) (bool, error) {
	prop := it.props["visible"]
	if prop == nil {
		return true, nil
	}
	v, err := evalProperty(prop, env)
	if err != nil {
		return false, err
	}
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		return t != "false" && t != "", nil
	default:
		return false, fmt.Errorf("visible must be a boolean, got %T", v)
	}
}

func (c *Content) renderItem(it *item, env map[string]any, out *render.Image) error {
	x, err := c.numberProp(it, "x", env, 0)
	if err != nil {
		return err
	}
	y, err := c.numberProp(it, "y", env, 0)
	if err != nil {
		return err
	}
	w, err := c.numberProp(it, "width", env, float64(c.width))
	if err != nil {
		return err
	}
	h, err := c.numberProp(it, "height", env, float64(c.height))
	if err != nil {
		return err
	}
	rect := image.Rect(int(x), int(y), int(x+w), int(y+h))

	switch it.kind {
	case rectItem:
		col, err := c.colorProp(it, env)
		if err != nil {
			return err
		}
		opacity, err := c.numberProp(it, "opacity", env, 1)
		if err != nil {
			return err
		}
		col.A = byte(math.Round(float64(col.A) * clamp01(opacity)))
		out.FillRect(rect, col)
	case imageItem:
		name := it.props["source"].literal
		src := c.registry.Get(name)
		if src == nil {
			// Not published yet; skip rather than fail the frame.
			return nil
		}
		render.DrawScaled(out, rect, src)
	}
	return nil
}

func (c *Content) numberProp(it *item, name string, env map[string]any, def float64) (float64, error) {
	prop := it.props[name]
	if prop == nil {
		return def, nil
	}
	if prop.binding == nil {
		f, err := strconv.ParseFloat(prop.literal, 64)
		if err != nil {
			return 0, fmt.Errorf("property %q: %w", name, err)
		}
		return f, nil
	}
	v, err := evalProperty(prop, env)
	if err != nil {
		return 0, fmt.Errorf("property %q: %w", name, err)
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, fmt.Errorf("property %q: expected a number, got %T", name, v)
	}
	return f, nil
}

func (c *Content) colorProp(it *item, env map[string]any) (color.RGBA, error) {
	prop := it.props["color"]
	if prop == nil {
		return color.RGBA{A: 0xff}, nil
	}
	value := prop.literal
	if prop.binding != nil {
		v, err := evalProperty(prop, env)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("property \"color\": %w", err)
		}
		s, ok := v.(string)
		if !ok {
			return color.RGBA{}, fmt.Errorf("property \"color\": expected a string, got %T", v)
		}
		value = s
	}
	return parseHexColor(value)
}

func evalProperty(prop *property, env map[string]any) (any, error) {
	return expr.Run(prop.binding, env)
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float32:
		return float64(t), true
	default:
		return 0, false
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// parseHexColor accepts #RGB, #RRGGBB, and #RRGGBBAA.
func parseHexColor(s string) (color.RGBA, error) {
	hex, ok := strings.CutPrefix(s, "#")
	if !ok {
		return color.RGBA{}, fmt.Errorf("color %q: missing '#'", s)
	}
	parse := func(sub string) (byte, error) {
		v, err := strconv.ParseUint(sub, 16, 8)
		return byte(v), err
	}
	var c color.RGBA
	var err error
	switch len(hex) {
	case 3:
		if c.R, err = parse(strings.Repeat(hex[0:1], 2)); err == nil {
			if c.G, err = parse(strings.Repeat(hex[1:2], 2)); err == nil {
				c.B, err = parse(strings.Repeat(hex[2:3], 2))
			}
		}
		c.A = 0xff
	case 6, 8:
		if c.R, err = parse(hex[0:2]); err == nil {
			if c.G, err = parse(hex[2:4]); err == nil {
				c.B, err = parse(hex[4:6])
			}
		}
		c.A = 0xff
		if err == nil && len(hex) == 8 {
			c.A, err = parse(hex[6:8])
		}
	default:
		return color.RGBA{}, fmt.Errorf("color %q: bad length", s)
	}
	if err != nil {
		return color.RGBA{}, fmt.Errorf("color %q: %w", s, err)
	}
	return c, nil
}

func backgroundColor(transparent bool) color.RGBA {
	if transparent {
		return color.RGBA{}
	}
	return color.RGBA{A: 0xff}
}
