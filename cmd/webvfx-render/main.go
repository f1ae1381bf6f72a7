// webvfx-render loads an effect and renders its frames to PNG files.
//
// Usage: webvfx-render [options] <effect file or URL>
//
// Options override values from the config file (see internal/config
// for the format and default location).
package main

import (
	"flag"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dop251/goja_nodejs/eventloop"
	"go.uber.org/zap"

	"github.com/mcanthony/webvfx"
	"github.com/mcanthony/webvfx/internal/config"
	"github.com/mcanthony/webvfx/internal/render"

	_ "image/jpeg"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := flag.NewFlagSet("webvfx-render", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path (default: WEBVFX_CONFIG or ~/.webvfx/config)")
	width := fs.Int("width", 0, "frame width in pixels")
	height := fs.Int("height", 0, "frame height in pixels")
	frames := fs.Int("frames", 0, "number of frames to render")
	fps := fs.Float64("fps", 0, "frames per second")
	output := fs.String("output", "", "output PNG path pattern, e.g. frame-%04d.png")
	transparent := fs.Bool("transparent", false, "render on a transparent background")
	plain := fs.Bool("plain", false, "complete initialization on the pre-load event")
	verbose := fs.Bool("v", false, "verbose logging")
	fs.Usage = func() {
		_, _ = fmt.Fprintln(os.Stderr, "Usage: webvfx-render [options] <effect file or URL>")
		_, _ = fmt.Fprintln(os.Stderr, "\nOptions:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("exactly one effect file is required")
	}
	effect := fs.Arg(0)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	// Flags explicitly set on the command line win over the file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "width":
			cfg.Render.Width = *width
		case "height":
			cfg.Render.Height = *height
		case "frames":
			cfg.Render.Frames = *frames
		case "fps":
			cfg.Render.FPS = *fps
		case "output":
			cfg.Render.Output = *output
		case "transparent":
			cfg.Render.Transparent = *transparent
		case "plain":
			cfg.Render.Plain = *plain
		}
	})
	if cfg.Render.Width < 1 || cfg.Render.Height < 1 || cfg.Render.Frames < 1 || cfg.Render.FPS <= 0 {
		return fmt.Errorf("width, height, frames and fps must be positive")
	}

	log, err := newLogger(*verbose)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	webvfx.SetLogger(log)

	loop := eventloop.NewEventLoop()
	loop.Start()
	defer loop.Stop()

	e, err := webvfx.New(loop)
	if err != nil {
		return err
	}
	defer e.Destroy()

	name := effect
	if cfg.Render.Plain {
		name = "plain:" + name
	}
	params := scriptParameters(cfg.Parameters)
	if err := e.Initialize(name, cfg.Render.Width, cfg.Render.Height, params, cfg.Render.Transparent); err != nil {
		return fmt.Errorf("initialize %s: %w", effect, err)
	}

	if err := publishImages(e, cfg.Images); err != nil {
		return err
	}

	for frame := 0; frame < cfg.Render.Frames; frame++ {
		time := float64(frame) / cfg.Render.FPS
		out := webvfx.NewImage(cfg.Render.Width, cfg.Render.Height)
		if err := e.Render(time, out); err != nil {
			return fmt.Errorf("render frame %d: %w", frame, err)
		}
		path := fmt.Sprintf(cfg.Render.Output, frame)
		if err := writePNG(path, out); err != nil {
			return err
		}
		log.Debug("wrote frame", zap.Int("frame", frame), zap.String("path", path))
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	return cfg.Build()
}

// scriptParameters converts config values for the effect script:
// values that parse as numbers are exposed as numbers, the rest as
// strings.
func scriptParameters(raw map[string]string) webvfx.MapParameters {
	params := make(webvfx.MapParameters, len(raw))
	for name, value := range raw {
		if n, err := strconv.ParseFloat(value, 64); err == nil {
			params[name] = n
		} else {
			params[name] = value
		}
	}
	return params
}

// publishImages decodes each configured image file and hands it to the
// effect under its configured name.
func publishImages(e webvfx.Effects, images map[string]string) error {
	for name, path := range images {
		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("image %s: %w", name, err)
		}
		src, _, err := image.Decode(file)
		_ = file.Close()
		if err != nil {
			return fmt.Errorf("decode image %s (%s): %w", name, path, err)
		}
		e.SetImage(name, toImage(src))
	}
	return nil
}

func toImage(src image.Image) *webvfx.Image {
	if rgba, ok := src.(*image.RGBA); ok {
		return render.FromRGBA(rgba)
	}
	b := src.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)
	return render.FromRGBA(rgba)
}

func writePNG(path string, im *webvfx.Image) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(file, im.RGBA()); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
