// Package config loads render-job configuration for the webvfx-render
// tool. The file format is line oriented: optionName remainingLineIsTheValue,
// with [section] headers, # comments, and blank lines ignored.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mcanthony/webvfx/internal/logging"
)

// Config is one render job: the effect to run, the frame geometry, and
// the script-visible parameters and input images.
type Config struct {
	Render RenderConfig
	// Parameters are exposed to the effect script by name.
	Parameters map[string]string
	// Images maps named image roles to files loaded before rendering.
	Images map[string]string
	// Warnings collects non-fatal issues found while loading.
	Warnings []string
}

// RenderConfig controls frame geometry and output.
type RenderConfig struct {
	Width       int
	Height      int
	Frames      int
	FPS         float64
	Output      string
	Transparent bool
	Plain       bool
}

// NewConfig returns a configuration with usable defaults.
func NewConfig() *Config {
	return &Config{
		Render: RenderConfig{
			Width:  640,
			Height: 480,
			Frames: 1,
			FPS:    30,
			Output: "frame-%04d.png",
		},
		Parameters: make(map[string]string),
		Images:     make(map[string]string),
	}
}

// Load loads configuration from the default config file path.
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return LoadFromPath(configPath)
}

// LoadFromPath loads configuration from the specified file path. A
// missing file yields the defaults.
//
// SECURITY: symlinks are rejected so a substituted config file cannot
// read through to sensitive paths.
func LoadFromPath(path string) (*Config, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewConfig(), nil
		}
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fi.Mode()&os.ModeSymlink != 0 {
		return nil, fmt.Errorf("symlink not allowed in config path: %s", path)
	}

	file, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return LoadFromReader(file)
}

// LoadFromReader loads configuration from an io.Reader. Options before
// any section header belong to [render].
func LoadFromReader(r io.Reader) (*Config, error) {
	config := NewConfig()
	scanner := bufio.NewScanner(r)

	section := "render"
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.Trim(line, "[]")
			switch section {
			case "render", "parameters", "images":
			default:
				config.addWarning("unknown section [%s] ignored", section)
			}
			continue
		}

		parts := strings.SplitN(line, " ", 2)
		optionName := parts[0]
		var value string
		if len(parts) > 1 {
			value = strings.TrimSpace(parts[1])
		}

		switch section {
		case "render":
			if err := parseRenderOption(&config.Render, optionName, value); err != nil {
				return nil, fmt.Errorf("invalid render option %q: %w", optionName, err)
			}
		case "parameters":
			// Literal \n sequences become newlines so multi-line
			// string parameters fit on one option line.
			config.Parameters[optionName] = strings.ReplaceAll(value, `\n`, "\n")
		case "images":
			if value == "" {
				return nil, fmt.Errorf("image %q has no file path", optionName)
			}
			config.Images[optionName] = value
		default:
			config.addWarning("option %q in unknown section [%s] ignored", optionName, section)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	return config, nil
}

// parseRenderOption parses one [render] option. Supported options:
//   - width <int>: frame width in pixels (default: 640)
//   - height <int>: frame height in pixels (default: 480)
//   - frames <int>: number of frames to render (default: 1)
//   - fps <float>: frames per second used to derive frame times (default: 30)
//   - output <pattern>: fmt pattern for per-frame PNG paths (default: frame-%04d.png)
//   - transparent <bool>: render on a transparent background (default: false)
//   - plain <bool>: complete initialization on the pre-load event (default: false)
func parseRenderOption(rc *RenderConfig, name, value string) error {
	switch name {
	case "width":
		w, err := parsePositiveInt(value)
		if err != nil {
			return err
		}
		rc.Width = w

	case "height":
		h, err := parsePositiveInt(value)
		if err != nil {
			return err
		}
		rc.Height = h

	case "frames":
		n, err := parsePositiveInt(value)
		if err != nil {
			return err
		}
		rc.Frames = n

	case "fps":
		fps, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", value, err)
		}
		if fps <= 0 {
			return fmt.Errorf("fps must be positive: %v", fps)
		}
		rc.FPS = fps

	case "output":
		if value == "" {
			return fmt.Errorf("output pattern cannot be empty")
		}
		rc.Output = value

	case "transparent":
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		rc.Transparent = b

	case "plain":
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		rc.Plain = b

	default:
		return fmt.Errorf("unknown render option: %s", name)
	}
	return nil
}

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value %q: %w", s, err)
	}
	if n < 1 {
		return 0, fmt.Errorf("value must be at least 1: %d", n)
	}
	return n, nil
}

// parseBool parses a boolean value from string.
// Accepts: true, false, 1, 0, yes, no, on, off (case-insensitive)
func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value: %s", s)
	}
}

// addWarning adds a warning to the config's warnings list.
func (c *Config) addWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.Warnings = append(c.Warnings, msg)
	logging.L().Warn("config: " + msg)
}

// HasWarnings returns true if there are any warnings.
func (c *Config) HasWarnings() bool {
	return len(c.Warnings) > 0
}
