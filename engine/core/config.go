package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type LogConfig struct {
	Level  string `toml:"level"`
	Prefix string `toml:"prefix"`
}

type RendererConfig struct {
	ShaderDir      string `toml:"shader_dir"`
	WatchShaders   bool   `toml:"watch_shaders"`
	ScreenWidth    int    `toml:"screen_width"`
	ScreenHeight   int    `toml:"screen_height"`
	CanvasWidth    int    `toml:"canvas_width"`
	CanvasHeight   int    `toml:"canvas_height"`
	ScratchInitial int    `toml:"scratch_initial"`
	Validation     bool   `toml:"validation"`
}

type Config struct {
	Log      LogConfig      `toml:"log"`
	Renderer RendererConfig `toml:"renderer"`
}

func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Prefix: "vidgfx",
		},
		Renderer: RendererConfig{
			ShaderDir:      "assets/shaders/bin",
			ScreenWidth:    1280,
			ScreenHeight:   720,
			CanvasWidth:    1920,
			CanvasHeight:   1080,
			ScratchInitial: 512,
		},
	}
}

/**
 * @brief Loads the configuration at path on top of the defaults. A missing file
 * yields the defaults.
 */
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return config, nil
		}
		return config, err
	}
	if err := toml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("%w: %s", ErrValidation, err)
	}
	return config, config.Validate()
}

func (c Config) Validate() error {
	r := c.Renderer
	if r.ScreenWidth <= 0 || r.ScreenHeight <= 0 {
		return fmt.Errorf("%w: screen size %dx%d", ErrValidation, r.ScreenWidth, r.ScreenHeight)
	}
	if r.CanvasWidth <= 0 || r.CanvasHeight <= 0 {
		return fmt.Errorf("%w: canvas size %dx%d", ErrValidation, r.CanvasWidth, r.CanvasHeight)
	}
	if r.ScratchInitial <= 0 {
		return fmt.Errorf("%w: scratch size %d", ErrValidation, r.ScratchInitial)
	}
	return nil
}
