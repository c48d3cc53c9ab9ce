/*
Renders a small compositing scene with the Vulkan device and writes the
results as PNG files. With watch_shaders enabled the scene is rendered again
every time a compiled shader changes, until the process is interrupted.
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"os"
	"os/signal"
	"syscall"

	"github.com/disintegration/imaging"
	"github.com/spaghettifunk/vidgfx/engine/assets"
	"github.com/spaghettifunk/vidgfx/engine/assets/loaders"
	"github.com/spaghettifunk/vidgfx/engine/core"
	"github.com/spaghettifunk/vidgfx/engine/platform"
	"github.com/spaghettifunk/vidgfx/engine/renderer"
	"github.com/spaghettifunk/vidgfx/engine/renderer/metadata"
	"github.com/spaghettifunk/vidgfx/engine/renderer/vulkan"
	"github.com/spaghettifunk/vidgfx/testbed"
)

const logCategory = "Main"

func main() {
	configPath := flag.String("config", "vidgfx.toml", "configuration file")
	outDir := flag.String("out", "out", "directory the PNG files are written to")
	imagePath := flag.String("image", "", "image to composite, a gradient is generated when empty")
	flag.Parse()

	if err := run(*configPath, *outDir, *imagePath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, outDir, imagePath string) error {
	config, err := core.LoadConfig(configPath)
	if err != nil {
		return err
	}
	log, err := core.NewLogger(os.Stderr, config.Log)
	if err != nil {
		return err
	}

	// signal channel to capture system calls
	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	img, err := sourceImage(imagePath)
	if err != nil {
		return err
	}

	plat := platform.New(log)
	if err := plat.Startup(); err != nil {
		return err
	}
	defer plat.Shutdown()

	device := vulkan.New(log, config.Renderer)
	if err := device.Initialize("vidgfx testbed"); err != nil {
		return err
	}
	defer func() {
		if err := device.Shutdown(); err != nil {
			core.LogWarning(log, logCategory, "Device shutdown: %s", err)
		}
	}()
	core.LogNotice(log, logCategory, "Rendering on %s", device.DeviceName())

	library, err := assets.NewLibrary(config.Renderer.ShaderDir, log)
	if err != nil {
		return err
	}
	defer library.Close()

	ctx := renderer.NewContext(device, log, config.Renderer)
	if err := ctx.Initialize(library); err != nil {
		return err
	}
	defer ctx.Destroy()

	tb := testbed.New(ctx, log, outDir, device.Swizzled())
	defer tb.Destroy()
	if _, err := tb.Run(img); err != nil {
		return err
	}
	if !config.Renderer.WatchShaders {
		return nil
	}

	changes, err := library.Watch()
	if err != nil {
		return err
	}
	core.LogNotice(log, logCategory, "Watching %s for shader changes", library.Root())
	for {
		select {
		case <-sigCtx.Done():
			return nil
		case name, ok := <-changes:
			if !ok {
				return nil
			}
			if info, ok := library.Info(name); !ok || info.Type != assets.AssetTypeShader {
				continue
			}
			if err := ctx.ReloadShaders(library); err != nil {
				// keep the previous shaders until the file is fixed
				continue
			}
			if _, err := tb.Run(img); err != nil && !errors.Is(err, core.ErrValidation) {
				return err
			}
		}
	}
}

func sourceImage(path string) (image.Image, error) {
	if path != "" {
		// the image is drawn with bilinear filtering and alpha blending
		var il loaders.ImageLoader
		return il.Load(path, metadata.ImageResourceParams{Dilute: true})
	}
	img := imaging.New(640, 360, color.NRGBA{A: 255})
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / b.Dx()),
				G: uint8(y * 255 / b.Dy()),
				B: 128,
				A: 255,
			})
		}
	}
	return img, nil
}
