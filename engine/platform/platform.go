package platform

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vidgfx/engine/core"
)

const logCategory = "Platform"

// ErrNoVulkan is returned when no Vulkan loader can be found.
var ErrNoVulkan = errors.New("vulkan loader not available")

func init() {
	// GLFW must be initialised and terminated on the main OS thread
	runtime.LockOSThread()
}

/**
 * @brief Locates the Vulkan loader. GLFW is used when it can initialise, which
 * picks up the same loader a windowed application would. On machines without
 * a display the system loader is opened directly.
 */
type Platform struct {
	log         core.LogSink
	glfwStarted bool
	loader      string
}

func New(log core.LogSink) *Platform {
	if log == nil {
		log = core.NopLogger
	}
	return &Platform{log: log}
}

func (p *Platform) Startup() error {
	if err := glfw.Init(); err != nil {
		core.LogNotice(p.log, logCategory, "GLFW unavailable (%s), using the system Vulkan loader", err)
	} else {
		p.glfwStarted = true
		if glfw.VulkanSupported() {
			procAddr := glfw.GetVulkanGetInstanceProcAddress()
			if procAddr != nil {
				vk.SetGetInstanceProcAddr(procAddr)
				p.loader = "glfw"
			}
		}
	}

	if p.loader == "" {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			p.Shutdown()
			return fmt.Errorf("%w: %s", ErrNoVulkan, err)
		}
		p.loader = "system"
	}

	if err := vk.Init(); err != nil {
		p.Shutdown()
		return fmt.Errorf("failed to initialize vk: %w", err)
	}
	core.LogNotice(p.log, logCategory, "Vulkan loader: %s", p.loader)
	return nil
}

/** @brief Reports which loader Startup found: "glfw", "system" or "". */
func (p *Platform) Loader() string {
	return p.loader
}

func (p *Platform) Shutdown() error {
	if p.glfwStarted {
		glfw.Terminate()
		p.glfwStarted = false
	}
	p.loader = ""
	return nil
}
