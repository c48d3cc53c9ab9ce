package vulkan

import (
	"errors"
	"fmt"
	"runtime"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vidgfx/engine/core"
	"github.com/spaghettifunk/vidgfx/engine/math"
	"github.com/spaghettifunk/vidgfx/engine/renderer/metadata"
)

const validationLayerName = "VK_LAYER_KHRONOS_validation"

// size of the zeroed uniform buffer bound in place of a missing one; covers
// the largest constant block the shaders declare
const fallbackUniformSize = 256

type vulkanTexture struct {
	image       *VulkanImage
	framebuffer *VulkanFramebuffer
	flags       metadata.TextureFlag
	size        math.Size
	label       string
}

/**
 * @brief A headless Vulkan implementation of renderer.Device. It renders into
 * offscreen images only; nothing is presented.
 *
 * Every operation records a one time command buffer, submits it and waits for
 * it, so the device is always idle between calls. This keeps resource reuse
 * trivially safe at the cost of throughput.
 */
type VulkanRenderer struct {
	context *VulkanContext
	config  core.RendererConfig
	log     core.LogSink

	format   vk.Format
	swizzled bool
	// validation layers were requested and found
	validation bool

	fence          *VulkanFence
	descriptors    *VulkanDescriptors
	pipelineLayout vk.PipelineLayout
	samplers       map[metadata.TextureFilter]vk.Sampler
	dummyImage     *VulkanImage
	dummyBuffer    *VulkanBuffer

	modules   map[string]*VulkanShaderStage
	pipelines map[VulkanPipelineKey]*VulkanPipeline

	textures   map[metadata.Handle]*vulkanTexture
	buffers    map[metadata.Handle]*VulkanBuffer
	nextHandle metadata.Handle

	state drawState

	initialized bool
}

type drawState struct {
	target       metadata.Handle
	viewport     math.Rect
	shader       metadata.Shader
	topology     metadata.Topology
	blending     metadata.Blending
	textures     [maxTextureSlots]metadata.Handle
	filter       metadata.TextureFilter
	constants    [2]metadata.Handle
	vertexBuffer metadata.Handle
	vertexSize   int
}

func New(log core.LogSink, config core.RendererConfig) *VulkanRenderer {
	if log == nil {
		log = core.NopLogger
	}
	return &VulkanRenderer{
		context: &VulkanContext{
			Allocator: nil,
			log:       log,
			locks:     NewVulkanLockPool(),
		},
		config:    config,
		log:       log,
		samplers:  make(map[metadata.TextureFilter]vk.Sampler),
		modules:   make(map[string]*VulkanShaderStage),
		pipelines: make(map[VulkanPipelineKey]*VulkanPipeline),
		textures:  make(map[metadata.Handle]*vulkanTexture),
		buffers:   make(map[metadata.Handle]*VulkanBuffer),
	}
}

/**
 * @brief Creates the instance, picks a device and sets up every object that
 * lives as long as the renderer. The loader must already be initialised, see
 * platform.Startup.
 */
func (vr *VulkanRenderer) Initialize(appName string) error {
	if vr.initialized {
		return nil
	}
	if err := vr.createInstance(appName); err != nil {
		return fmt.Errorf("%w: %s", core.ErrUnrecoverable, err)
	}
	if err := vr.createDevice(); err != nil {
		vr.Shutdown()
		return fmt.Errorf("%w: %s", core.ErrUnrecoverable, err)
	}
	vr.initialized = true
	core.LogNotice(vr.log, logCategory, "Vulkan renderer initialized successfully.")
	return nil
}

func (vr *VulkanRenderer) createInstance(appName string) error {
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 1, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(appName),
		PEngineName:        VulkanSafeString("vidgfx"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	// Nothing is presented, so no surface extensions are needed.
	requiredExtensions := []string{}
	if runtime.GOOS == "darwin" {
		requiredExtensions = append(requiredExtensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}
	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(requiredExtensions)

	layers := []string{}
	if vr.config.Validation {
		if instanceHasLayer(validationLayerName) {
			core.LogNotice(vr.log, logCategory, "Validation layers enabled.")
			layers = append(layers, validationLayerName)
			vr.validation = true
		} else {
			core.LogWarning(vr.log, logCategory, "Required validation layer is missing: %s", validationLayerName)
		}
	}
	createInfo.EnabledLayerCount = uint32(len(layers))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(layers)

	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, vr.context.Allocator, &instance); res != vk.Success {
		return fmt.Errorf("failed in creating the Vulkan Instance with error `%s`", VulkanResultString(res, true))
	}
	vr.context.Instance = instance
	if err := vk.InitInstance(instance); err != nil {
		return err
	}
	core.LogNotice(vr.log, logCategory, "Vulkan Instance created.")
	return nil
}

func instanceHasLayer(name string) bool {
	var count uint32
	if res := vk.EnumerateInstanceLayerProperties(&count, nil); res != vk.Success || count == 0 {
		return false
	}
	available := make([]vk.LayerProperties, count)
	if res := vk.EnumerateInstanceLayerProperties(&count, available); res != vk.Success {
		return false
	}
	for i := range available {
		available[i].Deref()
		if vk.ToString(available[i].LayerName[:]) == name {
			return true
		}
	}
	return false
}

/**
 * @brief Picks the texel format. BGRA is used when it can be sampled with
 * both tilings and rendered to; otherwise RGBA is used and every texture is
 * reported as swizzled.
 */
func selectTextureFormat(bgra vk.FormatProperties) (vk.Format, bool) {
	optimal := vk.FormatFeatureSampledImageBit | vk.FormatFeatureColorAttachmentBit | vk.FormatFeatureColorAttachmentBlendBit
	if formatFeaturesMatch(bgra, vk.ImageTilingOptimal, optimal) &&
		formatFeaturesMatch(bgra, vk.ImageTilingLinear, vk.FormatFeatureSampledImageBit) {
		return formatBGRA, false
	}
	return formatRGBA, true
}

func (vr *VulkanRenderer) createDevice() error {
	if err := DeviceCreate(vr.context); err != nil {
		return err
	}
	device := vr.context.Device

	var bgra vk.FormatProperties
	vk.GetPhysicalDeviceFormatProperties(device.PhysicalDevice, formatBGRA, &bgra)
	bgra.Deref()
	vr.format, vr.swizzled = selectTextureFormat(bgra)
	if vr.swizzled {
		core.LogWarning(vr.log, logCategory, "BGRA textures are not supported by %s, falling back to RGBA", device.Name)
	}

	rp, err := RenderpassCreate(vr.context, vr.format)
	if err != nil {
		return err
	}
	vr.context.MainRenderpass = rp

	fence, err := NewFence(vr.context, false)
	if err != nil {
		return err
	}
	vr.fence = fence

	descriptors, err := DescriptorsCreate(vr.context)
	if err != nil {
		return err
	}
	vr.descriptors = descriptors

	layout, err := PipelineLayoutCreate(vr.context, []vk.DescriptorSetLayout{descriptors.Layout})
	if err != nil {
		return err
	}
	vr.pipelineLayout = layout

	for _, filter := range []metadata.TextureFilter{
		metadata.TextureFilterPoint,
		metadata.TextureFilterBilinear,
		metadata.TextureFilterResizeLayer,
	} {
		sampler, err := vr.createSampler(filter)
		if err != nil {
			return err
		}
		vr.samplers[filter] = sampler
	}

	dummyImage, err := vr.newImage(math.NewSize(1, 1), 0)
	if err != nil {
		return err
	}
	vr.dummyImage = dummyImage

	dummyBuffer, err := BufferCreate(vr.context, fallbackUniformSize, vk.BufferUsageUniformBufferBit)
	if err != nil {
		return err
	}
	vr.dummyBuffer = dummyBuffer
	return nil
}

func samplerInfo(filter metadata.TextureFilter) vk.SamplerCreateInfo {
	info := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterNearest,
		MinFilter:               vk.FilterNearest,
		MipmapMode:              vk.SamplerMipmapModeNearest,
		AddressModeU:            vk.SamplerAddressModeClampToEdge,
		AddressModeV:            vk.SamplerAddressModeClampToEdge,
		AddressModeW:            vk.SamplerAddressModeClampToEdge,
		AnisotropyEnable:        vk.False,
		MaxAnisotropy:           1.0,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		BorderColor:             vk.BorderColorFloatTransparentBlack,
		UnnormalizedCoordinates: vk.False,
	}
	switch filter {
	case metadata.TextureFilterBilinear:
		info.MagFilter = vk.FilterLinear
		info.MinFilter = vk.FilterLinear
	case metadata.TextureFilterResizeLayer:
		info.MagFilter = vk.FilterLinear
		info.MinFilter = vk.FilterLinear
		info.AddressModeU = vk.SamplerAddressModeRepeat
		info.AddressModeV = vk.SamplerAddressModeRepeat
		info.AddressModeW = vk.SamplerAddressModeRepeat
	}
	return info
}

func (vr *VulkanRenderer) createSampler(filter metadata.TextureFilter) (vk.Sampler, error) {
	info := samplerInfo(filter)
	var sampler vk.Sampler
	if res := vk.CreateSampler(vr.context.Device.LogicalDevice, &info, vr.context.Allocator, &sampler); res != vk.Success {
		return nil, fmt.Errorf("failed to create %s sampler: %s", filter, VulkanResultString(res, false))
	}
	return sampler, nil
}

/** @brief Reports whether textures are stored as RGBA. */
func (vr *VulkanRenderer) Swizzled() bool {
	return vr.swizzled
}

func (vr *VulkanRenderer) DeviceName() string {
	if vr.context.Device == nil {
		return ""
	}
	return vr.context.Device.Name
}

/**
 * @brief Compiles every stage the shader set needs. The previous modules and
 * pipelines are only replaced once all new stages compiled.
 */
func (vr *VulkanRenderer) LoadShaders(loader metadata.ShaderLoader) error {
	if !vr.initialized {
		return core.ErrNotInitialized
	}
	modules := make(map[string]*VulkanShaderStage)
	destroyNew := func() {
		for _, m := range modules {
			m.Destroy(vr.context)
		}
	}

	for _, shader := range metadata.Shaders() {
		vs, ps := shader.StageNames()
		for _, stage := range []struct {
			name string
			flag vk.ShaderStageFlagBits
		}{{vs, vk.ShaderStageVertexBit}, {ps, vk.ShaderStageFragmentBit}} {
			if _, ok := modules[stage.name]; ok {
				continue
			}
			code, err := loader.Load(stage.name)
			if err != nil {
				destroyNew()
				return fmt.Errorf("shader %s: %w", stage.name, err)
			}
			module, err := NewShaderModule(vr.context, stage.name, code, stage.flag)
			if err != nil {
				destroyNew()
				return err
			}
			modules[stage.name] = module
		}
	}

	if err := vr.Flush(); err != nil {
		destroyNew()
		return err
	}
	vr.destroyPipelines()
	for _, m := range vr.modules {
		m.Destroy(vr.context)
	}
	vr.modules = modules
	core.LogNotice(vr.log, logCategory, "Loaded %d shader stages.", len(modules))
	return nil
}

func (vr *VulkanRenderer) destroyPipelines() {
	for key, p := range vr.pipelines {
		p.Destroy(vr.context)
		delete(vr.pipelines, key)
	}
}

func (vr *VulkanRenderer) Flush() error {
	if vr.context.Device == nil || vr.context.Device.GraphicsQueue == nil {
		return nil
	}
	device := vr.context.Device
	return vr.context.locks.SafeQueueCall(uint32(device.GraphicsQueueIndex), func() error {
		if res := vk.QueueWaitIdle(device.GraphicsQueue); res != vk.Success {
			return fmt.Errorf("vkQueueWaitIdle failed with %s", VulkanResultString(res, true))
		}
		return nil
	})
}

/** @brief Destroys every resource and the device. Safe to call more than once. */
func (vr *VulkanRenderer) Shutdown() error {
	var errs []error
	if vr.context.Device != nil && vr.context.Device.LogicalDevice != nil {
		if res := vk.DeviceWaitIdle(vr.context.Device.LogicalDevice); res != vk.Success {
			errs = append(errs, fmt.Errorf("vkDeviceWaitIdle failed with %s", VulkanResultString(res, true)))
		}

		// Destroy in the opposite order of creation.
		for h := range vr.textures {
			vr.DestroyTexture(h)
		}
		for h := range vr.buffers {
			vr.DestroyBuffer(h)
		}
		vr.destroyPipelines()
		for name, m := range vr.modules {
			m.Destroy(vr.context)
			delete(vr.modules, name)
		}
		if vr.dummyBuffer != nil {
			vr.dummyBuffer.Destroy(vr.context)
			vr.dummyBuffer = nil
		}
		if vr.dummyImage != nil {
			vr.dummyImage.ImageDestroy(vr.context)
			vr.dummyImage = nil
		}
		for filter, sampler := range vr.samplers {
			vk.DestroySampler(vr.context.Device.LogicalDevice, sampler, vr.context.Allocator)
			delete(vr.samplers, filter)
		}
		if vr.pipelineLayout != nil {
			vk.DestroyPipelineLayout(vr.context.Device.LogicalDevice, vr.pipelineLayout, vr.context.Allocator)
			vr.pipelineLayout = nil
		}
		if vr.descriptors != nil {
			vr.descriptors.Destroy(vr.context)
			vr.descriptors = nil
		}
		if vr.fence != nil {
			vr.fence.Destroy(vr.context)
			vr.fence = nil
		}
		if vr.context.MainRenderpass != nil {
			vr.context.MainRenderpass.RenderpassDestroy(vr.context)
			vr.context.MainRenderpass = nil
		}
		core.LogNotice(vr.log, logCategory, "Destroying Vulkan device...")
		DeviceDestroy(vr.context)
	}

	if vr.context.Instance != nil {
		core.LogNotice(vr.log, logCategory, "Destroying Vulkan instance...")
		vk.DestroyInstance(vr.context.Instance, vr.context.Allocator)
		vr.context.Instance = nil
	}
	vr.initialized = false
	return errors.Join(errs...)
}

func (vr *VulkanRenderer) handle() metadata.Handle {
	vr.nextHandle++
	return vr.nextHandle
}
