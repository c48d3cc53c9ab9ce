package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vidgfx/engine/core"
)

const logCategory = "Vulkan"

/** @brief Everything the helpers of this package need to talk to the device. */
type VulkanContext struct {
	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks

	Device *VulkanDevice

	// The single render pass every targetable texture is drawn with.
	MainRenderpass *VulkanRenderpass

	log   core.LogSink
	locks *VulkanLockPool
}

/**
 * @brief Picks the first memory type allowed by typeFilter that has every
 * flag in required.
 */
func memoryTypeIndex(types []vk.MemoryType, typeFilter uint32, required vk.MemoryPropertyFlags) (uint32, bool) {
	for i, t := range types {
		if typeFilter&(1<<uint(i)) != 0 && t.PropertyFlags&required == required {
			return uint32(i), true
		}
	}
	return 0, false
}

func (vc *VulkanContext) FindMemoryIndex(typeFilter uint32, required vk.MemoryPropertyFlags) (uint32, error) {
	var props vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(vc.Device.PhysicalDevice, &props)
	props.Deref()

	types := make([]vk.MemoryType, props.MemoryTypeCount)
	for i := range types {
		props.MemoryTypes[i].Deref()
		types[i] = props.MemoryTypes[i]
	}
	index, ok := memoryTypeIndex(types, typeFilter, required)
	if !ok {
		return 0, fmt.Errorf("%w: no memory type with flags %#x", core.ErrAllocation, uint32(required))
	}
	return index, nil
}
