package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
)

/**
 * @brief A host visible, coherent buffer that stays mapped for its whole life.
 * Vertex and constant data is small and rewritten often, so it is never moved
 * to device local memory.
 */
type VulkanBuffer struct {
	Handle vk.Buffer
	Memory vk.DeviceMemory
	Size   vk.DeviceSize
	Usage  vk.BufferUsageFlagBits

	mapped unsafe.Pointer
}

func BufferCreate(context *VulkanContext, size vk.DeviceSize, usage vk.BufferUsageFlagBits) (*VulkanBuffer, error) {
	outBuffer := &VulkanBuffer{
		Size:  size,
		Usage: usage,
	}

	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       vk.BufferUsageFlags(usage),
		SharingMode: vk.SharingModeExclusive,
	}
	var handle vk.Buffer
	if res := vk.CreateBuffer(context.Device.LogicalDevice, &bufferInfo, context.Allocator, &handle); res != vk.Success {
		return nil, fmt.Errorf("vkCreateBuffer failed with %s", VulkanResultString(res, false))
	}
	outBuffer.Handle = handle

	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(context.Device.LogicalDevice, handle, &requirements)
	requirements.Deref()

	memoryType, err := context.FindMemoryIndex(requirements.MemoryTypeBits,
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		outBuffer.Destroy(context)
		return nil, err
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: uint32(memoryType),
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(context.Device.LogicalDevice, &allocateInfo, context.Allocator, &memory); res != vk.Success {
		outBuffer.Destroy(context)
		return nil, fmt.Errorf("unable to create vulkan buffer because the required memory allocation failed: %s", VulkanResultString(res, false))
	}
	outBuffer.Memory = memory

	if res := vk.BindBufferMemory(context.Device.LogicalDevice, handle, memory, 0); res != vk.Success {
		outBuffer.Destroy(context)
		return nil, fmt.Errorf("vkBindBufferMemory failed with %s", VulkanResultString(res, false))
	}

	var data unsafe.Pointer
	if res := vk.MapMemory(context.Device.LogicalDevice, memory, 0, size, 0, &data); res != vk.Success {
		outBuffer.Destroy(context)
		return nil, fmt.Errorf("vkMapMemory failed with %s", VulkanResultString(res, false))
	}
	outBuffer.mapped = data
	return outBuffer, nil
}

/** @brief Returns the mapped contents. */
func (b *VulkanBuffer) Bytes() []byte {
	if b.mapped == nil {
		return nil
	}
	return unsafe.Slice((*byte)(b.mapped), int(b.Size))
}

/** @brief Copies floats to the start of the buffer. Excess values are an error. */
func (b *VulkanBuffer) WriteFloats(data []float32) error {
	if len(data) == 0 {
		return nil
	}
	n := len(data) * 4
	if vk.DeviceSize(n) > b.Size {
		return fmt.Errorf("%d floats do not fit a buffer of %d bytes", len(data), b.Size)
	}
	src := unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), n)
	copy(b.Bytes(), src)
	return nil
}

func (b *VulkanBuffer) Destroy(context *VulkanContext) {
	if b.mapped != nil {
		vk.UnmapMemory(context.Device.LogicalDevice, b.Memory)
		b.mapped = nil
	}
	if b.Memory != nil {
		vk.FreeMemory(context.Device.LogicalDevice, b.Memory, context.Allocator)
		b.Memory = nil
	}
	if b.Handle != nil {
		vk.DestroyBuffer(context.Device.LogicalDevice, b.Handle, context.Allocator)
		b.Handle = nil
	}
}
