package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
)

type VulkanImage struct {
	Handle vk.Image
	Memory vk.DeviceMemory
	View   vk.ImageView
	Width  uint32
	Height uint32
	Format vk.Format
	Tiling vk.ImageTiling

	size     vk.DeviceSize
	mapped   unsafe.Pointer
	offset   int
	rowPitch int
}

type VulkanImageConfig struct {
	Width, Height uint32
	Format        vk.Format
	Tiling        vk.ImageTiling
	Usage         vk.ImageUsageFlagBits
	MemoryFlags   vk.MemoryPropertyFlagBits
	CreateView    bool
}

/**
 * @brief Creates a 2D image with one mip level and moves it to the general
 * layout. Linear images start preinitialized so host writes made before the
 * transition are kept.
 */
func ImageCreate(context *VulkanContext, pool vk.CommandPool, queue vk.Queue, fence *VulkanFence, config VulkanImageConfig) (*VulkanImage, error) {
	outImage := &VulkanImage{
		Width:  config.Width,
		Height: config.Height,
		Format: config.Format,
		Tiling: config.Tiling,
	}

	initialLayout := vk.ImageLayoutUndefined
	if config.Tiling == vk.ImageTilingLinear {
		initialLayout = vk.ImageLayoutPreinitialized
	}

	imageCreateInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    config.Format,
		Extent: vk.Extent3D{
			Width:  config.Width,
			Height: config.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        config.Tiling,
		Usage:         vk.ImageUsageFlags(config.Usage),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: initialLayout,
	}

	var handle vk.Image
	if res := vk.CreateImage(context.Device.LogicalDevice, &imageCreateInfo, context.Allocator, &handle); res != vk.Success {
		return nil, fmt.Errorf("vkCreateImage failed with %s", VulkanResultString(res, false))
	}
	outImage.Handle = handle

	var requirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(context.Device.LogicalDevice, handle, &requirements)
	requirements.Deref()

	memoryType, err := context.FindMemoryIndex(requirements.MemoryTypeBits, vk.MemoryPropertyFlags(config.MemoryFlags))
	if err != nil {
		outImage.ImageDestroy(context)
		return nil, err
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: uint32(memoryType),
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(context.Device.LogicalDevice, &allocateInfo, context.Allocator, &memory); res != vk.Success {
		outImage.ImageDestroy(context)
		return nil, fmt.Errorf("vkAllocateMemory failed with %s", VulkanResultString(res, false))
	}
	outImage.Memory = memory
	outImage.size = requirements.Size

	if res := vk.BindImageMemory(context.Device.LogicalDevice, handle, memory, 0); res != vk.Success {
		outImage.ImageDestroy(context)
		return nil, fmt.Errorf("vkBindImageMemory failed with %s", VulkanResultString(res, false))
	}

	if config.CreateView {
		if err := outImage.createView(context); err != nil {
			outImage.ImageDestroy(context)
			return nil, err
		}
	}

	if config.Tiling == vk.ImageTilingLinear {
		subresource := vk.ImageSubresource{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
		}
		var layout vk.SubresourceLayout
		vk.GetImageSubresourceLayout(context.Device.LogicalDevice, handle, &subresource, &layout)
		layout.Deref()
		outImage.offset = int(layout.Offset)
		outImage.rowPitch = int(layout.RowPitch)
	}

	if err := outImage.transitionToGeneral(context, pool, queue, fence, initialLayout); err != nil {
		outImage.ImageDestroy(context)
		return nil, err
	}
	return outImage, nil
}

func (vi *VulkanImage) createView(context *VulkanContext) error {
	viewInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    vi.Handle,
		ViewType: vk.ImageViewType2d,
		Format:   vi.Format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	var view vk.ImageView
	if res := vk.CreateImageView(context.Device.LogicalDevice, &viewInfo, context.Allocator, &view); res != vk.Success {
		return fmt.Errorf("failed to create image view: %s", VulkanResultString(res, false))
	}
	vi.View = view
	return nil
}

func (vi *VulkanImage) transitionToGeneral(context *VulkanContext, pool vk.CommandPool, queue vk.Queue, fence *VulkanFence, from vk.ImageLayout) error {
	cb, err := AllocateAndBeginSingleUse(context, pool)
	if err != nil {
		return err
	}
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       vk.AccessFlags(vk.AccessHostWriteBit),
		DstAccessMask:       vk.AccessFlags(vk.AccessMemoryReadBit | vk.AccessMemoryWriteBit),
		OldLayout:           from,
		NewLayout:           vk.ImageLayoutGeneral,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               vi.Handle,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	vk.CmdPipelineBarrier(cb.Handle,
		vk.PipelineStageFlags(vk.PipelineStageHostBit|vk.PipelineStageTopOfPipeBit),
		vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit),
		0,
		0, nil,
		0, nil,
		1, []vk.ImageMemoryBarrier{barrier})
	return cb.EndSingleUse(context, pool, queue, fence)
}

/**
 * @brief Maps a linear image. The returned slice starts at the first texel and
 * rows are RowPitch bytes apart.
 */
func (vi *VulkanImage) Map(context *VulkanContext) ([]byte, error) {
	if vi.Tiling != vk.ImageTilingLinear {
		return nil, fmt.Errorf("only linear images can be mapped")
	}
	if vi.mapped == nil {
		var data unsafe.Pointer
		if res := vk.MapMemory(context.Device.LogicalDevice, vi.Memory, 0, vi.size, 0, &data); res != vk.Success {
			return nil, fmt.Errorf("vkMapMemory failed with %s", VulkanResultString(res, false))
		}
		vi.mapped = data
	}
	all := unsafe.Slice((*byte)(vi.mapped), int(vi.size))
	return all[vi.offset:], nil
}

func (vi *VulkanImage) Unmap(context *VulkanContext) {
	if vi.mapped != nil {
		vk.UnmapMemory(context.Device.LogicalDevice, vi.Memory)
		vi.mapped = nil
	}
}

func (vi *VulkanImage) RowPitch() int {
	return vi.rowPitch
}

func (vi *VulkanImage) ImageDestroy(context *VulkanContext) {
	vi.Unmap(context)
	if vi.View != nil {
		vk.DestroyImageView(context.Device.LogicalDevice, vi.View, context.Allocator)
		vi.View = nil
	}
	if vi.Memory != nil {
		vk.FreeMemory(context.Device.LogicalDevice, vi.Memory, context.Allocator)
		vi.Memory = nil
	}
	if vi.Handle != nil {
		vk.DestroyImage(context.Device.LogicalDevice, vi.Handle, context.Allocator)
		vi.Handle = nil
	}
}

// copyPixels copies rows of rowBytes from src to dst honouring both pitches.
func copyPixels(dst []byte, dstPitch int, src []byte, srcPitch int, rowBytes, rows int) {
	for y := 0; y < rows; y++ {
		d := y * dstPitch
		s := y * srcPitch
		if s+rowBytes > len(src) || d+rowBytes > len(dst) {
			return
		}
		copy(dst[d:d+rowBytes], src[s:s+rowBytes])
	}
}
