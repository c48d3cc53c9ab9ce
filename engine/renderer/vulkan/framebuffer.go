package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

/** @brief Makes one texture a render target of the main render pass. */
type VulkanFramebuffer struct {
	Handle        vk.Framebuffer
	Width, Height uint32
}

func FramebufferCreate(context *VulkanContext, renderpass *VulkanRenderpass, width, height uint32, views []vk.ImageView) (*VulkanFramebuffer, error) {
	createInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      renderpass.Handle,
		AttachmentCount: uint32(len(views)),
		PAttachments:    views,
		Width:           width,
		Height:          height,
		Layers:          1,
	}

	var handle vk.Framebuffer
	if err := context.locks.SafeCall(ResourceManagement, func() error {
		if res := vk.CreateFramebuffer(context.Device.LogicalDevice, &createInfo, context.Allocator, &handle); res != vk.Success {
			return fmt.Errorf("vkCreateFramebuffer failed with %s", VulkanResultString(res, false))
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &VulkanFramebuffer{Handle: handle, Width: width, Height: height}, nil
}

func (vfb *VulkanFramebuffer) Destroy(context *VulkanContext) {
	if vfb.Handle == nil {
		return
	}
	context.locks.SafeCall(ResourceManagement, func() error {
		vk.DestroyFramebuffer(context.Device.LogicalDevice, vfb.Handle, context.Allocator)
		return nil
	})
	vfb.Handle = nil
}
