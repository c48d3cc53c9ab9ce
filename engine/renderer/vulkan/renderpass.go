package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vidgfx/engine/math"
)

type VulkanRenderpass struct {
	Handle vk.RenderPass
	Format vk.Format
}

/**
 * @brief Creates a render pass with a single colour attachment that keeps its
 * previous contents. Targets live in the general layout before and after the
 * pass so they can be sampled and copied without transitions.
 */
func RenderpassCreate(context *VulkanContext, format vk.Format) (*VulkanRenderpass, error) {
	colorAttachment := vk.AttachmentDescription{
		Format:         format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpLoad,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutGeneral,
		FinalLayout:    vk.ImageLayoutGeneral,
	}

	colorAttachmentReference := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutGeneral,
	}}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    colorAttachmentReference,
	}

	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit),
		SrcAccessMask: vk.AccessFlags(vk.AccessMemoryWriteBit),
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageFragmentShaderBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit | vk.AccessShaderReadBit),
	}

	renderpassCreateInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vk.AttachmentDescription{colorAttachment},
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}

	var pRenderPass vk.RenderPass
	if res := vk.CreateRenderPass(context.Device.LogicalDevice, &renderpassCreateInfo, context.Allocator, &pRenderPass); res != vk.Success {
		return nil, fmt.Errorf("failed to create render pass: %s", VulkanResultString(res, false))
	}
	return &VulkanRenderpass{
		Handle: pRenderPass,
		Format: format,
	}, nil
}

func (vr *VulkanRenderpass) RenderpassDestroy(context *VulkanContext) {
	if vr.Handle != nil {
		vk.DestroyRenderPass(context.Device.LogicalDevice, vr.Handle, context.Allocator)
		vr.Handle = nil
	}
}

/** @brief Begins the pass on framebuffer and sets the viewport and scissor to area. */
func (vr *VulkanRenderpass) RenderpassBegin(commandBuffer *VulkanCommandBuffer, framebuffer *VulkanFramebuffer, area math.Rect) {
	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  vr.Handle,
		Framebuffer: framebuffer.Handle,
		RenderArea: vk.Rect2D{
			Extent: vk.Extent2D{
				Width:  framebuffer.Width,
				Height: framebuffer.Height,
			},
		},
	}
	vk.CmdBeginRenderPass(commandBuffer.Handle, &beginInfo, vk.SubpassContentsInline)

	vk.CmdSetViewport(commandBuffer.Handle, 0, 1, []vk.Viewport{flippedViewport(area)})
	vk.CmdSetScissor(commandBuffer.Handle, 0, 1, []vk.Rect2D{scissorRect(area, framebuffer.Width, framebuffer.Height)})
	commandBuffer.State = COMMAND_BUFFER_STATE_IN_RENDER_PASS
}

func (vr *VulkanRenderpass) RenderpassEnd(commandBuffer *VulkanCommandBuffer) {
	vk.CmdEndRenderPass(commandBuffer.Handle)
	commandBuffer.State = COMMAND_BUFFER_STATE_RECORDING
}

// flippedViewport maps clip space y up onto the target with the origin at the
// top left, matching the projections the context builds.
func flippedViewport(area math.Rect) vk.Viewport {
	return vk.Viewport{
		X:        float32(area.X),
		Y:        float32(area.Y + area.H),
		Width:    float32(area.W),
		Height:   -float32(area.H),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}
}

// scissorRect clips area to the framebuffer.
func scissorRect(area math.Rect, width, height uint32) vk.Rect2D {
	clipped := area.Intersected(math.NewRect(0, 0, int(width), int(height)))
	return vk.Rect2D{
		Offset: vk.Offset2D{X: int32(clipped.X), Y: int32(clipped.Y)},
		Extent: vk.Extent2D{Width: uint32(clipped.W), Height: uint32(clipped.H)},
	}
}
