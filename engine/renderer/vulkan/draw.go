package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vidgfx/engine/core"
	"github.com/spaghettifunk/vidgfx/engine/math"
	"github.com/spaghettifunk/vidgfx/engine/renderer/metadata"
)

func (vr *VulkanRenderer) SetRenderTarget(h metadata.Handle, viewport math.Rect) {
	vr.state.target = h
	vr.state.viewport = viewport
}

func (vr *VulkanRenderer) SetShader(shader metadata.Shader) {
	vr.state.shader = shader
}

func (vr *VulkanRenderer) SetTopology(topology metadata.Topology) {
	vr.state.topology = topology
}

func (vr *VulkanRenderer) SetBlending(blending metadata.Blending) {
	vr.state.blending = blending
}

func (vr *VulkanRenderer) SetTextures(textures ...metadata.Handle) {
	for i := range vr.state.textures {
		vr.state.textures[i] = metadata.InvalidHandle
		if i < len(textures) {
			vr.state.textures[i] = textures[i]
		}
	}
	if len(textures) > maxTextureSlots {
		core.LogWarning(vr.log, logCategory, "Only %d textures can be bound, ignoring %d", maxTextureSlots, len(textures)-maxTextureSlots)
	}
}

func (vr *VulkanRenderer) SetSampler(filter metadata.TextureFilter) {
	vr.state.filter = filter
}

func (vr *VulkanRenderer) SetConstantBuffer(stage metadata.ShaderStage, buf metadata.Handle) {
	if stage == metadata.ShaderStagePixel {
		vr.state.constants[1] = buf
		return
	}
	vr.state.constants[0] = buf
}

func (vr *VulkanRenderer) SetVertexBuffer(buf metadata.Handle, vertSize int) {
	vr.state.vertexBuffer = buf
	vr.state.vertexSize = vertSize
}

func (vr *VulkanRenderer) currentTarget() (*vulkanTexture, error) {
	tex, ok := vr.textures[vr.state.target]
	if !ok || tex.framebuffer == nil {
		return nil, fmt.Errorf("%w: no render target bound", core.ErrValidation)
	}
	return tex, nil
}

// clearRect is the part of the viewport that lies on the target.
func clearRect(viewport math.Rect, width, height uint32) vk.ClearRect {
	return vk.ClearRect{
		Rect:       scissorRect(viewport, width, height),
		LayerCount: 1,
	}
}

/** @brief Fills the viewport of the current target with color. */
func (vr *VulkanRenderer) Clear(color math.Color) error {
	target, err := vr.currentTarget()
	if err != nil {
		return err
	}
	rect := clearRect(vr.state.viewport, target.framebuffer.Width, target.framebuffer.Height)
	if rect.Rect.Extent.Width == 0 || rect.Rect.Extent.Height == 0 {
		return nil
	}

	device := vr.context.Device
	cb, err := AllocateAndBeginSingleUse(vr.context, device.GraphicsCommandPool)
	if err != nil {
		return err
	}
	vr.context.MainRenderpass.RenderpassBegin(cb, target.framebuffer, vr.state.viewport)
	attachment := vk.ClearAttachment{
		AspectMask:      vk.ImageAspectFlags(vk.ImageAspectColorBit),
		ColorAttachment: 0,
		ClearValue:      vk.NewClearValue([]float32{color.R(), color.G(), color.B(), color.A()}),
	}
	vk.CmdClearAttachments(cb.Handle, 1, []vk.ClearAttachment{attachment}, 1, []vk.ClearRect{rect})
	vr.context.MainRenderpass.RenderpassEnd(cb)
	return cb.EndSingleUse(vr.context, device.GraphicsCommandPool, device.GraphicsQueue, vr.fence)
}

func (vr *VulkanRenderer) pipeline(key VulkanPipelineKey) (*VulkanPipeline, error) {
	if p, ok := vr.pipelines[key]; ok {
		return p, nil
	}
	vsName, psName := key.Shader.StageNames()
	vs, ok := vr.modules[vsName]
	ps, ok2 := vr.modules[psName]
	if !ok || !ok2 {
		return nil, fmt.Errorf("%w: shader %s is not loaded", core.ErrValidation, key.Shader)
	}
	p, err := NewGraphicsPipeline(vr.context, &VulkanPipelineConfig{
		Renderpass: vr.context.MainRenderpass,
		Layout:     vr.pipelineLayout,
		Stride:     uint32(key.VertexSize * 4),
		Attributes: vertexAttributes(key.VertexSize),
		Stages:     []vk.PipelineShaderStageCreateInfo{vs.ShaderStageCreateInfo, ps.ShaderStageCreateInfo},
		Topology:   key.Topology,
		Blending:   key.Blending,
		Swizzled:   vr.swizzled,
	})
	if err != nil {
		return nil, err
	}
	vr.pipelines[key] = p
	return p, nil
}

func (vr *VulkanRenderer) bindings() *VulkanDescriptorBindings {
	b := &VulkanDescriptorBindings{
		Camera:      vr.dummyBuffer.Handle,
		CameraRange: vr.dummyBuffer.Size,
		Pixel:       vr.dummyBuffer.Handle,
		PixelRange:  vr.dummyBuffer.Size,
		Sampler:     vr.samplers[vr.state.filter],
	}
	if b.Sampler == nil {
		b.Sampler = vr.samplers[metadata.TextureFilterPoint]
	}
	if buf, ok := vr.buffers[vr.state.constants[0]]; ok {
		b.Camera, b.CameraRange = buf.Handle, buf.Size
	}
	if buf, ok := vr.buffers[vr.state.constants[1]]; ok {
		b.Pixel, b.PixelRange = buf.Handle, buf.Size
	}
	for i, h := range vr.state.textures {
		b.Views[i] = vr.dummyImage.View
		if tex, ok := vr.textures[h]; ok && tex.image.View != nil {
			b.Views[i] = tex.image.View
		}
	}
	return b
}

/** @brief Draws with the bound state. Everything is validated before recording. */
func (vr *VulkanRenderer) Draw(numVertices, startVertex int) error {
	if numVertices <= 0 {
		return nil
	}
	target, err := vr.currentTarget()
	if err != nil {
		return err
	}
	vb, ok := vr.buffers[vr.state.vertexBuffer]
	if !ok {
		return fmt.Errorf("%w: no vertex buffer bound", core.ErrValidation)
	}
	vertexSize := vr.state.vertexSize
	if vertexSize <= 0 {
		vertexSize = vr.state.shader.VertexSize()
	}
	if vk.DeviceSize((startVertex+numVertices)*vertexSize*4) > vb.Size {
		return fmt.Errorf("%w: drawing %d vertices from %d overruns the vertex buffer", core.ErrValidation, numVertices, startVertex)
	}
	p, err := vr.pipeline(VulkanPipelineKey{
		Shader:     vr.state.shader,
		Topology:   vr.state.topology,
		Blending:   vr.state.blending,
		VertexSize: vertexSize,
	})
	if err != nil {
		return err
	}

	// the previous submission was waited on, so the set is free
	vr.descriptors.Update(vr.context, vr.bindings())

	device := vr.context.Device
	cb, err := AllocateAndBeginSingleUse(vr.context, device.GraphicsCommandPool)
	if err != nil {
		return err
	}
	vr.context.MainRenderpass.RenderpassBegin(cb, target.framebuffer, vr.state.viewport)
	p.Bind(cb)
	vr.descriptors.Bind(cb, p.Layout)
	vk.CmdBindVertexBuffers(cb.Handle, 0, 1, []vk.Buffer{vb.Handle}, []vk.DeviceSize{0})
	vk.CmdDraw(cb.Handle, uint32(numVertices), 1, uint32(startVertex), 0)
	vr.context.MainRenderpass.RenderpassEnd(cb)
	return cb.EndSingleUse(vr.context, device.GraphicsCommandPool, device.GraphicsQueue, vr.fence)
}
