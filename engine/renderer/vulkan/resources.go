package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vidgfx/engine/core"
	"github.com/spaghettifunk/vidgfx/engine/math"
	"github.com/spaghettifunk/vidgfx/engine/renderer/metadata"
)

/**
 * @brief Derives tiling, usage and memory from the texture flags. Staging
 * textures are transfer destinations only. Writable textures are linear so
 * they can be mapped; everything else lives in device local memory.
 */
func imageConfigFor(size math.Size, flags metadata.TextureFlag, format vk.Format) VulkanImageConfig {
	config := VulkanImageConfig{
		Width:       uint32(size.W),
		Height:      uint32(size.H),
		Format:      format,
		Tiling:      vk.ImageTilingOptimal,
		Usage:       vk.ImageUsageSampledBit | vk.ImageUsageTransferSrcBit | vk.ImageUsageTransferDstBit,
		MemoryFlags: vk.MemoryPropertyDeviceLocalBit,
		CreateView:  true,
	}
	if flags.Has(metadata.TextureFlagStaging) {
		config.Tiling = vk.ImageTilingLinear
		config.Usage = vk.ImageUsageTransferDstBit
		config.MemoryFlags = vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit
		config.CreateView = false
		return config
	}
	if flags.Has(metadata.TextureFlagWritable) {
		config.Tiling = vk.ImageTilingLinear
		config.MemoryFlags = vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit
	}
	if flags.Has(metadata.TextureFlagTargetable) {
		config.Usage |= vk.ImageUsageColorAttachmentBit
	}
	return config
}

/**
 * @brief Only texels written by the CPU keep BGRA byte order in an RGBA
 * image. Anything the GPU renders is stored in the image format's own order.
 */
func textureSwizzled(deviceSwizzled bool, desc metadata.TextureDesc) bool {
	if !deviceSwizzled {
		return false
	}
	return len(desc.Pixels) > 0 || desc.Flags.Has(metadata.TextureFlagWritable)
}

func (vr *VulkanRenderer) newImage(size math.Size, flags metadata.TextureFlag) (*VulkanImage, error) {
	device := vr.context.Device
	return ImageCreate(vr.context, device.GraphicsCommandPool, device.GraphicsQueue, vr.fence, imageConfigFor(size, flags, vr.format))
}

func (vr *VulkanRenderer) CreateTexture(desc metadata.TextureDesc) (metadata.TextureAllocation, error) {
	if !vr.initialized {
		return metadata.TextureAllocation{}, core.ErrNotInitialized
	}
	if desc.Size.IsEmpty() {
		return metadata.TextureAllocation{}, fmt.Errorf("%w: texture size %dx%d", core.ErrValidation, desc.Size.W, desc.Size.H)
	}
	if desc.Flags.Has(metadata.TextureFlagWritable) && desc.Flags.Has(metadata.TextureFlagTargetable) &&
		!vr.context.Device.FormatSupports(vr.format, vk.ImageTilingLinear, vk.FormatFeatureColorAttachmentBit) {
		return metadata.TextureAllocation{}, fmt.Errorf("%w: %s cannot render to writable textures", core.ErrUnsupportedInput, vr.context.Device.Name)
	}

	image, err := vr.newImage(desc.Size, desc.Flags)
	if err != nil {
		return metadata.TextureAllocation{}, err
	}
	tex := &vulkanTexture{
		image: image,
		flags: desc.Flags,
		size:  desc.Size,
		label: desc.Label,
	}

	if desc.Flags.Has(metadata.TextureFlagTargetable) && !desc.Flags.Has(metadata.TextureFlagStaging) {
		fb, err := FramebufferCreate(vr.context, vr.context.MainRenderpass, image.Width, image.Height, []vk.ImageView{image.View})
		if err != nil {
			image.ImageDestroy(vr.context)
			return metadata.TextureAllocation{}, err
		}
		tex.framebuffer = fb
	}

	if len(desc.Pixels) > 0 {
		if err := vr.uploadPixels(tex, desc.Pixels, desc.Stride); err != nil {
			vr.destroyTexture(tex)
			return metadata.TextureAllocation{}, err
		}
	}

	h := vr.handle()
	vr.textures[h] = tex
	return metadata.TextureAllocation{Handle: h, Swizzled: textureSwizzled(vr.swizzled, desc)}, nil
}

func (vr *VulkanRenderer) uploadPixels(tex *vulkanTexture, pixels []byte, stride int) error {
	rowBytes := tex.size.W * bytesPerTexel
	if stride == 0 {
		stride = rowBytes
	}
	if stride < rowBytes || len(pixels) < stride*(tex.size.H-1)+rowBytes {
		return fmt.Errorf("%w: %d bytes with stride %d do not cover %dx%d texels",
			core.ErrValidation, len(pixels), stride, tex.size.W, tex.size.H)
	}

	if tex.image.Tiling == vk.ImageTilingLinear {
		data, err := tex.image.Map(vr.context)
		if err != nil {
			return err
		}
		copyPixels(data, tex.image.RowPitch(), pixels, stride, rowBytes, tex.size.H)
		tex.image.Unmap(vr.context)
		return nil
	}

	device := vr.context.Device
	staging, err := BufferCreate(vr.context, vk.DeviceSize(rowBytes*tex.size.H), vk.BufferUsageTransferSrcBit)
	if err != nil {
		return err
	}
	defer staging.Destroy(vr.context)
	copyPixels(staging.Bytes(), rowBytes, pixels, stride, rowBytes, tex.size.H)

	cb, err := AllocateAndBeginSingleUse(vr.context, device.GraphicsCommandPool)
	if err != nil {
		return err
	}
	region := vk.BufferImageCopy{
		BufferOffset: 0,
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LayerCount: 1,
		},
		ImageExtent: vk.Extent3D{
			Width:  tex.image.Width,
			Height: tex.image.Height,
			Depth:  1,
		},
	}
	vk.CmdCopyBufferToImage(cb.Handle, staging.Handle, tex.image.Handle, vk.ImageLayoutGeneral, 1, []vk.BufferImageCopy{region})
	return cb.EndSingleUse(vr.context, device.GraphicsCommandPool, device.GraphicsQueue, vr.fence)
}

func (vr *VulkanRenderer) DestroyTexture(h metadata.Handle) {
	tex, ok := vr.textures[h]
	if !ok {
		return
	}
	delete(vr.textures, h)
	for i, bound := range vr.state.textures {
		if bound == h {
			vr.state.textures[i] = metadata.InvalidHandle
		}
	}
	if vr.state.target == h {
		vr.state.target = metadata.InvalidHandle
	}
	// a texture can still be referenced by the last submission
	if err := vr.Flush(); err != nil {
		core.LogWarning(vr.log, logCategory, "Failed to wait before destroying texture %s: %s", tex.label, err)
	}
	vr.destroyTexture(tex)
}

func (vr *VulkanRenderer) destroyTexture(tex *vulkanTexture) {
	if tex.framebuffer != nil {
		tex.framebuffer.Destroy(vr.context)
		tex.framebuffer = nil
	}
	tex.image.ImageDestroy(vr.context)
}

func (vr *VulkanRenderer) MapTexture(h metadata.Handle) ([]byte, int, error) {
	tex, ok := vr.textures[h]
	if !ok {
		return nil, 0, fmt.Errorf("%w: unknown texture %d", core.ErrValidation, h)
	}
	if !tex.flags.Has(metadata.TextureFlagWritable) && !tex.flags.Has(metadata.TextureFlagStaging) {
		return nil, 0, fmt.Errorf("%w: texture %s is not mappable", core.ErrValidation, tex.label)
	}
	data, err := tex.image.Map(vr.context)
	if err != nil {
		return nil, 0, err
	}
	return data, tex.image.RowPitch(), nil
}

func (vr *VulkanRenderer) UnmapTexture(h metadata.Handle) {
	if tex, ok := vr.textures[h]; ok {
		tex.image.Unmap(vr.context)
	}
}

func imageCopyRegion(dstPos math.Point, srcRect math.Rect) vk.ImageCopy {
	subresource := vk.ImageSubresourceLayers{
		AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
		LayerCount: 1,
	}
	return vk.ImageCopy{
		SrcSubresource: subresource,
		SrcOffset:      vk.Offset3D{X: int32(srcRect.X), Y: int32(srcRect.Y)},
		DstSubresource: subresource,
		DstOffset:      vk.Offset3D{X: int32(dstPos.X), Y: int32(dstPos.Y)},
		Extent:         vk.Extent3D{Width: uint32(srcRect.W), Height: uint32(srcRect.H), Depth: 1},
	}
}

func (vr *VulkanRenderer) CopyTexture(dst metadata.Handle, dstPos math.Point, src metadata.Handle, srcRect math.Rect) error {
	dt, ok := vr.textures[dst]
	st, ok2 := vr.textures[src]
	if !ok || !ok2 {
		return fmt.Errorf("%w: unknown texture in copy %d <- %d", core.ErrValidation, dst, src)
	}
	if srcRect.IsEmpty() {
		return nil
	}

	device := vr.context.Device
	cb, err := AllocateAndBeginSingleUse(vr.context, device.GraphicsCommandPool)
	if err != nil {
		return err
	}
	vk.CmdCopyImage(cb.Handle,
		st.image.Handle, vk.ImageLayoutGeneral,
		dt.image.Handle, vk.ImageLayoutGeneral,
		1, []vk.ImageCopy{imageCopyRegion(dstPos, srcRect)})
	return cb.EndSingleUse(vr.context, device.GraphicsCommandPool, device.GraphicsQueue, vr.fence)
}

//-----------------------------------------------------------------------------
// Buffers

func bufferUsage(kind metadata.BufferKind) vk.BufferUsageFlagBits {
	if kind == metadata.BufferKindConstant {
		return vk.BufferUsageUniformBufferBit
	}
	return vk.BufferUsageVertexBufferBit
}

func (vr *VulkanRenderer) CreateBuffer(kind metadata.BufferKind, numFloats int) (metadata.Handle, error) {
	if !vr.initialized {
		return metadata.InvalidHandle, core.ErrNotInitialized
	}
	if numFloats <= 0 {
		return metadata.InvalidHandle, fmt.Errorf("%w: buffer of %d floats", core.ErrValidation, numFloats)
	}
	buf, err := BufferCreate(vr.context, vk.DeviceSize(numFloats*4), bufferUsage(kind))
	if err != nil {
		return metadata.InvalidHandle, err
	}
	h := vr.handle()
	vr.buffers[h] = buf
	return h, nil
}

func (vr *VulkanRenderer) DestroyBuffer(h metadata.Handle) {
	buf, ok := vr.buffers[h]
	if !ok {
		return
	}
	delete(vr.buffers, h)
	for i, bound := range vr.state.constants {
		if bound == h {
			vr.state.constants[i] = metadata.InvalidHandle
		}
	}
	if vr.state.vertexBuffer == h {
		vr.state.vertexBuffer = metadata.InvalidHandle
	}
	if err := vr.Flush(); err != nil {
		core.LogWarning(vr.log, logCategory, "Failed to wait before destroying buffer %d: %s", h, err)
	}
	buf.Destroy(vr.context)
}

/** @brief Buffers are host coherent and every submission is waited on, so the write is visible to the next draw. */
func (vr *VulkanRenderer) UpdateBuffer(h metadata.Handle, data []float32) error {
	buf, ok := vr.buffers[h]
	if !ok {
		return fmt.Errorf("%w: unknown buffer %d", core.ErrValidation, h)
	}
	return buf.WriteFloats(data)
}
