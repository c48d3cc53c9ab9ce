package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

/**
 * @brief The single descriptor set every shader binds: the camera constants
 * for the vertex stage, the pixel constants and three combined image
 * samplers. Submissions are serialized and waited on, so one set is enough
 * and it is rewritten before every draw.
 */
type VulkanDescriptors struct {
	Layout vk.DescriptorSetLayout
	Pool   vk.DescriptorPool
	Set    vk.DescriptorSet
}

/** @brief What a draw binds. A nil buffer falls back to the dummy resources. */
type VulkanDescriptorBindings struct {
	Camera      vk.Buffer
	CameraRange vk.DeviceSize
	Pixel       vk.Buffer
	PixelRange  vk.DeviceSize
	Views       [maxTextureSlots]vk.ImageView
	Sampler     vk.Sampler
}

func descriptorLayoutBindings() []vk.DescriptorSetLayoutBinding {
	bindings := []vk.DescriptorSetLayoutBinding{
		{
			Binding:         bindingCamera,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageVertexBit),
		},
		{
			Binding:         bindingPixel,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		},
	}
	for i := 0; i < maxTextureSlots; i++ {
		bindings = append(bindings, vk.DescriptorSetLayoutBinding{
			Binding:         bindingTextures + uint32(i),
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		})
	}
	return bindings
}

func DescriptorsCreate(context *VulkanContext) (*VulkanDescriptors, error) {
	out := &VulkanDescriptors{}
	bindings := descriptorLayoutBindings()

	layoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}
	var layout vk.DescriptorSetLayout
	if res := vk.CreateDescriptorSetLayout(context.Device.LogicalDevice, &layoutInfo, context.Allocator, &layout); res != vk.Success {
		return nil, fmt.Errorf("vkCreateDescriptorSetLayout failed with %s", VulkanResultString(res, false))
	}
	out.Layout = layout

	poolSizes := []vk.DescriptorPoolSize{
		{Type: vk.DescriptorTypeUniformBuffer, DescriptorCount: 2},
		{Type: vk.DescriptorTypeCombinedImageSampler, DescriptorCount: maxTextureSlots},
	}
	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       1,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
	}
	var pool vk.DescriptorPool
	if res := vk.CreateDescriptorPool(context.Device.LogicalDevice, &poolInfo, context.Allocator, &pool); res != vk.Success {
		out.Destroy(context)
		return nil, fmt.Errorf("vkCreateDescriptorPool failed with %s", VulkanResultString(res, false))
	}
	out.Pool = pool

	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout},
	}
	var set vk.DescriptorSet
	if res := vk.AllocateDescriptorSets(context.Device.LogicalDevice, &allocInfo, &set); res != vk.Success {
		out.Destroy(context)
		return nil, fmt.Errorf("vkAllocateDescriptorSets failed with %s", VulkanResultString(res, false))
	}
	out.Set = set
	return out, nil
}

/** @brief Rewrites every binding of the set. Only valid while the set is not in use. */
func (d *VulkanDescriptors) Update(context *VulkanContext, b *VulkanDescriptorBindings) {
	writes := make([]vk.WriteDescriptorSet, 0, numBindings)
	writes = append(writes,
		vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          d.Set,
			DstBinding:      bindingCamera,
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			PBufferInfo:     []vk.DescriptorBufferInfo{{Buffer: b.Camera, Range: b.CameraRange}},
		},
		vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          d.Set,
			DstBinding:      bindingPixel,
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			PBufferInfo:     []vk.DescriptorBufferInfo{{Buffer: b.Pixel, Range: b.PixelRange}},
		},
	)
	for i := 0; i < maxTextureSlots; i++ {
		writes = append(writes, vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          d.Set,
			DstBinding:      bindingTextures + uint32(i),
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			PImageInfo: []vk.DescriptorImageInfo{{
				Sampler:     b.Sampler,
				ImageView:   b.Views[i],
				ImageLayout: vk.ImageLayoutGeneral,
			}},
		})
	}
	vk.UpdateDescriptorSets(context.Device.LogicalDevice, uint32(len(writes)), writes, 0, nil)
}

func (d *VulkanDescriptors) Bind(commandBuffer *VulkanCommandBuffer, layout vk.PipelineLayout) {
	vk.CmdBindDescriptorSets(commandBuffer.Handle, vk.PipelineBindPointGraphics, layout, 0, 1, []vk.DescriptorSet{d.Set}, 0, nil)
}

func (d *VulkanDescriptors) Destroy(context *VulkanContext) {
	// the set is freed with its pool
	if d.Pool != nil {
		vk.DestroyDescriptorPool(context.Device.LogicalDevice, d.Pool, context.Allocator)
		d.Pool = nil
		d.Set = nil
	}
	if d.Layout != nil {
		vk.DestroyDescriptorSetLayout(context.Device.LogicalDevice, d.Layout, context.Allocator)
		d.Layout = nil
	}
}
