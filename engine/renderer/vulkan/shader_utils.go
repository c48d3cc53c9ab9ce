package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vidgfx/engine/assets/loaders"
)

/**
 * @brief Represents a single shader stage.
 */
type VulkanShaderStage struct {
	Name string
	/** @brief The internal shader module Handle. */
	Handle vk.ShaderModule
	/** @brief The pipeline shader stage creation info. */
	ShaderStageCreateInfo vk.PipelineShaderStageCreateInfo
}

/**
 * @brief Creates a shader module from SPIR-V bytecode. The entry point is
 * always "main".
 */
func NewShaderModule(context *VulkanContext, name string, code []byte, stage vk.ShaderStageFlagBits) (*VulkanShaderStage, error) {
	if err := loaders.ValidateBytecode(code); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(code)),
		PCode:    loaders.BytesToBytecode(code),
	}

	var handle vk.ShaderModule
	if err := context.locks.SafeCall(ShaderManagement, func() error {
		if res := vk.CreateShaderModule(context.Device.LogicalDevice, &createInfo, context.Allocator, &handle); res != vk.Success {
			return fmt.Errorf("vkCreateShaderModule failed for %s with %s", name, VulkanResultString(res, false))
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return &VulkanShaderStage{
		Name:   name,
		Handle: handle,
		ShaderStageCreateInfo: vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  stage,
			Module: handle,
			PName:  VulkanSafeString("main"),
		},
	}, nil
}

func (s *VulkanShaderStage) Destroy(context *VulkanContext) {
	if s.Handle == nil {
		return
	}
	context.locks.SafeCall(ShaderManagement, func() error {
		vk.DestroyShaderModule(context.Device.LogicalDevice, s.Handle, context.Allocator)
		return nil
	})
	s.Handle = nil
}
