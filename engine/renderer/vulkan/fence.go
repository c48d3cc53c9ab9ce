package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vidgfx/engine/core"
)

/**
 * @brief The fence single use submissions are waited on with. The signaled
 * state is tracked on the host so a fence that already completed is neither
 * waited on nor reset twice.
 */
type VulkanFence struct {
	Handle   vk.Fence
	signaled bool
}

func NewFence(context *VulkanContext, signaled bool) (*VulkanFence, error) {
	createInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		createInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var handle vk.Fence
	if res := vk.CreateFence(context.Device.LogicalDevice, &createInfo, context.Allocator, &handle); res != vk.Success {
		return nil, fmt.Errorf("vkCreateFence failed with %s", VulkanResultString(res, false))
	}
	return &VulkanFence{Handle: handle, signaled: signaled}, nil
}

// fenceError maps the result of a wait; a lost device cannot be recovered from.
func fenceError(res vk.Result) error {
	switch res {
	case vk.Success:
		return nil
	case vk.Timeout:
		return fmt.Errorf("timed out waiting for the queue")
	case vk.ErrorDeviceLost:
		return fmt.Errorf("%w: %s", core.ErrUnrecoverable, VulkanResultString(res, true))
	}
	return fmt.Errorf("vkWaitForFences failed with %s", VulkanResultString(res, true))
}

func (f *VulkanFence) Wait(context *VulkanContext, timeoutNs uint64) error {
	if f.signaled {
		return nil
	}
	res := vk.WaitForFences(context.Device.LogicalDevice, 1, []vk.Fence{f.Handle}, vk.True, timeoutNs)
	if err := fenceError(res); err != nil {
		core.LogCritical(context.log, logCategory, "Fence wait: %s", err)
		return err
	}
	f.signaled = true
	return nil
}

// Reset must be called before the fence is handed to another submission.
func (f *VulkanFence) Reset(context *VulkanContext) error {
	if !f.signaled {
		return nil
	}
	if res := vk.ResetFences(context.Device.LogicalDevice, 1, []vk.Fence{f.Handle}); res != vk.Success {
		return fmt.Errorf("vkResetFences failed with %s", VulkanResultString(res, false))
	}
	f.signaled = false
	return nil
}

func (f *VulkanFence) Destroy(context *VulkanContext) {
	if f.Handle == nil {
		return
	}
	vk.DestroyFence(context.Device.LogicalDevice, f.Handle, context.Allocator)
	f.Handle = nil
	f.signaled = false
}
