package vulkan

import vk "github.com/goki/vulkan"

/** @brief Number of textures a pixel shader can sample at once. */
const maxTextureSlots = 3

// descriptor bindings shared by every shader
const (
	bindingCamera   uint32 = 0
	bindingPixel    uint32 = 1
	bindingTextures uint32 = 2
	numBindings            = int(bindingTextures) + maxTextureSlots
)

const (
	/** @brief Preferred texel format. Matches the byte order of all CPU side pixel data. */
	formatBGRA = vk.FormatB8g8r8a8Unorm
	/** @brief Fallback for devices that cannot sample or render BGRA. Shaders swizzle. */
	formatRGBA = vk.FormatR8g8b8a8Unorm
)

const bytesPerTexel = 4

/** @brief Upper bound on a single fence wait, in nanoseconds. */
const fenceTimeoutNs uint64 = 5_000_000_000
