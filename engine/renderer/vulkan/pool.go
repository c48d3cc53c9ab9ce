package vulkan

import "sync"

/** @brief Object kinds whose Vulkan calls must be externally synchronized. */
type LockGroup int

const (
	ResourceManagement LockGroup = iota
	PipelineManagement
	ShaderManagement
	numLockGroups
)

func (g LockGroup) String() string {
	switch g {
	case ResourceManagement:
		return "resource_management"
	case PipelineManagement:
		return "pipeline_management"
	case ShaderManagement:
		return "shader_management"
	}
	return "unknown"
}

/**
 * @brief One mutex per lock group plus one per queue family. Queue mutexes
 * are created on first use.
 */
type VulkanLockPool struct {
	groups [numLockGroups]sync.Mutex

	mu     sync.Mutex
	queues map[uint32]*sync.Mutex
}

func NewVulkanLockPool() *VulkanLockPool {
	return &VulkanLockPool{queues: make(map[uint32]*sync.Mutex)}
}

func (vs *VulkanLockPool) SafeCall(group LockGroup, fn func() error) error {
	l := &vs.groups[group]
	l.Lock()
	defer l.Unlock()
	return fn()
}

func (vs *VulkanLockPool) queue(family uint32) *sync.Mutex {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	l, ok := vs.queues[family]
	if !ok {
		l = &sync.Mutex{}
		vs.queues[family] = l
	}
	return l
}

/** @brief Serializes submissions and waits on the queues of one family. */
func (vs *VulkanLockPool) SafeQueueCall(family uint32, fn func() error) error {
	l := vs.queue(family)
	l.Lock()
	defer l.Unlock()
	return fn()
}
