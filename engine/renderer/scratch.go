package renderer

import (
	"github.com/spaghettifunk/vidgfx/engine/core"
	"github.com/spaghettifunk/vidgfx/engine/math"
	"github.com/spaghettifunk/vidgfx/engine/renderer/metadata"
)

// textureFactory is the part of the Context the scratch pool allocates through.
type textureFactory interface {
	CreateTexture(size math.Size, writable, targetable bool) (*Texture, error)
	DestroyTexture(tex *Texture)
}

/**
 * @brief Two ping-pong render targets sized to a power of two square that
 * covers every size requested so far.
 *
 * The pool never shrinks. Callers render into the requested size only and
 * must scale normalized coordinates by Ratio when sampling the result.
 */
type ScratchTargetPool struct {
	factory textureFactory
	log     core.LogSink

	textures  [2]*Texture
	requested math.Size
	capacity  math.Size
	next      int

	// called after the physical capacity changed
	onCapacityChange func()
}

func NewScratchTargetPool(factory textureFactory, log core.LogSink) *ScratchTargetPool {
	return &ScratchTargetPool{
		factory: factory,
		log:     log,
	}
}

/**
 * @brief Records size as the requested size and grows both textures when it
 * does not fit the current capacity on either axis.
 */
func (p *ScratchTargetPool) Resize(size math.Size) {
	p.requested = size

	if p.textures[0] != nil && p.capacity.Contains(size) {
		return
	}

	// square, sized from the larger side of the request alone
	edge := int(math.NextPowTwo(uint32(math.Max(math.Max(size.W, size.H), 1))))
	capacity := math.NewSize(edge, edge)
	core.LogNotice(p.log, logCategory, "Setting scratch texture size to %dx%d", capacity.W, capacity.H)

	p.release()
	for i := range p.textures {
		tex, err := p.factory.CreateTexture(capacity, false, true)
		if err != nil {
			core.LogWarning(p.log, logCategory, "Failed to create scratch texture: %s", err)
			p.release()
			break
		}
		p.textures[i] = tex
	}
	if p.textures[0] != nil {
		p.capacity = capacity
	}
	if p.onCapacityChange != nil {
		p.onCapacityChange()
	}
}

func (p *ScratchTargetPool) release() {
	for i, tex := range p.textures {
		if tex != nil {
			p.factory.DestroyTexture(tex)
			p.textures[i] = nil
		}
	}
	p.capacity = math.Size{}
}

/**
 * @brief Returns the scratch target that was not handed out last, so the
 * other one still holds the previous result.
 */
func (p *ScratchTargetPool) Next() metadata.RenderTarget {
	target := metadata.RenderTargetScratchA
	if p.next == 1 {
		target = metadata.RenderTargetScratchB
	}
	p.next ^= 1
	return target
}

// Texture returns nil for non scratch targets and after a failed allocation.
func (p *ScratchTargetPool) Texture(target metadata.RenderTarget) *Texture {
	switch target {
	case metadata.RenderTargetScratchA:
		return p.textures[0]
	case metadata.RenderTargetScratchB:
		return p.textures[1]
	}
	return nil
}

func (p *ScratchTargetPool) RequestedSize() math.Size {
	return p.requested
}

// Capacity is the physical size of both textures, zero before allocation.
func (p *ScratchTargetPool) Capacity() math.Size {
	return p.capacity
}

/**
 * @brief The part of the physical texture covered by the requested size.
 */
func (p *ScratchTargetPool) Ratio() math.Vec2 {
	physical := p.capacity
	if p.textures[0] == nil || physical.IsEmpty() {
		physical = p.requested
	}
	if physical.IsEmpty() {
		return math.NewVec2One()
	}
	return math.NewVec2FromSize(p.requested).Div(math.NewVec2FromSize(physical))
}

func (p *ScratchTargetPool) Destroy() {
	p.release()
	p.requested = math.Size{}
}
