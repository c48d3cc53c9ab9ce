// Package renderertest provides a recording Device so that code driving a
// renderer.Context can be tested without a GPU.
package renderertest

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spaghettifunk/vidgfx/engine/math"
	"github.com/spaghettifunk/vidgfx/engine/renderer/metadata"
)

var ErrInjected = errors.New("injected device failure")

// Texture is the fake device storage of a texture.
type Texture struct {
	Desc   metadata.TextureDesc
	Pixels []byte
	Stride int
	Mapped bool
}

type Buffer struct {
	Kind metadata.BufferKind
	Data []float32
}

/**
 * @brief A Device that keeps textures and buffers in memory and records every
 * call as a line of text. Draw does not rasterize anything.
 */
type Device struct {
	// Calls holds one line per device call, in order.
	Calls []string

	FailLoadShaders   bool
	FailCreateTexture bool
	FailCreateBuffer  bool
	FailUpdateBuffer  bool
	FailDraw          bool
	// Swizzle makes every texture allocation report RGBA storage.
	Swizzle bool

	textures map[metadata.Handle]*Texture
	buffers  map[metadata.Handle]*Buffer
	next     metadata.Handle

	Loaded   map[string][]byte
	Target   metadata.Handle
	Viewport math.Rect
	Shader   metadata.Shader
	Bound    []metadata.Handle
	Draws    int
	ShutDown bool
}

func NewDevice() *Device {
	return &Device{
		textures: make(map[metadata.Handle]*Texture),
		buffers:  make(map[metadata.Handle]*Buffer),
		Loaded:   make(map[string][]byte),
	}
}

func (d *Device) record(format string, args ...interface{}) {
	d.Calls = append(d.Calls, fmt.Sprintf(format, args...))
}

func (d *Device) handle() metadata.Handle {
	d.next++
	return d.next
}

// Reset forgets the recorded calls but keeps every resource.
func (d *Device) Reset() {
	d.Calls = nil
	d.Draws = 0
}

// Count returns how many recorded calls start with op.
func (d *Device) Count(op string) int {
	n := 0
	for _, c := range d.Calls {
		if len(c) >= len(op) && c[:len(op)] == op && (len(c) == len(op) || c[len(op)] == ' ') {
			n++
		}
	}
	return n
}

func (d *Device) Texture(h metadata.Handle) *Texture {
	return d.textures[h]
}

func (d *Device) Buffer(h metadata.Handle) *Buffer {
	return d.buffers[h]
}

func (d *Device) NumTextures() int {
	return len(d.textures)
}

func (d *Device) NumBuffers() int {
	return len(d.buffers)
}

func (d *Device) LoadShaders(loader metadata.ShaderLoader) error {
	d.record("LoadShaders")
	if d.FailLoadShaders {
		return ErrInjected
	}
	for _, s := range metadata.Shaders() {
		vs, ps := s.StageNames()
		for _, name := range []string{vs, ps} {
			code, err := loader.Load(name)
			if err != nil {
				return fmt.Errorf("shader %s: %w", name, err)
			}
			d.Loaded[name] = code
		}
	}
	return nil
}

func (d *Device) Flush() error {
	d.record("Flush")
	return nil
}

func (d *Device) Shutdown() error {
	d.record("Shutdown")
	d.ShutDown = true
	return nil
}

func (d *Device) CreateBuffer(kind metadata.BufferKind, numFloats int) (metadata.Handle, error) {
	if d.FailCreateBuffer {
		return metadata.InvalidHandle, ErrInjected
	}
	h := d.handle()
	d.buffers[h] = &Buffer{Kind: kind, Data: make([]float32, numFloats)}
	d.record("CreateBuffer %d %d", h, numFloats)
	return h, nil
}

func (d *Device) DestroyBuffer(buf metadata.Handle) {
	d.record("DestroyBuffer %d", buf)
	delete(d.buffers, buf)
}

func (d *Device) UpdateBuffer(buf metadata.Handle, data []float32) error {
	d.record("UpdateBuffer %d %v", buf, data)
	if d.FailUpdateBuffer {
		return ErrInjected
	}
	b, ok := d.buffers[buf]
	if !ok {
		return fmt.Errorf("unknown buffer %d", buf)
	}
	if len(data) > len(b.Data) {
		return fmt.Errorf("buffer %d holds %d floats, got %d", buf, len(b.Data), len(data))
	}
	copy(b.Data, data)
	return nil
}

func (d *Device) CreateTexture(desc metadata.TextureDesc) (metadata.TextureAllocation, error) {
	if d.FailCreateTexture {
		return metadata.TextureAllocation{}, ErrInjected
	}
	h := d.handle()
	// rows are padded so callers have to honour the stride
	stride := desc.Size.W*4 + 16
	tex := &Texture{
		Desc:   desc,
		Pixels: make([]byte, stride*desc.Size.H),
		Stride: stride,
	}
	if len(desc.Pixels) > 0 {
		src := desc.Stride
		if src == 0 {
			src = desc.Size.W * 4
		}
		for y := 0; y < desc.Size.H && (y+1)*src <= len(desc.Pixels); y++ {
			copy(tex.Pixels[y*stride:y*stride+desc.Size.W*4], desc.Pixels[y*src:])
		}
	}
	tex.Desc.Pixels = nil
	d.textures[h] = tex
	d.record("CreateTexture %d %dx%d %d", h, desc.Size.W, desc.Size.H, desc.Flags)
	return metadata.TextureAllocation{Handle: h, Swizzled: d.Swizzle}, nil
}

func (d *Device) DestroyTexture(tex metadata.Handle) {
	d.record("DestroyTexture %d", tex)
	delete(d.textures, tex)
}

func (d *Device) MapTexture(tex metadata.Handle) ([]byte, int, error) {
	d.record("MapTexture %d", tex)
	t, ok := d.textures[tex]
	if !ok {
		return nil, 0, fmt.Errorf("unknown texture %d", tex)
	}
	t.Mapped = true
	return t.Pixels, t.Stride, nil
}

func (d *Device) UnmapTexture(tex metadata.Handle) {
	d.record("UnmapTexture %d", tex)
	if t, ok := d.textures[tex]; ok {
		t.Mapped = false
	}
}

func (d *Device) CopyTexture(dst metadata.Handle, dstPos math.Point, src metadata.Handle, srcRect math.Rect) error {
	d.record("CopyTexture %d %d,%d %d %d,%d,%d,%d", dst, dstPos.X, dstPos.Y, src, srcRect.X, srcRect.Y, srcRect.W, srcRect.H)
	dt, ok := d.textures[dst]
	st, ok2 := d.textures[src]
	if !ok || !ok2 {
		return fmt.Errorf("unknown texture in copy %d <- %d", dst, src)
	}
	for y := 0; y < srcRect.H; y++ {
		s := (srcRect.Y+y)*st.Stride + srcRect.X*4
		o := (dstPos.Y+y)*dt.Stride + dstPos.X*4
		copy(dt.Pixels[o:o+srcRect.W*4], st.Pixels[s:s+srcRect.W*4])
	}
	return nil
}

func (d *Device) SetRenderTarget(tex metadata.Handle, viewport math.Rect) {
	d.record("SetRenderTarget %d %d,%d,%d,%d", tex, viewport.X, viewport.Y, viewport.W, viewport.H)
	d.Target = tex
	d.Viewport = viewport
}

func (d *Device) Clear(color math.Color) error {
	d.record("Clear %v", color)
	return nil
}

func (d *Device) SetShader(shader metadata.Shader) {
	d.record("SetShader %s", shader)
	d.Shader = shader
}

func (d *Device) SetTopology(topology metadata.Topology) {
	d.record("SetTopology %s", topology)
}

func (d *Device) SetBlending(blending metadata.Blending) {
	d.record("SetBlending %s", blending)
}

func (d *Device) SetTextures(textures ...metadata.Handle) {
	d.record("SetTextures %v", textures)
	d.Bound = append(d.Bound[:0], textures...)
}

func (d *Device) SetSampler(filter metadata.TextureFilter) {
	d.record("SetSampler %s", filter)
}

func (d *Device) SetConstantBuffer(stage metadata.ShaderStage, buf metadata.Handle) {
	d.record("SetConstantBuffer %d %d", stage, buf)
}

func (d *Device) SetVertexBuffer(buf metadata.Handle, vertSize int) {
	d.record("SetVertexBuffer %d %d", buf, vertSize)
}

func (d *Device) Draw(numVertices, startVertex int) error {
	d.record("Draw %d %d", numVertices, startVertex)
	if d.FailDraw {
		return ErrInjected
	}
	d.Draws++
	return nil
}

/**
 * @brief A ShaderLoader serving the same placeholder bytecode for every
 * permutation name the Context asks for.
 */
type ShaderLoader map[string][]byte

func NewShaderLoader() ShaderLoader {
	l := make(ShaderLoader)
	for _, s := range metadata.Shaders() {
		vs, ps := s.StageNames()
		l[vs] = []byte{0x03, 0x02, 0x23, 0x07}
		l[ps] = []byte{0x03, 0x02, 0x23, 0x07}
	}
	return l
}

func (l ShaderLoader) Load(name string) ([]byte, error) {
	code, ok := l[name]
	if !ok {
		return nil, fmt.Errorf("no shader named %s", name)
	}
	return code, nil
}

// Names returns the permutation names in sorted order.
func (l ShaderLoader) Names() []string {
	names := make([]string, 0, len(l))
	for n := range l {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
