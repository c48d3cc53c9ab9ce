package metadata

/** @brief How vertices are assembled into triangles. */
type Topology int

const (
	TopologyTriangleList Topology = iota
	TopologyTriangleStrip
)

func (t Topology) String() string {
	if t == TopologyTriangleStrip {
		return "triangleStrip"
	}
	return "triangleList"
}

/** @brief Determines how pixel shader output is combined with the target. */
type Blending int

const (
	/** @brief Output replaces the target. */
	BlendingNone Blending = iota
	/** @brief Straight alpha. */
	BlendingAlpha
	/** @brief Colour already multiplied by alpha. */
	BlendingPremultiplied
)

func (b Blending) String() string {
	switch b {
	case BlendingAlpha:
		return "alpha"
	case BlendingPremultiplied:
		return "premultiplied"
	}
	return "none"
}

/** @brief What a device buffer is used for. */
type BufferKind int

const (
	BufferKindVertex BufferKind = iota
	BufferKindConstant
)
