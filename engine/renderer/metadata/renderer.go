package metadata

/**
 * @brief Identifies one of the render targets a context can draw into. The set
 * is closed: only the package level values below exist, and the zero value is
 * Screen.
 */
type RenderTarget struct {
	index uint8
}

var (
	/** @brief The final presentation surface. Headless devices back it with an off-screen texture. */
	RenderTargetScreen = RenderTarget{0}
	/** @brief First canvas buffer. Shares its matrices with CanvasB. */
	RenderTargetCanvasA = RenderTarget{1}
	/** @brief Second canvas buffer. */
	RenderTargetCanvasB = RenderTarget{2}
	/** @brief First scratch buffer, owned by the scratch pool. */
	RenderTargetScratchA = RenderTarget{3}
	/** @brief Second scratch buffer, owned by the scratch pool. */
	RenderTargetScratchB = RenderTarget{4}
	/** @brief Textures supplied by the application through SetUserRenderTarget. */
	RenderTargetUser = RenderTarget{5}
)

// NumRenderTargets is the number of distinct RenderTarget values.
const NumRenderTargets = 6

// RenderTargets lists every target in index order.
func RenderTargets() [NumRenderTargets]RenderTarget {
	return [NumRenderTargets]RenderTarget{
		RenderTargetScreen,
		RenderTargetCanvasA,
		RenderTargetCanvasB,
		RenderTargetScratchA,
		RenderTargetScratchB,
		RenderTargetUser,
	}
}

// Index is stable and dense, suitable for indexing arrays of NumRenderTargets.
func (rt RenderTarget) Index() int {
	return int(rt.index)
}

func (rt RenderTarget) IsCanvas() bool {
	return rt == RenderTargetCanvasA || rt == RenderTargetCanvasB
}

func (rt RenderTarget) IsScratch() bool {
	return rt == RenderTargetScratchA || rt == RenderTargetScratchB
}

/**
 * @brief Returns the matrix slot used by the target. Canvas and scratch pairs
 * share a slot each.
 */
func (rt RenderTarget) MatrixSlot() int {
	switch {
	case rt.IsCanvas():
		return 1
	case rt.IsScratch():
		return 2
	case rt == RenderTargetUser:
		return 3
	}
	return 0
}

// NumMatrixSlots is the number of distinct values MatrixSlot returns.
const NumMatrixSlots = 4

func (rt RenderTarget) String() string {
	switch rt {
	case RenderTargetScreen:
		return "screen"
	case RenderTargetCanvasA:
		return "canvasA"
	case RenderTargetCanvasB:
		return "canvasB"
	case RenderTargetScratchA:
		return "scratchA"
	case RenderTargetScratchB:
		return "scratchB"
	case RenderTargetUser:
		return "user"
	}
	return "unknown"
}
