package pitch

// BlockProcessor transforms one fixed-size block of samples into an output
// block of the same length. Implementations are called from a real-time
// context and must not block or allocate.
type BlockProcessor interface {
	ProcessBlock(dst, src []float64)
}

var _ BlockProcessor = (*Shifter)(nil)
