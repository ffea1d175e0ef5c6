package vlbi

import "sync"

// DepositMode selects how Grid.Deposit combines a new sample with
// whatever already occupies a cell.
type DepositMode int

const (
	// DepositAverage implements aperture-synthesis accumulation: a
	// running mean of every visibility sample landing in the cell.
	DepositAverage DepositMode = iota
	// DepositCoverage marks a cell as visited (UV-coverage mode); the
	// deposited value itself is discarded and the cell is set to 1.
	DepositCoverage
)

// Grid is the UV-plane accumulator: a flat complex visibility buffer plus
// a per-cell real coverage count and per-cell averaging denominator.
// Mutations are serialized by a single mutex: deposits from concurrent
// baseline workers must be safe, and the grid is small enough relative
// to one correlation pass that a single lock never becomes the
// bottleneck (accumulator buffers elsewhere in this codebase use the
// same one-mutex-per-struct pattern rather than splitting by region).
type Grid struct {
	mu sync.Mutex

	U, V int // grid dimensions

	visibility []complex128
	coverage   []float64
	k          []uint32 // per-bin running-average denominator
}

// NewGrid allocates a zeroed U-by-V grid.
func NewGrid(u, v int) *Grid {
	n := u * v
	return &Grid{
		U: u, V: v,
		visibility: make([]complex128, n),
		coverage:   make([]float64, n),
		k:          make([]uint32, n),
	}
}

// Index converts (col, row) grid coordinates to a flat cell index, or
// reports ok=false if out of bounds. Out-of-grid indices are dropped
// silently rather than surfaced as an error, to keep the hot deposit
// path allocation-free.
func (g *Grid) Index(col, row int) (idx int, ok bool) {
	if col < 0 || col >= g.U || row < 0 || row >= g.V {
		return 0, false
	}
	return row*g.U + col, true
}

// MirrorIndex returns the Hermitian-conjugate cell index for idx, using
// the len-1-idx convention rather than len-idx.
func (g *Grid) MirrorIndex(idx int) int {
	return len(g.visibility) - 1 - idx
}

// Deposit combines value into cell idx according to mode, and — unless
// the cell is already its own mirror (the DC/center cell) — writes the
// conjugate into the Hermitian-mirrored cell so the plane stays
// Hermitian-symmetric.
func (g *Grid) Deposit(idx int, value complex128, mode DepositMode) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.depositAt(idx, value, mode)
	mirror := g.MirrorIndex(idx)
	if mirror != idx {
		g.depositAt(mirror, complexConj(value), mode)
	}
}

func (g *Grid) depositAt(idx int, value complex128, mode DepositMode) {
	switch mode {
	case DepositCoverage:
		g.visibility[idx] = 1
		g.coverage[idx]++
	default: // DepositAverage
		k := g.k[idx]
		g.visibility[idx] = (g.visibility[idx]*complex(float64(k), 0) + value) / complex(float64(k+1), 0)
		g.k[idx] = k + 1
		g.coverage[idx]++
	}
}

// At returns the current visibility and coverage count for cell idx.
func (g *Grid) At(idx int) (value complex128, coverage float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.visibility[idx], g.coverage[idx]
}

// Visibility returns a copy of the full visibility buffer.
func (g *Grid) Visibility() []complex128 {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]complex128, len(g.visibility))
	copy(out, g.visibility)
	return out
}

// Coverage returns a copy of the full per-cell coverage buffer.
func (g *Grid) Coverage() []float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]float64, len(g.coverage))
	copy(out, g.coverage)
	return out
}

func complexConj(c complex128) complex128 {
	return complex(real(c), -imag(c))
}
