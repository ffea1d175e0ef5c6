package vlbi

import (
	"gonum.org/v1/gonum/dsp/fourier"
)

// ApplyMask zeroes every cell of g where mask's corresponding cell is
// zero. g and mask must share dimensions; on mismatch neither grid is
// modified.
func (g *Grid) ApplyMask(mask *Grid) error {
	if g.U != mask.U || g.V != mask.V {
		return newErr(ErrDimensionMismatch, "grid %dx%d vs mask %dx%d", g.U, g.V, mask.U, mask.V)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	mask.mu.Lock()
	defer mask.mu.Unlock()
	for i := range g.visibility {
		if mask.visibility[i] == 0 {
			g.visibility[i] = 0
		}
	}
	return nil
}

// ApplyConvolution replaces g's visibility buffer with its 2-D circular
// convolution against kernel (no zero padding, so the result wraps
// around the grid edges), computed via FFT multiplication
// (convolution theorem) using gonum's FFT since no dedicated
// convolution routine exists anywhere in the retrieved corpus.
func (g *Grid) ApplyConvolution(kernel *Grid) error {
	if g.U != kernel.U || g.V != kernel.V {
		return newErr(ErrDimensionMismatch, "grid %dx%d vs kernel %dx%d", g.U, g.V, kernel.U, kernel.V)
	}
	gFreq := fft2D(g.Visibility(), g.U, g.V, false)
	kFreq := fft2D(kernel.Visibility(), kernel.U, kernel.V, false)

	product := make([]complex128, len(gFreq))
	for i := range product {
		product[i] = gFreq[i] * kFreq[i]
	}
	result := fft2D(product, g.U, g.V, true)

	g.mu.Lock()
	defer g.mu.Unlock()
	copy(g.visibility, result)
	return nil
}

// Stack returns a new grid that is the cell-wise sum of g and other.
func (g *Grid) Stack(other *Grid) (*Grid, error) {
	if g.U != other.U || g.V != other.V {
		return nil, newErr(ErrDimensionMismatch, "grid %dx%d vs %dx%d", g.U, g.V, other.U, other.V)
	}
	out := NewGrid(g.U, g.V)
	a, b := g.Visibility(), other.Visibility()
	for i := range out.visibility {
		out.visibility[i] = a[i] + b[i]
	}
	return out, nil
}

// Diff returns a new grid that is the cell-wise difference g - other.
func (g *Grid) Diff(other *Grid) (*Grid, error) {
	if g.U != other.U || g.V != other.V {
		return nil, newErr(ErrDimensionMismatch, "grid %dx%d vs %dx%d", g.U, g.V, other.U, other.V)
	}
	out := NewGrid(g.U, g.V)
	a, b := g.Visibility(), other.Visibility()
	for i := range out.visibility {
		out.visibility[i] = a[i] - b[i]
	}
	return out, nil
}

// Shift returns a new grid with g's contents cyclically shifted by
// (dCol, dRow) cells — the standard FFT-quadrant-swap primitive used
// before/after centering a transform on the origin.
func (g *Grid) Shift(dCol, dRow int) *Grid {
	out := NewGrid(g.U, g.V)
	src := g.Visibility()
	for row := 0; row < g.V; row++ {
		srcRow := wrap(row-dRow, g.V)
		for col := 0; col < g.U; col++ {
			srcCol := wrap(col-dCol, g.U)
			out.visibility[row*g.U+col] = src[srcRow*g.U+srcCol]
		}
	}
	return out
}

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// FFT returns a new grid holding the 2-D forward discrete Fourier
// transform of g's visibility buffer.
func (g *Grid) FFT() *Grid {
	out := NewGrid(g.U, g.V)
	copy(out.visibility, fft2D(g.Visibility(), g.U, g.V, false))
	return out
}

// IFFT returns a new grid holding the 2-D inverse discrete Fourier
// transform of g's visibility buffer.
func (g *Grid) IFFT() *Grid {
	out := NewGrid(g.U, g.V)
	copy(out.visibility, fft2D(g.Visibility(), g.U, g.V, true))
	return out
}

// fft2D applies a separable row-then-column complex FFT (or its
// inverse) to a flat U-by-V buffer, using gonum's 1-D CmplxFFT per row
// and per column.
func fft2D(data []complex128, width, height int, inverse bool) []complex128 {
	out := make([]complex128, len(data))
	copy(out, data)

	rowPlan := fourier.NewCmplxFFT(width)
	row := make([]complex128, width)
	for y := 0; y < height; y++ {
		copy(row, out[y*width:(y+1)*width])
		var transformed []complex128
		if inverse {
			transformed = rowPlan.Sequence(nil, row)
			for i := range transformed {
				transformed[i] /= complex(float64(width), 0)
			}
		} else {
			transformed = rowPlan.Coefficients(nil, row)
		}
		copy(out[y*width:(y+1)*width], transformed)
	}

	colPlan := fourier.NewCmplxFFT(height)
	col := make([]complex128, height)
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			col[y] = out[y*width+x]
		}
		var transformed []complex128
		if inverse {
			transformed = colPlan.Sequence(nil, col)
			for i := range transformed {
				transformed[i] /= complex(float64(height), 0)
			}
		} else {
			transformed = colPlan.Coefficients(nil, col)
		}
		for y := 0; y < height; y++ {
			out[y*width+x] = transformed[y]
		}
	}

	return out
}
