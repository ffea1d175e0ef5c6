package vlbi

import (
	"fmt"
	"math"

	"github.com/banshee-data/vlbicore/internal/geo"
	"github.com/banshee-data/vlbicore/internal/units"
	"github.com/banshee-data/vlbicore/internal/vlbitime"
	"gonum.org/v1/gonum/mat"
)

// ReferenceMode selects which point the uvw rotation frame is anchored to.
type ReferenceMode int

const (
	// ReferenceArray anchors projection to the array's configured
	// reference location (set_location).
	ReferenceArray ReferenceMode = iota
	// ReferenceRelative anchors projection to the ECEF midpoint of each
	// baseline's two nodes. The original getProjection algebraically
	// reduced this to node 1's own coordinate; this implementation uses
	// the midpoint instead.
	ReferenceRelative
)

// Baseline is an unordered pair of distinct nodes, canonically ordered so
// that N1.Index < N2.Index.
type Baseline struct {
	N1, N2 *Node
	Name   string

	// Locked marks a baseline whose visibility track was supplied
	// externally; the correlator must not recompute it.
	Locked       bool
	LockedBuffer []complex128

	// Output is this baseline's own per-step correlation track, indexed
	// by sample step rather than grid cell; sized and populated during
	// GetUVPlot unless the baseline is locked.
	Output []complex128

	// previousIdx is the grid cell this baseline deposited into on its
	// last step, so a dwell on one cell across consecutive steps
	// correlates and deposits only once instead of inflating the cell's
	// averaging count. Reset to -1 at the start of each GetUVPlot run.
	previousIdx int

	// refLatRad/refLonRad are the geodetic reference point (radians) this
	// baseline projects against, computed when the owning BaselineSet was
	// last rebuilt.
	refLatRad, refLonRad float64
}

// newBaseline constructs a canonically-ordered baseline between a and b.
func newBaseline(a, b *Node) *Baseline {
	n1, n2 := a, b
	if n2.Index < n1.Index {
		n1, n2 = n2, n1
	}
	return &Baseline{
		N1:          n1,
		N2:          n2,
		Name:        fmt.Sprintf("%s_%s", n1.Name, n2.Name),
		previousIdx: -1,
	}
}

// setReference records the geodetic point (radians) this baseline's
// projection is anchored to, per mode.
func (b *Baseline) setReference(mode ReferenceMode, arrayRef geo.GeodeticPoint) {
	switch mode {
	case ReferenceRelative:
		mid := geo.Midpoint(b.N1.Location(), b.N2.Location())
		lat, lon, _ := geo.ECEFToGeodetic(mid)
		b.refLatRad, b.refLonRad = lat, lon
	default:
		b.refLatRad, b.refLonRad = arrayRef.LatRad, arrayRef.LonRad
	}
}

// EnsureOutputSize allocates/reuses Output so it has exactly n cells.
func (b *Baseline) EnsureOutputSize(n int) {
	if len(b.Output) != n {
		b.Output = make([]complex128, n)
	}
}

// Lock preloads buf as this baseline's externally-supplied visibility
// track and marks it locked; the correlator returns these samples
// directly instead of recomputing from node streams.
func (b *Baseline) Lock(buf []complex128) {
	b.LockedBuffer = buf
	b.Locked = true
}

// Unlock clears the locked flag and buffer, returning the baseline to
// normal correlation.
func (b *Baseline) Unlock() {
	b.LockedBuffer = nil
	b.Locked = false
}

// Project computes the (u, v, w, tau) spatial-frequency coordinates and
// geometric delay for this baseline at J2000 time t toward target
// (raRad, decRad). ok is false only if the target is below the horizon
// as seen from both nodes, in which case the caller should skip the
// sample (ErrBelowHorizon is not surfaced as a hard error).
func (b *Baseline) Project(t, raRad, decRad float64) (u, v, w, tau float64, ok bool) {
	return b.ProjectAt(t, raRad, decRad, 0)
}

// ProjectAt is Project with an explicit wavelength override; a zero
// wavelength falls back to the node streams' own Wavelength (each stream
// carries its own wavelength), which is what a caller working outside a
// get_uv_plot request wants. get_uv_plot itself passes
// its freq_hz-derived wavelength so every baseline in one grid shares
// consistent (u, v) units regardless of per-node stream metadata.
func (b *Baseline) ProjectAt(t, raRad, decRad, wavelength float64) (u, v, w, tau float64, ok bool) {
	gmst := vlbitime.J2000ToLST(t, 0)

	lat1, lon1, _ := geo.ECEFToGeodetic(b.N1.Location())
	lat2, lon2, _ := geo.ECEFToGeodetic(b.N2.Location())

	alt1, _ := geo.AltAz(gmst, raRad, decRad, lat1, lon1)
	alt2, _ := geo.AltAz(gmst, raRad, decRad, lat2, lon2)
	if alt1 <= 0 && alt2 <= 0 {
		return 0, 0, 0, 0, false
	}

	alt, az := geo.AltAz(gmst, raRad, decRad, b.refLatRad, b.refLonRad)
	alt, _ = clampElevation(alt)

	baselineVec := b.N2.Location().Sub(b.N1.Location())
	uvwMeters := rotateToUVW(baselineVec, alt, az)

	wMeters := uvwMeters[2]
	tau = wMeters / units.SpeedOfLight

	lambda := b.resolveWavelength(wavelength)
	return uvwMeters[0] / lambda, uvwMeters[1] / lambda, wMeters / lambda, tau, true
}

// ProjectMoving is Project but uses each node's per-sample location track
// at step l instead of its static station location (moving-baseline
// mode). The alt/az reference is always the midpoint of the two step-l
// positions; the baseline's ReferenceArray reference is not used.
func (b *Baseline) ProjectMoving(t, raRad, decRad float64, l int) (u, v, w, tau float64, ok bool) {
	return b.ProjectMovingAt(t, raRad, decRad, l, 0)
}

// ProjectMovingAt is ProjectMoving with an explicit wavelength override;
// see ProjectAt.
func (b *Baseline) ProjectMovingAt(t, raRad, decRad float64, l int, wavelength float64) (u, v, w, tau float64, ok bool) {
	gmst := vlbitime.J2000ToLST(t, 0)

	loc1 := b.N1.LocationAtStep(l)
	loc2 := b.N2.LocationAtStep(l)

	lat1, lon1, _ := geo.ECEFToGeodetic(loc1)
	lat2, lon2, _ := geo.ECEFToGeodetic(loc2)
	alt1, _ := geo.AltAz(gmst, raRad, decRad, lat1, lon1)
	alt2, _ := geo.AltAz(gmst, raRad, decRad, lat2, lon2)
	if alt1 <= 0 && alt2 <= 0 {
		return 0, 0, 0, 0, false
	}

	mid := geo.Midpoint(loc1, loc2)
	refLat, refLon, _ := geo.ECEFToGeodetic(mid)
	alt, az := geo.AltAz(gmst, raRad, decRad, refLat, refLon)
	alt, _ = clampElevation(alt)

	baselineVec := loc2.Sub(loc1)
	uvwMeters := rotateToUVW(baselineVec, alt, az)

	wMeters := uvwMeters[2]
	tau = wMeters / units.SpeedOfLight

	lambda := b.resolveWavelength(wavelength)
	return uvwMeters[0] / lambda, uvwMeters[1] / lambda, wMeters / lambda, tau, true
}

// resolveWavelength returns override if positive, else the node streams'
// own wavelength, else 1 as a last-resort non-zero divisor.
func (b *Baseline) resolveWavelength(override float64) float64 {
	if override > 0 {
		return override
	}
	if b.N1.Stream.Wavelength > 0 {
		return b.N1.Stream.Wavelength
	}
	if b.N2.Stream.Wavelength > 0 {
		return b.N2.Stream.Wavelength
	}
	return 1
}

// clampElevation clamps an altitude to [-pi/2, pi/2]; the bool reports
// whether clamping occurred so diagnostics can flag it.
func clampElevation(altRad float64) (float64, bool) {
	return units.ClampSignedHalfPi(altRad)
}

// rotateToUVW rotates an ECEF baseline vector into the uvw frame aligned
// with a target at the given altitude/azimuth: R_y(pi/2-alt) . R_z(az)
// applied to the vector.
func rotateToUVW(vec geo.ECEF, altRad, azRad float64) [3]float64 {
	rz := rotationZ(azRad)
	ry := rotationY(math.Pi/2 - altRad)

	v := mat.NewVecDense(3, []float64{vec.X, vec.Y, vec.Z})

	var afterZ mat.VecDense
	afterZ.MulVec(rz, v)

	var afterY mat.VecDense
	afterY.MulVec(ry, &afterZ)

	return [3]float64{afterY.AtVec(0), afterY.AtVec(1), afterY.AtVec(2)}
}

func rotationZ(theta float64) *mat.Dense {
	s, c := math.Sincos(theta)
	return mat.NewDense(3, 3, []float64{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	})
}

func rotationY(theta float64) *mat.Dense {
	s, c := math.Sincos(theta)
	return mat.NewDense(3, 3, []float64{
		c, 0, s,
		0, 1, 0,
		-s, 0, c,
	})
}

// BaselineSet derives every distinct unordered node pair from a
// NodeRegistry and caches them, rebuilding only when the registry's
// Revision changes. The baseline count is always n*(n-1)/2.
type BaselineSet struct {
	registry *NodeRegistry
	mode     ReferenceMode
	arrayRef geo.GeodeticPoint

	builtRevision int
	baselines     []*Baseline
	byName        map[string]*Baseline
}

// NewBaselineSet returns a set bound to registry, rebuilt lazily on first
// access.
func NewBaselineSet(registry *NodeRegistry, mode ReferenceMode, arrayRef geo.GeodeticPoint) *BaselineSet {
	return &BaselineSet{
		registry:      registry,
		mode:          mode,
		arrayRef:      arrayRef,
		builtRevision: -1,
	}
}

// SetArrayReference updates the array-wide reference location used by
// ReferenceArray mode and forces a rebuild on next access.
func (s *BaselineSet) SetArrayReference(p geo.GeodeticPoint) {
	s.arrayRef = p
	s.builtRevision = -1
}

func (s *BaselineSet) ensureFresh() {
	rev := s.registry.Revision()
	if rev == s.builtRevision {
		return
	}
	s.rebuild(rev)
}

func (s *BaselineSet) rebuild(rev int) {
	nodes := s.registry.List()
	baselines := make([]*Baseline, 0, len(nodes)*(len(nodes)-1)/2)
	byName := make(map[string]*Baseline, cap(baselines))
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			bl := newBaseline(nodes[i], nodes[j])
			bl.setReference(s.mode, s.arrayRef)
			baselines = append(baselines, bl)
			byName[bl.Name] = bl
		}
	}
	s.baselines = baselines
	s.byName = byName
	s.builtRevision = rev
}

// All returns every baseline, rebuilding first if the registry has
// changed since the last access.
func (s *BaselineSet) All() []*Baseline {
	s.ensureFresh()
	return s.baselines
}

// Get returns the named baseline, or ErrUnknownName.
func (s *BaselineSet) Get(name string) (*Baseline, error) {
	s.ensureFresh()
	bl, ok := s.byName[name]
	if !ok {
		return nil, newErr(ErrUnknownName, "baseline %q not found", name)
	}
	return bl, nil
}
