package vlbi

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/banshee-data/vlbicore/internal/geo"
	"github.com/banshee-data/vlbicore/internal/monitoring"
	"github.com/banshee-data/vlbicore/internal/units"
	"github.com/banshee-data/vlbicore/internal/vlbitime"
	"github.com/google/uuid"
)

// Context is a named observing session: a node registry, its derived
// baseline set, and a keyed collection of named grids ("models"). One
// Context exists per observing session; the host owns its lifetime.
type Context struct {
	ID uuid.UUID

	Nodes     *NodeRegistry
	Baselines *BaselineSet

	MaxThreads int

	// Clock times each run for diagnostics; tests substitute a
	// vlbitime.MockClock for deterministic elapsed-time assertions.
	Clock vlbitime.Clock

	mu     sync.RWMutex
	models map[string]*Grid

	hasArrayRef bool
	arrayRef    geo.GeodeticPoint
}

// NewContext returns an empty context with its own node registry, ready
// to accept nodes. Projection defaults to relative (midpoint) mode until
// SetLocation is called.
func NewContext(maxThreads int) *Context {
	registry := NewNodeRegistry()
	ctx := &Context{
		ID:         uuid.New(),
		Nodes:      registry,
		MaxThreads: maxThreads,
		Clock:      vlbitime.RealClock{},
		models:     make(map[string]*Grid),
	}
	ctx.Baselines = NewBaselineSet(registry, ReferenceRelative, geo.GeodeticPoint{})
	return ctx
}

// SetLocation establishes the array's reference location (degrees,
// meters) and switches projection to ReferenceArray mode. Before this is
// called, baselines project against the ECEF midpoint of each pair.
func (c *Context) SetLocation(latDeg, lonDeg, elevM float64) {
	c.arrayRef = geo.GeodeticPoint{
		LatRad: units.DegToRad(latDeg),
		LonRad: units.DegToRad(lonDeg),
		ElevM:  elevM,
	}
	c.hasArrayRef = true
	c.Baselines.mode = ReferenceArray
	c.Baselines.SetArrayReference(c.arrayRef)
}

// GetModel returns a previously computed named grid.
func (c *Context) GetModel(name string) (*Grid, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	g, ok := c.models[name]
	if !ok {
		return nil, newErr(ErrUnknownName, "model %q not found", name)
	}
	return g, nil
}

// PutModel stores g under name, overwriting any existing model with that
// name.
func (c *Context) PutModel(name string, g *Grid) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.models[name] = g
}

// UVPlotRequest bundles get_uv_plot's parameters.
type UVPlotRequest struct {
	ModelName      string
	U, V           int
	TargetRA       float64
	TargetDec      float64
	FreqHz         float64
	SampleRateHz   float64
	NoDelay        bool
	MovingBaseline bool
	// Coverage selects UV-coverage mode (each visited cell set to 1,
	// counting hits) instead of aperture-synthesis averaging.
	Coverage bool
	Delegate func(u, v float64) complex128
	Interrupt      *atomic.Bool
	Progress       ProgressFunc
}

// GetUVPlot runs the correlation/accumulation loop across every baseline
// derived from c.Nodes and stores the resulting grid under req.ModelName.
func (c *Context) GetUVPlot(req UVPlotRequest) error {
	if req.SampleRateHz <= 0 {
		return newErr(ErrInvalidInput, "sample_rate_hz must be positive")
	}
	wavelength := units.WavelengthFromFrequency(req.FreqHz)
	dt := 1.0 / req.SampleRateHz

	runStart := c.Clock.Now()
	grid := NewGrid(req.U, req.V)
	baselines := c.Baselines.All()
	debugLog("get_uv_plot: context=%s model=%s baselines=%d grid=%dx%d", c.ID, req.ModelName, len(baselines), req.U, req.V)
	if len(baselines) == 0 {
		c.PutModel(req.ModelName, grid)
		return nil
	}

	startT, steps := c.observationWindow(req.SampleRateHz)
	if steps <= 0 {
		c.PutModel(req.ModelName, grid)
		return nil
	}

	refLoc := c.referenceECEF()
	nodes := c.Nodes.List()

	mode := DepositAverage
	if req.Coverage {
		mode = DepositCoverage
	}

	for _, bl := range baselines {
		if !bl.Locked {
			bl.EnsureOutputSize(steps)
		}
		bl.previousIdx = -1
	}

	sched := newScheduler(c.MaxThreads, req.Interrupt, req.Progress)
	sched.run(baselines, steps, func(bl *Baseline, l int) {
		c.correlateStep(bl, l, startT, dt, req, wavelength, nodes, refLoc, grid, mode)
	})

	c.PutModel(req.ModelName, grid)
	debugLog("get_uv_plot: context=%s model=%s done in %s", c.ID, req.ModelName, c.Clock.Now().Sub(runStart))
	return nil
}

func (c *Context) correlateStep(bl *Baseline, l int, startT, dt float64, req UVPlotRequest, wavelength float64, nodes []*Node, refLoc geo.ECEF, grid *Grid, mode DepositMode) {
	t := startT + float64(l)*dt

	off1, off2 := 0.0, 0.0
	if !req.NoDelay {
		off1, off2 = delayReferencedOffsets(nodes, refLoc, t, req.TargetRA, req.TargetDec, bl.N1, bl.N2)
	}

	var u, v, w, tau float64
	var ok bool
	if req.MovingBaseline {
		u, v, w, tau, ok = bl.ProjectMovingAt(t, req.TargetRA, req.TargetDec, l, wavelength)
	} else {
		u, v, w, tau, ok = bl.ProjectAt(t, req.TargetRA, req.TargetDec, wavelength)
	}
	_, _ = w, tau
	if !ok {
		return
	}

	col := int(math.Round(u)) + req.U/2
	row := int(math.Round(v)) + req.V/2
	idx, inBounds := grid.Index(col, row)
	if !inBounds {
		return
	}
	if idx == bl.previousIdx {
		return
	}
	bl.previousIdx = idx

	var value complex128
	switch {
	case bl.Locked:
		value = correlateLocked(bl.LockedBuffer, l)
	case req.Delegate != nil:
		value = req.Delegate(u, v)
	default:
		value = correlate(bl.N1, t+off1, bl.N2, t+off2, LinearInterpolator{})
		if l < len(bl.Output) {
			bl.Output[l] = value
		}
	}

	grid.Deposit(idx, value, mode)
}

// observationWindow derives the run's start time (J2000 seconds) and
// step count from the registry's nodes: the earliest stream start time,
// and enough steps to cover the longest stream (sample count over the
// stream's own sample rate, or over the requested rate if the stream has
// none) at the requested sample rate. get_uv_plot takes no explicit time
// window, so the core derives it from the registered streams themselves.
func (c *Context) observationWindow(sampleRateHz float64) (startT float64, steps int) {
	nodes := c.Nodes.List()
	if len(nodes) == 0 {
		return 0, 0
	}
	startUTC := nodes[0].Stream.StartTimeUTC
	nativeDuration := 0.0
	for _, n := range nodes {
		if n.Stream.StartTimeUTC.Before(startUTC) {
			startUTC = n.Stream.StartTimeUTC
		}
		rate := n.Stream.SampleRate
		if rate <= 0 {
			rate = sampleRateHz
		}
		if d := float64(n.SampleCount()) / rate; d > nativeDuration {
			nativeDuration = d
		}
	}
	if nativeDuration == 0 {
		return vlbitime.UTCToJ2000(startUTC), 0
	}
	return vlbitime.UTCToJ2000(startUTC), int(math.Ceil(nativeDuration * sampleRateHz))
}

// referenceECEF returns the array's configured reference location if
// SetLocation was called, or the origin otherwise — only used by delay
// referencing, which falls back to treating every node symmetrically
// when no array reference exists.
func (c *Context) referenceECEF() geo.ECEF {
	if !c.hasArrayRef {
		return geo.ECEF{}
	}
	return geo.GeodeticToECEF(c.arrayRef.LatRad, c.arrayRef.LonRad, c.arrayRef.ElevM)
}

// delayReferencedOffsets implements delay referencing: it finds the
// node farthest (by |tau|) from the array reference along the target's
// line of sight, then returns n1 and n2's signed delays relative to
// that farthest node.
func delayReferencedOffsets(nodes []*Node, refLoc geo.ECEF, t, raRad, decRad float64, n1, n2 *Node) (off1, off2 float64) {
	if len(nodes) == 0 {
		return 0, 0
	}
	gmst := vlbitime.J2000ToLST(t, 0)
	refLat, refLon, _ := geo.ECEFToGeodetic(refLoc)
	alt, az := geo.AltAz(gmst, raRad, decRad, refLat, refLon)
	alt, _ = clampElevation(alt)

	tau := make(map[int]float64, len(nodes))
	farthestIdx := -1
	var farthestTau float64
	for _, n := range nodes {
		vec := n.Location().Sub(refLoc)
		rotated := rotateToUVW(vec, alt, az)
		nodeTau := rotated[2] / units.SpeedOfLight
		tau[n.Index] = nodeTau
		if farthestIdx == -1 || math.Abs(nodeTau) > math.Abs(farthestTau) ||
			(math.Abs(nodeTau) == math.Abs(farthestTau) && n.Index < farthestIdx) {
			farthestIdx = n.Index
			farthestTau = nodeTau
		}
	}

	return tau[n1.Index] - farthestTau, tau[n2.Index] - farthestTau
}

// debugLog is the package-level logger hook, swappable in tests via the
// monitoring package's Logf variable.
func debugLog(format string, v ...interface{}) {
	monitoring.Logf(format, v...)
}
