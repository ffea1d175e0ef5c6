package vlbi

import (
	"sync"
	"time"

	"github.com/banshee-data/vlbicore/internal/geo"
)

// Target is a celestial pointing direction in radians.
type Target struct {
	RA, Dec float64
}

// Stream describes one node's sample stream and station geometry, the Go
// rendering of the original dsp_stream_p payload. Location and
// LocationTrack entries are interpreted as {lat, lon, elev} when the
// owning Node is geographic, or {x, y, z} ECEF meters otherwise.
type Stream struct {
	Samples       []float64
	StartTimeUTC  time.Time
	SampleRate    float64 // Hz
	Wavelength    float64 // meters
	Location      [3]float64
	LocationTrack [][3]float64 // optional, one entry per sample step, for moving baselines
	Target        *Target      // optional per-node target override
}

// Node identifies one antenna/station.
type Node struct {
	Name       string
	Index      int
	Geographic bool
	Stream     Stream
}

// Location returns the node's static ECEF position, converting from
// geodetic if necessary.
func (n *Node) Location() geo.ECEF {
	loc := n.Stream.Location
	if n.Geographic {
		return geo.GeodeticToECEF(loc[0], loc[1], loc[2])
	}
	return geo.ECEF{X: loc[0], Y: loc[1], Z: loc[2]}
}

// LocationAtStep returns the node's ECEF position at moving-baseline step
// l, falling back to the static Location if no track is present or l is
// out of range.
func (n *Node) LocationAtStep(l int) geo.ECEF {
	track := n.Stream.LocationTrack
	if l < 0 || l >= len(track) {
		return n.Location()
	}
	p := track[l]
	if n.Geographic {
		return geo.GeodeticToECEF(p[0], p[1], p[2])
	}
	return geo.ECEF{X: p[0], Y: p[1], Z: p[2]}
}

// SampleCount returns the number of samples in the node's stream, used to
// size the observation window and per-baseline output streams.
func (n *Node) SampleCount() int { return len(n.Stream.Samples) }

// NodeRegistry owns a named, insertion-ordered collection of nodes.
// Indices are assigned at insertion and never reused or reassigned —
// removing a node leaves its slot nil rather than re-packing the slice.
// This deliberately rejects a Defrag()-style reindexing behavior in
// favor of index stability across removal.
type NodeRegistry struct {
	mu       sync.RWMutex
	byName   map[string]*Node
	order    []*Node // order[i] is nil if the node at index i was removed
	nextIdx  int
	revision int // bumped on any membership change; baselines rebuild when stale
}

// NewNodeRegistry returns an empty registry.
func NewNodeRegistry() *NodeRegistry {
	return &NodeRegistry{byName: make(map[string]*Node)}
}

// Revision returns a counter bumped on every membership change (add,
// remove). Callers that cache a derived baseline set compare this against
// the revision they last rebuilt from.
func (r *NodeRegistry) Revision() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.revision
}

// Add registers a new node with the given stream and geographic flag,
// assigning it the next monotonic index. Fails with ErrDuplicateName if
// name is already taken.
func (r *NodeRegistry) Add(stream Stream, name string, geographic bool) (*Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[name]; exists {
		return nil, newErr(ErrDuplicateName, "node %q already exists", name)
	}

	n := &Node{
		Name:       name,
		Index:      r.nextIdx,
		Geographic: geographic,
		Stream:     stream,
	}
	r.nextIdx++
	r.byName[name] = n
	r.order = append(r.order, n)
	r.revision++
	return n, nil
}

// Get returns the node with the given name, or ErrUnknownName.
func (r *NodeRegistry) Get(name string) (*Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.byName[name]
	if !ok {
		return nil, newErr(ErrUnknownName, "node %q not found", name)
	}
	return n, nil
}

// Contains reports whether name is registered.
func (r *NodeRegistry) Contains(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byName[name]
	return ok
}

// Remove deletes the named node. Its index is never reassigned to a
// future node; the slot in the stable index sequence becomes nil.
func (r *NodeRegistry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.byName[name]
	if !ok {
		return newErr(ErrUnknownName, "node %q not found", name)
	}
	delete(r.byName, name)
	r.order[n.Index] = nil
	r.revision++
	return nil
}

// List returns the live nodes in ascending index order (nil slots from
// removed nodes are skipped).
func (r *NodeRegistry) List() []*Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Node, 0, len(r.byName))
	for _, n := range r.order {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

// At returns the node at the given stable index, or nil if that slot is
// empty or out of range.
func (r *NodeRegistry) At(index int) *Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if index < 0 || index >= len(r.order) {
		return nil
	}
	return r.order[index]
}

// Copy deep-copies the sample stream of existingName and registers it
// under newName so later mutations of either stream do not alias.
func (r *NodeRegistry) Copy(newName, existingName string) (*Node, error) {
	src, err := r.Get(existingName)
	if err != nil {
		return nil, err
	}
	cp := src.Stream
	cp.Samples = append([]float64(nil), src.Stream.Samples...)
	cp.LocationTrack = append([][3]float64(nil), src.Stream.LocationTrack...)
	return r.Add(cp, newName, src.Geographic)
}

// FilterLowpass registers a low-pass filtered copy of srcName's samples
// under newName. cutoffRad is an angular frequency in radians/sample.
func (r *NodeRegistry) FilterLowpass(newName, srcName string, cutoffRad float64) (*Node, error) {
	return r.filterInto(newName, srcName, func(x []float64) []float64 { return lowpass(x, cutoffRad) })
}

// FilterHighpass registers a high-pass filtered copy of srcName's samples.
func (r *NodeRegistry) FilterHighpass(newName, srcName string, cutoffRad float64) (*Node, error) {
	return r.filterInto(newName, srcName, func(x []float64) []float64 { return highpass(x, cutoffRad) })
}

// FilterBandpass registers a band-pass filtered copy of srcName's samples.
func (r *NodeRegistry) FilterBandpass(newName, srcName string, lowRad, highRad float64) (*Node, error) {
	return r.filterInto(newName, srcName, func(x []float64) []float64 { return bandpass(x, lowRad, highRad) })
}

// FilterBandreject registers a band-reject filtered copy of srcName's samples.
func (r *NodeRegistry) FilterBandreject(newName, srcName string, lowRad, highRad float64) (*Node, error) {
	return r.filterInto(newName, srcName, func(x []float64) []float64 { return bandreject(x, lowRad, highRad) })
}

func (r *NodeRegistry) filterInto(newName, srcName string, f func([]float64) []float64) (*Node, error) {
	src, err := r.Get(srcName)
	if err != nil {
		return nil, err
	}
	cp := src.Stream
	cp.Samples = f(src.Stream.Samples)
	return r.Add(cp, newName, src.Geographic)
}
