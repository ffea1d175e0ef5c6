// Command vlbicli is a thin demonstrator binary around internal/vlbi: it
// builds a small fixture array, runs one UV-plane accumulation, and
// optionally renders a diagnostic heatmap.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/banshee-data/vlbicore/internal/config"
	"github.com/banshee-data/vlbicore/internal/units"
	"github.com/banshee-data/vlbicore/internal/vlbi"
	"github.com/banshee-data/vlbicore/internal/vlbi/diag"
	"github.com/banshee-data/vlbicore/internal/vlbitime"
	"github.com/banshee-data/vlbicore/internal/version"
)

// alphaStationLonDeg is the fixture array's reference station longitude,
// used only to print the LST banner below; it must track the "alpha"
// entry in buildFixtureContext's station table.
const alphaStationLonDeg = -121.4695

var (
	configFile   = flag.String("config", config.DefaultConfigPath, "Path to JSON core configuration file")
	gridU        = flag.Int("grid-u", 0, "UV grid width (0 uses configured default)")
	gridV        = flag.Int("grid-v", 0, "UV grid height (0 uses configured default)")
	maxThreads   = flag.Int("max-threads", 0, "Worker pool size (0 uses configured default)")
	targetRADeg  = flag.Float64("ra", 83.6331, "Target right ascension, degrees")
	targetDecDeg = flag.Float64("dec", 22.0145, "Target declination, degrees")
	freqHz       = flag.Float64("freq-hz", 0, "Observing frequency, Hz (0 uses configured default)")
	sampleRate   = flag.Float64("sample-rate-hz", 0, "Correlator sample rate, Hz (0 uses configured default)")
	outHTML      = flag.String("out", "", "Write an amplitude heatmap HTML report to this path (empty disables)")
	tzFlag       = flag.String("tz", "UTC", "IANA timezone for banner timestamps")
	versionFlag  = flag.Bool("version", false, "Print version information and exit")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if *versionFlag {
		fmt.Printf("vlbicli v%s (git SHA: %s)\n", version.Version, version.GitSHA)
		os.Exit(0)
	}

	if !units.IsTimezoneValid(*tzFlag) {
		log.Fatalf("invalid -tz %q; common zones: %s", *tzFlag, units.GetValidTimezonesString())
	}

	cfg, err := config.LoadCoreConfig(*configFile)
	if err != nil {
		log.Printf("no core config at %s (%v); using built-in defaults", *configFile, err)
		cfg = config.EmptyCoreConfig()
	}

	threads := *maxThreads
	if threads <= 0 {
		threads = cfg.GetMaxThreads()
	}
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	u, v := *gridU, *gridV
	if u <= 0 {
		u = cfg.GetDefaultGridU()
	}
	if v <= 0 {
		v = cfg.GetDefaultGridV()
	}
	freq := *freqHz
	if freq <= 0 {
		freq = cfg.GetDefaultFreqHz()
	}
	rate := *sampleRate
	if rate <= 0 {
		rate = cfg.GetDefaultSampleRateHz()
	}

	log.Printf("vlbicli v%s (git SHA: %s) starting: threads=%d grid=%dx%d freq_hz=%.3e sample_rate_hz=%.3f",
		version.Version, version.GitSHA, threads, u, v, freq, rate)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	core, fixtureStart, err := buildFixtureContext(threads)
	if err != nil {
		log.Fatalf("failed to build fixture context: %v", err)
	}
	logBanner(fixtureStart, *tzFlag)

	raRad := units.DegToRad(*targetRADeg)
	decRad := units.DegToRad(*targetDecDeg)

	req := vlbi.UVPlotRequest{
		ModelName:    "fixture",
		U:            u,
		V:            v,
		TargetRA:     raRad,
		TargetDec:    decRad,
		FreqHz:       freq,
		SampleRateHz: rate,
		Progress: func(done, total int) {
			if total > 0 && done%max(1, total/10) == 0 {
				log.Printf("progress: %d/%d steps", done, total)
			}
		},
	}

	done := make(chan error, 1)
	go func() { done <- core.GetUVPlot(req) }()

	select {
	case <-ctx.Done():
		log.Printf("received shutdown signal, waiting for run to finish")
		<-done
	case err := <-done:
		if err != nil {
			log.Fatalf("get_uv_plot failed: %v", err)
		}
	}

	grid, err := core.GetModel(req.ModelName)
	if err != nil {
		log.Fatalf("model %q missing after run: %v", req.ModelName, err)
	}
	log.Printf("run complete: grid=%dx%d", grid.U, grid.V)

	if *outHTML != "" {
		f, err := os.Create(*outHTML)
		if err != nil {
			log.Fatalf("failed to create %s: %v", *outHTML, err)
		}
		defer f.Close()
		if err := diag.RenderAmplitudeHeatmap(f, grid, grid.U, grid.V, "vlbicli fixture run"); err != nil {
			log.Fatalf("failed to render heatmap: %v", err)
		}
		log.Printf("wrote heatmap to %s", *outHTML)
	}
}

// logBanner prints the fixture run's start time converted into tz
// alongside UTC and the local mean sidereal time at the reference
// station, demonstrating units.ConvertTime/GetTimezoneLabel and
// vlbitime.J2000ToLST together.
func logBanner(start time.Time, tz string) {
	local, err := units.ConvertTime(start, tz)
	if err != nil {
		log.Printf("banner: %v", err)
		local = start
	}
	lst := vlbitime.J2000ToLST(vlbitime.UTCToJ2000(start), alphaStationLonDeg)
	log.Printf("run start: %s UTC / %s %s / LST %.4fh at alpha",
		start.Format(time.RFC3339), local.Format(time.RFC3339), units.GetTimezoneLabel(tz), lst)
}

// buildFixtureContext assembles a small three-station array with synthetic
// sample streams, enough to exercise a full get_uv_plot run end to end. It
// returns the fixture's stream start time alongside the context.
func buildFixtureContext(maxThreads int) (*vlbi.Context, time.Time, error) {
	core := vlbi.NewContext(maxThreads)
	start := time.Now().UTC().Add(-time.Minute)

	stations := []struct {
		name   string
		latDeg float64
		lonDeg float64
		elevM  float64
	}{
		{"alpha", 40.8178, -121.4695, 986},
		{"bravo", 38.4331, -79.8397, 807},
		{"charlie", 34.0784, -107.6184, 2124},
	}

	const sampleRate = 1.0
	const samples = 60

	for _, st := range stations {
		stream := vlbi.Stream{
			Samples:      syntheticSamples(samples, st.lonDeg),
			StartTimeUTC: start,
			SampleRate:   sampleRate,
			Wavelength:   0.21, // 21cm hydrogen line
			Location:     [3]float64{units.DegToRad(st.latDeg), units.DegToRad(st.lonDeg), st.elevM},
		}
		if _, err := core.Nodes.Add(stream, st.name, true); err != nil {
			return nil, time.Time{}, fmt.Errorf("add node %s: %w", st.name, err)
		}
	}

	return core, start, nil
}

func syntheticSamples(n int, seedDeg float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = seedDeg + float64(i)
	}
	return out
}

