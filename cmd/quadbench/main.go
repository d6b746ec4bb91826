// Command quadbench measures QuadRenderer throughput.
//
// Each scenario draws the same set of quads every frame and reports the
// average frame rate over the last three one-second tallies. Scenarios
// come from flags or, with -config, from a YAML file:
//
//	backend: software
//	width: 1280
//	height: 720
//	scenarios:
//	  - {kind: cpu, quads: 10000, size: 100, scatter: true}
//	  - {kind: gpu, quads: 10000, size: 100, scatter: true, interleave: true}
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/schollz/progressbar/v3"

	"github.com/gogpu/sprite"
	"github.com/gogpu/sprite/backend"
	_ "github.com/gogpu/sprite/backend/wgpu"
	"github.com/gogpu/sprite/gfx"
	"github.com/gogpu/sprite/perf"
	"github.com/gogpu/sprite/platform/glfw"
)

// talliesNeeded is how many tallies an open-ended scenario waits for; the
// first two are discarded as warm-up.
const talliesNeeded = 5

var errAborted = errors.New("aborted")

func init() {
	// GLFW calls must come from the main thread.
	runtime.LockOSThread()
}

type bench struct {
	cfg *config
	dev gfx.Device
	win *glfw.Window
	rng *rand.Rand
}

func (b *bench) run() error {
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)

	backendName := fs.String("backend", "", "device backend: "+strings.Join(backend.Available(), ", ")+" (default: best available)")
	kind := fs.String("kind", "both", "vertex encoding: cpu, gpu or both")
	quads := fs.Int("quads", 10000, "number of quads per frame")
	size := fs.Uint("size", 100, "quad edge in pixels")
	frames := fs.Int("frames", 0, "frames per scenario; 0 runs until five tallies")
	parallel := fs.Bool("parallel", false, "generate vertices on the worker pool")
	interleave := fs.Bool("interleave", false, "alternate two textures, one draw call per quad")
	scatter := fs.Bool("scatter", true, "scatter quads randomly instead of piling them up")
	seed := fs.Uint64("seed", 1, "random seed for quad positions")
	width := fs.Int("width", 800, "viewport width")
	height := fs.Int("height", 600, "viewport height")
	maxFPS := fs.Int("maxfps", 0, "frame cap; 0 is uncapped")
	window := fs.Bool("window", false, "open a window for input and live FPS")
	configFile := fs.String("config", "", "load scenarios from a YAML file")
	verbose := fs.Bool("v", false, "debug logging")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}

	if *verbose {
		sprite.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	if *configFile != "" {
		cfg, err := readConfigFile(*configFile)
		if err != nil {
			return err
		}
		b.cfg = cfg
	} else {
		cfg := config{
			Backend: *backendName,
			Width:   *width,
			Height:  *height,
			Seed:    *seed,
			MaxFPS:  *maxFPS,
		}
		kinds := []string{*kind}
		if *kind == "both" {
			kinds = []string{"cpu", "gpu"}
		}
		for _, k := range kinds {
			cfg.Scenarios = append(cfg.Scenarios, scenario{
				Kind:       k,
				Quads:      *quads,
				Size:       uint32(*size),
				Frames:     *frames,
				Parallel:   *parallel,
				Interleave: *interleave,
				Scatter:    *scatter,
			})
		}
		if err := cfg.validate(); err != nil {
			return err
		}
		b.cfg = &cfg
	}
	b.rng = rand.New(rand.NewPCG(b.cfg.Seed, b.cfg.Seed))

	if err := b.openDevice(); err != nil {
		return err
	}
	defer b.dev.Destroy()

	if *window {
		wcfg := glfw.DefaultConfig()
		wcfg.Title = "quadbench"
		wcfg.Width, wcfg.Height = b.cfg.Width, b.cfg.Height
		win, err := glfw.Open(wcfg)
		if err != nil {
			return err
		}
		defer win.Close()
		b.win = win
	}

	for _, s := range b.cfg.Scenarios {
		printScenario(s)
		fps, err := b.runScenario(s)
		if errors.Is(err, errAborted) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("scenario %s: %w", s, err)
		}
		fmt.Printf("   * %.1f frames/second\n", fps)
	}
	return nil
}

func (b *bench) openDevice() error {
	var (
		dev  gfx.Device
		name = b.cfg.Backend
		err  error
	)
	if name == "" {
		dev, name, err = backend.Default()
	} else {
		dev, err = backend.Get(name)
	}
	if err != nil {
		return err
	}
	if r, ok := dev.(interface{ Resize(w, h int) error }); ok {
		if err := r.Resize(b.cfg.Width, b.cfg.Height); err != nil {
			dev.Destroy()
			return fmt.Errorf("resize %s target: %w", name, err)
		}
	}
	fmt.Printf("Using %s backend, %dx%d viewport\n", name, b.cfg.Width, b.cfg.Height)
	b.dev = dev
	return nil
}

func printScenario(s scenario) {
	fmt.Printf("Testing %d quads of %dx%d pixels:\n", s.Quads, s.Size, s.Size)
	line := func(cond bool, yes, no string) {
		if cond {
			fmt.Println("   - " + yes)
		} else {
			fmt.Println("   - " + no)
		}
	}
	line(s.Kind == "gpu", "GPU matrix calculations", "CPU matrix calculations")
	line(s.Parallel, "Using parallel processing", "NOT using parallel processing")
	line(s.Interleave, "Textures are interleaved in a worst case scenario", "Same texture for all quads, single draw call")
	line(s.Scatter, "Scattered quads", "Piled up quads")
}

// checkerCanvas paints the benchmark texture: a bordered square with two
// nested filled squares.
func checkerCanvas(size uint32) *sprite.Canvas {
	fill := sprite.RGBF(0.8, 0.4, 0.2)
	c := sprite.NewCanvas(sprite.SzU(size, size), &fill)
	c.Rect(sprite.RU(0, 0, size, size), sprite.Black)

	u := size / 5
	c.RectFill(sprite.RU(u, u, u*3, u*3), sprite.RGBF(0.4, 0.8, 0.2))
	c.RectFill(sprite.RU(u*2, u*2, u, u), sprite.RGBF(0.2, 0.4, 0.8))
	return c
}

// buildQuads lays out n quads alternating between tex1 and tex2.
func buildQuads(n int, s scenario, w, h int, tex1, tex2 *sprite.Texture, rng *rand.Rand) []sprite.Quad {
	maxX := float32(w - int(s.Size))
	maxY := float32(h - int(s.Size))

	qs := make([]sprite.Quad, n)
	for i := range qs {
		q := sprite.NewQuad()
		if s.Scatter {
			q.SetPos(sprite.Pt(rng.Float32()*maxX, rng.Float32()*maxY))
		}
		if i%2 == 0 {
			q.SetTexture(tex1)
		} else {
			q.SetTexture(tex2)
		}
		qs[i] = q
	}
	return qs
}

func (b *bench) runScenario(s scenario) (float64, error) {
	kind, err := s.kind()
	if err != nil {
		return 0, err
	}

	cnv := checkerCanvas(s.Size)
	tex1, err := sprite.TextureFromCanvas(b.dev, cnv)
	if err != nil {
		return 0, err
	}
	defer tex1.Release()

	var tex2 *sprite.Texture
	if s.Interleave {
		if tex2, err = sprite.TextureFromCanvas(b.dev, cnv); err != nil {
			return 0, err
		}
	} else {
		tex2 = tex1.Clone()
	}
	defer tex2.Release()

	r, err := sprite.NewQuadRenderer(b.dev, kind, sprite.WithParallel(s.Parallel))
	if err != nil {
		return 0, err
	}
	defer r.Close()

	cam := sprite.NewCamera()
	cam.SetViewportSize(sprite.SzU(uint32(b.cfg.Width), uint32(b.cfg.Height)))

	qs := buildQuads(s.Quads, s, b.cfg.Width, b.cfg.Height, tex1, tex2, b.rng)

	total := int64(s.Frames)
	if total == 0 {
		total = talliesNeeded
	}
	pb := progressbar.Default(total, s.String())
	defer pb.Close()

	counter := perf.NewCounter(perf.WithMaxFPS(b.cfg.MaxFPS))
	var tallies []float64
	start := time.Now()
	frames := 0
	for {
		if s.Frames > 0 && frames >= s.Frames {
			break
		}
		if s.Frames == 0 && len(tallies) >= talliesNeeded {
			break
		}
		if err := b.pollWindow(cam, counter); err != nil {
			return 0, err
		}

		if c, ok := b.dev.(interface{ Clear(sprite.Color) }); ok {
			c.Clear(sprite.RGBF(0.2, 0.3, 0.4))
		}
		for i := range qs {
			r.Add(&qs[i])
		}
		if err := r.Draw(cam); err != nil {
			return 0, err
		}
		if rec, ok := b.dev.(interface{ Reset() }); ok {
			rec.Reset()
		}
		frames++

		counter.Frame()
		if counter.Tallied() {
			tallies = append(tallies, counter.FPS())
			if s.Frames == 0 {
				_ = pb.Add(1)
			}
		}
		if s.Frames > 0 {
			_ = pb.Add(1)
		}
	}
	_ = pb.Finish()

	st := r.LastStats()
	sprite.Logger().Info("quadbench: scenario done", "scenario", s.String(),
		"frames", frames, "batches", st.Batches, "drawCalls", st.DrawCalls)
	return averageFPS(tallies, frames, time.Since(start)), nil
}

// pollWindow drains window events into cam, the camera of the running
// scenario.
func (b *bench) pollWindow(cam *sprite.Camera, counter *perf.Counter) error {
	if b.win == nil {
		return nil
	}
	if err := handleEvents(b.win.PollEvents(), cam); err != nil {
		return err
	}
	if b.win.ShouldClose() {
		return errAborted
	}
	if counter.Tallied() {
		b.win.SetTitle(fmt.Sprintf("quadbench - %.0f fps", counter.FPS()))
	}
	return nil
}

// handleEvents applies resizes to cam. Closing the window or pressing
// Escape aborts the run.
func handleEvents(events []sprite.Event, cam *sprite.Camera) error {
	for _, ev := range events {
		switch ev := ev.(type) {
		case sprite.CloseEvent:
			return errAborted
		case sprite.ResizeEvent:
			cam.ResizeEvent(ev)
		case sprite.KeyEvent:
			if ev.Pressed && ev.Key == gpucontext.KeyEscape {
				return errAborted
			}
		}
	}
	return nil
}

// averageFPS averages the last three tallies. Runs too short to tally
// three times fall back to frames over wall time.
func averageFPS(tallies []float64, frames int, elapsed time.Duration) float64 {
	if n := len(tallies); n >= 3 {
		return (tallies[n-3] + tallies[n-2] + tallies[n-1]) / 3
	}
	if elapsed <= 0 {
		return 0
	}
	return float64(frames) / elapsed.Seconds()
}

func main() {
	b := bench{}

	if err := b.run(); err != nil {
		fmt.Fprintf(os.Stderr, "quadbench: %v\n", err)
		os.Exit(1)
	}
}
