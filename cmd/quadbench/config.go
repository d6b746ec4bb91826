package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/sprite"
)

// config is a benchmark run: a device and the scenarios to measure on it.
type config struct {
	Backend string
	Width   int
	Height  int
	Seed    uint64
	// Frame cap passed to the perf counter. Zero means uncapped.
	MaxFPS    int `yaml:"maxFPS"`
	Scenarios []scenario
}

// scenario is one measurement, matching the flags of a single run.
type scenario struct {
	Name       string
	Kind       string // cpu or gpu
	Quads      int
	Size       uint32
	Frames     int // zero runs until enough tallies
	Parallel   bool
	Interleave bool
	Scatter    bool
}

func defaultConfig() config {
	return config{Width: 800, Height: 600, Seed: 1}
}

func (s scenario) kind() (sprite.RendererKind, error) {
	switch s.Kind {
	case "", "cpu":
		return sprite.KindCPU, nil
	case "gpu":
		return sprite.KindGPU, nil
	default:
		return 0, fmt.Errorf("unknown renderer kind %q", s.Kind)
	}
}

func (s scenario) String() string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("%s/%d@%d/parallel=%t/interleave=%t/scatter=%t",
		s.Kind, s.Quads, s.Size, s.Parallel, s.Interleave, s.Scatter)
}

func (c *config) validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid viewport %dx%d", c.Width, c.Height)
	}
	if len(c.Scenarios) == 0 {
		return errors.New("no scenarios")
	}
	for i, s := range c.Scenarios {
		if _, err := s.kind(); err != nil {
			return fmt.Errorf("scenario %d: %w", i, err)
		}
		if s.Quads <= 0 {
			return fmt.Errorf("scenario %d: quads must be positive, got %d", i, s.Quads)
		}
		if s.Size == 0 || int(s.Size) >= c.Width || int(s.Size) >= c.Height {
			return fmt.Errorf("scenario %d: quad size %d does not fit %dx%d", i, s.Size, c.Width, c.Height)
		}
		if s.Frames < 0 {
			return fmt.Errorf("scenario %d: negative frame count", i)
		}
	}
	return nil
}

func readConfigFile(filename string) (*config, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := readConfig(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	return c, nil
}

func readConfig(r io.Reader) (*config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	c := defaultConfig()
	if err := dec.Decode(&c); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
