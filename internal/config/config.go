// Package config loads the bramble command configuration from defaults, a
// YAML or JSON file, BRAMBLE_* environment variables and command flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/phanxgames/bramble"
	"github.com/phanxgames/bramble/internal/logging"
)

// EnvPrefix prefixes environment overrides: sim.run_time is read from
// BRAMBLE_SIM_RUN_TIME.
const EnvPrefix = "BRAMBLE"

type Config struct {
	Log     Log      `mapstructure:"log" yaml:"log"`
	Sim     Sim      `mapstructure:"sim" yaml:"sim"`
	Window  Window   `mapstructure:"window" yaml:"window"`
	Term    Term     `mapstructure:"term" yaml:"term"`
	Render  Render   `mapstructure:"render" yaml:"render"`
	Metrics Metrics  `mapstructure:"metrics" yaml:"metrics"`
	Regions []Region `mapstructure:"regions" yaml:"regions"`
}

type Log struct {
	// Level is one of trace, debug, info, warn, error or none.
	Level string `mapstructure:"level" yaml:"level"`
	// File appends logs to a file instead of stderr.
	File string `mapstructure:"file" yaml:"file"`
}

// Sim holds simulation settings. Zero caps keep the profile's value.
type Sim struct {
	// Profile is "vertical" or "horizontal".
	Profile            string   `mapstructure:"profile" yaml:"profile"`
	Seed               uint64   `mapstructure:"seed" yaml:"seed"`
	MaxTrees           int      `mapstructure:"max_trees" yaml:"max_trees"`
	MinSpacing         float64  `mapstructure:"min_spacing" yaml:"min_spacing"`
	RunTime            Duration `mapstructure:"run_time" yaml:"run_time"`
	FieldRefreshFrames int      `mapstructure:"field_refresh_frames" yaml:"field_refresh_frames"`
	TPS                int      `mapstructure:"tps" yaml:"tps"`
	MaxDrainPerTick    int      `mapstructure:"max_drain_per_tick" yaml:"max_drain_per_tick"`
	MaxAdvancePerTick  int      `mapstructure:"max_advance_per_tick" yaml:"max_advance_per_tick"`
	MaxBranchAttempts  int      `mapstructure:"max_branch_attempts" yaml:"max_branch_attempts"`
	// Recession is "on", "off" or empty for the profile default.
	Recession string  `mapstructure:"recession" yaml:"recession"`
	Debug     bool    `mapstructure:"debug" yaml:"debug"`
	Padding   Padding `mapstructure:"padding" yaml:"padding"`
}

// Padding is the collision padding per region category, in pixels.
type Padding struct {
	App    float64 `mapstructure:"app" yaml:"app"`
	Intro  float64 `mapstructure:"intro" yaml:"intro"`
	Header float64 `mapstructure:"header" yaml:"header"`
	Decor  float64 `mapstructure:"decor" yaml:"decor"`
}

type Window struct {
	Title         string `mapstructure:"title" yaml:"title"`
	Width         int    `mapstructure:"width" yaml:"width"`
	Height        int    `mapstructure:"height" yaml:"height"`
	ShowFPS       bool   `mapstructure:"show_fps" yaml:"show_fps"`
	ScreenshotDir string `mapstructure:"screenshot_dir" yaml:"screenshot_dir"`
}

type Term struct {
	CellWidth  float64 `mapstructure:"cell_width" yaml:"cell_width"`
	CellHeight float64 `mapstructure:"cell_height" yaml:"cell_height"`
	NoColor    bool    `mapstructure:"no_color" yaml:"no_color"`
}

type Render struct {
	Width  int `mapstructure:"width" yaml:"width"`
	Height int `mapstructure:"height" yaml:"height"`
	// Frames to run. Zero runs until the run time elapses.
	Frames int    `mapstructure:"frames" yaml:"frames"`
	Output string `mapstructure:"output" yaml:"output"`
	// Script is an optional scenario file replayed during the run.
	Script string `mapstructure:"script" yaml:"script"`
}

type Metrics struct {
	Namespace string `mapstructure:"namespace" yaml:"namespace"`
	// Textfile receives the metrics in Prometheus text format after a
	// render. Empty disables it.
	Textfile string `mapstructure:"textfile" yaml:"textfile"`
}

// Region is a static UI panel the trees avoid.
type Region struct {
	ID     string  `mapstructure:"id" yaml:"id"`
	X      float64 `mapstructure:"x" yaml:"x"`
	Y      float64 `mapstructure:"y" yaml:"y"`
	Width  float64 `mapstructure:"width" yaml:"width"`
	Height float64 `mapstructure:"height" yaml:"height"`
	// Category is app, intro, header or decor.
	Category string `mapstructure:"category" yaml:"category"`
	Hidden   bool   `mapstructure:"hidden" yaml:"hidden"`
}

// Default returns the built-in configuration.
func Default() Config {
	pad := bramble.DefaultPadding()
	return Config{
		Log: Log{Level: "info"},
		Sim: Sim{
			Profile:            bramble.ProfileVertical,
			RunTime:            Duration(bramble.DefaultConfig().MaxRunTime),
			FieldRefreshFrames: 120,
			TPS:                60,
			Padding:            Padding{App: pad.App, Intro: pad.Intro, Header: pad.Header, Decor: pad.Decor},
		},
		Window: Window{Title: "bramble", Width: 1280, Height: 720, ScreenshotDir: "screenshots"},
		Term:   Term{CellWidth: 12, CellHeight: 24},
		Render: Render{Width: 1280, Height: 720, Output: "bramble.png"},
		Metrics: Metrics{
			Namespace: "bramble",
		},
	}
}

// DefineFlags adds the flags Load binds to cmd.
func DefineFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("log.level", "info", "log level: trace, debug, info, warn, error or none")
	cmd.PersistentFlags().String("log.file", "", "optional log file, stderr when empty")
	cmd.PersistentFlags().String("sim.profile", bramble.ProfileVertical, "growth profile: vertical or horizontal")
	cmd.PersistentFlags().Uint64("sim.seed", 0, "random seed, 0 seeds from the runtime")
	cmd.PersistentFlags().Duration("sim.run_time", bramble.DefaultConfig().MaxRunTime, "stop growing after this long, 0 runs forever")
	cmd.PersistentFlags().Int("sim.max_trees", 0, "maximum number of trees, 0 keeps the profile value")
	cmd.PersistentFlags().Bool("sim.debug", false, "log per-frame timings at debug level")
}

var boundFlags = []string{
	"log.level", "log.file", "sim.profile", "sim.seed", "sim.run_time", "sim.max_trees", "sim.debug",
	"window.width", "window.height", "window.show_fps",
	"render.width", "render.height", "render.frames", "render.output", "render.script",
	"metrics.textfile", "term.no_color",
}

func newViper() *viper.Viper {
	v := viper.NewWithOptions(viper.WithDecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		StringToDurationHookFunc(),
	)))
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Default())
	return v
}

func setDefaults(v *viper.Viper, d Config) {
	defaults := map[string]any{
		"log.level":                    d.Log.Level,
		"log.file":                     d.Log.File,
		"sim.profile":                  d.Sim.Profile,
		"sim.seed":                     d.Sim.Seed,
		"sim.max_trees":                d.Sim.MaxTrees,
		"sim.min_spacing":              d.Sim.MinSpacing,
		"sim.run_time":                 d.Sim.RunTime.String(),
		"sim.field_refresh_frames":     d.Sim.FieldRefreshFrames,
		"sim.tps":                      d.Sim.TPS,
		"sim.max_drain_per_tick":       d.Sim.MaxDrainPerTick,
		"sim.max_advance_per_tick":     d.Sim.MaxAdvancePerTick,
		"sim.max_branch_attempts":      d.Sim.MaxBranchAttempts,
		"sim.recession":                d.Sim.Recession,
		"sim.debug":                    d.Sim.Debug,
		"sim.padding.app":              d.Sim.Padding.App,
		"sim.padding.intro":            d.Sim.Padding.Intro,
		"sim.padding.header":           d.Sim.Padding.Header,
		"sim.padding.decor":            d.Sim.Padding.Decor,
		"window.title":                 d.Window.Title,
		"window.width":                 d.Window.Width,
		"window.height":                d.Window.Height,
		"window.show_fps":              d.Window.ShowFPS,
		"window.screenshot_dir":        d.Window.ScreenshotDir,
		"term.cell_width":              d.Term.CellWidth,
		"term.cell_height":             d.Term.CellHeight,
		"term.no_color":                d.Term.NoColor,
		"render.width":                 d.Render.Width,
		"render.height":                d.Render.Height,
		"render.frames":                d.Render.Frames,
		"render.output":                d.Render.Output,
		"render.script":                d.Render.Script,
		"metrics.namespace":            d.Metrics.Namespace,
		"metrics.textfile":             d.Metrics.Textfile,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

// Load builds the configuration. Flags of cmd that were changed on the
// command line override everything else. An empty file skips the file
// layer.
func Load(cmd *cobra.Command, file string) (Config, error) {
	v := newViper()
	if cmd != nil {
		for _, name := range boundFlags {
			f := cmd.Flags().Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(name, f); err != nil {
				return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if _, ok := bramble.ProfileByName(c.Sim.Profile); !ok {
		errs = append(errs, fmt.Errorf("sim.profile: unknown profile %q", c.Sim.Profile))
	}
	if c.Sim.TPS <= 0 {
		errs = append(errs, errors.New("sim.tps must be positive"))
	}
	if c.Sim.RunTime < 0 {
		errs = append(errs, errors.New("sim.run_time must not be negative"))
	}
	for name, n := range map[string]int{
		"sim.max_trees":            c.Sim.MaxTrees,
		"sim.field_refresh_frames": c.Sim.FieldRefreshFrames,
		"sim.max_drain_per_tick":   c.Sim.MaxDrainPerTick,
		"sim.max_advance_per_tick": c.Sim.MaxAdvancePerTick,
		"sim.max_branch_attempts":  c.Sim.MaxBranchAttempts,
		"render.frames":            c.Render.Frames,
	} {
		if n < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", name))
		}
	}
	switch c.Sim.Recession {
	case "", "on", "off":
	default:
		errs = append(errs, fmt.Errorf("sim.recession: want on, off or empty, got %q", c.Sim.Recession))
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, errors.New("window size must be positive"))
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		errs = append(errs, errors.New("render size must be positive"))
	}
	if c.Term.CellWidth <= 0 || c.Term.CellHeight <= 0 {
		errs = append(errs, errors.New("term cell size must be positive"))
	}
	for i, r := range c.Regions {
		if _, ok := bramble.ParseRegionCategory(r.Category); !ok {
			errs = append(errs, fmt.Errorf("regions[%d]: unknown category %q", i, r.Category))
		}
		if r.Width < 0 || r.Height < 0 {
			errs = append(errs, fmt.Errorf("regions[%d]: negative size", i))
		}
	}
	return errors.Join(errs...)
}

// SimConfig converts the sim section to a driver configuration. The
// logger and observer are left for the caller.
func (c Config) SimConfig() bramble.Config {
	p, _ := bramble.ProfileByName(c.Sim.Profile)
	if c.Sim.MaxTrees > 0 {
		p.MaxTrees = c.Sim.MaxTrees
	}
	if c.Sim.MinSpacing > 0 {
		p.MinSpacing = c.Sim.MinSpacing
	}
	if c.Sim.MaxDrainPerTick > 0 {
		p.MaxDrainPerTick = c.Sim.MaxDrainPerTick
	}
	if c.Sim.MaxAdvancePerTick > 0 {
		p.MaxAdvancePerTick = c.Sim.MaxAdvancePerTick
	}
	if c.Sim.MaxBranchAttempts > 0 {
		p.MaxBranchAttempts = c.Sim.MaxBranchAttempts
	}
	switch c.Sim.Recession {
	case "on":
		p.Recession.Enabled = true
	case "off":
		p.Recession.Enabled = false
	}

	cfg := bramble.DefaultConfig()
	cfg.Profile = p
	cfg.MaxRunTime = c.Sim.RunTime.ToDuration()
	cfg.FieldRefreshFrames = c.Sim.FieldRefreshFrames
	cfg.TPS = c.Sim.TPS
	cfg.Seed = c.Sim.Seed
	cfg.Debug = c.Sim.Debug
	cfg.Padding = bramble.PaddingTable{
		App:    c.Sim.Padding.App,
		Intro:  c.Sim.Padding.Intro,
		Header: c.Sim.Padding.Header,
		Decor:  c.Sim.Padding.Decor,
	}
	return cfg
}

// BrambleRegions converts the configured regions. Unknown categories, which
// Validate rejects, fall back to decor.
func (c Config) BrambleRegions() []bramble.Region {
	out := make([]bramble.Region, 0, len(c.Regions))
	for _, r := range c.Regions {
		cat, _ := bramble.ParseRegionCategory(r.Category)
		out = append(out, bramble.Region{
			ID:       r.ID,
			Bounds:   bramble.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height},
			Category: cat,
			Hidden:   r.Hidden,
		})
	}
	return out
}

// DefaultYAML renders Default as YAML.
func DefaultYAML() ([]byte, error) {
	c := Default()
	c.Regions = []Region{{ID: "intro", X: 80, Y: 60, Width: 480, Height: 160, Category: "intro"}}
	b, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal default config: %w", err)
	}
	return b, nil
}
