package chassis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/chassisrt/chassis/feeders"
	"github.com/fsnotify/fsnotify"
	"github.com/golobby/cast"
	"gopkg.in/yaml.v3"
)

// ControllerConfig holds the controller-level settings that would
// otherwise have to be wired up through ControllerOptions by hand. Its
// fields are the top-level keys of a shared TOML/YAML file; individual
// modules keep their own named sections and load them with
// LoadModuleSection.
type ControllerConfig struct {
	TickPeriod           time.Duration `toml:"tick_period" yaml:"tick_period"`
	StartingStallTimeout time.Duration `toml:"starting_stall_timeout" yaml:"starting_stall_timeout"`
	ShutdownTimeout      time.Duration `toml:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// DefaultControllerConfig returns the same defaults NewController applies
// when no ControllerOption overrides them.
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		TickPeriod:           10 * time.Millisecond,
		StartingStallTimeout: 30 * time.Second,
		ShutdownTimeout:      30 * time.Second,
	}
}

// LoadControllerConfig reads path (TOML or YAML, by extension) into a
// ControllerConfig seeded with DefaultControllerConfig's values, so a
// config file only needs to mention the fields it overrides.
func LoadControllerConfig(path string) (ControllerConfig, error) {
	cfg := DefaultControllerConfig()
	if path == "" {
		return cfg, ErrConfigPathEmpty
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("chassis: failed to decode %q: %w", path, err)
		}
	case ".yaml", ".yml":
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("chassis: failed to read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("chassis: failed to decode %q: %w", path, err)
		}
	default:
		return cfg, ErrConfigUnsupportedExt
	}
	return cfg, nil
}

var int64Type = reflect.TypeOf(int64(0))

// castDuration coerces value into a time.Duration. It accepts "500ms", "5s",
// or a bare integer count of nanoseconds: duration strings go through
// time.ParseDuration, and anything else is coerced by golobby/cast's
// cast.FromType as an int64 nanosecond count.
func castDuration(value string) (time.Duration, error) {
	if d, err := time.ParseDuration(value); err == nil {
		return d, nil
	}
	converted, err := cast.FromType(value, int64Type)
	if err != nil {
		return 0, err
	}
	n, ok := converted.(int64)
	if !ok {
		return 0, fmt.Errorf("chassis: cast returned %T, not int64", converted)
	}
	return time.Duration(n), nil
}

// ApplyEnvOverride coerces a single environment-variable-style string
// value onto the matching ControllerConfig field, using golobby/cast for
// the loose-typed duration coercion.
func (cfg *ControllerConfig) ApplyEnvOverride(key, value string) error {
	switch key {
	case "CHASSIS_TICK_PERIOD":
		d, err := castDuration(value)
		if err != nil {
			return err
		}
		cfg.TickPeriod = d
	case "CHASSIS_STARTING_STALL_TIMEOUT":
		d, err := castDuration(value)
		if err != nil {
			return err
		}
		cfg.StartingStallTimeout = d
	case "CHASSIS_SHUTDOWN_TIMEOUT":
		d, err := castDuration(value)
		if err != nil {
			return err
		}
		cfg.ShutdownTimeout = d
	}
	return nil
}

// AsControllerOptions converts cfg into the ControllerOptions NewController
// expects.
func (cfg ControllerConfig) AsControllerOptions() []ControllerOption {
	return []ControllerOption{
		WithTickPeriod(cfg.TickPeriod),
		WithStartingStallTimeout(cfg.StartingStallTimeout),
		WithShutdownTimeout(cfg.ShutdownTimeout),
	}
}

// LoadModuleSection decodes the section named key out of the shared config
// file at path into target, using the TOML or YAML feeder matching the
// file's extension. Modules call this from their own Init to read their
// private slice of a file the controller also reads its top-level keys
// from.
func LoadModuleSection(path, key string, target interface{}) error {
	var feeder feeders.KeyFeeder
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		feeder = feeders.NewTomlFeeder(path)
	case ".yaml", ".yml":
		feeder = feeders.NewYamlFeeder(path)
	default:
		return ErrConfigUnsupportedExt
	}
	return feeder.FeedKey(key, target)
}

// RequireModuleSection behaves like LoadModuleSection, except a missing key
// is reported as ErrConfigKeyNotFound instead of silently leaving target
// unmodified. Use this for sections a module cannot start without.
func RequireModuleSection(path, key string, target interface{}) error {
	var feeder feeders.KeyFeeder
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		feeder = feeders.NewTomlFeeder(path)
	case ".yaml", ".yml":
		feeder = feeders.NewYamlFeeder(path)
	default:
		return ErrConfigUnsupportedExt
	}

	exists, err := feeder.HasKey(key)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %q", ErrConfigKeyNotFound, key)
	}
	return feeder.FeedKey(key, target)
}

// ConfigWatcher watches the controller's config file for writes, re-parses
// it on each one, and reports the diff against the last-applied values. It
// never re-applies the new values itself — per the controller's
// notify-only reload policy, deciding what to do with a changed config is
// always the caller's job. A write that re-parses to the same values as
// last time emits nothing.
type ConfigWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	onEvent func(ctx context.Context, eventType EventType, data map[string]any)
	done    chan struct{}
	last    ControllerConfig
}

// WatchConfig starts watching path and calls emit with EventConfigChanged,
// carrying the diff of whatever fields changed, whenever the file is
// written and re-parses to different values than last time. Call Close to
// stop watching.
func WatchConfig(path string, emit func(ctx context.Context, eventType EventType, data map[string]any)) (*ConfigWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return nil, err
	}

	initial, _ := LoadControllerConfig(path)
	cw := &ConfigWatcher{path: path, watcher: w, onEvent: emit, done: make(chan struct{}), last: initial}
	go cw.run()
	return cw, nil
}

func (cw *ConfigWatcher) run() {
	defer close(cw.done)
	base := filepath.Base(cw.path)
	for event := range cw.watcher.Events {
		if filepath.Base(event.Name) != base {
			continue
		}
		if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
			continue
		}

		next, err := LoadControllerConfig(cw.path)
		if err != nil {
			continue
		}
		diff := diffControllerConfig(cw.last, next)
		if len(diff) == 0 {
			continue
		}
		cw.last = next
		if cw.onEvent != nil {
			cw.onEvent(context.Background(), EventConfigChanged, map[string]any{"path": cw.path, "diff": diff})
		}
	}
}

// diffControllerConfig reports every field that differs between prev and
// next, keyed by its config tag name, each with a before/after pair.
func diffControllerConfig(prev, next ControllerConfig) map[string]any {
	diff := make(map[string]any)
	if prev.TickPeriod != next.TickPeriod {
		diff["tick_period"] = map[string]any{"before": prev.TickPeriod, "after": next.TickPeriod}
	}
	if prev.StartingStallTimeout != next.StartingStallTimeout {
		diff["starting_stall_timeout"] = map[string]any{"before": prev.StartingStallTimeout, "after": next.StartingStallTimeout}
	}
	if prev.ShutdownTimeout != next.ShutdownTimeout {
		diff["shutdown_timeout"] = map[string]any{"before": prev.ShutdownTimeout, "after": next.ShutdownTimeout}
	}
	return diff
}

// Close stops the watcher and waits for its goroutine to exit.
func (cw *ConfigWatcher) Close() error {
	err := cw.watcher.Close()
	<-cw.done
	return err
}
