// Package config reads workbench settings from flags, environment and session files.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ava12/g4scope/compiled"
	"github.com/ava12/g4scope/dot"
	"github.com/ava12/g4scope/workbench"
)

// EnvPrefix is the prefix of environment variables, e.g. G4SCOPE_ENGINE.
const EnvPrefix = "G4SCOPE"

// Setting keys:
const (
	KeyEngine       = "engine"
	KeyGo           = "go"
	KeyWorkDir      = "work_dir"
	KeyBuildTimeout = "build_timeout"
	KeyRunTimeout   = "run_timeout"
	KeyStyle        = "style"
	KeyFormat       = "format"
	KeyDebug        = "debug"
	KeyVerbose      = "verbose"
)

// Output formats:
const (
	FormatText    = "text"
	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
)

var formats = []string{FormatText, FormatJSON, FormatMsgpack}

// Config holds resolved settings.
type Config struct {
	Engine       workbench.Engine
	GoCommand    string
	WorkDir      string
	BuildTimeout time.Duration
	RunTimeout   time.Duration
	Style        dot.Style
	Format       string
	Debug        bool
	Verbose      bool
}

// New returns a settings registry with defaults set and environment lookup enabled.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyEngine, workbench.Interpreted.String())
	v.SetDefault(KeyGo, "go")
	v.SetDefault(KeyWorkDir, "")
	v.SetDefault(KeyBuildTimeout, compiled.DefaultBuildTimeout)
	v.SetDefault(KeyRunTimeout, compiled.DefaultRunTimeout)
	v.SetDefault(KeyStyle, dot.Display.String())
	v.SetDefault(KeyFormat, FormatText)
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeyVerbose, false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// ParseFormat checks output format name.
func ParseFormat(name string) (string, error) {
	name = strings.ToLower(name)
	for _, f := range formats {
		if f == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q", name)
}

// Load resolves and validates settings.
func Load(v *viper.Viper) (*Config, error) {
	c := &Config{
		GoCommand:    v.GetString(KeyGo),
		WorkDir:      v.GetString(KeyWorkDir),
		BuildTimeout: v.GetDuration(KeyBuildTimeout),
		RunTimeout:   v.GetDuration(KeyRunTimeout),
		Debug:        v.GetBool(KeyDebug),
		Verbose:      v.GetBool(KeyVerbose),
	}

	var e error
	if c.Engine, e = workbench.ParseEngine(v.GetString(KeyEngine)); e != nil {
		return nil, fmt.Errorf("%s: %w", KeyEngine, e)
	}
	if c.Style, e = dot.ParseStyle(v.GetString(KeyStyle)); e != nil {
		return nil, fmt.Errorf("%s: %w", KeyStyle, e)
	}
	if c.Format, e = ParseFormat(v.GetString(KeyFormat)); e != nil {
		return nil, fmt.Errorf("%s: %w", KeyFormat, e)
	}
	if c.BuildTimeout <= 0 || c.RunTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be positive")
	}
	return c, nil
}

// Workbench returns workbench settings.
func (c *Config) Workbench() workbench.Config {
	return workbench.Config{
		Compiled: compiled.Config{
			WorkDir:      c.WorkDir,
			GoCommand:    c.GoCommand,
			BuildTimeout: c.BuildTimeout,
			RunTimeout:   c.RunTimeout,
		},
		Style: c.Style,
	}
}
