package epicycle

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/GenAstro/Epicycle-sub001/integrator"
	"github.com/spf13/viper"
)

// ConfigEnv is the environment variable naming the directory of the conf.toml file.
const ConfigEnv = "EPICYCLE_CONFIG"

// Settings are the numerical settings of a propagation.
type Settings struct {
	Integrator integrator.Config
	Method     string  // "dopri" (adaptive) or "rk4" (fixed step)
	FixedStep  float64 // step in seconds of the "rk4" method
	MaxSpan    float64 // seconds propagated when only state based stops are provided
}

// DefaultSettings returns the settings used when no configuration is available.
func DefaultSettings() Settings {
	return Settings{
		Integrator: integrator.DefaultConfig(),
		Method:     "dopri",
		FixedStep:  10,
		MaxSpan:    10 * 365.25 * SecondsPerDay,
	}
}

func (s Settings) validate() error {
	cfg := s.Integrator
	if cfg.AbsoluteTolerance <= 0 || cfg.RelativeTolerance <= 0 {
		return configErrorf("tolerances must be positive, got abs=%g rel=%g", cfg.AbsoluteTolerance, cfg.RelativeTolerance)
	}
	if cfg.MinStepSize < 0 || cfg.MaxStepSize < 0 || cfg.InitialStepSize < 0 {
		return configErrorf("step sizes may not be negative")
	}
	if cfg.MaxStepSize > 0 && cfg.MaxStepSize < cfg.MinStepSize {
		return configErrorf("maximum step %g is smaller than minimum step %g", cfg.MaxStepSize, cfg.MinStepSize)
	}
	if cfg.EventTolerance <= 0 {
		return configErrorf("event tolerance must be positive, got %g", cfg.EventTolerance)
	}
	if !(s.MaxSpan > 0) {
		return configErrorf("maximum span must be positive, got %g s", s.MaxSpan)
	}
	return nil
}

// solver returns the solver selected by the settings.
func (s Settings) solver() (integrator.Solver, error) {
	switch strings.ToLower(s.Method) {
	case "", "dopri", "dormand-prince":
		return integrator.NewDormandPrince(), nil
	case "rk4":
		if s.FixedStep <= 0 {
			return nil, configErrorf("rk4 requires a positive fixed step, got %g", s.FixedStep)
		}
		return integrator.FixedStep{Step: s.FixedStep}, nil
	default:
		return nil, configErrorf("unknown integration method %q", s.Method)
	}
}

// settingsFrom reads the settings from viper, falling back to the defaults for missing keys.
func settingsFrom(v *viper.Viper) (Settings, error) {
	def := DefaultSettings()
	v.SetDefault("integrator.method", def.Method)
	v.SetDefault("integrator.fixed_step", def.FixedStep)
	v.SetDefault("integrator.abstol", def.Integrator.AbsoluteTolerance)
	v.SetDefault("integrator.reltol", def.Integrator.RelativeTolerance)
	v.SetDefault("integrator.initial_step", def.Integrator.InitialStepSize)
	v.SetDefault("integrator.min_step", def.Integrator.MinStepSize)
	v.SetDefault("integrator.max_step", def.Integrator.MaxStepSize)
	v.SetDefault("integrator.max_steps", def.Integrator.MaxStepCount)
	v.SetDefault("integrator.event_tol", def.Integrator.EventTolerance)
	v.SetDefault("integrator.zero_tol", def.Integrator.ZeroTolerance)
	v.SetDefault("propagation.max_span_days", def.MaxSpan/SecondsPerDay)

	s := Settings{
		Method:    v.GetString("integrator.method"),
		FixedStep: v.GetFloat64("integrator.fixed_step"),
		MaxSpan:   v.GetFloat64("propagation.max_span_days") * SecondsPerDay,
		Integrator: integrator.Config{
			InitialStepSize:   v.GetFloat64("integrator.initial_step"),
			MinStepSize:       v.GetFloat64("integrator.min_step"),
			MaxStepSize:       v.GetFloat64("integrator.max_step"),
			AbsoluteTolerance: v.GetFloat64("integrator.abstol"),
			RelativeTolerance: v.GetFloat64("integrator.reltol"),
			MaxStepCount:      v.GetUint("integrator.max_steps"),
			EventTolerance:    v.GetFloat64("integrator.event_tol"),
			ZeroTolerance:     v.GetFloat64("integrator.zero_tol"),
		},
	}
	return s, s.validate()
}

// LoadSettings reads the settings from the provided configuration file.
func LoadSettings(path string) (Settings, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Settings{}, fmt.Errorf("could not read %s: %w", path, err)
	}
	return settingsFrom(v)
}

// EnvSettings reads conf.toml from the directory named by EPICYCLE_CONFIG. If the variable is not
// set or the directory has no configuration, the default settings are returned.
func EnvSettings() (Settings, error) {
	confPath := os.Getenv(ConfigEnv)
	if confPath == "" {
		return DefaultSettings(), nil
	}
	v := viper.New()
	v.SetConfigName("conf")
	v.AddConfigPath(confPath)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return DefaultSettings(), nil
		}
		return Settings{}, fmt.Errorf("%s/conf: %w", confPath, err)
	}
	return settingsFrom(v)
}
