package epicycle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/GenAstro/Epicycle-sub001/integrator"
)

func writeConf(t *testing.T, dir, content string) string {
	path := filepath.Join(dir, "conf.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSettings(t *testing.T) {
	path := writeConf(t, t.TempDir(), `
[integrator]
method = "rk4"
fixed_step = 2.5
abstol = 1e-8
max_steps = 1000

[propagation]
max_span_days = 3
`)
	s, err := LoadSettings(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.Method != "rk4" || s.FixedStep != 2.5 || s.Integrator.AbsoluteTolerance != 1e-8 || s.Integrator.MaxStepCount != 1000 {
		t.Fatalf("invalid settings %+v", s)
	}
	if s.MaxSpan != 3*SecondsPerDay {
		t.Fatalf("max span %f", s.MaxSpan)
	}
	// Missing keys use the defaults.
	def := DefaultSettings()
	if s.Integrator.RelativeTolerance != def.Integrator.RelativeTolerance || s.Integrator.EventTolerance != def.Integrator.EventTolerance {
		t.Fatalf("defaults not applied: %+v", s.Integrator)
	}
	solver, err := s.solver()
	if err != nil {
		t.Fatal(err)
	}
	if fs, ok := solver.(integrator.FixedStep); !ok || fs.Step != 2.5 {
		t.Fatalf("rk4 selected %T", solver)
	}
}

func TestInvalidSettings(t *testing.T) {
	dir := t.TempDir()
	for _, content := range []string{
		"[integrator]\nabstol = -1\n",
		"[integrator]\nevent_tol = 0\n",
		"[integrator]\nmin_step = 10\nmax_step = 1\n",
		"[propagation]\nmax_span_days = 0\n",
	} {
		if _, err := LoadSettings(writeConf(t, dir, content)); !isConfigError(err) {
			t.Fatalf("%q accepted: %v", content, err)
		}
	}
	if _, err := LoadSettings(filepath.Join(dir, "missing.toml")); err == nil {
		t.Fatal("missing file accepted")
	}
	for _, method := range []string{"euler", "rk4"} {
		s := DefaultSettings()
		s.Method = method
		s.FixedStep = 0
		if _, err := s.solver(); !isConfigError(err) {
			t.Fatalf("%s accepted: %v", method, err)
		}
	}
}

func TestEnvSettings(t *testing.T) {
	t.Setenv(ConfigEnv, "")
	s, err := EnvSettings()
	if err != nil || s != DefaultSettings() {
		t.Fatalf("unset variable: %+v %v", s, err)
	}
	dir := t.TempDir()
	t.Setenv(ConfigEnv, dir)
	if s, err = EnvSettings(); err != nil || s != DefaultSettings() {
		t.Fatalf("empty directory: %+v %v", s, err)
	}
	writeConf(t, dir, "[integrator]\nreltol = 1e-12\n")
	if s, err = EnvSettings(); err != nil || s.Integrator.RelativeTolerance != 1e-12 {
		t.Fatalf("configured directory: %+v %v", s, err)
	}
	p, err := NewPropagator()
	if err != nil {
		t.Fatal(err)
	}
	if p.Settings.Integrator.RelativeTolerance != 1e-12 || p.Direction != Advancing {
		t.Fatalf("propagator %+v", p)
	}
}
