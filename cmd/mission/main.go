package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	epicycle "github.com/GenAstro/Epicycle-sub001"
	kitlog "github.com/go-kit/kit/log"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/spf13/viper"
)

// This code reads a scenario file and propagates its spacecraft until the scenario's stops.

const defaultScenario = "~~unset~~"

var (
	scenario string
	export   string
	verbose  bool
)

func init() {
	flag.StringVar(&scenario, "scenario", defaultScenario, "scenario TOML file")
	flag.StringVar(&export, "export", "", "prefix of the exported trajectory files (xyzv, CSV and Cosmographia catalog)")
	flag.BoolVar(&verbose, "verbose", false, "log every propagation phase")
}

func main() {
	flag.Parse()
	if scenario == defaultScenario {
		log.Fatal("no scenario provided")
	}
	scenario = strings.Replace(scenario, ".toml", "", 1)
	viper.AddConfigPath(".")
	viper.SetConfigName(scenario)
	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("./%s.toml: Error %s", scenario, err)
	}

	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout))
	if !verbose {
		logger = kitlog.NewNopLogger()
	}

	// Start epoch
	scale := epicycle.UTC
	if viper.IsSet("mission.scale") {
		var err error
		if scale, err = epicycle.TimeScaleFromString(viper.GetString("mission.scale")); err != nil {
			log.Fatal(err)
		}
	}
	start := epicycle.NewEpoch(confReadJDEorTime("mission.start"), scale)

	// Orbit
	centralBody, err := epicycle.CelestialObjectFromString(viper.GetString("orbit.body"))
	if err != nil {
		log.Fatalf("could not understand body `%s`: %s", viper.GetString("orbit.body"), err)
	}
	a := viper.GetFloat64("orbit.sma")
	e := viper.GetFloat64("orbit.ecc")
	i := viper.GetFloat64("orbit.inc")
	Ω := viper.GetFloat64("orbit.RAAN")
	ω := viper.GetFloat64("orbit.argPeri")
	ν := viper.GetFloat64("orbit.tAnomaly")
	sc, err := epicycle.NewSpacecraftFromOrbit(viper.GetString("spacecraft.name"), *epicycle.NewOrbitFromOE(a, e, i, Ω, ω, ν, centralBody), start)
	if err != nil {
		log.Fatal(err)
	}
	sc.SetLogger(kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout)))

	fm, err := forceModel(centralBody)
	if err != nil {
		log.Fatal(err)
	}
	stops, err := readStops(sc, centralBody)
	if err != nil {
		log.Fatal(err)
	}

	prop, err := epicycle.NewPropagator()
	if err != nil {
		log.Fatal(err)
	}
	prop.Logger = logger
	if viper.IsSet("stop.direction") {
		if prop.Direction, err = epicycle.DirectionFromString(viper.GetString("stop.direction")); err != nil {
			log.Fatal(err)
		}
	}
	res, err := prop.Propagate(fm, []epicycle.Subject{sc}, stops...)
	if err != nil {
		log.Fatal(err)
	}
	if res.Fired != nil {
		fmt.Printf("stopped on %s\n", res.Fired)
	}
	sc.LogInfo()
	fmt.Printf("%s\n%s\n", sc, sc.Orbit(centralBody))
	if export != "" {
		if err := exportHistory(sc, centralBody); err != nil {
			log.Fatal(err)
		}
	}
}

func exportHistory(sc *epicycle.Spacecraft, central epicycle.CelestialObject) error {
	seg, ok := sc.History.Last()
	if !ok {
		return nil
	}
	write := func(name string, fn func(f *os.File) error) error {
		f, err := os.Create(name)
		if err != nil {
			return err
		}
		defer f.Close()
		fmt.Printf("Saving file to %s.\n", f.Name())
		return fn(f)
	}
	// The catalog names the trajectory file of each segment by its index.
	idx := len(sc.History.Segments) - 1
	if err := write(fmt.Sprintf("prop-%s-%d.xyzv", export, idx), func(f *os.File) error {
		return epicycle.WriteInterpolatedStates(f, seg)
	}); err != nil {
		return err
	}
	if err := write(fmt.Sprintf("orbital-elements-%s.csv", export), func(f *os.File) error {
		return epicycle.WriteElementsCSV(f, seg, central)
	}); err != nil {
		return err
	}
	return write(fmt.Sprintf("catalog-%s.json", export), func(f *os.File) error {
		return epicycle.WriteCatalog(f, epicycle.NewCgCatalog(sc.Name(), sc.History, "prop-"+export))
	})
}

func forceModel(central epicycle.CelestialObject) (*epicycle.ForceModel, error) {
	var perturbers []epicycle.CelestialObject
	for _, body := range viper.GetStringSlice("perturbations.bodies") {
		celObj, err := epicycle.CelestialObjectFromString(body)
		if err != nil {
			return nil, fmt.Errorf("could not understand body `%s`: %s", body, err)
		}
		perturbers = append(perturbers, celObj)
	}
	gravity, err := epicycle.NewPointMassGravity(central, epicycle.MeeusEphemeris{}, perturbers...)
	if err != nil {
		return nil, err
	}
	terms := []epicycle.ForceTerm{gravity}
	var jN uint8
	if viper.GetBool("perturbations.J3") {
		jN = 3
	} else if viper.GetBool("perturbations.J2") {
		jN = 2
	}
	if jN > 0 {
		terms = append(terms, epicycle.ZonalHarmonics{Body: central, Degree: jN})
	}
	return epicycle.NewForceModel(terms...)
}

// readStops reads the [stop] table: a duration (seconds or days) or an end epoch, and/or a
// quantity crossing a target.
func readStops(sc *epicycle.Spacecraft, central epicycle.CelestialObject) ([]*epicycle.Stop, error) {
	var stops []*epicycle.Stop
	add := func(st *epicycle.Stop, err error) error {
		if err != nil {
			return err
		}
		stops = append(stops, st)
		return nil
	}
	var err error
	switch {
	case viper.IsSet("stop.seconds"):
		err = add(epicycle.NewSecondsStop(sc, viper.GetFloat64("stop.seconds")))
	case viper.IsSet("stop.days"):
		err = add(epicycle.NewDaysStop(sc, viper.GetFloat64("stop.days")))
	case viper.IsSet("stop.end"):
		err = add(epicycle.NewEpochStop(sc, epicycle.NewEpoch(confReadJDEorTime("stop.end"), sc.Epoch().Scale())))
	}
	if err != nil {
		return nil, err
	}
	if viper.IsSet("stop.quantity") {
		q, err := epicycle.QuantityFromString(viper.GetString("stop.quantity"), central)
		if err != nil {
			return nil, err
		}
		crossing, err := epicycle.CrossingFromString(viper.GetString("stop.crossing"))
		if err != nil {
			return nil, err
		}
		if err := add(epicycle.NewCrossingStop(sc, q, viper.GetFloat64("stop.target"), crossing)); err != nil {
			return nil, err
		}
	}
	return stops, nil
}

func confReadJDEorTime(key string) (dt time.Time) {
	jde := viper.GetFloat64(key)
	if jde == 0 {
		dt = viper.GetTime(key)
	} else {
		dt = julian.JDToTime(jde)
	}
	return
}
