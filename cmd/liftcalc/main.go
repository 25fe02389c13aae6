package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"Aerostat/internal/calc/airship"
	"Aerostat/internal/calc/lift"
	"Aerostat/internal/calc/pipeline"
	"Aerostat/internal/calc/report"
	"Aerostat/internal/calc/validate"
	"Aerostat/internal/config"

	"github.com/spf13/cobra"
)

type options struct {
	weight     string
	altitude   string
	tempMin    string
	tempMax    string
	gas        string
	engineFile string
	configFile string
	saveFile   string
	reportFile string
	project    string
	author     string
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var verrs validate.Errors
	if errors.As(err, &verrs) {
		return 2
	}
	return 1
}

func newRootCmd(out io.Writer) *cobra.Command {
	var o options
	cmd := &cobra.Command{
		Use:          "liftcalc",
		Short:        "Compute envelope volume and lift margin for an airship",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(out, o)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.weight, "weight", "w", "", "total weight, kg")
	f.StringVarP(&o.altitude, "altitude", "a", "", "target altitude, km")
	f.StringVar(&o.tempMin, "temp-min", "", "minimum ambient temperature, C (optional)")
	f.StringVar(&o.tempMax, "temp-max", "", "maximum ambient temperature, C (optional)")
	f.StringVar(&o.gas, "gas", "", "lifting gas: helium or hydrogen (default from engine config)")
	f.StringVar(&o.engineFile, "engine", "", "engine YAML config")
	f.StringVar(&o.configFile, "load", "", "load the airship config from a saved file")
	f.StringVar(&o.saveFile, "save", "", "save the validated airship config to a file")
	f.StringVarP(&o.reportFile, "report", "r", "", "write a report; format from extension (.pdf, .xlsx, .csv)")
	f.StringVar(&o.project, "project", "", "report project name")
	f.StringVar(&o.author, "author", "", "report author")
	for _, name := range []string{"weight", "altitude", "temp-min", "temp-max"} {
		cmd.MarkFlagsMutuallyExclusive("load", name)
	}
	return cmd
}

func run(out io.Writer, o options) error {
	engine, err := config.LoadEngine(o.engineFile)
	if err != nil {
		return err
	}
	p, err := pipeline.New(engine.Settings)
	if err != nil {
		return err
	}
	gasName := o.gas
	if gasName == "" {
		gasName = engine.Gas
	}
	gas, err := lift.GasByName(gasName)
	if err != nil {
		return err
	}

	in := airship.RawInput{
		WeightKg:         o.weight,
		TargetAltitudeKm: o.altitude,
		TempMinC:         o.tempMin,
		TempMaxC:         o.tempMax,
	}
	if o.configFile != "" {
		data, err := os.ReadFile(o.configFile)
		if err != nil {
			return err
		}
		cfg, err := airship.Load(data)
		if err != nil {
			return err
		}
		in = cfg.Raw()
	}

	res, err := p.Calculate(in, nil, gas)
	if err != nil {
		return err
	}

	if o.saveFile != "" {
		data, err := airship.Save(res.Config)
		if err != nil {
			return err
		}
		if err := os.WriteFile(o.saveFile, data, 0o644); err != nil {
			return err
		}
	}
	if o.reportFile != "" {
		if err := writeReport(o, res); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func writeReport(o options, res pipeline.Result) error {
	format, err := report.ParseFormat(strings.TrimPrefix(strings.ToLower(filepath.Ext(o.reportFile)), "."))
	if err != nil {
		return err
	}
	f, err := os.Create(o.reportFile)
	if err != nil {
		return err
	}
	meta := report.Meta{Project: o.project, Author: o.author, Date: time.Now()}
	if err := report.Write(f, format, res, meta); err != nil {
		f.Close()
		return fmt.Errorf("write report: %w", err)
	}
	return f.Close()
}
