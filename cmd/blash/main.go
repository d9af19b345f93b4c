package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/hysterlab/blash/internal/analysis"
	"github.com/hysterlab/blash/internal/backlash"
	"github.com/hysterlab/blash/internal/config"
	"github.com/hysterlab/blash/internal/metrics"
	"github.com/hysterlab/blash/internal/signal"
	"github.com/hysterlab/blash/internal/sim"
	"github.com/hysterlab/blash/internal/storage"
	"github.com/hysterlab/blash/internal/tui"
)

var (
	dataDir    string
	dt         float64
	duration   float64
	mLo        float64
	mUp        float64
	cLo        float64
	cUp        float64
	xInit      float64
	channels   int
	signalName string
	amp        float64
	freq       float64
	epochs     int
	configFile string
	frameRate  int
	speed      float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "blash",
		Short: "backlash modeling and identification lab",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default to the interactive explorer when no command given
			return tui.RunExplorer()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".blash", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "simulate a signal through a backlash model and save the run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addModelFlags(runCmd)

	fitCmd := &cobra.Command{
		Use:   "fit [run_id]",
		Short: "estimate boundary parameters from a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  fitRun,
	}
	fitCmd.Flags().IntVar(&epochs, "epochs", config.DefaultFitEpochs, "fit iterations")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run input, output, and dead-zone edges",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "analyze the hysteresis loop of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export full run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSONRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range config.ListPresets() {
				fmt.Println(p)
			}
			return nil
		},
	}

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "replay a simulation with a live hysteresis plot",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addModelFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")
	liveCmd.Flags().Float64Var(&speed, "speed", 1.0, "playback speed multiplier")

	demoCmd := &cobra.Command{
		Use:   "demo",
		Short: "interactive parameter explorer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.RunExplorer()
		},
	}

	rootCmd.AddCommand(runCmd, fitCmd, listCmd, plotCmd, analyzeCmd, exportCmd, exportJSONCmd, presetsCmd, liveCmd, demoCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().Float64Var(&mLo, "m-lo", 1.0, "lower boundary slope")
	cmd.Flags().Float64Var(&mUp, "m-up", 1.0, "upper boundary slope")
	cmd.Flags().Float64Var(&cLo, "c-lo", 0.0, "lower boundary offset")
	cmd.Flags().Float64Var(&cUp, "c-up", 0.0, "upper boundary offset")
	cmd.Flags().Float64Var(&xInit, "x-init", 0.0, "initial state")
	cmd.Flags().IntVar(&channels, "channels", 1, "independent channels")
	cmd.Flags().StringVar(&signalName, "signal", "decaying_sine", "input signal")
	cmd.Flags().Float64Var(&amp, "amp", config.DefaultAmp, "signal amplitude")
	cmd.Flags().Float64Var(&freq, "freq", config.DefaultFreq, "signal frequency")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
}

// resolveConfig merges preset, config file, and flags; flags win when set
// explicitly.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, string, error) {
	cfg := config.DefaultConfig()
	preset := "custom"

	if len(args) > 0 {
		p := config.GetPreset(args[0])
		if p == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
		}
		c := *p
		cfg = &c
		preset = args[0]
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.Duration = duration
	}
	if cmd.Flags().Changed("m-lo") {
		cfg.Model.MLo = mLo
	}
	if cmd.Flags().Changed("m-up") {
		cfg.Model.MUp = mUp
	}
	if cmd.Flags().Changed("c-lo") {
		cfg.Model.CLo = cLo
	}
	if cmd.Flags().Changed("c-up") {
		cfg.Model.CUp = cUp
	}
	if cmd.Flags().Changed("x-init") {
		cfg.Model.XInit = xInit
	}
	if cmd.Flags().Changed("channels") {
		cfg.Channels = channels
	}
	if cmd.Flags().Changed("signal") {
		cfg.Signal.Name = signalName
	}
	if cmd.Flags().Changed("amp") {
		cfg.Signal.Amp = amp
	}
	if cmd.Flags().Changed("freq") {
		cfg.Signal.Freq = freq
	}

	return cfg, preset, nil
}

func buildRunner(cfg *config.Config) (*backlash.Model, *sim.Runner, error) {
	model, err := cfg.NewModel()
	if err != nil {
		return nil, nil, err
	}
	src, err := signal.New(cfg.Signal.Name, cfg.Signal.Amp, cfg.Signal.Freq, cfg.Duration)
	if err != nil {
		return nil, nil, err
	}
	return model, sim.New(model, src), nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, preset, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	model, runner, err := buildRunner(cfg)
	if err != nil {
		return err
	}
	runner.AddMetric(metrics.NewLatchFraction())
	runner.AddMetric(metrics.NewPeakOutput())
	runner.AddMetric(metrics.NewMeanGap(model))

	fmt.Printf("running %s (%s)...\n", preset, cfg.Signal.Name)
	start := time.Now()

	result, err := runner.Run(context.Background(), sim.Config{Dt: cfg.Dt, Duration: cfg.Duration})
	if err != nil {
		return err
	}

	elapsed := time.Since(start)

	meta := storage.RunMetadata{
		Preset:   preset,
		Signal:   cfg.Signal.Name,
		Dt:       cfg.Dt,
		Duration: cfg.Duration,
		Channels: model.Dim(),
		MLo:      model.LowerSlope(),
		MUp:      model.UpperSlope(),
		CLo:      model.LowerOffset(),
		CUp:      model.UpperOffset(),
	}
	runID, err := st.Save(meta, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("samples: %d\n", len(result.Times))
	fmt.Println("\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.6f\n", name, val)
	}

	return nil
}

func fitRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	result, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}

	u, x, xPrev := sim.Triples(result)
	if u == nil {
		return fmt.Errorf("run %s has too few samples to fit", runID)
	}

	dim := len(u[0])
	model, err := backlash.New(
		ones(dim), ones(dim),
		make(backlash.Vec, dim), make(backlash.Vec, dim),
		backlash.Vec(result.Outputs[0]).Clone(),
	)
	if err != nil {
		return err
	}

	fmt.Printf("fitting %d samples, %d epochs...\n", len(u), epochs)
	if err := model.Fit(u, x, xPrev, epochs); err != nil {
		return err
	}

	fmt.Println("\nestimated parameters:")
	fmt.Println(model)

	if len(meta.MLo) > 0 {
		fmt.Println("\ncomparison with recorded parameters (channel 0):")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PARAM\tTRUE\tESTIMATED\tREL ERR")
		rows := []struct {
			name      string
			have, got float64
		}{
			{"m_lo", meta.MLo[0], model.LowerSlope()[0]},
			{"m_up", meta.MUp[0], model.UpperSlope()[0]},
			{"c_lo", meta.CLo[0], model.LowerOffset()[0]},
			{"c_up", meta.CUp[0], model.UpperOffset()[0]},
		}
		for _, r := range rows {
			relErr := math.Abs(r.got - r.have)
			if r.have != 0 {
				relErr /= math.Abs(r.have)
			}
			fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.2e\n", r.name, r.have, r.got, relErr)
		}
		return w.Flush()
	}

	return nil
}

func ones(n int) backlash.Vec {
	v := make(backlash.Vec, n)
	for i := range v {
		v[i] = 1
	}
	return v
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tSIGNAL\tTIME\tDURATION\tDT\tCH")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2fs\t%.4fs\t%d\n",
			run.ID,
			run.Preset,
			run.Signal,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Channels,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	result, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	if len(result.Times) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("signal: %s\n", meta.Signal)
	fmt.Printf("samples: %d\n\n", len(result.Times))

	series := []struct {
		caption string
		data    [][]float64
	}{
		{"input u", result.Inputs},
		{"output x (with backlash)", result.Outputs},
		{"dead-zone edges z_lo", result.ZLo},
		{"dead-zone edges z_up", result.ZUp},
	}

	for _, s := range series {
		data := make([]float64, len(s.data))
		for i := range s.data {
			data[i] = s.data[i][0]
		}

		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	result, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	if len(result.Times) == 0 {
		return fmt.Errorf("no data to analyze")
	}

	fmt.Printf("run: %s (%s, %d channels)\n\n", meta.ID, meta.Signal, meta.Channels)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CH\tLOOP AREA\tLOWER\tUPPER\tHOLD\tGAP MIN\tGAP MEAN\tGAP MAX")
	for ch := 0; ch < meta.Channels; ch++ {
		area := analysis.LoopArea(result, ch)
		counts := analysis.ClassifyRegimes(result, ch)
		gap := analysis.DeadZoneStats(result, ch)
		total := float64(counts.Total())
		fmt.Fprintf(w, "%d\t%.4f\t%.1f%%\t%.1f%%\t%.1f%%\t%.3f\t%.3f\t%.3f\n",
			ch, area,
			100*float64(counts.Lower)/total,
			100*float64(counts.Upper)/total,
			100*float64(counts.Hold)/total,
			gap.Min, gap.Mean, gap.Max,
		)
	}
	return w.Flush()
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportJSONRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	result, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}

	return storage.ExportJSONStdout(meta, result)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, _, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	model, runner, err := buildRunner(cfg)
	if err != nil {
		return err
	}

	renderer := tui.NewLiveRenderer(model, cfg.Signal.Amp*1.2, frameRate)
	renderer.Start()
	defer renderer.Stop()

	if speed <= 0 {
		speed = 1.0
	}
	pace := time.Duration(float64(time.Second) * cfg.Dt / speed)

	return runner.RunWithCallback(context.Background(), sim.Config{Dt: cfg.Dt, Duration: cfg.Duration},
		func(u, x backlash.Vec, t float64) bool {
			renderer.OnStep(u, x, t)
			time.Sleep(pace)
			return true
		})
}
