package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"coloccount/internal/logger"
	"coloccount/pkg/analysis"
	"coloccount/pkg/config"
)

// Version information - set by ldflags during build
var Version = "dev"

func main() {
	configPath := flag.String("config", "coloccount.yaml", "YAML configuration file (defaults are used if it does not exist)")
	envFile := flag.String("env", ".env", "Optional .env file with COLOC_* overrides")
	nucleiFile := flag.String("nuclei", "", "Results table (CSV) of the nuclei particle analysis")
	signalFile := flag.String("signals", "", "Results table (CSV) of the signal particle analysis (centroid-match)")
	signalImage := flag.String("image", "", "Signal channel image (pixel-fraction, or image size for clamped coordinates)")
	sourceName := flag.String("name", "", "Image name written to the marker file")
	strategy := flag.String("strategy", "", "Override the colocalization strategy: centroid-match or pixel-fraction")
	resultsDir := flag.String("results", "", "Override the results directory")
	initConfig := flag.Bool("init-config", false, "Write the default configuration to -config and exit")
	showVersion := flag.Bool("version", false, "Print version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("coloccount %s\n", Version)
		return
	}

	if *initConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write configuration: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	if *nucleiFile == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := loadConfig(*configPath, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if *strategy != "" {
		cfg.Colocalization.Strategy = *strategy
	}
	if *resultsDir != "" {
		cfg.Output.ResultsDir = *resultsDir
	}

	level, err := logger.ParseLevel(cfg.Output.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level %q: %v\n", cfg.Output.LogLevel, err)
		os.Exit(1)
	}
	log := logger.NewConsole(level)

	params := &analysis.Params{
		NucleiFile:  *nucleiFile,
		SignalFile:  *signalFile,
		SignalImage: *signalImage,
		SourceName:  *sourceName,
		Config:      cfg,
	}
	analyzer := analysis.NewAnalyzer(params, log)

	startTime := time.Now()
	if err := analyzer.Process(); err != nil {
		log.Fatal().Err(err).Msg("analysis failed")
	}
	elapsed := time.Since(startTime)

	if cfg.Output.Verbose {
		printSummary(analyzer.GetSummary(), elapsed)
	}
}

func loadConfig(path, envFile string) (*config.Config, error) {
	if err := config.LoadEnvFile(envFile); err != nil {
		return nil, err
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func printSummary(s analysis.Summary, elapsed time.Duration) {
	fmt.Println("================================")
	fmt.Printf("Colocalization summary (%s)\n", s.Strategy)
	fmt.Println("================================")
	fmt.Printf("Nuclei:               %d\n", s.Nuclei)
	if s.Strategy == config.StrategyCentroidMatch {
		fmt.Printf("Signals:              %d\n", s.Signals)
		fmt.Printf("Matched signals:      %d\n", s.Matched)
		fmt.Printf("Unmatched signals:    %d\n", s.Unmatched)
		fmt.Printf("Mean match distance:  %.3f px\n", s.MeanMatchDistance)
	}
	fmt.Printf("Positive nuclei:      %d (%.2f%%)\n", s.Positives, s.PositiveFraction*100)
	fmt.Printf("Nucleus area:         %.3f +/- %.3f px\n", s.MeanNucleusArea, s.StdNucleusArea)
	fmt.Printf("Markers written:      %d\n", s.Markers)
	fmt.Printf("Marker file:          %s\n", s.MarkerPath)
	fmt.Printf("Completed in %.2f seconds\n", elapsed.Seconds())
}
