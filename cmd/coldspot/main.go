package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/kass/go-coldspot/pkg/field"
	"github.com/kass/go-coldspot/pkg/geodesy"
	"github.com/kass/go-coldspot/pkg/models"
	"github.com/kass/go-coldspot/pkg/objective"
	"github.com/kass/go-coldspot/pkg/optimizer"
	"github.com/kass/go-coldspot/pkg/pointset"
	"github.com/kass/go-coldspot/pkg/postgis"
	"github.com/kass/go-coldspot/pkg/region"
	"github.com/kass/go-coldspot/pkg/report"
	"github.com/kass/go-coldspot/pkg/sweep"
)

// Config is the run configuration, merged from flags, environment
// (COLDSPOT_*) and an optional config file.
type Config struct {
	Input   string `mapstructure:"input"`
	Verbose bool   `mapstructure:"verbose"`

	DBHost  string `mapstructure:"db-host"`
	DBPort  int    `mapstructure:"db-port"`
	DBUser  string `mapstructure:"db-user"`
	DBPass  string `mapstructure:"db-pass"`
	DBName  string `mapstructure:"db-name"`
	DBTable string `mapstructure:"db-table"`

	CenterLat float64 `mapstructure:"center-lat"`
	CenterLon float64 `mapstructure:"center-lon"`

	RadiusKm  float64 `mapstructure:"radius"`
	RadiusMin float64 `mapstructure:"radius-min"`
	RadiusMax float64 `mapstructure:"radius-max"`
	Step      float64 `mapstructure:"step"`

	CellSizeDeg     float64 `mapstructure:"cell-size"`
	InfluenceMeters float64 `mapstructure:"influence"`
	Kernel          string  `mapstructure:"kernel"`

	Mode           string  `mapstructure:"mode"`
	BoundaryWeight float64 `mapstructure:"boundary-weight"`
	Strategy       string  `mapstructure:"strategy"`
	Resolution     int     `mapstructure:"resolution"`
	PopSize        int     `mapstructure:"popsize"`
	MaxIter        int     `mapstructure:"maxiter"`
	Tol            float64 `mapstructure:"tol"`
	Seed           int64   `mapstructure:"seed"`
	Refine         bool    `mapstructure:"refine"`
	Workers        int     `mapstructure:"workers"`

	Count  int    `mapstructure:"count"`
	Output string `mapstructure:"output"`
}

var (
	cfgFile string
	cfg     Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "coldspot",
	Short: "Find the location least influenced by a set of geographic points",
	Long: `coldspot reads a set of photo locations and searches a feasible region
for the coverage gap: the spot maximally far from, or minimally influenced
by, every known point.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := viper.BindPFlags(cmd.Root().PersistentFlags()); err != nil {
			return err
		}
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return err
		}
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
			if err := viper.ReadInConfig(); err != nil {
				return fmt.Errorf("failed to read config %s: %w", cfgFile, err)
			}
		}
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("failed to parse configuration: %w", err)
		}

		var err error
		if cfg.Verbose {
			logger, err = zap.NewDevelopment()
		} else {
			logger, err = zap.NewProduction()
		}
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Find the coldest cell of a discretized influence field",
	RunE:  runGrid,
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Run a single continuous coverage-gap search",
	RunE:  runOptimize,
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Search across a range of bounding radii",
	RunE:  runSweep,
}

var nearestCmd = &cobra.Command{
	Use:   "nearest",
	Short: "List the points closest to the search center",
	RunE:  runNearest,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file path")
	pf.StringP("input", "i", "", "CSV file with latitude,longitude columns")
	pf.BoolP("verbose", "v", false, "Verbose logging")
	pf.String("db-host", "", "PostGIS host (alternative to --input)")
	pf.Int("db-port", 5432, "PostGIS port")
	pf.String("db-user", "postgres", "PostGIS user")
	pf.String("db-pass", "", "PostGIS password")
	pf.String("db-name", "coldspot", "PostGIS database")
	pf.String("db-table", "photo_points", "PostGIS point table")
	pf.Float64("center-lat", 0, "Search center latitude (default: point-set mean)")
	pf.Float64("center-lon", 0, "Search center longitude (default: point-set mean)")

	gridCmd.Flags().Float64("cell-size", 0.01, "Grid cell size in degrees")
	gridCmd.Flags().Float64("influence", 1000, "Influence radius in meters")
	gridCmd.Flags().String("kernel", "exponential", "Decay kernel: exponential or linear")
	gridCmd.Flags().Float64("radius", 0, "Bounding radius in km (0 = unconstrained)")

	optimizeCmd.Flags().Float64("radius", 15, "Bounding radius in km")
	addSearchFlags(optimizeCmd)

	sweepCmd.Flags().Float64("radius-min", 11, "Sweep start radius in km")
	sweepCmd.Flags().Float64("radius-max", 17, "Sweep end radius in km")
	sweepCmd.Flags().Float64("step", 0.5, "Sweep step in km")
	sweepCmd.Flags().Int("workers", 0, "Concurrent sweep iterations (0 = one per CPU)")
	sweepCmd.Flags().StringP("output", "o", "optimal_points.csv", "Report CSV path")
	addSearchFlags(sweepCmd)

	nearestCmd.Flags().IntP("count", "n", 5, "Number of neighbors to list")

	rootCmd.AddCommand(gridCmd, optimizeCmd, sweepCmd, nearestCmd)

	viper.SetEnvPrefix("coldspot")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addSearchFlags(cmd *cobra.Command) {
	cmd.Flags().String("mode", string(objective.ModeRepulsion), "Objective mode: repulsion or min-distance")
	cmd.Flags().Float64("boundary-weight", 0, "Weight of the boundary-proximity term (repulsion mode)")
	cmd.Flags().String("strategy", "de", "Search strategy: de or grid")
	cmd.Flags().Int("resolution", 100, "Lattice resolution for the grid strategy")
	cmd.Flags().Int("popsize", 30, "Differential evolution population size")
	cmd.Flags().Int("maxiter", 1000, "Differential evolution generation cap")
	cmd.Flags().Float64("tol", 1e-6, "Differential evolution convergence tolerance")
	cmd.Flags().Int64("seed", 0, "Random seed (0 = from clock)")
	cmd.Flags().Bool("refine", false, "Polish the global result with a local search")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// signalContext returns a context canceled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// loadPoints reads the point set from the configured source.
func loadPoints() (pointset.Set, error) {
	if cfg.Input != "" {
		points, err := pointset.LoadCSV(cfg.Input)
		if err != nil {
			return nil, err
		}
		logger.Info("points loaded",
			zap.String("source", cfg.Input),
			zap.Int("count", len(points)))
		return points, nil
	}
	if cfg.DBHost != "" {
		src, err := postgis.Connect(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPass, cfg.DBName, cfg.DBTable)
		if err != nil {
			return nil, err
		}
		defer src.Close()
		points, err := src.LoadPoints()
		if err != nil {
			return nil, err
		}
		logger.Info("points loaded",
			zap.String("source", "postgis:"+cfg.DBTable),
			zap.Int("count", len(points)))
		return points, nil
	}
	return nil, fmt.Errorf("no point source configured: set --input or --db-host")
}

// searchCenter resolves the configured center, defaulting to the point-set
// mean. An explicitly passed center wins even when it is 0,0.
func searchCenter(cmd *cobra.Command, points pointset.Set) models.Location {
	flags := cmd.Root().PersistentFlags()
	if flags.Changed("center-lat") || flags.Changed("center-lon") ||
		cfg.CenterLat != 0 || cfg.CenterLon != 0 {
		return models.Location{Lat: cfg.CenterLat, Lon: cfg.CenterLon}
	}
	return points.Center()
}

func buildStrategy() (optimizer.Strategy, error) {
	switch cfg.Strategy {
	case "grid":
		return &optimizer.GridScan{Resolution: cfg.Resolution}, nil
	case "de", "":
		return &optimizer.DifferentialEvolution{
			PopSize: cfg.PopSize,
			MaxIter: cfg.MaxIter,
			Tol:     cfg.Tol,
			Seed:    cfg.Seed,
			Refine:  cfg.Refine,
		}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (want de or grid)", cfg.Strategy)
	}
}

func buildObjective(points pointset.Set, reg region.Region, circle *region.Circle) (*objective.Objective, error) {
	objCfg := objective.Config{Mode: objective.Mode(cfg.Mode)}
	if cfg.BoundaryWeight > 0 && circle != nil {
		objCfg.BoundaryCircle = circle
		objCfg.BoundaryWeight = cfg.BoundaryWeight
	}
	return objective.New(points, reg, objCfg)
}

func runGrid(cmd *cobra.Command, args []string) error {
	points, err := loadPoints()
	if err != nil {
		return err
	}

	var kernel field.DecayKernel
	switch cfg.Kernel {
	case "exponential", "":
		kernel = field.KernelExponential
	case "linear":
		kernel = field.KernelLinear
	default:
		return fmt.Errorf("unknown kernel %q (want exponential or linear)", cfg.Kernel)
	}

	f, err := field.Accumulate(points, cfg.CellSizeDeg, kernel, cfg.InfluenceMeters)
	if err != nil {
		return err
	}
	logger.Info("influence field built",
		zap.Int("rows", f.Grid.Rows()),
		zap.Int("cols", f.Grid.Cols()),
		zap.Int("points", len(points)))

	var reg region.Region
	if cfg.RadiusKm > 0 {
		circle, err := region.NewCircle(searchCenter(cmd, points), cfg.RadiusKm)
		if err != nil {
			return err
		}
		reg = circle
	}

	coldest, ok := f.ColdestLocation(reg)
	if !ok {
		return fmt.Errorf("no valid coldest cell within the requested region")
	}

	fmt.Printf("Coldest point: %.6f, %.6f\n", coldest.Lat, coldest.Lon)
	fmt.Printf("View: %s\n", report.GoogleMapsLink(coldest))
	return nil
}

func runOptimize(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	points, err := loadPoints()
	if err != nil {
		return err
	}
	circle, err := region.NewCircle(searchCenter(cmd, points), cfg.RadiusKm)
	if err != nil {
		return err
	}
	obj, err := buildObjective(points, circle, circle)
	if err != nil {
		return err
	}
	strategy, err := buildStrategy()
	if err != nil {
		return err
	}

	result, err := strategy.Search(ctx, obj, circle.Bounds())
	if err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("optimization failed for radius %.2f km: %s", cfg.RadiusKm, result.Message)
	}

	logger.Info("search finished",
		zap.Float64("score", result.Value),
		zap.Int("evaluations", result.Evaluations))
	fmt.Printf("Optimal point: %.6f, %.6f\n", result.Location.Lat, result.Location.Lon)
	fmt.Printf("View: %s\n", report.GoogleMapsLink(result.Location))
	return nil
}

func runNearest(cmd *cobra.Command, args []string) error {
	points, err := loadPoints()
	if err != nil {
		return err
	}
	center := searchCenter(cmd, points)

	ix := pointset.NewIndex(points)
	neighbors := ix.Nearest(center, cfg.Count)

	fmt.Printf("Center: %.6f, %.6f\n", center.Lat, center.Lon)
	for i, p := range neighbors {
		fmt.Printf("%2d. %.6f, %.6f  (%.3f km)\n",
			i+1, p.Lat, p.Lon, geodesy.Distance(center, p))
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	points, err := loadPoints()
	if err != nil {
		return err
	}
	center := searchCenter(cmd, points)
	strategy, err := buildStrategy()
	if err != nil {
		return err
	}

	driver := &sweep.Driver{
		Strategy: strategy,
		Regions: func(radiusKm float64) (region.Region, error) {
			return region.NewCircle(center, radiusKm)
		},
		Objectives: func(radiusKm float64, reg region.Region) (optimizer.Objective, error) {
			circle, _ := reg.(*region.Circle)
			return buildObjective(points, reg, circle)
		},
		Workers: cfg.Workers,
		Logger:  logger,
	}

	summary, err := driver.Sweep(ctx, cfg.RadiusMin, cfg.RadiusMax, cfg.Step)
	if err != nil {
		return err
	}
	if len(summary.Entries) == 0 {
		return fmt.Errorf("sweep produced no results (%d radii failed)", len(summary.Failures))
	}

	if err := report.SaveCSV(cfg.Output, summary); err != nil {
		return err
	}
	fmt.Printf("Report saved to %s (%d radii, %d skipped)\n",
		cfg.Output, len(summary.Entries), len(summary.Failures))
	for _, e := range summary.Entries {
		fmt.Printf("  r=%.2f km -> %.6f, %.6f\n", e.Radius, e.Result.Location.Lat, e.Result.Location.Lon)
	}
	return nil
}
