// Command knngo runs the full listing-price analysis: load a CSV, clean
// and derive features, tune the neighbourhood size by cross-validation,
// refit at the selected k and report held-out test metrics.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// options carries the run configuration resolved from flags, environment
// (KNNGO_*) and an optional config file, in that precedence order.
type options struct {
	Data          string   `mapstructure:"data"`
	Label         string   `mapstructure:"label"`
	Features      []string `mapstructure:"features"`
	LatColumn     string   `mapstructure:"lat_column"`
	LonColumn     string   `mapstructure:"lon_column"`
	CenterLat     float64  `mapstructure:"center_lat"`
	CenterLon     float64  `mapstructure:"center_lon"`
	AddDistance   bool     `mapstructure:"add_distance"`
	DropOutliers  bool     `mapstructure:"drop_outliers"`
	IQRMultiplier float64  `mapstructure:"iqr_multiplier"`
	TestSize      float64  `mapstructure:"test_size"`
	Folds         int      `mapstructure:"folds"`
	KMin          int      `mapstructure:"k_min"`
	KMax          int      `mapstructure:"k_max"`
	Seed          int      `mapstructure:"seed"`
	PlotDir       string   `mapstructure:"plot_dir"`
	ModelOut      string   `mapstructure:"model_out"`
	LogLevel      string   `mapstructure:"log_level"`
}

var rootCmd = &cobra.Command{
	Use:   "knngo",
	Short: "k-nearest-neighbours price regression with cross-validated tuning",
	Long: `knngo loads a CSV of listings, standardizes the selected feature
columns, tunes the neighbourhood size k of a k-NN regressor by k-fold
cross-validation and reports RMSE, MAE and R² on a held-out test split.`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the end-to-end tuning and evaluation pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := resolveOptions(cmd)
		if err != nil {
			return err
		}
		return runAnalysis(opts)
	},
}

func init() {
	f := runCmd.Flags()
	f.String("data", "", "path to the listings CSV file (required)")
	f.String("label", "price", "label column name")
	f.StringSlice("features", nil, "feature column names (required)")
	f.String("lat-column", "latitude", "latitude column for the distance feature")
	f.String("lon-column", "longitude", "longitude column for the distance feature")
	f.Float64("center-lat", 0, "reference latitude for the distance feature")
	f.Float64("center-lon", 0, "reference longitude for the distance feature")
	f.Bool("add-distance", false, "append a haversine distance-to-centre feature")
	f.Bool("drop-outliers", false, "drop label outliers by IQR bounds before modeling")
	f.Float64("iqr-multiplier", 1.5, "IQR multiplier for the outlier bounds")
	f.Float64("test-size", 0.25, "held-out test fraction")
	f.Int("folds", 10, "number of cross-validation folds")
	f.Int("k-min", 1, "smallest candidate k")
	f.Int("k-max", 120, "largest candidate k")
	f.Int("seed", 42, "random seed for the split and fold assignment")
	f.String("plot-dir", "", "directory for validation-curve and scatter PNGs (optional)")
	f.String("model-out", "", "path to save the fitted model as gob (optional)")
	f.String("log-level", "info", "log level: debug, info, warn, error")

	rootCmd.AddCommand(runCmd)
}

// resolveOptions binds the command's flags into viper so KNNGO_* environment
// variables can override defaults, then unmarshals the merged view.
func resolveOptions(cmd *cobra.Command) (*options, error) {
	v := viper.New()
	v.SetEnvPrefix("KNNGO")
	v.SetEnvKeyReplacer(strings.NewReplacer("_", "-"))
	v.AutomaticEnv()

	var bindErr error
	for name, key := range map[string]string{
		"data":           "data",
		"label":          "label",
		"features":       "features",
		"lat-column":     "lat_column",
		"lon-column":     "lon_column",
		"center-lat":     "center_lat",
		"center-lon":     "center_lon",
		"add-distance":   "add_distance",
		"drop-outliers":  "drop_outliers",
		"iqr-multiplier": "iqr_multiplier",
		"test-size":      "test_size",
		"folds":          "folds",
		"k-min":          "k_min",
		"k-max":          "k_max",
		"seed":           "seed",
		"plot-dir":       "plot_dir",
		"model-out":      "model_out",
		"log-level":      "log_level",
	} {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			bindErr = err
		}
	}
	if bindErr != nil {
		return nil, bindErr
	}

	var opts options
	if err := v.Unmarshal(&opts); err != nil {
		return nil, fmt.Errorf("unmarshal options: %w", err)
	}

	if opts.Data == "" {
		return nil, fmt.Errorf("--data is required")
	}
	if len(opts.Features) == 0 {
		return nil, fmt.Errorf("--features is required")
	}
	return &opts, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
