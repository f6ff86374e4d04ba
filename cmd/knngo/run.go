package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/knngo/core/model"
	"github.com/YuminosukeSato/knngo/dataset"
	"github.com/YuminosukeSato/knngo/metrics"
	"github.com/YuminosukeSato/knngo/modelselection"
	"github.com/YuminosukeSato/knngo/neighbors"
	"github.com/YuminosukeSato/knngo/pkg/log"
	"github.com/YuminosukeSato/knngo/preprocessing"
	"github.com/YuminosukeSato/knngo/visualize"
)

func runAnalysis(opts *options) error {
	log.SetupLogger(opts.LogLevel)
	log.EnableWarningBridge()

	runID := uuid.NewString()
	logger := slog.With(log.RunIDKey, runID)
	started := time.Now()

	ds, err := dataset.LoadCSV(opts.Data, dataset.CSVOptions{
		LabelColumn:    opts.Label,
		FeatureColumns: opts.Features,
	})
	if err != nil {
		return err
	}
	logger.Info("dataset loaded",
		log.OperationKey, "load",
		log.SamplesKey, ds.NumSamples(),
		log.FeaturesKey, ds.NumFeatures(),
	)

	if opts.AddDistance {
		err := ds.AddDistanceFeature("distance_km", opts.LatColumn, opts.LonColumn, opts.CenterLat, opts.CenterLon)
		if err != nil {
			return err
		}
	}

	if opts.DropOutliers {
		filtered, removed := ds.FilterLabelOutliers(opts.IQRMultiplier)
		logger.Info("label outliers removed",
			log.DroppedRowsKey, removed,
			log.SamplesKey, filtered.NumSamples(),
		)
		ds = filtered
	}

	train, test, err := ds.Split(opts.TestSize, opts.Seed)
	if err != nil {
		return err
	}

	search := modelselection.NewGridSearchKNN(
		modelselection.CandidateRange(opts.KMin, opts.KMax),
		opts.Folds,
		opts.Seed,
	)
	result, err := search.Search(train.X, train.Y)
	if err != nil {
		return err
	}
	logger.Info("neighbourhood size selected",
		log.OperationKey, "search",
		log.FoldsKey, opts.Folds,
		log.BestKKey, result.BestK,
		log.RMSEKey, result.BestRMSE,
	)

	// Refit on the full training set at the selected k. The scaler is
	// fitted on training data only and applied to both sides.
	scaler := preprocessing.NewStandardScaler()
	trainScaled, err := scaler.FitTransform(train.X)
	if err != nil {
		return err
	}
	testScaled, err := scaler.Transform(test.X)
	if err != nil {
		return err
	}

	reg := neighbors.NewKNNRegressor(result.BestK)
	if err := reg.Fit(trainScaled, train.Y); err != nil {
		return err
	}

	pred, err := reg.Predict(testScaled)
	if err != nil {
		return err
	}
	predVec, err := metrics.ColumnVec(pred, 0)
	if err != nil {
		return err
	}

	rmse, err := metrics.RMSE(test.Y, predVec)
	if err != nil {
		return err
	}
	mae, err := metrics.MAE(test.Y, predVec)
	if err != nil {
		return err
	}
	r2, err := metrics.R2Score(test.Y, predVec)
	if err != nil {
		return err
	}

	printReport(result, test.Y, rmse, mae, r2)

	if opts.PlotDir != "" {
		if err := os.MkdirAll(opts.PlotDir, 0o755); err != nil {
			return fmt.Errorf("create plot dir: %w", err)
		}
		curvePath := filepath.Join(opts.PlotDir, "validation_curve.png")
		if err := visualize.ValidationCurve(result, curvePath); err != nil {
			return err
		}
		scatterPath := filepath.Join(opts.PlotDir, "predicted_vs_actual.png")
		if err := visualize.PredictedVsActual(test.Y, predVec, scatterPath); err != nil {
			return err
		}
		logger.Info("plots written", "dir", opts.PlotDir)
	}

	if opts.ModelOut != "" {
		if err := model.Save(reg, opts.ModelOut); err != nil {
			return err
		}
		logger.Info("model saved", "path", opts.ModelOut)
	}

	logger.Info("run finished",
		log.DurationMsKey, time.Since(started).Milliseconds(),
		log.BestKKey, result.BestK,
		log.RMSEKey, rmse,
		log.MAEKey, mae,
		log.R2Key, r2,
	)
	return nil
}

// printReport writes the per-candidate tuning table and the held-out test
// metrics to stdout.
func printReport(result *modelselection.SearchResult, yTest *mat.VecDense, rmse, mae, r2 float64) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "k\tmean RMSE\tmean MAE\tmean R2")
	for _, cr := range result.Results {
		marker := ""
		if cr.K == result.BestK {
			marker = "  *"
		}
		fmt.Fprintf(w, "%d\t%.4f\t%.4f\t%.4f%s\n", cr.K, cr.MeanRMSE, cr.MeanMAE, cr.MeanR2, marker)
	}
	w.Flush()

	fmt.Printf("\nselected k = %d (mean validation RMSE %.4f)\n", result.BestK, result.BestRMSE)
	fmt.Printf("held-out test (%d samples): RMSE %.4f  MAE %.4f  R2 %.4f\n", yTest.Len(), rmse, mae, r2)
}
