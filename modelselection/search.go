package modelselection

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/knngo/core/parallel"
	"github.com/YuminosukeSato/knngo/metrics"
	"github.com/YuminosukeSato/knngo/neighbors"
	"github.com/YuminosukeSato/knngo/pkg/errors"
	"github.com/YuminosukeSato/knngo/pkg/log"
	"github.com/YuminosukeSato/knngo/preprocessing"
)

// CandidateResult holds the cross-validation metrics of one candidate k.
type CandidateResult struct {
	K        int
	MeanRMSE float64
	MeanMAE  float64
	// MeanR2 is averaged over the folds where R² is defined; it is NaN
	// when no fold has label variance (e.g. leave-one-out folds).
	MeanR2   float64
	FoldRMSE []float64
}

// SearchResult is the outcome of a grid search: the selected k and the
// per-candidate metric table, in candidate order.
type SearchResult struct {
	BestK    int
	BestRMSE float64
	Results  []CandidateResult
}

// GridSearchKNN selects the neighbourhood size k of a KNNRegressor by
// k-fold cross-validation, minimizing mean validation RMSE.
//
// For every fold, a fresh StandardScaler is fitted on the training side
// only and applied to both sides, so validation statistics never leak
// into the scaling parameters. Folds are evaluated on parallel workers;
// aggregation is a plain mean, so results do not depend on execution
// order. Ties on mean RMSE resolve to the smallest k.
type GridSearchKNN struct {
	CandidateKs []int
	NumFolds    int
	Seed        int
}

// NewGridSearchKNN creates a grid search over candidateKs with numFolds
// cross-validation folds and a fixed shuffle seed.
func NewGridSearchKNN(candidateKs []int, numFolds, seed int) *GridSearchKNN {
	return &GridSearchKNN{
		CandidateKs: candidateKs,
		NumFolds:    numFolds,
		Seed:        seed,
	}
}

// CandidateRange returns the inclusive integer range [lo, hi], a
// convenience for the common "try every k up to some bound" search.
func CandidateRange(lo, hi int) []int {
	if hi < lo {
		return nil
	}
	ks := make([]int, 0, hi-lo+1)
	for k := lo; k <= hi; k++ {
		ks = append(ks, k)
	}
	return ks
}

// Search runs the cross-validated grid search on the training set.
// The configuration is validated eagerly; any failing fold aborts the
// whole search and no partial result is returned.
func (g *GridSearchKNN) Search(X, y mat.Matrix) (*SearchResult, error) {
	n, _ := X.Dims()
	ny, cy := y.Dims()

	if n == 0 {
		return nil, errors.NewModelError("GridSearchKNN.Search", "empty data", errors.ErrEmptyData)
	}
	if ny != n {
		return nil, errors.NewDimensionError("GridSearchKNN.Search", n, ny, 0)
	}
	if cy != 1 {
		return nil, errors.NewValueError("GridSearchKNN.Search", "y must be a column vector")
	}
	if len(g.CandidateKs) == 0 {
		return nil, errors.NewValidationError("candidateKs", "must not be empty", g.CandidateKs)
	}

	kf := NewKFold(g.NumFolds, g.Seed)
	if g.NumFolds < 2 || g.NumFolds > n {
		return nil, errors.NewFoldCountError(g.NumFolds, n)
	}

	// Every candidate must fit in the smallest per-fold training set.
	maxK := n - kf.MaxValidationFoldSize(n)
	for _, k := range g.CandidateKs {
		if k < 1 || k > maxK {
			return nil, errors.NewCandidateKError(k, maxK)
		}
	}

	folds, err := kf.Split(n)
	if err != nil {
		return nil, err
	}

	nCand := len(g.CandidateKs)
	rmse := make([][]float64, nCand) // [candidate][fold]
	mae := make([][]float64, nCand)
	r2 := make([][]float64, nCand)
	for c := range g.CandidateKs {
		rmse[c] = make([]float64, len(folds))
		mae[c] = make([]float64, len(folds))
		r2[c] = make([]float64, len(folds))
	}

	// One worker per fold: the fold's scaler and scaled matrices are
	// shared by every candidate k, and no two workers touch the same
	// (candidate, fold) cell.
	err = parallel.ParallelizeWithError(len(folds), func(f int) error {
		return g.evaluateFold(X, y, folds[f], func(c int, foldRMSE, foldMAE, foldR2 float64) {
			rmse[c][f] = foldRMSE
			mae[c][f] = foldMAE
			r2[c][f] = foldR2
		})
	})
	if err != nil {
		return nil, err
	}

	result := &SearchResult{Results: make([]CandidateResult, nCand)}
	bestRMSE := math.Inf(1)
	bestK := 0
	for c, k := range g.CandidateKs {
		cr := CandidateResult{
			K:        k,
			MeanRMSE: meanOf(rmse[c]),
			MeanMAE:  meanOf(mae[c]),
			MeanR2:   meanDefined(r2[c]),
			FoldRMSE: rmse[c],
		}
		result.Results[c] = cr

		if cr.MeanRMSE < bestRMSE || (cr.MeanRMSE == bestRMSE && k < bestK) {
			bestRMSE = cr.MeanRMSE
			bestK = k
		}
	}
	result.BestK = bestK
	result.BestRMSE = bestRMSE

	slog.Debug("grid search finished",
		log.OperationKey, "search",
		log.SamplesKey, n,
		log.FoldsKey, g.NumFolds,
		log.BestKKey, result.BestK,
		log.RMSEKey, result.BestRMSE,
	)

	return result, nil
}

// evaluateFold scales one fold, fits a regressor per candidate k and
// reports the fold metrics through record.
func (g *GridSearchKNN) evaluateFold(X, y mat.Matrix, fold CVFold, record func(c int, rmse, mae, r2 float64)) error {
	trainX := subsetRows(X, fold.TrainIndices)
	trainY := subsetVec(y, fold.TrainIndices)
	valX := subsetRows(X, fold.ValIndices)
	valY := subsetVec(y, fold.ValIndices)

	// Scaling statistics come from the fold's training side only.
	scaler := preprocessing.NewStandardScaler()
	trainScaled, err := scaler.FitTransform(trainX)
	if err != nil {
		return err
	}
	valScaled, err := scaler.Transform(valX)
	if err != nil {
		return err
	}

	trainYCol := mat.NewDense(trainY.Len(), 1, nil)
	for i := 0; i < trainY.Len(); i++ {
		trainYCol.Set(i, 0, trainY.AtVec(i))
	}

	for c, k := range g.CandidateKs {
		reg := neighbors.NewKNNRegressor(k)
		if err := reg.Fit(trainScaled, trainYCol); err != nil {
			return err
		}

		pred, err := reg.Predict(valScaled)
		if err != nil {
			return err
		}
		predVec, err := metrics.ColumnVec(pred, 0)
		if err != nil {
			return err
		}

		foldRMSE, err := metrics.RMSE(valY, predVec)
		if err != nil {
			return err
		}
		foldMAE, err := metrics.MAE(valY, predVec)
		if err != nil {
			return err
		}

		// R² is undefined when the validation labels have no variance
		// (single-sample folds); record NaN instead of failing.
		foldR2, err := metrics.R2Score(valY, predVec)
		if err != nil {
			foldR2 = math.NaN()
		}

		record(c, foldRMSE, foldMAE, foldR2)
	}

	return nil
}

func meanOf(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// meanDefined averages the non-NaN entries, NaN when there are none.
func meanDefined(values []float64) float64 {
	sum, count := 0.0, 0
	for _, v := range values {
		if !math.IsNaN(v) {
			sum += v
			count++
		}
	}
	if count == 0 {
		return math.NaN()
	}
	return sum / float64(count)
}
