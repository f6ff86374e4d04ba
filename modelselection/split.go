// Package modelselection provides data splitting and hyperparameter
// search utilities for the neighbors regressor.
//
// All randomness is driven by caller-supplied seeds through rand/v2 PCG,
// so splits and fold assignments are reproducible across runs.
package modelselection

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/knngo/pkg/errors"
)

// CVFold holds the train/validation index sets of one cross-validation fold.
type CVFold struct {
	TrainIndices []int
	ValIndices   []int
}

// KFold assigns samples to NSplits disjoint validation folds whose sizes
// differ by at most one. With Shuffle enabled the assignment is a seeded
// random permutation; otherwise folds are contiguous index ranges.
type KFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed int
}

// NewKFold creates a shuffling k-fold splitter with the given seed.
func NewKFold(nSplits, randomSeed int) *KFold {
	return &KFold{
		NSplits:    nSplits,
		Shuffle:    true,
		RandomSeed: randomSeed,
	}
}

// Split generates the folds for nSamples samples. Every index appears in
// exactly one validation fold.
func (kf *KFold) Split(nSamples int) ([]CVFold, error) {
	if kf.NSplits < 2 || kf.NSplits > nSamples {
		return nil, errors.NewFoldCountError(kf.NSplits, nSamples)
	}

	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}

	if kf.Shuffle {
		r := rand.New(rand.NewPCG(uint64(kf.RandomSeed), uint64(kf.RandomSeed)))
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	// The first (nSamples % NSplits) folds take one extra sample.
	foldSize := nSamples / kf.NSplits
	remainder := nSamples % kf.NSplits

	folds := make([]CVFold, kf.NSplits)
	cursor := 0
	for f := 0; f < kf.NSplits; f++ {
		valSize := foldSize
		if f < remainder {
			valSize++
		}

		valIndices := make([]int, valSize)
		copy(valIndices, indices[cursor:cursor+valSize])

		inVal := make([]bool, nSamples)
		for _, idx := range valIndices {
			inVal[idx] = true
		}
		trainIndices := make([]int, 0, nSamples-valSize)
		for i := 0; i < nSamples; i++ {
			if !inVal[i] {
				trainIndices = append(trainIndices, i)
			}
		}

		folds[f] = CVFold{TrainIndices: trainIndices, ValIndices: valIndices}
		cursor += valSize
	}

	return folds, nil
}

// MaxValidationFoldSize returns the size of the largest validation fold for
// nSamples samples, without materializing the folds.
func (kf *KFold) MaxValidationFoldSize(nSamples int) int {
	size := nSamples / kf.NSplits
	if nSamples%kf.NSplits != 0 {
		size++
	}
	return size
}

// TrainTestSplit partitions X and y into a training and a held-out test set
// by a seeded random permutation. testSize is the test fraction in (0, 1);
// both sides of the partition are guaranteed at least one sample. The
// partition is a copy; the inputs are not modified.
func TrainTestSplit(X, y mat.Matrix, testSize float64, seed int) (XTrain, XTest *mat.Dense, yTrain, yTest *mat.VecDense, err error) {
	n, _ := X.Dims()
	ny, cy := y.Dims()

	if n == 0 {
		return nil, nil, nil, nil, errors.NewModelError("TrainTestSplit", "empty data", errors.ErrEmptyData)
	}
	if ny != n {
		return nil, nil, nil, nil, errors.NewDimensionError("TrainTestSplit", n, ny, 0)
	}
	if cy != 1 {
		return nil, nil, nil, nil, errors.NewValueError("TrainTestSplit", "y must be a column vector")
	}
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, nil, nil, errors.NewValidationError("testSize", "must be in (0, 1)", testSize)
	}

	nTest := int(float64(n) * testSize)
	if nTest < 1 {
		nTest = 1
	}
	if nTest >= n {
		nTest = n - 1
	}

	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	r := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	r.Shuffle(n, func(i, j int) {
		perm[i], perm[j] = perm[j], perm[i]
	})

	XTest = subsetRows(X, perm[:nTest])
	yTest = subsetVec(y, perm[:nTest])
	XTrain = subsetRows(X, perm[nTest:])
	yTrain = subsetVec(y, perm[nTest:])
	return XTrain, XTest, yTrain, yTest, nil
}

// subsetRows copies the given rows of X into a new matrix, in index order.
func subsetRows(X mat.Matrix, rows []int) *mat.Dense {
	_, d := X.Dims()
	out := mat.NewDense(len(rows), d, nil)
	for i, idx := range rows {
		for j := 0; j < d; j++ {
			out.Set(i, j, X.At(idx, j))
		}
	}
	return out
}

// subsetVec copies the given rows of column matrix y into a new vector.
func subsetVec(y mat.Matrix, rows []int) *mat.VecDense {
	out := mat.NewVecDense(len(rows), nil)
	for i, idx := range rows {
		out.SetVec(i, y.At(idx, 0))
	}
	return out
}
