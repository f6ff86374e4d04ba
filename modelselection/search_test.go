package modelselection

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	kerrors "github.com/YuminosukeSato/knngo/pkg/errors"
)

// gridData builds n rows with two informative features and a label that
// depends on them, plus deterministic pseudo-noise.
func gridData(n int) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		a := float64(i % 13)
		b := float64((i * 7) % 11)
		X.Set(i, 0, a)
		X.Set(i, 1, b)
		y.Set(i, 0, 3*a-2*b+math.Sin(float64(i)))
	}
	return X, y
}

func TestGridSearchKNNSelectsCandidate(t *testing.T) {
	X, y := gridData(60)

	search := NewGridSearchKNN([]int{1, 5, 15}, 5, 42)
	result, err := search.Search(X, y)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if len(result.Results) != 3 {
		t.Fatalf("len(Results) = %d, want 3", len(result.Results))
	}
	found := false
	for _, cr := range result.Results {
		if cr.K == result.BestK {
			found = true
			if cr.MeanRMSE != result.BestRMSE {
				t.Errorf("BestRMSE = %v, but candidate %d has mean RMSE %v", result.BestRMSE, cr.K, cr.MeanRMSE)
			}
		}
		if len(cr.FoldRMSE) != 5 {
			t.Errorf("candidate %d: len(FoldRMSE) = %d, want 5", cr.K, len(cr.FoldRMSE))
		}
		if cr.MeanRMSE < 0 || math.IsNaN(cr.MeanRMSE) {
			t.Errorf("candidate %d: invalid mean RMSE %v", cr.K, cr.MeanRMSE)
		}
		// The selected candidate minimizes mean RMSE.
		if cr.MeanRMSE < result.BestRMSE {
			t.Errorf("candidate %d has mean RMSE %v below BestRMSE %v", cr.K, cr.MeanRMSE, result.BestRMSE)
		}
	}
	if !found {
		t.Errorf("BestK = %d is not among the candidates", result.BestK)
	}
}

func TestGridSearchKNNTieBreaksToSmallestK(t *testing.T) {
	// A constant label makes every candidate score RMSE 0, so the tie
	// must resolve to the smallest k.
	n := 30
	X := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		y.Set(i, 0, 7.5)
	}

	search := NewGridSearchKNN([]int{9, 3, 6}, 3, 1)
	result, err := search.Search(X, y)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if result.BestK != 3 {
		t.Errorf("BestK = %d, want 3 (smallest k among tied candidates)", result.BestK)
	}
	if result.BestRMSE != 0 {
		t.Errorf("BestRMSE = %v, want 0", result.BestRMSE)
	}
}

func TestGridSearchKNNDeterministic(t *testing.T) {
	X, y := gridData(45)

	first, err := NewGridSearchKNN([]int{2, 4, 8}, 5, 99).Search(X, y)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	second, err := NewGridSearchKNN([]int{2, 4, 8}, 5, 99).Search(X, y)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if first.BestK != second.BestK {
		t.Errorf("BestK differs between identical runs: %d vs %d", first.BestK, second.BestK)
	}
	for c := range first.Results {
		if first.Results[c].MeanRMSE != second.Results[c].MeanRMSE {
			t.Errorf("candidate %d: mean RMSE differs between identical runs", first.Results[c].K)
		}
	}
}

func TestGridSearchKNNLeaveOneOut(t *testing.T) {
	// Leave-one-out: numFolds equals the sample count, no fold is empty,
	// and R² is undefined (NaN) on single-sample validation folds.
	X, y := gridData(12)

	search := NewGridSearchKNN([]int{3}, 12, 5)
	result, err := search.Search(X, y)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if result.BestK != 3 {
		t.Errorf("BestK = %d, want 3 (singleton candidate)", result.BestK)
	}
	if got := len(result.Results[0].FoldRMSE); got != 12 {
		t.Errorf("len(FoldRMSE) = %d, want 12", got)
	}
	if !math.IsNaN(result.Results[0].MeanR2) {
		t.Errorf("MeanR2 = %v, want NaN for single-sample folds", result.Results[0].MeanR2)
	}
}

func TestGridSearchKNNValidation(t *testing.T) {
	X, y := gridData(20)

	tests := []struct {
		name       string
		candidates []int
		folds      int
		wantErr    interface{}
	}{
		{
			name:       "candidate exceeds training partition",
			candidates: []int{16}, // 4 folds of 5 leave only 15 training rows
			folds:      4,
			wantErr:    &kerrors.CandidateKError{},
		},
		{
			name:       "candidate zero",
			candidates: []int{0},
			folds:      4,
			wantErr:    &kerrors.CandidateKError{},
		},
		{
			name:       "too few folds",
			candidates: []int{3},
			folds:      1,
			wantErr:    &kerrors.FoldCountError{},
		},
		{
			name:       "more folds than samples",
			candidates: []int{3},
			folds:      21,
			wantErr:    &kerrors.FoldCountError{},
		},
		{
			name:       "empty candidates",
			candidates: nil,
			folds:      4,
			wantErr:    &kerrors.ValidationError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGridSearchKNN(tt.candidates, tt.folds, 1).Search(X, y)
			if err == nil {
				t.Fatal("Search() expected error, got nil")
			}

			switch want := tt.wantErr.(type) {
			case *kerrors.CandidateKError:
				if !kerrors.As(err, &want) {
					t.Errorf("Search() error = %v, want CandidateKError", err)
				}
			case *kerrors.FoldCountError:
				if !kerrors.As(err, &want) {
					t.Errorf("Search() error = %v, want FoldCountError", err)
				}
			case *kerrors.ValidationError:
				if !kerrors.As(err, &want) {
					t.Errorf("Search() error = %v, want ValidationError", err)
				}
			}
		})
	}
}

func TestGridSearchKNNZeroVariancePropagates(t *testing.T) {
	// A constant feature column fails inside the per-fold scaler fit and
	// aborts the whole search with no partial result.
	n := 20
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, 4.0) // constant
		y.Set(i, 0, float64(i))
	}

	result, err := NewGridSearchKNN([]int{3}, 4, 1).Search(X, y)
	if err == nil {
		t.Fatal("Search() expected error, got nil")
	}
	if result != nil {
		t.Error("Search() returned a partial result alongside an error")
	}

	var zvErr *kerrors.ZeroVarianceError
	if !kerrors.As(err, &zvErr) {
		t.Fatalf("Search() error = %v, want ZeroVarianceError", err)
	}
	if zvErr.Column != 1 {
		t.Errorf("ZeroVarianceError.Column = %d, want 1", zvErr.Column)
	}
}

func TestCandidateRange(t *testing.T) {
	got := CandidateRange(3, 6)
	want := []int{3, 4, 5, 6}
	if len(got) != len(want) {
		t.Fatalf("CandidateRange(3, 6) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("CandidateRange(3, 6) = %v, want %v", got, want)
		}
	}

	if got := CandidateRange(5, 4); got != nil {
		t.Errorf("CandidateRange(5, 4) = %v, want nil", got)
	}
}
