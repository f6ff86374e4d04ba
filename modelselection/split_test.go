package modelselection

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	kerrors "github.com/YuminosukeSato/knngo/pkg/errors"
)

func TestKFoldSplit(t *testing.T) {
	tests := []struct {
		name     string
		nSamples int
		nSplits  int
	}{
		{name: "even split", nSamples: 20, nSplits: 5},
		{name: "uneven split", nSamples: 23, nSplits: 5},
		{name: "two folds", nSamples: 7, nSplits: 2},
		{name: "leave-one-out", nSamples: 6, nSplits: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kf := NewKFold(tt.nSplits, 42)
			folds, err := kf.Split(tt.nSamples)
			if err != nil {
				t.Fatalf("Split() error = %v", err)
			}
			if len(folds) != tt.nSplits {
				t.Fatalf("len(folds) = %d, want %d", len(folds), tt.nSplits)
			}

			seen := make(map[int]int)
			minSize, maxSize := tt.nSamples, 0
			for _, fold := range folds {
				if len(fold.ValIndices) == 0 {
					t.Error("validation fold has size 0")
				}
				if size := len(fold.ValIndices); size < minSize {
					minSize = size
				}
				if size := len(fold.ValIndices); size > maxSize {
					maxSize = size
				}
				for _, idx := range fold.ValIndices {
					seen[idx]++
				}
				if got := len(fold.TrainIndices) + len(fold.ValIndices); got != tt.nSamples {
					t.Errorf("train+val size = %d, want %d", got, tt.nSamples)
				}
			}

			if len(seen) != tt.nSamples {
				t.Errorf("validation folds cover %d distinct indices, want %d", len(seen), tt.nSamples)
			}
			for idx, count := range seen {
				if count != 1 {
					t.Errorf("index %d appears in %d validation folds, want 1", idx, count)
				}
			}
			if maxSize-minSize > 1 {
				t.Errorf("fold sizes differ by %d, want at most 1", maxSize-minSize)
			}
		})
	}
}

func TestKFoldSplitDeterministic(t *testing.T) {
	a, err := NewKFold(5, 7).Split(31)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	b, err := NewKFold(5, 7).Split(31)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}

	for f := range a {
		for i := range a[f].ValIndices {
			if a[f].ValIndices[i] != b[f].ValIndices[i] {
				t.Fatalf("fold %d differs between runs with the same seed", f)
			}
		}
	}
}

func TestKFoldSplitInvalidFoldCount(t *testing.T) {
	tests := []struct {
		name     string
		nSamples int
		nSplits  int
	}{
		{name: "single fold", nSamples: 10, nSplits: 1},
		{name: "more folds than samples", nSamples: 4, nSplits: 5},
		{name: "zero folds", nSamples: 10, nSplits: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewKFold(tt.nSplits, 1).Split(tt.nSamples)
			if err == nil {
				t.Fatal("Split() expected error, got nil")
			}
			var fcErr *kerrors.FoldCountError
			if !kerrors.As(err, &fcErr) {
				t.Fatalf("Split() error = %v, want FoldCountError", err)
			}
			if fcErr.Folds != tt.nSplits {
				t.Errorf("FoldCountError.Folds = %d, want %d", fcErr.Folds, tt.nSplits)
			}
		})
	}
}

func TestTrainTestSplit(t *testing.T) {
	n := 40
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, float64(2*i))
		y.Set(i, 0, float64(i*10))
	}

	XTrain, XTest, yTrain, yTest, err := TrainTestSplit(X, y, 0.25, 42)
	if err != nil {
		t.Fatalf("TrainTestSplit() error = %v", err)
	}

	trainRows, _ := XTrain.Dims()
	testRows, _ := XTest.Dims()
	if trainRows != 30 || testRows != 10 {
		t.Errorf("split sizes = (%d, %d), want (30, 10)", trainRows, testRows)
	}
	if yTrain.Len() != trainRows || yTest.Len() != testRows {
		t.Error("label sizes do not match feature sizes")
	}

	// Rows keep their feature/label pairing.
	for i := 0; i < testRows; i++ {
		if want := XTest.At(i, 0) * 10; yTest.AtVec(i) != want {
			t.Fatalf("test row %d: label %v does not match features (want %v)", i, yTest.AtVec(i), want)
		}
	}

	// Same seed reproduces the same partition.
	_, XTest2, _, _, err := TrainTestSplit(X, y, 0.25, 42)
	if err != nil {
		t.Fatalf("TrainTestSplit() error = %v", err)
	}
	if !mat.Equal(XTest, XTest2) {
		t.Error("same seed produced a different partition")
	}
}

func TestTrainTestSplitValidation(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{1, 2, 3, 4})

	for _, testSize := range []float64{0.0, 1.0, -0.5, 1.5} {
		if _, _, _, _, err := TrainTestSplit(X, y, testSize, 1); err == nil {
			t.Errorf("TrainTestSplit(testSize=%v): expected error, got nil", testSize)
		}
	}

	yBad := mat.NewDense(3, 1, []float64{1, 2, 3})
	if _, _, _, _, err := TrainTestSplit(X, yBad, 0.25, 1); err == nil {
		t.Error("TrainTestSplit() with mismatched rows: expected error, got nil")
	}
}
