// Package preprocessing はモデル学習前の特徴量変換を提供する。
package preprocessing

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/knngo/core/model"
	"github.com/YuminosukeSato/knngo/pkg/errors"
)

// StandardScaler は特徴量を平均0、標準偏差1に変換する標準化スケーラー。
//
// 統計量は必ず訓練データのみから計算し、検証・テストデータには
// 同じ学習済みパラメータを適用する（データリーク防止の不変条件）。
// 標準偏差は不偏標準偏差（n-1で割る）を使用するため、訓練データ自身を
// 変換した結果の標本標準偏差は正確に1になる。
//
// 分散がゼロの列は距離計算に寄与せず、除算でNaN/Infを生成するため、
// FitはZeroVarianceErrorで該当列を明示して失敗する。
type StandardScaler struct {
	model.BaseEstimator

	// Mean は各特徴量列の平均値
	Mean []float64

	// Scale は各特徴量列の不偏標準偏差
	Scale []float64

	// NFeatures は特徴量の数
	NFeatures int
}

// NewStandardScaler は新しいStandardScalerを作成する
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{}
}

// Fit は訓練データから列ごとの平均と不偏標準偏差を計算する
//
// パラメータ:
//   - X: 訓練データ (n_samples × n_features の行列、n_samples >= 2)
//
// 戻り値:
//   - error: 空データ、サンプル数不足、分散ゼロ列の場合
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}
	if r < 2 {
		return errors.NewValueError("StandardScaler.Fit", "at least 2 samples are required to estimate a standard deviation")
	}

	mean := make([]float64, c)
	scale := make([]float64, c)

	for j := 0; j < c; j++ {
		sum := 0.0
		for i := 0; i < r; i++ {
			sum += X.At(i, j)
		}
		mean[j] = sum / float64(r)
	}

	for j := 0; j < c; j++ {
		sumSquares := 0.0
		for i := 0; i < r; i++ {
			diff := X.At(i, j) - mean[j]
			sumSquares += diff * diff
		}
		// 不偏分散 (n-1)
		variance := sumSquares / float64(r-1)
		scale[j] = math.Sqrt(variance)

		if scale[j] < 1e-12 {
			return errors.NewZeroVarianceError("StandardScaler.Fit", j)
		}
	}

	s.NFeatures = c
	s.Mean = mean
	s.Scale = scale
	s.SetFitted()
	return nil
}

// Transform は学習済みの統計量でデータを標準化する
//
// パラメータ:
//   - X: 変換するデータ (列数はFit時と一致すること)
//
// 戻り値:
//   - mat.Matrix: 標準化されたデータ（入力は変更しない）
//   - error: 未学習、次元不一致の場合
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "Transform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler.Transform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, (X.At(i, j)-s.Mean[j])/s.Scale[j])
		}
	}

	return result, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform は標準化されたデータを元のスケールに戻す
func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "InverseTransform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler.InverseTransform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, X.At(i, j)*s.Scale[j]+s.Mean[j])
		}
	}

	return result, nil
}

// scalerSnapshot はgob保存用の中間表現
type scalerSnapshot struct {
	Mean      []float64
	Scale     []float64
	NFeatures int
	Fitted    bool
}

// GobEncode は学習済みスケーラーをgobで保存できるようにする
func (s *StandardScaler) GobEncode() ([]byte, error) {
	snap := scalerSnapshot{
		Mean:      s.Mean,
		Scale:     s.Scale,
		NFeatures: s.NFeatures,
		Fitted:    s.IsFitted(),
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode は保存されたスケーラーを復元する
func (s *StandardScaler) GobDecode(data []byte) error {
	var snap scalerSnapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return err
	}

	s.Mean = snap.Mean
	s.Scale = snap.Scale
	s.NFeatures = snap.NFeatures
	if snap.Fitted {
		s.SetFitted()
	} else {
		s.Reset()
	}
	return nil
}

// GetParams はスケーラーのパラメータを取得する
func (s *StandardScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"with_mean": true,
		"with_std":  true,
	}
}

// String はスケーラーの文字列表現を返す
func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return "StandardScaler()"
	}
	return fmt.Sprintf("StandardScaler(n_features=%d)", s.NFeatures)
}
