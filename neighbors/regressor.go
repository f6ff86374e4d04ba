// Package neighbors はk近傍法に基づく推定器を提供する。
package neighbors

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/knngo/core/model"
	"github.com/YuminosukeSato/knngo/core/parallel"
	"github.com/YuminosukeSato/knngo/metrics"
	"github.com/YuminosukeSato/knngo/pkg/errors"
)

// 並列化の閾値（クエリ行数がこの値以下なら逐次処理）
const parallelThreshold = 100

// KNNRegressor はユークリッド距離によるk近傍回帰モデル。
//
// 遅延学習器であり、Fitは訓練データを保持するだけで、予測時に
// クエリと全訓練点の距離を計算して最近傍k点のラベル平均を返す。
// 計算量はクエリ1件あたり O(n·d)。このライブラリの規模では
// 全探索で十分であり、空間インデックスは持たない。
//
// k番目の距離に同点がある場合は、訓練データの元の行順で先に
// 現れた点を採用する（安定な決定的タイブレーク）。
type KNNRegressor struct {
	model.BaseEstimator

	// K は参照する近傍数
	K int

	// XTrain は訓練特徴量 (n_samples × n_features)
	XTrain *mat.Dense

	// YTrain は訓練ラベル
	YTrain *mat.VecDense

	// NSamples は訓練サンプル数
	NSamples int

	// NFeatures は特徴量の数
	NFeatures int
}

// NewKNNRegressor は近傍数kのKNNRegressorを作成する
func NewKNNRegressor(k int) *KNNRegressor {
	return &KNNRegressor{K: k}
}

// Fit は訓練データを検証してモデル内部にコピーする
//
// パラメータ:
//   - X: 訓練特徴量 (n_samples × n_features)
//   - y: 訓練ラベル (n_samples × 1)
//
// 戻り値:
//   - error: 空データ、次元不一致、kが範囲 [1, n_samples] 外の場合
func (r *KNNRegressor) Fit(X, y mat.Matrix) error {
	n, d := X.Dims()
	ny, cy := y.Dims()

	if n == 0 || d == 0 {
		return errors.NewModelError("KNNRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if ny != n {
		return errors.NewDimensionError("KNNRegressor.Fit", n, ny, 0)
	}
	if cy != 1 {
		return errors.NewValueError("KNNRegressor.Fit", "y must be a column vector")
	}
	if r.K < 1 || r.K > n {
		return errors.NewNeighborCountError("KNNRegressor.Fit", r.K, n)
	}

	// 呼び出し側の行列が後から変更されても影響を受けないようコピーを保持する
	r.XTrain = mat.DenseCopyOf(X)
	yVec := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		yVec.SetVec(i, y.At(i, 0))
	}
	r.YTrain = yVec
	r.NSamples = n
	r.NFeatures = d

	r.SetFitted()
	return nil
}

// Predict は各クエリ行について最近傍k点のラベル平均を返す
//
// パラメータ:
//   - X: クエリ特徴量 (n_queries × n_features)
//
// 戻り値:
//   - mat.Matrix: 予測値 (n_queries × 1)
//   - error: 未学習、次元不一致の場合
func (r *KNNRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !r.IsFitted() {
		return nil, errors.NewNotFittedError("KNNRegressor", "Predict")
	}

	nq, d := X.Dims()
	if d != r.NFeatures {
		return nil, errors.NewDimensionError("KNNRegressor.Predict", r.NFeatures, d, 1)
	}

	result := mat.NewDense(nq, 1, nil)

	// クエリ行は互いに独立なので行単位で並列化できる
	parallel.ParallelizeWithThreshold(nq, parallelThreshold, func(start, end int) {
		query := make([]float64, r.NFeatures)
		for i := start; i < end; i++ {
			mat.Row(query, i, X)
			nbrs := r.nearest(query)

			sum := 0.0
			for _, nb := range nbrs {
				sum += r.YTrain.AtVec(nb.index)
			}
			result.Set(i, 0, sum/float64(len(nbrs)))
		}
	})

	return result, nil
}

// Kneighbors は各クエリ行の最近傍k点の距離とインデックスを返す
//
// 戻り値:
//   - *mat.Dense: ユークリッド距離 (n_queries × k)、近い順
//   - [][]int: 対応する訓練データの行インデックス
//   - error: 未学習、次元不一致の場合
func (r *KNNRegressor) Kneighbors(X mat.Matrix) (*mat.Dense, [][]int, error) {
	if !r.IsFitted() {
		return nil, nil, errors.NewNotFittedError("KNNRegressor", "Kneighbors")
	}

	nq, d := X.Dims()
	if d != r.NFeatures {
		return nil, nil, errors.NewDimensionError("KNNRegressor.Kneighbors", r.NFeatures, d, 1)
	}

	distances := mat.NewDense(nq, r.K, nil)
	indices := make([][]int, nq)

	parallel.ParallelizeWithThreshold(nq, parallelThreshold, func(start, end int) {
		query := make([]float64, r.NFeatures)
		for i := start; i < end; i++ {
			mat.Row(query, i, X)
			nbrs := r.nearest(query)

			idx := make([]int, len(nbrs))
			for j, nb := range nbrs {
				idx[j] = nb.index
				distances.Set(i, j, math.Sqrt(nb.sqDist))
			}
			indices[i] = idx
		}
	})

	return distances, indices, nil
}

// Score はテストデータに対する決定係数（R²）を返す
func (r *KNNRegressor) Score(X, y mat.Matrix) (float64, error) {
	pred, err := r.Predict(X)
	if err != nil {
		return 0, err
	}

	yVec, err := metrics.ColumnVec(y, 0)
	if err != nil {
		return 0, err
	}
	predVec, err := metrics.ColumnVec(pred, 0)
	if err != nil {
		return 0, err
	}

	return metrics.R2Score(yVec, predVec)
}

// neighbor は近傍候補（訓練データの行インデックスと二乗距離）
type neighbor struct {
	index  int
	sqDist float64
}

// nearest はクエリに対する最近傍k点を返す。
// 比較は二乗距離で行い、平方根は必要になるまで取らない。
// 訓練行を昇順に走査し、同距離の点は既存エントリを追い出さないため、
// タイブレークは元の行順で安定になる。
func (r *KNNRegressor) nearest(query []float64) []neighbor {
	nbrs := make([]neighbor, 0, r.K)
	raw := r.XTrain.RawMatrix()

	for j := 0; j < r.NSamples; j++ {
		row := raw.Data[j*raw.Stride : j*raw.Stride+r.NFeatures]

		sq := 0.0
		for t, q := range query {
			diff := q - row[t]
			sq += diff * diff
		}

		if len(nbrs) < r.K {
			nbrs = insertNeighbor(nbrs, neighbor{index: j, sqDist: sq})
		} else if sq < nbrs[len(nbrs)-1].sqDist {
			nbrs = insertNeighbor(nbrs[:len(nbrs)-1], neighbor{index: j, sqDist: sq})
		}
	}

	return nbrs
}

// insertNeighbor は距離順を保ったままnbを挿入する。
// 同距離のエントリの後ろに入れることで走査順（=元の行順）を保存する。
func insertNeighbor(nbrs []neighbor, nb neighbor) []neighbor {
	pos := len(nbrs)
	for pos > 0 && nbrs[pos-1].sqDist > nb.sqDist {
		pos--
	}
	nbrs = append(nbrs, neighbor{})
	copy(nbrs[pos+1:], nbrs[pos:])
	nbrs[pos] = nb
	return nbrs
}

// regressorSnapshot はgob保存用の中間表現。
// mat.Denseは非公開フィールドしか持たないため、生のスライスに展開する。
type regressorSnapshot struct {
	K         int
	NSamples  int
	NFeatures int
	X         []float64
	Y         []float64
	Fitted    bool
}

// GobEncode は学習済みモデルをgobで保存できるようにする
func (r *KNNRegressor) GobEncode() ([]byte, error) {
	snap := regressorSnapshot{
		K:         r.K,
		NSamples:  r.NSamples,
		NFeatures: r.NFeatures,
		Fitted:    r.IsFitted(),
	}
	if r.IsFitted() {
		snap.X = make([]float64, r.NSamples*r.NFeatures)
		for i := 0; i < r.NSamples; i++ {
			mat.Row(snap.X[i*r.NFeatures:(i+1)*r.NFeatures], i, r.XTrain)
		}
		snap.Y = make([]float64, r.NSamples)
		for i := 0; i < r.NSamples; i++ {
			snap.Y[i] = r.YTrain.AtVec(i)
		}
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode は保存されたモデルを復元する
func (r *KNNRegressor) GobDecode(data []byte) error {
	var snap regressorSnapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return err
	}

	r.K = snap.K
	r.NSamples = snap.NSamples
	r.NFeatures = snap.NFeatures
	if snap.Fitted {
		r.XTrain = mat.NewDense(snap.NSamples, snap.NFeatures, snap.X)
		r.YTrain = mat.NewVecDense(snap.NSamples, snap.Y)
		r.SetFitted()
	} else {
		r.Reset()
	}
	return nil
}

// GetParams はモデルのハイパーパラメータを返す
func (r *KNNRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_neighbors": r.K,
	}
}

// String はモデルの文字列表現を返す
func (r *KNNRegressor) String() string {
	if !r.IsFitted() {
		return fmt.Sprintf("KNNRegressor(n_neighbors=%d)", r.K)
	}
	return fmt.Sprintf("KNNRegressor(n_neighbors=%d, n_samples=%d, n_features=%d)", r.K, r.NSamples, r.NFeatures)
}
