// Package model は推定器の共通インターフェースと基底型を提供する。
package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を返す (n×1 行列)
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Scorer は決定係数を計算できるモデルのインターフェース
type Scorer interface {
	// Score は予測の決定係数 R² を返す
	Score(X, y mat.Matrix) (float64, error)
}

// Regressor は回帰モデルのインターフェース
type Regressor interface {
	Fitter
	Predictor
	Scorer
}

// Transformer はデータ変換器のインターフェース
type Transformer interface {
	// Fit は訓練データから変換パラメータを学習する
	Fit(X mat.Matrix) error
	// Transform は学習済みパラメータでデータを変換する
	Transform(X mat.Matrix) (mat.Matrix, error)
	// InverseTransform は変換されたデータを元のスケールに戻す
	InverseTransform(X mat.Matrix) (mat.Matrix, error)
}

// ParameterGetter はハイパーパラメータを公開するモデルのインターフェース
type ParameterGetter interface {
	// GetParams はモデルのハイパーパラメータを返す
	GetParams() map[string]interface{}
}
