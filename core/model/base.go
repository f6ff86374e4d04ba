package model

// EstimatorState は推定器の学習ライフサイクルを表す
type EstimatorState int

const (
	// NotFitted は未学習の状態
	NotFitted EstimatorState = iota
	// Fitted は学習済みの状態
	Fitted
)

// String は状態の文字列表現を返す
func (s EstimatorState) String() string {
	switch s {
	case Fitted:
		return "fitted"
	default:
		return "not fitted"
	}
}

// BaseEstimator は全ての推定器に埋め込まれる基底構造体。
// 学習状態の管理のみを担当し、ハイパーパラメータは各モデルが保持する。
type BaseEstimator struct {
	state EstimatorState
}

// IsFitted は推定器が学習済みかどうかを返す
func (e *BaseEstimator) IsFitted() bool {
	return e.state == Fitted
}

// SetFitted は推定器を学習済み状態に設定する
func (e *BaseEstimator) SetFitted() {
	e.state = Fitted
}

// Reset は推定器を未学習状態に戻す
func (e *BaseEstimator) Reset() {
	e.state = NotFitted
}

// State は現在の学習状態を返す
func (e *BaseEstimator) State() EstimatorState {
	return e.state
}
