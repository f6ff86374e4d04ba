// Package errors はライブラリ全体のエラーハンドリングと警告システムを提供します。
// scikit-learnの例外体系にインスパイアされた構造化エラー型に加え、
// cockroachdb/errorsによるスタックトレースとzerologによる構造化出力をサポートします。
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================

var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// デフォルトのハンドラは標準ロガーに出力する
		log.Printf("knngo-warning: %v\n", w)
	}
	// zerolog経由の警告出力（循環importを避けるため遅延登録）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler はライブラリ全体の警告ハンドラを設定します。
//
// 例:
//
//	errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerologベースの警告出力関数を登録します（pkg/logから呼ばれる）。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが登録されている場合は構造化ログとして出力し、
// そうでなければ設定済みのハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	警告型
//
// ===========================================================================

// DroppedRowsWarning はデータ読み込み時に行が除外された場合の警告です。
type DroppedRowsWarning struct {
	Source  string
	Dropped int
	Kept    int
	Reason  string
}

func (w *DroppedRowsWarning) Error() string {
	return fmt.Sprintf("%s: dropped %d of %d rows (%s)", w.Source, w.Dropped, w.Dropped+w.Kept, w.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *DroppedRowsWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("source", w.Source).
		Int("dropped", w.Dropped).
		Int("kept", w.Kept).
		Str("reason", w.Reason).
		Str("type", "DroppedRowsWarning")
}

// NewDroppedRowsWarning は新しいDroppedRowsWarningを作成します。
func NewDroppedRowsWarning(source string, dropped, kept int, reason string) *DroppedRowsWarning {
	return &DroppedRowsWarning{Source: source, Dropped: dropped, Kept: kept, Reason: reason}
}

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// NotFittedError は未学習のモデルで Predict や Transform を呼び出した場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("knngo: %s: this estimator is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError は新しいNotFittedErrorを作成し、スタックトレースを付与します。
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// DimensionError は入力データの次元が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("knngo: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("type", "DimensionError")
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValidationError は入力パラメータの検証に失敗した場合のエラーです。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("knngo: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// ValueError は引数の値が不適切または不正な場合に発生するエラーです。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("knngo: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// ModelError は推定器に関する一般的なエラーです。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("knngo: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("knngo: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError は新しいModelErrorを作成し、スタックトレースを付与します。
func NewModelError(op, kind string, err error) error {
	modelErr := &ModelError{Op: op, Kind: kind, Err: err}
	return errors.WithStack(modelErr)
}

// ===========================================================================
//
//	前処理・k-NN・交差検証特有のエラー型
//
// ===========================================================================

// ZeroVarianceError は分散がゼロの特徴量列を標準化しようとした場合のエラーです。
// ゼロ除算でNaN/Infを黙って生成する代わりに、問題の列を明示して失敗します。
type ZeroVarianceError struct {
	Op     string
	Column int
}

func (e *ZeroVarianceError) Error() string {
	return fmt.Sprintf("knngo: %s: feature column %d has zero variance and cannot be standardized", e.Op, e.Column)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ZeroVarianceError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("column", e.Column).
		Str("type", "ZeroVarianceError")
}

// NewZeroVarianceError は新しいZeroVarianceErrorを作成し、スタックトレースを付与します。
func NewZeroVarianceError(op string, column int) error {
	err := &ZeroVarianceError{Op: op, Column: column}
	return errors.WithStack(err)
}

// NeighborCountError は近傍数kが訓練データに対して不正な場合のエラーです。
// 有効範囲は 1 <= k <= 訓練サンプル数 です。
type NeighborCountError struct {
	Op       string
	K        int
	NSamples int
}

func (e *NeighborCountError) Error() string {
	return fmt.Sprintf("knngo: %s: k=%d is out of range [1, %d]", e.Op, e.K, e.NSamples)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NeighborCountError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("k", e.K).
		Int("n_samples", e.NSamples).
		Str("type", "NeighborCountError")
}

// NewNeighborCountError は新しいNeighborCountErrorを作成し、スタックトレースを付与します。
func NewNeighborCountError(op string, k, nSamples int) error {
	err := &NeighborCountError{Op: op, K: k, NSamples: nSamples}
	return errors.WithStack(err)
}

// CandidateKError は交差検証の候補kが学習側フォールドのサイズを超える場合のエラーです。
type CandidateKError struct {
	K    int
	MaxK int
}

func (e *CandidateKError) Error() string {
	return fmt.Sprintf("knngo: candidate k=%d exceeds the valid range [1, %d] for the configured folds", e.K, e.MaxK)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *CandidateKError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("k", e.K).
		Int("max_k", e.MaxK).
		Str("type", "CandidateKError")
}

// NewCandidateKError は新しいCandidateKErrorを作成し、スタックトレースを付与します。
func NewCandidateKError(k, maxK int) error {
	err := &CandidateKError{K: k, MaxK: maxK}
	return errors.WithStack(err)
}

// FoldCountError は交差検証のフォールド数が不正な場合のエラーです。
// 有効範囲は 2 <= folds <= 訓練サンプル数 です。
type FoldCountError struct {
	Folds    int
	NSamples int
}

func (e *FoldCountError) Error() string {
	return fmt.Sprintf("knngo: fold count %d is out of range [2, %d]", e.Folds, e.NSamples)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *FoldCountError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("folds", e.Folds).
		Int("n_samples", e.NSamples).
		Str("type", "FoldCountError")
}

// NewFoldCountError は新しいFoldCountErrorを作成し、スタックトレースを付与します。
func NewFoldCountError(folds, nSamples int) error {
	err := &FoldCountError{Folds: folds, NSamples: nSamples}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")
)
