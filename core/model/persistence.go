package model

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"
)

// Save は学習済み推定器をgob形式でファイルに保存する
//
// 使用例:
//
//	var reg neighbors.KNNRegressor
//	// ... 学習 ...
//	err := model.Save(&reg, "knn.gob")
func Save(estimator interface{}, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	return SaveToWriter(estimator, file)
}

// Load はgob形式のファイルから推定器を読み込む
func Load(estimator interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return LoadFromReader(estimator, file)
}

// SaveToWriter は推定器をio.Writerに書き出す
func SaveToWriter(estimator interface{}, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(estimator); err != nil {
		return fmt.Errorf("failed to encode estimator: %w", err)
	}
	return nil
}

// LoadFromReader はio.Readerから推定器を読み込む
func LoadFromReader(estimator interface{}, r io.Reader) error {
	if err := gob.NewDecoder(r).Decode(estimator); err != nil {
		return fmt.Errorf("failed to decode estimator: %w", err)
	}
	return nil
}
