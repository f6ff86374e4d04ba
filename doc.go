// Package knngo provides k-nearest-neighbours regression with
// cross-validated hyperparameter tuning, built for tabular price
// prediction workloads such as the Airbnb listings analysis.
//
// # Quick Start
//
// Tune the neighbourhood size on a training set and evaluate the refit
// model on a held-out split:
//
//	ds, err := dataset.LoadCSV("listings.csv", dataset.CSVOptions{
//	    LabelColumn:    "price",
//	    FeatureColumns: []string{"accommodates", "bedrooms", "latitude", "longitude"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	train, test, err := ds.Split(0.25, 42)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	search := modelselection.NewGridSearchKNN(modelselection.CandidateRange(1, 120), 10, 42)
//	result, err := search.Search(train.X, train.Y)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	scaler := preprocessing.NewStandardScaler()
//	XTrain, _ := scaler.FitTransform(train.X)
//	XTest, _ := scaler.Transform(test.X)
//
//	reg := neighbors.NewKNNRegressor(result.BestK)
//	_ = reg.Fit(XTrain, train.Y)
//	r2, _ := reg.Score(XTest, test.Y)
//	fmt.Printf("best k = %d, test R² = %.3f\n", result.BestK, r2)
//
// # Packages
//
//   - neighbors: KNNRegressor (brute-force Euclidean, lazy learner)
//   - preprocessing: StandardScaler fitted on training data only
//   - modelselection: seeded train/test split, k-fold splitter, grid search
//   - metrics: MSE, RMSE, MAE, R²
//   - dataset: CSV ingestion, distance feature, label-outlier filter
//   - visualize: validation-curve and prediction-scatter PNGs
//
// # Determinism
//
// All randomness (train/test partition, fold assignment) is driven by
// caller-supplied seeds; identical seeds reproduce identical splits,
// folds and selected k.
package knngo
