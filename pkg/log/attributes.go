package log

// Standard attribute keys for model and operation context. Using the same
// keys everywhere keeps the JSON logs filterable across packages.
const (
	// ModelNameKey identifies the estimator type.
	// Examples: "KNNRegressor", "StandardScaler"
	ModelNameKey = "model.name"

	// OperationKey names the operation being performed.
	// Standard values: "fit", "predict", "transform", "search", "load"
	OperationKey = "ml.operation"

	// RunIDKey carries the identifier of one analysis session.
	RunIDKey = "run.id"
)

// Data shape attributes.
const (
	// SamplesKey is the number of rows being processed.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of feature columns.
	FeaturesKey = "data.features"

	// DroppedRowsKey is the number of rows removed during cleaning.
	DroppedRowsKey = "data.dropped_rows"
)

// Cross-validation attributes.
const (
	// FoldKey is the index of the validation fold.
	FoldKey = "cv.fold"

	// FoldsKey is the total number of folds.
	FoldsKey = "cv.folds"

	// NeighborsKey is the candidate neighbourhood size under evaluation.
	NeighborsKey = "cv.k"

	// BestKKey is the selected neighbourhood size.
	BestKKey = "cv.best_k"
)

// Metric attributes.
const (
	// RMSEKey is the root mean squared error of a prediction.
	RMSEKey = "metric.rmse"

	// MAEKey is the mean absolute error of a prediction.
	MAEKey = "metric.mae"

	// R2Key is the coefficient of determination of a prediction.
	R2Key = "metric.r2"

	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)
