// Package dataset loads and prepares tabular listing data for modeling.
//
// The loader is deliberately strict about what reaches the model: rows with
// missing, non-numeric or non-finite values in any selected column are
// dropped (and counted), so downstream estimators can assume fully numeric,
// finite matrices.
package dataset

import (
	"encoding/csv"
	"io"
	"log/slog"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/knngo/modelselection"
	"github.com/YuminosukeSato/knngo/pkg/errors"
	"github.com/YuminosukeSato/knngo/pkg/log"
)

// Dataset is an in-memory design matrix with named feature columns and a
// scalar label per row.
type Dataset struct {
	FeatureNames []string
	LabelName    string
	X            *mat.Dense
	Y            *mat.VecDense
}

// NumSamples returns the number of rows.
func (d *Dataset) NumSamples() int {
	r, _ := d.X.Dims()
	return r
}

// NumFeatures returns the number of feature columns.
func (d *Dataset) NumFeatures() int {
	_, c := d.X.Dims()
	return c
}

// CSVOptions selects which columns of a CSV file become features and label.
type CSVOptions struct {
	// LabelColumn is the header name of the label (e.g. "price").
	LabelColumn string
	// FeatureColumns are the header names of the feature columns, in order.
	FeatureColumns []string
}

// LoadCSV reads a headered CSV file into a Dataset. See ReadCSV.
func LoadCSV(path string, opts CSVOptions) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset: open %s", path)
	}
	defer file.Close()

	return ReadCSV(file, opts)
}

// ReadCSV reads headered CSV data into a Dataset. Rows with missing or
// unparseable values in any selected column are dropped; the drop count is
// raised as a DroppedRowsWarning.
func ReadCSV(r io.Reader, opts CSVOptions) (*Dataset, error) {
	if opts.LabelColumn == "" {
		return nil, errors.NewValidationError("LabelColumn", "must not be empty", opts.LabelColumn)
	}
	if len(opts.FeatureColumns) == 0 {
		return nil, errors.NewValidationError("FeatureColumns", "must not be empty", opts.FeatureColumns)
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "dataset: read header")
	}

	colIndex := make(map[string]int, len(header))
	for i, name := range header {
		colIndex[strings.TrimSpace(name)] = i
	}

	featureIdx := make([]int, len(opts.FeatureColumns))
	for i, name := range opts.FeatureColumns {
		idx, ok := colIndex[name]
		if !ok {
			return nil, errors.NewValidationError("FeatureColumns", "column not found in header", name)
		}
		featureIdx[i] = idx
	}
	labelIdx, ok := colIndex[opts.LabelColumn]
	if !ok {
		return nil, errors.NewValidationError("LabelColumn", "column not found in header", opts.LabelColumn)
	}

	var (
		rows    []float64
		labels  []float64
		dropped int
	)
	nFeatures := len(featureIdx)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed records are treated like rows with missing values.
			dropped++
			continue
		}

		values := make([]float64, 0, nFeatures)
		valid := true
		for _, idx := range featureIdx {
			v, ok := parseCell(record, idx)
			if !ok {
				valid = false
				break
			}
			values = append(values, v)
		}
		if valid {
			label, ok := parseCell(record, labelIdx)
			if !ok {
				valid = false
			} else {
				rows = append(rows, values...)
				labels = append(labels, label)
			}
		}
		if !valid {
			dropped++
		}
	}

	if len(labels) == 0 {
		return nil, errors.NewModelError("dataset.ReadCSV", "no usable rows", errors.ErrEmptyData)
	}

	if dropped > 0 {
		errors.Warn(errors.NewDroppedRowsWarning("dataset.ReadCSV", dropped, len(labels), "missing or non-numeric values"))
	}
	slog.Debug("csv loaded",
		log.OperationKey, "load",
		log.SamplesKey, len(labels),
		log.FeaturesKey, nFeatures,
		log.DroppedRowsKey, dropped,
	)

	return &Dataset{
		FeatureNames: append([]string(nil), opts.FeatureColumns...),
		LabelName:    opts.LabelColumn,
		X:            mat.NewDense(len(labels), nFeatures, rows),
		Y:            mat.NewVecDense(len(labels), labels),
	}, nil
}

// parseCell parses one CSV cell as a finite float. Currency formatting
// ("$1,234.00", as in the Airbnb price column) is tolerated.
func parseCell(record []string, idx int) (float64, bool) {
	if idx >= len(record) {
		return 0, false
	}
	s := strings.TrimSpace(record[idx])
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(strings.TrimPrefix(s, "$"), ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance in kilometres between two
// points given in decimal degrees.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := math.Pi / 180.0
	dLat := (lat2 - lat1) * toRad
	dLon := (lon2 - lon1) * toRad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*toRad)*math.Cos(lat2*toRad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

// AddDistanceFeature appends a feature column holding the haversine
// distance from each row's (latName, lonName) coordinates to a reference
// point, e.g. the city centre. The coordinate columns stay in place.
func (d *Dataset) AddDistanceFeature(newName, latName, lonName string, centerLat, centerLon float64) error {
	latIdx, err := d.featureIndex(latName)
	if err != nil {
		return err
	}
	lonIdx, err := d.featureIndex(lonName)
	if err != nil {
		return err
	}

	n, c := d.X.Dims()
	out := mat.NewDense(n, c+1, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, d.X.At(i, j))
		}
		dist := HaversineKm(d.X.At(i, latIdx), d.X.At(i, lonIdx), centerLat, centerLon)
		out.Set(i, c, dist)
	}

	d.X = out
	d.FeatureNames = append(d.FeatureNames, newName)
	return nil
}

func (d *Dataset) featureIndex(name string) (int, error) {
	for i, n := range d.FeatureNames {
		if n == name {
			return i, nil
		}
	}
	return 0, errors.NewValidationError("feature", "no such feature column", name)
}

// FilterLabelOutliers returns a copy of the dataset without rows whose
// label falls outside [Q1 - multiplier*IQR, Q3 + multiplier*IQR], plus the
// number of rows removed. The usual multiplier is 1.5.
func (d *Dataset) FilterLabelOutliers(multiplier float64) (*Dataset, int) {
	n := d.NumSamples()
	sorted := make([]float64, n)
	for i := 0; i < n; i++ {
		sorted[i] = d.Y.AtVec(i)
	}
	sort.Float64s(sorted)

	q1 := stat.Quantile(0.25, stat.Empirical, sorted, nil)
	q3 := stat.Quantile(0.75, stat.Empirical, sorted, nil)
	iqr := q3 - q1
	lo := q1 - multiplier*iqr
	hi := q3 + multiplier*iqr

	keep := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if v := d.Y.AtVec(i); v >= lo && v <= hi {
			keep = append(keep, i)
		}
	}

	removed := n - len(keep)
	if removed > 0 {
		errors.Warn(errors.NewDroppedRowsWarning("dataset.FilterLabelOutliers", removed, len(keep), "label outside IQR bounds"))
	}

	_, c := d.X.Dims()
	outX := mat.NewDense(len(keep), c, nil)
	outY := mat.NewVecDense(len(keep), nil)
	for i, idx := range keep {
		for j := 0; j < c; j++ {
			outX.Set(i, j, d.X.At(idx, j))
		}
		outY.SetVec(i, d.Y.AtVec(idx))
	}

	return &Dataset{
		FeatureNames: append([]string(nil), d.FeatureNames...),
		LabelName:    d.LabelName,
		X:            outX,
		Y:            outY,
	}, removed
}

// Split partitions the dataset into train and test sets with a seeded
// random permutation. The partition is drawn once and immutable.
func (d *Dataset) Split(testSize float64, seed int) (train, test *Dataset, err error) {
	yCol := mat.NewDense(d.NumSamples(), 1, nil)
	for i := 0; i < d.NumSamples(); i++ {
		yCol.Set(i, 0, d.Y.AtVec(i))
	}

	XTrain, XTest, yTrain, yTest, err := modelselection.TrainTestSplit(d.X, yCol, testSize, seed)
	if err != nil {
		return nil, nil, err
	}

	train = &Dataset{
		FeatureNames: append([]string(nil), d.FeatureNames...),
		LabelName:    d.LabelName,
		X:            XTrain,
		Y:            yTrain,
	}
	test = &Dataset{
		FeatureNames: append([]string(nil), d.FeatureNames...),
		LabelName:    d.LabelName,
		X:            XTest,
		Y:            yTest,
	}
	return train, test, nil
}
