// Package visualize renders diagnostic charts for tuning and evaluation
// results as PNG files.
package visualize

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/knngo/modelselection"
	"github.com/YuminosukeSato/knngo/pkg/errors"
)

// ValidationCurve writes the mean validation RMSE per candidate k as a
// line-and-points chart.
func ValidationCurve(result *modelselection.SearchResult, path string) error {
	if result == nil || len(result.Results) == 0 {
		return errors.NewValueError("ValidationCurve", "empty search result")
	}

	pts := make(plotter.XYs, len(result.Results))
	for i, cr := range result.Results {
		pts[i].X = float64(cr.K)
		pts[i].Y = cr.MeanRMSE
	}

	p := plot.New()
	p.Title.Text = "Cross-validated RMSE by neighbourhood size"
	p.X.Label.Text = "k"
	p.Y.Label.Text = "mean validation RMSE"
	p.Add(plotter.NewGrid())

	if err := plotutil.AddLinePoints(p, "RMSE", pts); err != nil {
		return errors.Wrap(err, "visualize: add validation curve")
	}

	if err := p.Save(7*vg.Inch, 5*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "visualize: save %s", path)
	}
	return nil
}

// PredictedVsActual writes a scatter of predicted against actual labels
// with a y=x reference line; points on the line are perfect predictions.
func PredictedVsActual(yTrue, yPred *mat.VecDense, path string) error {
	n := yTrue.Len()
	if n == 0 {
		return errors.NewValueError("PredictedVsActual", "empty vector")
	}
	if yPred.Len() != n {
		return errors.NewDimensionError("PredictedVsActual", n, yPred.Len(), 0)
	}

	pts := make(plotter.XYs, n)
	lo, hi := yTrue.AtVec(0), yTrue.AtVec(0)
	for i := 0; i < n; i++ {
		actual, pred := yTrue.AtVec(i), yPred.AtVec(i)
		pts[i].X = actual
		pts[i].Y = pred
		if actual < lo {
			lo = actual
		}
		if actual > hi {
			hi = actual
		}
	}

	p := plot.New()
	p.Title.Text = "Predicted vs actual"
	p.X.Label.Text = "actual"
	p.Y.Label.Text = "predicted"
	p.Add(plotter.NewGrid())

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return errors.Wrap(err, "visualize: build scatter")
	}
	p.Add(scatter)

	ref := plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}}
	line, err := plotter.NewLine(ref)
	if err != nil {
		return errors.Wrap(err, "visualize: build reference line")
	}
	p.Add(line)

	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "visualize: save %s", path)
	}
	return nil
}
