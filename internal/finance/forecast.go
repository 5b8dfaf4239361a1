package finance

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rahul/finmate/internal/ledger"
	"gonum.org/v1/gonum/stat"
)

// ErrNotEnoughData is returned when fewer than two days of history exist.
var ErrNotEnoughData = errors.New("not enough history to forecast")

// Point is one forecast day with a 95% band.
type Point struct {
	DS        time.Time `json:"ds"`
	YHat      float64   `json:"yhat"`
	YHatLower float64   `json:"yhat_lower"`
	YHatUpper float64   `json:"yhat_upper"`
}

// Forecast fits a least-squares line to daily spending and projects it
// days ahead of the last observed day. Missing days in the history count as
// zero spending. The band is ±1.96 residual standard deviations; values are
// floored at zero.
func Forecast(history []ledger.DailyTotal, days int) ([]Point, error) {
	if len(history) < 2 {
		return nil, ErrNotEnoughData
	}
	if days <= 0 {
		days = 30
	}

	first := truncateDay(history[0].Day)
	last := truncateDay(history[len(history)-1].Day)
	n := int(last.Sub(first).Hours()/24) + 1
	if n < 2 {
		return nil, ErrNotEnoughData
	}
	y := make([]float64, n)
	for _, d := range history {
		idx := int(truncateDay(d.Day).Sub(first).Hours() / 24)
		if idx >= 0 && idx < n {
			y[idx] += d.Total
		}
	}

	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i)
	}
	intercept, slope := stat.LinearRegression(x, y, nil, false)

	// Residual standard error with n-2 degrees of freedom. OLS residuals
	// have zero mean, so the sample variance only needs rescaling.
	sigma := 0.0
	if n > 2 {
		residuals := make([]float64, n)
		for i := range y {
			residuals[i] = y[i] - (intercept + slope*x[i])
		}
		sigma = math.Sqrt(stat.Variance(residuals, nil) * float64(n-1) / float64(n-2))
	}

	points := make([]Point, 0, days)
	for k := 1; k <= days; k++ {
		yhat := intercept + slope*float64(n-1+k)
		points = append(points, Point{
			DS:        last.AddDate(0, 0, k),
			YHat:      math.Max(0, yhat),
			YHatLower: math.Max(0, yhat-1.96*sigma),
			YHatUpper: math.Max(0, yhat+1.96*sigma),
		})
	}
	return points, nil
}

// Total sums the point forecasts.
func Total(points []Point) float64 {
	var sum float64
	for _, p := range points {
		sum += p.YHat
	}
	return sum
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DailySource supplies spending history.
type DailySource interface {
	DailyExpenses(ctx context.Context, since time.Time) ([]ledger.DailyTotal, error)
}

// ForecastFrom loads the last lookback days of spending from src and
// forecasts days ahead.
func ForecastFrom(ctx context.Context, src DailySource, now time.Time, lookback, days int) ([]Point, error) {
	if lookback <= 0 {
		lookback = 90
	}
	history, err := src.DailyExpenses(ctx, truncateDay(now).AddDate(0, 0, -lookback))
	if err != nil {
		return nil, err
	}
	return Forecast(history, days)
}
