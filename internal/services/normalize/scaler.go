package normalize

import (
	"sync"

	"StockCast/internal/domain/errs"
	"StockCast/internal/domain/models"
)

// Fit computes min-max parameters over the series' closes.
func Fit(series models.Series) (models.ScalerParams, error) {
	if len(series) == 0 {
		return models.ScalerParams{}, errs.EmptyInput("normalize.fit")
	}
	p := models.ScalerParams{Min: series[0].Close, Max: series[0].Close}
	for _, pt := range series[1:] {
		if pt.Close < p.Min {
			p.Min = pt.Close
		}
		if pt.Close > p.Max {
			p.Max = pt.Close
		}
	}
	return p, nil
}

// Check returns a degenerate-scale error when min == max.
func Check(p models.ScalerParams) error {
	if p.Degenerate() {
		return errs.DegenerateScale("normalize.check", p.Min)
	}
	return nil
}

// Transform scales price into [0,1] over params. Degenerate params map every price to 0.
func Transform(price float64, p models.ScalerParams) float64 {
	if p.Degenerate() {
		return 0
	}
	return (price - p.Min) / (p.Max - p.Min)
}

// Inverse maps a scaled value back to price space. Degenerate params map to Min.
func Inverse(scaled float64, p models.ScalerParams) float64 {
	if p.Degenerate() {
		return p.Min
	}
	return p.Min + scaled*(p.Max-p.Min)
}

// ScaleSeries fits the series and returns its scaled closes.
func ScaleSeries(series models.Series) ([]float64, models.ScalerParams, error) {
	p, err := Fit(series)
	if err != nil {
		return nil, p, err
	}
	out := make([]float64, len(series))
	for i, pt := range series {
		out[i] = Transform(pt.Close, p)
	}
	return out, p, nil
}

// Scaler remembers the parameters of its last fit.
type Scaler struct {
	mu     sync.RWMutex
	params *models.ScalerParams
}

func NewScaler() *Scaler { return &Scaler{} }

// Fit fits series and stores the parameters.
func (s *Scaler) Fit(series models.Series) (models.ScalerParams, error) {
	p, err := Fit(series)
	if err != nil {
		return p, err
	}
	s.mu.Lock()
	s.params = &p
	s.mu.Unlock()
	return p, nil
}

// Params returns the last fitted parameters, if any.
func (s *Scaler) Params() (models.ScalerParams, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.params == nil {
		return models.ScalerParams{}, false
	}
	return *s.params, true
}
