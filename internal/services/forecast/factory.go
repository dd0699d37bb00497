package forecast

import (
	"fmt"
	"math/rand/v2"
	"time"

	domsvc "StockCast/internal/domain/service"
)

const (
	ModelRandomWalk  = "random_walk"
	ModelLinearTrend = "linear_trend"
	ModelRemote      = "remote"
)

// Config selects and parameterizes a forecaster variant.
type Config struct {
	Model    string
	Seed     uint64 // 0 seeds from the clock
	Lookback int
	// Remote model service, used when Model is "remote".
	ServiceURL string
	Timeout    time.Duration
}

// NewFactory returns a factory that builds a fresh forecaster per call.
// With a non-zero seed every forecaster starts from the same stream, so
// identical inputs yield identical outputs.
func NewFactory(cfg Config) (domsvc.ForecasterFactory, error) {
	switch cfg.Model {
	case "", ModelRandomWalk:
		seed := cfg.Seed
		return func() domsvc.Forecaster {
			s := seed
			if s == 0 {
				s = uint64(time.Now().UnixNano())
			}
			return NewRandomWalk(rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15)))
		}, nil
	case ModelLinearTrend:
		lookback := cfg.Lookback
		if lookback <= 0 {
			lookback = 60
		}
		return func() domsvc.Forecaster { return NewLinearTrend(lookback) }, nil
	case ModelRemote:
		if cfg.ServiceURL == "" {
			return nil, fmt.Errorf("forecast.service_url is required for model %q", ModelRemote)
		}
		base := NewHTTPServiceBase(cfg.ServiceURL, cfg.Timeout)
		return func() domsvc.Forecaster { return NewRemoteModel(base) }, nil
	default:
		return nil, fmt.Errorf("unknown forecast model %q", cfg.Model)
	}
}
