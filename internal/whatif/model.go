// Package whatif projects dependent business metrics from a change of one driver metric.
package whatif

import (
	"fmt"
	"os"

	"github.com/asaskevich/govalidator"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	gerr "github.com/jekabolt/grbpwr-analytics/internal/errors"
)

// DriverOnTimeRate is the only driver the baseline currently exposes.
const DriverOnTimeRate = "on_time_rate"

type Metric string

const (
	MetricCancellationRate Metric = "cancellation_rate"
	MetricReturnRate       Metric = "return_rate"
	MetricNPS              Metric = "nps"
	MetricRefunds          Metric = "total_refunds"
	MetricRepeatRate       Metric = "repeat_rate"
)

// Response says how a dependent metric reacts to one point of driver change.
type Response string

const (
	// Shrink: M1 = M0 * (1 - c*delta).
	Shrink Response = "shrink"
	// Additive: M1 = M0 + c*delta.
	Additive Response = "additive"
	// Grow: M1 = M0 * (1 + c*delta).
	Grow Response = "grow"
)

type Coefficient struct {
	Rate     decimal.Decimal
	Response Response
}

var (
	hundred = decimal.NewFromInt(100)

	defaultCostPerPoint = decimal.NewFromInt(5000)
)

const (
	// MaxSweepDelta is the widest delta evaluated by Sweep.
	MaxSweepDelta = 20
	// MaxSweepTarget caps D0+delta in a sweep.
	MaxSweepTarget = 99
)

// Model is a linear-response model around a single driver.
type Model struct {
	Driver       string
	Coefficients map[Metric]Coefficient
	CostPerPoint decimal.Decimal
}

// Default returns the on-time delivery model with the documented coefficients.
func Default() *Model {
	return &Model{
		Driver: DriverOnTimeRate,
		Coefficients: map[Metric]Coefficient{
			MetricCancellationRate: {Rate: decimal.RequireFromString("0.04"), Response: Shrink},
			MetricReturnRate:       {Rate: decimal.RequireFromString("0.025"), Response: Shrink},
			MetricNPS:              {Rate: decimal.RequireFromString("1.5"), Response: Additive},
			MetricRefunds:          {Rate: decimal.RequireFromString("0.05"), Response: Shrink},
			MetricRepeatRate:       {Rate: decimal.RequireFromString("0.03"), Response: Grow},
		},
		CostPerPoint: defaultCostPerPoint,
	}
}

type coefficientFile struct {
	Driver       string                     `yaml:"driver"`
	CostPerPoint *float64                   `yaml:"cost_per_point"`
	Coefficients map[string]coefficientYAML `yaml:"coefficients"`
}

type coefficientYAML struct {
	Rate     float64 `yaml:"rate"`
	Response string  `yaml:"response"`
}

// Load reads coefficient overrides from a YAML file on top of Default.
// An empty path returns the default model.
func Load(path string) (*Model, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read what-if coefficients: %w", err)
	}
	return Parse(data)
}

// Parse applies YAML coefficient overrides on top of Default.
func Parse(data []byte) (*Model, error) {
	var f coefficientFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse what-if coefficients: %w", err)
	}

	m := Default()
	if f.Driver != "" {
		m.Driver = f.Driver
	}
	if f.CostPerPoint != nil {
		m.CostPerPoint = decimal.NewFromFloat(*f.CostPerPoint)
	}
	for name, c := range f.Coefficients {
		metric := Metric(name)
		cur, ok := m.Coefficients[metric]
		if !ok {
			return nil, fmt.Errorf("unknown what-if metric %q", name)
		}
		cur.Rate = decimal.NewFromFloat(c.Rate)
		if c.Response != "" {
			cur.Response = Response(c.Response)
		}
		m.Coefficients[metric] = cur
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks that the model keeps the sweep monotonic.
func (m *Model) Validate() error {
	if m.Driver != DriverOnTimeRate {
		return fmt.Errorf("unsupported what-if driver %q", m.Driver)
	}
	if m.CostPerPoint.IsNegative() {
		return fmt.Errorf("cost per point must not be negative: %s", m.CostPerPoint)
	}
	for metric, c := range m.Coefficients {
		if c.Rate.IsNegative() {
			return fmt.Errorf("coefficient of %s must not be negative: %s", metric, c.Rate)
		}
		if !govalidator.IsIn(string(c.Response), string(Shrink), string(Additive), string(Grow)) {
			return fmt.Errorf("unknown response %q for %s", c.Response, metric)
		}
	}
	return nil
}

// respond applies the coefficient of metric to m0 for the given delta.
func (m *Model) respond(metric Metric, m0, delta decimal.Decimal) decimal.Decimal {
	c, ok := m.Coefficients[metric]
	if !ok {
		return m0
	}
	step := c.Rate.Mul(delta)
	switch c.Response {
	case Shrink:
		return m0.Mul(decimal.NewFromInt(1).Sub(step))
	case Grow:
		return m0.Mul(decimal.NewFromInt(1).Add(step))
	default:
		return m0.Add(step)
	}
}

func (m *Model) validDelta(d0, delta decimal.Decimal) error {
	if !delta.IsPositive() {
		return fmt.Errorf("%w: delta must be positive, got %s", gerr.ErrInvalidDelta, delta)
	}
	if d0.Add(delta).GreaterThan(hundred) {
		return fmt.Errorf("%w: %s + %s exceeds 100", gerr.ErrInvalidDelta, d0, delta)
	}
	return nil
}

func clampDec(v, lo, hi decimal.Decimal) decimal.Decimal {
	return decimal.Max(lo, decimal.Min(v, hi))
}
