// Package roi projects the financial return of a solar installation from its average
// daily irradiance.
//
// The projection compounds panel degradation directly against yearly revenue:
//
//	revenue_y = annualProduction * rate * (1 - degradation)^y,  y = 1..horizon
//
// Payback is the first year in which cumulative cash (starting at -investment) reaches
// zero, interpolated linearly inside that year.
package roi

import (
	"fmt"
	"math"

	"github.com/aristath/solar-roi/internal/domain"
)

const daysPerYear = 365

// Config holds the installation cost and performance constants
type Config struct {
	CostPerWattUSD         float64 `json:"cost_per_watt_usd"`
	SystemEfficiency       float64 `json:"system_efficiency"`
	DegradationRatePerYear float64 `json:"degradation_rate_per_year"`
	HorizonYears           int     `json:"horizon_years"`
}

// DefaultConfig returns the standard utility-scale assumptions
func DefaultConfig() Config {
	return Config{
		CostPerWattUSD:         2.50,
		SystemEfficiency:       0.80,
		DegradationRatePerYear: 0.005,
		HorizonYears:           25,
	}
}

// Validate checks every constant is inside its physical domain
func (c Config) Validate() error {
	if !finite(c.CostPerWattUSD) || c.CostPerWattUSD <= 0 {
		return fmt.Errorf("%w: cost per watt must be positive, got %v", domain.ErrInvalidParameter, c.CostPerWattUSD)
	}
	if !finite(c.SystemEfficiency) || c.SystemEfficiency <= 0 || c.SystemEfficiency > 1 {
		return fmt.Errorf("%w: system efficiency must be in (0, 1], got %v", domain.ErrInvalidParameter, c.SystemEfficiency)
	}
	if !finite(c.DegradationRatePerYear) || c.DegradationRatePerYear < 0 || c.DegradationRatePerYear >= 1 {
		return fmt.Errorf("%w: degradation rate must be in [0, 1), got %v", domain.ErrInvalidParameter, c.DegradationRatePerYear)
	}
	if c.HorizonYears < 1 {
		return fmt.Errorf("%w: horizon must be at least one year, got %d", domain.ErrInvalidParameter, c.HorizonYears)
	}
	return nil
}

// SystemParameters describes the installation being evaluated
type SystemParameters struct {
	SystemSizeKW             float64 `json:"system_size_kw"`
	ElectricityRateUSDPerKWh float64 `json:"electricity_rate_usd_per_kwh"`
}

// Validate checks both parameters are positive
func (p SystemParameters) Validate() error {
	if !finite(p.SystemSizeKW) || p.SystemSizeKW <= 0 {
		return fmt.Errorf("%w: system size must be positive, got %v kW", domain.ErrInvalidParameter, p.SystemSizeKW)
	}
	if !finite(p.ElectricityRateUSDPerKWh) || p.ElectricityRateUSDPerKWh <= 0 {
		return fmt.Errorf("%w: electricity rate must be positive, got %v $/kWh", domain.ErrInvalidParameter, p.ElectricityRateUSDPerKWh)
	}
	return nil
}

// CashFlow is one point of the cumulative cash projection. Year 0 is the investment.
type CashFlow struct {
	Year          int     `json:"year"`
	RevenueUSD    float64 `json:"revenue_usd"`
	CumulativeUSD float64 `json:"cumulative_usd"`
}

// Result is the projection for one set of inputs
type Result struct {
	AnnualProductionKWh float64 `json:"annual_production_kwh"`
	TotalInvestmentUSD  float64 `json:"total_investment_usd"`
	NetProfitUSD        float64 `json:"net_profit_usd"`
	ROIPercent          float64 `json:"roi_percent"`

	// PaybackPeriodYears is nil when cumulative cash never reaches zero within the horizon.
	PaybackPeriodYears *float64   `json:"payback_period_years"`
	PaysBack           bool       `json:"pays_back"`
	HorizonYears       int        `json:"horizon_years"`
	CashFlows          []CashFlow `json:"cash_flows"`
}

// Calculator computes ROI projections
type Calculator struct {
	cfg Config
}

// NewCalculator creates a calculator, rejecting an invalid config
func NewCalculator(cfg Config) (*Calculator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{cfg: cfg}, nil
}

// Config returns the constants the calculator was built with
func (c *Calculator) Config() Config {
	return c.cfg
}

// Validate checks inputs without computing anything
func (c *Calculator) Validate(averageDailyIrradiance float64, params SystemParameters) error {
	if !finite(averageDailyIrradiance) || averageDailyIrradiance < 0 {
		return fmt.Errorf("%w: average irradiance must be >= 0, got %v", domain.ErrInvalidParameter, averageDailyIrradiance)
	}
	return params.Validate()
}

// Calculate projects production and cash flow over the configured horizon.
// averageDailyIrradiance is in kWh/m²/day; zero is the legal no-production case.
func (c *Calculator) Calculate(averageDailyIrradiance float64, params SystemParameters) (*Result, error) {
	if err := c.Validate(averageDailyIrradiance, params); err != nil {
		return nil, err
	}

	annualProduction := averageDailyIrradiance * daysPerYear * params.SystemSizeKW * c.cfg.SystemEfficiency
	investment := params.SystemSizeKW * 1000 * c.cfg.CostPerWattUSD

	flows := make([]CashFlow, 0, c.cfg.HorizonYears+1)
	flows = append(flows, CashFlow{Year: 0, CumulativeUSD: -investment})

	cumulative := -investment
	totalRevenue := 0.0
	var payback *float64

	for year := 1; year <= c.cfg.HorizonYears; year++ {
		revenue := annualProduction * params.ElectricityRateUSDPerKWh *
			math.Pow(1-c.cfg.DegradationRatePerYear, float64(year))

		previous := cumulative
		cumulative += revenue
		totalRevenue += revenue

		// first crossing only; later dips are ignored
		if payback == nil && cumulative >= 0 && revenue > 0 {
			p := float64(year-1) + (-previous)/revenue
			payback = &p
		}

		flows = append(flows, CashFlow{Year: year, RevenueUSD: revenue, CumulativeUSD: cumulative})
	}

	netProfit := totalRevenue - investment

	return &Result{
		AnnualProductionKWh: annualProduction,
		TotalInvestmentUSD:  investment,
		NetProfitUSD:        netProfit,
		ROIPercent:          netProfit / investment * 100,
		PaybackPeriodYears:  payback,
		PaysBack:            payback != nil,
		HorizonYears:        c.cfg.HorizonYears,
		CashFlows:           flows,
	}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
