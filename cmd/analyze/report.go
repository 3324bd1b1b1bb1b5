package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/aristath/solar-roi/internal/domain"
	"github.com/aristath/solar-roi/internal/modules/analysis"
)

// printReport renders the metrics block followed by the yearly cash-flow table.
func printReport(w io.Writer, report *analysis.Report) error {
	in := report.Input
	result := report.ROI

	payback := fmt.Sprintf("beyond %d years", result.HorizonYears)
	if result.PaybackPeriodYears != nil {
		payback = fmt.Sprintf("%.1f years", *result.PaybackPeriodYears)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Location\t%.4f, %.4f\n", in.Coordinate.Latitude, in.Coordinate.Longitude)
	fmt.Fprintf(tw, "Period\t%s to %s (%d days, %d valid)\n",
		in.Range.Start.Format(domain.DateLayout), in.Range.End.Format(domain.DateLayout),
		report.Summary.Days, report.Summary.Valid)
	fmt.Fprintf(tw, "System\t%s kW at $%s/kWh\n",
		strconv.FormatFloat(in.Parameters.SystemSizeKW, 'f', -1, 64),
		strconv.FormatFloat(in.Parameters.ElectricityRateUSDPerKWh, 'f', -1, 64))
	fmt.Fprintln(tw, "\t")
	fmt.Fprintf(tw, "ROI (%d years)\t%.1f%%\n", result.HorizonYears, result.ROIPercent)
	fmt.Fprintf(tw, "Payback period\t%s\n", payback)
	fmt.Fprintf(tw, "Annual production\t%s kWh\n", thousands(result.AnnualProductionKWh))
	fmt.Fprintf(tw, "Total investment\t%s\n", money(result.TotalInvestmentUSD))
	fmt.Fprintf(tw, "Net profit\t%s\n", money(result.NetProfitUSD))
	fmt.Fprintf(tw, "Avg daily irradiance\t%.2f kWh/m²/day\n", report.AverageIrradiance)
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Cumulative cash flow")

	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Year\tRevenue\tCumulative\t")
	for _, cf := range result.CashFlows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t\n", cf.Year, money(cf.RevenueUSD), money(cf.CumulativeUSD))
	}
	return tw.Flush()
}

// thousands formats v rounded to whole units with comma separators.
func thousands(v float64) string {
	s := strconv.FormatFloat(v, 'f', 0, 64)
	sign := ""
	if s[0] == '-' {
		sign, s = "-", s[1:]
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if s == "0" {
		sign = ""
	}
	return sign + s
}

func money(v float64) string {
	s := thousands(v)
	if s[0] == '-' {
		return "-$" + s[1:]
	}
	return "$" + s
}

func csvFileName(report *analysis.Report) string {
	return fmt.Sprintf("solar_data_%s_%s.csv",
		strconv.FormatFloat(report.Input.Coordinate.Latitude, 'f', -1, 64),
		strconv.FormatFloat(report.Input.Coordinate.Longitude, 'f', -1, 64))
}

// explain adds the user-facing hint for each failure class.
func explain(err error) error {
	switch {
	case errors.Is(err, domain.ErrNoData):
		return fmt.Errorf("%w (try a different location or date range)", err)
	case errors.Is(err, domain.ErrFetch):
		return fmt.Errorf("%w (check your connection and retry)", err)
	default:
		return err
	}
}
