package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/quentinrf/bazi-reading/internal/domain"
)

// birthFlags are shared by every command that takes a birth date
type birthFlags struct {
	year, month, day int
	hour             int
	situation        string
	name             string
}

func (f *birthFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.year, "year", "y", 0, "Birth year (required)")
	cmd.Flags().IntVarP(&f.month, "month", "m", 0, "Birth month 1-12 (required)")
	cmd.Flags().IntVarP(&f.day, "day", "d", 0, "Birth day (required)")
	cmd.Flags().IntVar(&f.hour, "hour", -1, "Birth hour 0-23 (optional)")
	cmd.Flags().StringVar(&f.situation, "situation", "", "Life situation: single|relationship|married|separated|career|student")
	cmd.Flags().StringVar(&f.name, "name", "", "Name shown in the reading")
	_ = cmd.MarkFlagRequired("year")
	_ = cmd.MarkFlagRequired("month")
	_ = cmd.MarkFlagRequired("day")
}

func (f *birthFlags) input() domain.BirthInput {
	in := domain.BirthInput{
		Year:      f.year,
		Month:     f.month,
		Day:       f.day,
		Situation: domain.Situation(strings.ToLower(f.situation)),
		Name:      f.name,
	}
	if f.hour >= 0 {
		in.Hour = domain.IntPtr(f.hour)
	}
	return in
}

func chartCmd() *cobra.Command {
	var (
		birth  birthFlags
		format string
	)

	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Print the Four Pillars chart for a birth date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := birth.input()
			chart, err := domain.NewChart(in)
			if err != nil {
				return err
			}
			return writeChart(cmd.OutOrStdout(), in, chart, format)
		},
	}

	birth.register(cmd)
	cmd.Flags().StringVarP(&format, "output", "o", "text", "Output format: text|json|yaml")
	return cmd
}

type chartOutput struct {
	Birth domain.BirthInput `json:"birth" yaml:"birth"`
	Chart *domain.Chart     `json:"chart" yaml:"chart"`
}

func writeChart(w io.Writer, in domain.BirthInput, chart *domain.Chart, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(chartOutput{Birth: in, Chart: chart})
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(chartOutput{Birth: in, Chart: chart}); err != nil {
			return err
		}
		return enc.Close()
	case "text", "pretty", "":
		return writeChartText(w, in, chart)
	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
	}
}

func writeChartText(w io.Writer, in domain.BirthInput, chart *domain.Chart) error {
	var b strings.Builder

	date := in.Date().Format("January 2, 2006")
	if in.Hour != nil {
		date += fmt.Sprintf(" at %02d:00", *in.Hour)
	}
	if in.Name != "" {
		fmt.Fprintf(&b, "Name:            %s\n", in.Name)
	}
	fmt.Fprintf(&b, "Born:            %s\n", date)
	fmt.Fprintf(&b, "Year pillar:     %s (%s %s %s)\n", chart.YearPillar, chart.Polarity, chart.Element, chart.Animal)
	fmt.Fprintf(&b, "Month element:   %s\n", chart.MonthElement)
	fmt.Fprintf(&b, "Day pillar:      %s (day master %s)\n", chart.DayPillar, chart.DayElement)
	if chart.HourAnimal != "" {
		fmt.Fprintf(&b, "Hour animal:     %s\n", chart.HourAnimal)
	}
	fmt.Fprintf(&b, "Life path:       %d\n", chart.LifePath)

	nums := make([]string, len(chart.LuckyNumbers))
	for i, n := range chart.LuckyNumbers {
		nums[i] = fmt.Sprint(n)
	}
	fmt.Fprintf(&b, "Lucky numbers:   %s\n", strings.Join(nums, ", "))
	fmt.Fprintf(&b, "Lucky colors:    %s\n", strings.Join(chart.LuckyColors, ", "))
	fmt.Fprintf(&b, "Lucky direction: %s\n", chart.LuckyDirection)

	balance := make([]string, 0, len(domain.Elements))
	for _, e := range domain.Elements {
		balance = append(balance, fmt.Sprintf("%s %d", e, chart.Balance[e]))
	}
	fmt.Fprintf(&b, "Balance:         %s (dominant %s)\n", strings.Join(balance, ", "), chart.Dominant)

	_, err := io.WriteString(w, b.String())
	return err
}
