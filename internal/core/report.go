package core

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// Age group labels, in report order.
const (
	GroupUnder20 = "< 20"
	Group20To40  = "20 to 40"
	Group40To60  = "40 to 60"
	GroupOver60  = "> 60"
)

// AgeGroups lists the report buckets in display order.
var AgeGroups = []string{GroupUnder20, Group20To40, Group40To60, GroupOver60}

// AgeDistribution is the share of users per age group, in percent.
type AgeDistribution struct {
	Percent map[string]float64 `json:"percent"`
	Counts  map[string]int     `json:"counts"`
	Total   int                `json:"total"`
}

// ComputeAgeDistribution buckets ages into the report groups.
// Lower bounds are inclusive: 20 falls in "20 to 40", 60 in "> 60".
// Percentages are rounded to two decimals. Returns nil for no ages.
func ComputeAgeDistribution(ages []int) *AgeDistribution {
	if len(ages) == 0 {
		return nil
	}

	counts := make(map[string]int, len(AgeGroups))
	for _, g := range AgeGroups {
		counts[g] = 0
	}
	for _, age := range ages {
		counts[ageGroup(age)]++
	}

	total := len(ages)
	percent := make(map[string]float64, len(AgeGroups))
	for g, n := range counts {
		percent[g] = math.Round(float64(n)*10000/float64(total)) / 100
	}

	return &AgeDistribution{Percent: percent, Counts: counts, Total: total}
}

func ageGroup(age int) string {
	switch {
	case age < 20:
		return GroupUnder20
	case age < 40:
		return Group20To40
	case age < 60:
		return Group40To60
	default:
		return GroupOver60
	}
}

// String renders the distribution as a fixed-width table.
func (d *AgeDistribution) String() string {
	if d == nil {
		return "no data available for age distribution"
	}

	rule := strings.Repeat("-", 44)
	var b strings.Builder
	fmt.Fprintf(&b, "%-28s%s\n", "Age-Group", "% Distribution")
	b.WriteString(rule + "\n")
	for _, g := range AgeGroups {
		fmt.Fprintf(&b, "%-28s%.2f%%\n", g, d.Percent[g])
	}
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Total Users: %d", d.Total)
	return b.String()
}

// ReadAgeDistribution reads every age through r and computes the report.
func ReadAgeDistribution(ctx context.Context, r AgeReader) (*AgeDistribution, error) {
	ages, err := r.Ages(ctx)
	if err != nil {
		return nil, fmt.Errorf("read ages: %w", err)
	}
	return ComputeAgeDistribution(ages), nil
}
