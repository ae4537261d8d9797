package core

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestComputeAgeDistribution(t *testing.T) {
	if got := ComputeAgeDistribution(nil); got != nil {
		t.Errorf("ComputeAgeDistribution(nil) = %+v, want nil", got)
	}

	d := ComputeAgeDistribution([]int{5, 19, 20, 39, 40, 59, 60, 99, 30})
	if d.Total != 9 {
		t.Errorf("Total = %d, want 9", d.Total)
	}

	wantCounts := map[string]int{
		GroupUnder20: 2,
		Group20To40:  3,
		Group40To60:  2,
		GroupOver60:  2,
	}
	for g, want := range wantCounts {
		if d.Counts[g] != want {
			t.Errorf("Counts[%q] = %d, want %d", g, d.Counts[g], want)
		}
	}

	wantPercent := map[string]float64{
		GroupUnder20: 22.22,
		Group20To40:  33.33,
		Group40To60:  22.22,
		GroupOver60:  22.22,
	}
	for g, want := range wantPercent {
		if d.Percent[g] != want {
			t.Errorf("Percent[%q] = %v, want %v", g, d.Percent[g], want)
		}
	}
}

func TestComputeAgeDistribution_EmptyBucketsPresent(t *testing.T) {
	d := ComputeAgeDistribution([]int{25, 26})
	for _, g := range AgeGroups {
		if _, ok := d.Percent[g]; !ok {
			t.Errorf("Percent missing group %q", g)
		}
	}
	if d.Percent[Group20To40] != 100 {
		t.Errorf("Percent[20 to 40] = %v, want 100", d.Percent[Group20To40])
	}
}

func TestAgeDistribution_String(t *testing.T) {
	out := ComputeAgeDistribution([]int{10, 70}).String()
	for _, want := range []string{"Age-Group", "< 20", "50.00%", "> 60", "Total Users: 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("String() missing %q:\n%s", want, out)
		}
	}

	var empty *AgeDistribution
	if !strings.Contains(empty.String(), "no data") {
		t.Errorf("nil String() = %q", empty.String())
	}
}

func TestReadAgeDistribution(t *testing.T) {
	store := &fakeStore{rows: []UserRow{{Age: 10}, {Age: 50}}}
	d, err := ReadAgeDistribution(context.Background(), store)
	if err != nil {
		t.Fatalf("ReadAgeDistribution() error: %v", err)
	}
	if d.Total != 2 {
		t.Errorf("Total = %d, want 2", d.Total)
	}

	failing := &fakeStore{agesErr: errors.New("boom")}
	if _, err := ReadAgeDistribution(context.Background(), failing); err == nil {
		t.Error("expected error from failing reader")
	}
}
