package services

import (
	"testing"
	"time"

	apperrors "plp-dashboard/internal/errors"
	"plp-dashboard/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testRecords() []models.Record {
	return []models.Record{
		{ProductName: "Laptop Stand", Division: "Hardware", Date: date(2023, 1, 15), Sales: 100, Cost: 60, Units: 10},
		{ProductName: "USB Hub", Division: "Hardware", Date: date(2023, 2, 10), Sales: 200, Cost: 50, Units: 20},
		{ProductName: "License Pack", Division: "Software", Date: date(2023, 3, 5), Sales: 50, Cost: 50, Units: 5},
	}
}

func TestFilter_NoActivePredicates(t *testing.T) {
	records := testRecords()

	filtered, err := Filter(records, FilterSpec{})
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}

	if len(filtered) != len(records) {
		t.Errorf("expected all %d records, got %d", len(records), len(filtered))
	}
}

func TestFilter_DateRangeInclusive(t *testing.T) {
	spec := FilterSpec{Start: date(2023, 1, 15), End: date(2023, 2, 10)}

	filtered, err := Filter(testRecords(), spec)
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}

	if len(filtered) != 2 {
		t.Fatalf("expected 2 records inside inclusive range, got %d", len(filtered))
	}
	for _, r := range filtered {
		if r.Date.Before(spec.Start) || r.Date.After(spec.End) {
			t.Errorf("record dated %v escapes range [%v, %v]", r.Date, spec.Start, spec.End)
		}
	}
}

func TestFilter_InvalidRange(t *testing.T) {
	spec := FilterSpec{Start: date(2023, 3, 1), End: date(2023, 1, 1)}

	_, err := Filter(testRecords(), spec)
	if err == nil {
		t.Fatal("expected error for start after end")
	}
	if !apperrors.IsCode(err, apperrors.CodeInvalidRange) {
		t.Errorf("expected INVALID_RANGE, got %v", err)
	}
}

func TestFilter_Divisions(t *testing.T) {
	filtered, err := Filter(testRecords(), FilterSpec{Divisions: []string{"Software"}})
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}

	if len(filtered) != 1 || filtered[0].Division != "Software" {
		t.Errorf("expected only Software records, got %v", filtered)
	}
}

func TestFilter_SearchCaseInsensitive(t *testing.T) {
	tests := []struct {
		name   string
		search string
		want   int
	}{
		{name: "lowercase match", search: "usb", want: 1},
		{name: "uppercase match", search: "LAPTOP", want: 1},
		{name: "substring match", search: "a", want: 3},
		{name: "no match", search: "monitor", want: 0},
		{name: "empty disables predicate", search: "", want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filtered, err := Filter(testRecords(), FilterSpec{Search: tt.search})
			if err != nil {
				t.Fatalf("Filter() error = %v", err)
			}
			if len(filtered) != tt.want {
				t.Errorf("search %q: expected %d records, got %d", tt.search, tt.want, len(filtered))
			}
		})
	}
}

func TestFilter_ConjunctiveAndIdempotent(t *testing.T) {
	spec := FilterSpec{
		Start:     date(2023, 1, 1),
		End:       date(2023, 12, 31),
		Divisions: []string{"Hardware"},
		Search:    "hub",
	}

	once, err := Filter(testRecords(), spec)
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if len(once) != 1 || once[0].ProductName != "USB Hub" {
		t.Fatalf("expected the single record passing every predicate, got %v", once)
	}

	twice, err := Filter(once, spec)
	if err != nil {
		t.Fatalf("Filter() refilter error = %v", err)
	}
	if len(twice) != len(once) {
		t.Errorf("refiltering with same spec changed the set: %d != %d", len(twice), len(once))
	}
}
