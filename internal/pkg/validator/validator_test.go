package validator

import (
	"math"
	"testing"
)

func TestInRange(t *testing.T) {
	cases := []struct {
		input float64
		want  bool
	}{
		{0, true},
		{-90, true},
		{90, true},
		{90.0001, false},
		{-91, false},
		{math.NaN(), false},
		{math.Inf(1), false},
	}
	for _, c := range cases {
		got := InRange(c.input, -90, 90)
		if got != c.want {
			t.Errorf("InRange(%v, -90, 90) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestValidationErrors(t *testing.T) {
	errs := ValidationErrors{
		{Field: "latitude", Message: "latitude is required"},
		{Field: "longitude", Message: "longitude is required"},
	}
	want := "latitude: latitude is required; longitude: longitude is required"
	if errs.Error() != want {
		t.Errorf("Error() = %q, want %q", errs.Error(), want)
	}
	m := errs.ToMap()
	if len(m) != 2 || m["latitude"] != "latitude is required" {
		t.Errorf("ToMap() = %v", m)
	}
}
