package scene

import (
	"math"
	"testing"
)

func TestValidFloat(t *testing.T) {
	cases := []struct {
		name string
		v    float64
		want bool
	}{
		{"zero", 0, true},
		{"negative", -12.5, true},
		{"float32 max", math.MaxFloat32, true},
		{"above float32 max", math.MaxFloat32 * 2, false},
		{"below negative float32 max", -math.MaxFloat32 * 2, false},
		{"nan", math.NaN(), false},
		{"+inf", math.Inf(1), false},
		{"-inf", math.Inf(-1), false},
	}
	for _, c := range cases {
		if got := ValidFloat(c.v); got != c.want {
			t.Errorf("%s: ValidFloat(%g) = %v, want %v", c.name, c.v, got, c.want)
		}
	}
}

func TestValidRotation(t *testing.T) {
	if ValidRotation([4]float64{0, 0, 0, 1.57}) {
		t.Errorf("zero axis should be invalid")
	}
	if !ValidRotation([4]float64{0, 1, 0, 1.57}) {
		t.Errorf("unit y axis should be valid")
	}
}

func TestValidColor(t *testing.T) {
	if !ValidColor([3]float64{0, 0.5, 1}) {
		t.Errorf("in-gamut color should be valid")
	}
	if ValidColor([3]float64{0, 1.01, 0}) {
		t.Errorf("component above 1 should be invalid")
	}
	if ValidColor([3]float64{-0.01, 0, 0}) {
		t.Errorf("negative component should be invalid")
	}
}
