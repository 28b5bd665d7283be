package utils

import "testing"

func TestRandSourceDeterminism(t *testing.T) {
	a := NewRandSource(42)
	b := NewRandSource(42)
	for i := 0; i < 100; i++ {
		if a.Float64() != b.Float64() {
			t.Fatalf("sequences diverged at draw %d", i)
		}
	}
	if got, want := len(a.Perm(6)), 6; got != want {
		t.Fatalf("Perm length = %d, want %d", got, want)
	}
}

func TestUniformFloat64Range(t *testing.T) {
	r := NewRandSource(7)
	for i := 0; i < 1000; i++ {
		v := r.UniformFloat64(250, 400)
		if v < 250 || v >= 400 {
			t.Fatalf("draw %d out of range: %v", i, v)
		}
	}
}

func TestNormFloat64Shift(t *testing.T) {
	r := NewRandSource(11)
	vals := make([]float64, 2000)
	for i := range vals {
		vals[i] = r.NormFloat64(10, 2)
	}
	mean := Mean(vals)
	if mean < 9 || mean > 11 {
		t.Fatalf("sample mean = %v, want near 10", mean)
	}
	sd := StdDev(vals)
	if sd < 1.5 || sd > 2.5 {
		t.Fatalf("sample stddev = %v, want near 2", sd)
	}
}

func TestZeroSeedIsUsable(t *testing.T) {
	r := NewRandSource(0)
	if n := r.Intn(10); n < 0 || n >= 10 {
		t.Fatalf("Intn out of range: %d", n)
	}
}
