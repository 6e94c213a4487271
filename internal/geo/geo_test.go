package geo

import (
	"math"
	"testing"
)

func TestDistance(t *testing.T) {
	// Texas Capitol to Austin-Bergstrom airport, roughly 10.5 km.
	capitol := Point{Lat: 30.2747, Lng: -97.7404}
	airport := Point{Lat: 30.1975, Lng: -97.6664}

	d := Distance(capitol, airport)
	if d < 10 || d > 12 {
		t.Errorf("Distance = %.2f km, want ~10.5-11.5", d)
	}

	// Distance to self is zero.
	if d := Distance(capitol, capitol); d != 0 {
		t.Errorf("Distance to self = %v, want 0", d)
	}

	// Symmetric.
	if d1, d2 := Distance(capitol, airport), Distance(airport, capitol); math.Abs(d1-d2) > 1e-9 {
		t.Errorf("Distance not symmetric: %v vs %v", d1, d2)
	}
}

func TestBoxContains(t *testing.T) {
	tests := []struct {
		name string
		p    Point
		want bool
	}{
		{"downtown Austin", Point{30.2672, -97.7431}, true},
		{"north boundary inclusive", Point{30.5149, -97.7431}, true},
		{"south boundary inclusive", Point{30.0986, -97.7431}, true},
		{"Round Rock (north of box)", Point{30.5083, -97.6789}, true},
		{"San Antonio", Point{29.4241, -98.4936}, false},
		{"Houston", Point{29.7604, -95.3698}, false},
		{"just past east edge", Point{30.3, -97.5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AustinBox.Contains(tt.p); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}
