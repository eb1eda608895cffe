package domain

import "testing"

func TestPredictWaitMinutes(t *testing.T) {
	tests := []struct {
		name   string
		length int
		hour   int
		st     ServiceType
		want   int
	}{
		{"empty queue", 0, 10, ServiceDocumentation, 0},
		{"morning documentation", 10, 10, ServiceDocumentation, 150},
		{"evening off-peak payment", 4, 20, ServicePayment, 16},
		{"afternoon consultation", 3, 15, ServiceConsultation, 29}, // 29.25
		{"evening rush support", 2, 18, ServiceSupport, 22},       // 21.6
		{"boundary 9 is rush", 1, 9, ServiceOther, 8},              // 7.5 rounds up
		{"boundary 12 is not rush", 1, 12, ServiceOther, 5},
		{"unknown type uses 1.0", 2, 0, ServiceType("vip"), 10},
		{"negative length clamps", -3, 10, ServiceOther, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PredictWaitMinutes(tt.length, tt.hour, tt.st); got != tt.want {
				t.Errorf("PredictWaitMinutes(%d, %d, %s) = %d, want %d", tt.length, tt.hour, tt.st, got, tt.want)
			}
		})
	}
}

func TestPredictWaitMinutes_MonotoneInLength(t *testing.T) {
	for _, st := range ServiceTypes {
		for hour := 0; hour < 24; hour++ {
			prev := PredictWaitMinutes(0, hour, st)
			for n := 1; n <= 50; n++ {
				got := PredictWaitMinutes(n, hour, st)
				if got < prev {
					t.Fatalf("not monotone: %s hour %d n %d: %d < %d", st, hour, n, got, prev)
				}
				prev = got
			}
		}
	}
}

func TestTimeMultiplier(t *testing.T) {
	want := map[int]float64{
		8: 1.0, 9: 1.5, 11: 1.5, 12: 1.0, 13: 1.0, 14: 1.3, 16: 1.3,
		17: 1.8, 19: 1.8, 20: 1.0, 0: 1.0, 23: 1.0,
	}
	for hour, m := range want {
		if got := TimeMultiplier(hour); got != m {
			t.Errorf("TimeMultiplier(%d) = %v, want %v", hour, got, m)
		}
	}
}
