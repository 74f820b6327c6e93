package cli

import "testing"

func TestKeepAliveThresholdClampsNonPositive(t *testing.T) {
	cases := []struct {
		in   int
		want uint
	}{
		{-3, 0},
		{0, 0},
		{5, 5},
	}
	for _, tc := range cases {
		if got := keepAliveThreshold(tc.in); got != tc.want {
			t.Errorf("keepAliveThreshold(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
