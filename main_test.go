package main

import "testing"

func TestWantsGUI(t *testing.T) {
	cases := []struct {
		args []string
		want bool
	}{
		{nil, false},
		{[]string{"-lang", "es"}, false},
		{[]string{"-gui"}, true},
		{[]string{"--gui"}, true},
		{[]string{"-nobeep", "-gui", "-lang", "es"}, true},
		{[]string{"-guided"}, false},
	}
	for _, tc := range cases {
		if got := wantsGUI(tc.args); got != tc.want {
			t.Errorf("wantsGUI(%v) = %v, want %v", tc.args, got, tc.want)
		}
	}
}
