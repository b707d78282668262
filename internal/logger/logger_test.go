package logger

import "testing"

func TestNewLevels(t *testing.T) {
	cases := []struct {
		env, level string
		debug      bool
	}{
		{env: "development", debug: true},
		{env: "production", debug: false},
		{env: "production", level: "debug", debug: true},
		{env: "development", level: "warn", debug: false},
		{env: "production", level: "nonsense", debug: false},
	}
	for _, tc := range cases {
		log, err := New(tc.env, tc.level)
		if err != nil {
			t.Fatalf("%s/%s: %v", tc.env, tc.level, err)
		}
		if got := log.Core().Enabled(-1); got != tc.debug {
			t.Fatalf("%s/%s: debug enabled = %v, want %v", tc.env, tc.level, got, tc.debug)
		}
	}
}
