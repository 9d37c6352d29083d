package util

import (
	"os"
	"testing"
)

func TestParseBoolEnv(t *testing.T) {
	cases := []struct {
		value        string
		defaultValue bool
		want         bool
	}{
		{"true", false, true},
		{"1", false, true},
		{"YES", false, true},
		{"on", false, true},
		{"false", true, false},
		{"0", true, false},
		{"No", true, false},
		{"off", true, false},
		{"", true, true},
		{"", false, false},
		{"maybe", true, true},
		{"maybe", false, false},
		{"  true  ", false, true},
	}
	for _, tc := range cases {
		if tc.value == "" {
			os.Unsetenv("BASEER_TEST_BOOL")
		} else {
			os.Setenv("BASEER_TEST_BOOL", tc.value)
		}
		if got := ParseBoolEnv("BASEER_TEST_BOOL", tc.defaultValue); got != tc.want {
			t.Errorf("ParseBoolEnv(%q, %v) = %v, want %v", tc.value, tc.defaultValue, got, tc.want)
		}
	}
	os.Unsetenv("BASEER_TEST_BOOL")
}
