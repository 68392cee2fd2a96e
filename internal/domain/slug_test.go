package domain

import "testing"

func TestSlugify(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Alpha Mission":      "alpha-mission",
		"1-502 IN (AASLT)":   "1-502-in-aaslt",
		"  padded  ":         "padded",
		"UPPER_case.mixed":   "upper-case-mixed",
		"---":                "",
		"convoy ops 2024-05": "convoy-ops-2024-05",
	}
	for input, want := range cases {
		if got := Slugify(input); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", input, got, want)
		}
	}
}
