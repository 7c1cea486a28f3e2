package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"  final cut: v2  ": "final cut- v2",
		`a/b\c*d`:           "a-b-c-d",
		`what?<ok>|"`:       "whatok",
		"":                  "",
	}
	for input, want := range cases {
		if got := SanitizeFileName(input); got != want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestSanitizeToken(t *testing.T) {
	cases := map[string]string{
		"Clip A (final)": "clip_a__final",
		"---":            "unknown",
		"":               "unknown",
		"res-7":          "res-7",
	}
	for input, want := range cases {
		if got := SanitizeToken(input); got != want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", input, got, want)
		}
	}
}
