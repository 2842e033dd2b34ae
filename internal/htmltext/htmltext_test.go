package htmltext

import "testing"

func TestStrip(t *testing.T) {
	cases := map[string]string{
		"plain text":                             "plain text",
		"  padded  ":                             "padded",
		"<p>so <b>happy</b> today</p>":           "so happy today",
		"fish &amp; chips":                       "fish & chips",
		"<div>hi<script>alert(1)</script></div>": "hi",
		"<style>p{}</style>bye":                  "bye",
		"":                                       "",
	}
	for in, want := range cases {
		if got := Strip(in); got != want {
			t.Errorf("Strip(%q) = %q, want %q", in, got, want)
		}
	}
}
