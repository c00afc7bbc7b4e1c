package challenge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		name string
		html string
		want bool
	}{
		{
			name: "plain question page",
			html: `<html><body><div class="question-body"><p>What does a provider do?</p></div></body></html>`,
			want: false,
		},
		{
			name: "text indicator",
			html: `<html><body><h1>Please verify you're a human</h1></body></html>`,
			want: true,
		},
		{
			name: "unusual traffic notice",
			html: `<html><body><p>Our systems have detected unusual traffic from your network.</p></body></html>`,
			want: true,
		},
		{
			name: "recaptcha iframe",
			html: `<html><body><iframe src="https://www.google.com/recaptcha/api2/anchor"></iframe></body></html>`,
			want: true,
		},
		{
			name: "turnstile widget",
			html: `<html><body><div class="cf-turnstile" data-sitekey="x"></div></body></html>`,
			want: true,
		},
		{
			name: "challenge form",
			html: `<html><body><form id="challenge-form" action="/verify"></form></body></html>`,
			want: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Detect(tc.html))
		})
	}
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "none_detected", NoneDetected.String())
	assert.Equal(t, "cleared", Cleared.String())
	assert.Equal(t, "unresolved", Unresolved.String())
}
