package describe

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTone(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Tone
		wantErr bool
	}{
		{"empty defaults to professional", "", ToneProfessional, false},
		{"known tone", "casual", ToneCasual, false},
		{"mixed case", "Marketing", ToneMarketing, false},
		{"padded", "  formal  ", ToneFormal, false},
		{"unknown", "sarcastic", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tone, err := ParseTone(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, tone)
		})
	}
}

func TestLocalGeneratorAllTones(t *testing.T) {
	g := NewLocalGenerator()
	ctx := context.Background()

	tones := []Tone{
		ToneProfessional, ToneCasual, ToneMarketing, ToneFormal,
		ToneFriendly, ToneAcademic, ToneShort, ToneInspirational,
	}
	for _, tone := range tones {
		t.Run(string(tone), func(t *testing.T) {
			text, err := g.Describe(ctx, Request{
				Title:    "Gopher Days",
				Category: "Conference",
				Location: "Rotterdam",
				Tone:     tone,
			})
			require.NoError(t, err)
			assert.Contains(t, text, "Gopher Days")
			assert.Contains(t, text, "conference")
		})
	}
}

func TestLocalGeneratorContextWorkedIn(t *testing.T) {
	g := NewLocalGenerator()
	text, err := g.Describe(context.Background(), Request{
		Title:   "Gopher Days",
		Context: "Keynote by the standard library team",
		Tone:    ToneProfessional,
	})
	require.NoError(t, err)
	assert.Contains(t, text, "Keynote by the standard library team.")
}

func TestLocalGeneratorValidation(t *testing.T) {
	g := NewLocalGenerator()

	_, err := g.Describe(context.Background(), Request{Title: "   "})
	assert.Error(t, err)

	_, err = g.Describe(context.Background(), Request{Title: "X", Tone: Tone("grumpy")})
	assert.Error(t, err)
}

func TestLocalGeneratorDefaultsTone(t *testing.T) {
	g := NewLocalGenerator()
	text, err := g.Describe(context.Background(), Request{Title: "Solo Night"})
	require.NoError(t, err)
	assert.True(t, strings.Contains(text, "Solo Night"))
	assert.Contains(t, text, "event")
}
