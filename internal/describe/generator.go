// Package describe composes event descriptions in a chosen tone. The
// generator is pluggable so a hosted model can replace the local composer.
package describe

import (
	"context"
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
)

// Tone selects the voice of a generated description.
type Tone string

const (
	ToneProfessional  Tone = "professional"
	ToneCasual        Tone = "casual"
	ToneMarketing     Tone = "marketing"
	ToneFormal        Tone = "formal"
	ToneFriendly      Tone = "friendly"
	ToneAcademic      Tone = "academic"
	ToneShort         Tone = "short"
	ToneInspirational Tone = "inspirational"
)

// ParseTone maps a request value onto a known tone. An empty value picks
// the professional default.
func ParseTone(raw string) (Tone, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return ToneProfessional, nil
	}
	tone := Tone(trimmed)
	if _, ok := voices[tone]; !ok {
		return "", fmt.Errorf("unknown tone %q", raw)
	}
	return tone, nil
}

// Request describes the event a description is wanted for. Context is
// free-form extra material the author wants worked in.
type Request struct {
	Title    string
	Category string
	Location string
	Context  string
	Tone     Tone
}

// Generator produces an event description.
type Generator interface {
	Describe(ctx context.Context, req Request) (string, error)
}

type voice struct {
	openers []string // two %s verbs: title, category
	place   []string // one %s verb: location
	body    []string
	closers []string
}

var voices = map[Tone]voice{
	ToneProfessional: {
		openers: []string{
			"%s is a %s designed for practitioners who want substance over spectacle.",
			"Join us at %s, a focused %s built around practical takeaways.",
		},
		place: []string{
			"The program takes place in %s.",
			"We convene in %s.",
		},
		body: []string{
			"Sessions are curated to be concise, current, and directly applicable to your work.",
			"Expect a tight agenda, experienced speakers, and room for structured discussion.",
		},
		closers: []string{
			"Seats are limited, so early registration is recommended.",
			"Register early to secure your place.",
		},
	},
	ToneCasual: {
		openers: []string{
			"%s is a laid-back %s where nobody checks your badge twice.",
			"Come hang out at %s, a %s with zero stuffiness.",
		},
		place: []string{
			"We're doing this in %s.",
			"Find us in %s.",
		},
		body: []string{
			"Show up, grab a seat, and see what sticks.",
			"No dress code, no pop quizzes, just good conversations.",
		},
		closers: []string{
			"Bring a friend if you feel like it.",
			"See you there.",
		},
	},
	ToneMarketing: {
		openers: []string{
			"Don't miss %s, the %s everyone will be talking about!",
			"%s is the must-attend %s of the season!",
		},
		place: []string{
			"Happening live in %s!",
			"Coming to %s!",
		},
		body: []string{
			"Packed lineup, unbeatable energy, and connections you won't make anywhere else.",
			"Every minute is engineered to deliver value you can use the next morning.",
		},
		closers: []string{
			"Grab your spot before it sells out!",
			"Tickets are moving fast!",
		},
	},
	ToneFormal: {
		openers: []string{
			"We cordially invite you to %s, a %s of note.",
			"%s is a distinguished %s held to the highest standard.",
		},
		place: []string{
			"The proceedings will be held in %s.",
			"Attendees are received in %s.",
		},
		body: []string{
			"The program has been assembled with care and will proceed according to schedule.",
			"Guests may expect a considered agenda and courteous attention throughout.",
		},
		closers: []string{
			"Your attendance would be most welcome.",
			"We look forward to receiving you.",
		},
	},
	ToneFriendly: {
		openers: []string{
			"We'd love to see you at %s, a %s for anyone curious.",
			"%s is a welcoming %s where newcomers fit right in.",
		},
		place: []string{
			"We're gathering in %s.",
			"It all happens in %s.",
		},
		body: []string{
			"Come as you are, ask anything, and leave with a few new friends.",
			"There's plenty of time to chat between sessions.",
		},
		closers: []string{
			"We can't wait to meet you.",
			"Hope to see you there!",
		},
	},
	ToneAcademic: {
		openers: []string{
			"%s is a %s examining current questions in the field.",
			"%s convenes researchers and practitioners for a %s of substantive depth.",
		},
		place: []string{
			"Sessions are hosted in %s.",
			"The venue is located in %s.",
		},
		body: []string{
			"Contributions emphasize methodological rigor and reproducible results.",
			"The program balances invited talks with open discussion of emerging work.",
		},
		closers: []string{
			"Participation from early-career researchers is encouraged.",
			"Proceedings notes will be shared with attendees.",
		},
	},
	ToneShort: {
		openers: []string{
			"%s: a %s worth your time.",
			"%s. One %s, no filler.",
		},
		place: []string{
			"In %s.",
		},
		body:    nil,
		closers: nil,
	},
	ToneInspirational: {
		openers: []string{
			"%s is more than a %s; it's a chance to change your trajectory.",
			"Every great story starts somewhere, and %s, a one-of-a-kind %s, could start yours.",
		},
		place: []string{
			"It all unfolds in %s.",
			"Your journey begins in %s.",
		},
		body: []string{
			"Surround yourself with people who build, and you'll start building too.",
			"The ideas you encounter here will outlast the day itself.",
		},
		closers: []string{
			"Take the first step.",
			"The only seat that matters is yours.",
		},
	},
}

// LocalGenerator composes descriptions from tone-specific phrase sets.
// It is the offline fallback for deployments without a hosted model.
type LocalGenerator struct {
	faker *gofakeit.Faker
}

// NewLocalGenerator returns a LocalGenerator with a randomized phrase picker.
func NewLocalGenerator() *LocalGenerator {
	return &LocalGenerator{faker: gofakeit.New(0)}
}

// Describe builds a short multi-sentence description for the event.
func (g *LocalGenerator) Describe(_ context.Context, req Request) (string, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return "", fmt.Errorf("title is required")
	}

	tone := req.Tone
	if tone == "" {
		tone = ToneProfessional
	}
	v, ok := voices[tone]
	if !ok {
		return "", fmt.Errorf("unknown tone %q", tone)
	}

	category := strings.ToLower(strings.TrimSpace(req.Category))
	if category == "" {
		category = "event"
	}

	sentences := []string{fmt.Sprintf(g.pick(v.openers), title, category)}
	if location := strings.TrimSpace(req.Location); location != "" && len(v.place) > 0 {
		sentences = append(sentences, fmt.Sprintf(g.pick(v.place), location))
	}
	if extra := strings.TrimSpace(req.Context); extra != "" {
		sentences = append(sentences, strings.TrimSuffix(extra, ".")+".")
	}
	if len(v.body) > 0 {
		sentences = append(sentences, g.pick(v.body))
	}
	if len(v.closers) > 0 {
		sentences = append(sentences, g.pick(v.closers))
	}
	return strings.Join(sentences, " "), nil
}

func (g *LocalGenerator) pick(options []string) string {
	if len(options) == 1 {
		return options[0]
	}
	return g.faker.RandomString(options)
}
