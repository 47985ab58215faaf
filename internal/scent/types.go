package scent

import "strings"

// Intensity bounds shared by profiles and device state.
const (
	MinIntensity = 1
	MaxIntensity = 10
)

// DefaultProfileName is the profile applied when no profile lists an emotion.
const DefaultProfileName = "default"

// Emotion is the emotional state detected alongside recognised speech.
type Emotion string

const (
	EmotionHappy     Emotion = "happy"
	EmotionSad       Emotion = "sad"
	EmotionAngry     Emotion = "angry"
	EmotionStressed  Emotion = "stressed"
	EmotionNeutral   Emotion = "neutral"
	EmotionSurprised Emotion = "surprised"
	EmotionFearful   Emotion = "fearful"
	EmotionCalm      Emotion = "calm"
)

// AllEmotions returns every recognised emotion.
func AllEmotions() []Emotion {
	return []Emotion{
		EmotionHappy,
		EmotionSad,
		EmotionAngry,
		EmotionStressed,
		EmotionNeutral,
		EmotionSurprised,
		EmotionFearful,
		EmotionCalm,
	}
}

var validEmotions map[Emotion]struct{}

func init() {
	validEmotions = make(map[Emotion]struct{}, len(AllEmotions()))
	for _, e := range AllEmotions() {
		validEmotions[e] = struct{}{}
	}
}

// ParseEmotion maps a recogniser label onto an Emotion.
// Matching is case-insensitive; anything unrecognised becomes EmotionNeutral.
func ParseEmotion(s string) Emotion {
	e := Emotion(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := validEmotions[e]; ok {
		return e
	}
	return EmotionNeutral
}

// Valid reports whether e is one of the enumerated emotions.
func (e Emotion) Valid() bool {
	_, ok := validEmotions[e]
	return ok
}

// String implements fmt.Stringer.
func (e Emotion) String() string {
	return string(e)
}

// UnmarshalText lowercases emotions read from JSON or YAML. Unknown
// labels are kept as written so that ValidateProfile and command
// validation reject typos; recogniser input is mapped onto the enum by
// ParseEmotion instead.
func (e *Emotion) UnmarshalText(text []byte) error {
	*e = Emotion(strings.ToLower(strings.TrimSpace(string(text))))
	return nil
}

// Profile is a named scent configuration.
type Profile struct {
	Name          string `json:"name" yaml:"name"`
	BaseIntensity int    `json:"base_intensity" yaml:"base_intensity"`

	// EmotionEnhancement scales BaseIntensity when the emotion is detected.
	EmotionEnhancement map[Emotion]float64 `json:"emotion_enhancement,omitempty" yaml:"emotion_enhancement,omitempty"`
}

// Multiplier returns the multiplier listed for e and whether it is listed.
func (p Profile) Multiplier(e Emotion) (float64, bool) {
	m, ok := p.EmotionEnhancement[e]
	return m, ok
}

// clone returns a copy whose enhancement table is not shared.
func (p Profile) clone() Profile {
	cpy := p
	if p.EmotionEnhancement != nil {
		cpy.EmotionEnhancement = make(map[Emotion]float64, len(p.EmotionEnhancement))
		for k, v := range p.EmotionEnhancement {
			cpy.EmotionEnhancement[k] = v
		}
	}
	return cpy
}

// Adaptation is the resolver's choice of profile and intensity.
type Adaptation struct {
	Profile   string `json:"profile"`
	Intensity int    `json:"intensity"`
}

// ClampIntensity bounds v to [MinIntensity, MaxIntensity].
func ClampIntensity(v int) int {
	switch {
	case v < MinIntensity:
		return MinIntensity
	case v > MaxIntensity:
		return MaxIntensity
	default:
		return v
	}
}
