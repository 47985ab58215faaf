package scent

import "math"

// Resolver picks a profile and intensity for a detected emotion.
type Resolver struct {
	catalog *Catalog
	def     Profile
}

// NewResolver binds a resolver to a catalogue.
// It fails with ErrNoDefaultProfile when the catalogue has no "default"
// entry, so the condition surfaces at startup rather than per request.
func NewResolver(catalog *Catalog) (*Resolver, error) {
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	def, err := catalog.Get(DefaultProfileName)
	if err != nil {
		return nil, ErrNoDefaultProfile
	}
	return &Resolver{catalog: catalog, def: def}, nil
}

// Catalog returns the catalogue the resolver walks.
func (r *Resolver) Catalog() *Catalog {
	return r.catalog
}

// Adapt returns the first profile, in registration order, whose table
// lists emotion, with its base intensity scaled and clamped. When no
// profile lists the emotion the default profile is returned unmodified.
func (r *Resolver) Adapt(emotion Emotion) Adaptation {
	for _, p := range r.catalog.profiles {
		mult, ok := p.Multiplier(emotion)
		if !ok {
			continue
		}
		return Adaptation{
			Profile:   p.Name,
			Intensity: AdjustedIntensity(p.BaseIntensity, mult),
		}
	}
	return Adaptation{Profile: r.def.Name, Intensity: r.def.BaseIntensity}
}

// AdjustedIntensity computes clamp(round(base*mult), 1, 10).
// Halves round away from zero.
func AdjustedIntensity(base int, mult float64) int {
	v := math.Round(float64(base) * mult)
	if v > MaxIntensity {
		return MaxIntensity
	}
	if v < MinIntensity {
		return MinIntensity
	}
	return int(v)
}
