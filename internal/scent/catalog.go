package scent

import (
	"fmt"
	"math"
)

// Catalog is an ordered, read-only registry of scent profiles.
//
// Iteration order is registration order and never changes after
// construction. All methods are safe for concurrent use.
type Catalog struct {
	profiles []Profile
	index    map[string]int
}

// NewCatalog builds a catalogue from profiles in the given order.
//
// Returns:
//   - ErrDuplicateProfile if two profiles share a name
//   - ErrInvalidProfile if a profile fails ValidateProfile
func NewCatalog(profiles ...Profile) (*Catalog, error) {
	c := &Catalog{
		profiles: make([]Profile, 0, len(profiles)),
		index:    make(map[string]int, len(profiles)),
	}
	for _, p := range profiles {
		if err := ValidateProfile(p); err != nil {
			return nil, err
		}
		if _, exists := c.index[p.Name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateProfile, p.Name)
		}
		c.index[p.Name] = len(c.profiles)
		c.profiles = append(c.profiles, p.clone())
	}
	return c, nil
}

// Get returns the profile registered under name.
func (c *Catalog) Get(name string) (Profile, error) {
	i, ok := c.index[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrProfileNotFound, name)
	}
	return c.profiles[i].clone(), nil
}

// Has reports whether name is registered.
func (c *Catalog) Has(name string) bool {
	_, ok := c.index[name]
	return ok
}

// All returns copies of every profile in registration order.
func (c *Catalog) All() []Profile {
	out := make([]Profile, len(c.profiles))
	for i, p := range c.profiles {
		out[i] = p.clone()
	}
	return out
}

// Names returns profile names in registration order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.profiles))
	for i, p := range c.profiles {
		names[i] = p.Name
	}
	return names
}

// Len returns the number of profiles.
func (c *Catalog) Len() int {
	return len(c.profiles)
}

// Validate checks catalogue-level invariants that individual profiles
// cannot: currently that a "default" profile exists.
func (c *Catalog) Validate() error {
	if !c.Has(DefaultProfileName) {
		return ErrNoDefaultProfile
	}
	return nil
}

// ValidateProfile checks a single profile's name, base intensity and
// multipliers.
func ValidateProfile(p Profile) error {
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}
	if p.BaseIntensity < MinIntensity || p.BaseIntensity > MaxIntensity {
		return fmt.Errorf("%w: %q base intensity %d outside %d-%d",
			ErrInvalidProfile, p.Name, p.BaseIntensity, MinIntensity, MaxIntensity)
	}
	for e, m := range p.EmotionEnhancement {
		if !e.Valid() {
			return fmt.Errorf("%w: %q lists unknown emotion %q", ErrInvalidProfile, p.Name, e)
		}
		if m <= 0 || math.IsNaN(m) || math.IsInf(m, 0) {
			return fmt.Errorf("%w: %q multiplier for %s must be positive", ErrInvalidProfile, p.Name, e)
		}
	}
	return nil
}
