// Package scent provides the scent profile catalogue and the emotion
// adaptation resolver for NeuroAIR Core.
//
// A Profile is a named bundle of a base intensity (1-10) and a table of
// per-emotion multipliers. The Catalog keeps profiles in registration order;
// that order is the priority list the Resolver walks when it picks a profile
// for a detected emotion.
//
// # Adaptation
//
//	for each profile in registration order:
//	    if emotion is listed in profile.EmotionEnhancement:
//	        return profile, clamp(round(base * multiplier), 1, 10)
//	return "default", default.BaseIntensity
//
// The first listing profile wins even when a later one would yield a higher
// intensity.
//
// # Usage
//
//	catalog, err := scent.NewCatalog(scent.DefaultProfiles()...)
//	if err != nil {
//	    return err
//	}
//	resolver, err := scent.NewResolver(catalog)
//	if err != nil {
//	    return err // catalogue has no "default" profile
//	}
//	a := resolver.Adapt(scent.EmotionStressed) // {Profile: "relax", Intensity: 8}
//
// Catalog and Resolver are read-only after construction and safe for
// concurrent use.
package scent
