package scent

// DefaultProfiles returns the factory catalogue in priority order.
//
// energize and relax come first so that happy/sad and stressed/angry resolve
// to them. comfort, calm and sleep are targets for explicit commands and
// routines and list no emotions of their own.
func DefaultProfiles() []Profile {
	return []Profile{
		{
			Name:          "energize",
			BaseIntensity: 8,
			EmotionEnhancement: map[Emotion]float64{
				EmotionHappy: 1.2,
				EmotionSad:   0.8,
			},
		},
		{
			Name:          "relax",
			BaseIntensity: 5,
			EmotionEnhancement: map[Emotion]float64{
				EmotionStressed: 1.5,
				EmotionAngry:    1.3,
			},
		},
		{Name: "comfort", BaseIntensity: 4},
		{Name: "calm", BaseIntensity: 5},
		{Name: "sleep", BaseIntensity: 3},
		{Name: DefaultProfileName, BaseIntensity: 3},
	}
}
