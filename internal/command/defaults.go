package command

import "github.com/nerrad567/neuroair-core/internal/scent"

// DefaultCommands returns the built-in Russian command phrases.
// Longer phrases come before the shorter ones they contain.
func DefaultCommands() []CommandBinding {
	return []CommandBinding{
		{Trigger: "включи ароматизатор", Action: TurnOn()},
		{Trigger: "выключи ароматизатор", Action: TurnOff()},
		{Trigger: "включи бодрящий аромат", Action: SetProfile("energize")},
		{Trigger: "включи расслабляющий аромат", Action: SetProfile("relax")},
		{Trigger: "включи аромат", Action: TurnOn()},
		{Trigger: "выключи аромат", Action: TurnOff()},
		{Trigger: "усиль аромат", Action: AdjustIntensity(1)},
		{Trigger: "сделай аромат слабее", Action: AdjustIntensity(-1)},
		{Trigger: "уменьши аромат", Action: AdjustIntensity(-1)},
		{Trigger: "мне грустно", Action: EmotionResponse(scent.EmotionSad)},
		{Trigger: "я счастлив", Action: EmotionResponse(scent.EmotionHappy)},
		{Trigger: "включи утренний режим", Action: MorningRoutine()},
		{Trigger: "включи вечерний режим", Action: EveningRoutine()},
		{Trigger: "я иду спать", Action: SleepRoutine()},
	}
}

// DefaultScenes returns the built-in scenes.
func DefaultScenes() []SceneBinding {
	return []SceneBinding{
		{
			Name:     "morning",
			Triggers: []string{"утро", "доброе утро", "проснулся"},
			Actions: []Action{
				SetProfile("energize"),
				AdjustIntensity(2),
			},
		},
	}
}
