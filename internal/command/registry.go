package command

import (
	"fmt"
	"strings"

	"github.com/nerrad567/neuroair-core/internal/scent"
	"github.com/nerrad567/neuroair-core/internal/speech"
)

// CommandBinding maps a trigger phrase onto a single action.
type CommandBinding struct {
	Trigger string `json:"trigger" yaml:"trigger"`
	Action  Action `json:"action" yaml:"action"`
}

// SceneBinding maps any of several trigger phrases onto an ordered
// sequence of actions.
type SceneBinding struct {
	Name     string   `json:"name" yaml:"name"`
	Triggers []string `json:"triggers" yaml:"triggers"`
	Actions  []Action `json:"actions" yaml:"actions"`
}

func (s SceneBinding) clone() SceneBinding {
	cpy := s
	cpy.Triggers = append([]string(nil), s.Triggers...)
	cpy.Actions = make([]Action, len(s.Actions))
	for i, a := range s.Actions {
		cpy.Actions[i] = a.clone()
	}
	return cpy
}

// Registry holds the ordered command and scene bindings.
type Registry struct {
	commands []CommandBinding
	scenes   []SceneBinding
}

// NewRegistry validates and normalises the bindings.
//
// Triggers are normalised the same way recognised text is (lowercase,
// trimmed, single spaces). Registration order is preserved.
func NewRegistry(commands []CommandBinding, scenes []SceneBinding) (*Registry, error) {
	r := &Registry{
		commands: make([]CommandBinding, 0, len(commands)),
		scenes:   make([]SceneBinding, 0, len(scenes)),
	}

	for i, b := range commands {
		trigger := speech.Normalize(b.Trigger)
		if trigger == "" {
			return nil, fmt.Errorf("%w: command[%d] has an empty trigger", ErrInvalidBinding, i)
		}
		if err := b.Action.Validate(); err != nil {
			return nil, fmt.Errorf("command[%d] %q: %w", i, trigger, err)
		}
		r.commands = append(r.commands, CommandBinding{Trigger: trigger, Action: b.Action.clone()})
	}

	for i, s := range scenes {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			name = fmt.Sprintf("scene-%d", i)
		}
		if len(s.Triggers) == 0 {
			return nil, fmt.Errorf("%w: scene %q has no triggers", ErrInvalidBinding, name)
		}
		if len(s.Actions) == 0 {
			return nil, fmt.Errorf("%w: scene %q has no actions", ErrInvalidBinding, name)
		}

		scene := SceneBinding{Name: name, Triggers: make([]string, 0, len(s.Triggers))}
		for j, t := range s.Triggers {
			trigger := speech.Normalize(t)
			if trigger == "" {
				return nil, fmt.Errorf("%w: scene %q trigger[%d] is empty", ErrInvalidBinding, name, j)
			}
			scene.Triggers = append(scene.Triggers, trigger)
		}
		for j, a := range s.Actions {
			if err := a.Validate(); err != nil {
				return nil, fmt.Errorf("scene %q action[%d]: %w", name, j, err)
			}
			scene.Actions = append(scene.Actions, a.clone())
		}
		r.scenes = append(r.scenes, scene)
	}

	return r, nil
}

// MatchCommand returns the first command binding whose trigger occurs in
// text.
func (r *Registry) MatchCommand(text string) (CommandBinding, bool) {
	text = speech.Normalize(text)
	if text == "" {
		return CommandBinding{}, false
	}
	for _, b := range r.commands {
		if strings.Contains(text, b.Trigger) {
			return CommandBinding{Trigger: b.Trigger, Action: b.Action.clone()}, true
		}
	}
	return CommandBinding{}, false
}

// MatchScene returns the first scene with any trigger occurring in text.
func (r *Registry) MatchScene(text string) (SceneBinding, bool) {
	text = speech.Normalize(text)
	if text == "" {
		return SceneBinding{}, false
	}
	for _, s := range r.scenes {
		for _, t := range s.Triggers {
			if strings.Contains(text, t) {
				return s.clone(), true
			}
		}
	}
	return SceneBinding{}, false
}

// Commands returns a copy of the command bindings in registration order.
func (r *Registry) Commands() []CommandBinding {
	out := make([]CommandBinding, len(r.commands))
	for i, b := range r.commands {
		out[i] = CommandBinding{Trigger: b.Trigger, Action: b.Action.clone()}
	}
	return out
}

// Scenes returns a copy of the scene bindings in registration order.
func (r *Registry) Scenes() []SceneBinding {
	out := make([]SceneBinding, len(r.scenes))
	for i, s := range r.scenes {
		out[i] = s.clone()
	}
	return out
}

// CheckProfiles verifies that every set_profile action names a profile
// present in the catalog.
func (r *Registry) CheckProfiles(catalog *scent.Catalog) error {
	check := func(where string, a Action) error {
		if a.Op == OpSetProfile && !catalog.Has(a.Profile) {
			return fmt.Errorf("%w: %s references %q", ErrUnknownProfile, where, a.Profile)
		}
		return nil
	}

	for _, b := range r.commands {
		if err := check(fmt.Sprintf("command %q", b.Trigger), b.Action); err != nil {
			return err
		}
	}
	for _, s := range r.scenes {
		for _, a := range s.Actions {
			if err := check(fmt.Sprintf("scene %q", s.Name), a); err != nil {
				return err
			}
		}
	}
	return nil
}
