// Package command maps recognised phrases onto device actions.
//
// A Registry holds two ordered binding lists:
//
//	CommandBinding   "включи ароматизатор"           → turn_on
//	SceneBinding     {"утро", "доброе утро", ...}    → [set_profile(energize), adjust_intensity(+2)]
//
// Triggers are matched as substrings of the normalised recognised text.
// Bindings are evaluated in registration order and the first match wins,
// so more specific phrases must be registered before shorter ones that
// they contain.
//
// Actions are plain data (an operation tag plus parameters) rather than
// closures. They can be loaded from YAML, logged, stored in dispatch
// history and sent over the API unchanged.
//
// Usage:
//
//	reg, err := command.NewRegistry(command.DefaultCommands(), command.DefaultScenes())
//	if err != nil {
//	    return err
//	}
//	if b, ok := reg.MatchCommand(result.Text); ok {
//	    // execute b.Action
//	}
//
// A Registry is immutable after construction and safe for concurrent use.
package command
