package core

// Action represents a semantic game command, abstracted from physical key presses.
// This allows the game to work with high-level intents rather than raw input.
type Action int

const (
	ActionNone  Action = iota
	ActionJump         // Space, W, Up - flap (also starts a session)
	ActionReset        // R - back to the start screen
	ActionQuit         // Q, Ctrl+C - exit
)

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionJump:
		return "Jump"
	case ActionReset:
		return "Reset"
	case ActionQuit:
		return "Quit"
	default:
		return "Unknown"
	}
}
