package ports

import "os/exec"

// RulesOpener opens the rules file for hand editing
type RulesOpener interface {
	// OpenFile opens path in the user's editor and waits for it to exit.
	// It uses $EDITOR, then $VISUAL, falling back to common editors.
	OpenFile(path string) error

	// Command returns the editor process without starting it, so a TUI
	// can hand the terminal over with tea.ExecProcess
	Command(path string) (*exec.Cmd, error)
}
