package cli

import "fmt"

// CommandError wraps a failure from one of the tribune subcommands so the
// root command can report which operation failed before exiting non-zero.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError wraps err as a failure of the named subcommand.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{Command: command, Err: err}
}
