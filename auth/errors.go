package auth

import "fmt"

// CommandError describes a command the server answered with a non-ok reply.
type CommandError struct {
	Command string
	Message string
	Code    int
}

func (e *CommandError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s failed (code %d)", e.Command, e.Code)
	}
	return fmt.Sprintf("%s failed: %s (code %d)", e.Command, e.Message, e.Code)
}

// commandError builds a CommandError from a reply.
func commandError(command string, resp Response) *CommandError {
	return &CommandError{Command: command, Message: resp.Errmsg(), Code: resp.Int(FieldCode)}
}
