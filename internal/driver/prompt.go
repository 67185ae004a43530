package driver

import (
	"fmt"
	"os"
	"syscall"

	"golang.org/x/term"
)

// PromptPassword reads a password from the terminal without echoing.
func PromptPassword() string {
	fmt.Fprint(os.Stderr, "Password: ")
	password, err := term.ReadPassword(syscall.Stdin)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return ""
	}
	return string(password)
}
