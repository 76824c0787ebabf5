package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// terminalPrompter asks for a PIN on the controlling terminal without
// echoing it.
type terminalPrompter struct{}

func newTerminalPrompter() *terminalPrompter { return &terminalPrompter{} }

// PromptPIN reads a PIN from stdin. On a non-terminal stdin it fails
// immediately so scripted invocations do not hang.
func (terminalPrompter) PromptPIN(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("target device requires a pin, rerun with --pin")
	}
	fmt.Fprint(os.Stderr, "PIN: ")
	raw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read pin: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}
