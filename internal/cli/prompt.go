package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// stdinReader is shared by every prompt so buffered input is never lost
// between prompts in one interactive flow.
var stdinReader = bufio.NewReader(os.Stdin)

// readLine prints prompt and reads one trimmed line from stdin.
func readLine(prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := stdinReader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readLineDefault reads a line, substituting def when the user just hits
// enter. The default is shown in the prompt.
func readLineDefault(prompt, def string) (string, error) {
	if def != "" {
		prompt = fmt.Sprintf("%s [%s]: ", prompt, def)
	} else {
		prompt = prompt + ": "
	}
	line, err := readLine(prompt)
	if err != nil {
		return "", err
	}
	if line == "" {
		return def, nil
	}
	return line, nil
}

// confirm asks a yes/no question; only "y"/"yes" counts as yes.
func confirm(prompt string) bool {
	line, err := readLine(prompt + " [y/N]: ")
	if err != nil {
		return false
	}
	switch strings.ToLower(line) {
	case "y", "yes":
		return true
	}
	return false
}

// promptNumber asks for a number in [1, max]. Zero and out-of-range values
// re-prompt; an empty line cancels with ok=false.
func promptNumber(prompt string, max int) (int, bool) {
	for {
		line, err := readLine(fmt.Sprintf("%s [1-%d, enter to cancel]: ", prompt, max))
		if err != nil || line == "" {
			return 0, false
		}
		n, err := strconv.Atoi(line)
		if err != nil || n < 1 || n > max {
			fmt.Printf("Invalid choice %q, please try again.\n", line)
			continue
		}
		return n, true
	}
}

// terminalPrompter reads secrets from the controlling terminal without echo.
// It backs the transport's password and passphrase prompts.
type terminalPrompter struct{}

func newTerminalPrompter() terminalPrompter {
	return terminalPrompter{}
}

// Password implements transport.Prompter.
func (terminalPrompter) Password(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		// Piped stdin still needs to work for scripted use.
		return readLine(prompt + ": ")
	}
	fmt.Fprintf(os.Stderr, "%s: ", prompt)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	return string(secret), nil
}
