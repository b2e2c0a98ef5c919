package processor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"roadguard/models"
)

// wg-quick takes the interface name from the conf file name.
var clientNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_=+.-]{1,15}$`)

func ValidateClientName(name string) error {
	if !clientNamePattern.MatchString(name) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: client name %q must be 1-15 characters of [a-zA-Z0-9_=+.-] and not start with a dot", models.ErrValidation, name)
	}
	return nil
}

type Prompter interface {
	PromptName(ctx context.Context) (string, error)
}

// LinePrompter asks for the client name on out and reads one line from in.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), out: out}
}

func (l *LinePrompter) PromptName(_ context.Context) (string, error) {
	if _, err := fmt.Fprint(l.out, "Client name: "); err != nil {
		return "", err
	}
	line, err := l.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("%w: reading client name: %w", models.ErrValidation, err)
	}
	return strings.TrimSpace(line), nil
}
