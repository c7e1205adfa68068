// Package prompt abstracts interactive passphrase and confirmation input so
// the account subsystem stays testable without a terminal attached.
package prompt

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/manifoldco/promptui"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

// Prompter supplies passphrases and yes/no confirmations on demand.
type Prompter interface {
	// Password reads a passphrase without echoing it. An empty string is a
	// valid response, some accounts have no passphrase.
	Password(promptText string) (string, error)
	// Confirm asks a yes/no question and reports the answer.
	Confirm(promptText string) (bool, error)
}

// Terminal prompts on the controlling terminal. Passphrase input is hidden.
type Terminal struct{}

// NewTerminal returns an interactive prompter backed by stdin.
func NewTerminal() *Terminal {
	return &Terminal{}
}

// Password implements Prompter.
func (*Terminal) Password(promptText string) (string, error) {
	fmt.Printf("%s: ", promptText)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", errors.Wrap(err, "could not read passphrase")
	}
	input := strings.TrimRight(string(raw), "\r\n")
	if !IsValidUnicode(input) {
		return "", errors.New("passphrase is not valid unicode")
	}
	return input, nil
}

// Confirm implements Prompter.
func (*Terminal) Confirm(promptText string) (bool, error) {
	p := promptui.Prompt{
		Label:     promptText,
		IsConfirm: true,
	}
	if _, err := p.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, formatPromptError(err)
	}
	return true, nil
}

// Static answers every prompt from fixed values. It backs the non-interactive
// mode used for automation and tests.
type Static struct {
	Passphrase string
	Confirmed  bool
}

// Password implements Prompter.
func (s *Static) Password(_ string) (string, error) {
	return s.Passphrase, nil
}

// Confirm implements Prompter.
func (s *Static) Confirm(_ string) (bool, error) {
	return s.Confirmed, nil
}

// IsValidUnicode checks that an input contains only printable characters.
func IsValidUnicode(input string) bool {
	for _, char := range input {
		if !unicode.IsPrint(char) {
			return false
		}
	}
	return true
}

func formatPromptError(err error) error {
	switch err {
	case promptui.ErrInterrupt:
		return errors.New("keyboard interrupt, closing")
	case promptui.ErrEOF:
		return errors.New("no input received, closing")
	default:
		return err
	}
}
