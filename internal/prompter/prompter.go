// Package prompter provides the Prompter dependency port (§6): confirm,
// input, select, multiSelect, editor, each with a default, a validator,
// and non-interactive behavior that returns PROMPTER_NON_INTERACTIVE
// instead of the default when no default is supplied.
package prompter

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	reachc "github.com/bsladewski/Tenacious-C-sub001/internal/errors"
)

type Validator func(answer string) error

// Prompter is the dependency port consumed by the (out-of-scope)
// interactive layers; the core never calls it for control-flow decisions,
// only the surrounding CLI does — but the port lives in the core so tests
// can fully substitute it.
type Prompter interface {
	Confirm(prompt string, def *bool) (bool, error)
	Input(prompt string, def *string, validate Validator) (string, error)
	Select(prompt string, options []string, def *string) (string, error)
	MultiSelect(prompt string, options []string, def []string) ([]string, error)
	Editor(prompt string, initial string) (string, error)
	IsInteractive() bool
}

// NonInteractive never asks anything: every call either returns the
// supplied default or a PROMPTER_NON_INTERACTIVE error when no default
// was given (§7).
type NonInteractive struct{}

func nonInteractiveErr(field string) error {
	return reachc.New(reachc.CodePrompterNonInteractive, "no default available for "+field+" in non-interactive mode")
}

func (NonInteractive) Confirm(prompt string, def *bool) (bool, error) {
	if def != nil {
		return *def, nil
	}
	return false, nonInteractiveErr(prompt)
}

func (NonInteractive) Input(prompt string, def *string, validate Validator) (string, error) {
	if def != nil {
		if validate != nil {
			if err := validate(*def); err != nil {
				return "", reachc.New(reachc.CodePrompterValidation, err.Error())
			}
		}
		return *def, nil
	}
	return "", nonInteractiveErr(prompt)
}

func (NonInteractive) Select(prompt string, options []string, def *string) (string, error) {
	if def != nil {
		return *def, nil
	}
	return "", nonInteractiveErr(prompt)
}

func (NonInteractive) MultiSelect(prompt string, options []string, def []string) ([]string, error) {
	if def != nil {
		return def, nil
	}
	return nil, nonInteractiveErr(prompt)
}

func (NonInteractive) Editor(prompt string, initial string) (string, error) {
	return initial, nil
}

func (NonInteractive) IsInteractive() bool { return false }

// TTY is a minimal real Prompter reading line-oriented input from r and
// writing prompts to w. Used when Interactivity.Interactive is true and a
// terminal is attached; the full rich prompting experience (arrow-key
// select, editor launch) is out of scope (§1) and left to the surrounding
// CLI, which may substitute a richer Prompter implementing this interface.
type TTY struct {
	R io.Reader
	W io.Writer
}

func NewTTY(r io.Reader, w io.Writer) *TTY { return &TTY{R: r, W: w} }

func (t *TTY) readLine() (string, error) {
	line, err := bufio.NewReader(t.R).ReadString('\n')
	if err != nil && line == "" {
		return "", reachc.New(reachc.CodePrompterCancelled, "input stream closed").WithCause(err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (t *TTY) Confirm(prompt string, def *bool) (bool, error) {
	fmt.Fprintf(t.W, "%s [y/n]: ", prompt)
	line, err := t.readLine()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	case "":
		if def != nil {
			return *def, nil
		}
	}
	if def != nil {
		return *def, nil
	}
	return false, reachc.New(reachc.CodePrompterValidation, "expected y/n")
}

func (t *TTY) Input(prompt string, def *string, validate Validator) (string, error) {
	fmt.Fprintf(t.W, "%s: ", prompt)
	line, err := t.readLine()
	if err != nil {
		return "", err
	}
	if line == "" && def != nil {
		line = *def
	}
	if validate != nil {
		if err := validate(line); err != nil {
			return "", reachc.New(reachc.CodePrompterValidation, err.Error())
		}
	}
	return line, nil
}

func (t *TTY) Select(prompt string, options []string, def *string) (string, error) {
	fmt.Fprintf(t.W, "%s %v: ", prompt, options)
	line, err := t.readLine()
	if err != nil {
		return "", err
	}
	if line == "" && def != nil {
		return *def, nil
	}
	for _, o := range options {
		if o == line {
			return o, nil
		}
	}
	return "", reachc.New(reachc.CodePrompterValidation, "not one of the offered options")
}

func (t *TTY) MultiSelect(prompt string, options []string, def []string) ([]string, error) {
	fmt.Fprintf(t.W, "%s (comma-separated) %v: ", prompt, options)
	line, err := t.readLine()
	if err != nil {
		return nil, err
	}
	if line == "" {
		return def, nil
	}
	parts := strings.Split(line, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out, nil
}

func (t *TTY) Editor(prompt string, initial string) (string, error) {
	fmt.Fprintf(t.W, "%s (edit inline, blank keeps default):\n%s\n> ", prompt, initial)
	line, err := t.readLine()
	if err != nil {
		return "", err
	}
	if line == "" {
		return initial, nil
	}
	return line, nil
}

func (t *TTY) IsInteractive() bool { return true }
