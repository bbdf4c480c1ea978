package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
)

// MaxLoginAttempts is how many failed logins end an interactive session.
const MaxLoginAttempts = 3

// ErrTooManyAttempts is returned after MaxLoginAttempts failed logins.
var ErrTooManyAttempts = errors.New("too many failed login attempts")

// Authenticator checks a username and password.
type Authenticator func(ctx context.Context, username, password string) (*model.User, error)

// Prompter asks for credentials and confirmations on a terminal.
type Prompter struct {
	writer io.Writer
	reader *LineReader
	secret func() (string, error)
}

// NewPrompter creates a prompter. When reader is a terminal, secrets are
// read without echo.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}

	p := &Prompter{writer: writer, reader: NewLineReader(reader)}
	if f, ok := reader.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.secret = func() (string, error) {
			b, err := term.ReadPassword(int(f.Fd()))
			_, _ = fmt.Fprintln(writer)
			return string(b), err
		}
	}
	return p
}

// Ask prints label and returns the trimmed answer.
func (p *Prompter) Ask(ctx context.Context, label string) (string, error) {
	if _, err := fmt.Fprint(p.writer, FormatPrompt(label)); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}
	line, err := p.reader.ReadLine(ctx)
	if errors.Is(err, io.EOF) {
		return "", fmt.Errorf("input terminated")
	}
	return line, err
}

// AskSecret is Ask without echo on a terminal.
func (p *Prompter) AskSecret(ctx context.Context, label string) (string, error) {
	if p.secret == nil {
		return p.Ask(ctx, label)
	}
	if _, err := fmt.Fprint(p.writer, FormatPrompt(label)); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}
	return p.secret()
}

// Confirm asks a yes/no question; anything but y or yes is no.
func (p *Prompter) Confirm(ctx context.Context, question string) (bool, error) {
	answer, err := p.Ask(ctx, question+" [y/N]")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Login asks for credentials until auth accepts them, giving up after
// MaxLoginAttempts rejections. A non-empty username is used for every
// attempt instead of being asked for. Errors other than rejected
// credentials end the loop immediately.
func (p *Prompter) Login(ctx context.Context, username string, auth Authenticator) (*model.User, error) {
	for attempt := 1; attempt <= MaxLoginAttempts; attempt++ {
		name := username
		if name == "" {
			var err error
			if name, err = p.Ask(ctx, "Username"); err != nil {
				return nil, err
			}
		}
		password, err := p.AskSecret(ctx, "Password")
		if err != nil {
			return nil, err
		}

		user, err := auth(ctx, name, password)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, common.ErrAuth) && !errors.Is(err, common.ErrValidation) {
			return nil, err
		}

		msg := fmt.Sprintf("Invalid username or password (attempt %d of %d)", attempt, MaxLoginAttempts)
		if _, werr := fmt.Fprintln(p.writer, FormatError(msg)); werr != nil {
			slog.Warn("Failed to write login error", "error", werr)
		}
	}
	return nil, ErrTooManyAttempts
}

// SignUpDraft collects the fields of a new account. The password must be
// typed twice.
func (p *Prompter) SignUpDraft(ctx context.Context) (model.UserDraft, error) {
	var draft model.UserDraft
	var err error

	if draft.Username, err = p.Ask(ctx, "Username"); err != nil {
		return draft, err
	}
	if draft.FullName, err = p.Ask(ctx, "Full name"); err != nil {
		return draft, err
	}
	if draft.Password, err = p.AskSecret(ctx, "Password"); err != nil {
		return draft, err
	}
	confirm, err := p.AskSecret(ctx, "Confirm password")
	if err != nil {
		return draft, err
	}
	if confirm != draft.Password {
		return draft, common.NewValidationError("password", "does not match confirmation")
	}
	return draft, nil
}

// NewPassword asks for a password twice.
func (p *Prompter) NewPassword(ctx context.Context, label string) (string, error) {
	pw, err := p.AskSecret(ctx, label)
	if err != nil {
		return "", err
	}
	confirm, err := p.AskSecret(ctx, "Confirm "+strings.ToLower(label))
	if err != nil {
		return "", err
	}
	if pw != confirm {
		return "", common.NewValidationError("password", "does not match confirmation")
	}
	return pw, nil
}
