package prompt

import (
	"errors"
	"fmt"
	"strings"

	survey "gopkg.in/AlecAivazis/survey.v1"
)

// Prompter is the interface used to run our prompts from, useful for mocking in tests
type Prompter interface {
	Input(message string) (string, error)
	InputPassword(message string) (string, error)
	Confirm(message string, defaultChoice bool) (bool, error)
}

var ErrValueRequired = errors.New("a value is required")

// Prompt is our main prompting struct
type Prompt struct{}

// New creates a new prompter
func New() Prompter {
	return &Prompt{}
}

// Input prompts the user for a non-empty line of text
func (p *Prompt) Input(message string) (string, error) {
	var response string
	err := survey.AskOne(&survey.Input{
		Message: formatMessage(message),
	}, &response, ValidateRequired)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(response), nil
}

// InputPassword prompts the user for input and obfuscates the text in stdout.
// Will fail if empty.
func (p *Prompt) InputPassword(message string) (string, error) {
	var response string
	err := survey.AskOne(&survey.Password{
		Message: formatMessage(message),
	}, &response, ValidateRequired)
	if err != nil {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	return strings.TrimSpace(response), nil
}

// Confirm prompts user for yes or no response.
func (p *Prompt) Confirm(message string, defaultChoice bool) (bool, error) {
	var resp bool
	err := survey.AskOne(&survey.Confirm{
		Message: formatMessage(message),
		Default: defaultChoice,
	}, &resp, nil)
	if err != nil {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	return resp, nil
}

// ValidateRequired rejects blank string answers.
func ValidateRequired(val interface{}) error {
	if s, ok := val.(string); ok && strings.TrimSpace(s) == "" {
		return ErrValueRequired
	}
	return nil
}

func formatMessage(message string) string {
	return strings.TrimSuffix(strings.TrimSpace(message), ":") + ":"
}
