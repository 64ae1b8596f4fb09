// Package cliprompt wraps promptui for the one interactive fallback
// filewire needs: collecting transfer.info's three fields when the file
// is absent and --non-interactive was not requested.
package cliprompt

import (
	"errors"
	"os"

	"github.com/manifoldco/promptui"
)

// ErrAborted is returned when the user aborts a prompt (Ctrl+C).
var ErrAborted = errors.New("cliprompt: aborted")

func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) {
		return ErrAborted
	}
	return err
}

// Required prompts for a non-empty line of input.
func Required(label string) (string, error) {
	prompt := promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			if input == "" {
				return errors.New("value is required")
			}
			return nil
		},
	}
	result, err := prompt.Run()
	return result, wrapError(err)
}

// RequiredExistingFile prompts for a non-empty path that exists (checked
// with os.Stat; readability and file type are not checked).
func RequiredExistingFile(label string) (string, error) {
	prompt := promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			if input == "" {
				return errors.New("value is required")
			}
			if _, err := os.Stat(input); err != nil {
				return errors.New("file does not exist")
			}
			return nil
		},
	}
	result, err := prompt.Run()
	return result, wrapError(err)
}
