package ui

import (
	"os"

	survey "github.com/AlecAivazis/survey/v2"
)

// Input asks the user for one free-form line. The prompt and the answer
// are recorded in the full log only.
func (l *Logger) Input(label string) (string, error) {
	l.InfoSilent("PROMPT: %s", label)

	var answer string
	err := survey.AskOne(
		&survey.Input{Message: label},
		&answer,
		survey.WithStdio(os.Stdin, os.Stdout, os.Stderr),
	)
	if err != nil {
		return "", err
	}

	l.InfoSilent("ANSWER: %q", answer)
	return answer, nil
}
