package util

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/droidsync/droidsync/pkg/errors"
)

// maxPromptAttempts bounds how many invalid answers a prompt tolerates
// before giving up and treating the prompt as cancelled.
const maxPromptAttempts = 3

// Overridden in unit tests to script prompt answers.
var promptIn io.Reader = os.Stdin

// HandleFatalError prints a user-friendly version of the error and exits.
func HandleFatalError(err error) {
	log.Debug(err)
	fmt.Fprintln(os.Stderr, errors.GetPrintableMessage(err))
	os.Exit(1)
}

// HandlePanic recovers from panics in goroutines, and prints a message asking
// the user to report the crash. It should be deferred at the start of every
// goroutine.
func HandlePanic() {
	if r := recover(); r != nil {
		fmt.Fprintf(os.Stderr,
			"droidsync crashed: %v\n\n%s\n"+
				"This is a bug. Please report it along with the output above.\n",
			r, debug.Stack())
		os.Exit(1)
	}
}

// PromptYesOrNo asks the user a yes or no question. An empty answer takes the
// default. After too many invalid answers it returns an error rather than
// looping forever.
func PromptYesOrNo(question string, defaultYes bool) (bool, error) {
	hint := "Y/n"
	if !defaultYes {
		hint = "y/N"
	}

	reader := bufio.NewReader(promptIn)
	for attempt := 0; attempt < maxPromptAttempts; attempt++ {
		fmt.Printf("%s [%s]: ", question, hint)

		answer, err := reader.ReadString('\n')
		if err != nil {
			return false, errors.WithContext(err, "read answer")
		}

		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "":
			return defaultYes, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Println("Please answer \"y\" or \"n\".")
	}
	return false, errors.New("too many invalid answers")
}

// PromptIndex asks the user to pick a number between 1 and `max` inclusive.
// ok is false if the user cancelled by entering nothing or by giving too
// many invalid answers.
func PromptIndex(question string, max int) (index int, ok bool) {
	reader := bufio.NewReader(promptIn)
	for attempt := 0; attempt < maxPromptAttempts; attempt++ {
		fmt.Printf("%s [1-%d]: ", question, max)

		answer, err := reader.ReadString('\n')
		if err != nil {
			return 0, false
		}

		answer = strings.TrimSpace(answer)
		if answer == "" {
			return 0, false
		}

		choice, err := strconv.Atoi(answer)
		if err == nil && choice >= 1 && choice <= max {
			return choice, true
		}
		fmt.Printf("Please enter a number between 1 and %d.\n", max)
	}
	return 0, false
}

// FormatBytes renders a byte count for humans.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
