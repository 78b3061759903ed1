package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	progressStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)
)

// ProgressFunc receives human-readable status messages at pipeline stage
// boundaries. The engine never blocks on it beyond the call itself.
type ProgressFunc func(message string)

// ProgressStep represents a single step in a multi-step process
type ProgressStep struct {
	Message string
	Fn      func() error
}

// ShowProgress runs fn under a spinner when stderr is a TTY, otherwise logs
// the message and runs fn directly.
func ShowProgress(ctx context.Context, message string, fn func() error) error {
	if !isTerminal(os.Stderr) {
		LogInfo(message)
		return fn()
	}

	spinnerChars := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	done := make(chan error, 1)
	spinnerCtx, cancel := context.WithCancel(ctx)
	spinnerDone := make(chan struct{})

	go func() {
		defer close(spinnerDone)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		i := 0
		for {
			select {
			case <-spinnerCtx.Done():
				return
			case <-ticker.C:
				char := spinnerChars[i%len(spinnerChars)]
				fmt.Fprintf(os.Stderr, "\r%s %s", progressStyle.Render(char), message)
				i++
			}
		}
	}()

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		cancel()
		<-spinnerDone
		if err != nil {
			fmt.Fprintf(os.Stderr, "\r%s %s\n", errorStyle.Render("✗"), message)
			return err
		}
		fmt.Fprintf(os.Stderr, "\r%s %s\n", successStyle.Render("✓"), message)
		return nil
	case <-ctx.Done():
		cancel()
		<-spinnerDone
		return ctx.Err()
	}
}

// ShowProgressWithSteps shows progress for multiple steps
func ShowProgressWithSteps(ctx context.Context, steps []ProgressStep) error {
	for i, step := range steps {
		msg := fmt.Sprintf("[%d/%d] %s", i+1, len(steps), step.Message)
		if err := ShowProgress(ctx, msg, step.Fn); err != nil {
			return fmt.Errorf("%s: %w", step.Message, err)
		}
	}
	return nil
}

// isTerminal checks if the writer is a terminal
func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		stat, err := f.Stat()
		if err != nil {
			return false
		}
		return (stat.Mode() & os.ModeCharDevice) != 0
	}
	return false
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	if isTerminal(os.Stdout) {
		fmt.Printf("%s %s\n", successStyle.Render("✓"), message)
	} else {
		fmt.Println(message)
	}
}

// PrintError prints an error message
func PrintError(message string) {
	if isTerminal(os.Stderr) {
		fmt.Fprintf(os.Stderr, "%s %s\n", errorStyle.Render("✗"), message)
	} else {
		fmt.Fprintf(os.Stderr, "%s\n", message)
	}
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	if isTerminal(os.Stdout) {
		fmt.Printf("%s %s\n", progressStyle.Render("ℹ"), message)
	} else {
		fmt.Println(message)
	}
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	if isTerminal(os.Stderr) {
		fmt.Fprintf(os.Stderr, "%s %s\n", warningStyle.Render("⚠"), message)
	} else {
		fmt.Fprintf(os.Stderr, "WARNING: %s\n", message)
	}
}
