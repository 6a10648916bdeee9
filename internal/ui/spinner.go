package ui

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

// spinnerDelay hides the spinner for calls that finish quickly
const spinnerDelay = 100 * time.Millisecond

var spinnerStyle = spinner.Dot

// SpinnerFrame returns the animation frame for step i
func SpinnerFrame(i int) string {
	return spinnerStyle.Frames[i%len(spinnerStyle.Frames)]
}

// WithSpinner runs action while animating a spinner on w, then clears the
// line. Unless immediate is set nothing is drawn for the first 100ms. A
// spinner with a message also shows the elapsed time once it passes a second.
func WithSpinner[T any](w io.Writer, message string, immediate bool, action func() (T, error)) (T, error) {
	type outcome struct {
		val T
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		val, err := action()
		done <- outcome{val, err}
	}()

	if !immediate {
		select {
		case out := <-done:
			return out.val, out.err
		case <-time.After(spinnerDelay):
		}
	}
	if w == nil {
		w = os.Stderr
	}

	start := time.Now()
	draw := func(frame int) {
		line := InfoStyle.Render(SpinnerFrame(frame))
		if message != "" {
			line = message + " " + line
			if elapsed := time.Since(start); elapsed >= time.Second {
				line += MutedStyle.Render(fmt.Sprintf(" %s", elapsed.Truncate(time.Second)))
			}
		}
		fmt.Fprintf(w, "\r\033[K%s", line)
	}

	ticker := time.NewTicker(spinnerStyle.FPS)
	defer ticker.Stop()

	frame := 0
	draw(frame)
	for {
		select {
		case out := <-done:
			fmt.Fprint(w, "\r\033[K")
			return out.val, out.err
		case <-ticker.C:
			frame++
			draw(frame)
		}
	}
}

// WithSpinnerErr is WithSpinner for actions without a result
func WithSpinnerErr(w io.Writer, message string, immediate bool, action func() error) error {
	_, err := WithSpinner(w, message, immediate, func() (struct{}, error) {
		return struct{}{}, action()
	})
	return err
}
