package bundler

import (
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// Failure is returned when esbuild reports errors.
type Failure struct {
	Messages []api.Message
}

func (f *Failure) Error() string {
	if len(f.Messages) == 0 {
		return "bundling failed"
	}
	first := describe(f.Messages[0])
	if n := len(f.Messages) - 1; n > 0 {
		return fmt.Sprintf("%s (and %d more errors)", first, n)
	}
	return first
}

// Location returns "file:line:column" of the first message with a location.
func (f *Failure) Location() string {
	for _, m := range f.Messages {
		if m.Location != nil {
			return fmt.Sprintf("%s:%d:%d", m.Location.File, m.Location.Line, m.Location.Column)
		}
	}
	return ""
}

// Detail renders every message the way esbuild prints them.
func (f *Failure) Detail() string {
	formatted := api.FormatMessages(f.Messages, api.FormatMessagesOptions{Kind: api.ErrorMessage})
	return strings.TrimSpace(strings.Join(formatted, ""))
}

func describe(m api.Message) string {
	if m.Location == nil {
		return m.Text
	}
	return fmt.Sprintf("%s:%d:%d: %s", m.Location.File, m.Location.Line, m.Location.Column, m.Text)
}

func warningTexts(msgs []api.Message) []string {
	if len(msgs) == 0 {
		return nil
	}
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, describe(m))
	}
	return out
}
