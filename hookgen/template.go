package hookgen

import (
	"fmt"
	"regexp"
	"strings"
)

// placeholderPattern matches a {...} placeholder in a trampoline template.
// Brace characters cannot appear inside a placeholder name.
var placeholderPattern = regexp.MustCompile(`\{[^{}]*\}`)

// UnknownPlaceholderError reports a template placeholder that is not one of
// the recognized names.
type UnknownPlaceholderError struct {
	Name string
}

func (e *UnknownPlaceholderError) Error() string {
	return fmt.Sprintf("unknown placeholder {%s} in trampoline template", e.Name)
}

// PlaceholderTextError reports extra text following a recognized placeholder
// name, such as {self foo}.
type PlaceholderTextError struct {
	Name string
	Text string
}

func (e *PlaceholderTextError) Error() string {
	return fmt.Sprintf("placeholder {%s} carries unexpected text %q", e.Name, e.Text)
}

// Expand substitutes the placeholders in a trampoline template. {self}
// becomes the self reference and {target} the target reference; surrounding
// whitespace inside the braces is ignored. Any other placeholder is an
// error.
func Expand(template, self, target string) (string, error) {
	var bad error
	out := placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		inner := strings.TrimSpace(match[1 : len(match)-1])
		name, text, _ := strings.Cut(inner, " ")

		var sub string
		switch name {
		case "self":
			sub = self
		case "target":
			sub = target
		default:
			if bad == nil {
				bad = &UnknownPlaceholderError{Name: inner}
			}
			return match
		}

		if text = strings.TrimSpace(text); text != "" {
			if bad == nil {
				bad = &PlaceholderTextError{Name: name, Text: text}
			}
			return match
		}
		return sub
	})
	if bad != nil {
		return "", bad
	}
	return out, nil
}
