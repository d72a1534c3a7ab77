package markdown

import "strings"

// CalloutKind is the closed set of recognized admonition labels.
type CalloutKind string

const (
	CalloutNote      CalloutKind = "NOTE"
	CalloutTip       CalloutKind = "TIP"
	CalloutInfo      CalloutKind = "INFO"
	CalloutTodo      CalloutKind = "TODO"
	CalloutImportant CalloutKind = "IMPORTANT"
	CalloutWarning   CalloutKind = "WARNING"
	CalloutCaution   CalloutKind = "CAUTION"
	CalloutError     CalloutKind = "ERROR"
	CalloutDanger    CalloutKind = "DANGER"
	CalloutExample   CalloutKind = "EXAMPLE"
	CalloutQuote     CalloutKind = "QUOTE"
	CalloutAbstract  CalloutKind = "ABSTRACT"
	CalloutSuccess   CalloutKind = "SUCCESS"
	CalloutQuestion  CalloutKind = "QUESTION"
	CalloutFailure   CalloutKind = "FAILURE"
	CalloutBug       CalloutKind = "BUG"
	CalloutFAQ       CalloutKind = "FAQ"
)

// calloutStyle is the fixed (icon, color) pair for a kind. Colors are
// Notion block background colors.
type calloutStyle struct {
	icon  string
	color string
}

var calloutStyles = map[CalloutKind]calloutStyle{
	CalloutNote:      {"📝", "blue_background"},
	CalloutTip:       {"💡", "green_background"},
	CalloutInfo:      {"ℹ️", "blue_background"},
	CalloutTodo:      {"☑️", "blue_background"},
	CalloutImportant: {"❗", "purple_background"},
	CalloutWarning:   {"⚠️", "yellow_background"},
	CalloutCaution:   {"⚠️", "yellow_background"},
	CalloutError:     {"❌", "red_background"},
	CalloutDanger:    {"🚨", "red_background"},
	CalloutExample:   {"📋", "purple_background"},
	CalloutQuote:     {"💬", "gray_background"},
	CalloutAbstract:  {"📄", "gray_background"},
	CalloutSuccess:   {"✅", "green_background"},
	CalloutQuestion:  {"❓", "orange_background"},
	CalloutFailure:   {"❌", "red_background"},
	CalloutBug:       {"🐛", "red_background"},
	CalloutFAQ:       {"❔", "orange_background"},
}

// ParseCalloutKind matches a label case-insensitively against the
// closed set.
func ParseCalloutKind(label string) (CalloutKind, bool) {
	kind := CalloutKind(strings.ToUpper(strings.TrimSpace(label)))
	_, ok := calloutStyles[kind]
	return kind, ok
}

// Icon returns the kind's emoji, or empty for unrecognized kinds.
func (k CalloutKind) Icon() string { return calloutStyles[k].icon }

// Color returns the kind's Notion background color, or empty.
func (k CalloutKind) Color() string { return calloutStyles[k].color }

// DefaultTitle renders the kind as a title-cased word, e.g. "Warning".
func (k CalloutKind) DefaultTitle() string {
	s := strings.ToLower(string(k))
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
