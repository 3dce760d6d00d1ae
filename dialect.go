package main

import (
	"regexp"
	"strings"
)

// DialectName identifies a supported checkbox style
type DialectName string

const (
	Markdown DialectName = "md"
	Logseq   DialectName = "logseq"
)

var dateTokenRe = regexp.MustCompile(`(?:^|\s)(\d{4}-\d{2}-\d{2})(?:\s|$)`)

// Dialect describes how task lines are recognised and written
type Dialect struct {
	Name       DialectName
	TaskRe     *regexp.Regexp // line is a task
	DoneRe     *regexp.Regexp // task is completed
	DateRe     *regexp.Regexp
	OpenMarker string
	DoneMarker string
}

var (
	markdownDialect = Dialect{
		Name:       Markdown,
		TaskRe:     regexp.MustCompile(`^\s*-\s*\[[ xX]\]`),
		DoneRe:     regexp.MustCompile(`^\s*-\s*\[[^\s]\]`),
		DateRe:     dateTokenRe,
		OpenMarker: "- [ ]",
		DoneMarker: "- [x]",
	}

	logseqDialect = Dialect{
		Name:       Logseq,
		TaskRe:     regexp.MustCompile(`^\s*-\s*(?:TODO|DOING|LATER|NOW|WAITING|WAIT|DONE)(?:\s|$)`),
		DoneRe:     regexp.MustCompile(`^\s*-\s*DONE(?:\s|$)`),
		DateRe:     dateTokenRe,
		OpenMarker: "- TODO",
		DoneMarker: "- DONE",
	}
)

// ParseDialect returns the dialect for a config value. Unknown values
// return the Markdown dialect and ok=false so callers can warn.
func ParseDialect(name string) (Dialect, bool) {
	switch DialectName(strings.ToLower(strings.TrimSpace(name))) {
	case Markdown:
		return markdownDialect, true
	case Logseq:
		return logseqDialect, true
	default:
		return markdownDialect, false
	}
}

// Marker returns the prefix written for a task in the given state
func (d Dialect) Marker(done bool) string {
	if done {
		return d.DoneMarker
	}
	return d.OpenMarker
}
