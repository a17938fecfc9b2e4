package parser

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// NoiseFilter drops blank paragraphs and paragraphs carrying a site's boilerplate glyphs.
type NoiseFilter struct {
	denylist []string
}

// NewNoiseFilter builds a filter from the configured glyphs. Each glyph also matches its
// UTF-8-read-as-Windows-1252 form, which is how the glyph shows up on mis-decoded pages.
func NewNoiseFilter(glyphs []string) NoiseFilter {
	seen := map[string]struct{}{}
	var denylist []string
	add := func(s string) {
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		denylist = append(denylist, s)
	}

	for _, glyph := range glyphs {
		glyph = strings.TrimSpace(glyph)
		add(glyph)
		if mis := misdecode(glyph); mis != glyph {
			add(mis)
		}
	}

	return NoiseFilter{denylist: denylist}
}

// Denylist returns every string the filter rejects on.
func (f NoiseFilter) Denylist() []string {
	return append([]string(nil), f.denylist...)
}

// Keep reports whether a paragraph is real content.
func (f NoiseFilter) Keep(paragraph string) bool {
	if strings.TrimSpace(paragraph) == "" {
		return false
	}
	for _, glyph := range f.denylist {
		if strings.Contains(paragraph, glyph) {
			return false
		}
	}
	return true
}

// Clean trims and filters paragraphs, preserving order.
func (f NoiseFilter) Clean(paragraphs []string) []string {
	kept := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		if !f.Keep(p) {
			continue
		}
		kept = append(kept, strings.TrimSpace(p))
	}
	return kept
}

func misdecode(s string) string {
	if s == "" || !utf8.ValidString(s) {
		return s
	}
	out, err := charmap.Windows1252.NewDecoder().String(s)
	if err != nil || strings.ContainsRune(out, utf8.RuneError) {
		return s
	}
	return out
}
