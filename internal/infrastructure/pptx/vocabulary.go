package pptx

import (
	"sort"
	"strings"

	"MissionReady/internal/config"
)

// Unclassified is the bucket for slide content no rule claims.
const Unclassified = "unclassified"

type rule struct {
	pattern  string
	section  string
	priority int
}

// Vocabulary is the compiled, immutable slide-title classification table.
// Build it once at startup and share it freely; matching has no state.
type Vocabulary struct {
	rules []rule
}

// NewVocabulary compiles config rules into a ranked table. Higher priority
// wins within a match tier; pattern order breaks remaining ties so the table
// is deterministic regardless of config map iteration.
func NewVocabulary(rules []config.SectionRule) Vocabulary {
	compiled := make([]rule, 0, len(rules))
	for _, r := range rules {
		pattern := strings.ToLower(strings.TrimSpace(r.Pattern))
		section := strings.TrimSpace(r.Section)
		if pattern == "" || section == "" {
			continue
		}
		compiled = append(compiled, rule{pattern: pattern, section: section, priority: r.Priority})
	}

	sort.SliceStable(compiled, func(i, j int) bool {
		if compiled[i].priority != compiled[j].priority {
			return compiled[i].priority > compiled[j].priority
		}
		return compiled[i].pattern < compiled[j].pattern
	})

	return Vocabulary{rules: compiled}
}

// Match classifies a candidate slide title. Tiers are evaluated in fixed
// order: exact match, then prefix, then keyword containment.
func (v Vocabulary) Match(title string) (string, bool) {
	candidate := strings.ToLower(strings.TrimSpace(title))
	if candidate == "" {
		return "", false
	}

	for _, r := range v.rules {
		if candidate == r.pattern {
			return r.section, true
		}
	}
	for _, r := range v.rules {
		if strings.HasPrefix(candidate, r.pattern) {
			return r.section, true
		}
	}
	for _, r := range v.rules {
		if strings.Contains(candidate, r.pattern) {
			return r.section, true
		}
	}

	return "", false
}
