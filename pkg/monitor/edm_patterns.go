package monitor

import (
	"regexp"

	"github.com/corepath/partner/pkg/domain"
)

// lexicalFamily is one of the three pattern families EDM scans for
// (spec.md §4.6), grounded on edm_monitor.py's *_PATTERNS lists.
type lexicalFamily struct {
	kind     domain.DebtKind
	severity domain.DebtSeverity
	patterns []*regexp.Regexp
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile("(?i)"+p))
	}
	return out
}

// families mirrors UNFALSIFIABLE_PATTERNS / UNVERIFIED_PATTERNS /
// VAGUE_PATTERNS from edm_monitor.py. The "unverified" family becomes a
// missing_citation debt only when no citation pattern follows the match
// within the configured window; otherwise it produces no debt at all.
var (
	unfalsifiableFamily = lexicalFamily{
		kind: domain.DebtUnfalsifiable, severity: domain.DebtMedium,
		patterns: compileAll(
			`everyone knows`, `it'?s obvious that`, `clearly,`,
			`undeniably`, `without a doubt`, `no one can deny`,
		),
	}
	// unverifiedFamily becomes a MissingCitation debt only when no
	// citation pattern follows the match within the configured window.
	unverifiedFamily = lexicalFamily{
		kind: domain.DebtMissingCitation, severity: domain.DebtHigh,
		patterns: compileAll(
			`studies show`, `research indicates`, `experts say`,
			`it has been proven`, `statistics show`,
		),
	}
	vagueFamily = lexicalFamily{
		kind: domain.DebtVague, severity: domain.DebtLow,
		patterns: compileAll(
			`many people`, `some say`, `it is believed`, `generally speaking`,
		),
	}
)

// citationPatterns detect evidence a claim is already sourced.
var citationPatterns = compileAll(
	`\[\d+\]`,
	`\([A-Z][a-z]+,?\s+\d{4}\)`,
	`doi:`,
	`https?://`,
)

func hasCitationNearby(text string, from, lookahead int) bool {
	end := from + lookahead
	if end > len(text) {
		end = len(text)
	}
	if from >= len(text) {
		return false
	}
	window := text[from:end]
	for _, p := range citationPatterns {
		if p.MatchString(window) {
			return true
		}
	}
	return false
}
