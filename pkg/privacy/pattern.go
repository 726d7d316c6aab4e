// Package privacy implements the Privacy Engine: PII detection and action,
// per-user differential-privacy budget, and the consent ledger. Pattern
// compilation and resolution follow tarsy's pkg/masking/pattern.go
// (CompiledPattern, built-in pattern table); the five regex-detectable PII
// kinds are taken verbatim from original_source's
// privacy/advanced_privacy.py PII_PATTERNS table.
package privacy

import (
	"regexp"

	"github.com/corepath/partner/pkg/domain"
)

// compiledPattern pairs a PII kind with its detector and sensitivity class.
type compiledPattern struct {
	Kind        domain.PIIKind
	Regex       *regexp.Regexp
	Confidence  float64
	Sensitivity domain.Sensitivity
}

// builtinPatterns are the regex-detectable PII kinds, grounded on
// original_source/src/ai_pal/privacy/advanced_privacy.py PII_PATTERNS.
// Confidence 0.9 matches the source's regex-detection confidence exactly.
var builtinPatterns = []compiledPattern{
	{domain.PIIEmail, regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), 0.9, domain.SensitivityLow},
	{domain.PIIPhone, regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`), 0.9, domain.SensitivityMedium},
	{domain.PIISSN, regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), 0.9, domain.SensitivityHigh},
	{domain.PIICreditCard, regexp.MustCompile(`\b\d{4}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4}\b`), 0.9, domain.SensitivityHigh},
	{domain.PIIIP, regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`), 0.9, domain.SensitivityLow},
}

// heuristicKeywords cover the remaining spec.md PII kinds without a precise
// regex in the source; the Open-Question resolution in SPEC_FULL.md §4.2
// wires them to a lower-confidence keyword matcher rather than dropping
// them, so the PIIKind/Detection model has a slot for every kind spec.md
// names.
var heuristicKeywords = map[domain.PIIKind][]string{
	domain.PIIName:      {"my name is", "i am called", "i'm called"},
	domain.PIIAddress:   {"street", "avenue", "blvd", "apt ", "zip code"},
	domain.PIIDOB:       {"born on", "date of birth", "birthday is"},
	domain.PIILocation:  {"i live in", "i'm located in", "i am located in"},
	domain.PIIMedical:   {"diagnosed with", "my medication", "my condition is"},
	domain.PIIFinancial: {"my account number", "routing number", "my salary is"},
	domain.PIIBiometric: {"my fingerprint", "facial recognition id", "retina scan"},
}

func heuristicSensitivity(kind domain.PIIKind) domain.Sensitivity {
	switch kind {
	case domain.PIIMedical, domain.PIIBiometric:
		return domain.SensitivityHigh
	case domain.PIIDOB, domain.PIIFinancial, domain.PIIAddress:
		return domain.SensitivityMedium
	default:
		return domain.SensitivityLow
	}
}
