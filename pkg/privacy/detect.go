package privacy

import (
	"strings"

	"github.com/corepath/partner/pkg/domain"
)

// Detection is one PII span found in a piece of text.
type Detection struct {
	Kind        domain.PIIKind     `json:"kind"`
	Text        string             `json:"text"`
	Start       int                `json:"start"`
	End         int                `json:"end"`
	Confidence  float64            `json:"confidence"`
	Sensitivity domain.Sensitivity `json:"sensitivity"`
}

// Detect scans text for every recognized PII kind: the five regex patterns
// at full confidence, plus the remaining spec.md kinds via a lower-
// confidence keyword heuristic. Results are ordered by start offset.
func (s *Service) Detect(text string) []Detection {
	var out []Detection

	for _, p := range builtinPatterns {
		for _, loc := range p.Regex.FindAllStringIndex(text, -1) {
			out = append(out, Detection{
				Kind:        p.Kind,
				Text:        text[loc[0]:loc[1]],
				Start:       loc[0],
				End:         loc[1],
				Confidence:  p.Confidence,
				Sensitivity: p.Sensitivity,
			})
		}
	}

	lower := strings.ToLower(text)
	for kind, keywords := range heuristicKeywords {
		for _, kw := range keywords {
			idx := strings.Index(lower, kw)
			if idx < 0 {
				continue
			}
			end := idx + len(kw)
			out = append(out, Detection{
				Kind:        kind,
				Text:        text[idx:end],
				Start:       idx,
				End:         end,
				Confidence:  0.5,
				Sensitivity: heuristicSensitivity(kind),
			})
		}
	}

	sortDetections(out)
	return out
}

func sortDetections(d []Detection) {
	for i := 1; i < len(d); i++ {
		for j := i; j > 0 && d[j-1].Start > d[j].Start; j-- {
			d[j-1], d[j] = d[j], d[j-1]
		}
	}
}
