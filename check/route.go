package check

import (
	"sort"
	"strings"

	"github.com/omlkit/oml"
	"github.com/omlkit/oml/playbook"
)

// Confidence levels for routing recommendations.
const (
	// confidenceFloor bounds explicit routing entries from below.
	confidenceFloor = 60

	// confidenceAllowed is assigned to files that allow the type without
	// routing it.
	confidenceAllowed = 50

	// confidenceWildcard is assigned to files whose allowed types match
	// the type only through a wildcard entry.
	confidenceWildcard = 30

	// confidenceFallback is assigned to the naming-convention guess made
	// when no schema exists at all.
	confidenceFallback = 25
)

// Recommendation is one candidate placement for a new instance.
type Recommendation struct {
	// File is the recommended description file.
	File string

	// Confidence is a score from 0 to 100.
	Confidence int

	// Priority is the explicit routing priority, 0 when unrouted.
	Priority int

	Reason string
}

// RouteInstance ranks candidate description files for placing a new instance
// of the given canonical type.
//
// An explicit routing entry scores 100-(priority-1)*10, floored; a file that
// allows the type without routing it scores a fixed mid confidence; a file
// matching only through a wildcard scores low. Files that do not allow the
// type are excluded. When the playbook has no schemas at all, a single
// naming-convention guess is returned instead of nothing.
func RouteInstance(typeName string, pb *playbook.Playbook) []Recommendation {
	if pb == nil || len(pb.Schemas) == 0 {
		return []Recommendation{fallbackRecommendation(typeName)}
	}

	var recs []Recommendation

	for file, schema := range pb.Schemas {
		if entry, ok := schema.RoutingFor(typeName); ok {
			confidence := 100 - (entry.Priority-1)*10
			if confidence < confidenceFloor {
				confidence = confidenceFloor
			}

			recs = append(recs, Recommendation{
				File:       file,
				Confidence: confidence,
				Priority:   entry.Priority,
				Reason:     "explicit routing entry",
			})

			continue
		}

		exact, wildcard := allowedMatch(schema, typeName)

		switch {
		case exact:
			recs = append(recs, Recommendation{
				File:       file,
				Confidence: confidenceAllowed,
				Reason:     "type allowed",
			})
		case wildcard:
			recs = append(recs, Recommendation{
				File:       file,
				Confidence: confidenceWildcard,
				Reason:     "matches allowed pattern",
			})
		}
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Confidence != recs[j].Confidence {
			return recs[i].Confidence > recs[j].Confidence
		}

		if pi, pj := effectivePriority(recs[i]), effectivePriority(recs[j]); pi != pj {
			return pi < pj
		}

		return recs[i].File < recs[j].File
	})

	return recs
}

// allowedMatch reports whether the schema allows the type exactly or only
// through a wildcard entry.
func allowedMatch(schema *playbook.DescriptionSchema, typeName string) (exact, wildcard bool) {
	for _, allowed := range schema.AllowedTypes {
		if allowed == typeName {
			return true, false
		}

		if strings.Contains(allowed, "*") && matchPattern(allowed, typeName) {
			wildcard = true
		}
	}

	return false, wildcard
}

// effectivePriority treats unrouted recommendations as lowest priority.
func effectivePriority(r Recommendation) int {
	if r.Priority == 0 {
		return int(^uint(0) >> 1)
	}

	return r.Priority
}

// fallbackRecommendation guesses a file name from the type's local name:
// "component:Component" becomes "components.oml".
func fallbackRecommendation(typeName string) Recommendation {
	stem := strings.ToLower(oml.LocalName(typeName))
	if !strings.HasSuffix(stem, "s") {
		stem += "s"
	}

	return Recommendation{
		File:       stem + ".oml",
		Confidence: confidenceFallback,
		Reason:     "naming convention",
	}
}
