package matcher

import (
	"fmt"
	"sort"
	"strings"

	"ocr-ledger-reconciliation/internal/models"

	"github.com/schollz/closestmatch"
	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// Ranker suggests client candidates for an extracted name. Retrieval uses an
// n-gram closest-match index over the directory; the retrieved entries are
// then re-scored with Levenshtein similarity, which is what the confidence
// tiers are derived from.
//
// The ranker only suggests. Assignment remains an explicit operator action
// through ResolveManual.
type Ranker struct {
	config    *Config
	index     *closestmatch.ClosestMatch
	byKey     map[string][]Candidate
	directory []Candidate
}

// RankedCandidate is one suggestion with its similarity score and the
// confidence tier that score maps to.
type RankedCandidate struct {
	Candidate  Candidate
	Score      float64
	Confidence models.MatchConfidence
}

// NewRanker builds a ranker over the given client directory
func NewRanker(directory []Candidate, config *Config) (*Ranker, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ranker configuration: %w", err)
	}

	byKey := make(map[string][]Candidate, len(directory))
	keys := make([]string, 0, len(directory))
	for _, entry := range directory {
		key := normalizeName(entry.Name)
		if key == "" {
			continue
		}
		if _, seen := byKey[key]; !seen {
			keys = append(keys, key)
		}
		byKey[key] = append(byKey[key], entry)
	}

	return &Ranker{
		config:    config.Clone(),
		index:     closestmatch.New(keys, config.SubsetSizes),
		byKey:     byKey,
		directory: directory,
	}, nil
}

// Rank returns up to limit candidates for the extracted name, strongest
// first. Names scoring below the baja threshold are omitted; an empty result
// means the operator should fall back to code or manual search.
func (r *Ranker) Rank(extractedName string, limit int) []RankedCandidate {
	query := normalizeName(extractedName)
	if query == "" || limit <= 0 {
		return nil
	}

	retrieved := r.index.ClosestN(query, r.config.MaxCandidates)

	var ranked []RankedCandidate
	for _, key := range retrieved {
		if key == "" {
			continue
		}
		score := similarity(query, key)
		tier := r.config.ConfidenceForScore(score)
		if tier == models.ConfidenceUnmatched {
			continue
		}
		for _, candidate := range r.byKey[key] {
			ranked = append(ranked, RankedCandidate{
				Candidate:  candidate,
				Score:      score,
				Confidence: tier,
			})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// Best returns the single strongest suggestion, or false when nothing clears
// the baja threshold.
func (r *Ranker) Best(extractedName string) (RankedCandidate, bool) {
	ranked := r.Rank(extractedName, 1)
	if len(ranked) == 0 {
		return RankedCandidate{}, false
	}
	return ranked[0], true
}

// Size returns the number of directory entries the ranker was built over
func (r *Ranker) Size() int {
	return len(r.directory)
}

// similarity converts Levenshtein distance into a [0,1] similarity
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}

	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 0.0
	}

	distance := levenshtein.DistanceForStrings([]rune(a), []rune(b), levenshtein.DefaultOptions)
	return 1.0 - float64(distance)/float64(longest)
}

// normalizeName folds case and collapses whitespace so OCR spacing noise
// does not defeat retrieval.
func normalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
