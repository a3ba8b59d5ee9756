// Package matcher implements entity resolution for extracted report lines:
// the production rules for manual reassignment of a payment line to a
// database client/loan, and a fuzzy candidate ranker that suggests likely
// clients for an unmatched or badly matched name.
//
// Resolution during initial extraction happens outside this module; what
// lives here is everything the reviewing operator can trigger:
//  1. Candidate retrieval over the client directory (n-gram closest match)
//  2. Similarity scoring (Levenshtein) mapped onto confidence tiers
//  3. Validated manual assignment, which always yields alta/manual
//
// Example usage:
//
//	ranker, err := matcher.NewRanker(directory, matcher.DefaultConfig())
//	suggestions := ranker.Rank("MARIA LOPES", 5)
//
//	match, err := matcher.ResolveManual(suggestions[0].Candidate)
//	// feed match into the edit overlay via the review session
package matcher

import "fmt"

// Config holds the thresholds and retrieval parameters of the candidate
// ranker. Scores are similarities in [0,1]; a score below BajaThreshold is
// not suggested at all.
type Config struct {
	// AltaThreshold is the minimum similarity for an alta-tier suggestion.
	AltaThreshold float64
	// MediaThreshold is the minimum similarity for a media-tier suggestion.
	MediaThreshold float64
	// BajaThreshold is the minimum similarity for any suggestion.
	BajaThreshold float64
	// MaxCandidates caps how many directory entries are retrieved per query.
	MaxCandidates int
	// SubsetSizes are the n-gram sizes of the closest-match index.
	SubsetSizes []int
}

// DefaultConfig returns the ranker configuration tuned for OCR-mangled
// Spanish client names.
func DefaultConfig() *Config {
	return &Config{
		AltaThreshold:  0.92,
		MediaThreshold: 0.78,
		BajaThreshold:  0.55,
		MaxCandidates:  10,
		SubsetSizes:    []int{2, 3, 4},
	}
}

// StrictConfig returns a configuration that only surfaces near-exact names.
// Useful when the directory is large and homonyms are common.
func StrictConfig() *Config {
	return &Config{
		AltaThreshold:  0.97,
		MediaThreshold: 0.9,
		BajaThreshold:  0.8,
		MaxCandidates:  5,
		SubsetSizes:    []int{3, 4},
	}
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	if c.BajaThreshold < 0 || c.AltaThreshold > 1 {
		return fmt.Errorf("thresholds must lie in [0,1]")
	}
	if !(c.AltaThreshold >= c.MediaThreshold && c.MediaThreshold >= c.BajaThreshold) {
		return fmt.Errorf("thresholds must be ordered alta >= media >= baja")
	}
	if c.MaxCandidates <= 0 {
		return fmt.Errorf("max candidates must be positive, got %d", c.MaxCandidates)
	}
	if len(c.SubsetSizes) == 0 {
		return fmt.Errorf("at least one n-gram subset size is required")
	}
	for _, size := range c.SubsetSizes {
		if size <= 0 {
			return fmt.Errorf("invalid n-gram subset size %d", size)
		}
	}
	return nil
}

// Clone returns a deep copy of the configuration
func (c *Config) Clone() *Config {
	clone := *c
	clone.SubsetSizes = append([]int(nil), c.SubsetSizes...)
	return &clone
}
