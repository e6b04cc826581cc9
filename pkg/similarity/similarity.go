// Package similarity scores how alike two package profiles are on a 0-100 scale.
package similarity

import (
	"math"

	"github.com/toyinlola/pkgrisk/pkg/catalog"
	"github.com/toyinlola/pkgrisk/pkg/interfaces"
)

// Component weights and bonuses.
const (
	KeywordWeight   = 0.6
	NameWeight      = 0.25
	DownloadWeight  = 0.1
	LicenseBonus    = 15.0
	SourceHostBonus = 10.0
	MaxScore        = 100.0
)

// Score returns the similarity of candidate b to subject a in [0,100],
// rounded to one decimal. It is symmetric except for the source-host bonus,
// which only looks at b.
func Score(a, b interfaces.PackageProfile) float64 {
	s := KeywordWeight * Jaccard(a.Keywords, b.Keywords) * 100
	s += NameWeight * NameRatio(a.Name, b.Name) * 100

	if a.LicenseID != "" && a.LicenseID == b.LicenseID && a.LicenseID != interfaces.UnknownLicenseID {
		s += LicenseBonus
	}
	if a.Downloads != nil && b.Downloads != nil {
		s += DownloadWeight * DownloadRatio(*a.Downloads, *b.Downloads) * 100
	}
	if b.HasSourceHost {
		s += SourceHostBonus
	}

	s = math.Round(s*10) / 10
	return math.Max(0, math.Min(MaxScore, s))
}

// Jaccard returns |A∩B| / |A∪B| of two string sets. Two empty sets score 0.
func Jaccard(a, b []string) float64 {
	setA := make(map[string]struct{}, len(a))
	for _, s := range a {
		setA[s] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, s := range b {
		setB[s] = struct{}{}
	}

	union := len(setA)
	inter := 0
	for s := range setB {
		if _, ok := setA[s]; ok {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// NameRatio returns LCS(a, b) / max(len(a), len(b)) over normalized names.
func NameRatio(a, b string) float64 {
	ra := []rune(catalog.NormalizeName(a))
	rb := []rune(catalog.NormalizeName(b))
	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 0
	}
	return float64(LCS(ra, rb)) / float64(longest)
}

// LCS returns the length of the longest common subsequence of a and b.
func LCS(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// DownloadRatio returns min/max of two download counts, 0 when either is non-positive.
func DownloadRatio(a, b int64) float64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	return float64(min(a, b)) / float64(max(a, b))
}
