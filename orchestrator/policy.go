package orchestrator

import (
	"github.com/aluiziolira/go-scrape-artists/config"
	"github.com/aluiziolira/go-scrape-artists/models"
)

// SufficiencyRule is the escalation threshold, loaded from config.
type SufficiencyRule = config.Sufficiency

// Sufficient reports whether data is good enough to skip browser
// escalation under rule. Any single satisfied signal is enough.
func Sufficient(data *models.ScrapedArtistData, rule SufficiencyRule) bool {
	if data == nil {
		return false
	}
	if rule.MinListings > 0 && len(data.Listings) >= rule.MinListings {
		return true
	}
	if rule.MinCvEntries > 0 && len(data.CvEntries) >= rule.MinCvEntries {
		return true
	}
	return rule.BioCounts && data.Bio != nil
}

// PickBetter returns the record with more signal. The candidate b wins only
// when it is strictly better, so ties keep a.
//
// Records are compared first by how many of the three signals (listings,
// CV entries, bio) are present, then by listings plus CV entries, then by
// pages visited.
func PickBetter(a, b *models.ScrapedArtistData) *models.ScrapedArtistData {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	sa, sb := signals(a), signals(b)
	if sb != sa {
		if sb > sa {
			return b
		}
		return a
	}
	ia, ib := len(a.Listings)+len(a.CvEntries), len(b.Listings)+len(b.CvEntries)
	if ib != ia {
		if ib > ia {
			return b
		}
		return a
	}
	if len(b.PagesVisited) > len(a.PagesVisited) {
		return b
	}
	return a
}

func signals(d *models.ScrapedArtistData) int {
	n := 0
	if len(d.Listings) > 0 {
		n++
	}
	if len(d.CvEntries) > 0 {
		n++
	}
	if d.Bio != nil {
		n++
	}
	return n
}
