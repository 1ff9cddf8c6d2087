package domain

import (
	"sort"
)

// PlayCount records how often a track was played.
type PlayCount struct {
	Track Track `json:"track"`
	Count int   `json:"count"`
}

// ListeningStats summarises a user's play counts.
type ListeningStats struct {
	TotalPlays   int            `json:"totalPlays"`
	UniqueSongs  int            `json:"uniqueSongs"`
	TopArtist    string         `json:"topArtist,omitempty"`
	TopMood      string         `json:"topMood,omitempty"`
	MostPlayed   *PlayCount     `json:"mostPlayed,omitempty"`
	MoodCounts   map[string]int `json:"moodCounts"`
	ArtistCounts map[string]int `json:"artistCounts"`
}

// ComputeStats aggregates play counts per artist and mood.
// Ties are broken alphabetically so the result is deterministic.
func ComputeStats(counts map[string]PlayCount) ListeningStats {
	stats := ListeningStats{
		MoodCounts:   make(map[string]int),
		ArtistCounts: make(map[string]int),
	}

	ids := make([]string, 0, len(counts))
	for id, pc := range counts {
		if pc.Count <= 0 {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		pc := counts[id]
		stats.TotalPlays += pc.Count
		stats.UniqueSongs++

		if pc.Track.Mood != "" {
			stats.MoodCounts[pc.Track.Mood] += pc.Count
		}
		if pc.Track.Artist != "" {
			stats.ArtistCounts[pc.Track.Artist] += pc.Count
		}

		if stats.MostPlayed == nil || pc.Count > stats.MostPlayed.Count {
			most := pc
			stats.MostPlayed = &most
		}
	}

	stats.TopArtist = topKey(stats.ArtistCounts)
	stats.TopMood = topKey(stats.MoodCounts)

	return stats
}

func topKey(m map[string]int) string {
	best, bestCount := "", 0
	for k, v := range m {
		if v > bestCount || (v == bestCount && k < best) {
			best, bestCount = k, v
		}
	}
	return best
}
