package gems

import "gemporter/internal/playlist"

// Batch is the raw output of fetching one playlist.
type Batch struct {
	PlaylistID string
	Tracks     []playlist.Track
}

// Result is everything a single pipeline run produces.
type Result struct {
	Config   Config
	Skips    []Skip
	Analysis Analysis
	Ranking  Ranking
}

// Run normalizes, scores, merges and ranks the given batches in one pass.
// Batches are processed in order, so earlier playlists win duplicates.
func Run(cfg Config, batches []Batch) Result {
	var (
		items []Sourced
		skips []Skip
	)
	for _, b := range batches {
		tracks, s := NormalizeBatch(b.PlaylistID, b.Tracks)
		skips = append(skips, s...)
		for _, t := range tracks {
			items = append(items, Sourced{PlaylistID: b.PlaylistID, Track: t})
		}
	}

	analysis := NewAnalyzer(NewAggregator(cfg)).Analyze(items)
	return Result{
		Config:   cfg,
		Skips:    skips,
		Analysis: analysis,
		Ranking:  Rank(analysis.Entries, cfg),
	}
}
