package intake

import (
	"shelver/internal/catalog"
	"shelver/internal/queue"
)

// State identifies the conversation step awaiting input.
type State int

const (
	StateAwaitingFilename State = iota
	StateAwaitingCategory
	StateAwaitingMovieDirectory
	StateAwaitingTvNewOrExisting
	StateAwaitingNewSeriesName
	StateAwaitingSeasonEpisode
	StateAwaitingExistingSeriesChoice
	StateAwaitingExistingSeason
	StateAwaitingExistingEpisode
)

// session is one in-flight conversation. It owns its job exclusively until
// enqueue; the router serializes access per chat.
type session struct {
	state State
	job   *queue.Job

	// Series pagination snapshot, taken when the submitter picks
	// "existing series" so the listing stays stable while they browse.
	series   []catalog.Series
	cursor   int
	promptID int
}

// currentSeries returns the series under the pagination cursor.
func (s *session) currentSeries() catalog.Series {
	return s.series[s.cursor]
}

// advance moves the cursor circularly past the last entry back to the first.
func (s *session) advance() {
	s.cursor = (s.cursor + 1) % len(s.series)
}
