package catalog

import "time"

// Series is one known TV series. Immutable once created; the directory is
// created on disk at the moment the row is inserted.
type Series struct {
	ID        int64
	Name      string
	Directory string
	CreatedAt time.Time
}

// Episode is one accepted season/episode pair for a series. Duplicate
// season/episode pairs are legal and produce distinct rows; callers wanting
// uniqueness must check Seasons/episode queries themselves.
type Episode struct {
	ID        int64
	SeriesID  int64
	Season    int
	Episode   int
	FilePath  string
	CreatedAt time.Time
}
