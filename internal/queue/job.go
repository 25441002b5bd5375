package queue

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"
)

// Category classifies where a job's file belongs in the library.
type Category string

const (
	CategoryMovie Category = "movie"
	CategoryTV    Category = "tv"
)

// jobSeq issues process-unique job identifiers. Seeding with the startup
// time keeps identifiers distinguishable across restarts in logs and
// scratch-file names.
var jobSeq atomic.Int64

func init() {
	jobSeq.Store(time.Now().Unix() << 16)
}

// Job is the unit of work: one submitted file plus all metadata needed to
// place (and optionally remux) it. A Job is owned exclusively by its intake
// conversation until Enqueue; ownership transfers to the pool thereafter.
type Job struct {
	ID        int64
	ChatID    int64
	MessageID int
	FileID    string

	OriginalFilename string
	MimeType         string
	DesiredFilename  string

	Category Category

	// Movie variant.
	MovieDirectory string

	// TV variant. SeriesID is zero for a series created during this intake
	// before the catalog row exists.
	SeriesID        int64
	SeriesName      string
	SeriesDirectory string
	Season          int
	Episode         int

	CreatedAt time.Time

	queued atomic.Bool
}

// NewJob creates an empty job for a freshly received file.
func NewJob(chatID int64, messageID int, fileID, originalFilename, mimeType string) *Job {
	return &Job{
		ID:               jobSeq.Add(1),
		ChatID:           chatID,
		MessageID:        messageID,
		FileID:           fileID,
		OriginalFilename: originalFilename,
		MimeType:         mimeType,
		CreatedAt:        time.Now().UTC(),
	}
}

var mimeExtensions = map[string]string{
	"video/mp4":         ".mp4",
	"video/x-matroska":  ".mkv",
	"video/quicktime":   ".mov",
	"video/x-msvideo":   ".avi",
	"video/webm":        ".webm",
	"video/mpeg":        ".mpg",
	"application/x-mkv": ".mkv",
}

// Extension infers the file extension for scratch downloads: desired
// filename first, then the original filename, then the mime type, defaulting
// to .mp4.
func (j *Job) Extension() string {
	for _, name := range []string{j.DesiredFilename, j.OriginalFilename} {
		if ext := filepath.Ext(strings.TrimSpace(name)); ext != "" {
			return ext
		}
	}
	if ext, ok := mimeExtensions[strings.ToLower(strings.TrimSpace(j.MimeType))]; ok {
		return ext
	}
	return ".mp4"
}

// Validate reports whether the job carries every field its category requires
// for enqueue.
func (j *Job) Validate() error {
	if j.ChatID == 0 || j.FileID == "" {
		return errors.New("job missing source reference")
	}
	if strings.TrimSpace(j.DesiredFilename) == "" {
		return errors.New("job missing desired filename")
	}
	switch j.Category {
	case CategoryMovie:
		if strings.TrimSpace(j.MovieDirectory) == "" {
			return errors.New("movie job missing directory")
		}
	case CategoryTV:
		if strings.TrimSpace(j.SeriesName) == "" {
			return errors.New("tv job missing series name")
		}
		if j.Season <= 0 || j.Episode <= 0 {
			return fmt.Errorf("tv job has invalid season/episode %d/%d", j.Season, j.Episode)
		}
	default:
		return fmt.Errorf("job has unknown category %q", j.Category)
	}
	return nil
}

// markQueued flips the enqueue guard, reporting false when the job was
// already admitted.
func (j *Job) markQueued() bool {
	return j.queued.CompareAndSwap(false, true)
}
