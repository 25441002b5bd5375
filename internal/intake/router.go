package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"shelver/internal/auth"
	"shelver/internal/catalog"
	"shelver/internal/chat"
	"shelver/internal/library"
	"shelver/internal/logging"
	"shelver/internal/queue"
)

// Catalog is the slice of the series/episode store the conversation needs.
type Catalog interface {
	AddSeries(ctx context.Context, name, directory string) (int64, error)
	AddEpisode(ctx context.Context, seriesID int64, season, episode int, filePath string) (int64, error)
	ListSeries(ctx context.Context) ([]catalog.Series, error)
	ListSeasons(ctx context.Context, seriesID int64) ([]int, error)
}

// Queue admits completed jobs and answers status queries.
type Queue interface {
	Enqueue(job *queue.Job) error
	Status() queue.Status
}

const (
	promptFilename      = "What filename should I use? Include the extension (e.g. show.mkv)."
	promptCategory      = "Is this a movie or a TV show?"
	promptMovieDir      = "Which directory under the movies library should it go in?"
	promptTvBranch      = "Is this a new series or an existing one?"
	promptSeriesName    = "What is the series name?"
	promptSeasonEpisode = "Send the season and episode as \"season,episode\" (e.g. 1,13)."
	promptEpisode       = "Which episode number?"
)

const (
	callbackMovie        = "category:movie"
	callbackTV           = "category:tv"
	callbackNewSeries    = "tv:new"
	callbackExisting     = "tv:existing"
	callbackSeriesNext   = "series:next"
	callbackSeriesSelect = "series:select"
	callbackNewSeason    = "season:new"
	seasonCallbackPrefix = "season:"
)

// Router owns one conversation per submitter chat and dispatches inbound
// updates to it. Every turn passes the authorization guard first.
type Router struct {
	messenger chat.Messenger
	catalog   Catalog
	approved  *auth.Approved
	pool      Queue
	tvDir     string
	logger    *slog.Logger

	mu       sync.Mutex
	sessions map[int64]*session
}

// NewRouter wires the conversation against its collaborators. tvDir is the
// television library root; new series directories are created beneath it.
func NewRouter(messenger chat.Messenger, cat Catalog, approved *auth.Approved, pool Queue, tvDir string, logger *slog.Logger) *Router {
	return &Router{
		messenger: messenger,
		catalog:   cat,
		approved:  approved,
		pool:      pool,
		tvDir:     tvDir,
		logger:    logging.WithComponent(logger, "intake"),
		sessions:  make(map[int64]*session),
	}
}

// HandleUpdate processes one conversation turn.
func (r *Router) HandleUpdate(ctx context.Context, update chat.Update) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.approved.Allowed(update.ChatID) {
		delete(r.sessions, update.ChatID)
		r.logger.Warn("rejected unapproved submitter", logging.Int64(logging.FieldSubmitter, update.ChatID))
		r.send(ctx, update.ChatID, "You are not on the approved list for this bot.", nil)
		return
	}

	switch update.Command {
	case "":
	case "cancel":
		r.handleCancel(ctx, update.ChatID)
		return
	case "status":
		r.handleStatus(ctx, update.ChatID)
		return
	case "start", "help":
		r.send(ctx, update.ChatID, "Send me a video file and I'll shelve it in the library. /status shows running jobs, /cancel aborts the current conversation.", nil)
		return
	default:
		r.send(ctx, update.ChatID, fmt.Sprintf("Unknown command /%s.", update.Command), nil)
		return
	}

	if update.Media != nil {
		r.startSession(ctx, update)
		return
	}

	sess, ok := r.sessions[update.ChatID]
	if !ok {
		if strings.TrimSpace(update.Text) != "" || update.Callback != "" {
			r.send(ctx, update.ChatID, "Send me a video file to get started.", nil)
		}
		return
	}

	if update.Callback != "" {
		r.handleCallback(ctx, sess, update)
		return
	}
	if strings.TrimSpace(update.Text) != "" {
		r.handleText(ctx, sess, update)
	}
}

// startSession begins a fresh conversation for a received file, replacing
// any conversation already in flight for the chat.
func (r *Router) startSession(ctx context.Context, update chat.Update) {
	media := update.Media
	job := queue.NewJob(update.ChatID, update.MessageID, media.FileID, media.FileName, media.MimeType)
	sess := &session{job: job}
	r.sessions[update.ChatID] = sess

	r.logger.Info("intake started",
		logging.Int64(logging.FieldJobID, job.ID),
		logging.Int64(logging.FieldSubmitter, update.ChatID),
		logging.String("filename", media.FileName))

	if strings.TrimSpace(media.FileName) != "" {
		job.DesiredFilename = strings.TrimSpace(media.FileName)
		sess.state = StateAwaitingCategory
		r.send(ctx, update.ChatID, fmt.Sprintf("Got %s. %s", job.DesiredFilename, promptCategory), categoryKeyboard())
		return
	}
	sess.state = StateAwaitingFilename
	r.send(ctx, update.ChatID, "Got your file. "+promptFilename, nil)
}

// handleText dispatches free-text replies. Invalid input re-prompts the same
// state and never mutates the job.
func (r *Router) handleText(ctx context.Context, sess *session, update chat.Update) {
	text := strings.TrimSpace(update.Text)
	chatID := update.ChatID

	switch sess.state {
	case StateAwaitingFilename:
		if text == "" {
			r.send(ctx, chatID, promptFilename, nil)
			return
		}
		sess.job.DesiredFilename = text
		sess.state = StateAwaitingCategory
		r.send(ctx, chatID, promptCategory, categoryKeyboard())

	case StateAwaitingMovieDirectory:
		if text == "" {
			r.send(ctx, chatID, promptMovieDir, nil)
			return
		}
		sess.job.MovieDirectory = text
		r.finish(ctx, sess)

	case StateAwaitingNewSeriesName:
		if text == "" {
			r.send(ctx, chatID, promptSeriesName, nil)
			return
		}
		r.createSeries(ctx, sess, text)

	case StateAwaitingSeasonEpisode:
		season, episode, err := parseSeasonEpisode(text)
		if err != nil {
			r.send(ctx, chatID, fmt.Sprintf("I couldn't read that (%v). %s", err, promptSeasonEpisode), nil)
			return
		}
		sess.job.Season = season
		sess.job.Episode = episode
		r.finish(ctx, sess)

	case StateAwaitingExistingEpisode:
		episode, err := parsePositive(text)
		if err != nil {
			r.send(ctx, chatID, fmt.Sprintf("I couldn't read that (%v). %s", err, promptEpisode), nil)
			return
		}
		sess.job.Episode = episode
		r.finish(ctx, sess)

	default:
		r.send(ctx, chatID, "Please use the buttons above.", nil)
	}
}

// handleCallback dispatches inline-keyboard presses.
func (r *Router) handleCallback(ctx context.Context, sess *session, update chat.Update) {
	chatID := update.ChatID

	switch sess.state {
	case StateAwaitingCategory:
		switch update.Callback {
		case callbackMovie:
			sess.job.Category = queue.CategoryMovie
			sess.state = StateAwaitingMovieDirectory
			r.send(ctx, chatID, promptMovieDir, nil)
		case callbackTV:
			sess.job.Category = queue.CategoryTV
			sess.state = StateAwaitingTvNewOrExisting
			r.send(ctx, chatID, promptTvBranch, chat.Row(
				chat.Button{Text: "New Series", Data: callbackNewSeries},
				chat.Button{Text: "Existing Series", Data: callbackExisting},
			))
		}

	case StateAwaitingTvNewOrExisting:
		switch update.Callback {
		case callbackNewSeries:
			sess.state = StateAwaitingNewSeriesName
			r.send(ctx, chatID, promptSeriesName, nil)
		case callbackExisting:
			r.beginSeriesChoice(ctx, sess, chatID)
		}

	case StateAwaitingExistingSeriesChoice:
		switch update.Callback {
		case callbackSeriesNext:
			sess.advance()
			text, keyboard := seriesPrompt(sess)
			if err := r.messenger.EditMessage(ctx, chatID, sess.promptID, text, keyboard); err != nil {
				r.logger.Warn("series prompt edit failed", logging.Error(err))
			}
		case callbackSeriesSelect:
			r.selectSeries(ctx, sess, chatID)
		}

	case StateAwaitingExistingSeason:
		if update.Callback == callbackNewSeason {
			sess.state = StateAwaitingSeasonEpisode
			r.send(ctx, chatID, promptSeasonEpisode, nil)
			return
		}
		if season, err := parsePositive(strings.TrimPrefix(update.Callback, seasonCallbackPrefix)); err == nil {
			sess.job.Season = season
			sess.state = StateAwaitingExistingEpisode
			r.send(ctx, chatID, promptEpisode, nil)
		}
	}
}

// createSeries inserts the catalog row, creates the series directory on
// disk, and moves on to season/episode collection. Failure keeps the state
// so the submitter can retry.
func (r *Router) createSeries(ctx context.Context, sess *session, name string) {
	chatID := sess.job.ChatID
	directory := filepath.Join(r.tvDir, library.CleanComponent(name))

	id, err := r.catalog.AddSeries(ctx, name, directory)
	if err != nil {
		r.logger.Error("series creation failed", logging.Error(err))
		r.send(ctx, chatID, "I couldn't record that series. "+promptSeriesName, nil)
		return
	}
	if err := os.MkdirAll(directory, 0o755); err != nil {
		r.logger.Warn("series directory creation failed",
			logging.String("directory", directory), logging.Error(err))
	}

	sess.job.SeriesID = id
	sess.job.SeriesName = name
	sess.job.SeriesDirectory = directory
	sess.state = StateAwaitingSeasonEpisode
	r.send(ctx, chatID, promptSeasonEpisode, nil)
}

// beginSeriesChoice snapshots the catalog listing and starts pagination. An
// empty catalog reroutes to the new-series flow.
func (r *Router) beginSeriesChoice(ctx context.Context, sess *session, chatID int64) {
	series, err := r.catalog.ListSeries(ctx)
	if err != nil {
		r.logger.Error("series listing failed", logging.Error(err))
		r.send(ctx, chatID, "I couldn't read the series catalog, try again.", nil)
		return
	}
	if len(series) == 0 {
		sess.state = StateAwaitingNewSeriesName
		r.send(ctx, chatID, "There are no series in the catalog yet, so let's create one. "+promptSeriesName, nil)
		return
	}

	sess.series = series
	sess.cursor = 0
	sess.state = StateAwaitingExistingSeriesChoice
	text, keyboard := seriesPrompt(sess)
	sess.promptID = r.send(ctx, chatID, text, keyboard)
}

// selectSeries binds the series under the cursor to the job and offers the
// known seasons. Zero known seasons reroutes to combined season/episode
// input.
func (r *Router) selectSeries(ctx context.Context, sess *session, chatID int64) {
	chosen := sess.currentSeries()
	sess.job.SeriesID = chosen.ID
	sess.job.SeriesName = chosen.Name
	sess.job.SeriesDirectory = chosen.Directory

	seasons, err := r.catalog.ListSeasons(ctx, chosen.ID)
	if err != nil {
		r.logger.Error("season listing failed", logging.Error(err))
		r.send(ctx, chatID, "I couldn't read the season list, try again.", nil)
		return
	}
	if len(seasons) == 0 {
		sess.state = StateAwaitingSeasonEpisode
		r.send(ctx, chatID, fmt.Sprintf("No episodes recorded for %s yet. %s", chosen.Name, promptSeasonEpisode), nil)
		return
	}

	sess.state = StateAwaitingExistingSeason
	r.send(ctx, chatID, fmt.Sprintf("Pick a season for %s.", chosen.Name), seasonsKeyboard(seasons))
}

// finish records the episode row for tv jobs, hands the job to the pool, and
// ends the conversation.
func (r *Router) finish(ctx context.Context, sess *session) {
	job := sess.job
	chatID := job.ChatID
	defer delete(r.sessions, chatID)

	if job.Category == queue.CategoryTV {
		if _, err := r.catalog.AddEpisode(ctx, job.SeriesID, job.Season, job.Episode, ""); err != nil {
			r.logger.Error("episode creation failed",
				logging.Int64(logging.FieldJobID, job.ID), logging.Error(err))
			r.send(ctx, chatID, "I couldn't record the episode; nothing was queued.", nil)
			return
		}
	}

	if err := r.pool.Enqueue(job); err != nil {
		r.logger.Error("enqueue failed",
			logging.Int64(logging.FieldJobID, job.ID), logging.Error(err))
		if errors.Is(err, queue.ErrQueueFull) {
			r.send(ctx, chatID, "The queue is full right now, send the file again in a bit.", nil)
			return
		}
		r.send(ctx, chatID, "I couldn't queue that file: "+err.Error(), nil)
		return
	}

	r.send(ctx, chatID, fmt.Sprintf("Queued %s for download (job %d). I'll message you when it's shelved.", job.DesiredFilename, job.ID), nil)
}

func (r *Router) handleCancel(ctx context.Context, chatID int64) {
	if _, ok := r.sessions[chatID]; !ok {
		r.send(ctx, chatID, "Nothing to cancel.", nil)
		return
	}
	delete(r.sessions, chatID)
	r.send(ctx, chatID, "Cancelled. Nothing was queued.", nil)
}

func (r *Router) handleStatus(ctx context.Context, chatID int64) {
	status := r.pool.Status()
	if len(status.Active) == 0 && status.Queued == 0 {
		r.send(ctx, chatID, "Idle. No active or queued jobs.", nil)
		return
	}

	var b strings.Builder
	if len(status.Active) > 0 {
		b.WriteString("Active jobs:\n")
		for _, active := range status.Active {
			fmt.Fprintf(&b, "  #%d: %d%%\n", active.JobID, active.Percent)
		}
	}
	fmt.Fprintf(&b, "Queued: %d", status.Queued)
	r.send(ctx, chatID, b.String(), nil)
}

// send delivers a message, logging rather than surfacing transport failures.
func (r *Router) send(ctx context.Context, chatID int64, text string, keyboard chat.Keyboard) int {
	id, err := r.messenger.SendMessage(ctx, chatID, text, keyboard)
	if err != nil {
		r.logger.Warn("message send failed",
			logging.Int64(logging.FieldSubmitter, chatID), logging.Error(err))
	}
	return id
}

func categoryKeyboard() chat.Keyboard {
	return chat.Row(
		chat.Button{Text: "Movie", Data: callbackMovie},
		chat.Button{Text: "TV Show", Data: callbackTV},
	)
}

// seriesPrompt renders one page of the circular series listing. A single
// known series offers only Select.
func seriesPrompt(sess *session) (string, chat.Keyboard) {
	current := sess.currentSeries()
	text := fmt.Sprintf("Series %d of %d: %s", sess.cursor+1, len(sess.series), current.Name)

	buttons := []chat.Button{{Text: "Select", Data: callbackSeriesSelect}}
	if len(sess.series) > 1 {
		buttons = append(buttons, chat.Button{Text: "Next", Data: callbackSeriesNext})
	}
	return text, chat.Row(buttons...)
}

// seasonsKeyboard lays out known seasons four to a row with a trailing
// "New Season" row.
func seasonsKeyboard(seasons []int) chat.Keyboard {
	var keyboard chat.Keyboard
	var row []chat.Button
	for _, season := range seasons {
		row = append(row, chat.Button{
			Text: fmt.Sprintf("Season %d", season),
			Data: fmt.Sprintf("%s%d", seasonCallbackPrefix, season),
		})
		if len(row) == 4 {
			keyboard = append(keyboard, row)
			row = nil
		}
	}
	if len(row) > 0 {
		keyboard = append(keyboard, row)
	}
	keyboard = append(keyboard, []chat.Button{{Text: "New Season", Data: callbackNewSeason}})
	return keyboard
}
