// Package auth loads the approved-submitter set and gates every inbound
// conversation turn on it.
package auth

import (
	"bufio"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"shelver/internal/logging"
)

// Approved is the set of submitter identities allowed to use the bot.
type Approved struct {
	mu  sync.RWMutex
	ids map[int64]struct{}
}

// Load reads approved user ids from a line-oriented file. Blank lines and
// lines starting with '#' are ignored; non-integer lines are logged and
// skipped. A missing file yields an empty set (nobody approved) with a
// warning, matching fail-closed semantics.
func Load(path string, logger *slog.Logger) (*Approved, error) {
	logger = logging.WithComponent(logger, "auth")
	approved := &Approved{ids: make(map[int64]struct{})}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("approved users file not found; no submitter is approved", logging.String("path", path))
			return approved, nil
		}
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		id, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			logger.Warn("invalid user id in approved users file", logging.String("line", line))
			continue
		}
		approved.ids[id] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	logger.Info("approved users loaded", logging.Int("count", len(approved.ids)))
	return approved, nil
}

// Allowed reports whether the submitter identity is approved.
func (a *Approved) Allowed(id int64) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.ids[id]
	return ok
}

// Count returns the number of approved submitters.
func (a *Approved) Count() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.ids)
}

// IDs returns the approved identities in unspecified order.
func (a *Approved) IDs() []int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]int64, 0, len(a.ids))
	for id := range a.ids {
		out = append(out, id)
	}
	return out
}
