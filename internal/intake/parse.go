package intake

import (
	"fmt"
	"strconv"
	"strings"
)

// parseSeasonEpisode parses the combined "season,episode" reply. Surrounding
// whitespace is trimmed on both sides of the comma; both numbers must be
// positive integers.
func parseSeasonEpisode(input string) (season, episode int, err error) {
	parts := strings.Split(input, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected \"season,episode\", got %q", strings.TrimSpace(input))
	}
	season, err = parsePositive(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("season: %w", err)
	}
	episode, err = parsePositive(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("episode: %w", err)
	}
	return season, episode, nil
}

func parsePositive(input string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", strings.TrimSpace(input))
	}
	if value <= 0 {
		return 0, fmt.Errorf("%d is not positive", value)
	}
	return value, nil
}
