package library

import (
	"os"

	"shelver/internal/fileutil"
	"shelver/internal/services"
)

// Move relocates the downloaded scratch file to its final path. A missing
// scratch file is a hard placement failure, not a retry condition: it means
// retrieval silently produced nothing.
func Move(tempPath, finalPath string) error {
	if _, err := os.Stat(tempPath); err != nil {
		if os.IsNotExist(err) {
			return services.Wrap(services.ErrPlacement, "library", "move", "downloaded file not found at "+tempPath, nil)
		}
		return services.Wrap(services.ErrPlacement, "library", "stat scratch file", tempPath, err)
	}
	if err := fileutil.MoveFile(tempPath, finalPath); err != nil {
		return services.Wrap(services.ErrPlacement, "library", "move", "failed to move file into library", err)
	}
	return nil
}
