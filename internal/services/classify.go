package services

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/desertthunder/ymde/internal/shared"
)

// unavailableMarkers are yt-dlp error fragments meaning the source will not resolve again.
var unavailableMarkers = []string{
	"video unavailable",
	"this video is not available",
	"this video has been removed",
	"has been removed by the uploader",
	"private video",
	"this video is private",
	"not available in your country",
	"uploader has not made this video available",
	"account associated with this video has been terminated",
	"who has blocked it",
	"copyright claim",
	"members-only content",
	"join this channel to get access",
	"sign in to confirm your age",
	"this live event will begin",
}

// ClassifyFetchError maps a yt-dlp failure to the engine's error taxonomy.
//
// stderr may be empty; the error text is inspected as well.
func ClassifyFetchError(ctx context.Context, err error, stderr string) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", shared.ErrCancelled, err)
	}
	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%w: yt-dlp: %v", shared.ErrToolMissing, err)
	}

	text := strings.ToLower(stderr + "\n" + err.Error())
	for _, m := range unavailableMarkers {
		if strings.Contains(text, m) {
			return fmt.Errorf("%w: %s", shared.ErrSourceUnavailable, lastErrorLine(stderr, err))
		}
	}
	return fmt.Errorf("%w: %s", shared.ErrFetchFailed, lastErrorLine(stderr, err))
}

// lastErrorLine picks the most useful single line for logs and reports.
func lastErrorLine(stderr string, err error) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); strings.HasPrefix(line, "ERROR:") {
			return strings.TrimSpace(strings.TrimPrefix(line, "ERROR:"))
		}
	}
	if last := strings.TrimSpace(lines[len(lines)-1]); last != "" {
		return last
	}
	return err.Error()
}
