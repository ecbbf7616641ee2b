package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"

	"github.com/desertthunder/ymde/internal/models"
	"github.com/desertthunder/ymde/internal/services"
	"github.com/desertthunder/ymde/internal/shared"
)

// FavoriteClient is the media server API used by [MarkFavorites].
type FavoriteClient interface {
	CurrentUser(ctx context.Context) (string, error)
	AudioItems(ctx context.Context, userID string) ([]services.JellyfinItem, error)
	SearchItem(ctx context.Context, userID, term string) (*services.JellyfinItem, error)
	SetFavorite(ctx context.Context, userID, itemID string, favorite bool) error
}

// FavoriteTarget is one track to mark, matched by source id and then by search.
type FavoriteTarget struct {
	SourceID string
	Query    string
}

// FavoriteStats tallies a marking pass.
type FavoriteStats struct {
	Marked  int
	Missing int
	Failed  int
}

// TargetsFromSummary selects placed and skipped tracks of a run.
func TargetsFromSummary(s *models.Summary) []FavoriteTarget {
	var out []FavoriteTarget
	for _, p := range s.Playlists {
		for _, r := range p.Results {
			if r.Outcome == models.OutcomeFailed {
				continue
			}
			out = append(out, FavoriteTarget{SourceID: r.SourceID(), Query: r.Track.SearchQuery()})
		}
	}
	return uniqTargets(out)
}

// TargetsFromPlaylists selects every track of the given playlists.
func TargetsFromPlaylists(playlists []models.Playlist) []FavoriteTarget {
	var out []FavoriteTarget
	for _, pl := range playlists {
		for _, t := range pl.Tracks {
			out = append(out, FavoriteTarget{SourceID: t.SourceID, Query: t.SearchQuery()})
		}
	}
	return uniqTargets(out)
}

// TargetsFromEntries selects library entries that carry a source id.
func TargetsFromEntries(entries []models.LibraryEntry) []FavoriteTarget {
	out := lo.FilterMap(entries, func(e models.LibraryEntry, _ int) (FavoriteTarget, bool) {
		return FavoriteTarget{SourceID: e.SourceID}, e.SourceID != ""
	})
	return uniqTargets(out)
}

func uniqTargets(ts []FavoriteTarget) []FavoriteTarget {
	return lo.UniqBy(ts, func(t FavoriteTarget) string {
		if t.SourceID != "" {
			return t.SourceID
		}
		return shared.NormalizeText(t.Query)
	})
}

// MarkFavorites marks each target as a favorite on the media server.
//
// Items are matched by the bracketed id in their path, falling back to a text search.
// Per-item failures are logged and counted; only user or listing errors are returned.
func MarkFavorites(ctx context.Context, client FavoriteClient, targets []FavoriteTarget, logger *log.Logger) (FavoriteStats, error) {
	var stats FavoriteStats
	if len(targets) == 0 {
		return stats, nil
	}

	uid, err := client.CurrentUser(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to resolve media server user: %w", err)
	}

	items, err := client.AudioItems(ctx, uid)
	if err != nil {
		return stats, fmt.Errorf("failed to list media server items: %w", err)
	}
	byID := services.ItemsBySourceID(items)
	logger.Debug("media server items", "items", len(items), "with_id", len(byID))

	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("%w: %v", shared.ErrCancelled, err)
		}

		itemID, ok := byID[t.SourceID]
		if !ok && t.Query != "" {
			item, err := client.SearchItem(ctx, uid, t.Query)
			switch {
			case err == nil:
				itemID, ok = item.ID, true
			case !errors.Is(err, shared.ErrItemNotFound):
				logger.Warn("favorite search failed", "query", t.Query, "err", err)
			}
		}
		if !ok {
			stats.Missing++
			logger.Debug("no media server item", "id", t.SourceID, "query", t.Query)
			continue
		}

		if err := client.SetFavorite(ctx, uid, itemID, true); err != nil {
			stats.Failed++
			logger.Warn("failed to mark favorite", "id", t.SourceID, "item", itemID, "err", err)
			continue
		}
		stats.Marked++
	}

	logger.Info("favorites marked", "marked", stats.Marked, "missing", stats.Missing, "failed", stats.Failed)
	return stats, nil
}
