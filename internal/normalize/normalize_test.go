package normalize

import (
	"testing"

	"github.com/desertthunder/ymde/internal/models"
)

func TestStripSuffix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Road Trip-videos", "Road Trip"},
		{"Road Trip", "Road Trip"},
		{"Road Trip-videos-videos", "Road Trip-videos"},
		{"Road Trip-VIDEOS", "Road Trip-VIDEOS"},
		{"-videos", ""},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := StripSuffix(tc.in, "-videos"); got != tc.want {
				t.Errorf("StripSuffix(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}

	if got := StripSuffix("Road Trip-videos", ""); got != "Road Trip-videos" {
		t.Errorf("empty suffix should be a no-op, got %q", got)
	}
}

func TestRewriteURL(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		preferMusic bool
		want        string
	}{
		{"keeps url", "https://www.youtube.com/watch?v=aaaaaaaaaaa", false, "https://www.youtube.com/watch?v=aaaaaaaaaaa"},
		{"prefers music host", "https://www.youtube.com/watch?v=aaaaaaaaaaa&t=5", true, "https://music.youtube.com/watch?v=aaaaaaaaaaa"},
		{"short link to music host", "https://youtu.be/aaaaaaaaaaa", true, "https://music.youtube.com/watch?v=aaaaaaaaaaa"},
		{"builds missing url", "", false, "https://www.youtube.com/watch?v=aaaaaaaaaaa"},
		{"replaces mismatched url", "https://www.youtube.com/watch?v=bbbbbbbbbbb", false, "https://www.youtube.com/watch?v=aaaaaaaaaaa"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := RewriteURL(tc.raw, "aaaaaaaaaaa", tc.preferMusic); got != tc.want {
				t.Errorf("RewriteURL() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCleanText(t *testing.T) {
	tests := map[string]string{
		"  Song   Title \n": "Song Title",
		"Zero\u200bWidth":   "ZeroWidth",
		"Tab\tSeparated":    "Tab Separated",
		"":                  "",
	}
	for in, want := range tests {
		if got := CleanText(in); got != want {
			t.Errorf("CleanText(%q) = %q, want %q", in, got, want)
		}
	}

	if got := CleanArtist("Band - Topic"); got != "Band" {
		t.Errorf("CleanArtist() = %q, want Band", got)
	}
}

func TestNormalize(t *testing.T) {
	raw := []models.RawPlaylist{
		{
			Name: "Road Trip-videos",
			Entries: []models.RawEntry{
				{Title: "One", URL: "https://www.youtube.com/watch?v=aaaaaaaaaaa"},
				{Title: "No Source"},
				{Title: "Two", VideoID: "bbbbbbbbbbb", Artist: "Band - Topic"},
				{Title: "One again", VideoID: "aaaaaaaaaaa"},
				{Title: "Three", URL: "https://youtu.be/ccccccccccc"},
			},
		},
		{
			Name:    "Gym",
			Entries: []models.RawEntry{{Title: "Shared", VideoID: "aaaaaaaaaaa"}},
		},
		{
			Name:    "Road Trip",
			Entries: []models.RawEntry{{Title: "Four", VideoID: "ddddddddddd"}},
		},
	}

	playlists, stats := Normalize(raw, Options{StripSuffix: true, Suffix: "-videos", PreferMusicHost: true})

	if len(playlists) != 2 {
		t.Fatalf("got %d playlists, want 2 (merged by name)", len(playlists))
	}

	road := playlists[0]
	if road.Name != "Road Trip" {
		t.Errorf("Name = %q, want Road Trip", road.Name)
	}

	wantIDs := []string{"aaaaaaaaaaa", "bbbbbbbbbbb", "ccccccccccc", "ddddddddddd"}
	if len(road.Tracks) != len(wantIDs) {
		t.Fatalf("got %d tracks, want %d", len(road.Tracks), len(wantIDs))
	}
	for i, id := range wantIDs {
		tr := road.Tracks[i]
		if tr.SourceID != id || tr.Position != i || tr.Playlist != "Road Trip" {
			t.Errorf("track %d = %+v", i, tr)
		}
		if tr.URL != "https://music.youtube.com/watch?v="+id {
			t.Errorf("track %d url = %q", i, tr.URL)
		}
	}
	if road.Tracks[0].Title != "One" {
		t.Errorf("first occurrence should win, got %q", road.Tracks[0].Title)
	}
	if road.Tracks[1].Artist != "Band" {
		t.Errorf("artist hint = %q, want Band", road.Tracks[1].Artist)
	}

	if gym := playlists[1]; len(gym.Tracks) != 1 || gym.Tracks[0].SourceID != "aaaaaaaaaaa" {
		t.Errorf("cross-playlist duplicates must be kept, got %+v", gym)
	}

	want := Stats{Playlists: 2, Tracks: 5, Dropped: 1, Collapsed: 1}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
}
