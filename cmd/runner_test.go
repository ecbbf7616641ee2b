package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/ymde/internal/models"
	"github.com/desertthunder/ymde/internal/repositories"
	"github.com/desertthunder/ymde/internal/services"
	"github.com/desertthunder/ymde/internal/shared"
	tu "github.com/desertthunder/ymde/internal/testing"
	"github.com/urfave/cli/v3"
)

type fakeMedia struct {
	mu       sync.Mutex
	fetches  map[string]int
	probes   map[string]int
	dump     []byte
	dumpURLs []string
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{fetches: make(map[string]int), probes: make(map[string]int)}
}

func (f *fakeMedia) Fetch(ctx context.Context, req services.FetchRequest) (*services.MediaInfo, error) {
	f.mu.Lock()
	f.fetches[req.VideoID]++
	f.mu.Unlock()

	if err := os.MkdirAll(req.OutputDir, 0755); err != nil {
		return nil, err
	}
	path := filepath.Join(req.OutputDir, req.VideoID+"."+req.AudioFormat)
	if err := os.WriteFile(path, []byte("audio "+req.VideoID), 0644); err != nil {
		return nil, err
	}
	return &services.MediaInfo{ID: req.VideoID, Ext: req.AudioFormat, Path: path}, nil
}

func (f *fakeMedia) Probe(ctx context.Context, req services.FetchRequest) (*services.MediaInfo, error) {
	f.mu.Lock()
	f.probes[req.VideoID]++
	f.mu.Unlock()
	return &services.MediaInfo{ID: req.VideoID, Ext: req.AudioFormat}, nil
}

func (f *fakeMedia) Search(ctx context.Context, query string, limit int) ([]services.Candidate, error) {
	return nil, nil
}

func (f *fakeMedia) DumpPlaylist(ctx context.Context, url string) ([]byte, error) {
	f.dumpURLs = append(f.dumpURLs, url)
	if f.dump == nil {
		return nil, fmt.Errorf("%w: no dump configured", shared.ErrFetchFailed)
	}
	return f.dump, nil
}

type fakeFavorites struct {
	items  []services.JellyfinItem
	marked []string
}

func (f *fakeFavorites) CurrentUser(ctx context.Context) (string, error) { return "user-1", nil }

func (f *fakeFavorites) AudioItems(ctx context.Context, userID string) ([]services.JellyfinItem, error) {
	return f.items, nil
}

func (f *fakeFavorites) SearchItem(ctx context.Context, userID, term string) (*services.JellyfinItem, error) {
	return nil, fmt.Errorf("%w: %s", shared.ErrItemNotFound, term)
}

func (f *fakeFavorites) SetFavorite(ctx context.Context, userID, itemID string, favorite bool) error {
	f.marked = append(f.marked, itemID)
	return nil
}

// testEnv is a runner over a temporary takeout directory, library and history database.
type testEnv struct {
	dir    string
	source string
	root   string
	config *shared.Config
	output *bytes.Buffer
	media  *fakeMedia
	runner *Runner
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	config := shared.DefaultConfig()
	config.Source.Path = filepath.Join(dir, "takeout")
	config.Library.Root = filepath.Join(dir, "library")
	config.Database.Path = filepath.Join(dir, "ymde.db")

	env := &testEnv{
		dir:    dir,
		source: config.Source.Path,
		root:   config.Library.Root,
		config: config,
		output: &bytes.Buffer{},
		media:  newFakeMedia(),
	}
	env.runner = NewRunner(RunnerOpts{
		Config: config,
		Logger: shared.NewLogger(&tu.FWriter{}),
		Output: env.output,
		Media:  env.media,
	})
	return env
}

func (e *testEnv) writePlaylist(t *testing.T, name string, ids ...int) {
	t.Helper()
	var tracks []string
	for _, n := range ids {
		tracks = append(tracks, fmt.Sprintf(`{"title": "Title %d", "artist": "Artist %d", "videoId": "%s"}`, n, n, tu.VideoID(n)))
	}
	doc := fmt.Sprintf(`{"type": "playlist", "name": %q, "tracks": [%s]}`, name, strings.Join(tracks, ","))
	tu.MustWriteFile(t, filepath.Join(e.source, name+".json"), doc)
}

func (e *testEnv) run(args ...string) error {
	app := &cli.Command{
		Name: "ymde",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}},
			&cli.StringFlag{Name: "log-level"},
		},
		Before:   e.runner.Configure,
		Commands: e.runner.register(),
	}
	return app.Run(context.Background(), append([]string{"ymde"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			media := newFakeMedia()
			favorites := &fakeFavorites{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
				Media:      media,
				Favorites:  favorites,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.mediaClient() != media {
				t.Error("expected media client to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
			client, err := runner.favoriteClient()
			if err != nil || client != favorites {
				t.Errorf("expected favorites client to be set, got %v, %v", client, err)
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("builds services from config on demand", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if _, ok := runner.mediaClient().(*services.YtdlpClient); !ok {
				t.Errorf("expected yt-dlp client, got %T", runner.mediaClient())
			}
			if runner.trimmerFor() != nil {
				t.Error("expected no trimmer while trimming is disabled")
			}

			runner.config.Trim.Enabled = true
			if _, ok := runner.trimmerFor().(*services.SponsorBlockTrimmer); !ok {
				t.Errorf("expected SponsorBlock trimmer, got %T", runner.trimmerFor())
			}

			if _, err := runner.favoriteClient(); !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
			runner.config.Jellyfin.URL = "http://jellyfin.local"
			runner.config.Jellyfin.APIKey = "key"
			if _, err := runner.favoriteClient(); err != nil {
				t.Errorf("expected jellyfin client, got %v", err)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("returns error on unmarshalable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			if err := runner.writeJSON(make(chan int), false); err == nil {
				t.Error("expected error for unmarshalable data")
			}
		})

		t.Run("returns error on write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err == nil {
				t.Error("expected write error")
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		runner.writePlain("count=%d ", 3)
		runner.writePlainln("done")
		runner.writePlainHeader("Title")

		result := output.String()
		if !strings.HasPrefix(result, "count=3 \ndone\n") {
			t.Errorf("unexpected plain output: %q", result)
		}
		if !strings.Contains(result, "═\nTitle\n═") {
			t.Errorf("expected header around title, got %q", result)
		}

		failing := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
		if err := failing.writePlain("x"); err == nil {
			t.Error("expected write error")
		}
	})
}

func TestConfigure(t *testing.T) {
	t.Run("loads explicit config file", func(t *testing.T) {
		env := newTestEnv(t)
		path := tu.MustWriteFile(t, filepath.Join(env.dir, "custom.toml"), `
[library]
root = "/music"

[download]
concurrency = 7
`)

		if err := env.run("--config", path, "index", "--json", "--library", env.root); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if env.runner.config.Download.Concurrency != 7 {
			t.Errorf("expected concurrency 7 from file, got %d", env.runner.config.Download.Concurrency)
		}
		if env.runner.config.Download.AudioFormat != "m4a" {
			t.Errorf("expected defaults under file values, got %q", env.runner.config.Download.AudioFormat)
		}
		if env.runner.configPath != path {
			t.Errorf("expected configPath %s, got %s", path, env.runner.configPath)
		}
	})

	t.Run("missing explicit config is an error", func(t *testing.T) {
		env := newTestEnv(t)

		err := env.run("--config", filepath.Join(env.dir, "nope.toml"), "index")
		if !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("invalid log level", func(t *testing.T) {
		env := newTestEnv(t)

		err := env.run("--log-level", "loud", "index")
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestDownload(t *testing.T) {
	t.Run("configuration errors abort before scheduling", func(t *testing.T) {
		tests := []struct {
			name string
			args []string
			want error
		}{
			{name: "unknown mode", args: []string{"download", "--mode", "radio"}, want: shared.ErrInvalidMode},
			{name: "bad audio format", args: []string{"download", "--audio-format", "wav"}, want: shared.ErrInvalidConfig},
			{name: "zero concurrency", args: []string{"download", "--concurrency", "0"}, want: shared.ErrInvalidConfig},
			{name: "bad sleep", args: []string{"download", "--sleep", "soon"}, want: shared.ErrInvalidConfig},
			{name: "liked without cookies", args: []string{"download", "--mode", "liked"}, want: shared.ErrMissingSource},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				env := newTestEnv(t)
				env.writePlaylist(t, "Mix", 1)

				err := env.run(tt.args...)
				if !errors.Is(err, tt.want) {
					t.Fatalf("expected %v, got %v", tt.want, err)
				}
				if len(env.media.fetches)+len(env.media.probes) != 0 {
					t.Error("expected no fetches after a configuration error")
				}
			})
		}
	})

	t.Run("missing source path", func(t *testing.T) {
		env := newTestEnv(t)

		err := env.run("download", filepath.Join(env.dir, "missing"))
		if !errors.Is(err, shared.ErrMissingSource) {
			t.Errorf("expected ErrMissingSource, got %v", err)
		}
	})

	t.Run("dry run resolves without writing", func(t *testing.T) {
		env := newTestEnv(t)
		env.writePlaylist(t, "Mix", 1, 2)
		env.writePlaylist(t, "Chill", 2, 3)

		if err := env.run("download", "--dry-run", env.source); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(env.media.fetches) != 0 {
			t.Errorf("expected no fetches, got %v", env.media.fetches)
		}
		if len(env.media.probes) != 3 {
			t.Errorf("expected 3 distinct probes, got %v", env.media.probes)
		}
		if n := tu.CountFiles(t, env.root); n != 0 {
			t.Errorf("expected empty library, found %d files", n)
		}
		tu.AssertNotExists(t, env.config.Database.Path)

		out := env.output.String()
		for _, want := range []string{"Mix", "Chill", "TOTAL"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected summary to mention %q, got:\n%s", want, out)
			}
		}
	})

	t.Run("places tracks, writes playlists, report and history", func(t *testing.T) {
		env := newTestEnv(t)
		env.writePlaylist(t, "Mix", 1, 2)
		env.writePlaylist(t, "Chill", 2)
		report := filepath.Join(env.dir, "reports", "run.json")

		if err := env.run("download", "-j", "1", "--report", report, env.source); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		for id, n := range env.media.fetches {
			if n != 1 {
				t.Errorf("expected %s fetched once, got %d", id, n)
			}
		}
		if len(env.media.fetches) != 2 {
			t.Errorf("expected 2 fetches, got %v", env.media.fetches)
		}

		tu.AssertFileExists(t, filepath.Join(env.root, "Artist 1", "Mix", "Title 1 [vid00000001].m4a"))
		tu.AssertFileExists(t, filepath.Join(env.root, "_playlists", "Mix.m3u8"))
		tu.AssertFileExists(t, filepath.Join(env.root, "_playlists", "Chill.m3u8"))
		tu.AssertNotExists(t, filepath.Join(env.root, ".ymde-staging"))

		// Takeout files load in name order, so Chill claims the shared track first.
		tu.AssertFileExists(t, filepath.Join(env.root, "Artist 2", "Chill", "Title 2 [vid00000002].m4a"))
		mix := tu.MustReadFile(t, filepath.Join(env.root, "_playlists", "Mix.m3u8"))
		if !strings.Contains(mix, "Artist 2/Chill/Title 2 [vid00000002].m4a") {
			t.Errorf("expected shared track to reference the existing file, got:\n%s", mix)
		}

		if !strings.Contains(tu.MustReadFile(t, report), `"placed"`) {
			t.Error("expected json report with counts")
		}

		db, err := shared.OpenHistory(env.config.Database)
		if err != nil {
			t.Fatalf("failed to open history: %v", err)
		}
		defer db.Close()

		repo := repositories.NewRunRepository(db)
		runs, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 1 {
			t.Fatalf("expected 1 recorded run, got %d", len(runs))
		}
		c := runs[0].Counts()
		if c.Placed != 2 || c.Skipped != 1 || c.Failed != 0 {
			t.Errorf("unexpected recorded counts: %+v", c)
		}
		if runs[0].FinishedAt() == nil {
			t.Error("expected recorded run to be finished")
		}

		results, err := repo.Results(runs[0].ID(), "")
		if err != nil {
			t.Fatalf("failed to read results: %v", err)
		}
		if len(results) != 3 {
			t.Errorf("expected 3 job results, got %d", len(results))
		}
	})

	t.Run("second run skips everything", func(t *testing.T) {
		env := newTestEnv(t)
		env.writePlaylist(t, "Mix", 1, 2)

		if err := env.run("download", env.source); err != nil {
			t.Fatalf("first run: %v", err)
		}
		first := tu.MustReadFile(t, filepath.Join(env.root, "_playlists", "Mix.m3u8"))

		env.media.fetches = make(map[string]int)
		if err := env.run("download", env.source); err != nil {
			t.Fatalf("second run: %v", err)
		}
		if len(env.media.fetches) != 0 {
			t.Errorf("expected no fetches on re-run, got %v", env.media.fetches)
		}
		if second := tu.MustReadFile(t, filepath.Join(env.root, "_playlists", "Mix.m3u8")); second != first {
			t.Errorf("expected identical playlist, got:\n%s\nwant:\n%s", second, first)
		}
	})

	t.Run("like marks placed tracks", func(t *testing.T) {
		env := newTestEnv(t)
		env.writePlaylist(t, "Mix", 1)
		favorites := &fakeFavorites{items: []services.JellyfinItem{
			{ID: "item-1", Path: "/media/Artist 1/Mix/Title 1 [vid00000001].m4a"},
		}}
		env.runner.favorites = favorites

		if err := env.run("download", "--like", env.source); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(favorites.marked) != 1 || favorites.marked[0] != "item-1" {
			t.Errorf("expected item-1 marked, got %v", favorites.marked)
		}
	})

	t.Run("liked mode exports then downloads", func(t *testing.T) {
		env := newTestEnv(t)
		cookies := tu.MustWriteFile(t, filepath.Join(env.dir, "cookies.txt"), "# Netscape HTTP Cookie File\n")
		env.media.dump = []byte(`{"title": "Liked Music", "entries": [
			{"id": "vid00000009", "title": "Song", "channel": "Band - Topic", "duration": 200}
		]}`)

		if err := env.run("download", "--mode", "liked", "--cookies", cookies); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(env.media.dumpURLs) != 1 {
			t.Errorf("expected one liked dump, got %v", env.media.dumpURLs)
		}
		tu.AssertFileExists(t, filepath.Join(env.root, "_playlists", "Liked Songs.m3u8"))
		tu.AssertFileExists(t, filepath.Join(env.root, "Band", "Liked Songs", "Song [vid00000009].m4a"))
	})
}

func TestIndex(t *testing.T) {
	env := newTestEnv(t)
	tu.MustWriteFile(t, filepath.Join(env.root, "Artist", "Album", "Song [vid00000001].mp3"), "not audio")
	tu.MustWriteFile(t, filepath.Join(env.root, "Artist", "Album", "Other.mp3"), "not audio")
	tu.MustWriteFile(t, filepath.Join(env.root, "notes.txt"), "ignored")

	if err := env.run("index", "--json", "--entries"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	out := env.output.String()
	for _, want := range []string{`"files": 2`, `"vid00000001"`, "Other.mp3"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in index output, got:\n%s", want, out)
		}
	}
}

func TestLike(t *testing.T) {
	t.Run("argument validation", func(t *testing.T) {
		env := newTestEnv(t)
		env.runner.favorites = &fakeFavorites{}

		if err := env.run("like"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if err := env.run("like", "--library", env.root, "--playlist-json", "x.json"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("playlist json", func(t *testing.T) {
		env := newTestEnv(t)
		env.writePlaylist(t, "Mix", 1, 2)
		favorites := &fakeFavorites{items: []services.JellyfinItem{
			{ID: "item-1", Path: "/media/a [vid00000001].m4a"},
		}}
		env.runner.favorites = favorites

		if err := env.run("like", "--playlist-json", filepath.Join(env.source, "Mix.json")); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(favorites.marked) != 1 {
			t.Errorf("expected one favorite, got %v", favorites.marked)
		}
		if !strings.Contains(env.output.String(), "1 marked, 1 not found, 0 failed") {
			t.Errorf("unexpected output: %s", env.output.String())
		}
	})

	t.Run("library", func(t *testing.T) {
		env := newTestEnv(t)
		tu.MustWriteFile(t, filepath.Join(env.root, "A", "B", "Song [vid00000003].m4a"), "not audio")
		favorites := &fakeFavorites{items: []services.JellyfinItem{
			{ID: "item-3", Path: "/srv/A/B/Song [vid00000003].m4a"},
		}}
		env.runner.favorites = favorites

		if err := env.run("like", "--library", env.root); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(favorites.marked) != 1 || favorites.marked[0] != "item-3" {
			t.Errorf("expected item-3 marked, got %v", favorites.marked)
		}
	})
}

func TestHistory(t *testing.T) {
	env := newTestEnv(t)

	db, err := shared.OpenHistory(env.config.Database)
	if err != nil {
		t.Fatalf("failed to open history: %v", err)
	}
	repo := repositories.NewRunRepository(db)

	run := models.NewRun(shared.ModeTakeout, env.root)
	if err := repo.Create(run); err != nil {
		t.Fatalf("failed to create run: %v", err)
	}
	track := models.Track{SourceID: tu.VideoID(1), Title: "Title 1", Playlist: "Mix"}
	failed := models.JobResult{Track: track, Outcome: models.OutcomeFailed, Reason: models.ReasonUnavailable, Detail: "Video unavailable"}
	placed := models.JobResult{Track: models.Track{SourceID: tu.VideoID(2), Title: "Title 2", Playlist: "Mix", Position: 1}, Outcome: models.OutcomePlaced}
	if err := repo.AddResults(run.ID(), []models.JobRecord{
		models.NewJobRecord(run.ID(), failed),
		models.NewJobRecord(run.ID(), placed),
	}); err != nil {
		t.Fatalf("failed to add results: %v", err)
	}
	run.Finish(models.Counts{Placed: 1, Failed: 1}, time.Now())
	if err := repo.Update(run); err != nil {
		t.Fatalf("failed to update run: %v", err)
	}
	db.Close()

	t.Run("list", func(t *testing.T) {
		env.output.Reset()
		if err := env.run("history", "list"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		out := env.output.String()
		if !strings.Contains(out, "#1") || !strings.Contains(out, "placed=1 skipped=0 failed=1") {
			t.Errorf("unexpected list output:\n%s", out)
		}
	})

	t.Run("show by sequence, failed only", func(t *testing.T) {
		env.output.Reset()
		if err := env.run("history", "show", "--failed", "1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		out := env.output.String()
		if !strings.Contains(out, "Video unavailable") {
			t.Errorf("expected failure detail, got:\n%s", out)
		}
		if strings.Contains(out, "Title 2") {
			t.Errorf("expected placed job filtered out, got:\n%s", out)
		}
	})

	t.Run("show by id as json", func(t *testing.T) {
		env.output.Reset()
		if err := env.run("history", "show", "--json", run.ID()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(env.output.String(), run.ID()) {
			t.Errorf("expected run id in output, got:\n%s", env.output.String())
		}
	})

	t.Run("unknown run", func(t *testing.T) {
		if err := env.run("history", "show", "42"); !errors.Is(err, shared.ErrItemNotFound) {
			t.Errorf("expected ErrItemNotFound, got %v", err)
		}
		if err := env.run("history", "show"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestExportLiked(t *testing.T) {
	t.Run("requires cookies", func(t *testing.T) {
		env := newTestEnv(t)

		if err := env.run("export", "liked"); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("writes playlist json", func(t *testing.T) {
		env := newTestEnv(t)
		cookies := tu.MustWriteFile(t, filepath.Join(env.dir, "cookies.txt"), "# Netscape HTTP Cookie File\n")
		env.media.dump = []byte(`{"title": "Liked Music", "entries": [
			{"id": "vid00000001", "title": "One", "channel": "Band - Topic"},
			{"id": "vid00000002", "title": "Two", "uploader": "Someone"}
		]}`)
		out := filepath.Join(env.dir, "out")

		if err := env.run("export", "liked", "--cookies", cookies, "--out-dir", out, "--name", "Favs"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		doc := tu.MustReadFile(t, filepath.Join(out, "Favs.json"))
		for _, want := range []string{`"name": "Favs"`, `"vid00000001"`, `"vid00000002"`, `"Band"`} {
			if !strings.Contains(doc, want) {
				t.Errorf("expected %s in exported document, got:\n%s", want, doc)
			}
		}
	})
}

func TestConvertCSV(t *testing.T) {
	t.Run("converts every csv under a directory", func(t *testing.T) {
		env := newTestEnv(t)
		tu.MustWriteFile(t, filepath.Join(env.source, "Road Trip-videos.csv"),
			"Video ID,Video Title\nvid00000001,First\nvid00000002,Second\n")
		tu.MustWriteFile(t, filepath.Join(env.source, "nested", "Gym.csv"),
			"Video URL,Title\nhttps://www.youtube.com/watch?v=vid00000003,Third\n")

		if err := env.run("convert", "csv", "--remove-videos-suffix", env.source); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		road := tu.MustReadFile(t, filepath.Join(env.source, "Road Trip-videos.json"))
		if !strings.Contains(road, `"name": "Road Trip"`) {
			t.Errorf("expected suffix stripped from name, got:\n%s", road)
		}
		tu.AssertFileExists(t, filepath.Join(env.source, "nested", "Gym.json"))
		if !strings.Contains(env.output.String(), "Converted 2 of 2 CSV files") {
			t.Errorf("unexpected output: %s", env.output.String())
		}
	})

	t.Run("no csv files", func(t *testing.T) {
		env := newTestEnv(t)
		env.writePlaylist(t, "Mix", 1)

		if err := env.run("convert", "csv", env.source); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(env.output.String(), "No CSV files found") {
			t.Errorf("unexpected output: %s", env.output.String())
		}
	})
}

func TestSetup(t *testing.T) {
	t.Run("config", func(t *testing.T) {
		env := newTestEnv(t)
		path := filepath.Join(env.dir, "config.toml")

		if err := env.run("setup", "config", "--output", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, err := shared.LoadConfig(path); err != nil {
			t.Errorf("expected a loadable config, got %v", err)
		}
		if err := env.run("setup", "config", "--output", path); err == nil {
			t.Error("expected error when the config already exists")
		}
	})

	t.Run("database", func(t *testing.T) {
		env := newTestEnv(t)
		env.config.Database.Path = filepath.Join(env.dir, "data", "history.db")

		if err := env.run("setup", "database"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, env.config.Database.Path)
	})

	t.Run("cookies", func(t *testing.T) {
		env := newTestEnv(t)
		curl := tu.MustWriteFile(t, filepath.Join(env.dir, "curl.txt"),
			`curl 'https://music.youtube.com/browse' -H 'cookie: SID=abc; HSID=def' -H 'x-goog-authuser: 0'`)
		out := filepath.Join(env.dir, "auth", "cookies.txt")

		if err := env.run("setup", "cookies", "--curl-file", curl, "--output", out); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		jar := tu.MustReadFile(t, out)
		if !strings.HasPrefix(jar, "# Netscape HTTP Cookie File") || !strings.Contains(jar, "\tSID\tabc") {
			t.Errorf("unexpected cookies file:\n%s", jar)
		}
	})

	t.Run("cookies without capture", func(t *testing.T) {
		env := newTestEnv(t)

		if err := env.run("setup", "cookies"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}
