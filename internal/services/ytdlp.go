package services

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/lrstanley/go-ytdlp"

	"github.com/desertthunder/ymde/internal/shared"
)

const (
	infoFields      = "id,title,track,artist,album,uploader,channel,duration,ext"
	fetchPrintTmpl  = "after_move:%(.{" + infoFields + ",filepath})j"
	probePrintTmpl  = "%(.{" + infoFields + "})j"
	outputTemplate  = "%(id)s.%(ext)s"
	searchURLPrefix = "ytsearch"
)

type runFunc func(ctx context.Context, cmd *ytdlp.Command, args ...string) (*ytdlp.Result, error)

// YtdlpClient drives the yt-dlp executable.
type YtdlpClient struct {
	executable string
	ffmpeg     string
	cookies    string
	logger     *log.Logger
	run        runFunc
}

// NewYtdlpClient creates a client. Empty paths resolve yt-dlp and ffmpeg from PATH.
//
// cookies is only used for playlist dumps; fetches carry their own in [FetchRequest].
func NewYtdlpClient(executable, ffmpeg, cookies string, logger *log.Logger) *YtdlpClient {
	return &YtdlpClient{
		executable: executable,
		ffmpeg:     ffmpeg,
		cookies:    cookies,
		logger:     logger,
		run: func(ctx context.Context, cmd *ytdlp.Command, args ...string) (*ytdlp.Result, error) {
			return cmd.Run(ctx, args...)
		},
	}
}

func (c *YtdlpClient) command() *ytdlp.Command {
	cmd := ytdlp.New().IgnoreConfig().NoWarnings().NoProgress()
	if c.executable != "" && c.executable != "yt-dlp" {
		cmd = cmd.SetExecutable(c.executable)
	}
	if c.ffmpeg != "" && c.ffmpeg != "ffmpeg" {
		cmd = cmd.FFmpegLocation(c.ffmpeg)
	}
	return cmd
}

func (c *YtdlpClient) fetchCommand(req FetchRequest) *ytdlp.Command {
	cmd := c.command().
		ExtractAudio().
		AudioFormat(req.AudioFormat).
		EmbedMetadata().
		EmbedThumbnail().
		NoPlaylist().
		NoOverwrites().
		Output(filepath.Join(req.OutputDir, outputTemplate))

	if req.AudioQuality != "" {
		cmd = cmd.AudioQuality(req.AudioQuality)
	}
	if req.Cookies != "" {
		cmd = cmd.Cookies(req.Cookies)
	}
	if req.RateLimit != "" {
		cmd = cmd.LimitRate(req.RateLimit)
	}
	if req.SleepRequests > 0 {
		cmd = cmd.SleepRequests(req.SleepRequests)
	}
	if req.Retries > 0 {
		cmd = cmd.Retries(strconv.Itoa(req.Retries))
	}
	return cmd
}

// Fetch extracts audio for req.URL into req.OutputDir and reports the produced file.
func (c *YtdlpClient) Fetch(ctx context.Context, req FetchRequest) (*MediaInfo, error) {
	if err := os.MkdirAll(req.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: staging: %v", shared.ErrFetchFailed, err)
	}

	cmd := c.fetchCommand(req).Print(fetchPrintTmpl)
	res, err := c.run(ctx, cmd, req.URL)
	if err != nil {
		return nil, ClassifyFetchError(ctx, err, stderrOf(res))
	}

	info, err := parseInfo(res.Stdout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrFetchFailed, err)
	}
	if info.Path == "" {
		return nil, fmt.Errorf("%w: yt-dlp reported no output file", shared.ErrFetchFailed)
	}
	if _, err := os.Stat(info.Path); err != nil {
		return nil, fmt.Errorf("%w: output file missing: %v", shared.ErrFetchFailed, err)
	}

	c.logger.Debug("fetched", "id", info.ID, "path", info.Path)
	return info, nil
}

// Probe resolves metadata with --skip-download. Nothing is written.
func (c *YtdlpClient) Probe(ctx context.Context, req FetchRequest) (*MediaInfo, error) {
	cmd := c.command().NoPlaylist().SkipDownload().Print(probePrintTmpl)
	if req.Cookies != "" {
		cmd = cmd.Cookies(req.Cookies)
	}

	res, err := c.run(ctx, cmd, req.URL)
	if err != nil {
		return nil, ClassifyFetchError(ctx, err, stderrOf(res))
	}

	info, err := parseInfo(res.Stdout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrFetchFailed, err)
	}
	if info.Ext == "" || info.Ext == "webm" || info.Ext == "mp4" {
		info.Ext = req.AudioFormat
	}
	return info, nil
}

// Search returns up to limit flat results for query.
func (c *YtdlpClient) Search(ctx context.Context, query string, limit int) ([]Candidate, error) {
	if limit < 1 {
		limit = 1
	}
	cmd := c.command().FlatPlaylist().DumpJSON()
	target := fmt.Sprintf("%s%d:%s", searchURLPrefix, limit, query)

	res, err := c.run(ctx, cmd, target)
	if err != nil {
		return nil, ClassifyFetchError(ctx, err, stderrOf(res))
	}
	return parseCandidates(res.Stdout, limit), nil
}

// DumpPlaylist returns the flat single-JSON listing of a playlist, using the client's cookies.
func (c *YtdlpClient) DumpPlaylist(ctx context.Context, url string) ([]byte, error) {
	cmd := c.command().FlatPlaylist().DumpSingleJSON()
	if c.cookies != "" {
		cmd = cmd.Cookies(c.cookies)
	}

	res, err := c.run(ctx, cmd, url)
	if err != nil {
		return nil, ClassifyFetchError(ctx, err, stderrOf(res))
	}
	return []byte(res.Stdout), nil
}

func stderrOf(res *ytdlp.Result) string {
	if res == nil {
		return ""
	}
	return res.Stderr
}

// parseInfo decodes the last JSON object printed on stdout.
func parseInfo(stdout string) (*MediaInfo, error) {
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var info MediaInfo
		if err := json.Unmarshal([]byte(line), &info); err != nil {
			return nil, fmt.Errorf("failed to parse yt-dlp output: %w", err)
		}
		return &info, nil
	}
	return nil, fmt.Errorf("yt-dlp printed no metadata")
}

func parseCandidates(stdout string, limit int) []Candidate {
	var out []Candidate
	sc := bufio.NewScanner(strings.NewReader(stdout))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() && len(out) < limit {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var c Candidate
		if err := json.Unmarshal([]byte(line), &c); err != nil || c.ID == "" {
			continue
		}
		if c.URL == "" {
			c.URL = "https://www.youtube.com/watch?v=" + c.ID
		}
		out = append(out, c)
	}
	return out
}
