package shared

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseCurlCommand(t *testing.T) {
	tt := []struct {
		name        string
		curlCmd     string
		wantCookies map[string]string
		wantURL     string
		wantErr     bool
	}{
		{
			name:        "cookie header",
			curlCmd:     `curl 'https://music.youtube.com/youtubei/v1/browse' -H 'Cookie: SID=abc; HSID=def'`,
			wantCookies: map[string]string{"SID": "abc", "HSID": "def"},
			wantURL:     "https://music.youtube.com/youtubei/v1/browse",
		},
		{
			name:        "cookie flag with double quotes",
			curlCmd:     `curl -b "SID=abc" https://www.youtube.com/`,
			wantCookies: map[string]string{"SID": "abc"},
			wantURL:     "https://www.youtube.com/",
		},
		{
			name:        "-b takes precedence over cookie header",
			curlCmd:     `curl -H 'Cookie: old=value' -b 'new=value' https://www.youtube.com`,
			wantCookies: map[string]string{"new": "value"},
			wantURL:     "https://www.youtube.com",
		},
		{
			name: "multiline capture",
			curlCmd: `curl 'https://music.youtube.com/api' \
  -H 'accept: */*' \
  -H 'cookie: VISITOR_INFO1_LIVE=xyz; CONSENT=YES+1' \
  --data-raw '{"context":{}}'`,
			wantCookies: map[string]string{"VISITOR_INFO1_LIVE": "xyz", "CONSENT": "YES+1"},
			wantURL:     "https://music.youtube.com/api",
		},
		{
			name:    "headers without cookies",
			curlCmd: `curl -H 'Authorization: Bearer token' https://api.example.com`,
			wantErr: true,
		},
		{
			name:    "empty command",
			curlCmd: "",
			wantErr: true,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			result, err := ParseCurlCommand([]byte(tc.curlCmd))
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseCurlCommand() error = %v, wantErr %v", err, tc.wantErr)
			}

			if tc.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
				return
			}

			if result.URL != tc.wantURL {
				t.Errorf("URL = %q, want %q", result.URL, tc.wantURL)
			}

			if len(result.Cookies) != len(tc.wantCookies) {
				t.Errorf("cookie count = %d, want %d", len(result.Cookies), len(tc.wantCookies))
			}

			for name, want := range tc.wantCookies {
				if got := result.Cookies[name]; got != want {
					t.Errorf("cookie[%s] = %q, want %q", name, got, want)
				}
			}

			if _, ok := result.Headers["cookie"]; ok {
				t.Error("cookie header should not be kept as a regular header")
			}
		})
	}
}

func TestCurlCaptureDomain(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://music.youtube.com/browse", ".youtube.com"},
		{"https://www.youtube.com/", ".youtube.com"},
		{"", ".youtube.com"},
		{"https://example.org/x", ".example.org"},
	}

	for _, tc := range tests {
		t.Run(tc.url, func(t *testing.T) {
			c := &CurlCapture{URL: tc.url}
			if got := c.Domain(); got != tc.want {
				t.Errorf("Domain() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNetscapeJar(t *testing.T) {
	c := &CurlCapture{
		URL:     "https://music.youtube.com/",
		Cookies: map[string]string{"SID": "abc", "HSID": "def"},
	}
	now := time.Unix(1_700_000_000, 0)

	got := c.NetscapeJar(now, time.Hour)
	lines := strings.Split(strings.TrimSpace(got), "\n")

	if lines[0] != "# Netscape HTTP Cookie File" {
		t.Errorf("missing jar header, got %q", lines[0])
	}

	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), got)
	}

	want := ".youtube.com\tTRUE\t/\tTRUE\t1700003600\tHSID\tdef"
	if lines[1] != want {
		t.Errorf("first cookie line = %q, want %q", lines[1], want)
	}
}

func TestWriteCookiesFile(t *testing.T) {
	t.Run("converts capture", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "curl.sh")
		dst := filepath.Join(dir, "cookies.txt")

		if err := os.WriteFile(src, []byte(`curl 'https://music.youtube.com/' -H 'cookie: SID=abc'`), 0644); err != nil {
			t.Fatalf("failed to write capture: %v", err)
		}

		n, err := WriteCookiesFile(src, dst)
		if err != nil {
			t.Fatalf("WriteCookiesFile() error = %v", err)
		}
		if n != 1 {
			t.Errorf("expected 1 cookie, got %d", n)
		}

		data, err := os.ReadFile(dst)
		if err != nil {
			t.Fatalf("cookies file should exist: %v", err)
		}
		if !strings.Contains(string(data), "\tSID\tabc") {
			t.Errorf("cookies file missing SID entry: %q", data)
		}
	})

	t.Run("missing capture", func(t *testing.T) {
		if _, err := WriteCookiesFile("/nonexistent/curl.sh", filepath.Join(t.TempDir(), "c.txt")); err == nil {
			t.Error("expected error for missing capture file")
		}
	})
}
