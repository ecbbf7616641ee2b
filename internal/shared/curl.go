// Converting browser "Copy as cURL" captures into cookie jars yt-dlp understands.
package shared

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"
)

var (
	curlHeaderPattern = regexp.MustCompile(`-H\s+'([^']+)'|-H\s+"([^"]+)"`)
	curlCookiePattern = regexp.MustCompile(`(?:-b|--cookie)\s+'([^']+)'|(?:-b|--cookie)\s+"([^"]+)"`)
	curlURLPattern    = regexp.MustCompile(`'(https?://[^']+)'|"(https?://[^"]+)"|(https?://\S+)`)
)

// CurlCapture is the session material extracted from a cURL command.
type CurlCapture struct {
	URL     string
	Headers map[string]string
	Cookies map[string]string
}

// ParseCurlFile reads a file containing a cURL command and extracts its session material.
func ParseCurlFile(path string) (*CurlCapture, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}

	return ParseCurlCommand(content)
}

// ParseCurlCommand extracts the request URL, headers and cookies from a cURL command.
//
// Cookies given with -b take precedence over a Cookie header.
func ParseCurlCommand(data []byte) (*CurlCapture, error) {
	cmd := strings.ReplaceAll(string(data), "\\\n", " ")
	cmd = strings.ReplaceAll(cmd, "\\", "")

	capture := &CurlCapture{Headers: map[string]string{}, Cookies: map[string]string{}}
	if m := curlURLPattern.FindStringSubmatch(cmd); m != nil {
		capture.URL = firstNonEmpty(m[1:]...)
	}

	var headerCookie string
	for _, match := range curlHeaderPattern.FindAllStringSubmatch(cmd, -1) {
		key, value, ok := strings.Cut(firstNonEmpty(match[1:]...), ":")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if strings.EqualFold(key, "cookie") {
			headerCookie = value
			continue
		}
		capture.Headers[key] = value
	}

	raw := headerCookie
	if m := curlCookiePattern.FindStringSubmatch(cmd); m != nil {
		raw = firstNonEmpty(m[1:]...)
	}
	for pair := range strings.SplitSeq(raw, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || name == "" {
			continue
		}
		capture.Cookies[name] = value
	}

	if len(capture.Cookies) == 0 {
		return nil, fmt.Errorf("%w: no cookies found in curl command", ErrInvalidInput)
	}
	return capture, nil
}

// Domain returns the cookie domain for the captured request, defaulting to YouTube.
func (c *CurlCapture) Domain() string {
	host := ""
	if u, err := url.Parse(c.URL); err == nil {
		host = u.Hostname()
	}
	if host == "" {
		return ".youtube.com"
	}

	parts := strings.Split(host, ".")
	if len(parts) > 2 {
		parts = parts[len(parts)-2:]
	}
	return "." + strings.Join(parts, ".")
}

// NetscapeJar renders the cookies in the Netscape cookies.txt format.
//
// Every cookie is scoped to [CurlCapture.Domain], marked secure and set to expire after ttl.
func (c *CurlCapture) NetscapeJar(now time.Time, ttl time.Duration) string {
	names := make([]string, 0, len(c.Cookies))
	for name := range c.Cookies {
		names = append(names, name)
	}
	sort.Strings(names)

	domain := c.Domain()
	expires := now.Add(ttl).Unix()

	var b strings.Builder
	b.WriteString("# Netscape HTTP Cookie File\n")
	for _, name := range names {
		fmt.Fprintf(&b, "%s\tTRUE\t/\tTRUE\t%d\t%s\t%s\n", domain, expires, name, c.Cookies[name])
	}
	return b.String()
}

// WriteCookiesFile converts the cURL command in src into a cookies.txt at dst.
func WriteCookiesFile(src, dst string) (int, error) {
	capture, err := ParseCurlFile(src)
	if err != nil {
		return 0, err
	}

	jar := capture.NetscapeJar(time.Now(), 365*24*time.Hour)
	if err := os.WriteFile(dst, []byte(jar), 0600); err != nil {
		return 0, fmt.Errorf("failed to write cookies file: %w", err)
	}
	return len(capture.Cookies), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
