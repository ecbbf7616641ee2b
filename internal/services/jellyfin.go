package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/desertthunder/ymde/internal/shared"
)

const (
	jellyfinClient   = "ymde"
	jellyfinDevice   = "cli"
	jellyfinVersion  = "0.1.0"
	jellyfinItemsMax = 100000
)

var jellyfinPathID = regexp.MustCompile(`\[([A-Za-z0-9_-]{11})\]`)

// JellyfinItem is the subset of a Jellyfin library item used for favorites.
type JellyfinItem struct {
	ID   string `json:"Id"`
	Name string `json:"Name"`
	Path string `json:"Path"`
}

// SourceID extracts the bracketed video id from the item's file path.
func (i JellyfinItem) SourceID() string {
	m := jellyfinPathID.FindAllStringSubmatch(i.Path, -1)
	if len(m) == 0 {
		return ""
	}
	return m[len(m)-1][1]
}

type jellyfinUser struct {
	ID   string `json:"Id"`
	Name string `json:"Name"`
}

type jellyfinItems struct {
	Items []JellyfinItem `json:"Items"`
}

// JellyfinService marks placed tracks as favorites on a Jellyfin server.
//
// Requests carry a MediaBrowser authorization header via [oauth2.Transport] and are paced by a [rate.Limiter].
type JellyfinService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewJellyfinService creates a client for baseURL. base may be nil.
func NewJellyfinService(baseURL, apiKey string, rps float64, base http.RoundTripper, logger *log.Logger) *JellyfinService {
	if base == nil {
		base = http.DefaultTransport
	}
	token := &oauth2.Token{
		TokenType: "MediaBrowser",
		AccessToken: fmt.Sprintf(`Token="%s", Client="%s", Device="%s", DeviceId="%s", Version="%s"`,
			apiKey, jellyfinClient, jellyfinDevice, jellyfinClient, jellyfinVersion),
	}

	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}

	return &JellyfinService{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: &oauth2.Transport{Source: oauth2.StaticTokenSource(token), Base: base},
		},
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

func (s *JellyfinService) doRequest(ctx context.Context, method, endpoint string, query url.Values, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	apiURL := s.baseURL + endpoint
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: jellyfin rejected the api key", shared.ErrNotAuthenticated)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: jellyfin %s %s: status %d", shared.ErrAPIRequest, method, endpoint, resp.StatusCode)
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// CurrentUser returns the id of the user owning the api key.
func (s *JellyfinService) CurrentUser(ctx context.Context) (string, error) {
	var u jellyfinUser
	if err := s.doRequest(ctx, http.MethodGet, "/Users/Me", nil, &u); err != nil {
		return "", err
	}
	if u.ID == "" {
		return "", fmt.Errorf("%w: jellyfin returned no user id", shared.ErrAPIRequest)
	}
	return u.ID, nil
}

// AudioItems lists every audio item visible to userID, with paths.
func (s *JellyfinService) AudioItems(ctx context.Context, userID string) ([]JellyfinItem, error) {
	q := url.Values{}
	q.Set("IncludeItemTypes", "Audio")
	q.Set("Recursive", "true")
	q.Set("Fields", "Path")
	q.Set("UserId", userID)
	q.Set("Limit", strconv.Itoa(jellyfinItemsMax))

	var items jellyfinItems
	if err := s.doRequest(ctx, http.MethodGet, "/Items", q, &items); err != nil {
		return nil, err
	}
	return items.Items, nil
}

// SearchItem returns the best audio match for term.
func (s *JellyfinService) SearchItem(ctx context.Context, userID, term string) (*JellyfinItem, error) {
	q := url.Values{}
	q.Set("SearchTerm", term)
	q.Set("IncludeItemTypes", "Audio")
	q.Set("Recursive", "true")
	q.Set("Fields", "Path")
	q.Set("UserId", userID)
	q.Set("Limit", "1")

	var items jellyfinItems
	if err := s.doRequest(ctx, http.MethodGet, "/Items", q, &items); err != nil {
		return nil, err
	}
	if len(items.Items) == 0 {
		return nil, fmt.Errorf("%w: %q", shared.ErrItemNotFound, term)
	}
	return &items.Items[0], nil
}

// SetFavorite marks (or unmarks) itemID as a favorite of userID.
func (s *JellyfinService) SetFavorite(ctx context.Context, userID, itemID string, favorite bool) error {
	method := http.MethodPost
	if !favorite {
		method = http.MethodDelete
	}
	endpoint := fmt.Sprintf("/Users/%s/FavoriteItems/%s", url.PathEscape(userID), url.PathEscape(itemID))
	return s.doRequest(ctx, method, endpoint, nil, nil)
}

// ItemsBySourceID maps bracketed video ids found in item paths to item ids.
func ItemsBySourceID(items []JellyfinItem) map[string]string {
	out := make(map[string]string, len(items))
	for _, it := range items {
		if id := it.SourceID(); id != "" {
			if _, ok := out[id]; !ok {
				out[id] = it.ID
			}
		}
	}
	return out
}
