package gazelle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"gazelleops/internal/config"
	"gazelleops/internal/release"
	"gazelleops/internal/services"
)

const snatchedPageSize = 2000

// HTTPDoer describes the HTTP client used by the tracker client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to a Gazelle tracker's ajax API. All methods pace themselves
// through a shared client-side rate limiter; the tracker bans callers that
// exceed its request budget.
type Client struct {
	endpoint    string
	apiKey      string
	minInterval time.Duration
	client      HTTPDoer

	mu     sync.Mutex
	next   time.Time
	userID int64
}

// NewClient constructs a tracker client. A zero minInterval disables pacing,
// which only tests should do.
func NewClient(endpoint, apiKey string, minInterval time.Duration, doer HTTPDoer) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{
		endpoint:    strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		apiKey:      strings.TrimSpace(apiKey),
		minInterval: minInterval,
		client:      doer,
	}
}

// NewConfiguredClient builds a Client from tracker configuration.
func NewConfiguredClient(cfg *config.Config) *Client {
	interval := time.Duration(cfg.Tracker.RateLimitSeconds * float64(time.Second))
	doer := &http.Client{Timeout: time.Duration(cfg.Tracker.RequestTimeout) * time.Second}
	return NewClient(cfg.Tracker.Endpoint, cfg.Tracker.APIKey, interval, doer)
}

// envelope is the tracker's ajax response wrapper.
type envelope struct {
	Status   string          `json:"status"`
	Error    string          `json:"error"`
	Response json.RawMessage `json:"response"`
}

// wait blocks until the rate limiter permits the next request.
func (c *Client) wait(ctx context.Context) error {
	c.mu.Lock()
	now := time.Now()
	if c.next.Before(now) {
		c.next = now
	}
	sleep := c.next.Sub(now)
	c.next = c.next.Add(c.minInterval)
	c.mu.Unlock()

	if sleep <= 0 {
		return nil
	}
	timer := time.NewTimer(sleep)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.apiKey)
	return c.client.Do(req)
}

// ajax performs a GET against ajax.php and returns the unwrapped response
// payload.
func (c *Client) ajax(ctx context.Context, action string, params url.Values) (json.RawMessage, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("action", action)
	endpoint := fmt.Sprintf("%s/ajax.php?%s", c.endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrRemote, "gazelle", action, "build request", err)
	}
	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, services.Wrap(services.ErrRemote, "gazelle", action, "request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrRemote, "gazelle", action, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrRemote, "gazelle", action, "read response", err)
	}
	var wrapped envelope
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, services.Wrap(services.ErrRemote, "gazelle", action, "decode envelope", err)
	}
	if wrapped.Status != "success" {
		message := wrapped.Error
		if message == "" {
			message = "request failed"
		}
		return nil, services.Wrap(services.ErrRemote, "gazelle", action, message, nil)
	}
	return wrapped.Response, nil
}

// Account returns the authenticated user's identity and caches the id for
// paged listings.
func (c *Client) Account(ctx context.Context) (int64, string, error) {
	payload, err := c.ajax(ctx, "index", nil)
	if err != nil {
		return 0, "", err
	}
	var account indexResponse
	if err := json.Unmarshal(payload, &account); err != nil {
		return 0, "", services.Wrap(services.ErrRemote, "gazelle", "index", "decode account", err)
	}
	c.mu.Lock()
	c.userID = account.ID
	c.mu.Unlock()
	return account.ID, account.Username, nil
}

// TorrentGroup fetches a release group and all of its torrents.
func (c *Client) TorrentGroup(ctx context.Context, id int64) (release.Group, error) {
	params := url.Values{"id": {strconv.FormatInt(id, 10)}}
	payload, err := c.ajax(ctx, "torrentgroup", params)
	if err != nil {
		return release.Group{}, err
	}
	var wire torrentGroupResponse
	if err := json.Unmarshal(payload, &wire); err != nil {
		return release.Group{}, services.Wrap(services.ErrRemote, "gazelle", "torrentgroup", "decode group", err)
	}
	group := release.Group{Group: convertGroup(wire.Group)}
	for _, torrent := range wire.Torrents {
		group.Torrents = append(group.Torrents, convertTorrent(wire.Group.ID, torrent))
	}
	return group, nil
}

// Torrent fetches a single torrent with its owning group's summary.
func (c *Client) Torrent(ctx context.Context, id int64) (release.ReleaseGroup, release.Torrent, error) {
	params := url.Values{"id": {strconv.FormatInt(id, 10)}}
	payload, err := c.ajax(ctx, "torrent", params)
	if err != nil {
		return release.ReleaseGroup{}, release.Torrent{}, err
	}
	var wire torrentResponse
	if err := json.Unmarshal(payload, &wire); err != nil {
		return release.ReleaseGroup{}, release.Torrent{}, services.Wrap(services.ErrRemote, "gazelle", "torrent", "decode torrent", err)
	}
	return convertGroup(wire.Group), convertTorrent(wire.Group.ID, wire.Torrent), nil
}

// Snatched walks the user's snatched history page by page and invokes fn for
// every (group, torrent) pair. Iteration stops at the first empty page or
// when fn returns an error.
func (c *Client) Snatched(ctx context.Context, fn func(groupID, torrentID int64) error) error {
	c.mu.Lock()
	userID := c.userID
	c.mu.Unlock()
	if userID == 0 {
		id, _, err := c.Account(ctx)
		if err != nil {
			return err
		}
		userID = id
	}

	for page := 0; ; page++ {
		params := url.Values{
			"id":     {strconv.FormatInt(userID, 10)},
			"type":   {"snatched"},
			"limit":  {strconv.Itoa(snatchedPageSize)},
			"offset": {strconv.Itoa(page * snatchedPageSize)},
		}
		payload, err := c.ajax(ctx, "user_torrents", params)
		if err != nil {
			return err
		}
		var wire snatchedResponse
		if err := json.Unmarshal(payload, &wire); err != nil {
			return services.Wrap(services.ErrRemote, "gazelle", "user_torrents", "decode page", err)
		}
		if len(wire.Snatched) == 0 {
			return nil
		}
		for _, entry := range wire.Snatched {
			if err := fn(entry.GroupID, entry.TorrentID); err != nil {
				return err
			}
		}
	}
}

// SetHighResEncoding relabels a torrent's encoding as 24bit Lossless after a
// confirmed bit-depth reclassification.
func (c *Client) SetHighResEncoding(ctx context.Context, torrentID int64) error {
	form := url.Values{
		"action":  {"torrentedit"},
		"id":      {strconv.FormatInt(torrentID, 10)},
		"bitrate": {"24bit Lossless"},
	}
	endpoint := fmt.Sprintf("%s/ajax.php", c.endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return services.Wrap(services.ErrRemote, "gazelle", "torrentedit", "build request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.do(ctx, req)
	if err != nil {
		return services.Wrap(services.ErrRemote, "gazelle", "torrentedit", "request", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrRemote, "gazelle", "torrentedit", fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}
	return decodeStatus(resp.Body, "torrentedit")
}

// UploadRequest carries everything the upload form needs for a transcoded
// edition.
type UploadRequest struct {
	GroupID     int64
	Source      release.Torrent
	Format      string
	Encoding    string
	TorrentFile string
	TorrentData []byte
	Description string
}

// Upload publishes a new torrent into an existing group. Remaster fields are
// copied from the source torrent so the edition lands beside its siblings.
func (c *Client) Upload(ctx context.Context, req UploadRequest) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fields := map[string]string{
		"groupid": strconv.FormatInt(req.GroupID, 10),
		"format":  req.Format,
		"bitrate": req.Encoding,
		"media":   req.Source.Media,
	}
	if req.Source.Remastered {
		fields["remaster_year"] = strconv.Itoa(req.Source.RemasterYear)
		fields["remaster_title"] = req.Source.RemasterTitle
		fields["remaster_record_label"] = req.Source.RemasterRecordLabel
		fields["remaster_catalogue_number"] = req.Source.RemasterCatalogueNumber
	}
	if req.Description != "" {
		fields["release_desc"] = req.Description
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return services.Wrap(services.ErrRemote, "gazelle", "upload", "encode form", err)
		}
	}

	part, err := writer.CreateFormFile("file_input", req.TorrentFile)
	if err != nil {
		return services.Wrap(services.ErrRemote, "gazelle", "upload", "attach torrent", err)
	}
	if _, err := part.Write(req.TorrentData); err != nil {
		return services.Wrap(services.ErrRemote, "gazelle", "upload", "attach torrent", err)
	}
	if err := writer.Close(); err != nil {
		return services.Wrap(services.ErrRemote, "gazelle", "upload", "finish form", err)
	}

	endpoint := fmt.Sprintf("%s/ajax.php?action=upload", c.endpoint)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return services.Wrap(services.ErrRemote, "gazelle", "upload", "build request", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := c.do(ctx, httpReq)
	if err != nil {
		return services.Wrap(services.ErrRemote, "gazelle", "upload", "request", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrRemote, "gazelle", "upload", fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}
	return decodeStatus(resp.Body, "upload")
}

// DownloadTorrent fetches the .torrent payload for an existing torrent.
func (c *Client) DownloadTorrent(ctx context.Context, torrentID int64) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/torrents.php?action=download&id=%d", c.endpoint, torrentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrRemote, "gazelle", "download", "build request", err)
	}
	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, services.Wrap(services.ErrRemote, "gazelle", "download", "request", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrRemote, "gazelle", "download", fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}
	if kind := resp.Header.Get("Content-Type"); !strings.Contains(kind, "application/x-bittorrent") {
		return nil, services.Wrap(services.ErrRemote, "gazelle", "download", fmt.Sprintf("unexpected content type %q", kind), nil)
	}
	return io.ReadAll(resp.Body)
}

// ReleaseURL renders the browser link for a torrent within its group page.
func (c *Client) ReleaseURL(groupID, torrentID int64) string {
	return fmt.Sprintf("%s/torrents.php?id=%d&torrentid=%d#torrent%d", c.endpoint, groupID, torrentID, torrentID)
}

// Permalink renders the stable link for a torrent.
func (c *Client) Permalink(torrentID int64) string {
	return fmt.Sprintf("%s/torrents.php?torrentid=%d", c.endpoint, torrentID)
}

func decodeStatus(body io.Reader, operation string) error {
	payload, err := io.ReadAll(body)
	if err != nil {
		return services.Wrap(services.ErrRemote, "gazelle", operation, "read response", err)
	}
	var wrapped envelope
	if err := json.Unmarshal(payload, &wrapped); err != nil {
		return services.Wrap(services.ErrRemote, "gazelle", operation, "decode envelope", err)
	}
	if wrapped.Status != "success" {
		message := wrapped.Error
		if message == "" {
			message = "request failed"
		}
		return services.Wrap(services.ErrRemote, "gazelle", operation, message, nil)
	}
	return nil
}
