package smmdb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the public SMMDB API.
const DefaultBaseURL = "https://api.smmdb.net"

// maxErrorBody bounds how much of an error response is read into messages.
const maxErrorBody = 4 << 10

const (
	// maxPayload bounds a course download: the course file, its thumbnail
	// and zip overhead fit well within it.
	maxPayload = 8 * CourseDataSize
	// maxThumbnail bounds a thumbnail response before it reaches the cache.
	maxThumbnail = 2 << 20
)

// errTooLarge is wrapped by FetchError when a response exceeds its limit.
var errTooLarge = errors.New("response too large")

// Client talks to the SMMDB HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
	stream  *http.Client
	log     *slog.Logger
}

// NewClient builds a client. timeout applies to every request except
// downloads, which are bounded by their context only.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		stream:  &http.Client{},
		log:     logger,
	}
}

// Courses fetches one page of courses. apiKey may be empty; when set the
// response carries the caller's own votes.
func (c *Client) Courses(ctx context.Context, params QueryParams, apiKey string) ([]Course, error) {
	endpoint := c.baseURL + "/courses2?" + params.Values().Encode()
	resp, err := c.do(ctx, c.http, http.MethodGet, endpoint, apiKey, nil)
	if err != nil {
		return nil, &FetchError{Op: "courses", Err: err}
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, &FetchError{Op: "courses", Status: resp.StatusCode, Err: err}
	}
	var raw []courseResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, &FetchError{Op: "courses", Err: fmt.Errorf("decode: %w", err)}
	}
	out := make([]Course, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.course())
	}
	c.log.Debug("courses fetched", "count", len(out), "skip", params.Skip, "limit", params.Limit)
	return out, nil
}

// Thumbnail fetches the medium thumbnail of a course.
func (c *Client) Thumbnail(ctx context.Context, id string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/courses2/thumbnail/%s?size=m", c.baseURL, url.PathEscape(id))
	resp, err := c.do(ctx, c.http, http.MethodGet, endpoint, "", nil)
	if err != nil {
		return nil, &FetchError{Op: "thumbnail", Err: err}
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, &FetchError{Op: "thumbnail", Status: resp.StatusCode, Err: err}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxThumbnail+1))
	if err != nil {
		return nil, &FetchError{Op: "thumbnail", Err: err}
	}
	if len(data) > maxThumbnail {
		return nil, &FetchError{Op: "thumbnail", Err: errTooLarge}
	}
	return data, nil
}

type voteRequest struct {
	Value int `json:"value"`
}

// Vote records +1, -1 or 0 (reset) for the account behind apiKey.
func (c *Client) Vote(ctx context.Context, id string, value int, apiKey string) error {
	if apiKey == "" {
		return &CredentialError{Message: "no api key configured"}
	}
	body, _ := json.Marshal(voteRequest{Value: clampVote(value)})
	endpoint := fmt.Sprintf("%s/courses2/%s/vote", c.baseURL, url.PathEscape(id))
	resp, err := c.do(ctx, c.http, http.MethodPost, endpoint, apiKey, body)
	if err != nil {
		return &FetchError{Op: "vote", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return &CredentialError{Status: resp.StatusCode, Message: readMessage(resp.Body)}
	}
	if err := checkStatus(resp); err != nil {
		return &FetchError{Op: "vote", Status: resp.StatusCode, Err: err}
	}
	return nil
}

// SignIn checks that apiKey is accepted by the login endpoint.
func (c *Client) SignIn(ctx context.Context, apiKey string) error {
	resp, err := c.do(ctx, c.http, http.MethodPost, c.baseURL+"/login", apiKey, nil)
	if err != nil {
		return &FetchError{Op: "login", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &CredentialError{Status: resp.StatusCode, Message: readMessage(resp.Body)}
	}
	return nil
}

// Download streams a course archive. The returned channel yields Started,
// zero or more Advanced events, then exactly one Finished or Errored, and is
// closed afterwards. Cancelling ctx stops the stream without a terminal
// event.
func (c *Client) Download(ctx context.Context, id string) <-chan Progress {
	out := make(chan Progress, 1)
	go func() {
		defer close(out)
		send := func(p Progress) bool {
			select {
			case out <- p:
				return true
			case <-ctx.Done():
				return false
			}
		}
		if !send(Started()) {
			return
		}
		payload, err := c.download(ctx, id, func(f float64) bool { return send(Advanced(f)) })
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			c.log.Warn("download failed", "course", id, "err", err)
			send(Errored(err))
			return
		}
		c.log.Info("download finished", "course", id, "bytes", len(payload))
		send(Finished(payload))
	}()
	return out
}

const chunkSize = 32 << 10

func (c *Client) download(ctx context.Context, id string, advance func(float64) bool) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/courses2/download/%s", c.baseURL, url.PathEscape(id))
	resp, err := c.do(ctx, c.stream, http.MethodGet, endpoint, "", nil)
	if err != nil {
		return nil, &FetchError{Op: "download", Err: err}
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, &FetchError{Op: "download", Status: resp.StatusCode, Err: err}
	}

	total := resp.ContentLength
	if total > maxPayload {
		return nil, &FetchError{Op: "download", Err: fmt.Errorf("%w: content length %d", errTooLarge, total)}
	}
	var buf bytes.Buffer
	if total > 0 {
		buf.Grow(int(total))
	}
	body := io.LimitReader(resp.Body, maxPayload+1)
	chunk := make([]byte, chunkSize)
	for {
		n, readErr := body.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			if buf.Len() > maxPayload {
				return nil, &FetchError{Op: "download", Err: errTooLarge}
			}
			if total > 0 {
				if !advance(float64(buf.Len()) / float64(total)) {
					return nil, ctx.Err()
				}
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return nil, &FetchError{Op: "download", Err: readErr}
		}
	}
	return buf.Bytes(), nil
}

func (c *Client) do(ctx context.Context, hc *http.Client, method, endpoint, apiKey string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		req.Header.Set("Authorization", "APIKEY "+apiKey)
	}
	return hc.Do(req)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	msg := readMessage(resp.Body)
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return errors.New(msg)
}

func readMessage(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return strings.TrimSpace(string(data))
}
