// Copyright (c) 2026 Targeted Entropy.
// SPDX-License-Identifier: Apache-2.0

package curse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/TargetedEntropy/change-log-o-matic/internal/log"
)

// ErrNotFound means every candidate target answered with a well-formed
// "does not exist" response. A valid, cacheable outcome.
var ErrNotFound = errors.New("project not found upstream")

// ErrTransient means the lookup failed for infrastructure reasons (network,
// timeout, unexpected status). Never cached; the entry is marked Failed and
// the run continues.
var ErrTransient = errors.New("transient lookup failure")

// userAgent mirrors a desktop browser; the website rejects obvious bots.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Client resolves project and file identities to display metadata. Safe for
// concurrent use.
type Client struct {
	http  *retryablehttp.Client
	bases []string
}

// New returns a client aimed at the production site, trying the modern host
// first and the legacy host second.
func New() *Client {
	return NewWithBases(
		"https://www.curseforge.com",
		"https://legacy.curseforge.com",
	)
}

// NewWithBases returns a client restricted to the given site bases, in
// priority order. Used by tests to aim at an httptest server.
func NewWithBases(bases ...string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = nil
	rc.HTTPClient.Timeout = 10 * time.Second
	return &Client{http: rc, bases: bases}
}

// candidateSlugs returns the naming-convention variants for an identity in
// fixed priority order: exact, lower-cased, punctuation-stripped. Upstream
// renames drift between these shapes; trying all of them avoids hard failure.
func candidateSlugs(identity string) []string {
	lower := strings.ToLower(strings.TrimSpace(identity))
	stripped := punctRE.ReplaceAllString(lower, "-")
	stripped = strings.Trim(stripped, "-")

	slugs := []string{identity}
	for _, s := range []string{lower, stripped} {
		if s != "" && !contains(slugs, s) {
			slugs = append(slugs, s)
		}
	}
	return slugs
}

var punctRE = regexp.MustCompile(`[^a-z0-9-]+`)

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// projectURLs builds the full candidate target list for one identity. The
// legacy host additionally takes the p-prefixed numeric form.
func (c *Client) projectURLs(identity string) []string {
	var urls []string
	for i, base := range c.bases {
		for _, slug := range candidateSlugs(identity) {
			urls = append(urls, fmt.Sprintf("%s/minecraft/mc-mods/%s", base, slug))
		}
		if i > 0 {
			urls = append(urls, fmt.Sprintf("%s/minecraft/mc-mods/p%s", base, identity))
		}
	}
	return urls
}

func (c *Client) fileURLs(identity, fileID string) []string {
	var urls []string
	for i, base := range c.bases {
		for _, slug := range candidateSlugs(identity) {
			urls = append(urls, fmt.Sprintf("%s/minecraft/mc-mods/%s/files/%s", base, slug, fileID))
		}
		if i > 0 {
			urls = append(urls, fmt.Sprintf("%s/minecraft/mc-mods/p%s/files/%s", base, identity, fileID))
		}
	}
	return urls
}

// LookupProject resolves one project identity to display metadata. The first
// candidate answering 200 wins; a body with no recognizable name degrades to
// partial metadata rather than failing.
func (c *Client) LookupProject(ctx context.Context, identity string) (*ProjectInfo, error) {
	var sawNotFound, sawTransient bool
	var lastErr error

	for _, url := range c.projectURLs(identity) {
		status, body, err := c.fetch(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.WithError(err).Warnf("lookup failed: url=%s", url)
			sawTransient = true
			lastErr = err
			continue
		}

		switch {
		case status == http.StatusOK:
			name := extractName(body, "data.name", "name", "title")
			if name == "" {
				// Partial metadata beats no metadata.
				name = "Project-" + identity
				log.Debugf("no name in response, degrading: url=%s", url)
			}
			return &ProjectInfo{ID: identity, Name: name, URL: url}, nil
		case status == http.StatusNotFound:
			sawNotFound = true
		default:
			log.Debugf("unexpected status: url=%s status=%d", url, status)
			sawTransient = true
			lastErr = fmt.Errorf("unexpected status %d from %s", status, url)
		}
	}

	if sawNotFound && !sawTransient {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, identity)
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTransient, identity, lastErr)
	}
	return nil, fmt.Errorf("%w: %s", ErrTransient, identity)
}

// LookupFile resolves one (project, file) pair to file display metadata.
// Classification mirrors LookupProject.
func (c *Client) LookupFile(ctx context.Context, identity, fileID string) (*FileInfo, error) {
	var sawNotFound, sawTransient bool
	var lastErr error

	for _, url := range c.fileURLs(identity, fileID) {
		status, body, err := c.fetch(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.WithError(err).Warnf("file lookup failed: url=%s", url)
			sawTransient = true
			lastErr = err
			continue
		}

		switch {
		case status == http.StatusOK:
			fileName := extractName(body, "data.fileName", "fileName", "name", "title")
			if fileName == "" {
				fileName = "File-" + fileID
				log.Debugf("no file name in response, degrading: url=%s", url)
			}
			display := extractName(body, "data.displayName", "displayName")
			if display == "" {
				display = fileName
			}
			return &FileInfo{
				ProjectID:   identity,
				ID:          fileID,
				FileName:    fileName,
				DisplayName: display,
				URL:         url,
			}, nil
		case status == http.StatusNotFound:
			sawNotFound = true
		default:
			log.Debugf("unexpected status: url=%s status=%d", url, status)
			sawTransient = true
			lastErr = fmt.Errorf("unexpected status %d from %s", status, url)
		}
	}

	if sawNotFound && !sawTransient {
		return nil, fmt.Errorf("%w: %s file %s", ErrNotFound, identity, fileID)
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %s file %s: %v", ErrTransient, identity, fileID, lastErr)
	}
	return nil, fmt.Errorf("%w: %s file %s", ErrTransient, identity, fileID)
}

// fetch issues one GET. Socket-level retries are retryablehttp's business;
// by the time an error surfaces here it is transient by definition.
func (c *Client) fetch(ctx context.Context, url string) (int, []byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// extractName pulls a display name out of a response body of drifting shape.
// JSON bodies are walked with gjson along the given paths in priority order;
// HTML bodies fall back to the first h1/title text. Empty string means the
// body held nothing usable.
func extractName(body []byte, paths ...string) string {
	if gjson.ValidBytes(body) {
		doc := gjson.ParseBytes(body)
		for _, p := range paths {
			if v := doc.Get(p); v.Exists() && v.String() != "" {
				return strings.TrimSpace(v.String())
			}
		}
		return ""
	}

	for _, re := range []*regexp.Regexp{h1RE, titleRE} {
		if m := re.FindSubmatch(body); m != nil {
			if name := strings.TrimSpace(tagRE.ReplaceAllString(string(m[1]), "")); name != "" {
				return name
			}
		}
	}
	return ""
}

var (
	h1RE    = regexp.MustCompile(`(?is)<h1[^>]*>(.*?)</h1>`)
	titleRE = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	tagRE   = regexp.MustCompile(`(?s)<[^>]*>`)
)
