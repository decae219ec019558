// Package remote reads and writes GitHub repositories through the REST API.
//
// Reads go through the contents, git trees and git blobs endpoints; writes go
// through the contents API, one commit per file. Errors are classified into
// apperr kinds here so callers never inspect go-github types.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"flashgh/internal/apperr"
	"flashgh/internal/config"
	"flashgh/internal/logging"

	"github.com/google/go-github/v59/github"
	"golang.org/x/oauth2"
)

const userAgent = "flashgh"

// Options configures a Client.
type Options struct {
	// Token authenticates requests. Empty means anonymous access.
	Token string
	// BaseURL and UploadURL point at a GitHub Enterprise server.
	BaseURL   string
	UploadURL string
	Timeout   time.Duration
	// HTTPClient overrides the transport. Token is still applied on top.
	HTTPClient *http.Client
}

// OptionsFromConfig maps the github config section onto client options.
func OptionsFromConfig(cfg *config.Config, token string) Options {
	return Options{
		Token:     token,
		BaseURL:   cfg.GitHub.APIURL,
		UploadURL: cfg.GitHub.UploadURL,
		Timeout:   cfg.GitHub.Timeout,
	}
}

// Client is a GitHub API client. It holds no per-call state and is safe for
// concurrent use.
type Client struct {
	gh        *github.Client
	anonymous bool
}

// NewClient builds a client from opts.
func NewClient(opts Options) (*Client, error) {
	base := opts.HTTPClient
	if base == nil {
		base = &http.Client{}
	}

	cp := *base
	hc := &cp
	if opts.Token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		hc = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}))
	}
	if opts.Timeout > 0 {
		hc.Timeout = opts.Timeout
	}

	gh := github.NewClient(hc)
	gh.UserAgent = userAgent

	if opts.BaseURL != "" {
		upload := opts.UploadURL
		if upload == "" {
			upload = opts.BaseURL
		}
		var err error
		gh, err = gh.WithEnterpriseURLs(opts.BaseURL, upload)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub Enterprise URL: %w", err)
		}
	}

	logging.Debug("GitHub client created", "base_url", gh.BaseURL.String(), "authenticated", opts.Token != "")
	return &Client{gh: gh, anonymous: opts.Token == ""}, nil
}

// Anonymous reports whether the client sends no token.
func (c *Client) Anonymous() bool {
	return c.anonymous
}

// classify maps a go-github error onto an apperr kind for a read.
func classify(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return apperr.New(kindOf(err, apperr.RemoteError), op, path, err)
}

// classifyWrite is classify for writes: anything not about credentials or
// quota is a RemoteWriteError.
func classifyWrite(op, path string, err error) error {
	if err == nil {
		return nil
	}
	kind := kindOf(err, apperr.RemoteWriteError)
	if kind == apperr.NotFound || kind == apperr.InvalidInput {
		kind = apperr.RemoteWriteError
	}
	return apperr.New(kind, op, path, err)
}

func kindOf(err error, fallback apperr.Kind) apperr.Kind {
	var (
		rateErr  *github.RateLimitError
		abuseErr *github.AbuseRateLimitError
		respErr  *github.ErrorResponse
	)
	switch {
	case errors.As(err, &rateErr), errors.As(err, &abuseErr):
		return apperr.RateLimited
	case errors.As(err, &respErr) && respErr.Response != nil:
		switch respErr.Response.StatusCode {
		case http.StatusNotFound:
			return apperr.NotFound
		case http.StatusUnauthorized, http.StatusForbidden:
			return apperr.AuthError
		case http.StatusUnprocessableEntity:
			return apperr.InvalidInput
		}
	}
	return fallback
}

func statusCode(err error) int {
	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		return respErr.Response.StatusCode
	}
	return 0
}

// isEmptyRepository reports the 409 GitHub returns for git data requests on a
// repository without commits.
func isEmptyRepository(err error) bool {
	return statusCode(err) == http.StatusConflict
}
