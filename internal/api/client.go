// Package api is the uniform transport for all backend calls: it attaches the
// bearer token from durable storage, enforces a fixed overall timeout, and
// classifies every failure into a small display taxonomy. Domain calls are
// thin typed wrappers over it and carry no error handling of their own.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"modpanel.org/internal/store"
)

const defaultTimeout = 30 * time.Second

// Client issues authenticated HTTP calls against the admin backend.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	store          *store.Store
	limiter        waiter
	onUnauthorized func()

	Auth      *AuthAPI
	Groups    *GroupsAPI
	Actions   *ActionsAPI
	Analytics *AnalyticsAPI
	Util      *UtilAPI
}

// New creates a client for the given base URL, e.g. "http://localhost:8090/api/web".
func New(baseURL string, st *store.Store, opts ...option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		store:      st,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Auth = &AuthAPI{c: c}
	c.Groups = &GroupsAPI{c: c}
	c.Actions = &ActionsAPI{c: c}
	c.Analytics = &AnalyticsAPI{c: c}
	c.Util = &UtilAPI{c: c}
	return c
}

// NewRequest performs a call and returns the response for 2xx statuses. Error
// statuses and transport failures come back as *Error. A 401 additionally
// clears the stored token and fires the unauthorized hook, whichever call
// triggered it.
func (c *Client) NewRequest(ctx context.Context, method, path string, body io.Reader, params map[string]string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, transportError(err)
		}
	}

	target := c.baseURL + path
	if len(params) > 0 {
		values := url.Values{}
		for k, v := range params {
			values.Set(k, v)
		}
		target += "?" + values.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, &Error{Message: err.Error(), Class: ClassGeneric, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token, ok := c.store.Get(store.KeyAuthToken); ok && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.invalidateSession()
		drain(resp)
		return nil, &Error{
			StatusCode: resp.StatusCode,
			Message:    statusMessage(resp.StatusCode, ""),
			Class:      ClassCredential,
		}
	}
	if resp.StatusCode >= 400 {
		msg := readErrorMessage(resp)
		return nil, &Error{
			StatusCode: resp.StatusCode,
			Message:    statusMessage(resp.StatusCode, msg),
			Class:      classify(resp.StatusCode),
		}
	}
	return resp, nil
}

// invalidateSession drops the local token so a subsequent authentication check
// resolves to "no user". The hook is the redirect-to-login analog and fires
// even for background calls.
func (c *Client) invalidateSession() {
	if err := c.store.Delete(store.KeyAuthToken); err != nil {
		log.Warnf("clear auth token: %v", err)
	}
	if c.onUnauthorized != nil {
		c.onUnauthorized()
	}
}

// initiatedBy returns the stored operator identifier attached to moderation
// requests, zero when absent.
func (c *Client) initiatedBy() int64 {
	raw, ok := c.store.Get(store.KeyUserID)
	if !ok {
		return 0
	}
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func parseResponse[T any](resp *http.Response) (T, error) {
	var ret T
	if resp == nil || resp.Body == nil {
		return ret, errors.New("no response body")
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return ret, fmt.Errorf("read response body: %w", err)
	}
	if err := json.Unmarshal(data, &ret); err != nil {
		return ret, fmt.Errorf("parse response body: %w", err)
	}
	return ret, nil
}

type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

func readErrorMessage(resp *http.Response) string {
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return ""
	}
	var env errorEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return ""
	}
	switch {
	case env.Message != "":
		return env.Message
	case env.Error != "":
		return env.Error
	default:
		return env.Detail
	}
}

func drain(resp *http.Response) {
	if resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	resp.Body.Close()
}
