// Package portal is the HTTP session against the self-service portal. It
// keeps the login cookies and turns every response into a fresh document.
package portal

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/penwyp/go-ssp-overtime/internal/util"
	"golang.org/x/net/html/charset"
	"golang.org/x/net/publicsuffix"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultMaxBytes  = 10 * 1024 * 1024
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	LoginPath      = "/index.aspx"
	AttendancePath = "/FW99001Z.aspx"
)

var (
	// ErrUnexpectedStatus is wrapped by errors for non-2xx responses.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
	// ErrBodyTooLarge is returned for a response longer than MaxBytes; a cut
	// page would lose its pager row and token fields.
	ErrBodyTooLarge = errors.New("response body too large")
)

type Config struct {
	BaseURL   string
	Timeout   time.Duration
	MaxBytes  int64
	UserAgent string
	// Insecure skips TLS verification; intranet portals often serve
	// self-signed certificates.
	Insecure bool
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = DefaultMaxBytes
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
}

// Page is one decoded response.
type Page struct {
	URL  *url.URL
	Body string
	Doc  *goquery.Document
}

type Client struct {
	base   *url.URL
	http   *http.Client
	config Config
	logger util.LoggerInterface
}

func New(cfg Config, logger util.LoggerInterface) (*Client, error) {
	cfg.defaults()

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base URL %q must be http or https", cfg.BaseURL)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	return &Client{
		base: base,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Jar:       jar,
			Transport: transport,
		},
		config: cfg,
		logger: util.OrNop(logger),
	}, nil
}

func (c *Client) BaseURL() string {
	return c.base.String()
}

// Get fetches path and parses the response.
func (c *Client) Get(ctx context.Context, path string) (*goquery.Document, error) {
	page, err := c.Fetch(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return page.Doc, nil
}

// PostBack submits form to path as the browser would on a postback.
func (c *Client) PostBack(ctx context.Context, path string, form url.Values) (*goquery.Document, error) {
	page, err := c.Fetch(ctx, http.MethodPost, path, form)
	if err != nil {
		return nil, err
	}
	return page.Doc, nil
}

// Fetch performs one request and decodes the body from its declared
// charset. A non-nil form is sent url-encoded.
func (c *Client) Fetch(ctx context.Context, method, path string, form url.Values) (*Page, error) {
	target := c.resolve(path)

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.WithContext(ctx).Debug("portal response",
		util.F("method", method), util.F("path", path),
		util.F("status", resp.StatusCode), util.F("elapsed", time.Since(start).String()))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s %s: %w: %d", method, path, ErrUnexpectedStatus, resp.StatusCode)
	}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if int64(len(respBody)) > c.config.MaxBytes {
		return nil, fmt.Errorf("%s %s: %w: over %d bytes", method, path, ErrBodyTooLarge, c.config.MaxBytes)
	}

	reader, err := charset.NewReader(bytes.NewReader(respBody), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	doc.Url = resp.Request.URL

	return &Page{URL: resp.Request.URL, Body: string(raw), Doc: doc}, nil
}

func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.base.String() + path
}
