package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to an IPFS HTTP API for pinned uploads and to a public
// gateway for reads.
type Client struct {
	apiURL  string
	gateway string
	client  *http.Client
}

type Options struct {
	APIURL  string
	Gateway string
	Timeout time.Duration
}

func NewClient(opt Options) *Client {
	if opt.APIURL == "" {
		opt.APIURL = "http://127.0.0.1:5001"
	}
	if opt.Gateway == "" {
		opt.Gateway = DefaultGateway
	}
	if opt.Timeout == 0 {
		opt.Timeout = 30 * time.Second
	}
	return &Client{
		apiURL:  strings.TrimRight(opt.APIURL, "/"),
		gateway: strings.TrimRight(opt.Gateway, "/"),
		client:  &http.Client{Timeout: opt.Timeout},
	}
}

func (c *Client) Gateway() string {
	return c.gateway
}

// AddFile uploads a single file and returns its CID.
func (c *Client) AddFile(ctx context.Context, name string, data []byte) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	reqURL := fmt.Sprintf("%s/api/v0/add?pin=true&cid-version=1", c.apiURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		if len(body) == 0 {
			return "", fmt.Errorf("ipfs add failed: %s", resp.Status)
		}
		return "", fmt.Errorf("ipfs add failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var entry struct {
		Hash string `json:"Hash"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
		return "", fmt.Errorf("ipfs add decode: %w", err)
	}
	if entry.Hash == "" {
		return "", fmt.Errorf("ipfs add returned empty hash")
	}
	return entry.Hash, nil
}

// AddJSON serializes v and uploads it as a single document.
func (c *Client) AddJSON(ctx context.Context, name string, v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("ipfs add json marshal: %w", err)
	}
	return c.AddFile(ctx, name, raw)
}

// CatJSON dereferences a CID through the gateway and decodes the JSON
// body into v. Gateway reads are idempotent, so one retry is allowed.
func (c *Client) CatJSON(ctx context.Context, cid string, v any) error {
	if strings.TrimSpace(cid) == "" {
		return fmt.Errorf("ipfs cat missing cid")
	}
	reqURL := fmt.Sprintf("%s/ipfs/%s", c.gateway, url.PathEscape(cid))

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return err
		}
		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("ipfs cat failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
			continue
		}
		err = json.NewDecoder(resp.Body).Decode(v)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("ipfs cat decode: %w", err)
		}
		return nil
	}
	return lastErr
}
