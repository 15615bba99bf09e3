package client

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/JohnDeved/wallhub/internal/model"
)

const userAgent = "wallhub/1.0"

// Client talks to the wallpaper backend.
type Client struct {
	api     *resty.Client // Short timeout for JSON endpoints
	dl      *resty.Client // No timeout for asset downloads (managed by context)
	limiter *rate.Limiter
	baseURL string
	log     zerolog.Logger
}

// New creates a backend client for the given origin.
func New(baseURL string, reqPerSec float64, log zerolog.Logger) *Client {
	if reqPerSec <= 0 {
		reqPerSec = 5.0
	}

	c := &Client{
		limiter: rate.NewLimiter(rate.Limit(reqPerSec), 5),
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log.With().Str("component", "client").Logger(),
	}
	c.api = c.newResty().
		SetBaseURL(c.baseURL).
		SetTimeout(30 * time.Second)
	// Downloads are long-running; the context bounds them instead of a
	// client timeout, which would also cover body read time.
	c.dl = c.newResty()
	return c
}

func (c *Client) newResty() *resty.Client {
	r := resty.New().SetHeader("User-Agent", userAgent)
	r.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		req.SetHeader("X-Request-ID", uuid.NewString())
		return c.limiter.Wait(req.Context())
	})
	return r
}

// BaseURL returns the configured backend origin.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type wallpapersResponse struct {
	Wallpapers []model.Wallpaper `json:"wallpapers"`
}

type categoriesResponse struct {
	Categories []string `json:"categories"`
}

type messageResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// ListWallpapers fetches the catalog. An empty device lists every device.
// Records with an unknown device are dropped; descriptions are reduced to
// plain text.
func (c *Client) ListWallpapers(ctx context.Context, device model.Device) ([]model.Wallpaper, error) {
	var out wallpapersResponse
	req := c.api.R().SetContext(ctx).SetResult(&out)
	if device != "" {
		req.SetQueryParam("device", string(device))
	}
	resp, err := req.Get("/api/get-wallpapers")
	if err := c.check(resp, err, "/api/get-wallpapers"); err != nil {
		return nil, err
	}

	wallpapers := make([]model.Wallpaper, 0, len(out.Wallpapers))
	for _, w := range out.Wallpapers {
		if !w.Normalize() {
			c.log.Warn().Str("id", w.ID).Str("device", string(w.Device)).Msg("dropping wallpaper with unknown device")
			continue
		}
		w.Description = PlainText(w.Description)
		wallpapers = append(wallpapers, w)
	}
	return wallpapers, nil
}

// ListCategories fetches the category names.
func (c *Client) ListCategories(ctx context.Context) ([]string, error) {
	var out categoriesResponse
	resp, err := c.api.R().SetContext(ctx).SetResult(&out).Get("/api/get-categories")
	if err := c.check(resp, err, "/api/get-categories"); err != nil {
		return nil, err
	}
	categories := make([]string, 0, len(out.Categories))
	for _, name := range out.Categories {
		if name = strings.TrimSpace(name); name != "" {
			categories = append(categories, name)
		}
	}
	return categories, nil
}

// Upload is the multipart payload of a manual wallpaper upload.
type Upload struct {
	Name        string
	Description string
	Device      model.Device
	Category    string
	NewCategory string
	ImageName   string
	Image       io.Reader
}

// UploadWallpaper posts a new wallpaper with the admin bearer token and
// returns the server's message.
func (c *Client) UploadWallpaper(ctx context.Context, token string, u Upload) (string, error) {
	var out messageResponse
	resp, err := c.api.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetMultipartFormData(map[string]string{
			"name":         u.Name,
			"description":  u.Description,
			"device":       string(u.Device),
			"category":     u.Category,
			"new-category": u.NewCategory,
		}).
		SetFileReader("image", u.ImageName, u.Image).
		SetResult(&out).
		Post("/api/upload-wallpaper")
	if err := c.check(resp, err, "/api/upload-wallpaper"); err != nil {
		return "", err
	}
	return out.Message, nil
}

// FetchWallpapers asks the backend to ingest provider images matching
// query for device.
func (c *Client) FetchWallpapers(ctx context.Context, query string, device model.Device) (string, error) {
	var out messageResponse
	resp, err := c.api.R().
		SetContext(ctx).
		SetBody(map[string]string{"query": query, "device": string(device)}).
		SetResult(&out).
		SetError(&out).
		Post("/api/fetch-wallpapers")
	if err := c.check(resp, err, "/api/fetch-wallpapers"); err != nil {
		if out.Error != "" {
			c.log.Warn().Str("error", out.Error).Msg("bulk ingestion rejected")
		}
		return "", err
	}
	if out.Error != "" {
		return "", &model.NetworkError{URL: c.baseURL + "/api/fetch-wallpapers", Status: resp.StatusCode(), Err: errors.New(out.Error)}
	}
	return out.Message, nil
}

// DownloadFile starts fetching an asset. The caller must close the body.
func (c *Client) DownloadFile(ctx context.Context, fileURL string) (io.ReadCloser, int64, error) {
	resp, err := c.dl.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(fileURL)
	if err != nil {
		return nil, 0, &model.NetworkError{URL: fileURL, Err: err}
	}
	body := resp.RawBody()
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		body.Close()
		return nil, 0, &model.NetworkError{URL: fileURL, Status: resp.StatusCode()}
	}

	contentType := strings.ToLower(resp.Header().Get("Content-Type"))
	if strings.Contains(contentType, "text/html") {
		body.Close()
		return nil, 0, &model.NetworkError{URL: fileURL, Status: resp.StatusCode(), Err: errors.New("refusing HTML response for asset")}
	}

	return body, resp.RawResponse.ContentLength, nil
}

func (c *Client) check(resp *resty.Response, err error, path string) error {
	u := c.baseURL + path
	if err != nil {
		return &model.NetworkError{URL: u, Err: err}
	}
	if resp.IsError() || resp.StatusCode() < http.StatusOK || resp.StatusCode() > 299 {
		c.log.Debug().Int("status", resp.StatusCode()).Str("body", truncate(resp.String(), 200)).Str("url", u).Msg("request failed")
		return &model.NetworkError{URL: u, Status: resp.StatusCode()}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
