package client

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/JohnDeved/wallhub/internal/model"
)

// Photo is one search hit from the secondary image provider.
type Photo struct {
	ID             string    `json:"id"`
	Width          int       `json:"width"`
	Height         int       `json:"height"`
	Description    string    `json:"description"`
	AltDescription string    `json:"alt_description"`
	URLs           PhotoURLs `json:"urls"`
}

// PhotoURLs holds the provider's renditions of a photo.
type PhotoURLs struct {
	Full    string `json:"full"`
	Regular string `json:"regular"`
	Small   string `json:"small"`
}

type searchResponse struct {
	Results []Photo `json:"results"`
}

// ProviderClient searches an Unsplash-compatible photo API.
type ProviderClient struct {
	http      *resty.Client
	accessKey string
}

// Provider creates a provider client that shares c's rate limiter and
// request ids.
func (c *Client) Provider(baseURL, accessKey string) *ProviderClient {
	return &ProviderClient{
		http: c.newResty().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetHeader("Accept-Version", "v1").
			SetTimeout(15 * time.Second),
		accessKey: accessKey,
	}
}

// Search returns up to perPage photos matching query.
func (p *ProviderClient) Search(ctx context.Context, query string, perPage int) ([]Photo, error) {
	if perPage <= 0 {
		perPage = 20
	}
	var out searchResponse
	resp, err := p.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Client-ID "+p.accessKey).
		SetQueryParams(map[string]string{
			"query":    query,
			"per_page": strconv.Itoa(perPage),
		}).
		SetResult(&out).
		Get("/search/photos")
	u := p.http.BaseURL + "/search/photos"
	if err != nil {
		return nil, &model.NetworkError{URL: u, Err: err}
	}
	if resp.IsError() {
		return nil, &model.NetworkError{URL: u, Status: resp.StatusCode()}
	}
	return out.Results, nil
}
