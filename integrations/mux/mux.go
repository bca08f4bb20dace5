// Package mux wraps the parts of the Mux Video API the platform uses: direct uploads and asset deletion.
package mux

import (
	"academy/config"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

var ErrMux = errors.New("mux api error")

// Upload is a Mux direct upload
type Upload struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Status  string `json:"status"`
	AssetID string `json:"asset_id,omitempty"`
}

type UploadRequest struct {
	Passthrough string
	CorsOrigin  string
}

// VideoClient is implemented by Client and by fakes in tests
type VideoClient interface {
	CreateDirectUpload(ctx context.Context, req UploadRequest) (*Upload, error)
	DeleteAsset(ctx context.Context, assetID string) error
}

// Video is the client used by controllers
var Video VideoClient

type Client struct {
	http *resty.Client
}

func NewClient(baseURL, tokenID, tokenSecret string) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetBasicAuth(tokenID, tokenSecret).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)
	return &Client{http: c}
}

func Init(cfg *config.Config) VideoClient {
	Video = NewClient(cfg.MuxApiURL, cfg.MuxTokenID, cfg.MuxTokenSecret)
	return Video
}

type uploadBody struct {
	CorsOrigin       string `json:"cors_origin"`
	NewAssetSettings struct {
		PlaybackPolicy []string `json:"playback_policy"`
		Passthrough    string   `json:"passthrough,omitempty"`
	} `json:"new_asset_settings"`
}

type envelope[T any] struct {
	Data T `json:"data"`
}

func (c *Client) CreateDirectUpload(ctx context.Context, req UploadRequest) (*Upload, error) {
	body := uploadBody{CorsOrigin: req.CorsOrigin}
	if body.CorsOrigin == "" {
		body.CorsOrigin = "*"
	}
	body.NewAssetSettings.PlaybackPolicy = []string{"public"}
	body.NewAssetSettings.Passthrough = req.Passthrough

	var out envelope[Upload]
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post("/video/v1/uploads")
	if err != nil {
		return nil, fmt.Errorf("%w: create upload: %v", ErrMux, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: create upload: %d %s", ErrMux, resp.StatusCode(), resp.String())
	}
	if out.Data.ID == "" || out.Data.URL == "" {
		return nil, fmt.Errorf("%w: upload response missing id or url", ErrMux)
	}
	return &out.Data, nil
}

// DeleteAsset removes an asset. A 404 means it is already gone and is not an error.
func (c *Client) DeleteAsset(ctx context.Context, assetID string) error {
	if assetID == "" {
		return nil
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("assetId", assetID).
		Delete("/video/v1/assets/{assetId}")
	if err != nil {
		return fmt.Errorf("%w: delete asset: %v", ErrMux, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil
	}
	if resp.IsError() {
		return fmt.Errorf("%w: delete asset: %d", ErrMux, resp.StatusCode())
	}
	return nil
}

var _ VideoClient = (*Client)(nil)
