// Package mux 封装视频编码服务（Mux 兼容 REST API）的出站调用。
package mux

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	stdhttp "net/http"
	"net/url"
	"time"

	obsTrace "github.com/bionicotaku/lingo-utils/observability/tracing"
	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/middleware/circuitbreaker"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/bionicotaku/lingo-services-course/internal/models/po"
)

const (
	assetsPath           = "/video/v1/assets"
	publicPlaybackPolicy = "public"
)

// Config 描述编码服务地址与凭据。
type Config struct {
	BaseURL     string
	TokenID     string
	TokenSecret string
	Timeout     time.Duration
}

// Client 调用编码服务创建/删除资源。
type Client struct {
	http *http.Client
	log  *log.Helper
}

type createAssetRequest struct {
	Input          []assetInput `json:"input"`
	PlaybackPolicy []string     `json:"playback_policy"`
}

type assetInput struct {
	URL string `json:"url"`
}

type assetReply struct {
	Data struct {
		ID          string `json:"id"`
		PlaybackIDs []struct {
			ID     string `json:"id"`
			Policy string `json:"policy"`
		} `json:"playback_ids"`
	} `json:"data"`
}

// NewClient 创建编码服务客户端，返回 cleanup 关闭底层连接。
func NewClient(ctx context.Context, cfg Config, logger log.Logger) (*Client, func(), error) {
	if cfg.BaseURL == "" {
		return nil, nil, errors.New("mux client: base url is required")
	}
	endpoint, err := url.Parse(cfg.BaseURL)
	if err != nil || endpoint.Host == "" {
		return nil, nil, fmt.Errorf("mux client: invalid base url %q", cfg.BaseURL)
	}

	opts := []http.ClientOption{
		http.WithEndpoint(endpoint.String()),
		http.WithMiddleware(
			recovery.Recovery(),
			obsTrace.Client(),
			circuitbreaker.Client(),
			basicAuth(cfg.TokenID, cfg.TokenSecret),
		),
		http.WithResponseDecoder(decodeResponse),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, http.WithTimeout(cfg.Timeout))
	}

	client, err := http.NewClient(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("mux client: %w", err)
	}
	helper := log.NewHelper(logger)
	cleanup := func() {
		if err := client.Close(); err != nil {
			helper.Errorf("close mux client: %v", err)
		}
	}
	return &Client{http: client, log: helper}, cleanup, nil
}

// CreateAsset 以公开播放策略提交源视频地址，返回资源 ID 与首个公开播放 ID（没有时为空串）。
func (c *Client) CreateAsset(ctx context.Context, sourceURL string) (po.EncodedAsset, error) {
	if sourceURL == "" {
		return po.EncodedAsset{}, errors.New("mux create asset: source url is required")
	}
	req := createAssetRequest{
		Input:          []assetInput{{URL: sourceURL}},
		PlaybackPolicy: []string{publicPlaybackPolicy},
	}
	var reply assetReply
	if err := c.http.Invoke(ctx, stdhttp.MethodPost, assetsPath, req, &reply); err != nil {
		c.log.WithContext(ctx).Errorf("mux create asset failed: err=%v", err)
		return po.EncodedAsset{}, fmt.Errorf("mux create asset: %w", err)
	}
	if reply.Data.ID == "" {
		return po.EncodedAsset{}, errors.New("mux create asset: empty asset id")
	}

	asset := po.EncodedAsset{AssetID: reply.Data.ID}
	for _, pb := range reply.Data.PlaybackIDs {
		if pb.Policy == "" || pb.Policy == publicPlaybackPolicy {
			asset.PlaybackID = pb.ID
			break
		}
	}
	c.log.WithContext(ctx).Infof("mux asset created: asset_id=%s playback_id=%s", asset.AssetID, asset.PlaybackID)
	return asset, nil
}

// DeleteAsset 删除资源；资源不存在视为成功。
func (c *Client) DeleteAsset(ctx context.Context, assetID string) error {
	if assetID == "" {
		return nil
	}
	path := assetsPath + "/" + url.PathEscape(assetID)
	if err := c.http.Invoke(ctx, stdhttp.MethodDelete, path, nil, nil); err != nil {
		if kerrors.IsNotFound(err) {
			return nil
		}
		c.log.WithContext(ctx).Warnf("mux delete asset failed: asset_id=%s err=%v", assetID, err)
		return fmt.Errorf("mux delete asset: %w", err)
	}
	return nil
}

// basicAuth 在出站请求上注入 Basic 认证头。
func basicAuth(tokenID, tokenSecret string) middleware.Middleware {
	token := base64.StdEncoding.EncodeToString([]byte(tokenID + ":" + tokenSecret))
	return func(next middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req any) (any, error) {
			if tr, ok := transport.FromClientContext(ctx); ok && tokenID != "" {
				tr.RequestHeader().Set("Authorization", "Basic "+token)
			}
			return next(ctx, req)
		}
	}
}

// decodeResponse 容忍空响应体（DELETE 返回 204）。
func decodeResponse(_ context.Context, res *stdhttp.Response, v any) error {
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	if v == nil || len(data) == 0 {
		return nil
	}
	return http.CodecForResponse(res).Unmarshal(data, v)
}
