package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jrsteele09/creator-relay/oauthmodel"
	"github.com/tidwall/gjson"
)

const (
	DefaultMaxVideoCount = 20

	relayTrendingHashtagsPath = "/api/trending/hashtags"
	relayTrendingSongsPath    = "/api/trending/songs"
)

// Privacy levels accepted by the publish endpoints.
const (
	PrivacyPublic    = "PUBLIC_TO_EVERYONE"
	PrivacyFollowers = "FOLLOWER_OF_CREATOR"
	PrivacyFriends   = "MUTUAL_FOLLOW_FRIENDS"
	PrivacySelfOnly  = "SELF_ONLY"
)

// PostInfo describes a post being published.
type PostInfo struct {
	Title          string `json:"title,omitempty"`
	Description    string `json:"description,omitempty"`
	PrivacyLevel   string `json:"privacy_level,omitempty"`
	DisableComment bool   `json:"disable_comment,omitempty"`
	DisableDuet    bool   `json:"disable_duet,omitempty"`
	DisableStitch  bool   `json:"disable_stitch,omitempty"`
}

// PublishResult is returned by the publish operations.
type PublishResult struct {
	PublishID string
	UploadURL string
	Raw       json.RawMessage
}

// GetUserVideos lists the creator's most recent videos.
func (c *Client) GetUserVideos(ctx context.Context, maxCount int) (json.RawMessage, error) {
	if maxCount <= 0 {
		maxCount = DefaultMaxVideoCount
	}
	endpoint := "/video/list/?fields=" + strings.Join(c.cfg.VideoFields, ",")
	return c.APIRequest(ctx, endpoint, http.MethodPost, map[string]any{"max_count": maxCount})
}

// GetVideoInsights fetches statistics for specific videos.
func (c *Client) GetVideoInsights(ctx context.Context, videoIDs ...string) (json.RawMessage, error) {
	if len(videoIDs) == 0 {
		return nil, fmt.Errorf("[session GetVideoInsights] no video ids")
	}
	endpoint := "/video/query/?fields=" + strings.Join(c.cfg.VideoFields, ",")
	return c.APIRequest(ctx, endpoint, http.MethodPost, map[string]any{
		"filters": map[string]any{"video_ids": videoIDs},
	})
}

// PostVideo initializes a direct post and uploads the video in chunks.
func (c *Client) PostVideo(ctx context.Context, info PostInfo, video io.ReaderAt, size int64, progress ProgressFunc) (*PublishResult, error) {
	if size <= 0 {
		return nil, &APIError{Kind: oauthmodel.ErrUpload, Message: "video is empty"}
	}
	if info.PrivacyLevel == "" {
		info.PrivacyLevel = PrivacySelfOnly
	}
	chunkSize := min(c.chunkSize, size)
	totalChunks := (size + chunkSize - 1) / chunkSize

	resp, err := c.APIRequest(ctx, "/post/publish/video/init/", http.MethodPost, map[string]any{
		"post_info": info,
		"source_info": map[string]any{
			"source":            "FILE_UPLOAD",
			"video_size":        size,
			"chunk_size":        chunkSize,
			"total_chunk_count": totalChunks,
		},
	})
	if err != nil {
		return nil, err
	}

	result := &PublishResult{
		PublishID: gjson.GetBytes(resp, "data.publish_id").String(),
		UploadURL: gjson.GetBytes(resp, "data.upload_url").String(),
		Raw:       resp,
	}
	if result.UploadURL == "" {
		return nil, &APIError{Kind: oauthmodel.ErrInvalidResponseFormat, Message: "init response has no upload_url", Body: resp}
	}
	if err := c.uploadVideoFile(ctx, result.UploadURL, video, size, chunkSize, progress); err != nil {
		return result, err
	}
	return result, nil
}

// PostPhoto publishes photos pulled by the provider from public URLs.
func (c *Client) PostPhoto(ctx context.Context, info PostInfo, photoURLs []string) (*PublishResult, error) {
	if len(photoURLs) == 0 {
		return nil, fmt.Errorf("[session PostPhoto] no photo urls")
	}
	if info.PrivacyLevel == "" {
		info.PrivacyLevel = PrivacySelfOnly
	}
	resp, err := c.APIRequest(ctx, "/post/publish/content/init/", http.MethodPost, map[string]any{
		"post_info": info,
		"source_info": map[string]any{
			"source":            "PULL_FROM_URL",
			"photo_cover_index": 0,
			"photo_images":      photoURLs,
		},
		"post_mode":  "DIRECT_POST",
		"media_type": "PHOTO",
	})
	if err != nil {
		return nil, err
	}
	return &PublishResult{
		PublishID: gjson.GetBytes(resp, "data.publish_id").String(),
		Raw:       resp,
	}, nil
}

// GetPostStatus polls the state of a publish job.
func (c *Client) GetPostStatus(ctx context.Context, publishID string) (json.RawMessage, error) {
	return c.APIRequest(ctx, "/post/publish/status/fetch/", http.MethodPost, map[string]string{"publish_id": publishID})
}

// GetTrendingHashtags reads the relay's trend cache. No login is needed.
func (c *Client) GetTrendingHashtags(ctx context.Context) (json.RawMessage, error) {
	return c.publicRequest(ctx, relayTrendingHashtagsPath)
}

// GetTrendingSongs reads the relay's trend cache. No login is needed.
func (c *Client) GetTrendingSongs(ctx context.Context) (json.RawMessage, error) {
	return c.publicRequest(ctx, relayTrendingSongsPath)
}
