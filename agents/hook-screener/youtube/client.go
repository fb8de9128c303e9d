package youtube

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"hook-screener/internal/models"
	"hook-screener/shared/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

var ErrChannelNotFound = errors.New("channel not found")

// Client lists the recent uploads of creator channels.
type Client struct {
	service *youtube.Service
	logger  *slog.Logger
}

// NewClient authenticates with the API key when one is configured and with
// the stored OAuth token otherwise.
func NewClient(ctx context.Context, cfg *config.YouTubeConfig) (*Client, error) {
	if cfg.APIKey != "" {
		return newClient(ctx, option.WithAPIKey(cfg.APIKey))
	}

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       []string{youtube.YoutubeReadonlyScope},
		Endpoint:     google.Endpoint,
	}

	token, err := getToken(ctx, oauthConfig, cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("failed to get OAuth token: %w", err)
	}

	tokenSource := &tokenSaver{
		config:    oauthConfig,
		token:     token,
		tokenFile: cfg.TokenFile,
	}
	return newClient(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, tokenSource)))
}

func newClient(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}
	return &Client{
		service: service,
		logger:  slog.Default().With("component", "youtube"),
	}, nil
}

// RecentUploads returns up to maxResults of the newest uploads of handle,
// newest first. Videos carry the handle with its leading "@".
func (c *Client) RecentUploads(ctx context.Context, handle string, maxResults int64) ([]*models.Video, error) {
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if handle == "" {
		return nil, fmt.Errorf("handle cannot be empty")
	}

	channels, err := c.service.Channels.List([]string{"contentDetails"}).
		ForHandle(handle).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to look up channel @%s: %w", handle, err)
	}
	if len(channels.Items) == 0 {
		return nil, fmt.Errorf("%w: @%s", ErrChannelNotFound, handle)
	}

	channel := channels.Items[0]
	if channel.ContentDetails == nil || channel.ContentDetails.RelatedPlaylists == nil || channel.ContentDetails.RelatedPlaylists.Uploads == "" {
		return nil, fmt.Errorf("channel @%s has no uploads playlist", handle)
	}

	playlist, err := c.service.PlaylistItems.List([]string{"contentDetails"}).
		PlaylistId(channel.ContentDetails.RelatedPlaylists.Uploads).
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get uploads of @%s: %w", handle, err)
	}

	var ids []string
	for _, item := range playlist.Items {
		if item.ContentDetails != nil && item.ContentDetails.VideoId != "" {
			ids = append(ids, item.ContentDetails.VideoId)
		}
	}
	if len(ids) == 0 {
		c.logger.Info("No uploads found", "handle", handle)
		return []*models.Video{}, nil
	}

	resp, err := c.service.Videos.List([]string{"snippet", "contentDetails"}).
		Id(strings.Join(ids, ",")).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get video details for @%s: %w", handle, err)
	}

	videos := make([]*models.Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		video := &models.Video{
			ID:     item.Id,
			Handle: "@" + handle,
			URL:    fmt.Sprintf("https://www.youtube.com/shorts/%s", item.Id),
		}
		if item.Snippet != nil {
			video.Title = item.Snippet.Title
			video.Description = item.Snippet.Description
			video.ChannelTitle = item.Snippet.ChannelTitle
			if publishedAt, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
				video.PublishedAt = publishedAt
			}
		}
		if item.ContentDetails != nil {
			video.Duration = item.ContentDetails.Duration
			video.DurationSeconds = parseDurationSeconds(item.ContentDetails.Duration)
		}
		videos = append(videos, video)
	}

	c.logger.Info("Fetched recent uploads", "handle", handle, "videos", len(videos))
	return videos, nil
}

// ISO 8601 durations as returned by the API, e.g. "PT1M30S" or "PT14.5S".
var durationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?$`)

func parseDurationSeconds(duration string) float64 {
	matches := durationPattern.FindStringSubmatch(duration)
	if matches == nil {
		return 0
	}

	var total float64
	if hours, err := strconv.Atoi(matches[1]); err == nil {
		total += float64(hours * 3600)
	}
	if minutes, err := strconv.Atoi(matches[2]); err == nil {
		total += float64(minutes * 60)
	}
	if seconds, err := strconv.ParseFloat(matches[3], 64); err == nil {
		total += seconds
	}
	return total
}
