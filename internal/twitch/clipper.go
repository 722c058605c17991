package twitch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrNotLive is returned when clipping a channel that is not streaming.
var ErrNotLive = errors.New("channel is not live")

// CooldownError is returned when a clip is requested too soon after the previous one.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("cooldown active, retry in %s", e.Remaining.Round(time.Second))
}

// Target identifies the channel to clip. BroadcasterID wins when both are set;
// otherwise it is looked up from Channel.
type Target struct {
	Channel       string
	BroadcasterID string
}

// Clipper creates clips and records them in a History.
type Clipper struct {
	client   *Client
	history  *History
	cooldown time.Duration
	now      func() time.Time
}

// NewClipper creates a Clipper. A zero cooldown disables it.
func NewClipper(client *Client, history *History, cooldown time.Duration) (*Clipper, error) {
	if client == nil {
		return nil, errors.New("client cannot be nil")
	}
	if history == nil {
		return nil, errors.New("history cannot be nil")
	}
	return &Clipper{
		client:   client,
		history:  history,
		cooldown: cooldown,
		now:      time.Now,
	}, nil
}

// Clip clips the target's stream and records the clip.
// It fails with *CooldownError, ErrNotLive, ErrNotFound for unknown channels,
// or *APIError.
func (c *Clipper) Clip(ctx context.Context, target Target) (Entry, error) {
	if target.Channel == "" && target.BroadcasterID == "" {
		return Entry{}, errors.New("channel or broadcaster id required")
	}

	if err := c.checkCooldown(ctx); err != nil {
		return Entry{}, err
	}

	broadcasterID := target.BroadcasterID
	if broadcasterID == "" {
		user, err := c.client.UserByLogin(ctx, target.Channel)
		if err != nil {
			return Entry{}, fmt.Errorf("looking up channel %s: %w", target.Channel, err)
		}
		broadcasterID = user.ID
	}

	live, err := c.client.IsLive(ctx, broadcasterID)
	if err != nil {
		return Entry{}, fmt.Errorf("checking live status: %w", err)
	}
	if !live {
		return Entry{}, ErrNotLive
	}

	clip, err := c.client.CreateClip(ctx, broadcasterID)
	if err != nil {
		return Entry{}, fmt.Errorf("creating clip: %w", err)
	}

	entry := Entry{
		ID:            clip.ID,
		EditURL:       clip.EditURL,
		Channel:       target.Channel,
		BroadcasterID: broadcasterID,
		CreatedAt:     c.now().UTC(),
	}
	// The clip exists either way, so a failed record is reported but not fatal
	if err := c.history.Add(ctx, entry); err != nil {
		slog.WarnContext(ctx, "failed to record clip", "clip_id", clip.ID, "error", err)
	}

	slog.InfoContext(ctx, "clip created", "clip_id", clip.ID, "broadcaster_id", broadcasterID)
	return entry, nil
}

func (c *Clipper) checkCooldown(ctx context.Context) error {
	if c.cooldown <= 0 {
		return nil
	}

	entries, err := c.history.Load(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	if elapsed := c.now().Sub(entries[0].CreatedAt); elapsed < c.cooldown {
		return &CooldownError{Remaining: c.cooldown - elapsed}
	}
	return nil
}
