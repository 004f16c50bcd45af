// Package discord implements presenter.Presenter on top of the Discord REST
// API through a discordgo session. The gateway is never opened: posting a
// message with an embed, editing one field of an existing embed and opening
// a DM channel are all plain REST calls.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"

	"github.com/procuraduria/docket/pkg/presenter"
)

// DefaultBaseURL is the versioned REST root discordgo talks to.
var DefaultBaseURL = strings.TrimSuffix(discordgo.EndpointAPI, "/")

const (
	maxTitle       = 256
	maxDescription = 4096
	maxContent     = 2000
)

// Config configures a Client.
type Config struct {
	Token string

	// BaseURL replaces DefaultBaseURL, for proxies and tests.
	BaseURL    string
	HTTPClient *http.Client

	// MaxRetries bounds retries of rate-limited or 5xx responses.
	MaxRetries uint64
}

// Client talks to the Discord REST API with a bot token.
type Client struct {
	session    *discordgo.Session
	maxRetries uint64
	logger     hclog.Logger

	// newBackOff is replaced in tests.
	newBackOff func() backoff.BackOff
}

var _ presenter.Presenter = (*Client)(nil)

// New returns a Client. A bot token is required.
func New(cfg Config, logger hclog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("discord token is required")
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	httpClient := cfg.HTTPClient
	if base := strings.TrimRight(cfg.BaseURL, "/"); base != "" && base != DefaultBaseURL {
		target, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid discord base url: %w", err)
		}
		rewritten := *httpClient
		rewritten.Transport = &baseURLTransport{target: target, next: httpClient.Transport}
		httpClient = &rewritten
	}
	session.Client = httpClient
	session.UserAgent = "docket (https://github.com/procuraduria/docket, 1)"

	// Retries are driven by do so rate limits and 5xx share one budget.
	session.MaxRestRetries = 0
	session.ShouldRetryOnRateLimit = false

	return &Client{
		session:    session,
		maxRetries: cfg.MaxRetries,
		logger:     logger,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 10 * time.Second
			return b
		},
	}, nil
}

// Announce posts a to channelID.
func (c *Client) Announce(ctx context.Context, channelID string, a presenter.Announcement) (presenter.MessageRef, error) {
	var msg *discordgo.Message
	err := c.do(ctx, "announce", func() (err error) {
		msg, err = c.session.ChannelMessageSendComplex(channelID, newMessageSend(a), discordgo.WithContext(ctx))
		return err
	})
	if err != nil {
		return presenter.MessageRef{}, fmt.Errorf("failed to post announcement: %w", err)
	}

	ref := presenter.MessageRef{ChannelID: msg.ChannelID, MessageID: msg.ID}
	if ref.ChannelID == "" {
		ref.ChannelID = channelID
	}
	return ref, nil
}

// EditSummary fetches the referenced message and rewrites one field of its
// first embed.
func (c *Client) EditSummary(ctx context.Context, ref presenter.MessageRef, field, value string) error {
	if ref.IsZero() {
		return errors.New("summary message reference is empty")
	}

	var msg *discordgo.Message
	err := c.do(ctx, "fetch summary", func() (err error) {
		msg, err = c.session.ChannelMessage(ref.ChannelID, ref.MessageID, discordgo.WithContext(ctx))
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to fetch summary message: %w", err)
	}
	if len(msg.Embeds) == 0 {
		return fmt.Errorf("message %s has no embed", ref.MessageID)
	}

	setField(msg.Embeds[0], field, presenter.Truncate(value, presenter.MaxFieldValue))

	edit := discordgo.NewMessageEdit(ref.ChannelID, ref.MessageID).SetEmbeds(msg.Embeds)
	err = c.do(ctx, "edit summary", func() error {
		_, err := c.session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx))
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to edit summary message: %w", err)
	}
	return nil
}

// DirectMessage opens a DM channel with userID and posts a there.
func (c *Client) DirectMessage(ctx context.Context, userID string, a presenter.Announcement) error {
	var channel *discordgo.Channel
	err := c.do(ctx, "open dm", func() (err error) {
		channel, err = c.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to open DM channel: %w", err)
	}

	err = c.do(ctx, "send dm", func() error {
		_, err := c.session.ChannelMessageSendComplex(channel.ID, newMessageSend(a), discordgo.WithContext(ctx))
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to send direct message: %w", err)
	}
	return nil
}

// do runs call, retrying rate limits, server errors and transport failures.
// Discord rejections surface as *APIError.
func (c *Client) do(ctx context.Context, op string, call func() error) error {
	b := &retryAfterBackOff{BackOff: c.newBackOff()}
	policy := backoff.WithContext(backoff.WithMaxRetries(b, c.maxRetries), ctx)

	operation := func() error {
		b.retryAfter = 0

		err := asAPIError(call())
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) {
			if !apiErr.Retryable() {
				return backoff.Permanent(apiErr)
			}
			b.retryAfter = apiErr.RetryAfter
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		c.logger.Warn("retrying discord request", "op", op, "wait", wait, "error", err)
	}

	return backoff.RetryNotify(operation, policy, notify)
}

// retryAfterBackOff waits at least as long as the server asked.
type retryAfterBackOff struct {
	backoff.BackOff
	retryAfter time.Duration
}

func (b *retryAfterBackOff) NextBackOff() time.Duration {
	next := b.BackOff.NextBackOff()
	if next != backoff.Stop && b.retryAfter > next {
		return b.retryAfter
	}
	return next
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("discord: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("discord: HTTP %d: %s (code %d)", e.StatusCode, e.Message, e.Code)
}

// Retryable reports whether repeating the request may succeed.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// asAPIError converts discordgo REST and rate limit errors. Other errors
// are returned unchanged.
func asAPIError(err error) error {
	if err == nil {
		return nil
	}

	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		apiErr := &APIError{}
		if restErr.Response != nil {
			apiErr.StatusCode = restErr.Response.StatusCode
		}
		if restErr.Message != nil {
			apiErr.Code = restErr.Message.Code
			apiErr.Message = restErr.Message.Message
		}
		return apiErr
	}

	var rlErr *discordgo.RateLimitError
	if errors.As(err, &rlErr) {
		apiErr := &APIError{StatusCode: http.StatusTooManyRequests}
		if rlErr.RateLimit != nil && rlErr.TooManyRequests != nil {
			apiErr.Message = rlErr.TooManyRequests.Message
			apiErr.RetryAfter = rlErr.TooManyRequests.RetryAfter
		}
		return apiErr
	}

	return err
}

// baseURLTransport sends discordgo's requests to another REST root.
type baseURLTransport struct {
	target *url.URL
	next   http.RoundTripper
}

func (t *baseURLTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	next := t.next
	if next == nil {
		next = http.DefaultTransport
	}

	out := req.Clone(req.Context())
	out.URL.Scheme = t.target.Scheme
	out.URL.Host = t.target.Host
	out.Host = t.target.Host
	out.URL.Path = strings.TrimRight(t.target.Path, "/") + strings.TrimPrefix(req.URL.Path, "/api/v"+discordgo.APIVersion)
	out.URL.RawPath = ""
	return next.RoundTrip(out)
}
