package telegram

import (
	"strings"
	"time"

	coreconfig "github.com/m3rciful/coinbot/core/config"
	"github.com/m3rciful/coinbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// ChainOptions carries the optional collaborators of the shared middleware chain.
type ChainOptions struct {
	// Recorder feeds every inbound update into the chat directory.
	Recorder middleware.SeenRecorder
	// Blocklist silently drops updates from blocked chats/users.
	Blocklist middleware.BlockChecker
	// OnLimited is invoked when a user trips the rate limit.
	OnLimited tele.HandlerFunc
}

// DefaultMiddlewares builds the shared middleware chain for bots.
// Order matters: recover first, then directory tracking (every update must be
// recorded before any policy can drop it), then the block guard, then rate
// limiting and logging.
func DefaultMiddlewares(cfg *coreconfig.Config, opts ChainOptions) []Middleware {
	mws := []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
	}

	if opts.Recorder != nil {
		mws = append(mws, Middleware{
			Name: "track",
			Use:  middleware.TrackMiddleware(opts.Recorder),
		})
	}
	if opts.Blocklist != nil {
		mws = append(mws, Middleware{
			Name: "block_guard",
			Use:  middleware.BlockGuardMiddleware(opts.Blocklist),
		})
	}

	if cfg != nil {
		interval := time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond
		if interval > 0 {
			ex := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
			for _, t := range cfg.RateLimit.ExcludeUpdates {
				ex[strings.ToLower(t)] = struct{}{}
			}
			rlOpts := middleware.RateLimitOptions{
				Interval: interval,
				Exclude:  ex,
			}
			if opts.OnLimited != nil {
				rlOpts.OnLimited = opts.OnLimited
			}
			mws = append(mws, Middleware{
				Name: "rate_limit",
				Use:  middleware.RateLimitMiddleware(rlOpts),
			})
		}
	}

	mws = append(mws,
		Middleware{Name: "logger", Use: middleware.LoggerMiddleware},
		Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	)

	return mws
}
