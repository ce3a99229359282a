package logx

import (
	"context"

	"pkt.systems/pslog"

	"github.com/jquast/modem.xyz/schema"
)

type contextKey int

const (
	bannerKey contextKey = iota
	groupKey
)

// Ctx returns the logger bound to the provided context.
func Ctx(ctx context.Context) pslog.Logger {
	return pslog.Ctx(ctx)
}

// WithBanner annotates the logger with the banner name if present.
func WithBanner(ctx context.Context, banner string) pslog.Logger {
	log := pslog.Ctx(ctx)
	if banner != "" {
		if current, ok := ctx.Value(bannerKey).(string); ok && current == banner {
			return log
		}
		log = log.With("banner", banner)
	}
	return log
}

// WithBannerGroup annotates the logger with banner and font group.
func WithBannerGroup(ctx context.Context, banner string, group schema.FontGroupName) pslog.Logger {
	log := WithBanner(ctx, banner)
	if group != "" {
		if current, ok := ctx.Value(groupKey).(schema.FontGroupName); ok && current == group {
			return log
		}
		log = log.With("group", string(group))
	}
	return log
}

// WithEncoding annotates the logger with a server encoding when available.
func WithEncoding(log pslog.Logger, encoding schema.EncodingName) pslog.Logger {
	if encoding != "" {
		log = log.With("encoding", string(encoding))
	}
	return log
}

// ContextWithBanner stores the banner marker on the context for log de-duplication.
func ContextWithBanner(ctx context.Context, banner string) context.Context {
	if ctx == nil || banner == "" {
		return ctx
	}
	return context.WithValue(ctx, bannerKey, banner)
}

// ContextWithGroup stores the font group marker on the context for log de-duplication.
func ContextWithGroup(ctx context.Context, group schema.FontGroupName) context.Context {
	if ctx == nil || group == "" {
		return ctx
	}
	return context.WithValue(ctx, groupKey, group)
}

// ContextWithBannerLogger attaches the logger and banner marker to the context.
func ContextWithBannerLogger(ctx context.Context, log pslog.Logger, banner string) context.Context {
	ctx = pslog.ContextWithLogger(ctx, log)
	return ContextWithBanner(ctx, banner)
}
