package table

import (
	"github.com/rs/zerolog"

	"github.com/rzpsarthak13/sqlobjects/internal/core"
	"github.com/rzpsarthak13/sqlobjects/internal/schema"
)

type options struct {
	logger zerolog.Logger
	feed   core.ChangeFeed
	newID  func() any
	kinds  map[string]schema.Kind
	origin string
}

// Option configures a Table.
type Option func(*options)

// WithLogger sets the logger used for warnings and debug output.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithFeed publishes a change event after every successful mutation.
func WithFeed(feed core.ChangeFeed) Option {
	return func(o *options) {
		o.feed = feed
	}
}

// WithIDGenerator replaces the UUIDv7 generator used in ClientGenerated mode.
func WithIDGenerator(gen func() any) Option {
	return func(o *options) {
		o.newID = gen
	}
}

// WithColumnKinds supplies static coercion hints and skips the metadata lookup.
func WithColumnKinds(kinds map[string]schema.Kind) Option {
	return func(o *options) {
		o.kinds = kinds
	}
}

// WithOrigin sets the instance id stamped on published changes.
// Consumers skip changes carrying their own origin.
func WithOrigin(origin string) Option {
	return func(o *options) {
		o.origin = origin
	}
}

type loadOptions struct {
	bypassCache bool
}

// LoadOption configures a single load call.
type LoadOption func(*loadOptions)

// WithoutCache always queries the database. The fetched row refreshes the
// cached instance, if any, instead of replacing it.
func WithoutCache() LoadOption {
	return func(o *loadOptions) {
		o.bypassCache = true
	}
}

type deleteOptions struct {
	keepCache bool
}

// DeleteOption configures a predicate delete.
type DeleteOption func(*deleteOptions)

// KeepCache leaves cache invalidation to the caller.
func KeepCache() DeleteOption {
	return func(o *deleteOptions) {
		o.keepCache = true
	}
}
