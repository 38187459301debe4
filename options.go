package gr

import (
	"github.com/gogpu/gr/cache"
	"github.com/gogpu/gr/config"
)

// DefaultMaxOffscreenAASize is the default edge length cap of one offscreen
// antialiasing tile, in device pixels.
const DefaultMaxOffscreenAASize = 256

// Option configures a Context during creation.
//
// Example:
//
//	dev := soft.New()
//	ctx, err := gr.New(dev,
//	    gr.WithTextureCacheLimits(512, 64<<20),
//	    gr.WithPreferMSAA(true),
//	)
type Option func(*options)

// options holds optional configuration for Context creation.
type options struct {
	budget             cache.Budget
	offscreenAA        bool
	maxOffscreenAASize int
	preferMSAA         bool
	pathRenderers      []PathRenderer
}

// defaultOptions returns the default context options.
func defaultOptions() options {
	return options{
		budget:             cache.DefaultBudget(),
		offscreenAA:        true,
		maxOffscreenAASize: DefaultMaxOffscreenAASize,
	}
}

// WithTextureCacheLimits sets the texture cache budget: at most maxCount
// cached textures using at most maxBytes of device memory. Locked textures
// may push the cache over budget temporarily.
func WithTextureCacheLimits(maxCount int, maxBytes int64) Option {
	return func(o *options) {
		o.budget = cache.Budget{MaxCount: maxCount, MaxBytes: maxBytes}
	}
}

// WithOffscreenAA enables or disables the offscreen antialiasing pipeline.
// When disabled, antialiased draws the path renderer cannot antialias
// itself are drawn aliased.
func WithOffscreenAA(on bool) Option {
	return func(o *options) {
		o.offscreenAA = on
	}
}

// WithMaxOffscreenAASize caps the tile edge of offscreen antialiasing, in
// device pixels. Larger draws are split into a grid of tiles. Values <= 0
// keep the default.
func WithMaxOffscreenAASize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxOffscreenAASize = n
		}
	}
}

// WithPreferMSAA makes offscreen antialiasing use a multisampled scratch
// target when the device supports it, instead of a 4x supersampled one.
// Only the multisampled mode antialiases hairlines offscreen.
func WithPreferMSAA(on bool) Option {
	return func(o *options) {
		o.preferMSAA = on
	}
}

// WithPathRenderers installs custom path renderers. They are consulted in
// order before the built-in ones.
//
// Example:
//
//	ctx, err := gr.New(dev, gr.WithPathRenderers(myTessellator))
func WithPathRenderers(prs ...PathRenderer) Option {
	return func(o *options) {
		o.pathRenderers = append(o.pathRenderers, prs...)
	}
}

// WithConfig applies the cache and antialiasing sections of cfg.
//
// Example:
//
//	cfg, err := config.Load("gr.toml")
//	if err != nil {
//	    return err
//	}
//	ctx, err := gr.New(dev, gr.WithConfig(cfg))
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		if cfg == nil {
			return
		}
		o.budget = cache.Budget{MaxCount: cfg.Cache.MaxTextures, MaxBytes: cfg.Cache.MaxTextureBytes}
		o.offscreenAA = cfg.AA.Enabled
		if cfg.AA.MaxOffscreenSize > 0 {
			o.maxOffscreenAASize = cfg.AA.MaxOffscreenSize
		}
		o.preferMSAA = cfg.AA.PreferMSAA
	}
}
