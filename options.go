package overlay

import (
	"log/slog"
	"time"

	"github.com/go-theft-auto/overlay/internal/hrtimer"
)

// Option configures a Window, Canvas or RenderLoop. Options that do not
// apply to the value being built are ignored.
type Option func(*config)

type config struct {
	bounds     Rect
	title      string
	hasTitle   bool
	className  string
	fps        uint32
	blurBehind bool
	onMessage  func(Message)
	hooks      []PreDrawHook
	logger     *slog.Logger
	clock      Clock
	sleep      func(time.Duration)
}

func defaultConfig() config {
	return config{
		bounds: RectFromSize(0, 0, 800, 600),
		sleep:  hrtimer.Sleep,
	}
}

func newConfig(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.clock == nil {
		cfg.clock = MonotonicClock()
	}
	if cfg.logger == nil {
		cfg.logger = Logger()
	}
	return cfg
}

// WithBounds sets the initial window position and size.
func WithBounds(r Rect) Option {
	return func(c *config) {
		c.bounds = r
	}
}

// WithTitle sets the window title. By default a random title is used.
func WithTitle(title string) Option {
	return func(c *config) {
		c.title = title
		c.hasTitle = true
	}
}

// WithClassName sets the window class name. By default a random,
// process-unique name is generated.
func WithClassName(name string) Option {
	return func(c *config) { c.className = name }
}

// WithFPS starts rendering at the given rate as soon as the window exists.
func WithFPS(fps uint32) Option {
	return func(c *config) { c.fps = fps }
}

// WithBlurBehind enables the compositor blur behind the window.
func WithBlurBehind() Option {
	return func(c *config) { c.blurBehind = true }
}

// WithMessageHook registers fn to observe every message the window
// procedure receives, before the overlay handles it. It only fires while
// MessageLoop runs.
func WithMessageHook(fn func(Message)) Option {
	return func(c *config) { c.onMessage = fn }
}

// WithPreDrawHook adds a hook that runs on every tick before Draw.
func WithPreDrawHook(h PreDrawHook) Option {
	return func(c *config) {
		if h != nil {
			c.hooks = append(c.hooks, h)
		}
	}
}

// WithLogger sets the logger. By default the package logger is used.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithClock sets the frame clock.
func WithClock(clock Clock) Option {
	return func(c *config) { c.clock = clock }
}

// WithSleeper replaces the delay primitive used for frame pacing.
func WithSleeper(sleep func(time.Duration)) Option {
	return func(c *config) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}
