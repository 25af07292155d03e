package anchor

import "go.uber.org/zap"

// Option configures a Strategy.
type Option func(*options)

type options struct {
	name            string
	boundary        Role
	excludeBoundary bool
	attached        AttachedFunc
	recoverFn       RecoverFunc
	observer        Observer
	logger          *zap.Logger
}

func defaultOptions() options {
	return options{
		boundary: RoleWindow,
		attached: DefaultAttached,
		logger:   zap.NewNop(),
	}
}

// WithName labels the strategy in log lines and observer events.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithBoundary sets the role that stops ancestry capture.
func WithBoundary(role Role) Option {
	return func(o *options) { o.boundary = role }
}

// WithExcludeBoundary stops capture before appending the boundary node,
// so the chain ends at the boundary's child.
func WithExcludeBoundary() Option {
	return func(o *options) { o.excludeBoundary = true }
}

// WithAttached replaces the liveness probe used when scanning ancestry.
func WithAttached(fn AttachedFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.attached = fn
		}
	}
}

// WithRecoverFunc replaces the recovery algorithm selected by the kind.
// The snapshot handed to fn always carries child indices.
func WithRecoverFunc(fn RecoverFunc) Option {
	return func(o *options) { o.recoverFn = fn }
}

// WithObserver registers an observer for recovery events.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithLogger sets the logger used for recovery debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
