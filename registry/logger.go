package registry

import "go.uber.org/zap"

// Logger returns the logger the registry reports schema loading to. It is a
// no-op logger unless SetLogger was called.
func (r *Registry) Logger() *zap.Logger {
	return r.logger
}

// SetLogger configures the registry's logger. A nil logger disables
// logging. Call it before loading schemas.
func (r *Registry) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	r.logger = l
}
