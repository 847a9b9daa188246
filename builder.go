package ledgauth

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/rster2002/ledgauth/jwt"
	"github.com/rster2002/ledgauth/password"
)

// Builder assembles an [Engine]. Construction is allocation-only; nothing
// touches the stores or redis until the engine handles its first request.
// A Builder is single-use.
type Builder struct {
	config Config
	redis  *redis.Client

	users     UserStore
	grants    GrantStore
	auditSink AuditSink

	built bool
}

// New returns a Builder preloaded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the configuration wholesale. Zero Now falls back to
// time.Now at Build.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis supplies the redis client backing the login rate limiter.
// Required while RateLimit.Enabled is set.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithUserStore supplies the account store, e.g. userstore.New(db).
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.users = store
	return b
}

// WithGrantStore supplies the grant store, e.g. grant.NewStore(db).
func (b *Builder) WithGrantStore(store GrantStore) *Builder {
	b.grants = store
	return b
}

// WithAuditSink supplies the audit sink. Defaults to a slog sink when audit
// is enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// Build validates the configuration and wires the engine together.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	b.built = true

	cfg := b.config
	if cfg.Now == nil {
		cfg.Now = defaultConfig().Now
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if b.users == nil {
		return nil, errors.New("user store is required")
	}
	if b.grants == nil {
		return nil, errors.New("grant store is required")
	}
	if cfg.RateLimit.Enabled && b.redis == nil {
		return nil, errors.New("redis client is required while rate limiting is enabled")
	}

	jwtManager, err := jwt.NewManager(jwt.Config{
		Issuer:     cfg.Issuer,
		Audience:   cfg.Audience,
		AccessTTL:  cfg.AccessTTL,
		PrivateKey: cfg.SigningKey,
		Now:        cfg.Now,
	})
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewArgon2(password.DefaultConfig())
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:       cfg,
		jwtManager:   jwtManager,
		totp:         newTOTPManager(cfg.TOTP),
		users:        b.users,
		grants:       b.grants,
		audit:        newAuditDispatcher(cfg.Audit, b.auditSink, cfg.Now),
		passwordHash: hasher,
	}
	if cfg.Metrics.Enabled {
		engine.metrics = newMetrics()
	}
	if cfg.RateLimit.Enabled {
		engine.limiter = newLoginLimiter(b.redis, cfg.RateLimit)
	}

	return engine, nil
}
