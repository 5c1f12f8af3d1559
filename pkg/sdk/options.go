package courses

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "valkey", "redis", "dynamo" or "memory"
	addrs    []string
	password string
	prefix   string

	region   string
	table    string
	endpoint string

	upsert      bool
	maxAttempts int
	scored      bool
	cacheTTL    time.Duration

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithValkey configures the client to connect to a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithDynamo stores courses in a DynamoDB table using the default AWS credential chain.
func WithDynamo(region, table string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "dynamo"
		c.region = region
		c.table = table
	})
}

// WithDynamoEndpoint points the DynamoDB client at DynamoDB Local or LocalStack.
func WithDynamoEndpoint(endpoint string) Option {
	return optionFunc(func(c *clientConfig) {
		c.endpoint = endpoint
	})
}

// WithMemory keeps courses in process memory. Useful for tests and demos.
func WithMemory() Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "memory"
	})
}

// WithKeyPrefix overrides the Valkey/Redis key prefix. Default: "{courses}:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.prefix = prefix
	})
}

// WithUpsert makes CreateCourse replace an existing course instead of failing.
func WithUpsert() Option {
	return optionFunc(func(c *clientConfig) {
		c.upsert = true
	})
}

// WithMaxAttempts bounds the optimistic retry loop of review writes. Default: 5.
func WithMaxAttempts(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxAttempts = n
	})
}

// WithScoredSearch ranks search results by weighted similarity instead of tiered substring match.
func WithScoredSearch() Option {
	return optionFunc(func(c *clientConfig) {
		c.scored = true
	})
}

// WithCorpusCache keeps the scanned corpus for ttl between searches.
// Writes through this client invalidate it immediately.
func WithCorpusCache(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheTTL = ttl
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
