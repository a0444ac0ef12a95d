package db

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gocql/gocql"

	"github.com/acme/coldcall-agent/internal/config"
)

var keyspaceName = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]{0,47}$`)

// Scylla holds the session backing the transcript log.
type Scylla struct {
	session *gocql.Session
}

// NewScylla opens a session on the configured keyspace, creating the keyspace first unless schema
// initialisation is disabled.
func NewScylla(ctx context.Context, cfg config.ScyllaConfig) (*Scylla, error) {
	if !keyspaceName.MatchString(cfg.Keyspace) {
		return nil, fmt.Errorf("scylla: invalid keyspace name %q", cfg.Keyspace)
	}
	consistency, err := gocql.ParseConsistencyWrapper(strings.ToUpper(cfg.Consistency))
	if err != nil {
		return nil, fmt.Errorf("scylla: %w", err)
	}

	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Port = cfg.Port
	cluster.Consistency = consistency
	cluster.Timeout = cfg.Timeout
	cluster.RetryPolicy = &gocql.ExponentialBackoffRetryPolicy{NumRetries: 3, Min: 100 * time.Millisecond, Max: 2 * time.Second}

	if !cfg.DisableInitSchema {
		if err := createKeyspace(ctx, cluster, cfg); err != nil {
			return nil, err
		}
	}

	cluster.Keyspace = cfg.Keyspace
	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("scylla: create session: %w", err)
	}
	return &Scylla{session: session}, nil
}

func createKeyspace(ctx context.Context, cluster *gocql.ClusterConfig, cfg config.ScyllaConfig) error {
	rf := cfg.ReplicationFactor
	if rf <= 0 {
		rf = 1
	}
	bootstrap, err := cluster.CreateSession()
	if err != nil {
		return fmt.Errorf("scylla: create bootstrap session: %w", err)
	}
	defer bootstrap.Close()

	stmt := fmt.Sprintf(`CREATE KEYSPACE IF NOT EXISTS %s WITH replication = {'class': 'SimpleStrategy', 'replication_factor': %d}`, cfg.Keyspace, rf)
	if err := bootstrap.Query(stmt).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("scylla: create keyspace %s: %w", cfg.Keyspace, err)
	}
	return nil
}

// Ping runs a trivial query against the local node.
func (s *Scylla) Ping(ctx context.Context) error {
	if err := s.session.Query(`SELECT now() FROM system.local`).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("scylla: ping: %w", err)
	}
	return nil
}

// Session exposes the gocql session.
func (s *Scylla) Session() *gocql.Session {
	return s.session
}

// Close shuts down the session.
func (s *Scylla) Close() error {
	if s.session != nil {
		s.session.Close()
	}
	return nil
}
