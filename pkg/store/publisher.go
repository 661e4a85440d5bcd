// Package store publishes compiled configurations into Redis as one hash
// per entry, keyed TABLE|hostname|key.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"

	"github.com/newtron-network/rgosc/pkg/canonical"
	"github.com/newtron-network/rgosc/pkg/util"
)

// Publisher writes canonical configurations to one Redis database.
type Publisher struct {
	client *redis.Client
}

// NewPublisher creates a publisher for addr and db.
func NewPublisher(addr string, db int) *Publisher {
	return &Publisher{
		client: redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   db,
		}),
	}
}

// Ping tests the connection.
func (p *Publisher) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close closes the connection.
func (p *Publisher) Close() error {
	return p.client.Close()
}

// Publish replaces every row previously published for c.Hostname with the
// rows of c in a single MULTI/EXEC. It returns the number of rows written.
func (p *Publisher) Publish(ctx context.Context, c *canonical.Configuration) (int, error) {
	if c.Hostname == "" {
		return 0, fmt.Errorf("publish: %w: configuration has no hostname", util.ErrInvalidConfig)
	}
	stale, err := p.hostKeys(ctx, c.Hostname)
	if err != nil {
		return 0, err
	}
	rows := Rows(c)

	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(stale) > 0 {
			pipe.Del(ctx, stale...)
		}
		for _, r := range rows {
			key := r.RedisKey(c.Hostname)
			if len(r.Fields) == 0 {
				pipe.HSet(ctx, key, "NULL", "NULL")
				continue
			}
			values := make([]interface{}, 0, 2*len(r.Fields))
			for k, v := range r.Fields {
				values = append(values, k, v)
			}
			pipe.HSet(ctx, key, values...)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("publishing %s: %w", c.Hostname, err)
	}
	util.WithFields(map[string]interface{}{
		"hostname": c.Hostname,
		"rows":     len(rows),
		"replaced": len(stale),
	}).Info("published configuration")
	return len(rows), nil
}

// Load reads back every row published for hostname, keyed TABLE|key.
func (p *Publisher) Load(ctx context.Context, hostname string) (map[string]map[string]string, error) {
	keys, err := p.hostKeys(ctx, hostname)
	if err != nil {
		return nil, err
	}
	out := make(map[string]map[string]string, len(keys))
	for _, k := range keys {
		vals, err := p.client.HGetAll(ctx, k).Result()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", k, err)
		}
		table, rest, _ := strings.Cut(k, "|")
		_, key, _ := strings.Cut(rest, "|")
		out[table+"|"+key] = vals
	}
	return out, nil
}

// Delete removes every row published for hostname.
func (p *Publisher) Delete(ctx context.Context, hostname string) (int, error) {
	keys, err := p.hostKeys(ctx, hostname)
	if err != nil || len(keys) == 0 {
		return 0, err
	}
	n, err := p.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("deleting %s: %w", hostname, err)
	}
	return int(n), nil
}

func (p *Publisher) hostKeys(ctx context.Context, hostname string) ([]string, error) {
	var keys []string
	for _, table := range Tables {
		pattern := table + "|" + escapeGlob(hostname) + "|*"
		batch, err := scanKeys(ctx, p.client, pattern, 100)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", pattern, err)
		}
		keys = append(keys, batch...)
	}
	return keys, nil
}

func scanKeys(ctx context.Context, client *redis.Client, pattern string, countHint int64) ([]string, error) {
	var cursor uint64
	var keys []string
	for {
		batch, nextCursor, err := client.Scan(ctx, cursor, pattern, countHint).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}

func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
