package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// WithChangePolling makes the store check for commits made through other
// connections to the same file, including other processes, every interval,
// and notify observers when there are any. Zero disables polling. Ignored
// for in-memory databases.
//
// Polling holds one extra connection for the store's lifetime.
func WithChangePolling(interval time.Duration) Option {
	return func(o *options) { o.pollInterval = interval }
}

// startPolling watches PRAGMA data_version on a dedicated connection. The
// value changes whenever another connection commits, this store's own writer
// connections included; observers drop the resulting duplicate snapshots.
func (s *Store) startPolling(interval time.Duration) error {
	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("polling connection: %w", err)
	}
	last, err := dataVersion(context.Background(), conn)
	if err != nil {
		conn.Close()
		return err
	}

	s.observers.Add(1)
	go func() {
		defer s.observers.Done()
		defer conn.Close()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.closed:
				return
			case <-ticker.C:
			}
			v, err := dataVersion(context.Background(), conn)
			if err != nil {
				s.logger.Warn("poll data_version", "error", err)
				continue
			}
			if v != last {
				last = v
				s.feed.publish()
			}
		}
	}()
	return nil
}

func dataVersion(ctx context.Context, conn *sql.Conn) (int64, error) {
	var v int64
	if err := conn.QueryRowContext(ctx, "PRAGMA data_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read data_version: %w", err)
	}
	return v, nil
}
