package items

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/jackc/pgx/v5/stdlib"
)

// ChangeChannel is the PostgreSQL notification channel the items trigger
// publishes space ids on.
const ChangeChannel = "item_changes"

// PostgresFeed implements ChangeFeed with LISTEN/NOTIFY. Every Listen call
// holds one dedicated connection from the pool until its context ends.
type PostgresFeed struct {
	db      *sql.DB
	channel string
}

// NewPostgresFeed returns a feed listening on ChangeChannel.
func NewPostgresFeed(db *sql.DB) *PostgresFeed {
	return &PostgresFeed{db: db, channel: ChangeChannel}
}

var _ ChangeFeed = (*PostgresFeed)(nil)

// Listen subscribes a dedicated connection and streams notification payloads.
// The channel is closed when ctx is done or the connection fails.
func (f *PostgresFeed) Listen(ctx context.Context) (<-chan string, error) {
	conn, err := f.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listen connection: %w", err)
	}

	if _, err := conn.ExecContext(ctx, "LISTEN "+f.channel); err != nil {
		conn.Close()
		return nil, fmt.Errorf("listen %s: %w", f.channel, err)
	}

	out := make(chan string, 16)

	go func() {
		defer close(out)
		defer conn.Close()

		// ErrBadConn drops the connection instead of returning a still
		// listening session to the pool.
		_ = conn.Raw(func(driverConn any) error {
			pc, ok := driverConn.(*stdlib.Conn)
			if !ok {
				return driver.ErrBadConn
			}
			for {
				n, err := pc.Conn().WaitForNotification(ctx)
				if err != nil {
					return driver.ErrBadConn
				}
				select {
				case out <- n.Payload:
				case <-ctx.Done():
					return driver.ErrBadConn
				}
			}
		})
	}()

	return out, nil
}
