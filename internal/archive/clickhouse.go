package archive

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"redistics/internal/config"
	"redistics/internal/model"
)

const createTableStatement = `
CREATE TABLE IF NOT EXISTS monitor_events (
    Timestamp  DateTime64(3),
    ClientIP   String,
    ClientPort String,
    DB         Int32,
    Command    String,
    Args       Array(String),
    Raw        String
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(Timestamp)
ORDER BY (ClientIP, Timestamp);
`

// ClickHouseWriter persists monitor events to the monitor_events table.
type ClickHouseWriter struct {
	conn driver.Conn
}

// NewClickHouseWriter connects and ensures the table exists.
func NewClickHouseWriter(cfg config.ClickHouseConfig) (model.ArchiveWriter, error) {
	conn, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}
	if err := conn.Exec(context.Background(), createTableStatement); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	log.Println("Successfully connected to ClickHouse and ensured table exists.")
	return &ClickHouseWriter{conn: conn}, nil
}

func connect(cfg config.ClickHouseConfig) (driver.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}
	return conn, nil
}

// WriteEvents inserts one batch of monitor events.
func (w *ClickHouseWriter) WriteEvents(events []model.MonitorEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch, err := w.conn.PrepareBatch(context.Background(), "INSERT INTO monitor_events")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}
	for _, ev := range events {
		err = batch.Append(
			time.UnixMilli(ev.Timestamp),
			ev.ClientIP,
			ev.ClientPort,
			int32(ev.DB),
			ev.Command,
			ev.Args,
			ev.Raw,
		)
		if err != nil {
			return fmt.Errorf("failed to append event to batch: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}
	return nil
}

// Close shuts down the connection.
func (w *ClickHouseWriter) Close() error {
	return w.conn.Close()
}
