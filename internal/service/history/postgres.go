package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/parkj/tubelens-go/internal/domain"
)

// PostgresStore keeps a durable log of conversation messages. The session
// writes to it fire-and-forget; losing the store loses history, never the
// conversation in flight.
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

const schema = `
CREATE TABLE IF NOT EXISTS chat_messages (
	id         BIGSERIAL PRIMARY KEY,
	message_id TEXT NOT NULL,
	role       TEXT NOT NULL,
	kind       TEXT NOT NULL,
	text       TEXT NOT NULL,
	image      TEXT,
	title      TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

func NewPostgresStore(cfg PostgresConfig, logger *zap.Logger) (*PostgresStore, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	logger.Info("Chat history store connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database),
	)

	return &PostgresStore{db: db, logger: logger}, nil
}

func (ps *PostgresStore) Append(ctx context.Context, msg domain.Message) error {
	_, err := ps.db.ExecContext(ctx,
		`INSERT INTO chat_messages (message_id, role, kind, text, image, title)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		msg.ID, string(msg.Role), string(msg.Kind), msg.Text, msg.Image, msg.Title)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

// Recent returns the latest messages, newest first.
func (ps *PostgresStore) Recent(ctx context.Context, limit int) ([]domain.Message, error) {
	rows, err := ps.db.QueryContext(ctx,
		`SELECT message_id, role, kind, text, COALESCE(image, ''), COALESCE(title, '')
		 FROM chat_messages ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var m domain.Message
		var role, kind string
		if err := rows.Scan(&m.ID, &role, &kind, &m.Text, &m.Image, &m.Title); err != nil {
			return nil, err
		}
		m.Role = domain.Role(role)
		m.Kind = domain.MessageKind(kind)
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (ps *PostgresStore) Clear(ctx context.Context) error {
	_, err := ps.db.ExecContext(ctx, `TRUNCATE chat_messages`)
	return err
}

func (ps *PostgresStore) Close() error {
	if ps.db != nil {
		return ps.db.Close()
	}
	return nil
}
