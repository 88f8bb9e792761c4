package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/Sdiabate1337/reput/internal/models"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	UseInMemory bool
}

type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(config DatabaseConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	storage := &PostgresStorage{db: db}

	if err := storage.initializeSchema(); err != nil {
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}

	return storage, nil
}

func (s *PostgresStorage) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	if _, err := s.db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}

	return nil
}

func (s *PostgresStorage) ResolveTenant(ctx context.Context, destination string) (*models.Tenant, error) {
	query := `
		SELECT id, name, plan, subscription, COALESCE(trial_ends_at, 'epoch'::timestamptz),
		       quota_used, quota_limit, whatsapp_number, operator_phone, review_link,
		       welcome_text, positive_text, neutral_text, negative_text
		FROM tenants
		WHERE whatsapp_number = $1`

	t := &models.Tenant{}
	err := s.db.QueryRowContext(ctx, query, destination).Scan(
		&t.ID, &t.Name, &t.Plan, &t.Subscription, &t.TrialEndsAt,
		&t.QuotaUsed, &t.QuotaLimit, &t.WhatsAppNumber, &t.OperatorPhone, &t.ReviewLink,
		&t.Templates.Welcome, &t.Templates.Positive, &t.Templates.Neutral, &t.Templates.Negative,
	)
	if err == sql.ErrNoRows {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error resolving tenant: %w", err)
	}
	return t, nil
}

// ConsumeQuota is a single statement so the cap check and the increment
// cannot race across concurrent sends.
func (s *PostgresStorage) ConsumeQuota(ctx context.Context, tenantID string) (bool, error) {
	query := `
		UPDATE tenants
		SET quota_used = quota_used + 1
		WHERE id = $1 AND (plan = 'enterprise' OR quota_used < quota_limit)`

	result, err := s.db.ExecContext(ctx, query, tenantID)
	if err != nil {
		return false, fmt.Errorf("error consuming quota: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error getting rows affected: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStorage) GetOrCreateConversation(ctx context.Context, tenantID, customerAddress, displayName string, provenance models.Provenance) (*models.Conversation, error) {
	query := `
		INSERT INTO conversations (id, tenant_id, customer_address, customer_name, provenance)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tenant_id, customer_address) DO UPDATE
		SET customer_name = CASE WHEN EXCLUDED.customer_name <> '' THEN EXCLUDED.customer_name
		                         ELSE conversations.customer_name END,
		    updated_at = NOW()
		RETURNING id, tenant_id, customer_address, customer_name, provenance,
		          state, sentiment, status, language, ai_enabled, version, created_at, updated_at`

	conv := &models.Conversation{}
	err := s.db.QueryRowContext(ctx, query, uuid.New().String(), tenantID, customerAddress, displayName, provenance).Scan(
		&conv.ID, &conv.TenantID, &conv.CustomerAddress, &conv.CustomerName, &conv.Provenance,
		&conv.State, &conv.Sentiment, &conv.Status, &conv.Language, &conv.AIEnabled,
		&conv.Version, &conv.CreatedAt, &conv.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("error getting or creating conversation: %w", err)
	}
	return conv, nil
}

func (s *PostgresStorage) AppendMessage(ctx context.Context, conversationID string, role models.Role, body string) error {
	query := `
		INSERT INTO messages (id, conversation_id, role, body, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.db.ExecContext(ctx, query, uuid.New().String(), conversationID, role, body, time.Now())
	if err != nil {
		return fmt.Errorf("error appending message: %w", err)
	}
	return nil
}

func (s *PostgresStorage) UpdateState(ctx context.Context, conversationID string, state models.ConversationState, sentiment models.Sentiment, status models.ConversationStatus) error {
	query := `
		UPDATE conversations
		SET state = $2,
		    sentiment = CASE WHEN $3 <> '' THEN $3 ELSE sentiment END,
		    status = CASE WHEN $4 <> '' THEN $4 ELSE status END,
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, conversationID, state, string(sentiment), string(status))
	if err != nil {
		return fmt.Errorf("error updating conversation state: %w", err)
	}
	return s.requireRow(result)
}

func (s *PostgresStorage) UpdateAnalysis(ctx context.Context, conversationID string, sentiment models.Sentiment, status models.ConversationStatus, language string) error {
	query := `
		UPDATE conversations
		SET sentiment = CASE WHEN $2 <> '' THEN $2 ELSE sentiment END,
		    status = CASE WHEN $3 <> '' THEN $3 ELSE status END,
		    language = CASE WHEN $4 <> '' THEN $4 ELSE language END,
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, conversationID, string(sentiment), string(status), language)
	if err != nil {
		return fmt.Errorf("error updating conversation analysis: %w", err)
	}
	return s.requireRow(result)
}

func (s *PostgresStorage) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	query := `
		SELECT id, conversation_id, role, body, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("error querying messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (s *PostgresStorage) ReopenConversation(ctx context.Context, conversationID string) error {
	query := `
		UPDATE conversations
		SET state = 'INIT', sentiment = '', status = 'OPEN',
		    version = version + 1, updated_at = NOW()
		WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, conversationID)
	if err != nil {
		return fmt.Errorf("error reopening conversation: %w", err)
	}
	return s.requireRow(result)
}

func (s *PostgresStorage) requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}
	if affected == 0 {
		return ErrConversationNotFound
	}
	return nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
