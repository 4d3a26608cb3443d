package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/interview-gavel/internal/domain"
	"github.com/ahrav/interview-gavel/internal/ports"
)

//go:embed schema.sql
var schemaSQL string

var _ ports.InterviewStore = (*PostgresStore)(nil)

// PgxPool is the subset of pgxpool.Pool used by PostgresStore.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// NewPool creates a pgx connection pool from dsn.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("op=postgres.parse_config: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MaxConnIdleTime = 5 * time.Minute
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("op=postgres.connect: %w", err)
	}
	return pool, nil
}

// PostgresStore persists interviews in two tables; responses are JSONB rows
// ordered by insertion sequence.
type PostgresStore struct {
	pool   PgxPool
	tracer trace.Tracer
}

// NewPostgresStore wraps pool.
func NewPostgresStore(pool PgxPool) *PostgresStore {
	return &PostgresStore{pool: pool, tracer: otel.Tracer("store.postgres")}
}

func (p *PostgresStore) span(ctx context.Context, op, sqlOp, table string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "interviews."+op, trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", sqlOp),
		attribute.String("db.sql.table", table),
	))
}

func pgErr(op string, err error) error {
	return ports.NewStoreError("postgres", op, err)
}

// Migrate creates the tables when missing.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	ctx, span := p.span(ctx, "Migrate", "DDL", "interviews")
	defer span.End()
	if _, err := p.pool.Exec(ctx, schemaSQL); err != nil {
		span.RecordError(err)
		return pgErr("Migrate", err)
	}
	return nil
}

const insertInterviewSQL = `INSERT INTO interviews (id, user_id, role, difficulty, total_questions, final_score, created_at, completed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

const insertResponseSQL = `INSERT INTO interview_responses (interview_id, record, created_at) VALUES ($1, $2, $3)`

// Create inserts the interview and any responses it already carries in one
// transaction.
func (p *PostgresStore) Create(ctx context.Context, session domain.InterviewSession) (err error) {
	ctx, span := p.span(ctx, "Create", "INSERT", "interviews")
	defer span.End()

	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return pgErr("Create", err)
	}
	defer func() {
		if err != nil {
			span.RecordError(err)
			_ = tx.Rollback(ctx)
		}
	}()

	_, err = tx.Exec(ctx, insertInterviewSQL,
		session.ID, session.UserID, session.Role, session.Difficulty, session.TotalQuestions,
		session.FinalScore, session.CreatedAt.UTC(), session.CompletedAt)
	if err != nil {
		return pgErr("Create", err)
	}
	for _, rec := range session.Responses {
		raw, mErr := json.Marshal(rec)
		if mErr != nil {
			err = pgErr("Create", fmt.Errorf("marshal response: %w", mErr))
			return err
		}
		if _, err = tx.Exec(ctx, insertResponseSQL, session.ID, raw, rec.CreatedAt.UTC()); err != nil {
			return pgErr("Create", err)
		}
	}
	if err = tx.Commit(ctx); err != nil {
		return pgErr("Create", err)
	}
	return nil
}

const selectInterviewSQL = `SELECT id, user_id, role, difficulty, total_questions, final_score, created_at, completed_at
FROM interviews WHERE id = $1`

const selectResponsesSQL = `SELECT record FROM interview_responses WHERE interview_id = $1 ORDER BY seq`

// Get loads the interview and its responses in insertion order.
func (p *PostgresStore) Get(ctx context.Context, id string) (domain.InterviewSession, error) {
	ctx, span := p.span(ctx, "Get", "SELECT", "interviews")
	defer span.End()

	var s domain.InterviewSession
	err := p.pool.QueryRow(ctx, selectInterviewSQL, id).Scan(
		&s.ID, &s.UserID, &s.Role, &s.Difficulty, &s.TotalQuestions, &s.FinalScore, &s.CreatedAt, &s.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.InterviewSession{}, notFound("postgres", "Get", id)
	}
	if err != nil {
		span.RecordError(err)
		return domain.InterviewSession{}, pgErr("Get", err)
	}

	rows, err := p.pool.Query(ctx, selectResponsesSQL, id)
	if err != nil {
		span.RecordError(err)
		return domain.InterviewSession{}, pgErr("Get", err)
	}
	defer rows.Close()

	s.Responses = make([]domain.AnswerRecord, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return domain.InterviewSession{}, pgErr("Get", err)
		}
		var rec domain.AnswerRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return domain.InterviewSession{}, pgErr("Get", fmt.Errorf("decode response: %w", err))
		}
		s.Responses = append(s.Responses, rec)
	}
	if err := rows.Err(); err != nil {
		return domain.InterviewSession{}, pgErr("Get", err)
	}
	return s, nil
}

// The insert only happens when the interview exists, so a missing
// interview shows up as zero affected rows.
const appendResponseSQL = `INSERT INTO interview_responses (interview_id, record, created_at)
SELECT $1, $2, $3 WHERE EXISTS (SELECT 1 FROM interviews WHERE id = $1)`

// AppendResponse inserts one response row.
func (p *PostgresStore) AppendResponse(ctx context.Context, id string, record domain.AnswerRecord) error {
	ctx, span := p.span(ctx, "AppendResponse", "INSERT", "interview_responses")
	defer span.End()

	raw, err := json.Marshal(record)
	if err != nil {
		return pgErr("AppendResponse", fmt.Errorf("marshal response: %w", err))
	}
	tag, err := p.pool.Exec(ctx, appendResponseSQL, id, raw, record.CreatedAt.UTC())
	if err != nil {
		span.RecordError(err)
		return pgErr("AppendResponse", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("postgres", "AppendResponse", id)
	}
	return nil
}

const setFinalScoreSQL = `UPDATE interviews SET final_score = $2, completed_at = $3 WHERE id = $1`

// SetFinalScore records the final score and completion time.
func (p *PostgresStore) SetFinalScore(ctx context.Context, id string, score int, completedAt time.Time) error {
	ctx, span := p.span(ctx, "SetFinalScore", "UPDATE", "interviews")
	defer span.End()

	tag, err := p.pool.Exec(ctx, setFinalScoreSQL, id, score, completedAt.UTC())
	if err != nil {
		span.RecordError(err)
		return pgErr("SetFinalScore", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("postgres", "SetFinalScore", id)
	}
	return nil
}

const listByUserSQL = `SELECT id, role, difficulty, created_at, final_score
FROM interviews WHERE user_id = $1 ORDER BY created_at DESC, id`

// ListByUser returns the user's interviews, newest first.
func (p *PostgresStore) ListByUser(ctx context.Context, userID string) ([]domain.InterviewSummary, error) {
	ctx, span := p.span(ctx, "ListByUser", "SELECT", "interviews")
	defer span.End()

	rows, err := p.pool.Query(ctx, listByUserSQL, userID)
	if err != nil {
		span.RecordError(err)
		return nil, pgErr("ListByUser", err)
	}
	defer rows.Close()

	out := make([]domain.InterviewSummary, 0)
	for rows.Next() {
		var s domain.InterviewSummary
		if err := rows.Scan(&s.ID, &s.Role, &s.Difficulty, &s.CreatedAt, &s.FinalScore); err != nil {
			return nil, pgErr("ListByUser", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, pgErr("ListByUser", err)
	}
	span.SetAttributes(attribute.Int("db.rows", len(out)))
	return out, nil
}
