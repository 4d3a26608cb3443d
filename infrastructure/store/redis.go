package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/interview-gavel/internal/domain"
	"github.com/ahrav/interview-gavel/internal/ports"
)

var _ ports.InterviewStore = (*RedisStore)(nil)

// Hash fields of an interview.
const (
	fieldID             = "id"
	fieldUserID         = "user_id"
	fieldRole           = "role"
	fieldDifficulty     = "difficulty"
	fieldTotalQuestions = "total_questions"
	fieldCreatedAt      = "created_at"
	fieldFinalScore     = "final_score"
	fieldCompletedAt    = "completed_at"
)

// RedisStore keeps each interview in a hash, its responses in a list
// appended with RPUSH, and each user's interviews in a sorted set scored by
// creation time.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	tracer trace.Tracer
}

// NewRedisStore wraps client. Keys are namespaced with prefix, which
// defaults to "gavel:".
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "gavel:"
	}
	return &RedisStore{client: client, prefix: prefix, tracer: otel.Tracer("store.redis")}
}

func (r *RedisStore) interviewKey(id string) string { return r.prefix + "interview:" + id }

func (r *RedisStore) responsesKey(id string) string {
	return r.prefix + "interview:" + id + ":responses"
}

func (r *RedisStore) userKey(userID string) string {
	return r.prefix + "user:" + userID + ":interviews"
}

func (r *RedisStore) span(ctx context.Context, op string) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, "interviews."+op, trace.WithAttributes(
		attribute.String("db.system", "redis"),
		attribute.String("db.operation", op),
	))
}

func storeErr(op string, err error) error {
	return ports.NewStoreError("redis", op, err)
}

// Create writes the interview hash and indexes it under its user.
func (r *RedisStore) Create(ctx context.Context, session domain.InterviewSession) error {
	ctx, span := r.span(ctx, "Create")
	defer span.End()

	records := make([]any, 0, len(session.Responses))
	for _, rec := range session.Responses {
		raw, err := json.Marshal(rec)
		if err != nil {
			return storeErr("Create", fmt.Errorf("marshal response: %w", err))
		}
		records = append(records, raw)
	}

	fields := map[string]any{
		fieldID:             session.ID,
		fieldUserID:         session.UserID,
		fieldRole:           session.Role,
		fieldDifficulty:     session.Difficulty,
		fieldTotalQuestions: session.TotalQuestions,
		fieldCreatedAt:      session.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if session.FinalScore != nil {
		fields[fieldFinalScore] = *session.FinalScore
	}
	if session.CompletedAt != nil {
		fields[fieldCompletedAt] = session.CompletedAt.UTC().Format(time.RFC3339Nano)
	}

	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, r.interviewKey(session.ID), r.responsesKey(session.ID))
		p.HSet(ctx, r.interviewKey(session.ID), fields)
		if len(records) > 0 {
			p.RPush(ctx, r.responsesKey(session.ID), records...)
		}
		p.ZAdd(ctx, r.userKey(session.UserID), redis.Z{
			Score:  float64(session.CreatedAt.UnixNano()),
			Member: session.ID,
		})
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return storeErr("Create", err)
	}
	return nil
}

// Get loads the interview and all of its responses.
func (r *RedisStore) Get(ctx context.Context, id string) (domain.InterviewSession, error) {
	ctx, span := r.span(ctx, "Get")
	defer span.End()

	var (
		hash  *redis.MapStringStringCmd
		items *redis.StringSliceCmd
	)
	_, err := r.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		hash = p.HGetAll(ctx, r.interviewKey(id))
		items = p.LRange(ctx, r.responsesKey(id), 0, -1)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return domain.InterviewSession{}, storeErr("Get", err)
	}
	if len(hash.Val()) == 0 {
		return domain.InterviewSession{}, notFound("redis", "Get", id)
	}

	session, err := decodeSession(hash.Val())
	if err != nil {
		return domain.InterviewSession{}, storeErr("Get", err)
	}
	session.Responses = make([]domain.AnswerRecord, 0, len(items.Val()))
	for _, item := range items.Val() {
		var rec domain.AnswerRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return domain.InterviewSession{}, storeErr("Get", fmt.Errorf("decode response: %w", err))
		}
		session.Responses = append(session.Responses, rec)
	}
	return session, nil
}

// AppendResponse pushes record onto the interview's response list. RPUSH is
// atomic, so concurrent appends are never lost.
func (r *RedisStore) AppendResponse(ctx context.Context, id string, record domain.AnswerRecord) error {
	ctx, span := r.span(ctx, "AppendResponse")
	defer span.End()

	if err := r.exists(ctx, "AppendResponse", id); err != nil {
		return err
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return storeErr("AppendResponse", fmt.Errorf("marshal response: %w", err))
	}
	if err := r.client.RPush(ctx, r.responsesKey(id), raw).Err(); err != nil {
		span.RecordError(err)
		return storeErr("AppendResponse", err)
	}
	return nil
}

// SetFinalScore records the final score and completion time.
func (r *RedisStore) SetFinalScore(ctx context.Context, id string, score int, completedAt time.Time) error {
	ctx, span := r.span(ctx, "SetFinalScore")
	defer span.End()

	if err := r.exists(ctx, "SetFinalScore", id); err != nil {
		return err
	}
	err := r.client.HSet(ctx, r.interviewKey(id),
		fieldFinalScore, score,
		fieldCompletedAt, completedAt.UTC().Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		span.RecordError(err)
		return storeErr("SetFinalScore", err)
	}
	return nil
}

// ListByUser returns the user's interviews, newest first.
func (r *RedisStore) ListByUser(ctx context.Context, userID string) ([]domain.InterviewSummary, error) {
	ctx, span := r.span(ctx, "ListByUser")
	defer span.End()

	ids, err := r.client.ZRevRange(ctx, r.userKey(userID), 0, -1).Result()
	if err != nil {
		span.RecordError(err)
		return nil, storeErr("ListByUser", err)
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = r.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = p.HGetAll(ctx, r.interviewKey(id))
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, storeErr("ListByUser", err)
	}

	out := make([]domain.InterviewSummary, 0, len(ids))
	for _, cmd := range cmds {
		if len(cmd.Val()) == 0 {
			continue
		}
		s, err := decodeSession(cmd.Val())
		if err != nil {
			return nil, storeErr("ListByUser", err)
		}
		out = append(out, s.Summary())
	}
	sortNewestFirst(out)
	span.SetAttributes(attribute.Int("db.rows", len(out)))
	return out, nil
}

func (r *RedisStore) exists(ctx context.Context, op, id string) error {
	n, err := r.client.Exists(ctx, r.interviewKey(id)).Result()
	if err != nil {
		return storeErr(op, err)
	}
	if n == 0 {
		return notFound("redis", op, id)
	}
	return nil
}

func decodeSession(h map[string]string) (domain.InterviewSession, error) {
	s := domain.InterviewSession{
		ID:         h[fieldID],
		UserID:     h[fieldUserID],
		Role:       h[fieldRole],
		Difficulty: h[fieldDifficulty],
	}
	var err error
	if v := h[fieldTotalQuestions]; v != "" {
		if s.TotalQuestions, err = strconv.Atoi(v); err != nil {
			return s, fmt.Errorf("decode %s: %w", fieldTotalQuestions, err)
		}
	}
	if v := h[fieldCreatedAt]; v != "" {
		if s.CreatedAt, err = time.Parse(time.RFC3339Nano, v); err != nil {
			return s, fmt.Errorf("decode %s: %w", fieldCreatedAt, err)
		}
	}
	if v := h[fieldFinalScore]; v != "" {
		score, err := strconv.Atoi(v)
		if err != nil {
			return s, fmt.Errorf("decode %s: %w", fieldFinalScore, err)
		}
		s.FinalScore = &score
	}
	if v := h[fieldCompletedAt]; v != "" {
		at, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return s, fmt.Errorf("decode %s: %w", fieldCompletedAt, err)
		}
		s.CompletedAt = &at
	}
	return s, nil
}

// NewRedisClient creates a client and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("op=redis.ping: %w", err)
	}
	return client, nil
}

// RedisCache implements ports.CacheStore with plain string keys.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
}

var _ ports.CacheStore = (*RedisCache)(nil)

// NewRedisCache wraps client. Keys are namespaced with prefix, which
// defaults to "gavel:cache:".
func NewRedisCache(client redis.UniversalClient, prefix string) *RedisCache {
	if prefix == "" {
		prefix = "gavel:cache:"
	}
	return &RedisCache{client: client, prefix: prefix}
}

// Get returns the cached value. A missing key is a miss, not an error.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, ports.NewCacheError(key, "Get", err)
	}
	return v, true, nil
}

// Set stores value with the given expiration; zero keeps it forever.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, value, expiration).Err(); err != nil {
		return ports.NewCacheError(key, "Set", err)
	}
	return nil
}

// Delete removes key.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return ports.NewCacheError(key, "Delete", err)
	}
	return nil
}

// Clear removes every key under the cache prefix.
func (c *RedisCache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return ports.NewCacheError(c.prefix+"*", "Clear", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return ports.NewCacheError(c.prefix+"*", "Clear", err)
	}
	return nil
}
