package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"persona-survey-bot/internal/domain"

	"github.com/jackc/pgx/v4/pgxpool"
)

// UserStore persists user records in Postgres. Progress and score blobs are
// JSONB; partial updates only touch the fields present in the update struct.
type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

const userColumns = `user_id, COALESCE(username,''), COALESCE(first_name,''), COALESCE(last_name,''),
	COALESCE(age,0), from_funnel, current_instrument, current_question, current_step,
	COALESCE(answers,'{}'::jsonb), completed,
	COALESCE(priority_scores,'{}'::jsonb), COALESCE(style_scores,'{}'::jsonb), COALESCE(scale_scores,'{}'::jsonb),
	COALESCE(temperament,''), COALESCE(follow_up_link,''), follow_up_at, created_at, updated_at`

func (s *UserStore) GetOrCreate(ctx context.Context, userID int64, username string) (domain.UserRecord, error) {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (user_id, username) VALUES ($1, NULLIF($2,'')) ON CONFLICT (user_id) DO NOTHING`,
		userID, username)
	if err != nil {
		return domain.UserRecord{}, fmt.Errorf("create user: %w", err)
	}

	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE user_id=$1`, userID)
	user, err := scanUser(row)
	if err != nil {
		return domain.UserRecord{}, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func (s *UserStore) Update(ctx context.Context, userID int64, upd domain.UserUpdate) error {
	var (
		sets []string
		args []interface{}
	)
	add := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s=$%d", col, len(args)))
	}
	addJSON := func(col string, v interface{}) error {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", col, err)
		}
		add(col, raw)
		return nil
	}

	if upd.FirstName != nil {
		add("first_name", *upd.FirstName)
	}
	if upd.LastName != nil {
		add("last_name", *upd.LastName)
	}
	if upd.Age != nil {
		add("age", *upd.Age)
	}
	if upd.CurrentInstrument != nil {
		add("current_instrument", *upd.CurrentInstrument)
	}
	if upd.CurrentQuestion != nil {
		add("current_question", *upd.CurrentQuestion)
	}
	if upd.CurrentStep != nil {
		add("current_step", *upd.CurrentStep)
	}
	if upd.Answers != nil {
		if err := addJSON("answers", upd.Answers); err != nil {
			return err
		}
	}
	if upd.Completed != nil {
		add("completed", *upd.Completed)
	}
	if upd.PriorityScores != nil {
		if err := addJSON("priority_scores", *upd.PriorityScores); err != nil {
			return err
		}
	}
	if upd.StyleScores != nil {
		if err := addJSON("style_scores", *upd.StyleScores); err != nil {
			return err
		}
	}
	if upd.ScaleScores != nil {
		if err := addJSON("scale_scores", *upd.ScaleScores); err != nil {
			return err
		}
	}
	if upd.Temperament != nil {
		add("temperament", *upd.Temperament)
	}
	if upd.FollowUpLink != nil {
		add("follow_up_link", *upd.FollowUpLink)
	}
	if upd.FollowUpAt != nil {
		add("follow_up_at", *upd.FollowUpAt)
	}

	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at=now()")
	args = append(args, userID)
	query := fmt.Sprintf("UPDATE users SET %s WHERE user_id=$%d", strings.Join(sets, ", "), len(args))
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("update user %d: %w", userID, err)
	}
	return nil
}

// ListDueFollowUps returns users whose scheduled follow-up time has passed
// and who still have a link to deliver.
func (s *UserStore) ListDueFollowUps(ctx context.Context, now time.Time) ([]domain.UserRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE follow_up_link IS NOT NULL AND follow_up_at IS NOT NULL AND follow_up_at <= $1`, now)
	if err != nil {
		return nil, fmt.Errorf("list due follow-ups: %w", err)
	}
	defer rows.Close()

	var due []domain.UserRecord
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan follow-up user: %w", err)
		}
		due = append(due, user)
	}
	return due, rows.Err()
}

func (s *UserStore) ClearFollowUp(ctx context.Context, userID int64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE users SET follow_up_link=NULL, follow_up_at=NULL, updated_at=now() WHERE user_id=$1`, userID)
	if err != nil {
		return fmt.Errorf("clear follow-up for %d: %w", userID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (domain.UserRecord, error) {
	var (
		user                                domain.UserRecord
		answers, priorities, styles, scales []byte
	)
	err := row.Scan(
		&user.UserID, &user.Username, &user.FirstName, &user.LastName,
		&user.Age, &user.FromFunnel, &user.CurrentInstrument, &user.CurrentQuestion, &user.CurrentStep,
		&answers, &user.Completed,
		&priorities, &styles, &scales,
		&user.Temperament, &user.FollowUpLink, &user.FollowUpAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return domain.UserRecord{}, err
	}
	if err := json.Unmarshal(answers, &user.Answers); err != nil {
		return domain.UserRecord{}, fmt.Errorf("unmarshal answers: %w", err)
	}
	if err := json.Unmarshal(priorities, &user.PriorityScores); err != nil {
		return domain.UserRecord{}, fmt.Errorf("unmarshal priority scores: %w", err)
	}
	if err := json.Unmarshal(styles, &user.StyleScores); err != nil {
		return domain.UserRecord{}, fmt.Errorf("unmarshal style scores: %w", err)
	}
	if err := json.Unmarshal(scales, &user.ScaleScores); err != nil {
		return domain.UserRecord{}, fmt.Errorf("unmarshal scale scores: %w", err)
	}
	return user, nil
}
