// Package profiles reads stored user profiles, cache-aside through Redis.
package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"career-matching/internal/common/database"
	apperrors "career-matching/internal/common/errors"
	"career-matching/internal/common/logger"
	"career-matching/internal/models"
)

const cacheKeyPrefix = "user:profile:"

var tablePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Reader is what the workers need from the store.
type Reader interface {
	Get(ctx context.Context, userID string) (*models.UserProfile, error)
}

type Store struct {
	db     *database.PostgresClient
	redis  *database.RedisClient
	table  string
	ttl    time.Duration
	logger logger.Logger
}

type profileRow struct {
	ID               int64           `db:"id"`
	Name             sql.NullString  `db:"name"`
	Age              sql.NullFloat64 `db:"age"`
	Gender           sql.NullString  `db:"gender"`
	EducationLevel   sql.NullString  `db:"education_level"`
	Experience       sql.NullFloat64 `db:"experience"`
	CareerPreference sql.NullString  `db:"career_preference"`
	Skills           sql.NullString  `db:"skills"`
	Interests        sql.NullString  `db:"interests"`
	ActualCareer     sql.NullString  `db:"actual_career"`
}

func (r profileRow) profile() *models.UserProfile {
	p := &models.UserProfile{
		UserID:           strconv.FormatInt(r.ID, 10),
		Name:             r.Name.String,
		Gender:           r.Gender.String,
		EducationLevel:   r.EducationLevel.String,
		Experience:       r.Experience.Float64,
		CareerPreference: r.CareerPreference.String,
		Skills:           r.Skills.String,
		Interests:        r.Interests.String,
		ActualCareer:     r.ActualCareer.String,
	}
	if r.Age.Valid {
		age := r.Age.Float64
		p.Age = &age
	}
	return p
}

// NewStore builds a store over table. redis may be nil, and a zero ttl disables caching.
func NewStore(db *database.PostgresClient, redis *database.RedisClient, table string, ttl time.Duration, log logger.Logger) (*Store, error) {
	if table == "" {
		table = "user_profiles"
	}
	if !tablePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid profile table name %q", table)
	}
	return &Store{
		db:     db,
		redis:  redis,
		table:  table,
		ttl:    ttl,
		logger: logger.ForComponent(log, "profile-store"),
	}, nil
}

// Get returns the profile for userID, or PROFILE_NOT_FOUND.
func (s *Store) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return nil, apperrors.NewInputValidationError(fmt.Sprintf("userId %q is not numeric", userID))
	}

	key := cacheKeyPrefix + userID
	if s.cacheEnabled() {
		var cached models.UserProfile
		found, err := s.redis.GetJSON(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("profile cache read failed", map[string]interface{}{"userId": userID, "error": err})
		}
		if found {
			return &cached, nil
		}
	}

	query := fmt.Sprintf(`
		SELECT id, name, age, gender, education_level, experience,
		       career_preference, skills, interests, actual_career
		FROM %s WHERE id = $1`, s.table)

	var row profileRow
	if err := s.db.DB.GetContext(ctx, &row, query, id); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, apperrors.NewProfileNotFoundError(userID)
		case errors.Is(err, context.DeadlineExceeded):
			return nil, apperrors.NewQueryTimeoutError(string(models.QueryTypeUserProfile))
		default:
			return nil, apperrors.NewQueryExecutionFailedError(string(models.QueryTypeUserProfile), err)
		}
	}

	profile := row.profile()
	if s.cacheEnabled() {
		if err := s.redis.SetJSON(ctx, key, profile, s.ttl); err != nil {
			s.logger.Warn("profile cache write failed", map[string]interface{}{"userId": userID, "error": err})
		}
	}
	return profile, nil
}

// Invalidate drops a cached profile.
func (s *Store) Invalidate(ctx context.Context, userID string) error {
	if !s.cacheEnabled() {
		return nil
	}
	return s.redis.Del(ctx, cacheKeyPrefix+userID)
}

func (s *Store) cacheEnabled() bool {
	return s.redis != nil && s.ttl > 0
}
