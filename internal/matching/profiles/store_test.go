package profiles_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"career-matching/internal/common/database"
	apperrors "career-matching/internal/common/errors"
	"career-matching/internal/common/logger"
	"career-matching/internal/matching/profiles"
)

var profileColumns = []string{
	"id", "name", "age", "gender", "education_level", "experience",
	"career_preference", "skills", "interests", "actual_career",
}

const profileQuery = `SELECT id, name, age, gender, education_level, experience,\s+career_preference, skills, interests, actual_career\s+FROM user_profiles WHERE id = \$1`

func setupStore(t *testing.T, ttl time.Duration) (*profiles.Store, sqlmock.Sqlmock, *miniredis.Miniredis) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	rdb := database.NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	store, err := profiles.NewStore(database.NewPostgresFromDB(db), rdb, "", ttl, logger.NewTestLogger(t))
	require.NoError(t, err)
	return store, mock, mr
}

// ==========================
// Get
// ==========================

func TestStore_Get_LoadsAndCaches(t *testing.T) {
	store, mock, mr := setupStore(t, time.Minute)

	mock.ExpectQuery(profileQuery).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(profileColumns).
			AddRow(7, "Asha", 27, "F", "Master's", 3.5, "Data analysis", "Python, SQL", nil, "Data Scientist"))

	p, err := store.Get(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "7", p.UserID)
	assert.Equal(t, "Asha", p.Name)
	require.NotNil(t, p.Age)
	assert.Equal(t, 27.0, *p.Age)
	assert.Equal(t, "Master's", p.EducationLevel)
	assert.Equal(t, 3.5, p.Experience)
	assert.Equal(t, "Python, SQL", p.Skills)
	assert.Empty(t, p.Interests)
	assert.Equal(t, "Data Scientist", p.ActualCareer)
	assert.True(t, mr.Exists("user:profile:7"))

	// Second read is served from Redis; no query is expected.
	again, err := store.Get(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, p, again)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Get_NullAge(t *testing.T) {
	store, mock, _ := setupStore(t, 0)

	mock.ExpectQuery(profileQuery).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(profileColumns).
			AddRow(3, "Ben", nil, nil, "Bachelor's", nil, nil, nil, nil, nil))

	p, err := store.Get(context.Background(), "3")
	require.NoError(t, err)
	assert.Nil(t, p.Age)
	assert.Zero(t, p.Experience)
}

func TestStore_Get_Errors(t *testing.T) {
	tests := []struct {
		name     string
		userID   string
		setup    func(mock sqlmock.Sqlmock)
		wantCode apperrors.ErrorCode
	}{
		{
			name:     "non numeric id",
			userID:   "abc",
			setup:    func(sqlmock.Sqlmock) {},
			wantCode: apperrors.ErrCodeInputValidationFailed,
		},
		{
			name:   "not found",
			userID: "404",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(profileQuery).WithArgs(int64(404)).WillReturnError(sql.ErrNoRows)
			},
			wantCode: apperrors.ErrCodeProfileNotFound,
		},
		{
			name:   "query failure",
			userID: "5",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(profileQuery).WithArgs(int64(5)).WillReturnError(errors.New("connection reset"))
			},
			wantCode: apperrors.ErrCodeQueryExecutionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock, _ := setupStore(t, time.Minute)
			tt.setup(mock)

			_, err := store.Get(context.Background(), tt.userID)
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, tt.wantCode), err.Error())
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStore_Invalidate(t *testing.T) {
	store, _, mr := setupStore(t, time.Minute)
	require.NoError(t, mr.Set("user:profile:9", `{"userId":"9"}`))

	require.NoError(t, store.Invalidate(context.Background(), "9"))
	assert.False(t, mr.Exists("user:profile:9"))
}

func TestNewStore_RejectsBadTable(t *testing.T) {
	_, err := profiles.NewStore(nil, nil, "users; drop", time.Minute, logger.NewNoOpLogger())
	assert.Error(t, err)
}
