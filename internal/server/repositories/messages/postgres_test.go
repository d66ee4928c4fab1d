package messages

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophchat/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

var (
	msgCols = []string{"id", "conversation_id", "sender", "text", "created_at"}
	ts      = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
)

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+messages\s*\(conversation_id,\s*sender,\s*text\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+id,\s*created_at\s*$`).
		WithArgs(int64(3), "user", "Hello").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(10), ts))

	got, err := repo.Create(context.Background(), &models.Message{ConversationID: 3, Sender: "user", Text: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.ID)
	assert.Equal(t, ts, got.CreatedAt)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT\s+INTO\s+messages`).WillReturnError(errors.New("fk violation"))

	_, err := repo.Create(context.Background(), &models.Message{ConversationID: 3, Sender: "user", Text: "Hello"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fk violation")
}

func TestListByConversation_InIDOrder(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)FROM\s+messages\s+WHERE\s+conversation_id\s*=\s*\$1\s+ORDER\s+BY\s+id\s*$`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(msgCols).
			AddRow(int64(10), int64(3), "user", "Hello", ts).
			AddRow(int64(11), int64(3), "bot", "You said: Hello", ts))

	got, err := repo.ListByConversation(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "bot", got[1].Sender)
}

func TestListByOwner(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)JOIN\s+conversations\s+c\s+ON\s+c\.id\s*=\s*m\.conversation_id\s+WHERE\s+c\.owner_id\s*=\s*\$1`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(msgCols))

	got, err := repo.ListByOwner(context.Background(), 1)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListByOwner_ScanError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`JOIN\s+conversations`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(msgCols).AddRow("x", int64(3), "user", "Hello", ts))

	_, err := repo.ListByOwner(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to scan message row")
}
