package session

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveNilIsNoop(t *testing.T) {
	var archive *Archive

	err := archive.AppendMessage(context.Background(), "5511999990000", Message{ID: "m1"})
	assert.NoError(t, err)

	messages, err := archive.Messages(context.Background(), "5511999990000", 0)
	assert.NoError(t, err)
	assert.Nil(t, messages)
}

func TestArchiveAppendMessage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	archive := NewArchive(db)
	ts := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO session_messages").
		WithArgs("m1", "5511999990000", FromPatient, "Oi", ts).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = archive.AppendMessage(context.Background(), "5511999990000", Message{
		ID:        "m1",
		From:      FromPatient,
		Content:   "Oi",
		Timestamp: ts,
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArchiveAppendMessageDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	archive := NewArchive(db)
	ts := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	// conflict on id: zero rows affected, still no error
	mock.ExpectExec("INSERT INTO session_messages").
		WithArgs("m1", "5511999990000", FromPatient, "Oi", ts).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = archive.AppendMessage(context.Background(), "5511999990000", Message{
		ID:        "m1",
		From:      FromPatient,
		Content:   "Oi",
		Timestamp: ts,
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArchiveMessages(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	archive := NewArchive(db)
	ts := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "sender", "content", "created_at"}).
		AddRow("m1", FromPatient, "Oi", ts).
		AddRow("m2", FromAgent, "Olá! Bem-vindo(a)", ts.Add(time.Second))

	mock.ExpectQuery("SELECT id, sender, content, created_at").
		WithArgs("5511999990000", 10).
		WillReturnRows(rows)

	messages, err := archive.Messages(context.Background(), "5511999990000", 10)

	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "m1", messages[0].ID)
	assert.Equal(t, FromAgent, messages[1].From)
	assert.NoError(t, mock.ExpectationsWereMet())
}
