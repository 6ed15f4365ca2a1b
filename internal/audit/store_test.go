// internal/audit/store_test.go
package audit

import (
	"context"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "notification-dispatcher/internal/common/errors"
	"notification-dispatcher/internal/models"
)

func TestStoreWrite(t *testing.T) {
	results := []models.DispatchResult{
		{Recipient: "a@example.com", TemplateID: "tutor-approved", Status: models.StatusSent},
		{Recipient: "b@spam.example", TemplateID: "tutor-approved", Status: models.StatusSkipped, Reason: "recipient domain is blocked"},
	}

	t.Run("one row per result", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec("INSERT INTO notification_audit").
			WithArgs("evt-1", "TUTOR_APPROVED", "a@example.com", "tutor-approved", "SENT", "", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO notification_audit").
			WithArgs("evt-1", "TUTOR_APPROVED", "b@spam.example", "tutor-approved", "SKIPPED", "recipient domain is blocked", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		store := NewStore(db)
		err = store.Write(context.Background(), "evt-1", models.EventTutorApproved, results)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert failure surfaces as audit error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec("INSERT INTO notification_audit").
			WillReturnError(fmt.Errorf("connection reset"))

		store := NewStore(db)
		err = store.Write(context.Background(), "evt-1", models.EventTutorApproved, results[:1])
		require.Error(t, err)

		code, ok := stderrors.CodeOf(err)
		require.True(t, ok)
		assert.Equal(t, stderrors.ErrCodeAuditWriteFailed, code)
	})

	t.Run("empty batch writes nothing", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		store := NewStore(db)
		require.NoError(t, store.Write(context.Background(), "evt-1", models.EventTutorApproved, nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
