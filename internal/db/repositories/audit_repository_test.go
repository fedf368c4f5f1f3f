package repositories

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/large-event/teamd-backend/internal/db/models"
)

var auditCols = []string{"id", "user_id", "action", "resource_type", "ip_address", "created_at"}

func newAuditRepo(t *testing.T) (*AuditRepository, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return NewAuditRepository(sqlx.NewDb(mockDB, "sqlmock")), mock
}

func TestCreateAuditLog(t *testing.T) {
	repo, mock := newAuditRepo(t)
	userID := 1
	resourceType := "user"
	ip := "10.0.0.1"

	mock.ExpectQuery("INSERT INTO audit_logs").
		WithArgs(&userID, "DELETE /api/users/7", &resourceType, &ip).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(42, time.Now()))

	entry := &models.AuditLog{
		UserID:       &userID,
		Action:       "DELETE /api/users/7",
		ResourceType: &resourceType,
		IPAddress:    &ip,
	}
	require.NoError(t, repo.CreateAuditLog(context.Background(), entry))
	assert.Equal(t, 42, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
}

func TestCreateAuditLog_DBError(t *testing.T) {
	repo, mock := newAuditRepo(t)
	mock.ExpectQuery("INSERT INTO audit_logs").
		WillReturnError(errDB)

	entry := &models.AuditLog{Action: "POST /api/instances/10/access"}
	assert.Error(t, repo.CreateAuditLog(context.Background(), entry))
}

func TestListRecent(t *testing.T) {
	repo, mock := newAuditRepo(t)
	userID := 1
	resourceType := "instance"
	ip := "10.0.0.1"
	rows := sqlmock.NewRows(auditCols).
		AddRow(42, userID, "POST /api/instances/10/access", resourceType, ip, time.Now()).
		AddRow(41, userID, "DELETE /api/users/7", "user", ip, time.Now().Add(-time.Minute))
	mock.ExpectQuery("SELECT.*FROM audit_logs.*ORDER BY created_at DESC.*LIMIT").
		WithArgs(50).
		WillReturnRows(rows)

	entries, err := repo.ListRecent(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "POST /api/instances/10/access", entries[0].Action)
	require.NotNil(t, entries[0].UserID)
	assert.Equal(t, 1, *entries[0].UserID)
}

func TestListRecent_ClampsLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"zero falls back to default", 0, 100},
		{"negative falls back to default", -5, 100},
		{"over the cap falls back to default", 1000, 100},
		{"in range passes through", 25, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newAuditRepo(t)
			mock.ExpectQuery("SELECT.*FROM audit_logs").
				WithArgs(tt.want).
				WillReturnRows(sqlmock.NewRows(auditCols))

			_, err := repo.ListRecent(context.Background(), tt.limit)
			require.NoError(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
