// internal/notify/preferences/resolver_test.go
package preferences

import (
	"context"
	"database/sql"
	stderrors "errors"
	"testing"

	"github.com/getreference/notification-engine/internal/common/logger"
	"github.com/getreference/notification-engine/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func newTestResolver(t *testing.T) (*Resolver, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	resolver := NewResolver(db, logger.NewTestLogger(t))
	return resolver, mock, func() { db.Close() }
}

func expectProfile(mock sqlmock.Sqlmock, id, role, email string) {
	mock.ExpectQuery(`SELECT role, email FROM profiles WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"role", "email"}).AddRow(role, email))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestResolve_MissingProfileReturnsDefaults(t *testing.T) {
	resolver, mock, cleanup := newTestResolver(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT role, email FROM profiles WHERE id = \$1`).
		WithArgs("ghost-001").
		WillReturnError(sql.ErrNoRows)

	prefs, err := resolver.Resolve(context.Background(), "ghost-001")

	assert.NoError(t, err)
	assert.Equal(t, models.Preferences{
		Email:    true,
		SMS:      false,
		WhatsApp: false,
		InApp:    true,
	}, prefs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolve_LecturerInlinePreferences(t *testing.T) {
	resolver, mock, cleanup := newTestResolver(t)
	defer cleanup()

	expectProfile(mock, "lect-001", "lecturer", "lee@uni.edu")
	mock.ExpectQuery(`SELECT email_notifications, sms_notifications`).
		WithArgs("lect-001").
		WillReturnRows(sqlmock.NewRows([]string{
			"email_notifications", "sms_notifications", "whatsapp_notifications",
			"in_app_notifications", "phone_number", "whatsapp_number",
		}).AddRow(true, true, false, true, "+15551234567", nil))

	prefs, err := resolver.Resolve(context.Background(), "lect-001")

	require.NoError(t, err)
	assert.Equal(t, models.RoleLecturer, prefs.Role)
	assert.True(t, prefs.Email)
	assert.True(t, prefs.SMS)
	assert.False(t, prefs.WhatsApp)
	assert.True(t, prefs.InApp)
	assert.Equal(t, "lee@uni.edu", prefs.EmailAddress)
	assert.Equal(t, "+15551234567", prefs.PhoneNumber)
	assert.Empty(t, prefs.WhatsAppNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolve_LecturerWithoutProfileRowGetsDefaults(t *testing.T) {
	resolver, mock, cleanup := newTestResolver(t)
	defer cleanup()

	expectProfile(mock, "lect-002", "lecturer", "new@uni.edu")
	mock.ExpectQuery(`SELECT email_notifications, sms_notifications`).
		WithArgs("lect-002").
		WillReturnError(sql.ErrNoRows)

	prefs, err := resolver.Resolve(context.Background(), "lect-002")

	require.NoError(t, err)
	assert.True(t, prefs.Email)
	assert.False(t, prefs.SMS)
	assert.False(t, prefs.WhatsApp)
	assert.True(t, prefs.InApp)
	assert.Equal(t, "new@uni.edu", prefs.EmailAddress)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolve_StudentContactInfoBlob(t *testing.T) {
	resolver, mock, cleanup := newTestResolver(t)
	defer cleanup()

	expectProfile(mock, "stud-001", "student", "ava@school.edu")
	mock.ExpectQuery(`SELECT contact_info FROM student_profiles`).
		WithArgs("stud-001").
		WillReturnRows(sqlmock.NewRows([]string{"contact_info"}).AddRow([]byte(`{
			"phone_number": "+15557654321",
			"whatsapp_number": "+15557654321",
			"notifications": {"email": true, "sms": true, "whatsapp": true, "in_app": false}
		}`)))

	prefs, err := resolver.Resolve(context.Background(), "stud-001")

	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, prefs.Role)
	assert.True(t, prefs.SMS)
	assert.True(t, prefs.WhatsApp)
	assert.False(t, prefs.InApp)
	assert.Equal(t, "+15557654321", prefs.PhoneNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolve_StudentPartialBlobKeepsDefaults(t *testing.T) {
	resolver, mock, cleanup := newTestResolver(t)
	defer cleanup()

	// Blob carries only a phone number: channel flags stay at defaults.
	expectProfile(mock, "stud-002", "student", "ben@school.edu")
	mock.ExpectQuery(`SELECT contact_info FROM student_profiles`).
		WithArgs("stud-002").
		WillReturnRows(sqlmock.NewRows([]string{"contact_info"}).
			AddRow([]byte(`{"phone_number": "+15550001111"}`)))

	prefs, err := resolver.Resolve(context.Background(), "stud-002")

	require.NoError(t, err)
	assert.True(t, prefs.Email)
	assert.False(t, prefs.SMS)
	assert.False(t, prefs.WhatsApp)
	assert.True(t, prefs.InApp)
	assert.Equal(t, "+15550001111", prefs.PhoneNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolve_StudentMalformedBlobFallsBackToDefaults(t *testing.T) {
	resolver, mock, cleanup := newTestResolver(t)
	defer cleanup()

	expectProfile(mock, "stud-003", "student", "cleo@school.edu")
	mock.ExpectQuery(`SELECT contact_info FROM student_profiles`).
		WithArgs("stud-003").
		WillReturnRows(sqlmock.NewRows([]string{"contact_info"}).AddRow([]byte(`not json`)))

	prefs, err := resolver.Resolve(context.Background(), "stud-003")

	require.NoError(t, err)
	assert.True(t, prefs.Email)
	assert.False(t, prefs.SMS)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolve_AdminHardcoded(t *testing.T) {
	resolver, mock, cleanup := newTestResolver(t)
	defer cleanup()

	expectProfile(mock, "admin-001", "admin", "ops@getreference.app")

	prefs, err := resolver.Resolve(context.Background(), "admin-001")

	require.NoError(t, err)
	assert.True(t, prefs.Email)
	assert.True(t, prefs.SMS)
	assert.False(t, prefs.WhatsApp)
	assert.True(t, prefs.InApp)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolve_DatabaseErrorReturnsDefaultsAndError(t *testing.T) {
	resolver, mock, cleanup := newTestResolver(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT role, email FROM profiles WHERE id = \$1`).
		WithArgs("stud-004").
		WillReturnError(stderrors.New("connection reset"))

	prefs, err := resolver.Resolve(context.Background(), "stud-004")

	assert.Error(t, err)
	// Defaults still come back so the caller can fall back to best effort.
	assert.True(t, prefs.Email)
	assert.True(t, prefs.InApp)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Update Tests
// ==========================

func TestUpdate_Lecturer(t *testing.T) {
	resolver, mock, cleanup := newTestResolver(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT role FROM profiles WHERE id = \$1`).
		WithArgs("lect-001").
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("lecturer"))
	mock.ExpectExec(`UPDATE lecturer_profiles`).
		WithArgs("lect-001", true, true, false, true, "+15551234567", "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := resolver.Update(context.Background(), "lect-001", models.Preferences{
		Email: true, SMS: true, WhatsApp: false, InApp: true,
		PhoneNumber: "+15551234567",
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_StudentWritesBlob(t *testing.T) {
	resolver, mock, cleanup := newTestResolver(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT role FROM profiles WHERE id = \$1`).
		WithArgs("stud-001").
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("student"))
	mock.ExpectExec(`UPDATE student_profiles SET contact_info`).
		WithArgs("stud-001", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := resolver.Update(context.Background(), "stud-001", models.Preferences{
		Email: true, SMS: true, PhoneNumber: "+15557654321",
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
