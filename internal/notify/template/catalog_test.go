// internal/notify/template/catalog_test.go
package template

import (
	"testing"

	"github.com/getreference/notification-engine/internal/common/errors"
	"github.com/getreference/notification-engine/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCatalog_AllKindsRegistered(t *testing.T) {
	catalog, err := NewCatalog()
	require.NoError(t, err)

	for _, kind := range models.Kinds {
		tmpl, err := catalog.Get(kind)
		assert.NoError(t, err, "kind %s missing from catalog", kind)
		assert.Equal(t, kind, tmpl.Kind)
		assert.NotEmpty(t, tmpl.Subject)
		assert.NotEmpty(t, tmpl.Title)
		assert.NotEmpty(t, tmpl.Channels)
	}
	assert.Len(t, catalog.Kinds(), len(models.Kinds))
}

func TestNewCatalog_EveryDeclaredChannelHasBody(t *testing.T) {
	catalog, err := NewCatalog()
	require.NoError(t, err)

	for _, kind := range catalog.Kinds() {
		tmpl, err := catalog.Get(kind)
		require.NoError(t, err)
		for _, ch := range tmpl.Channels {
			body, ok := tmpl.Bodies[ch]
			assert.True(t, ok, "kind %s declares channel %s without a body", kind, ch)
			assert.NotEmpty(t, body)
		}
	}
}

func TestCatalog_UnknownKind(t *testing.T) {
	catalog, err := NewCatalog()
	require.NoError(t, err)

	_, err = catalog.Get(models.Kind("letter_teleported"))
	require.Error(t, err)

	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeUnknownNotificationKind, stdErr.Code)
	assert.False(t, stdErr.Retryable)
}

func TestCatalog_RequestAcceptedContent(t *testing.T) {
	catalog, err := NewCatalog()
	require.NoError(t, err)

	tmpl, err := catalog.Get(models.KindRequestAccepted)
	require.NoError(t, err)

	assert.Equal(t, "Request Accepted - Recommendation Letter", tmpl.Subject)
	assert.Equal(t, "Request Accepted", tmpl.Title)

	data := map[string]string{
		"studentName":  "Ava",
		"lecturerName": "Dr. Lee",
		"purpose":      "job",
		"deadline":     "2024-12-01",
	}

	email := Render(tmpl.Bodies[models.ChannelEmail], data)
	assert.Contains(t, email, "Ava")
	assert.Contains(t, email, "Dr. Lee")

	sms := Render(tmpl.Bodies[models.ChannelSMS], data)
	assert.Equal(t, "Good news! Dr. Lee accepted your letter request for job. Deadline: 2024-12-01.", sms)
}

func TestCatalog_EligibleChannels(t *testing.T) {
	catalog, err := NewCatalog()
	require.NoError(t, err)

	cancelled, err := catalog.Get(models.KindRequestCancelled)
	require.NoError(t, err)
	assert.True(t, cancelled.Eligible(models.ChannelEmail))
	assert.True(t, cancelled.Eligible(models.ChannelInApp))
	assert.False(t, cancelled.Eligible(models.ChannelSMS))
	assert.False(t, cancelled.Eligible(models.ChannelWhatsApp))
}
