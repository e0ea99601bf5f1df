// internal/notify/preferences/resolver.go
package preferences

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"

	"github.com/getreference/notification-engine/internal/common/errors"
	"github.com/getreference/notification-engine/internal/common/logger"
	"github.com/getreference/notification-engine/internal/models"
)

// Resolver reads a recipient's channel enablement and addresses.
//
// Storage differs by role: lecturers keep preference flags inline on their
// profile row, students keep them nested inside a generic contact-info blob,
// and admins get a hardcoded default. A recipient with no record at all gets
// models.DefaultPreferences(); the resolver never errors on a missing profile.
type Resolver struct {
	db     *sql.DB
	logger logger.Logger
}

func NewResolver(db *sql.DB, log logger.Logger) *Resolver {
	return &Resolver{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "preferences"}),
	}
}

// contactInfo mirrors the student profile's contact-info JSON blob.
type contactInfo struct {
	PhoneNumber    string `json:"phone_number"`
	WhatsAppNumber string `json:"whatsapp_number"`
	Notifications  *struct {
		Email    *bool `json:"email"`
		SMS      *bool `json:"sms"`
		WhatsApp *bool `json:"whatsapp"`
		InApp    *bool `json:"in_app"`
	} `json:"notifications"`
}

// Resolve returns the recipient's current preferences. A missing profile or
// missing role-specific record yields the defaults, not an error.
func (r *Resolver) Resolve(ctx context.Context, recipientID string) (models.Preferences, error) {
	var role string
	var email sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT role, email FROM profiles WHERE id = $1`, recipientID,
	).Scan(&role, &email)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return models.DefaultPreferences(), nil
		}
		return models.DefaultPreferences(), errors.NewPreferenceLookupFailedError(err)
	}

	prefs := models.DefaultPreferences()
	prefs.Role = models.Role(role)
	prefs.EmailAddress = email.String

	switch models.Role(role) {
	case models.RoleLecturer:
		return r.resolveLecturer(ctx, recipientID, prefs)
	case models.RoleStudent:
		return r.resolveStudent(ctx, recipientID, prefs)
	case models.RoleAdmin:
		prefs.Email = true
		prefs.SMS = true
		prefs.WhatsApp = false
		prefs.InApp = true
		return prefs, nil
	default:
		r.logger.Warn("unknown role, using defaults", map[string]interface{}{
			"recipientId": recipientID,
			"role":        role,
		})
		return prefs, nil
	}
}

func (r *Resolver) resolveLecturer(ctx context.Context, recipientID string, prefs models.Preferences) (models.Preferences, error) {
	var phone, whatsapp sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT email_notifications, sms_notifications, whatsapp_notifications, in_app_notifications,
		        phone_number, whatsapp_number
		 FROM lecturer_profiles WHERE profile_id = $1`, recipientID,
	).Scan(&prefs.Email, &prefs.SMS, &prefs.WhatsApp, &prefs.InApp, &phone, &whatsapp)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return prefs, nil
		}
		return prefs, errors.NewPreferenceLookupFailedError(err)
	}
	prefs.PhoneNumber = phone.String
	prefs.WhatsAppNumber = whatsapp.String
	return prefs, nil
}

func (r *Resolver) resolveStudent(ctx context.Context, recipientID string, prefs models.Preferences) (models.Preferences, error) {
	var blob []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT contact_info FROM student_profiles WHERE profile_id = $1`, recipientID,
	).Scan(&blob)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return prefs, nil
		}
		return prefs, errors.NewPreferenceLookupFailedError(err)
	}

	var info contactInfo
	if err := json.Unmarshal(blob, &info); err != nil {
		r.logger.Warn("malformed contact_info blob, using defaults", map[string]interface{}{
			"recipientId": recipientID,
			"error":       err.Error(),
		})
		return prefs, nil
	}

	prefs.PhoneNumber = info.PhoneNumber
	prefs.WhatsAppNumber = info.WhatsAppNumber
	if n := info.Notifications; n != nil {
		if n.Email != nil {
			prefs.Email = *n.Email
		}
		if n.SMS != nil {
			prefs.SMS = *n.SMS
		}
		if n.WhatsApp != nil {
			prefs.WhatsApp = *n.WhatsApp
		}
		if n.InApp != nil {
			prefs.InApp = *n.InApp
		}
	}
	return prefs, nil
}

// Update writes a recipient's preference flags and channel addresses. Only the
// settings flow calls this; the dispatch path is read-only.
func (r *Resolver) Update(ctx context.Context, recipientID string, prefs models.Preferences) error {
	var role string
	err := r.db.QueryRowContext(ctx,
		`SELECT role FROM profiles WHERE id = $1`, recipientID,
	).Scan(&role)
	if err != nil {
		return errors.NewPreferenceUpdateFailedError(err)
	}

	switch models.Role(role) {
	case models.RoleLecturer:
		_, err = r.db.ExecContext(ctx,
			`UPDATE lecturer_profiles
			 SET email_notifications = $2, sms_notifications = $3, whatsapp_notifications = $4,
			     in_app_notifications = $5, phone_number = $6, whatsapp_number = $7
			 WHERE profile_id = $1`,
			recipientID, prefs.Email, prefs.SMS, prefs.WhatsApp, prefs.InApp,
			prefs.PhoneNumber, prefs.WhatsAppNumber,
		)
	case models.RoleStudent:
		info := map[string]interface{}{
			"phone_number":    prefs.PhoneNumber,
			"whatsapp_number": prefs.WhatsAppNumber,
			"notifications": map[string]bool{
				"email":    prefs.Email,
				"sms":      prefs.SMS,
				"whatsapp": prefs.WhatsApp,
				"in_app":   prefs.InApp,
			},
		}
		blob, marshalErr := json.Marshal(info)
		if marshalErr != nil {
			return errors.NewPreferenceUpdateFailedError(marshalErr)
		}
		_, err = r.db.ExecContext(ctx,
			`UPDATE student_profiles SET contact_info = $2 WHERE profile_id = $1`,
			recipientID, blob,
		)
	default:
		// Admin preferences are hardcoded and not writable.
		return nil
	}

	if err != nil {
		return errors.NewPreferenceUpdateFailedError(err)
	}
	return nil
}
