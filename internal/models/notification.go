// internal/models/notification.go
package models

import "time"

// Channel is one delivery mechanism for a notification.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelInApp    Channel = "in_app"
)

// Kind is the fixed enumeration of notification kinds.
type Kind string

const (
	KindRequestCreated    Kind = "request_created"
	KindRequestAccepted   Kind = "request_accepted"
	KindRequestDeclined   Kind = "request_declined"
	KindRequestCompleted  Kind = "request_completed"
	KindRequestReassigned Kind = "request_reassigned"
	KindRequestCancelled  Kind = "request_cancelled"
	KindPaymentReceived   Kind = "payment_received"
	KindPaymentFailed     Kind = "payment_failed"
	KindPayoutCompleted   Kind = "payout_completed"
	KindReminderPending   Kind = "reminder_pending"
	KindComplaintFiled    Kind = "complaint_filed"
	KindAdminAlert        Kind = "admin_alert"
)

// Kinds lists every registered notification kind.
var Kinds = []Kind{
	KindRequestCreated,
	KindRequestAccepted,
	KindRequestDeclined,
	KindRequestCompleted,
	KindRequestReassigned,
	KindRequestCancelled,
	KindPaymentReceived,
	KindPaymentFailed,
	KindPayoutCompleted,
	KindReminderPending,
	KindComplaintFiled,
	KindAdminAlert,
}

// Role identifies where a recipient's preferences are stored.
type Role string

const (
	RoleStudent  Role = "student"
	RoleLecturer Role = "lecturer"
	RoleAdmin    Role = "admin"
)

// Preferences is a recipient's per-channel opt-in settings plus channel addresses.
type Preferences struct {
	Role           Role   `json:"role"`
	Email          bool   `json:"email"`
	SMS            bool   `json:"sms"`
	WhatsApp       bool   `json:"whatsapp"`
	InApp          bool   `json:"inApp"`
	EmailAddress   string `json:"emailAddress,omitempty"`
	PhoneNumber    string `json:"phoneNumber,omitempty"`
	WhatsAppNumber string `json:"whatsappNumber,omitempty"`
}

// DefaultPreferences returns the opt-out baseline used when no record exists:
// email always on, in-app always on, paid channels off.
func DefaultPreferences() Preferences {
	return Preferences{
		Email:    true,
		SMS:      false,
		WhatsApp: false,
		InApp:    true,
	}
}

// Enabled reports whether the given channel is opted in.
func (p Preferences) Enabled(ch Channel) bool {
	switch ch {
	case ChannelEmail:
		return p.Email
	case ChannelSMS:
		return p.SMS
	case ChannelWhatsApp:
		return p.WhatsApp
	case ChannelInApp:
		return p.InApp
	}
	return false
}

// Event is the input to a dispatch: who, what kind, and the placeholder data.
// Ephemeral; constructed at the trigger call site and never stored.
type Event struct {
	RecipientID string            `json:"recipientId"`
	Kind        Kind              `json:"kind"`
	Data        map[string]string `json:"data,omitempty"`
	// Channels, when non-empty, overrides the template's declared channel set.
	// Recipient preferences still apply.
	Channels []Channel `json:"channels,omitempty"`
	// EmailOverride replaces the recipient's account email for this event.
	EmailOverride string `json:"emailOverride,omitempty"`
}

// SendStatus is the outcome of one channel attempt.
type SendStatus string

const (
	StatusSent    SendStatus = "sent"
	StatusSkipped SendStatus = "skipped"
	StatusFailed  SendStatus = "failed"
)

// ChannelResult is the typed per-channel outcome returned to dispatch callers.
type ChannelResult struct {
	Channel Channel    `json:"channel"`
	Status  SendStatus `json:"status"`
	Reason  string     `json:"reason,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// InAppNotification is the persisted side effect of dispatch on the in_app channel.
type InAppNotification struct {
	ID          string            `json:"id"`
	RecipientID string            `json:"recipientId"`
	Kind        Kind              `json:"kind"`
	Title       string            `json:"title"`
	Message     string            `json:"message"`
	Data        map[string]string `json:"data,omitempty"`
	Read        bool              `json:"read"`
	CreatedAt   time.Time         `json:"createdAt"`
}
