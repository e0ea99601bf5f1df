// internal/notify/template/catalog.go
package template

import (
	"github.com/getreference/notification-engine/internal/common/errors"
	"github.com/getreference/notification-engine/internal/models"
)

// Template is the fixed definition for one notification kind: the channels it
// may go out on, a subject line, and one body per eligible channel. The in_app
// channel additionally carries a short title rendered into the stored row.
type Template struct {
	Kind     models.Kind
	Channels []models.Channel
	Subject  string
	Title    string
	Bodies   map[models.Channel]string
}

// Eligible reports whether the template declares the given channel.
func (t Template) Eligible(ch models.Channel) bool {
	for _, c := range t.Channels {
		if c == ch {
			return true
		}
	}
	return false
}

// Catalog holds the immutable kind-to-template mapping, built once at process
// start. Adding a kind is a code change, not a data migration.
type Catalog struct {
	templates map[models.Kind]Template
}

// NewCatalog builds the built-in catalog and enforces the invariant that every
// declared channel has a body to render.
func NewCatalog() (*Catalog, error) {
	c := &Catalog{templates: builtinTemplates()}
	for kind, tmpl := range c.templates {
		for _, ch := range tmpl.Channels {
			if _, ok := tmpl.Bodies[ch]; !ok {
				return nil, errors.NewTemplateChannelMissingError(string(kind), string(ch))
			}
		}
	}
	return c, nil
}

// Get returns the template for a kind. An unknown kind means a missing catalog
// entry and fails loudly.
func (c *Catalog) Get(kind models.Kind) (Template, error) {
	tmpl, ok := c.templates[kind]
	if !ok {
		return Template{}, errors.NewUnknownNotificationKindError(string(kind))
	}
	return tmpl, nil
}

// Kinds returns every kind registered in the catalog.
func (c *Catalog) Kinds() []models.Kind {
	kinds := make([]models.Kind, 0, len(c.templates))
	for k := range c.templates {
		kinds = append(kinds, k)
	}
	return kinds
}

var allChannels = []models.Channel{
	models.ChannelEmail, models.ChannelSMS, models.ChannelWhatsApp, models.ChannelInApp,
}

func builtinTemplates() map[models.Kind]Template {
	return map[models.Kind]Template{
		models.KindRequestCreated: {
			Kind:     models.KindRequestCreated,
			Channels: allChannels,
			Subject:  "New Recommendation Letter Request",
			Title:    "New Request",
			Bodies: map[models.Channel]string{
				models.ChannelEmail:    "<p>Dear {{lecturerName}},</p><p>{{studentName}} has requested a recommendation letter for {{purpose}}.</p><p>Deadline: {{deadline}}</p><p>Please review the request in your dashboard.</p>",
				models.ChannelSMS:      "{{studentName}} requested a recommendation letter for {{purpose}}. Deadline: {{deadline}}. Review it on GetReference.",
				models.ChannelWhatsApp: "{{studentName}} requested a recommendation letter for {{purpose}}. Deadline: {{deadline}}. Review it on GetReference.",
				models.ChannelInApp:    "{{studentName}} requested a recommendation letter for {{purpose}}. Deadline: {{deadline}}.",
			},
		},
		models.KindRequestAccepted: {
			Kind:     models.KindRequestAccepted,
			Channels: allChannels,
			Subject:  "Request Accepted - Recommendation Letter",
			Title:    "Request Accepted",
			Bodies: map[models.Channel]string{
				models.ChannelEmail:    "<p>Dear {{studentName}},</p><p>Good news! {{lecturerName}} accepted your recommendation letter request for {{purpose}}.</p><p>Expected delivery by {{deadline}}.</p>",
				models.ChannelSMS:      "Good news! {{lecturerName}} accepted your letter request for {{purpose}}. Deadline: {{deadline}}.",
				models.ChannelWhatsApp: "Good news! {{lecturerName}} accepted your letter request for {{purpose}}. Deadline: {{deadline}}.",
				models.ChannelInApp:    "{{lecturerName}} accepted your letter request for {{purpose}}.",
			},
		},
		models.KindRequestDeclined: {
			Kind:     models.KindRequestDeclined,
			Channels: allChannels,
			Subject:  "Request Declined - Recommendation Letter",
			Title:    "Request Declined",
			Bodies: map[models.Channel]string{
				models.ChannelEmail:    "<p>Dear {{studentName}},</p><p>{{lecturerName}} declined your recommendation letter request for {{purpose}}.</p><p>Reason: {{reason}}</p><p>You can send the request to another lecturer from your dashboard.</p>",
				models.ChannelSMS:      "{{lecturerName}} declined your letter request for {{purpose}}. Reason: {{reason}}. You can reassign it on GetReference.",
				models.ChannelWhatsApp: "{{lecturerName}} declined your letter request for {{purpose}}. Reason: {{reason}}. You can reassign it on GetReference.",
				models.ChannelInApp:    "{{lecturerName}} declined your letter request for {{purpose}}.",
			},
		},
		models.KindRequestCompleted: {
			Kind:     models.KindRequestCompleted,
			Channels: allChannels,
			Subject:  "Your Recommendation Letter Is Ready",
			Title:    "Letter Ready",
			Bodies: map[models.Channel]string{
				models.ChannelEmail:    "<p>Dear {{studentName}},</p><p>{{lecturerName}} has completed your recommendation letter for {{purpose}}.</p><p>Download it from your dashboard.</p>",
				models.ChannelSMS:      "Your recommendation letter for {{purpose}} is ready. Download it on GetReference.",
				models.ChannelWhatsApp: "Your recommendation letter for {{purpose}} is ready. Download it on GetReference.",
				models.ChannelInApp:    "{{lecturerName}} completed your letter for {{purpose}}. It is ready to download.",
			},
		},
		models.KindRequestReassigned: {
			Kind:     models.KindRequestReassigned,
			Channels: allChannels,
			Subject:  "Request Reassigned - Recommendation Letter",
			Title:    "Request Reassigned",
			Bodies: map[models.Channel]string{
				models.ChannelEmail:    "<p>Dear {{lecturerName}},</p><p>A recommendation letter request from {{studentName}} for {{purpose}} has been reassigned to you.</p><p>Deadline: {{deadline}}</p>",
				models.ChannelSMS:      "A letter request from {{studentName}} for {{purpose}} was reassigned to you. Deadline: {{deadline}}.",
				models.ChannelWhatsApp: "A letter request from {{studentName}} for {{purpose}} was reassigned to you. Deadline: {{deadline}}.",
				models.ChannelInApp:    "Request from {{studentName}} for {{purpose}} was reassigned to you.",
			},
		},
		models.KindRequestCancelled: {
			Kind:     models.KindRequestCancelled,
			Channels: []models.Channel{models.ChannelEmail, models.ChannelInApp},
			Subject:  "Request Cancelled - Recommendation Letter",
			Title:    "Request Cancelled",
			Bodies: map[models.Channel]string{
				models.ChannelEmail: "<p>Dear {{lecturerName}},</p><p>The recommendation letter request from {{studentName}} for {{purpose}} has been cancelled.</p><p>No further action is needed.</p>",
				models.ChannelInApp: "The request from {{studentName}} for {{purpose}} was cancelled.",
			},
		},
		models.KindPaymentReceived: {
			Kind:     models.KindPaymentReceived,
			Channels: []models.Channel{models.ChannelEmail, models.ChannelSMS, models.ChannelInApp},
			Subject:  "Payment Received",
			Title:    "Payment Received",
			Bodies: map[models.Channel]string{
				models.ChannelEmail: "<p>Dear {{studentName}},</p><p>We received your payment of {{amount}} for request {{requestId}}.</p><p>Reference: {{reference}}</p>",
				models.ChannelSMS:   "Payment of {{amount}} received for your letter request. Reference: {{reference}}.",
				models.ChannelInApp: "Payment of {{amount}} received. Reference: {{reference}}.",
			},
		},
		models.KindPaymentFailed: {
			Kind:     models.KindPaymentFailed,
			Channels: []models.Channel{models.ChannelEmail, models.ChannelSMS, models.ChannelInApp},
			Subject:  "Payment Failed",
			Title:    "Payment Failed",
			Bodies: map[models.Channel]string{
				models.ChannelEmail: "<p>Dear {{studentName}},</p><p>Your payment of {{amount}} for request {{requestId}} could not be processed.</p><p>Reason: {{reason}}</p><p>Please try again from your dashboard.</p>",
				models.ChannelSMS:   "Your payment of {{amount}} failed: {{reason}}. Please retry on GetReference.",
				models.ChannelInApp: "Payment of {{amount}} failed: {{reason}}.",
			},
		},
		models.KindPayoutCompleted: {
			Kind:     models.KindPayoutCompleted,
			Channels: []models.Channel{models.ChannelEmail, models.ChannelSMS, models.ChannelInApp},
			Subject:  "Payout Completed",
			Title:    "Payout Completed",
			Bodies: map[models.Channel]string{
				models.ChannelEmail: "<p>Dear {{lecturerName}},</p><p>Your payout of {{amount}} has been completed.</p><p>Reference: {{reference}}</p>",
				models.ChannelSMS:   "Your payout of {{amount}} is complete. Reference: {{reference}}.",
				models.ChannelInApp: "Payout of {{amount}} completed. Reference: {{reference}}.",
			},
		},
		models.KindReminderPending: {
			Kind:     models.KindReminderPending,
			Channels: allChannels,
			Subject:  "Reminder: Pending Recommendation Letter Request",
			Title:    "Pending Request Reminder",
			Bodies: map[models.Channel]string{
				models.ChannelEmail:    "<p>Dear {{lecturerName}},</p><p>This is a reminder that the request from {{studentName}} for {{purpose}} is still pending.</p><p>Deadline: {{deadline}}</p>",
				models.ChannelSMS:      "Reminder: the letter request from {{studentName}} for {{purpose}} is still pending. Deadline: {{deadline}}.",
				models.ChannelWhatsApp: "Reminder: the letter request from {{studentName}} for {{purpose}} is still pending. Deadline: {{deadline}}.",
				models.ChannelInApp:    "Request from {{studentName}} for {{purpose}} is still pending. Deadline: {{deadline}}.",
			},
		},
		models.KindComplaintFiled: {
			Kind:     models.KindComplaintFiled,
			Channels: []models.Channel{models.ChannelEmail, models.ChannelInApp},
			Subject:  "Complaint Filed",
			Title:    "Complaint Filed",
			Bodies: map[models.Channel]string{
				models.ChannelEmail: "<p>A complaint has been filed regarding request {{requestId}}.</p><p>Subject: {{subject}}</p><p>Our support team will review it shortly.</p>",
				models.ChannelInApp: "A complaint was filed regarding request {{requestId}}: {{subject}}",
			},
		},
		models.KindAdminAlert: {
			Kind:     models.KindAdminAlert,
			Channels: []models.Channel{models.ChannelEmail, models.ChannelSMS, models.ChannelInApp},
			Subject:  "Admin Alert - {{alertType}}",
			Title:    "Admin Alert",
			Bodies: map[models.Channel]string{
				models.ChannelEmail: "<p>Admin alert: {{alertType}}</p><p>{{message}}</p>",
				models.ChannelSMS:   "Admin alert ({{alertType}}): {{message}}",
				models.ChannelInApp: "{{alertType}}: {{message}}",
			},
		},
	}
}
