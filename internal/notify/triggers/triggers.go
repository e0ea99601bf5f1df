// internal/notify/triggers/triggers.go
package triggers

import (
	"context"

	"github.com/getreference/notification-engine/internal/common/logger"
	"github.com/getreference/notification-engine/internal/models"
)

// Dispatcher is the narrow dispatch surface the trigger helpers call.
type Dispatcher interface {
	Dispatch(ctx context.Context, event models.Event) ([]models.ChannelResult, error)
}

// Notifier translates business events into notification dispatches. Every
// method is call-and-forget: per-channel outcomes are logged, never returned,
// so the business operation that triggered the notification always proceeds.
type Notifier struct {
	dispatcher Dispatcher
	logger     logger.Logger
}

func NewNotifier(d Dispatcher, log logger.Logger) *Notifier {
	return &Notifier{
		dispatcher: d,
		logger:     log.WithFields(map[string]interface{}{"component": "triggers"}),
	}
}

// RequestInfo carries the fields referenced by request lifecycle templates.
type RequestInfo struct {
	RequestID    string
	StudentName  string
	LecturerName string
	Purpose      string
	Deadline     string
	Reason       string
}

func (i RequestInfo) data() map[string]string {
	return map[string]string{
		"requestId":    i.RequestID,
		"studentName":  i.StudentName,
		"lecturerName": i.LecturerName,
		"purpose":      i.Purpose,
		"deadline":     i.Deadline,
		"reason":       i.Reason,
	}
}

// PaymentInfo carries the fields referenced by payment templates.
type PaymentInfo struct {
	RequestID   string
	StudentName string
	Amount      string
	Reference   string
	Reason      string
}

func (i PaymentInfo) data() map[string]string {
	return map[string]string{
		"requestId":   i.RequestID,
		"studentName": i.StudentName,
		"amount":      i.Amount,
		"reference":   i.Reference,
		"reason":      i.Reason,
	}
}

func (n *Notifier) fire(ctx context.Context, recipientID string, kind models.Kind, data map[string]string) {
	if _, err := n.dispatcher.Dispatch(ctx, models.Event{
		RecipientID: recipientID,
		Kind:        kind,
		Data:        data,
	}); err != nil {
		n.logger.Error("dispatch failed", map[string]interface{}{
			"recipientId": recipientID,
			"kind":        string(kind),
			"error":       err.Error(),
		})
	}
}

// RequestCreated notifies the lecturer of a new letter request.
func (n *Notifier) RequestCreated(ctx context.Context, lecturerID string, info RequestInfo) {
	n.fire(ctx, lecturerID, models.KindRequestCreated, info.data())
}

// RequestAccepted notifies the student that the lecturer accepted.
func (n *Notifier) RequestAccepted(ctx context.Context, studentID string, info RequestInfo) {
	n.fire(ctx, studentID, models.KindRequestAccepted, info.data())
}

// RequestDeclined notifies the student that the lecturer declined.
func (n *Notifier) RequestDeclined(ctx context.Context, studentID string, info RequestInfo) {
	n.fire(ctx, studentID, models.KindRequestDeclined, info.data())
}

// RequestCompleted notifies the student that the letter is ready.
func (n *Notifier) RequestCompleted(ctx context.Context, studentID string, info RequestInfo) {
	n.fire(ctx, studentID, models.KindRequestCompleted, info.data())
}

// RequestReassigned notifies the newly assigned lecturer.
func (n *Notifier) RequestReassigned(ctx context.Context, lecturerID string, info RequestInfo) {
	n.fire(ctx, lecturerID, models.KindRequestReassigned, info.data())
}

// RequestCancelled notifies the lecturer that the request was withdrawn.
func (n *Notifier) RequestCancelled(ctx context.Context, lecturerID string, info RequestInfo) {
	n.fire(ctx, lecturerID, models.KindRequestCancelled, info.data())
}

// PaymentReceived confirms a successful payment to the student.
func (n *Notifier) PaymentReceived(ctx context.Context, studentID string, info PaymentInfo) {
	n.fire(ctx, studentID, models.KindPaymentReceived, info.data())
}

// PaymentFailed tells the student their payment did not go through.
func (n *Notifier) PaymentFailed(ctx context.Context, studentID string, info PaymentInfo) {
	n.fire(ctx, studentID, models.KindPaymentFailed, info.data())
}

// PayoutCompleted confirms a payout to the lecturer.
func (n *Notifier) PayoutCompleted(ctx context.Context, lecturerID string, info PaymentInfo) {
	n.fire(ctx, lecturerID, models.KindPayoutCompleted, info.data())
}

// ReminderPending nudges the lecturer about a request nearing its deadline.
// Called by the scheduled reminder job.
func (n *Notifier) ReminderPending(ctx context.Context, lecturerID string, info RequestInfo) {
	n.fire(ctx, lecturerID, models.KindReminderPending, info.data())
}

// ComplaintFiled notifies the involved party that a complaint exists.
func (n *Notifier) ComplaintFiled(ctx context.Context, recipientID, requestID, subject string) {
	n.fire(ctx, recipientID, models.KindComplaintFiled, map[string]string{
		"requestId": requestID,
		"subject":   subject,
	})
}

// AdminAlert raises an operational alert to an admin recipient.
func (n *Notifier) AdminAlert(ctx context.Context, adminID, alertType, message string) {
	n.fire(ctx, adminID, models.KindAdminAlert, map[string]string{
		"alertType": alertType,
		"message":   message,
	})
}
