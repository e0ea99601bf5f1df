// internal/notify/dispatch/dispatcher.go
package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/getreference/notification-engine/internal/common/config"
	"github.com/getreference/notification-engine/internal/common/logger"
	"github.com/getreference/notification-engine/internal/common/metrics"
	"github.com/getreference/notification-engine/internal/models"
	"github.com/getreference/notification-engine/internal/notify/template"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/google/uuid"
)

// Skip reasons recorded on ChannelResult.
const (
	ReasonChannelDisabled = "channel_disabled_by_preference"
	ReasonProviderOff     = "channel_disabled_by_config"
	ReasonNoTemplate      = "channel_not_declared_by_template"
	ReasonNoAddress       = "missing_channel_address"
)

// SESService is the slice of the SES API the dispatcher uses.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SNSService is the slice of the SNS API the dispatcher uses. SMS and WhatsApp
// share this transport; WhatsApp destinations carry a "whatsapp:" prefix.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// PreferenceResolver returns a recipient's channel enablement and addresses.
type PreferenceResolver interface {
	Resolve(ctx context.Context, recipientID string) (models.Preferences, error)
}

// InAppWriter persists the in_app channel's notification row.
type InAppWriter interface {
	Insert(ctx context.Context, n models.InAppNotification) error
}

// Dispatcher resolves preferences, renders templates, and attempts delivery on
// every effective channel for one event. It is an explicitly constructed
// instance with injected collaborators; there is no package-level state.
type Dispatcher struct {
	catalog  *template.Catalog
	prefs    PreferenceResolver
	inapp    InAppWriter
	email    SESService
	sms      SNSService
	recorder DeliveryRecorder
	cfg      config.NotificationConfig
	logger   logger.Logger
}

func NewDispatcher(
	catalog *template.Catalog,
	prefs PreferenceResolver,
	inapp InAppWriter,
	email SESService,
	sms SNSService,
	recorder DeliveryRecorder,
	cfg config.NotificationConfig,
	log logger.Logger,
) *Dispatcher {
	return &Dispatcher{
		catalog:  catalog,
		prefs:    prefs,
		inapp:    inapp,
		email:    email,
		sms:      sms,
		recorder: recorder,
		cfg:      cfg,
		logger:   log.WithFields(map[string]interface{}{"component": "dispatcher"}),
	}
}

// Dispatch attempts delivery of one event across its effective channel set:
// the template's declared channels (or the caller's override) intersected with
// the recipient's enabled channels. Channel attempts run concurrently and are
// isolated; a provider failure is recorded in the result list, never raised.
// The only error return is an unknown notification kind.
func (d *Dispatcher) Dispatch(ctx context.Context, event models.Event) ([]models.ChannelResult, error) {
	tmpl, err := d.catalog.Get(event.Kind)
	if err != nil {
		return nil, err
	}

	started := time.Now()

	prefs, prefErr := d.prefs.Resolve(ctx, event.RecipientID)
	if prefErr != nil {
		// Best effort: fall back to defaults so in_app (and email, when an
		// override address is supplied) can still go out.
		d.logger.Warn("preference lookup failed, using defaults", map[string]interface{}{
			"recipientId": event.RecipientID,
			"kind":        string(event.Kind),
			"error":       prefErr.Error(),
		})
		prefs = models.DefaultPreferences()
	}

	requested := tmpl.Channels
	if len(event.Channels) > 0 {
		requested = event.Channels
	}

	results := make([]models.ChannelResult, 0, len(requested))
	var mu sync.Mutex
	var wg sync.WaitGroup

	// Append under the mutex even before Wait: goroutines spawned for earlier
	// channels may already be writing.
	for _, ch := range requested {
		if !tmpl.Eligible(ch) {
			mu.Lock()
			results = append(results, models.ChannelResult{
				Channel: ch, Status: models.StatusSkipped, Reason: ReasonNoTemplate,
			})
			mu.Unlock()
			continue
		}
		if !prefs.Enabled(ch) {
			mu.Lock()
			results = append(results, models.ChannelResult{
				Channel: ch, Status: models.StatusSkipped, Reason: ReasonChannelDisabled,
			})
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(ch models.Channel) {
			defer wg.Done()
			result := d.attempt(ctx, ch, tmpl, event, prefs)
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		}(ch)
	}

	wg.Wait()

	for _, res := range results {
		metrics.ChannelSends.WithLabelValues(string(event.Kind), string(res.Channel), string(res.Status)).Inc()
		if res.Status == models.StatusFailed {
			d.logger.Error("channel delivery failed", map[string]interface{}{
				"recipientId": event.RecipientID,
				"kind":        string(event.Kind),
				"channel":     string(res.Channel),
				"error":       res.Error,
			})
		}
	}
	metrics.DispatchDuration.WithLabelValues(string(event.Kind)).Observe(time.Since(started).Seconds())

	if d.recorder != nil {
		d.recorder.Record(ctx, event, results)
	}

	return results, nil
}

func (d *Dispatcher) attempt(ctx context.Context, ch models.Channel, tmpl template.Template, event models.Event, prefs models.Preferences) models.ChannelResult {
	switch ch {
	case models.ChannelEmail:
		return d.sendEmail(ctx, tmpl, event, prefs)
	case models.ChannelSMS:
		return d.sendSMS(ctx, tmpl, event, prefs)
	case models.ChannelWhatsApp:
		return d.sendWhatsApp(ctx, tmpl, event, prefs)
	case models.ChannelInApp:
		return d.writeInApp(ctx, tmpl, event)
	}
	return models.ChannelResult{Channel: ch, Status: models.StatusSkipped, Reason: ReasonNoTemplate}
}

func (d *Dispatcher) sendEmail(ctx context.Context, tmpl template.Template, event models.Event, prefs models.Preferences) models.ChannelResult {
	res := models.ChannelResult{Channel: models.ChannelEmail}

	if !d.cfg.Email.Enabled {
		res.Status = models.StatusSkipped
		res.Reason = ReasonProviderOff
		return res
	}

	to := prefs.EmailAddress
	if event.EmailOverride != "" {
		to = event.EmailOverride
	}
	if to == "" {
		res.Status = models.StatusSkipped
		res.Reason = ReasonNoAddress
		return res
	}

	subject := template.Render(tmpl.Subject, event.Data)
	body := template.Render(tmpl.Bodies[models.ChannelEmail], event.Data)

	_, err := d.email.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &sestypes.Destination{
			ToAddresses: []string{to},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Html: &sestypes.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(d.cfg.Email.FromEmail),
	})
	if err != nil {
		res.Status = models.StatusFailed
		res.Error = err.Error()
		return res
	}

	res.Status = models.StatusSent
	return res
}

func (d *Dispatcher) sendSMS(ctx context.Context, tmpl template.Template, event models.Event, prefs models.Preferences) models.ChannelResult {
	res := models.ChannelResult{Channel: models.ChannelSMS}

	if !d.cfg.SMS.Enabled {
		res.Status = models.StatusSkipped
		res.Reason = ReasonProviderOff
		return res
	}
	if prefs.PhoneNumber == "" {
		res.Status = models.StatusSkipped
		res.Reason = ReasonNoAddress
		return res
	}

	body := template.Render(tmpl.Bodies[models.ChannelSMS], event.Data)

	input := &sns.PublishInput{
		PhoneNumber: aws.String(prefs.PhoneNumber),
		Message:     aws.String(body),
	}
	if d.cfg.SMS.SenderID != "" {
		input.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {
				DataType:    aws.String("String"),
				StringValue: aws.String(d.cfg.SMS.SenderID),
			},
		}
	}

	if _, err := d.sms.Publish(ctx, input); err != nil {
		res.Status = models.StatusFailed
		res.Error = err.Error()
		return res
	}

	res.Status = models.StatusSent
	return res
}

func (d *Dispatcher) sendWhatsApp(ctx context.Context, tmpl template.Template, event models.Event, prefs models.Preferences) models.ChannelResult {
	res := models.ChannelResult{Channel: models.ChannelWhatsApp}

	if !d.cfg.WhatsApp.Enabled {
		res.Status = models.StatusSkipped
		res.Reason = ReasonProviderOff
		return res
	}
	if prefs.WhatsAppNumber == "" {
		res.Status = models.StatusSkipped
		res.Reason = ReasonNoAddress
		return res
	}

	body := template.Render(tmpl.Bodies[models.ChannelWhatsApp], event.Data)

	// Same transport as SMS; the whatsapp: prefix routes the send.
	if _, err := d.sms.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String("whatsapp:" + prefs.WhatsAppNumber),
		Message:     aws.String(body),
	}); err != nil {
		res.Status = models.StatusFailed
		res.Error = err.Error()
		return res
	}

	res.Status = models.StatusSent
	return res
}

func (d *Dispatcher) writeInApp(ctx context.Context, tmpl template.Template, event models.Event) models.ChannelResult {
	res := models.ChannelResult{Channel: models.ChannelInApp}

	n := models.InAppNotification{
		ID:          uuid.New().String(),
		RecipientID: event.RecipientID,
		Kind:        event.Kind,
		Title:       template.Render(tmpl.Title, event.Data),
		Message:     template.Render(tmpl.Bodies[models.ChannelInApp], event.Data),
		Data:        event.Data,
		CreatedAt:   time.Now().UTC(),
	}

	if err := d.inapp.Insert(ctx, n); err != nil {
		res.Status = models.StatusFailed
		res.Error = err.Error()
		return res
	}

	res.Status = models.StatusSent
	return res
}
