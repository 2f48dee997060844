// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/stratastor/logger"
	"github.com/stratastor/smartmond/internal/command"
	"github.com/stratastor/smartmond/internal/common"
	"github.com/stratastor/smartmond/pkg/errors"
	"github.com/stratastor/smartmond/pkg/httpclient"
)

// CadenceMode controls how often a standing condition re-fires a
// notification once it has already been sent once (spec.md section 4.9).
type CadenceMode string

const (
	CadenceOnce        CadenceMode = "once"
	CadenceDaily       CadenceMode = "daily"
	CadenceDiminishing CadenceMode = "diminishing" // 2^n days between repeats
)

// Event is one notification-worthy occurrence for a device. ID is assigned
// by Dispatcher.Send, not by the caller constructing the literal, so every
// delivered event is uniquely traceable across sinks (stdout, exec hook,
// webhook) even when the same condition fires on the same device twice.
type Event struct {
	ID         string
	Pathname   string
	Category   Category
	Message    string
	DeviceType string
	Occurred   time.Time
}

// Notifier delivers an Event to some external sink.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Due reports whether, given the cadence mode and the record of past
// deliveries, ev should be sent now. It does not mutate rec; callers must
// call RecordSent after a successful delivery.
func Due(rec NotificationRecord, mode CadenceMode, now time.Time) bool {
	if rec.TimesSent == 0 {
		return true
	}
	switch mode {
	case CadenceOnce:
		return false
	case CadenceDaily:
		return now.Unix()-rec.LastSentEpoch >= int64(24*time.Hour/time.Second)
	case CadenceDiminishing:
		// Repeat interval doubles with each prior send: 1, 2, 4, 8, ... days.
		days := int64(1) << uint(rec.TimesSent-1)
		interval := days * int64(24*time.Hour/time.Second)
		return now.Unix()-rec.LastSentEpoch >= interval
	default:
		return false
	}
}

// RecordSent updates rec after a successful delivery.
func RecordSent(rec *NotificationRecord, now time.Time) {
	if rec.TimesSent == 0 {
		rec.FirstSentEpoch = now.Unix()
	}
	rec.TimesSent++
	rec.LastSentEpoch = now.Unix()
}

// Dispatcher fans an Event out to every registered Notifier, applying the
// per-category cadence before calling each sink. It replaces the teacher's
// internal/events pipeline: same tag-scoped logger and pluggable-sink shape,
// without protobuf framing or disk spillover — a registered device's
// DeviceState is the only thing that survives a restart, and it lives in
// memory for the run, same as the log/print-once counters it is modeled on.
type Dispatcher struct {
	log       logger.Logger
	notifiers []Notifier
	mode      CadenceMode
}

// NewDispatcher builds a Dispatcher that delivers through every sink in
// notifiers using the given cadence mode.
func NewDispatcher(log logger.Logger, mode CadenceMode, notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{log: log, notifiers: notifiers, mode: mode}
}

// Send delivers ev to state if its category is due, or unconditionally when
// testOnce forces exactly one delivery regardless of the cadence counters
// (spec.md section 4.9). times_sent is incremented once the notifiers have
// been invoked, not only on success, so that a sink that is down forever
// does not turn into an unbounded retry loop.
func (d *Dispatcher) Send(ctx context.Context, state *DeviceState, ev Event, testOnce bool) {
	if int(ev.Category) < 0 || int(ev.Category) >= int(categoryCount) {
		d.log.Error("unknown notification category", "pathname", ev.Pathname, "category", int(ev.Category))
		return
	}
	rec := &state.Notifications[ev.Category]
	if !testOnce && !Due(*rec, d.mode, ev.Occurred) {
		return
	}

	if ev.ID == "" {
		ev.ID = common.UUID7()
	}
	for _, n := range d.notifiers {
		if err := n.Notify(ctx, ev); err != nil {
			d.log.Error("notifier delivery failed", "pathname", ev.Pathname, "category", ev.Category.String(), "err", err)
		}
	}
	RecordSent(rec, ev.Occurred)
}

// StdoutNotifier logs the event through the tag-scoped logger, the always-on
// sink every daemon config carries regardless of mail/webhook setup.
type StdoutNotifier struct {
	log logger.Logger
}

func NewStdoutNotifier(log logger.Logger) *StdoutNotifier {
	return &StdoutNotifier{log: log}
}

func (s *StdoutNotifier) Notify(_ context.Context, ev Event) error {
	s.log.Info(ev.Message, "pathname", ev.Pathname, "category", ev.Category.String())
	return nil
}

// ExecHookNotifier runs an external command for each event, setting the
// SMARTD_* environment variables the spec's exec hook contract names
// (section 4.9), mirroring smartd's own mail-exec convention.
type ExecHookNotifier struct {
	log  logger.Logger
	path string
}

func NewExecHookNotifier(log logger.Logger, path string) *ExecHookNotifier {
	return &ExecHookNotifier{log: log, path: path}
}

func (e *ExecHookNotifier) Notify(ctx context.Context, ev Event) error {
	if e.path == "" {
		return errors.New(errors.DiskNotifyConfigInvalid, "exec hook path not configured")
	}

	env := map[string]string{
		"SMARTD_EVENTID":      ev.ID,
		"SMARTD_MAILER":       e.path,
		"SMARTD_MESSAGE":      ev.Message,
		"SMARTD_SUBJECT":      fmt.Sprintf("SMART error (%s) detected on host: %s", ev.Category.String(), ev.Pathname),
		"SMARTD_TFIRST":       ev.Occurred.Format(time.ANSIC),
		"SMARTD_TFIRSTEPOCH":  strconv.FormatInt(ev.Occurred.Unix(), 10),
		"SMARTD_FAILTYPE":     ev.Category.String(),
		"SMARTD_ADDRESS":      "",
		"SMARTD_DEVICESTRING": ev.Pathname,
		"SMARTD_DEVICETYPE":   ev.DeviceType,
		"SMARTD_DEVICE":       ev.Pathname,
		"SMARTD_FULLMESSAGE":  ev.Message,
	}

	_, err := command.ExecCommandWithEnv(ctx, e.log, env, e.path)
	if err != nil {
		return errors.Wrap(err, errors.DiskNotifyDeliveryFailed).WithMetadata("hook", e.path)
	}
	return nil
}

// WebhookNotifier POSTs the event as JSON to a configured URL through the
// shared resty-based HTTP client.
type WebhookNotifier struct {
	client *httpclient.Client
	url    string
}

func NewWebhookNotifier(client *httpclient.Client, url string) *WebhookNotifier {
	return &WebhookNotifier{client: client, url: url}
}

type webhookPayload struct {
	ID         string `json:"id"`
	Pathname   string `json:"pathname"`
	Category   string `json:"category"`
	Message    string `json:"message"`
	DeviceType string `json:"deviceType"`
	Occurred   string `json:"occurred"`
}

func (w *WebhookNotifier) Notify(ctx context.Context, ev Event) error {
	if w.url == "" {
		return errors.New(errors.DiskNotifyConfigInvalid, "webhook url not configured")
	}
	payload := webhookPayload{
		ID:         ev.ID,
		Pathname:   ev.Pathname,
		Category:   ev.Category.String(),
		Message:    ev.Message,
		DeviceType: ev.DeviceType,
		Occurred:   ev.Occurred.Format(time.RFC3339),
	}
	resp, err := w.client.NewRequest(httpclient.RequestConfig{
		Path:    w.url,
		Body:    payload,
		Context: ctx,
	}).Post()
	if err != nil {
		return errors.Wrap(err, errors.DiskNotifyDeliveryFailed).WithMetadata("url", w.url)
	}
	if resp.IsError() {
		return errors.New(errors.DiskNotifyDeliveryFailed, fmt.Sprintf("webhook returned %s", resp.Status())).
			WithMetadata("url", w.url)
	}
	return nil
}
