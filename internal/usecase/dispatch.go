package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/totegamma/guardiansos/internal/domain"
)

const (
	defaultParallelism = 8
	defaultSendTimeout = 10 * time.Second
)

type DispatcherConfig struct {
	Parallelism int
	SendTimeout time.Duration
}

// Dispatcher fans a message out to every recipient over SMS and email.
type Dispatcher struct {
	sms     SMSGateway
	email   EmailGateway
	limit   int
	timeout time.Duration
}

func NewDispatcher(sms SMSGateway, email EmailGateway, config DispatcherConfig) *Dispatcher {
	limit := config.Parallelism
	if limit <= 0 {
		limit = defaultParallelism
	}
	timeout := config.SendTimeout
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &Dispatcher{
		sms:     sms,
		email:   email,
		limit:   limit,
		timeout: timeout,
	}
}

// DispatchReport counts sends; a send is one message on one channel to one address.
type DispatchReport struct {
	Attempted int
	Delivered int
	Failed    int
}

type sendJob struct {
	channel   string
	address   string
	recipient MessageRecipient
}

func jobsFor(recipients domain.RecipientSet) []sendJob {
	var jobs []sendJob
	add := func(phone, email string, r MessageRecipient) {
		if phone != "" {
			jobs = append(jobs, sendJob{channel: "sms", address: phone, recipient: r})
		}
		if email != "" {
			jobs = append(jobs, sendJob{channel: "email", address: email, recipient: r})
		}
	}
	for _, g := range recipients.Guardians {
		add(g.Phone, g.Email, MessageRecipient{Name: g.Name, GuardianID: g.UserID})
	}
	for _, c := range recipients.Contacts {
		add(c.Phone, c.Email, MessageRecipient{Name: c.Name})
	}
	return jobs
}

// Dispatch sends msg to every recipient and waits for all sends to finish.
// Failures are logged and counted, never returned: one broken channel or
// address must not stop the others. Cancellation of ctx does not abort
// sends already scheduled.
func (d *Dispatcher) Dispatch(ctx context.Context, msg AlertMessage, recipients domain.RecipientSet) DispatchReport {
	ctx, span := tracer.Start(context.WithoutCancel(ctx), "Dispatch.Usecase.Dispatch")
	defer span.End()

	jobs := jobsFor(recipients)
	var delivered, failed atomic.Int64

	var g errgroup.Group
	g.SetLimit(d.limit)
	for _, job := range jobs {
		g.Go(func() error {
			if err := d.sendWithRetry(ctx, msg, job); err != nil {
				failed.Add(1)
				slog.WarnContext(
					ctx, "notification abandoned",
					slog.String("channel", job.channel),
					slog.String("to", job.address),
					slog.String("level", msg.Level()),
					slog.String("error", err.Error()),
					slog.String("module", "dispatch"),
				)
				return nil
			}
			delivered.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	report := DispatchReport{
		Attempted: len(jobs),
		Delivered: int(delivered.Load()),
		Failed:    int(failed.Load()),
	}
	slog.InfoContext(
		ctx, "notifications dispatched",
		slog.String("level", msg.Level()),
		slog.Int("attempted", report.Attempted),
		slog.Int("delivered", report.Delivered),
		slog.Int("failed", report.Failed),
		slog.String("module", "dispatch"),
	)
	return report
}

// sendWithRetry makes at most two attempts.
func (d *Dispatcher) sendWithRetry(ctx context.Context, msg AlertMessage, job sendJob) error {
	body := msg.Compose(job.recipient)
	err := d.send(ctx, job, body)
	if err == nil {
		return nil
	}
	slog.DebugContext(
		ctx, "notification failed, retrying once",
		slog.String("channel", job.channel),
		slog.String("to", job.address),
		slog.String("error", err.Error()),
		slog.String("module", "dispatch"),
	)
	return d.send(ctx, job, body)
}

func (d *Dispatcher) send(ctx context.Context, job sendJob, body domain.Message) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	switch job.channel {
	case "sms":
		if d.sms == nil {
			return fmt.Errorf("no sms gateway")
		}
		return d.sms.SendSMS(ctx, job.address, body)
	case "email":
		if d.email == nil {
			return fmt.Errorf("no email gateway")
		}
		return d.email.SendEmail(ctx, job.address, body)
	default:
		return fmt.Errorf("unknown channel %s", job.channel)
	}
}
