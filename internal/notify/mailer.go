package notify

import (
	"context"
	"fmt"
	"strconv"

	"github.com/wneessen/go-mail"

	"garde-booking/internal/booking"
	"garde-booking/internal/status"
	"garde-booking/pkg/config"
)

// Mailer sends the transactional booking emails over SMTP. Every send is
// best-effort from the caller's perspective; the booking service never fails
// an operation on a delivery error.
type Mailer struct {
	cfg    config.SMTPConfig
	client *mail.Client
}

// NewMailer returns nil (no notifier) when SMTP is not configured.
func NewMailer(cfg config.SMTPConfig) (*Mailer, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, nil
	}
	port, err := strconv.Atoi(cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP port %q: %w", cfg.Port, err)
	}
	opts := []mail.Option{mail.WithPort(port)}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, err
	}
	return &Mailer{cfg: cfg, client: client}, nil
}

// BookingReceived notifies the administrator of a new submission and, when
// the requester left an email, acknowledges receipt to them.
func (m *Mailer) BookingReceived(ctx context.Context, b *booking.BookingRequest) error {
	var msgs []*mail.Msg

	if m.cfg.AdminEmail != "" {
		admin, err := m.message(m.cfg.AdminEmail,
			"Nouvelle demande de garde",
			fmt.Sprintf("Nouvelle demande de %s (%s).\n\nService : %s\nDate : %s de %s à %s\nEnfants : %d\nTotal estimé : %s €\n",
				b.ParentName, b.ParentPhone, b.ServiceType, b.RequestedDate, b.StartTime, b.EndTime, b.ChildrenCount, b.EstimatedTotal.StringFixed(2)))
		if err != nil {
			return err
		}
		msgs = append(msgs, admin)
	}

	if b.ParentEmail != "" {
		ack, err := m.message(b.ParentEmail,
			"Votre demande de garde a bien été reçue",
			fmt.Sprintf("Bonjour %s,\n\nNous avons bien reçu votre demande de garde pour le %s de %s à %s. Nous revenons vers vous rapidement.\n\nTotal estimé : %s €\n",
				b.ParentName, b.RequestedDate, b.StartTime, b.EndTime, b.EstimatedTotal.StringFixed(2)))
		if err != nil {
			return err
		}
		msgs = append(msgs, ack)
	}

	if len(msgs) == 0 {
		return nil
	}
	return m.client.DialAndSendWithContext(ctx, msgs...)
}

// BookingConfirmed tells the requester their reservation is confirmed.
func (m *Mailer) BookingConfirmed(ctx context.Context, b *booking.BookingRequest) error {
	if b.ParentEmail == "" {
		return nil
	}
	msg, err := m.message(b.ParentEmail,
		"Votre réservation est confirmée",
		fmt.Sprintf("Bonjour %s,\n\nVotre réservation du %s de %s à %s est confirmée.\n\nTotal estimé : %s €\n",
			b.ParentName, b.RequestedDate, b.StartTime, b.EndTime, b.EstimatedTotal.StringFixed(2)))
	if err != nil {
		return err
	}
	return m.client.DialAndSendWithContext(ctx, msg)
}

// BookingCancelled tells the requester their reservation was cancelled.
func (m *Mailer) BookingCancelled(ctx context.Context, b *booking.BookingRequest) error {
	if b.ParentEmail == "" {
		return nil
	}
	msg, err := m.message(b.ParentEmail,
		"Votre réservation a été annulée",
		fmt.Sprintf("Bonjour %s,\n\nVotre réservation du %s de %s à %s a été annulée (%s).\nContactez-nous pour toute question.\n",
			b.ParentName, b.RequestedDate, b.StartTime, b.EndTime, status.Name(b.Status)))
	if err != nil {
		return err
	}
	return m.client.DialAndSendWithContext(ctx, msg)
}

// DetailsRequested sends the requester a secure link to complete their
// booking with supplementary details. Requires the booking to carry an email.
func (m *Mailer) DetailsRequested(ctx context.Context, b *booking.BookingRequest, link string) error {
	if b.ParentEmail == "" {
		return fmt.Errorf("booking %s has no requester email", b.ID)
	}
	msg, err := m.message(b.ParentEmail,
		"Complément d'information pour votre demande de garde",
		fmt.Sprintf("Bonjour %s,\n\nPour finaliser votre demande de garde du %s, merci de nous transmettre quelques informations complémentaires via ce lien sécurisé :\n\n%s\n\nLe lien expire sous 7 jours.\n",
			b.ParentName, b.RequestedDate, link))
	if err != nil {
		return err
	}
	return m.client.DialAndSendWithContext(ctx, msg)
}

func (m *Mailer) message(to, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return nil, err
	}
	if err := msg.To(to); err != nil {
		return nil, err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}
