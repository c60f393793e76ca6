package service

import (
	"fmt"
	"os"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"parkhaus/internal/db"
)

// Notifier is the engine's one-way notification sink. Delivery is
// best-effort; the engine never waits on it.
type Notifier interface {
	ReservationCancelled(user *db.User, res *db.Reservation, refundAmount float64)
	SpotFreed(user *db.User, entry *db.WaitlistEntry)
}

// NotifyService sends email via SendGrid and SMS via Twilio, both
// fire-and-forget.
type NotifyService struct {
	logger *zap.Logger
}

func NewNotifyService(logger *zap.Logger) *NotifyService {
	return &NotifyService{logger: logger}
}

func (n *NotifyService) ReservationCancelled(user *db.User, res *db.Reservation, refundAmount float64) {
	subject := fmt.Sprintf("Your reservation %s has been cancelled", res.Code)
	body := fmt.Sprintf(
		"Hello %s,\n\nYour parking reservation %s has been cancelled.\n\n"+
			"Check-in: %s\nCheck-out: %s\nRefund: %.2f\n\n"+
			"Thank you for choosing Parkhaus.",
		user.Name, res.Code,
		res.StartTime.Format(time.RFC1123),
		res.EndTime.Format(time.RFC1123),
		refundAmount,
	)
	sms := fmt.Sprintf("Parkhaus: reservation %s cancelled. Refund: %.2f. Details in your email.", res.Code, refundAmount)
	n.dispatch(user, subject, body, sms)
}

func (n *NotifyService) SpotFreed(user *db.User, entry *db.WaitlistEntry) {
	subject := fmt.Sprintf("A %s spot opened up for your requested window", entry.SpotType)
	body := fmt.Sprintf(
		"Hello %s,\n\nA %s spot has become available for %s - %s.\n"+
			"Your waitlist offer is not a booking; confirm it in the app to reserve.\n\n"+
			"Thank you for choosing Parkhaus.",
		user.Name, entry.SpotType,
		entry.WindowStart.Format(time.RFC1123),
		entry.WindowEnd.Format(time.RFC1123),
	)
	sms := fmt.Sprintf("Parkhaus: a %s spot opened for your window starting %s. Confirm in the app to book it.",
		entry.SpotType, entry.WindowStart.Format("02/01 15:04"))
	n.dispatch(user, subject, body, sms)
}

func (n *NotifyService) dispatch(user *db.User, subject, body, sms string) {
	go func() {
		if err := sendEmailWithSendGrid(user.Email, user.Name, subject, body); err != nil {
			n.logger.Warn("email delivery failed", zap.String("to", user.Email), zap.Error(err))
		}
	}()
	if user.Phone != "" {
		go func() {
			if err := sendSMS(user.Phone, sms); err != nil {
				n.logger.Warn("sms delivery failed", zap.String("to", user.Phone), zap.Error(err))
			}
		}()
	}
}

func sendEmailWithSendGrid(toEmail, toName, subject, plainTextContent string) error {
	apiKey := os.Getenv("SENDGRID_API_KEY")
	fromEmail := os.Getenv("SENDGRID_FROM_EMAIL")
	if apiKey == "" || fromEmail == "" {
		return fmt.Errorf("sendgrid is not configured")
	}
	fromName := os.Getenv("SENDGRID_FROM_NAME")
	if fromName == "" {
		fromName = "Parkhaus"
	}

	from := mail.NewEmail(fromName, fromEmail)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainTextContent, "")

	client := sendgrid.NewSendClient(apiKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}

func sendSMS(toNumber, messageBody string) error {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	fromNumber := os.Getenv("TWILIO_FROM_NUMBER")
	if accountSid == "" || authToken == "" || fromNumber == "" {
		return fmt.Errorf("twilio is not configured")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username:   accountSid,
		Password:   authToken,
		AccountSid: accountSid,
	})

	params := &openapi.CreateMessageParams{}
	params.SetTo(toNumber)
	params.SetFrom(fromNumber)
	params.SetBody(messageBody)

	if _, err := client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio send: %w", err)
	}
	return nil
}
