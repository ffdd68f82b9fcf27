package services

import (
	"context"
	"fmt"
	"log"
	"sync"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"google.golang.org/api/option"

	"tripledger-backend/config"
	"tripledger-backend/models"
)

type NotificationService struct {
	messaging *messaging.Client
}

var (
	notifService *NotificationService
	notifOnce    sync.Once
)

func GetNotificationService() *NotificationService {
	notifOnce.Do(func() {
		notifService = &NotificationService{}

		opt := option.WithCredentialsFile(config.AppConfig.FirebaseCredPath)
		app, err := firebase.NewApp(context.Background(), nil, opt)
		if err != nil {
			log.Printf("⚠️  Firebase not available, push notifications disabled: %v", err)
			return
		}
		client, err := app.Messaging(context.Background())
		if err != nil {
			log.Printf("⚠️  Firebase messaging not available: %v", err)
			return
		}
		notifService.messaging = client
	})
	return notifService
}

// ============================================================
// PUSH NOTIFICATIONS via Firebase Cloud Messaging
// ============================================================

func (ns *NotificationService) sendPush(fcmToken string, title string, body string, data map[string]string) {
	if ns.messaging == nil || fcmToken == "" {
		return
	}

	_, err := ns.messaging.Send(context.Background(), &messaging.Message{
		Token: fcmToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	})
	if err != nil {
		log.Printf("⚠️  FCM send error: %v", err)
		return
	}
	log.Printf("✅ Push notification sent")
}

// ============================================================
// EMAIL NOTIFICATIONS via SendGrid
// ============================================================

func (ns *NotificationService) sendEmail(toEmail string, toName string, subject string, htmlBody string) {
	if config.AppConfig.SendGridAPIKey == "" {
		log.Printf("⚠️  SendGrid API key not set, skipping email to %s", toEmail)
		return
	}

	from := mail.NewEmail(config.AppConfig.AppName, config.AppConfig.SendGridFrom)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, "", htmlBody)

	client := sendgrid.NewSendClient(config.AppConfig.SendGridAPIKey)
	resp, err := client.Send(message)
	if err != nil {
		log.Printf("❌ Email send error: %v", err)
		return
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		log.Printf("✅ Email sent to %s", toEmail)
	} else {
		log.Printf("⚠️  SendGrid returned status: %d", resp.StatusCode)
	}
}

// ============================================================
// NOTIFICATION EVENTS
// ============================================================

// NotifyInvitation tells a user they were invited to a trip.
func (ns *NotificationService) NotifyInvitation(invitee models.User, inviterName string, trip models.Trip) {
	title := fmt.Sprintf("%s invited you to %s", inviterName, trip.Name)
	body := fmt.Sprintf("Accept the invitation to start tracking expenses for %s.", trip.Name)

	ns.sendPush(invitee.FCMToken, title, body, map[string]string{
		"type":    "invitation",
		"trip_id": trip.ID.String(),
	})

	htmlBody := fmt.Sprintf(
		"<p>Hi %s,</p><p><strong>%s</strong> invited you to the trip <strong>%s</strong>.</p><p>Open %s to accept.</p>",
		invitee.Name, inviterName, trip.Name, config.AppConfig.AppName)
	ns.sendEmail(invitee.Email, invitee.Name, title, htmlBody)
}

// NotifyExpenseAdded tells each share holder (except the payer) what they owe.
func (ns *NotificationService) NotifyExpenseAdded(expense models.Expense, shares []models.ExpenseShare, payer models.User, trip models.Trip, users map[string]models.User) {
	for _, share := range shares {
		if share.UserID == expense.PaidBy {
			continue
		}
		user, ok := users[share.UserID.String()]
		if !ok {
			continue
		}

		title := fmt.Sprintf("%s added an expense", payer.Name)
		body := fmt.Sprintf("Your share of \"%s\" in %s is %d %s (minor units)",
			expense.Description, trip.Name, share.AmountBase, trip.BaseCurrency)

		ns.sendPush(user.FCMToken, title, body, map[string]string{
			"type":       "expense_added",
			"expense_id": expense.ID.String(),
			"trip_id":    trip.ID.String(),
		})
	}
}

// NotifySettlement sends every participant their transfers from the plan.
func (ns *NotificationService) NotifySettlement(trip models.Trip, transfers []models.Transfer, users map[string]models.User) {
	for _, t := range transfers {
		from, okFrom := users[t.From.String()]
		to, okTo := users[t.To.String()]
		if !okFrom || !okTo {
			continue
		}

		title := fmt.Sprintf("%s is settled", trip.Name)
		body := fmt.Sprintf("%s pays %s %d %s (minor units)", from.Name, to.Name, t.AmountBase, trip.BaseCurrency)

		ns.sendPush(from.FCMToken, title, body, map[string]string{
			"type":    "settlement",
			"trip_id": trip.ID.String(),
		})
		ns.sendPush(to.FCMToken, title, body, map[string]string{
			"type":    "settlement",
			"trip_id": trip.ID.String(),
		})

		htmlBody := fmt.Sprintf(
			"<p>Hi %s,</p><p>The trip <strong>%s</strong> has been settled.</p><p>You pay <strong>%s</strong>: %d %s (minor units).</p>",
			from.Name, trip.Name, to.Name, t.AmountBase, trip.BaseCurrency)
		ns.sendEmail(from.Email, from.Name, title, htmlBody)
	}
}
