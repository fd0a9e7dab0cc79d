package services

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"gorm.io/gorm"

	"tailorbook-backend/models"
)

// NotificationService is the external messaging dispatcher. It consumes the
// structured events the ledger core emits and turns them into SMS/WhatsApp
// messages; the core never builds message text itself.
type NotificationService struct {
	db     *gorm.DB
	client *twilio.RestClient
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")

	return &NotificationService{
		db: db,
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSid,
			Password: authToken,
		}),
	}
}

// Register subscribes the dispatcher to the ledger's order events.
func (s *NotificationService) Register(events *Dispatcher) {
	events.Listen(EventOrderReady, func(payload any) {
		if ev, ok := payload.(OrderReadyEvent); ok {
			s.sendOrderMessage(ev, "ready")
		}
	})
	events.Listen(EventOrderDue, func(payload any) {
		if ev, ok := payload.(OrderReadyEvent); ok {
			s.sendOrderMessage(ev, "due")
		}
	})
}

func (s *NotificationService) sendOrderMessage(ev OrderReadyEvent, kind string) {
	var message string
	switch kind {
	case "ready":
		message = fmt.Sprintf("Hello %s, your order \"%s\" is ready for pickup at %s.",
			ev.CustomerName, ev.OrderDescription, ev.ShopName)
	default:
		message = fmt.Sprintf("Hello %s, a reminder from %s about your order \"%s\".",
			ev.CustomerName, ev.ShopName, ev.OrderDescription)
	}

	// WhatsApp when the phone is in E.164 format, SMS otherwise.
	channel := "sms"
	to := ev.CustomerPhone
	if strings.HasPrefix(ev.CustomerPhone, "+") {
		to = "whatsapp:" + ev.CustomerPhone
		channel = "whatsapp"
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetBody(message)
	if channel == "whatsapp" {
		params.SetFrom("whatsapp:" + os.Getenv("TWILIO_WHATSAPP_NUMBER"))
	} else {
		params.SetFrom(os.Getenv("TWILIO_PHONE_NUMBER"))
	}

	resp, err := s.client.Api.CreateMessage(params)
	status := "sent"
	errorMsg := ""

	if err != nil {
		log.Printf("Failed to send %s message to %s: %v", kind, ev.CustomerPhone, err)
		status = "failed"
		errorMsg = err.Error()
	} else if resp.Sid != nil {
		log.Printf("%s message sent to %s, SID: %s", kind, ev.CustomerPhone, *resp.Sid)
	} else {
		log.Printf("%s message sent to %s, but no SID returned", kind, ev.CustomerPhone)
	}

	notificationLog := models.NotificationLog{
		CustomerID:   ev.CustomerID,
		OrderID:      ev.OrderID,
		Type:         kind,
		Message:      message,
		Status:       status,
		ErrorMessage: errorMsg,
		Channel:      channel,
		SentAt:       time.Now(),
	}
	if err := s.db.Create(&notificationLog).Error; err != nil {
		log.Printf("Failed to log notification for customer %s: %v", ev.CustomerID, err)
	}
}
