package notification

import (
	"context"
	"fmt"

	"carelink/models"

	"firebase.google.com/go/v4/messaging"
)

// NotificationService delivers fired reminders as FCM pushes.
type NotificationService interface {
	SendMedicationReminder(ctx context.Context, payload models.ReminderPayload) error
}

// DefaultNotificationService is the production implementation. It pushes
// to the household's registered device token.
type DefaultNotificationService struct {
	FCM         *messaging.Client
	DeviceToken string
}

func NewDefaultNotificationService(fcm *messaging.Client, deviceToken string) (*DefaultNotificationService, error) {
	if fcm == nil {
		return nil, fmt.Errorf("notification service initialization error: messaging client is nil")
	}
	return &DefaultNotificationService{FCM: fcm, DeviceToken: deviceToken}, nil
}

func (s *DefaultNotificationService) SendMedicationReminder(ctx context.Context, payload models.ReminderPayload) error {
	if s.DeviceToken == "" {
		return fmt.Errorf("SendMedicationReminder: no device token registered")
	}

	// The data payload deep-links the notification tap back to the right
	// medication record.
	msg := &messaging.Message{
		Token: s.DeviceToken,
		Notification: &messaging.Notification{
			Title: payload.Title,
			Body:  payload.Body,
		},
		Data: map[string]string{
			"type":         "medication_reminder",
			"reminderId":   payload.ReminderID,
			"medicationId": payload.MedicationID,
			"intakeId":     payload.IntakeID,
			"fireDate":     payload.FireDate,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "medication_reminders",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}

	if _, err := s.FCM.Send(ctx, msg); err != nil {
		return fmt.Errorf("SendMedicationReminder: failed to send FCM message: %w", err)
	}
	return nil
}
