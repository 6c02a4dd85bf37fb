// internal/services/notification_service.go
package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/farmtrace/agritrace-backend/internal/config"
)

// NotificationService pushes data messages to device topics through the
// FCM legacy HTTP endpoint. Every user subscribes to the topic
// "user_<id>" on their devices.
type NotificationService struct {
	serverKey string
	endpoint  string
	client    *http.Client
}

// NotificationPayload is the data body of a push message. All values are
// strings because FCM data payloads are string maps. Title and Message
// also feed the display notification block.
type NotificationPayload struct {
	Event       string `json:"event"`
	Title       string `json:"title,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
	ProductID   string `json:"product_id,omitempty"`
	ProductName string `json:"product_name,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	Message     string `json:"message,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmMessage struct {
	To           string              `json:"to"`
	Notification fcmNotification     `json:"notification"`
	Data         NotificationPayload `json:"data"`
}

func NewNotificationService(cfg config.FirebaseConfig) *NotificationService {
	return &NotificationService{
		serverKey: cfg.ServerKey,
		endpoint:  cfg.Endpoint,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// UserTopic is the per-user FCM topic name.
func UserTopic(userID uuid.UUID) string {
	return fmt.Sprintf("user_%s", userID)
}

// SendToTopics delivers the payload to each topic. Delivery failures are
// logged and swallowed so a broken push never fails the request that
// triggered it.
func (s *NotificationService) SendToTopics(topics []string, payload NotificationPayload) {
	if s.serverKey == "" {
		logrus.Debug("FCM server key not configured, skipping notification")
		return
	}

	for _, topic := range topics {
		if err := s.sendToTopic(topic, payload); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"topic": topic,
				"event": payload.Event,
			}).Error("Failed to send notification")
		}
	}
}

func (s *NotificationService) sendToTopic(topic string, payload NotificationPayload) error {
	message := fcmMessage{
		To: "/topics/" + topic,
		Notification: fcmNotification{
			Title: payload.Title,
			Body:  payload.Message,
		},
		Data: payload,
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal FCM message: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build FCM request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+s.serverKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call FCM: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("FCM returned status %d", resp.StatusCode)
	}

	return nil
}
