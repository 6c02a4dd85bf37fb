// internal/services/notification_service_test.go
package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmtrace/agritrace-backend/internal/config"
)

func TestSendToTopicsFansOut(t *testing.T) {
	var mu sync.Mutex
	var received []fcmMessage

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "key=test-key", r.Header.Get("Authorization"))

		var msg fcmMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))

		mu.Lock()
		received = append(received, msg)
		mu.Unlock()

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewNotificationService(config.FirebaseConfig{
		ServerKey: "test-key",
		Endpoint:  server.URL,
	})

	svc.SendToTopics([]string{"user_a", "user_b", "user_c"}, NotificationPayload{
		Event:   "denied_transfer_request",
		Title:   "Transfer request denied",
		Message: "Your transfer request was denied",
	})

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 3)
	assert.Equal(t, "/topics/user_a", received[0].To)
	assert.Equal(t, "denied_transfer_request", received[0].Data.Event)
	assert.Equal(t, "Transfer request denied", received[0].Notification.Title)
	assert.Equal(t, "Your transfer request was denied", received[0].Notification.Body)
}

func TestSendToTopicsSwallowsDeliveryErrors(t *testing.T) {
	var mu sync.Mutex
	calls := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := NewNotificationService(config.FirebaseConfig{
		ServerKey: "test-key",
		Endpoint:  server.URL,
	})

	// A broken endpoint must not panic and must still try every topic.
	svc.SendToTopics([]string{"user_a", "user_b"}, NotificationPayload{Event: "add_transfer_request"})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, calls)
}

func TestSendToTopicsSkipsWithoutServerKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not be called")
	}))
	defer server.Close()

	svc := NewNotificationService(config.FirebaseConfig{Endpoint: server.URL})
	svc.SendToTopics([]string{"user_a"}, NotificationPayload{Event: "add_transfer_request"})
}
