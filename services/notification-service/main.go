package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"civic-complaint-system/pkg/middleware"
	"civic-complaint-system/pkg/queue"
	"civic-complaint-system/services/complaint-service/models"
	"civic-complaint-system/services/notification-service/hub"

	amqp "github.com/rabbitmq/amqp091-go"
)

var notifications = hub.New()

func main() {
	amqpURI := os.Getenv("RABBITMQ_URL")
	if amqpURI == "" {
		amqpURI = fmt.Sprintf("amqp://%s:%s@%s:%s/",
			envOr("RABBITMQ_USER", "guest"),
			envOr("RABBITMQ_PASS", "guest"),
			envOr("RABBITMQ_HOST", "localhost"),
			envOr("RABBITMQ_PORT", "5672"),
		)
	}

	conn, ch, err := queue.ConnectRabbitMQ(amqpURI)
	if err != nil {
		log.Fatalf("[ERROR] Failed to connect to RabbitMQ: %v", err)
	}
	defer conn.Close()
	defer ch.Close()
	log.Println("[OK] Connected to RabbitMQ")

	q, err := queue.DeclareAndBind(ch, "notifications",
		queue.KeyComplaintCreated, queue.KeyComplaintUpdated)
	if err != nil {
		log.Fatalf("[ERROR] Failed to set up notifications queue: %v", err)
	}
	log.Println("[INFO] Listening to notifications queue")

	middleware.RegisterMetrics()

	go consumeEvents(ch, q.Name)

	apiMux := http.NewServeMux()
	apiMux.HandleFunc("/health", healthHandler)
	apiMux.Handle("/metrics", middleware.GetMetricsHandler())

	apiHandler := middleware.TraceMiddleware(
		middleware.MetricsMiddleware(
			middleware.LoggerMiddleware(apiMux),
		),
	)

	rootMux := http.NewServeMux()
	rootMux.Handle("/notifications/subscribe", middleware.TraceMiddleware(http.HandlerFunc(subscribeHandler)))
	rootMux.Handle("/", apiHandler)

	port := ":" + envOr("NOTIFICATION_PORT", "8084")
	log.Printf("[INFO] Notification Service running on port %s", port)
	if err := http.ListenAndServe(port, rootMux); err != nil {
		log.Fatalf("[ERROR] Server failed: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func consumeEvents(ch *amqp.Channel, queueName string) {
	msgs, err := queue.ConsumeMessages(ch, queueName)
	if err != nil {
		log.Fatalf("[ERROR] Failed to register consumer: %v", err)
	}

	for d := range msgs {
		var event models.ComplaintEvent
		if err := json.Unmarshal(d.Body, &event); err != nil {
			log.Printf("[WARN] Failed to parse event: %v", err)
			continue
		}

		log.Printf("[OK] Event received - Complaint: %s, Type: %s", event.ComplaintID, event.Type)
		notifications.Broadcast(event)
	}
}

// subscribeHandler streams lifecycle events to the caller over SSE. The
// token rides the query string because EventSource cannot set headers.
func subscribeHandler(w http.ResponseWriter, r *http.Request) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		authHeader := r.Header.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}
	if tokenString == "" {
		http.Error(w, "Unauthorized: Missing token", http.StatusUnauthorized)
		return
	}

	claims, err := middleware.ParseToken(tokenString)
	if err != nil {
		log.Printf("[WARN] Invalid token attempt: %v", err)
		http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	client := &hub.Client{
		UserID: claims.UserID,
		Role:   claims.Role,
		Send:   make(chan models.ComplaintEvent, 10),
	}

	notifications.Register(client)
	defer notifications.Unregister(client)

	fmt.Fprintf(w, "data: %s\n\n", `{"type":"connected","message":"Connection established"}`)
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case event, open := <-client.Send:
			if !open {
				return
			}
			data, _ := json.Marshal(event)
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":            "UP",
		"service":           "notification-service",
		"connected_clients": notifications.ClientCount(),
	})
}
