package hub

import (
	"encoding/json"
	"time"
)

// Category is an event class observers can subscribe to.
type Category string

const (
	CategorySensorData   Category = "sensor_data"
	CategoryDefectAlert  Category = "defect_alert"
	CategorySystemStatus Category = "system_status"
)

// Envelope message types.
const (
	TypeConnectionEstablished = "connection_established"
	TypeSensorData            = "sensor_data"
	TypeBatchMeasurements     = "batch_measurements"
	TypeDefectAlert           = "defect_alert"
	TypeSystemStatus          = "system_status"
	TypePing                  = "ping"
	TypePong                  = "pong"
	TypeSubscriptionConfirmed = "subscription_confirmed"
	TypeUnsubscribeConfirmed  = "unsubscription_confirmed"
	TypeError                 = "error"
	TypeEcho                  = "echo"
)

const priorityHigh = "high"

// Envelope is the JSON frame sent to observers.
type Envelope struct {
	Type            string          `json:"type"`
	Data            any             `json:"data,omitempty"`
	Timestamp       string          `json:"timestamp"`
	Priority        string          `json:"priority,omitempty"`
	Message         string          `json:"message,omitempty"`
	Subscriptions   []string        `json:"subscriptions,omitempty"`
	OriginalMessage json.RawMessage `json:"original_message,omitempty"`
}

// controlMessage is the inbound client frame.
type controlMessage struct {
	Type          string   `json:"type"`
	Subscriptions []string `json:"subscriptions"`
}

func newEnvelope(msgType string, data any) Envelope {
	return Envelope{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
