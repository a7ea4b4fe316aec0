package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"route-board-service/internal/domain"
	"route-board-service/internal/platform/obs"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Client is the subset of the paho client the publisher needs.
type Client interface {
	IsConnected() bool
	Disconnect(uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTAssignmentPublisher fans saved assignment commands out to an MQTT
// broker. Each command goes to "<topic>/<route id>" at QoS 1.
type MQTTAssignmentPublisher struct {
	client Client
	topic  string
	qos    byte
}

func NewMQTTAssignmentPublisher(broker, clientID, topic string, optsFunc func(*mqtt.ClientOptions)) (*MQTTAssignmentPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetConnectTimeout(5 * time.Second).
		SetAutoReconnect(true)

	if optsFunc != nil {
		optsFunc(opts)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, token.Error())
	}
	return newPublisher(client, topic), nil
}

func newPublisher(client Client, topic string) *MQTTAssignmentPublisher {
	return &MQTTAssignmentPublisher{
		client: client,
		topic:  strings.TrimRight(topic, "/"),
		qos:    1,
	}
}

type commandMessage struct {
	ID                 string                `json:"id"`
	RouteID            string                `json:"route_id"`
	VendorID           string                `json:"vendor_id"`
	SelectedBookingIDs []string              `json:"selected_booking_ids"`
	PerBookingTime     map[string]pickupTime `json:"per_booking_time"`
	IssuedAt           time.Time             `json:"issued_at"`
}

type pickupTime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

func (p *MQTTAssignmentPublisher) Submit(ctx context.Context, cmd domain.AssignmentCommand) (err error) {
	defer obs.Time(ctx, "mqtt.Publish")(&err)

	msg := commandMessage{
		ID:                 cmd.ID,
		RouteID:            cmd.RouteID,
		VendorID:           cmd.VendorID,
		SelectedBookingIDs: cmd.SelectedBookingIDs,
		PerBookingTime:     make(map[string]pickupTime, len(cmd.PerBookingTime)),
		IssuedAt:           cmd.IssuedAt,
	}
	for id, t := range cmd.PerBookingTime {
		msg.PerBookingTime[id] = pickupTime{Hour: t.Hour, Minute: t.Minute}
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("mqtt publish: encode command %s: %w", cmd.ID, err)
	}

	token := p.client.Publish(p.Topic(cmd.RouteID), p.qos, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("mqtt publish command %s: %w", cmd.ID, ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish command %s: %w", cmd.ID, err)
	}
	return nil
}

// Topic returns the topic a route's commands are published on.
func (p *MQTTAssignmentPublisher) Topic(routeID string) string {
	return p.topic + "/" + routeID
}

func (p *MQTTAssignmentPublisher) Close() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
