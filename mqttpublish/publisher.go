// Package mqttpublish optionally fire-and-forgets each recognized
// object to an MQTT topic after a Recognize call, grounded on the
// teacher's mesh.Publisher/mesh.MQTTClient (mesh/publisher.go,
// mesh/mqtt.go).
package mqttpublish

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/kwv/objrecransac/recognizer"
)

// detection is the wire payload for one recognized object, the
// recognition-domain analogue of the teacher's VacuumPosition.
type detection struct {
	ObjectName      string     `json:"objectName"`
	Rotation        [9]float64 `json:"rotation"`
	Translation     [3]float64 `json:"translation"`
	MatchConfidence float64    `json:"matchConfidence"`
	Timestamp       int64      `json:"timestamp"`
}

// publisherClient is the subset of mqtt.Client that Publisher needs,
// narrow enough to fake in tests without implementing the full
// paho.mqtt.golang Client interface.
type publisherClient interface {
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Publisher publishes recognizer.Output values to MQTT, one message
// per detected object plus a combined batch message, mirroring the
// teacher's individual-topic-plus-combined-topic publish shape.
type Publisher struct {
	client publisherClient
	prefix string
	qos    byte
	retain bool
}

// NewPublisher returns a Publisher. If client is nil, Publish is a
// no-op returning nil — the same "disabled for testing" convention the
// teacher's NewPublisher uses.
func NewPublisher(client publisherClient, topicPrefix string) *Publisher {
	if topicPrefix == "" {
		topicPrefix = "objrecransac"
	}
	return &Publisher{client: client, prefix: topicPrefix, qos: 0, retain: false}
}

// Publish sends one message per detected object to
// "{prefix}/detections/{objectName}" and one combined message to
// "{prefix}/detections" listing every object from this call.
func (p *Publisher) Publish(outputs []recognizer.Output) error {
	if p.client == nil || !p.client.IsConnected() {
		return nil
	}

	now := time.Now().Unix()
	detections := make([]detection, len(outputs))
	for i, o := range outputs {
		detections[i] = detection{
			ObjectName:      o.ObjectName,
			Rotation:        o.RigidTransform.R,
			Translation:     o.RigidTransform.T,
			MatchConfidence: o.MatchConfidence,
			Timestamp:       now,
		}
		if err := p.publishOne(detections[i]); err != nil {
			log.Printf("mqttpublish: publishing %s: %v", o.ObjectName, err)
			return err
		}
	}

	return p.publishCombined(detections)
}

func (p *Publisher) publishOne(d detection) error {
	topic := fmt.Sprintf("%s/detections/%s", p.prefix, d.ObjectName)
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshaling detection: %w", err)
	}
	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}
	return nil
}

func (p *Publisher) publishCombined(detections []detection) error {
	topic := fmt.Sprintf("%s/detections", p.prefix)
	payload, err := json.Marshal(detections)
	if err != nil {
		return fmt.Errorf("marshaling combined detections: %w", err)
	}
	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}
	return nil
}
