package nats

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/smazurov/lightnode/internal/command"
	"github.com/smazurov/lightnode/internal/display"
)

// SubjectPrefix is the root of every lightnode subject.
const SubjectPrefix = "lightnode"

// Outbound subject leaves.
const (
	LeafState     = "state"
	LeafDiscovery = "discovery"
	LeafRejected  = "rejected"
)

// Subject returns lightnode.<node>.<leaf>.
func Subject(node, leaf string) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, node, leaf)
}

// SubjectTopic returns the inbound subject for a command topic.
func SubjectTopic(node string, topic command.Topic) string {
	return Subject(node, string(topic))
}

// SubjectState returns the subject carrying state snapshots.
func SubjectState(node string) string {
	return Subject(node, LeafState)
}

// SubjectDiscovery returns the subject carrying the discovery document.
func SubjectDiscovery(node string) string {
	return Subject(node, LeafDiscovery)
}

// SubjectRejected returns the subject carrying rejected command reports.
func SubjectRejected(node string) string {
	return Subject(node, LeafRejected)
}

// InboundTopics lists the topics a node subscribes to.
var InboundTopics = append(append([]command.Topic{}, command.Topics...), command.TopicJSON)

// StateMessage is the state snapshot published after every change.
type StateMessage struct {
	Node       string `json:"node"`
	Timestamp  string `json:"timestamp,omitempty"`
	State      string `json:"state"` // ON or OFF
	Brightness int    `json:"brightness"`
	Level      int    `json:"level"`
	Effect     string `json:"effect"`
	Color      string `json:"color"`
}

// NewStateMessage converts a controller snapshot. The timestamp is left
// empty so equal states hash equally.
func NewStateMessage(node string, s display.State) StateMessage {
	state := "OFF"
	if s.On {
		state = "ON"
	}
	return StateMessage{
		Node:       node,
		State:      state,
		Brightness: s.Brightness,
		Level:      s.Level,
		Effect:     s.Effect,
		Color:      s.Color.Hex(),
	}
}

// On reports whether the snapshot describes a lit strip.
func (m StateMessage) On() bool {
	return m.State == "ON"
}

// Marshal serializes the message to JSON.
func (m StateMessage) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// Capabilities describes what a node accepts.
type Capabilities struct {
	Brightness bool `json:"brightness"`
	Color      bool `json:"color"`
	Effects    bool `json:"effects"`
	Dimmer     bool `json:"dimmer"`
}

// DiscoveryMessage announces a node. An empty payload on the discovery
// subject means the node went away.
type DiscoveryMessage struct {
	Node         string            `json:"node"`
	Timestamp    string            `json:"timestamp"`
	Version      string            `json:"version,omitempty"`
	Channels     int               `json:"channels"`
	LEDs         int               `json:"leds"`
	Effects      []string          `json:"effects"`
	Capabilities Capabilities      `json:"capabilities"`
	Subjects     map[string]string `json:"subjects"`
}

// NewDiscoveryMessage fills in the subject map for node.
func NewDiscoveryMessage(node, version string, channels, leds int, effects []string) DiscoveryMessage {
	subjects := map[string]string{
		LeafState:    SubjectState(node),
		LeafRejected: SubjectRejected(node),
	}
	for _, t := range InboundTopics {
		subjects[string(t)] = SubjectTopic(node, t)
	}
	return DiscoveryMessage{
		Node:     node,
		Version:  version,
		Channels: channels,
		LEDs:     leds,
		Effects:  effects,
		Capabilities: Capabilities{
			Brightness: true,
			Color:      true,
			Effects:    len(effects) > 1,
			Dimmer:     true,
		},
		Subjects: subjects,
	}
}

// Marshal serializes the message to JSON.
func (m DiscoveryMessage) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// RejectedMessage reports a command that was not accepted.
type RejectedMessage struct {
	Node      string `json:"node"`
	Timestamp string `json:"timestamp"`
	Subject   string `json:"subject"`
	Payload   string `json:"payload"`
	Error     string `json:"error"`
}

// Marshal serializes the message to JSON.
func (m RejectedMessage) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// Reply answers a request on an inbound subject.
type Reply struct {
	OK       bool     `json:"ok"`
	Error    string   `json:"error,omitempty"`
	Commands []string `json:"commands,omitempty"`
}

// Marshal serializes the message to JSON.
func (m Reply) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// UnmarshalState deserializes a state message.
func UnmarshalState(data []byte) (StateMessage, error) {
	var m StateMessage
	err := json.Unmarshal(data, &m)
	return m, err
}

// UnmarshalDiscovery deserializes a discovery message. ok is false for the
// empty payload sent when a node shuts down.
func UnmarshalDiscovery(data []byte) (m DiscoveryMessage, ok bool, err error) {
	if len(data) == 0 {
		return m, false, nil
	}
	err = json.Unmarshal(data, &m)
	return m, err == nil, err
}

// UnmarshalRejected deserializes a rejection report.
func UnmarshalRejected(data []byte) (RejectedMessage, error) {
	var m RejectedMessage
	err := json.Unmarshal(data, &m)
	return m, err
}

// UnmarshalReply deserializes a request reply.
func UnmarshalReply(data []byte) (Reply, error) {
	var m Reply
	err := json.Unmarshal(data, &m)
	return m, err
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
