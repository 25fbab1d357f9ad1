package gateway

import (
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/why-shiro/J4Fluxer/pkg/entity"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Gateway opcodes.
const (
	OpDispatch       = 0
	OpHeartbeat      = 1
	OpIdentify       = 2
	OpPresenceUpdate = 3
	OpResume         = 6
	OpReconnect      = 7
	OpInvalidSession = 9
	OpHello          = 10
	OpHeartbeatAck   = 11
)

// clientName is reported as browser and device in Identify.
const clientName = "J4Fluxer"

// Frame is an inbound gateway frame.
type Frame struct {
	Op int                 `json:"op"`
	T  string              `json:"t,omitempty"`
	S  *int64              `json:"s,omitempty"`
	D  jsoniter.RawMessage `json:"d"`
}

// DecodeFrame parses one inbound frame.
func DecodeFrame(data []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

type outbound struct {
	Op int `json:"op"`
	D  any `json:"d"`
}

type identifyData struct {
	Token      string             `json:"token"`
	Intents    int                `json:"intents"`
	Properties identifyProperties `json:"properties"`
	Presence   identifyPresence   `json:"presence"`
}

type identifyProperties struct {
	OS      string `json:"os"`
	Browser string `json:"browser"`
	Device  string `json:"device"`
}

type identifyPresence struct {
	Status entity.OnlineStatus `json:"status"`
	AFK    bool                `json:"afk"`
}

type presenceData struct {
	Since      *int64              `json:"since"`
	Activities []any               `json:"activities"`
	Status     entity.OnlineStatus `json:"status"`
	AFK        bool                `json:"afk"`
}

type resumeData struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
	Seq       int64  `json:"seq"`
}

type helloData struct {
	HeartbeatInterval int64 `json:"heartbeat_interval"`
}

// GatewayToken returns token with the "Bot " prefix Identify requires.
func GatewayToken(token string) string {
	if strings.HasPrefix(token, "Bot ") {
		return token
	}
	return "Bot " + token
}

func encodeIdentify(token string, intents int, os string, status entity.OnlineStatus) ([]byte, error) {
	return json.Marshal(outbound{
		Op: OpIdentify,
		D: identifyData{
			Token:   GatewayToken(token),
			Intents: intents,
			Properties: identifyProperties{
				OS:      os,
				Browser: clientName,
				Device:  clientName,
			},
			Presence: identifyPresence{Status: status},
		},
	})
}

func encodeHeartbeat() ([]byte, error) {
	return json.Marshal(outbound{Op: OpHeartbeat})
}

func encodePresence(status entity.OnlineStatus) ([]byte, error) {
	return json.Marshal(outbound{
		Op: OpPresenceUpdate,
		D: presenceData{
			Activities: []any{},
			Status:     status,
		},
	})
}

func encodeResume(token, sessionID string, seq int64) ([]byte, error) {
	return json.Marshal(outbound{
		Op: OpResume,
		D: resumeData{
			Token:     GatewayToken(token),
			SessionID: sessionID,
			Seq:       seq,
		},
	})
}
