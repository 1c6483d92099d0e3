package hub

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shlomilevushh/mini-discord/internal/domain"
)

var ErrMalformedEnvelope = errors.New("malformed envelope")

// Inbound is the closed set of envelope kinds a client may send. Decoding
// goes through the single `type` discriminator; the router's type switch is
// exhaustive over these.
type Inbound interface{ inbound() }

// 1:1 call signaling. Payloads are opaque; the hub relays them without
// looking inside.
type (
	CallOffer struct {
		Target  domain.UserID
		Payload json.RawMessage
	}
	CallAnswer struct {
		Target  domain.UserID
		Payload json.RawMessage
	}
	CallCandidate struct {
		Target  domain.UserID
		Payload json.RawMessage
	}
	CallEnd struct {
		Target domain.UserID
	}
)

// Voice-channel presence and channel-scoped signaling.
type (
	JoinVoiceChannel struct {
		Channel domain.ChannelID
	}
	LeaveVoiceChannel struct {
		Channel domain.ChannelID
	}
	ChannelVoiceOffer struct {
		Target  domain.UserID
		Channel domain.ChannelID
		Payload json.RawMessage
	}
	ChannelVoiceAnswer struct {
		Target  domain.UserID
		Channel domain.ChannelID
		Payload json.RawMessage
	}
	ChannelVoiceCandidate struct {
		Target  domain.UserID
		Channel domain.ChannelID
		Payload json.RawMessage
	}
)

// Persisted kinds and status.
type (
	PrivateMessage struct {
		Receiver domain.UserID
		Body     string
	}
	ChannelMessage struct {
		Channel domain.ChannelID
		Body    string
	}
	StatusUpdate struct {
		Status domain.Status
	}
)

// UnknownEnvelope carries an unrecognized tag; the router echoes the raw
// bytes back to the sender as a diagnostic.
type UnknownEnvelope struct {
	Tag string
	Raw []byte
}

func (CallOffer) inbound()             {}
func (CallAnswer) inbound()            {}
func (CallCandidate) inbound()         {}
func (CallEnd) inbound()               {}
func (JoinVoiceChannel) inbound()      {}
func (LeaveVoiceChannel) inbound()     {}
func (ChannelVoiceOffer) inbound()     {}
func (ChannelVoiceAnswer) inbound()    {}
func (ChannelVoiceCandidate) inbound() {}
func (PrivateMessage) inbound()        {}
func (ChannelMessage) inbound()        {}
func (StatusUpdate) inbound()          {}
func (UnknownEnvelope) inbound()       {}

type wireEnvelope struct {
	Type         string           `json:"type"`
	TargetUserID domain.UserID    `json:"target_user_id"`
	ReceiverID   domain.UserID    `json:"receiver_id"`
	ChannelID    domain.ChannelID `json:"channel_id"`
	Message      string           `json:"message"`
	Status       domain.Status    `json:"status"`
	Offer        json.RawMessage  `json:"offer"`
	Answer       json.RawMessage  `json:"answer"`
	Candidate    json.RawMessage  `json:"candidate"`
}

func missingField(tag, field string) error {
	return fmt.Errorf("%w: %s requires %s", ErrMalformedEnvelope, tag, field)
}

// DecodeEnvelope parses one inbound frame into its envelope kind, validating
// the fields each kind requires. An unrecognized tag is not an error.
func DecodeEnvelope(data []byte) (Inbound, error) {
	var w wireEnvelope
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}

	switch w.Type {
	case "voice-call-offer":
		if w.TargetUserID == 0 {
			return nil, missingField(w.Type, "target_user_id")
		}
		return CallOffer{Target: w.TargetUserID, Payload: w.Offer}, nil
	case "voice-call-answer":
		if w.TargetUserID == 0 {
			return nil, missingField(w.Type, "target_user_id")
		}
		return CallAnswer{Target: w.TargetUserID, Payload: w.Answer}, nil
	case "ice-candidate":
		if w.TargetUserID == 0 {
			return nil, missingField(w.Type, "target_user_id")
		}
		return CallCandidate{Target: w.TargetUserID, Payload: w.Candidate}, nil
	case "call-end":
		if w.TargetUserID == 0 {
			return nil, missingField(w.Type, "target_user_id")
		}
		return CallEnd{Target: w.TargetUserID}, nil
	case "join-voice-channel":
		if w.ChannelID == 0 {
			return nil, missingField(w.Type, "channel_id")
		}
		return JoinVoiceChannel{Channel: w.ChannelID}, nil
	case "leave-voice-channel":
		if w.ChannelID == 0 {
			return nil, missingField(w.Type, "channel_id")
		}
		return LeaveVoiceChannel{Channel: w.ChannelID}, nil
	case "channel-voice-offer":
		if w.TargetUserID == 0 {
			return nil, missingField(w.Type, "target_user_id")
		}
		if w.ChannelID == 0 {
			return nil, missingField(w.Type, "channel_id")
		}
		return ChannelVoiceOffer{Target: w.TargetUserID, Channel: w.ChannelID, Payload: w.Offer}, nil
	case "channel-voice-answer":
		if w.TargetUserID == 0 {
			return nil, missingField(w.Type, "target_user_id")
		}
		if w.ChannelID == 0 {
			return nil, missingField(w.Type, "channel_id")
		}
		return ChannelVoiceAnswer{Target: w.TargetUserID, Channel: w.ChannelID, Payload: w.Answer}, nil
	case "channel-ice-candidate":
		if w.TargetUserID == 0 {
			return nil, missingField(w.Type, "target_user_id")
		}
		if w.ChannelID == 0 {
			return nil, missingField(w.Type, "channel_id")
		}
		return ChannelVoiceCandidate{Target: w.TargetUserID, Channel: w.ChannelID, Payload: w.Candidate}, nil
	case "private-message":
		if w.ReceiverID == 0 {
			return nil, missingField(w.Type, "receiver_id")
		}
		if w.Message == "" {
			return nil, missingField(w.Type, "message")
		}
		return PrivateMessage{Receiver: w.ReceiverID, Body: w.Message}, nil
	case "channel-message":
		if w.ChannelID == 0 {
			return nil, missingField(w.Type, "channel_id")
		}
		if w.Message == "" {
			return nil, missingField(w.Type, "message")
		}
		return ChannelMessage{Channel: w.ChannelID, Body: w.Message}, nil
	case "status-update":
		if !w.Status.Valid() {
			return nil, missingField(w.Type, "status")
		}
		return StatusUpdate{Status: w.Status}, nil
	default:
		return UnknownEnvelope{Tag: w.Type, Raw: data}, nil
	}
}
