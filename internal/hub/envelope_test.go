package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shlomilevushh/mini-discord/internal/domain"
)

func TestDecodeEnvelope(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Inbound
	}{
		{
			name: "call offer",
			data: `{"type":"voice-call-offer","target_user_id":5,"offer":{"sdp":"v=0"}}`,
			want: CallOffer{Target: 5, Payload: []byte(`{"sdp":"v=0"}`)},
		},
		{
			name: "call answer",
			data: `{"type":"voice-call-answer","target_user_id":5,"answer":{"sdp":"v=0"}}`,
			want: CallAnswer{Target: 5, Payload: []byte(`{"sdp":"v=0"}`)},
		},
		{
			name: "ice candidate",
			data: `{"type":"ice-candidate","target_user_id":5,"candidate":{"candidate":"c"}}`,
			want: CallCandidate{Target: 5, Payload: []byte(`{"candidate":"c"}`)},
		},
		{
			name: "call end",
			data: `{"type":"call-end","target_user_id":5}`,
			want: CallEnd{Target: 5},
		},
		{
			name: "join voice channel",
			data: `{"type":"join-voice-channel","channel_id":42}`,
			want: JoinVoiceChannel{Channel: 42},
		},
		{
			name: "leave voice channel",
			data: `{"type":"leave-voice-channel","channel_id":42}`,
			want: LeaveVoiceChannel{Channel: 42},
		},
		{
			name: "channel voice offer",
			data: `{"type":"channel-voice-offer","target_user_id":5,"channel_id":42,"offer":{}}`,
			want: ChannelVoiceOffer{Target: 5, Channel: 42, Payload: []byte(`{}`)},
		},
		{
			name: "channel voice answer",
			data: `{"type":"channel-voice-answer","target_user_id":5,"channel_id":42,"answer":{}}`,
			want: ChannelVoiceAnswer{Target: 5, Channel: 42, Payload: []byte(`{}`)},
		},
		{
			name: "channel ice candidate",
			data: `{"type":"channel-ice-candidate","target_user_id":5,"channel_id":42,"candidate":{}}`,
			want: ChannelVoiceCandidate{Target: 5, Channel: 42, Payload: []byte(`{}`)},
		},
		{
			name: "private message",
			data: `{"type":"private-message","receiver_id":5,"message":"hi"}`,
			want: PrivateMessage{Receiver: 5, Body: "hi"},
		},
		{
			name: "channel message",
			data: `{"type":"channel-message","channel_id":42,"message":"hi"}`,
			want: ChannelMessage{Channel: 42, Body: "hi"},
		},
		{
			name: "status update",
			data: `{"type":"status-update","status":"invisible"}`,
			want: StatusUpdate{Status: domain.StatusInvisible},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeEnvelope([]byte(tc.data))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecodeEnvelopeUnknownTagIsNotAnError(t *testing.T) {
	raw := []byte(`{"type":"time-travel","when":"yesterday"}`)
	got, err := DecodeEnvelope(raw)
	require.NoError(t, err)

	unknown, ok := got.(UnknownEnvelope)
	require.True(t, ok)
	assert.Equal(t, "time-travel", unknown.Tag)
	assert.Equal(t, raw, unknown.Raw)
}

func TestDecodeEnvelopeMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"invalid json", `{not json`},
		{"offer without target", `{"type":"voice-call-offer","offer":{}}`},
		{"call end without target", `{"type":"call-end"}`},
		{"join without channel", `{"type":"join-voice-channel"}`},
		{"channel offer without channel", `{"type":"channel-voice-offer","target_user_id":5}`},
		{"private message without receiver", `{"type":"private-message","message":"hi"}`},
		{"private message without body", `{"type":"private-message","receiver_id":5}`},
		{"channel message without body", `{"type":"channel-message","channel_id":42}`},
		{"status update with bad status", `{"type":"status-update","status":"asleep"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeEnvelope([]byte(tc.data))
			assert.ErrorIs(t, err, ErrMalformedEnvelope)
		})
	}
}
