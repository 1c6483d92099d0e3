package hub

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shlomilevushh/mini-discord/internal/domain"
)

// fakeConn satisfies Conn without a network.
type fakeConn struct {
	frames [][]byte
	pos    int
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	if f.pos >= len(f.frames) {
		return 0, nil, errors.New("connection closed")
	}
	data := f.frames[f.pos]
	f.pos++
	return 1, data, nil
}
func (f *fakeConn) WriteMessage(int, []byte) error      { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error    { return nil }
func (f *fakeConn) SetReadDeadline(time.Time) error     { return nil }
func (f *fakeConn) SetReadLimit(int64)                  {}
func (f *fakeConn) SetPongHandler(func(string) error)   {}
func (f *fakeConn) Close() error                        { return nil }

// fakeStore is a Persistence stub; unset hooks succeed with canned data.
type fakeStore struct {
	saveDirectCalls  int
	saveChannelCalls int
	statusCalls      int

	directErr  error
	channelErr error
	statusErr  error

	members []domain.User
	friends []domain.User
}

func (f *fakeStore) SaveDirectMessage(sender, receiver domain.UserID, body string) (*domain.Message, error) {
	f.saveDirectCalls++
	if f.directErr != nil {
		return nil, f.directErr
	}
	return &domain.Message{SenderID: sender, ReceiverID: receiver, Body: body, CreatedAt: time.Unix(1700000000, 0).UTC()}, nil
}

func (f *fakeStore) SaveChannelMessage(ch domain.ChannelID, sender domain.UserID, body string) (*domain.Message, error) {
	f.saveChannelCalls++
	if f.channelErr != nil {
		return nil, f.channelErr
	}
	return &domain.Message{SenderID: sender, ChannelID: ch, Body: body, CreatedAt: time.Unix(1700000000, 0).UTC()}, nil
}

func (f *fakeStore) ChannelMembers(domain.ChannelID) ([]domain.User, error) {
	return f.members, nil
}

func (f *fakeStore) Friends(domain.UserID) ([]domain.User, error) {
	return f.friends, nil
}

func (f *fakeStore) UpdateUserStatus(domain.UserID, domain.Status) error {
	f.statusCalls++
	return f.statusErr
}

func newTestHub(store Persistence) *Hub {
	return New(store, NewMetrics(prometheus.NewRegistry()), Options{})
}

// connect registers a client without running pumps; tests read queued frames
// straight off the send channel.
func connect(h *Hub, id domain.UserID, name string) *Client {
	c := newClient(domain.User{ID: id, Username: name}, &fakeConn{}, h)
	if old := h.registry.Connect(c); old != nil {
		old.close()
	}
	return c
}

func recvEvent(t *testing.T, c *Client) map[string]any {
	t.Helper()
	select {
	case data := <-c.send:
		var m map[string]any
		require.NoError(t, json.Unmarshal(data, &m))
		return m
	default:
		t.Fatal("expected a queued event")
		return nil
	}
}

func assertNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("unexpected event queued: %s", data)
	default:
	}
}

func TestSendToUserOfflineIsSilentNoop(t *testing.T) {
	h := newTestHub(&fakeStore{})
	h.SendToUser(999, map[string]string{"type": "ping"})
	assert.Equal(t, 0, h.registry.Count())
	assert.Equal(t, 0, h.presence.ChannelCount())
}

func TestSendToChannelExcludesUser(t *testing.T) {
	h := newTestHub(&fakeStore{})
	a := connect(h, 1, "alice")
	b := connect(h, 2, "bob")
	e := connect(h, 3, "eve")
	for _, id := range []domain.UserID{1, 2, 3} {
		h.presence.Join(id, 42)
	}

	h.SendToChannel(42, map[string]string{"type": "test"}, 2)

	recvEvent(t, a)
	recvEvent(t, e)
	assertNoEvent(t, b)
}

func TestVoiceJoinNotifiesExistingAndRepliesWithMembers(t *testing.T) {
	h := newTestHub(&fakeStore{})
	u7 := connect(h, 7, "seven")
	u9 := connect(h, 9, "nine")

	h.route(u7, []byte(`{"type":"join-voice-channel","channel_id":42}`))
	// Joining an empty channel: no arrival broadcast targets, member list empty.
	ev := recvEvent(t, u7)
	assert.Equal(t, "voice-channel-users", ev["type"])
	assert.Empty(t, ev["user_ids"])

	h.route(u9, []byte(`{"type":"join-voice-channel","channel_id":42}`))

	arrival := recvEvent(t, u7)
	assert.Equal(t, "user-joined-voice", arrival["type"])
	assert.EqualValues(t, 9, arrival["user_id"])
	assert.Equal(t, "nine", arrival["username"])

	roster := recvEvent(t, u9)
	assert.Equal(t, "voice-channel-users", roster["type"])
	assert.EqualValues(t, 42, roster["channel_id"])
	assert.Equal(t, []any{float64(7)}, roster["user_ids"])
}

func TestVoiceLeaveNotifiesRemaining(t *testing.T) {
	h := newTestHub(&fakeStore{})
	a := connect(h, 1, "alice")
	b := connect(h, 2, "bob")
	h.presence.Join(1, 5)
	h.presence.Join(2, 5)

	h.route(a, []byte(`{"type":"leave-voice-channel","channel_id":5}`))

	ev := recvEvent(t, b)
	assert.Equal(t, "user-left-voice", ev["type"])
	assert.EqualValues(t, 1, ev["user_id"])
	assertNoEvent(t, a)
	assert.Equal(t, []domain.UserID{2}, h.presence.Members(5))

	// Leaving a channel you are not in is a no-op.
	h.route(a, []byte(`{"type":"leave-voice-channel","channel_id":5}`))
	assertNoEvent(t, b)
}

func TestCallOfferRelayedWithSenderIdentity(t *testing.T) {
	h := newTestHub(&fakeStore{})
	caller := connect(h, 3, "carol")
	callee := connect(h, 5, "dave")

	h.route(caller, []byte(`{"type":"voice-call-offer","target_user_id":5,"offer":{"sdp":"v=0","type":"offer"}}`))

	ev := recvEvent(t, callee)
	assert.Equal(t, "voice-call-offer", ev["type"])
	assert.EqualValues(t, 3, ev["from_user_id"])
	assert.Equal(t, "carol", ev["from_username"])
	// Payload relayed verbatim, not interpreted.
	offer := ev["offer"].(map[string]any)
	assert.Equal(t, "v=0", offer["sdp"])
	assertNoEvent(t, caller)
}

func TestChannelVoiceSignalingCarriesChannelContext(t *testing.T) {
	h := newTestHub(&fakeStore{})
	a := connect(h, 1, "alice")
	b := connect(h, 2, "bob")

	h.route(a, []byte(`{"type":"channel-ice-candidate","target_user_id":2,"channel_id":9,"candidate":{"candidate":"foo"}}`))

	ev := recvEvent(t, b)
	assert.Equal(t, "channel-ice-candidate", ev["type"])
	assert.EqualValues(t, 9, ev["channel_id"])
	assert.EqualValues(t, 1, ev["from_user_id"])
	assert.NotNil(t, ev["candidate"])
}

func TestPrivateMessageDeliveredAndConfirmed(t *testing.T) {
	st := &fakeStore{}
	h := newTestHub(st)
	sender := connect(h, 3, "carol")
	receiver := connect(h, 5, "dave")

	h.route(sender, []byte(`{"type":"private-message","receiver_id":5,"message":"hi"}`))

	require.Equal(t, 1, st.saveDirectCalls)

	ev := recvEvent(t, receiver)
	assert.Equal(t, "new-private-message", ev["type"])
	assert.EqualValues(t, 3, ev["from_user_id"])
	assert.Equal(t, "carol", ev["from_username"])
	assert.Equal(t, "hi", ev["message"])
	assert.NotEmpty(t, ev["timestamp"])

	ack := recvEvent(t, sender)
	assert.Equal(t, "message-sent", ack["type"])
	assert.Equal(t, true, ack["success"])
	assert.EqualValues(t, 5, ack["receiver_id"])
}

func TestPrivateMessageToOfflineUserStillPersistsAndConfirms(t *testing.T) {
	st := &fakeStore{}
	h := newTestHub(st)
	sender := connect(h, 3, "carol")

	h.route(sender, []byte(`{"type":"private-message","receiver_id":5,"message":"hi"}`))

	require.Equal(t, 1, st.saveDirectCalls)
	ack := recvEvent(t, sender)
	assert.Equal(t, "message-sent", ack["type"])
	assert.Equal(t, true, ack["success"])
}

func TestPrivateMessageSaveFailureSkipsFanout(t *testing.T) {
	st := &fakeStore{directErr: errors.New("disk full")}
	h := newTestHub(st)
	sender := connect(h, 3, "carol")
	receiver := connect(h, 5, "dave")

	h.route(sender, []byte(`{"type":"private-message","receiver_id":5,"message":"hi"}`))

	assertNoEvent(t, sender)
	assertNoEvent(t, receiver)
}

func TestChannelMessageFansOutToDurableMembership(t *testing.T) {
	// Durable membership includes a user who is not live in the voice
	// presence table; text fan-out must still reach them.
	st := &fakeStore{members: []domain.User{
		{ID: 1, Username: "alice"},
		{ID: 2, Username: "bob"},
		{ID: 4, Username: "offline"},
	}}
	h := newTestHub(st)
	a := connect(h, 1, "alice")
	b := connect(h, 2, "bob")

	h.route(a, []byte(`{"type":"channel-message","channel_id":8,"message":"hello all"}`))

	require.Equal(t, 1, st.saveChannelCalls)
	for _, c := range []*Client{a, b} {
		ev := recvEvent(t, c)
		assert.Equal(t, "new-channel-message", ev["type"])
		assert.EqualValues(t, 8, ev["channel_id"])
		assert.Equal(t, "hello all", ev["message"])
	}
}

func TestChannelMessageSaveFailureSkipsFanout(t *testing.T) {
	st := &fakeStore{channelErr: errors.New("no such channel"), members: []domain.User{{ID: 1}}}
	h := newTestHub(st)
	a := connect(h, 1, "alice")

	h.route(a, []byte(`{"type":"channel-message","channel_id":8,"message":"hello"}`))

	assertNoEvent(t, a)
}

func TestStatusUpdateNotifiesFriends(t *testing.T) {
	st := &fakeStore{friends: []domain.User{{ID: 2, Username: "bob"}, {ID: 3, Username: "carol"}}}
	h := newTestHub(st)
	a := connect(h, 1, "alice")
	b := connect(h, 2, "bob")

	h.route(a, []byte(`{"type":"status-update","status":"invisible"}`))

	require.Equal(t, 1, st.statusCalls)
	ev := recvEvent(t, b)
	assert.Equal(t, "friend-status-changed", ev["type"])
	assert.EqualValues(t, 1, ev["user_id"])
	assert.Equal(t, "invisible", ev["status"])
	assertNoEvent(t, a)
}

func TestDisconnectCascadeCleansPresenceAndNotifies(t *testing.T) {
	h := newTestHub(&fakeStore{})
	u1 := connect(h, 1, "alice")
	w10 := connect(h, 20, "watcher10")
	w11 := connect(h, 21, "watcher11")
	h.presence.Join(1, 10)
	h.presence.Join(1, 11)
	h.presence.Join(20, 10)
	h.presence.Join(21, 11)

	h.drop(u1)

	assert.NotContains(t, h.presence.Members(10), domain.UserID(1))
	assert.NotContains(t, h.presence.Members(11), domain.UserID(1))

	for ch, w := range map[int]*Client{10: w10, 11: w11} {
		ev := recvEvent(t, w)
		assert.Equal(t, "user-left-voice", ev["type"])
		assert.EqualValues(t, ch, ev["channel_id"])
		assert.EqualValues(t, 1, ev["user_id"])
		assertNoEvent(t, w)
	}

	_, ok := h.registry.Get(1)
	assert.False(t, ok)
}

func TestUnknownEnvelopeEchoedToSenderOnly(t *testing.T) {
	h := newTestHub(&fakeStore{})
	a := connect(h, 1, "alice")
	b := connect(h, 2, "bob")

	raw := []byte(`{"type":"bogus"}`)
	h.route(a, raw)

	ev := recvEvent(t, a)
	assert.Equal(t, "bogus", ev["type"])
	assertNoEvent(t, b)

	// Connection stays registered.
	_, ok := h.registry.Get(1)
	assert.True(t, ok)
}

func TestMalformedEnvelopeDroppedWithoutStateChange(t *testing.T) {
	h := newTestHub(&fakeStore{})
	a := connect(h, 1, "alice")

	h.route(a, []byte(`{not json`))
	h.route(a, []byte(`{"type":"private-message"}`)) // missing required fields

	assertNoEvent(t, a)
	_, ok := h.registry.Get(1)
	assert.True(t, ok)
	assert.Equal(t, 0, h.presence.ChannelCount())
}

func TestDeliveryFailureDropsClient(t *testing.T) {
	h := newTestHub(&fakeStore{})
	a := connect(h, 1, "alice")
	h.presence.Join(1, 7)

	// Saturate the send buffer so the next delivery hits backpressure.
	for i := 0; i < cap(a.send); i++ {
		require.NoError(t, a.trySend([]byte("x")))
	}

	h.SendToUser(1, map[string]string{"type": "overflow"})

	_, ok := h.registry.Get(1)
	assert.False(t, ok)
	assert.Empty(t, h.presence.Members(7))
}

func TestServeCleansUpOnTransportClose(t *testing.T) {
	h := newTestHub(&fakeStore{})
	conn := &fakeConn{frames: [][]byte{
		[]byte(`{"type":"join-voice-channel","channel_id":3}`),
	}}

	done := make(chan struct{})
	go func() {
		h.Serve(domain.User{ID: 1, Username: "alice"}, conn)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after transport close")
	}

	assert.Equal(t, 0, h.registry.Count())
	assert.Equal(t, 0, h.presence.ChannelCount())
}
