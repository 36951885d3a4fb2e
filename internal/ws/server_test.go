package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"sketchparty/internal/broadcast"
	"sketchparty/internal/services/game"
)

func newTestServer(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dispatcher := broadcast.NewDispatcher()
	gameSvc := game.NewGameService(dispatcher)
	wsSrv := NewWsServer(dispatcher, gameSvc, 4096, time.Second)

	engine := gin.New()
	engine.GET("/ws", wsSrv.Handle)

	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, frame map[string]any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(frame))
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event map[string]any
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func TestJoinServer_TwoClientsOverWire(t *testing.T) {
	req := require.New(t)
	url := newTestServer(t)

	c1 := dial(t, url)
	c2 := dial(t, url)

	send(t, c1, map[string]any{"type": "JOIN_SERVER"})
	evt := readEvent(t, c1)
	req.Equal("USER_JOINED", evt["event"])
	req.EqualValues(1, evt["sessionsCount"])

	send(t, c2, map[string]any{"type": "JOIN_SERVER"})
	evt = readEvent(t, c1)
	req.EqualValues(2, evt["sessionsCount"])
	evt = readEvent(t, c2)
	req.Equal("USER_JOINED", evt["event"])
	req.EqualValues(2, evt["sessionsCount"])
}

func TestInvalidMessage_NoticeToSenderOnly(t *testing.T) {
	req := require.New(t)
	url := newTestServer(t)

	c1 := dial(t, url)
	send(t, c1, map[string]any{"type": "DANCE"})

	evt := readEvent(t, c1)
	req.Equal("INVALID_MESSAGE", evt["event"])

	// No state change happened: joining afterwards still works from scratch.
	send(t, c1, map[string]any{"type": "JOIN_SERVER"})
	evt = readEvent(t, c1)
	req.Equal("USER_JOINED", evt["event"])
	req.EqualValues(1, evt["sessionsCount"])
}

func TestRoomLifecycleOverWire(t *testing.T) {
	req := require.New(t)
	url := newTestServer(t)

	c1 := dial(t, url)
	c2 := dial(t, url)

	send(t, c1, map[string]any{"type": "JOIN_SERVER"})
	readEvent(t, c1)
	send(t, c2, map[string]any{"type": "JOIN_SERVER"})
	readEvent(t, c1)
	readEvent(t, c2)

	// c1 opens a room: the lobby remainder (c2) gets the room summary,
	// the creator gets the initial room snapshot.
	send(t, c1, map[string]any{"type": "CREATE_ROOM", "roomName": "testroom"})

	lobbyEvt := readEvent(t, c2)
	req.Equal("ROOM_CREATED", lobbyEvt["event"])
	req.EqualValues(1, lobbyEvt["sessionsCount"])
	roomsInfo := lobbyEvt["roomsInfo"].([]any)
	req.Len(roomsInfo, 1)
	summary := roomsInfo[0].(map[string]any)
	req.Equal("testroom", summary["roomName"])
	req.EqualValues(1, summary["participantCount"])
	roomID := summary["roomId"].(string)

	roomEvt := readEvent(t, c1)
	req.Equal("ROOM_UPDATE", roomEvt["event"])
	req.Len(roomEvt["players"].([]any), 1)

	// c2 joins the room: both members see two players.
	send(t, c2, map[string]any{"type": "JOIN_ROOM", "roomId": roomID})
	for _, conn := range []*websocket.Conn{c1, c2} {
		evt := readEvent(t, conn)
		req.Equal("ROOM_UPDATE", evt["event"])
		req.Len(evt["players"].([]any), 2)
	}

	// A guess shows up in everyone's transcript.
	send(t, c2, map[string]any{"type": "SUBMIT_GUESS", "guess": "a duck"})
	for _, conn := range []*websocket.Conn{c1, c2} {
		evt := readEvent(t, conn)
		guesses := evt["guesses"].([]any)
		req.Len(guesses, 1)
		req.Equal("a duck", guesses[0].(map[string]any)["guess"])
	}

	// c2 leaves: the room reverts to one member and c2 reappears in the
	// lobby stream.
	send(t, c2, map[string]any{"type": "LEAVE_ROOM"})
	evt := readEvent(t, c1)
	req.Equal("ROOM_UPDATE", evt["event"])
	req.Len(evt["players"].([]any), 1)

	evt = readEvent(t, c2)
	req.Equal("ROOMS_UPDATE", evt["event"])
	req.EqualValues(1, evt["sessionsCount"])
	req.EqualValues(1, evt["roomsInfo"].([]any)[0].(map[string]any)["participantCount"])
}

func TestDisconnectActsAsLeave(t *testing.T) {
	req := require.New(t)
	url := newTestServer(t)

	c1 := dial(t, url)
	c2 := dial(t, url)

	send(t, c1, map[string]any{"type": "JOIN_SERVER"})
	readEvent(t, c1)
	send(t, c2, map[string]any{"type": "JOIN_SERVER"})
	readEvent(t, c1)
	readEvent(t, c2)

	send(t, c1, map[string]any{"type": "CREATE_ROOM", "roomName": "testroom"})
	readEvent(t, c1) // room snapshot
	readEvent(t, c2) // ROOM_CREATED

	// c1 drops without an explicit LEAVE_ROOM. The sole-member room is
	// deleted exactly as in an explicit leave, and c2 sees both the rooms
	// update and the departure.
	req.NoError(c1.Close())

	evt := readEvent(t, c2)
	req.Equal("ROOMS_UPDATE", evt["event"])
	req.Nil(evt["roomsInfo"])
	req.EqualValues(2, evt["sessionsCount"])

	evt = readEvent(t, c2)
	req.Equal("USER_LEFT", evt["event"])
	req.EqualValues(1, evt["sessionsCount"])
}
