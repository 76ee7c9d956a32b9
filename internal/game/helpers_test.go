package game

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/scythe504/quizroom-backend/internal"
	"github.com/scythe504/quizroom-backend/internal/utils"
	"github.com/stretchr/testify/require"
)

// fakeConn records every message queued for one player.
type fakeConn struct {
	mu       sync.Mutex
	messages [][]byte
	closed   bool
}

func (f *fakeConn) Send(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return internal.ErrTransport
	}
	f.messages = append(f.messages, append([]byte(nil), data...))
	return nil
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeConn) clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = nil
}

// types lists the type of every received message, oldest first.
func (f *fakeConn) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	types := make([]string, 0, len(f.messages))
	for _, m := range f.messages {
		var env internal.Envelope
		_ = json.Unmarshal(m, &env)
		types = append(types, env.Type)
	}
	return types
}

func (f *fakeConn) ofType(typ string) [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out [][]byte
	for _, m := range f.messages {
		var env internal.Envelope
		if json.Unmarshal(m, &env) == nil && env.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeConn) count(typ string) int {
	return len(f.ofType(typ))
}

// lastOf decodes the most recent message of type typ.
func lastOf[T any](t *testing.T, f *fakeConn, typ string) T {
	t.Helper()
	msgs := f.ofType(typ)
	require.NotEmptyf(t, msgs, "no %s received, got %v", typ, f.types())
	var v T
	require.NoError(t, json.Unmarshal(msgs[len(msgs)-1], &v))
	return v
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fixedCodes hands out the given codes in order, then falls back to random ones.
func fixedCodes(codes ...string) func() string {
	var mu sync.Mutex
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		if len(codes) == 0 {
			return utils.GenerateRoomCode()
		}
		code := codes[0]
		codes = codes[1:]
		return code
	}
}

type recordingRecorder struct {
	results chan internal.GameResult
}

func newRecordingRecorder() *recordingRecorder {
	return &recordingRecorder{results: make(chan internal.GameResult, 8)}
}

func (r *recordingRecorder) RecordResult(_ context.Context, result internal.GameResult) error {
	r.results <- result
	return nil
}

type testPlayer struct {
	*internal.Player
	conn *fakeConn
}

func newTestCoordinator(opts Options) (*Coordinator, *testClock) {
	clock := newTestClock()
	if opts.Now == nil {
		opts.Now = clock.Now
	}
	return NewCoordinator(opts), clock
}

func createRoom(t *testing.T, c *Coordinator, cmd internal.CreateRoomCommand) testPlayer {
	t.Helper()
	conn := &fakeConn{}
	p, err := c.CreateRoom(conn, cmd)
	require.NoError(t, err)
	return testPlayer{Player: p, conn: conn}
}

func joinRoom(t *testing.T, c *Coordinator, code, name string) testPlayer {
	t.Helper()
	conn := &fakeConn{}
	p, err := c.JoinRoom(conn, internal.JoinRoomCommand{RoomCode: code, PlayerName: name})
	require.NoError(t, err)
	return testPlayer{Player: p, conn: conn}
}

// setupRoom creates a trivia room with n players, the first one hosting.
func setupRoom(t *testing.T, c *Coordinator, n int) (*internal.Room, []testPlayer) {
	t.Helper()
	host := createRoom(t, c, internal.CreateRoomCommand{PlayerName: "P1"})
	room := c.Registry().ResolveRoomForPlayer(host.Id)
	require.NotNil(t, room)

	players := []testPlayer{host}
	for i := 2; i <= n; i++ {
		players = append(players, joinRoom(t, c, room.Code, fmt.Sprintf("P%d", i)))
	}
	clearAll(players)
	return room, players
}

func questions(n int) []json.RawMessage {
	qs := make([]json.RawMessage, n)
	for i := range qs {
		qs[i] = json.RawMessage(fmt.Sprintf(`{"text":"question %d"}`, i+1))
	}
	return qs
}

// startGame readies everyone and starts a game with n questions.
func startGame(t *testing.T, c *Coordinator, players []testPlayer, n int) {
	t.Helper()
	for _, p := range players[1:] {
		require.NoError(t, c.HandlePlayerReady(p.Id, true))
	}
	require.NoError(t, c.StartGame(players[0].Id, internal.StartGameCommand{Questions: questions(n)}))
	clearAll(players)
}

func answer(t *testing.T, c *Coordinator, p testPlayer, given, correct string, points int) {
	t.Helper()
	require.NoError(t, c.SubmitAnswer(p.Id, internal.SubmitAnswerCommand{
		Answer:        internal.AnswerValue(given),
		CorrectAnswer: internal.AnswerValue(correct),
		Points:        points,
	}))
}

func clearAll(players []testPlayer) {
	for _, p := range players {
		p.conn.clear()
	}
}

// inspect reads room state under its lock.
func inspect(room *internal.Room, fn func(room *internal.Room)) {
	room.Mu.RLock()
	defer room.Mu.RUnlock()
	fn(room)
}
