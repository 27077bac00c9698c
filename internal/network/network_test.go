package network

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/MRamiBalles/UniverseRPG/server/internal/account"
	"github.com/MRamiBalles/UniverseRPG/server/internal/config"
	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/location"
	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/resource"
	"github.com/MRamiBalles/UniverseRPG/server/internal/engine"
	"github.com/MRamiBalles/UniverseRPG/server/internal/events"
	"github.com/MRamiBalles/UniverseRPG/server/internal/infra/storage"
	"github.com/MRamiBalles/UniverseRPG/server/internal/session"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Balance.TickInterval = time.Hour
	cfg.Balance.AutoSaveInterval = time.Hour
	return cfg
}

func newSessions(t *testing.T, opts ...session.Option) *session.Manager {
	t.Helper()
	store := storage.NewMemoryBlobStore()
	opts = append(opts, session.WithEngineOptions(engine.WithRand(rand.New(rand.NewSource(5)))))
	m := session.NewManager(testConfig(), store, account.NewService(store, nil, account.WithHashCost(bcrypt.MinCost)), nil, opts...)
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })
	return m
}

func command(t *testing.T, typ string, payload interface{}) Command {
	t.Helper()
	cmd := Command{Type: typ, RequestID: "req-" + strings.ToLower(typ)}
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		cmd.Payload = raw
	}
	return cmd
}

func TestHubRoutesEventsToTheirPlayer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(nil, 8)
	go hub.Run(ctx)

	ana := NewClient(hub, nil, nil, 4, 0)
	bob := NewClient(hub, nil, nil, 4, 0)
	hub.Register(ana)
	hub.Register(bob)
	hub.Bind(ana, "ana")
	hub.Bind(bob, "bob")
	assert.Equal(t, 1, hub.Connections("ana"))

	hub.Listener()(events.New(events.EventTypeLevelUp, "ana", "", events.LevelUpPayload{}))

	select {
	case msg := <-ana.send:
		var ev map[string]interface{}
		require.NoError(t, json.Unmarshal(msg, &ev))
		assert.Equal(t, "LEVEL_UP", ev["type"])
		assert.Equal(t, "ana", ev["actor_id"])
	case <-time.After(2 * time.Second):
		t.Fatal("ana never received her event")
	}
	assert.Empty(t, bob.send)

	hub.Bind(ana, "")
	assert.Equal(t, 0, hub.Connections("ana"))
}

func TestHubDisconnectsSlowClient(t *testing.T) {
	hub := NewHub(nil, 8)
	slow := NewClient(hub, nil, nil, 1, 0)
	hub.Register(slow)
	hub.Bind(slow, "ana")

	ev := events.New(events.EventTypeXPGained, "ana", "", events.AmountPayload{})
	hub.deliver(ev)
	hub.deliver(ev)

	assert.True(t, slow.closed)
	assert.Equal(t, 0, hub.Connections("ana"))
	assert.False(t, hub.Send(slow, []byte("late")), "a closed client accepts nothing")

	hub.Unregister(slow)
}

func TestHubListenerDropsWhenQueueFull(t *testing.T) {
	hub := NewHub(nil, 1)
	l := hub.Listener()
	l(events.New(events.EventTypeTapCollected, "ana", "", nil))
	l(events.New(events.EventTypeTapCollected, "ana", "", nil))
	assert.Len(t, hub.outbound, 1)
}

func TestDispatchRequiresLogin(t *testing.T) {
	c := NewClient(NewHub(nil, 8), newSessions(t), nil, 8, 0)

	res := c.Dispatch(context.Background(), command(t, CmdTap, nil))
	assert.False(t, res.OK)
	assert.Equal(t, ResultType, res.Type)
	assert.Equal(t, "req-tap", res.RequestID)
	assert.Equal(t, session.ErrNotLoggedIn.Error(), res.Error)

	res = c.Dispatch(context.Background(), command(t, CmdLogout, nil))
	assert.False(t, res.OK)
}

func TestDispatchGameplay(t *testing.T) {
	ctx := context.Background()
	sessions := newSessions(t)
	hub := NewHub(nil, 8)
	c := NewClient(hub, sessions, nil, 8, 0)

	res := c.Dispatch(ctx, command(t, CmdCreateUser, credentials{Username: "ana", Password: "pw"}))
	require.True(t, res.OK, res.Error)
	assert.Equal(t, "ana", hub.User(c))

	res = c.Dispatch(ctx, command(t, CmdCreateUser, credentials{Username: "ab", Password: "pw"}))
	assert.Equal(t, "Username must be at least 3 characters long", res.Error)

	for i := 0; i < 30; i++ {
		res = c.Dispatch(ctx, command(t, CmdTap, nil))
		require.True(t, res.OK)
	}
	tap, ok := res.Data.(engine.TapResult)
	require.True(t, ok)
	assert.GreaterOrEqual(t, tap.Amount, 1)

	res = c.Dispatch(ctx, command(t, CmdState, nil))
	require.True(t, res.OK)
	view := res.Data.(stateView)
	assert.Equal(t, 30, view.State.Stats.TotalTaps)
	assert.Equal(t, location.StartingID, view.State.CurrentLocationID)

	var held resource.Stack
	for _, r := range view.State.Resources {
		if !resource.IsCurrency(r.Type) {
			held = r
			break
		}
	}
	require.NotEmpty(t, held.Type)
	res = c.Dispatch(ctx, command(t, CmdDeleteResource, map[string]interface{}{"resource": held.Type, "amount": held.Amount}))
	require.True(t, res.OK, res.Error)
	assert.Equal(t, map[string]float64{"remaining": 0}, res.Data)

	res = c.Dispatch(ctx, command(t, CmdDeleteResource, map[string]interface{}{"resource": "Numins", "amount": 1}))
	assert.Equal(t, engine.ErrNotDeletable.Error(), res.Error)

	res = c.Dispatch(ctx, command(t, CmdDropTable, nil))
	require.True(t, res.OK)
	assert.Len(t, res.Data, location.DropTableSize)

	res = c.Dispatch(ctx, command(t, CmdCanAfford, map[string]string{"blueprint_id": "nope"}))
	require.True(t, res.OK)
	assert.Equal(t, map[string]bool{"affordable": false}, res.Data)

	res = c.Dispatch(ctx, command(t, CmdEquipCard, map[string]interface{}{"card_id": "deep-scanner", "page": "Nowhere", "slot": 0}))
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "unknown page")

	res = c.Dispatch(ctx, command(t, CmdSetPage, map[string]string{"page": "cards"}))
	require.True(t, res.OK, res.Error)

	res = c.Dispatch(ctx, command(t, CmdStartConstruction, nil))
	assert.Contains(t, res.Error, ErrBadPayload.Error())

	res = c.Dispatch(ctx, command(t, "DANCE", nil))
	assert.Contains(t, res.Error, ErrUnknownCommand.Error())
}

func TestDispatchExportImportAndLogout(t *testing.T) {
	ctx := context.Background()
	sessions := newSessions(t)
	hub := NewHub(nil, 8)
	c := NewClient(hub, sessions, nil, 8, 0)

	require.True(t, c.Dispatch(ctx, command(t, CmdCreateUser, credentials{Username: "ana", Password: "pw"})).OK)
	for i := 0; i < 5; i++ {
		c.Dispatch(ctx, command(t, CmdTap, nil))
	}

	res := c.Dispatch(ctx, command(t, CmdExport, nil))
	require.True(t, res.OK, res.Error)
	exported := res.Data.(map[string]string)["data"]

	for i := 0; i < 5; i++ {
		c.Dispatch(ctx, command(t, CmdTap, nil))
	}
	res = c.Dispatch(ctx, command(t, CmdImport, map[string]string{"data": exported}))
	require.True(t, res.OK, res.Error)
	assert.Equal(t, map[string]string{"outcome": "current"}, res.Data)

	s, ok := sessions.Get("ana")
	require.True(t, ok)
	assert.Equal(t, 5, s.Engine.Snapshot().Stats.TotalTaps)

	res = c.Dispatch(ctx, command(t, CmdImport, map[string]string{"data": "{broken"}))
	assert.False(t, res.OK)
	assert.Equal(t, 5, s.Engine.Snapshot().Stats.TotalTaps)

	res = c.Dispatch(ctx, command(t, CmdBackups, nil))
	require.True(t, res.OK)
	assert.NotEmpty(t, res.Data)

	require.True(t, c.Dispatch(ctx, command(t, CmdLogout, nil)).OK)
	assert.Empty(t, sessions.Active())
	assert.Empty(t, hub.User(c))

	res = c.Dispatch(ctx, command(t, CmdLogin, credentials{Username: "ana", Password: "pw"}))
	require.True(t, res.OK, res.Error)
	s, _ = sessions.Get("ana")
	assert.Equal(t, 5, s.Engine.Snapshot().Stats.TotalTaps)

	res = c.Dispatch(ctx, command(t, CmdLogin, credentials{Username: "ana", Password: "bad"}))
	assert.Equal(t, account.ErrInvalidCredentials.Error(), res.Error)
}

func TestRateWindow(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r := newRateWindow(3, time.Second)
	for i := 0; i < 3; i++ {
		assert.True(t, r.Allow(start))
	}
	assert.False(t, r.Allow(start.Add(500*time.Millisecond)))
	assert.True(t, r.Allow(start.Add(time.Second)))

	unlimited := newRateWindow(0, time.Second)
	for i := 0; i < 100; i++ {
		assert.True(t, unlimited.Allow(start))
	}
}

func TestCatalogEndpoints(t *testing.T) {
	mux := http.NewServeMux()
	NewCatalogHandler(nil, nil, nil).RegisterRoutes(mux)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	rec := get("/api/catalog/locations")
	require.Equal(t, http.StatusOK, rec.Code)
	var locs []LocationView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &locs))
	assert.Len(t, locs, len(location.IDs()))

	rec = get("/api/catalog/droptable?location=" + location.StartingID)
	require.Equal(t, http.StatusOK, rec.Code)
	var table []location.Drop
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &table))
	require.Len(t, table, location.DropTableSize)
	assert.Equal(t, 30.0, table[0].Percent)

	assert.Equal(t, http.StatusBadRequest, get("/api/catalog/droptable").Code)
	assert.Equal(t, http.StatusNotFound, get("/api/catalog/droptable?location=atlantis").Code)

	rec = get("/api/catalog/levels")
	var levels []LevelView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &levels))
	require.Len(t, levels, 40)
	assert.Equal(t, int64(10), levels[0].ToNext)
	assert.Equal(t, int64(25), levels[2].ToNext)

	rec = get("/api/catalog/resources")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Iron Ore"`)

	assert.Equal(t, http.StatusOK, get("/api/catalog/cards").Code)
	assert.Equal(t, http.StatusOK, get("/api/catalog/blueprints").Code)
	assert.Equal(t, http.StatusNotFound, get("/api/players").Code, "no summary repository configured")
	assert.Equal(t, http.StatusNotFound, get("/api/recap?username=ana").Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/catalog/cards", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.JSONEq(t, `{"error":"Method not allowed"}`, rec.Body.String())
}

func TestPlayersAndHistoryEndpoints(t *testing.T) {
	ctx := context.Background()
	db, err := storage.InitSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	summaries := storage.NewSQLiteSummaryRepository(db)
	history := storage.NewSQLiteEventRepository(db)

	sessions := newSessions(t,
		session.WithSummaries(summaries),
		session.WithEventPersister(&storage.EventPersisterAdapter{Repo: history}))
	s, err := sessions.CreateUser(ctx, "ana", "pw")
	require.NoError(t, err)
	s.Engine.Tap()
	require.NoError(t, s.Save(ctx))

	mux := http.NewServeMux()
	NewCatalogHandler(summaries, history, nil).RegisterRoutes(mux)
	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	rec := get("/api/players?username=ana")
	require.Equal(t, http.StatusOK, rec.Code)
	var summary storage.PlayerSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.TotalTaps)
	assert.Equal(t, engine.DefaultPlayerName, summary.PlayerName)

	assert.Equal(t, http.StatusNotFound, get("/api/players?username=bob").Code)

	var hist HistoryResponse
	require.Eventually(t, func() bool {
		rec := get("/api/history?username=ana&type=GAME_SAVED")
		if rec.Code != http.StatusOK || json.Unmarshal(rec.Body.Bytes(), &hist) != nil {
			return false
		}
		return hist.TotalEvents >= 2
	}, 5*time.Second, 10*time.Millisecond, "history is written through in the background")
	assert.Equal(t, "type=GAME_SAVED", hist.FilteredBy)
	assert.Equal(t, "ana", hist.Events[0].ActorID)

	assert.Equal(t, http.StatusBadRequest, get("/api/history").Code)
	assert.Equal(t, http.StatusBadRequest, get("/api/history?username=ana&limit=x").Code)

	var recap RecapResponse
	require.Eventually(t, func() bool {
		rec := get("/api/recap?username=ana&since=1h")
		if rec.Code != http.StatusOK || json.Unmarshal(rec.Body.Bytes(), &recap) != nil {
			return false
		}
		return recap.Totals.Taps == 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.NotNil(t, recap.Events)
	assert.Equal(t, http.StatusBadRequest, get("/api/recap?username=ana&since=soon").Code)
	assert.Equal(t, http.StatusBadRequest, get("/api/recap").Code)
}

func TestWebSocketSession(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sessions := newSessions(t)
	hub := NewHub(nil, 64)
	sessions.Subscribe(hub.Listener())
	go hub.Run(ctx)

	srv := httptest.NewServer(NewWSHandler(ctx, hub, sessions, testConfig().Server))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	var pending []string
	next := func() map[string]interface{} {
		if len(pending) == 0 {
			require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
			_, msg, err := conn.ReadMessage()
			require.NoError(t, err)
			pending = strings.Split(string(msg), "\n")
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(pending[0]), &m))
		pending = pending[1:]
		return m
	}
	// await skips messages until one of the given type (and command, for results) arrives.
	await := func(typ, cmd string) map[string]interface{} {
		for {
			m := next()
			if m["type"] == typ && (cmd == "" || m["command"] == cmd) {
				return m
			}
		}
	}

	require.NoError(t, conn.WriteJSON(command(t, CmdCreateUser, credentials{Username: "pilot", Password: "pw"})))
	res := await(ResultType, CmdCreateUser)
	require.Equal(t, true, res["ok"], res["error"])

	require.NoError(t, conn.WriteJSON(command(t, CmdTap, nil)))
	ev := await(string(events.EventTypeTapCollected), "")
	assert.Equal(t, "pilot", ev["actor_id"])

	require.NoError(t, conn.WriteJSON(Command{Type: "DANCE", RequestID: "r1"}))
	res = await(ResultType, "DANCE")
	assert.Equal(t, false, res["ok"])
	assert.Equal(t, "r1", res["request_id"])

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return len(sessions.Active()) == 0 },
		5*time.Second, 10*time.Millisecond, "closing the last connection logs the player out")
}
