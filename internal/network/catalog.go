package network

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/card"
	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/construction"
	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/location"
	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/progression"
	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/resource"
	"github.com/MRamiBalles/UniverseRPG/server/internal/infra/storage"
	"github.com/MRamiBalles/UniverseRPG/server/internal/platform/logger"
)

// CatalogHandler serves the static game data and read-only player views over HTTP.
type CatalogHandler struct {
	summaries storage.SummaryRepository
	history   storage.EventRepository
	recon     *storage.Reconstructor
	logger    *logger.Logger
}

// NewCatalogHandler creates a catalog handler. summaries and history may be nil, in which
// case their endpoints answer 404.
func NewCatalogHandler(summaries storage.SummaryRepository, history storage.EventRepository, log *logger.Logger) *CatalogHandler {
	if log == nil {
		log = logger.NewDiscard()
	}
	ch := &CatalogHandler{summaries: summaries, history: history, logger: log}
	if history != nil {
		ch.recon = storage.NewReconstructor(history)
	}
	return ch
}

// LocationView is a location with its base drop table.
type LocationView struct {
	location.Location
	DropTable []location.Drop `json:"drop_table"`
}

// ResourceView is a resource with its display metadata.
type ResourceView struct {
	Type resource.Type `json:"type"`
	resource.Info
}

// LevelView is one row of the leveling table: the XP needed to leave Level.
type LevelView struct {
	Level  int   `json:"level"`
	ToNext int64 `json:"xp_to_next"`
}

// HistoryResponse is a player's persisted event history.
type HistoryResponse struct {
	Username    string              `json:"username"`
	TotalEvents int                 `json:"total_events"`
	FilteredBy  string              `json:"filtered_by,omitempty"`
	GeneratedAt string              `json:"generated_at"`
	Events      []storage.GameEvent `json:"events"`
}

// HandleLocations returns every location with its drop table.
// GET /api/catalog/locations
func (ch *CatalogHandler) HandleLocations(w http.ResponseWriter, r *http.Request) {
	if !ch.allowGet(w, r) {
		return
	}
	ids := location.IDs()
	out := make([]LocationView, 0, len(ids))
	for _, id := range ids {
		loc, _ := location.Get(id)
		out = append(out, LocationView{Location: loc, DropTable: location.DropTable(id)})
	}
	ch.writeJSON(w, out)
}

// HandleDropTable returns the base drop table of one location.
// GET /api/catalog/droptable?location=taragam-7
func (ch *CatalogHandler) HandleDropTable(w http.ResponseWriter, r *http.Request) {
	if !ch.allowGet(w, r) {
		return
	}
	id := r.URL.Query().Get("location")
	if id == "" {
		ch.jsonError(w, "Missing location", http.StatusBadRequest)
		return
	}
	if _, ok := location.Get(id); !ok {
		ch.jsonError(w, "Location not found", http.StatusNotFound)
		return
	}
	ch.writeJSON(w, location.DropTable(id))
}

// HandleResources returns every known resource.
// GET /api/catalog/resources
func (ch *CatalogHandler) HandleResources(w http.ResponseWriter, r *http.Request) {
	if !ch.allowGet(w, r) {
		return
	}
	types := resource.All()
	out := make([]ResourceView, 0, len(types))
	for _, t := range types {
		out = append(out, ResourceView{Type: t, Info: resource.Lookup(t)})
	}
	ch.writeJSON(w, out)
}

// HandleBlueprints returns every construction blueprint.
// GET /api/catalog/blueprints
func (ch *CatalogHandler) HandleBlueprints(w http.ResponseWriter, r *http.Request) {
	if !ch.allowGet(w, r) {
		return
	}
	ch.writeJSON(w, construction.All())
}

// HandleCards returns every card definition.
// GET /api/catalog/cards
func (ch *CatalogHandler) HandleCards(w http.ResponseWriter, r *http.Request) {
	if !ch.allowGet(w, r) {
		return
	}
	ch.writeJSON(w, card.All())
}

// HandleLevels returns the leveling table.
// GET /api/catalog/levels
func (ch *CatalogHandler) HandleLevels(w http.ResponseWriter, r *http.Request) {
	if !ch.allowGet(w, r) {
		return
	}
	out := make([]LevelView, 0, progression.MaxLevel)
	for lvl, need := range progression.Thresholds {
		out = append(out, LevelView{Level: lvl, ToNext: need})
	}
	ch.writeJSON(w, out)
}

// HandlePlayers returns the player summaries, best first.
// GET /api/players?username=ana
func (ch *CatalogHandler) HandlePlayers(w http.ResponseWriter, r *http.Request) {
	if !ch.allowGet(w, r) {
		return
	}
	if ch.summaries == nil {
		ch.jsonError(w, "Player summaries are disabled", http.StatusNotFound)
		return
	}
	if name := r.URL.Query().Get("username"); name != "" {
		s, err := ch.summaries.Get(r.Context(), name)
		if err != nil {
			ch.logger.Errorf("summary lookup for %s failed: %v", name, err)
			ch.jsonError(w, "Failed to read summary", http.StatusInternalServerError)
			return
		}
		if s == nil {
			ch.jsonError(w, "Player not found", http.StatusNotFound)
			return
		}
		ch.writeJSON(w, s)
		return
	}
	list, err := ch.summaries.List(r.Context())
	if err != nil {
		ch.logger.Errorf("summary listing failed: %v", err)
		ch.jsonError(w, "Failed to list players", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []storage.PlayerSummary{}
	}
	ch.writeJSON(w, list)
}

// HandleHistory returns a player's persisted events.
// GET /api/history?username=ana&type=LEVEL_UP&limit=50
func (ch *CatalogHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if !ch.allowGet(w, r) {
		return
	}
	if ch.history == nil {
		ch.jsonError(w, "Event history is disabled", http.StatusNotFound)
		return
	}
	q := r.URL.Query()
	username := q.Get("username")
	if username == "" {
		ch.jsonError(w, "Missing username", http.StatusBadRequest)
		return
	}

	var (
		evs    []storage.GameEvent
		err    error
		filter string
	)
	switch {
	case q.Get("type") != "":
		filter = "type=" + q.Get("type")
		evs, err = ch.history.GetByEventType(r.Context(), username, q.Get("type"))
	case q.Get("limit") != "":
		limit, convErr := strconv.Atoi(q.Get("limit"))
		if convErr != nil || limit <= 0 {
			ch.jsonError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		filter = "limit=" + q.Get("limit")
		evs, err = ch.history.Recent(r.Context(), username, limit)
	default:
		evs, err = ch.history.GetByActorID(r.Context(), username)
	}
	if err != nil {
		ch.logger.Errorf("history query for %s failed: %v", username, err)
		ch.jsonError(w, "Failed to read history", http.StatusInternalServerError)
		return
	}
	if evs == nil {
		evs = []storage.GameEvent{}
	}

	ch.writeJSON(w, HistoryResponse{
		Username:    username,
		TotalEvents: len(evs),
		FilteredBy:  filter,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Events:      evs,
	})
}

// RecapResponse is a player's activity over a recent window.
type RecapResponse struct {
	Totals *storage.ActivityTotals `json:"totals"`
	Events []storage.RecapEvent    `json:"events"`
}

// HandleRecap returns what a player did over a recent window.
// GET /api/recap?username=ana&since=24h
func (ch *CatalogHandler) HandleRecap(w http.ResponseWriter, r *http.Request) {
	if !ch.allowGet(w, r) {
		return
	}
	if ch.recon == nil {
		ch.jsonError(w, "Event history is disabled", http.StatusNotFound)
		return
	}
	q := r.URL.Query()
	username := q.Get("username")
	if username == "" {
		ch.jsonError(w, "Missing username", http.StatusBadRequest)
		return
	}
	window := 24 * time.Hour
	if raw := q.Get("since"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			ch.jsonError(w, "Invalid since", http.StatusBadRequest)
			return
		}
		window = d
	}
	since := time.Now().Add(-window)

	totals, err := ch.recon.RebuildTotals(r.Context(), username, since)
	if err != nil {
		ch.logger.Errorf("recap totals for %s failed: %v", username, err)
		ch.jsonError(w, "Failed to read history", http.StatusInternalServerError)
		return
	}
	recap, err := ch.recon.Recap(r.Context(), username, since)
	if err != nil {
		ch.logger.Errorf("recap for %s failed: %v", username, err)
		ch.jsonError(w, "Failed to read history", http.StatusInternalServerError)
		return
	}
	if recap == nil {
		recap = []storage.RecapEvent{}
	}
	ch.writeJSON(w, RecapResponse{Totals: totals, Events: recap})
}

// RegisterRoutes registers the catalog endpoints.
func (ch *CatalogHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/catalog/locations", ch.HandleLocations)
	mux.HandleFunc("/api/catalog/droptable", ch.HandleDropTable)
	mux.HandleFunc("/api/catalog/resources", ch.HandleResources)
	mux.HandleFunc("/api/catalog/blueprints", ch.HandleBlueprints)
	mux.HandleFunc("/api/catalog/cards", ch.HandleCards)
	mux.HandleFunc("/api/catalog/levels", ch.HandleLevels)
	mux.HandleFunc("/api/players", ch.HandlePlayers)
	mux.HandleFunc("/api/history", ch.HandleHistory)
	mux.HandleFunc("/api/recap", ch.HandleRecap)
}

func (ch *CatalogHandler) allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		ch.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func (ch *CatalogHandler) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		ch.logger.Warnf("failed to write response: %v", err)
	}
}

func (ch *CatalogHandler) jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
