package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Albkings1/bot/internal/application"
	"github.com/Albkings1/bot/internal/domain"
)

// Server exposes the operator API: user listing, license management and
// direct quote reads. Quote reads are not charged against any quota.
type Server struct {
	ledger *application.Ledger
	quotes application.QuoteFetcher
	ping   func(context.Context) error

	mu   sync.Mutex
	rand *rand.Rand
}

func NewServer(ledger *application.Ledger, quotes application.QuoteFetcher, ping func(context.Context) error) *Server {
	return &Server{
		ledger: ledger,
		quotes: quotes,
		ping:   ping,
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

type userResp struct {
	UserID       int64  `json:"user_id"`
	Username     string `json:"username"`
	Premium      bool   `json:"premium"`
	LifetimeUses int    `json:"lifetime_uses"`
	DailyUses    int    `json:"daily_uses"`
	LastUseDate  string `json:"last_use_date"`
	LicenseKey   string `json:"license_key,omitempty"`
	JoinedAt     string `json:"joined_at"`
}

func toUserResp(u domain.User) userResp {
	return userResp{
		UserID:       u.ID,
		Username:     u.Username,
		Premium:      u.Premium,
		LifetimeUses: u.LifetimeUses,
		DailyUses:    u.DailyUses,
		LastUseDate:  u.LastUseDate,
		LicenseKey:   u.LicenseKey,
		JoinedAt:     u.JoinedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.ledger.ListUsers(r.Context())
	if err != nil {
		internalError(w)
		return
	}
	out := make([]userResp, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResp(u))
	}
	writeJSON(w, http.StatusOK, out)
}

type issueLicenseReq struct {
	DurationDays int `json:"duration_days"`
}

type issueLicenseResp struct {
	Key          string `json:"key"`
	DurationDays int    `json:"duration_days"`
	CreatedAt    string `json:"created_at"`
}

func (s *Server) IssueLicense(w http.ResponseWriter, r *http.Request) {
	var body issueLicenseReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.DurationDays <= 0 {
		body.DurationDays = 30
	}

	s.mu.Lock()
	key := application.RandomLicenseKey(s.rand)
	s.mu.Unlock()

	l, err := s.ledger.IssueLicense(r.Context(), key, body.DurationDays)
	if err != nil {
		internalError(w)
		return
	}
	writeJSON(w, http.StatusCreated, issueLicenseResp{
		Key:          l.Key,
		DurationDays: l.DurationDays,
		CreatedAt:    l.CreatedAt.UTC().Format(time.RFC3339),
	})
}

func (s *Server) RevokeLicense(w http.ResponseWriter, r *http.Request, rawID string) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if err := s.ledger.RevokeLicense(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, application.ErrNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		case errors.Is(err, application.ErrNoActiveLicense):
			writeError(w, http.StatusConflict, "user has no active license")
		default:
			internalError(w)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type quoteResp struct {
	Pair      string  `json:"pair"`
	Price     float64 `json:"price"`
	Bid       float64 `json:"bid"`
	Ask       float64 `json:"ask"`
	Strength  float64 `json:"strength"`
	Category  string  `json:"category"`
	Trend     string  `json:"trend"`
	Timestamp string  `json:"timestamp"`
	Synthetic bool    `json:"synthetic"`
}

func (s *Server) GetQuote(w http.ResponseWriter, r *http.Request) {
	pair := r.URL.Query().Get("pair")
	if !domain.ValidatePair(pair) {
		writeError(w, http.StatusBadRequest, "invalid pair, expected BASE/QUOTE")
		return
	}
	q := s.quotes.Fetch(r.Context(), domain.Pair(pair), false)
	writeJSON(w, http.StatusOK, quoteResp{
		Pair:      string(q.Pair),
		Price:     q.Price,
		Bid:       q.Bid,
		Ask:       q.Ask,
		Strength:  q.Strength,
		Category:  string(q.Category),
		Trend:     string(q.Trend),
		Timestamp: q.Timestamp.UTC().Format(time.RFC3339),
		Synthetic: q.Synthetic,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func internalError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}
