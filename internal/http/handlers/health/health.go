// Package health реализует HTTP-обработчик проверки живости сервиса.
//
// Обработчик опрашивает базу данных, Redis и шлюз блокчейна. Результат
// проверок кешируется на десять секунд, чтобы частые опросы балансировщика
// не нагружали зависимости. Недоступность базы данных отдаёт 503, отказ
// остальных зависимостей отражается в теле ответа как degraded.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/render"

	"github.com/car-dano/inspection-backend/internal/http/response"
	"github.com/car-dano/inspection-backend/internal/lib/sl"
)

const probeTTL = 10 * time.Second

// Pinger проверяет доступность зависимости.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ChainChecker проверяет доступность шлюза блокчейна.
type ChainChecker interface {
	Health(ctx context.Context) (bool, error)
}

type snapshot struct {
	Database   string `json:"database"`
	Redis      string `json:"redis"`
	Blockchain string `json:"blockchain"`
	healthy    bool
	takenAt    time.Time
}

// Handler обрабатывает запросы проверки живости.
type Handler struct {
	log   *slog.Logger
	db    Pinger
	redis Pinger
	chain ChainChecker

	mu   sync.Mutex
	last *snapshot
	now  func() time.Time
}

// New создает новый Handler с переданными логгером и зависимостями.
func New(log *slog.Logger, db, redis Pinger, chain ChainChecker) *Handler {
	return &Handler{
		log:   log,
		db:    db,
		redis: redis,
		chain: chain,
		now:   time.Now,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"

	snap := h.probe(r.Context())

	if !snap.healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("database unavailable"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"database":   snap.Database,
		"redis":      snap.Redis,
		"blockchain": snap.Blockchain,
	}))
}

func (h *Handler) probe(ctx context.Context) *snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.last != nil && h.now().Sub(h.last.takenAt) < probeTTL {
		return h.last
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	snap := &snapshot{
		Database:   "up",
		Redis:      "up",
		Blockchain: "up",
		healthy:    true,
		takenAt:    h.now(),
	}

	if err := h.db.Ping(ctx); err != nil {
		h.log.Error("database probe failed", sl.Err(err))
		snap.Database = "down"
		snap.healthy = false
	}
	if err := h.redis.Ping(ctx); err != nil {
		h.log.Warn("redis probe failed", sl.Err(err))
		snap.Redis = "down"
	}
	if ok, err := h.chain.Health(ctx); err != nil || !ok {
		if err != nil {
			h.log.Warn("blockchain probe failed", sl.Err(err))
		}
		snap.Blockchain = "down"
	}

	h.last = snap
	return snap
}
