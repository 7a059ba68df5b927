package service

import (
	"context"
	"net/http"
	"strconv"

	"openclaw/internal/models"
	"openclaw/pkg/logger"

	"github.com/bytedance/sonic"
)

type TradeLister interface {
	RecentTrades(ctx context.Context, limit int) ([]models.Trade, error)
	CloseTrade(ctx context.Context, id int64, profitLoss float64) error
}

type SignalInjector interface {
	InjectSignal(sig models.ExternalSignal) error
}

const recentTradesLimit = 50

type Handlers struct {
	state     *State
	trades    TradeLister
	injector  SignalInjector
	authToken string
}

func NewHandlers(state *State, trades TradeLister, injector SignalInjector, authToken string) *Handlers {
	return &Handlers{
		state:     state,
		trades:    trades,
		injector:  injector,
		authToken: authToken,
	}
}

func NewMux(h *Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !h.state.Ready() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"ready":     h.state.Ready(),
			"uptimeSec": int64(h.state.Uptime().Seconds()),
			"ticks":     h.state.Ticks(),
			"lastTickUnix": func() int64 {
				t := h.state.LastTick()
				if t.IsZero() {
					return 0
				}
				return t.Unix()
			}(),
		}
		writeJSON(w, http.StatusOK, resp)
	})

	mux.HandleFunc("/trades", h.handleTrades)
	mux.HandleFunc("/trades/close", h.handleClose)
	mux.HandleFunc("/signal", h.handleSignal)

	return mux
}

func (h *Handlers) handleTrades(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	trades, err := h.trades.RecentTrades(r.Context(), recentTradesLimit)
	if err != nil {
		logger.Error("[SERVER] list trades: %v", err)
		http.Error(w, "failed to fetch trades", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, trades)
}

// handleSignal — инжект внешнего сигнала, закрыт общим секретом.
func (h *Handlers) handleSignal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !h.authorized(r) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var sig models.ExternalSignal
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&sig); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	if sig.Symbol == "" || sig.Action == "" {
		http.Error(w, "symbol and action are required", http.StatusBadRequest)
		return
	}

	if err := h.injector.InjectSignal(sig); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (h *Handlers) handleClose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !h.authorized(r) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var req struct {
		ID         int64   `json:"id"`
		ProfitLoss float64 `json:"profit_loss"`
	}
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == 0 {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	if err := h.trades.CloseTrade(r.Context(), req.ID, req.ProfitLoss); err != nil {
		logger.Error("[SERVER] close trade %d: %v", req.ID, err)
		http.Error(w, "close failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "closed", "id": strconv.FormatInt(req.ID, 10)})
}

// authorized: пустой секрет = инжект выключен совсем.
func (h *Handlers) authorized(r *http.Request) bool {
	return h.authToken != "" && r.Header.Get("X-Auth-Token") == h.authToken
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, "encode error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
