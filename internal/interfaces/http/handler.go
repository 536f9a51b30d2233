package httpinterface

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/btc-wallet-adapter/internal/core/domain"
	"go.uber.org/ratelimit"
)

type handler struct {
	opts     ServiceOpts
	events   *eventHub
	limiter  ratelimit.Limiter
	upgrader websocket.Upgrader
}

func newHandler(opts ServiceOpts) *handler {
	limiter := ratelimit.NewUnlimited()
	if opts.PromptRateLimit > 0 {
		limiter = ratelimit.New(opts.PromptRateLimit)
	}
	if opts.DefaultNetwork == "" {
		opts.DefaultNetwork = domain.NetworkTestnet
	}

	events := newEventHub(opts.WalletSvc.State)
	opts.WalletSvc.AddListener(events)

	return &handler{
		opts:    opts,
		events:  events,
		limiter: limiter,
		upgrader: websocket.Upgrader{
			CheckOrigin: checkOrigin(opts.AllowedOrigins),
		},
	}
}

func (h *handler) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/providers", h.listProviders)
	mux.HandleFunc("GET /v1/state", h.getState)
	mux.HandleFunc("POST /v1/connect", h.throttle(h.connect))
	mux.HandleFunc("POST /v1/disconnect", h.disconnect)
	mux.HandleFunc("POST /v1/sign/psbt", h.throttle(h.signPsbt))
	mux.HandleFunc("POST /v1/sign/message", h.throttle(h.signMessage))
	mux.HandleFunc("GET /v1/activity", h.listActivity)
	mux.HandleFunc("GET /v1/activity/{id}", h.getActivity)
	mux.HandleFunc("GET /v1/events", h.streamEvents)
	mux.HandleFunc("GET /v1/bridge", h.serveBridge)

	if h.opts.Metrics != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(
			h.opts.Metrics.Registry(), promhttp.HandlerOpts{},
		))
	}

	return mux
}

// throttle paces the requests that end up prompting the user.
func (h *handler) throttle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.limiter.Take()
		next(w, r)
	}
}

func (h *handler) listProviders(w http.ResponseWriter, _ *http.Request) {
	wallets := h.opts.Detector.Wallets()

	detections := make(map[domain.WalletName]bool, len(wallets))
	providers := make([]providerInfo, 0, len(wallets))
	for _, info := range wallets {
		detections[info.Name] = info.Detected
		providers = append(providers, providerInfo{
			Name:        info.Name.String(),
			DisplayName: info.DisplayName,
			Detected:    info.Detected,
		})
	}
	if h.opts.Metrics != nil {
		h.opts.Metrics.SetDetected(detections)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"providers": providers})
}

func (h *handler) getState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toStateResponse(h.opts.WalletSvc.State()))
}

func (h *handler) connect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	name := domain.WalletName(strings.ToLower(strings.TrimSpace(req.Wallet)))
	network := h.opts.DefaultNetwork
	if req.Network != "" {
		var err error
		if network, err = domain.ParseNetwork(req.Network); err != nil {
			writeError(w, err)
			return
		}
	}

	if _, err := h.opts.WalletSvc.Connect(r.Context(), name, network); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStateResponse(h.opts.WalletSvc.State()))
}

func (h *handler) disconnect(w http.ResponseWriter, _ *http.Request) {
	h.opts.WalletSvc.Disconnect()
	writeJSON(w, http.StatusOK, toStateResponse(h.opts.WalletSvc.State()))
}

func (h *handler) signPsbt(w http.ResponseWriter, r *http.Request) {
	var req signPsbtRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	signed, err := h.opts.WalletSvc.SignPsbt(
		r.Context(), req.toDomain(), req.Broadcast, nil,
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, signPsbtResponse{signed})
}

func (h *handler) signMessage(w http.ResponseWriter, r *http.Request) {
	var req signMessageRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Message == "" {
		writeError(w, fmt.Errorf("%w: missing message", domain.ErrInvalidRequest))
		return
	}

	sig, err := h.opts.WalletSvc.SignMessage(
		r.Context(), req.Message, domain.MessageScheme(req.Scheme), nil,
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, signMessageResponse{sig})
}

func (h *handler) listActivity(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var wallet domain.WalletName
	if name := query.Get("wallet"); name != "" {
		var err error
		if wallet, err = domain.ParseWalletName(name); err != nil {
			writeError(w, err)
			return
		}
	}
	pageNumber, err := intParam(query, "page")
	if err != nil {
		writeError(w, err)
		return
	}
	pageSize, err := intParam(query, "limit")
	if err != nil {
		writeError(w, err)
		return
	}

	activities, err := h.opts.ActivityRepo.ListActivities(
		r.Context(), wallet, domain.NewPage(pageNumber, pageSize),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := activityResponse{make([]activity, 0, len(activities))}
	for _, a := range activities {
		resp.Activities = append(resp.Activities, toActivity(a))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) getActivity(w http.ResponseWriter, r *http.Request) {
	a, err := h.opts.ActivityRepo.GetActivity(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toActivity(*a))
}

// streamEvents sends the current state once, then an event for every
// activity of the wallet service until the client goes away.
func (h *handler) streamEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Debug("events: failed to upgrade connection")
		return
	}
	defer conn.Close()

	chEvents, release := h.events.subscribe()
	defer release()

	go func() {
		defer release()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	initial := event{State: toStateResponse(h.opts.WalletSvc.State())}
	if err := conn.WriteJSON(initial); err != nil {
		return
	}
	for ev := range chEvents {
		if err := conn.WriteJSON(ev); err != nil {
			log.WithError(err).Debug("events: subscriber went away")
			return
		}
	}
}

func (h *handler) serveBridge(w http.ResponseWriter, r *http.Request) {
	if h.opts.Bridge == nil {
		writeError(w, ErrBridgeDisabled)
		return
	}
	if err := h.opts.Pairing.VerifyToken(r.URL.Query().Get("token")); err != nil {
		log.WithError(err).Warn("bridge: rejected pairing attempt")
		writeError(w, ErrUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Debug("bridge: failed to upgrade connection")
		return
	}
	h.opts.Bridge.Serve(conn)
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	if len(allowed) <= 0 {
		return nil
	}
	origins := make(map[string]bool, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		origins[strings.TrimSuffix(origin, "/")] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || origins[origin]
	}
}

func intParam(query url.Values, key string) (int, error) {
	value := query.Get(key)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a positive number", domain.ErrInvalidRequest, key)
	}
	return n, nil
}

func decodeBody(r *http.Request, dest interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return fmt.Errorf("%w: %w: %s", domain.ErrInvalidRequest, ErrMalformedBody, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Warn("failed to write response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		log.WithError(err).Warn("request failed")
	}
	writeJSON(w, status, errorResponse{
		Error: err.Error(),
		Kind:  domain.KindOf(err),
	})
}
