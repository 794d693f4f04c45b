package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/mselser95/claimpool/internal/resolution"
	"github.com/mselser95/claimpool/internal/settlement"
	"github.com/mselser95/claimpool/pkg/cache"
	"github.com/mselser95/claimpool/pkg/types"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// RecordStore is the read side of the settlement store.
type RecordStore interface {
	LoadReputation(ctx context.Context, participant common.Address) (types.ReputationRecord, bool, error)
	LoadSettlement(ctx context.Context, poolID uint64) (*resolution.SettlementRecord, bool, error)
}

// SettlementHandler serves settlement previews, breakdowns and reputation.
type SettlementHandler struct {
	view     *settlement.View
	records  RecordStore
	cache    *cache.ReputationCache
	validate *validator.Validate
	logger   *zap.Logger
}

// NewSettlementHandler creates a handler. records and reputationCache may be nil.
func NewSettlementHandler(
	view *settlement.View,
	records RecordStore,
	reputationCache *cache.ReputationCache,
	logger *zap.Logger,
) *SettlementHandler {
	return &SettlementHandler{
		view:     view,
		records:  records,
		cache:    reputationCache,
		validate: validator.New(),
		logger:   logger,
	}
}

// HandleCompute handles POST /api/settlements/compute.
func (h *SettlementHandler) HandleCompute(w http.ResponseWriter, r *http.Request) {
	var req ComputeRequest
	if !h.decode(w, r, &req) {
		return
	}

	breakdown, err := h.view.Settle(*req.Pool, req.Stakes)
	if err != nil {
		h.writeDomainError(w, "compute", err)
		return
	}

	h.writeJSON(w, http.StatusOK, breakdown)
}

// HandlePreview handles POST /api/settlements/preview.
func (h *SettlementHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if !h.decode(w, r, &req) {
		return
	}

	preview, err := h.view.PreviewStake(*req.Pool, req.Choice, req.Amount)
	if err != nil {
		h.writeDomainError(w, "preview", err)
		return
	}

	h.writeJSON(w, http.StatusOK, preview)
}

// HandlePayout handles POST /api/settlements/payout.
func (h *SettlementHandler) HandlePayout(w http.ResponseWriter, r *http.Request) {
	var req PayoutRequest
	if !h.decode(w, r, &req) {
		return
	}

	payout, err := h.view.ParticipantPayout(*req.Pool, req.Stakes, common.HexToAddress(req.Participant))
	if err != nil {
		h.writeDomainError(w, "payout", err)
		return
	}

	h.writeJSON(w, http.StatusOK, payout)
}

// HandleSummarize handles POST /api/reputation/summarize. Identical
// requests are answered from cache.
func (h *SettlementHandler) HandleSummarize(w http.ResponseWriter, r *http.Request) {
	var req SummarizeRequest
	if !h.decode(w, r, &req) {
		return
	}
	participant := common.HexToAddress(req.Participant)

	var key string
	if h.cache != nil {
		canonical, err := json.Marshal(req.History)
		if err == nil {
			key = cache.SummaryKey(participant, canonical)
			if rec, ok := h.cache.Summary(key); ok {
				h.writeJSON(w, http.StatusOK, rec)
				return
			}
		}
	}

	record, err := h.view.Summarize(participant, req.History)
	if err != nil {
		h.writeDomainError(w, "summarize", err)
		return
	}

	if key != "" {
		h.cache.SetSummary(key, record)
	}
	h.writeJSON(w, http.StatusOK, record)
}

// HandleGetReputation handles GET /api/reputation/{participant}.
func (h *SettlementHandler) HandleGetReputation(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "participant")
	if err := h.validate.Var(raw, "required,eth_addr"); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid participant address", "")
		return
	}
	participant := common.HexToAddress(raw)

	if h.cache != nil {
		if rec, ok := h.cache.Record(participant); ok {
			h.writeJSON(w, http.StatusOK, rec)
			return
		}
	}

	rec, found, err := h.records.LoadReputation(r.Context(), participant)
	if err != nil {
		h.logger.Error("reputation-load-failed",
			zap.String("participant", participant.Hex()),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to load reputation", "")
		return
	}
	if !found {
		h.writeError(w, http.StatusNotFound, "no reputation recorded for participant", "")
		return
	}

	if h.cache != nil {
		h.cache.SetRecord(rec)
	}
	h.writeJSON(w, http.StatusOK, rec)
}

// HandleGetSettlement handles GET /api/settlements/{poolID}.
func (h *SettlementHandler) HandleGetSettlement(w http.ResponseWriter, r *http.Request) {
	poolID, err := strconv.ParseUint(chi.URLParam(r, "poolID"), 10, 64)
	if err != nil || poolID == 0 {
		h.writeError(w, http.StatusBadRequest, "invalid pool id", "")
		return
	}

	record, found, err := h.records.LoadSettlement(r.Context(), poolID)
	if err != nil {
		h.logger.Error("settlement-load-failed",
			zap.Uint64("pool-id", poolID),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to load settlement", "")
		return
	}
	if !found {
		h.writeError(w, http.StatusNotFound, "pool has not been settled", "")
		return
	}

	h.writeJSON(w, http.StatusOK, record)
}

func (h *SettlementHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "malformed request: "+err.Error(), "")
		return false
	}

	err = h.validate.Struct(dst)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error(), "")
		return false
	}

	return true
}

// writeDomainError maps settlement errors to status codes: state misuse is
// 409, invariant violations and overflow are 422.
func (h *SettlementHandler) writeDomainError(w http.ResponseWriter, op string, err error) {
	kind := types.ErrorKind(err)

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, types.ErrPoolNotActive), errors.Is(err, types.ErrPoolNotResolved):
		status = http.StatusConflict
		kind = types.KindState
	case kind == types.KindInvariant, kind == types.KindOverflow:
		status = http.StatusUnprocessableEntity
	}

	h.logger.Debug("settlement-request-rejected",
		zap.String("operation", op),
		zap.String("kind", kind),
		zap.Error(err))

	h.writeError(w, status, err.Error(), kind)
}

func (h *SettlementHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(err))
	}
}

func (h *SettlementHandler) writeError(w http.ResponseWriter, status int, message, kind string) {
	h.writeJSON(w, status, ErrorResponse{Error: message, Kind: kind})
}
