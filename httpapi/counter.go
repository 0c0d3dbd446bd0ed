package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/blockberries/counterberry/controller"
)

type clearView struct {
	Handle string `json:"handle"`
	Value  int64  `json:"value"`
}

type counterView struct {
	Contract     string     `json:"contract"`
	Handle       string     `json:"handle,omitempty"`
	HasHandle    bool       `json:"has_handle"`
	Clear        *clearView `json:"clear,omitempty"`
	IsDecrypted  bool       `json:"is_decrypted"`
	Message      string     `json:"message"`
	State        string     `json:"state"`
	IsMutating   bool       `json:"is_mutating"`
	IsRefreshing bool       `json:"is_refreshing"`
	IsDecrypting bool       `json:"is_decrypting"`
	CanMutate    bool       `json:"can_mutate"`
	CanRefresh   bool       `json:"can_refresh"`
	CanDecrypt   bool       `json:"can_decrypt"`
}

type counterResponse struct {
	RequestID string      `json:"request_id"`
	Counter   counterView `json:"counter"`
}

func (s *Server) view() counterView {
	snap := s.counter.Snapshot()
	v := counterView{
		Contract:     snap.ContractAddress.Hex(),
		HasHandle:    snap.HasHandle,
		IsDecrypted:  snap.IsDecrypted,
		Message:      snap.Message,
		State:        snap.State.String(),
		IsMutating:   snap.IsMutating(),
		IsRefreshing: snap.IsRefreshing(),
		IsDecrypting: snap.IsDecrypting(),
		CanMutate:    s.counter.CanMutate(),
		CanRefresh:   s.counter.CanRefresh(),
		CanDecrypt:   s.counter.CanDecrypt(),
	}
	if snap.HasHandle {
		v.Handle = snap.Handle.Hex()
	}
	if snap.HasClear {
		v.Clear = &clearView{Handle: snap.Clear.Handle.Hex(), Value: snap.Clear.Value}
	}
	return v
}

func (s *Server) writeCounter(w http.ResponseWriter, requestID string) {
	writeJSON(w, http.StatusOK, counterResponse{RequestID: requestID, Counter: s.view()})
}

func (s *Server) getCounter(w http.ResponseWriter, r *http.Request) {
	s.writeCounter(w, newRequestID())
}

func (s *Server) mutate(w http.ResponseWriter, r *http.Request) {
	requestID := newRequestID()
	var req struct {
		Delta *int64 `json:"delta"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, requestID, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	if req.Delta == nil {
		writeError(w, requestID, http.StatusBadRequest, "bad_json", "delta is required")
		return
	}
	s.finish(w, requestID, s.counter.Mutate(detach(r), *req.Delta))
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	requestID := newRequestID()
	s.finish(w, requestID, s.counter.RefreshHandle(detach(r)))
}

func (s *Server) decrypt(w http.ResponseWriter, r *http.Request) {
	requestID := newRequestID()
	s.finish(w, requestID, s.counter.Decrypt(detach(r)))
}

// detach drops request cancellation; the controller's step timeouts bound
// each operation.
func detach(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func (s *Server) finish(w http.ResponseWriter, requestID string, err error) {
	if err != nil {
		s.logger.Info().Str("request_id", requestID).Err(err).Msg("operation failed")
		writeError(w, requestID, statusFor(err), errorCode(err), err.Error())
		return
	}
	s.writeCounter(w, requestID)
}

func errorCode(err error) string {
	if code := controller.CodeOf(err); code != "" {
		return string(code)
	}
	return "internal"
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, controller.ErrNotReady):
		return http.StatusConflict
	case errors.Is(err, controller.ErrInvalidDelta):
		return http.StatusBadRequest
	case errors.Is(err, controller.ErrAuthorizationDeclined):
		return http.StatusForbidden
	case errors.Is(err, controller.ErrMutationFailed),
		errors.Is(err, controller.ErrReadFailed),
		errors.Is(err, controller.ErrDecryptionFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
