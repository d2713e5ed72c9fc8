package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	checkoutapp "github.com/tbeaudouin05/admin-checkout/api/services/checkout/app"
	gw "github.com/tbeaudouin05/admin-checkout/api/services/checkout/gateway"
	profileapp "github.com/tbeaudouin05/admin-checkout/api/services/profile/app"
)

const maxRequestBytes = 64 << 10

type handlers struct {
	mux      *runtime.ServeMux
	checkout checkoutapp.Service
	profile  profileapp.Service
}

type startCheckoutRequest struct {
	Email  string `json:"email"`
	Name   string `json:"name"`
	Price  int64  `json:"price"`
	Member int64  `json:"member"`
}

type changePackageRequest struct {
	Price  int64 `json:"price"`
	Member int64 `json:"member"`
}

type submitPaymentRequest struct {
	Card gw.CardInput `json:"card"`
}

// submitPaymentResponse carries the form state even when the card was refused.
type submitPaymentResponse struct {
	checkoutapp.SubmitResult
	Error string `json:"error,omitempty"`
}

var errServiceUnavailable = errors.New("service not initialized")

func (h *handlers) startCheckout(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	if h.checkout == nil {
		h.writeError(w, r, errServiceUnavailable)
		return
	}
	var req startCheckoutRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	sess, err := h.checkout.StartCheckout(r.Context(), checkoutapp.StartRequest{
		Email:   req.Email,
		Name:    req.Name,
		Package: checkoutapp.PackageInfo{Price: req.Price, Member: req.Member},
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (h *handlers) getCheckout(w http.ResponseWriter, r *http.Request, params map[string]string) {
	if h.checkout == nil {
		h.writeError(w, r, errServiceUnavailable)
		return
	}
	sess, err := h.checkout.GetCheckout(params["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *handlers) changePackage(w http.ResponseWriter, r *http.Request, params map[string]string) {
	if h.checkout == nil {
		h.writeError(w, r, errServiceUnavailable)
		return
	}
	var req changePackageRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	sess, err := h.checkout.ChangePackage(r.Context(), params["id"], checkoutapp.PackageInfo{Price: req.Price, Member: req.Member})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *handlers) submitPayment(w http.ResponseWriter, r *http.Request, params map[string]string) {
	if h.checkout == nil {
		h.writeError(w, r, errServiceUnavailable)
		return
	}
	var req submitPaymentRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.checkout.SubmitPayment(r.Context(), params["id"], req.Card)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, submitPaymentResponse{SubmitResult: res})
	case errors.Is(err, checkoutapp.ErrTokenization), errors.Is(err, checkoutapp.ErrConfirmation):
		writeJSON(w, http.StatusPaymentRequired, submitPaymentResponse{SubmitResult: res, Error: res.View.CardError})
	default:
		h.writeError(w, r, err)
	}
}

func (h *handlers) cancelCheckout(w http.ResponseWriter, r *http.Request, params map[string]string) {
	if h.checkout == nil {
		h.writeError(w, r, errServiceUnavailable)
		return
	}
	if err := h.checkout.CancelCheckout(params["id"]); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) getProfile(w http.ResponseWriter, r *http.Request, params map[string]string) {
	if h.profile == nil {
		h.writeError(w, r, errServiceUnavailable)
		return
	}
	view, err := h.profile.GetProfile(r.Context(), params["email"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type decodeError struct{ err error }

func (e decodeError) Error() string { return fmt.Sprintf("invalid request body: %v", e.err) }

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return decodeError{err: err}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err the way grpc-gateway renders a gRPC status.
func (h *handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	runtime.HTTPError(r.Context(), h.mux, &runtime.JSONPb{}, w, r, status.Error(codeFor(err), err.Error()))
}

func codeFor(err error) codes.Code {
	var de decodeError
	switch {
	case errors.As(err, &de),
		errors.Is(err, checkoutapp.ErrBadRequest),
		errors.Is(err, profileapp.ErrBadRequest):
		return codes.InvalidArgument
	case errors.Is(err, checkoutapp.ErrSessionNotFound):
		return codes.NotFound
	case errors.Is(err, checkoutapp.ErrNotReady),
		errors.Is(err, checkoutapp.ErrClosed),
		errors.Is(err, checkoutapp.ErrTokenization),
		errors.Is(err, checkoutapp.ErrConfirmation):
		return codes.FailedPrecondition
	case errors.Is(err, checkoutapp.ErrBusy),
		errors.Is(err, checkoutapp.ErrStale):
		return codes.Aborted
	case errors.Is(err, checkoutapp.ErrAlreadyPaid):
		return codes.AlreadyExists
	case errors.Is(err, checkoutapp.ErrSecretFetch),
		errors.Is(err, checkoutapp.ErrBackend),
		errors.Is(err, profileapp.ErrBackend),
		errors.Is(err, errServiceUnavailable):
		return codes.Unavailable
	}
	return codes.Internal
}
