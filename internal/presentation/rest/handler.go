package rest

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/barkshad/fuliza/internal/application/dto"
	"github.com/barkshad/fuliza/internal/application/usecase"
	"github.com/barkshad/fuliza/internal/domain/model"
	"github.com/barkshad/fuliza/internal/domain/valueobject"
	"github.com/barkshad/fuliza/pkg/auth"
)

const (
	maxUploadBytes    = 15 << 20
	multipartInMemory = 4 << 20

	callbackSecretHeader = "X-Callback-Secret"
)

type kycSubmitter interface {
	Execute(ctx context.Context, req dto.SubmitKYCRequest) (dto.ProfileResponse, error)
}

type masterRecordExporter interface {
	Execute(ctx context.Context) (dto.ExportResponse, error)
}

type paymentConfirmer interface {
	Execute(ctx context.Context, cb dto.PaymentCallback) error
}

// BoostHandler serves the parts of the API that do not fit gRPC: multipart
// document upload, the admin export and the payment webhook.
type BoostHandler struct {
	kyc            kycSubmitter
	export         masterRecordExporter
	confirm        paymentConfirmer
	callbackSecret string
	logger         *slog.Logger
}

// NewBoostHandler creates a BoostHandler. The webhook is only routed when
// callbackSecret is set.
func NewBoostHandler(kyc kycSubmitter, export masterRecordExporter, confirm paymentConfirmer, callbackSecret string, logger *slog.Logger) *BoostHandler {
	return &BoostHandler{kyc: kyc, export: export, confirm: confirm, callbackSecret: callbackSecret, logger: logger}
}

func (h *BoostHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/kyc", h.submitKYC)
	mux.HandleFunc("POST /v1/admin/export", h.exportMasterRecord)
	if h.callbackSecret != "" {
		mux.HandleFunc("POST /v1/payments/callback", h.paymentCallback)
	}
}

func (h *BoostHandler) submitKYC(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok || claims.UserID == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(multipartInMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	req := dto.SubmitKYCRequest{UID: claims.UserID}
	for field, dst := range map[string]*dto.Upload{
		"id_front": &req.IDFront,
		"id_back":  &req.IDBack,
		"selfie":   &req.Selfie,
	} {
		file, header, err := r.FormFile(field)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid file "+field)
			return
		}
		defer func(f multipart.File) { _ = f.Close() }(file)
		*dst = dto.Upload{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        file,
		}
	}

	resp, err := h.kyc.Execute(r.Context(), req)
	if err != nil {
		h.fail(w, r, "submit kyc", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *BoostHandler) exportMasterRecord(w http.ResponseWriter, r *http.Request) {
	resp, err := h.export.Execute(r.Context())
	if err != nil {
		h.fail(w, r, "export master record", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *BoostHandler) paymentCallback(w http.ResponseWriter, r *http.Request) {
	got := r.Header.Get(callbackSecretHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(h.callbackSecret)) != 1 {
		writeError(w, http.StatusUnauthorized, "invalid callback secret")
		return
	}

	var cb dto.PaymentCallback
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&cb); err != nil {
		writeError(w, http.StatusBadRequest, "invalid callback body")
		return
	}
	if cb.CheckoutRequestID == "" {
		writeError(w, http.StatusBadRequest, "checkout_request_id is required")
		return
	}
	if err := h.confirm.Execute(r.Context(), cb); err != nil {
		h.fail(w, r, "confirm payment", err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *BoostHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	code := httpStatus(err)
	if code >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), op+" failed", "error", err)
		writeError(w, code, "internal error")
		return
	}
	writeError(w, code, err.Error())
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, usecase.ErrMissingDocument),
		errors.Is(err, usecase.ErrMissingIdentity),
		errors.Is(err, valueobject.ErrInvalidPhoneNumber):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrProfileNotFound),
		errors.Is(err, model.ErrCheckoutNotFound):
		return http.StatusNotFound
	case errors.Is(err, valueobject.ErrInvalidStatusTransition),
		errors.Is(err, valueobject.ErrInvalidCheckoutTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
