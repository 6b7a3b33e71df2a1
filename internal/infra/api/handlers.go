package api

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pathtech-academy/internal/domain"
	"pathtech-academy/internal/domain/model"
	"pathtech-academy/internal/infra/logging"
	"pathtech-academy/internal/usecase"
)

// multipartOverhead is the slack allowed on top of the receipt cap for form framing.
const multipartOverhead = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ---- access ----

func (s *Server) handleAccessCheck(w http.ResponseWriter, r *http.Request) {
	ref := itemRefDTO{Kind: chi.URLParam(r, "kind"), ID: chi.URLParam(r, "id")}
	if err := validateStruct(ref); err != nil {
		s.fail(w, r, err)
		return
	}
	id := IdentityFrom(r.Context())
	writeJSON(w, http.StatusOK, toAccessView(s.gateway.Check(r.Context(), id.UserID, ref.toModel())))
}

func (s *Server) handleAccessBulk(w http.ResponseWriter, r *http.Request) {
	var req bulkAccessRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	refs := make([]model.ItemRef, 0, len(req.Items))
	for _, it := range req.Items {
		refs = append(refs, it.toModel())
	}
	id := IdentityFrom(r.Context())
	res, err := s.gateway.BulkCheck(r.Context(), id.UserID, refs)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := bulkAccessDTO{Configured: res.Configured, Items: make(map[string]accessViewDTO, len(res.Items))}
	for k, v := range res.Items {
		out.Items[k] = toAccessView(v)
	}
	writeJSON(w, http.StatusOK, out)
}

// ---- payments ----

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	id := IdentityFrom(r.Context())
	p, err := s.payments.CreatePayment(r.Context(), usecase.CreatePaymentInput{
		UserID:   id.UserID,
		Item:     req.Item.toModel(),
		PlanType: model.PlanType(req.PlanType),
		Amount:   req.Amount,
		Currency: req.Currency,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPayment(p))
}

func (s *Server) handleListMyPayments(w http.ResponseWriter, r *http.Request) {
	id := IdentityFrom(r.Context())
	list, err := s.payments.ListUserPayments(r.Context(), id.UserID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": toPayments(list)})
}

func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "id")
	ctx := logging.WithPaymentID(r.Context(), paymentID)

	r.Body = http.MaxBytesReader(w, r.Body, s.receiptMaxBytes+multipartOverhead)
	file, hdr, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(w, r, fmt.Errorf("%w: receipt exceeds %d bytes", domain.ErrValidation, s.receiptMaxBytes))
			return
		}
		s.fail(w, r, fmt.Errorf("%w: multipart field \"file\" is required", domain.ErrValidation))
		return
	}
	defer file.Close()

	id := IdentityFrom(ctx)
	ref, err := s.receipts.Upload(ctx, usecase.ReceiptUpload{
		UserID:       id.UserID,
		PaymentID:    paymentID,
		Filename:     hdr.Filename,
		DeclaredType: hdr.Header.Get("Content-Type"),
		Size:         hdr.Size,
		Body:         file,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"payment_id": paymentID, "receipt_ref": ref})
}

// ---- admin ----

func (s *Server) handleListPending(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	list, err := s.payments.ListPending(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": toPayments(list)})
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "id")
	admin := IdentityFrom(r.Context())
	rec, err := s.payments.Approve(logging.WithPaymentID(r.Context(), paymentID), paymentID, admin.UserID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccessRecord(rec))
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "id")
	var req rejectRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	admin := IdentityFrom(r.Context())
	if err := s.payments.Reject(logging.WithPaymentID(r.Context(), paymentID), paymentID, admin.UserID, req.Reason); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReceipt(w http.ResponseWriter, r *http.Request) {
	p, err := s.payments.GetPayment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if p.ReceiptRef == nil {
		s.fail(w, r, fmt.Errorf("%w: payment has no receipt", domain.ErrNotFound))
		return
	}
	ref := *p.ReceiptRef
	url, err := s.receipts.ReceiptURL(r.Context(), ref)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if url != "" {
		http.Redirect(w, r, url, http.StatusFound)
		return
	}

	rc, err := s.receipts.OpenReceipt(r.Context(), ref)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer rc.Close()
	if ct := mime.TypeByExtension(path.Ext(ref)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Content-Disposition", "inline; filename="+strconv.Quote(path.Base(ref)))
	if _, err := io.Copy(w, rc); err != nil {
		l := logging.With(r.Context(), s.log)
		l.Warn().Err(err).Str("ref", ref).Msg("receipt stream interrupted")
	}
}

func (s *Server) handleExpiring(w http.ResponseWriter, r *http.Request) {
	days := 0
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 366 {
			s.fail(w, r, fmt.Errorf("%w: days must be between 1 and 366", domain.ErrValidation))
			return
		}
		days = n
	}
	recs, err := s.sweeper.ListExpiringSoon(r.Context(), days)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]accessRecordDTO, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toAccessRecord(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	res, err := s.sweep.RunOnce(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sweepDTO{
		DeactivatedCount: res.DeactivatedCount,
		UsersReconciled:  res.UsersReconciled,
		Skipped:          res.Skipped,
	})
}

func (s *Server) handleRebuildSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.sweeper.RebuildSummary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryDTO{
		UserID:    sum.UserID,
		Status:    string(sum.Status),
		StartDate: sum.StartDate,
		EndDate:   sum.EndDate,
	})
}
