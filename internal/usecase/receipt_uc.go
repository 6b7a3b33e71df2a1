package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"pathtech-academy/internal/domain"
	"pathtech-academy/internal/domain/model"
	"pathtech-academy/internal/domain/ports/adapter"
)

// Compile-time check
var _ ReceiptService = (*receiptUC)(nil)

// DefaultReceiptMaxBytes caps uploaded receipts.
const DefaultReceiptMaxBytes int64 = 5 << 20

var allowedReceiptTypes = []string{"image/jpeg", "image/png", "application/pdf"}

type ReceiptUpload struct {
	UserID       string
	PaymentID    string
	Filename     string
	DeclaredType string
	Size         int64
	Body         io.Reader
}

type ReceiptService interface {
	// Upload stores a receipt for the user's own pending payment and attaches it.
	Upload(ctx context.Context, in ReceiptUpload) (string, error)
	// ReceiptURL returns a fetchable location, or "" when the store only serves
	// through OpenReceipt.
	ReceiptURL(ctx context.Context, ref string) (string, error)
	OpenReceipt(ctx context.Context, ref string) (io.ReadCloser, error)
}

type receiptUC struct {
	blobs    adapter.BlobStore
	payments PaymentWorkflow
	maxBytes int64
	log      *zerolog.Logger
}

func NewReceiptService(blobs adapter.BlobStore, payments PaymentWorkflow, maxBytes int64, logger *zerolog.Logger) *receiptUC {
	if maxBytes <= 0 {
		maxBytes = DefaultReceiptMaxBytes
	}
	l := logger.With().Str("component", "receipts").Logger()
	return &receiptUC{blobs: blobs, payments: payments, maxBytes: maxBytes, log: &l}
}

func (uc *receiptUC) Upload(ctx context.Context, in ReceiptUpload) (string, error) {
	if in.Body == nil {
		return "", fmt.Errorf("%w: receipt file is required", domain.ErrValidation)
	}
	if !mimetype.EqualsAny(in.DeclaredType, allowedReceiptTypes...) {
		return "", fmt.Errorf("%w: receipt must be a JPEG, PNG or PDF", domain.ErrValidation)
	}
	if in.Size > uc.maxBytes {
		return "", fmt.Errorf("%w: receipt exceeds %d bytes", domain.ErrValidation, uc.maxBytes)
	}

	p, err := uc.payments.GetPayment(ctx, in.PaymentID)
	if err != nil {
		return "", err
	}
	if p.UserID != in.UserID {
		// Someone else's payment looks the same as a missing one.
		return "", domain.ErrNotFound
	}
	if p.Status != model.PaymentStatusPending {
		return "", domain.ErrConflict
	}

	body, err := io.ReadAll(io.LimitReader(in.Body, uc.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read receipt: %w", err)
	}
	if int64(len(body)) > uc.maxBytes {
		return "", fmt.Errorf("%w: receipt exceeds %d bytes", domain.ErrValidation, uc.maxBytes)
	}
	mt := mimetype.Detect(body)
	if !mt.Is("image/jpeg") && !mt.Is("image/png") && !mt.Is("application/pdf") {
		return "", fmt.Errorf("%w: receipt content is %s", domain.ErrValidation, mt.String())
	}

	key := fmt.Sprintf("receipts/%s/%s%s", in.UserID, ulid.Make().String(), mt.Extension())
	ref, err := uc.blobs.Put(ctx, key, mt.String(), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	if err := uc.payments.AttachReceipt(ctx, in.PaymentID, ref); err != nil {
		uc.log.Warn().Err(err).Str("payment_id", in.PaymentID).Str("ref", ref).Msg("receipt stored but not attached")
		return "", err
	}
	uc.log.Info().
		Str("payment_id", in.PaymentID).
		Str("ref", ref).
		Str("type", mt.String()).
		Int("bytes", len(body)).
		Msg("receipt attached")
	return ref, nil
}

func (uc *receiptUC) ReceiptURL(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", domain.ErrNotFound
	}
	return uc.blobs.URL(ctx, ref)
}

func (uc *receiptUC) OpenReceipt(ctx context.Context, ref string) (io.ReadCloser, error) {
	if ref == "" {
		return nil, domain.ErrNotFound
	}
	return uc.blobs.Open(ctx, ref)
}
