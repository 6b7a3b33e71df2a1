//go:build !integration

package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"pathtech-academy/internal/domain"
	"pathtech-academy/internal/domain/model"
	"pathtech-academy/internal/usecase"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

func TestReceiptService_Upload(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*fixture, *MockBlobStore, usecase.ReceiptService, *model.Payment) {
		f := newFixture(t, usecase.PaymentPolicy{})
		blobs := NewMockBlobStore()
		svc := usecase.NewReceiptService(blobs, f.workflow, 0, newTestLogger())
		return f, blobs, svc, f.submit(t, "U", model.PlanMonthly)
	}

	t.Run("should store a png and attach it", func(t *testing.T) {
		f, blobs, svc, p := setup(t)

		ref, err := svc.Upload(ctx, usecase.ReceiptUpload{
			UserID: "U", PaymentID: p.ID, Filename: "r.png", DeclaredType: "image/png",
			Size: int64(len(pngBytes)), Body: bytes.NewReader(pngBytes),
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.HasPrefix(ref, "receipts/U/") || !strings.HasSuffix(ref, ".png") {
			t.Errorf("unexpected ref %q", ref)
		}
		if blobs.types[ref] != "image/png" {
			t.Errorf("expected sniffed content type, got %q", blobs.types[ref])
		}
		got, _ := f.payments.FindByID(ctx, nil, p.ID)
		if got.ReceiptRef == nil || *got.ReceiptRef != ref || got.Status != model.PaymentStatusPending {
			t.Fatalf("unexpected payment %+v", got)
		}
		url, err := svc.ReceiptURL(ctx, ref)
		if err != nil || url != "https://files.test/"+ref {
			t.Errorf("unexpected url %q %v", url, err)
		}
	})

	t.Run("rejects text and oversize uploads before storing", func(t *testing.T) {
		_, blobs, svc, p := setup(t)

		_, err := svc.Upload(ctx, usecase.ReceiptUpload{
			UserID: "U", PaymentID: p.ID, DeclaredType: "text/plain", Size: 5, Body: strings.NewReader("hello"),
		})
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("expected ErrValidation for text/plain, got %v", err)
		}
		_, err = svc.Upload(ctx, usecase.ReceiptUpload{
			UserID: "U", PaymentID: p.ID, DeclaredType: "image/png", Size: usecase.DefaultReceiptMaxBytes + 1, Body: bytes.NewReader(pngBytes),
		})
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("expected ErrValidation for oversize, got %v", err)
		}
		big := append(append([]byte{}, pngBytes...), make([]byte, usecase.DefaultReceiptMaxBytes)...)
		_, err = svc.Upload(ctx, usecase.ReceiptUpload{
			UserID: "U", PaymentID: p.ID, DeclaredType: "image/png", Size: 10, Body: bytes.NewReader(big),
		})
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("expected ErrValidation for an understated size, got %v", err)
		}
		if blobs.Puts != 0 {
			t.Fatalf("blob store must not be called, got %d puts", blobs.Puts)
		}
	})

	t.Run("rejects content that does not match an allowed type", func(t *testing.T) {
		_, blobs, svc, p := setup(t)
		_, err := svc.Upload(ctx, usecase.ReceiptUpload{
			UserID: "U", PaymentID: p.ID, DeclaredType: "image/png", Size: 11, Body: strings.NewReader("plain words"),
		})
		if !errors.Is(err, domain.ErrValidation) || blobs.Puts != 0 {
			t.Fatalf("expected ErrValidation with no write, got %v (%d puts)", err, blobs.Puts)
		}
	})

	t.Run("another user's payment looks missing", func(t *testing.T) {
		_, _, svc, p := setup(t)
		_, err := svc.Upload(ctx, usecase.ReceiptUpload{
			UserID: "V", PaymentID: p.ID, DeclaredType: "image/png", Size: int64(len(pngBytes)), Body: bytes.NewReader(pngBytes),
		})
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("processed payments conflict", func(t *testing.T) {
		f, _, svc, p := setup(t)
		if _, err := f.workflow.Approve(ctx, p.ID, "admin-1"); err != nil {
			t.Fatal(err)
		}
		_, err := svc.Upload(ctx, usecase.ReceiptUpload{
			UserID: "U", PaymentID: p.ID, DeclaredType: "image/png", Size: int64(len(pngBytes)), Body: bytes.NewReader(pngBytes),
		})
		if !errors.Is(err, domain.ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	})
}
