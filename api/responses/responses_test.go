package responses

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/mayagift/giftbloom-backend/pkg/errors"
	"github.com/mayagift/giftbloom-backend/pkg/types"
)

func TestWriteSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"hello": "world"})

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	var envelope struct {
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data["hello"] != "world" {
		t.Fatalf("unexpected payload: %+v", envelope)
	}
}

func TestWriteErrorMapsCodeAndDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.InsufficientStock("gift-1", "Rose Bouquet", 4, 1)
	WriteError(context.Background(), nil, rec, err)

	if rec.Code != 409 {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	var envelope types.ErrorEnvelope
	if decodeErr := json.Unmarshal(rec.Body.Bytes(), &envelope); decodeErr != nil {
		t.Fatalf("decode: %v", decodeErr)
	}
	if envelope.Error.Code != "INSUFFICIENT_STOCK" {
		t.Fatalf("code = %s", envelope.Error.Code)
	}
	details, ok := envelope.Error.Details.(map[string]any)
	if !ok {
		t.Fatalf("expected structured details, got %T", envelope.Error.Details)
	}
	if details["gift_id"] != "gift-1" || details["gift_name"] != "Rose Bouquet" {
		t.Fatalf("unexpected details: %v", details)
	}
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeInternal, "connection string leaked")
	WriteError(context.Background(), nil, rec, err)

	if rec.Code != 500 {
		t.Fatalf("status = %d", rec.Code)
	}
	var envelope types.ErrorEnvelope
	if decodeErr := json.Unmarshal(rec.Body.Bytes(), &envelope); decodeErr != nil {
		t.Fatalf("decode: %v", decodeErr)
	}
	if envelope.Error.Message != "internal server error" {
		t.Fatalf("internal message leaked: %q", envelope.Error.Message)
	}
}
