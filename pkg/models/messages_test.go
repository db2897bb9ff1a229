package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/frankrogerrm/Jobsity/pkg/models"
)

func TestStockCommand_RoundTrip(t *testing.T) {
	original := models.StockCommand{
		RequestID:   "req-123",
		StockCode:   "AAPL.US",
		Username:    "Alice",
		ChatRoomID:  1,
		RequestedAt: time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
	}

	body, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded models.StockCommand
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if decoded != original {
		t.Errorf("Round trip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestStockQuoteResponse_RoundTrip(t *testing.T) {
	original := models.StockQuoteResponse{
		RequestID:  "req-123",
		StockCode:  "AAPL.US",
		Price:      151.25,
		Message:    "AAPL.US quote is $151.25 per share",
		ChatRoomID: 1,
	}

	body, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded models.StockQuoteResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if decoded != original {
		t.Errorf("Round trip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestStockQuoteResponse_ErrorOmitsEmptyMessage(t *testing.T) {
	resp := models.StockQuoteResponse{StockCode: "X", IsError: false}
	body, _ := json.Marshal(resp)

	var raw map[string]interface{}
	json.Unmarshal(body, &raw)

	if _, present := raw["error_message"]; present {
		t.Error("error_message should be omitted when empty")
	}
}
