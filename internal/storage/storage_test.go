package storage

import (
	"bytes"
	"context"
	"io"
	"math/big"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/zap"

	"github.com/rexeee/mai-protocol/pkg/types"
)

func testEvent() *types.SettlementEvent {
	return &types.SettlementEvent{
		ID:             "3f2a9d4e-0000-0000-0000-000000000001",
		MatchID:        "9b1c2e7f-0000-0000-0000-000000000002",
		MarketContract: "0x00000000000000000000000000000000000000a1",
		Mode:           "exchange",
		Taker:          "0x00000000000000000000000000000000000000b1",
		Maker:          "0x00000000000000000000000000000000000000b2",
		TakerOrderHash: "0x1111111111111111111111111111111111111111111111111111111111111111",
		MakerOrderHash: "0x2222222222222222222222222222222222222222222222222222222222222222",
		FillAmount:     big.NewInt(600000000000000000),
		Price:          big.NewInt(7900),
		TakerFee:       big.NewInt(12),
		MakerFee:       big.NewInt(12),
		MakerRebate:    big.NewInt(0),
		SettledAt:      time.Date(2019, 6, 12, 10, 0, 0, 0, time.UTC),
	}
}

func TestConsoleStorage_New(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	storage := NewConsoleStorage(logger)

	if storage == nil {
		t.Fatal("expected non-nil storage")
	}

	if storage.logger == nil {
		t.Error("expected non-nil logger")
	}
}

func TestConsoleStorage_StoreSettlement(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	storage := NewConsoleStorage(logger)

	event := testEvent()
	ctx := context.Background()

	// Capture stdout
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := storage.StoreSettlement(ctx, event)

	// Restore stdout
	w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	io.Copy(&buf, r)
	output := buf.String()

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if !bytes.Contains([]byte(output), []byte("LEG SETTLED")) {
		t.Error("expected output to contain 'LEG SETTLED'")
	}

	if !bytes.Contains([]byte(output), []byte(event.Taker)) {
		t.Errorf("expected output to contain taker %s", event.Taker)
	}

	if !bytes.Contains([]byte(output), []byte(event.FillAmount.String())) {
		t.Errorf("expected output to contain fill amount %s", event.FillAmount.String())
	}
}

func TestConsoleStorage_Close(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	storage := NewConsoleStorage(logger)

	err := storage.Close()
	if err != nil {
		t.Errorf("expected no error on close, got %v", err)
	}
}

func TestPostgresStorage_StoreSettlement(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	storage := &PostgresStorage{
		db:     db,
		logger: logger,
	}

	event := testEvent()
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO settlements").
		WithArgs(
			event.ID,
			event.MatchID,
			event.MarketContract,
			event.Mode,
			event.Taker,
			event.Maker,
			event.TakerOrderHash,
			event.MakerOrderHash,
			event.FillAmount.String(),
			event.Price.String(),
			event.TakerFee.String(),
			event.MakerFee.String(),
			event.MakerRebate.String(),
			sqlmock.AnyArg(), // SettledAt
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = storage.StoreSettlement(ctx, event)
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStorage_StoreSettlement_Error(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	storage := &PostgresStorage{
		db:     db,
		logger: logger,
	}

	event := testEvent()
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO settlements").
		WillReturnError(sqlmock.ErrCancelled)

	err = storage.StoreSettlement(ctx, event)
	if err == nil {
		t.Error("expected error, got nil")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStorage_Close(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	storage := &PostgresStorage{
		db:     db,
		logger: logger,
	}

	mock.ExpectClose()

	err = storage.Close()
	if err != nil {
		t.Errorf("expected no error on close, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestStorage_Interface(t *testing.T) {
	// Verify both implementations satisfy the Storage interface
	logger, _ := zap.NewDevelopment()

	var _ Storage = NewConsoleStorage(logger)

	db, _, _ := sqlmock.New()
	defer db.Close()

	var _ Storage = &PostgresStorage{db: db, logger: logger}
}
