package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/agent-orchestrator/internal/core/domain"
)

func TestTurnRepositoryRecordTurnSerializesSteps(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewTurnRepository(db)
	turn := domain.TurnRecord{
		ID:        "turn-1",
		ClientID:  "c-1",
		Input:     "write a sort function",
		Response:  "done",
		AgentType: domain.AgentTypeCode,
		Steps: []domain.ExecutionStep{
			{AgentType: domain.AgentTypeCode, Input: "write a sort function", Output: "done", Status: domain.StepStatusOK},
		},
		CreatedAt: time.Now(),
	}

	mock.ExpectExec("INSERT INTO turns").
		WithArgs(turn.ID, turn.ClientID, turn.Input, turn.Response, string(turn.AgentType), turn.FallbackLevel, sqlmock.AnyArg(), turn.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.RecordTurn(context.Background(), turn); err != nil {
		t.Fatalf("RecordTurn() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestTurnRepositoryListRecentTurnsDecodesSteps(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewTurnRepository(db)
	rows := sqlmock.NewRows([]string{"id", "client_id", "input", "response", "agent_type", "fallback_level", "steps", "created_at"}).
		AddRow("turn-1", "c-1", "hello", "hi", string(domain.AgentTypeKnowledge), 0,
			[]byte(`[{"agent_type":"knowledge","input":"hello","output":"hi","status":"ok"}]`), time.Now())

	mock.ExpectQuery("FROM turns").
		WithArgs("c-1", 20).
		WillReturnRows(rows)

	turns, err := repo.ListRecentTurns(context.Background(), "c-1", 0)
	if err != nil {
		t.Fatalf("ListRecentTurns() error = %v", err)
	}
	if len(turns) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(turns))
	}
	if len(turns[0].Steps) != 1 || turns[0].Steps[0].AgentType != domain.AgentTypeKnowledge {
		t.Fatalf("unexpected decoded steps %+v", turns[0].Steps)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
