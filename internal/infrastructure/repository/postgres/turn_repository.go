package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kirillkom/agent-orchestrator/internal/core/domain"
)

type TurnRepository struct {
	db *sql.DB
}

func NewTurnRepository(db *sql.DB) *TurnRepository {
	return &TurnRepository{db: db}
}

// RecordTurn stores one completed turn. Steps are kept as a JSON document so
// the table stays append-only and schema-stable as step metadata evolves.
func (r *TurnRepository) RecordTurn(ctx context.Context, turn domain.TurnRecord) error {
	steps, err := json.Marshal(turn.Steps)
	if err != nil {
		return fmt.Errorf("marshal turn steps: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO turns (id, client_id, input, response, agent_type, fallback_level, steps, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`, turn.ID, turn.ClientID, turn.Input, turn.Response, string(turn.AgentType), turn.FallbackLevel, steps, turn.CreatedAt)
	if err != nil {
		return fmt.Errorf("record turn: %w", err)
	}
	return nil
}

// ListRecentTurns returns up to limit turns for a client, newest first.
func (r *TurnRepository) ListRecentTurns(ctx context.Context, clientID string, limit int) ([]domain.TurnRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, client_id, input, response, agent_type, fallback_level, steps, created_at
FROM turns
WHERE client_id = $1
ORDER BY created_at DESC
LIMIT $2
`, clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	out := make([]domain.TurnRecord, 0)
	for rows.Next() {
		var turn domain.TurnRecord
		var agentType string
		var steps []byte
		if err := rows.Scan(&turn.ID, &turn.ClientID, &turn.Input, &turn.Response, &agentType, &turn.FallbackLevel, &steps, &turn.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turn.AgentType = domain.AgentType(agentType)
		if len(steps) > 0 {
			if err := json.Unmarshal(steps, &turn.Steps); err != nil {
				return nil, fmt.Errorf("decode turn steps: %w", err)
			}
		}
		out = append(out, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}
	return out, nil
}
