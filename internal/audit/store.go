package audit

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Record(ctx context.Context, e *Event) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}
	const q = `
		INSERT INTO audit_events (request_id, kind, username, path, outcome, reason, tags, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	row := s.db.QueryRowContext(ctx, q,
		e.RequestID,
		string(e.Kind),
		e.Username,
		e.Path,
		e.Outcome,
		e.Reason,
		pq.Array(e.Tags),
		e.CreatedAt,
	)
	return row.Scan(&e.ID)
}

func (s *Store) List(ctx context.Context, f Filter) ([]Event, error) {
	query, args := listQuery(f)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Event
	for rows.Next() {
		var e Event
		var kind string
		var tags pq.StringArray
		if err := rows.Scan(&e.ID, &e.RequestID, &kind, &e.Username, &e.Path,
			&e.Outcome, &e.Reason, &tags, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Kind = Kind(kind)
		e.Tags = []string(tags)
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func listQuery(f Filter) (string, []interface{}) {
	clauses := []string{"1=1"}
	args := []interface{}{}
	argIdx := 1

	if f.Kind != "" {
		clauses = append(clauses, "kind = $"+itoa(argIdx))
		args = append(args, string(f.Kind))
		argIdx++
	}
	if f.Username != "" {
		clauses = append(clauses, "username = $"+itoa(argIdx))
		args = append(args, f.Username)
		argIdx++
	}
	if !f.Since.IsZero() {
		clauses = append(clauses, "created_at >= $"+itoa(argIdx))
		args = append(args, f.Since)
	}

	query := "SELECT id, request_id, kind, username, path, outcome, reason, tags, created_at FROM audit_events WHERE " +
		strings.Join(clauses, " AND ") + " ORDER BY created_at DESC, id DESC LIMIT " + itoa(f.limit())
	return query, args
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
