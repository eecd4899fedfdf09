package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"ledger/internal/core"
)

// TransactionRepository reads and writes the transactions table.
type TransactionRepository struct {
	db DBTX
}

func NewTransactionRepository(db DBTX) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const selectTransactions = `SELECT id, date, COALESCE(category, ''), amount, COALESCE(note, '') FROM transactions`

// List returns the transactions matching f, newest date first.
func (r *TransactionRepository) List(ctx context.Context, f core.Filter) ([]core.Transaction, error) {
	where, args := filterClauses(f)
	query := selectTransactions + where + ` ORDER BY date DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &core.StoreError{Op: "list transactions", Err: err}
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, &core.StoreError{Op: "scan transaction", Err: err}
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StoreError{Op: "list transactions", Err: err}
	}
	return out, nil
}

// Insert validates in and stores it, returning the new id.
func (r *TransactionRepository) Insert(ctx context.Context, in core.TransactionInput) (int64, error) {
	t, err := in.Transaction()
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (date, category, amount, note) VALUES (?, ?, ?, ?)`,
		t.Date, t.Category, t.Amount.InexactFloat64(), t.Note,
	)
	if err != nil {
		return 0, &core.StoreError{Op: "insert transaction", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, &core.StoreError{Op: "insert transaction", Err: err}
	}
	return id, nil
}

// Get returns the transaction with the given id or core.ErrNotFound.
func (r *TransactionRepository) Get(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, selectTransactions+` WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, &core.StoreError{Op: "get transaction", Err: err}
	}
	return t, nil
}

// Update replaces every field of the transaction with the given id.
func (r *TransactionRepository) Update(ctx context.Context, id int64, in core.TransactionInput) error {
	t, err := in.Transaction()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET date = ?, category = ?, amount = ?, note = ? WHERE id = ?`,
		t.Date, t.Category, t.Amount.InexactFloat64(), t.Note, id,
	)
	if err != nil {
		return &core.StoreError{Op: "update transaction", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &core.StoreError{Op: "update transaction", Err: err}
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// Delete removes the transaction with the given id. Missing ids are not an error.
func (r *TransactionRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return &core.StoreError{Op: "delete transaction", Err: err}
	}
	return nil
}

func (r *TransactionRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, &core.StoreError{Op: "count transactions", Err: err}
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		t      core.Transaction
		amount float64
	)
	if err := s.Scan(&t.ID, &t.Date, &t.Category, &amount, &t.Note); err != nil {
		return core.Transaction{}, err
	}
	var err error
	if t.Amount, err = core.AmountFromFloat(amount); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", t.ID, err)
	}
	return t, nil
}

// filterClauses turns f into a WHERE clause (with leading space) and its
// positional arguments. An empty filter yields an empty clause.
func filterClauses(f core.Filter) (string, []any) {
	f = f.Normalize()

	var (
		conds []string
		args  []any
	)
	if f.Search != "" {
		pattern := "%" + escapeLike(f.Search) + "%"
		conds = append(conds, `(note LIKE ? ESCAPE '\' OR category LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	if f.Category != "" {
		conds = append(conds, `category = ?`)
		args = append(args, f.Category)
	}
	if f.StartDate != "" {
		conds = append(conds, `date >= ?`)
		args = append(args, f.StartDate)
	}
	if f.EndDate != "" {
		conds = append(conds, `date <= ?`)
		args = append(args, f.EndDate)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
