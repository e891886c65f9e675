package budget

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo is the prepaid budget ledger, balances held in wei as numeric.
type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Balance(ctx context.Context, identity string) (*big.Int, error) {
	const q = `select balance_wei::text from budget_ledger where identity = $1;`

	var raw string
	err := r.db.QueryRow(ctx, q, strings.ToLower(identity)).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return big.NewInt(0), nil
	}
	if err != nil {
		return nil, fmt.Errorf("budget balance: %w", err)
	}
	return parseWei(raw)
}

// Credit adds amount to the identity's balance and returns the new one.
func (r *Repo) Credit(ctx context.Context, identity string, amountWei *big.Int) (*big.Int, error) {
	const q = `
insert into budget_ledger (identity, balance_wei, updated_at)
values ($1, $2::numeric, now())
on conflict (identity) do update
set balance_wei = budget_ledger.balance_wei + excluded.balance_wei, updated_at = now()
returning balance_wei::text;
`
	var raw string
	if err := r.db.QueryRow(ctx, q, strings.ToLower(identity), amountWei.String()).Scan(&raw); err != nil {
		return nil, fmt.Errorf("budget credit: %w", err)
	}
	return parseWei(raw)
}

// CreditDeposit records the deposit hash and credits the ledger in one
// transaction. budget_deposits carries a primary key on tx_hash, so a
// replayed hash fails the insert and the credit never happens.
func (r *Repo) CreditDeposit(ctx context.Context, identity, txHash string, amountWei *big.Int) (*big.Int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("budget deposit: %w", err)
	}
	defer tx.Rollback(ctx)

	const record = `
insert into budget_deposits (tx_hash, identity, amount_wei, credited_at)
values ($1, $2, $3::numeric, now());
`
	if _, err := tx.Exec(ctx, record, strings.ToLower(txHash), strings.ToLower(identity), amountWei.String()); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDepositAlreadyCredited
		}
		return nil, fmt.Errorf("record deposit: %w", err)
	}

	const credit = `
insert into budget_ledger (identity, balance_wei, updated_at)
values ($1, $2::numeric, now())
on conflict (identity) do update
set balance_wei = budget_ledger.balance_wei + excluded.balance_wei, updated_at = now()
returning balance_wei::text;
`
	var raw string
	if err := tx.QueryRow(ctx, credit, strings.ToLower(identity), amountWei.String()).Scan(&raw); err != nil {
		return nil, fmt.Errorf("budget credit: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("budget deposit: %w", err)
	}
	return parseWei(raw)
}

// Debit subtracts amount only if the balance covers it. The conditional
// update makes the check-and-debit atomic.
func (r *Repo) Debit(ctx context.Context, identity string, amountWei *big.Int) (*big.Int, bool, error) {
	const q = `
update budget_ledger
set balance_wei = balance_wei - $2::numeric, updated_at = now()
where identity = $1 and balance_wei >= $2::numeric
returning balance_wei::text;
`
	var raw string
	err := r.db.QueryRow(ctx, q, strings.ToLower(identity), amountWei.String()).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("budget debit: %w", err)
	}
	remaining, err := parseWei(raw)
	if err != nil {
		return nil, false, err
	}
	return remaining, true, nil
}

func parseWei(raw string) (*big.Int, error) {
	// numeric may come back with a trailing ".0" style fraction.
	if i := strings.IndexByte(raw, '.'); i >= 0 {
		raw = raw[:i]
	}
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("budget: bad wei value %q", raw)
	}
	return v, nil
}
