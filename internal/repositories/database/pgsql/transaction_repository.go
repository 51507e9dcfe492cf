package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/finbook/finbook_backend/internal/apperrors"
	"github.com/finbook/finbook_backend/internal/core/domain"
	portsrepo "github.com/finbook/finbook_backend/internal/core/ports/repositories"
	"github.com/finbook/finbook_backend/internal/models"
	"github.com/finbook/finbook_backend/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const transactionColumns = `transaction_id, user_id, account_id, amount, transaction_type, category, description, transaction_date, tags, location, external_id, balance_after, is_urgent, classification_status, classification_confidence, created_at, created_by, last_updated_at, last_updated_by`

// recomputeSnapshotsQuery rewrites balance_after for every row on one account
// as opening_balance plus the running sum of amounts in ledger order. Edits
// and backdated entries therefore repair every downstream snapshot in one
// statement while the account row is locked.
const recomputeSnapshotsQuery = `
	WITH ordered AS (
		SELECT t.transaction_id,
		       a.opening_balance + SUM(t.amount) OVER (
		           ORDER BY t.transaction_date, t.created_at, t.transaction_id
		       ) AS snapshot
		FROM transactions t
		JOIN accounts a ON a.account_id = t.account_id
		WHERE t.account_id = $1
	)
	UPDATE transactions
	SET balance_after = ordered.snapshot
	FROM ordered
	WHERE transactions.transaction_id = ordered.transaction_id;
`

type PgxTransactionRepository struct {
	BaseRepository
}

// newPgxTransactionRepository creates a new repository for ledger data.
func newPgxTransactionRepository(pool *pgxpool.Pool) portsrepo.TransactionRepositoryFacade {
	return &PgxTransactionRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxTransactionRepository implements the facade
var _ portsrepo.TransactionRepositoryFacade = (*PgxTransactionRepository)(nil)

type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var m models.Transaction
	err := row.Scan(
		&m.TransactionID,
		&m.UserID,
		&m.AccountID,
		&m.Amount,
		&m.Type,
		&m.Category,
		&m.Description,
		&m.Date,
		&m.Tags,
		&m.Location,
		&m.ExternalID,
		&m.BalanceAfter,
		&m.IsUrgent,
		&m.ClassificationStatus,
		&m.ClassificationConfidence,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}
	txn := mapping.ToDomainTransaction(m)
	return &txn, nil
}

// lockAccount takes the row lock that serializes ledger writes per account.
func lockAccount(ctx context.Context, tx pgx.Tx, accountID string) error {
	var id string
	err := tx.QueryRow(ctx, `SELECT account_id FROM accounts WHERE account_id = $1 FOR UPDATE;`, accountID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to lock account %s: %w", accountID, err)
	}
	return nil
}

func findByID(ctx context.Context, q pgxQuerier, transactionID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1;`
	return scanTransaction(q.QueryRow(ctx, query, transactionID))
}

// FindTransactionByID retrieves a transaction by its ID.
func (r *PgxTransactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	return findByID(ctx, r.Pool, transactionID)
}

// FindTransactionByExternalID retrieves a transaction by its aggregator id within one account.
func (r *PgxTransactionRepository) FindTransactionByExternalID(ctx context.Context, accountID string, externalID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE account_id = $1 AND external_id = $2;`
	return scanTransaction(r.Pool.QueryRow(ctx, query, accountID, externalID))
}

// CountTransactionsByAccount returns the number of transactions on an account.
func (r *PgxTransactionRepository) CountTransactionsByAccount(ctx context.Context, accountID string) (int64, error) {
	var count int64
	err := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE account_id = $1;`, accountID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions for account %s: %w", accountID, err)
	}
	return count, nil
}

// buildFilterClause renders the WHERE clause and args for a TransactionFilter.
func buildFilterClause(filter portsrepo.TransactionFilter) (string, []any) {
	conditions := []string{"user_id = $1"}
	args := []any{filter.UserID}

	next := func() string { return "$" + strconv.Itoa(len(args)+1) }

	if filter.AccountID != "" {
		conditions = append(conditions, "account_id = "+next())
		args = append(args, filter.AccountID)
	}
	if filter.Type != "" {
		conditions = append(conditions, "transaction_type = "+next())
		args = append(args, string(filter.Type))
	}
	if filter.Category != "" {
		conditions = append(conditions, "category = "+next())
		args = append(args, string(filter.Category))
	}
	if filter.StartDate != nil {
		conditions = append(conditions, "transaction_date >= "+next())
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		conditions = append(conditions, "transaction_date < "+next())
		args = append(args, *filter.EndDate)
	}
	if filter.Search != "" {
		conditions = append(conditions, "description ILIKE "+next())
		args = append(args, "%"+filter.Search+"%")
	}
	return strings.Join(conditions, " AND "), args
}

// ListTransactions returns one page of transactions plus the unpaged total.
func (r *PgxTransactionRepository) ListTransactions(ctx context.Context, filter portsrepo.TransactionFilter) ([]domain.Transaction, int64, error) {
	where, args := buildFilterClause(filter)

	var total int64
	countQuery := `SELECT COUNT(*) FROM transactions WHERE ` + where + `;`
	if err := r.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	limitArg := "$" + strconv.Itoa(len(args)+1)
	offsetArg := "$" + strconv.Itoa(len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` + where + `
		ORDER BY transaction_date DESC, created_at DESC, transaction_id DESC
		LIMIT ` + limitArg + ` OFFSET ` + offsetArg + `;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		txns = append(txns, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read transaction rows: %w", err)
	}
	return txns, total, nil
}

// CreateTransaction inserts a transaction and maintains the account balance
// and every balance-after snapshot within one database transaction.
func (r *PgxTransactionRepository) CreateTransaction(ctx context.Context, txn domain.Transaction) (*domain.Transaction, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	if err := lockAccount(ctx, tx, txn.AccountID); err != nil {
		return nil, err
	}

	m := mapping.ToModelTransaction(txn)
	insertQuery := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19);
	`
	_, err = tx.Exec(ctx, insertQuery,
		m.TransactionID,
		m.UserID,
		m.AccountID,
		m.Amount,
		m.Type,
		m.Category,
		m.Description,
		m.Date,
		m.Tags,
		m.Location,
		m.ExternalID,
		m.BalanceAfter,
		m.IsUrgent,
		m.ClassificationStatus,
		m.ClassificationConfidence,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique violation
			return nil, fmt.Errorf("%w: transaction already recorded", apperrors.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to insert transaction %s: %w", m.TransactionID, err)
	}

	if err := r.applyBalanceDelta(ctx, tx, txn.AccountID, txn.Amount, txn.LastUpdatedBy, m.LastUpdatedAt); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, recomputeSnapshotsQuery, txn.AccountID); err != nil {
		return nil, fmt.Errorf("failed to recompute balance snapshots for account %s: %w", txn.AccountID, err)
	}

	saved, err := findByID(ctx, tx, txn.TransactionID)
	if err != nil {
		return nil, err
	}
	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return saved, nil
}

// UpdateTransaction rewrites the row and shifts the account balance by
// amountDelta, then recomputes every snapshot on the account.
func (r *PgxTransactionRepository) UpdateTransaction(ctx context.Context, txn domain.Transaction, amountDelta decimal.Decimal) (*domain.Transaction, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	if err := lockAccount(ctx, tx, txn.AccountID); err != nil {
		return nil, err
	}

	m := mapping.ToModelTransaction(txn)
	updateQuery := `
		UPDATE transactions
		SET amount = $2, transaction_type = $3, category = $4, description = $5,
		    transaction_date = $6, tags = $7, location = $8, is_urgent = $9,
		    classification_status = $10, classification_confidence = $11,
		    last_updated_at = $12, last_updated_by = $13
		WHERE transaction_id = $1;
	`
	tag, err := tx.Exec(ctx, updateQuery,
		m.TransactionID,
		m.Amount,
		m.Type,
		m.Category,
		m.Description,
		m.Date,
		m.Tags,
		m.Location,
		m.IsUrgent,
		m.ClassificationStatus,
		m.ClassificationConfidence,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update transaction %s: %w", m.TransactionID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperrors.ErrNotFound
	}

	if !amountDelta.IsZero() {
		if err := r.applyBalanceDelta(ctx, tx, txn.AccountID, amountDelta, txn.LastUpdatedBy, m.LastUpdatedAt); err != nil {
			return nil, err
		}
	}
	if _, err := tx.Exec(ctx, recomputeSnapshotsQuery, txn.AccountID); err != nil {
		return nil, fmt.Errorf("failed to recompute balance snapshots for account %s: %w", txn.AccountID, err)
	}

	saved, err := findByID(ctx, tx, txn.TransactionID)
	if err != nil {
		return nil, err
	}
	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return saved, nil
}

// DeleteTransaction removes the row and reverts its amount from the balance.
func (r *PgxTransactionRepository) DeleteTransaction(ctx context.Context, txn domain.Transaction) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := lockAccount(ctx, tx, txn.AccountID); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM transactions WHERE transaction_id = $1;`, txn.TransactionID)
	if err != nil {
		return fmt.Errorf("failed to delete transaction %s: %w", txn.TransactionID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	if err := r.applyBalanceDelta(ctx, tx, txn.AccountID, txn.Amount.Neg(), txn.LastUpdatedBy, txn.LastUpdatedAt); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, recomputeSnapshotsQuery, txn.AccountID); err != nil {
		return fmt.Errorf("failed to recompute balance snapshots for account %s: %w", txn.AccountID, err)
	}

	return r.Commit(ctx, tx)
}

// ShiftOpeningBalance moves the opening balance and the live balance by delta
// and recomputes every snapshot while holding the account row lock.
func (r *PgxTransactionRepository) ShiftOpeningBalance(ctx context.Context, accountID string, delta decimal.Decimal, updatedBy string, now time.Time) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := lockAccount(ctx, tx, accountID); err != nil {
		return err
	}

	query := `
		UPDATE accounts
		SET opening_balance = opening_balance + $2, balance = balance + $2,
		    last_updated_at = $3, last_updated_by = $4
		WHERE account_id = $1;
	`
	tag, err := tx.Exec(ctx, query, accountID, delta, now, updatedBy)
	if err != nil {
		return fmt.Errorf("failed to shift opening balance of account %s: %w", accountID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	if _, err := tx.Exec(ctx, recomputeSnapshotsQuery, accountID); err != nil {
		return fmt.Errorf("failed to recompute balance snapshots for account %s: %w", accountID, err)
	}

	return r.Commit(ctx, tx)
}

// applyBalanceDelta shifts the live account balance. The caller holds the
// account row lock.
func (r *PgxTransactionRepository) applyBalanceDelta(ctx context.Context, tx pgx.Tx, accountID string, delta decimal.Decimal, userID string, now time.Time) error {
	query := `
		UPDATE accounts
		SET balance = balance + $2, last_updated_at = $3, last_updated_by = $4
		WHERE account_id = $1;
	`
	tag, err := tx.Exec(ctx, query, accountID, delta, now, userID)
	if err != nil {
		return fmt.Errorf("failed to apply balance change to account %s: %w", accountID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
