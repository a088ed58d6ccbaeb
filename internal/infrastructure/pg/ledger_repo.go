package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Albkings1/bot/internal/application"
	"github.com/Albkings1/bot/internal/domain"
)

// LedgerRepo persists users and licenses. Counter updates are single
// statements so concurrent requests never lose a use.
type LedgerRepo struct{ db *DB }

var _ application.LedgerStore = (*LedgerRepo)(nil)

func NewLedgerRepo(db *DB) *LedgerRepo { return &LedgerRepo{db: db} }

const userColumns = `user_id, username, is_premium, lifetime_uses, daily_uses, last_use_date, license_key, joined_at`

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.Premium, &u.LifetimeUses, &u.DailyUses, &u.LastUseDate, &u.LicenseKey, &u.JoinedAt)
	return u, err
}

func (r *LedgerRepo) GetUser(ctx context.Context, id int64) (domain.User, error) {
	u, err := scanUser(r.db.Pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE user_id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, application.ErrNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *LedgerRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.Pool.Exec(ctx, `
        INSERT INTO users(user_id, username, is_premium, lifetime_uses, daily_uses, last_use_date, license_key, joined_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (user_id) DO NOTHING`,
		u.ID, u.Username, u.Premium, u.LifetimeUses, u.DailyUses, u.LastUseDate, u.LicenseKey, u.JoinedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *LedgerRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY joined_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// ResetDaily zeroes the daily counter the first time a premium user is seen
// on a new date. The WHERE clause makes the reset happen at most once per day
// regardless of how many callers race here.
func (r *LedgerRepo) ResetDaily(ctx context.Context, id int64, today string) error {
	_, err := r.db.Pool.Exec(ctx, `
        UPDATE users SET daily_uses=0, last_use_date=$2
        WHERE user_id=$1 AND is_premium AND last_use_date<>$2`,
		id, today)
	if err != nil {
		return fmt.Errorf("reset daily: %w", err)
	}
	return nil
}

// RecordUse increments usage counters in one statement. For premium users a
// stale last_use_date rolls the daily counter over before counting.
func (r *LedgerRepo) RecordUse(ctx context.Context, id int64, today string) (int, error) {
	var lifetime int
	err := r.db.Pool.QueryRow(ctx, `
        UPDATE users SET
            lifetime_uses = lifetime_uses + 1,
            daily_uses = CASE
                WHEN NOT is_premium THEN daily_uses
                WHEN last_use_date <> $2 THEN 1
                ELSE daily_uses + 1
            END,
            last_use_date = CASE WHEN is_premium THEN $2 ELSE last_use_date END
        WHERE user_id=$1
        RETURNING lifetime_uses`,
		id, today).Scan(&lifetime)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, application.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("record use: %w", err)
	}
	return lifetime, nil
}

func (r *LedgerRepo) IssueLicense(ctx context.Context, l domain.License) error {
	_, err := r.db.Pool.Exec(ctx, `
        INSERT INTO licenses(key, duration_days, created_at, used)
        VALUES ($1, $2, $3, FALSE)
        ON CONFLICT (key) DO UPDATE
          SET duration_days=EXCLUDED.duration_days, created_at=EXCLUDED.created_at, used=FALSE`,
		l.Key, l.DurationDays, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("issue license: %w", err)
	}
	return nil
}

func (r *LedgerRepo) GetLicense(ctx context.Context, key string) (domain.License, error) {
	var l domain.License
	err := r.db.Pool.QueryRow(ctx,
		`SELECT key, duration_days, created_at, used FROM licenses WHERE key=$1`, key).
		Scan(&l.Key, &l.DurationDays, &l.CreatedAt, &l.Used)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.License{}, application.ErrLicenseNotFound
	}
	if err != nil {
		return domain.License{}, fmt.Errorf("get license: %w", err)
	}
	return l, nil
}

// ActivateLicense claims the key and flips the user to premium in one
// transaction. The conditional UPDATE on licenses is the claim: whoever
// flips used first wins, everyone else sees ErrLicenseAlreadyUsed.
func (r *LedgerRepo) ActivateLicense(ctx context.Context, userID int64, key string) error {
	return r.db.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE licenses SET used=TRUE WHERE key=$1 AND NOT used`, key)
		if err != nil {
			return fmt.Errorf("claim license: %w", err)
		}
		if tag.RowsAffected() == 0 {
			var used bool
			err := tx.QueryRow(ctx, `SELECT used FROM licenses WHERE key=$1`, key).Scan(&used)
			if errors.Is(err, pgx.ErrNoRows) {
				return application.ErrLicenseNotFound
			}
			if err != nil {
				return fmt.Errorf("check license: %w", err)
			}
			return application.ErrLicenseAlreadyUsed
		}

		tag, err = tx.Exec(ctx,
			`UPDATE users SET is_premium=TRUE, license_key=$2 WHERE user_id=$1`, userID, key)
		if err != nil {
			return fmt.Errorf("activate user: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return application.ErrNotFound
		}
		return nil
	})
}

// RevokeLicense drops the user back to free and releases the key so it can
// be activated again.
func (r *LedgerRepo) RevokeLicense(ctx context.Context, userID int64) error {
	return r.db.withTx(ctx, func(tx pgx.Tx) error {
		var key string
		err := tx.QueryRow(ctx,
			`SELECT license_key FROM users WHERE user_id=$1 AND is_premium FOR UPDATE`, userID).
			Scan(&key)
		if errors.Is(err, pgx.ErrNoRows) {
			return application.ErrNoActiveLicense
		}
		if err != nil {
			return fmt.Errorf("lookup license: %w", err)
		}
		if key == "" {
			return application.ErrNoActiveLicense
		}

		if _, err := tx.Exec(ctx,
			`UPDATE users SET is_premium=FALSE, license_key='' WHERE user_id=$1`, userID); err != nil {
			return fmt.Errorf("revoke user: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE licenses SET used=FALSE WHERE key=$1`, key); err != nil {
			return fmt.Errorf("release license: %w", err)
		}
		return nil
	})
}
