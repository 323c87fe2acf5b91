package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"wx-home-bot/internal/domain"
	"wx-home-bot/internal/infra/metrics"
)

// Get реализует domain.ProfileRepo.
func (p *Postgres) Get(ctx context.Context, userID string) (domain.UserProfile, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var data []byte
	start := time.Now()
	err := p.pool.QueryRow(ctx, `SELECT data FROM user_profiles WHERE user_id = $1`, userID).Scan(&data)
	metrics.ObserveNetworkRequest("postgres", "profile_get", "user_profiles", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.UserProfile{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.UserProfile{}, err
	}
	return decodeProfile(data)
}

// Update блокирует строку профиля на время fn.
func (p *Postgres) Update(ctx context.Context, userID string, fn func(*domain.UserProfile) error) (domain.UserProfile, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var out domain.UserProfile
	err := p.inTx(ctx, "user_profiles", func(tx pgx.Tx) error {
		profile, err := lockProfile(ctx, tx, userID, p.now())
		if err != nil {
			return err
		}
		if err := fn(&profile); err != nil {
			return err
		}
		profile.UserID = userID
		profile.UpdatedAt = p.now()
		if err := saveProfile(ctx, tx, profile); err != nil {
			return err
		}
		out = profile
		return nil
	})
	if err != nil {
		return domain.UserProfile{}, err
	}
	return out, nil
}

// MintVIP берёт номер из счётчика vip в той же транзакции, что и профиль.
func (p *Postgres) MintVIP(ctx context.Context, userID string, at time.Time) (domain.VIP, bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var (
		vip     domain.VIP
		created bool
	)
	err := p.inTx(ctx, "user_profiles", func(tx pgx.Tx) error {
		profile, err := lockProfile(ctx, tx, userID, at)
		if err != nil {
			return err
		}
		if profile.VIP != nil {
			vip = *profile.VIP
			return nil
		}
		number, err := nextCounter(ctx, tx, "vip")
		if err != nil {
			return err
		}
		vip = domain.VIP{ID: fmt.Sprintf("VIP-%04d", number), Number: number, VerifiedAt: at, Active: true}
		profile.VIP = &vip
		profile.UpdatedAt = at
		created = true
		return saveProfile(ctx, tx, profile)
	})
	if err != nil {
		return domain.VIP{}, false, err
	}
	return vip, created, nil
}

// ListVIPs реализует domain.ProfileRepo.
func (p *Postgres) ListVIPs(ctx context.Context) ([]domain.UserProfile, error) {
	return p.listProfiles(ctx, "profile_list_vips", `
SELECT data FROM user_profiles
WHERE data ? 'vip' AND (data->'vip'->>'active')::boolean
ORDER BY (data->'vip'->>'number')::int
`)
}

// ListRanked реализует domain.ProfileRepo.
func (p *Postgres) ListRanked(ctx context.Context) ([]domain.UserProfile, error) {
	return p.listProfiles(ctx, "profile_list_ranked", `
SELECT data FROM user_profiles
WHERE COALESCE((data->'checkin'->>'total_checkins')::int, 0) > 0
ORDER BY (data->'checkin'->>'total_points')::int DESC,
         (data->'checkin'->>'total_checkins')::int DESC,
         user_id
`)
}

func (p *Postgres) listProfiles(ctx context.Context, op, query string) ([]domain.UserProfile, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, query)
	metrics.ObserveNetworkRequest("postgres", op, "user_profiles", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.UserProfile
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		profile, err := decodeProfile(data)
		if err != nil {
			return nil, err
		}
		out = append(out, profile)
	}
	return out, rows.Err()
}

// lockProfile создаёт пустой профиль при отсутствии и берёт FOR UPDATE.
func lockProfile(ctx context.Context, tx pgx.Tx, userID string, now time.Time) (domain.UserProfile, error) {
	empty, err := json.Marshal(domain.UserProfile{UserID: userID, CreatedAt: now, UpdatedAt: now})
	if err != nil {
		return domain.UserProfile{}, err
	}
	start := time.Now()
	_, err = tx.Exec(ctx, `
INSERT INTO user_profiles (user_id, data) VALUES ($1, $2)
ON CONFLICT (user_id) DO NOTHING
`, userID, empty)
	metrics.ObserveNetworkRequest("postgres", "profile_ensure", "user_profiles", start, err)
	if err != nil {
		return domain.UserProfile{}, err
	}

	var data []byte
	start = time.Now()
	err = tx.QueryRow(ctx, `SELECT data FROM user_profiles WHERE user_id = $1 FOR UPDATE`, userID).Scan(&data)
	metrics.ObserveNetworkRequest("postgres", "profile_lock", "user_profiles", start, err)
	if err != nil {
		return domain.UserProfile{}, err
	}
	return decodeProfile(data)
}

func saveProfile(ctx context.Context, tx pgx.Tx, profile domain.UserProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	start := time.Now()
	_, err = tx.Exec(ctx, `UPDATE user_profiles SET data = $2, updated_at = now() WHERE user_id = $1`, profile.UserID, data)
	metrics.ObserveNetworkRequest("postgres", "profile_save", "user_profiles", start, err)
	return err
}

func decodeProfile(data []byte) (domain.UserProfile, error) {
	var profile domain.UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return domain.UserProfile{}, fmt.Errorf("decode profile: %w", err)
	}
	return profile, nil
}
