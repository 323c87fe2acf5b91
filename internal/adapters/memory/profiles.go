package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"wx-home-bot/internal/domain"
)

// ProfileRepo хранит профили в памяти.
type ProfileRepo struct {
	mu         sync.Mutex
	now        func() time.Time
	profiles   map[string]domain.UserProfile
	vipCounter int
}

// NewProfileRepo создаёт репозиторий профилей.
func NewProfileRepo(now func() time.Time) *ProfileRepo {
	if now == nil {
		now = time.Now
	}
	return &ProfileRepo{now: now, profiles: make(map[string]domain.UserProfile)}
}

// Get возвращает копию профиля.
func (r *ProfileRepo) Get(_ context.Context, userID string) (domain.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return domain.UserProfile{}, domain.ErrNotFound
	}
	return cloneProfile(p), nil
}

// Update применяет fn к копии профиля и сохраняет её при успехе.
func (r *ProfileRepo) Update(_ context.Context, userID string, fn func(*domain.UserProfile) error) (domain.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	p, ok := r.profiles[userID]
	if !ok {
		p = domain.UserProfile{UserID: userID, CreatedAt: now}
	}
	p = cloneProfile(p)
	if err := fn(&p); err != nil {
		return domain.UserProfile{}, err
	}
	p.UserID = userID
	p.UpdatedAt = now
	r.profiles[userID] = p
	return cloneProfile(p), nil
}

// MintVIP выдаёт следующий номер, если у пользователя ещё нет VIP.
func (r *ProfileRepo) MintVIP(_ context.Context, userID string, at time.Time) (domain.VIP, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		p = domain.UserProfile{UserID: userID, CreatedAt: at}
	}
	if p.VIP != nil {
		return *p.VIP, false, nil
	}
	r.vipCounter++
	vip := domain.VIP{ID: fmt.Sprintf("VIP-%04d", r.vipCounter), Number: r.vipCounter, VerifiedAt: at, Active: true}
	p = cloneProfile(p)
	p.VIP = &vip
	p.UpdatedAt = at
	r.profiles[userID] = p
	return vip, true, nil
}

// ListVIPs возвращает профили с активным VIP в порядке номеров.
func (r *ProfileRepo) ListVIPs(context.Context) ([]domain.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.UserProfile
	for _, p := range r.profiles {
		if p.IsVIP() {
			out = append(out, cloneProfile(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VIP.Number < out[j].VIP.Number })
	return out, nil
}

// ListRanked возвращает участников отметок по убыванию баллов.
func (r *ProfileRepo) ListRanked(context.Context) ([]domain.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.UserProfile
	for _, p := range r.profiles {
		if p.Checkin.TotalCheckins > 0 {
			out = append(out, cloneProfile(p))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Checkin, out[j].Checkin
		if a.TotalPoints != b.TotalPoints {
			return a.TotalPoints > b.TotalPoints
		}
		if a.TotalCheckins != b.TotalCheckins {
			return a.TotalCheckins > b.TotalCheckins
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

func cloneProfile(p domain.UserProfile) domain.UserProfile {
	if p.VIP != nil {
		v := *p.VIP
		p.VIP = &v
	}
	if p.WeatherCity != nil {
		c := *p.WeatherCity
		p.WeatherCity = &c
	}
	if p.SubscribedAt != nil {
		t := *p.SubscribedAt
		p.SubscribedAt = &t
	}
	if p.UnsubscribedAt != nil {
		t := *p.UnsubscribedAt
		p.UnsubscribedAt = &t
	}
	p.Checkin.History = append([]domain.CheckinRecord(nil), p.Checkin.History...)
	p.Checkin.PointsLog = append([]domain.PointsEntry(nil), p.Checkin.PointsLog...)
	return p
}
