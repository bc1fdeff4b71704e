package memory

import (
	"context"
	"sort"
	"time"

	"github.com/JadeHendricks/mern-devconnector/internal/domain/profile"
	"github.com/JadeHendricks/mern-devconnector/internal/domain/user"
)

type ProfilesRepo struct {
	db *DB
}

func NewProfilesRepo(db *DB) *ProfilesRepo {
	return &ProfilesRepo{db: db}
}

func (r *ProfilesRepo) GetByUserID(_ context.Context, userID string) (profile.Profile, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	p, ok := r.db.profiles[userID]
	if !ok {
		return profile.Profile{}, profile.ErrNotFound
	}

	return r.db.withOwner(p), nil
}

func (r *ProfilesRepo) List(_ context.Context) ([]profile.Profile, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]profile.Profile, 0, len(r.db.profiles))
	for _, p := range r.db.profiles {
		out = append(out, r.db.withOwner(p))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}

func (r *ProfilesRepo) Upsert(_ context.Context, userID string, req profile.UpsertRequest) (profile.Profile, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[userID]; !ok {
		return profile.Profile{}, user.ErrNotFound
	}

	p, ok := r.db.profiles[userID]
	if ok {
		p = req.Apply(cloneProfile(p))
		p.UpdatedAt = time.Now().UTC()
	} else {
		p = profile.New(userID, req)
	}

	r.db.profiles[userID] = p

	return r.db.withOwner(p), nil
}

func (r *ProfilesRepo) AddExperience(_ context.Context, userID string, e profile.Experience) (profile.Profile, error) {
	return r.update(userID, func(p *profile.Profile) error {
		p.Experience = append([]profile.Experience{e}, p.Experience...)
		return nil
	})
}

func (r *ProfilesRepo) AddEducation(_ context.Context, userID string, e profile.Education) (profile.Profile, error) {
	return r.update(userID, func(p *profile.Profile) error {
		p.Education = append([]profile.Education{e}, p.Education...)
		return nil
	})
}

func (r *ProfilesRepo) RemoveExperience(_ context.Context, userID, entryID string) (profile.Profile, error) {
	return r.update(userID, func(p *profile.Profile) error {
		for i, e := range p.Experience {
			if e.ID == entryID {
				p.Experience = append(p.Experience[:i:i], p.Experience[i+1:]...)
				return nil
			}
		}
		return profile.ErrEntryNotFound
	})
}

func (r *ProfilesRepo) RemoveEducation(_ context.Context, userID, entryID string) (profile.Profile, error) {
	return r.update(userID, func(p *profile.Profile) error {
		for i, e := range p.Education {
			if e.ID == entryID {
				p.Education = append(p.Education[:i:i], p.Education[i+1:]...)
				return nil
			}
		}
		return profile.ErrEntryNotFound
	})
}

// update applies fn to a copy and stores it only when fn succeeds.
func (r *ProfilesRepo) update(userID string, fn func(*profile.Profile) error) (profile.Profile, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.db.profiles[userID]
	if !ok {
		return profile.Profile{}, profile.ErrNotFound
	}

	p := cloneProfile(stored)
	if err := fn(&p); err != nil {
		return profile.Profile{}, err
	}
	p.UpdatedAt = time.Now().UTC()

	r.db.profiles[userID] = p

	return r.db.withOwner(p), nil
}
