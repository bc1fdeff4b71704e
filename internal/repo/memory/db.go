package memory

import (
	"sync"

	"github.com/JadeHendricks/mern-devconnector/internal/domain/profile"
	"github.com/JadeHendricks/mern-devconnector/internal/domain/user"
)

// DB is the shared state behind the in-memory repos. One mutex guards both
// tables, which makes every repo call atomic like a single SQL statement.
type DB struct {
	mu       sync.RWMutex
	users    map[string]user.User       // by id
	emails   map[string]string          // normalized email -> id
	profiles map[string]profile.Profile // by user id
}

func NewDB() *DB {
	return &DB{
		users:    make(map[string]user.User),
		emails:   make(map[string]string),
		profiles: make(map[string]profile.Profile),
	}
}

// withOwner fills in the joined owner fields; callers hold the lock.
func (d *DB) withOwner(p profile.Profile) profile.Profile {
	if u, ok := d.users[p.User.ID]; ok {
		p.User.Name = u.Name
		p.User.Avatar = u.Avatar
	}
	return cloneProfile(p)
}

// cloneProfile copies the slices so callers never share backing arrays
// with the stored record.
func cloneProfile(p profile.Profile) profile.Profile {
	p.Skills = append([]string{}, p.Skills...)
	p.Experience = append([]profile.Experience{}, p.Experience...)
	p.Education = append([]profile.Education{}, p.Education...)
	return p
}
