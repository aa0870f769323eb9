package presence

import (
	"errors"
	"klyra/internal/models"
	"sort"

	"github.com/c-pro/geche"
)

// Store holds every user announced through a join event.
// Records are never removed; a second join with the same ID overwrites the first.
type Store struct {
	users *geche.MapCache[string, models.User]
}

func New() *Store {
	return &Store{
		users: geche.NewMapCache[string, models.User](),
	}
}

func (s *Store) Upsert(user models.User) {
	s.users.Set(user.ID, user)
}

func (s *Store) Get(id string) (models.User, error) {
	u, err := s.users.Get(id)
	if errors.Is(err, geche.ErrNotFound) {
		return models.User{}, models.ErrNotFound
	}
	return u, err
}

// List returns a copy of all known users ordered by name, then ID.
func (s *Store) List() []models.User {
	snapshot := s.users.Snapshot()

	users := make([]models.User, 0, len(snapshot))
	for _, u := range snapshot {
		users = append(users, u)
	}

	sort.Slice(users, func(i, j int) bool {
		if users[i].Name != users[j].Name {
			return users[i].Name < users[j].Name
		}
		return users[i].ID < users[j].ID
	})

	return users
}

func (s *Store) Len() int {
	return s.users.Len()
}
