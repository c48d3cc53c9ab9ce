package core

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

/**
 * @brief Hands out unique identifiers for device resources and remembers what
 * kind of resource each one belongs to, so leaks can be reported on shutdown.
 */
type Identifiers struct {
	owners map[uuid.UUID]string
}

func NewIdentifiers() *Identifiers {
	return &Identifiers{owners: make(map[uuid.UUID]string)}
}

func (ids *Identifiers) Acquire(kind string) uuid.UUID {
	id := uuid.New()
	ids.owners[id] = kind
	return id
}

func (ids *Identifiers) Release(id uuid.UUID) error {
	if _, ok := ids.owners[id]; !ok {
		return fmt.Errorf("identifier '%s' is not registered. Nothing was done", id)
	}
	delete(ids.owners, id)
	return nil
}

func (ids *Identifiers) Len() int {
	return len(ids.owners)
}

// Live returns "kind:id" strings for every registered identifier, sorted.
func (ids *Identifiers) Live() []string {
	out := make([]string, 0, len(ids.owners))
	for id, kind := range ids.owners {
		out = append(out, kind+":"+id.String())
	}
	sort.Strings(out)
	return out
}
