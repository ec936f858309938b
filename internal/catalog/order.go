package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// CycleError reports that no load order exists because the foreign-key graph
// contains a cycle across distinct entities. This is a modeling defect in the
// registry, not a runtime condition.
type CycleError struct {
	// Entities are the names left unordered when the sort stalled.
	Entities []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("catalog: dependency cycle among entities: %s", strings.Join(e.Entities, ", "))
}

// Order computes a safe load order for the given entities: every entity
// appears after all entities its foreign keys reference. Self-referential
// foreign keys (themes.parent_id) are intra-entity and do not constrain the
// order; the loader handles them by committing the whole batch at once.
//
// The result is deterministic: among entities whose dependencies are all
// satisfied, declaration order decides.
func Order(entities []Entity) ([]string, error) {
	pos := make(map[string]int, len(entities))
	for i, e := range entities {
		pos[e.Name] = i
	}

	// indegree counts distinct parent entities still unloaded; children maps
	// a parent to the entities waiting on it.
	indegree := make(map[string]int, len(entities))
	children := make(map[string][]string, len(entities))
	for _, e := range entities {
		indegree[e.Name] = 0
	}
	for _, e := range entities {
		seen := map[string]bool{}
		for _, fk := range e.ForeignKeys {
			if fk.RefEntity == e.Name || seen[fk.RefEntity] {
				continue
			}
			if _, known := indegree[fk.RefEntity]; !known {
				// Check catches this earlier; skip here to keep Order total.
				continue
			}
			seen[fk.RefEntity] = true
			indegree[e.Name]++
			children[fk.RefEntity] = append(children[fk.RefEntity], e.Name)
		}
	}

	var ready []string
	for _, e := range entities {
		if indegree[e.Name] == 0 {
			ready = append(ready, e.Name)
		}
	}

	order := make([]string, 0, len(entities))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return pos[ready[i]] < pos[ready[j]] })
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)
		for _, c := range children[next] {
			indegree[c]--
			if indegree[c] == 0 {
				ready = append(ready, c)
			}
		}
	}

	if len(order) != len(entities) {
		var stuck []string
		for _, e := range entities {
			if indegree[e.Name] > 0 {
				stuck = append(stuck, e.Name)
			}
		}
		return nil, &CycleError{Entities: stuck}
	}
	return order, nil
}
