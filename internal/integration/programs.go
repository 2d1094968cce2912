package integration

import (
	"context"

	"github.com/surveycrm/pollbridge/internal/cache"
)

// Program is a resolved educational-program reference. Programs are
// read-only for this workflow: resolved by exact name, never created.
type Program struct {
	ID   int64
	Name string
}

// resolvePrograms maps program names to list records, in input order.
// Phases: cache, then one combined batch call when more than one name
// remains and batching is enabled, then sequential lookups for whatever is
// left. Batching is a latency optimization only: a failed batch call falls
// back to sequential resolution, never to an error. Any name unresolved
// after both phases fails the whole set with every missing name listed.
func (s *Service) resolvePrograms(ctx context.Context, names []string) ([]Program, error) {
	if len(names) == 0 {
		return nil, nil
	}

	resolved := make(map[string]Program)
	var remaining []string
	seen := make(map[string]struct{})

	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		if s.cfg.CacheEnabled {
			if v, ok := s.cache.Get(cache.CategoryProgram, name); ok {
				resolved[name] = v.(Program)
				continue
			}
		}
		remaining = append(remaining, name)
	}

	if s.cfg.BatchEnabled && len(remaining) > 1 {
		found, err := s.gw.BatchGetListElements(ctx, s.mapping.ProgramsListID, remaining)
		if err != nil {
			s.log.Warn("Batch program lookup failed, falling back to sequential",
				"count", len(remaining),
				"error", err.Error(),
			)
		} else {
			next := remaining[:0]
			for _, name := range remaining {
				element, ok := found[name]
				if !ok {
					next = append(next, name)
					continue
				}
				program := Program{ID: element.ID.Int64(), Name: element.Name}
				resolved[name] = program
				if s.cfg.CacheEnabled {
					s.cache.Set(cache.CategoryProgram, name, program, s.cfg.ProgramTTL)
				}
			}
			remaining = next
		}
	}

	var missing []string
	for _, name := range remaining {
		elements, err := s.gw.ListElements(ctx, s.mapping.ProgramsListID, map[string]any{"NAME": name})
		if err != nil {
			s.log.Error("Program lookup failed", "program", name, "error", err.Error())
			missing = append(missing, name)
			continue
		}
		if len(elements) == 0 {
			missing = append(missing, name)
			continue
		}
		program := Program{ID: elements[0].ID.Int64(), Name: elements[0].Name}
		resolved[name] = program
		if s.cfg.CacheEnabled {
			s.cache.Set(cache.CategoryProgram, name, program, s.cfg.ProgramTTL)
		}
	}
	if len(missing) > 0 {
		return nil, &NotFoundError{Entity: "educational programs", Missing: missing}
	}

	out := make([]Program, 0, len(names))
	for _, name := range names {
		out = append(out, resolved[name])
	}
	return out, nil
}
