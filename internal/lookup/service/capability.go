package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"locator/internal/lookup/models"
	"locator/internal/lookup/smp"
	"locator/pkg/requestcontext"
)

// confirmCandidates runs capability checks for all candidates with bounded
// parallelism and returns the groups filtered down to confirmed candidates.
// Checks still in flight when the grace deadline passes count as unknown
// for this request; they are not cancelled, so their cache write still
// lands for future requests.
func (s *Service) confirmCandidates(ctx context.Context, groups []cotCandidates) []cotCandidates {
	type ref struct {
		group, match int
	}
	var refs []ref
	for gi, g := range groups {
		for mi := range g.matches {
			refs = append(refs, ref{group: gi, match: mi})
		}
	}
	if len(refs) == 0 {
		return nil
	}

	// Zero value is CapabilityUnknown, so a slot that was never stored
	// reads as an unfinished check.
	results := make([]atomic.Int32, len(refs))

	var eg errgroup.Group
	eg.SetLimit(s.workers)
	done := make(chan struct{})
	go func() {
		for i, r := range refs {
			i := i
			cand := groups[r.group].matches[r.match]
			eg.Go(func() error {
				results[i].Store(int32(s.resolveCapability(ctx, cand)))
				return nil
			})
		}
		_ = eg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(s.grace):
		if s.logger != nil {
			s.logger.WarnContext(ctx, "capability checks still in flight, proceeding with partial results",
				"request_id", requestcontext.RequestID(ctx),
				"grace", s.grace,
			)
		}
	}

	confirmed := make([][]bool, len(groups))
	for gi := range groups {
		confirmed[gi] = make([]bool, len(groups[gi].matches))
	}
	for i, r := range refs {
		confirmed[r.group][r.match] = models.Capability(results[i].Load()) == models.CapabilityConfirmed
	}

	out := make([]cotCandidates, 0, len(groups))
	for gi, g := range groups {
		kept := cotCandidates{objectTypeID: g.objectTypeID}
		for mi, m := range g.matches {
			if confirmed[gi][mi] {
				kept.matches = append(kept.matches, m)
			} else if s.logger != nil {
				s.logger.InfoContext(ctx, "skipping candidate without confirmed capability",
					"request_id", requestcontext.RequestID(ctx),
					"participant", m.Participant.URIEncoded(),
					"object_type", g.objectTypeID,
				)
			}
		}
		if len(kept.matches) > 0 {
			out = append(out, kept)
		}
	}
	return out
}

// resolveCapability decides the tri-state capability of one candidate:
// cache first, then a remote capability query. Definitive outcomes of both
// polarities are cached; a transport failure yields unknown and is never
// cached so a transient error cannot poison the cache.
func (s *Service) resolveCapability(ctx context.Context, cand models.CandidateMatch) models.Capability {
	if state := s.cache.Get(ctx, cand.Participant, cand.DocType); state != models.CapabilityUnknown {
		return state
	}

	// Detached from the request lifetime: see confirmCandidates.
	rctx := context.WithoutCancel(ctx)

	if s.metrics != nil {
		s.metrics.IncrementCapabilityQueries()
	}
	procs, err := s.capability.ProcessIdentifiers(rctx, cand.Participant, cand.DocType)
	if errors.Is(err, smp.ErrNotFound) {
		s.cache.Put(rctx, cand.Participant, cand.DocType, false)
		return models.CapabilityDenied
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncrementCapabilityFailures()
		}
		if s.logger != nil {
			s.logger.WarnContext(ctx, "capability query failed",
				"request_id", requestcontext.RequestID(ctx),
				"participant", cand.Participant.URIEncoded(),
				"error", err,
			)
		}
		return models.CapabilityUnknown
	}

	found := false
	for _, p := range procs {
		if p == requestProcess {
			// First match is enough.
			found = true
			break
		}
	}
	s.cache.Put(rctx, cand.Participant, cand.DocType, found)
	if found {
		return models.CapabilityConfirmed
	}
	return models.CapabilityDenied
}
