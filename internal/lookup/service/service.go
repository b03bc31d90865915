// Package service orchestrates a lookup request: directory queries per
// object type, cache-first capability confirmation with bounded parallel
// fan-out, and aggregation of the confirmed candidates into the response
// tree.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"locator/internal/lookup/metrics"
	"locator/internal/lookup/models"
	pstrings "locator/pkg/platform/strings"
	"locator/pkg/requestcontext"
)

// ErrNoObjectTypes rejects a request without any canonical object type ID.
var ErrNoObjectTypes = errors.New("no canonical object type ID was passed")

// DirectoryClient returns candidate matches announcing one object type.
type DirectoryClient interface {
	Query(ctx context.Context, objectTypeID string) ([]models.CandidateMatch, error)
}

// CapabilityClient returns the process descriptors a participant
// advertises for a document type, or smp.ErrNotFound for a definitive miss.
type CapabilityClient interface {
	ProcessIdentifiers(ctx context.Context, participant, docType models.Identifier) ([]models.Identifier, error)
}

// CapabilityCache is the shared tri-state cache. It never fails; a miss is
// CapabilityUnknown.
type CapabilityCache interface {
	Get(ctx context.Context, participant, docType models.Identifier) models.Capability
	Put(ctx context.Context, participant, docType models.Identifier, found bool)
}

// TerritorialResolver classifies and names territorial codes.
type TerritorialResolver interface {
	Resolve(code string) models.TerritorialUnit
}

// requestProcess is the process descriptor a participant must advertise to
// count as capable of serving evidence requests.
var requestProcess = models.Identifier{Scheme: "urn:de4a-eu:MessageType", Value: "request"}

// Service implements the lookup operation.
type Service struct {
	directory  DirectoryClient
	capability CapabilityClient
	cache      CapabilityCache
	atu        TerritorialResolver

	workers int
	grace   time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithWorkers bounds parallel capability checks per request.
func WithWorkers(n int) Option {
	return func(s *Service) {
		s.workers = n
	}
}

// WithGrace sets how long Lookup waits for in-flight capability checks
// before proceeding with whatever completed.
func WithGrace(d time.Duration) Option {
	return func(s *Service) {
		s.grace = d
	}
}

// New constructs a Service.
func New(directory DirectoryClient, capability CapabilityClient, cache CapabilityCache, atu TerritorialResolver, opts ...Option) *Service {
	s := &Service{
		directory:  directory,
		capability: capability,
		cache:      cache,
		atu:        atu,
		workers:    4,
		grace:      10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LookupRequest carries the validated request parameters. ObjectTypeIDs
// keep first-seen order; ATUCode may be empty.
type LookupRequest struct {
	ObjectTypeIDs []string
	ATUCode       string
}

// cotCandidates are the directory candidates of one object type, in
// directory response order.
type cotCandidates struct {
	objectTypeID string
	matches      []models.CandidateMatch
}

// Lookup resolves the requested object types to capability-confirmed data
// providers grouped by object type and country. Upstream failures drop the
// affected unit of work and the lookup continues; the only error returned
// is a client error for an empty object type list.
func (s *Service) Lookup(ctx context.Context, req LookupRequest) (*models.Response, error) {
	start := time.Now()

	ids := pstrings.DedupeAndTrim(req.ObjectTypeIDs)
	if len(ids) == 0 {
		return nil, ErrNoObjectTypes
	}
	atuCode := strings.ToUpper(strings.TrimSpace(req.ATUCode))

	if s.logger != nil {
		s.logger.InfoContext(ctx, "lookup started",
			"request_id", requestcontext.RequestID(ctx),
			"object_types", ids,
			"atu_code", atuCode,
		)
	}

	groups := make([]cotCandidates, 0, len(ids))
	for _, id := range ids {
		matches, err := s.directory.Query(ctx, id)
		if err != nil {
			// One failed object type must not abort the rest.
			if s.logger != nil {
				s.logger.WarnContext(ctx, "directory query failed, skipping object type",
					"request_id", requestcontext.RequestID(ctx),
					"object_type", id,
					"error", err,
				)
			}
			continue
		}
		if len(matches) == 0 {
			continue
		}
		groups = append(groups, cotCandidates{objectTypeID: id, matches: matches})
	}

	confirmed := s.confirmCandidates(ctx, groups)
	resp := s.aggregate(ctx, ids, atuCode, confirmed)

	if s.metrics != nil {
		s.metrics.ObserveLookupDuration(time.Since(start))
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "lookup finished",
			"request_id", requestcontext.RequestID(ctx),
			"items", len(resp.Items),
			"errors", len(resp.Errors),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	return resp, nil
}
