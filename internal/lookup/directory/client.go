// Package directory queries the participant directory for candidates that
// announce a given canonical object type.
package directory

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"locator/internal/lookup/metrics"
	"locator/internal/lookup/models"
)

// maxResults caps one directory query; the directory rejects unbounded
// result sets.
const maxResults = 100

// Client issues directory search queries over HTTP.
type Client struct {
	baseURL string
	httpc   *http.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Client)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates a directory client. The timeout bounds each query.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Wire types of the directory search response.
type resultList struct {
	XMLName xml.Name   `xml:"resultlist"`
	Matches []matchXML `xml:"match"`
}

type matchXML struct {
	ParticipantID idXML       `xml:"participantID"`
	DocTypeIDs    []idXML     `xml:"docTypeID"`
	Entities      []entityXML `xml:"entity"`
}

type idXML struct {
	Scheme string `xml:"scheme,attr"`
	Value  string `xml:",chardata"`
}

type entityXML struct {
	Name           string  `xml:"name"`
	CountryCode    string  `xml:"countryCode"`
	Identifiers    []idXML `xml:"identifier"`
	AdditionalInfo string  `xml:"additionalInfo"`
}

// Query performs one directory search for the given object type and
// normalizes the result into candidate matches. Territorial filtering is
// never pushed down to the directory: its filter parameters combine with OR
// semantics and would silently broaden the result set.
func (c *Client) Query(ctx context.Context, objectTypeID string) ([]models.CandidateMatch, error) {
	if c.metrics != nil {
		c.metrics.IncrementDirectoryQueries()
	}

	q := url.Values{}
	q.Set("doctype", objectTypeID)
	q.Set("rpc", fmt.Sprint(maxResults))
	reqURL := c.baseURL + "/search/1.0/xml?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build directory request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		if c.metrics != nil {
			c.metrics.IncrementDirectoryFailures()
		}
		return nil, fmt.Errorf("directory query for %q: %w", objectTypeID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if c.metrics != nil {
			c.metrics.IncrementDirectoryFailures()
		}
		return nil, fmt.Errorf("directory query for %q: unexpected status %d", objectTypeID, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if c.metrics != nil {
			c.metrics.IncrementDirectoryFailures()
		}
		return nil, fmt.Errorf("read directory response: %w", err)
	}

	var list resultList
	if err := xml.Unmarshal(body, &list); err != nil {
		if c.metrics != nil {
			c.metrics.IncrementDirectoryFailures()
		}
		return nil, fmt.Errorf("parse directory response: %w", err)
	}

	return c.normalize(ctx, objectTypeID, list), nil
}

// normalize filters each match down to the document subtype that exactly
// matches the requested object type. The directory matches on substrings,
// so over-matching subtypes are discarded here.
func (c *Client) normalize(ctx context.Context, objectTypeID string, list resultList) []models.CandidateMatch {
	out := make([]models.CandidateMatch, 0, len(list.Matches))
	for _, m := range list.Matches {
		var docTypes []models.Identifier
		for _, dt := range m.DocTypeIDs {
			if dt.Value == objectTypeID {
				docTypes = append(docTypes, models.Identifier{Scheme: dt.Scheme, Value: dt.Value})
			}
		}

		participant := models.Identifier{Scheme: m.ParticipantID.Scheme, Value: m.ParticipantID.Value}

		if len(docTypes) == 0 {
			if c.logger != nil {
				c.logger.InfoContext(ctx, "skipping candidate without matching document type",
					"participant", participant.URIEncoded(),
					"object_type", objectTypeID,
				)
			}
			continue
		}
		if len(docTypes) > 1 {
			// One exact match per candidate is a backend invariant; report
			// the breach but keep the first rather than failing the request.
			if c.logger != nil {
				c.logger.WarnContext(ctx, "directory returned multiple exact document type matches",
					"participant", participant.URIEncoded(),
					"object_type", objectTypeID,
					"count", len(docTypes),
				)
			}
		}

		entities := make([]models.Entity, 0, len(m.Entities))
		for _, e := range m.Entities {
			entities = append(entities, models.Entity{
				CountryCode:    e.CountryCode,
				Name:           e.Name,
				ATUCode:        atuIdentifier(e.Identifiers),
				AdditionalInfo: e.AdditionalInfo,
			})
		}

		out = append(out, models.CandidateMatch{
			Participant: participant,
			DocType:     docTypes[0],
			Entities:    entities,
		})
	}
	return out
}

// atuIdentifier extracts the entity's declared territorial code, if any.
func atuIdentifier(ids []idXML) string {
	for _, id := range ids {
		if id.Scheme == "atuCode" {
			return id.Value
		}
	}
	return ""
}
