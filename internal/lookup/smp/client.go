// Package smp queries per-participant capability endpoints for the
// process descriptors a participant advertises for one document type.
package smp

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"locator/internal/lookup/models"
)

// ErrNotFound signals a definitive "participant does not serve this
// document type" answer, as opposed to a transport failure.
var ErrNotFound = errors.New("service metadata not found")

// Client fetches service metadata from capability endpoints.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// New creates a capability endpoint client. The timeout bounds each query.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
	}
}

type signedServiceMetadata struct {
	XMLName   xml.Name `xml:"SignedServiceMetadata"`
	Processes []struct {
		Scheme string `xml:"scheme,attr"`
		Value  string `xml:",chardata"`
	} `xml:"ServiceMetadata>ServiceInformation>ProcessList>Process>ProcessIdentifier"`
}

// ProcessIdentifiers returns the process descriptors the participant
// advertises for the document type. A 404 maps to ErrNotFound; any other
// failure is a transport/protocol error.
func (c *Client) ProcessIdentifiers(ctx context.Context, participant, docType models.Identifier) ([]models.Identifier, error) {
	reqURL := fmt.Sprintf("%s/%s/services/%s",
		c.baseURL,
		url.PathEscape(participant.URIEncoded()),
		url.PathEscape(docType.URIEncoded()),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build capability request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("capability query for %s: %w", participant.URIEncoded(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("capability query for %s: unexpected status %d", participant.URIEncoded(), resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read capability response: %w", err)
	}

	var sm signedServiceMetadata
	if err := xml.Unmarshal(body, &sm); err != nil {
		return nil, fmt.Errorf("parse capability response: %w", err)
	}

	procs := make([]models.Identifier, 0, len(sm.Processes))
	for _, p := range sm.Processes {
		procs = append(procs, models.Identifier{Scheme: p.Scheme, Value: p.Value})
	}
	return procs, nil
}
