package service

import (
	"context"
	"encoding/json"
	"strings"

	"locator/internal/lookup/models"
	"locator/pkg/requestcontext"
)

// Expected shape of the optional entity metadata:
//
//	[ { "title": "ES/BirthEvidence/BirthRegister",
//	    "parameterList": [ { "name": "ES/Register/Volume", "optional": false } ] } ]
type paramSetJSON struct {
	Title         *string      `json:"title"`
	ParameterList *[]paramJSON `json:"parameterList"`
}

type paramJSON struct {
	Name     string `json:"name"`
	Optional bool   `json:"optional"`
}

// parseParameterSets binds the free-form entity metadata defensively. Any
// malformed payload, or a set missing its required substructure, degrades
// to "no parameter sets attached" with a warning; one participant's bad
// metadata must never fail the row, let alone the request.
func (s *Service) parseParameterSets(ctx context.Context, raw string) []models.ParameterSet {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var sets []paramSetJSON
	if err := json.Unmarshal([]byte(raw), &sets); err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "failed to read entity metadata as JSON array",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
		}
		return nil
	}

	var out []models.ParameterSet
	for _, set := range sets {
		if set.Title == nil || set.ParameterList == nil {
			s.warnParamSet(ctx, "parameter set is missing title and/or parameterList")
			continue
		}
		if *set.Title == "" {
			s.warnParamSet(ctx, "parameter set has an empty title")
			continue
		}
		if len(*set.ParameterList) == 0 {
			s.warnParamSet(ctx, "parameter set has no parameter entries")
			continue
		}

		params := make([]models.Parameter, 0, len(*set.ParameterList))
		for _, p := range *set.ParameterList {
			params = append(params, models.Parameter{Name: p.Name, Optional: p.Optional})
		}
		out = append(out, models.ParameterSet{Title: *set.Title, Parameters: params})
	}
	return out
}

func (s *Service) warnParamSet(ctx context.Context, msg string) {
	if s.logger != nil {
		s.logger.WarnContext(ctx, msg, "request_id", requestcontext.RequestID(ctx))
	}
}
