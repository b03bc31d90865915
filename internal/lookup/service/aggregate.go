package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"locator/internal/lookup/models"
	"locator/pkg/requestcontext"
)

// aggregate expands confirmed candidates one entity per row, applies the
// requested territorial prefix filter, resolves territorial metadata and
// builds the response tree. Groups are ordered lexically by object type ID
// then country code; rows keep directory response order. Empty groups are
// omitted; an empty tree yields exactly one no-match error, as the response
// schema requires a non-empty result of either provisions or errors.
func (s *Service) aggregate(ctx context.Context, ids []string, atuCode string, groups []cotCandidates) *models.Response {
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].objectTypeID < groups[j].objectTypeID
	})

	resp := &models.Response{}
	for _, g := range groups {
		item := models.ResponseItem{CanonicalObjectTypeID: g.objectTypeID}

		type row struct {
			participant models.Identifier
			entity      models.Entity
		}
		byCountry := make(map[string][]row)
		for _, m := range g.matches {
			for _, e := range m.Entities {
				byCountry[e.CountryCode] = append(byCountry[e.CountryCode], row{participant: m.Participant, entity: e})
			}
		}

		countries := make([]string, 0, len(byCountry))
		for cc := range byCountry {
			countries = append(countries, cc)
		}
		sort.Strings(countries)

		for _, cc := range countries {
			perCountry := models.CountryProvisions{CountryCode: cc}
			for _, r := range byCountry[cc] {
				code := r.entity.ATUCode
				if code == "" {
					// Entities without a declared territorial code count as
					// country wide.
					code = cc
				}
				code = strings.ToUpper(code)

				if atuCode != "" && !strings.HasPrefix(code, atuCode) {
					if s.logger != nil {
						s.logger.InfoContext(ctx, "ignoring provision outside requested territorial scope",
							"request_id", requestcontext.RequestID(ctx),
							"atu_code", code,
							"requested", atuCode,
						)
					}
					continue
				}

				unit := s.atu.Resolve(code)
				perCountry.Provisions = append(perCountry.Provisions, models.Provision{
					ATULevel:           unit.Level,
					ATUCode:            unit.Code,
					ATULatinName:       unit.Name,
					DataOwnerID:        r.participant.URIEncoded(),
					DataOwnerPrefLabel: r.entity.Name,
					ParameterSets:      s.parseParameterSets(ctx, r.entity.AdditionalInfo),
				})
			}
			if len(perCountry.Provisions) > 0 {
				item.Countries = append(item.Countries, perCountry)
			}
		}
		if len(item.Countries) > 0 {
			resp.Items = append(resp.Items, item)
		}
	}

	if len(resp.Items) == 0 {
		text := fmt.Sprintf("Found no matches searching for '%s'", strings.Join(ids, ","))
		if atuCode != "" {
			text += fmt.Sprintf(" and ATU code '%s'", atuCode)
		}
		resp.Errors = append(resp.Errors, models.Error{Code: "no-match", Text: text})
	}
	return resp
}
