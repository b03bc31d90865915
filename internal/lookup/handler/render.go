package handler

import (
	"encoding/json"
	"encoding/xml"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"locator/internal/lookup/models"
)

// Wire shape of the lookup response. The domain types stay tag free; the
// two renderings differ enough that each gets its own mapping.

type jsonResponse struct {
	Items  []jsonItem  `json:"items,omitempty"`
	Errors []jsonError `json:"errors,omitempty"`
}

type jsonItem struct {
	CanonicalObjectTypeID string        `json:"canonicalObjectTypeId"`
	Countries             []jsonCountry `json:"countries"`
}

type jsonCountry struct {
	CountryCode string          `json:"countryCode"`
	Provisions  []jsonProvision `json:"provisions"`
}

type jsonProvision struct {
	ATULevel           models.ATULevel `json:"atuLevel"`
	ATUCode            string          `json:"atuCode"`
	ATULatinName       string          `json:"atuLatinName"`
	DataOwnerID        string          `json:"dataOwnerID"`
	DataOwnerPrefLabel string          `json:"dataOwnerPrefLabel"`
	ParameterSets      []jsonParamSet  `json:"parameterSets,omitempty"`
}

type jsonParamSet struct {
	Title         string      `json:"title"`
	ParameterList []jsonParam `json:"parameterList"`
}

type jsonParam struct {
	Name     string `json:"name"`
	Optional bool   `json:"optional"`
}

type jsonError struct {
	Code string `json:"code"`
	Text string `json:"text"`
}

type xmlResponse struct {
	XMLName xml.Name   `xml:"response"`
	Items   []xmlItem  `xml:"item,omitempty"`
	Errors  []xmlError `xml:"error,omitempty"`
}

type xmlItem struct {
	CanonicalObjectTypeID string       `xml:"canonicalObjectTypeId,attr"`
	Countries             []xmlCountry `xml:"country"`
}

type xmlCountry struct {
	CountryCode string         `xml:"countryCode,attr"`
	Provisions  []xmlProvision `xml:"provision"`
}

type xmlProvision struct {
	ATULevel           models.ATULevel `xml:"atuLevel"`
	ATUCode            string          `xml:"atuCode"`
	ATULatinName       string          `xml:"atuLatinName"`
	DataOwnerID        string          `xml:"dataOwnerID"`
	DataOwnerPrefLabel string          `xml:"dataOwnerPrefLabel"`
	ParameterSets      []xmlParamSet   `xml:"parameterSet,omitempty"`
}

type xmlParamSet struct {
	Title      string     `xml:"title"`
	Parameters []xmlParam `xml:"parameter"`
}

type xmlParam struct {
	Optional bool   `xml:"optional,attr"`
	Name     string `xml:",chardata"`
}

type xmlError struct {
	Code string `xml:"code,attr"`
	Text string `xml:",chardata"`
}

// prefersJSON reports whether the Accept header ranks application/json
// strictly above application/xml. XML is the default rendering, so ties and
// absent or unparseable headers stay XML.
func prefersJSON(r *http.Request) bool {
	var jsonQ, xmlQ float64
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mt, params, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		q := 1.0
		if raw, ok := params["q"]; ok {
			if parsed, err := strconv.ParseFloat(raw, 64); err == nil {
				q = parsed
			}
		}
		switch mt {
		case "application/json":
			jsonQ = max(jsonQ, q)
		case "application/xml", "text/xml":
			xmlQ = max(xmlQ, q)
		}
	}
	return jsonQ > xmlQ
}

// writeResponse renders the response tree in the negotiated format with the
// permissive CORS header the lookup endpoints carry. Marshalling happens
// before the header flush so a serialization failure can still become a 500.
func writeResponse(w http.ResponseWriter, r *http.Request, status int, resp *models.Response) {
	var (
		body        []byte
		contentType string
		err         error
	)
	if prefersJSON(r) {
		contentType = "application/json"
		body, err = json.Marshal(toJSON(resp))
	} else {
		contentType = "application/xml"
		body, err = xml.Marshal(toXML(resp))
		body = append([]byte(xml.Header), body...)
	}
	if err != nil {
		http.Error(w, "response serialization failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType+"; charset=utf-8")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeErrors(w http.ResponseWriter, r *http.Request, status int, errs ...models.Error) {
	writeResponse(w, r, status, &models.Response{Errors: errs})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "response serialization failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func toJSON(resp *models.Response) jsonResponse {
	out := jsonResponse{}
	for _, item := range resp.Items {
		ji := jsonItem{CanonicalObjectTypeID: item.CanonicalObjectTypeID}
		for _, c := range item.Countries {
			jc := jsonCountry{CountryCode: c.CountryCode}
			for _, p := range c.Provisions {
				jp := jsonProvision{
					ATULevel:           p.ATULevel,
					ATUCode:            p.ATUCode,
					ATULatinName:       p.ATULatinName,
					DataOwnerID:        p.DataOwnerID,
					DataOwnerPrefLabel: p.DataOwnerPrefLabel,
				}
				for _, ps := range p.ParameterSets {
					jps := jsonParamSet{Title: ps.Title}
					for _, param := range ps.Parameters {
						jps.ParameterList = append(jps.ParameterList, jsonParam(param))
					}
					jp.ParameterSets = append(jp.ParameterSets, jps)
				}
				jc.Provisions = append(jc.Provisions, jp)
			}
			ji.Countries = append(ji.Countries, jc)
		}
		out.Items = append(out.Items, ji)
	}
	for _, e := range resp.Errors {
		out.Errors = append(out.Errors, jsonError(e))
	}
	return out
}

func toXML(resp *models.Response) xmlResponse {
	out := xmlResponse{}
	for _, item := range resp.Items {
		xi := xmlItem{CanonicalObjectTypeID: item.CanonicalObjectTypeID}
		for _, c := range item.Countries {
			xc := xmlCountry{CountryCode: c.CountryCode}
			for _, p := range c.Provisions {
				xp := xmlProvision{
					ATULevel:           p.ATULevel,
					ATUCode:            p.ATUCode,
					ATULatinName:       p.ATULatinName,
					DataOwnerID:        p.DataOwnerID,
					DataOwnerPrefLabel: p.DataOwnerPrefLabel,
				}
				for _, ps := range p.ParameterSets {
					xps := xmlParamSet{Title: ps.Title}
					for _, param := range ps.Parameters {
						xps.Parameters = append(xps.Parameters, xmlParam{Name: param.Name, Optional: param.Optional})
					}
					xp.ParameterSets = append(xp.ParameterSets, xps)
				}
				xc.Provisions = append(xc.Provisions, xp)
			}
			xi.Countries = append(xi.Countries, xc)
		}
		out.Items = append(out.Items, xi)
	}
	for _, e := range resp.Errors {
		out.Errors = append(out.Errors, xmlError(e))
	}
	return out
}
