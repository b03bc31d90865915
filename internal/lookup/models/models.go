// Package models defines the domain types of the lookup service.
package models

// Identifier is a scheme+value pair, used for participants, document types
// and process descriptors alike. Equality is structural on both fields.
type Identifier struct {
	Scheme string
	Value  string
}

// URIEncoded renders the identifier in its canonical wire form.
func (id Identifier) URIEncoded() string {
	return id.Scheme + "::" + id.Value
}

// Capability is the tri-state outcome of a capability check. The zero value
// is Unknown so that an absent result never masquerades as a definitive one.
type Capability int

const (
	CapabilityUnknown Capability = iota
	CapabilityConfirmed
	CapabilityDenied
)

func (c Capability) String() string {
	switch c {
	case CapabilityConfirmed:
		return "confirmed"
	case CapabilityDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// Entity is one physical office/branch of a participant as listed in the
// directory. ATUCode and AdditionalInfo are optional.
type Entity struct {
	CountryCode    string
	Name           string
	ATUCode        string
	AdditionalInfo string
}

// CandidateMatch associates one participant and one document subtype with
// the entities it was announced under. The document subtype has already
// been filtered to exactly match the requested object type.
type CandidateMatch struct {
	Participant Identifier
	DocType     Identifier
	Entities    []Entity
}

// ATULevel is the granularity of a resolved territorial code.
type ATULevel string

const (
	ATULevelNuts0 ATULevel = "nuts0"
	ATULevelNuts1 ATULevel = "nuts1"
	ATULevelNuts2 ATULevel = "nuts2"
	ATULevelNuts3 ATULevel = "nuts3"
	ATULevelLAU   ATULevel = "lau"
	ATULevelEDU   ATULevel = "edu"
)

// TerritorialUnit is a resolved territorial code with its level and
// display name. Name may be a placeholder when the code is not present in
// the reference data; placeholders are worded so they cannot be mistaken
// for genuine names.
type TerritorialUnit struct {
	Level ATULevel
	Code  string
	Name  string
}

// Parameter is one named parameter requirement of a provision.
type Parameter struct {
	Name     string
	Optional bool
}

// ParameterSet groups the parameters a data owner requires for one kind of
// request.
type ParameterSet struct {
	Title      string
	Parameters []Parameter
}

// Provision is one capability-confirmed, territorially classified result
// row. It is owned exclusively by the response it appears in.
type Provision struct {
	ATULevel           ATULevel
	ATUCode            string
	ATULatinName       string
	DataOwnerID        string
	DataOwnerPrefLabel string
	ParameterSets      []ParameterSet
}

// CountryProvisions holds the provisions of one country within one object
// type group.
type CountryProvisions struct {
	CountryCode string
	Provisions  []Provision
}

// ResponseItem is the per-object-type group of the response tree.
type ResponseItem struct {
	CanonicalObjectTypeID string
	Countries             []CountryProvisions
}

// Error is a coded response error. A response carries at least one Error
// when no provision survived aggregation, and never both.
type Error struct {
	Code string
	Text string
}

// Response is the full lookup result: either items or errors, never both.
// Items are ordered by object type ID, countries by country code.
type Response struct {
	Items  []ResponseItem
	Errors []Error
}
