package registry

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Placeholder values substituted for missing fields on anonymous submissions.
const (
	NotProvided = "Not provided!"
	ToComplete  = "To complete..."
)

// Canonical URI roots of the registry.
const (
	URNPrefix   = "urn:miriam:"
	IdOrgPrefix = "http://identifiers.org/"
)

// DeprecationFlag marks the lifecycle of a single URI entry.
// Deprecated URIs are kept resolvable; they are never removed.
type DeprecationFlag int

const (
	URICurrent DeprecationFlag = iota
	URIDeprecated
	URIPendingDeprecation
)

func (f DeprecationFlag) String() string {
	switch f {
	case URICurrent:
		return "current"
	case URIDeprecated:
		return "deprecated"
	case URIPendingDeprecation:
		return "pending-deprecation"
	default:
		return "unknown"
	}
}

// URIType distinguishes the two canonical URI forms.
type URIType string

const (
	URITypeURN URIType = "URN"
	URITypeURL URIType = "URL"
)

// URI is one identifier form of a data collection.
type URI struct {
	Value      string          `json:"value"`
	Type       URIType         `json:"type"`
	Deprecated DeprecationFlag `json:"deprecated"`
}

// OwnershipStatus scopes a resource to the acting user.
type OwnershipStatus int

const (
	OwnershipNone OwnershipStatus = iota
	OwnershipPending
	OwnershipGranted
)

// Resource is one physical access point able to resolve identifiers
// within the collection's namespace.
type Resource struct {
	ID          string          `json:"id,omitempty"`
	URLPrefix   string          `json:"urlPrefix"`
	URLSuffix   string          `json:"urlSuffix,omitempty"`
	URLRoot     string          `json:"urlRoot"`
	Info        string          `json:"info,omitempty"`
	Example     string          `json:"example,omitempty"`
	Institution string          `json:"institution,omitempty"`
	Location    string          `json:"location,omitempty"`
	Obsolete    bool            `json:"obsolete"`
	Primary     bool            `json:"primary"`
	Ownership   OwnershipStatus `json:"-"`
}

// SameEntry reports whether two resources describe the same access point,
// by identifier when both carry one, by template otherwise.
func (r Resource) SameEntry(other Resource) bool {
	if r.ID != "" && other.ID != "" {
		return r.ID == other.ID
	}
	return r.URLPrefix == other.URLPrefix && r.URLRoot == other.URLRoot
}

// SameContent reports whether every stored field matches.
func (r Resource) SameContent(other Resource) bool {
	return r.URLPrefix == other.URLPrefix &&
		r.URLSuffix == other.URLSuffix &&
		r.URLRoot == other.URLRoot &&
		r.Info == other.Info &&
		r.Example == other.Example &&
		r.Institution == other.Institution &&
		r.Location == other.Location &&
		r.Obsolete == other.Obsolete &&
		r.Primary == other.Primary
}

// Restriction is a licensing/access-limitation annotation.
type Restriction struct {
	CategoryID      int    `json:"categoryId"`
	Category        string `json:"category,omitempty"`
	Description     string `json:"description"`
	Link            string `json:"link,omitempty"`
	LinkDescription string `json:"linkDescription,omitempty"`
}

// DataCollection is the aggregate under lifecycle control: a catalogued
// namespace of identifiers together with its resolution metadata.
type DataCollection struct {
	ID                   string        `json:"id,omitempty"`
	Name                 string        `json:"name"`
	Synonyms             []string      `json:"synonyms,omitempty"`
	Definition           string        `json:"definition"`
	Pattern              string        `json:"pattern"`
	URN                  string        `json:"urn"`
	URL                  string        `json:"url"`
	URIs                 []URI         `json:"uris,omitempty"`
	Resources            []Resource    `json:"resources,omitempty"`
	DocumentationIDs     []string      `json:"documentationIds,omitempty"`
	DocumentationIDTypes []string      `json:"documentationIdTypes,omitempty"`
	Restrictions         []Restriction `json:"restrictions,omitempty"`
	Restricted           bool          `json:"restricted"`
	Obsolete             bool          `json:"obsolete"`
	ReplacedBy           string        `json:"replacedBy,omitempty"`
	DeprecationComment   string        `json:"deprecationComment,omitempty"`
	Version              int           `json:"version"`
	CreatedAt            time.Time     `json:"createdAt,omitempty"`
	UpdatedAt            time.Time     `json:"updatedAt,omitempty"`
}

// IsValid reports whether the collection carries the minimum information
// required for curation: a name, a definition, an identifier pattern, at
// least one canonical URI form and at least one resource.
func (c *DataCollection) IsValid() bool {
	return len(c.Problems()) == 0
}

// Problems lists the missing required fields, in display order.
func (c *DataCollection) Problems() []string {
	var problems []string
	if isBlank(c.Name) {
		problems = append(problems, "a name is required")
	}
	if isBlank(c.Definition) {
		problems = append(problems, "a definition is required")
	}
	if isBlank(c.Pattern) {
		problems = append(problems, "an identifier pattern is required")
	}
	if isBlank(c.URN) && isBlank(c.URL) {
		problems = append(problems, "a URN or URL is required")
	}
	if len(c.Resources) == 0 {
		problems = append(problems, "at least one resource is required")
	}
	return problems
}

// HasActiveResource reports whether at least one resource is not obsolete.
func (c *DataCollection) HasActiveResource() bool {
	for _, r := range c.Resources {
		if !r.Obsolete {
			return true
		}
	}
	return false
}

// CoercePlaceholders fills missing required fields with placeholder text.
// Anonymous submissions are never rejected for incompleteness: the registry
// prefers capturing the intent and letting curators complete the record.
func (c *DataCollection) CoercePlaceholders() {
	if isBlank(c.Name) {
		c.Name = NotProvided
	}
	if isBlank(c.Definition) {
		c.Definition = NotProvided
	}
	if isBlank(c.Pattern) {
		c.Pattern = NotProvided
	}
	if isBlank(c.URN) && isBlank(c.URL) {
		c.URN = ToComplete
	}
}

// Normalize enforces structural invariants that do not depend on storage:
// at most one primary resource (first wins), aligned documentation lists
// (dangling entries on either side are dropped, not rejected), and the
// active canonical URN and URL present as non-deprecated URI entries.
func (c *DataCollection) Normalize() {
	seenPrimary := false
	for i := range c.Resources {
		if c.Resources[i].Primary {
			if seenPrimary {
				c.Resources[i].Primary = false
			}
			seenPrimary = true
		}
	}
	if len(c.DocumentationIDs) != len(c.DocumentationIDTypes) {
		n := min(len(c.DocumentationIDs), len(c.DocumentationIDTypes))
		c.DocumentationIDs = c.DocumentationIDs[:n]
		c.DocumentationIDTypes = c.DocumentationIDTypes[:n]
	}
	if NamespaceFromURN(c.URN) != "" {
		ensureURI(c, URI{Value: c.URN, Type: URITypeURN, Deprecated: URICurrent})
	}
	if NamespaceFromURL(c.URL) != "" {
		ensureURI(c, URI{Value: c.URL, Type: URITypeURL, Deprecated: URICurrent})
	}
}

// Namespace derives the collection's namespace from the primary URN, falling
// back to the primary URL.
func (c *DataCollection) Namespace() string {
	if ns := NamespaceFromURN(c.URN); ns != "" {
		return ns
	}
	return NamespaceFromURL(c.URL)
}

// PrimaryResource returns the resource flagged primary, if any.
func (c *DataCollection) PrimaryResource() (Resource, bool) {
	for _, r := range c.Resources {
		if r.Primary {
			return r, true
		}
	}
	return Resource{}, false
}

// ActiveURIs returns the values of all non-deprecated URI entries, sorted.
func (c *DataCollection) ActiveURIs() []string {
	var out []string
	for _, u := range c.URIs {
		if u.Deprecated == URICurrent {
			out = append(out, u.Value)
		}
	}
	sort.Strings(out)
	return out
}

// Clone returns a deep copy of the collection.
func (c *DataCollection) Clone() *DataCollection {
	cp := *c
	cp.Synonyms = append([]string(nil), c.Synonyms...)
	cp.URIs = append([]URI(nil), c.URIs...)
	cp.Resources = append([]Resource(nil), c.Resources...)
	cp.DocumentationIDs = append([]string(nil), c.DocumentationIDs...)
	cp.DocumentationIDTypes = append([]string(nil), c.DocumentationIDTypes...)
	cp.Restrictions = append([]Restriction(nil), c.Restrictions...)
	return &cp
}

// Summary renders the collection as the plain-text block used in
// notifications and audit logs.
func (c *DataCollection) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", c.Name)
	if c.ID != "" {
		fmt.Fprintf(&b, "Identifier: %s\n", c.ID)
	}
	fmt.Fprintf(&b, "Definition: %s\n", c.Definition)
	fmt.Fprintf(&b, "Pattern: %s\n", c.Pattern)
	fmt.Fprintf(&b, "URN: %s\n", c.URN)
	fmt.Fprintf(&b, "URL: %s\n", c.URL)
	if len(c.Synonyms) > 0 {
		fmt.Fprintf(&b, "Synonyms: %s\n", strings.Join(c.Synonyms, ", "))
	}
	for _, u := range c.URIs {
		fmt.Fprintf(&b, "URI: %s (%s, %s)\n", u.Value, u.Type, u.Deprecated)
	}
	for _, r := range c.Resources {
		fmt.Fprintf(&b, "Resource: %s$id%s (%s)", r.URLPrefix, r.URLSuffix, r.URLRoot)
		if r.Obsolete {
			b.WriteString(" [obsolete]")
		}
		if r.Primary {
			b.WriteString(" [primary]")
		}
		b.WriteString("\n")
	}
	for i, id := range c.DocumentationIDs {
		fmt.Fprintf(&b, "Documentation: %s (%s)\n", id, c.DocumentationIDTypes[i])
	}
	return b.String()
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
