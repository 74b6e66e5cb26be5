package registry

import "strings"

// NamespaceFromURN extracts the namespace token from a registry URN
// (the part after "urn:miriam:"). Returns "" if the value is not a URN.
func NamespaceFromURN(urn string) string {
	if !strings.HasPrefix(urn, URNPrefix) {
		return ""
	}
	return urn[len(URNPrefix):]
}

// NamespaceFromURL extracts the namespace token from an identifiers.org URL
// (the path segment after the host). Returns "" if the value is not one.
func NamespaceFromURL(url string) string {
	if !strings.HasPrefix(url, IdOrgPrefix) {
		return ""
	}
	rest := strings.TrimPrefix(url, IdOrgPrefix)
	rest = strings.TrimSuffix(rest, "/")
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

// ComposeURN builds the canonical URN for a namespace.
func ComposeURN(namespace string) string {
	return URNPrefix + namespace
}

// ComposeURL builds the canonical identifiers.org URL for a namespace.
func ComposeURL(namespace string) string {
	return IdOrgPrefix + namespace + "/"
}

// MigrateNamespace records a change of primary namespace without orphaning
// previously issued identifiers: the old canonical URN and URL are kept as
// deprecated URI entries, and current entries for the collection's new URN
// and URL are appended. The collection's primary URL is rewritten to the
// canonical form of the new namespace. Entries are matched by value, so
// re-applying the migration adds nothing new.
func MigrateNamespace(c *DataCollection, oldURN, oldURL string) {
	if oldURN != "" {
		ensureURI(c, URI{Value: oldURN, Type: URITypeURN, Deprecated: URIDeprecated})
	}
	if oldURL != "" {
		ensureURI(c, URI{Value: oldURL, Type: URITypeURL, Deprecated: URIDeprecated})
	}

	c.URL = ComposeURL(c.Namespace())

	ensureURI(c, URI{Value: c.URN, Type: URITypeURN, Deprecated: URICurrent})
	ensureURI(c, URI{Value: c.URL, Type: URITypeURL, Deprecated: URICurrent})
}

// ensureURI appends the entry unless a URI with the same value exists, in
// which case the existing entry is promoted to the given flag.
func ensureURI(c *DataCollection, u URI) {
	for i := range c.URIs {
		if c.URIs[i].Value == u.Value {
			c.URIs[i].Deprecated = u.Deprecated
			return
		}
	}
	c.URIs = append(c.URIs, u)
}

// IsPublicID reports whether the identifier belongs to the public partition
// (MIR:000... form) rather than the curation pipeline (MIR:009... form).
func IsPublicID(id string) bool {
	return strings.HasPrefix(id, "MIR:000")
}

// IsCurationID reports whether the identifier belongs to the curation
// pipeline.
func IsCurationID(id string) bool {
	return strings.HasPrefix(id, "MIR:009")
}
