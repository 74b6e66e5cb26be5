// Package diff computes the deterministic field-by-field comparison of two
// data collection records. The same string is stored in the edit history and
// embedded in curator notifications, so the output must be stable: fixed
// section order, no timestamps, list entries compared by set membership.
package diff

import (
	"fmt"
	"strings"

	dmp "github.com/sergi/go-diff/diffmatchpatch"

	registry "github.com/mirreg/registry"
)

// Collections renders the differences between the stored record (old) and
// the proposed record (new). Sections appear in a fixed order; unchanged
// scalar fields are omitted, list sections always carry their header so two
// diffs over the same records are byte-identical.
func Collections(old, new *registry.DataCollection) string {
	var b strings.Builder

	scalar(&b, "Id", old.ID, new.ID)
	scalar(&b, "Name", old.Name, new.Name)

	listSection(&b, "Synonyms", old.Synonyms, new.Synonyms)

	if old.Definition != new.Definition {
		b.WriteString("Definition:\n")
		b.WriteString(inline(old.Definition, new.Definition))
		b.WriteString("\n")
	}

	scalar(&b, "Regular expression", old.Pattern, new.Pattern)
	scalar(&b, "Official URL", old.URL, new.URL)
	scalar(&b, "MIRIAM URN", old.URN, new.URN)

	listSection(&b, "URIs", uriLines(old.URIs), uriLines(new.URIs))

	resourceSection(&b, old.Resources, new.Resources)

	listSection(&b, "Documentation", docLines(old), docLines(new))
	listSection(&b, "Restrictions", restrictionLines(old.Restrictions), restrictionLines(new.Restrictions))

	return b.String()
}

func scalar(b *strings.Builder, label, old, new string) {
	if old == new {
		return
	}
	fmt.Fprintf(b, "%s:\n\t< %s\n\t> %s\n\n", label, old, new)
}

// listSection reports additions (>) and removals (<) by value, keeping the
// original record's entry order for removals and the proposed record's order
// for additions.
func listSection(b *strings.Builder, label string, old, new []string) {
	fmt.Fprintf(b, "%s:\n", label)
	oldSet := toSet(old)
	newSet := toSet(new)
	for _, v := range new {
		if !oldSet[v] {
			fmt.Fprintf(b, "\t> %s\n", v)
		}
	}
	for _, v := range old {
		if !newSet[v] {
			fmt.Fprintf(b, "\t< %s\n", v)
		}
	}
}

func resourceSection(b *strings.Builder, old, new []registry.Resource) {
	b.WriteString("Resources:\n")

	for _, n := range new {
		match, found := findResource(old, n)
		switch {
		case !found:
			fmt.Fprintf(b, "\t> added: %s\n", resourceLine(n))
		case !match.SameContent(n):
			fmt.Fprintf(b, "\tmodified:\n\t\t< %s\n\t\t> %s\n", resourceLine(match), resourceLine(n))
		}
	}
	for _, o := range old {
		if _, found := findResource(new, o); !found {
			fmt.Fprintf(b, "\t< removed: %s\n", resourceLine(o))
		}
	}
}

func findResource(in []registry.Resource, target registry.Resource) (registry.Resource, bool) {
	for _, r := range in {
		if r.SameEntry(target) {
			return r, true
		}
	}
	return registry.Resource{}, false
}

func resourceLine(r registry.Resource) string {
	line := fmt.Sprintf("%s [%s$id%s] (%s, %s)", r.URLRoot, r.URLPrefix, r.URLSuffix, r.Institution, r.Location)
	if r.ID != "" {
		line = r.ID + " " + line
	}
	if r.Obsolete {
		line += " [obsolete]"
	}
	if r.Primary {
		line += " [primary]"
	}
	return line
}

func uriLines(uris []registry.URI) []string {
	out := make([]string, 0, len(uris))
	for _, u := range uris {
		out = append(out, fmt.Sprintf("%s (%s, %s)", u.Value, u.Type, u.Deprecated))
	}
	return out
}

func docLines(c *registry.DataCollection) []string {
	out := make([]string, 0, len(c.DocumentationIDs))
	for i, id := range c.DocumentationIDs {
		typ := ""
		if i < len(c.DocumentationIDTypes) {
			typ = c.DocumentationIDTypes[i]
		}
		out = append(out, fmt.Sprintf("%s (%s)", id, typ))
	}
	return out
}

func restrictionLines(rs []registry.Restriction) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		line := fmt.Sprintf("category %d: %s", r.CategoryID, r.Description)
		if r.Link != "" {
			line += fmt.Sprintf(" [%s: %s]", r.LinkDescription, r.Link)
		}
		out = append(out, line)
	}
	return out
}

// inline renders a word-level comparison of two prose values, with removals
// in [-…-] and insertions in {+…+}, suitable for plain-text email bodies.
func inline(old, new string) string {
	d := dmp.New()
	chunks := d.DiffMain(old, new, false)
	chunks = d.DiffCleanupSemantic(chunks)

	var b strings.Builder
	b.WriteString("\t")
	for _, c := range chunks {
		switch c.Type {
		case dmp.DiffDelete:
			fmt.Fprintf(&b, "[-%s-]", c.Text)
		case dmp.DiffInsert:
			fmt.Fprintf(&b, "{+%s+}", c.Text)
		default:
			b.WriteString(c.Text)
		}
	}
	b.WriteString("\n")
	return b.String()
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
