package diff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	registry "github.com/mirreg/registry"
)

func sample() *registry.DataCollection {
	return &registry.DataCollection{
		ID:         "MIR:00000015",
		Name:       "UniProt",
		Synonyms:   []string{"UniProtKB", "Swiss-Prot"},
		Definition: "The Universal Protein Resource.",
		Pattern:    `^([A-N,R-Z][0-9])$`,
		URN:        "urn:miriam:uniprot",
		URL:        "http://identifiers.org/uniprot/",
		URIs: []registry.URI{
			{Value: "urn:miriam:uniprot", Type: registry.URITypeURN},
		},
		Resources: []registry.Resource{
			{ID: "MIR:00100005", URLPrefix: "http://www.uniprot.org/uniprot/", URLRoot: "http://www.uniprot.org/"},
		},
		DocumentationIDs:     []string{"urn:miriam:pubmed:14681372"},
		DocumentationIDTypes: []string{"PMID"},
	}
}

func TestDeterminism(t *testing.T) {
	old := sample()
	new := sample()
	new.Name = "UniProt Knowledgebase"
	new.Synonyms = append(new.Synonyms, "UniProt KB")

	a := Collections(old, new)
	b := Collections(old, new)
	assert.Equal(t, a, b)
}

func TestIdenticalRecordsStableSkeleton(t *testing.T) {
	a := Collections(sample(), sample())
	b := Collections(sample(), sample())
	assert.Equal(t, a, b)
	// scalar sections disappear when unchanged, list headers remain
	assert.NotContains(t, a, "Name:")
	assert.Contains(t, a, "Synonyms:\n")
	assert.Contains(t, a, "Resources:\n")
}

func TestScalarChange(t *testing.T) {
	old := sample()
	new := sample()
	new.Pattern = `^\w+$`

	out := Collections(old, new)
	assert.Contains(t, out, "Regular expression:")
	assert.Contains(t, out, "\t< ^([A-N,R-Z][0-9])$")
	assert.Contains(t, out, "\t> ^\\w+$")
}

func TestSynonymAddAndRemove(t *testing.T) {
	old := sample()
	new := sample()
	new.Synonyms = []string{"UniProtKB", "SProt"}

	out := Collections(old, new)
	assert.Contains(t, out, "\t> SProt")
	assert.Contains(t, out, "\t< Swiss-Prot")
	assert.NotContains(t, out, "> UniProtKB")
}

func TestResourceModification(t *testing.T) {
	old := sample()
	new := sample()
	new.Resources[0].URLRoot = "https://www.uniprot.org/"
	new.Resources = append(new.Resources, registry.Resource{
		URLPrefix: "http://mirror.example.org/uniprot/",
		URLRoot:   "http://mirror.example.org/",
	})

	out := Collections(old, new)
	assert.Contains(t, out, "modified:")
	assert.Contains(t, out, "added: http://mirror.example.org/")
}

func TestFieldOrder(t *testing.T) {
	old := sample()
	new := sample()
	new.Name = "changed"
	new.Definition = "changed too"
	new.URN = "urn:miriam:other"

	out := Collections(old, new)
	name := strings.Index(out, "Name:")
	def := strings.Index(out, "Definition:")
	urn := strings.Index(out, "MIRIAM URN:")
	res := strings.Index(out, "Resources:")
	assert.True(t, name < def && def < urn && urn < res, "sections out of order:\n%s", out)
}

func TestInlineDefinitionDiff(t *testing.T) {
	old := sample()
	new := sample()
	new.Definition = "The Universal Protein Knowledgebase."

	out := Collections(old, new)
	assert.Contains(t, out, "[-")
	assert.Contains(t, out, "{+")
}
