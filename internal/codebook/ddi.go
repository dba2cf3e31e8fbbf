package codebook

import (
	"encoding/xml"
	"strings"
)

// ddiLoader reads IPUMS DDI codebooks. Only the variable descriptions and
// category labels under dataDscr are consumed; the rest of the DDI document
// is ignored.
type ddiLoader struct{}

type ddiCodebook struct {
	XMLName xml.Name `xml:"codeBook"`
	Vars    []ddiVar `xml:"dataDscr>var"`
}

type ddiVar struct {
	Name       string        `xml:"name,attr"`
	Label      string        `xml:"labl"`
	Categories []ddiCategory `xml:"catgry"`
}

type ddiCategory struct {
	Value string `xml:"catValu"`
	Label string `xml:"labl"`
}

func (ddiLoader) CanLoad(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xml")
}

func (ddiLoader) Load(data []byte) (map[string]VariableDefinition, error) {
	var doc ddiCodebook
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	defs := make(map[string]VariableDefinition, len(doc.Vars))
	for _, v := range doc.Vars {
		name := strings.TrimSpace(v.Name)
		if name == "" {
			continue
		}
		codes := make(map[string]string, len(v.Categories))
		for _, cat := range v.Categories {
			val := strings.TrimSpace(cat.Value)
			if val == "" {
				continue
			}
			codes[val] = strings.TrimSpace(cat.Label)
		}
		defs[name] = VariableDefinition{
			Description: strings.TrimSpace(v.Label),
			Codes:       codes,
		}
	}
	return defs, nil
}
