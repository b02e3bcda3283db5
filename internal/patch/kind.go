package patch

import "fmt"

// Kind is the kind of place a substitution was made in.
type Kind uint8

const (
	// KindLoad is the operand of a string load instruction.
	KindLoad Kind = iota
	// KindField is the constant of a static literal string field.
	KindField
	// KindResource is a whole embedded text resource.
	KindResource
)

func (k Kind) String() string {
	switch k {
	case KindLoad:
		return "ldstr"
	case KindField:
		return "field"
	case KindResource:
		return "resource"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Hit is one substitution.
type Hit struct {
	File   string
	Line   int // 1-based line in the normalized output; 0 for resources
	Kind   Kind
	Before string
	After  string
}

// Counts tallies substitutions per kind.
type Counts struct {
	Loads     int `json:"ldstr"`
	Fields    int `json:"fields"`
	Resources int `json:"resources"`
}

func (c *Counts) inc(k Kind) {
	switch k {
	case KindLoad:
		c.Loads++
	case KindField:
		c.Fields++
	case KindResource:
		c.Resources++
	}
}

// Add accumulates o into c.
func (c *Counts) Add(o Counts) {
	c.Loads += o.Loads
	c.Fields += o.Fields
	c.Resources += o.Resources
}

// Total is the number of substitutions of any kind.
func (c Counts) Total() int { return c.Loads + c.Fields + c.Resources }

// Map keys counts by Kind.String.
func (c Counts) Map() map[string]int {
	return map[string]int{
		KindLoad.String():     c.Loads,
		KindField.String():    c.Fields,
		KindResource.String(): c.Resources,
	}
}

func countsFromMap(m map[string]int) Counts {
	return Counts{
		Loads:     m[KindLoad.String()],
		Fields:    m[KindField.String()],
		Resources: m[KindResource.String()],
	}
}
