package processor

import (
	"fmt"

	goeval "github.com/edisonguo/govaluate"

	"landanalyzer/bandstore"
)

// IndexDef declares one remote sensing indicator as a per-pixel
// algebraic formula over band store keys.
type IndexDef struct {
	Name    string
	Formula string
}

// IndexExpression is a parsed IndexDef. VarList holds the band keys the
// formula depends on, in first-appearance order, so missing-band errors
// can be raised before any arithmetic happens.
type IndexExpression struct {
	Name    string
	Formula string
	VarList []string
	expr    *goeval.EvaluableExpression
}

// DefaultIndexes is the indicator set published by the server.
func DefaultIndexes() []IndexDef {
	return []IndexDef{
		{Name: "TCARI", Formula: "B03 * ((B05 - B04) - 0.2*(B05 - B03)*(B05/B04))"},
		{Name: "VI700", Formula: "(B05 - B04) / (B05 + B04)"},
		{Name: "Soil Composition Index", Formula: "(B11 - B08A) / (B11 + B08A)"},
	}
}

// ParseIndexExpressions compiles the index definitions and extracts
// their band dependencies.
func ParseIndexExpressions(defs []IndexDef) ([]*IndexExpression, error) {
	exprs := make([]*IndexExpression, 0, len(defs))
	seen := make(map[string]bool)

	for _, def := range defs {
		if seen[def.Name] {
			return nil, fmt.Errorf("duplicate index name %s", def.Name)
		}
		seen[def.Name] = true

		expr, err := goeval.NewEvaluableExpression(def.Formula)
		if err != nil {
			return nil, fmt.Errorf("index %s: parsing error in formula %q: %v", def.Name, def.Formula, err)
		}

		var varList []string
		varSeen := make(map[string]bool)
		for _, token := range expr.Tokens() {
			if token.Kind != goeval.VARIABLE {
				continue
			}
			varName, ok := token.Value.(string)
			if !ok {
				return nil, fmt.Errorf("index %s: variable token '%v' failed to cast string", def.Name, token.Value)
			}
			if !varSeen[varName] {
				varSeen[varName] = true
				varList = append(varList, varName)
			}
		}
		if len(varList) == 0 {
			return nil, fmt.Errorf("index %s: formula %q references no bands", def.Name, def.Formula)
		}

		exprs = append(exprs, &IndexExpression{
			Name:    def.Name,
			Formula: def.Formula,
			VarList: varList,
			expr:    expr,
		})
	}

	return exprs, nil
}

// Validate checks that every band the expression depends on is present
// in the store.
func (ie *IndexExpression) Validate(store *bandstore.Store) error {
	for _, name := range ie.VarList {
		if !store.HasBand(name) {
			return fmt.Errorf("index %s requires band %s which is not in the store", ie.Name, name)
		}
	}
	return nil
}
