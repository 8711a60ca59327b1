package processor

import (
	"strings"
	"testing"

	"landanalyzer/bandstore"
)

func constBand(name string, height, width int, value float64) *bandstore.Band {
	data := make([]float64, height*width)
	for i := range data {
		data[i] = value
	}
	return &bandstore.Band{Name: name, Data: data, Height: height, Width: width}
}

func testStore(t *testing.T, values map[string]float64) *bandstore.Store {
	t.Helper()
	bands := make(map[string]*bandstore.Band)
	for name, value := range values {
		bands[name] = constBand(name, 2, 3, value)
	}
	store, err := bandstore.NewStore(bands, nil)
	if err != nil {
		t.Fatalf("store construction failed: %v", err)
	}
	return store
}

func TestParseDefaultIndexes(t *testing.T) {
	exprs, err := ParseIndexExpressions(DefaultIndexes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(exprs) != 3 {
		t.Fatalf("expected 3 indexes, actual %d", len(exprs))
	}

	expected := map[string][]string{
		"TCARI":                  {"B03", "B05", "B04"},
		"VI700":                  {"B05", "B04"},
		"Soil Composition Index": {"B11", "B08A"},
	}
	for _, ie := range exprs {
		want, found := expected[ie.Name]
		if !found {
			t.Errorf("unexpected index %s", ie.Name)
			continue
		}
		if strings.Join(ie.VarList, ",") != strings.Join(want, ",") {
			t.Errorf("index %s: expected bands %v, actual %v", ie.Name, want, ie.VarList)
		}
	}
}

func TestParseRejectsBadDefinitions(t *testing.T) {
	if _, err := ParseIndexExpressions([]IndexDef{{Name: "bad", Formula: "B03 +"}}); err == nil {
		t.Error("expected a parsing error, got none")
	}
	if _, err := ParseIndexExpressions([]IndexDef{{Name: "const", Formula: "1 + 2"}}); err == nil {
		t.Error("expected a no-bands error, got none")
	}
	defs := []IndexDef{
		{Name: "dup", Formula: "B03 + B04"},
		{Name: "dup", Formula: "B03 - B04"},
	}
	if _, err := ParseIndexExpressions(defs); err == nil {
		t.Error("expected a duplicate name error, got none")
	}
}

func TestValidateMissingBand(t *testing.T) {
	exprs, err := ParseIndexExpressions(DefaultIndexes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	store := testStore(t, map[string]float64{"B03": 1, "B04": 2, "B05": 4})
	for _, ie := range exprs {
		err := ie.Validate(store)
		if ie.Name == "Soil Composition Index" {
			if err == nil {
				t.Error("expected a missing band error before evaluation, got none")
			} else if !strings.Contains(err.Error(), "B11") && !strings.Contains(err.Error(), "B08A") {
				t.Errorf("error does not name the missing band: %v", err)
			}
		} else if err != nil {
			t.Errorf("index %s: unexpected error: %v", ie.Name, err)
		}
	}
}
