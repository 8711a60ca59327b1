package processor

import (
	"fmt"

	"landanalyzer/bandstore"
)

// EvaluateIndex computes one index array element-wise over the store.
// Degenerate arithmetic (division by zero and friends) is not trapped:
// infinities and NaNs are regular pixel values downstream.
func EvaluateIndex(ie *IndexExpression, store *bandstore.Store) (*bandstore.Band, error) {
	if err := ie.Validate(store); err != nil {
		return nil, err
	}

	operands := make([]*bandstore.Band, len(ie.VarList))
	for i, name := range ie.VarList {
		band, err := store.Band(name)
		if err != nil {
			return nil, err
		}
		operands[i] = band
	}

	height, width := operands[0].Height, operands[0].Width
	out := make([]float64, height*width)
	params := make(map[string]interface{}, len(ie.VarList))

	for i := range out {
		for j, name := range ie.VarList {
			params[name] = operands[j].Data[i]
		}
		result, err := ie.expr.Evaluate(params)
		if err != nil {
			return nil, fmt.Errorf("index %s: evaluation error at pixel %d: %v", ie.Name, i, err)
		}
		// the evaluator does its arithmetic in float32
		v, ok := result.(float32)
		if !ok {
			return nil, fmt.Errorf("index %s: formula produced non-numeric result '%v'", ie.Name, result)
		}
		out[i] = float64(v)
	}

	return &bandstore.Band{Name: ie.Name, Data: out, Height: height, Width: width}, nil
}

// ComputeIndexes eagerly evaluates every registered index, right after
// the band store is built.
func ComputeIndexes(exprs []*IndexExpression, store *bandstore.Store) (map[string]*bandstore.Band, error) {
	indexes := make(map[string]*bandstore.Band, len(exprs))
	for _, ie := range exprs {
		band, err := EvaluateIndex(ie, store)
		if err != nil {
			return nil, err
		}
		indexes[ie.Name] = band
	}
	return indexes, nil
}
