package encode

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"return-radar/internal/domain"
)

// OneHot expands categorical columns into indicator features and passes
// numeric columns through unchanged. Categories are captured at fit time;
// a value unseen then encodes as an all-zero block instead of failing.
type OneHot struct {
	numericNames []string
	catNames     []string
	categories   [][]string
	index        []map[string]int
}

type artifact struct {
	NumericNames []string   `json:"numeric_names"`
	CatNames     []string   `json:"categorical_names"`
	Categories   [][]string `json:"categories"`
}

// Fit captures the category vocabulary from the training samples. Category
// order is sorted per column so the encoded layout is deterministic.
func Fit(samples []domain.Sample, numericNames, catNames []string) (*OneHot, error) {
	if len(samples) == 0 {
		return nil, errors.New("cannot fit encoder on empty sample set")
	}
	for i := range samples {
		if len(samples[i].Numeric) != len(numericNames) {
			return nil, fmt.Errorf("sample %s: %d numeric values, want %d", samples[i].OrderID, len(samples[i].Numeric), len(numericNames))
		}
		if len(samples[i].Categorical) != len(catNames) {
			return nil, fmt.Errorf("sample %s: %d categorical values, want %d", samples[i].OrderID, len(samples[i].Categorical), len(catNames))
		}
	}

	categories := make([][]string, len(catNames))
	for col := range catNames {
		seen := make(map[string]struct{})
		for i := range samples {
			seen[samples[i].Categorical[col]] = struct{}{}
		}
		values := make([]string, 0, len(seen))
		for v := range seen {
			values = append(values, v)
		}
		sort.Strings(values)
		categories[col] = values
	}

	e := &OneHot{
		numericNames: append([]string(nil), numericNames...),
		catNames:     append([]string(nil), catNames...),
		categories:   categories,
	}
	e.buildIndex()
	return e, nil
}

func (e *OneHot) buildIndex() {
	e.index = make([]map[string]int, len(e.categories))
	for col, values := range e.categories {
		m := make(map[string]int, len(values))
		for i, v := range values {
			m[v] = i
		}
		e.index[col] = m
	}
}

// Transform encodes one sample into the full feature vector: numeric values
// first, then one indicator block per categorical column.
func (e *OneHot) Transform(s domain.Sample) []float64 {
	out := make([]float64, 0, e.Width())
	out = append(out, s.Numeric...)
	for col := range e.categories {
		block := make([]float64, len(e.categories[col]))
		if col < len(s.Categorical) {
			if pos, ok := e.index[col][s.Categorical[col]]; ok {
				block[pos] = 1
			}
		}
		out = append(out, block...)
	}
	return out
}

func (e *OneHot) TransformAll(samples []domain.Sample) [][]float64 {
	out := make([][]float64, len(samples))
	for i := range samples {
		out[i] = e.Transform(samples[i])
	}
	return out
}

func (e *OneHot) Width() int {
	w := len(e.numericNames)
	for _, values := range e.categories {
		w += len(values)
	}
	return w
}

// FeatureNames mirrors Transform's layout, one name per encoded position.
func (e *OneHot) FeatureNames() []string {
	names := append([]string(nil), e.numericNames...)
	for col, values := range e.categories {
		for _, v := range values {
			names = append(names, e.catNames[col]+"="+v)
		}
	}
	return names
}

func (e *OneHot) MarshalBinary() ([]byte, error) {
	if e == nil {
		return nil, errors.New("nil encoder")
	}
	return json.Marshal(artifact{
		NumericNames: e.numericNames,
		CatNames:     e.catNames,
		Categories:   e.categories,
	})
}

func UnmarshalBinary(data []byte) (*OneHot, error) {
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	if len(a.CatNames) != len(a.Categories) {
		return nil, errors.New("invalid encoder artifact")
	}
	e := &OneHot{
		numericNames: a.NumericNames,
		catNames:     a.CatNames,
		categories:   a.Categories,
	}
	e.buildIndex()
	return e, nil
}
