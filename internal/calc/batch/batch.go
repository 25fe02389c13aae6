package batch

import (
	"fmt"

	"Aerostat/internal/calc/airship"
	"Aerostat/internal/calc/lift"
	"Aerostat/internal/calc/pipeline"
)

const MaxItems = 100

type Item struct {
	airship.RawInput
	Label string `json:"label"`
}

type Input struct {
	Gas     string                     `json:"gas"`
	History []airship.HistoricalRecord `json:"history"`
	Items   []Item                     `json:"items"`
}

type ItemResult struct {
	Label  string              `json:"label"`
	Result *pipeline.Result    `json:"result,omitempty"`
	Error  *pipeline.ErrorBody `json:"error,omitempty"`
}

type Output struct {
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Results   []ItemResult `json:"results"`
}

// Calculate runs every item through the pipeline with the same gas and
// history. A failing item does not stop the others.
func Calculate(p *pipeline.Pipeline, gas lift.Gas, in Input) (Output, error) {
	if len(in.Items) == 0 {
		return Output{}, fmt.Errorf("no items")
	}
	if len(in.Items) > MaxItems {
		return Output{}, fmt.Errorf("too many items: %d > %d", len(in.Items), MaxItems)
	}
	out := Output{Results: make([]ItemResult, 0, len(in.Items))}
	for _, item := range in.Items {
		ir := ItemResult{Label: item.Label}
		res, err := p.Calculate(item.RawInput, in.History, gas)
		if err != nil {
			_, body := pipeline.ErrorFor(err)
			ir.Error = &body
			out.Failed++
		} else {
			ir.Result = &res
			out.Succeeded++
		}
		out.Results = append(out.Results, ir)
	}
	return out, nil
}
