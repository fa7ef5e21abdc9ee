package training

import (
	"encoding/json"
	"errors"

	"return-radar/internal/domain"
	"return-radar/internal/ml/encode"
	"return-radar/internal/ml/models/gbt"
)

// Pipeline is the fitted encoder plus classifier. It is immutable after
// training; scoring never mutates it.
type Pipeline struct {
	encoder *encode.OneHot
	model   *gbt.Model
}

type pipelineArtifact struct {
	Encoder json.RawMessage `json:"encoder"`
	Model   json.RawMessage `json:"model"`
}

func NewPipeline(encoder *encode.OneHot, model *gbt.Model) *Pipeline {
	return &Pipeline{encoder: encoder, model: model}
}

func (p *Pipeline) Encoder() *encode.OneHot { return p.encoder }
func (p *Pipeline) Model() *gbt.Model       { return p.model }

// PredictProb encodes one sample and scores it. Unknown categories and
// unseen group keys were already handled upstream, so this never fails.
func (p *Pipeline) PredictProb(s domain.Sample) float64 {
	return p.model.PredictProb(p.encoder.Transform(s))
}

func (p *Pipeline) PredictBatch(samples []domain.Sample) []float64 {
	out := make([]float64, len(samples))
	for i := range samples {
		out[i] = p.PredictProb(samples[i])
	}
	return out
}

func (p *Pipeline) MarshalBinary() ([]byte, error) {
	if p == nil || p.encoder == nil || p.model == nil {
		return nil, errors.New("nil pipeline")
	}
	encBlob, err := p.encoder.MarshalBinary()
	if err != nil {
		return nil, err
	}
	modelBlob, err := p.model.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return json.Marshal(pipelineArtifact{Encoder: encBlob, Model: modelBlob})
}

func UnmarshalPipeline(blob []byte) (*Pipeline, error) {
	var a pipelineArtifact
	if err := json.Unmarshal(blob, &a); err != nil {
		return nil, err
	}
	encoder, err := encode.UnmarshalBinary(a.Encoder)
	if err != nil {
		return nil, err
	}
	model, err := gbt.UnmarshalBinary(a.Model)
	if err != nil {
		return nil, err
	}
	return &Pipeline{encoder: encoder, model: model}, nil
}
