package profiling

import (
	"fmt"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"gosc/domain/core"
	"gosc/domain/dataset"
)

// ChannelProfile holds summary statistics of one column of a spectra set
type ChannelProfile struct {
	Channel      core.ChannelKey `json:"channel"`
	Mean         float64         `json:"mean"`
	StdDev       float64         `json:"std_dev"`
	Min          float64         `json:"min"`
	Max          float64         `json:"max"`
	Median       float64         `json:"median"`
	Q25          float64         `json:"q25"`
	Q75          float64         `json:"q75"`
	Skewness     float64         `json:"skewness"`
	Kurtosis     float64         `json:"kurtosis"` // excess
	ZeroVariance bool            `json:"zero_variance"`
}

// SpectraProfile summarizes every channel and the response
type SpectraProfile struct {
	Samples  int              `json:"samples"`
	Channels []ChannelProfile `json:"channels"`
	Response ChannelProfile   `json:"response"`
}

// ConstantChannels lists the channels without any spread
func (p *SpectraProfile) ConstantChannels() []core.ChannelKey {
	var out []core.ChannelKey
	for _, c := range p.Channels {
		if c.ZeroVariance {
			out = append(out, c.Channel)
		}
	}
	return out
}

// SpectraProfiler computes per-channel distribution summaries
type SpectraProfiler struct{}

// NewSpectraProfiler creates a new profiler
func NewSpectraProfiler() *SpectraProfiler {
	return &SpectraProfiler{}
}

// Profile summarizes each channel of s and its response
func (sp *SpectraProfiler) Profile(s *dataset.Spectra) (*SpectraProfile, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	rows, cols := s.Dims()

	profile := &SpectraProfile{
		Samples:  rows,
		Channels: make([]ChannelProfile, cols),
	}
	for j := 0; j < cols; j++ {
		key := core.ChannelKey(fmt.Sprintf("ch_%d", j+1))
		if j < len(s.Channels) {
			key = s.Channels[j]
		}
		cp, err := profileColumn(key, mat.Col(nil, j, s.X))
		if err != nil {
			return nil, fmt.Errorf("channel %s: %w", key, err)
		}
		profile.Channels[j] = cp
	}

	response := make([]float64, rows)
	for i := range response {
		response[i] = s.Y.AtVec(i)
	}
	name := s.Response
	if name == "" {
		name = "response"
	}
	cp, err := profileColumn(core.ChannelKey(name), response)
	if err != nil {
		return nil, fmt.Errorf("response: %w", err)
	}
	profile.Response = cp

	return profile, nil
}

// profileColumn performs the distribution analysis of a single column
func profileColumn(key core.ChannelKey, data []float64) (ChannelProfile, error) {
	cp := ChannelProfile{Channel: key}
	var err error

	if cp.Mean, err = stats.Mean(data); err != nil {
		return cp, err
	}
	if cp.StdDev, err = stats.StandardDeviation(data); err != nil {
		return cp, err
	}
	if cp.Min, err = stats.Min(data); err != nil {
		return cp, err
	}
	if cp.Max, err = stats.Max(data); err != nil {
		return cp, err
	}
	if cp.Median, err = stats.Median(data); err != nil {
		return cp, err
	}
	cp.Q25, cp.Q75 = cp.Median, cp.Median
	if len(data) > 1 {
		q, err := stats.Quartile(data)
		if err != nil {
			return cp, err
		}
		cp.Q25, cp.Q75 = q.Q1, q.Q3
	}

	cp.ZeroVariance = cp.Max == cp.Min
	if !cp.ZeroVariance && len(data) > 3 {
		cp.Skewness = stat.Skew(data, nil)
		cp.Kurtosis = stat.ExKurtosis(data, nil)
	}
	return cp, nil
}
