package service

import (
	"github.com/okian/wpr/internal/domain/model"
	"github.com/okian/wpr/internal/domain/types"
)

// DimensionSettings changes selected parameters of one dimension.
type DimensionSettings struct {
	Coefficient *float64 `json:"coefficient,omitempty"`
	Baseline    *float64 `json:"baseline,omitempty"`
	Target      *float64 `json:"target,omitempty"`
}

// ProfileSettings is the externally configurable part of a profile. Nil or
// absent fields leave the current value untouched.
type ProfileSettings struct {
	TargetWPR  *float64                              `json:"target_wpr,omitempty"`
	Dimensions map[types.Dimension]DimensionSettings `json:"dimensions,omitempty"`
	// Normalize rescales the resulting coefficients to sum to 1.
	Normalize bool `json:"normalize,omitempty"`
	// ResetCoefficients restores the evidence-based weights before applying Dimensions.
	ResetCoefficients bool `json:"reset_coefficients,omitempty"`
}

// Baseline is the first FTP, weight and efficiency factor of an athlete.
type Baseline struct {
	FTP    int     `json:"ftp"`
	Weight float64 `json:"weight"`
	EF     float64 `json:"ef,omitempty"`
}

func (st ProfileSettings) apply(p *model.Profile) {
	if st.TargetWPR != nil {
		p.TargetWPR = *st.TargetWPR
	}
	if st.ResetCoefficients {
		p.ResetEvidenceCoefficients()
	}
	for d, ds := range st.Dimensions {
		params := p.Param(d)
		if ds.Coefficient != nil {
			params.Coefficient = *ds.Coefficient
		}
		if ds.Baseline != nil {
			params.Baseline = *ds.Baseline
			if p.State == model.StateUninitialized {
				params.Current = *ds.Baseline
			}
		}
		if ds.Target != nil {
			params.Target = *ds.Target
		}
		p.SetParam(d, params)
	}
	if st.Normalize {
		p.NormalizeCoefficients()
	}
}
