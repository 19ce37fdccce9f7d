package cli

import (
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/wpr/internal/domain/model"
)

// AnalysisFile is the document read by the analyze command. JSON is accepted
// as well since it parses as YAML.
//
//	profile:
//	  athlete_id: a1
//	  target_wpr: 4.5
//	  baseline_ftp: 250
//	  baseline_weight: 72
//	  current_ftp: 265
//	  current_weight: 71
//	snapshots:
//	  strength:
//	    current: {push: 1200, pull: 900, legs: 2000}
//	    baseline: {push: 1000, pull: 850, legs: 1800}
//	rate: 0.02
type AnalysisFile struct {
	Profile   *model.Profile  `json:"profile"`
	Snapshots model.Snapshots `json:"snapshots"`
	// Rate is the monthly improvement rate; nil estimates it from history.
	Rate *float64 `json:"rate,omitempty"`
}

// LoadAnalysisFile reads path into an AnalysisFile. The profile starts from
// defaults so a file only needs the fields it changes; a listed dimension
// replaces its default parameters as a whole.
func LoadAnalysisFile(path string, now time.Time) (*AnalysisFile, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFile, err)
	}

	out := &AnalysisFile{Profile: model.NewProfile(k.String("profile.athlete_id"), now)}
	err := k.UnmarshalWithConf("", out, koanf.UnmarshalConf{
		Tag: "json",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.TextUnmarshallerHookFunc(),
				mapstructure.StringToTimeDurationHookFunc(),
			),
			WeaklyTypedInput: true,
			Result:           out,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFile, err)
	}
	if out.Profile.AthleteID == "" {
		out.Profile.AthleteID = "offline"
	}
	if err := out.Profile.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := out.Snapshots.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return out, nil
}
