package server

// DistributionRequest is the JSON body for POST /distribution. Exactly one
// of Formula or Sequence must be set; Mods applies to Sequence only.
type DistributionRequest struct {
	Formula         string   `json:"formula,omitempty"`
	Sequence        string   `json:"sequence,omitempty"`
	Mods            string   `json:"mods,omitempty"` // "name@pos;name@pos", 1-based
	Charge          int      `json:"charge,omitempty"`
	FineResolution  *float64 `json:"fine_resolution,omitempty"`
	MinProbability  *float64 `json:"min_probability,omitempty"`
	Normalization   string   `json:"normalization,omitempty"` // "sum" or "basepeak"
	TopN            int      `json:"top_n,omitempty"`
	IntensityCutoff float64  `json:"intensity_cutoff,omitempty"` // % of base peak
}

// DistributionResponse is the JSON response for POST /distribution.
type DistributionResponse struct {
	Formula          string     `json:"formula"`
	Sequence         string     `json:"sequence,omitempty"`
	Charge           int        `json:"charge"`
	MonoisotopicMass float64    `json:"monoisotopic_mass"`
	Resolution       float64    `json:"resolution"`
	Normalization    string     `json:"normalization"`
	Peaks            []PeakJSON `json:"peaks"`
}

// PeakJSON is one mass/intensity pair.
type PeakJSON struct {
	Mass      float64 `json:"mass"`
	Intensity float64 `json:"intensity"`
}

// ElementResponse is the JSON response for GET /elements/{symbol}.
type ElementResponse struct {
	Symbol   string        `json:"symbol"`
	Isotopes []IsotopeJSON `json:"isotopes"`
}

// IsotopeJSON is one isotope of an element.
type IsotopeJSON struct {
	MassNumber int     `json:"mass_number"`
	Mass       float64 `json:"mass"`
	Abundance  float64 `json:"abundance"`
}
