package scoring

// Shipped FACIT instrument schemas (version 4 scoring templates). Raw codes
// run 0-4; 8 and 9 are the conventional not-answered sentinels. Sub-scale
// scores tolerate up to half the items missing; totals require more than 80%
// of items answered overall.

// FACTG is the Functional Assessment of Cancer Therapy - General: four
// well-being sub-scales and their grand total.
func FACTG() *Questionnaire {
	return &Questionnaire{
		Key:       "FACT-G",
		Name:      "Functional Assessment of Cancer Therapy - General",
		Version:   "4",
		Codes:     CodeRange{Min: 0, Max: 4},
		Sentinels: []int{8, 9},
		Subscales: []Subscale{
			{
				Name:      "PWB",
				Items:     []string{"GP1", "GP2", "GP3", "GP4", "GP5", "GP6", "GP7"},
				Reversed:  []string{"GP1", "GP2", "GP3", "GP4", "GP5", "GP6", "GP7"},
				Threshold: 0.5,
			},
			{
				Name:      "SWB",
				Items:     []string{"GS1", "GS2", "GS3", "GS4", "GS5", "GS6", "GS7"},
				Threshold: 0.5,
			},
			{
				Name:      "EWB",
				Items:     []string{"GE1", "GE2", "GE3", "GE4", "GE5", "GE6"},
				Reversed:  []string{"GE1", "GE3", "GE4", "GE5", "GE6"},
				Threshold: 0.5,
			},
			{
				Name:      "FWB",
				Items:     []string{"GF1", "GF2", "GF3", "GF4", "GF5", "GF6", "GF7"},
				Threshold: 0.5,
			},
		},
		Composites: []Composite{
			{Name: "FACTG", Subscales: []string{"PWB", "SWB", "EWB", "FWB"}, Threshold: 0.8},
		},
	}
}

// FACTBMT extends FACT-G with the bone marrow transplant sub-scale. The
// extension only declares BMTS and its composites; the four FACT-G
// sub-scales are reused by name from the base.
func FACTBMT() *Questionnaire {
	return &Questionnaire{
		Key:       "FACT-BMT",
		Name:      "Functional Assessment of Cancer Therapy - Bone Marrow Transplant",
		Version:   "4",
		Codes:     CodeRange{Min: 0, Max: 4},
		Sentinels: []int{8, 9},
		Base:      FACTG(),
		Subscales: []Subscale{
			{
				Name:      "BMTS",
				Items:     []string{"BMT1", "BMT2", "BMT3", "BMT4", "BMT5", "BMT6", "BMT7", "BL4", "C6", "C7"},
				Reversed:  []string{"BMT1", "BMT2", "BMT3", "BMT4", "BMT6", "BL4", "C6"},
				Threshold: 0.5,
			},
		},
		Composites: []Composite{
			{Name: "FACTBMT", Subscales: []string{"PWB", "SWB", "EWB", "FWB", "BMTS"}, Threshold: 0.8},
			// Trial Outcome Index: physical and functional well-being plus
			// the transplant sub-scale; missingness follows these members only.
			{Name: "TOI", Subscales: []string{"PWB", "FWB", "BMTS"}, Threshold: 0.8},
		},
	}
}
