package catalog

// Default returns the launch catalog for the brand. Prices are cents.
func Default() *Catalog {
	c, err := build([]Item{
		{
			ID:          "sumami-original",
			Name:        "Sumami Original",
			SubName:     "Naturally Brewed Soya Sauce",
			Description: "Slow-brewed for 6 months from whole soybeans.",
			UnitPrice:   5500,
			Category:    CategorySauce,
			Highlight:   true,
		},
		{
			ID:          "sumami-smoked",
			Name:        "Sumami Smoked",
			SubName:     "Oak-Smoked Soya Sauce",
			Description: "Cold-smoked over oak for a deep braai finish.",
			UnitPrice:   5500,
			Category:    CategorySauce,
		},
		{
			ID:          "sumami-chilli",
			Name:        "Sumami Chilli",
			SubName:     "Bird's Eye Chilli Soya Sauce",
			Description: "Infused with bird's eye chilli for a slow burn.",
			UnitPrice:   5500,
			Category:    CategorySauce,
		},
		{
			ID:          "sumami-reduced-salt",
			Name:        "Sumami Reduced Salt",
			SubName:     "40% Less Sodium",
			Description: "The original brew, gently desalinated.",
			UnitPrice:   5500,
			Category:    CategorySauce,
		},
		{
			ID:            "sumami-trio",
			Name:          "Sumami Trio",
			SubName:       "Build-Your-Own 3-Pack",
			Description:   "Pick any three sauces. Pairs of trios earn R150 off.",
			UnitPrice:     31500,
			Category:      CategoryBundle,
			VariantLabel:  "3-Pack",
			FlavorChoices: 3,
			Highlight:     true,
		},
		{
			ID:           "sumami-pantry-six",
			Name:         "Sumami Pantry Six",
			SubName:      "Full Range 6-Pack",
			Description:  "Every sauce in the range, plus a spare Original.",
			UnitPrice:    59500,
			Category:     CategoryBundle,
			VariantLabel: "6-Pack",
		},
	})
	if err != nil {
		// The default catalog is fixed at compile time; a build error here
		// is a programming defect.
		panic(err)
	}
	return c
}
