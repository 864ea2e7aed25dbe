package catalog

// Default returns the built-in catalog of six organisms.
func Default() *Catalog {
	return New(
		OrganismProfile{
			Name:         "Ideonella sakaiensis",
			Temperature:  Range{20, 30},
			PH:           Range{6.5, 7.5},
			DissolvedO2:  Range{8, 14},
			BOD:          Range{2, 10},
			Conductivity: Range{200, 600},
			Salinity:     Range{4, 5},
			Nitrate:      Range{0, 20},
		},
		OrganismProfile{
			Name:         "Pseudomonas putida",
			Temperature:  Range{20, 25},
			PH:           Range{6.0, 7.5},
			DissolvedO2:  Range{7, 12},
			BOD:          Range{1, 5},
			Conductivity: Range{100, 400},
			Salinity:     Range{3.5, 4},
			Nitrate:      Range{0, 15},
		},
		OrganismProfile{
			Name:         "Pseudomonas aeruginosa",
			Temperature:  Range{25, 30},
			PH:           Range{7.0, 9.0},
			DissolvedO2:  Range{5, 10},
			BOD:          Range{4, 15},
			Conductivity: Range{300, 800},
			Salinity:     Range{0, 2},
			Nitrate:      Range{10, 30},
		},
		OrganismProfile{
			Name:         "Bacillus cereus",
			Temperature:  Range{20, 25},
			PH:           Range{6.5, 8.0},
			DissolvedO2:  Range{6, 11},
			BOD:          Range{3, 10},
			Conductivity: Range{150, 500},
			Salinity:     Range{2, 3},
			Nitrate:      Range{5, 25},
		},
		OrganismProfile{
			Name:         "Acinetobacter baumannii",
			Temperature:  Range{20, 28},
			PH:           Range{6.5, 7.5},
			DissolvedO2:  Range{8, 14},
			BOD:          Range{2, 8},
			Conductivity: Range{400, 1000},
			Salinity:     Range{0, 2.5},
			Nitrate:      Range{15, 40},
		},
		OrganismProfile{
			Name:         "Alcaligenes eutrophus",
			Temperature:  Range{20, 30},
			PH:           Range{7.0, 9.0},
			DissolvedO2:  Range{5, 12},
			BOD:          Range{1, 15},
			Conductivity: Range{100, 700},
			Salinity:     Range{0, 1},
			Nitrate:      Range{0, 10},
		},
	)
}
