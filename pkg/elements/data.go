package elements

// Isotope masses and representative natural abundances (IUPAC/NIST).
var defaultIsotopes = map[string][]Isotope{
	"H": {
		{1, 1.00782503207, 0.999885},
		{2, 2.0141017778, 0.000115},
	},
	"D": {
		{2, 2.0141017778, 1.0},
	},
	"Li": {
		{6, 6.015122795, 0.0759},
		{7, 7.01600455, 0.9241},
	},
	"B": {
		{10, 10.0129370, 0.199},
		{11, 11.0093054, 0.801},
	},
	"C": {
		{12, 12.0, 0.9893},
		{13, 13.0033548378, 0.0107},
	},
	"N": {
		{14, 14.0030740048, 0.99636},
		{15, 15.0001088982, 0.00364},
	},
	"O": {
		{16, 15.99491461956, 0.99757},
		{17, 16.99913170, 0.00038},
		{18, 17.9991610, 0.00205},
	},
	"F": {
		{19, 18.99840322, 1.0},
	},
	"Na": {
		{23, 22.9897692809, 1.0},
	},
	"Mg": {
		{24, 23.985041700, 0.7899},
		{25, 24.98583692, 0.1000},
		{26, 25.982592929, 0.1101},
	},
	"Al": {
		{27, 26.98153863, 1.0},
	},
	"Si": {
		{28, 27.9769265325, 0.92223},
		{29, 28.976494700, 0.04685},
		{30, 29.97377017, 0.03092},
	},
	"P": {
		{31, 30.97376163, 1.0},
	},
	"S": {
		{32, 31.97207100, 0.9499},
		{33, 32.97145876, 0.0075},
		{34, 33.96786690, 0.0425},
		{36, 35.96708076, 0.0001},
	},
	"Cl": {
		{35, 34.96885268, 0.7576},
		{37, 36.96590259, 0.2424},
	},
	"K": {
		{39, 38.96370668, 0.932581},
		{40, 39.96399848, 0.000117},
		{41, 40.96182576, 0.067302},
	},
	"Ca": {
		{40, 39.96259098, 0.96941},
		{42, 41.95861801, 0.00647},
		{43, 42.9587666, 0.00135},
		{44, 43.9554818, 0.02086},
		{46, 45.9536926, 0.00004},
		{48, 47.952534, 0.00187},
	},
	"Mn": {
		{55, 54.9380451, 1.0},
	},
	"Fe": {
		{54, 53.9396105, 0.05845},
		{56, 55.9349375, 0.91754},
		{57, 56.9353940, 0.02119},
		{58, 57.9332756, 0.00282},
	},
	"Co": {
		{59, 58.9331950, 1.0},
	},
	"Ni": {
		{58, 57.9353429, 0.680769},
		{60, 59.9307864, 0.262231},
		{61, 60.9310560, 0.011399},
		{62, 61.9283451, 0.036345},
		{64, 63.9279660, 0.009256},
	},
	"Cu": {
		{63, 62.9295975, 0.6915},
		{65, 64.9277895, 0.3085},
	},
	"Zn": {
		{64, 63.9291422, 0.48268},
		{66, 65.9260334, 0.27975},
		{67, 66.9271273, 0.04102},
		{68, 67.9248442, 0.19024},
		{70, 69.9253193, 0.00631},
	},
	"As": {
		{75, 74.9215965, 1.0},
	},
	"Se": {
		{74, 73.9224764, 0.0089},
		{76, 75.9192136, 0.0937},
		{77, 76.9199140, 0.0763},
		{78, 77.9173091, 0.2377},
		{80, 79.9165213, 0.4961},
		{82, 81.9166994, 0.0873},
	},
	"Br": {
		{79, 78.9183371, 0.5069},
		{81, 80.9162906, 0.4931},
	},
	"Mo": {
		{92, 91.906811, 0.1477},
		{94, 93.9050883, 0.0923},
		{95, 94.9058421, 0.1590},
		{96, 95.9046795, 0.1668},
		{97, 96.9060215, 0.0956},
		{98, 97.9054082, 0.2419},
		{100, 99.907477, 0.0967},
	},
	"Sn": {
		{112, 111.904818, 0.0097},
		{114, 113.902779, 0.0066},
		{115, 114.903342, 0.0034},
		{116, 115.901741, 0.1454},
		{117, 116.902952, 0.0768},
		{118, 117.901603, 0.2422},
		{119, 118.903308, 0.0859},
		{120, 119.9021947, 0.3258},
		{122, 121.9034390, 0.0463},
		{124, 123.9052739, 0.0579},
	},
	"I": {
		{127, 126.904473, 1.0},
	},
}

// DefaultTable returns a table pre-loaded with common elements.
func DefaultTable() *Table {
	t := NewTable()
	for sym, isotopes := range defaultIsotopes {
		t.Add(sym, isotopes...)
	}
	return t
}
