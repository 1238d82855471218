package dataprocessing

// TopM report columns
const (
	ColCategory            = "Hilfsmittel"
	ColBranch              = "Filiale"
	ColCostCenter          = "KSt"
	ColOrders              = "Aufträge"
	ColRevenue             = "(1) Umsatz-\nberechnung"
	ColNetPurchase         = "(2) Netto EK"
	ColNetPurchaseNoWK     = "(3) Netto EK\nOhne WK"
	ColWKPurchase          = "(4) WK EK"
	ColWKSettlement        = "AP_EK_Verrechnung_WK_mit_FP"
	ColCostOfSales         = "(5) =\n(3) + (4)"
	ColMargin              = "(6) DB I =\n(1) - (5)"
	ColMarginWithSurcharge = "AP DB I mit FP"
)

// Derived KPI columns
const (
	ColMarginRatio            = "DBI_pct"
	ColSurchargeRatio         = "AP_DBI_pct_mit_FP"
	ColModified               = "Modifikationen"
	ColModifiedRatio          = "DBI_pct_Modifikationen"
	ColModifiedSecondary      = "Modifikationen_09_32"
	ColModifiedSecondaryRatio = "DBI_pct_Modifikationen_09_32"
)

// Addison report columns and the relevant Art values
const (
	ColArt   = "Art"
	ColWert4 = "Wert4"
	ColWert6 = "Wert6"

	ArtRevenue     = "Umsatzerlöse"
	ArtCost        = "Aufwendungen für bez. Lfg. und Lst."
	ArtGrossProfit = "Rohergebnis"

	ColRevenueCum = ArtRevenue + " Kum"
	ColCostCum    = ArtCost + " Kum"

	ColFinalCost = "Aufwendungen final"
)

// Header row positions (0-based) of the two exports.
const (
	TopMHeaderRow    = 6
	AddisonHeaderRow = 8
)

// SecondaryRevenueShare is the share of revenue used as the secondary
// modified margin for override set B.
const SecondaryRevenueShare = 0.80

var (
	// SentinelCategories are summary rows of the TopM export.
	SentinelCategories = []string{"Alle Hilfsmittel", "08 - Einlagen"}

	// OverrideSetA categories use the margin with surcharge as modified margin.
	OverrideSetA = []string{"10 - Gehhilfen", "18 - Kranken-/ Behindertenfahrzeuge"}

	// OverrideSetB categories use a fixed revenue share as secondary modified margin.
	OverrideSetB = []string{"09 - Elektrostimulationsgeräte", "32 - Therapeutische Bewegungsgeräte"}

	// RelevantArts are the Addison metrics carried into the report, in output order.
	RelevantArts = []string{ArtRevenue, ArtCost, ArtGrossProfit}

	// CumulativeArts are the metrics that also get a variant-6 column.
	CumulativeArts = []struct{ Art, Column string }{
		{ArtRevenue, ColRevenueCum},
		{ArtCost, ColCostCum},
	}
)

// ratio is a KPI column defined as numerator / revenue.
type ratio struct {
	Column    string
	Numerator string
}

// Ratios lists the four ratio columns and their numerators.
var Ratios = []ratio{
	{ColMarginRatio, ColMargin},
	{ColSurchargeRatio, ColMarginWithSurcharge},
	{ColModifiedRatio, ColModified},
	{ColModifiedSecondaryRatio, ColModifiedSecondary},
}

// RatioColumns returns the names of the ratio columns.
func RatioColumns() []string {
	names := make([]string, len(Ratios))
	for i, r := range Ratios {
		names[i] = r.Column
	}
	return names
}

// ReportColumns is the fixed column order of the output sheet. Columns
// missing from the final frame are skipped.
var ReportColumns = []string{
	ColCostCenter,
	ColBranch,
	ColOrders,
	ColRevenue,
	ColNetPurchase,
	ColNetPurchaseNoWK,
	ColWKPurchase,
	ColWKSettlement,
	ColCostOfSales,
	ColMargin,
	ColMarginWithSurcharge,
	ColModified,
	ColModifiedSecondary,
	ColMarginRatio,
	ColSurchargeRatio,
	ColModifiedRatio,
	ColModifiedSecondaryRatio,
	ArtRevenue,
	ArtCost,
	ArtGrossProfit,
	ColRevenueCum,
	ColCostCum,
	ColFinalCost,
}

// HighlightColumns are filled yellow in the output sheet.
var HighlightColumns = []string{ColFinalCost, ColModifiedRatio}

func setOf(values []string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}
