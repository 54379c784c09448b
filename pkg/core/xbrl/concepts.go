package xbrl

import (
	"fmt"
	"os"

	"airline_financials/pkg/models"

	"gopkg.in/yaml.v2"
)

// ConceptTagSet is an ordered list of tag aliases for one concept. Earlier
// tags win. Segment, when set, restricts the search to contexts qualified by
// that dimension member.
type ConceptTagSet struct {
	Concept models.FieldID `yaml:"concept"`
	Tags    []string       `yaml:"tags"`
	Segment string         `yaml:"segment,omitempty"`
}

const revenueFromContracts = "RevenueFromContractWithCustomerExcludingAssessedTax"

// DefaultConcepts is the priority table for airline filings. A concept may
// appear more than once; later entries only fill what earlier ones missed.
var DefaultConcepts = []ConceptTagSet{
	// Revenue breakdown
	{Concept: models.TotalRevenue, Tags: []string{"Revenues", "OperatingRevenue", "OperatingRevenues", "TotalOperatingRevenue", "TotalOperatingRevenues", revenueFromContracts, "SalesRevenueNet", "RevenueFromContractWithCustomer"}},
	{Concept: models.PassengerRevenue, Tags: []string{"PassengerRevenue", "PassengerRevenues", "PassengerRevenueGross", "TransportationRevenue", "AirTransportationRevenue", "RevenuePassenger", "ScheduledServiceRevenue", "AirlinePassengerRevenue"}},
	{Concept: models.PassengerRevenue, Tags: []string{revenueFromContracts, "Revenues"}, Segment: "PassengerMember"},
	{Concept: models.CargoRevenue, Tags: []string{"CargoRevenue", "CargoRevenues", "FreightRevenue", "CargoAndFreightRevenue", "RevenueCargo", "MailRevenue"}},
	{Concept: models.CargoRevenue, Tags: []string{revenueFromContracts, "Revenues"}, Segment: "CargoAndFreightMember"},
	{Concept: models.OtherRevenue, Tags: []string{"OtherOperatingIncome", "OtherOperatingRevenue", "OtherOperatingRevenues", "AncillaryRevenue", "MiscellaneousOperatingRevenue"}},
	{Concept: models.OtherRevenue, Tags: []string{revenueFromContracts, "Revenues"}, Segment: "ProductAndServiceOtherMember"},
	{Concept: models.LoyaltyRevenue, Tags: []string{"LoyaltyProgramRevenue", "MileageCreditRevenue", "FrequentFlyerMileageCreditRevenue", "MileagePlusRevenue", "TrueBluePointsRevenue"}},

	// Operating expenses
	{Concept: models.CostOfRevenue, Tags: []string{"CostOfRevenue", "CostOfGoodsAndServicesSold", "CostOfSales", "CostOfGoodsSold"}},
	{Concept: models.GrossProfit, Tags: []string{"GrossProfit"}},
	{Concept: models.AircraftFuel, Tags: []string{"AircraftFuelExpense", "FuelAndFuelRelatedExpense", "FuelExpense", "AircraftFuelAndRelatedTaxes", "FuelCosts", "CostOfGoodsAndServicesSoldFuel"}},
	{Concept: models.SalariesAndBenefits, Tags: []string{"LaborAndRelatedExpense", "SalariesAndWages", "SalariesWagesAndOfficersCompensation", "LaborRelatedExpense", "WagesAndSalaries"}},
	{Concept: models.RegionalCapacity, Tags: []string{"RegionalCapacityPurchaseExpense", "ContractualAgreementsExpense", "RegionalAffiliateExpense", "CapacityPurchaseAgreementExpense", "PurchasedServicesExpense"}},
	{Concept: models.LandingFeesAndRent, Tags: []string{"LandingFeesAndOtherRentalsCosts", "LandingFeesAndOtherRentals", "AirportFeesAndRent", "LandingFees", "AirportAndAirwayFees", "LandingAndOtherFees"}},
	{Concept: models.AircraftMaintenance, Tags: []string{"AircraftMaintenanceExpense", "AircraftMaintenanceMaterialsAndRepairs", "MaintenanceMaterialsAndRepairs", "MaintenanceExpense", "MaintenanceAndRepairs", "AircraftMaintenanceCost"}},
	{Concept: models.DepreciationAmortization, Tags: []string{"DepreciationAndAmortization", "DepreciationDepletionAndAmortization", "Depreciation", "DepreciationExpense", "DepreciationOfPropertyPlantAndEquipment"}},
	{Concept: models.AircraftRent, Tags: []string{"AircraftRentExpense", "AircraftRental", "OperatingLeaseExpense", "OperatingLeaseCost"}},
	{Concept: models.SpecialCharges, Tags: []string{"SpecialItemsAndOtherCharges", "SpecialCharges", "RestructuringCharges", "AssetImpairmentCharges"}},
	{Concept: models.TotalOperatingExpenses, Tags: []string{"OperatingExpenses", "CostsAndExpenses", "OperatingCostsAndExpenses", "CostOfRevenueAndOperatingExpenses"}},
	{Concept: models.OperatingIncome, Tags: []string{"OperatingIncomeLoss", "OperatingIncome"}},

	// Below the line
	{Concept: models.InterestExpense, Tags: []string{"InterestExpense", "InterestExpenseNonoperating", "InterestExpenseDebt", "InterestExpenseDebtAndCapitalLease", "InterestAndDebtExpense", "InterestExpenseNet"}},
	{Concept: models.InterestIncome, Tags: []string{"InterestIncome", "InvestmentIncomeInterest", "InterestIncomeOperating", "InterestAndDividendIncomeOperating", "InterestIncomeOther"}},
	{Concept: models.PretaxIncome, Tags: []string{"IncomeLossFromContinuingOperationsBeforeIncomeTaxesExtraordinaryItemsNoncontrollingInterest", "IncomeLossFromContinuingOperationsBeforeIncomeTaxesMinorityInterestAndIncomeLossFromEquityMethodInvestments"}},
	{Concept: models.IncomeTaxExpense, Tags: []string{"IncomeTaxExpenseBenefit", "IncomeTaxExpense", "CurrentIncomeTaxExpenseBenefit"}},
	{Concept: models.NetIncome, Tags: []string{"NetIncomeLoss", "ProfitLoss", "NetIncomeLossAttributableToParent", "NetIncomeLossAvailableToCommonStockholdersBasic"}},
	{Concept: models.BasicEPS, Tags: []string{"EarningsPerShareBasic"}},
	{Concept: models.DilutedEPS, Tags: []string{"EarningsPerShareDiluted"}},
	{Concept: models.WeightedSharesBasic, Tags: []string{"WeightedAverageNumberOfSharesOutstandingBasic"}},
	{Concept: models.WeightedSharesDiluted, Tags: []string{"WeightedAverageNumberOfDilutedSharesOutstanding"}},

	// Balance sheet
	{Concept: models.Cash, Tags: []string{"CashAndCashEquivalentsAtCarryingValue", "Cash", "CashEquivalents"}},
	{Concept: models.ShortTermInvestments, Tags: []string{"ShortTermInvestments", "MarketableSecuritiesCurrent", "AvailableForSaleSecuritiesCurrent"}},
	{Concept: models.RestrictedCash, Tags: []string{"RestrictedCashCurrent", "RestrictedCash"}},
	{Concept: models.AccountsReceivable, Tags: []string{"AccountsReceivableNetCurrent", "ReceivablesNetCurrent", "AccountsReceivableNet"}},
	{Concept: models.SparePartsAndSupplies, Tags: []string{"SparePartsSuppliesAndFuel", "InventorySparePartsSuppliesAndFuel", "MaterialsSuppliesAndFuel", "InventoryNet"}},
	{Concept: models.PrepaidExpenses, Tags: []string{"PrepaidExpenseCurrent", "PrepaidExpenseAndOtherAssetsCurrent"}},
	{Concept: models.TotalCurrentAssets, Tags: []string{"AssetsCurrent"}},
	{Concept: models.FlightEquipment, Tags: []string{"FlightEquipmentGross", "AircraftAndFlightEquipmentGross", "PropertyPlantAndEquipmentAircraft"}},
	{Concept: models.PropertyPlantNet, Tags: []string{"PropertyPlantAndEquipmentNet"}},
	{Concept: models.OperatingLeaseROU, Tags: []string{"OperatingLeaseRightOfUseAsset", "OperatingLeaseRightOfUseAssetNoncurrent"}},
	{Concept: models.Goodwill, Tags: []string{"Goodwill"}},
	{Concept: models.IntangibleAssets, Tags: []string{"IntangibleAssetsNetExcludingGoodwill", "FiniteLivedIntangibleAssetsNet", "IndefiniteLivedIntangibleAssetsExcludingGoodwill"}},
	{Concept: models.TotalAssets, Tags: []string{"Assets"}},
	{Concept: models.AccountsPayable, Tags: []string{"AccountsPayableCurrent"}},
	{Concept: models.AirTrafficLiability, Tags: []string{"AirTrafficLiabilityCurrent", "ContractWithCustomerLiabilityCurrent", "CustomerAdvancesAndDeposits", "DeferredRevenueAndCustomerAdvances"}},
	{Concept: models.LoyaltyDeferredRevenue, Tags: []string{"LoyaltyProgramDeferredRevenue", "DeferredRevenueNoncurrent", "ContractWithCustomerLiabilityNoncurrent"}},
	{Concept: models.CurrentDebt, Tags: []string{"DebtCurrent", "LongTermDebtCurrent", "ShortTermBorrowings"}},
	{Concept: models.TotalCurrentLiabilities, Tags: []string{"LiabilitiesCurrent"}},
	{Concept: models.LongTermDebt, Tags: []string{"LongTermDebtNoncurrent", "LongTermDebtAndCapitalLeaseObligations", "LongTermDebt"}},
	{Concept: models.OperatingLeaseLiabilities, Tags: []string{"OperatingLeaseLiabilityNoncurrent"}},
	// LiabilitiesAndStockholdersEquity is last on purpose; the accounting
	// identity check repairs it when it turns out to equal total assets.
	{Concept: models.TotalLiabilities, Tags: []string{"Liabilities", "LiabilitiesTotal", "LiabilitiesAndStockholdersEquity"}},
	{Concept: models.RetainedEarnings, Tags: []string{"RetainedEarningsAccumulatedDeficit"}},
	{Concept: models.TreasuryStock, Tags: []string{"TreasuryStockValue", "TreasuryStockCommonValue"}},
	{Concept: models.ShareholderEquity, Tags: []string{"StockholdersEquity", "Equity", "StockholdersEquityIncludingPortionAttributableToNoncontrollingInterest"}},
	{Concept: models.SharesOutstanding, Tags: []string{"CommonStockSharesOutstanding", "EntityCommonStockSharesOutstanding", "CommonStockSharesIssued"}},

	// Cash flow
	{Concept: models.OperatingCashFlow, Tags: []string{"NetCashProvidedByUsedInOperatingActivities", "CashFlowFromOperatingActivities", "NetCashProvidedByUsedInOperatingActivitiesContinuingOperations"}},
	{Concept: models.CapitalExpenditures, Tags: []string{"PaymentsToAcquirePropertyPlantAndEquipment", "PaymentsForCapitalImprovements", "PaymentsToAcquireProductiveAssets", "CapitalExpenditure"}},
	{Concept: models.AircraftPurchases, Tags: []string{"PaymentsToAcquireAircraft", "PaymentsToAcquireFlightEquipment", "PaymentsToAcquireAircraftAndRelatedEquipment", "PaymentsForAircraftPurchases"}},
	{Concept: models.InvestingCashFlow, Tags: []string{"NetCashProvidedByUsedInInvestingActivities"}},
	{Concept: models.DebtIssuance, Tags: []string{"ProceedsFromIssuanceOfLongTermDebt", "ProceedsFromDebtNetOfIssuanceCosts"}},
	{Concept: models.DebtRepayments, Tags: []string{"RepaymentsOfLongTermDebt", "RepaymentsOfDebt", "RepaymentsOfLongTermDebtAndCapitalSecurities"}},
	{Concept: models.ShareRepurchases, Tags: []string{"PaymentsForRepurchaseOfCommonStock", "PaymentsForRepurchaseOfEquity"}},
	{Concept: models.DividendsPaid, Tags: []string{"PaymentsOfDividends", "PaymentsOfDividendsCommonStock", "DividendsPaid"}},
	{Concept: models.FinancingCashFlow, Tags: []string{"NetCashProvidedByUsedInFinancingActivities"}},
}

// ConceptOverride adjusts the priority table for one concept.
// Mode "prepend" (default) puts Tags ahead of the defaults, "replace" drops
// the defaults for that concept and segment.
type ConceptOverride struct {
	Concept models.FieldID `yaml:"concept"`
	Tags    []string       `yaml:"tags"`
	Segment string         `yaml:"segment,omitempty"`
	Mode    string         `yaml:"mode,omitempty"`
}

type overrideFile struct {
	Overrides []ConceptOverride `yaml:"overrides"`
}

// LoadConceptOverrides reads a YAML file of concept overrides.
func LoadConceptOverrides(path string) ([]ConceptOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read concept overrides: %w", err)
	}
	var f overrideFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse concept overrides %s: %w", path, err)
	}
	for i, o := range f.Overrides {
		if !models.IsKnown(o.Concept) {
			return nil, fmt.Errorf("override %d: unknown concept %q", i, o.Concept)
		}
		switch o.Mode {
		case "", "prepend", "replace":
		default:
			return nil, fmt.Errorf("override %d: unknown mode %q", i, o.Mode)
		}
	}
	return f.Overrides, nil
}

// ApplyOverrides returns a new table with overrides merged into base.
func ApplyOverrides(base []ConceptTagSet, overrides []ConceptOverride) []ConceptTagSet {
	out := make([]ConceptTagSet, 0, len(base)+len(overrides))
	for _, set := range base {
		out = append(out, ConceptTagSet{Concept: set.Concept, Tags: append([]string(nil), set.Tags...), Segment: set.Segment})
	}

	for _, o := range overrides {
		matched := false
		for i := range out {
			if out[i].Concept != o.Concept || out[i].Segment != o.Segment {
				continue
			}
			matched = true
			if o.Mode == "replace" {
				out[i].Tags = append([]string(nil), o.Tags...)
			} else {
				out[i].Tags = append(append([]string(nil), o.Tags...), out[i].Tags...)
			}
			break
		}
		if !matched {
			out = append(out, ConceptTagSet{Concept: o.Concept, Tags: append([]string(nil), o.Tags...), Segment: o.Segment})
		}
	}
	return out
}
