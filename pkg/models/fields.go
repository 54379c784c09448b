package models

// FieldID is a stable name for one statement line, e.g. "income.passenger_revenue".
type FieldID string

// FieldGroup clusters fields that are merged as a unit. The revenue
// breakdown holds the passenger, cargo and other components only; the total
// is an ordinary income line.
type FieldGroup string

const (
	GroupRevenueBreakdown FieldGroup = "revenue_breakdown"
	GroupIncome           FieldGroup = "income"
	GroupBalance          FieldGroup = "balance"
	GroupCashFlow         FieldGroup = "cash_flow"
	GroupOperating        FieldGroup = "operating"
)

const (
	TotalRevenue             FieldID = "income.total_revenue"
	PassengerRevenue         FieldID = "income.passenger_revenue"
	CargoRevenue             FieldID = "income.cargo_revenue"
	OtherRevenue             FieldID = "income.other_revenue"
	LoyaltyRevenue           FieldID = "income.loyalty_revenue"
	CostOfRevenue            FieldID = "income.cost_of_revenue"
	GrossProfit              FieldID = "income.gross_profit"
	AircraftFuel             FieldID = "income.aircraft_fuel"
	SalariesAndBenefits      FieldID = "income.salaries_and_benefits"
	RegionalCapacity         FieldID = "income.regional_capacity"
	LandingFeesAndRent       FieldID = "income.landing_fees_and_rent"
	AircraftMaintenance      FieldID = "income.aircraft_maintenance"
	DepreciationAmortization FieldID = "income.depreciation_amortization"
	AircraftRent             FieldID = "income.aircraft_rent"
	SpecialCharges           FieldID = "income.special_charges"
	TotalOperatingExpenses   FieldID = "income.total_operating_expenses"
	OperatingIncome          FieldID = "income.operating_income"
	InterestExpense          FieldID = "income.interest_expense"
	InterestIncome           FieldID = "income.interest_income"
	PretaxIncome             FieldID = "income.pretax_income"
	IncomeTaxExpense         FieldID = "income.income_tax_expense"
	NetIncome                FieldID = "income.net_income"
	EBIT                     FieldID = "income.ebit"
	EBITDA                   FieldID = "income.ebitda"
	BasicEPS                 FieldID = "income.basic_eps"
	DilutedEPS               FieldID = "income.diluted_eps"
	WeightedSharesBasic      FieldID = "income.weighted_shares_basic"
	WeightedSharesDiluted    FieldID = "income.weighted_shares_diluted"

	Cash                      FieldID = "balance.cash"
	ShortTermInvestments      FieldID = "balance.short_term_investments"
	RestrictedCash            FieldID = "balance.restricted_cash"
	AccountsReceivable        FieldID = "balance.accounts_receivable"
	SparePartsAndSupplies     FieldID = "balance.spare_parts_and_supplies"
	PrepaidExpenses           FieldID = "balance.prepaid_expenses"
	TotalCurrentAssets        FieldID = "balance.total_current_assets"
	FlightEquipment           FieldID = "balance.flight_equipment"
	PropertyPlantNet          FieldID = "balance.property_plant_net"
	OperatingLeaseROU         FieldID = "balance.operating_lease_rou"
	Goodwill                  FieldID = "balance.goodwill"
	IntangibleAssets          FieldID = "balance.intangible_assets"
	TotalAssets               FieldID = "balance.total_assets"
	AccountsPayable           FieldID = "balance.accounts_payable"
	AirTrafficLiability       FieldID = "balance.air_traffic_liability"
	LoyaltyDeferredRevenue    FieldID = "balance.loyalty_deferred_revenue"
	CurrentDebt               FieldID = "balance.current_debt"
	TotalCurrentLiabilities   FieldID = "balance.total_current_liabilities"
	LongTermDebt              FieldID = "balance.long_term_debt"
	OperatingLeaseLiabilities FieldID = "balance.operating_lease_liabilities"
	TotalLiabilities          FieldID = "balance.total_liabilities"
	RetainedEarnings          FieldID = "balance.retained_earnings"
	TreasuryStock             FieldID = "balance.treasury_stock"
	ShareholderEquity         FieldID = "balance.shareholder_equity"
	SharesOutstanding         FieldID = "balance.shares_outstanding"

	OperatingCashFlow   FieldID = "cash_flow.operating_cash_flow"
	CapitalExpenditures FieldID = "cash_flow.capital_expenditures"
	AircraftPurchases   FieldID = "cash_flow.aircraft_purchases"
	InvestingCashFlow   FieldID = "cash_flow.investing_cash_flow"
	DebtIssuance        FieldID = "cash_flow.debt_issuance"
	DebtRepayments      FieldID = "cash_flow.debt_repayments"
	ShareRepurchases    FieldID = "cash_flow.share_repurchases"
	DividendsPaid       FieldID = "cash_flow.dividends_paid"
	FinancingCashFlow   FieldID = "cash_flow.financing_cash_flow"
	FreeCashFlow        FieldID = "cash_flow.free_cash_flow"

	AvailableSeatMiles    FieldID = "operating.available_seat_miles"
	RevenuePassengerMiles FieldID = "operating.revenue_passenger_miles"
	LoadFactor            FieldID = "operating.load_factor"
	PassengersCarried     FieldID = "operating.passengers_carried"
	Departures            FieldID = "operating.departures"
	AircraftAtPeriodEnd   FieldID = "operating.aircraft_at_period_end"
	Yield                 FieldID = "operating.yield"
	PRASM                 FieldID = "operating.prasm"
	RASM                  FieldID = "operating.rasm"
	CASM                  FieldID = "operating.casm"
	CASMEx                FieldID = "operating.casm_ex"
)

type accessor struct {
	id    FieldID
	group FieldGroup
	get   func(*StatementRecord) *Field
}

// accessors is the canonical field order. Merge and validation iterate it so
// their output is deterministic.
var accessors = []accessor{
	{TotalRevenue, GroupIncome, func(r *StatementRecord) *Field { return &r.Income.TotalRevenue }},
	{PassengerRevenue, GroupRevenueBreakdown, func(r *StatementRecord) *Field { return &r.Income.PassengerRevenue }},
	{CargoRevenue, GroupRevenueBreakdown, func(r *StatementRecord) *Field { return &r.Income.CargoRevenue }},
	{OtherRevenue, GroupRevenueBreakdown, func(r *StatementRecord) *Field { return &r.Income.OtherRevenue }},
	{LoyaltyRevenue, GroupIncome, func(r *StatementRecord) *Field { return &r.Income.LoyaltyRevenue }},
	{CostOfRevenue, GroupIncome, func(r *StatementRecord) *Field { return &r.Income.CostOfRevenue }},
	{GrossProfit, GroupIncome, func(r *StatementRecord) *Field { return &r.Income.GrossProfit }},
	{AircraftFuel, GroupIncome, func(r *StatementRecord) *Field { return &r.Income.AircraftFuel }},
	{SalariesAndBenefits, GroupIncome, func(r *StatementRecord) *Field { return &r.Income.SalariesAndBenefits }},
	{RegionalCapacity, GroupIncome, func(r *StatementRecord) *Field { return &r.Income.RegionalCapacity }},
	{LandingFeesAndRent, GroupIncome, func(r *StatementRecord) *Field { return &r.Income.LandingFeesAndRent }},
	{AircraftMaintenance, GroupIncome, func(r *StatementRecord) *Field { return &r.Income.AircraftMaintenance }},
	{DepreciationAmortization, GroupIncome, func(r *StatementRecord) *Field { return &r.Income.DepreciationAmortization }},
	{AircraftRent, GroupIncome, func(r *StatementRecord) *Field { return &r.Income.AircraftRent }},
	{SpecialCharges, GroupIncome, func(r *StatementRecord) *Field { return &r.Income.SpecialCharges }},
	{TotalOperatingExpenses, GroupIncome, func(r *StatementRecord) *Field { return &r.Income.TotalOperatingExpenses }},
	{OperatingIncome, GroupIncome, func(r *StatementRecord) *Field { return &r.Income.OperatingIncome }},
	{InterestExpense, GroupIncome, func(r *StatementRecord) *Field { return &r.Income.InterestExpense }},
	{InterestIncome, GroupIncome, func(r *StatementRecord) *Field { return &r.Income.InterestIncome }},
	{PretaxIncome, GroupIncome, func(r *StatementRecord) *Field { return &r.Income.PretaxIncome }},
	{IncomeTaxExpense, GroupIncome, func(r *StatementRecord) *Field { return &r.Income.IncomeTaxExpense }},
	{NetIncome, GroupIncome, func(r *StatementRecord) *Field { return &r.Income.NetIncome }},
	{EBIT, GroupIncome, func(r *StatementRecord) *Field { return &r.Income.EBIT }},
	{EBITDA, GroupIncome, func(r *StatementRecord) *Field { return &r.Income.EBITDA }},
	{BasicEPS, GroupIncome, func(r *StatementRecord) *Field { return &r.Income.BasicEPS }},
	{DilutedEPS, GroupIncome, func(r *StatementRecord) *Field { return &r.Income.DilutedEPS }},
	{WeightedSharesBasic, GroupIncome, func(r *StatementRecord) *Field { return &r.Income.WeightedSharesBasic }},
	{WeightedSharesDiluted, GroupIncome, func(r *StatementRecord) *Field { return &r.Income.WeightedSharesDiluted }},

	{Cash, GroupBalance, func(r *StatementRecord) *Field { return &r.Balance.Cash }},
	{ShortTermInvestments, GroupBalance, func(r *StatementRecord) *Field { return &r.Balance.ShortTermInvestments }},
	{RestrictedCash, GroupBalance, func(r *StatementRecord) *Field { return &r.Balance.RestrictedCash }},
	{AccountsReceivable, GroupBalance, func(r *StatementRecord) *Field { return &r.Balance.AccountsReceivable }},
	{SparePartsAndSupplies, GroupBalance, func(r *StatementRecord) *Field { return &r.Balance.SparePartsAndSupplies }},
	{PrepaidExpenses, GroupBalance, func(r *StatementRecord) *Field { return &r.Balance.PrepaidExpenses }},
	{TotalCurrentAssets, GroupBalance, func(r *StatementRecord) *Field { return &r.Balance.TotalCurrentAssets }},
	{FlightEquipment, GroupBalance, func(r *StatementRecord) *Field { return &r.Balance.FlightEquipment }},
	{PropertyPlantNet, GroupBalance, func(r *StatementRecord) *Field { return &r.Balance.PropertyPlantNet }},
	{OperatingLeaseROU, GroupBalance, func(r *StatementRecord) *Field { return &r.Balance.OperatingLeaseROU }},
	{Goodwill, GroupBalance, func(r *StatementRecord) *Field { return &r.Balance.Goodwill }},
	{IntangibleAssets, GroupBalance, func(r *StatementRecord) *Field { return &r.Balance.IntangibleAssets }},
	{TotalAssets, GroupBalance, func(r *StatementRecord) *Field { return &r.Balance.TotalAssets }},
	{AccountsPayable, GroupBalance, func(r *StatementRecord) *Field { return &r.Balance.AccountsPayable }},
	{AirTrafficLiability, GroupBalance, func(r *StatementRecord) *Field { return &r.Balance.AirTrafficLiability }},
	{LoyaltyDeferredRevenue, GroupBalance, func(r *StatementRecord) *Field { return &r.Balance.LoyaltyDeferredRevenue }},
	{CurrentDebt, GroupBalance, func(r *StatementRecord) *Field { return &r.Balance.CurrentDebt }},
	{TotalCurrentLiabilities, GroupBalance, func(r *StatementRecord) *Field { return &r.Balance.TotalCurrentLiabilities }},
	{LongTermDebt, GroupBalance, func(r *StatementRecord) *Field { return &r.Balance.LongTermDebt }},
	{OperatingLeaseLiabilities, GroupBalance, func(r *StatementRecord) *Field { return &r.Balance.OperatingLeaseLiabilities }},
	{TotalLiabilities, GroupBalance, func(r *StatementRecord) *Field { return &r.Balance.TotalLiabilities }},
	{RetainedEarnings, GroupBalance, func(r *StatementRecord) *Field { return &r.Balance.RetainedEarnings }},
	{TreasuryStock, GroupBalance, func(r *StatementRecord) *Field { return &r.Balance.TreasuryStock }},
	{ShareholderEquity, GroupBalance, func(r *StatementRecord) *Field { return &r.Balance.ShareholderEquity }},
	{SharesOutstanding, GroupBalance, func(r *StatementRecord) *Field { return &r.Balance.SharesOutstanding }},

	{OperatingCashFlow, GroupCashFlow, func(r *StatementRecord) *Field { return &r.CashFlow.OperatingCashFlow }},
	{CapitalExpenditures, GroupCashFlow, func(r *StatementRecord) *Field { return &r.CashFlow.CapitalExpenditures }},
	{AircraftPurchases, GroupCashFlow, func(r *StatementRecord) *Field { return &r.CashFlow.AircraftPurchases }},
	{InvestingCashFlow, GroupCashFlow, func(r *StatementRecord) *Field { return &r.CashFlow.InvestingCashFlow }},
	{DebtIssuance, GroupCashFlow, func(r *StatementRecord) *Field { return &r.CashFlow.DebtIssuance }},
	{DebtRepayments, GroupCashFlow, func(r *StatementRecord) *Field { return &r.CashFlow.DebtRepayments }},
	{ShareRepurchases, GroupCashFlow, func(r *StatementRecord) *Field { return &r.CashFlow.ShareRepurchases }},
	{DividendsPaid, GroupCashFlow, func(r *StatementRecord) *Field { return &r.CashFlow.DividendsPaid }},
	{FinancingCashFlow, GroupCashFlow, func(r *StatementRecord) *Field { return &r.CashFlow.FinancingCashFlow }},
	{FreeCashFlow, GroupCashFlow, func(r *StatementRecord) *Field { return &r.CashFlow.FreeCashFlow }},

	{AvailableSeatMiles, GroupOperating, func(r *StatementRecord) *Field { return &r.Operating.AvailableSeatMiles }},
	{RevenuePassengerMiles, GroupOperating, func(r *StatementRecord) *Field { return &r.Operating.RevenuePassengerMiles }},
	{LoadFactor, GroupOperating, func(r *StatementRecord) *Field { return &r.Operating.LoadFactor }},
	{PassengersCarried, GroupOperating, func(r *StatementRecord) *Field { return &r.Operating.PassengersCarried }},
	{Departures, GroupOperating, func(r *StatementRecord) *Field { return &r.Operating.Departures }},
	{AircraftAtPeriodEnd, GroupOperating, func(r *StatementRecord) *Field { return &r.Operating.AircraftAtPeriodEnd }},
	{Yield, GroupOperating, func(r *StatementRecord) *Field { return &r.Operating.Yield }},
	{PRASM, GroupOperating, func(r *StatementRecord) *Field { return &r.Operating.PRASM }},
	{RASM, GroupOperating, func(r *StatementRecord) *Field { return &r.Operating.RASM }},
	{CASM, GroupOperating, func(r *StatementRecord) *Field { return &r.Operating.CASM }},
	{CASMEx, GroupOperating, func(r *StatementRecord) *Field { return &r.Operating.CASMEx }},
}

var accessorIndex = func() map[FieldID]accessor {
	m := make(map[FieldID]accessor, len(accessors))
	for _, a := range accessors {
		m[a.id] = a
	}
	return m
}()

// FieldIDs returns every field id in canonical order.
func FieldIDs() []FieldID {
	ids := make([]FieldID, len(accessors))
	for i, a := range accessors {
		ids[i] = a.id
	}
	return ids
}

// GroupOf returns the merge group of a field.
func GroupOf(id FieldID) FieldGroup {
	return accessorIndex[id].group
}

// GroupMembers returns the fields of a group in canonical order.
func GroupMembers(g FieldGroup) []FieldID {
	var ids []FieldID
	for _, a := range accessors {
		if a.group == g {
			ids = append(ids, a.id)
		}
	}
	return ids
}

// IsKnown reports whether id names a record field.
func IsKnown(id FieldID) bool {
	_, ok := accessorIndex[id]
	return ok
}
