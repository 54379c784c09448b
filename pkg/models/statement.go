package models

// SourceKind identifies where a field value came from.
type SourceKind string

const (
	SourceNone    SourceKind = ""
	SourceXBRL    SourceKind = "XBRL"
	SourceHTML    SourceKind = "HTML"
	SourceDerived SourceKind = "DERIVED"
)

// Priority orders sources for merging. Higher wins.
func (s SourceKind) Priority() int {
	switch s {
	case SourceXBRL:
		return 3
	case SourceHTML:
		return 2
	case SourceDerived:
		return 1
	}
	return 0
}

// Field is a single statement line. Present is the explicit presence flag,
// so a reported zero is distinguishable from a value that was never found.
type Field struct {
	Value   float64    `json:"value"`
	Present bool       `json:"present"`
	Source  SourceKind `json:"source,omitempty"`
	Ref     string     `json:"ref,omitempty"`
}

// Set marks the field present with the given provenance.
func (f *Field) Set(v float64, src SourceKind, ref string) {
	f.Value = v
	f.Present = true
	f.Source = src
	f.Ref = ref
}

// Clear resets the field to absent.
func (f *Field) Clear() {
	*f = Field{}
}

// ExtractedValue is one resolved concept before it is placed in a record.
type ExtractedValue struct {
	Concept FieldID    `json:"concept"`
	Value   float64    `json:"value"`
	Source  SourceKind `json:"source"`
	Ref     string     `json:"ref"`
}

// IncomeStatement values are in base currency units.
type IncomeStatement struct {
	TotalRevenue     Field `json:"total_revenue"`
	PassengerRevenue Field `json:"passenger_revenue"`
	CargoRevenue     Field `json:"cargo_revenue"`
	OtherRevenue     Field `json:"other_revenue"`
	LoyaltyRevenue   Field `json:"loyalty_revenue"`

	CostOfRevenue Field `json:"cost_of_revenue"`
	GrossProfit   Field `json:"gross_profit"`

	AircraftFuel             Field `json:"aircraft_fuel"`
	SalariesAndBenefits      Field `json:"salaries_and_benefits"`
	RegionalCapacity         Field `json:"regional_capacity"`
	LandingFeesAndRent       Field `json:"landing_fees_and_rent"`
	AircraftMaintenance      Field `json:"aircraft_maintenance"`
	DepreciationAmortization Field `json:"depreciation_amortization"`
	AircraftRent             Field `json:"aircraft_rent"`
	SpecialCharges           Field `json:"special_charges"`
	TotalOperatingExpenses   Field `json:"total_operating_expenses"`
	OperatingIncome          Field `json:"operating_income"`

	InterestExpense  Field `json:"interest_expense"`
	InterestIncome   Field `json:"interest_income"`
	PretaxIncome     Field `json:"pretax_income"`
	IncomeTaxExpense Field `json:"income_tax_expense"`
	NetIncome        Field `json:"net_income"`

	EBIT   Field `json:"ebit"`
	EBITDA Field `json:"ebitda"`

	BasicEPS              Field `json:"basic_eps"`
	DilutedEPS            Field `json:"diluted_eps"`
	WeightedSharesBasic   Field `json:"weighted_shares_basic"`
	WeightedSharesDiluted Field `json:"weighted_shares_diluted"`
}

type BalanceSheet struct {
	Cash                  Field `json:"cash"`
	ShortTermInvestments  Field `json:"short_term_investments"`
	RestrictedCash        Field `json:"restricted_cash"`
	AccountsReceivable    Field `json:"accounts_receivable"`
	SparePartsAndSupplies Field `json:"spare_parts_and_supplies"`
	PrepaidExpenses       Field `json:"prepaid_expenses"`
	TotalCurrentAssets    Field `json:"total_current_assets"`

	FlightEquipment   Field `json:"flight_equipment"`
	PropertyPlantNet  Field `json:"property_plant_net"`
	OperatingLeaseROU Field `json:"operating_lease_rou"`
	Goodwill          Field `json:"goodwill"`
	IntangibleAssets  Field `json:"intangible_assets"`
	TotalAssets       Field `json:"total_assets"`

	AccountsPayable           Field `json:"accounts_payable"`
	AirTrafficLiability       Field `json:"air_traffic_liability"`
	LoyaltyDeferredRevenue    Field `json:"loyalty_deferred_revenue"`
	CurrentDebt               Field `json:"current_debt"`
	TotalCurrentLiabilities   Field `json:"total_current_liabilities"`
	LongTermDebt              Field `json:"long_term_debt"`
	OperatingLeaseLiabilities Field `json:"operating_lease_liabilities"`
	TotalLiabilities          Field `json:"total_liabilities"`

	RetainedEarnings  Field `json:"retained_earnings"`
	TreasuryStock     Field `json:"treasury_stock"`
	ShareholderEquity Field `json:"shareholder_equity"`
	SharesOutstanding Field `json:"shares_outstanding"`
}

type CashFlowStatement struct {
	OperatingCashFlow   Field `json:"operating_cash_flow"`
	CapitalExpenditures Field `json:"capital_expenditures"`
	AircraftPurchases   Field `json:"aircraft_purchases"`
	InvestingCashFlow   Field `json:"investing_cash_flow"`
	DebtIssuance        Field `json:"debt_issuance"`
	DebtRepayments      Field `json:"debt_repayments"`
	ShareRepurchases    Field `json:"share_repurchases"`
	DividendsPaid       Field `json:"dividends_paid"`
	FinancingCashFlow   Field `json:"financing_cash_flow"`
	FreeCashFlow        Field `json:"free_cash_flow"`
}

// OperatingStatistics holds airline traffic and unit metrics.
// ASM/RPM and passengers are counts, load factor is a percentage,
// unit metrics are in cents.
type OperatingStatistics struct {
	AvailableSeatMiles    Field `json:"available_seat_miles"`
	RevenuePassengerMiles Field `json:"revenue_passenger_miles"`
	LoadFactor            Field `json:"load_factor"`
	PassengersCarried     Field `json:"passengers_carried"`
	Departures            Field `json:"departures"`
	AircraftAtPeriodEnd   Field `json:"aircraft_at_period_end"`
	Yield                 Field `json:"yield"`
	PRASM                 Field `json:"prasm"`
	RASM                  Field `json:"rasm"`
	CASM                  Field `json:"casm"`
	CASMEx                Field `json:"casm_ex"`
}

// SegmentRevenue is a geographic or operating segment line taken from HTML.
type SegmentRevenue struct {
	Name            string   `json:"name"`
	Revenue         float64  `json:"revenue"`
	OperatingIncome *float64 `json:"operating_income,omitempty"`
	Ref             string   `json:"ref,omitempty"`
}

// StatementRecord is the normalized output for one company and fiscal year.
type StatementRecord struct {
	Ticker     string `json:"ticker"`
	FiscalYear int    `json:"fiscal_year"`

	Income    IncomeStatement     `json:"income"`
	Balance   BalanceSheet        `json:"balance"`
	CashFlow  CashFlowStatement   `json:"cash_flow"`
	Operating OperatingStatistics `json:"operating"`
	Segments  []SegmentRevenue    `json:"segments,omitempty"`

	Findings  []ValidationFinding `json:"findings,omitempty"`
	Finalized bool                `json:"finalized"`
}

// NewStatementRecord returns an empty record for one (company, year) unit.
func NewStatementRecord(ticker string, fiscalYear int) *StatementRecord {
	return &StatementRecord{Ticker: ticker, FiscalYear: fiscalYear}
}

// Clone returns a deep copy.
func (r *StatementRecord) Clone() *StatementRecord {
	c := *r
	if r.Segments != nil {
		c.Segments = make([]SegmentRevenue, len(r.Segments))
		for i, s := range r.Segments {
			c.Segments[i] = s
			if s.OperatingIncome != nil {
				v := *s.OperatingIncome
				c.Segments[i].OperatingIncome = &v
			}
		}
	}
	if r.Findings != nil {
		c.Findings = append([]ValidationFinding(nil), r.Findings...)
	}
	return &c
}

// Get returns the field addressed by id, or nil for an unknown id.
func (r *StatementRecord) Get(id FieldID) *Field {
	acc, ok := accessorIndex[id]
	if !ok {
		return nil
	}
	return acc.get(r)
}

// Apply sets a field from an extracted value if it is not already present.
// It reports whether the value was stored. A finalized record accepts nothing.
func (r *StatementRecord) Apply(v ExtractedValue) bool {
	if r.Finalized {
		return false
	}
	f := r.Get(v.Concept)
	if f == nil || f.Present {
		return false
	}
	f.Set(v.Value, v.Source, v.Ref)
	return true
}

// AddFinding appends to the audit trail.
func (r *StatementRecord) AddFinding(f ValidationFinding) {
	r.Findings = append(r.Findings, f)
}

// Correct changes a field after the fact and records why. It is the only
// mutation allowed once the record is finalized.
func (r *StatementRecord) Correct(id FieldID, value float64, finding ValidationFinding) {
	f := r.Get(id)
	if f == nil {
		return
	}
	if f.Present {
		before := f.Value
		finding.Before = &before
	}
	after := value
	finding.After = &after
	finding.Field = id
	f.Set(value, SourceDerived, finding.Message)
	r.AddFinding(finding)
}

// Finalize marks the record final. Apply refuses values from then on; only
// Correct, which leaves a finding, may still change a field.
func (r *StatementRecord) Finalize() {
	r.Finalized = true
}

// RevenueBreakdown is the revenue group as one unit, used to vet candidate
// tables before they reach a record.
type RevenueBreakdown struct {
	Total     Field `json:"total"`
	Passenger Field `json:"passenger"`
	Cargo     Field `json:"cargo"`
	Other     Field `json:"other"`
}

// RevenueBreakdown returns a copy of the record's revenue group.
func (r *StatementRecord) RevenueBreakdown() RevenueBreakdown {
	return RevenueBreakdown{
		Total:     r.Income.TotalRevenue,
		Passenger: r.Income.PassengerRevenue,
		Cargo:     r.Income.CargoRevenue,
		Other:     r.Income.OtherRevenue,
	}
}
