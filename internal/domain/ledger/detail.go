package ledger

// Detail classifies a ledger row. Its flags decide the aggregates a row enters.
type Detail string

const (
	DetailSale                Detail = "SALE"
	DetailOwnerInvestment     Detail = "OWNER_INVESTMENT"
	DetailExtraIncome         Detail = "EXTRA_INCOME"
	DetailCOGSReversal        Detail = "COGS_REVERSAL"
	DetailInventoryPurchase   Detail = "INVENTORY_PURCHASE"
	DetailCOGS                Detail = "COST_OF_GOODS_SOLD"
	DetailSaleRefund          Detail = "SALE_REFUND"
	DetailRefund              Detail = "REFUND"
	DetailFixedExpense        Detail = "FIXED_EXPENSE"
	DetailVariableExpense     Detail = "VARIABLE_EXPENSE"
	DetailProLabore           Detail = "PRO_LABORE"
	DetailProfitDistribution  Detail = "PROFIT_DISTRIBUTION"
	DetailInvestment          Detail = "INVESTMENT"
	DetailTax                 Detail = "TAX"
	DetailPersonalExpense     Detail = "PERSONAL_EXPENSE"
	DetailOtherExpense        Detail = "OTHER_EXPENSE"
	DetailInternalTransferOut Detail = "INTERNAL_TRANSFER_OUT"
	DetailInternalTransferIn  Detail = "INTERNAL_TRANSFER_IN"
)

// Flags are the two aggregation switches of a row.
type Flags struct {
	AffectsProfit bool
	AffectsCash   bool
}

var detailFlags = map[Detail]Flags{
	DetailSale:                {AffectsProfit: true, AffectsCash: true},
	DetailOwnerInvestment:     {AffectsProfit: false, AffectsCash: true},
	DetailExtraIncome:         {AffectsProfit: true, AffectsCash: true},
	DetailCOGSReversal:        {AffectsProfit: true, AffectsCash: false},
	DetailInventoryPurchase:   {AffectsProfit: false, AffectsCash: true},
	DetailCOGS:                {AffectsProfit: true, AffectsCash: false},
	DetailSaleRefund:          {AffectsProfit: true, AffectsCash: true},
	DetailRefund:              {AffectsProfit: false, AffectsCash: true},
	DetailFixedExpense:        {AffectsProfit: true, AffectsCash: true},
	DetailVariableExpense:     {AffectsProfit: true, AffectsCash: true},
	DetailProLabore:           {AffectsProfit: true, AffectsCash: true},
	DetailProfitDistribution:  {AffectsProfit: false, AffectsCash: true},
	DetailInvestment:          {AffectsProfit: false, AffectsCash: true},
	DetailTax:                 {AffectsProfit: true, AffectsCash: true},
	DetailPersonalExpense:     {AffectsProfit: true, AffectsCash: true},
	DetailOtherExpense:        {AffectsProfit: true, AffectsCash: true},
	DetailInternalTransferOut: {AffectsProfit: false, AffectsCash: true},
	DetailInternalTransferIn:  {AffectsProfit: false, AffectsCash: true},
}

// Flags returns the default flags of the detail.
func (d Detail) Flags() Flags {
	return detailFlags[d]
}

// Valid reports whether d is a known detail.
func (d Detail) Valid() bool {
	_, ok := detailFlags[d]
	return ok
}

// IsProtected reports whether rows of this detail belong to the sale lifecycle.
func (d Detail) IsProtected() bool {
	return d == DetailSale || d == DetailCOGS
}

// Details returns every known detail.
func Details() []Detail {
	out := make([]Detail, 0, len(detailFlags))
	for d := range detailFlags {
		out = append(out, d)
	}
	return out
}
