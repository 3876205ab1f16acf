package ledger

import (
	"helmetledger/internal/core/id"
)

// Reference prefixes of rows written by lifecycle operations.
const (
	RefSale         = "SALE#"
	RefSaleRefund   = "SALE_REFUND#"
	RefExchange     = "EXCHANGE#"
	RefReinvestment = "REINVESTMENT#"
	RefConversion   = "CONVERSION#"
	RefStockReceipt = "STOCK_RECEIPT#"
	RefManual       = "MANUAL#"
)

// Sub-references used next to the reference prefixes above.
const (
	SubCOGS         = "cogs"
	SubRefund       = "refund"
	SubCOGSReversal = "cogs-reversal"
	SubCOGSNew      = "cogs-new"
	SubTransferOut  = "out"
	SubTransferIn   = "in"
	SubPurchase     = "purchase"
)

// SaleRef is the reference of the rows posted for a sale.
func SaleRef(saleID id.ID) string { return RefSale + saleID.String() }

// SaleRefundRef is the reference of the refund row of a sale.
func SaleRefundRef(saleID id.ID) string { return RefSaleRefund + saleID.String() }

// ExchangeRef is the reference of the adjustment rows of an exchange.
func ExchangeRef(exchangeID id.ID) string { return RefExchange + exchangeID.String() }

// ReinvestmentRef is the reference of the rows of one reinvestment.
func ReinvestmentRef(reinvestmentID id.ID) string { return RefReinvestment + reinvestmentID.String() }

// ConversionRef is the reference of a wallet balance conversion.
func ConversionRef(conversionID id.ID) string { return RefConversion + conversionID.String() }

// StockReceiptRef is the reference of a stock receipt.
func StockReceiptRef(receiptID id.ID) string { return RefStockReceipt + receiptID.String() }
