package ledger

import (
	"time"

	"ledger-recon/core/reconcile"
)

// TableName is the ledger table read by the reconciliation.
const TableName = "visa_base2_transactions"

// Transaction is one row of the ledger. Columns mirror the network extract.
type Transaction struct {
	ID                        uint   `gorm:"primaryKey"`
	TransactionType           string `gorm:"column:transaction_type;size:32"`
	TransactionID             string `gorm:"column:transaction_id;size:64;uniqueIndex;not null"`
	CardNumber                string `gorm:"column:card_number;size:32"`
	Amount                    string `gorm:"column:amount;size:32"`
	Stan                      string `gorm:"column:stan;size:16"`
	CurrencyCode              string `gorm:"column:currency_code;size:8"`
	TransactionDate           string `gorm:"column:transaction_date;size:10"`
	TransactionTime           string `gorm:"column:transaction_time;size:8"`
	ResponseCode              string `gorm:"column:response_code;size:8"`
	AccountType               string `gorm:"column:account_type;size:16"`
	AuthorizationCode         string `gorm:"column:authorization_code;size:16"`
	MerchantID                string `gorm:"column:merchant_id;size:32"`
	MerchantCategoryCode      string `gorm:"column:merchant_category_code;size:8"`
	TerminalID                string `gorm:"column:terminal_id;size:32"`
	CardExpiryDate            string `gorm:"column:card_expiry_date;size:10"`
	CardholderName            string `gorm:"column:cardholder_name;size:128"`
	AccountHolderName         string `gorm:"column:account_holder_name;size:128"`
	TransactionFee            string `gorm:"column:transaction_fee;size:32"`
	AuthorizationIndicator    string `gorm:"column:authorization_indicator;size:8"`
	AcquirerBin               string `gorm:"column:acquirer_bin;size:16"`
	IssuerBin                 string `gorm:"column:issuer_bin;size:16"`
	MerchantName              string `gorm:"column:merchant_name;size:128"`
	TransactionCode           string `gorm:"column:transaction_code;size:16"`
	ReasonCode                string `gorm:"column:reason_code;size:16"`
	RRN                       string `gorm:"column:rrn;size:32"`
	OriginalTransactionID     string `gorm:"column:original_transaction_id;size:64"`
	AcquirerReferenceNumber   string `gorm:"column:acquirer_reference_number;size:64"`
	BatchNumber               string `gorm:"column:batch_number;size:32"`
	DateOfSettlement          string `gorm:"column:date_of_settlement;size:10"`
	SettlementAmount          string `gorm:"column:settlement_amount;size:32"`
	IssuerResponseCode        string `gorm:"column:issuer_response_code;size:8"`
	TransactionOrigin         string `gorm:"column:transaction_origin;size:32"`
	TransactionReference      string `gorm:"column:transaction_reference;size:64"`
	OriginalTransactionAmount string `gorm:"column:original_transaction_amount;size:32"`
	RefundAmount              string `gorm:"column:refund_amount;size:32"`
	AdjustmentAmount          string `gorm:"column:adjustment_amount;size:32"`
	LoyaltyPointsEarned       string `gorm:"column:loyalty_points_earned;size:16"`
	LoyaltyPointsRedeemed     string `gorm:"column:loyalty_points_redeemed;size:16"`
	ReversalIndicator         string `gorm:"column:reversal_indicator;size:8"`
	AuthorizationDateTime     string `gorm:"column:authorization_date_time;size:32"`
	OriginalAuthorizationCode string `gorm:"column:original_authorization_code;size:16"`
	Narrative                 string `gorm:"column:narrative;size:255"`
	CreatedAt                 time.Time
}

// TableName implements gorm's tabler.
func (Transaction) TableName() string {
	return TableName
}

// columns returns pointers to the extract fields in column order.
func (t *Transaction) columns() [reconcile.FieldCount]*string {
	return [reconcile.FieldCount]*string{
		&t.TransactionType, &t.TransactionID, &t.CardNumber, &t.Amount, &t.Stan,
		&t.CurrencyCode, &t.TransactionDate, &t.TransactionTime, &t.ResponseCode,
		&t.AccountType, &t.AuthorizationCode, &t.MerchantID, &t.MerchantCategoryCode,
		&t.TerminalID, &t.CardExpiryDate, &t.CardholderName, &t.AccountHolderName,
		&t.TransactionFee, &t.AuthorizationIndicator, &t.AcquirerBin, &t.IssuerBin,
		&t.MerchantName, &t.TransactionCode, &t.ReasonCode, &t.RRN,
		&t.OriginalTransactionID, &t.AcquirerReferenceNumber, &t.BatchNumber,
		&t.DateOfSettlement, &t.SettlementAmount, &t.IssuerResponseCode,
		&t.TransactionOrigin, &t.TransactionReference, &t.OriginalTransactionAmount,
		&t.RefundAmount, &t.AdjustmentAmount, &t.LoyaltyPointsEarned,
		&t.LoyaltyPointsRedeemed, &t.ReversalIndicator, &t.AuthorizationDateTime,
		&t.OriginalAuthorizationCode, &t.Narrative,
	}
}

// ToRecord converts the row into a reconciliation record.
func (t Transaction) ToRecord() reconcile.TransactionRecord {
	fields := make([]string, reconcile.FieldCount)
	for i, p := range t.columns() {
		fields[i] = *p
	}
	return reconcile.RecordFromFields(fields)
}

// FromRecord builds a row from a reconciliation record.
func FromRecord(r reconcile.TransactionRecord) Transaction {
	var t Transaction
	for i, p := range t.columns() {
		*p = r.Field(i)
	}
	return t
}

// ColumnNames lists the database columns that carry extract fields.
func ColumnNames() []string {
	return []string{
		"transaction_type", "transaction_id", "card_number", "amount", "stan",
		"currency_code", "transaction_date", "transaction_time", "response_code",
		"account_type", "authorization_code", "merchant_id", "merchant_category_code",
		"terminal_id", "card_expiry_date", "cardholder_name", "account_holder_name",
		"transaction_fee", "authorization_indicator", "acquirer_bin", "issuer_bin",
		"merchant_name", "transaction_code", "reason_code", "rrn",
		"original_transaction_id", "acquirer_reference_number", "batch_number",
		"date_of_settlement", "settlement_amount", "issuer_response_code",
		"transaction_origin", "transaction_reference", "original_transaction_amount",
		"refund_amount", "adjustment_amount", "loyalty_points_earned",
		"loyalty_points_redeemed", "reversal_indicator", "authorization_date_time",
		"original_authorization_code", "narrative",
	}
}
