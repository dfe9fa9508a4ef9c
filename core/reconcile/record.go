package reconcile

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Positional columns of the network extract.
const (
	ColTransactionType = iota
	ColTransactionID
	ColCardNumber
	ColAmount
	ColStan
	ColCurrencyCode
	ColTransactionDate
	ColTransactionTime
	ColResponseCode
	ColAccountType
	ColAuthorizationCode
	ColMerchantID
	ColMerchantCategoryCode
	ColTerminalID
	ColCardExpiryDate
	ColCardholderName
	ColAccountHolderName
	ColTransactionFee
	ColAuthorizationIndicator
	ColAcquirerBin
	ColIssuerBin
	ColMerchantName
	ColTransactionCode
	ColReasonCode
	ColRRN
	ColOriginalTransactionID
	ColAcquirerReferenceNumber
	ColBatchNumber
	ColDateOfSettlement
	ColSettlementAmount
	ColIssuerResponseCode
	ColTransactionOrigin
	ColTransactionReference
	ColOriginalTransactionAmount
	ColRefundAmount
	ColAdjustmentAmount
	ColLoyaltyPointsEarned
	ColLoyaltyPointsRedeemed
	ColReversalIndicator
	ColAuthorizationDateTime
	ColOriginalAuthorizationCode
	ColNarrative

	// FieldCount is the number of positional fields of a complete extract line.
	FieldCount
)

// ColumnNames lists the header names of the extract, indexed by column.
var ColumnNames = [FieldCount]string{
	"transactionType", "transactionId", "cardNumber", "amount", "stan",
	"currencyCode", "transactionDate", "transactionTime", "responseCode",
	"accountType", "authorizationCode", "merchantId", "merchantCategoryCode",
	"terminalId", "cardExpiryDate", "cardholderName", "accountHolderName",
	"transactionFee", "authorizationIndicator", "acquirerBin", "issuerBin",
	"merchantName", "transactionCode", "reasonCode", "rrn",
	"originalTransactionId", "acquirerReferenceNumber", "batchNumber",
	"dateOfSettlement", "settlementAmount", "issuerResponseCode",
	"transactionOrigin", "transactionReference", "originalTransactionAmount",
	"refundAmount", "adjustmentAmount", "loyaltyPointsEarned",
	"loyaltyPointsRedeemed", "reversalIndicator", "authorizationDateTime",
	"originalAuthorizationCode", "narrative",
}

const (
	// DateLayout is the layout of transactionDate.
	DateLayout = "2006-01-02"
	// TimeLayout is the canonical layout of transactionTime.
	TimeLayout = "15:04:05"
)

var timeLayouts = []string{TimeLayout, "15:04", "150405"}

// TransactionRecord is one transaction as seen by either side of a
// reconciliation. Fields are kept as the feed delivered them; typed views
// (Decimal, Timestamp) are computed on demand.
type TransactionRecord struct {
	TransactionID     string
	Amount            string
	CurrencyCode      string
	TransactionDate   string
	TransactionTime   string
	ResponseCode      string
	AuthorizationCode string
	RRN               string
	TransactionType   string

	// Extra carries the descriptive columns (merchant, card, settlement)
	// keyed by header name.
	Extra map[string]string
}

// RecordFromFields builds a record from the positional fields of one line.
// The slice must hold at least FieldCount entries.
func RecordFromFields(fields []string) TransactionRecord {
	rec := TransactionRecord{
		TransactionType:   fields[ColTransactionType],
		TransactionID:     fields[ColTransactionID],
		Amount:            fields[ColAmount],
		CurrencyCode:      fields[ColCurrencyCode],
		TransactionDate:   fields[ColTransactionDate],
		TransactionTime:   fields[ColTransactionTime],
		ResponseCode:      fields[ColResponseCode],
		AuthorizationCode: fields[ColAuthorizationCode],
		RRN:               fields[ColRRN],
		Extra:             make(map[string]string, FieldCount),
	}
	for i := 0; i < FieldCount; i++ {
		if isNamedColumn(i) {
			continue
		}
		if v := fields[i]; v != "" {
			rec.Extra[ColumnNames[i]] = v
		}
	}
	return rec
}

// Fields returns the record in extract column order.
func (r TransactionRecord) Fields() []string {
	out := make([]string, FieldCount)
	for i := 0; i < FieldCount; i++ {
		out[i] = r.Field(i)
	}
	return out
}

// Field returns the value of one positional column.
func (r TransactionRecord) Field(col int) string {
	switch col {
	case ColTransactionType:
		return r.TransactionType
	case ColTransactionID:
		return r.TransactionID
	case ColAmount:
		return r.Amount
	case ColCurrencyCode:
		return r.CurrencyCode
	case ColTransactionDate:
		return r.TransactionDate
	case ColTransactionTime:
		return r.TransactionTime
	case ColResponseCode:
		return r.ResponseCode
	case ColAuthorizationCode:
		return r.AuthorizationCode
	case ColRRN:
		return r.RRN
	}
	if col < 0 || col >= FieldCount {
		return ""
	}
	return r.Extra[ColumnNames[col]]
}

func isNamedColumn(col int) bool {
	switch col {
	case ColTransactionType, ColTransactionID, ColAmount, ColCurrencyCode,
		ColTransactionDate, ColTransactionTime, ColResponseCode,
		ColAuthorizationCode, ColRRN:
		return true
	}
	return false
}

// Decimal parses the amount.
func (r TransactionRecord) Decimal() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(r.Amount))
	if err != nil {
		return decimal.Zero, NewValidationError(r.TransactionID, "amount", r.Amount, "not a decimal number")
	}
	return d, nil
}

// MinorUnits returns the amount rounded to integer hundredths.
func (r TransactionRecord) MinorUnits() (int64, error) {
	d, err := r.Decimal()
	if err != nil {
		return 0, err
	}
	return d.Shift(2).Round(0).IntPart(), nil
}

// Timestamp combines transaction date and time into one point in time (UTC).
func (r TransactionRecord) Timestamp() (time.Time, error) {
	date, err := time.Parse(DateLayout, strings.TrimSpace(r.TransactionDate))
	if err != nil {
		return time.Time{}, NewValidationError(r.TransactionID, "transactionDate", r.TransactionDate, "not a date")
	}
	clock := strings.TrimSpace(r.TransactionTime)
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, clock)
		if err != nil {
			continue
		}
		return date.Add(time.Duration(t.Hour())*time.Hour +
			time.Duration(t.Minute())*time.Minute +
			time.Duration(t.Second())*time.Second), nil
	}
	return time.Time{}, NewValidationError(r.TransactionID, "transactionTime", r.TransactionTime, "not a time of day")
}

// String implements fmt.Stringer.
func (r TransactionRecord) String() string {
	return fmt.Sprintf("%s[%s %s %s %s]", r.TransactionID, r.Amount, r.CurrencyCode, r.TransactionDate, r.TransactionTime)
}

// MatchedPair links a source record to the target record it was matched with.
type MatchedPair struct {
	Source TransactionRecord `json:"source"`
	Target TransactionRecord `json:"target"`
	Score  float64           `json:"score"`
}
