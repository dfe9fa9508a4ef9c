package generator

import (
	"fmt"
	"math/rand/v2"
	"time"

	"ledger-recon/core/reconcile"

	"github.com/shopspring/decimal"
)

// TransactionTypes are the types drawn for synthetic records.
var TransactionTypes = []string{
	"PURCHASE", "REFUND", "CASH_ADVANCE", "BALANCE_TRANSFER",
	"CHARGEBACK", "REVERSAL", "AUTHORIZATION", "CAPTURE",
}

var (
	cardNumbers = []string{
		"4234567812345670", "4234567812345671", "4234567812345672",
		"4532756278912345", "4532756278912346", "4024007198765432",
		"4024007198765433", "4024007198765434",
	}
	merchantNames   = []string{"SuperMart", "QuickStore", "MegaShop", "GlobalRetail", "LocalMarket"}
	cardholderNames = []string{"Ravi Kumar", "Priya Sharma", "Amit Patel", "Neha Singh", "Rajesh Verma"}
)

// Options controls the synthetic data set.
type Options struct {
	// Records is the number of transactions generated.
	Records int
	// MismatchRate is the share of ledger rows whose amount is perturbed.
	MismatchRate float64
	// DropFileRate is the share of transactions left out of the feed.
	DropFileRate float64
	// DropLedgerRate is the share of transactions left out of the ledger.
	DropLedgerRate float64
	// Date is the business date of every transaction.
	Date time.Time
	// Seed makes the output reproducible.
	Seed uint64
}

// Validate checks the rates and the record count.
func (o Options) Validate() error {
	if o.Records < 0 {
		return &reconcile.ConfigurationError{Option: "records", Message: "must not be negative"}
	}
	for name, rate := range map[string]float64{
		"mismatch_rate":    o.MismatchRate,
		"drop_file_rate":   o.DropFileRate,
		"drop_ledger_rate": o.DropLedgerRate,
	} {
		if rate < 0 || rate > 1 {
			return &reconcile.ConfigurationError{Option: name, Message: fmt.Sprintf("must be within [0,1], got %v", rate)}
		}
	}
	return nil
}

// Dataset is a feed and a ledger built from the same transactions.
type Dataset struct {
	File   []reconcile.TransactionRecord
	Ledger []reconcile.TransactionRecord

	// Perturbed lists ids whose ledger amount differs from the feed.
	Perturbed []string
	// OnlyInLedger lists ids dropped from the feed.
	OnlyInLedger []string
	// OnlyInFile lists ids dropped from the ledger.
	OnlyInFile []string
}

// Generate builds a dataset. A transaction is dropped from at most one side.
func Generate(opts Options) (*Dataset, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	date := opts.Date
	if date.IsZero() {
		date = time.Now()
	}
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	ds := &Dataset{
		File:   make([]reconcile.TransactionRecord, 0, opts.Records),
		Ledger: make([]reconcile.TransactionRecord, 0, opts.Records),
	}
	for i := 0; i < opts.Records; i++ {
		rec := newRecord(rng, date, i+1)

		switch roll := rng.Float64(); {
		case roll < opts.DropFileRate:
			ds.Ledger = append(ds.Ledger, rec)
			ds.OnlyInLedger = append(ds.OnlyInLedger, rec.TransactionID)
			continue
		case roll < opts.DropFileRate+opts.DropLedgerRate:
			ds.File = append(ds.File, rec)
			ds.OnlyInFile = append(ds.OnlyInFile, rec.TransactionID)
			continue
		}

		ds.File = append(ds.File, rec)
		ledger := rec
		if rng.Float64() < opts.MismatchRate {
			ledger = perturb(rng, rec)
			ds.Perturbed = append(ds.Perturbed, rec.TransactionID)
		}
		ds.Ledger = append(ds.Ledger, ledger)
	}
	return ds, nil
}

func newRecord(rng *rand.Rand, date time.Time, seq int) reconcile.TransactionRecord {
	amount := decimal.NewFromInt(rng.Int64N(990000) + 10000).Shift(-2).StringFixed(2)
	ts := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC).
		Add(time.Duration(rng.IntN(24*60*60)) * time.Second)
	holder := pick(rng, cardholderNames)

	fields := make([]string, reconcile.FieldCount)
	fields[reconcile.ColTransactionType] = pick(rng, TransactionTypes)
	fields[reconcile.ColTransactionID] = fmt.Sprintf("TXN%s%08d", ts.Format("20060102"), seq)
	fields[reconcile.ColCardNumber] = pick(rng, cardNumbers)
	fields[reconcile.ColAmount] = amount
	fields[reconcile.ColStan] = fmt.Sprintf("%06d", rng.IntN(1000000))
	fields[reconcile.ColCurrencyCode] = "356"
	fields[reconcile.ColTransactionDate] = ts.Format(reconcile.DateLayout)
	fields[reconcile.ColTransactionTime] = ts.Format(reconcile.TimeLayout)
	fields[reconcile.ColResponseCode] = "00"
	fields[reconcile.ColAccountType] = "Savings"
	fields[reconcile.ColAuthorizationCode] = fmt.Sprintf("AUTH%04d", rng.IntN(10000))
	fields[reconcile.ColMerchantID] = fmt.Sprintf("MERCHANT%d", rng.IntN(100))
	fields[reconcile.ColMerchantCategoryCode] = "5411"
	fields[reconcile.ColTerminalID] = fmt.Sprintf("TERM%d", rng.IntN(10))
	fields[reconcile.ColCardExpiryDate] = "12/27"
	fields[reconcile.ColCardholderName] = holder
	fields[reconcile.ColAccountHolderName] = holder
	fields[reconcile.ColTransactionFee] = "2.50"
	fields[reconcile.ColAuthorizationIndicator] = "A"
	fields[reconcile.ColAcquirerBin] = "123456"
	fields[reconcile.ColIssuerBin] = "654321"
	fields[reconcile.ColMerchantName] = pick(rng, merchantNames)
	fields[reconcile.ColTransactionCode] = "SALE"
	fields[reconcile.ColReasonCode] = "00"
	fields[reconcile.ColRRN] = fmt.Sprintf("%s%04d", ts.Format("2006")+fmt.Sprintf("%03d", ts.YearDay()), seq%10000)
	fields[reconcile.ColAcquirerReferenceNumber] = "123ABC"
	fields[reconcile.ColBatchNumber] = "BATCH001"
	fields[reconcile.ColDateOfSettlement] = ts.AddDate(0, 0, 1).Format(reconcile.DateLayout)
	fields[reconcile.ColSettlementAmount] = amount
	fields[reconcile.ColIssuerResponseCode] = "00"
	fields[reconcile.ColTransactionOrigin] = "Online"
	fields[reconcile.ColTransactionReference] = fmt.Sprintf("REF%d", rng.IntN(10000))
	fields[reconcile.ColOriginalTransactionAmount] = "0"
	fields[reconcile.ColRefundAmount] = "0"
	fields[reconcile.ColAdjustmentAmount] = "0"
	fields[reconcile.ColLoyaltyPointsEarned] = "10"
	fields[reconcile.ColLoyaltyPointsRedeemed] = "5"
	fields[reconcile.ColReversalIndicator] = "N"
	fields[reconcile.ColAuthorizationDateTime] = ts.Format("2006-01-02T15:04:05")
	fields[reconcile.ColNarrative] = "Transaction successful"
	return reconcile.RecordFromFields(fields)
}

// perturb returns a copy of rec with the amount moved by 1 to 50 cents.
func perturb(rng *rand.Rand, rec reconcile.TransactionRecord) reconcile.TransactionRecord {
	out := rec
	out.Extra = make(map[string]string, len(rec.Extra))
	for k, v := range rec.Extra {
		out.Extra[k] = v
	}
	amount, _ := rec.Decimal()
	delta := decimal.NewFromInt(rng.Int64N(50) + 1).Shift(-2)
	out.Amount = amount.Add(delta).StringFixed(2)
	return out
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.IntN(len(values))]
}
