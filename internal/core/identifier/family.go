// Package identifier generates human-readable sequential references
// (payment IDs, OR numbers, contact codes, disbursement request codes).
//
// The database is the only owner of "highest sequence used". The generator
// derives the next candidate from what is stored and reserves nothing; the
// unique index on the reference column decides which concurrent caller wins.
package identifier

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"backoffice/internal/core/apperror"
)

// Bucket is the time partition a family's sequence resets on.
type Bucket string

const (
	// BucketNone keeps one global sequence per family.
	BucketNone Bucket = "none"
	// BucketYear restarts the sequence every calendar year ("2025").
	BucketYear Bucket = "year"
	// BucketMonth restarts the sequence every calendar month ("202510").
	BucketMonth Bucket = "month"
)

// Key names a family.
type Key string

// Built-in family keys.
const (
	PaymentReceived     Key = "PaymentReceived"
	PaymentMade         Key = "PaymentMade"
	OfficialReceipt     Key = "OfficialReceipt"
	VendorContact       Key = "VendorContact"
	CustomerContact     Key = "CustomerContact"
	DisbursementRequest Key = "DisbursementRequest"
)

// Family describes one class of generated identifiers.
type Family struct {
	Key Key `json:"key"`

	// Prefix is stamped at the front of every identifier ("OR", "AP-").
	// A trailing separator is not doubled.
	Prefix string `json:"prefix"`

	Bucket Bucket `json:"bucket"`

	// Width is the zero-padded digit count of the sequence.
	// Larger sequences widen instead of wrapping.
	Width int `json:"width"`

	Separator string `json:"separator"`

	// Table is the record table whose reference column holds this family.
	Table string `json:"table"`
}

const defaultSeparator = "-"

// MaxDigits bounds a sequence suffix so every sequence fits in int64.
// Longer suffixes are malformed.
const MaxDigits = 18

// MaxSequence is the largest sequence a family can issue.
const MaxSequence int64 = 999_999_999_999_999_999

// Families is the built-in family table.
var Families = map[Key]Family{
	PaymentReceived:     {Key: PaymentReceived, Prefix: "PMT", Bucket: BucketYear, Width: 3, Separator: defaultSeparator, Table: "payments"},
	PaymentMade:         {Key: PaymentMade, Prefix: "V-PMT", Bucket: BucketYear, Width: 3, Separator: defaultSeparator, Table: "payments"},
	OfficialReceipt:     {Key: OfficialReceipt, Prefix: "OR", Bucket: BucketYear, Width: 5, Separator: defaultSeparator, Table: "official_receipts"},
	VendorContact:       {Key: VendorContact, Prefix: "AP-", Bucket: BucketNone, Width: 3, Separator: defaultSeparator, Table: "contacts"},
	CustomerContact:     {Key: CustomerContact, Prefix: "AR-", Bucket: BucketNone, Width: 3, Separator: defaultSeparator, Table: "contacts"},
	DisbursementRequest: {Key: DisbursementRequest, Prefix: "DISB", Bucket: BucketYear, Width: 3, Separator: defaultSeparator, Table: "disbursement_requests"},
}

// Lookup returns the built-in family registered under key.
func Lookup(key Key) (Family, error) {
	fam, ok := Families[key]
	if !ok {
		return Family{}, apperror.NewValidation(fmt.Sprintf("unknown identifier family %q", key)).
			WithDetail("family", string(key))
	}
	return fam, nil
}

// Sorted returns the built-in families ordered by key.
func Sorted() []Family {
	out := make([]Family, 0, len(Families))
	for _, fam := range Families {
		out = append(out, fam)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Validate checks the family configuration.
func (f Family) Validate() error {
	if f.Key == "" {
		return apperror.NewValidation("family key is required")
	}
	if f.Separator == "" {
		return apperror.NewValidation("family separator is required").WithDetail("family", string(f.Key))
	}
	if strings.TrimSuffix(f.Prefix, f.Separator) == "" {
		return apperror.NewValidation("family prefix is required").WithDetail("family", string(f.Key))
	}
	if f.Width < 1 {
		return apperror.NewValidation("family width must be positive").WithDetail("family", string(f.Key))
	}
	switch f.Bucket {
	case BucketNone, BucketYear, BucketMonth:
	default:
		return apperror.NewValidation(fmt.Sprintf("unknown bucket %q", f.Bucket)).WithDetail("family", string(f.Key))
	}
	// A numeric last prefix segment would be indistinguishable from a sequence.
	head := f.head()
	last := head[strings.LastIndex(head, f.Separator)+1:]
	if isDigits(last) {
		return apperror.NewValidation("family prefix must not end in a numeric segment").WithDetail("family", string(f.Key))
	}
	return nil
}

// BucketKey returns the partition key for t.
func (f Family) BucketKey(t time.Time) string {
	switch f.Bucket {
	case BucketYear:
		return t.Format("2006")
	case BucketMonth:
		return t.Format("200601")
	default:
		return ""
	}
}

// CheckBucketKey validates a partition key supplied from outside.
func (f Family) CheckBucketKey(key string) error {
	var layout string
	switch f.Bucket {
	case BucketYear:
		layout = "2006"
	case BucketMonth:
		layout = "200601"
	default:
		if key != "" {
			return apperror.NewValidation("family has no bucket").WithDetail("family", string(f.Key))
		}
		return nil
	}
	if len(key) != len(layout) || !isDigits(key) {
		return apperror.NewValidation(fmt.Sprintf("bucket must be %d digits", len(layout))).
			WithDetail("family", string(f.Key)).
			WithDetail("bucket", key)
	}
	if _, err := time.Parse(layout, key); err != nil {
		return apperror.NewValidation("invalid bucket").WithDetail("bucket", key).WithCause(err)
	}
	return nil
}

// SequenceKey names the family+bucket sequence space ("OfficialReceipt_2025").
func (f Family) SequenceKey(bucketKey string) string {
	if bucketKey == "" {
		return string(f.Key)
	}
	return fmt.Sprintf("%s_%s", f.Key, bucketKey)
}

// head is the prefix without a trailing separator.
func (f Family) head() string {
	return strings.TrimSuffix(f.Prefix, f.Separator)
}

// Root is the part shared by every identifier of the family, fallback
// values included ("PMT-", "AP-").
func (f Family) Root() string {
	return f.head() + f.Separator
}

// Owns reports whether value belongs to the family in any bucket.
func (f Family) Owns(value string) bool {
	return strings.HasPrefix(value, f.Root())
}

// Stem is everything before the sequence digits, separator included
// ("OR-2025-", "AP-").
func (f Family) Stem(bucketKey string) string {
	if bucketKey == "" {
		return f.Root()
	}
	return f.Root() + bucketKey + f.Separator
}

// Format composes the identifier for seq in bucketKey.
func (f Family) Format(bucketKey string, seq int64) string {
	return fmt.Sprintf("%s%0*d", f.Stem(bucketKey), f.Width, seq)
}

// Parse extracts the sequence from an identifier stored under bucketKey.
// The suffix is located from the stem, never from a fixed offset.
func (f Family) Parse(value, bucketKey string) (int64, error) {
	stem := f.Stem(bucketKey)
	if !strings.HasPrefix(value, stem) {
		return 0, apperror.NewMalformedIdentifier(string(f.Key), value, "does not start with "+stem)
	}
	suffix := value[len(stem):]
	if !isDigits(suffix) {
		return 0, apperror.NewMalformedIdentifier(string(f.Key), value, "suffix is not numeric")
	}
	if len(suffix) > MaxDigits {
		return 0, apperror.NewMalformedIdentifier(string(f.Key), value, fmt.Sprintf("suffix longer than %d digits", MaxDigits))
	}
	seq, err := strconv.ParseInt(suffix, 10, 64)
	if err != nil {
		return 0, apperror.NewMalformedIdentifier(string(f.Key), value, "suffix out of range").WithCause(err)
	}
	if seq < 1 {
		return 0, apperror.NewMalformedIdentifier(string(f.Key), value, "sequence must be positive")
	}
	return seq, nil
}

// Canonical reports whether value is exactly what Format would produce for
// its own sequence. Legacy rows such as "AP-7" parse but are not canonical.
func (f Family) Canonical(value, bucketKey string) bool {
	seq, err := f.Parse(value, bucketKey)
	if err != nil {
		return false
	}
	return f.Format(bucketKey, seq) == value
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
