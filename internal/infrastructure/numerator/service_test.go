package numerator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/identifier"
	"backoffice/internal/infrastructure/storage/postgres"
)

// --- fakes ---

type fakeRows struct {
	values []string
	pos    int
	err    error
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.values) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	*(dest[0].(*string)) = r.values[r.pos-1]
	return nil
}

func (r *fakeRows) Values() ([]any, error) {
	return []any{r.values[r.pos-1]}, nil
}

type fakeRow struct {
	val int64
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*int64)) = r.val
	return nil
}

type fakeDB struct {
	results  [][]string
	queryErr error
	row      fakeRow
	execErr  error

	queries []string
	execs   []string
	args    [][]any
}

func (d *fakeDB) GetQuerier(context.Context) postgres.Querier { return d }

func (d *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	d.execs = append(d.execs, sql)
	d.args = append(d.args, args)
	return pgconn.CommandTag{}, d.execErr
}

func (d *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	d.queries = append(d.queries, sql)
	if d.queryErr != nil {
		return nil, d.queryErr
	}
	var values []string
	if i := len(d.queries) - 1; i < len(d.results) {
		values = d.results[i]
	}
	return &fakeRows{values: values}, nil
}

func (d *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	d.queries = append(d.queries, sql)
	d.args = append(d.args, args)
	return d.row
}

// --- tests ---

func TestTopQuery_SQL(t *testing.T) {
	sql, args, err := topQuery("official_receipts", "OR-2025-").ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT reference FROM official_receipts WHERE reference LIKE $1 ESCAPE '\' AND substr(reference, $2) ~ '^[0-9]{1,18}$' ORDER BY CAST(substr(reference, $3) AS BIGINT) DESC LIMIT 1`,
		sql)
	assert.Equal(t, []any{"OR-2025-%", 9, 9}, args)
}

func TestQueries_ShareSuffixCap(t *testing.T) {
	sql, _, err := topQuery("contacts", "AP-").ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, fmt.Sprintf("{1,%d}", identifier.MaxDigits))
}

func TestMalformedQuery_SQL(t *testing.T) {
	sql, args, err := malformedQuery("contacts", "AP-").ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT reference FROM contacts WHERE reference LIKE $1 ESCAPE '\' AND substr(reference, $2) !~ '^[0-9]{1,18}$' ORDER BY reference LIMIT 20`,
		sql)
	assert.Equal(t, []any{"AP-%", 4}, args)
}

func TestTopQuery_EscapesWildcards(t *testing.T) {
	_, args, err := topQuery("payments", "P_T-").ToSql()
	require.NoError(t, err)
	assert.Equal(t, `P\_T-%`, args[0])
}

func vendorRows() *fakeDB {
	return &fakeDB{results: [][]string{
		{"AP-009"},
		{"AP-XX"},
	}}
}

func TestService_Candidates(t *testing.T) {
	db := vendorRows()
	fam := identifier.Families[identifier.VendorContact]

	got, err := New(db).Candidates(context.Background(), fam, "AP-")
	require.NoError(t, err)
	assert.Equal(t, []string{"AP-009", "AP-XX"}, got)
	assert.Len(t, db.queries, 2)
}

func TestService_Candidates_FeedsGenerator(t *testing.T) {
	db := vendorRows()
	fam := identifier.Families[identifier.VendorContact]

	cand, err := identifier.NewSequencer(New(db)).Next(context.Background(), fam, identifier.Request{})
	require.NoError(t, err)
	assert.Equal(t, "AP-010", cand.Value)
	assert.Equal(t, 1, cand.Malformed)
	assert.Len(t, db.queries, 2)
}

func TestService_Candidates_QueryError(t *testing.T) {
	db := &fakeDB{queryErr: errors.New("connection reset")}
	fam := identifier.Families[identifier.OfficialReceipt]

	_, err := identifier.NewSequencer(New(db)).Next(context.Background(), fam, identifier.Request{})
	assert.True(t, apperror.IsStoreUnavailable(err))
}

func TestService_Candidates_RejectsBadTable(t *testing.T) {
	fam := identifier.Family{Key: "X", Prefix: "X", Table: "x; DROP TABLE payments"}
	_, err := New(&fakeDB{}).Candidates(context.Background(), fam, "X-")
	assert.Error(t, err)
}

func TestService_Watermark(t *testing.T) {
	db := &fakeDB{row: fakeRow{val: 41}}
	svc := New(db)

	val, err := svc.Watermark(context.Background(), "PaymentReceived_2025")
	require.NoError(t, err)
	assert.Equal(t, int64(41), val)
	assert.Equal(t, []any{"PaymentReceived_2025"}, db.args[0])

	db.row = fakeRow{err: pgx.ErrNoRows}
	val, err = svc.Watermark(context.Background(), "PaymentReceived_2026")
	require.NoError(t, err)
	assert.Zero(t, val)
}

func TestService_AdvanceNeverLowers(t *testing.T) {
	db := &fakeDB{}
	svc := New(db)

	require.NoError(t, svc.Advance(context.Background(), "OfficialReceipt_2025", 12))
	assert.Contains(t, db.execs[0], "GREATEST(sys_sequences.current_val, EXCLUDED.current_val)")
	assert.Equal(t, []any{"OfficialReceipt_2025", int64(12)}, db.args[0])
}

func TestService_Set(t *testing.T) {
	db := &fakeDB{}
	svc := New(db)

	require.NoError(t, svc.Set(context.Background(), "VendorContact", 500))
	assert.Contains(t, db.execs[0], "SET current_val = EXCLUDED.current_val")

	assert.Error(t, svc.Set(context.Background(), "VendorContact", -1))
	assert.True(t, apperror.HasCode(svc.Set(context.Background(), "VendorContact", identifier.MaxSequence+1), apperror.CodeValidation))
	assert.Len(t, db.execs, 1)
}

func TestService_AdvanceStoreDown(t *testing.T) {
	db := &fakeDB{execErr: &pgconn.PgError{Code: "57P01"}}

	err := New(db).Advance(context.Background(), "VendorContact", 3)
	assert.True(t, apperror.IsStoreUnavailable(err))
}
