package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/finreport-extractor/constants"
	"github.com/joseph-ayodele/finreport-extractor/internal/common"
	"github.com/joseph-ayodele/finreport-extractor/internal/entity"
)

func sampleSet() *entity.ResultSet {
	rs := entity.NewResultSet()
	rs.Set("amara.pdf", entity.Record{
		CompanyName:     entity.Str("Amara Raja Energy & Mobility Limited"),
		ProfitBeforeTax: entity.Str("₹12.50 Crores"),
	}, constants.SourceFallback)
	rs.Set("acme.txt", entity.Record{
		CompanyName:       entity.Str("Acme <Holdings>"),
		ReportDate:        entity.Str("2024-03-31"),
		AdditionalDetails: map[string]any{"segment": "Batteries & Cells"},
	}, constants.SourceSemantic)
	return rs
}

func TestJSONSink_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "results.json")
	sink := NewJSONSink(path, nil)

	require.NoError(t, sink.Write(context.Background(), sampleSet()))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	want := `{
    "amara.pdf": {
        "company_name": "Amara Raja Energy & Mobility Limited",
        "report_date": "N/A",
        "profit_before_tax": "₹12.50 Crores",
        "additional_details": {}
    },
    "acme.txt": {
        "company_name": "Acme <Holdings>",
        "report_date": "2024-03-31",
        "profit_before_tax": "N/A",
        "additional_details": {
            "segment": "Batteries & Cells"
        }
    }
}`
	assert.Equal(t, want, string(got))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestJSONSink_EmptySetAndDefaultPath(t *testing.T) {
	assert.Equal(t, common.DefaultJSONOutput, NewJSONSink("", nil).Path)

	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, NewJSONSink(path, nil).Write(context.Background(), entity.NewResultSet()))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(got))
}

func TestJSONSink_OverwritesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.json")
	require.NoError(t, os.WriteFile(path, []byte("old content that is longer than the new one"), 0o644))

	require.NoError(t, NewJSONSink(path, nil).Write(context.Background(), entity.NewResultSet()))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(got))
}

func TestEncodeRecordJSON(t *testing.T) {
	b, err := EncodeRecordJSON(entity.Record{CompanyName: entity.Str("A & B")})
	require.NoError(t, err)
	assert.Equal(t, `{
    "company_name": "A & B",
    "report_date": "N/A",
    "profit_before_tax": "N/A",
    "additional_details": {}
}`, string(b))
}

func TestXLSXSink_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.xlsx")

	require.NoError(t, NewXLSXSink(path, nil).Write(context.Background(), sampleSet()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(xlsxSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, xlsxHeaders, rows[0])
	assert.Equal(t, []string{"amara.pdf", "Amara Raja Energy & Mobility Limited", "N/A", "₹12.50 Crores", "{}", "fallback"}, rows[1])
	assert.Equal(t, []string{"acme.txt", "Acme <Holdings>", "2024-03-31", "N/A", `{"segment":"Batteries & Cells"}`, "semantic"}, rows[2])
}

type recordingSink struct {
	name  string
	order *[]string
	err   error
}

func (s recordingSink) Write(context.Context, *entity.ResultSet) error {
	*s.order = append(*s.order, s.name)
	return s.err
}

func TestMultiSink(t *testing.T) {
	var order []string
	boom := errors.New("boom")
	m := MultiSink{
		recordingSink{name: "a", order: &order},
		nil,
		recordingSink{name: "b", order: &order, err: boom},
		recordingSink{name: "c", order: &order},
	}

	err := m.Write(context.Background(), entity.NewResultSet())

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a", "b"}, order)
}
