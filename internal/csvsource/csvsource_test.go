package csvsource

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jekabolt/grbpwr-analytics/internal/entity"
)

func TestReadTable(t *testing.T) {
	in := "\ufefforder_id, net_amount,order_date\nO1, \"1,200.50\",2024-01-10\nO2,-5\n"
	tbl, err := ReadTable(strings.NewReader(in), entity.TableOrders)
	require.NoError(t, err)

	assert.Equal(t, entity.TableOrders, tbl.Name)
	assert.Equal(t, []string{"order_id", "net_amount", "order_date"}, tbl.Header)
	require.Len(t, tbl.Records, 2)
	assert.Equal(t, "1,200.50", tbl.Records[0][1])
	assert.Equal(t, []string{"O2", "-5"}, tbl.Records[1], "short rows are kept")
}

func TestReadTable_Empty(t *testing.T) {
	tbl, err := ReadTable(strings.NewReader(""), entity.TableReturns)
	require.NoError(t, err)
	assert.Empty(t, tbl.Header)
	assert.Empty(t, tbl.Records)
}

func TestReadTable_Malformed(t *testing.T) {
	_, err := ReadTable(strings.NewReader("a,b\n\"unterminated,1\n"), entity.TableOrders)
	assert.Error(t, err)
}

func TestWriteTableRoundTrip(t *testing.T) {
	src := &entity.RawTable{
		Name:    entity.TableCustomers,
		Header:  []string{"customer_id", "city"},
		Records: [][]string{{"C1", "Abu Dhabi"}, {"C2", "Ras, Al Khaimah"}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, src))

	got, err := ReadTable(&buf, entity.TableCustomers)
	require.NoError(t, err)
	assert.Equal(t, src, got)
}

func TestDir_Load(t *testing.T) {
	dir := t.TempDir()
	raw := &entity.RawTables{}
	for _, name := range entity.TableNames {
		raw.SetTable(name, &entity.RawTable{Name: name, Header: []string{"id"}, Records: [][]string{{name}}})
	}
	require.NoError(t, WriteDir(dir, raw))

	got, err := New(Config{Dir: dir}).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	require.NoError(t, os.Remove(filepath.Join(dir, FileName(entity.TableReturns))))
	got, err = New(Config{Dir: dir}).Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got.Returns, "missing file leaves the table nil")
	assert.NotNil(t, got.Orders)
}

func TestDir_LoadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(Config{Dir: t.TempDir()}).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDir_Name(t *testing.T) {
	assert.Equal(t, "csv:/data", New(Config{Dir: "/data"}).Name())
}
