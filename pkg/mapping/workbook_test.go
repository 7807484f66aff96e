package mapping

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var testHeaders = map[Category][]string{
	CategoryExpenses: {"编号", "交易类型", "交易对方", "商品", "值", "备注"},
	CategoryAssets:   {"编号", "支付方式", "值", "备注"},
}

func writeRows(t *testing.T, path, sheet string, rows [][]interface{}) {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	require.NoError(t, f.Save())
}

func TestInitAndLoadWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wechat_rule.xlsx")
	require.NoError(t, InitWorkbook(path, testHeaders, CategoryExpenses, CategoryAssets))

	tables, err := LoadWorkbook(path, WorkbookLayout{}, CategoryExpenses, CategoryAssets)
	require.NoError(t, err)
	assert.Equal(t, 0, tables[CategoryExpenses].Len())
	assert.Equal(t, 0, tables[CategoryAssets].Len())

	writeRows(t, path, "Expenses", [][]interface{}{
		{"E01", "餐饮", "老王", "面", "Expenses:Food:Noodle", ""},
		{"", "", "", "", "", ""},
		{"E02", "餐饮", "", "", "Expenses:Food", "catch-all"},
	})
	writeRows(t, path, "Assets", [][]interface{}{
		{"A01", "零钱", "Assets:WeChat", ""},
	})

	tables, err = LoadWorkbook(path, WorkbookLayout{}, CategoryExpenses, CategoryAssets)
	require.NoError(t, err)

	expenses := tables[CategoryExpenses]
	require.Equal(t, 2, expenses.Len())
	assert.Equal(t, "E01", expenses.Rows[0].ID)
	assert.Equal(t, "Expenses:Food:Noodle", expenses.Rows[0].Value)
	assert.Equal(t, "老王", expenses.Rows[0].Cell("交易对方"))
	assert.Equal(t, "E02", expenses.Rows[1].ID)
	assert.Equal(t, "", expenses.Rows[1].Cell("交易对方"))

	assets := tables[CategoryAssets]
	require.Equal(t, 1, assets.Len())
	assert.Equal(t, "Assets:WeChat", assets.Rows[0].Value)
}

func TestLoadWorkbookErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadWorkbook(filepath.Join(dir, "missing.xlsx"), WorkbookLayout{}, CategoryExpenses)
	assert.Error(t, err)

	onlyExpenses := filepath.Join(dir, "expenses.xlsx")
	require.NoError(t, InitWorkbook(onlyExpenses, testHeaders, CategoryExpenses))
	_, err = LoadWorkbook(onlyExpenses, WorkbookLayout{}, CategoryExpenses, CategoryAssets)
	assert.ErrorContains(t, err, "Assets")

	noValue := filepath.Join(dir, "novalue.xlsx")
	require.NoError(t, InitWorkbook(noValue, map[Category][]string{CategoryExpenses: {"编号", "交易类型"}}, CategoryExpenses))
	_, err = LoadWorkbook(noValue, WorkbookLayout{}, CategoryExpenses)
	assert.ErrorContains(t, err, "值")
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Expenses", CategoryExpenses.SheetName())
	assert.Equal(t, "Assets", CategoryAssets.SheetName())
	assert.Equal(t, "Income", Category("income").SheetName())
}
