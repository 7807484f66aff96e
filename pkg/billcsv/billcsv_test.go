package billcsv

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shunichi-ikebuchi/beancount-helper/pkg/pipeline"
)

const wechatBill = `微信支付账单明细
微信昵称：[someone]
起始时间：[2025-01-01 00:00:00] 终止时间：[2025-02-21 23:59:59]
----------------------微信支付账单明细列表--------------------
交易时间,交易类型,交易对方,商品,收/支,金额(元),支付方式,当前状态,交易单号,商户单号,备注
2025/01/05 12:30,商户消费,老王 ,面,支出,¥12.00,零钱,支付成功,42000001	,10001	,/
,,,,,,,,,,
2025/01/06 09:00,转账,小李,"/",收入,¥100.00,/,已存入零钱,42000002	,/,生日快乐
`

func TestReadSkipsPreamble(t *testing.T) {
	f, err := Read(strings.NewReader(wechatBill), Options{SkipRows: 4})
	require.NoError(t, err)

	assert.Equal(t, "交易时间", f.Header[0])
	require.Len(t, f.Records, 2)
	assert.Equal(t, "老王", f.Records[0]["交易对方"])
	assert.Equal(t, "¥12.00", f.Records[0]["金额(元)"])
	assert.Equal(t, "42000001", f.Records[0]["交易单号"])
	assert.Equal(t, "收入", f.Records[1]["收/支"])
	assert.Equal(t, "生日快乐", f.Records[1]["备注"])
}

func TestReadShortRowAndBOM(t *testing.T) {
	f, err := Read(strings.NewReader("\ufeffa,b,c\n1,2\n"), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, f.Header)
	require.Len(t, f.Records, 1)
	_, ok := f.Records[0]["c"]
	assert.False(t, ok)
}

func TestReadPreambleTooLong(t *testing.T) {
	_, err := Read(strings.NewReader("one\ntwo\n"), Options{SkipRows: 5})
	assert.Error(t, err)
}

func TestUnsupportedEncoding(t *testing.T) {
	_, err := Read(strings.NewReader("a\n"), Options{Encoding: "latin-9"})
	assert.Error(t, err)
}

func TestWriteReadRoundTripGB18030(t *testing.T) {
	header := WithColumns([]string{"交易对方", "金额"}, "debit", "金额", "credit")
	assert.Equal(t, []string{"交易对方", "金额", "debit", "credit"}, header)

	records := []pipeline.Record{
		{"交易对方": "老王", "金额": "¥12.00", "debit": "Expenses:Food", "credit": "Assets:WeChat"},
		{"交易对方": "超市", "金额": "3"},
	}

	path := filepath.Join(t.TempDir(), "mapped.csv")
	require.NoError(t, WriteFile(path, header, records, "gb18030"))

	got, err := ReadFile(path, Options{Encoding: "gb18030"})
	require.NoError(t, err)
	assert.Equal(t, header, got.Header)
	require.Len(t, got.Records, 2)
	assert.Equal(t, records[0], got.Records[0])
	assert.Equal(t, "", got.Records[1]["debit"])
}

func TestWriteEncodesGB18030(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []string{"值"}, nil, "gb18030"))
	// 值 is 0xD6 0xB5 in GB18030
	assert.Equal(t, []byte{0xD6, 0xB5, '\n'}, buf.Bytes())
}
