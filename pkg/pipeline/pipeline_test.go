package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountStage(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    string
		wantErr bool
	}{
		{"yuan symbol and suffix", "¥128.50元", "128.50", false},
		{"plain integer", "42", "42", false},
		{"thousands separator", "1,234.5", "1234.5", false},
		{"sign is stripped", "-3.00", "3.00", false},
		{"empty", "", "", true},
		{"letters only", "free", "", true},
		{"two points", "1.2.3", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := AmountStage{Source: "金额"}.Apply(Record{"金额": tt.value})
			if tt.wantErr {
				var fpe *FieldParseError
				require.ErrorAs(t, err, &fpe)
				assert.Equal(t, "金额", fpe.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out[KeyAmount])
		})
	}
}

func TestAmountStageMissingField(t *testing.T) {
	_, err := AmountStage{Source: "金额"}.Apply(Record{})
	var fpe *FieldParseError
	require.ErrorAs(t, err, &fpe)
	assert.True(t, errors.Is(err, errMissingField))
}

func TestDateStage(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		value   string
		want    string
		wantErr bool
	}{
		{"wechat", "%Y/%m/%d %H:%M", "2025/01/05 12:30", "2025-01-05", false},
		{"alipay", "%Y-%m-%d %H:%M:%S", "2025-02-21 08:01:02", "2025-02-21", false},
		{"surrounding spaces", "%Y-%m-%d %H:%M:%S", " 2025-02-21 08:01:02 ", "2025-02-21", false},
		{"unpadded month and day", "%Y/%m/%d %H:%M", "2025/1/5 9:30", "2025-01-05", false},
		{"unpadded time", "%Y-%m-%d %H:%M:%S", "2025-12-31 9:5:7", "2025-12-31", false},
		{"compact", "%Y%m%d", "20250105", "2025-01-05", false},
		{"go layout", "2006.01.02", "2024.12.31", "2024-12-31", false},
		{"mismatch", "%Y/%m/%d %H:%M", "2025-01-05", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout, err := ParseLayout(tt.format)
			require.NoError(t, err)

			out, err := DateStage{Source: "交易时间", Layout: layout}.Apply(Record{"交易时间": tt.value})
			if tt.wantErr {
				var fpe *FieldParseError
				require.ErrorAs(t, err, &fpe)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out[KeyDate])
		})
	}
}

func TestParseLayout(t *testing.T) {
	layout, err := ParseLayout("%Y/%m/%d %H:%M:%S")
	require.NoError(t, err)
	assert.Equal(t, "2006/1/2 15:4:5", layout)
}

func TestParseLayoutErrors(t *testing.T) {
	_, err := ParseLayout("%Y-%m-%")
	assert.Error(t, err)

	_, err = ParseLayout("%Y-%Q")
	assert.Error(t, err)
}

func TestRemarkStage(t *testing.T) {
	tests := []struct {
		name   string
		stage  RemarkStage
		record Record
		want   string
	}{
		{
			name:   "sentinel skipped and tag appended",
			stage:  RemarkStage{Sources: []string{"交易对方", "备注"}, Tag: "wechat"},
			record: Record{"交易对方": "/", "备注": "备注内容"},
			want:   "备注内容 | wechat",
		},
		{
			name:   "prior remark first",
			stage:  RemarkStage{Sources: []string{"备注"}, KeepPrior: true, Tag: "alipay"},
			record: Record{"remark": " 旧 ", "备注": "新"},
			want:   "旧 | 新 | alipay",
		},
		{
			name:   "prior ignored without KeepPrior",
			stage:  RemarkStage{Sources: []string{"备注"}},
			record: Record{"remark": "旧", "备注": "新"},
			want:   "新",
		},
		{
			name:   "custom separator",
			stage:  RemarkStage{Sources: []string{"a", "b"}, Separator: " "},
			record: Record{"a": "x", "b": "y"},
			want:   "x y",
		},
		{
			name:   "nothing usable",
			stage:  RemarkStage{Sources: []string{"a", "missing"}},
			record: Record{"a": "/"},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.stage.Apply(tt.record)
			require.NoError(t, err)
			v, ok := out[KeyRemark]
			assert.True(t, ok)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestPipelineRun(t *testing.T) {
	p, err := NewBillPipeline(BillSpec{
		DateColumn:        "交易时间",
		DateFormat:        "%Y/%m/%d %H:%M",
		AmountColumn:      "金额(元)",
		RemarkColumns:     []string{"交易对方", "备注"},
		DescriptionColumn: "交易对方",
		Tag:               "wechat",
	})
	require.NoError(t, err)

	raw := Record{
		"交易时间":  "2025/01/05 12:30",
		"金额(元)": "¥12.00",
		"交易对方":  "老王",
		"备注":    "/",
	}
	out, err := p.Run(raw)
	require.NoError(t, err)

	assert.Equal(t, "2025-01-05", out[KeyDate])
	assert.Equal(t, "12.00", out[KeyAmount])
	assert.Equal(t, "老王 | wechat", out[KeyRemark])
	assert.Equal(t, "*", out[KeyStatus])
	assert.Equal(t, "老王", out[KeyDescription])
	assert.Equal(t, "CNY", out[KeyCurrency])

	// raw input untouched
	_, ok := raw[KeyDate]
	assert.False(t, ok)

	// restartable: a second run gives the same result
	again, err := p.Run(raw)
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestPipelineRunStopsAtFirstError(t *testing.T) {
	p := New(
		AmountStage{Source: "amt"},
		StatusStage{Value: "!"},
	)
	_, err := p.Run(Record{"amt": "n/a"})
	var fpe *FieldParseError
	require.ErrorAs(t, err, &fpe)
	assert.Contains(t, err.Error(), "stage amount")
	assert.Len(t, p.Stages(), 2)
}
