package main

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTSVWriter(t *testing.T) (*TSVWriter, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "Log.tsv")

	w := NewTSVWriter(path)
	w.AddColumn("GridW", "%.0f")
	w.AddColumn("BattSOC", "%.1f")
	return w, path
}

func TestTSVWriter_CreateAndWrite(t *testing.T) {
	w, path := newTestTSVWriter(t)

	created, err := w.CreateOrUpdate()
	require.NoError(t, err)
	assert.True(t, created, "不存在的檔案應建立新檔")

	require.NoError(t, w.SetValue("GridW", 350.0))
	require.NoError(t, w.SetValue("BattSOC", 87.2))

	ts := time.Date(2026, 8, 30, 12, 34, 56, 0, time.Local)
	require.NoError(t, w.WriteRow(ts))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Date\tTime\tGridW\tBattSOC", lines[0])
	assert.Equal(t, "2026-08-30\t12:34:56\t350\t87.2", lines[1])
	assert.Equal(t, 1, w.LineCount())
}

func TestTSVWriter_UnknownColumn(t *testing.T) {
	w, _ := newTestTSVWriter(t)

	err := w.SetValue("NoSuchColumn", 1.0)
	assert.Error(t, err)
}

func TestTSVWriter_MissingValuesLeftEmpty(t *testing.T) {
	w, path := newTestTSVWriter(t)

	_, err := w.CreateOrUpdate()
	require.NoError(t, err)

	// 只設定其中一欄
	require.NoError(t, w.SetValue("GridW", 100.0))
	require.NoError(t, w.WriteRow(time.Now()))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	fields := strings.Split(lines[1], "\t")
	require.Len(t, fields, 4)
	assert.Equal(t, "100", fields[2])
	assert.Equal(t, "", fields[3], "未設定的欄位輸出空字串")
}

func TestTSVWriter_AppendSameDay(t *testing.T) {
	w, path := newTestTSVWriter(t)

	_, err := w.CreateOrUpdate()
	require.NoError(t, err)
	require.NoError(t, w.SetValue("GridW", 1.0))
	require.NoError(t, w.WriteRow(time.Now()))
	require.NoError(t, w.Close())

	// 重新開啟: 首筆資料是今天，應附加而非覆蓋
	w2 := NewTSVWriter(path)
	w2.AddColumn("GridW", "%.0f")
	w2.AddColumn("BattSOC", "%.1f")

	created, err := w2.CreateOrUpdate()
	require.NoError(t, err)
	assert.False(t, created)

	require.NoError(t, w2.SetValue("GridW", 2.0))
	require.NoError(t, w2.WriteRow(time.Now()))
	require.NoError(t, w2.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 3, "標題列加兩筆資料")
}

func TestTSVWriter_ArchivesStaleFile(t *testing.T) {
	w, path := newTestTSVWriter(t)

	// 模擬昨天留下的日誌檔
	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	stale := "Date\tTime\tGridW\tBattSOC\n" + yesterday + "\t23:59:58\t100\t90.0\n"
	require.NoError(t, os.WriteFile(path, []byte(stale), 0644))

	created, err := w.CreateOrUpdate()
	require.NoError(t, err)
	assert.True(t, created, "跨日後應封存舊檔並建立新檔")
	require.NoError(t, w.Close())

	// 封存檔存在且內容完整
	gzPath := filepath.Join(filepath.Dir(path), "Log_"+yesterday+"_23-59-58.gz")
	f, err := os.Open(gzPath)
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	archived, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Equal(t, stale, string(archived))

	// 新檔只剩標題列
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 1)
}

func TestTSVWriter_CloseIdempotent(t *testing.T) {
	w, _ := newTestTSVWriter(t)

	_, err := w.CreateOrUpdate()
	require.NoError(t, err)

	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}
