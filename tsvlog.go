package main

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TSVColumn 日誌檔中的一欄，Format 為 fmt 格式動詞 (例如 "%6.2f")
type TSVColumn struct {
	Name   string
	Format string
}

// TSVWriter 以 Tab 分隔的欄位式日誌寫入器。
// 前兩欄固定為日期與時間，其餘欄位依加入順序輸出。
// 跨日時會將前一天的檔案以 gzip 封存後開新檔。
type TSVWriter struct {
	path string
	file *os.File

	columns []TSVColumn
	index   map[string]int
	row     []string

	lineCount int
}

// NewTSVWriter 建立日誌寫入器，需呼叫 CreateOrUpdate 後才能寫入
func NewTSVWriter(path string) *TSVWriter {
	return &TSVWriter{
		path:  path,
		index: make(map[string]int),
	}
}

// AddColumn 加入一欄，必須在 CreateOrUpdate 之前完成
func (w *TSVWriter) AddColumn(name, format string) {
	w.index[name] = len(w.columns)
	w.columns = append(w.columns, TSVColumn{Name: name, Format: format})
}

// CreateOrUpdate 開啟日誌檔。
// 既有檔案的首筆資料若是今天的日期則附加；否則將舊檔以
// Log_<日期>_<時間>.gz 封存並開新檔。回傳是否建立了新檔。
func (w *TSVWriter) CreateOrUpdate() (created bool, err error) {
	logDate, logTime, ok := fileStartDateTime(w.path)
	if !ok {
		return true, w.createNew()
	}

	today := time.Now().Format("2006-01-02")
	if logDate == today {
		w.file, err = os.OpenFile(w.path, os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return false, fmt.Errorf("附加日誌檔失敗: %w", err)
		}
		return false, nil
	}

	if err := w.archive(logDate, logTime); err != nil {
		return false, err
	}
	return true, w.createNew()
}

// createNew 建立新檔並寫入標題列
func (w *TSVWriter) createNew() error {
	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("建立日誌檔失敗: %w", err)
	}
	w.file = f
	w.lineCount = 0

	header := make([]string, 0, len(w.columns)+2)
	header = append(header, "Date", "Time")
	for _, c := range w.columns {
		header = append(header, c.Name)
	}
	_, err = fmt.Fprintln(f, strings.Join(header, "\t"))
	return err
}

// archive 將舊日誌檔壓縮封存
func (w *TSVWriter) archive(logDate, logTime string) error {
	gzName := fmt.Sprintf("Log_%s_%s.gz", logDate, strings.ReplaceAll(logTime, ":", "-"))
	gzPath := filepath.Join(filepath.Dir(w.path), gzName)

	src, err := os.Open(w.path)
	if err != nil {
		return fmt.Errorf("開啟舊日誌檔失敗: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(gzPath)
	if err != nil {
		return fmt.Errorf("建立封存檔失敗: %w", err)
	}
	defer dst.Close()

	gz := gzip.NewWriter(dst)
	if _, err := io.Copy(gz, src); err != nil {
		return fmt.Errorf("壓縮日誌檔失敗: %w", err)
	}
	return gz.Close()
}

// SetValue 設定指定欄位在當前列的值
func (w *TSVWriter) SetValue(name string, value any) error {
	idx, ok := w.index[name]
	if !ok {
		return fmt.Errorf("未定義的欄位: %s", name)
	}

	if w.row == nil {
		w.row = make([]string, len(w.columns))
	}

	format := w.columns[idx].Format
	if format == "" {
		format = "%v"
	}
	w.row[idx] = fmt.Sprintf(format, value)
	return nil
}

// WriteRow 以指定時間戳寫出當前列並清空
func (w *TSVWriter) WriteRow(ts time.Time) error {
	if w.file == nil {
		return fmt.Errorf("日誌檔尚未開啟")
	}
	if w.row == nil {
		w.row = make([]string, len(w.columns))
	}

	fields := make([]string, 0, len(w.row)+2)
	fields = append(fields, ts.Format("2006-01-02"), ts.Format("15:04:05"))
	fields = append(fields, w.row...)

	if _, err := fmt.Fprintln(w.file, strings.Join(fields, "\t")); err != nil {
		return fmt.Errorf("寫入日誌列失敗: %w", err)
	}

	w.row = nil
	w.lineCount++
	return nil
}

// LineCount 回傳已寫出的資料列數
func (w *TSVWriter) LineCount() int {
	return w.lineCount
}

// Close 關閉日誌檔，可重複呼叫
func (w *TSVWriter) Close() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// fileStartDateTime 讀取日誌檔首筆資料列的日期與時間
func fileStartDateTime(path string) (date, clock string, ok bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() { // 略過標題列
		return "", "", false
	}
	if !scanner.Scan() {
		return "", "", false
	}

	fields := strings.Fields(scanner.Text())
	if len(fields) < 2 {
		return "", "", false
	}
	return fields[0], fields[1], true
}
