// Package export строит табличную выгрузку шаблонов в Excel.
package export

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/xuri/excelize/v2"
)

const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Колонки, которые всегда идут первыми, если есть в данных.
var leadingColumns = []string{"id", "slug", "name", "title", "active", "status"}

type Service struct {
	now func() time.Time
}

func NewService() *Service {
	return &Service{now: time.Now}
}

// FileName — имя файла выгрузки сущности.
func (s *Service) FileName(entity string) string {
	return fmt.Sprintf("%s-%s.xlsx", entity, s.now().Format("2006-01-02"))
}

// XLSX превращает плоские строки шаблонов в лист Excel. Вложенные
// объекты и массивы пишутся в ячейку как JSON.
func (s *Service) XLSX(sheet string, rows []map[string]any) ([]byte, error) {
	const op = "service.export.XLSX"

	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = "Templates"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// --- СТИЛИ ---
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 2}},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	headers := Columns(rows)

	// ШАПКА
	for i, name := range headers {
		if err := f.SetCellValue(sheet, cellName(i+1, 1), name); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	if len(headers) > 0 {
		if err := f.SetCellStyle(sheet, "A1", cellName(len(headers), 1), headerStyle); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	// ДАННЫЕ
	for rowIdx, row := range rows {
		for colIdx, key := range headers {
			v, ok := row[key]
			if !ok || v == nil {
				continue
			}
			if err := f.SetCellValue(sheet, cellName(colIdx+1, rowIdx+2), cellValue(v)); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
		}
	}

	// Закрепляем первую строку
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(headers) > 0 {
		last, _ := excelize.ColumnNumberToName(len(headers))
		_ = f.SetColWidth(sheet, "A", last, 18)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return buf.Bytes(), nil
}

// Columns — объединение ключей всех строк: сначала основные, остальные по алфавиту.
func Columns(rows []map[string]any) []string {
	seen := make(map[string]struct{})
	for _, row := range rows {
		for k := range row {
			seen[k] = struct{}{}
		}
	}

	cols := make([]string, 0, len(seen))
	for _, k := range leadingColumns {
		if _, ok := seen[k]; ok {
			cols = append(cols, k)
			delete(seen, k)
		}
	}

	rest := make([]string, 0, len(seen))
	for k := range seen {
		rest = append(rest, k)
	}
	slices.Sort(rest)
	return append(cols, rest...)
}

func cellValue(v any) any {
	switch v.(type) {
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	default:
		return v
	}
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
