package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bryan-besnyi/next-doorcard-sub000/internal/model"
	"github.com/bryan-besnyi/next-doorcard-sub000/internal/repository"
)

// ── export module business errors ──

var (
	ErrExportNoDoorcards  = errors.New("no doorcards found for this term")
	ErrExportGenerateFail = errors.New("generating the Excel file failed")
)

// ExportService produces the admin roster export: every doorcard for a term
// as an .xlsx workbook. Returned as a bytes.Buffer; the handler sets the
// HTTP headers and streams it.
type ExportService interface {
	ExportTermRoster(ctx context.Context, termID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService creates an ExportService instance.
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportTermRoster
// ═══════════════════════════════════════════════════════════
//
// Layout: one row per doorcard, columns for faculty name, campus, office,
// title, status, and a compact weekly-hours summary. Rows sort by campus
// then faculty name.

func (s *exportService) ExportTermRoster(ctx context.Context, termID string) (*bytes.Buffer, string, error) {
	term, err := s.repo.Term.GetByID(ctx, termID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrTermNotFound
		}
		s.logger.Error("term lookup failed", zap.String("id", termID), zap.Error(err))
		return nil, "", err
	}

	cards, err := s.repo.Doorcard.ListByTerm(ctx, term.TermID, term.SeasonDisplay(), yearString(term.Year))
	if err != nil {
		s.logger.Error("listing doorcards failed", zap.String("term_id", termID), zap.Error(err))
		return nil, "", err
	}
	if len(cards) == 0 {
		return nil, "", ErrExportNoDoorcards
	}

	sort.Slice(cards, func(i, j int) bool {
		if cards[i].College != cards[j].College {
			return cards[i].College < cards[j].College
		}
		return cards[i].Name < cards[j].Name
	})

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Doorcards"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 24)
	f.SetColWidth(sheetName, "B", "B", 22)
	f.SetColWidth(sheetName, "C", "C", 12)
	f.SetColWidth(sheetName, "D", "D", 28)
	f.SetColWidth(sheetName, "E", "E", 12)
	f.SetColWidth(sheetName, "F", "F", 48)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	title := fmt.Sprintf("%s %d — Doorcard Roster", term.SeasonDisplay(), term.Year)
	f.SetCellValue(sheetName, "A1", title)
	f.MergeCell(sheetName, "A1", "F1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	headers := []string{"Faculty", "Campus", "Office", "Doorcard", "Status", "Weekly Hours"}
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetCellValue(sheetName, cell(col, 2), h)
	}

	row := 3
	for i := range cards {
		card := &cards[i]
		status := "Draft"
		if card.IsActive && card.IsPublic {
			status = "Published"
		} else if card.IsActive {
			status = "Active"
		}

		f.SetCellValue(sheetName, cell("A", row), card.Name)
		f.SetCellValue(sheetName, cell("B", row), model.CollegeNames[card.College])
		f.SetCellValue(sheetName, cell("C", row), card.OfficeNumber)
		f.SetCellValue(sheetName, cell("D", row), card.DoorcardName)
		f.SetCellValue(sheetName, cell("E", row), status)
		f.SetCellValue(sheetName, cell("F", row), summarizeSchedule(card.Appointments))
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("writing Excel buffer failed", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("doorcards_%s_%d.xlsx", term.SeasonDisplay(), term.Year)
	return buf, filename, nil
}

// ── internal helpers ──

var dayAbbrev = map[string]string{
	model.DayMonday:    "Mon",
	model.DayTuesday:   "Tue",
	model.DayWednesday: "Wed",
	model.DayThursday:  "Thu",
	model.DayFriday:    "Fri",
	model.DaySaturday:  "Sat",
	model.DaySunday:    "Sun",
}

// summarizeSchedule flattens appointments into "Mon 10:00-11:00; Wed 14:00-15:00".
func summarizeSchedule(appts []model.Appointment) string {
	sorted := make([]model.Appointment, len(appts))
	copy(sorted, appts)
	sort.Slice(sorted, func(i, j int) bool {
		di, dj := model.WeekdayNumber[sorted[i].DayOfWeek], model.WeekdayNumber[sorted[j].DayOfWeek]
		if di != dj {
			return di < dj
		}
		return sorted[i].StartTime < sorted[j].StartTime
	})

	out := ""
	for i := range sorted {
		if i > 0 {
			out += "; "
		}
		out += fmt.Sprintf("%s %s-%s", dayAbbrev[sorted[i].DayOfWeek], sorted[i].StartTime, sorted[i].EndTime)
	}
	return out
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
