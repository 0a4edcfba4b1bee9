package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/seat-desk-api/internal/models"
	"github.com/noah-isme/seat-desk-api/internal/repository"
	appErrors "github.com/noah-isme/seat-desk-api/pkg/errors"
	"github.com/noah-isme/seat-desk-api/pkg/export"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	RenderTable(data export.Dataset, title string) ([]byte, error)
	RenderReceipt(r export.Receipt) ([]byte, error)
}

type transactionReader interface {
	List(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error)
	Get(ctx context.Context, id string) (*models.Transaction, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	DeskName string
}

// ExportService renders roster and ledger downloads.
type ExportService struct {
	roster       repository.Roster
	transactions transactionReader
	csv          csvRenderer
	pdf          pdfRenderer
	logger       *zap.Logger
	cfg          ExportConfig
}

// NewExportService constructs an ExportService. Nil renderers use the pkg/export defaults.
func NewExportService(roster repository.Roster, transactions transactionReader, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DeskName == "" {
		cfg.DeskName = "Seat Desk"
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{roster: roster, transactions: transactions, csv: csv, pdf: pdf, logger: logger, cfg: cfg}
}

func (s *ExportService) studentDataset(ctx context.Context, filter models.StudentFilter) (export.Dataset, error) {
	filter.Page, filter.PageSize = 0, 0
	students, _, err := s.roster.List(ctx, filter)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	data := export.Dataset{Headers: []string{"Seat", "Name", "Mobile", "Plan", "Slots", "Locker", "Start", "End", "Amount", "Payment", "Active"}}
	for _, student := range students {
		data.AddRow(
			strconv.Itoa(student.SeatNumber),
			student.FullName,
			student.Mobile,
			string(student.PlanType),
			strings.Join(student.AssignedSlots.Strings(), " "),
			yesNo(student.LockerRequired),
			student.StartDate.String(),
			student.EndDate.String(),
			strconv.FormatInt(student.AmountPaid, 10),
			string(student.PaymentMode),
			yesNo(student.IsActive),
		)
	}
	return data, nil
}

// StudentsCSV renders the roster as CSV.
func (s *ExportService) StudentsCSV(ctx context.Context, filter models.StudentFilter) ([]byte, error) {
	data, err := s.studentDataset(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.render(s.csv.Render(data))
}

// StudentsPDF renders the roster as a printable table.
func (s *ExportService) StudentsPDF(ctx context.Context, filter models.StudentFilter) ([]byte, error) {
	data, err := s.studentDataset(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.render(s.pdf.RenderTable(data, s.cfg.DeskName+" roster"))
}

// TransactionsCSV renders the ledger as CSV, newest first.
func (s *ExportService) TransactionsCSV(ctx context.Context, filter models.TransactionFilter) ([]byte, error) {
	txns, err := s.transactions.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := export.Dataset{Headers: []string{"ID", "Date", "Student", "Seat", "Type", "Plan", "Duration", "Amount", "Payment"}}
	for _, txn := range txns {
		data.AddRow(
			txn.ID,
			txn.Date.String(),
			txn.StudentName,
			strconv.Itoa(txn.SeatNumber),
			string(txn.Type),
			string(txn.PlanType),
			txn.Duration.String(),
			strconv.FormatInt(txn.Amount, 10),
			string(txn.PaymentMode),
		)
	}
	return s.render(s.csv.Render(data))
}

// Receipt renders a payment slip for one ledger entry.
func (s *ExportService) Receipt(ctx context.Context, id string) ([]byte, error) {
	txn, err := s.transactions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	receipt := export.Receipt{
		Title:    s.cfg.DeskName,
		Number:   receiptNumber(txn.ID),
		IssuedOn: txn.Date.String(),
		Lines: [][2]string{
			{"Member", txn.StudentName},
			{"Seat", strconv.Itoa(txn.SeatNumber)},
			{"Type", string(txn.Type)},
			{"Plan", fmt.Sprintf("%s / %s", txn.PlanType, txn.Duration)},
			{"Payment", string(txn.PaymentMode)},
		},
		Total:  fmt.Sprintf("Rs. %d", txn.Amount),
		Footer: "This receipt was generated electronically and needs no signature.",
	}
	return s.render(s.pdf.RenderReceipt(receipt))
}

func (s *ExportService) render(out []byte, err error) ([]byte, error) {
	if err != nil {
		s.logger.Error("failed to render export", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return out, nil
}

func receiptNumber(id string) string {
	clean := strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	if len(clean) > 10 {
		clean = clean[:10]
	}
	return clean
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
