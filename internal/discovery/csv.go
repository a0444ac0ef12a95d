package discovery

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/acme/coldcall-agent/internal/domain"
	apperrors "github.com/acme/coldcall-agent/pkg/errors"
)

type column int

const (
	colIgnored column = iota
	colName
	colPhone
	colAddress
	colCity
	colState
	colZip
	colIndustry
	colType
	colWebsite
	colEmail
)

var headerAliases = map[string]column{
	"name":          colName,
	"business name": colName,
	"company":       colName,
	"phone":         colPhone,
	"phone number":  colPhone,
	"telephone":     colPhone,
	"address":       colAddress,
	"street":        colAddress,
	"city":          colCity,
	"state":         colState,
	"zip":           colZip,
	"zipcode":       colZip,
	"postal code":   colZip,
	"industry":      colIndustry,
	"category":      colIndustry,
	"type":          colType,
	"business type": colType,
	"website":       colWebsite,
	"url":           colWebsite,
	"email":         colEmail,
}

// RowError describes one skipped CSV row.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ImportReport summarises a CSV import.
type ImportReport struct {
	Rows     int        `json:"rows"`
	Imported int        `json:"imported"`
	Skipped  int        `json:"skipped"`
	Errors   []RowError `json:"errors,omitempty"`
}

func (r *ImportReport) skip(line int, reason string) {
	r.Skipped++
	r.Errors = append(r.Errors, RowError{Line: line, Reason: reason})
}

// ImportCSV parses a header-led CSV of businesses. Rows without a name or a valid phone are skipped
// and reported; phones in accepted rows are normalized.
func ImportCSV(ctx context.Context, r io.Reader) ([]domain.LocalBusiness, ImportReport, error) {
	var report ImportReport

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, report, fmt.Errorf("%w: csv is empty", apperrors.ErrValidation)
	}
	if err != nil {
		return nil, report, fmt.Errorf("%w: read csv header: %v", apperrors.ErrValidation, err)
	}

	columns := make([]column, len(header))
	var hasName, hasPhone bool
	for i, h := range header {
		c := headerAliases[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))]
		columns[i] = c
		hasName = hasName || c == colName
		hasPhone = hasPhone || c == colPhone
	}
	if !hasName || !hasPhone {
		return nil, report, fmt.Errorf("%w: csv header needs name and phone columns", apperrors.ErrValidation)
	}

	var businesses []domain.LocalBusiness
	for {
		if err := ctx.Err(); err != nil {
			return nil, report, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return nil, report, fmt.Errorf("read csv: %w", err)
			}
			report.Rows++
			report.skip(perr.Line, "malformed row")
			continue
		}
		if blankRecord(record) {
			continue
		}
		report.Rows++
		line, _ := reader.FieldPos(0)

		b := businessFromRecord(columns, record)
		switch {
		case b.Name == "":
			report.skip(line, "missing name")
		case !ValidatePhoneNumber(b.Phone):
			report.skip(line, "invalid phone")
		default:
			b.Phone = FormatPhoneNumber(b.Phone)
			businesses = append(businesses, b)
			report.Imported++
		}
	}
	return businesses, report, nil
}

func businessFromRecord(columns []column, record []string) domain.LocalBusiness {
	var b domain.LocalBusiness
	for i, raw := range record {
		if i >= len(columns) {
			break
		}
		v := strings.TrimSpace(raw)
		if v == "" {
			continue
		}
		switch columns[i] {
		case colName:
			b.Name = v
		case colPhone:
			b.Phone = v
		case colAddress:
			b.Address = v
		case colCity:
			b.City = v
		case colState:
			b.State = v
		case colZip:
			b.ZipCode = v
		case colIndustry:
			b.Industry = v
		case colType:
			b.BusinessType = v
		case colWebsite:
			b.Website = v
		case colEmail:
			b.Email = v
		}
	}
	return b
}

func blankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
