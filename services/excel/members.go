// Package excelsvc imports and exports member records as .xlsx workbooks.
package excelsvc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/kanisahq/kanisa/core"
	"github.com/kanisahq/kanisa/core/member"
)

const (
	membersSheet = "Members"
	dateLayout   = "2006-01-02"
)

var memberHeaders = []string{
	"First Name", "Last Name", "Gender", "Email", "Phone", "Address",
	"Birth Date", "Marital Status", "Status", "Joined At", "Occupation", "Notes",
}

// ExportMembers writes the given members to a new workbook.
func ExportMembers(members []member.Member) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	f.SetSheetName(f.GetSheetName(0), membersSheet)

	for i, h := range memberHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, errors.Wrap(err, "naming header cell")
		}
		if err = f.SetCellValue(membersSheet, cell, h); err != nil {
			return nil, errors.Wrap(err, "writing header cell")
		}
	}

	for i, m := range members {
		values := []interface{}{
			m.FirstName, m.LastName, m.Gender, m.Email, m.Phone, m.Address,
			formatDate(m.BirthDate), m.MaritalStatus, m.Status, formatDate(m.JoinedAt),
			m.Occupation, m.Notes,
		}
		for j, val := range values {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return nil, errors.Wrap(err, "naming cell")
			}
			if err = f.SetCellValue(membersSheet, cell, val); err != nil {
				return nil, errors.Wrap(err, "writing cell")
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "writing workbook")
	}
	return buf, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

type (
	// RowError reports why a workbook row was not imported.
	RowError struct {
		Row     int    `json:"row"` // 1-based, header included
		Message string `json:"message"`
	}

	// ImportResult sums up a partial import: valid rows are created,
	// invalid ones are reported per row.
	ImportResult struct {
		Imported int        `json:"imported"`
		Skipped  int        `json:"skipped"`
		Errors   []RowError `json:"errors"`
	}
)

// ImportMembers reads the first sheet of an .xlsx workbook and creates a member
// per data row. Rows that fail validation are skipped and reported; valid rows
// are still imported.
func ImportMembers(ctx context.Context, svc member.ServiceInterface, validate *validator.Validate, orgID string, r io.Reader) (ImportResult, error) {
	res := ImportResult{Errors: make([]RowError, 0)}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return res, errors.Wrap(err, "opening workbook")
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return res, errors.Wrap(err, "reading rows")
	}
	if len(rows) <= 1 {
		return res, nil
	}

	for i, row := range rows[1:] { // skip header
		rowNum := i + 2
		if isEmptyRow(row) {
			continue
		}
		nm, err := parseMemberRow(row)
		if err == nil {
			err = nm.Validate(validate)
		}
		if err == nil {
			_, err = svc.Create(ctx, orgID, nm)
		}
		if err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, RowError{Row: rowNum, Message: rowErrMessage(err)})
			continue
		}
		res.Imported++
	}
	return res, nil
}

func parseMemberRow(row []string) (member.NewMember, error) {
	col := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	nm := member.NewMember{
		FirstName:     col(0),
		LastName:      col(1),
		Gender:        strings.ToLower(col(2)),
		Email:         col(3),
		Phone:         col(4),
		Address:       col(5),
		MaritalStatus: strings.ToLower(col(7)),
		Status:        strings.ToLower(col(8)),
		Occupation:    col(10),
		Notes:         col(11),
	}

	var err error
	if nm.BirthDate, err = parseDate(col(6)); err != nil {
		return nm, errors.New("invalid birth date, want YYYY-MM-DD")
	}
	if nm.JoinedAt, err = parseDate(col(9)); err != nil {
		return nm, errors.New("invalid joined date, want YYYY-MM-DD")
	}
	return nm, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, s)
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func rowErrMessage(err error) string {
	switch vErr := errors.Cause(err).(type) {
	case *core.ValidationError:
		parts := make([]string, 0, len(vErr.Fields))
		for _, f := range vErr.Fields {
			parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Error))
		}
		return strings.Join(parts, "; ")
	case validator.ValidationErrors:
		parts := make([]string, 0, len(vErr))
		for _, f := range vErr {
			parts = append(parts, fmt.Sprintf("%s is invalid (%s)", f.Field(), f.Tag()))
		}
		return strings.Join(parts, "; ")
	}
	return err.Error()
}
