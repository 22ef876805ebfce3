// Package export writes normalized conference data to XLSX workbooks.
package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/gatherly/companion/internal/model"
)

// Workbook collects the entity sheets to write. Nil slices are skipped
// so a workbook can hold any subset of entities.
type Workbook struct {
	Attendees []model.Attendee
	Agenda    []model.AgendaItem
	Dining    []model.DiningOption
	Sponsors  []model.Sponsor
}

// Write saves the workbook to path. At least one sheet must be
// non-empty.
func Write(path string, wb Workbook) error {
	f := xlsx.NewFile()
	sheets := 0

	if len(wb.Attendees) > 0 {
		if err := addAttendeeSheet(f, wb.Attendees); err != nil {
			return err
		}
		sheets++
	}
	if len(wb.Agenda) > 0 {
		if err := addAgendaSheet(f, wb.Agenda); err != nil {
			return err
		}
		sheets++
	}
	if len(wb.Dining) > 0 {
		if err := addDiningSheet(f, wb.Dining); err != nil {
			return err
		}
		sheets++
	}
	if len(wb.Sponsors) > 0 {
		if err := addSponsorSheet(f, wb.Sponsors); err != nil {
			return err
		}
		sheets++
	}

	if sheets == 0 {
		return eris.New("export: nothing to write")
	}
	return eris.Wrap(f.Save(path), "export: save workbook")
}

func addHeader(sheet *xlsx.Sheet, columns []string) {
	row := sheet.AddRow()
	for _, col := range columns {
		row.AddCell().SetString(col)
	}
}

func addAttendeeSheet(f *xlsx.File, attendees []model.Attendee) error {
	sheet, err := f.AddSheet("Attendees")
	if err != nil {
		return eris.Wrap(err, "export: add attendees sheet")
	}
	addHeader(sheet, []string{"ID", "First Name", "Last Name", "Email", "Title", "Company"})

	for _, a := range attendees {
		row := sheet.AddRow()
		row.AddCell().SetString(a.ID)
		row.AddCell().SetString(a.FirstName)
		row.AddCell().SetString(a.LastName)
		row.AddCell().SetString(a.Email)
		row.AddCell().SetString(a.Title)
		row.AddCell().SetString(a.Company)
	}
	return nil
}

func addAgendaSheet(f *xlsx.File, items []model.AgendaItem) error {
	sheet, err := f.AddSheet("Agenda")
	if err != nil {
		return eris.Wrap(err, "export: add agenda sheet")
	}
	addHeader(sheet, []string{"ID", "Title", "Date", "Start", "End", "Location", "Speaker", "Type", "Capacity", "Mandatory"})

	for _, it := range items {
		row := sheet.AddRow()
		row.AddCell().SetString(it.ID)
		row.AddCell().SetString(it.Title)
		row.AddCell().SetString(it.Date)
		row.AddCell().SetString(it.StartTime)
		row.AddCell().SetString(it.EndTime)
		row.AddCell().SetString(it.Location)
		row.AddCell().SetString(it.SpeakerInfo)
		row.AddCell().SetString(it.SessionType)
		row.AddCell().SetFloat(it.Capacity)
		row.AddCell().SetBool(it.IsMandatory)
	}
	return nil
}

func addDiningSheet(f *xlsx.File, options []model.DiningOption) error {
	sheet, err := f.AddSheet("Dining")
	if err != nil {
		return eris.Wrap(err, "export: add dining sheet")
	}
	addHeader(sheet, []string{"ID", "Name", "Type", "Date", "Time", "Location", "Price", "Capacity", "Seating"})

	for _, d := range options {
		row := sheet.AddRow()
		row.AddCell().SetString(d.ID)
		row.AddCell().SetString(d.Name)
		row.AddCell().SetString(d.Type)
		row.AddCell().SetString(d.Date)
		row.AddCell().SetString(d.Time)
		row.AddCell().SetString(d.Location)
		row.AddCell().SetFloat(d.Price)
		row.AddCell().SetFloat(d.Capacity)
		row.AddCell().SetString(d.SeatingType)
	}
	return nil
}

func addSponsorSheet(f *xlsx.File, sponsors []model.Sponsor) error {
	sheet, err := f.AddSheet("Sponsors")
	if err != nil {
		return eris.Wrap(err, "export: add sponsors sheet")
	}
	addHeader(sheet, []string{"ID", "Name", "Tier", "Website", "Display Order", "Active"})

	for _, s := range sponsors {
		row := sheet.AddRow()
		row.AddCell().SetString(s.ID)
		row.AddCell().SetString(s.Name)
		row.AddCell().SetString(s.Tier)
		row.AddCell().SetString(s.WebsiteURL)
		row.AddCell().SetFloat(s.DisplayOrder)
		row.AddCell().SetBool(s.IsActive)
	}
	return nil
}
