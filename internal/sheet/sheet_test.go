package sheet

import (
	"errors"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestParse_CSV(t *testing.T) {
	t.Parallel()

	data := []byte("Team,Name,Email,Name,Email\n" +
		"Team Alpha,John Doe,john@x.com,Jane Roe,jane@x.com\n" +
		",,,\n" +
		"  Beta , Solo ,solo@x.com,,\n")

	got, err := Parse("teams.CSV", data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := [][]string{
		{"Team Alpha", "John Doe", "john@x.com", "Jane Roe", "jane@x.com"},
		{"Beta", "Solo", "solo@x.com"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestParse_XLSX(t *testing.T) {
	t.Parallel()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	_ = f.SetSheetRow(sheet, "A1", &[]any{"Team", "Name", "Email"})
	_ = f.SetSheetRow(sheet, "A2", &[]any{"Team Alpha", "John Doe", "john@x.com", "Jane Roe", "jane@x.com"})
	_ = f.SetSheetRow(sheet, "A4", &[]any{"Gamma", "Ann Lee", "ann@x.com"})
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}

	got, err := Parse("teams.xlsx", buf.Bytes())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := [][]string{
		{"Team Alpha", "John Doe", "john@x.com", "Jane Roe", "jane@x.com"},
		{"Gamma", "Ann Lee", "ann@x.com"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestParse_Unsupported(t *testing.T) {
	t.Parallel()

	if _, err := Parse("teams.pdf", []byte("x")); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestParse_HeaderOnly(t *testing.T) {
	t.Parallel()

	got, err := Parse("teams.csv", []byte("Team,Name,Email\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no rows, got %q", got)
	}
}
