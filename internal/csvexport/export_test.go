package csvexport

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Aryan-dev-enth/certificate-manager/internal/csvimport"
	"github.com/Aryan-dev-enth/certificate-manager/internal/domain/model"
)

var testFields = []string{"CertificateNo", "Name", "RollNo", "Event", "Date", "UploadedBy"}

func testCerts() []*model.Certificate {
	return []*model.Certificate{
		{CertificateNo: "C1", Name: "Doe, Jane", RollNo: "R1", Event: `Say "hi"`, Date: "2024-01-01", UploadedBy: "webytes@srmuniversity.ac.in",
			AdditionalData: map[string]string{"Grade": "A"}},
		{CertificateNo: "C2", Name: "multi\nline", RollNo: "", Event: "Hackathon", Date: "", UploadedBy: "ecell@srmuniversity.ac.in"},
	}
}

func TestWriteCSV_Format(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, testFields, testCerts()); err != nil {
		t.Fatalf("WriteCSV() вернул ошибку: %v", err)
	}

	lines := strings.SplitN(buf.String(), "\n", 2)
	if lines[0] != "CertificateNo,Name,RollNo,Event,Date,UploadedBy" {
		t.Errorf("заголовок = %q", lines[0])
	}
	if !strings.Contains(buf.String(), `C1,"Doe, Jane",R1,"Say ""hi""",2024-01-01,webytes@srmuniversity.ac.in`) {
		t.Errorf("строка C1 экранирована неверно:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "Grade") {
		t.Error("дополнительные поля не должны попадать в выгрузку")
	}
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	certs := testCerts()

	var buf bytes.Buffer
	if err := WriteCSV(&buf, testFields, certs); err != nil {
		t.Fatalf("WriteCSV() вернул ошибку: %v", err)
	}

	res, err := csvimport.Parse(&buf)
	if err != nil {
		t.Fatalf("Parse() вернул ошибку: %v", err)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("Errors = %v", res.Errors)
	}
	if strings.Join(res.Headers, ",") != strings.Join(testFields, ",") {
		t.Errorf("Headers = %v", res.Headers)
	}
	if res.TotalRows != len(certs) {
		t.Fatalf("TotalRows = %d, ожидалось %d", res.TotalRows, len(certs))
	}
	for i, c := range certs {
		for _, f := range testFields {
			if got, want := res.Rows[i][f], FieldValue(c, f); got != want {
				t.Errorf("строка %d, %s = %q, ожидалось %q", i, f, got, want)
			}
		}
	}
}

func TestWriteCSV_HeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, testFields, nil); err != nil {
		t.Fatalf("WriteCSV() вернул ошибку: %v", err)
	}
	if buf.String() != "CertificateNo,Name,RollNo,Event,Date,UploadedBy\n" {
		t.Errorf("получено %q", buf.String())
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, testFields, testCerts()); err != nil {
		t.Fatalf("WriteXLSX() вернул ошибку: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() вернул ошибку: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows() вернул ошибку: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, ожидалось 3", len(rows))
	}
	if rows[0][0] != "CertificateNo" || rows[1][1] != "Doe, Jane" || rows[2][3] != "Hackathon" {
		t.Errorf("rows = %v", rows)
	}
}

func TestFilename(t *testing.T) {
	now := time.Date(2024, 3, 9, 23, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))

	tests := []struct {
		filtered bool
		format   Format
		want     string
	}{
		{false, FormatCSV, "certificates_all_2024-03-09.csv"},
		{true, FormatCSV, "certificates_filtered_2024-03-09.csv"},
		{true, FormatXLSX, "certificates_filtered_2024-03-09.xlsx"},
		{false, "", "certificates_all_2024-03-09.csv"},
	}
	for _, tt := range tests {
		if got := Filename(now, tt.filtered, tt.format); got != tt.want {
			t.Errorf("Filename(%v, %q) = %q, ожидалось %q", tt.filtered, tt.format, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat(""); err != nil || f != FormatCSV {
		t.Errorf("ParseFormat(\"\") = %q, %v", f, err)
	}
	if f, err := ParseFormat("xlsx"); err != nil || f != FormatXLSX {
		t.Errorf("ParseFormat(xlsx) = %q, %v", f, err)
	}
	if _, err := ParseFormat("pdf"); err == nil {
		t.Error("ожидалась ошибка для pdf")
	}
}
