package csvcodec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"orcamentos/internal/core"
)

func TestDecodeTemplateRoundTrip(t *testing.T) {
	rows := Decode(Template())
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Name != "Instalar Varal de Teto" || rows[0].Unit != "unitário" || rows[0].Price != 100 {
		t.Errorf("unexpected first row: %+v", rows[0])
	}
	if rows[1].Name != "Pintura de Parede" || rows[1].Unit != "metro" || rows[1].Price != 35.5 {
		t.Errorf("unexpected second row: %+v", rows[1])
	}
	if rows[0].ID == "" || rows[0].ID == rows[1].ID {
		t.Errorf("expected distinct generated ids, got %q and %q", rows[0].ID, rows[1].ID)
	}
}

func TestTemplateShape(t *testing.T) {
	lines := strings.Split(Template(), "\n")
	if len(lines) != 3 {
		t.Fatalf("template must have 3 lines, got %d", len(lines))
	}
	if lines[0] != "item;unidade;valor" {
		t.Fatalf("unexpected header %q", lines[0])
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantNames []string
		wantUnits []string
		wantPrice []float64
	}{
		{
			name:      "no header starts at line zero",
			input:     "Trocar Lâmpada;unitário;80\nPintura;metro;35,5",
			wantNames: []string{"Trocar Lâmpada", "Pintura"},
			wantUnits: []string{"unitário", "metro"},
			wantPrice: []float64{80, 35.5},
		},
		{
			name:      "partial header is treated as data",
			input:     "Nome;Qualquer\nTrocar Sifão;peça;90",
			wantNames: []string{"Nome", "Trocar Sifão"},
			wantUnits: []string{"Qualquer", "peça"},
			wantPrice: []float64{0, 90},
		},
		{
			name:      "alias header with comma delimiter and reordered columns",
			input:     "Preço,Serviço,Und\n120,Trocar Torneira,peça\n1.5,Limpeza de Ralo,un",
			wantNames: []string{"Trocar Torneira", "Limpeza de Ralo"},
			wantUnits: []string{"peça", "un"},
			wantPrice: []float64{120, 1.5},
		},
		{
			name:      "carriage returns and blank lines are dropped",
			input:     "item;unidade;valor\r\n\r\n   \nInstalar Tomada;un;1\r\n",
			wantNames: []string{"Instalar Tomada"},
			wantUnits: []string{"un"},
			wantPrice: []float64{1},
		},
		{
			name:      "rows without a name are skipped and unit defaults",
			input:     "item;unidade;valor\n;un;5\nInstalar Porta;;7\nTrocar Vidro",
			wantNames: []string{"Instalar Porta", "Trocar Vidro"},
			wantUnits: []string{core.DefaultUnit, core.DefaultUnit},
			wantPrice: []float64{7, 0},
		},
		{
			name:      "quoted field keeps the delimiter",
			input:     "item;unidade;valor\n\"Pintura; parede\";m²;\"1.234,56\"",
			wantNames: []string{"Pintura; parede"},
			wantUnits: []string{"m²"},
			wantPrice: []float64{1234.56},
		},
		{
			name:      "unbalanced quote splits on the delimiter",
			input:     "\"Pintura;m;10\nTrocar Lâmpada;un;5",
			wantNames: []string{`"Pintura`, "Trocar Lâmpada"},
			wantUnits: []string{"m", "un"},
			wantPrice: []float64{10, 5},
		},
		{
			name:  "empty input",
			input: " \n\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := Decode(tt.input)
			if len(rows) != len(tt.wantNames) {
				t.Fatalf("expected %d rows, got %d: %+v", len(tt.wantNames), len(rows), rows)
			}
			for i, r := range rows {
				if r.Name != tt.wantNames[i] {
					t.Errorf("row %d name = %q, want %q", i, r.Name, tt.wantNames[i])
				}
				if r.Unit != tt.wantUnits[i] {
					t.Errorf("row %d unit = %q, want %q", i, r.Unit, tt.wantUnits[i])
				}
				if r.Price != tt.wantPrice[i] {
					t.Errorf("row %d price = %v, want %v", i, r.Price, tt.wantPrice[i])
				}
			}
		})
	}
}

func TestDecodeHeaderRowCount(t *testing.T) {
	input := "item;unidade;valor\nA;un;1\nB;un;2\nC;un;3"
	total := len(strings.Split(input, "\n"))
	if got := len(Decode(input)); got != total-1 {
		t.Fatalf("expected %d rows, got %d", total-1, got)
	}
}

func TestSniffDelimiter(t *testing.T) {
	cases := []struct {
		in   string
		want rune
	}{
		{"a;b;c", ';'},
		{"a,b,c", ','},
		{"a,b;c", ';'},
		{"", ';'},
	}
	for _, tc := range cases {
		if got := sniffDelimiter(tc.in); got != tc.want {
			t.Fatalf("sniffDelimiter(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestEncodeCatalogRoundTrip(t *testing.T) {
	in := []core.Service{
		{ID: "1", Name: "Pintura; teto", Unit: "metro", Price: 35.5},
		{ID: "2", Name: "Trocar Lâmpada", Unit: "unitário", Price: 1234.25},
	}
	var buf bytes.Buffer
	if err := EncodeCatalog(&buf, in); err != nil {
		t.Fatalf("EncodeCatalog() error = %v", err)
	}
	if !strings.HasPrefix(buf.String(), "item;unidade;valor\n") {
		t.Fatalf("missing header: %q", buf.String())
	}

	out := Decode(buf.String())
	if len(out) != len(in) {
		t.Fatalf("expected %d rows, got %d", len(in), len(out))
	}
	for i := range in {
		if out[i].Name != in[i].Name || out[i].Unit != in[i].Unit || out[i].Price != in[i].Price {
			t.Errorf("row %d = %+v, want %+v", i, out[i], in[i])
		}
	}
}

func TestDecodeXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	set := func(cell string, v any) {
		t.Helper()
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			t.Fatalf("set %s: %v", cell, err)
		}
	}
	set("A1", "Item")
	set("B1", "Unidade")
	set("C1", "Valor unitário")
	set("A2", "Instalar Chuveiro Elétrico")
	set("B2", "unitário")
	set("C2", 150)
	set("A4", "Pintura de Teto")
	set("B4", "metro")
	set("C4", "42,90")

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	rows, err := DecodeXLSX(buf)
	if err != nil {
		t.Fatalf("DecodeXLSX() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %+v", len(rows), rows)
	}
	if rows[0].Price != 150 || rows[1].Price != 42.9 {
		t.Fatalf("unexpected prices: %v, %v", rows[0].Price, rows[1].Price)
	}
}

func TestDecodeXLSXInvalid(t *testing.T) {
	if _, err := DecodeXLSX(strings.NewReader("not a workbook")); err == nil {
		t.Fatal("expected error for invalid workbook")
	}
}

func TestIsWorkbook(t *testing.T) {
	if !IsWorkbook("Catalogo.XLSX") || IsWorkbook("catalogo.csv") {
		t.Fatal("unexpected IsWorkbook result")
	}
}
