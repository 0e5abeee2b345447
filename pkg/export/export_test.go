package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Rekap Tugas",
		Summary: []Field{{Label: "Peserta", Value: "Ayu"}, {Label: "Fase", Value: "Sedang Berlangsung"}},
		Headers: []string{"No", "Judul", "Status"},
		Rows: []map[string]string{
			{"No": "1", "Judul": "Laporan minggu 1", "Status": "APPROVED"},
			{"No": "2", "Judul": "Laporan minggu 2, revisi", "Status": "PENDING"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Equal(t, []string{
		"Peserta,Ayu",
		"Fase,Sedang Berlangsung",
		"",
		"No,Judul,Status",
		"1,Laporan minggu 1,APPROVED",
		`2,"Laporan minggu 2, revisi",PENDING`,
	}, lines)
}

func TestExportersRequireHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	data := sampleDataset()
	data.Rows = append(data.Rows, map[string]string{"No": "3", "Judul": strings.Repeat("panjang ", 40), "Status": "REJECTED"})

	out, err := NewPDFExporter().Render(data)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
