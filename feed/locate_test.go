package feed

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestLocate(t *testing.T) {

	dir := t.TempDir()
	files := []string{
		"Ventas_Completas_Julio.csv",
		"preventa_completa_julio.csv",
		"MAESTRO CLIENTES.CSV",
		"rebotes-julio.csv",
		"notas.txt",
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f), []byte("a;b\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name     string
		keywords []string
		exclude  []string
		want     string
		isErr    bool
	}{
		{
			name:     "sales_excluding_presales",
			keywords: []string{"venta", "completa"},
			exclude:  []string{"preventa", "rebote"},
			want:     "Ventas_Completas_Julio.csv",
		},
		{
			name:     "presales",
			keywords: []string{"preventa"},
			want:     "preventa_completa_julio.csv",
		},
		{
			name:     "client_master_case_insensitive",
			keywords: []string{"maestro", "cliente"},
			want:     "MAESTRO CLIENTES.CSV",
		},
		{
			name:     "rejections",
			keywords: []string{"rebotes"},
			want:     "rebotes-julio.csv",
		},
		{
			name:     "no_match",
			keywords: []string{"inventario"},
			isErr:    true,
		},
		{
			name:     "txt_not_accepted",
			keywords: []string{"notas"},
			isErr:    true,
		},
	}

	for ii, tt := range tests {
		t.Run(fmt.Sprintf("%d_%s", ii, tt.name), func(t *testing.T) {
			path, err := Locate(dir, tt.keywords, tt.exclude, []string{".csv"})
			if tt.isErr {
				if !errors.Is(err, ErrNotFound) {
					t.Fatalf("expected ErrNotFound, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got, want := filepath.Base(path), tt.want; got != want {
				t.Errorf("got %s want %s", got, want)
			}
		})
	}
}

func TestLocateDeterministic(t *testing.T) {

	// Two candidates match; the lexically first must win every time.
	dir := t.TempDir()
	for _, f := range []string{"ventas_completas_b.csv", "ventas_completas_a.csv"} {
		if err := os.WriteFile(filepath.Join(dir, f), []byte("a;b\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 5; i++ {
		path, err := Locate(dir, []string{"venta", "completa"}, nil, []string{".csv"})
		if err != nil {
			t.Fatal(err)
		}
		if got, want := filepath.Base(path), "ventas_completas_a.csv"; got != want {
			t.Errorf("got %s want %s", got, want)
		}
	}
}

func TestLocateMissingDir(t *testing.T) {
	if _, err := Locate(filepath.Join(t.TempDir(), "nope"), []string{"venta"}, nil, []string{".csv"}); err == nil {
		t.Error("expected an error for a missing directory")
	}
}
