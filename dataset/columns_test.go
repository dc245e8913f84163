package dataset

import (
	"errors"
	"fmt"
	"testing"
)

func TestResolveColumn(t *testing.T) {

	tests := []struct {
		name    string
		columns []string
		exact   []string
		rules   []tokenRule
		want    int
		wantErr error
	}{
		{
			name:    "exact_first_alias",
			columns: []string{"fecha", "monto"},
			exact:   []string{"fecha"},
			want:    0,
		},
		{
			name:    "exact_alias_order_respected",
			columns: []string{"monto", "montofinal"},
			exact:   []string{"montofinal", "monto"},
			want:    1,
		},
		{
			name:    "token_rule_fallback",
			columns: []string{"codigo_cliente_id", "vendedor"},
			exact:   []string{"clienteid"},
			rules:   []tokenRule{{all: []string{"cliente", "id"}}},
			want:    0,
		},
		{
			name:    "token_rule_none_excludes",
			columns: []string{"cliente_id", "cliente"},
			exact:   []string{"nombre_cliente"},
			rules:   []tokenRule{{all: []string{"cliente"}, none: []string{"id"}}},
			want:    1,
		},
		{
			name:    "ambiguous_rule_errors",
			columns: []string{"cliente_id_a", "cliente_id_b"},
			exact:   []string{"clienteid"},
			rules:   []tokenRule{{all: []string{"cliente", "id"}}},
			wantErr: ErrColumnAmbiguous,
		},
		{
			name:    "duplicate_column_names_not_ambiguous",
			columns: []string{"cliente_id", "cliente_id"},
			exact:   []string{"clienteid"},
			rules:   []tokenRule{{all: []string{"cliente", "id"}}},
			want:    0,
		},
		{
			name:    "not_found",
			columns: []string{"a", "b"},
			exact:   []string{"fecha"},
			wantErr: ErrColumnNotFound,
		},
		{
			name:    "later_rule_tried_after_earlier_misses",
			columns: []string{"fecha"},
			exact:   []string{"fecha_entrega"},
			rules: []tokenRule{
				{all: []string{"fecha", "entrega"}},
				{all: []string{"fecha"}},
			},
			want: 0,
		},
	}

	for ii, tt := range tests {
		t.Run(fmt.Sprintf("%d_%s", ii, tt.name), func(t *testing.T) {
			got, err := resolveColumn(tt.name, tt.columns, tt.exact, tt.rules...)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got error %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got index %d want %d", got, tt.want)
			}
		})
	}
}

func TestResolveOptional(t *testing.T) {

	// Absence collapses to -1 without error.
	i, err := resolveOptional("producto", []string{"a", "b"}, []string{"producto"})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := i, -1; got != want {
		t.Errorf("got %d want %d", got, want)
	}

	// Ambiguity is still an error.
	_, err = resolveOptional("monto", []string{"monto_rechazo_a", "monto_rechazo_b"},
		[]string{"monto_rechazo"}, tokenRule{all: []string{"monto", "rechazo"}})
	if !errors.Is(err, ErrColumnAmbiguous) {
		t.Fatalf("got error %v, want ErrColumnAmbiguous", err)
	}
}
