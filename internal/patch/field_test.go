package patch

import (
	"encoding/json"
	"errors"
	"testing"
)

type payload struct {
	Code   Field[string] `json:"codigo"`
	Count  Field[int]    `json:"cantidad"`
	Height Number        `json:"altura"`
}

func TestFieldDistinguishesOmittedFromNull(t *testing.T) {
	var p payload
	if err := json.Unmarshal([]byte(`{"codigo": null, "cantidad": 3}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !p.Code.Set || !p.Code.Null {
		t.Fatalf("expected codigo to be an explicit null, got %+v", p.Code)
	}
	if p.Code.Ptr() != nil {
		t.Fatalf("expected nil pointer for null field")
	}
	if !p.Count.HasValue() || *p.Count.Ptr() != 3 {
		t.Fatalf("expected cantidad=3, got %+v", p.Count)
	}
	if p.Height.Set {
		t.Fatalf("expected altura to be omitted, got %+v", p.Height)
	}
}

func TestNumberAcceptsNumbersAndStrings(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		null    bool
		raw     string
		wantErr error
	}{
		{name: "number", body: `{"altura": 12.5}`, raw: "12.5"},
		{name: "string", body: `{"altura": " 7 "}`, raw: "7"},
		{name: "blank string", body: `{"altura": ""}`, null: true},
		{name: "null", body: `{"altura": null}`, null: true},
		{name: "text", body: `{"altura": "alto"}`, raw: "alto", wantErr: ErrNotNumeric},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var p payload
			if err := json.Unmarshal([]byte(tc.body), &p); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if !p.Height.Set {
				t.Fatalf("expected altura to be set")
			}
			if p.Height.Null != tc.null {
				t.Fatalf("null = %v, want %v", p.Height.Null, tc.null)
			}
			if tc.null {
				return
			}
			if p.Height.Raw != tc.raw {
				t.Fatalf("raw = %q, want %q", p.Height.Raw, tc.raw)
			}
			_, err := p.Height.Decimal()
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("decimal error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestNumberInt(t *testing.T) {
	if v, err := NumberOf("42").Int(); err != nil || v != 42 {
		t.Fatalf("expected 42, got %d (%v)", v, err)
	}
	if _, err := NumberOf("4.5").Int(); !errors.Is(err, ErrNotInteger) {
		t.Fatalf("expected ErrNotInteger, got %v", err)
	}
	if _, err := NumberOf("x").Int(); !errors.Is(err, ErrNotNumeric) {
		t.Fatalf("expected ErrNotNumeric, got %v", err)
	}
	if v, err := NumberOf("-2147483648").Int(); err != nil || v != -2147483648 {
		t.Fatalf("expected the lower bound to pass, got %d (%v)", v, err)
	}
	for _, raw := range []string{"2147483648", "-2147483649", "18446744073709551615", "18446744073709551621"} {
		if v, err := NumberOf(raw).Int(); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("%s: expected ErrOutOfRange, got %d (%v)", raw, v, err)
		}
	}
}

func TestFieldAcceptsQuotedValues(t *testing.T) {
	var p struct {
		Count    Field[int]     `json:"cantidad"`
		Corner   Field[bool]    `json:"esquina"`
		Elements Field[[]int64] `json:"elementos"`
		Lot      Field[int]     `json:"lote"`
		Bad      Field[int]     `json:"malo"`
	}
	body := `{"cantidad": "3", "esquina": "true", "elementos": "[1, 2]", "lote": " "}`
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Count.Value != 3 || !p.Corner.Value || len(p.Elements.Value) != 2 {
		t.Fatalf("unexpected values %+v", p)
	}
	if !p.Lot.Set || !p.Lot.Null {
		t.Fatalf("expected blank string to be null, got %+v", p.Lot)
	}

	if err := json.Unmarshal([]byte(`{"malo": "tres"}`), &p); err == nil {
		t.Fatalf("expected error for non-numeric string")
	}
}
