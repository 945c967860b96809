package convert

import (
	"errors"
	"reflect"
	"testing"
)

func TestParsePageExpression(t *testing.T) {
	tests := []struct {
		expr string
		want []int
	}{
		{"1,3,5-7", []int{1, 3, 5, 6, 7}},
		{"1", []int{1}},
		{"2-2", []int{2}},
		{"3,1,2", []int{1, 2, 3}},
		{"1,1,1-2", []int{1, 2}},
		{" 4 , 6 - 7 ", []int{4, 6, 7}},
	}
	for _, tt := range tests {
		got, err := ParsePageExpression(tt.expr)
		if err != nil {
			t.Fatalf("ParsePageExpression(%q): %v", tt.expr, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParsePageExpression(%q) = %v, want %v", tt.expr, got, tt.want)
		}
	}
}

func TestParsePageExpressionRejectsMalformed(t *testing.T) {
	for _, expr := range []string{"", "a", "1,,2", "1-", "-3", "5-3", "0", "1,-2", "2-1"} {
		_, err := ParsePageExpression(expr)
		if err == nil {
			t.Fatalf("ParsePageExpression(%q): expected error", expr)
		}
		var cfg *ConfigurationError
		if !errors.As(err, &cfg) {
			t.Errorf("ParsePageExpression(%q): got %T, want *ConfigurationError", expr, err)
		}
	}
}

func TestPageSelectionVariants(t *testing.T) {
	all := AllPages()
	if !all.IsAll() {
		t.Errorf("AllPages().IsAll() = false")
	}
	if _, _, ok := all.Range(); ok {
		t.Errorf("AllPages().Range() reported ok")
	}

	rng := PageRange(2, 9)
	from, to, ok := rng.Range()
	if !ok || from != 2 || to != 9 {
		t.Errorf("PageRange(2, 9).Range() = %d, %d, %v", from, to, ok)
	}

	custom := CustomPages("1,4")
	expr, ok := custom.Expression()
	if !ok || expr != "1,4" {
		t.Errorf("CustomPages Expression() = %q, %v", expr, ok)
	}
}

func TestSelectedPages(t *testing.T) {
	tests := []struct {
		name      string
		p         Params
		pageCount int
		want      []int
	}{
		{"all", Params{}, 3, []int{1, 2, 3}},
		{"range", Params{StartPage: 2, EndPage: 4}, 6, []int{2, 3, 4}},
		{"range clamped", Params{StartPage: 2, EndPage: 10}, 4, []int{2, 3, 4}},
		{"range open end", Params{StartPage: 3}, 5, []int{3, 4, 5}},
		{"expression", Params{PageExpr: "1,3,5-7"}, 10, []int{1, 3, 5, 6, 7}},
		{"expression filtered", Params{PageExpr: "1,3,5-7"}, 5, []int{1, 3, 5}},
	}
	for _, tt := range tests {
		got, err := selectedPages(tt.p, tt.pageCount)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s: selectedPages = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestExplicitPages(t *testing.T) {
	pages, err := explicitPages(Params{PageExpr: "2,4-5"})
	if err != nil {
		t.Fatalf("explicitPages: %v", err)
	}
	if !reflect.DeepEqual(pages, []int{2, 4, 5}) {
		t.Errorf("explicitPages = %v", pages)
	}

	pages, err = explicitPages(Params{StartPage: 3, EndPage: 5})
	if err != nil {
		t.Fatalf("explicitPages range: %v", err)
	}
	if !reflect.DeepEqual(pages, []int{3, 4, 5}) {
		t.Errorf("explicitPages range = %v", pages)
	}

	// An open-ended range has no page count to resolve against, so the whole
	// document is requested.
	pages, err = explicitPages(Params{StartPage: 3})
	if err != nil {
		t.Fatalf("explicitPages open range: %v", err)
	}
	if pages != nil {
		t.Errorf("explicitPages open range = %v, want nil", pages)
	}
}
