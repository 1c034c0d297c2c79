package util

import (
	"strconv"
	"testing"
)

func TestParsePrice(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  float64
	}{
		{name: "european thousands", input: "1.234,56", want: 1234.56},
		{name: "english thousands", input: "1,234.56", want: 1234.56},
		{name: "comma decimal", input: "99,9", want: 99.9},
		{name: "dot decimal", input: "349.90", want: 349.9},
		{name: "currency suffix", input: "250,00 €", want: 250},
		{name: "currency prefix", input: "$ 1 200.50", want: 1200.5},
		{name: "nbsp thousands", input: "1\u00a0250,00 €", want: 1250},
		{name: "garbage", input: "abc", want: 0},
		{name: "empty", input: "", want: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParsePrice(tc.input)
			if got != tc.want {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestParsePriceIdempotent(t *testing.T) {
	inputs := []string{"1.234,56", "1,234.56", "99,9", "0,5", "1200"}
	for _, in := range inputs {
		once := ParsePrice(in)
		twice := ParsePrice(strconv.FormatFloat(once, 'f', -1, 64))
		if once != twice {
			t.Fatalf("%q: once=%v twice=%v", in, once, twice)
		}
	}
}

func TestParsePricePtr(t *testing.T) {
	if ParsePricePtr("no digits here") != nil {
		t.Fatal("expected nil for digitless input")
	}
	if v := ParsePricePtr("12,5"); v == nil || *v != 12.5 {
		t.Fatalf("got %v", v)
	}
}
