package services

import "testing"

func TestNormalizePayment(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"cash", "cash"},
		{"Cash", "cash"},
		{"  card  ", "card"},
		{"готівка", "cash"},
		{"💵 готівка", "cash"},
		{"💳 переказ на картку водію", "card"},
		{"на картку", "card"},
		{"crypto", "crypto"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizePayment(tt.label); got != tt.want {
			t.Errorf("NormalizePayment(%q) = %q, want %q", tt.label, got, tt.want)
		}
	}
}

func TestNormalizeTariff(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"standard", "standard"},
		{"Standard", "standard"},
		{"стандарт", "standard"},
		{"комфорт", "comfort"},
		{"бізнес", "business"},
		{"BUSINESS", "business"},
		{"luxury", "luxury"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeTariff(tt.label); got != tt.want {
			t.Errorf("NormalizeTariff(%q) = %q, want %q", tt.label, got, tt.want)
		}
	}
}
