package main

import (
	"strings"
	"testing"

	"hook-screener/internal/models"

	"github.com/jedib0t/go-pretty/v6/text"
)

func TestRenderTable(t *testing.T) {
	if got := renderTable(nil, nil, nil, false); got != "" {
		t.Errorf("Expected empty output without headers, got %q", got)
	}

	out := renderTable([]string{"Handle", "Count"}, [][]string{{"@thriftqueen", "2"}, {"@vic"}}, []columnAlignment{alignLeft, alignRight}, false)
	for _, want := range []string{"Handle", "Count", "@thriftqueen", "@vic"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected table to contain %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "HANDLE") {
		t.Errorf("Expected header case to be kept:\n%s", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("Expected no escape codes without colorize:\n%s", out)
	}
}

func TestRenderTableColorize(t *testing.T) {
	text.EnableColors()
	t.Cleanup(text.DisableColors)

	rows := [][]string{{"@thriftqueen", statusLabel(models.StatusApproved)}, {"@vic", statusLabel(models.StatusRejected)}}
	out := renderTable([]string{"Handle", "Status"}, rows, nil, true)

	if !strings.Contains(out, text.FgGreen.Sprint("✅ approved")) {
		t.Errorf("Expected approved label in green:\n%s", out)
	}
	if !strings.Contains(out, text.FgRed.Sprint("❌ rejected")) {
		t.Errorf("Expected rejected label in red:\n%s", out)
	}
	if strings.Contains(out, text.FgGreen.Sprint("@thriftqueen")) {
		t.Errorf("Expected plain cells to stay uncolored:\n%s", out)
	}
}

func TestRenderChecks(t *testing.T) {
	v := models.Verdict{
		Status:     models.StatusRejected,
		ReasonCode: "wrong duration",
		Checks: []models.Check{
			{Dimension: models.DimensionDuration, Detail: "Duration 25.0s doesn't fit"},
			{Dimension: models.DimensionHook, Passed: true},
			{Dimension: models.DimensionStructure, Passed: true, Skipped: true},
		},
	}

	out := renderChecks(v, false)
	for _, want := range []string{"duration", "fail", "hook", "pass", "structure", "skipped", "❌ rejected", "wrong duration"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected checks table to contain %q:\n%s", want, out)
		}
	}
}

func TestParseSignals(t *testing.T) {
	tests := []struct {
		name    string
		face    string
		app     float64
		wantNil bool
		wantApp bool
		wantErr bool
	}{
		{name: "unknown", face: "", app: -1, wantNil: true},
		{name: "face only", face: "yes", app: -1},
		{name: "app only", face: "", app: 0.8, wantApp: true},
		{name: "no app footage", face: "no", app: 0},
		{name: "bad face", face: "maybe", app: -1, wantErr: true},
		{name: "confidence too high", face: "", app: 1.5, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSignals(tt.face, tt.app)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseSignals() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if (got == nil) != tt.wantNil {
				t.Fatalf("parseSignals() = %+v, wantNil %v", got, tt.wantNil)
			}
			if got == nil {
				return
			}
			if tt.face != "" && got.FaceWindowHit == nil {
				t.Error("Expected a face signal")
			}
			if tt.app >= 0 && (got.AppFootage == nil || got.AppFootage.Detected != tt.wantApp) {
				t.Errorf("Unexpected app footage %+v", got.AppFootage)
			}
		})
	}
}
