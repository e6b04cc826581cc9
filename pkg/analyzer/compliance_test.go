package analyzer

import (
	"strings"
	"testing"

	"github.com/toyinlola/pkgrisk/pkg/interfaces"
)

func record(id string, caps map[interfaces.Capability]interfaces.TriState, obs map[interfaces.Obligation]interfaces.TriState) interfaces.LicenseRecord {
	full := make(map[interfaces.Capability]interfaces.TriState)
	for _, c := range interfaces.Capabilities {
		full[c] = interfaces.Allowed
	}
	for c, v := range caps {
		full[c] = v
	}
	return interfaces.LicenseRecord{ID: id, Capabilities: full, Obligations: obs}
}

func TestComplianceScore_DecisionTable(t *testing.T) {
	required := map[interfaces.Obligation]interfaces.TriState{interfaces.ObDiscloseSource: interfaces.Required}
	noSaaS := map[interfaces.Capability]interfaces.TriState{interfaces.CapSaaS: interfaces.Forbidden}
	noSell := map[interfaces.Capability]interfaces.TriState{interfaces.CapSell: interfaces.Forbidden, interfaces.CapSaaS: interfaces.Forbidden}
	useOnly := map[interfaces.Capability]interfaces.TriState{
		interfaces.CapModify: interfaces.Forbidden,
		interfaces.CapSell:   interfaces.Forbidden,
		interfaces.CapSaaS:   interfaces.Forbidden,
	}

	tests := []struct {
		name string
		rec  interfaces.LicenseRecord
		want float64
	}{
		{"all allowed, no obligations", record("A", nil, nil), 0.0},
		{"all allowed, obligations", record("A", nil, required), 2.0},
		{"use modify sell", record("A", noSaaS, nil), 2.0},
		{"use modify sell, obligations", record("A", noSaaS, required), 3.0},
		{"use modify", record("A", noSell, nil), 4.0},
		{"use modify, obligations", record("A", noSell, required), 5.0},
		{"use only", record("A", useOnly, nil), 6.0},
		{"use only, obligations", record("A", useOnly, required), 8.0},
		{"use forbidden", record("A", map[interfaces.Capability]interfaces.TriState{interfaces.CapUse: interfaces.Forbidden}, nil), 10.0},
		{"use needs review", record("A", map[interfaces.Capability]interfaces.TriState{interfaces.CapUse: interfaces.NeedsReview}, nil), 7.0},
		{"attribution alone is not significant", record("A", nil, map[interfaces.Obligation]interfaces.TriState{interfaces.ObAttribution: interfaces.Required}), 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, _ := ComplianceScore(tt.rec); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestComplianceScore_NetworkCopyleftFloor(t *testing.T) {
	obs := map[interfaces.Obligation]interfaces.TriState{interfaces.ObNetworkCopyleft: interfaces.Required}
	combos := []map[interfaces.Capability]interfaces.TriState{
		nil,
		{interfaces.CapSaaS: interfaces.Forbidden},
		{interfaces.CapSell: interfaces.Forbidden},
		{interfaces.CapModify: interfaces.Forbidden},
		{interfaces.CapUse: interfaces.NeedsReview},
		{interfaces.CapUse: interfaces.Forbidden},
	}
	for i, caps := range combos {
		if got, _ := ComplianceScore(record("NC", caps, obs)); got < NetworkCopyleftFloor {
			t.Errorf("combo %d: expected >= %v, got %v", i, NetworkCopyleftFloor, got)
		}
	}
}

func TestCompliance_ResolvesLicenses(t *testing.T) {
	tests := []struct {
		license string
		want    float64
	}{
		{"MIT", 0.0},
		{"Apache-2.0", 0.0},
		{"MPL-2.0", 2.0},
		{"GPL-3.0", 2.0},
		{"AGPL-3.0", 7.0},
		{"SSPL-1.0", 7.0},
		{"BUSL-1.1", 4.0},
		{"Proprietary", 7.0},
		{"", 10.0},
		{"totally custom", 10.0},
	}
	c := NewCompliance(nil)
	for _, tt := range tests {
		t.Run(tt.license, func(t *testing.T) {
			got := c.Calculate(&interfaces.MetadataSnapshot{License: tt.license})
			if got.Score != tt.want {
				t.Errorf("expected %v, got %v (%v)", tt.want, got.Score, got.Concerns)
			}
		})
	}
}

func TestCompliance_UnknownLicenseConcern(t *testing.T) {
	got := NewCompliance(nil).Calculate(&interfaces.MetadataSnapshot{})
	if len(got.Concerns) == 0 || !strings.Contains(got.Concerns[0], "none declared") {
		t.Errorf("expected unrecognised-license concern first, got %v", got.Concerns)
	}
}
