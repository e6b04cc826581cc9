package analyzer

import (
	"fmt"
	"strings"

	"github.com/toyinlola/pkgrisk/pkg/interfaces"
	"github.com/toyinlola/pkgrisk/pkg/license"
)

// NetworkCopyleftFloor is the minimum compliance score of a network-copyleft license.
const NetworkCopyleftFloor = 7.0

// significantObligations impose duties beyond notices. Attribution and
// state-changes are not counted.
var significantObligations = []interfaces.Obligation{
	interfaces.ObDiscloseSource,
	interfaces.ObShareAlike,
	interfaces.ObNetworkCopyleft,
}

// Compliance scores license policy risk from the resolved capability and
// obligation facts.
type Compliance struct {
	licenses *license.Resolver
}

// NewCompliance creates the compliance calculator. A nil resolver uses the embedded table.
func NewCompliance(r *license.Resolver) *Compliance {
	if r == nil {
		r = license.Default()
	}
	return &Compliance{licenses: r}
}

// Dimension returns interfaces.DimensionCompliance.
func (c *Compliance) Dimension() interfaces.Dimension {
	return interfaces.DimensionCompliance
}

// Calculate resolves the license and applies the capability decision table.
func (c *Compliance) Calculate(s *interfaces.MetadataSnapshot) interfaces.DimensionResult {
	rec := c.licenses.Resolve(s.License)
	score, concerns := ComplianceScore(rec)
	if rec.IsUnknown() {
		raw := strings.TrimSpace(s.License)
		if raw == "" {
			raw = "none declared"
		}
		concerns = append([]string{fmt.Sprintf("license not recognised (%s)", raw)}, concerns...)
	}
	return interfaces.DimensionResult{
		Dimension: interfaces.DimensionCompliance,
		Score:     clampScore(score),
		Concerns:  concerns,
	}
}

// ComplianceScore applies the decision table to a license record.
func ComplianceScore(rec interfaces.LicenseRecord) (float64, []string) {
	var concerns []string

	var required []string
	for _, o := range significantObligations {
		if rec.Must(o) == interfaces.Required {
			required = append(required, string(o))
		}
	}
	obligated := len(required) > 0

	var score float64
	switch rec.Can(interfaces.CapUse) {
	case interfaces.Forbidden:
		score = 10.0
		concerns = append(concerns, fmt.Sprintf("%s forbids use", rec.ID))
	case interfaces.NeedsReview:
		score = 7.0
		concerns = append(concerns, fmt.Sprintf("%s: use needs legal review", rec.ID))
	default:
		score = capabilityScore(rec, obligated)
	}

	for _, capability := range interfaces.Capabilities {
		if capability != interfaces.CapUse && rec.Can(capability) == interfaces.NeedsReview {
			concerns = append(concerns, fmt.Sprintf("%s needs review", capability))
		}
	}
	if obligated {
		concerns = append(concerns, fmt.Sprintf("%s obligations: %s", rec.ID, strings.Join(required, ", ")))
	}

	if rec.Must(interfaces.ObNetworkCopyleft) == interfaces.Required && score < NetworkCopyleftFloor {
		score = NetworkCopyleftFloor
	}
	return score, concerns
}

// capabilityScore is the decision table for licenses whose use is allowed.
func capabilityScore(rec interfaces.LicenseRecord, obligated bool) float64 {
	allowed := func(c interfaces.Capability) bool { return rec.Can(c) == interfaces.Allowed }

	all := true
	for _, capability := range interfaces.Capabilities {
		if !allowed(capability) {
			all = false
			break
		}
	}

	pick := func(without, with float64) float64 {
		if obligated {
			return with
		}
		return without
	}
	switch {
	case all:
		return pick(0.0, 2.0)
	case allowed(interfaces.CapModify) && allowed(interfaces.CapSell):
		return pick(2.0, 3.0)
	case allowed(interfaces.CapModify):
		return pick(4.0, 5.0)
	default:
		return pick(6.0, 8.0)
	}
}
