package registry

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/toyinlola/pkgrisk/pkg/interfaces"
)

// DefaultOSVURL is the public OSV API.
const DefaultOSVURL = "https://api.osv.dev"

// CriticalCVSS is the CVSS base score at which a finding counts as critical.
const CriticalCVSS = 9.0

// maxOSVPages bounds pagination for packages with very long histories.
const maxOSVPages = 10

// OSVClient queries the OSV database for known vulnerabilities.
type OSVClient struct {
	baseURL    string
	ecosystem  string
	httpClient *http.Client
}

// NewOSVClient creates a client for ecosystem (default "PyPI").
func NewOSVClient(baseURL, ecosystem string) *OSVClient {
	if baseURL == "" {
		baseURL = DefaultOSVURL
	}
	if ecosystem == "" {
		ecosystem = "PyPI"
	}
	return &OSVClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		ecosystem:  ecosystem,
		httpClient: newHTTPClient(),
	}
}

type osvQuery struct {
	Package struct {
		Name      string `json:"name"`
		Ecosystem string `json:"ecosystem"`
	} `json:"package"`
	Version   string `json:"version,omitempty"`
	PageToken string `json:"page_token,omitempty"`
}

type osvVuln struct {
	ID       string `json:"id"`
	Summary  string `json:"summary"`
	Severity []struct {
		Type  string `json:"type"`
		Score string `json:"score"`
	} `json:"severity"`
	DatabaseSpecific struct {
		Severity string `json:"severity"`
	} `json:"database_specific"`
}

type osvResponse struct {
	Vulns         []osvVuln `json:"vulns"`
	NextPageToken string    `json:"next_page_token"`
}

// Query returns the vulnerabilities affecting name at version. An empty
// version asks about every release.
func (c *OSVClient) Query(ctx context.Context, name, version string) (*interfaces.VulnerabilitySummary, error) {
	q := osvQuery{Version: version}
	q.Package.Name = name
	q.Package.Ecosystem = c.ecosystem

	summary := &interfaces.VulnerabilitySummary{}
	for range maxOSVPages {
		var r osvResponse
		if err := doJSON(ctx, c.httpClient, http.MethodPost, c.baseURL+"/v1/query", q, &r); err != nil {
			return nil, err
		}
		for _, v := range r.Vulns {
			d := toDetail(v)
			summary.Details = append(summary.Details, d)
			if IsCritical(d) {
				summary.Critical++
			}
		}
		if r.NextPageToken == "" {
			break
		}
		q.PageToken = r.NextPageToken
	}
	summary.Count = len(summary.Details)
	return summary, nil
}

func toDetail(v osvVuln) interfaces.VulnerabilityDetail {
	d := interfaces.VulnerabilityDetail{
		ID:       v.ID,
		Summary:  v.Summary,
		Severity: strings.ToUpper(v.DatabaseSpecific.Severity),
	}
	for _, s := range v.Severity {
		if score, ok := severityScore(s.Score); ok && score > d.CVSS {
			d.CVSS = score
		}
	}
	return d
}

// IsCritical reports a CVSS base score of at least 9.0 or a CRITICAL label.
func IsCritical(d interfaces.VulnerabilityDetail) bool {
	return d.CVSS >= CriticalCVSS || strings.EqualFold(d.Severity, "critical")
}

// severityScore reads either a bare numeric score or a CVSS v3 vector.
func severityScore(s string) (float64, bool) {
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return f, true
	}
	return CVSS3BaseScore(s)
}

var (
	cvssAV = map[string]float64{"N": 0.85, "A": 0.62, "L": 0.55, "P": 0.2}
	cvssAC = map[string]float64{"L": 0.77, "H": 0.44}
	cvssUI = map[string]float64{"N": 0.85, "R": 0.62}
	cvssCI = map[string]float64{"H": 0.56, "L": 0.22, "N": 0}
)

// CVSS3BaseScore computes the base score of a CVSS v3.0 or v3.1 vector such
// as "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H".
func CVSS3BaseScore(vector string) (float64, bool) {
	if !strings.HasPrefix(vector, "CVSS:3.") {
		return 0, false
	}
	m := make(map[string]string)
	for _, part := range strings.Split(vector, "/")[1:] {
		k, v, ok := strings.Cut(part, ":")
		if !ok {
			return 0, false
		}
		m[k] = v
	}

	changed := m["S"] == "C"
	if m["S"] != "U" && !changed {
		return 0, false
	}
	var pr float64
	switch m["PR"] {
	case "N":
		pr = 0.85
	case "L":
		pr = 0.62
		if changed {
			pr = 0.68
		}
	case "H":
		pr = 0.27
		if changed {
			pr = 0.5
		}
	default:
		return 0, false
	}

	av, ok1 := cvssAV[m["AV"]]
	ac, ok2 := cvssAC[m["AC"]]
	ui, ok3 := cvssUI[m["UI"]]
	conf, ok4 := cvssCI[m["C"]]
	integ, ok5 := cvssCI[m["I"]]
	avail, ok6 := cvssCI[m["A"]]
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || !ok6 {
		return 0, false
	}

	iss := 1 - (1-conf)*(1-integ)*(1-avail)
	var impact float64
	if changed {
		impact = 7.52*(iss-0.029) - 3.25*math.Pow(iss-0.02, 15)
	} else {
		impact = 6.42 * iss
	}
	if impact <= 0 {
		return 0, true
	}
	exploitability := 8.22 * av * ac * pr * ui
	if changed {
		return roundUp(math.Min(1.08*(impact+exploitability), 10)), true
	}
	return roundUp(math.Min(impact+exploitability, 10)), true
}

// roundUp is the CVSS v3.1 Roundup: smallest one-decimal value >= x.
func roundUp(x float64) float64 {
	i := int64(math.Round(x * 100000))
	if i%10000 == 0 {
		return float64(i) / 100000
	}
	return float64(i/10000+1) / 10
}
