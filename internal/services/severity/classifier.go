// Package severity maps scan events to severity tiers.
package severity

import (
	"fmt"
	"time"

	"riskmap/internal/domain"
)

type outcome struct {
	severity    domain.Severity
	explanation string
}

var (
	high   = domain.Severity{High: 1}
	medium = domain.Severity{Medium: 1}
	low    = domain.Severity{Low: 1}
	none   = domain.Severity{}
)

type table map[string]outcome

// gradeTable is shared by the qualys grade and encryption quality scans.
var gradeTable = table{
	"A+": {none, "Good Transport Security, rated A+."},
	"A":  {none, "Good Transport Security, rated A."},
	"A-": {none, "Good Transport Security, rated A-."},
	"B":  {medium, "Less than optimal Transport Security, rated B."},
	"C":  {medium, "Less than optimal Transport Security, rated C."},
	"F":  {high, "Broken Transport Security, rated F."},
}

func headerTable(header string, missing domain.Severity) table {
	return table{
		"True":  {none, header + " header present."},
		"False": {missing, "Missing " + header + " header."},
	}
}

type classifyFunc func(ev domain.ScanEvent) (outcome, error)

func lookup(t table) classifyFunc {
	return func(ev domain.ScanEvent) (outcome, error) {
		out, ok := t[ev.Rating]
		if !ok {
			return outcome{}, fmt.Errorf("%w: %s=%q", domain.ErrUnknownRatingValue, ev.Type, ev.Rating)
		}
		return out, nil
	}
}

// classifyQualys adds the trust failure and the grade ignoring trust: both
// are exploitable on their own.
func classifyQualys(ev domain.ScanEvent) (outcome, error) {
	switch ev.Rating {
	case "0":
		return outcome{none, "Could not connect to this endpoint over TLS."}, nil
	case "T":
		grade, ok := gradeTable[ev.RatingNoTrust]
		if !ok {
			return outcome{}, fmt.Errorf("%w: %s no-trust grade %q", domain.ErrUnknownRatingValue, ev.Type, ev.RatingNoTrust)
		}
		explanation := "Certificate not trusted."
		if !grade.severity.IsZero() {
			explanation += " " + grade.explanation
		}
		return outcome{high.Add(grade.severity), explanation}, nil
	}
	return lookup(gradeTable)(ev)
}

var registry = map[domain.ScanType]classifyFunc{
	domain.ScanTLSQualys: classifyQualys,
	domain.ScanCertificateTrusted: lookup(table{
		"trusted":     {none, "Certificate is trusted."},
		"not trusted": {high, "Certificate not trusted."},
	}),
	domain.ScanEncryptionQuality: lookup(gradeTable),
	domain.ScanPlainHTTPS: lookup(table{
		"0":    {none, "Secure alternative available."},
		"25":   {medium, "Redirects to a secure site, while a secure counterpart on the standard port is missing."},
		"1000": {high, "Site does not redirect to a secure url, and has no secure alternative on a standard port."},
	}),
	domain.ScanHSTS:                lookup(headerTable("Strict-Transport-Security", medium)),
	domain.ScanXFrameOptions:       lookup(headerTable("X-Frame-Options", medium)),
	domain.ScanXContentTypeOptions: lookup(headerTable("X-Content-Type-Options", low)),
	domain.ScanXXSSProtection:      lookup(headerTable("X-XSS-Protection", low)),
	domain.ScanFTP: lookup(table{
		"secure":   {none, "FTP server supports encryption."},
		"outdated": {medium, "FTP server uses outdated encryption."},
		"insecure": {high, "FTP server does not support encryption."},
	}),
	domain.ScanDNSSEC: lookup(table{
		"SECURE":   {none, "DNSSEC is set up correctly."},
		"INSECURE": {medium, "DNSSEC is not set up."},
		"ERROR":    {high, "DNSSEC is incorrectly or not configured (errors found)."},
	}),
}

// Classify rates a single scan event. Comply-or-explain validity is judged
// at evaluateAt; explained findings still count in the severity.
func Classify(ev domain.ScanEvent, evaluateAt time.Time) (domain.Finding, error) {
	fn, ok := registry[ev.Type]
	if !ok {
		return domain.Finding{}, fmt.Errorf("%w: %q", domain.ErrUnknownScanType, ev.Type)
	}
	out, err := fn(ev)
	if err != nil {
		return domain.Finding{}, err
	}

	explanation := out.explanation
	if ev.Explanation != "" {
		explanation = ev.Explanation
	}
	f := domain.Finding{
		Type:        ev.Type,
		Explanation: explanation,
		Severity:    out.severity,
		Since:       ev.DeterminedOn.UTC(),
		LastScan:    ev.LastConfirmedOn.UTC(),
	}
	if ev.Explained.IsExplained {
		f.IsExplained = true
		f.ExplanationText = ev.Explained.Explanation
		f.ValidAtTimeOfReport = true
		if ev.Explained.ValidUntil != nil {
			until := ev.Explained.ValidUntil.UTC()
			f.ExplainedValidUntil = &until
			f.ValidAtTimeOfReport = until.After(evaluateAt)
		}
	}
	return f, nil
}

// Known reports whether a classifier is registered for t.
func Known(t domain.ScanType) bool {
	_, ok := registry[t]
	return ok
}
