package domain

// ScanType names the finding a scan event reports on.
type ScanType string

const (
	ScanTLSQualys           ScanType = "tls_qualys"
	ScanCertificateTrusted  ScanType = "tls_qualys_certificate_trusted"
	ScanEncryptionQuality   ScanType = "tls_qualys_encryption_quality"
	ScanPlainHTTPS          ScanType = "plain_https"
	ScanHSTS                ScanType = "Strict-Transport-Security"
	ScanXFrameOptions       ScanType = "X-Frame-Options"
	ScanXContentTypeOptions ScanType = "X-Content-Type-Options"
	ScanXXSSProtection      ScanType = "X-XSS-Protection"
	ScanFTP                 ScanType = "ftp"
	ScanDNSSEC              ScanType = "DNSSEC"
)

// Level is the entity a scan type is measured on.
type Level int

const (
	LevelEndpoint Level = iota + 1
	LevelUrl
)

// ScanTypes lists every known scan type with the level it applies to.
var ScanTypes = map[ScanType]Level{
	ScanTLSQualys:           LevelEndpoint,
	ScanCertificateTrusted:  LevelEndpoint,
	ScanEncryptionQuality:   LevelEndpoint,
	ScanPlainHTTPS:          LevelEndpoint,
	ScanHSTS:                LevelEndpoint,
	ScanXFrameOptions:       LevelEndpoint,
	ScanXContentTypeOptions: LevelEndpoint,
	ScanXXSSProtection:      LevelEndpoint,
	ScanFTP:                 LevelEndpoint,
	ScanDNSSEC:              LevelUrl,
}

func (t ScanType) Known() bool {
	_, ok := ScanTypes[t]
	return ok
}
