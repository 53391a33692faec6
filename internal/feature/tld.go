package feature

import "strings"

// popularTLDs is the allowlist behind the tld_popularity feature.
var popularTLDs = map[string]bool{
	"com": true, "org": true, "net": true, "edu": true, "gov": true,
	"co": true, "uk": true, "de": true, "jp": true, "fr": true,
	"au": true, "us": true, "ru": true, "ch": true, "it": true,
	"nl": true, "se": true, "no": true, "es": true, "mil": true,
	"ca": true, "in": true, "br": true, "za": true, "cn": true,
	"mx": true, "tw": true, "pl": true, "be": true, "at": true,
}

// suspiciousExtensions flags URLs pointing at downloadable payloads.
var suspiciousExtensions = []string{
	".exe", ".zip", ".rar", ".tar", ".gz", ".7z", ".bin", ".bat",
	".sh", ".cmd", ".apk", ".app", ".deb", ".rpm", ".msi", ".dmg",
}

// multiPartSuffixes covers the common two-label public suffixes so domain
// splitting matches what a full public-suffix lookup would produce for the
// hosts this tool typically sees.
var multiPartSuffixes = map[string]bool{
	"co.uk": true, "org.uk": true, "gov.uk": true, "ac.uk": true, "me.uk": true,
	"com.au": true, "net.au": true, "org.au": true, "gov.au": true, "edu.au": true,
	"co.jp": true, "ne.jp": true, "or.jp": true, "ac.jp": true, "go.jp": true,
	"com.br": true, "net.br": true, "org.br": true, "gov.br": true,
	"co.in": true, "net.in": true, "org.in": true, "gov.in": true, "ac.in": true,
	"co.za": true, "org.za": true, "gov.za": true, "ac.za": true,
	"com.cn": true, "net.cn": true, "org.cn": true, "gov.cn": true, "edu.cn": true,
	"com.mx": true, "org.mx": true, "gob.mx": true,
	"com.tw": true, "org.tw": true, "gov.tw": true,
	"co.nz": true, "net.nz": true, "org.nz": true, "govt.nz": true,
	"com.ru": true, "org.ru": true, "net.ru": true,
	"co.kr": true, "or.kr": true, "go.kr": true,
	"com.sg": true, "com.hk": true, "com.tr": true, "com.ar": true,
	"com.pl": true, "com.ua": true, "in.ua": true,
}

// splitHost decomposes a host into subdomain, registrable domain, and
// effective TLD. IP-address hosts yield the whole host as the domain with an
// empty suffix.
func splitHost(host string) (subdomain, domain, tld string) {
	if host == "" {
		return "", "", ""
	}
	if ipv4Pattern.MatchString(host) {
		return "", host, ""
	}

	labels := strings.Split(host, ".")
	if len(labels) == 1 {
		return "", host, ""
	}

	suffixLen := 1
	if len(labels) >= 3 {
		lastTwo := labels[len(labels)-2] + "." + labels[len(labels)-1]
		if multiPartSuffixes[lastTwo] {
			suffixLen = 2
		}
	}

	tld = strings.Join(labels[len(labels)-suffixLen:], ".")
	rest := labels[:len(labels)-suffixLen]
	if len(rest) == 0 {
		return "", "", tld
	}

	domain = rest[len(rest)-1]
	if len(rest) > 1 {
		subdomain = strings.Join(rest[:len(rest)-1], ".")
	}
	return subdomain, domain, tld
}
