package core

import "regexp"

// unwantedCodeRules drop analytics, tracking and social widgets that make
// no sense in an offline copy.
var unwantedCodeRules = []contentRule{
	{"gtm-head", regexp.MustCompile(`(?s)<!-- Google Tag Manager -->.*?<!-- End Google Tag Manager -->`), ""},
	{"gtm-noscript", regexp.MustCompile(`(?s)<!-- Google Tag Manager \(noscript\) -->.*?<!-- End Google Tag Manager \(noscript\) -->`), ""},
	{"gtm-iframe", regexp.MustCompile(`(?is)<noscript>\s*<iframe[^>]+googletagmanager\.com[^>]*>\s*</iframe>\s*</noscript>`), ""},
	{"gtm-inline", regexp.MustCompile(`(?is)<script[^>]*>[^<]*googletagmanager\.com/gtm\.js[^<]*</script>`), ""},
	{"gtag-loader", regexp.MustCompile(`(?is)<script[^>]+src=["'][^"']*googletagmanager\.com/gtag/js[^"']*["'][^>]*>\s*</script>`), ""},
	{"datalayer-inline", regexp.MustCompile(`(?is)<script[^>]*>\s*window\.dataLayer\s*=[^<]*</script>`), ""},
	{"analytics-legacy", regexp.MustCompile(`(?is)<script[^>]*>[^<]*GoogleAnalyticsObject[^<]*</script>`), ""},
	{"facebook-pixel", regexp.MustCompile(`(?is)<script[^>]*>[^<]*connect\.facebook\.net[^<]*</script>`), ""},
	{"facebook-sdk", regexp.MustCompile(`(?is)<script[^>]+src=["'][^"']*connect\.facebook\.net[^"']*["'][^>]*>\s*</script>`), ""},
	{"twitter-widgets", regexp.MustCompile(`(?is)<script[^>]+src=["'][^"']*platform\.twitter\.com/widgets\.js[^"']*["'][^>]*>\s*</script>`), ""},
	{"linkedin-insight", regexp.MustCompile(`(?is)<script[^>]+src=["'][^"']*snap\.licdn\.com[^"']*["'][^>]*>\s*</script>`), ""},
	{"hotjar", regexp.MustCompile(`(?is)<script[^>]*>[^<]*static\.hotjar\.com[^<]*</script>`), ""},
	{"recaptcha", regexp.MustCompile(`(?is)<script[^>]+src=["'][^"']*recaptcha[^"']*\.js[^"']*["'][^>]*>\s*</script>`), ""},
}

func removeUnwantedCode(content string) string {
	for _, rule := range unwantedCodeRules {
		content = rule.apply(content)
	}
	return content
}
