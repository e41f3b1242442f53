package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// maskRule is one personal-data pattern with its replacement strategy
type maskRule struct {
	name    string
	pattern *regexp.Regexp
	mask    func(groups []string) string
}

// 개인정보보호법 masking rules, applied in order. Identifier formats
// common in Korean contracts: resident registration numbers, phone
// numbers, emails, business registration numbers, account numbers,
// addresses and monetary amounts.
var maskRules = []maskRule{
	{
		name:    "resident_number",
		pattern: regexp.MustCompile(`\b(\d{6})[-\s]?(\d{7})\b`),
		mask: func(groups []string) string {
			return groups[1] + "-*******"
		},
	},
	{
		name:    "phone",
		pattern: regexp.MustCompile(`\b(0\d{1,2})[-.\s]?(\d{3,4})[-.\s]?(\d{4})\b`),
		mask: func(groups []string) string {
			return fmt.Sprintf("%s-****-%s", groups[1], groups[3])
		},
	},
	{
		name:    "email",
		pattern: regexp.MustCompile(`\b([a-zA-Z0-9._%+-]+)@([a-zA-Z0-9.-]+\.[a-zA-Z]{2,})\b`),
		mask: func(groups []string) string {
			username := groups[1]
			masked := strings.Repeat("*", len(username))
			if len(username) > 2 {
				masked = username[:2] + strings.Repeat("*", len(username)-2)
			}
			return masked + "@" + groups[2]
		},
	},
	{
		name:    "business_number",
		pattern: regexp.MustCompile(`\b(\d{3})[-\s]?(\d{2})[-\s]?(\d{5})\b`),
		mask: func(groups []string) string {
			return "***-**-*****"
		},
	},
	{
		name:    "account_number",
		pattern: regexp.MustCompile(`\b(\d{2,6})[-\s]?(\d{2,6})[-\s]?(\d{2,6})[-\s]?(\d{0,4})\b`),
		mask: func(groups []string) string {
			return "****-****-****"
		},
	},
	{
		name: "address",
		pattern: regexp.MustCompile(
			`(서울|부산|대구|인천|광주|대전|울산|세종|경기|강원|충북|충남|전북|전남|경북|경남|제주)` +
				`(특별시|광역시|특별자치시|도|특별자치도)?\s?` +
				`([가-힣]+[시군구])\s?` +
				`([가-힣]+[동읍면로길])?\s?` +
				`(\d+[-\d]*)?`),
		mask: func(groups []string) string {
			return groups[1] + groups[2] + " ***"
		},
	},
	{
		name:    "amount",
		pattern: regexp.MustCompile(`\b(\d{1,3}(?:,\d{3})*|\d+)\s*(원|만원|억원|천원|백만원|달러|USD|KRW)`),
		mask: func(groups []string) string {
			return "[금액정보]"
		},
	},
}

// Anonymizer masks personal data in text before it leaves the system.
// Contract amounts are preserved by default since they are the subject
// of review rather than identifying data.
type Anonymizer struct {
	preserveAmounts bool
}

// AnonymizerOption configures an Anonymizer
type AnonymizerOption func(*Anonymizer)

// AnonymizerWithAmountMasking masks monetary amounts as well
func AnonymizerWithAmountMasking() AnonymizerOption {
	return func(a *Anonymizer) {
		a.preserveAmounts = false
	}
}

// NewAnonymizer creates an anonymizer with the default rule set
func NewAnonymizer(opts ...AnonymizerOption) *Anonymizer {
	a := &Anonymizer{preserveAmounts: true}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Anonymize masks personal data in text. The returned mapping takes
// each masked form back to its original for callers that need to
// restore an annotated copy.
func (a *Anonymizer) Anonymize(text string) (string, map[string]string) {
	mapping := make(map[string]string)
	out := text
	for _, rule := range maskRules {
		if rule.name == "amount" && a.preserveAmounts {
			continue
		}
		out = rule.pattern.ReplaceAllStringFunc(out, func(original string) string {
			// already-masked output of an earlier rule
			if strings.Contains(original, "*") {
				return original
			}
			groups := rule.pattern.FindStringSubmatch(original)
			masked := rule.mask(groups)
			if masked != original {
				mapping[masked] = original
			}
			return masked
		})
	}
	return out, mapping
}

// Restore replaces masked forms with their originals
func (a *Anonymizer) Restore(text string, mapping map[string]string) string {
	out := text
	for masked, original := range mapping {
		out = strings.ReplaceAll(out, masked, original)
	}
	return out
}

// ContainsPersonalData reports whether the text matches any masking rule
func (a *Anonymizer) ContainsPersonalData(text string) bool {
	masked, _ := a.Anonymize(text)
	return masked != text
}

// SecureGenerator wraps a Generator and an Embedder, masking personal
// data in outbound user text before any external API call. System
// instructions are ours and pass through unmasked.
type SecureGenerator struct {
	generator  Generator
	embedder   Embedder
	anonymizer *Anonymizer
}

// NewSecureGenerator wraps the given generator and embedder
func NewSecureGenerator(generator Generator, embedder Embedder, anonymizer *Anonymizer) *SecureGenerator {
	if anonymizer == nil {
		anonymizer = NewAnonymizer()
	}
	return &SecureGenerator{generator: generator, embedder: embedder, anonymizer: anonymizer}
}

// Generate masks personal data in the prompt and delegates
func (s *SecureGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	masked, _ := s.anonymizer.Anonymize(req.Prompt)
	req.Prompt = masked
	return s.generator.Generate(ctx, req)
}

// Embed masks personal data in the query text and delegates
func (s *SecureGenerator) Embed(ctx context.Context, text string) ([]float64, error) {
	masked, _ := s.anonymizer.Anonymize(text)
	return s.embedder.Embed(ctx, masked)
}
