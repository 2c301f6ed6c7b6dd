package parser

import "semclass/internal/domain"

// Normalize groups flat scanner output into a ParsedResult. Category order is the order in
// which each category first appears; records keep extraction order. For repeated system
// names the last value wins.
func Normalize(fields Fields, raw string) *domain.ParsedResult {
	cats := domain.NewCategories()
	for _, rec := range fields.Scored {
		cats.Append(rec)
	}

	system := make(map[string]string, len(fields.System))
	for _, rec := range fields.System {
		system[rec.Name] = rec.Value
	}

	return &domain.ParsedResult{
		DocumentURL: fields.DocumentURL,
		Categories:  cats,
		SystemInfo:  system,
		RawPayload:  raw,
	}
}

// Flatten lists the scored records of pr category by category.
func Flatten(pr *domain.ParsedResult) []domain.ScoredRecord {
	var out []domain.ScoredRecord
	for _, name := range pr.Categories.Names() {
		out = append(out, pr.Categories.Records(name)...)
	}
	return out
}

// Renormalize regroups an existing result. On a result built by Normalize it returns an
// equal result.
func Renormalize(pr *domain.ParsedResult) *domain.ParsedResult {
	fields := Fields{DocumentURL: pr.DocumentURL, Scored: Flatten(pr)}
	out := Normalize(fields, pr.RawPayload)
	for k, v := range pr.SystemInfo {
		out.SystemInfo[k] = v
	}
	out.Structured = pr.Structured
	return out
}
