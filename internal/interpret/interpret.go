// Package interpret turns the model's free text into the structured
// analysis the composer consumes. Parsing is heuristic by nature, so the
// fallback branch is first-class: callers always get usable content.
package interpret

import (
	"strings"

	"github.com/suportedesk/backend/internal/models"
)

// maxItems bounds each bucket so a verbose model cannot flood the report.
const maxItems = 3

// minDiagnosisLen is the shortest diagnosis accepted as substantive.
const minDiagnosisLen = 40

var qualityLabels = [5]string{"Insuficiente", "Básico", "Adequado", "Bom", "Excelente"}

var diagnosisMarkers = []string{"diagnostico"}
var patternMarkers = []string{"padroes", "padrao"}
var recommendationMarkers = []string{"recomendacoes", "recomendacao", "acoes"}

var actionVerbs = []string{
	"implementar", "revisar", "treinar", "monitorar", "priorizar",
	"reduzir", "acompanhar", "documentar", "reservar", "consolidar",
	"manter", "reavaliar", "agendar",
}

// Interpret parses and grades raw model output. Empty input, error
// sentinels and responses missing the required sections all degrade to
// Fallback.
func Interpret(raw string) models.AIAnalysis {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || looksLikeError(trimmed) {
		return Fallback()
	}

	a := parseSections(trimmed)
	if a.Diagnosis == "" || (len(a.Patterns) == 0 && len(a.Recommendations) == 0) {
		return Fallback()
	}

	a.QualityScore = qualityScore(a)
	a.QualityLabel = qualityLabels[a.QualityScore]
	a.Confidence = confidence(trimmed)
	return a
}

// Fallback is the deterministic substitute for a failed or unusable model
// response. It is tagged so reports and tests can tell degraded analysis
// from genuine analysis.
func Fallback() models.AIAnalysis {
	return models.AIAnalysis{
		Diagnosis: "Análise interpretativa indisponível nesta semana. Os indicadores numéricos e os alertas determinísticos deste relatório permanecem válidos e devem orientar as ações.",
		Patterns: []string{
			"Detecção de padrões indisponível — consultar os alertas da seção de radar",
		},
		Recommendations: []string{
			"Acompanhar os agentes sinalizados como críticos no radar",
			"Repetir a análise na próxima execução do relatório",
		},
		IsFallback:   true,
		QualityScore: 0,
		QualityLabel: qualityLabels[0],
		Confidence:   0,
	}
}

type section int

const (
	sectionNone section = iota
	sectionDiagnosis
	sectionPatterns
	sectionRecommendations
)

func parseSections(raw string) models.AIAnalysis {
	var a models.AIAnalysis
	var diagnosis []string
	current := sectionNone

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if sec, rest := matchHeading(line); sec != sectionNone {
			current = sec
			line = rest
			if line == "" {
				continue
			}
		}

		if text, isBullet := stripBullet(line); isBullet {
			switch current {
			case sectionRecommendations:
				if len(a.Recommendations) < maxItems {
					a.Recommendations = append(a.Recommendations, text)
				}
			default:
				if len(a.Patterns) < maxItems {
					a.Patterns = append(a.Patterns, text)
				}
			}
			continue
		}

		// Narrative lines accumulate into the diagnosis regardless of the
		// section the model put them in.
		diagnosis = append(diagnosis, line)
	}

	a.Diagnosis = strings.Join(diagnosis, " ")
	return a
}

func matchHeading(line string) (section, string) {
	head, rest := line, ""
	if idx := strings.Index(line, ":"); idx >= 0 {
		head, rest = line[:idx], strings.TrimSpace(line[idx+1:])
	}
	norm := normalize(head)
	if len(norm) > 40 {
		return sectionNone, ""
	}
	for _, m := range diagnosisMarkers {
		if strings.Contains(norm, m) {
			return sectionDiagnosis, rest
		}
	}
	for _, m := range patternMarkers {
		if strings.Contains(norm, m) {
			return sectionPatterns, rest
		}
	}
	for _, m := range recommendationMarkers {
		if strings.Contains(norm, m) {
			return sectionRecommendations, rest
		}
	}
	return sectionNone, ""
}

func stripBullet(line string) (string, bool) {
	for _, prefix := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(line[len(prefix):]), true
		}
	}
	// Numbered markers: "1. item", "2) item". A space after the marker
	// keeps decimals like "85.3%" out.
	for i, r := range line {
		if r >= '0' && r <= '9' {
			continue
		}
		if i > 0 && (r == '.' || r == ')') && i+1 < len(line) && line[i+1] == ' ' {
			return strings.TrimSpace(line[i+1:]), true
		}
		break
	}
	return line, false
}

func looksLikeError(raw string) bool {
	norm := normalize(raw)
	if len(raw) < 30 {
		for _, marker := range []string{"error", "erro", "timeout", "unavailable", "indisponivel"} {
			if strings.Contains(norm, marker) {
				return true
			}
		}
	}
	return false
}

func qualityScore(a models.AIAnalysis) int {
	score := 0
	if len(a.Recommendations) > 0 {
		score++
	}
	if len(a.Patterns) > 0 {
		score++
	}
	if len(a.Patterns)+len(a.Recommendations) >= 3 {
		score++
	}
	if len(a.Diagnosis) > minDiagnosisLen {
		score++
	}
	return score
}

// confidence grades the raw text's shape independently of its structure:
// each satisfied check contributes 1/5.
func confidence(raw string) float64 {
	words := strings.Fields(raw)
	sentences := countSentences(raw)

	score := 0
	if len(words) >= 50 {
		score++
	}
	if sentences >= 3 {
		score++
	}
	if strings.ContainsAny(raw, "0123456789") {
		score++
	}
	norm := normalize(raw)
	for _, verb := range actionVerbs {
		if strings.Contains(norm, verb) {
			score++
			break
		}
	}
	if sentences > 0 {
		mean := float64(len(words)) / float64(sentences)
		if mean >= 10 && mean <= 25 {
			score++
		}
	}
	return float64(score) / 5
}

func countSentences(raw string) int {
	count := 0
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	}) {
		if strings.TrimSpace(part) != "" {
			count++
		}
	}
	return count
}

var accentReplacer = strings.NewReplacer(
	"á", "a", "à", "a", "ã", "a", "â", "a",
	"é", "e", "ê", "e",
	"í", "i",
	"ó", "o", "õ", "o", "ô", "o",
	"ú", "u", "ü", "u",
	"ç", "c",
)

func normalize(s string) string {
	return accentReplacer.Replace(strings.ToLower(s))
}
