package app

import (
	"fmt"
	"net/url"
	"strings"

	"assessment-service/internal/domain"
)

// MailtoReport builds the mailto: draft a candidate sends to the recruiting contact.
func MailtoReport(result domain.AssessmentResult, contact string) string {
	subject := "Rapport de Test Comptable IZYSHOW - " + result.Email

	var b strings.Builder
	b.WriteString("Bonjour l'équipe IZYSHOW,\n\n")
	fmt.Fprintf(&b, "Voici les résultats du test technique de %s :\n\n", result.Email)
	fmt.Fprintf(&b, "SCORE GLOBAL : %d / %d (%d%%)\n\n", result.Score, result.TotalQuestions, result.Percent())
	b.WriteString("AVIS DU RESPONSABLE COMPTABLE (IA) :\n")
	fmt.Fprintf(&b, "\"%s\"\n\n", result.Feedback)
	b.WriteString("Cordialement,\nPlateforme Assessment IZYSHOW")

	return "mailto:" + contact + "?subject=" + escape(subject) + "&body=" + escape(b.String())
}

// escape matches encodeURIComponent closely enough for mail clients (spaces as %20).
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
