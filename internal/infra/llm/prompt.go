package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"assessment-service/internal/domain"
)

// businessRules steer the generator only; scoring never applies them.
var businessRules = []string{
	"Pas de TVA sur les locations.",
	"Prix final Artiste = Prix Salle + 5%.",
	"Commission IZYSHOW = 10% du prix de la salle.",
	"Stripe : Payouts à 7 jours, unitaires ou groupés.",
}

// BuildPrompt renders the mentor prompt for a scored attempt.
func BuildPrompt(result domain.AssessmentResult) string {
	breakdown, err := json.Marshal(result.CategoryBreakdown)
	if err != nil || result.CategoryBreakdown == nil {
		breakdown = []byte("{}")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "En tant que Responsable Comptable chez IZYSHOW (une marketplace de location de salles), évalue ce candidat stagiaire (%s).\n\n", result.Email)
	b.WriteString("Règles métier IZYSHOW :\n")
	for i, rule := range businessRules {
		fmt.Fprintf(&b, "%d. %s\n", i+1, rule)
	}
	b.WriteString("\nRésultats du candidat :\n")
	fmt.Fprintf(&b, "Score: %d/%d\n", result.Score, result.TotalQuestions)
	fmt.Fprintf(&b, "Détails par catégorie: %s\n\n", breakdown)
	b.WriteString("Fournis un feedback constructif en français (environ 100 mots). ")
	b.WriteString("Analyse s'il a compris la logique spécifique de non-TVA et la gestion des flux Stripe à 7 jours.")
	return b.String()
}
