package app

import (
	"context"
	"log/slog"
	"strings"

	"assessment-service/internal/domain"
)

const (
	// PendingFeedback is shown while the feedback generator runs.
	PendingFeedback = "Analyse en cours par le Responsable Comptable..."
	// FallbackFeedback replaces feedback that could not be generated.
	FallbackFeedback = "Test terminé. Vos connaissances sur le modèle IZYSHOW (10% commission, pas de TVA) sont en cours d'évaluation."
)

// generateFeedback never fails: any provider error or empty text yields FallbackFeedback.
func generateFeedback(ctx context.Context, provider FeedbackProvider, result domain.AssessmentResult, logger *slog.Logger) string {
	if provider == nil {
		return FallbackFeedback
	}
	text, err := provider.Feedback(ctx, result.Clone())
	if err == nil && strings.TrimSpace(text) == "" {
		err = domain.ErrEmptyFeedback
	}
	if err != nil {
		logger.Warn("feedback generation failed", "email", result.Email, "error", err)
		return FallbackFeedback
	}
	return strings.TrimSpace(text)
}
