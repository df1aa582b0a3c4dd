package providers

import (
	"context"
	"fmt"

	"inspection-hand/models"
)

// Provider ist das Interface, das jede Datenquelle (z.B. Socrata) implementieren muss.
type Provider interface {
	// Fetch holt bis zu limit Roh-Datensätze aus der Quelle.
	Fetch(ctx context.Context, limit int) ([]models.InspectionRecord, error)

	// Name gibt den eindeutigen Namen des Providers zurück (z.B. "socrata").
	Name() string
}

// TransientFetchError kennzeichnet Netzwerk-, Auth- oder Dekodierfehler beim
// Upstream-Abruf. Der Aufrufer wiederholt nicht automatisch; der Lauf bricht ab.
type TransientFetchError struct {
	Provider string
	Err      error
}

func (e *TransientFetchError) Error() string {
	return fmt.Sprintf("transient fetch error from %s: %v", e.Provider, e.Err)
}

func (e *TransientFetchError) Unwrap() error {
	return e.Err
}
