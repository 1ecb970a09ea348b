package registry

import "fmt"

// Thresholds carries every tunable constant the pipeline compares against.
// A value is read once at startup and never mutated.
type Thresholds struct {
	// SameEntity is the similarity at or above which two strings are the
	// same entity with no finding.
	SameEntity float64
	// MinorVariant is the similarity at or above which two strings are the
	// same entity with a minor spelling variation.
	MinorVariant float64
	// ClusterPatient is the minimum patient-name similarity for a record to
	// join a cluster.
	ClusterPatient float64
	// ClusterProcedure is the minimum procedure-name similarity for a record
	// to join a cluster.
	ClusterProcedure float64
	// DateToleranceDays is the maximum day difference for two dated records
	// to cluster together.
	DateToleranceDays int
	// QuantityMedia and QuantityAlta are the relative quantity differences
	// above which a supply mismatch escalates.
	QuantityMedia float64
	QuantityAlta  float64
	// TraceabilityAlta is the completeness score below which a traceability
	// finding escalates from MEDIA to ALTA.
	TraceabilityAlta float64
}

// DefaultThresholds returns the documented defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SameEntity:        0.85,
		MinorVariant:      0.60,
		ClusterPatient:    0.60,
		ClusterProcedure:  0.50,
		DateToleranceDays: 2,
		QuantityMedia:     0.20,
		QuantityAlta:      0.50,
		TraceabilityAlta:  0.5,
	}
}

// Validate rejects threshold sets that would make the pipeline incoherent.
func (t Thresholds) Validate() error {
	unit := map[string]float64{
		"same_entity":       t.SameEntity,
		"minor_variant":     t.MinorVariant,
		"cluster_patient":   t.ClusterPatient,
		"cluster_procedure": t.ClusterProcedure,
		"quantity_media":    t.QuantityMedia,
		"quantity_alta":     t.QuantityAlta,
		"traceability_alta": t.TraceabilityAlta,
	}
	for name, v := range unit {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be in [0,1], got %v", name, v)
		}
	}
	if t.MinorVariant > t.SameEntity {
		return fmt.Errorf("minor_variant (%v) must not exceed same_entity (%v)", t.MinorVariant, t.SameEntity)
	}
	if t.QuantityMedia > t.QuantityAlta {
		return fmt.Errorf("quantity_media (%v) must not exceed quantity_alta (%v)", t.QuantityMedia, t.QuantityAlta)
	}
	if t.DateToleranceDays < 0 {
		return fmt.Errorf("date_tolerance_days must not be negative, got %d", t.DateToleranceDays)
	}
	return nil
}
