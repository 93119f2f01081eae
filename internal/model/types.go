package model

import "time"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

type ChromosomeRecord struct {
	ID      string    `json:"id"`
	Fitness *float64  `json:"fitness,omitempty"`
	Genes   []float64 `json:"genes,omitempty"`
}

// GenerationRecord is the persisted snapshot of a generation. Chromosome order
// is kept as-is since it defines wheel slot order.
type GenerationRecord struct {
	VersionedRecord
	RunID       string             `json:"run_id"`
	Number      int                `json:"number"`
	Chromosomes []ChromosomeRecord `json:"chromosomes"`
	BestID      string             `json:"best_id,omitempty"`
}

// PhaseNote is one collector notification: the chromosomes seen at a phase of
// a generation.
type PhaseNote struct {
	VersionedRecord
	RunID         string    `json:"run_id"`
	Generation    int       `json:"generation"`
	Phase         string    `json:"phase"`
	ChromosomeIDs []string  `json:"chromosome_ids"`
	Fitness       []float64 `json:"fitness"`
	CreatedAt     time.Time `json:"created_at"`
}
