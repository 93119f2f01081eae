package storage

import (
	"encoding/json"
	"errors"

	"evoselect/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// CurrentVersion stamps records written by this build.
func CurrentVersion() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

func EncodeGeneration(g model.GenerationRecord) ([]byte, error) {
	return json.Marshal(g)
}

func DecodeGeneration(data []byte) (model.GenerationRecord, error) {
	var generation model.GenerationRecord
	if err := json.Unmarshal(data, &generation); err != nil {
		return model.GenerationRecord{}, err
	}
	if err := checkVersion(generation.VersionedRecord); err != nil {
		return model.GenerationRecord{}, err
	}
	return generation, nil
}

func EncodePhaseNote(n model.PhaseNote) ([]byte, error) {
	return json.Marshal(n)
}

func DecodePhaseNote(data []byte) (model.PhaseNote, error) {
	var note model.PhaseNote
	if err := json.Unmarshal(data, &note); err != nil {
		return model.PhaseNote{}, err
	}
	if err := checkVersion(note.VersionedRecord); err != nil {
		return model.PhaseNote{}, err
	}
	return note, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
