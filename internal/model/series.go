package model

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// Series is the reading sequence handed over by the ingestion layer,
// already restricted to the analysis date range.
type Series struct {
	// Source names where the readings came from (file name, upload id).
	Source   string
	Readings []Reading
}

// Fingerprint identifies the series contents. Two series with the same
// readings in the same order share a fingerprint regardless of Source.
// Each timestamp's UTC offset is included because local dates and hours
// depend on it.
func (s Series) Fingerprint() string {
	h := sha256.New()
	var buf [8]byte
	for _, r := range s.Readings {
		binary.LittleEndian.PutUint64(buf[:], uint64(r.Timestamp.UnixNano()))
		h.Write(buf[:])
		_, offset := r.Timestamp.Zone()
		binary.LittleEndian.PutUint64(buf[:], uint64(int64(offset)))
		h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(r.GridImportKWh))
		h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(r.SolarExportKWh))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}
