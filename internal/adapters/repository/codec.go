package repository

import (
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/comitanigiacomo/kanso-analytics-engine/internal/core/domain"
)

func encodeRecord(r *domain.AnalyticsRecord) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal analytics record: %w", err)
	}
	return data, nil
}

// decodeRecord turns a stored document into a record. Undecodable or invalid
// documents are reported as *domain.CorruptRecordError carrying version.
func decodeRecord(userID string, version int, raw []byte) (*domain.AnalyticsRecord, error) {
	var r domain.AnalyticsRecord
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, &domain.CorruptRecordError{UserID: userID, Version: version, Err: err}
	}
	if err := r.Validate(userID); err != nil {
		return nil, &domain.CorruptRecordError{UserID: userID, Version: version, Err: err}
	}

	r.Normalize()
	r.Version = version
	return &r, nil
}
