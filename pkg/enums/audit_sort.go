package enums

import (
	"fmt"
	"strings"
)

// AuditSort selects the ordering of movement log queries.
type AuditSort string

const (
	AuditSortTimestampDesc AuditSort = "timestamp_desc"
	AuditSortTimestampAsc  AuditSort = "timestamp_asc"
	AuditSortStudentID     AuditSort = "student_id"
	AuditSortAction        AuditSort = "action"
)

var validAuditSorts = []AuditSort{
	AuditSortTimestampDesc,
	AuditSortTimestampAsc,
	AuditSortStudentID,
	AuditSortAction,
}

func (s AuditSort) IsValid() bool {
	for _, candidate := range validAuditSorts {
		if candidate == s {
			return true
		}
	}
	return false
}

// OrDefault returns timestamp_desc for the zero value.
func (s AuditSort) OrDefault() AuditSort {
	if s == "" {
		return AuditSortTimestampDesc
	}
	return s
}

// ParseAuditSort converts raw input into AuditSort; empty input selects the default.
func ParseAuditSort(value string) (AuditSort, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return AuditSortTimestampDesc, nil
	}
	for _, candidate := range validAuditSorts {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sort %q", value)
}
