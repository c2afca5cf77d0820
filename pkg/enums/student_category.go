package enums

import (
	"fmt"
	"strings"
)

// StudentCategory distinguishes college students from integrated basic education (ibed) pupils.
type StudentCategory string

const (
	StudentCategoryCollege StudentCategory = "college"
	StudentCategoryIBED    StudentCategory = "ibed"
)

const (
	MinLevel     = 1
	MaxIBEDLevel = 12
)

var validStudentCategories = []StudentCategory{
	StudentCategoryCollege,
	StudentCategoryIBED,
}

func (c StudentCategory) String() string {
	return string(c)
}

func (c StudentCategory) IsValid() bool {
	for _, candidate := range validStudentCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ValidateLevel enforces the level bounds for the category. College levels are
// open-ended, ibed grades run from 1 to 12.
func (c StudentCategory) ValidateLevel(level int) error {
	switch c {
	case StudentCategoryIBED:
		if level < MinLevel || level > MaxIBEDLevel {
			return fmt.Errorf("ibed student grade level must be between %d and %d", MinLevel, MaxIBEDLevel)
		}
	case StudentCategoryCollege:
		if level < MinLevel {
			return fmt.Errorf("college student year level must be at least %d", MinLevel)
		}
	default:
		return fmt.Errorf("invalid student category %q", c)
	}
	return nil
}

// ParseStudentCategory converts raw input into StudentCategory; empty input means college.
func ParseStudentCategory(value string) (StudentCategory, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return StudentCategoryCollege, nil
	}
	for _, candidate := range validStudentCategories {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid student category %q", value)
}
