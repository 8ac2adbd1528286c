package util

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MinAmount       = 0.5
	MaxAmount       = 5.0
	MaxAttendeeName = 50
	dateLayout      = "2006-01-02"
)

// ValidateAmount 验证饮酒量：0.5 ~ 5.0，且必须是 0.5 的整数倍
func ValidateAmount(amount float64) error {
	if math.IsNaN(amount) || amount < MinAmount || amount > MaxAmount {
		return fmt.Errorf("amount must be between %.1f and %.1f, got %v", MinAmount, MaxAmount, amount)
	}
	if doubled := amount * 2; doubled != math.Trunc(doubled) {
		return fmt.Errorf("amount must be a multiple of 0.5, got %v", amount)
	}
	return nil
}

// ValidateDate 验证日期格式（必须为 YYYY-MM-DD）
func ValidateDate(dateStr string) error {
	if dateStr == "" {
		return fmt.Errorf("date is empty")
	}
	_, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return fmt.Errorf("invalid date format: %w", err)
	}
	return nil
}

// ValidateAttendeeName 验证参与者名字（1-50 个字符，不能全是空白）
func ValidateAttendeeName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("attendee name is empty")
	}
	if utf8.RuneCountInString(name) > MaxAttendeeName {
		return fmt.Errorf("attendee name too long, max %d characters", MaxAttendeeName)
	}
	return nil
}

// ValidateYearMonth 验证年份和月份（month 为 0 时只校验年份）
func ValidateYearMonth(year, month int) error {
	if year < 1 || year > 9999 {
		return fmt.Errorf("invalid year %d", year)
	}
	if month < 0 || month > 12 {
		return fmt.Errorf("invalid month %d", month)
	}
	return nil
}
