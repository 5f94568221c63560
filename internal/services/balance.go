package services

import "strconv"

type TotalBalance struct {
	Value      int    `json:"value"`
	IsPositive bool   `json:"is_positive"`
	Formatted  string `json:"formatted"`
}

// ComputeTotalBalance sums the daily net balances.
func ComputeTotalBalance(days []DailyAggregate) TotalBalance {
	total := 0
	for _, day := range days {
		total += day.NetBalance
	}
	return TotalBalance{
		Value:      total,
		IsPositive: total > 0,
		Formatted:  FormatBalance(total),
	}
}

// FormatBalance renders millilitres with an explicit sign for non-zero values.
func FormatBalance(value int) string {
	if value > 0 {
		return "+" + strconv.Itoa(value) + " mL"
	}
	return strconv.Itoa(value) + " mL"
}
