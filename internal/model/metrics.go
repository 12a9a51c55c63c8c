// Package model holds the records served by the metrics API.
//
// Every record is a flat, read-only projection of one row of a
// precomputed fact table. Records are created per request and
// discarded after serialization.
package model

import "strings"

// MissingSubStoreKey is the sentinel stored in sub_store_business_key for
// stores that have no sub-store subdivision.
const MissingSubStoreKey = "MISSING_SUB_STORE_KEY"

// NormalizeSubStoreID decides which sub-store a query filters on.
//
// Absent (""), blank, or sentinel input selects the sentinel row; any other
// value is matched exactly as given. The result is a fixed point:
// NormalizeSubStoreID(NormalizeSubStoreID(x)) == NormalizeSubStoreID(x).
func NormalizeSubStoreID(raw string) string {
	if strings.TrimSpace(raw) == "" || raw == MissingSubStoreKey {
		return MissingSubStoreKey
	}
	return raw
}

// MetricFilter selects the rows of one store, sub-store and month.
type MetricFilter struct {
	StoreID    string
	SubStoreID string
	Month      Month
}

// NewMetricFilter builds a filter with the sub-store already normalized.
func NewMetricFilter(storeID, subStoreID string, month Month) MetricFilter {
	return MetricFilter{
		StoreID:    storeID,
		SubStoreID: NormalizeSubStoreID(subStoreID),
		Month:      month,
	}
}

// MonthlySatisfaction is one row of the monthly satisfaction mart.
type MonthlySatisfaction struct {
	SatisfactionMonth           Date    `json:"satisfactionMonth"`
	StoreID                     string  `json:"storeId"`
	SubStoreID                  string  `json:"subStoreId"`
	AvgMonthlySatisfactionScore float64 `json:"avgMonthlySatisfactionScore"`
	NumberOfSurveysFact         int64   `json:"numberOfSurveysFact"`
}

// AvgResponseTime is one row of the average response time mart.
type AvgResponseTime struct {
	ResponseMonth              Date    `json:"responseMonth"`
	StoreID                    string  `json:"storeId"`
	SubStoreID                 string  `json:"subStoreId"`
	MonthlyAvgResponseTimeDays float64 `json:"monthlyAvgResponseTimeDays"`
	TotalResponsesForAvgTime   int64   `json:"totalResponsesForAvgTime"`
}

// ParticipationRate is one row of the survey participation mart.
type ParticipationRate struct {
	SurveyMonth                 Date    `json:"surveyMonth"`
	StoreID                     string  `json:"storeId"`
	SubStoreID                  string  `json:"subStoreId"`
	SurveyResponseCountFact     int64   `json:"surveyResponseCountFact"`
	ActiveEmployeeCountFact     int64   `json:"activeEmployeeCountFact"`
	ParticipationRatePercentage float64 `json:"participationRatePercentage"`
}
