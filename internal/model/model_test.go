package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSubStoreID(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "absent", raw: "", want: MissingSubStoreKey},
		{name: "blank", raw: "   ", want: MissingSubStoreKey},
		{name: "tabs and newlines", raw: "\t\n", want: MissingSubStoreKey},
		{name: "sentinel", raw: MissingSubStoreKey, want: MissingSubStoreKey},
		{name: "real sub-store", raw: "SS-7", want: "SS-7"},
		{name: "kept verbatim", raw: " SS-7", want: " SS-7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeSubStoreID(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, NormalizeSubStoreID(got), "normalizing twice must not change the result")
		})
	}
}

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2024-03")
	require.NoError(t, err)
	assert.Equal(t, 2024, m.Year)
	assert.Equal(t, time.March, m.Month)
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), m.FirstDay())
	assert.Equal(t, "2024-03", m.String())

	for _, bad := range []string{"2024-13", "2024-00", "2024-3", "03-2024", "2024-03-01", ""} {
		_, err := ParseMonth(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestNewMetricFilter(t *testing.T) {
	month, err := ParseMonth("2024-03")
	require.NoError(t, err)

	f := NewMetricFilter("S1", "", month)
	assert.Equal(t, "S1", f.StoreID)
	assert.Equal(t, MissingSubStoreKey, f.SubStoreID)
	assert.Equal(t, month, f.Month)

	f = NewMetricFilter("S1", "SS-7", month)
	assert.Equal(t, "SS-7", f.SubStoreID)
}

func TestDate_JSON(t *testing.T) {
	d := NewDate(time.Date(2024, time.March, 1, 15, 30, 0, 0, time.FixedZone("X", 3600)))

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-01"`, string(data))

	var decoded Date
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, d.Equal(decoded.Time))

	assert.Error(t, json.Unmarshal([]byte(`"03/01/2024"`), &decoded))
	assert.Error(t, json.Unmarshal([]byte(`20240301`), &decoded))
}

func TestRecords_JSONFieldNames(t *testing.T) {
	row := ParticipationRate{
		SurveyMonth:                 NewDate(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)),
		StoreID:                     "S1",
		SubStoreID:                  MissingSubStoreKey,
		SurveyResponseCountFact:     40,
		ActiveEmployeeCountFact:     50,
		ParticipationRatePercentage: 80,
	}

	data, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"surveyMonth": "2024-03-01",
		"storeId": "S1",
		"subStoreId": "MISSING_SUB_STORE_KEY",
		"surveyResponseCountFact": 40,
		"activeEmployeeCountFact": 50,
		"participationRatePercentage": 80
	}`, string(data))
}

func roundTrip[T any](t *testing.T, in T) {
	t.Helper()

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out T
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestRecords_JSONRoundTrip(t *testing.T) {
	march := NewDate(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC))
	december := NewDate(time.Date(1999, time.December, 1, 0, 0, 0, 0, time.UTC))

	tests := []struct {
		name string
		run  func(t *testing.T)
	}{
		{name: "monthly satisfaction", run: func(t *testing.T) {
			roundTrip(t, MonthlySatisfaction{
				SatisfactionMonth:           march,
				StoreID:                     "STORE_42",
				SubStoreID:                  "SUB_7",
				AvgMonthlySatisfactionScore: 4.217,
				NumberOfSurveysFact:         17,
			})
		}},
		{name: "average response time", run: func(t *testing.T) {
			roundTrip(t, AvgResponseTime{
				ResponseMonth:              december,
				StoreID:                    "S-ü 1",
				SubStoreID:                 MissingSubStoreKey,
				MonthlyAvgResponseTimeDays: 0.3333333333333333,
				TotalResponsesForAvgTime:   9_007_199_254,
			})
		}},
		{name: "participation rate", run: func(t *testing.T) {
			roundTrip(t, ParticipationRate{
				SurveyMonth:                 march,
				StoreID:                     " S1 ",
				SubStoreID:                  "SS\"7",
				SurveyResponseCountFact:     41,
				ActiveEmployeeCountFact:     57,
				ParticipationRatePercentage: 71.92982456140351,
			})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.run)
	}
}
