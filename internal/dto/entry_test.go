package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHistoryEntryMarshalJSON(t *testing.T) {
	entry := HistoryEntry{
		Name:       "2025-06-15_14-30_00.000_Blue_plastic.jpg",
		Date:       time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC),
		TimeOfDay:  time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC),
		Status:     "sorted",
		Label:      "plastic",
		Confidence: 0.95,
		Bin:        "Blue",
		Objects:    []string{"plastic", "paper"},
	}

	data, err := json.Marshal(entry)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, "15-06-2025", decoded["date"])
	require.Equal(t, "14:30", decoded["timeOfDay"])
	require.Equal(t, "Blue", decoded["bin"])
	require.Len(t, decoded["objects"], 2)
}
