package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSketchInfo_MarshalJSON(t *testing.T) {
	ts := time.Date(2024, 11, 5, 9, 7, 30, 0, time.UTC)
	info := SketchInfo{
		Name:      "x.jpg",
		Date:      ts,
		TimeOfDay: ts,
		Source:    "camera",
		Width:     640,
		Height:    480,
		Size:      1234,
	}

	raw, err := json.Marshal(info)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &got))

	assert.Equal(t, "05-11-2024", got["date"])
	assert.Equal(t, "09:07", got["timeOfDay"])
	assert.Equal(t, "x.jpg", got["name"])
	assert.Equal(t, float64(640), got["width"])
	assert.NotContains(t, got, "original")
}
